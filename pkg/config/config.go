package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Provider struct {
		QuoteURL   string        `yaml:"quote_url"`
		ChartURL   string        `yaml:"chart_url"`
		SearchURL  string        `yaml:"search_url"`
		SummaryURL string        `yaml:"summary_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"provider"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		URL            string        `yaml:"url"`
		APIKey         string        `yaml:"api_key"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		MaxRPS         int           `yaml:"max_rps"`
		BufferSize     int           `yaml:"buffer_size"`
	} `yaml:"stream"`
	News struct {
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		DaysBack int           `yaml:"days_back"`
		PageSize int           `yaml:"page_size"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"news"`
	Sentiment struct {
		BaseURL    string        `yaml:"base_url"`
		APIKey     string        `yaml:"api_key"`
		Model      string        `yaml:"model"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxRetries int           `yaml:"max_retries"`
	} `yaml:"sentiment"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		EventsTopic  string   `yaml:"events_topic"`
		TicksTopic   string   `yaml:"ticks_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Queue struct {
		Workers    int           `yaml:"workers"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
	Schedule struct {
		Quotes     string `yaml:"quotes"`
		Indicators string `yaml:"indicators"`
		ScanDaily  string `yaml:"scan_daily"`
		ScanWeekly string `yaml:"scan_weekly"`
		Forecast   string `yaml:"forecast"`
		News       string `yaml:"news"`
		Cleanup    string `yaml:"cleanup"`
	} `yaml:"schedule"`
	Batch struct {
		Workers     int           `yaml:"workers"`
		MaxSymbols  int           `yaml:"max_symbols"`
		UnitTimeout time.Duration `yaml:"unit_timeout"`
	} `yaml:"batch"`
	Scanner struct {
		GainerThreshold    float64 `yaml:"gainer_threshold"`
		LoserThreshold     float64 `yaml:"loser_threshold"`
		UnusualVolumeRatio float64 `yaml:"unusual_volume_ratio"`
		BreakoutThreshold  float64 `yaml:"breakout_threshold"`
		AvgVolumeSessions  int     `yaml:"avg_volume_sessions"`
	} `yaml:"scanner"`
	Forecast struct {
		ShortHorizon  int `yaml:"short_horizon"`
		MediumHorizon int `yaml:"medium_horizon"`
		LongHorizon   int `yaml:"long_horizon"`
		MinBars       int `yaml:"min_bars"`
	} `yaml:"forecast"`
	Symbols []string `yaml:"symbols"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("NEWSAPI_KEY"); v != "" {
		c.News.APIKey = v
	}
	if v := os.Getenv("SENTIMENT_API_KEY"); v != "" {
		c.Sentiment.APIKey = v
	}
	if v := os.Getenv("STREAM_API_KEY"); v != "" {
		c.Stream.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Provider.Timeout <= 0 {
		c.Provider.Timeout = 10 * time.Second
	}
	if c.News.Timeout <= 0 {
		c.News.Timeout = 10 * time.Second
	}
	if c.News.DaysBack <= 0 {
		c.News.DaysBack = 7
	}
	if c.News.PageSize <= 0 {
		c.News.PageSize = 20
	}
	if c.Sentiment.Timeout <= 0 {
		c.Sentiment.Timeout = 10 * time.Second
	}
	if c.Sentiment.MaxRetries <= 0 {
		c.Sentiment.MaxRetries = 3
	}
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = 4
	}
	if c.Batch.UnitTimeout <= 0 {
		c.Batch.UnitTimeout = 10 * time.Second
	}
	if c.Scanner.GainerThreshold == 0 {
		c.Scanner.GainerThreshold = 2.0
	}
	if c.Scanner.LoserThreshold == 0 {
		c.Scanner.LoserThreshold = -2.0
	}
	if c.Scanner.UnusualVolumeRatio == 0 {
		c.Scanner.UnusualVolumeRatio = 2.0
	}
	if c.Scanner.BreakoutThreshold == 0 {
		c.Scanner.BreakoutThreshold = 5.0
	}
	if c.Scanner.AvgVolumeSessions <= 0 {
		c.Scanner.AvgVolumeSessions = 20
	}
	if c.Forecast.ShortHorizon <= 0 {
		c.Forecast.ShortHorizon = 7
	}
	if c.Forecast.MediumHorizon <= 0 {
		c.Forecast.MediumHorizon = 30
	}
	if c.Forecast.LongHorizon <= 0 {
		c.Forecast.LongHorizon = 90
	}
	if c.Forecast.MinBars <= 0 {
		c.Forecast.MinBars = 60
	}
	if c.Queue.Workers <= 0 {
		c.Queue.Workers = 2
	}
	if c.Queue.RetryLimit <= 0 {
		c.Queue.RetryLimit = 3
	}
	if c.Queue.RetryDelay <= 0 {
		c.Queue.RetryDelay = time.Minute
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Provider.QuoteURL == "" || c.Provider.ChartURL == "" {
		return fmt.Errorf("provider.quote_url and provider.chart_url are required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Forecast.ShortHorizon > c.Forecast.MediumHorizon ||
		c.Forecast.MediumHorizon > c.Forecast.LongHorizon {
		return fmt.Errorf("forecast horizons must be ordered short <= medium <= long")
	}
	if c.Scanner.LoserThreshold >= 0 {
		return fmt.Errorf("scanner.loser_threshold must be negative")
	}
	return nil
}
