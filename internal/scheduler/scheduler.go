package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	domrepo "StockMind/internal/domain/repository"
	applogger "StockMind/pkg/logger"
	"StockMind/pkg/queue"
)

// Schedules carries the cron expressions for every recurring task.
type Schedules struct {
	Quotes     string
	Indicators string
	ScanDaily  string
	ScanWeekly string
	Forecast   string
	News       string
	Cleanup    string
}

// Scheduler ticks the recurring tasks. Each tick resolves the active
// symbol set and hands the task to the job queue; without a queue the
// job runs inline on the cron goroutine.
type Scheduler struct {
	cron       *cron.Cron
	jobQueue   *queue.RedisQueue
	store      domrepo.MarketStore
	fallback   []string
	maxSymbols int
	jobs       map[string]queue.Job
	l          *applogger.Logger
}

func New(jobQueue *queue.RedisQueue, store domrepo.MarketStore, fallbackSymbols []string, maxSymbols int, l *applogger.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		jobQueue:   jobQueue,
		store:      store,
		fallback:   fallbackSymbols,
		maxSymbols: maxSymbols,
		jobs:       make(map[string]queue.Job),
		l:          l,
	}
}

// RegisterAll binds every task to its cron expression. Empty
// expressions disable the task.
func (s *Scheduler) RegisterAll(sch Schedules, quotes *QuotesJob, indicators *IndicatorsJob,
	scan *ScanJob, forecast *ForecastJob, news *NewsJob, cleanup *CleanupJob) error {
	entries := []struct {
		expr   string
		job    queue.Job
		weekly bool
	}{
		{sch.Quotes, quotes, false},
		{sch.Indicators, indicators, false},
		{sch.ScanDaily, scan, false},
		{sch.ScanWeekly, scan, true},
		{sch.Forecast, forecast, false},
		{sch.News, news, false},
		{sch.Cleanup, cleanup, false},
	}

	for _, e := range entries {
		if e.expr == "" {
			continue
		}
		s.jobs[e.job.Type()] = e.job

		job, weekly := e.job, e.weekly
		if _, err := s.cron.AddFunc(e.expr, func() { s.dispatch(job, weekly) }); err != nil {
			return fmt.Errorf("register %s (%q): %w", job.Name(), e.expr, err)
		}
	}
	return nil
}

// dispatch resolves the active symbols and enqueues (or runs) the task.
func (s *Scheduler) dispatch(job queue.Job, weekly bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	payload := TaskPayload{Symbols: s.activeSymbols(ctx), Weekly: weekly}
	if len(payload.Symbols) == 0 {
		s.l.Warn("no active symbols, task skipped", applogger.String("task", job.Name()))
		return
	}

	if s.jobQueue != nil {
		if err := s.jobQueue.Enqueue(ctx, job.Type(), payload); err != nil {
			s.l.Error("enqueue failed", applogger.String("task", job.Name()), applogger.Error(err))
		}
		return
	}

	if err := job.Handle(ctx, payload); err != nil {
		s.l.Error("task failed", applogger.String("task", job.Name()), applogger.Error(err))
	}
}

// activeSymbols prefers the symbol catalogue and falls back to the
// static config list when the store is empty or unreachable.
func (s *Scheduler) activeSymbols(ctx context.Context) []string {
	if s.store != nil {
		symbols, err := s.store.ListSymbols(ctx, true)
		if err != nil {
			s.l.Warn("symbol list failed, using config symbols", applogger.Error(err))
		} else if len(symbols) > 0 {
			out := make([]string, 0, len(symbols))
			for _, sym := range symbols {
				out = append(out, sym.Ticker)
			}
			return s.cap(out)
		}
	}
	return s.cap(s.fallback)
}

func (s *Scheduler) cap(symbols []string) []string {
	if s.maxSymbols > 0 && len(symbols) > s.maxSymbols {
		return symbols[:s.maxSymbols]
	}
	return symbols
}

// Jobs returns the registered queue jobs for worker registration.
func (s *Scheduler) Jobs() []queue.Job {
	out := make([]queue.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("scheduler started", applogger.Int("tasks", len(s.jobs)))
}

// Stop stops the cron loop and waits for running ticks up to the
// context deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
	s.l.Info("scheduler stopped")
}
