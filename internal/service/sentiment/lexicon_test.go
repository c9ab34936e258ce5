package sentiment

import (
	"context"
	"math"
	"testing"
)

func TestLexiconPositive(t *testing.T) {
	res, err := NewLexicon().Analyze(context.Background(), "Shares surge after strong earnings beat")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Label != "positive" {
		t.Fatalf("label = %s, want positive", res.Label)
	}
	if res.Score <= 0.1 {
		t.Fatalf("score = %v, want > 0.1", res.Score)
	}
	if res.Source != "lexicon" {
		t.Fatalf("source = %s", res.Source)
	}
}

func TestLexiconNegative(t *testing.T) {
	res, err := NewLexicon().Analyze(context.Background(), "Stock plunges amid bankruptcy fears and lawsuits")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Label != "negative" {
		t.Fatalf("label = %s, want negative", res.Label)
	}
	if res.Score >= -0.1 {
		t.Fatalf("score = %v, want < -0.1", res.Score)
	}
}

func TestLexiconNeutral(t *testing.T) {
	res, err := NewLexicon().Analyze(context.Background(), "Company schedules annual shareholder meeting")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Label != "neutral" || res.Score != 0 {
		t.Fatalf("got %s/%v, want neutral/0", res.Label, res.Score)
	}
}

func TestLexiconStripsPunctuation(t *testing.T) {
	res, err := NewLexicon().Analyze(context.Background(), "\"Rally!\" analysts say.")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if math.Abs(res.Score-0.95) > 1e-9 {
		t.Fatalf("score = %v, want 0.95 from rally", res.Score)
	}
}

func TestLexiconMixedAverages(t *testing.T) {
	// One +0.95 (rally) and one -0.95 (tumble) average to zero.
	res, err := NewLexicon().Analyze(context.Background(), "rally then tumble")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Score != 0 || res.Label != "neutral" {
		t.Fatalf("got %s/%v, want neutral/0", res.Label, res.Score)
	}
}
