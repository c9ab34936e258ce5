package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"StockMind/internal/domain/models"
)

func TestBatchRunnerAggregates(t *testing.T) {
	runner := NewBatchRunner(2, time.Second, noopMetrics{}, newTestLogger(t))

	unit := func(_ context.Context, symbol string) error {
		switch symbol {
		case "A":
			return nil
		case "B":
			return fmt.Errorf("%w: too little history", ErrSkipUnit)
		default:
			return errors.New("boom")
		}
	}

	report := runner.Run(context.Background(), "test", []string{"A", "B", "C"}, unit)

	if report.Ok != 1 || report.Skipped != 1 || report.Failed != 1 {
		t.Fatalf("unexpected counts ok=%d skipped=%d failed=%d", report.Ok, report.Skipped, report.Failed)
	}
	if len(report.Units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(report.Units))
	}
	for i, want := range []string{"A", "B", "C"} {
		if report.Units[i].Symbol != want {
			t.Fatalf("unit %d is %s, want %s", i, report.Units[i].Symbol, want)
		}
	}
	if report.Units[1].Status != models.UnitSkipped {
		t.Fatalf("B should be skipped, got %s", report.Units[1].Status)
	}
	if report.Units[2].Status != models.UnitFailed {
		t.Fatalf("C should be failed, got %s", report.Units[2].Status)
	}
}

func TestBatchRunnerEmptyInput(t *testing.T) {
	runner := NewBatchRunner(2, 0, noopMetrics{}, newTestLogger(t))
	report := runner.Run(context.Background(), "test", nil, func(context.Context, string) error {
		t.Fatal("unit must not run")
		return nil
	})
	if report.Ok != 0 || report.Skipped != 0 || report.Failed != 0 || len(report.Units) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestBatchRunnerUnitTimeout(t *testing.T) {
	runner := NewBatchRunner(1, 10*time.Millisecond, noopMetrics{}, newTestLogger(t))

	report := runner.Run(context.Background(), "test", []string{"SLOW"}, func(ctx context.Context, _ string) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return nil
		}
	})
	if report.Failed != 1 {
		t.Fatalf("timed out unit should fail, got %+v", report)
	}
}
