package journal

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/playmatatu/pooltable/internal/game"
)

func TestNewRun(t *testing.T) {
	shot := game.BreakShot{
		Origin: game.NewVec2(-250, 10),
		Angle:  math.Pi / 4,
		Speed:  1100,
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	run := NewRun("run-1", "main", 42, shot, now)
	if run.ID != "run-1" || run.TableID != "main" || !run.StartedAt.Equal(now) {
		t.Errorf("unexpected identity fields: %+v", run)
	}
	if math.Abs(run.BreakAngle-45) > 1e-9 || run.BreakSpeed != 1100 {
		t.Errorf("break not recorded in degrees: angle=%v speed=%v", run.BreakAngle, run.BreakSpeed)
	}
	if run.CueX != -250 || run.CueY != 10 {
		t.Errorf("cue origin not recorded: (%v, %v)", run.CueX, run.CueY)
	}
	if !run.Seed.Valid || run.Seed.Int64 != 42 {
		t.Errorf("expected seed 42, got %+v", run.Seed)
	}

	if clockSeeded := NewRun("run-2", "main", 0, shot, now); clockSeeded.Seed.Valid {
		t.Error("a zero seed means clock-seeded and should be stored as NULL")
	}
}

func TestDisabledJournalIsNoOp(t *testing.T) {
	ctx := context.Background()
	for _, j := range []*Journal{nil, New(nil)} {
		if j.Enabled() {
			t.Fatal("journal without a DB should be disabled")
		}
		if err := j.StartRun(ctx, NewRun("r", "main", 0, game.BreakShot{}, time.Now())); err != nil {
			t.Errorf("StartRun: %v", err)
		}
		if err := j.RecordCapture(ctx, "r", game.Capture{Ball: 3}); err != nil {
			t.Errorf("RecordCapture: %v", err)
		}
		if err := j.MarkSettled(ctx, "r", 10); err != nil {
			t.Errorf("MarkSettled: %v", err)
		}
		if err := j.FinishRun(ctx, "r", "reset", 1); err != nil {
			t.Errorf("FinishRun: %v", err)
		}
		runs, err := j.RecentRuns(ctx, "main", 10)
		if err != nil || len(runs) != 0 {
			t.Errorf("RecentRuns: %v %v", runs, err)
		}
		if _, _, err := j.Run(ctx, "r"); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	}
}
