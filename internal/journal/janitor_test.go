package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/homesim-core/internal/device"
)

func TestNewJanitor_Validation(t *testing.T) {
	s := openStore(t)

	if _, err := NewJanitor(s, 0, DefaultPruneSchedule); !errors.Is(err, ErrInvalidRetention) {
		t.Errorf("NewJanitor(0) error = %v, want ErrInvalidRetention", err)
	}
	if _, err := NewJanitor(s, time.Hour, "every blue moon"); err == nil {
		t.Error("NewJanitor() accepted an invalid schedule")
	}
}

func TestJanitor_RunOnce(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return now }

	for i, age := range []time.Duration{72 * time.Hour, 30 * time.Hour, time.Minute} {
		c := change(uint64(i+1), "Fan_1", now.Add(-age), device.Status{{Key: "rpm", Value: i}})
		if err := s.Append(ctx, c); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	j, err := NewJanitor(s, 24*time.Hour, DefaultPruneSchedule)
	if err != nil {
		t.Fatalf("NewJanitor() error = %v", err)
	}
	j.Start()
	defer j.Stop()

	n, err := j.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if n != 2 {
		t.Errorf("RunOnce() removed %d, want 2", n)
	}
	if n, _ := j.RunOnce(ctx); n != 0 {
		t.Errorf("second RunOnce() removed %d, want 0", n)
	}
}
