package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultPruneSchedule runs retention once an hour.
const DefaultPruneSchedule = "@hourly"

// Logger is the logging interface used by the Janitor.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Janitor prunes the journal on a cron schedule.
type Janitor struct {
	cron      *cron.Cron
	store     *Store
	retention time.Duration
	logger    Logger
}

// NewJanitor schedules Prune(retention) according to spec.
func NewJanitor(store *Store, retention time.Duration, spec string) (*Janitor, error) {
	if retention <= 0 {
		return nil, ErrInvalidRetention
	}
	j := &Janitor{
		cron:      cron.New(),
		store:     store,
		retention: retention,
		logger:    noopLogger{},
	}
	if _, err := j.cron.AddFunc(spec, func() { _, _ = j.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("scheduling journal prune %q: %w", spec, err)
	}
	return j, nil
}

// SetLogger sets the logger for prune results.
func (j *Janitor) SetLogger(logger Logger) {
	j.logger = logger
}

// Start begins pruning in the background.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule and waits for an in-flight prune.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// RunOnce prunes immediately and returns the number of removed records.
func (j *Janitor) RunOnce(ctx context.Context) (int64, error) {
	n, err := j.store.Prune(ctx, j.retention)
	if err != nil {
		j.logger.Error("journal prune failed", "error", err)
		return 0, err
	}
	if n > 0 {
		j.logger.Info("journal pruned", "removed", n, "retention", j.retention.String())
	}
	return n, nil
}
