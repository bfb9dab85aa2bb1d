package device

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// CycleTimer drives the washing machine countdown on a cron schedule.
// It is independent of any client connection.
type CycleTimer struct {
	cron     *cron.Cron
	registry *Registry
	logger   Logger
}

// NewCycleTimer schedules Tick according to spec, for example "@every 1m".
func NewCycleTimer(registry *Registry, spec string) (*CycleTimer, error) {
	t := &CycleTimer{
		cron:     cron.New(),
		registry: registry,
		logger:   noopLogger{},
	}
	if _, err := t.cron.AddFunc(spec, func() { t.Tick() }); err != nil {
		return nil, fmt.Errorf("scheduling cycle timer %q: %w", spec, err)
	}
	return t, nil
}

// SetLogger sets the logger for the timer.
func (t *CycleTimer) SetLogger(logger Logger) {
	t.logger = logger
}

// Start begins ticking in the background.
func (t *CycleTimer) Start() {
	t.cron.Start()
	t.logger.Info("cycle timer started")
}

// Stop halts the schedule and waits for an in-flight tick to finish.
func (t *CycleTimer) Stop() {
	<-t.cron.Stop().Done()
	t.logger.Info("cycle timer stopped")
}

// Tick advances all running cycles once and returns how many changed.
func (t *CycleTimer) Tick() int {
	changed := t.registry.TickCycles()
	if len(changed) > 0 {
		t.logger.Debug("cycle tick", "changed", len(changed))
	}
	return len(changed)
}
