package statefeed

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/nerrad567/homesim-core/internal/device"
)

// Breaker defaults for external sinks.
const (
	DefaultBreakerFailures = 5
	DefaultBreakerTimeout  = 30 * time.Second
)

// BreakerSink guards a sink that talks to an external service. After
// consecutive failures the breaker opens and changes are skipped until the
// timeout elapses, so a dead broker does not stall the feed worker on every
// change.
type BreakerSink struct {
	inner Sink
	cb    *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerSink wraps inner. failures <= 0 and timeout <= 0 fall back to
// the defaults. onStateChange may be nil.
func NewBreakerSink(inner Sink, failures uint32, timeout time.Duration, onStateChange func(name string, from, to gobreaker.State)) *BreakerSink {
	if failures == 0 {
		failures = DefaultBreakerFailures
	}
	if timeout <= 0 {
		timeout = DefaultBreakerTimeout
	}
	settings := gobreaker.Settings{
		Name:    inner.Name(),
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: onStateChange,
	}
	return &BreakerSink{inner: inner, cb: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

func (b *BreakerSink) Name() string { return b.inner.Name() }

// State reports the breaker position.
func (b *BreakerSink) State() gobreaker.State { return b.cb.State() }

// HandleChange forwards to the inner sink unless the breaker is open.
func (b *BreakerSink) HandleChange(ctx context.Context, change device.Change) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.inner.HandleChange(ctx, change)
	})
	return err
}

// IsOpen reports whether err came from a breaker refusing the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
