package statefeed

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/homesim-core/internal/device"
)

// DefaultBuffer is the per-sink queue length used when New is given zero.
const DefaultBuffer = 1024

// Sink receives committed device changes in commit order.
type Sink interface {
	Name() string
	HandleChange(ctx context.Context, change device.Change) error
}

// Logger is the logging interface used by the feed.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Feed decouples the registry from slow consumers. Notify is installed
// as the registry notifier and never blocks. Every sink has its own
// bounded queue and worker, so each sink observes changes in Seq order
// and a stalled sink only loses its own changes.
type Feed struct {
	buffer int

	mu      sync.RWMutex
	lanes   []*lane
	logger  Logger
	onDrop  func()
	onError func(sink string)

	// Set while Run is active so late sinks get a worker.
	runCtx context.Context
	wg     sync.WaitGroup

	dropped atomic.Uint64
}

type lane struct {
	sink    Sink
	queue   chan device.Change
	dropped atomic.Uint64
}

// SinkStats is the queue state of one sink.
type SinkStats struct {
	Sink    string `json:"sink"`
	Pending int    `json:"pending"`
	Dropped uint64 `json:"dropped"`
}

// New creates a feed whose per-sink queues hold buffer changes.
func New(buffer int) *Feed {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Feed{
		buffer: buffer,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the feed.
func (f *Feed) SetLogger(logger Logger) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logger = logger
}

// OnDrop registers a callback for changes discarded on a full queue.
// It fires once per sink that missed the change.
func (f *Feed) OnDrop(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onDrop = fn
}

// OnSinkError registers a callback for failed deliveries. It may be
// called from several workers at once.
func (f *Feed) OnSinkError(fn func(sink string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onError = fn
}

// AddSink appends a sink with its own queue. Sinks added while Run is
// active see only later changes.
func (f *Feed) AddSink(s Sink) {
	l := &lane{sink: s, queue: make(chan device.Change, f.buffer)}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lanes = append(f.lanes, l)
	if f.runCtx != nil {
		f.startLocked(l)
	}
}

// Notify enqueues a change on every sink queue without blocking. It has
// the device.Notifier signature.
func (f *Feed) Notify(change device.Change) {
	f.mu.RLock()
	lanes, logger, onDrop := f.lanes, f.logger, f.onDrop
	f.mu.RUnlock()

	for _, l := range lanes {
		select {
		case l.queue <- change:
		default:
			l.dropped.Add(1)
			f.dropped.Add(1)
			logger.Warn("state sink queue full, change dropped",
				"sink", l.sink.Name(),
				"seq", change.Seq,
				"device_id", change.Entry.ID,
			)
			if onDrop != nil {
				onDrop()
			}
		}
	}
}

// Dropped reports how many deliveries were discarded across all sinks.
func (f *Feed) Dropped() uint64 {
	return f.dropped.Load()
}

// Pending reports how many deliveries are queued across all sinks.
func (f *Feed) Pending() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, l := range f.lanes {
		n += len(l.queue)
	}
	return n
}

// Stats reports the queue state of every sink in registration order.
func (f *Feed) Stats() []SinkStats {
	f.mu.RLock()
	defer f.mu.RUnlock()
	stats := make([]SinkStats, 0, len(f.lanes))
	for _, l := range f.lanes {
		stats = append(stats, SinkStats{
			Sink:    l.sink.Name(),
			Pending: len(l.queue),
			Dropped: l.dropped.Load(),
		})
	}
	return stats
}

// Run starts one worker per sink and blocks until ctx is cancelled.
// Each worker then drains what its queue already holds, and Run returns
// ctx.Err() once all of them are done.
func (f *Feed) Run(ctx context.Context) error {
	f.mu.Lock()
	f.runCtx = ctx
	for _, l := range f.lanes {
		f.startLocked(l)
	}
	f.mu.Unlock()

	<-ctx.Done()

	f.mu.Lock()
	f.runCtx = nil
	f.mu.Unlock()
	f.wg.Wait()
	return ctx.Err()
}

func (f *Feed) startLocked(l *lane) {
	ctx := f.runCtx
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.work(ctx, l)
	}()
}

func (f *Feed) work(ctx context.Context, l *lane) {
	for {
		select {
		case change := <-l.queue:
			f.deliver(ctx, l.sink, change)
		case <-ctx.Done():
			f.drain(l)
			return
		}
	}
}

func (f *Feed) drain(l *lane) {
	// Sinks get a live context so final writes are not refused.
	ctx := context.Background()
	for {
		select {
		case change := <-l.queue:
			f.deliver(ctx, l.sink, change)
		default:
			return
		}
	}
}

func (f *Feed) deliver(ctx context.Context, s Sink, change device.Change) {
	if err := s.HandleChange(ctx, change); err != nil {
		f.mu.RLock()
		logger, onError := f.logger, f.onError
		f.mu.RUnlock()

		logger.Warn("state sink failed",
			"sink", s.Name(),
			"seq", change.Seq,
			"device_id", change.Entry.ID,
			"error", err,
		)
		if onError != nil {
			onError(s.Name())
		}
	}
}
