package dispatch

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/homesim-core/internal/device"
	"github.com/nerrad567/homesim-core/internal/protocol"
)

// ErrUnknownDevice is returned when no handler is registered for a kind.
var ErrUnknownDevice = errors.New("dispatch: unknown device")

// Logger defines the logging interface used by the Dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Observer is told about every dispatched command. The metrics package
// implements it.
type Observer interface {
	ObserveCommand(kind device.Kind, action protocol.Action, success bool, elapsed time.Duration)
}

// Handler interprets one command against the registry. It returns the
// post-mutation entry and a human-readable message.
type Handler func(reg *device.Registry, cause device.Cause, cmd protocol.Command) (device.Entry, string, error)

// Dispatcher routes decoded commands to per-kind handlers.
//
// Dispatch never returns an error: every failure, including a panic
// inside a handler, becomes a success=false response.
type Dispatcher struct {
	registry *device.Registry

	mu       sync.RWMutex
	handlers map[device.Kind]Handler
	logger   Logger
	observer Observer
}

// New returns a Dispatcher with the built-in handler for every kind.
func New(registry *device.Registry) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		handlers: make(map[device.Kind]Handler, len(device.AllKinds)),
		logger:   noopLogger{},
	}
	for kind, h := range defaultHandlers {
		d.handlers[kind] = h
	}
	return d
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = logger
}

// SetObserver installs a command observer.
func (d *Dispatcher) SetObserver(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observer = o
}

// Register replaces the handler for kind. A nil handler removes it.
func (d *Dispatcher) Register(kind device.Kind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h == nil {
		delete(d.handlers, kind)
		return
	}
	d.handlers[kind] = h
}

// Dispatch runs cmd and builds the direct reply. origin identifies the
// requesting client and is carried on the resulting state change.
func (d *Dispatcher) Dispatch(origin string, cmd protocol.Command) (resp protocol.Response) {
	start := time.Now()

	d.mu.RLock()
	h, ok := d.handlers[cmd.Device]
	logger, observer := d.logger, d.observer
	d.mu.RUnlock()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panicked", "device", cmd.Device, "action", cmd.Action, "panic", r)
			resp = protocol.Failure(fmt.Sprintf("%s command failed: internal error", cmd.Device))
		}
		resp.RequestID = cmd.RequestID
		if observer != nil {
			observer.ObserveCommand(cmd.Device, cmd.Action, resp.Success, time.Since(start))
		}
	}()

	if !ok {
		logger.Warn("no handler for device", "error", fmt.Errorf("%w: %s", ErrUnknownDevice, cmd.Device))
		return protocol.Failure("Unknown device: " + string(cmd.Device))
	}

	cause := device.Cause{Source: device.SourceCommand, Origin: origin, Action: string(cmd.Action)}
	entry, message, err := h(d.registry, cause, cmd)
	if err != nil {
		logger.Debug("command failed",
			"device", cmd.Device,
			"action", cmd.Action,
			"index", cmd.DeviceIndex,
			"error", err,
		)
		return protocol.Failure(fmt.Sprintf("%s command failed: %v", cmd.Device, err))
	}

	logger.Debug("command applied",
		"device", cmd.Device,
		"action", cmd.Action,
		"device_id", entry.ID,
	)
	return protocol.DeviceState(message, entry)
}
