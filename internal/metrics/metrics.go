package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/homesim-core/internal/device"
	"github.com/nerrad567/homesim-core/internal/protocol"
)

const namespace = "homesim"

// Command result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Registry holds the simulator's Prometheus collectors on a private
// prometheus.Registry, so several instances can coexist in tests.
type Registry struct {
	reg *prometheus.Registry

	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	stateChanges    *prometheus.CounterVec
	cycleTicks      prometheus.Counter
	clients         prometheus.Gauge
	broadcastDrops  prometheus.Counter
	feedDrops       prometheus.Counter
	sinkErrors      *prometheus.CounterVec
}

// NewRegistry creates and registers every collector, plus the Go runtime
// and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands dispatched, by device type, action and result",
		}, []string{"device_type", "action", "result"}),
		commandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time spent dispatching a command",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"device_type"}),
		stateChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_changes_total",
			Help:      "Committed device state changes, by device type and source",
		}, []string{"device_type", "source"}),
		cycleTicks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_ticks_total",
			Help:      "Washing machine countdown steps applied by the cycle timer",
		}),
		clients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Currently connected websocket clients",
		}),
		broadcastDrops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_dropped_total",
			Help:      "Messages dropped because a client send buffer was full",
		}),
		feedDrops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_dropped_total",
			Help:      "State changes dropped because the fan-out queue was full",
		}),
		sinkErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "State change deliveries that failed, by sink",
		}, []string{"sink"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveCommand records a dispatched command.
func (r *Registry) ObserveCommand(kind device.Kind, action protocol.Action, success bool, elapsed time.Duration) {
	result := ResultFailure
	if success {
		result = ResultSuccess
	}
	r.commands.WithLabelValues(string(kind), string(action), result).Inc()
	r.commandDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// Name identifies the registry as a state feed sink.
func (r *Registry) Name() string { return "metrics" }

// HandleChange counts a committed change.
func (r *Registry) HandleChange(_ context.Context, change device.Change) error {
	r.stateChanges.WithLabelValues(string(change.Entry.Kind), change.Cause.Source).Inc()
	if change.Cause.Source == device.SourceTimer {
		r.cycleTicks.Inc()
	}
	return nil
}

func (r *Registry) ClientConnected()    { r.clients.Inc() }
func (r *Registry) ClientDisconnected() { r.clients.Dec() }
func (r *Registry) BroadcastDropped()   { r.broadcastDrops.Inc() }
func (r *Registry) FeedDropped()        { r.feedDrops.Inc() }

// SinkFailed counts a failed delivery to the named sink.
func (r *Registry) SinkFailed(sink string) {
	r.sinkErrors.WithLabelValues(sink).Inc()
}
