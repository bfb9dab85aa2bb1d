// Package metrics exposes Prometheus collectors for the simulator.
//
// Registry implements the dispatcher's command observer and the state
// feed sink interface, and is fed connection and drop events by the
// websocket hub. Handler serves it on /metrics.
package metrics
