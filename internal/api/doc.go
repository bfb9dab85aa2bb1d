// Package api serves the simulator over HTTP.
//
// It provides:
//   - The websocket control channel (default /iot): snapshot on connect,
//     one reply per command, deviceState broadcasts
//   - A read-only REST model under /api/v1 (devices, rooms, history, health)
//   - Prometheus metrics on /metrics
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
//	client ──frame──▶ WSClient.readPump ──Decode──▶ Dispatcher ──▶ Registry
//	   ▲                                                             │
//	   └── writePump ◀── send chan ◀── reply / Hub.HandleChange ◀── statefeed
//
// Replies and broadcasts share one ordered send queue per client, and a
// per-device sequence check keeps an older state from following a newer one.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
