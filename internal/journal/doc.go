// Package journal keeps an append-only SQLite log of device changes.
//
// Every change committed by the registry (command or cycle timer) is
// appended with its cause, so the history endpoint can show who changed
// what and when. Status is stored as the same ordered JSON object the
// websocket clients receive.
//
// A Janitor applies the configured retention on a cron schedule.
package journal
