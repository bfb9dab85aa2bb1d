// Package dispatch routes decoded commands to per-device handlers.
//
// Each handler resolves its target through the Registry and mutates it
// inside Registry.Apply, so a command is one serialised state transition.
// Errors never escape Dispatch; they become success=false replies of
// type commandResponse.
package dispatch
