// Package protocol defines the wire format of commands and responses.
//
// Inbound:
//
//	{"device": "fan", "action": "setRPM", "deviceIndex": 0, "parameters": {"rpm": 1200}}
//
// Outbound:
//
//	{"success": true, "message": "...", "data": {...}, "type": "deviceState"}
//
// Device and action names are matched case-insensitively. Each action
// declares its parameters in the action table; Decode coerces them and
// reports the first problem as one of the package's sentinel errors.
package protocol
