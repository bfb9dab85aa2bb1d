package protocol

import "errors"

// Decode errors. Check with errors.Is().
var (
	// ErrMalformedCommand is returned when the payload is not a command object
	// or device/action are missing or not strings.
	ErrMalformedCommand = errors.New("protocol: malformed command")

	// ErrUnknownDeviceType is returned when device does not name a known kind.
	ErrUnknownDeviceType = errors.New("protocol: unknown device type")

	// ErrUnknownAction is returned when action is not defined for the device kind.
	ErrUnknownAction = errors.New("protocol: unknown action")

	// ErrMissingParameter is returned when a required parameter is absent.
	ErrMissingParameter = errors.New("protocol: missing parameter")

	// ErrInvalidParameterType is returned when a parameter cannot be coerced
	// to the type the action needs.
	ErrInvalidParameterType = errors.New("protocol: invalid parameter type")
)
