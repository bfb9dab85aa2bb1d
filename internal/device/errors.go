package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrDeviceOff) {
//	    // fridge ignored the temperature change
//	}
var (
	// ErrNotFound is returned when no device of the requested kind exists.
	ErrNotFound = errors.New("device: not found")

	// ErrIndexOutOfRange is returned when a deviceIndex falls outside an indexed collection.
	ErrIndexOutOfRange = errors.New("device: index out of range")

	// ErrInvalidColor is returned when a light colour is not six hex digits.
	ErrInvalidColor = errors.New("device: invalid color")

	// ErrInvalidSource is returned when a TV source is not in the allow-list.
	ErrInvalidSource = errors.New("device: invalid source")

	// ErrDeviceOff is returned when an operation needs the device powered on.
	ErrDeviceOff = errors.New("device: device is off")

	// ErrCycleInProgress is returned when a washing machine setting is changed mid-cycle.
	ErrCycleInProgress = errors.New("device: cycle in progress")

	// ErrCycleNotRunning is returned when stopping a washing machine that is idle.
	ErrCycleNotRunning = errors.New("device: no cycle running")

	// ErrInvalidCycle is returned for a wash cycle name that is not in the cycle table.
	ErrInvalidCycle = errors.New("device: invalid cycle")

	// ErrOutOfRange is returned by fields that reject rather than clamp.
	ErrOutOfRange = errors.New("device: value out of range")
)

// ErrDeviceExists is returned when two devices share an ID.
var ErrDeviceExists = errors.New("device: already exists")
