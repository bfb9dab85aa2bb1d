package device

import "fmt"

// Fridge bounds and defaults.
const (
	MinMainTemperature   = -10
	MaxMainTemperature   = 10
	MinFreezeTemperature = -30
	MaxFreezeTemperature = -10

	DefaultMainTemperature   = 4
	DefaultFreezeTemperature = -18
)

// Fridge is a two-compartment fridge/freezer.
//
// While the unit is off both compartments read the ambient temperature
// and temperature changes are refused with ErrDeviceOff.
type Fridge struct {
	base
	on         bool
	main       int
	freeze     int
	mainDoor   bool
	freezeDoor bool
	ambient    int
}

// NewFridge returns a powered fridge at the default set points.
func NewFridge(id, room string, ambient int) *Fridge {
	return &Fridge{
		base:    base{id: id, room: room},
		on:      true,
		main:    DefaultMainTemperature,
		freeze:  DefaultFreezeTemperature,
		ambient: ambient,
	}
}

func (f *Fridge) Kind() Kind { return KindFridge }

func (f *Fridge) IsOn() bool { return f.on }

// SetPower switches the compressor. Off forces both compartments to
// ambient; on restores the default set points.
func (f *Fridge) SetPower(on bool) {
	f.on = on
	if on {
		f.main = DefaultMainTemperature
		f.freeze = DefaultFreezeTemperature
		return
	}
	f.main = f.ambient
	f.freeze = f.ambient
}

func (f *Fridge) MainTemperature() int   { return f.main }
func (f *Fridge) FreezeTemperature() int { return f.freeze }
func (f *Fridge) MainDoorOpen() bool     { return f.mainDoor }
func (f *Fridge) FreezeDoorOpen() bool   { return f.freezeDoor }

// SetMainTemperature clamps v into the fridge range. When the unit is off
// the current value is returned together with ErrDeviceOff.
func (f *Fridge) SetMainTemperature(v int) (int, error) {
	if !f.on {
		return f.main, fmt.Errorf("%w: cannot set fridge temperature", ErrDeviceOff)
	}
	f.main = clampInt(v, MinMainTemperature, MaxMainTemperature)
	return f.main, nil
}

// SetFreezeTemperature clamps v into the freezer range, with the same
// powered-off behaviour as SetMainTemperature.
func (f *Fridge) SetFreezeTemperature(v int) (int, error) {
	if !f.on {
		return f.freeze, fmt.Errorf("%w: cannot set freezer temperature", ErrDeviceOff)
	}
	f.freeze = clampInt(v, MinFreezeTemperature, MaxFreezeTemperature)
	return f.freeze, nil
}

// SetDoors updates the door sensors. Doors are independent of power.
func (f *Fridge) SetDoors(mainOpen, freezeOpen bool) {
	f.mainDoor = mainOpen
	f.freezeDoor = freezeOpen
}

func (f *Fridge) Status() Status {
	return Status{
		{"power", f.on},
		{"mainTemperature", f.main},
		{"freezeTemperature", f.freeze},
		{"mainDoorOpen", f.mainDoor},
		{"freezeDoorOpen", f.freezeDoor},
	}
}

func (f *Fridge) StatusLines() []string {
	return []string{
		"Power: " + onOff(f.on),
		fmt.Sprintf("Main Temp: %d°C", f.main),
		fmt.Sprintf("Freeze Temp: %d°C", f.freeze),
		"Main Door: " + openShut(f.mainDoor),
		"Freezer Door: " + openShut(f.freezeDoor),
	}
}
