package device

import "fmt"

// AC bounds and defaults.
const (
	MinACTemperature = 16
	MaxACTemperature = 30
	MinFanSpeed      = 0
	MaxFanSpeed      = 3

	DefaultACTemperature = 24
	DefaultFanSpeed      = 1
	ecoMaxFanSpeed       = 1
)

// AC is an air conditioner with an eco mode that caps the fan speed.
type AC struct {
	base
	on          bool
	temperature int
	fanSpeed    int
	eco         bool
}

func NewAC(id, room string) *AC {
	return &AC{
		base:        base{id: id, room: room},
		temperature: DefaultACTemperature,
		fanSpeed:    DefaultFanSpeed,
	}
}

func (a *AC) Kind() Kind { return KindAC }

func (a *AC) IsOn() bool { return a.on }

func (a *AC) SetPower(on bool) { a.on = on }

func (a *AC) Temperature() int { return a.temperature }
func (a *AC) FanSpeed() int    { return a.fanSpeed }
func (a *AC) EcoMode() bool    { return a.eco }

// SetTemperature clamps v into [MinACTemperature, MaxACTemperature].
func (a *AC) SetTemperature(v int) int {
	a.temperature = clampInt(v, MinACTemperature, MaxACTemperature)
	return a.temperature
}

// SetFanSpeed rejects values outside [MinFanSpeed, MaxFanSpeed] and
// leaves the current speed in place.
func (a *AC) SetFanSpeed(v int) (int, error) {
	if v < MinFanSpeed || v > MaxFanSpeed {
		return a.fanSpeed, fmt.Errorf("%w: fan speed %d not in [%d, %d]", ErrOutOfRange, v, MinFanSpeed, MaxFanSpeed)
	}
	a.fanSpeed = v
	return v, nil
}

// SetEcoMode toggles eco mode. Enabling it drops a fan speed above 1
// down to 1; disabling it leaves the speed alone.
func (a *AC) SetEcoMode(on bool) {
	a.eco = on
	if on && a.fanSpeed > ecoMaxFanSpeed {
		a.fanSpeed = ecoMaxFanSpeed
	}
}

func (a *AC) Status() Status {
	return Status{
		{"power", a.on},
		{"temperature", a.temperature},
		{"fanSpeed", a.fanSpeed},
		{"ecoMode", a.eco},
	}
}

func (a *AC) StatusLines() []string {
	return []string{
		"Power: " + onOff(a.on),
		fmt.Sprintf("Temperature: %d°C", a.temperature),
		fmt.Sprintf("Fan Speed: %d", a.fanSpeed),
		"Eco Mode: " + onOff(a.eco),
	}
}
