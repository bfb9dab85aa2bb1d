package device

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Light bounds.
const (
	MinIntensity = 0.0
	MaxIntensity = 2.0

	DefaultIntensity = 1.0
	DefaultColor     = "FFFFFF"
)

// Light is a dimmable colour lamp.
type Light struct {
	base
	on        bool
	intensity float64
	color     string
}

// NewLight returns a light that is on at full default intensity and white.
func NewLight(id, room string) *Light {
	return &Light{
		base:      base{id: id, room: room},
		on:        true,
		intensity: DefaultIntensity,
		color:     DefaultColor,
	}
}

func (l *Light) Kind() Kind { return KindLight }

func (l *Light) IsOn() bool { return l.on }

func (l *Light) SetPower(on bool) { l.on = on }

// Intensity returns the current brightness multiplier.
func (l *Light) Intensity() float64 { return l.intensity }

// Color returns the colour as six uppercase hex digits.
func (l *Light) Color() string { return l.color }

// SetIntensity clamps v into [MinIntensity, MaxIntensity] and returns the stored value.
func (l *Light) SetIntensity(v float64) float64 {
	l.intensity = clampFloat(v, MinIntensity, MaxIntensity)
	return l.intensity
}

// SetColor accepts "RRGGBB" or "#RRGGBB". The stored form has no marker.
func (l *Light) SetColor(s string) (string, error) {
	c, err := NormalizeColor(s)
	if err != nil {
		return l.color, err
	}
	l.color = c
	return c, nil
}

// NormalizeColor strips a leading '#' and validates six hex digits.
func NormalizeColor(s string) (string, error) {
	c := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(c) != 6 {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	if _, err := hex.DecodeString(c); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return strings.ToUpper(c), nil
}

func (l *Light) Status() Status {
	return Status{
		{"power", l.on},
		{"intensity", l.intensity},
		{"color", l.color},
	}
}

func (l *Light) StatusLines() []string {
	return []string{
		"Power: " + onOff(l.on),
		fmt.Sprintf("Intensity: %.2f", l.intensity),
		"Color: #" + l.color,
	}
}
