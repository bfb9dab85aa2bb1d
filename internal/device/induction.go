package device

import "fmt"

// Induction bounds.
const (
	MinHeatLevel = 0
	MaxHeatLevel = 3
)

// Induction is a cooktop whose power state is derived from its heat level.
type Induction struct {
	base
	heat int
}

func NewInduction(id, room string) *Induction {
	return &Induction{base: base{id: id, room: room}}
}

func (i *Induction) Kind() Kind { return KindInduction }

func (i *Induction) HeatLevel() int { return i.heat }

// IsOn is true whenever the heat level is above zero.
func (i *Induction) IsOn() bool { return i.heat > 0 }

// SetHeat clamps v into [MinHeatLevel, MaxHeatLevel].
func (i *Induction) SetHeat(v int) int {
	i.heat = clampInt(v, MinHeatLevel, MaxHeatLevel)
	return i.heat
}

func (i *Induction) Status() Status {
	return Status{
		{"heatLevel", i.heat},
		{"power", i.IsOn()},
	}
}

func (i *Induction) StatusLines() []string {
	return []string{
		fmt.Sprintf("Heat Level: %d", i.heat),
		"Power: " + onOff(i.IsOn()),
	}
}
