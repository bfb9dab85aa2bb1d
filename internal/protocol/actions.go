package protocol

import (
	"strings"

	"github.com/nerrad567/homesim-core/internal/device"
)

// Action is a canonical action name.
type Action string

const (
	ActionToggle               Action = "toggle"
	ActionSetIntensity         Action = "setIntensity"
	ActionSetColor             Action = "setColor"
	ActionSetVolume            Action = "setVolume"
	ActionSetChannel           Action = "setChannel"
	ActionSetSource            Action = "setSource"
	ActionSetTemperature       Action = "setTemperature"
	ActionSetFanSpeed          Action = "setFanSpeed"
	ActionToggleEco            Action = "toggleEco"
	ActionSetFreezeTemperature Action = "setFreezeTemperature"
	ActionSetDoorStatus        Action = "setDoorStatus"
	ActionSetHeat              Action = "setHeat"
	ActionSetCycle             Action = "setCycle"
	ActionStart                Action = "start"
	ActionStop                 Action = "stop"
	ActionSetRPM               Action = "setRPM"
)

// ParamType is the type a parameter is coerced to.
type ParamType int

const (
	TypeBool ParamType = iota
	TypeInt
	TypeFloat
	TypeString
)

func (t ParamType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	default:
		return "string"
	}
}

// Param declares one action parameter. Optional parameters may be left
// out; handlers fill in their default (usually the negation of the
// current state).
type Param struct {
	Name     string
	Type     ParamType
	Optional bool
}

// ActionSpec declares an action and its parameters.
type ActionSpec struct {
	Name   Action
	Params []Param
}

func optBool(name string) Param   { return Param{Name: name, Type: TypeBool, Optional: true} }
func reqInt(name string) Param    { return Param{Name: name, Type: TypeInt} }
func reqFloat(name string) Param  { return Param{Name: name, Type: TypeFloat} }
func reqString(name string) Param { return Param{Name: name, Type: TypeString} }

var toggle = ActionSpec{ActionToggle, []Param{optBool("state")}}

var actionTable = map[device.Kind][]ActionSpec{
	device.KindLight: {
		toggle,
		{ActionSetIntensity, []Param{reqFloat("intensity")}},
		{ActionSetColor, []Param{reqString("color")}},
	},
	device.KindTV: {
		toggle,
		{ActionSetVolume, []Param{reqInt("volume")}},
		{ActionSetChannel, []Param{reqInt("channel")}},
		{ActionSetSource, []Param{reqString("source")}},
	},
	device.KindAC: {
		toggle,
		{ActionSetTemperature, []Param{reqInt("temperature")}},
		{ActionSetFanSpeed, []Param{reqInt("speed")}},
		{ActionToggleEco, []Param{optBool("eco")}},
	},
	device.KindFridge: {
		toggle,
		{ActionSetTemperature, []Param{reqInt("temperature")}},
		{ActionSetFreezeTemperature, []Param{reqInt("temperature")}},
		{ActionSetDoorStatus, []Param{optBool("fridgeDoor"), optBool("freezeDoor")}},
	},
	device.KindInduction: {
		{ActionSetHeat, []Param{reqInt("level")}},
	},
	device.KindWashingMachine: {
		toggle,
		{ActionSetCycle, []Param{reqString("cycle")}},
		{ActionStart, nil},
		{ActionStop, nil},
		{ActionSetTemperature, []Param{reqInt("temperature")}},
	},
	device.KindFan: {
		toggle,
		{ActionSetRPM, []Param{reqInt("rpm")}},
	},
}

// Actions returns the action specs for kind in declaration order.
func Actions(kind device.Kind) []ActionSpec {
	specs := actionTable[kind]
	out := make([]ActionSpec, len(specs))
	copy(out, specs)
	return out
}

// LookupAction matches name case-insensitively against the actions of kind.
func LookupAction(kind device.Kind, name string) (ActionSpec, bool) {
	for _, spec := range actionTable[kind] {
		if strings.EqualFold(string(spec.Name), name) {
			return spec, true
		}
	}
	return ActionSpec{}, false
}
