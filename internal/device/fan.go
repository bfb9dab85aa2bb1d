package device

import "fmt"

// Fan bounds and defaults.
const (
	MinRPM     = 100
	MaxRPM     = 2000
	DefaultRPM = 400
)

// Fan is a ceiling or desk fan with a variable speed.
type Fan struct {
	base
	on  bool
	rpm int
}

func NewFan(id, room string) *Fan {
	return &Fan{base: base{id: id, room: room}, rpm: DefaultRPM}
}

func (f *Fan) Kind() Kind { return KindFan }

func (f *Fan) IsOn() bool { return f.on }

func (f *Fan) SetPower(on bool) { f.on = on }

func (f *Fan) RPM() int { return f.rpm }

// SetRPM clamps v into [MinRPM, MaxRPM].
func (f *Fan) SetRPM(v int) int {
	f.rpm = clampInt(v, MinRPM, MaxRPM)
	return f.rpm
}

func (f *Fan) Status() Status {
	return Status{
		{"power", f.on},
		{"rpm", f.rpm},
	}
}

func (f *Fan) StatusLines() []string {
	return []string{
		"Power: " + onOff(f.on),
		fmt.Sprintf("RPM: %d", f.rpm),
	}
}
