package device

import (
	"fmt"
	"strings"
)

// Cycle is a washing machine programme.
type Cycle string

const (
	CycleNormal      Cycle = "Normal"
	CycleQuick       Cycle = "Quick"
	CycleIntensive   Cycle = "Intensive"
	CycleDelicate    Cycle = "Delicate"
	CycleEcoFriendly Cycle = "EcoFriendly"
)

// CycleDefaults are the fixed settings a cycle loads when selected.
type CycleDefaults struct {
	Temperature int
	Minutes     int
}

// cycleTable is ordered so listings are stable.
var cycleTable = []struct {
	cycle    Cycle
	defaults CycleDefaults
}{
	{CycleNormal, CycleDefaults{Temperature: 40, Minutes: 60}},
	{CycleQuick, CycleDefaults{Temperature: 30, Minutes: 30}},
	{CycleIntensive, CycleDefaults{Temperature: 60, Minutes: 90}},
	{CycleDelicate, CycleDefaults{Temperature: 30, Minutes: 45}},
	{CycleEcoFriendly, CycleDefaults{Temperature: 30, Minutes: 120}},
}

// Cycles lists the known programmes.
func Cycles() []Cycle {
	out := make([]Cycle, len(cycleTable))
	for i, c := range cycleTable {
		out[i] = c.cycle
	}
	return out
}

// ParseCycle matches s case-insensitively against the cycle table.
func ParseCycle(s string) (Cycle, error) {
	for _, c := range cycleTable {
		if strings.EqualFold(string(c.cycle), strings.TrimSpace(s)) {
			return c.cycle, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCycle, s)
}

// Defaults returns the settings for c. Unknown cycles report ok=false.
func (c Cycle) Defaults() (CycleDefaults, bool) {
	for _, e := range cycleTable {
		if e.cycle == c {
			return e.defaults, true
		}
	}
	return CycleDefaults{}, false
}

// Washer temperature bounds.
const (
	MinWashTemperature = 20
	MaxWashTemperature = 90
)

// Phase describes where a washing machine is in its programme.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhasePaused    Phase = "paused"
	PhaseCompleted Phase = "completed"
)

// WashingMachine runs timed cycles. The countdown is advanced by Tick,
// which the Registry calls once per simulated minute.
type WashingMachine struct {
	base
	on          bool
	cycle       Cycle
	temperature int
	remaining   int
	running     bool
	phase       Phase
}

// NewWashingMachine returns an idle machine loaded with the Normal cycle.
func NewWashingMachine(id, room string) *WashingMachine {
	d, _ := CycleNormal.Defaults()
	return &WashingMachine{
		base:        base{id: id, room: room},
		cycle:       CycleNormal,
		temperature: d.Temperature,
		remaining:   d.Minutes,
		phase:       PhaseIdle,
	}
}

func (w *WashingMachine) Kind() Kind { return KindWashingMachine }

func (w *WashingMachine) IsOn() bool { return w.on }

// SetPower switches the machine. Switching off abandons any started
// cycle and zeroes the remaining time.
func (w *WashingMachine) SetPower(on bool) {
	w.on = on
	if on {
		return
	}
	if w.running || w.phase == PhasePaused {
		w.running = false
		w.remaining = 0
		w.phase = PhaseIdle
	}
}

func (w *WashingMachine) Cycle() Cycle          { return w.cycle }
func (w *WashingMachine) Temperature() int      { return w.temperature }
func (w *WashingMachine) RemainingMinutes() int { return w.remaining }
func (w *WashingMachine) IsCycleRunning() bool  { return w.running }
func (w *WashingMachine) Phase() Phase          { return w.phase }

// SelectCycle loads the defaults for c. It fails while a cycle is running.
func (w *WashingMachine) SelectCycle(c Cycle) error {
	if w.running {
		return fmt.Errorf("%w: cannot change cycle to %s", ErrCycleInProgress, c)
	}
	d, ok := c.Defaults()
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidCycle, c)
	}
	w.cycle = c
	w.temperature = d.Temperature
	w.remaining = d.Minutes
	w.phase = PhaseIdle
	return nil
}

// SetTemperature clamps v into the wash range. It fails while a cycle is running.
func (w *WashingMachine) SetTemperature(v int) (int, error) {
	if w.running {
		return w.temperature, fmt.Errorf("%w: cannot change temperature", ErrCycleInProgress)
	}
	w.temperature = clampInt(v, MinWashTemperature, MaxWashTemperature)
	return w.temperature, nil
}

// Start begins or resumes the selected cycle. A finished cycle is
// reloaded with its default duration first.
func (w *WashingMachine) Start() error {
	if !w.on {
		return fmt.Errorf("%w: cannot start cycle", ErrDeviceOff)
	}
	if w.running {
		return fmt.Errorf("%w: %s already running", ErrCycleInProgress, w.cycle)
	}
	if w.remaining <= 0 {
		d, _ := w.cycle.Defaults()
		w.remaining = d.Minutes
	}
	w.running = true
	w.phase = PhaseRunning
	return nil
}

// Stop pauses a running cycle, keeping the remaining time.
func (w *WashingMachine) Stop() error {
	if !w.running {
		return ErrCycleNotRunning
	}
	w.running = false
	w.phase = PhasePaused
	return nil
}

// Tick advances a running cycle by one minute and reports whether state
// changed. Reaching zero completes the cycle.
func (w *WashingMachine) Tick() bool {
	if !w.running {
		return false
	}
	w.remaining--
	if w.remaining <= 0 {
		w.remaining = 0
		w.running = false
		w.phase = PhaseCompleted
	}
	return true
}

func (w *WashingMachine) Status() Status {
	return Status{
		{"power", w.on},
		{"cycle", string(w.cycle)},
		{"temperature", w.temperature},
		{"remainingMinutes", w.remaining},
		{"isCycleRunning", w.running},
		{"phase", string(w.phase)},
	}
}

func (w *WashingMachine) StatusLines() []string {
	running := "No"
	if w.running {
		running = "Yes"
	}
	return []string{
		"Power: " + onOff(w.on),
		"Cycle: " + string(w.cycle),
		fmt.Sprintf("Temperature: %d°C", w.temperature),
		fmt.Sprintf("Remaining: %d min", w.remaining),
		"Running: " + running,
	}
}
