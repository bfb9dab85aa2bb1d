package device

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestLight_SetIntensityClamps(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.5, 0.5},
		{2, 2},
		{2.5, 2},
		{100, 2},
	}
	for _, tt := range tests {
		l := NewLight("Light_0001", "Hall")
		if got := l.SetIntensity(tt.in); got != tt.want {
			t.Errorf("SetIntensity(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if v, _ := l.Status().Get("intensity"); v != tt.want {
			t.Errorf("status intensity = %v, want %v", v, tt.want)
		}
	}
}

func TestLight_SetColor(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "bare", in: "ff8800", want: "FF8800"},
		{name: "with marker", in: "#00aaFF", want: "00AAFF"},
		{name: "too short", in: "FFF", wantErr: true},
		{name: "not hex", in: "GGGGGG", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLight("Light_0001", "Hall")
			got, err := l.SetColor(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidColor) {
					t.Fatalf("SetColor(%q) error = %v, want ErrInvalidColor", tt.in, err)
				}
				if l.Color() != DefaultColor {
					t.Errorf("color changed to %q on error", l.Color())
				}
				return
			}
			if err != nil {
				t.Fatalf("SetColor(%q) error = %v", tt.in, err)
			}
			if got != tt.want || l.Color() != tt.want {
				t.Errorf("SetColor(%q) = %q, stored %q, want %q", tt.in, got, l.Color(), tt.want)
			}
		})
	}
}

func TestTV_Bounds(t *testing.T) {
	tv := NewTV("TV_0001", "Lounge", nil)

	if got := tv.SetVolume(150); got != MaxVolume {
		t.Errorf("SetVolume(150) = %d, want %d", got, MaxVolume)
	}
	if got := tv.SetVolume(-5); got != MinVolume {
		t.Errorf("SetVolume(-5) = %d, want %d", got, MinVolume)
	}
	if got := tv.SetChannel(0); got != 1 {
		t.Errorf("SetChannel(0) = %d, want 1", got)
	}
	if got := tv.SetChannel(999); got != 999 {
		t.Errorf("SetChannel(999) = %d, want 999", got)
	}
}

func TestTV_SetSource(t *testing.T) {
	tv := NewTV("TV_0001", "Lounge", []string{"HDMI1", "Netflix"})

	got, err := tv.SetSource("netflix")
	if err != nil {
		t.Fatalf("SetSource(netflix) error = %v", err)
	}
	if got != "Netflix" {
		t.Errorf("SetSource stored %q, want allow-list spelling", got)
	}

	if _, err := tv.SetSource("VGA"); !errors.Is(err, ErrInvalidSource) {
		t.Fatalf("SetSource(VGA) error = %v, want ErrInvalidSource", err)
	}
	if tv.Source() != "Netflix" {
		t.Errorf("source = %q after rejected change, want Netflix", tv.Source())
	}
}

func TestAC_FanSpeedRejectsOutOfRange(t *testing.T) {
	for _, v := range []int{-1, 4, 10} {
		ac := NewAC("AC_0001", "Bedroom")
		ac.SetFanSpeed(2)
		got, err := ac.SetFanSpeed(v)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("SetFanSpeed(%d) error = %v, want ErrOutOfRange", v, err)
		}
		if got != 2 || ac.FanSpeed() != 2 {
			t.Errorf("SetFanSpeed(%d) left speed %d, want 2", v, ac.FanSpeed())
		}
	}
}

func TestAC_TemperatureClamps(t *testing.T) {
	ac := NewAC("AC_0001", "Bedroom")
	if got := ac.SetTemperature(5); got != MinACTemperature {
		t.Errorf("SetTemperature(5) = %d", got)
	}
	if got := ac.SetTemperature(40); got != MaxACTemperature {
		t.Errorf("SetTemperature(40) = %d", got)
	}
}

func TestAC_EcoModeCapsFanSpeedOneWay(t *testing.T) {
	ac := NewAC("AC_0001", "Bedroom")
	if _, err := ac.SetFanSpeed(3); err != nil {
		t.Fatal(err)
	}

	ac.SetEcoMode(true)
	if ac.FanSpeed() != 1 {
		t.Fatalf("fan speed after eco on = %d, want 1", ac.FanSpeed())
	}

	ac.SetEcoMode(false)
	if ac.FanSpeed() != 1 {
		t.Errorf("fan speed after eco off = %d, want 1 (no restore)", ac.FanSpeed())
	}
}

func TestFridge_PowerCycle(t *testing.T) {
	f := NewFridge("Fridge_0001", "Kitchen", 20)
	f.SetMainTemperature(-3)
	f.SetFreezeTemperature(-25)

	f.SetPower(false)
	if f.MainTemperature() != 20 || f.FreezeTemperature() != 20 {
		t.Fatalf("off temps = %d/%d, want ambient 20/20", f.MainTemperature(), f.FreezeTemperature())
	}

	f.SetPower(true)
	if f.MainTemperature() != 4 || f.FreezeTemperature() != -18 {
		t.Errorf("on temps = %d/%d, want 4/-18", f.MainTemperature(), f.FreezeTemperature())
	}
}

func TestFridge_SetTemperatureWhileOff(t *testing.T) {
	f := NewFridge("Fridge_0001", "Kitchen", 20)
	f.SetPower(false)

	got, err := f.SetMainTemperature(2)
	if !errors.Is(err, ErrDeviceOff) {
		t.Fatalf("SetMainTemperature error = %v, want ErrDeviceOff", err)
	}
	if got != 20 {
		t.Errorf("SetMainTemperature returned %d, want unchanged 20", got)
	}

	if _, err := f.SetFreezeTemperature(-20); !errors.Is(err, ErrDeviceOff) {
		t.Errorf("SetFreezeTemperature error = %v, want ErrDeviceOff", err)
	}
}

func TestFridge_Clamps(t *testing.T) {
	f := NewFridge("Fridge_0001", "Kitchen", 20)
	if got, _ := f.SetMainTemperature(50); got != MaxMainTemperature {
		t.Errorf("SetMainTemperature(50) = %d", got)
	}
	if got, _ := f.SetFreezeTemperature(0); got != MaxFreezeTemperature {
		t.Errorf("SetFreezeTemperature(0) = %d", got)
	}
	if got, _ := f.SetFreezeTemperature(-99); got != MinFreezeTemperature {
		t.Errorf("SetFreezeTemperature(-99) = %d", got)
	}
}

func TestInduction_PowerDerivedFromHeat(t *testing.T) {
	i := NewInduction("Induction_0001", "Kitchen")
	if i.IsOn() {
		t.Fatal("new cooktop should be off")
	}
	if got := i.SetHeat(7); got != MaxHeatLevel || !i.IsOn() {
		t.Errorf("SetHeat(7) = %d on=%v", got, i.IsOn())
	}
	if got := i.SetHeat(-1); got != 0 || i.IsOn() {
		t.Errorf("SetHeat(-1) = %d on=%v", got, i.IsOn())
	}
}

func TestFan_RPMClamps(t *testing.T) {
	f := NewFan("Fan_0001", "Hall")
	if got := f.SetRPM(5000); got != MaxRPM {
		t.Errorf("SetRPM(5000) = %d", got)
	}
	if got := f.SetRPM(10); got != MinRPM {
		t.Errorf("SetRPM(10) = %d", got)
	}
}

func TestWashingMachine_SelectCycle(t *testing.T) {
	w := NewWashingMachine("WashingMachine_0001", "Bathroom")
	if err := w.SelectCycle(CycleQuick); err != nil {
		t.Fatalf("SelectCycle(Quick) error = %v", err)
	}
	if w.RemainingMinutes() != 30 || w.Temperature() != 30 {
		t.Fatalf("Quick loaded %d min at %d°C, want 30/30", w.RemainingMinutes(), w.Temperature())
	}

	w.SetPower(true)
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	before := w.Status()
	if err := w.SelectCycle(CycleQuick); !errors.Is(err, ErrCycleInProgress) {
		t.Fatalf("SelectCycle while running error = %v, want ErrCycleInProgress", err)
	}
	after := w.Status()
	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)
	if string(a) != string(b) {
		t.Errorf("state changed on rejected select: %s -> %s", b, a)
	}
}

func TestWashingMachine_StartRequiresPower(t *testing.T) {
	w := NewWashingMachine("WashingMachine_0001", "Bathroom")
	if err := w.Start(); !errors.Is(err, ErrDeviceOff) {
		t.Fatalf("Start() while off error = %v, want ErrDeviceOff", err)
	}
	w.SetPower(true)
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); !errors.Is(err, ErrCycleInProgress) {
		t.Errorf("second Start() error = %v, want ErrCycleInProgress", err)
	}
}

func TestWashingMachine_TickToCompletion(t *testing.T) {
	w := NewWashingMachine("WashingMachine_0001", "Bathroom")
	w.SelectCycle(CycleQuick)
	w.SetPower(true)
	w.Start()

	for i := 0; i < 30; i++ {
		if !w.Tick() {
			t.Fatalf("tick %d reported no change", i)
		}
	}
	if w.IsCycleRunning() || w.RemainingMinutes() != 0 || w.Phase() != PhaseCompleted {
		t.Fatalf("after 30 ticks: running=%v remaining=%d phase=%s", w.IsCycleRunning(), w.RemainingMinutes(), w.Phase())
	}
	if w.Tick() {
		t.Error("tick on completed cycle reported a change")
	}

	// Restarting reloads the cycle duration.
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if w.RemainingMinutes() != 30 {
		t.Errorf("restart remaining = %d, want 30", w.RemainingMinutes())
	}
}

func TestWashingMachine_StopAndPowerOff(t *testing.T) {
	w := NewWashingMachine("WashingMachine_0001", "Bathroom")
	if err := w.Stop(); !errors.Is(err, ErrCycleNotRunning) {
		t.Fatalf("Stop() idle error = %v", err)
	}
	w.SetPower(true)
	w.Start()
	w.Tick()
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
	if w.Phase() != PhasePaused || w.RemainingMinutes() != 59 {
		t.Fatalf("paused phase=%s remaining=%d", w.Phase(), w.RemainingMinutes())
	}

	w.SetPower(false)
	if w.RemainingMinutes() != 0 || w.Phase() != PhaseIdle {
		t.Errorf("power off left remaining=%d phase=%s", w.RemainingMinutes(), w.Phase())
	}
}

func TestWashingMachine_SetTemperature(t *testing.T) {
	w := NewWashingMachine("WashingMachine_0001", "Bathroom")
	if got, _ := w.SetTemperature(95); got != MaxWashTemperature {
		t.Errorf("SetTemperature(95) = %d", got)
	}
	if got, _ := w.SetTemperature(5); got != MinWashTemperature {
		t.Errorf("SetTemperature(5) = %d", got)
	}
	w.SetPower(true)
	w.Start()
	if _, err := w.SetTemperature(40); !errors.Is(err, ErrCycleInProgress) {
		t.Errorf("SetTemperature while running error = %v", err)
	}
}

func TestParseCycle(t *testing.T) {
	if c, err := ParseCycle("ecofriendly"); err != nil || c != CycleEcoFriendly {
		t.Errorf("ParseCycle(ecofriendly) = %q, %v", c, err)
	}
	if _, err := ParseCycle("spin"); !errors.Is(err, ErrInvalidCycle) {
		t.Errorf("ParseCycle(spin) error = %v", err)
	}
	if len(Cycles()) != 5 {
		t.Errorf("Cycles() = %v", Cycles())
	}
}

func TestStatus_MarshalJSONKeepsOrder(t *testing.T) {
	s := NewFridge("Fridge_0001", "Kitchen", 20).Status()
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"power":true,"mainTemperature":4,"freezeTemperature":-18,"mainDoorOpen":false,"freezeDoorOpen":false}`
	if string(b) != want {
		t.Errorf("Marshal = %s\nwant      %s", b, want)
	}
}

func TestStatus_WithOverwrites(t *testing.T) {
	s := Status{{"a", 1}, {"b", 2}}.With(Field{"b", 3}, Field{"c", 4})
	b, _ := json.Marshal(s)
	if string(b) != `{"a":1,"b":3,"c":4}` {
		t.Errorf("With() = %s", b)
	}
}

func TestStatusLines(t *testing.T) {
	ac := NewAC("AC_0001", "Bedroom")
	ac.SetPower(true)
	ac.SetEcoMode(true)
	lines := ac.StatusLines()
	want := []string{"Power: ON", "Temperature: 24°C", "Fan Speed: 1", "Eco Mode: ON"}
	if len(lines) != len(want) {
		t.Fatalf("StatusLines() = %v", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"light", KindLight, true},
		{"WASHINGMACHINE", KindWashingMachine, true},
		{"tv", KindTV, true},
		{"lamp", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseKind(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, ok)
		}
	}
}
