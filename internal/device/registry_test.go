package device

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nerrad567/homesim-core/internal/infrastructure/config"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(BuildInventory(config.Default().Devices)...)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return reg
}

var testCause = Cause{Source: SourceCommand, Origin: "test", Action: "test"}

func TestBuildInventory_Default(t *testing.T) {
	devices := BuildInventory(config.Default().Devices)
	if len(devices) != 9 {
		t.Fatalf("default inventory has %d devices, want 9", len(devices))
	}

	seen := make(map[string]bool)
	for _, d := range devices {
		if !strings.HasPrefix(d.ID(), string(d.Kind())+"_") {
			t.Errorf("id %q does not carry kind prefix %q", d.ID(), d.Kind())
		}
		if seen[d.ID()] {
			t.Errorf("duplicate id %q", d.ID())
		}
		seen[d.ID()] = true
	}
}

func TestBuildInventory_KeepsConfiguredIDs(t *testing.T) {
	cfg := config.Default().Devices
	cfg.TV.ID = "living-tv"
	devices := BuildInventory(cfg)
	for _, d := range devices {
		if d.Kind() == KindTV && d.ID() != "living-tv" {
			t.Errorf("TV id = %q, want living-tv", d.ID())
		}
	}
}

func TestBuildInventory_FridgeAmbient(t *testing.T) {
	tests := []struct {
		name    string
		ambient int
	}{
		{name: "stock", ambient: 20},
		{name: "zero", ambient: 0},
		{name: "below zero", ambient: -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default().Devices
			cfg.FridgeAmbient = tt.ambient
			for _, d := range BuildInventory(cfg) {
				f, ok := d.(*Fridge)
				if !ok {
					continue
				}
				f.SetPower(false)
				if f.MainTemperature() != tt.ambient || f.FreezeTemperature() != tt.ambient {
					t.Errorf("off temps = %d/%d, want %d", f.MainTemperature(), f.FreezeTemperature(), tt.ambient)
				}
			}
		})
	}
}

func TestNewRegistry_DuplicateID(t *testing.T) {
	_, err := NewRegistry(NewFan("dup", "A"), NewLight("dup", "B"))
	if !errors.Is(err, ErrDeviceExists) {
		t.Fatalf("NewRegistry() error = %v, want ErrDeviceExists", err)
	}
}

func TestResolve(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name      string
		kind      Kind
		index     int
		wantIndex int
		wantErr   error
	}{
		{name: "first light", kind: KindLight, index: 0},
		{name: "last light", kind: KindLight, index: 2, wantIndex: 2},
		{name: "light past end", kind: KindLight, index: 5, wantErr: ErrIndexOutOfRange},
		{name: "light at len", kind: KindLight, index: 3, wantErr: ErrIndexOutOfRange},
		{name: "negative light", kind: KindLight, index: -1, wantErr: ErrIndexOutOfRange},
		{name: "fan past end", kind: KindFan, index: 1, wantErr: ErrIndexOutOfRange},
		{name: "singleton ignores index", kind: KindTV, index: 7},
		{name: "singleton negative", kind: KindFridge, index: -3},
		{name: "unknown kind", kind: Kind("Toaster"), wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := reg.Resolve(tt.kind, tt.index)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if ref.Kind != tt.kind || ref.Index != tt.wantIndex || ref.ID == "" {
				t.Errorf("Resolve() = %+v", ref)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	reg := testRegistry(t)
	snap := reg.Snapshot()

	ref, err := reg.Lookup(snap[1].ID)
	if err != nil {
		t.Fatal(err)
	}
	if ref != snap[1].Ref {
		t.Errorf("Lookup() = %+v, want %+v", ref, snap[1].Ref)
	}
	if _, err := reg.Lookup("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(missing) error = %v", err)
	}
}

func TestSnapshot_Annotated(t *testing.T) {
	reg := testRegistry(t)
	snap := reg.Snapshot()
	if len(snap) != reg.Len() {
		t.Fatalf("Snapshot() len = %d, want %d", len(snap), reg.Len())
	}

	first := snap[0].Annotated()
	for _, key := range []string{"power", "intensity", "color", "location", "deviceId", "deviceType"} {
		if _, ok := first.Get(key); !ok {
			t.Errorf("annotated light status missing %q", key)
		}
	}
	if v, _ := first.Get("location"); v != "Living Room" {
		t.Errorf("location = %v", v)
	}
	if v, _ := first.Get("deviceType"); v != "Light" {
		t.Errorf("deviceType = %v", v)
	}
}

func TestApply_NotifiesOnSuccessOnly(t *testing.T) {
	reg := testRegistry(t)

	var changes []Change
	reg.SetNotifier(func(c Change) { changes = append(changes, c) })

	entry, err := reg.Apply(testCause, KindFan, 0, func(d Device) error {
		d.(*Fan).SetRPM(5000)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := entry.Status.Get("rpm"); v != 2000 {
		t.Errorf("rpm = %v, want 2000", v)
	}

	entry, err = reg.Apply(testCause, KindAC, 0, func(d Device) error {
		_, err := d.(*AC).SetFanSpeed(9)
		return err
	})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Apply() error = %v, want ErrOutOfRange", err)
	}
	if entry.Kind != KindAC {
		t.Errorf("failed Apply should still return current entry, got %+v", entry.Ref)
	}

	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(changes))
	}
	if changes[0].Seq != 1 || changes[0].Entry.Kind != KindFan || changes[0].Cause != testCause {
		t.Errorf("change = %+v", changes[0])
	}
}

func TestSnapshotSeq(t *testing.T) {
	reg := testRegistry(t)

	if _, seq := reg.SnapshotSeq(); seq != 0 {
		t.Errorf("initial seq = %d, want 0", seq)
	}

	for i := 0; i < 3; i++ {
		if _, err := reg.Apply(testCause, KindLight, 0, func(d Device) error {
			d.(*Light).SetPower(i%2 == 0)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}

	entries, seq := reg.SnapshotSeq()
	if seq != 3 {
		t.Errorf("seq = %d, want 3", seq)
	}
	if len(entries) != reg.Len() {
		t.Errorf("len(entries) = %d, want %d", len(entries), reg.Len())
	}
	if entries[0].Seq != 3 {
		t.Errorf("first light Seq = %d, want 3", entries[0].Seq)
	}
	if entries[1].Seq != 0 {
		t.Errorf("untouched device Seq = %d, want 0", entries[1].Seq)
	}

	got, err := reg.Get(KindLight, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.Seq != 3 {
		t.Errorf("Get().Seq = %d, want 3", got.Seq)
	}
}

func TestApply_ResolveError(t *testing.T) {
	reg := testRegistry(t)
	called := false
	_, err := reg.Apply(testCause, KindLight, 5, func(Device) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Apply() error = %v", err)
	}
	if called {
		t.Error("mutation ran for unresolved device")
	}
}

func TestApply_ConcurrentTogglesAreSerialised(t *testing.T) {
	reg := testRegistry(t)

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			reg.Apply(testCause, KindLight, 1, func(d Device) error {
				l := d.(*Light)
				l.SetPower(!l.IsOn())
				return nil
			})
		}()
	}
	wg.Wait()

	entry, err := reg.Get(KindLight, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Lights start on; an even number of flips leaves them on.
	if v, _ := entry.Status.Get("power"); v != true {
		t.Errorf("power = %v after %d toggles, want true", v, workers)
	}
}

func TestStatusLines_Prefixed(t *testing.T) {
	reg := testRegistry(t)
	lines, err := reg.StatusLines(KindFan, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(lines[0], "Device ID: Fan_") || lines[1] != "Room: Living Room" {
		t.Errorf("StatusLines() = %v", lines)
	}
	if lines[len(lines)-1] != "RPM: 400" {
		t.Errorf("last line = %q", lines[len(lines)-1])
	}
}

func TestRooms(t *testing.T) {
	reg := testRegistry(t)
	rooms := reg.Rooms()

	got := make([]string, 0, len(rooms))
	total := 0
	for _, g := range rooms {
		got = append(got, g.Room)
		total += len(g.DeviceIDs)
	}
	want := []string{"Living Room", "Bedroom", "Kitchen", "Bathroom"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rooms() order mismatch (-want +got):\n%s", diff)
	}
	if total != reg.Len() {
		t.Errorf("rooms hold %d devices, want %d", total, reg.Len())
	}
}

func TestTickCycles(t *testing.T) {
	reg := testRegistry(t)
	var changes []Change
	reg.SetNotifier(func(c Change) { changes = append(changes, c) })

	if got := reg.TickCycles(); len(got) != 0 {
		t.Fatalf("idle machine ticked: %+v", got)
	}

	_, err := reg.Apply(testCause, KindWashingMachine, 0, func(d Device) error {
		w := d.(*WashingMachine)
		w.SetPower(true)
		return w.Start()
	})
	if err != nil {
		t.Fatal(err)
	}

	changed := reg.TickCycles()
	if len(changed) != 1 {
		t.Fatalf("TickCycles() changed %d, want 1", len(changed))
	}
	if v, _ := changed[0].Status.Get("remainingMinutes"); v != 59 {
		t.Errorf("remainingMinutes = %v, want 59", v)
	}
	last := changes[len(changes)-1]
	if last.Cause.Source != SourceTimer {
		t.Errorf("tick cause = %+v", last.Cause)
	}
}
