package device

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/homesim-core/internal/infrastructure/config"
)

// NewID returns an identifier of the form "<Kind>_XXXX".
func NewID(kind Kind) string {
	return fmt.Sprintf("%s_%s", kind, strings.ToUpper(uuid.NewString()[:4]))
}

// BuildInventory creates the devices described by cfg in snapshot order:
// lights, TV, AC, fridge, induction, washing machine, then fans.
// Entries without an ID get a generated one.
func BuildInventory(cfg config.DevicesConfig) []Device {
	used := make(map[string]struct{})
	for _, e := range allEntries(cfg) {
		if e.ID != "" {
			used[e.ID] = struct{}{}
		}
	}
	id := func(kind Kind, e config.DeviceEntry) string {
		if e.ID != "" {
			return e.ID
		}
		for {
			candidate := NewID(kind)
			if _, taken := used[candidate]; !taken {
				used[candidate] = struct{}{}
				return candidate
			}
		}
	}

	devices := make([]Device, 0, len(cfg.Lights)+len(cfg.Fans)+5)
	for _, e := range cfg.Lights {
		devices = append(devices, NewLight(id(KindLight, e), e.Room))
	}
	devices = append(devices,
		NewTV(id(KindTV, cfg.TV), cfg.TV.Room, cfg.TVSources),
		NewAC(id(KindAC, cfg.AC), cfg.AC.Room),
		NewFridge(id(KindFridge, cfg.Fridge), cfg.Fridge.Room, cfg.FridgeAmbient),
		NewInduction(id(KindInduction, cfg.Induction), cfg.Induction.Room),
		NewWashingMachine(id(KindWashingMachine, cfg.WashingMachine), cfg.WashingMachine.Room),
	)
	for _, e := range cfg.Fans {
		devices = append(devices, NewFan(id(KindFan, e), e.Room))
	}
	return devices
}

func allEntries(cfg config.DevicesConfig) []config.DeviceEntry {
	out := append([]config.DeviceEntry{}, cfg.Lights...)
	out = append(out, cfg.Fans...)
	return append(out, cfg.TV, cfg.AC, cfg.Fridge, cfg.Induction, cfg.WashingMachine)
}
