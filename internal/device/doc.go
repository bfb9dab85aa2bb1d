// Package device models the simulated appliances and the Registry that owns them.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────┐
//	│                        Registry                             │
//	│  • one mutex serialises every read and mutation             │
//	│  • Resolve(kind, index) → Ref                               │
//	│  • Apply(cause, kind, index, fn) → Entry                    │
//	│  • Snapshot() → []Entry (consistent point in time)          │
//	│  • Notifier called with each committed Change               │
//	└──────────────┬─────────────────────────────┬───────────────┘
//	               │                             │
//	     ┌─────────▼─────────┐         ┌─────────▼─────────┐
//	     │  Devices          │         │  CycleTimer       │
//	     │  Light, TV, AC,   │         │  cron "@every 1m" │
//	     │  Fridge, Fan,     │         │  → TickCycles()   │
//	     │  Induction,       │         └───────────────────┘
//	     │  WashingMachine   │
//	     └───────────────────┘
//
// Every device implements Device: an ordered Status for transmission and
// StatusLines for the legacy text form. Numeric fields clamp into their
// bounds except AC fan speed, which rejects out-of-range input with
// ErrOutOfRange.
//
// # Usage
//
//	reg, err := device.NewRegistry(device.BuildInventory(cfg.Devices)...)
//	entry, err := reg.Apply(cause, device.KindFan, 0, func(d device.Device) error {
//	    d.(*device.Fan).SetRPM(1200)
//	    return nil
//	})
package device
