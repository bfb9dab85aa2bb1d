package device

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Kind is the closed set of appliance types the simulator knows about.
type Kind string

const (
	KindLight          Kind = "Light"
	KindTV             Kind = "TV"
	KindAC             Kind = "AC"
	KindFridge         Kind = "Fridge"
	KindInduction      Kind = "Induction"
	KindWashingMachine Kind = "WashingMachine"
	KindFan            Kind = "Fan"
)

// AllKinds lists every Kind in snapshot order.
var AllKinds = []Kind{
	KindLight,
	KindTV,
	KindAC,
	KindFridge,
	KindInduction,
	KindWashingMachine,
	KindFan,
}

// ParseKind matches s case-insensitively against the known kinds.
func ParseKind(s string) (Kind, bool) {
	for _, k := range AllKinds {
		if strings.EqualFold(string(k), s) {
			return k, true
		}
	}
	return "", false
}

// Indexed reports whether devices of this kind live in an ordered
// collection addressed by deviceIndex. Other kinds are singletons.
func (k Kind) Indexed() bool {
	return k == KindLight || k == KindFan
}

// Valid reports whether k is one of AllKinds.
func (k Kind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Field is one key/value pair of a device status.
type Field struct {
	Key   string
	Value any
}

// Status is an ordered list of fields. It marshals to a JSON object
// whose keys keep the order they were appended in.
type Status []Field

// Get returns the value stored under key.
func (s Status) Get(key string) (any, bool) {
	for _, f := range s {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// With returns a copy of s with fields appended. An existing key is
// overwritten in place rather than duplicated.
func (s Status) With(fields ...Field) Status {
	out := make(Status, len(s), len(s)+len(fields))
	copy(out, s)
	for _, f := range fields {
		replaced := false
		for i := range out {
			if out[i].Key == f.Key {
				out[i].Value = f.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, f)
		}
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (s Status) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Device is implemented by every simulated appliance.
//
// Implementations are not safe for concurrent use on their own; the
// Registry serialises every read and mutation.
type Device interface {
	ID() string
	Room() string
	Kind() Kind

	// Status returns the current fields in a stable order.
	Status() Status

	// StatusLines returns the human-readable diagnostic form, one
	// "Label: value" line per field.
	StatusLines() []string
}

// Switchable is implemented by devices with an explicit power state.
type Switchable interface {
	Device
	IsOn() bool
	SetPower(on bool)
}

type base struct {
	id   string
	room string
}

func (b base) ID() string   { return b.id }
func (b base) Room() string { return b.room }

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func openShut(b bool) string {
	if b {
		return "Open"
	}
	return "Shut"
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
