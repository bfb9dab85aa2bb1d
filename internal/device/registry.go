package device

import (
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Ref identifies a resolved device without exposing the instance.
type Ref struct {
	Kind  Kind
	Index int
	ID    string
	Room  string
}

// Entry is a point-in-time device status together with its identity.
type Entry struct {
	Ref
	// Seq is the sequence number of the last change to this device,
	// 0 if it never changed.
	Seq    uint64
	Status Status
}

// Annotated returns the status with location, deviceId and deviceType appended.
func (e Entry) Annotated() Status {
	return e.Status.With(
		Field{"location", e.Room},
		Field{"deviceId", e.ID},
		Field{"deviceType", string(e.Kind)},
	)
}

// Origins of a state change.
const (
	SourceCommand = "command"
	SourceTimer   = "timer"
)

// Cause describes what triggered a mutation.
type Cause struct {
	Source string // SourceCommand or SourceTimer
	Origin string // connection or client identifier, empty for the timer
	Action string
}

// Change is emitted after every committed mutation.
type Change struct {
	Seq   uint64
	Entry Entry
	Cause Cause
	At    time.Time
}

// Notifier receives changes while the registry lock is held, so changes
// to any one device arrive in commit order. It must not block and must
// not call back into the Registry.
type Notifier func(Change)

// Registry owns every simulated device and serialises all access to them.
//
// A single mutex guards the whole inventory: a mutation is one short
// in-memory state transition, and snapshots see a consistent view of
// every device at once.
//
// All public methods are thread-safe.
type Registry struct {
	mu      sync.Mutex
	byKind  map[Kind][]Device
	order   []Device
	refs    map[string]Ref
	seq     uint64
	lastSeq map[string]uint64
	notify  Notifier
	logger  Logger
	nowFunc func() time.Time
}

// NewRegistry builds a registry over a fixed inventory. Devices keep the
// order given; indexed kinds are numbered in that order starting at 0.
func NewRegistry(devices ...Device) (*Registry, error) {
	r := &Registry{
		byKind:  make(map[Kind][]Device, len(AllKinds)),
		order:   make([]Device, 0, len(devices)),
		refs:    make(map[string]Ref, len(devices)),
		lastSeq: make(map[string]uint64, len(devices)),
		logger:  noopLogger{},
		nowFunc: time.Now,
	}

	for _, d := range devices {
		if !d.Kind().Valid() {
			return nil, fmt.Errorf("registering %q: unknown kind %q", d.ID(), d.Kind())
		}
		if _, dup := r.refs[d.ID()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDeviceExists, d.ID())
		}
		ref := Ref{Kind: d.Kind(), Index: len(r.byKind[d.Kind()]), ID: d.ID(), Room: d.Room()}
		r.byKind[d.Kind()] = append(r.byKind[d.Kind()], d)
		r.order = append(r.order, d)
		r.refs[d.ID()] = ref
	}

	return r, nil
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// SetNotifier installs the change callback. Passing nil removes it.
func (r *Registry) SetNotifier(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notify = n
}

// Len returns the number of devices in the inventory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Count returns how many devices of kind exist.
func (r *Registry) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKind[kind])
}

// Resolve maps a kind and index to a device reference.
//
// Indexed kinds fail with ErrIndexOutOfRange when index < 0 or index is
// not below the collection length. Singleton kinds ignore index.
func (r *Registry) Resolve(kind Kind, index int) (Ref, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ref, err := r.resolveLocked(kind, index)
	return ref, err
}

// Lookup resolves a device by its ID.
func (r *Registry) Lookup(id string) (Ref, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.refs[id]
	if !ok {
		return Ref{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ref, nil
}

func (r *Registry) resolveLocked(kind Kind, index int) (Device, Ref, error) {
	list := r.byKind[kind]
	if len(list) == 0 {
		return nil, Ref{}, fmt.Errorf("%w: no %s in inventory", ErrNotFound, kind)
	}
	if !kind.Indexed() {
		index = 0
	} else if index < 0 || index >= len(list) {
		return nil, Ref{}, fmt.Errorf("%w: %s index %d (have %d)", ErrIndexOutOfRange, kind, index, len(list))
	}
	d := list[index]
	return d, Ref{Kind: kind, Index: index, ID: d.ID(), Room: d.Room()}, nil
}

// Get returns the current status of one device.
func (r *Registry) Get(kind Kind, index int) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ref, err := r.resolveLocked(kind, index)
	if err != nil {
		return Entry{}, err
	}
	return r.entryLocked(d, ref), nil
}

// StatusLines returns the diagnostic text form of one device, prefixed
// with its ID and room.
func (r *Registry) StatusLines(kind Kind, index int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ref, err := r.resolveLocked(kind, index)
	if err != nil {
		return nil, err
	}
	lines := []string{"Device ID: " + ref.ID, "Room: " + ref.Room}
	return append(lines, d.StatusLines()...), nil
}

// Apply runs fn against the resolved device while holding the registry
// lock and returns the post-mutation entry.
//
// fn must leave the device untouched when it returns an error. The entry
// is still returned in that case so callers can report current state.
// Successful mutations are forwarded to the notifier.
func (r *Registry) Apply(cause Cause, kind Kind, index int, fn func(Device) error) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ref, err := r.resolveLocked(kind, index)
	if err != nil {
		return Entry{}, err
	}

	if err := fn(d); err != nil {
		return r.entryLocked(d, ref), err
	}

	entry := Entry{Ref: ref, Status: d.Status()}
	return r.commitLocked(entry, cause), nil
}

func (r *Registry) entryLocked(d Device, ref Ref) Entry {
	return Entry{Ref: ref, Seq: r.lastSeq[d.ID()], Status: d.Status()}
}

// commitLocked stamps entry with the next sequence number and notifies.
func (r *Registry) commitLocked(entry Entry, cause Cause) Entry {
	r.seq++
	entry.Seq = r.seq
	r.lastSeq[entry.ID] = r.seq
	r.logger.Debug("device state changed",
		"device_id", entry.ID,
		"device_type", entry.Kind,
		"source", cause.Source,
		"action", cause.Action,
		"seq", r.seq,
	)
	if r.notify != nil {
		r.notify(Change{Seq: r.seq, Entry: entry, Cause: cause, At: r.nowFunc()})
	}
	return entry
}

// Snapshot returns every device status in inventory order, taken under
// a single lock acquisition.
func (r *Registry) Snapshot() []Entry {
	entries, _ := r.SnapshotSeq()
	return entries
}

// SnapshotSeq is Snapshot plus the sequence number of the last change it
// includes. Changes with a higher Seq happened after the snapshot.
func (r *Registry) SnapshotSeq() ([]Entry, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]Entry, 0, len(r.order))
	for _, d := range r.order {
		entries = append(entries, r.entryLocked(d, r.refs[d.ID()]))
	}
	return entries, r.seq
}

// RoomGroup lists the devices found in one room.
type RoomGroup struct {
	Room      string   `json:"room"`
	DeviceIDs []string `json:"deviceIds"`
}

// Rooms groups device IDs by room in order of first appearance.
func (r *Registry) Rooms() []RoomGroup {
	r.mu.Lock()
	defer r.mu.Unlock()

	var groups []RoomGroup
	pos := make(map[string]int)
	for _, d := range r.order {
		i, ok := pos[d.Room()]
		if !ok {
			i = len(groups)
			pos[d.Room()] = i
			groups = append(groups, RoomGroup{Room: d.Room()})
		}
		groups[i].DeviceIDs = append(groups[i].DeviceIDs, d.ID())
	}
	return groups
}

// TickCycles advances every running washing machine by one minute
// through the same serialised path as commands. It returns the entries
// that changed.
func (r *Registry) TickCycles() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var changed []Entry
	cause := Cause{Source: SourceTimer, Action: "tick"}
	for i, d := range r.byKind[KindWashingMachine] {
		w, ok := d.(*WashingMachine)
		if !ok || !w.Tick() {
			continue
		}
		entry := r.commitLocked(Entry{
			Ref:    Ref{Kind: KindWashingMachine, Index: i, ID: w.ID(), Room: w.Room()},
			Status: w.Status(),
		}, cause)
		if w.Phase() == PhaseCompleted {
			r.logger.Info("wash cycle completed", "device_id", w.ID(), "cycle", w.Cycle())
		}
		changed = append(changed, entry)
	}
	return changed
}
