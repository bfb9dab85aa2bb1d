package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/homesim-core/internal/device"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200

	// Fixed width so recorded_at sorts lexically.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrInvalidRetention is returned by Prune for a non-positive duration.
var ErrInvalidRetention = errors.New("journal: retention must be positive")

// Record is one journaled device change.
type Record struct {
	ID         int64           `json:"id"`
	Seq        uint64          `json:"seq"`
	DeviceID   string          `json:"deviceId"`
	DeviceType string          `json:"deviceType"`
	Room       string          `json:"room"`
	Source     string          `json:"source"`
	Origin     string          `json:"origin,omitempty"`
	Action     string          `json:"action,omitempty"`
	Status     json.RawMessage `json:"status"`
	RecordedAt time.Time       `json:"recordedAt"`
}

// Store persists device changes in the device_journal table.
type Store struct {
	db      *sql.DB
	nowFunc func() time.Time
}

// NewStore wraps an open, migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, nowFunc: time.Now}
}

// Append journals a committed change.
func (s *Store) Append(ctx context.Context, change device.Change) error {
	status, err := json.Marshal(change.Entry.Status)
	if err != nil {
		return fmt.Errorf("marshalling status: %w", err)
	}

	at := change.At
	if at.IsZero() {
		at = s.nowFunc()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO device_journal
		 (seq, device_id, device_type, room, source, origin, action, status, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(change.Seq), //nolint:gosec // sequence numbers stay far below MaxInt64
		change.Entry.ID,
		string(change.Entry.Kind),
		change.Entry.Room,
		change.Cause.Source,
		change.Cause.Origin,
		change.Cause.Action,
		string(status),
		at.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting journal record: %w", err)
	}
	return nil
}

// History returns the newest records first. An empty deviceID returns
// records across all devices. limit is clamped to [1, MaxLimit] with
// DefaultLimit for non-positive values.
func (s *Store) History(ctx context.Context, deviceID string, limit int) ([]Record, error) {
	limit = clampLimit(limit)

	query := `SELECT id, seq, device_id, device_type, room, source, origin, action, status, recorded_at
		 FROM device_journal`
	args := []any{}
	if deviceID != "" {
		query += " WHERE device_id = ?"
		args = append(args, deviceID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var r Record
		var seq int64
		var status, recordedAt string
		if err := rows.Scan(&r.ID, &seq, &r.DeviceID, &r.DeviceType, &r.Room,
			&r.Source, &r.Origin, &r.Action, &status, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning journal: %w", err)
		}
		r.Seq = uint64(seq) //nolint:gosec // written from a uint64
		r.Status = json.RawMessage(status)
		r.RecordedAt, err = time.Parse(timestampLayout, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing recorded_at %q: %w", recordedAt, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal: %w", err)
	}
	return records, nil
}

// Prune deletes records older than the retention window and reports how
// many were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, ErrInvalidRetention
	}
	cutoff := s.nowFunc().Add(-olderThan).UTC().Format(timestampLayout)

	res, err := s.db.ExecContext(ctx, "DELETE FROM device_journal WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned rows: %w", err)
	}
	return n, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
