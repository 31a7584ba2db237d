// Package state persists the user's session slots (filters, pagination,
// comparison set, preferences and uploaded catalog) as JSON values in SQLite.
// Writes are last-write-wins and announced on the event bus so every open
// client can resynchronize.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/droidspec/internal/event"
	"github.com/HerbHall/droidspec/internal/store"
)

// Slot keys.
const (
	KeyFilters     = "filters"
	KeyPagination  = "pagination"
	KeyComparison  = "comparison"
	KeyPreferences = "preferences"
	KeyUpload      = "upload"
)

// Keys returns every slot key.
func Keys() []string {
	return []string{KeyFilters, KeyPagination, KeyComparison, KeyPreferences, KeyUpload}
}

var (
	ErrUnknownKey = errors.New("unknown state key")
	ErrInvalid    = errors.New("invalid state value")
)

// ChangedEvent is the payload of event.TopicStateChanged.
type ChangedEvent struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Entry is one stored slot.
type Entry struct {
	Value     json.RawMessage `json:"value" swaggertype:"object"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

var migrations = []store.Migration{
	{
		Version:     1,
		Description: "create state_kv table",
		Up: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS state_kv (
					key        TEXT PRIMARY KEY,
					value      TEXT NOT NULL,
					updated_at DATETIME NOT NULL
				)`)
			return err
		},
	},
}

// Store reads and writes state slots.
type Store struct {
	db     *sql.DB
	bus    event.Publisher
	logger *zap.Logger
}

// NewStore migrates the state table and returns a Store. bus may be nil.
func NewStore(ctx context.Context, st *store.SQLiteStore, bus event.Publisher, logger *zap.Logger) (*Store, error) {
	if err := st.Migrate(ctx, "state", migrations); err != nil {
		return nil, fmt.Errorf("state store migrate: %w", err)
	}
	return &Store{db: st.DB(), bus: bus, logger: logger}, nil
}

func checkKey(key string) error {
	if !slices.Contains(Keys(), key) {
		return fmt.Errorf("%q: %w", key, ErrUnknownKey)
	}
	return nil
}

// Get returns the raw JSON value of key. ok is false when the slot is unset.
func (s *Store) Get(ctx context.Context, key string) (entry Entry, ok bool, err error) {
	if err := checkKey(key); err != nil {
		return Entry{}, false, err
	}
	var value string
	err = s.db.QueryRowContext(ctx,
		`SELECT value, updated_at FROM state_kv WHERE key = ?`, key,
	).Scan(&value, &entry.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get state %s: %w", key, err)
	}
	entry.Value = json.RawMessage(value)
	return entry, true, nil
}

// List returns every stored slot.
func (s *Store) List(ctx context.Context) (map[string]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value, updated_at FROM state_kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list state: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Entry)
	for rows.Next() {
		var (
			key, value string
			e          Entry
		)
		if err := rows.Scan(&key, &value, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		e.Value = json.RawMessage(value)
		out[key] = e
	}
	return out, rows.Err()
}

// Set stores raw under key after checking it decodes as the slot's type.
func (s *Store) Set(ctx context.Context, key string, raw json.RawMessage) error {
	if err := checkKey(key); err != nil {
		return err
	}
	normalized, err := normalize(key, raw)
	if err != nil {
		return err
	}
	return s.put(ctx, key, normalized)
}

func (s *Store) put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO state_kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set state %s: %w", key, err)
	}
	s.publish(ctx, ChangedEvent{Key: key})
	return nil
}

// Delete clears key. Deleting an unset slot is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM state_kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete state %s: %w", key, err)
	}
	s.publish(ctx, ChangedEvent{Key: key, Deleted: true})
	return nil
}

func (s *Store) publish(ctx context.Context, ev ChangedEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event.Event{
		Topic:   event.TopicStateChanged,
		Source:  "state",
		Payload: ev,
	}); err != nil {
		s.logger.Warn("publish state change failed", zap.String("key", ev.Key), zap.Error(err))
	}
}

// getJSON decodes key into dst. ok is false when the slot is unset.
func (s *Store) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	e, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(e.Value, dst); err != nil {
		return false, fmt.Errorf("decode state %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) setJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", key, err)
	}
	return s.put(ctx, key, b)
}
