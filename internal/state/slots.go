package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/HerbHall/droidspec/internal/filter"
	"github.com/HerbHall/droidspec/internal/paginate"
	"github.com/HerbHall/droidspec/pkg/models"
)

// MaxComparison is the largest comparison set.
const MaxComparison = 4

// ErrComparisonFull is returned when adding to a full comparison set.
var ErrComparisonFull = fmt.Errorf("comparison set holds at most %d devices", MaxComparison)

// View modes.
const (
	ViewGrid = "grid"
	ViewList = "list"
)

// Themes.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// Preferences are display settings.
type Preferences struct {
	ViewMode      string `json:"viewMode" example:"grid"`
	Theme         string `json:"theme" example:"system"`
	ColorCoding   bool   `json:"colorCoding"`
	ShowAnalytics bool   `json:"showAnalytics"`
}

// DefaultPreferences returns the settings used before the user changes any.
func DefaultPreferences() Preferences {
	return Preferences{ViewMode: ViewGrid, Theme: ThemeSystem, ColorCoding: true, ShowAnalytics: true}
}

// Validate checks the enumerated fields.
func (p Preferences) Validate() error {
	if p.ViewMode != ViewGrid && p.ViewMode != ViewList {
		return fmt.Errorf("%w: viewMode must be grid or list", ErrInvalid)
	}
	switch p.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return fmt.Errorf("%w: theme must be light, dark or system", ErrInvalid)
	}
	return nil
}

// SavedCatalog is the user-supplied collection kept across restarts.
type SavedCatalog struct {
	Source  string                 `json:"source" example:"upload"`
	Origin  string                 `json:"origin,omitempty"`
	Devices []models.AndroidDevice `json:"devices"`
}

// normalize decodes raw as the slot's type, applies the slot's rules and
// re-encodes it so stored values are canonical.
func normalize(key string, raw json.RawMessage) ([]byte, error) {
	var v any
	switch key {
	case KeyFilters:
		var f filter.State
		if err := strictDecode(raw, &f); err != nil {
			return nil, err
		}
		v = f
	case KeyPagination:
		var p paginate.State
		if err := strictDecode(raw, &p); err != nil {
			return nil, err
		}
		v = p.Clamp()
	case KeyComparison:
		var keys []string
		if err := strictDecode(raw, &keys); err != nil {
			return nil, err
		}
		keys = dedupe(keys)
		if len(keys) > MaxComparison {
			return nil, ErrComparisonFull
		}
		v = keys
	case KeyPreferences:
		p := DefaultPreferences()
		if err := strictDecode(raw, &p); err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		v = p
	case KeyUpload:
		var c SavedCatalog
		if err := strictDecode(raw, &c); err != nil {
			return nil, err
		}
		v = c
	default:
		return nil, fmt.Errorf("%q: %w", key, ErrUnknownKey)
	}
	return json.Marshal(v)
}

func strictDecode(raw json.RawMessage, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func dedupe(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" && !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}

// Filters returns the saved filter selection.
func (s *Store) Filters(ctx context.Context) (filter.State, bool, error) {
	var f filter.State
	ok, err := s.getJSON(ctx, KeyFilters, &f)
	return f, ok, err
}

// SaveFilters stores the filter selection.
func (s *Store) SaveFilters(ctx context.Context, f filter.State) error {
	return s.setJSON(ctx, KeyFilters, f)
}

// Pagination returns the saved page position.
func (s *Store) Pagination(ctx context.Context) (paginate.State, bool, error) {
	var p paginate.State
	ok, err := s.getJSON(ctx, KeyPagination, &p)
	return p, ok, err
}

// SavePagination stores the page position, clamped.
func (s *Store) SavePagination(ctx context.Context, p paginate.State) error {
	return s.setJSON(ctx, KeyPagination, p.Clamp())
}

// Comparison returns the identity keys in the comparison set, in the order
// they were added.
func (s *Store) Comparison(ctx context.Context) ([]string, error) {
	keys := []string{}
	if _, err := s.getJSON(ctx, KeyComparison, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// SaveComparison replaces the comparison set.
func (s *Store) SaveComparison(ctx context.Context, keys []string) error {
	keys = dedupe(keys)
	if len(keys) > MaxComparison {
		return ErrComparisonFull
	}
	return s.setJSON(ctx, KeyComparison, keys)
}

// AddComparison appends key to the comparison set. Adding a member again is
// a no-op.
func (s *Store) AddComparison(ctx context.Context, key string) ([]string, error) {
	keys, err := s.Comparison(ctx)
	if err != nil {
		return nil, err
	}
	if slices.Contains(keys, key) {
		return keys, nil
	}
	if len(keys) >= MaxComparison {
		return keys, ErrComparisonFull
	}
	keys = append(keys, key)
	return keys, s.SaveComparison(ctx, keys)
}

// RemoveComparison drops key from the comparison set.
func (s *Store) RemoveComparison(ctx context.Context, key string) ([]string, error) {
	keys, err := s.Comparison(ctx)
	if err != nil {
		return nil, err
	}
	i := slices.Index(keys, key)
	if i < 0 {
		return keys, nil
	}
	keys = slices.Delete(keys, i, i+1)
	return keys, s.SaveComparison(ctx, keys)
}

// Preferences returns the saved display settings, or the defaults.
func (s *Store) Preferences(ctx context.Context) (Preferences, error) {
	p := DefaultPreferences()
	if _, err := s.getJSON(ctx, KeyPreferences, &p); err != nil {
		return DefaultPreferences(), err
	}
	return p, nil
}

// SavePreferences validates and stores display settings.
func (s *Store) SavePreferences(ctx context.Context, p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.setJSON(ctx, KeyPreferences, p)
}

// Upload returns the saved user catalog.
func (s *Store) Upload(ctx context.Context) (SavedCatalog, bool, error) {
	var c SavedCatalog
	ok, err := s.getJSON(ctx, KeyUpload, &c)
	return c, ok, err
}

// SaveUpload stores a user catalog.
func (s *Store) SaveUpload(ctx context.Context, c SavedCatalog) error {
	return s.setJSON(ctx, KeyUpload, c)
}

// IsInvalid reports whether err is a client-side value error.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid) || errors.Is(err, ErrComparisonFull) || errors.Is(err, ErrUnknownKey)
}
