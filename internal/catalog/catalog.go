// Package catalog owns the in-memory device collection: where it came from,
// which load produced it, and the HTTP surface that queries it.
package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HerbHall/droidspec/internal/event"
	"github.com/HerbHall/droidspec/pkg/models"
)

// Source identifies where the current collection came from.
type Source string

const (
	SourceDefault Source = "default" // bundled sample dataset
	SourceFile    Source = "file"    // catalog.path on disk
	SourceUpload  Source = "upload"  // user upload
	SourceURL     Source = "url"     // user-requested remote fetch
)

// UserSupplied reports whether s holds data the user chose explicitly.
// Such data is never replaced by a default reload.
func (s Source) UserSupplied() bool {
	return s == SourceUpload || s == SourceURL
}

var (
	// ErrStaleLoad is returned by Commit when a newer load began after the
	// ticket was issued. The result is discarded.
	ErrStaleLoad = errors.New("catalog load superseded by a newer load")
	// ErrUserDataPresent is returned when a default reload would overwrite
	// uploaded or fetched data.
	ErrUserDataPresent = errors.New("catalog holds user-supplied data")
	// ErrNotFound is returned by lookups for unknown identity keys.
	ErrNotFound = errors.New("device not found")
)

// Info describes the current dataset.
type Info struct {
	DatasetID  string    `json:"datasetId" example:"5f0c6a3e-8d1b-4c47-9f7e-2b1a6d3c9e10"`
	Source     Source    `json:"source" example:"default"`
	Origin     string    `json:"origin,omitempty" example:"https://example.com/devices.json"`
	Count      int       `json:"count" example:"18"`
	Generation uint64    `json:"generation" example:"3"`
	Fallback   bool      `json:"fallback"`
	LoadedAt   time.Time `json:"loadedAt"`
}

// ReplacedEvent is the payload of event.TopicCatalogReplaced.
type ReplacedEvent struct {
	Info    Info
	Devices []models.AndroidDevice
}

// Ticket identifies one user-initiated load attempt. See Service.BeginLoad.
type Ticket uint64

const (
	// untracked marks a default-tier load. It never supersedes a pending
	// user load and is never itself superseded.
	untracked Ticket = 0
	// issueNow asks commit to issue and consume a ticket under the lock.
	issueNow Ticket = ^Ticket(0)
)

type Load struct {
	Devices  []models.AndroidDevice
	Source   Source
	Origin   string
	Fallback bool
}

// Service holds the current collection. The slice returned by Devices is
// shared and must be treated as read-only; every replacement installs a new
// slice.
type Service struct {
	mu      sync.RWMutex
	devices []models.AndroidDevice
	info    Info
	// issued counts user-tier tickets; generation counts commits.
	issued     uint64
	generation uint64

	bus    event.Publisher
	logger *zap.Logger
}

// NewService creates an empty service. bus may be nil.
func NewService(bus event.Publisher, logger *zap.Logger) *Service {
	return &Service{
		devices: []models.AndroidDevice{},
		bus:     bus,
		logger:  logger,
	}
}

// BeginLoad issues a ticket for a user-initiated load (upload, fetch or
// reset). Only the most recently issued ticket can commit, so a slow
// response can never overwrite the result of a load the user started later.
// Default-tier reloads do not take tickets and cannot supersede one.
func (s *Service) BeginLoad() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return Ticket(s.issued)
}

// Commit installs l if t is still the latest ticket. A default-tier load
// (default or file source) does not replace user-supplied data.
func (s *Service) Commit(ctx context.Context, t Ticket, l Load) (Info, error) {
	return s.commit(ctx, t, l, false)
}

// Replace commits l without a prior BeginLoad. A user-supplied load
// supersedes any pending ticket; a default-tier load leaves pending tickets
// valid and is refused while user data is installed.
func (s *Service) Replace(ctx context.Context, l Load) (Info, error) {
	t := untracked
	if l.Source.UserSupplied() {
		t = issueNow
	}
	return s.commit(ctx, t, l, false)
}

// Force commits l regardless of the current source. Used by reset and by
// the fetch fallback.
func (s *Service) Force(ctx context.Context, t Ticket, l Load) (Info, error) {
	return s.commit(ctx, t, l, true)
}

func (s *Service) commit(ctx context.Context, t Ticket, l Load, force bool) (Info, error) {
	s.mu.Lock()
	switch t {
	case untracked:
	case issueNow:
		s.issued++
	default:
		if uint64(t) != s.issued {
			s.mu.Unlock()
			catalogLoads.WithLabelValues(string(l.Source), "stale").Inc()
			return Info{}, ErrStaleLoad
		}
	}
	if !force && !l.Source.UserSupplied() && s.info.Source.UserSupplied() {
		s.mu.Unlock()
		catalogLoads.WithLabelValues(string(l.Source), "skipped").Inc()
		return Info{}, ErrUserDataPresent
	}

	devices := l.Devices
	if devices == nil {
		devices = []models.AndroidDevice{}
	}
	s.devices = devices
	s.generation++
	s.info = Info{
		DatasetID:  uuid.NewString(),
		Source:     l.Source,
		Origin:     l.Origin,
		Count:      len(devices),
		Generation: s.generation,
		Fallback:   l.Fallback,
		LoadedAt:   time.Now().UTC(),
	}
	info := s.info
	s.mu.Unlock()

	catalogDevices.Set(float64(len(devices)))
	catalogLoads.WithLabelValues(string(l.Source), "ok").Inc()
	s.logger.Info("catalog replaced",
		zap.String("dataset_id", info.DatasetID),
		zap.String("source", string(info.Source)),
		zap.String("origin", info.Origin),
		zap.Int("devices", info.Count),
		zap.Bool("fallback", info.Fallback),
	)

	if s.bus != nil {
		if err := s.bus.Publish(ctx, event.Event{
			Topic:   event.TopicCatalogReplaced,
			Source:  "catalog",
			Payload: ReplacedEvent{Info: info, Devices: devices},
		}); err != nil {
			return info, fmt.Errorf("publish catalog replaced: %w", err)
		}
	}
	return info, nil
}

// Devices returns the current collection.
func (s *Service) Devices() []models.AndroidDevice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.devices
}

// Info returns the current dataset metadata.
func (s *Service) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Lookup returns the first device with the given identity.
func (s *Service) Lookup(brand, device string) (models.AndroidDevice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.devices {
		if s.devices[i].Brand == brand && s.devices[i].Device == device {
			return s.devices[i], nil
		}
	}
	return models.AndroidDevice{}, fmt.Errorf("%s: %w", models.IdentityKey(brand, device), ErrNotFound)
}

// LookupKeys resolves identity keys in order, skipping unknown ones.
func (s *Service) LookupKeys(keys []string) []models.AndroidDevice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	index := make(map[string]int, len(s.devices))
	for i := len(s.devices) - 1; i >= 0; i-- {
		index[s.devices[i].IdentityKey()] = i
	}
	out := make([]models.AndroidDevice, 0, len(keys))
	for _, k := range keys {
		if i, ok := index[k]; ok {
			out = append(out, s.devices[i])
		}
	}
	return out
}

// Manufacturers returns the distinct manufacturers, sorted case-insensitively.
func Manufacturers(devices []models.AndroidDevice) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for i := range devices {
		m := devices[i].Manufacturer
		if _, ok := seen[m]; ok || m == "" {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b string) int {
		return cmp.Or(cmp.Compare(strings.ToLower(a), strings.ToLower(b)), cmp.Compare(a, b))
	})
	return out
}

// FormFactorCount is one entry of the form factor option list.
type FormFactorCount struct {
	FormFactor models.FormFactor `json:"formFactor" example:"Phone"`
	Icon       string            `json:"icon" example:"smartphone"`
	Count      int               `json:"count" example:"12"`
}

// FormFactorOptions returns the form factors present in devices, in display
// order, with their counts.
func FormFactorOptions(devices []models.AndroidDevice) []FormFactorCount {
	counts := make(map[models.FormFactor]int)
	for i := range devices {
		counts[devices[i].FormFactor]++
	}
	out := []FormFactorCount{}
	for _, f := range models.FormFactors() {
		if n := counts[f]; n > 0 {
			out = append(out, FormFactorCount{FormFactor: f, Icon: f.Icon(), Count: n})
		}
	}
	return out
}
