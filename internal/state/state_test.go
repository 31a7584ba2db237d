package state

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HerbHall/droidspec/internal/catalog"
	"github.com/HerbHall/droidspec/internal/event"
	"github.com/HerbHall/droidspec/internal/filter"
	"github.com/HerbHall/droidspec/internal/paginate"
	"github.com/HerbHall/droidspec/internal/testutil"
	"github.com/HerbHall/droidspec/pkg/models"
)

func newTestStore(t *testing.T) (*Store, *event.Bus) {
	t.Helper()
	bus := event.NewBus(zap.NewNop())
	s, err := NewStore(context.Background(), testutil.NewStore(t), bus, zap.NewNop())
	require.NoError(t, err)
	return s, bus
}

func TestStore_SetGetDelete(t *testing.T) {
	s, bus := newTestStore(t)
	ctx := context.Background()

	var changes []ChangedEvent
	bus.Subscribe(event.TopicStateChanged, func(_ context.Context, ev event.Event) {
		changes = append(changes, ev.Payload.(ChangedEvent))
	})

	_, ok, err := s.Get(ctx, KeyPreferences)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, KeyPreferences, json.RawMessage(`{"viewMode":"list","theme":"dark"}`)))
	e, ok, err := s.Get(ctx, KeyPreferences)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"viewMode":"list","theme":"dark","colorCoding":true,"showAnalytics":true}`, string(e.Value))
	assert.False(t, e.UpdatedAt.IsZero())

	// Last write wins.
	require.NoError(t, s.Set(ctx, KeyPreferences, json.RawMessage(`{"viewMode":"grid","theme":"light","colorCoding":false}`)))
	p, err := s.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, Preferences{ViewMode: "grid", Theme: "light", ColorCoding: false, ShowAnalytics: true}, p)

	require.NoError(t, s.Delete(ctx, KeyPreferences))
	p, err = s.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), p)

	assert.Equal(t, []ChangedEvent{
		{Key: KeyPreferences},
		{Key: KeyPreferences},
		{Key: KeyPreferences, Deleted: true},
	}, changes)
}

func TestStore_RejectsInvalidValues(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		key   string
		value string
	}{
		{"bogus", `{}`},
		{KeyPreferences, `{"viewMode":"table"}`},
		{KeyPreferences, `{"theme":"neon"}`},
		{KeyFilters, `{"search": 42}`},
		{KeyFilters, `{"unknownField": true}`},
		{KeyComparison, `["a/1","b/2","c/3","d/4","e/5"]`},
		{KeyPagination, `not json`},
	}
	for _, tc := range tests {
		err := s.Set(ctx, tc.key, json.RawMessage(tc.value))
		assert.Error(t, err, "%s=%s", tc.key, tc.value)
		assert.True(t, IsInvalid(err), "%s: %v", tc.key, err)
	}
}

func TestStore_PaginationClamped(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyPagination, json.RawMessage(`{"currentPage":0,"itemsPerPage":0,"totalItems":100}`)))
	p, ok, err := s.Pagination(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, paginate.State{CurrentPage: 1, ItemsPerPage: paginate.DefaultItemsPerPage, TotalItems: 100}, p)
}

func TestStore_List(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveFilters(ctx, filter.DefaultState(nil)))
	require.NoError(t, s.SaveComparison(ctx, []string{"google/husky"}))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.JSONEq(t, `["google/husky"]`, string(entries[KeyComparison].Value))
}

func TestStore_Comparison(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	keys, err := s.Comparison(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	for _, k := range []string{"a/1", "b/2", "a/1", "c/3", "d/4"} {
		_, err := s.AddComparison(ctx, k)
		require.NoError(t, err)
	}
	keys, err = s.AddComparison(ctx, "e/5")
	require.ErrorIs(t, err, ErrComparisonFull)
	assert.Equal(t, []string{"a/1", "b/2", "c/3", "d/4"}, keys)

	keys, err = s.RemoveComparison(ctx, "b/2")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1", "c/3", "d/4"}, keys)

	keys, err = s.RemoveComparison(ctx, "zzz/0")
	require.NoError(t, err)
	assert.Len(t, keys, 3)

	require.ErrorIs(t, s.SaveComparison(ctx, []string{"1", "2", "3", "4", "5"}), ErrComparisonFull)
}

func TestStore_FollowResetsOnCatalogReplace(t *testing.T) {
	s, bus := newTestStore(t)
	ctx := context.Background()
	s.Follow(bus, 24)

	stale := filter.DefaultState(nil)
	stale.Search = "pixel"
	stale.RAMRange = &[2]int{1, 2}
	require.NoError(t, s.SaveFilters(ctx, stale))
	require.NoError(t, s.SavePagination(ctx, paginate.State{CurrentPage: 5, ItemsPerPage: 10, TotalItems: 100}))

	svc := catalog.NewService(bus, zap.NewNop())
	devices := []models.AndroidDevice{
		testutil.NewDevice(testutil.WithRAM("2048MB")),
		testutil.NewDevice(testutil.WithRAM("8192MB")),
	}
	_, err := svc.Replace(ctx, catalog.Load{Devices: devices, Source: catalog.SourceUpload, Origin: "x.json"})
	require.NoError(t, err)

	f, ok, err := s.Filters(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filter.DefaultState(devices), f)
	assert.Equal(t, &[2]int{2048, 8192}, f.RAMRange)

	p, _, err := s.Pagination(ctx)
	require.NoError(t, err)
	assert.Equal(t, paginate.State{CurrentPage: 1, ItemsPerPage: 10, TotalItems: 2}, p)

	saved, ok, err := s.Upload(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "upload", saved.Source)
	assert.Equal(t, devices, saved.Devices)

	// Restoring into a fresh service brings the upload back.
	fresh := catalog.NewService(nil, zap.NewNop())
	restored, err := s.Restore(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, catalog.SourceUpload, fresh.Info().Source)
	assert.Len(t, fresh.Devices(), 2)

	// Reset to the default catalog drops the saved upload.
	_, err = catalog.Reset(ctx, svc, catalog.Loader{})
	require.NoError(t, err)
	_, ok, err = s.Upload(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
