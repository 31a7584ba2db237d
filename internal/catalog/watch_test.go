package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	svc, _ := newTestService(t)
	loader := Loader{Path: path}
	_, err := Reload(context.Background(), svc, loader)
	require.NoError(t, err)
	require.Empty(t, svc.Devices())

	w := NewWatcher(svc, loader, zap.NewNop())
	w.wait = 20 * time.Millisecond
	reloads := make(chan Info, 4)
	w.reloaded = func(info Info, err error) {
		if err == nil {
			reloads <- info
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	for range 3 {
		require.NoError(t, os.WriteFile(path, sampleJSON, 0o600))
	}

	select {
	case info := <-reloads:
		assert.Equal(t, SourceFile, info.Source)
		assert.Equal(t, len(Sample()), info.Count)
	case <-time.After(5 * time.Second):
		t.Fatal("catalog was not reloaded")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_RequiresPath(t *testing.T) {
	svc, _ := newTestService(t)
	err := NewWatcher(svc, Loader{}, zap.NewNop()).Run(context.Background())
	assert.Error(t, err)
}
