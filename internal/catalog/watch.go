package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/HerbHall/droidspec/internal/debounce"
)

// Watcher reloads the default catalog file when it changes on disk. Bursts
// of writes (editors often write, chmod and rename in quick succession)
// collapse into one reload.
type Watcher struct {
	svc    *Service
	loader Loader
	wait   time.Duration
	logger *zap.Logger

	// reloaded is called after each reload attempt; tests hook it.
	reloaded func(Info, error)
}

// NewWatcher creates a watcher for loader.Path.
func NewWatcher(svc *Service, loader Loader, logger *zap.Logger) *Watcher {
	return &Watcher{
		svc:    svc,
		loader: loader,
		wait:   debounce.DefaultWait,
		logger: logger,
	}
}

// Run watches until ctx is cancelled. The parent directory is watched rather
// than the file so atomic replace-by-rename is seen.
func (w *Watcher) Run(ctx context.Context) error {
	if w.loader.Path == "" {
		return errors.New("catalog watcher: no catalog path configured")
	}
	target, err := filepath.Abs(w.loader.Path)
	if err != nil {
		return fmt.Errorf("catalog watcher: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("catalog watcher: watch %s: %w", filepath.Dir(target), err)
	}

	d := debounce.New(w.wait, func(op fsnotify.Op) {
		w.reload(ctx, op)
	})
	defer d.Stop()

	w.logger.Info("watching catalog file", zap.String("path", target))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				d.Trigger(ev.Op)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("catalog watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload(ctx context.Context, op fsnotify.Op) {
	info, err := Reload(ctx, w.svc, w.loader)
	switch {
	case errors.Is(err, ErrUserDataPresent):
		w.logger.Info("catalog file changed; keeping user-supplied catalog",
			zap.String("op", op.String()))
	case err != nil:
		w.logger.Warn("catalog reload failed", zap.String("op", op.String()), zap.Error(err))
	default:
		w.logger.Info("catalog reloaded from file",
			zap.String("dataset_id", info.DatasetID), zap.Int("devices", info.Count))
	}
	if w.reloaded != nil {
		w.reloaded(info, err)
	}
}
