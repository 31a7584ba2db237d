// Package backup snapshots the droidspec state database (saved filters,
// comparison, preferences and any uploaded catalog) into a portable
// tar.gz archive and restores it.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/HerbHall/droidspec/internal/store"
	"github.com/HerbHall/droidspec/internal/version"
)

// Archive entry names.
const (
	ManifestName = "manifest.json"
	DatabaseName = "droidspec.db"
	ConfigName   = "droidspec.yaml"
)

// Manifest describes an archive's contents.
type Manifest struct {
	AppVersion string    `json:"appVersion"`
	CreatedAt  time.Time `json:"createdAt"`
	Database   string    `json:"database"`
	Config     string    `json:"config,omitempty"`
}

// now is replaced in tests.
var now = time.Now

// Create writes a consistent snapshot of db, plus the config file when
// cfgPath is non-empty, to archivePath.
func Create(ctx context.Context, db *store.SQLiteStore, cfgPath, archivePath string) (Manifest, error) {
	tmpDir, err := os.MkdirTemp("", "droidspec-backup-")
	if err != nil {
		return Manifest{}, fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshot := filepath.Join(tmpDir, DatabaseName)
	if err := db.Snapshot(ctx, snapshot); err != nil {
		return Manifest{}, fmt.Errorf("snapshotting database: %w", err)
	}

	m := Manifest{
		AppVersion: version.Short(),
		CreatedAt:  now().UTC(),
		Database:   DatabaseName,
	}
	if cfgPath != "" {
		if _, err := os.Stat(cfgPath); err != nil {
			return Manifest{}, fmt.Errorf("config file not found: %w", err)
		}
		m.Config = ConfigName
	}

	if err := os.MkdirAll(filepath.Dir(archivePath), 0o750); err != nil {
		return Manifest{}, fmt.Errorf("creating archive directory: %w", err)
	}
	f, err := os.Create(archivePath)
	if err != nil {
		return Manifest{}, fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	manifest, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Manifest{}, fmt.Errorf("encoding manifest: %w", err)
	}
	if err := writeEntry(tw, ManifestName, manifest, m.CreatedAt); err != nil {
		return Manifest{}, err
	}
	if err := copyEntry(tw, DatabaseName, snapshot); err != nil {
		return Manifest{}, err
	}
	if cfgPath != "" {
		if err := copyEntry(tw, ConfigName, cfgPath); err != nil {
			return Manifest{}, err
		}
	}

	if err := tw.Close(); err != nil {
		return Manifest{}, fmt.Errorf("finalizing tar: %w", err)
	}
	if err := gw.Close(); err != nil {
		return Manifest{}, fmt.Errorf("finalizing gzip: %w", err)
	}
	return m, f.Close()
}

func writeEntry(tw *tar.Writer, name string, data []byte, mod time.Time) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o600,
		Size:    int64(len(data)),
		ModTime: mod,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing %s header: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func copyEntry(tw *tar.Writer, name, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o600,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing %s header: %w", name, err)
	}
	if _, err := io.Copy(tw, src); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
