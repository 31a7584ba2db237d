package backup

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidArchive is returned for archives that are not droidspec backups.
var ErrInvalidArchive = errors.New("invalid backup archive")

const maxEntrySize = 1 << 30

// Restore extracts archivePath into targetDir and returns its manifest.
// Existing files are only overwritten when force is true. Nothing is
// written unless the archive holds both a manifest and a database.
func Restore(archivePath, targetDir string, force bool) (Manifest, error) {
	entries, err := readArchive(archivePath)
	if err != nil {
		return Manifest{}, err
	}

	raw, ok := entries[ManifestName]
	if !ok {
		return Manifest{}, fmt.Errorf("%w: missing %s", ErrInvalidArchive, ManifestName)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: manifest: %v", ErrInvalidArchive, err)
	}
	if _, ok := entries[m.Database]; !ok || m.Database == "" {
		return Manifest{}, fmt.Errorf("%w: database %q not in archive", ErrInvalidArchive, m.Database)
	}

	if err := os.MkdirAll(targetDir, 0o750); err != nil {
		return Manifest{}, fmt.Errorf("creating target directory: %w", err)
	}

	restore := []string{m.Database}
	if m.Config != "" {
		if _, ok := entries[m.Config]; ok {
			restore = append(restore, m.Config)
		}
	}
	if !force {
		for _, name := range restore {
			dest := filepath.Join(targetDir, name)
			if _, err := os.Stat(dest); err == nil {
				return Manifest{}, fmt.Errorf("file already exists (use --force to overwrite): %s", dest)
			}
		}
	}
	for _, name := range restore {
		dest := filepath.Join(targetDir, name)
		if err := os.WriteFile(dest, entries[name], 0o600); err != nil {
			return Manifest{}, fmt.Errorf("writing %s: %w", dest, err)
		}
		// A stale WAL from the replaced database must not be replayed.
		if name == m.Database {
			_ = os.Remove(dest + "-wal")
			_ = os.Remove(dest + "-shm")
		}
	}
	return m, nil
}

// readArchive loads every regular file entry into memory, rejecting names
// that could escape the target directory.
func readArchive(path string) (map[string][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompressing archive: %w", err)
	}
	defer gr.Close()

	entries := make(map[string][]byte)
	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive entry: %w", err)
		}
		if err := validateEntryName(hdr.Name); err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if hdr.Size > maxEntrySize {
			return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidArchive, hdr.Name, maxEntrySize)
		}
		data, err := io.ReadAll(io.LimitReader(tr, maxEntrySize))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", hdr.Name, err)
		}
		entries[hdr.Name] = data
	}
	return entries, nil
}

// validateEntryName accepts only plain file names at the archive root.
func validateEntryName(name string) error {
	if filepath.IsAbs(name) || strings.HasPrefix(filepath.Clean(name), "..") {
		return fmt.Errorf("path traversal detected: %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: unexpected nested entry %q", ErrInvalidArchive, name)
	}
	return nil
}
