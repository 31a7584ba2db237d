package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/HerbHall/droidspec/internal/schema"
	"github.com/HerbHall/droidspec/pkg/models"
)

//go:embed sample_devices.json
var sampleJSON []byte

var sample = sync.OnceValue(func() []models.AndroidDevice {
	var devices []models.AndroidDevice
	if err := json.Unmarshal(sampleJSON, &devices); err != nil {
		panic(fmt.Sprintf("catalog: embedded sample is invalid: %v", err))
	}
	return devices
})

// Sample returns a copy of the bundled sample dataset.
func Sample() []models.AndroidDevice {
	return slices.Clone(sample())
}

// ValidationError carries the schema violations of a rejected catalog.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "catalog validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("catalog validation failed with %d errors", len(e.Errors))
}

// Encoding is the serialization of a catalog document.
type Encoding int

const (
	EncodingJSON Encoding = iota
	EncodingYAML
)

// EncodingForPath picks the encoding from a file extension.
func EncodingForPath(path string) Encoding {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return EncodingYAML
	default:
		return EncodingJSON
	}
}

// EncodingForContentType picks the encoding from a request Content-Type.
func EncodingForContentType(contentType string) Encoding {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return EncodingJSON
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return EncodingYAML
	default:
		return EncodingJSON
	}
}

// Parse validates a catalog document. Nothing is returned unless every
// record is valid; the error is then a *ValidationError.
func Parse(data []byte, enc Encoding) ([]models.AndroidDevice, error) {
	var res schema.Result
	if enc == EncodingYAML {
		res = schema.ValidateYAML(data)
	} else {
		res = schema.Validate(data)
	}
	if !res.Valid() {
		return nil, &ValidationError{Errors: res.Errors}
	}
	return res.Devices, nil
}

// Loader produces the default-tier catalog: the file at Path when set,
// otherwise the bundled sample.
type Loader struct {
	Path string
}

// Load reads and validates the default catalog.
func (l Loader) Load() (Load, error) {
	if l.Path == "" {
		return Load{Devices: Sample(), Source: SourceDefault}, nil
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return Load{}, fmt.Errorf("read catalog %s: %w", l.Path, err)
	}
	devices, err := Parse(data, EncodingForPath(l.Path))
	if err != nil {
		return Load{}, fmt.Errorf("load catalog %s: %w", l.Path, err)
	}
	return Load{Devices: devices, Source: SourceFile, Origin: l.Path}, nil
}
