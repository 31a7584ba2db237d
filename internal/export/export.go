// Package export serializes device collections as JSON, CSV, XML, or YAML.
// The converters are pure; Export bundles the result with a filename and
// content type for the transport layer.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/HerbHall/droidspec/pkg/models"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
	FormatYAML Format = "yaml"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatXML, FormatYAML}
}

// ErrUnsupportedFormat is matched by every UnsupportedFormatError.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// UnsupportedFormatError names the rejected format.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format: %q", e.Format)
}

// Is makes errors.Is(err, ErrUnsupportedFormat) succeed.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// ParseFormat resolves a case-insensitive format name. "yml" is accepted.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatXML, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", &UnsupportedFormatError{Format: s}
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type used for downloads.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXML:
		return "application/xml; charset=utf-8"
	case FormatYAML:
		return "application/yaml; charset=utf-8"
	default:
		return "application/json"
	}
}

// Options controls an export.
type Options struct {
	Format   Format
	Pretty   bool   // JSON only
	Filename string // optional; extension added when missing
}

// Result is a serialized export ready to be written or downloaded.
type Result struct {
	Filename    string
	ContentType string
	Data        []byte
}

// now is replaced in tests.
var now = time.Now

// Export converts devices according to opts.
func Export(devices []models.AndroidDevice, opts Options) (*Result, error) {
	var (
		body string
		err  error
	)
	switch opts.Format {
	case FormatJSON:
		body, err = ToJSON(devices, opts.Pretty)
		if err != nil {
			return nil, err
		}
	case FormatCSV:
		body = ToCSV(devices)
	case FormatXML:
		body = ToXML(devices)
	case FormatYAML:
		body = ToYAML(devices)
	default:
		return nil, &UnsupportedFormatError{Format: string(opts.Format)}
	}

	return &Result{
		Filename:    Filename(opts.Filename, opts.Format),
		ContentType: opts.Format.ContentType(),
		Data:        []byte(body),
	}, nil
}

// Filename returns name with the format's extension, or the default
// android-devices-<timestamp>.<ext> when name is blank.
func Filename(name string, f Format) string {
	ext := "." + f.Extension()
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "android-devices-" + now().UTC().Format("2006-01-02T15-04-05") + ext
	}
	if strings.EqualFold(filepath.Ext(name), ext) {
		return name
	}
	return name + ext
}

// ToJSON encodes devices as a JSON array, 2-space indented when pretty.
// A nil collection encodes as [].
func ToJSON(devices []models.AndroidDevice, pretty bool) (string, error) {
	if devices == nil {
		devices = []models.AndroidDevice{}
	}
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(devices, "", "  ")
	} else {
		b, err = json.Marshal(devices)
	}
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(b), nil
}

// Per-record byte heuristics for size previews.
var bytesPerRecord = map[Format]int64{
	FormatJSON: 650,
	FormatCSV:  300,
	FormatXML:  1100,
	FormatYAML: 750,
}

const prettyJSONBytesPerRecord = 900

// SizeEstimate is a rough preview of an export's size.
type SizeEstimate struct {
	Format  Format `json:"format"`
	Records int    `json:"records"`
	Bytes   int64  `json:"bytes"`
	Human   string `json:"human"`
}

// EstimateSize approximates the encoded size of count records. It is only
// meant for UI previews.
func EstimateSize(count int, f Format, pretty bool) (SizeEstimate, error) {
	per, ok := bytesPerRecord[f]
	if !ok {
		return SizeEstimate{}, &UnsupportedFormatError{Format: string(f)}
	}
	if f == FormatJSON && pretty {
		per = prettyJSONBytesPerRecord
	}
	n := int64(max(count, 0)) * per
	return SizeEstimate{
		Format:  f,
		Records: count,
		Bytes:   n,
		Human:   humanize.Bytes(uint64(n)),
	}, nil
}
