// Package schema validates externally supplied device catalogs before they
// enter the pipeline. Validation is all-or-nothing: a catalog with any
// violation yields no devices, only a list of path-prefixed errors.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/HerbHall/droidspec/pkg/models"
)

// MaxReportedErrors caps the error list shown to users.
const MaxReportedErrors = 50

var (
	screenSizeRe = regexp.MustCompile(`^\d+x\d+$`)
	glVersionRe  = regexp.MustCompile(`^\d+\.\d+$`)
)

// Result is the outcome of validating a catalog. Devices is nil whenever
// Errors is non-empty.
type Result struct {
	Devices []models.AndroidDevice
	Errors  []string
}

// Valid reports whether the catalog passed.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// record mirrors models.AndroidDevice with validation rules attached.
type record struct {
	Brand            string   `json:"brand"`
	Device           string   `json:"device"`
	Manufacturer     string   `json:"manufacturer"`
	ModelName        string   `json:"modelName"`
	RAM              string   `json:"ram"`
	FormFactor       string   `json:"formFactor" validate:"formfactor"`
	ProcessorName    string   `json:"processorName"`
	GPU              string   `json:"gpu"`
	ScreenSizes      []string `json:"screenSizes" validate:"min=1,dive,screensize"`
	ScreenDensities  []int    `json:"screenDensities" validate:"min=1,dive,gt=0"`
	ABIs             []string `json:"abis" validate:"min=1,dive,required"`
	SDKVersions      []int    `json:"sdkVersions" validate:"min=1,dive,gt=0"`
	OpenGLESVersions []string `json:"openGlEsVersions" validate:"min=1,dive,glversion"`
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindStrings
	kindInts
)

// fields lists every required key in record order.
var fields = []struct {
	name string
	kind fieldKind
}{
	{"brand", kindString},
	{"device", kindString},
	{"manufacturer", kindString},
	{"modelName", kindString},
	{"ram", kindString},
	{"formFactor", kindString},
	{"processorName", kindString},
	{"gpu", kindString},
	{"screenSizes", kindStrings},
	{"screenDensities", kindInts},
	{"abis", kindStrings},
	{"sdkVersions", kindInts},
	{"openGlEsVersions", kindStrings},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("screensize", func(fl validator.FieldLevel) bool {
		return screenSizeRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("glversion", func(fl validator.FieldLevel) bool {
		return glVersionRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("formfactor", func(fl validator.FieldLevel) bool {
		return models.FormFactor(fl.Field().String()).Valid()
	})
	return v
}

// Validate checks data against the catalog shape: a JSON array of device
// objects carrying every field with the documented constraints.
func Validate(data []byte) Result {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		return Result{Errors: []string{"$: expected an array of device objects"}}
	}

	var errs []string
	devices := make([]models.AndroidDevice, 0, len(items))
	for i, raw := range items {
		rec, recErrs := decodeRecord(i, raw)
		if len(recErrs) > 0 {
			errs = append(errs, recErrs...)
			continue
		}
		if err := validate.Struct(rec); err != nil {
			errs = append(errs, describe(i, err)...)
			continue
		}
		devices = append(devices, rec.device())
	}

	if len(errs) > 0 {
		return Result{Errors: errs}
	}
	return Result{Devices: devices}
}

// ValidateYAML accepts a YAML sequence of devices (such as a YAML export)
// and validates it with the same rules as Validate.
func ValidateYAML(data []byte) Result {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Result{Errors: []string{"$: invalid YAML: " + err.Error()}}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return Result{Errors: []string{"$: unsupported YAML value: " + err.Error()}}
	}
	return Validate(b)
}

// Truncate caps errs at limit entries, summarizing the remainder.
func Truncate(errs []string, limit int) []string {
	if limit <= 0 || len(errs) <= limit {
		return errs
	}
	out := make([]string, 0, limit+1)
	out = append(out, errs[:limit]...)
	return append(out, fmt.Sprintf("... and %d more errors", len(errs)-limit))
}

func decodeRecord(i int, raw json.RawMessage) (*record, []string) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, []string{fmt.Sprintf("[%d]: expected a device object", i)}
	}

	rec := &record{}
	targets := map[string]any{
		"brand":            &rec.Brand,
		"device":           &rec.Device,
		"manufacturer":     &rec.Manufacturer,
		"modelName":        &rec.ModelName,
		"ram":              &rec.RAM,
		"formFactor":       &rec.FormFactor,
		"processorName":    &rec.ProcessorName,
		"gpu":              &rec.GPU,
		"screenSizes":      &rec.ScreenSizes,
		"screenDensities":  &rec.ScreenDensities,
		"abis":             &rec.ABIs,
		"sdkVersions":      &rec.SDKVersions,
		"openGlEsVersions": &rec.OpenGLESVersions,
	}

	var errs []string
	for _, f := range fields {
		path := fmt.Sprintf("[%d].%s", i, f.name)
		val, ok := obj[f.name]
		if !ok {
			errs = append(errs, path+": is required")
			continue
		}
		if bytes.Equal(bytes.TrimSpace(val), []byte("null")) {
			errs = append(errs, path+": must not be null")
			continue
		}
		if err := json.Unmarshal(val, targets[f.name]); err != nil {
			errs = append(errs, path+": expected "+f.kind.String())
		}
	}
	return rec, errs
}

func (k fieldKind) String() string {
	switch k {
	case kindStrings:
		return "an array of strings"
	case kindInts:
		return "an array of integers"
	default:
		return "a string"
	}
}

// describe converts validator errors into "[i].field[j]: message" lines.
func describe(i int, err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{fmt.Sprintf("[%d]: %v", i, err)}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if _, rest, found := strings.Cut(ns, "."); found {
			ns = rest
		}
		out = append(out, fmt.Sprintf("[%d].%s: %s", i, ns, message(fe)))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must contain at least one item"
	case "gt":
		return "must be a positive integer"
	case "required":
		return "must not be empty"
	case "screensize":
		return "must match WIDTHxHEIGHT"
	case "glversion":
		return "must match MAJOR.MINOR"
	case "formfactor":
		names := make([]string, 0, len(models.FormFactors()))
		for _, f := range models.FormFactors() {
			names = append(names, string(f))
		}
		return "must be one of " + strings.Join(names, ", ")
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func (r *record) device() models.AndroidDevice {
	return models.AndroidDevice{
		Brand:            r.Brand,
		Device:           r.Device,
		Manufacturer:     r.Manufacturer,
		ModelName:        r.ModelName,
		RAM:              r.RAM,
		FormFactor:       models.FormFactor(r.FormFactor),
		ProcessorName:    r.ProcessorName,
		GPU:              r.GPU,
		ScreenSizes:      r.ScreenSizes,
		ScreenDensities:  r.ScreenDensities,
		ABIs:             r.ABIs,
		SDKVersions:      r.SDKVersions,
		OpenGLESVersions: r.OpenGLESVersions,
	}
}
