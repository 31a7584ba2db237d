package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/HerbHall/droidspec/internal/store"
	"github.com/HerbHall/droidspec/pkg/models"
)

// NewDevice returns an AndroidDevice with sensible defaults, suitable for test fixtures.
// The device codename is unique per call; override fields with options.
func NewDevice(opts ...func(*models.AndroidDevice)) models.AndroidDevice {
	d := models.AndroidDevice{
		Brand:            "google",
		Device:           "test-" + uuid.New().String()[:8],
		Manufacturer:     "Google",
		ModelName:        "Pixel Test",
		RAM:              "4096MB",
		FormFactor:       models.FormFactorPhone,
		ProcessorName:    "Qualcomm Snapdragon 765G",
		GPU:              "Qualcomm Adreno 620",
		ScreenSizes:      []string{"1080x2340"},
		ScreenDensities:  []int{440},
		ABIs:             []string{"arm64-v8a", "armeabi-v7a"},
		SDKVersions:      []int{30, 31},
		OpenGLESVersions: []string{"3.2"},
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// WithIdentity sets the brand and device codename.
func WithIdentity(brand, device string) func(*models.AndroidDevice) {
	return func(d *models.AndroidDevice) {
		d.Brand = brand
		d.Device = device
	}
}

// WithManufacturer sets the manufacturer.
func WithManufacturer(m string) func(*models.AndroidDevice) {
	return func(d *models.AndroidDevice) { d.Manufacturer = m }
}

// WithModelName sets the marketing model name.
func WithModelName(name string) func(*models.AndroidDevice) {
	return func(d *models.AndroidDevice) { d.ModelName = name }
}

// WithRAM sets the raw RAM string.
func WithRAM(ram string) func(*models.AndroidDevice) {
	return func(d *models.AndroidDevice) { d.RAM = ram }
}

// WithFormFactor sets the form factor.
func WithFormFactor(f models.FormFactor) func(*models.AndroidDevice) {
	return func(d *models.AndroidDevice) { d.FormFactor = f }
}

// WithSDK sets the supported API levels.
func WithSDK(levels ...int) func(*models.AndroidDevice) {
	return func(d *models.AndroidDevice) { d.SDKVersions = levels }
}

// WithABIs sets the supported ABIs.
func WithABIs(abis ...string) func(*models.AndroidDevice) {
	return func(d *models.AndroidDevice) { d.ABIs = abis }
}

// WithChipset sets the processor and GPU names.
func WithChipset(processor, gpu string) func(*models.AndroidDevice) {
	return func(d *models.AndroidDevice) {
		d.ProcessorName = processor
		d.GPU = gpu
	}
}

// WithScreens sets the screen sizes.
func WithScreens(sizes ...string) func(*models.AndroidDevice) {
	return func(d *models.AndroidDevice) { d.ScreenSizes = sizes }
}

// WithGLES sets the OpenGL ES versions.
func WithGLES(versions ...string) func(*models.AndroidDevice) {
	return func(d *models.AndroidDevice) { d.OpenGLESVersions = versions }
}

// NewStore opens a SQLite store in a temp directory that is closed on cleanup.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("store.Open(%q): %v", path, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
