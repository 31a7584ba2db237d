package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/droidspec/internal/schema"
)

func TestSample_PassesValidation(t *testing.T) {
	res := schema.Validate(sampleJSON)
	require.True(t, res.Valid(), "bundled sample invalid: %v", res.Errors)
	assert.Equal(t, res.Devices, Sample())
}

func TestSample_ReturnsCopy(t *testing.T) {
	a := Sample()
	a[0].ModelName = "changed"
	assert.NotEqual(t, "changed", Sample()[0].ModelName)
}

func TestParse_RejectsWholeDocument(t *testing.T) {
	_, err := Parse([]byte(`[{"brand":"google"}]`), EncodingJSON)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors, "[0].device: is required")
	assert.Contains(t, err.Error(), "validation failed with")
}

func TestEncodingFor(t *testing.T) {
	assert.Equal(t, EncodingYAML, EncodingForPath("devices.YML"))
	assert.Equal(t, EncodingJSON, EncodingForPath("devices.json"))
	assert.Equal(t, EncodingYAML, EncodingForContentType("application/yaml; charset=utf-8"))
	assert.Equal(t, EncodingJSON, EncodingForContentType("application/json"))
	assert.Equal(t, EncodingJSON, EncodingForContentType(""))
}

func TestLoader(t *testing.T) {
	l, err := Loader{}.Load()
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, l.Source)
	assert.NotEmpty(t, l.Devices)

	path := filepath.Join(t.TempDir(), "devices.json")
	require.NoError(t, os.WriteFile(path, sampleJSON, 0o600))
	l, err = Loader{Path: path}.Load()
	require.NoError(t, err)
	assert.Equal(t, SourceFile, l.Source)
	assert.Equal(t, path, l.Origin)

	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	_, err = Loader{Path: path}.Load()
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = Loader{Path: filepath.Join(t.TempDir(), "missing.json")}.Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
