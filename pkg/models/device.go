package models

import (
	"slices"

	"github.com/HerbHall/droidspec/pkg/ramspec"
)

// FormFactor categorizes an Android device.
type FormFactor string

const (
	FormFactorPhone      FormFactor = "Phone"
	FormFactorTV         FormFactor = "TV"
	FormFactorTablet     FormFactor = "Tablet"
	FormFactorAutomotive FormFactor = "Android Automotive"
	FormFactorChromebook FormFactor = "Chromebook"
	FormFactorWearable   FormFactor = "Wearable"
	FormFactorPlayGames  FormFactor = "Google Play Games on PC"
	FormFactorUnknown    FormFactor = "Unknown"
)

// FormFactors returns every known form factor in display order.
func FormFactors() []FormFactor {
	return []FormFactor{
		FormFactorPhone,
		FormFactorTV,
		FormFactorTablet,
		FormFactorAutomotive,
		FormFactorChromebook,
		FormFactorWearable,
		FormFactorPlayGames,
		FormFactorUnknown,
	}
}

// Valid reports whether f is one of the known form factors.
func (f FormFactor) Valid() bool {
	return slices.Contains(FormFactors(), f)
}

// AndroidDevice is a single catalog record.
type AndroidDevice struct {
	Brand            string     `json:"brand" yaml:"brand" example:"google"`
	Device           string     `json:"device" yaml:"device" example:"husky"`
	Manufacturer     string     `json:"manufacturer" yaml:"manufacturer" example:"Google"`
	ModelName        string     `json:"modelName" yaml:"modelName" example:"Pixel 8 Pro"`
	RAM              string     `json:"ram" yaml:"ram" example:"11652MB"`
	FormFactor       FormFactor `json:"formFactor" yaml:"formFactor" example:"Phone"`
	ProcessorName    string     `json:"processorName" yaml:"processorName" example:"Google Tensor G3"`
	GPU              string     `json:"gpu" yaml:"gpu" example:"ARM Mali-G715"`
	ScreenSizes      []string   `json:"screenSizes" yaml:"screenSizes"`
	ScreenDensities  []int      `json:"screenDensities" yaml:"screenDensities"`
	ABIs             []string   `json:"abis" yaml:"abis"`
	SDKVersions      []int      `json:"sdkVersions" yaml:"sdkVersions"`
	OpenGLESVersions []string   `json:"openGlEsVersions" yaml:"openGlEsVersions"`
}

// IdentityKey returns the brand/device pair used for list keys and
// comparison membership. Catalogs may contain duplicates.
func (d *AndroidDevice) IdentityKey() string {
	return IdentityKey(d.Brand, d.Device)
}

// IdentityKey joins a brand and device codename.
func IdentityKey(brand, device string) string {
	return brand + "/" + device
}

// RAMRange returns the parsed RAM bounds in megabytes.
func (d *AndroidDevice) RAMRange() ramspec.Range {
	return ramspec.ParseRange(d.RAM)
}

// RAMMB returns the RAM value used for filtering and sorting.
func (d *AndroidDevice) RAMMB() int {
	return ramspec.ParseValue(d.RAM)
}

// MaxSDK returns the highest supported API level, or 0 when none.
func (d *AndroidDevice) MaxSDK() int {
	if len(d.SDKVersions) == 0 {
		return 0
	}
	return slices.Max(d.SDKVersions)
}

// MinSDK returns the lowest supported API level, or 0 when none.
func (d *AndroidDevice) MinSDK() int {
	if len(d.SDKVersions) == 0 {
		return 0
	}
	return slices.Min(d.SDKVersions)
}

// SupportsSDK reports whether the device lists the given API level.
func (d *AndroidDevice) SupportsSDK(level int) bool {
	return slices.Contains(d.SDKVersions, level)
}
