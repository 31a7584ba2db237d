// Package filter applies compound device predicates and sorting over an
// in-memory catalog. Every function is pure: inputs are never mutated.
package filter

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/HerbHall/droidspec/pkg/models"
)

// All is the sentinel selector value that disables a categorical predicate.
const All = "all"

// Sort keys.
const (
	SortByName         = "name"
	SortByManufacturer = "manufacturer"
	SortByRAM          = "ram"
	SortBySDK          = "sdk"
)

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// State is the user's current filter selection.
type State struct {
	Search          string   `json:"search"`
	FormFactor      string   `json:"formFactor"`
	Manufacturer    string   `json:"manufacturer"`
	Manufacturers   []string `json:"manufacturers"`
	MinRAM          string   `json:"minRam"`
	SDKVersion      string   `json:"sdkVersion"`
	RAMRange        *[2]int  `json:"ramRange,omitempty"`
	SDKVersionRange *[2]int  `json:"sdkVersionRange,omitempty"`
	SortBy          string   `json:"sortBy,omitempty"`
	SortOrder       string   `json:"sortOrder,omitempty"`
}

// DefaultState returns the neutral selection for a collection. Ranges span
// the collection so that no device is excluded; they are nil when empty.
func DefaultState(devices []models.AndroidDevice) State {
	s := State{
		FormFactor:    All,
		Manufacturer:  All,
		Manufacturers: []string{},
		MinRAM:        All,
		SDKVersion:    All,
		SortBy:        SortByName,
		SortOrder:     OrderAsc,
	}
	if len(devices) == 0 {
		return s
	}

	ramLo, ramHi := devices[0].RAMMB(), devices[0].RAMMB()
	sdkLo, sdkHi := 0, 0
	for i := range devices {
		ram := devices[i].RAMMB()
		ramLo = min(ramLo, ram)
		ramHi = max(ramHi, ram)
		for _, v := range devices[i].SDKVersions {
			if sdkLo == 0 || v < sdkLo {
				sdkLo = v
			}
			sdkHi = max(sdkHi, v)
		}
	}
	s.RAMRange = &[2]int{ramLo, ramHi}
	if sdkHi > 0 {
		s.SDKVersionRange = &[2]int{sdkLo, sdkHi}
	}
	return s
}

// Apply returns the devices that satisfy every active predicate in s,
// preserving input order.
func Apply(devices []models.AndroidDevice, s State) []models.AndroidDevice {
	p := compile(s)
	out := make([]models.AndroidDevice, 0, len(devices))
	for i := range devices {
		if p.match(&devices[i]) {
			out = append(out, devices[i])
		}
	}
	return out
}

// predicate is State with selectors parsed once per Apply call.
type predicate struct {
	search        string
	formFactor    string
	manufacturers map[string]struct{}
	minRAM        int
	hasMinRAM     bool
	sdk           int
	hasSDK        bool
	ramRange      *[2]int
	sdkRange      *[2]int
}

func compile(s State) predicate {
	p := predicate{
		search:   strings.ToLower(strings.TrimSpace(s.Search)),
		ramRange: s.RAMRange,
		sdkRange: s.SDKVersionRange,
	}
	if active(s.FormFactor) {
		p.formFactor = s.FormFactor
	}

	// Multi-select and legacy single-select are unioned.
	for _, m := range s.Manufacturers {
		if active(m) {
			if p.manufacturers == nil {
				p.manufacturers = make(map[string]struct{})
			}
			p.manufacturers[m] = struct{}{}
		}
	}
	if active(s.Manufacturer) {
		if p.manufacturers == nil {
			p.manufacturers = make(map[string]struct{})
		}
		p.manufacturers[s.Manufacturer] = struct{}{}
	}

	if active(s.MinRAM) {
		if v, err := strconv.Atoi(strings.TrimSpace(s.MinRAM)); err == nil {
			p.minRAM, p.hasMinRAM = v, true
		}
	}
	if active(s.SDKVersion) {
		if v, err := strconv.Atoi(strings.TrimSpace(s.SDKVersion)); err == nil {
			p.sdk, p.hasSDK = v, true
		}
	}
	return p
}

func (p *predicate) match(d *models.AndroidDevice) bool {
	if p.search != "" && !strings.Contains(searchText(d), p.search) {
		return false
	}
	if p.formFactor != "" && string(d.FormFactor) != p.formFactor {
		return false
	}
	if p.manufacturers != nil {
		if _, ok := p.manufacturers[d.Manufacturer]; !ok {
			return false
		}
	}
	if p.hasMinRAM && d.RAMMB() < p.minRAM {
		return false
	}
	if p.hasSDK && !d.SupportsSDK(p.sdk) {
		return false
	}
	if p.ramRange != nil {
		ram := d.RAMMB()
		if ram < p.ramRange[0] || ram > p.ramRange[1] {
			return false
		}
	}
	if p.sdkRange != nil {
		lo, hi := p.sdkRange[0], p.sdkRange[1]
		if !slices.ContainsFunc(d.SDKVersions, func(v int) bool { return v >= lo && v <= hi }) {
			return false
		}
	}
	return true
}

func searchText(d *models.AndroidDevice) string {
	return strings.ToLower(strings.Join([]string{
		d.ModelName, d.Manufacturer, d.Brand, d.Device, d.ProcessorName,
	}, " "))
}

func active(selector string) bool {
	return selector != "" && selector != All
}

// Sort returns a copy of devices ordered by the given key. Unknown keys
// sort by name; ties fall back to the identity key so ordering is stable.
func Sort(devices []models.AndroidDevice, by, order string) []models.AndroidDevice {
	out := slices.Clone(devices)
	less := func(a, b *models.AndroidDevice) int {
		switch by {
		case SortByManufacturer:
			return cmp.Compare(strings.ToLower(a.Manufacturer), strings.ToLower(b.Manufacturer))
		case SortByRAM:
			return cmp.Compare(a.RAMMB(), b.RAMMB())
		case SortBySDK:
			return cmp.Compare(a.MaxSDK(), b.MaxSDK())
		default:
			return cmp.Compare(strings.ToLower(a.ModelName), strings.ToLower(b.ModelName))
		}
	}
	slices.SortStableFunc(out, func(a, b models.AndroidDevice) int {
		c := less(&a, &b)
		if c == 0 {
			c = cmp.Compare(a.IdentityKey(), b.IdentityKey())
		}
		if order == OrderDesc {
			return -c
		}
		return c
	})
	return out
}
