// Package stats aggregates dashboard statistics over a device collection.
package stats

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/HerbHall/droidspec/pkg/models"
)

// RAM bucket labels, in ascending order.
const (
	RAMUnder1GB = "<1GB"
	RAM1To2GB   = "1-2GB"
	RAM2To4GB   = "2-4GB"
	RAM4To8GB   = "4-8GB"
	RAM8GBPlus  = "8GB+"
)

// Platform era labels, derived from a device's highest API level.
const (
	EraLegacy = "legacy" // API <= 25
	EraModern = "modern" // API 26-30
	EraRecent = "recent" // API 31-33
	EraLatest = "latest" // API >= 34
)

// Other collects values no vendor or architecture pattern matched.
const Other = "Other"

// RAMBuckets returns the RAM bucket labels in ascending order.
func RAMBuckets() []string {
	return []string{RAMUnder1GB, RAM1To2GB, RAM2To4GB, RAM4To8GB, RAM8GBPlus}
}

// Eras returns the platform era labels in ascending order.
func Eras() []string {
	return []string{EraLegacy, EraModern, EraRecent, EraLatest}
}

// DeviceStats is a read-only aggregate recomputed for every collection.
type DeviceStats struct {
	TotalDevices int `json:"totalDevices"`

	ByManufacturer     map[string]int `json:"byManufacturer"`
	ByFormFactor       map[string]int `json:"byFormFactor"`
	ByArchitecture     map[string]int `json:"byArchitecture"`
	ByProcessorVendor  map[string]int `json:"byProcessorVendor"`
	ByGPUVendor        map[string]int `json:"byGpuVendor"`
	BySDKVersion       map[int]int    `json:"bySdkVersion"`
	ByRAMBucket        map[string]int `json:"byRamBucket"`
	ByScreenResolution map[string]int `json:"byScreenResolution"`
	ByOpenGLES         map[string]int `json:"byOpenGlEs"`
	ByPlatformEra      map[string]int `json:"byPlatformEra"`

	ARM64Support      int `json:"arm64Support"`
	MultiABI          int `json:"multiAbi"`
	HighResolution    int `json:"highResolution"`
	OpenGLES32Support int `json:"openGlEs32Support"`
	AverageRAMMB      int `json:"averageRamMb"`
}

// Calculate aggregates devices in a single pass. An empty collection yields
// zero counts with every RAM bucket and era key present.
func Calculate(devices []models.AndroidDevice) DeviceStats {
	s := DeviceStats{
		TotalDevices:       len(devices),
		ByManufacturer:     make(map[string]int),
		ByFormFactor:       make(map[string]int),
		ByArchitecture:     make(map[string]int),
		ByProcessorVendor:  make(map[string]int),
		ByGPUVendor:        make(map[string]int),
		BySDKVersion:       make(map[int]int),
		ByRAMBucket:        make(map[string]int),
		ByScreenResolution: make(map[string]int),
		ByOpenGLES:         make(map[string]int),
		ByPlatformEra:      make(map[string]int),
	}
	for _, b := range RAMBuckets() {
		s.ByRAMBucket[b] = 0
	}
	for _, e := range Eras() {
		s.ByPlatformEra[e] = 0
	}

	var ramTotal int64
	for i := range devices {
		d := &devices[i]
		ram := d.RAMMB()
		ramTotal += int64(ram)

		s.ByManufacturer[d.Manufacturer]++
		s.ByFormFactor[string(d.FormFactor)]++
		s.ByArchitecture[Architecture(d.ABIs)]++
		s.ByProcessorVendor[ProcessorVendor(d.ProcessorName)]++
		s.ByGPUVendor[GPUVendor(d.GPU)]++
		s.ByRAMBucket[RAMBucket(ram)]++
		s.ByPlatformEra[Era(d.MaxSDK())]++

		for _, v := range distinct(d.SDKVersions) {
			s.BySDKVersion[v]++
		}
		for _, res := range distinct(d.ScreenSizes) {
			s.ByScreenResolution[res]++
		}
		for _, gl := range distinct(d.OpenGLESVersions) {
			s.ByOpenGLES[gl]++
		}

		if slices.Contains(d.ABIs, "arm64-v8a") {
			s.ARM64Support++
		}
		if len(d.ABIs) > 1 {
			s.MultiABI++
		}
		if slices.ContainsFunc(d.ScreenSizes, isHighResolution) {
			s.HighResolution++
		}
		if slices.ContainsFunc(d.OpenGLESVersions, supportsGLES32) {
			s.OpenGLES32Support++
		}
	}
	if len(devices) > 0 {
		s.AverageRAMMB = int(ramTotal / int64(len(devices)))
	}
	return s
}

// RAMBucket classifies a RAM value in MB. Lower bounds are inclusive.
func RAMBucket(mb int) string {
	switch {
	case mb < 1024:
		return RAMUnder1GB
	case mb < 2048:
		return RAM1To2GB
	case mb < 4096:
		return RAM2To4GB
	case mb < 8192:
		return RAM4To8GB
	default:
		return RAM8GBPlus
	}
}

// Era classifies a maximum API level. Zero (no levels) counts as legacy.
func Era(maxSDK int) string {
	switch {
	case maxSDK <= 25:
		return EraLegacy
	case maxSDK <= 30:
		return EraModern
	case maxSDK <= 33:
		return EraRecent
	default:
		return EraLatest
	}
}

// Architecture returns the most capable instruction set a device's ABIs
// cover.
func Architecture(abis []string) string {
	has := func(prefix string) bool {
		return slices.ContainsFunc(abis, func(a string) bool {
			return strings.HasPrefix(strings.ToLower(a), prefix)
		})
	}
	switch {
	case has("arm64"):
		return "arm64"
	case has("armeabi"):
		return "arm"
	case has("x86_64"):
		return "x86_64"
	case has("x86"):
		return "x86"
	default:
		return Other
	}
}

type vendorPattern struct {
	vendor   string
	patterns []string
}

// Order matters: the first vendor with a matching substring wins.
var processorVendors = []vendorPattern{
	{"Qualcomm", []string{"qualcomm", "snapdragon", "qti"}},
	{"MediaTek", []string{"mediatek", "helio", "dimensity", "mt6", "mt8"}},
	{"Samsung", []string{"exynos", "samsung"}},
	{"Google", []string{"tensor", "google"}},
	{"HiSilicon", []string{"kirin", "hisilicon"}},
	{"Unisoc", []string{"unisoc", "spreadtrum", "sc98"}},
	{"Rockchip", []string{"rockchip"}},
	{"Amlogic", []string{"amlogic"}},
	{"Intel", []string{"intel"}},
	{"NVIDIA", []string{"nvidia", "tegra"}},
	{"Broadcom", []string{"broadcom"}},
	{"Realtek", []string{"realtek"}},
}

var gpuVendors = []vendorPattern{
	{"Qualcomm Adreno", []string{"adreno"}},
	{"ARM Mali", []string{"mali"}},
	{"Imagination PowerVR", []string{"powervr"}},
	{"NVIDIA", []string{"nvidia", "geforce", "tegra"}},
	{"Intel", []string{"intel"}},
	{"Broadcom VideoCore", []string{"videocore"}},
}

// ProcessorVendor maps a processor name to its vendor, or Other.
func ProcessorVendor(name string) string {
	return matchVendor(processorVendors, name)
}

// GPUVendor maps a GPU name to its vendor family, or Other.
func GPUVendor(name string) string {
	return matchVendor(gpuVendors, name)
}

func matchVendor(table []vendorPattern, name string) string {
	lower := strings.ToLower(name)
	for _, vp := range table {
		for _, p := range vp.patterns {
			if strings.Contains(lower, p) {
				return vp.vendor
			}
		}
	}
	return Other
}

func isHighResolution(size string) bool {
	w, h, ok := parseResolution(size)
	if !ok {
		return false
	}
	long, short := max(w, h), min(w, h)
	return long >= 1920 && short >= 1080
}

func parseResolution(size string) (w, h int, ok bool) {
	ws, hs, found := strings.Cut(size, "x")
	if !found {
		return 0, 0, false
	}
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}

func supportsGLES32(version string) bool {
	majStr, minStr, _ := strings.Cut(version, ".")
	major, err := strconv.Atoi(majStr)
	if err != nil {
		return false
	}
	minor, _ := strconv.Atoi(minStr)
	return major > 3 || (major == 3 && minor >= 2)
}

func distinct[T comparable](values []T) []T {
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Count is one labelled entry of a ranked breakdown.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// TopN ranks m by descending count, breaking ties by key. n <= 0 returns
// every entry.
func TopN(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SDKDistribution returns SDK counts ordered by ascending API level.
func SDKDistribution(m map[int]int) []Count {
	levels := make([]int, 0, len(m))
	for k := range m {
		levels = append(levels, k)
	}
	slices.Sort(levels)
	out := make([]Count, len(levels))
	for i, l := range levels {
		out[i] = Count{Key: strconv.Itoa(l), Count: m[l]}
	}
	return out
}
