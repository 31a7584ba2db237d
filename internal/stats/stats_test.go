package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/droidspec/internal/testutil"
	"github.com/HerbHall/droidspec/pkg/models"
)

func TestCalculate_Empty(t *testing.T) {
	s := Calculate(nil)
	assert.Equal(t, 0, s.TotalDevices)
	assert.Equal(t, 0, s.AverageRAMMB)
	for _, b := range RAMBuckets() {
		v, ok := s.ByRAMBucket[b]
		assert.True(t, ok, "bucket %s missing", b)
		assert.Zero(t, v)
	}
	assert.Len(t, s.ByPlatformEra, 4)
}

func TestCalculate_RAMBucketsPartition(t *testing.T) {
	rams := []string{"512MB", "1023MB", "1024MB", "2047MB", "2048MB", "4096MB", "8191MB", "8192MB", "n/a", "1992-4116MB"}
	devices := make([]models.AndroidDevice, 0, len(rams))
	for _, r := range rams {
		devices = append(devices, testutil.NewDevice(testutil.WithRAM(r)))
	}

	s := Calculate(devices)
	sum := 0
	for _, v := range s.ByRAMBucket {
		sum += v
	}
	assert.Equal(t, s.TotalDevices, sum)
	assert.Equal(t, 3, s.ByRAMBucket[RAMUnder1GB]) // 512, 1023, n/a
	assert.Equal(t, 3, s.ByRAMBucket[RAM1To2GB])   // 1024, 2047, 1992
	assert.Equal(t, 1, s.ByRAMBucket[RAM2To4GB])
	assert.Equal(t, 2, s.ByRAMBucket[RAM4To8GB])
	assert.Equal(t, 1, s.ByRAMBucket[RAM8GBPlus])
}

func TestCalculate_SDKMultiMembershipAndEras(t *testing.T) {
	devices := []models.AndroidDevice{
		testutil.NewDevice(testutil.WithSDK(30, 31)),
		testutil.NewDevice(testutil.WithSDK(31)),
		testutil.NewDevice(testutil.WithSDK(25)),
		testutil.NewDevice(testutil.WithSDK(34, 33)),
	}
	s := Calculate(devices)

	assert.Equal(t, 1, s.BySDKVersion[30])
	assert.Equal(t, 2, s.BySDKVersion[31])
	assert.Equal(t, map[string]int{EraLegacy: 1, EraModern: 0, EraRecent: 2, EraLatest: 1}, s.ByPlatformEra)

	eraSum := 0
	for _, v := range s.ByPlatformEra {
		eraSum += v
	}
	assert.Equal(t, len(devices), eraSum)
}

func TestCalculate_Scalars(t *testing.T) {
	devices := []models.AndroidDevice{
		testutil.NewDevice(
			testutil.WithABIs("arm64-v8a", "armeabi-v7a"),
			testutil.WithScreens("1080x2400"),
			testutil.WithGLES("3.2"),
			testutil.WithRAM("4096MB"),
		),
		testutil.NewDevice(
			testutil.WithABIs("armeabi-v7a"),
			testutil.WithScreens("720x1280", "720x1280"),
			testutil.WithGLES("2.0", "3.1"),
			testutil.WithRAM("2048MB"),
		),
	}
	s := Calculate(devices)

	assert.Equal(t, 1, s.ARM64Support)
	assert.Equal(t, 1, s.MultiABI)
	assert.Equal(t, 1, s.HighResolution)
	assert.Equal(t, 1, s.OpenGLES32Support)
	assert.Equal(t, 3072, s.AverageRAMMB)
	assert.Equal(t, 1, s.ByScreenResolution["720x1280"], "duplicate sizes count once per device")
	assert.Equal(t, map[string]int{"arm64": 1, "arm": 1}, s.ByArchitecture)
}

func TestVendorMatching(t *testing.T) {
	tests := []struct {
		processor, gpu       string
		wantProc, wantGPUVen string
	}{
		{"Qualcomm SM8550", "Adreno (TM) 740", "Qualcomm", "Qualcomm Adreno"},
		{"Mediatek MT6765", "PowerVR Rogue GE8320", "MediaTek", "Imagination PowerVR"},
		{"Google Tensor G3", "ARM Mali-G715", "Google", "ARM Mali"},
		{"Samsung Exynos 2100", "Mali-G78", "Samsung", "ARM Mali"},
		{"NVIDIA Tegra X1", "NVIDIA Tegra", "NVIDIA", "NVIDIA"},
		{"Mystery SoC", "Unknown GPU", Other, Other},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wantProc, ProcessorVendor(tt.processor), tt.processor)
		assert.Equal(t, tt.wantGPUVen, GPUVendor(tt.gpu), tt.gpu)
	}
}

func TestArchitecture(t *testing.T) {
	assert.Equal(t, "arm64", Architecture([]string{"armeabi-v7a", "arm64-v8a"}))
	assert.Equal(t, "x86_64", Architecture([]string{"x86", "x86_64"}))
	assert.Equal(t, "x86", Architecture([]string{"x86"}))
	assert.Equal(t, Other, Architecture([]string{"mips"}))
	assert.Equal(t, Other, Architecture(nil))
}

func TestTopN(t *testing.T) {
	got := TopN(map[string]int{"Samsung": 5, "Google": 5, "Xiaomi": 9, "Nokia": 1}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []Count{{"Xiaomi", 9}, {"Google", 5}, {"Samsung", 5}}, got)
	assert.Len(t, TopN(map[string]int{"a": 1}, 0), 1)
}

func TestSDKDistribution(t *testing.T) {
	got := SDKDistribution(map[int]int{34: 2, 28: 1, 31: 4})
	assert.Equal(t, []Count{{"28", 1}, {"31", 4}, {"34", 2}}, got)
}
