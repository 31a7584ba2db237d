package export

import (
	"strconv"
	"strings"

	"github.com/HerbHall/droidspec/pkg/models"
)

// csvHeader is the fixed column order.
var csvHeader = []string{
	"brand", "device", "manufacturer", "modelName", "ram", "formFactor",
	"processorName", "gpu", "screenSizes", "screenDensities", "abis",
	"sdkVersions", "openGlEsVersions",
}

// ToCSV renders devices with a header row. Array fields are joined with ";"
// and always quoted; scalars are quoted only when they contain a comma,
// quote, or line break. An empty collection yields "".
func ToCSV(devices []models.AndroidDevice) string {
	if len(devices) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))
	for i := range devices {
		d := &devices[i]
		b.WriteByte('\n')
		fields := []string{
			csvScalar(d.Brand),
			csvScalar(d.Device),
			csvScalar(d.Manufacturer),
			csvScalar(d.ModelName),
			csvScalar(d.RAM),
			csvScalar(string(d.FormFactor)),
			csvScalar(d.ProcessorName),
			csvScalar(d.GPU),
			csvArray(d.ScreenSizes),
			csvArray(intsToStrings(d.ScreenDensities)),
			csvArray(d.ABIs),
			csvArray(intsToStrings(d.SDKVersions)),
			csvArray(d.OpenGLESVersions),
		}
		b.WriteString(strings.Join(fields, ","))
	}
	return b.String()
}

func csvScalar(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return csvQuote(s)
	}
	return s
}

func csvArray(values []string) string {
	return csvQuote(strings.Join(values, ";"))
}

func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func intsToStrings(values []int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Itoa(v)
	}
	return out
}
