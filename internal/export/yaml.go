package export

import (
	"strconv"
	"strings"

	"github.com/HerbHall/droidspec/pkg/models"
)

// yamlReserved are plain scalars YAML resolves to non-strings.
var yamlReserved = map[string]struct{}{
	"true": {}, "false": {}, "yes": {}, "no": {}, "on": {}, "off": {},
	"null": {}, "~": {}, "y": {}, "n": {},
}

// ToYAML renders devices as a YAML sequence, one "- # Device N" entry per
// record. An empty collection yields "[]".
func ToYAML(devices []models.AndroidDevice) string {
	if len(devices) == 0 {
		return "[]\n"
	}

	var b strings.Builder
	for i := range devices {
		d := &devices[i]
		b.WriteString("- # Device " + strconv.Itoa(i+1) + "\n")
		yamlScalar(&b, "brand", d.Brand)
		yamlScalar(&b, "device", d.Device)
		yamlScalar(&b, "manufacturer", d.Manufacturer)
		yamlScalar(&b, "modelName", d.ModelName)
		yamlScalar(&b, "ram", d.RAM)
		yamlScalar(&b, "formFactor", string(d.FormFactor))
		yamlScalar(&b, "processorName", d.ProcessorName)
		yamlScalar(&b, "gpu", d.GPU)
		yamlList(&b, "screenSizes", quoteAll(d.ScreenSizes))
		yamlList(&b, "screenDensities", intsToStrings(d.ScreenDensities))
		yamlList(&b, "abis", quoteAll(d.ABIs))
		yamlList(&b, "sdkVersions", intsToStrings(d.SDKVersions))
		yamlList(&b, "openGlEsVersions", quoteAll(d.OpenGLESVersions))
	}
	return b.String()
}

func yamlScalar(b *strings.Builder, key, value string) {
	b.WriteString("  " + key + ": " + QuoteYAML(value) + "\n")
}

func yamlList(b *strings.Builder, key string, rendered []string) {
	if len(rendered) == 0 {
		b.WriteString("  " + key + ": []\n")
		return
	}
	b.WriteString("  " + key + ":\n")
	for _, v := range rendered {
		b.WriteString("    - " + v + "\n")
	}
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = QuoteYAML(v)
	}
	return out
}

// QuoteYAML returns s as a plain scalar when that round-trips as the same
// string, otherwise as a double-quoted scalar.
func QuoteYAML(s string) string {
	if !needsYAMLQuotes(s) {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func needsYAMLQuotes(s string) bool {
	if s == "" {
		return true
	}
	if strings.TrimSpace(s) != s {
		return true
	}
	if strings.ContainsAny(s, ":#[]{},|\"\\\n\r\t") {
		return true
	}
	if strings.ContainsRune("-?:&*!%@`'\">|", rune(s[0])) {
		return true
	}
	if _, ok := yamlReserved[strings.ToLower(s)]; ok {
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	if _, err := strconv.ParseInt(s, 0, 64); err == nil {
		return true
	}
	return false
}
