package export

import (
	"strings"

	"github.com/HerbHall/droidspec/pkg/models"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// ToXML renders devices under an <androidDevices> root with one <device>
// element per record. Array fields become a wrapper element holding one
// <item> per value.
func ToXML(devices []models.AndroidDevice) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString("<androidDevices>\n")
	for i := range devices {
		d := &devices[i]
		b.WriteString("  <device>\n")
		xmlScalar(&b, "brand", d.Brand)
		xmlScalar(&b, "device", d.Device)
		xmlScalar(&b, "manufacturer", d.Manufacturer)
		xmlScalar(&b, "modelName", d.ModelName)
		xmlScalar(&b, "ram", d.RAM)
		xmlScalar(&b, "formFactor", string(d.FormFactor))
		xmlScalar(&b, "processorName", d.ProcessorName)
		xmlScalar(&b, "gpu", d.GPU)
		xmlArray(&b, "screenSizes", d.ScreenSizes)
		xmlArray(&b, "screenDensities", intsToStrings(d.ScreenDensities))
		xmlArray(&b, "abis", d.ABIs)
		xmlArray(&b, "sdkVersions", intsToStrings(d.SDKVersions))
		xmlArray(&b, "openGlEsVersions", d.OpenGLESVersions)
		b.WriteString("  </device>\n")
	}
	b.WriteString("</androidDevices>\n")
	return b.String()
}

// EscapeXML replaces the five predefined XML entities.
func EscapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

func xmlScalar(b *strings.Builder, name, value string) {
	b.WriteString("    <" + name + ">" + EscapeXML(value) + "</" + name + ">\n")
}

func xmlArray(b *strings.Builder, name string, values []string) {
	if len(values) == 0 {
		b.WriteString("    <" + name + "/>\n")
		return
	}
	b.WriteString("    <" + name + ">\n")
	for _, v := range values {
		b.WriteString("      <item>" + EscapeXML(v) + "</item>\n")
	}
	b.WriteString("    </" + name + ">\n")
}
