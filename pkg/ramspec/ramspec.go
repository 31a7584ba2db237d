// Package ramspec parses the free-form RAM strings found in device catalogs
// ("4096MB", "1992-4116MB") into megabyte values.
package ramspec

import (
	"fmt"
	"regexp"
	"strconv"
)

var digitsRe = regexp.MustCompile(`\d+`)

// Range is the normalized two-field form of a RAM specification.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ParseValue returns the first integer embedded in s, or 0 when s has none.
// Only the lower bound of a range is used for comparisons.
func ParseValue(s string) int {
	m := digitsRe.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// ParseRange returns the bounds encoded in s. A single value yields
// Min == Max; malformed input yields the zero Range.
func ParseRange(s string) Range {
	nums := digitsRe.FindAllString(s, 2)
	if len(nums) == 0 {
		return Range{}
	}
	lo, err := strconv.Atoi(nums[0])
	if err != nil {
		return Range{}
	}
	hi := lo
	if len(nums) > 1 {
		if v, err := strconv.Atoi(nums[1]); err == nil {
			hi = v
		}
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return Range{Min: lo, Max: hi}
}

// Format renders megabytes as "X.YGB" at or above 1024 MB, otherwise "NMB".
func Format(mb int) string {
	if mb >= 1024 {
		return fmt.Sprintf("%.1fGB", float64(mb)/1024)
	}
	return fmt.Sprintf("%dMB", mb)
}

// FormatString parses s and formats its first value.
func FormatString(s string) string {
	return Format(ParseValue(s))
}
