package css

import (
	"regexp"
	"strings"
)

// DefaultUnit is appended to bare numbers of dimensional properties.
const DefaultUnit = "px"

// unitless matches properties whose numeric values carry no unit
// (opacity, z-index, flex-grow, line-height, order, zoom, ...).
var unitless = regexp.MustCompile(`(?i)acit|ex(?:s|g|n|p|$)|rph|grid|ows|mnc|ntw|ine[ch]|zoo|^ord|itera`)

// IsCustomProperty reports whether prop is a custom property (--name).
func IsCustomProperty(prop string) bool {
	return strings.HasPrefix(prop, "--")
}

// IsUnitless reports whether numeric values of prop are passed through.
func IsUnitless(prop string) bool {
	return unitless.MatchString(prop)
}

// Kebab converts a camel-cased property to its hyphenated CSS name.
// A leading "ms" vendor prefix gets its own hyphen (msFlex -> -ms-flex).
// Custom properties are returned unchanged.
func Kebab(prop string) string {
	if IsCustomProperty(prop) {
		return prop
	}
	var b strings.Builder
	b.Grow(len(prop) + 4)
	if strings.HasPrefix(prop, "ms") {
		b.WriteByte('-')
	}
	for i := 0; i < len(prop); i++ {
		c := prop[i]
		if c >= 'A' && c <= 'Z' {
			b.WriteByte('-')
			b.WriteByte(c + ('a' - 'A'))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Declaration renders a single "property:value" pair. numeric tells whether
// value came from a bare number and may need the default unit.
func Declaration(prop, value string, numeric bool) string {
	if numeric && !IsCustomProperty(prop) && !IsUnitless(prop) {
		value += DefaultUnit
	}
	return Kebab(prop) + ":" + value
}
