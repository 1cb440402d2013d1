package css

import "fmt"

// Tier is the precedence tier of a property. Rules are emitted to the
// document in tier order so that shorthands never override longhands
// regardless of declaration order in the source tree.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

// Tiers lists every tier in emission order.
var Tiers = []Tier{TierLow, TierMedium, TierHigh}

// String returns the string representation of the tier
func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Prefix is the one-letter marker used in rule ids and container attributes.
func (t Tier) Prefix() string {
	switch t {
	case TierLow:
		return "l"
	case TierMedium:
		return "m"
	default:
		return "h"
	}
}

// ParseTier accepts either the prefix letter or the full tier name.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "l", "low":
		return TierLow, nil
	case "m", "medium":
		return TierMedium, nil
	case "h", "high":
		return TierHigh, nil
	default:
		return TierHigh, fmt.Errorf("unknown precedence tier %q", s)
	}
}

// lowProperties are the broad shorthands.
var lowProperties = toSet(
	"all", "animation", "background", "border", "borderBlock", "borderInline",
	"borderImage", "borderRadius", "columnRule", "columns", "container",
	"flex", "flexFlow", "font", "gap", "grid", "gridArea", "gridTemplate",
	"inset", "insetBlock", "insetInline", "listStyle", "margin", "marginBlock",
	"marginInline", "mask", "maskBorder", "offset", "outline", "overflow",
	"overscrollBehavior", "padding", "paddingBlock", "paddingInline",
	"placeContent", "placeItems", "placeSelf", "scrollMargin", "scrollPadding",
	"textDecoration", "textEmphasis", "transition",
)

// mediumProperties are shorthands that are themselves covered by a low one.
var mediumProperties = toSet(
	"borderBlockEnd", "borderBlockStart", "borderBottom", "borderColor",
	"borderInlineEnd", "borderInlineStart", "borderLeft", "borderRight",
	"borderStyle", "borderTop", "borderWidth", "gridColumn", "gridRow",
	"gridTemplateAreas", "gridTemplateColumns", "gridTemplateRows",
	"fontVariant", "backgroundPosition", "maskPosition",
)

func toSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// TierOf classifies a property. Anything not known to be a shorthand is high.
func TierOf(property string) Tier {
	if _, ok := lowProperties[property]; ok {
		return TierLow
	}
	if _, ok := mediumProperties[property]; ok {
		return TierMedium
	}
	return TierHigh
}
