package css

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIsDeterministic(t *testing.T) {
	assert.Equal(t, Hash("color:red"), Hash("color:red"))
	assert.NotEqual(t, Hash("color:red"), Hash("color:blue"))
	assert.NotEmpty(t, Hash(""))
}

func TestRuleIDCarriesTierPrefix(t *testing.T) {
	id := RuleID(TierLow, "margin", "0", "", nil)
	assert.True(t, strings.HasPrefix(id, "l"))

	same := RuleID(TierLow, "margin", "0", "", []string{})
	assert.Equal(t, id, same)

	nested := RuleID(TierLow, "margin", "0", "", []string{"@media print"})
	assert.NotEqual(t, id, nested)

	// the id is the hash of the concatenated inputs
	assert.Equal(t, "h"+Hash("colorred.x@media a@media b"),
		RuleID(TierHigh, "color", "red", ".x", []string{"@media a", "@media b"}))
}

func TestTierString(t *testing.T) {
	testCases := []struct {
		tier   Tier
		name   string
		prefix string
	}{
		{TierLow, "low", "l"},
		{TierMedium, "medium", "m"},
		{TierHigh, "high", "h"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.name, tc.tier.String())
			assert.Equal(t, tc.prefix, tc.tier.Prefix())

			parsed, err := ParseTier(tc.prefix)
			require.NoError(t, err)
			assert.Equal(t, tc.tier, parsed)

			parsed, err = ParseTier(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.tier, parsed)
		})
	}

	_, err := ParseTier("x")
	assert.Error(t, err)
	assert.Equal(t, "unknown", Tier(9).String())
}

func TestTierOf(t *testing.T) {
	assert.Equal(t, TierLow, TierOf("margin"))
	assert.Equal(t, TierLow, TierOf("background"))
	assert.Equal(t, TierMedium, TierOf("borderTop"))
	assert.Equal(t, TierMedium, TierOf("gridColumn"))
	assert.Equal(t, TierHigh, TierOf("color"))
	assert.Equal(t, TierHigh, TierOf("marginTop"))
	assert.Equal(t, TierHigh, TierOf("--brand"))
}

func TestClassifyFragment(t *testing.T) {
	testCases := []struct {
		fragment string
		expected FragmentKind
	}{
		{"", RootRelative},
		{"[data-theme]& span", ParentCombining},
		{"&:hover", ParentCombining},
		{":hover", PseudoAttached},
		{"::before", PseudoAttached},
		{"h1", DescendantCombined},
		{"> li", DescendantCombined},
	}

	for _, tc := range testCases {
		t.Run(tc.fragment, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClassifyFragment(tc.fragment))
		})
	}
}

func TestContextNest(t *testing.T) {
	testCases := []struct {
		name     string
		parent   Context
		fragment string
		expected string
	}{
		{"root keeps fragment", Root(), "h1", "h1"},
		{"root keeps marker", Root(), "[data-theme]& span", "[data-theme]& span"},
		{"root pseudo", Root(), ":hover", ":hover"},
		{"descendant", NewContext("h1"), "span", "h1 span"},
		{"pseudo attaches", NewContext("h1"), "::before", "h1::before"},
		{"marker substitutes parent", NewContext("h1"), "&::before", "h1::before"},
		{"marker carries through", NewContext("[data-theme]& span"), "&:hover", "[data-theme]& span:hover"},
		{"descendant of marker", NewContext("[data-theme]& span"), "b", "[data-theme]& span b"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			nested := tc.parent.Nest(tc.fragment)
			assert.Equal(t, tc.expected, nested.Text)
			assert.Equal(t, ClassifyFragment(tc.expected), nested.Kind)
		})
	}
}

func TestClassSelector(t *testing.T) {
	assert.Equal(t, ".x", Root().ClassSelector("x"))
	assert.Equal(t, "[data-theme].x span", NewContext("[data-theme]& span").ClassSelector("x"))
	assert.Equal(t, ".x+.x", NewContext("&+&").ClassSelector("x"))
	assert.Equal(t, ".x:hover", NewContext(":hover").ClassSelector("x"))
	assert.Equal(t, ".x h1::before", NewContext("h1::before").ClassSelector("x"))
}

func TestIsAtRule(t *testing.T) {
	assert.True(t, IsAtRule("@media (width >= 768px)"))
	assert.True(t, IsAtRule("@supports (display: grid)"))
	assert.False(t, IsAtRule("h1"))
}

func TestKebab(t *testing.T) {
	testCases := map[string]string{
		"color":            "color",
		"backgroundColor":  "background-color",
		"msTransition":     "-ms-transition",
		"WebkitAppearance": "-webkit-appearance",
		"--brandColor":     "--brandColor",
		"line-height":      "line-height",
	}

	for input, expected := range testCases {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, expected, Kebab(input))
		})
	}
}

func TestUnitless(t *testing.T) {
	for _, prop := range []string{"opacity", "zIndex", "flexGrow", "lineHeight", "order", "zoom", "fontWeight", "orphans", "widows", "columnCount", "animationIterationCount", "gridRow"} {
		assert.True(t, IsUnitless(prop), prop)
	}
	for _, prop := range []string{"width", "margin", "top", "fontSize", "borderRadius"} {
		assert.False(t, IsUnitless(prop), prop)
	}
}

func TestDeclaration(t *testing.T) {
	assert.Equal(t, "width:10px", Declaration("width", "10", true))
	assert.Equal(t, "margin:0px", Declaration("margin", "0", true))
	assert.Equal(t, "opacity:0.5", Declaration("opacity", "0.5", true))
	assert.Equal(t, "z-index:2", Declaration("zIndex", "2", true))
	assert.Equal(t, "--gap:4", Declaration("--gap", "4", true))
	assert.Equal(t, "width:10em", Declaration("width", "10em", false))
	assert.Equal(t, "font-size:12", Declaration("fontSize", "12", false))
}
