package compiler

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/stylesync/internal/css"
	"github.com/conneroisu/stylesync/internal/stylecache"
	"github.com/conneroisu/stylesync/internal/styletree"
)

func newCompiler() *Compiler {
	return New(stylecache.New())
}

func ruleTexts(rules []Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Text)
	}
	return out
}

func TestCompileSimpleRule(t *testing.T) {
	c := newCompiler()
	result := c.Compile(styletree.Of("color", "red"))

	id := css.RuleID(css.TierHigh, "color", "red", "", nil)
	assert.Equal(t, id, result.ClassNames)
	require.Len(t, result.Buckets.High, 1)
	assert.Empty(t, result.Buckets.Low)
	assert.Empty(t, result.Buckets.Medium)
	assert.Empty(t, result.Buckets.Nested)

	rule := result.Buckets.High[0]
	assert.Equal(t, "."+id+"{color:red}", rule.Text)
	assert.Equal(t, "."+id, rule.Selector)
	assert.Equal(t, "color:red", rule.Declaration)
	assert.Equal(t, css.TierHigh, rule.Tier)
}

func TestCompileAtRule(t *testing.T) {
	c := newCompiler()
	result := c.Compile(styletree.Of(
		"@media (width >= 768px)", styletree.Of("color", "green"),
	))

	id := css.RuleID(css.TierHigh, "color", "green", "", []string{"@media (width >= 768px)"})
	assert.Equal(t, id, result.ClassNames)
	assert.Equal(t, []string{"@media (width >= 768px){." + id + "{color:green}}"}, ruleTexts(result.Rules()))

	// at-rules contribute to the id
	assert.NotEqual(t, css.RuleID(css.TierHigh, "color", "green", "", nil), id)
}

func TestCompileNestedAtRules(t *testing.T) {
	c := newCompiler()
	result := c.Compile(styletree.Of(
		"@media print", styletree.Of(
			"@supports (display: grid)", styletree.Of("display", "grid"),
		),
	))

	rules := result.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "@media print{@supports (display: grid){."+rules[0].ID+"{display:grid}}}", rules[0].Text)
}

func TestCompileSelectors(t *testing.T) {
	tests := []struct {
		name     string
		tree     *styletree.Tree
		selector string
	}{
		{
			name:     "pseudo class",
			tree:     styletree.Of(":hover", styletree.Of("color", "red")),
			selector: ".ID:hover",
		},
		{
			name:     "parent marker pseudo",
			tree:     styletree.Of("&:hover", styletree.Of("color", "red")),
			selector: ".ID:hover",
		},
		{
			name:     "descendant",
			tree:     styletree.Of("span", styletree.Of("color", "red")),
			selector: ".ID span",
		},
		{
			name:     "descendant pseudo",
			tree:     styletree.Of("h1", styletree.Of(":hover", styletree.Of("color", "red"))),
			selector: ".ID h1:hover",
		},
		{
			name: "parent selector",
			tree: styletree.Of("[data-theme]&", styletree.Of(
				"span", styletree.Of("color", "red"),
			)),
			selector: "[data-theme].ID span",
		},
		{
			name:     "sibling",
			tree:     styletree.Of("&+&", styletree.Of("color", "red")),
			selector: ".ID+.ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := newCompiler().Compile(tt.tree).Rules()
			require.Len(t, rules, 1)
			rule := rules[0]
			assert.Equal(t, strings.ReplaceAll(tt.selector, "ID", rule.ID), rule.Selector)
			assert.Equal(t, rule.Selector+"{color:red}", rule.Text)
		})
	}
}

func TestEquivalentSelectorsShareID(t *testing.T) {
	c := newCompiler()
	result := c.Compile(styletree.Of(
		"h1::before", styletree.Of("content", `""`),
		"h1", styletree.Of("&::before", styletree.Of("content", `""`)),
	))

	classes := result.Classes()
	require.Len(t, classes, 2)
	assert.Equal(t, classes[0], classes[1])
	assert.Equal(t, classes[0]+" "+classes[0], result.ClassNames)

	assert.Len(t, result.Rules(), 2)
	unique := result.UniqueRules()
	require.Len(t, unique, 1)
	assert.Equal(t, "."+classes[0]+` h1::before{content:""}`, unique[0].Text)
	assert.Equal(t, int64(0), c.Cache().Collisions())
}

func TestCompileNumericValues(t *testing.T) {
	c := newCompiler()
	result := c.Compile(styletree.Of(
		"width", 10,
		"opacity", 0.5,
		"zIndex", 2,
		"--gap", 4,
		"lineHeight", 1.5,
		"height", "10em",
		"msTransition", "none",
	))

	var declarations []string
	for _, rule := range result.Rules() {
		declarations = append(declarations, rule.Declaration)
	}
	assert.ElementsMatch(t, []string{
		"width:10px",
		"opacity:0.5",
		"z-index:2",
		"--gap:4",
		"line-height:1.5",
		"height:10em",
		"-ms-transition:none",
	}, declarations)
}

func TestAbsentValuesAreSkipped(t *testing.T) {
	c := newCompiler()
	result := c.Compile(styletree.Of(
		"color", nil,
		"h1", styletree.Of("color", nil),
		"margin", 0,
		"span", styletree.New(),
	))

	require.Len(t, result.Classes(), 1)
	assert.Equal(t, result.Classes()[0], result.ClassNames)
	assert.Equal(t, []string{"." + result.ClassNames + "{margin:0px}"}, ruleTexts(result.Rules()))
}

func TestTierOrdering(t *testing.T) {
	c := newCompiler()
	result := c.Compile(styletree.Of(
		"color", "red",
		"borderTop", "1px solid",
		"padding", 4,
		":hover", styletree.Of("margin", 0, "color", "blue"),
	))

	rules := result.Rules()
	require.Len(t, rules, 5)

	var tiers []css.Tier
	for _, rule := range rules {
		tiers = append(tiers, rule.Tier)
	}
	assert.Equal(t, []css.Tier{css.TierLow, css.TierMedium, css.TierHigh, css.TierLow, css.TierHigh}, tiers)

	assert.Len(t, result.Buckets.Tier(css.TierLow), 1)
	assert.Len(t, result.Buckets.Tier(css.TierMedium), 1)
	assert.Len(t, result.Buckets.Tier(css.TierHigh), 1)
	require.Len(t, result.Buckets.Nested, 1)
	assert.Equal(t, 5, result.Buckets.Len())

	// class names follow traversal order, not tier order
	assert.Equal(t, "h", result.Classes()[0][:1])
	assert.Equal(t, "m", result.Classes()[1][:1])
	assert.Equal(t, "l", result.Classes()[2][:1])
}

func TestCompileIsDeterministic(t *testing.T) {
	tree := styletree.Of(
		"color", "red",
		"@media print", styletree.Of("color", "black"),
		"h1", styletree.Of(":hover", styletree.Of("margin", 0)),
	)

	first := newCompiler().Compile(tree)
	second := newCompiler().Compile(tree)
	assert.Equal(t, first.ClassNames, second.ClassNames)
	assert.Equal(t, ruleTexts(first.Rules()), ruleTexts(second.Rules()))
}

func TestClassSetIsOrderIndependent(t *testing.T) {
	c := newCompiler()
	a := c.Compile(styletree.Of("color", "red", "margin", 0, "h1", styletree.Of("color", "blue")))
	b := c.Compile(styletree.Of("h1", styletree.Of("color", "blue"), "margin", 0, "color", "red"))

	ac, bc := a.Classes(), b.Classes()
	sort.Strings(ac)
	sort.Strings(bc)
	assert.Equal(t, ac, bc)
}

func TestOriginReproducesRule(t *testing.T) {
	c := newCompiler()
	result := c.Compile(styletree.Of(
		"color", "red",
		"@media (width >= 768px)", styletree.Of(
			"h1", styletree.Of("&:hover", styletree.Of("opacity", 0.5)),
		),
		"[data-theme]&", styletree.Of("span", styletree.Of("margin", 4)),
	))

	for _, rule := range result.Rules() {
		recompiled := c.Compile(rule.Origin)
		assert.Equal(t, rule.ID, recompiled.ClassNames, rule.Text)

		cached, ok := c.Cache().Lookup(rule.ID)
		require.True(t, ok)
		assert.True(t, cached.Equal(rule.Origin))
	}
	assert.Equal(t, int64(0), c.Cache().Collisions())
}

func TestOverridesLaterWins(t *testing.T) {
	c := newCompiler()
	base := c.Compile(styletree.Of("color", "red", "margin", 0))

	result := c.Compile(styletree.Of("color", "blue"), base.Classes()...)

	expected := c.Compile(styletree.Of("color", "blue", "margin", 0))
	assert.Equal(t, expected.ClassNames, result.ClassNames)
	assert.NotContains(t, result.Classes(), base.Classes()[0])
}

func TestOverridesMergeNestedOrigins(t *testing.T) {
	c := newCompiler()
	base := c.Compile(styletree.Of(
		"&:hover", styletree.Of("color", "red", "background", "white"),
	))

	result := c.Compile(styletree.Of("&:hover", styletree.Of("color", "blue")), base.Classes()...)

	expected := c.Compile(styletree.Of(
		"&:hover", styletree.Of("color", "blue", "background", "white"),
	))
	assert.Equal(t, expected.ClassNames, result.ClassNames)
}

func TestUnknownOverrideIDsAreIgnored(t *testing.T) {
	c := newCompiler()
	plain := c.Compile(styletree.Of("color", "red"))
	result := c.Compile(styletree.Of("color", "red"), "hmissing", "lnothing")
	assert.Equal(t, plain.ClassNames, result.ClassNames)
}

func TestCompose(t *testing.T) {
	c := newCompiler()
	button := c.Compile(styletree.Of("color", "black", "padding", 4))
	primary := c.Compile(styletree.Of("color", "white", "background", "blue"))

	result := c.Compose(styletree.Of("padding", 8), button, primary)

	expected := c.Compile(styletree.Of("color", "white", "padding", 8, "background", "blue"))
	assert.Equal(t, expected.ClassNames, result.ClassNames)
}

func TestStyledExtendChain(t *testing.T) {
	c := newCompiler()
	base := c.Style(styletree.Of("color", "red", "margin", 0))
	extended := base.Extend(styletree.Of("color", "blue"))
	final := extended.Extend(styletree.Of("margin", 4))

	assert.Empty(t, base.Overrides())
	assert.Equal(t, base.Result().Classes(), extended.Overrides())
	assert.Equal(t, extended.Result().Classes(), final.Overrides())
	assert.True(t, final.Tree().Equal(styletree.Of("margin", 4)))

	expected := c.Compile(styletree.Of("color", "blue", "margin", 4))
	assert.Equal(t, expected.ClassNames, final.ClassNames())
}

func TestCompileAt(t *testing.T) {
	c := newCompiler()
	ctx := css.NewContext("&:focus")
	classNames, buckets := c.CompileAt(styletree.Of("outline", "none"), ctx, []string{"@media print"}, nil)

	rules := buckets.Flatten()
	require.Len(t, rules, 1)
	assert.Equal(t, rules[0].ID, classNames)
	assert.Equal(t, "@media print{."+classNames+":focus{outline:none}}", rules[0].Text)

	assert.True(t, rules[0].Origin.Equal(styletree.Wrap(
		styletree.Of("outline", "none"), "&:focus", "@media print",
	)))
	assert.Equal(t, classNames, c.Compile(rules[0].Origin).ClassNames)
}

func TestCompileAtAppliesOverridesFromTheSameContext(t *testing.T) {
	c := newCompiler()
	ctx := css.NewContext("&:focus")
	atRules := []string{"@media print"}

	base, _ := c.CompileAt(styletree.Of("outline", "none", "color", "red"), ctx, atRules, nil)
	other := c.Compile(styletree.Of("margin", 0))

	classNames, buckets := c.CompileAt(styletree.Of("color", "blue"), ctx, atRules,
		append(strings.Fields(base), other.Classes()...))
	expected, _ := c.CompileAt(styletree.Of("outline", "none", "color", "blue"), ctx, atRules, nil)
	assert.Equal(t, expected, classNames)

	// nothing is nested under the context twice
	for _, rule := range buckets.Flatten() {
		assert.Equal(t, 1, strings.Count(rule.Text, ":focus"), rule.Text)
		assert.Equal(t, 1, strings.Count(rule.Text, "@media print"), rule.Text)
	}
}

func TestNilCacheUsesDefault(t *testing.T) {
	assert.Same(t, stylecache.Default(), New(nil).Cache())
}
