package compiler

import (
	"github.com/conneroisu/stylesync/internal/css"
	"github.com/conneroisu/stylesync/internal/styletree"
)

// Rule is one atomic, content-addressed CSS rule.
type Rule struct {
	ID          string
	Selector    string
	Declaration string
	// Text is the complete rule, including at-rule wrapping.
	Text   string
	Tier   css.Tier
	Origin *styletree.Tree
}

// Buckets groups the rules of one tree level by tier. Each nested selector
// or at-rule subtree keeps its own Buckets in Nested.
type Buckets struct {
	Low    []Rule
	Medium []Rule
	High   []Rule
	Nested []Buckets
}

func (b *Buckets) add(rule Rule) {
	switch rule.Tier {
	case css.TierLow:
		b.Low = append(b.Low, rule)
	case css.TierMedium:
		b.Medium = append(b.Medium, rule)
	default:
		b.High = append(b.High, rule)
	}
}

// Tier returns the rules of this level for one tier.
func (b Buckets) Tier(t css.Tier) []Rule {
	switch t {
	case css.TierLow:
		return b.Low
	case css.TierMedium:
		return b.Medium
	default:
		return b.High
	}
}

// Flatten returns every rule in emission order: low, medium, high, then each
// nested group depth-first.
func (b Buckets) Flatten() []Rule {
	out := make([]Rule, 0, b.Len())
	return b.appendTo(out)
}

func (b Buckets) appendTo(out []Rule) []Rule {
	out = append(out, b.Low...)
	out = append(out, b.Medium...)
	out = append(out, b.High...)
	for _, nested := range b.Nested {
		out = nested.appendTo(out)
	}
	return out
}

// Len counts rules across this level and every nested group.
func (b Buckets) Len() int {
	n := len(b.Low) + len(b.Medium) + len(b.High)
	for _, nested := range b.Nested {
		n += nested.Len()
	}
	return n
}
