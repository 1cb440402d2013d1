package css

import "strings"

// ParentMarker stands for the enclosing selector inside a nested fragment.
const ParentMarker = "&"

// FragmentKind is the closed classification of a selector fragment or context.
type FragmentKind int

const (
	// RootRelative is the empty context: the class itself.
	RootRelative FragmentKind = iota
	// ParentCombining fragments contain ParentMarker.
	ParentCombining
	// PseudoAttached fragments start with a colon and attach with no separator.
	PseudoAttached
	// DescendantCombined fragments are joined to their parent with a space.
	DescendantCombined
)

// String returns the string representation of the fragment kind
func (k FragmentKind) String() string {
	switch k {
	case RootRelative:
		return "root"
	case ParentCombining:
		return "parent"
	case PseudoAttached:
		return "pseudo"
	case DescendantCombined:
		return "descendant"
	default:
		return "unknown"
	}
}

// ClassifyFragment decides once how a fragment combines with its parent.
func ClassifyFragment(fragment string) FragmentKind {
	switch {
	case fragment == "":
		return RootRelative
	case strings.Contains(fragment, ParentMarker):
		return ParentCombining
	case strings.HasPrefix(fragment, ":"):
		return PseudoAttached
	default:
		return DescendantCombined
	}
}

// Context is the selector a declaration is nested under, relative to the
// class that will eventually carry it.
type Context struct {
	Text string
	Kind FragmentKind
}

// Root returns the empty selector context.
func Root() Context {
	return Context{}
}

// NewContext classifies text as a complete context.
func NewContext(text string) Context {
	return Context{Text: text, Kind: ClassifyFragment(text)}
}

// IsRoot reports whether the context is empty.
func (c Context) IsRoot() bool {
	return c.Kind == RootRelative
}

// Nest derives the context of a nested fragment.
//
// At the root the fragment becomes the context as-is; a marker it carries is
// substituted with the class when the rule is built.
func (c Context) Nest(fragment string) Context {
	if c.IsRoot() {
		return NewContext(fragment)
	}
	switch ClassifyFragment(fragment) {
	case ParentCombining:
		return NewContext(strings.ReplaceAll(fragment, ParentMarker, c.Text))
	case PseudoAttached:
		return NewContext(c.Text + fragment)
	case RootRelative:
		return c
	default:
		return NewContext(c.Text + " " + fragment)
	}
}

// ClassSelector builds the full selector text for class under this context.
func (c Context) ClassSelector(class string) string {
	dotted := "." + class
	switch c.Kind {
	case RootRelative:
		return dotted
	case ParentCombining:
		return strings.TrimSpace(strings.ReplaceAll(c.Text, ParentMarker, dotted))
	case PseudoAttached:
		return dotted + c.Text
	default:
		return dotted + " " + c.Text
	}
}

// IsAtRule reports whether key is an at-rule condition such as a media query.
func IsAtRule(key string) bool {
	return strings.HasPrefix(key, "@")
}
