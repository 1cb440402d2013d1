package compiler

import "github.com/conneroisu/stylesync/internal/styletree"

// Compose compiles tree on top of bases. The class ids of every base, in
// order, become the override list, so later bases win over earlier ones and
// tree wins over all of them.
func (c *Compiler) Compose(tree *styletree.Tree, bases ...Result) Result {
	var overrides []string
	for _, base := range bases {
		overrides = append(overrides, base.Classes()...)
	}
	return c.Compile(tree, overrides...)
}

// Styled is a compiled style that can be extended by further compositions.
// It carries its override ids explicitly instead of discovering them from
// whatever it wraps.
type Styled struct {
	compiler  *Compiler
	tree      *styletree.Tree
	overrides []string
	result    Result
}

// Style compiles tree as a new composition root.
func (c *Compiler) Style(tree *styletree.Tree) *Styled {
	return &Styled{
		compiler: c,
		tree:     tree,
		result:   c.Compile(tree),
	}
}

// Extend compiles tree with this style's classes as overrides.
func (s *Styled) Extend(tree *styletree.Tree) *Styled {
	overrides := s.result.Classes()
	return &Styled{
		compiler:  s.compiler,
		tree:      tree,
		overrides: overrides,
		result:    s.compiler.Compile(tree, overrides...),
	}
}

// Result returns the compiled output.
func (s *Styled) Result() Result { return s.result }

// ClassNames returns the class list to put on an element.
func (s *Styled) ClassNames() string { return s.result.ClassNames }

// Overrides returns the ids this style was composed over, in order.
func (s *Styled) Overrides() []string { return s.overrides }

// Tree returns the tree this style declared itself, before overrides.
func (s *Styled) Tree() *styletree.Tree { return s.tree }
