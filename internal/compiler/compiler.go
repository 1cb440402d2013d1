// Package compiler flattens nested style trees into atomic rules.
//
// Every leaf declaration becomes one rule whose class name is a hash of the
// property, value, selector context and at-rule stack. Identical
// declarations therefore share a class across every composition, which is
// what allows the runtime manager to deduplicate them physically.
//
// Compilation is pure apart from recording each rule's origin tree in the
// style cache, which composition later reads to resolve overrides.
package compiler

import (
	"strings"

	"github.com/conneroisu/stylesync/internal/css"
	"github.com/conneroisu/stylesync/internal/stylecache"
	"github.com/conneroisu/stylesync/internal/styletree"
)

// Compiler turns style trees into rules, recording origins in its cache.
type Compiler struct {
	cache *stylecache.Cache
}

// New creates a compiler backed by cache. A nil cache selects the
// process-scoped default.
func New(cache *stylecache.Cache) *Compiler {
	if cache == nil {
		cache = stylecache.Default()
	}
	return &Compiler{cache: cache}
}

// Cache returns the cache origins are recorded in.
func (c *Compiler) Cache() *stylecache.Cache {
	return c.cache
}

// Result is the output of compiling one tree.
type Result struct {
	// ClassNames is the space separated class list, in traversal order.
	ClassNames string
	Buckets    Buckets
}

// Classes splits ClassNames.
func (r Result) Classes() []string {
	return strings.Fields(r.ClassNames)
}

// Rules returns every rule in emission order.
func (r Result) Rules() []Rule {
	return r.Buckets.Flatten()
}

// UniqueRules returns the rules in emission order with repeated ids dropped.
func (r Result) UniqueRules() []Rule {
	rules := r.Rules()
	seen := make(map[string]struct{}, len(rules))
	out := rules[:0]
	for _, rule := range rules {
		if _, ok := seen[rule.ID]; ok {
			continue
		}
		seen[rule.ID] = struct{}{}
		out = append(out, rule)
	}
	return out
}

// Compile compiles tree at the root, overridden by the origins of overrideIDs.
func (c *Compiler) Compile(tree *styletree.Tree, overrideIDs ...string) Result {
	classNames, buckets := c.CompileAt(tree, css.Root(), nil, overrideIDs)
	return Result{ClassNames: classNames, Buckets: buckets}
}

// CompileAt compiles tree under an explicit selector context and at-rule
// stack.
//
// The origins recorded for overrideIDs are deep-merged in order and tree is
// merged on top of them, so tree's own leaves win at identical keys while
// leaves present only in an override still compile. Origins carry their full
// key path, so only the part recorded under ctx and atRules applies here;
// overrides from other contexts contribute nothing.
func (c *Compiler) CompileAt(tree *styletree.Tree, ctx css.Context, atRules []string, overrideIDs []string) (string, Buckets) {
	var path []string
	if !ctx.IsRoot() {
		path = append(path, ctx.Text)
	}
	path = append(path, atRules...)

	if len(overrideIDs) > 0 {
		tree = styletree.Merge(subtree(c.cache.LookupAndMerge(overrideIDs), path), tree)
	}

	return c.compile(tree, ctx, atRules, path)
}

// subtree follows path down from tree, returning an empty tree when a key is
// missing or holds a leaf.
func subtree(tree *styletree.Tree, path []string) *styletree.Tree {
	for _, key := range path {
		value, ok := tree.Get(key)
		if !ok || !value.IsTree() {
			return styletree.New()
		}
		tree = value.Tree()
	}
	return tree
}

// path is the chain of keys leading to tree; it is what origins are wrapped in.
func (c *Compiler) compile(tree *styletree.Tree, ctx css.Context, atRules []string, path []string) (string, Buckets) {
	var (
		buckets Buckets
		classes []string
	)

	for _, entry := range tree.Entries() {
		value := entry.Value

		switch {
		case value.IsAbsent():
			continue

		case value.IsTree():
			childPath := appendKey(path, entry.Key)
			var (
				nestedClasses string
				nested        Buckets
			)
			if css.IsAtRule(entry.Key) {
				nestedClasses, nested = c.compile(value.Tree(), ctx, appendKey(atRules, entry.Key), childPath)
			} else {
				nestedClasses, nested = c.compile(value.Tree(), ctx.Nest(entry.Key), atRules, childPath)
			}
			if nestedClasses != "" {
				classes = append(classes, nestedClasses)
			}
			buckets.Nested = append(buckets.Nested, nested)

		default:
			rule := c.rule(entry.Key, value, ctx, atRules, path)
			classes = append(classes, rule.ID)
			buckets.add(rule)
		}
	}

	return strings.Join(classes, " "), buckets
}

func (c *Compiler) rule(property string, value styletree.Value, ctx css.Context, atRules []string, path []string) Rule {
	tier := css.TierOf(property)
	id := css.RuleID(tier, property, value.Text(), ctx.Text, atRules)
	selector := ctx.ClassSelector(id)
	declaration := css.Declaration(property, value.Text(), value.IsNumber())

	text := selector + "{" + declaration + "}"
	if len(atRules) > 0 {
		text = strings.Join(atRules, "{") + "{" + text + strings.Repeat("}", len(atRules))
	}

	origin := styletree.Wrap(styletree.New().Set(property, value), path...)
	c.cache.Record(id, origin)

	return Rule{
		ID:          id,
		Selector:    selector,
		Declaration: declaration,
		Text:        text,
		Tier:        tier,
		Origin:      origin,
	}
}

// appendKey copies before appending so sibling subtrees never share backing arrays.
func appendKey(keys []string, key string) []string {
	out := make([]string, len(keys), len(keys)+1)
	copy(out, keys)
	return append(out, key)
}
