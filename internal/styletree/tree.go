// Package styletree models nested style declarations as an ordered tree.
//
// A Tree maps keys (property names, selector fragments or at-rule
// conditions) to Values. A Value is an explicit tagged variant: a string
// leaf, a number leaf, a nested Tree, or absent. Absent values are the
// "no declaration" signal and are skipped by the compiler.
package styletree

import (
	"fmt"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindTree
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindTree:
		return "tree"
	default:
		return "unknown"
	}
}

// Value is a declaration leaf, a nested tree, or absent.
type Value struct {
	kind Kind
	str  string
	num  float64
	tree *Tree
}

// String creates a string leaf.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number creates a numeric leaf.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Sub wraps a nested tree. A nil tree is treated as an empty one.
func Sub(t *Tree) Value {
	if t == nil {
		t = New()
	}
	return Value{kind: KindTree, tree: t}
}

// Absent is the explicit "no declaration" value.
func Absent() Value {
	return Value{}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsLeaf reports whether v is a string or number declaration.
func (v Value) IsLeaf() bool { return v.kind == KindString || v.kind == KindNumber }

// IsTree reports whether v holds a nested tree.
func (v Value) IsTree() bool { return v.kind == KindTree }

// IsAbsent reports whether v carries no declaration.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsNumber reports whether v is a numeric leaf.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// Tree returns the nested tree, or nil for leaves.
func (v Value) Tree() *Tree { return v.tree }

// Text renders a leaf as it appears in CSS, before unit defaulting.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Equal compares two values structurally.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindTree:
		return v.tree.Equal(o.tree)
	default:
		return true
	}
}

// Entry is one key/value pair of a Tree.
type Entry struct {
	Key   string
	Value Value
}

// Tree is an ordered mapping with unique keys.
type Tree struct {
	entries []Entry
	index   map[string]int
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{index: make(map[string]int)}
}

// Of builds a tree from alternating keys and values. Values may be string,
// int, float64, *Tree, Value or nil (absent). It panics on anything else and
// is meant for literals in code and tests.
func Of(kv ...interface{}) *Tree {
	if len(kv)%2 != 0 {
		panic("styletree.Of: odd number of arguments")
	}
	t := New()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("styletree.Of: key %v is not a string", kv[i]))
		}
		t.Set(key, valueOf(kv[i+1]))
	}
	return t
}

func valueOf(raw interface{}) Value {
	switch v := raw.(type) {
	case nil:
		return Absent()
	case Value:
		return v
	case string:
		return String(v)
	case int:
		return Number(float64(v))
	case float64:
		return Number(v)
	case *Tree:
		return Sub(v)
	default:
		panic(fmt.Sprintf("styletree.Of: unsupported value type %T", raw))
	}
}

// Len returns the number of entries.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns the entries in insertion order. The slice must not be modified.
func (t *Tree) Entries() []Entry {
	if t == nil {
		return nil
	}
	return t.entries
}

// Get looks up a key.
func (t *Tree) Get(key string) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	i, ok := t.index[key]
	if !ok {
		return Value{}, false
	}
	return t.entries[i].Value, true
}

// Set stores value under key. An existing key keeps its position.
func (t *Tree) Set(key string, value Value) *Tree {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[key]; ok {
		t.entries[i].Value = value
		return t
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, Entry{Key: key, Value: value})
	return t
}

// Clone returns a deep copy.
func (t *Tree) Clone() *Tree {
	out := New()
	for _, e := range t.Entries() {
		v := e.Value
		if v.IsTree() {
			v = Sub(v.tree.Clone())
		}
		out.Set(e.Key, v)
	}
	return out
}

// Equal compares two trees structurally, including key order.
func (t *Tree) Equal(o *Tree) bool {
	if t.Len() != o.Len() {
		return false
	}
	oe := o.Entries()
	for i, e := range t.Entries() {
		if e.Key != oe[i].Key || !e.Value.Equal(oe[i].Value) {
			return false
		}
	}
	return true
}

// Wrap nests t under the given keys, outermost first.
func Wrap(t *Tree, path ...string) *Tree {
	for i := len(path) - 1; i >= 0; i-- {
		t = New().Set(path[i], Sub(t))
	}
	return t
}
