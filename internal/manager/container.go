package manager

import (
	"strings"

	"github.com/conneroisu/stylesync/internal/css"
	"github.com/conneroisu/stylesync/internal/target"
)

type entry struct {
	id   string
	text string
}

// container is the bookkeeping side of one physical container.
type container struct {
	tier    css.Tier
	entries []entry
	index   map[string]int
	// size counts every live segment plus one marker each. Adopted and
	// freshly built containers are measured the same way.
	size int
	full bool
	// dirty marks membership or text changes since the last flush.
	dirty bool

	handle     target.Handle
	written    string
	writtenIDs string
}

func newContainer(tier css.Tier) *container {
	return &container{tier: tier, index: make(map[string]int)}
}

func (c *container) hasRoom(capacity int) bool {
	return !c.full && c.size < capacity
}

func (c *container) add(id, text string) {
	c.index[id] = len(c.entries)
	c.entries = append(c.entries, entry{id: id, text: text})
	c.grow("", text)
	c.dirty = true
}

// setText updates an existing entry and reports whether anything changed.
func (c *container) setText(i int, text string) bool {
	old := c.entries[i].text
	if old == text {
		return false
	}
	c.entries[i].text = text
	c.grow(old, text)
	c.dirty = true
	return true
}

// grow keeps size in step with a segment changing from old to text.
func (c *container) grow(old, text string) {
	live := func(s string) int {
		if s == "" {
			return 0
		}
		return len(s) + len(target.Marker)
	}
	c.size += live(text) - live(old)
}

// compact drops cleared entries and returns the live ids and texts.
func (c *container) compact() ([]string, []string) {
	ids := make([]string, 0, len(c.entries))
	texts := make([]string, 0, len(c.entries))
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.text == "" {
			delete(c.index, e.id)
			continue
		}
		c.index[e.id] = len(kept)
		kept = append(kept, e)
		ids = append(ids, e.id)
		texts = append(texts, e.text)
	}
	c.entries = kept
	return ids, texts
}

func (c *container) liveIDs() []string {
	ids := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		if e.text != "" {
			ids = append(ids, e.id)
		}
	}
	return ids
}

func (c *container) liveText() string {
	texts := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		if e.text != "" {
			texts = append(texts, e.text)
		}
	}
	return target.JoinSegments(texts)
}

func joinIDs(ids []string) string {
	return strings.Join(ids, " ")
}
