package target

import (
	"context"
	"fmt"
	"sync"

	"github.com/conneroisu/stylesync/internal/css"
)

// OpKind names a recorded target operation.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpText   OpKind = "text"
	OpAttach OpKind = "attach"
	OpDetach OpKind = "detach"
)

// Op is one operation performed on a Memory target.
type Op struct {
	Kind      OpKind
	Container string
	Tier      css.Tier
	After     string
	IDs       []string
	Text      string
}

// Snapshot is the observable state of one attached container.
type Snapshot struct {
	ID   string
	Tier css.Tier
	IDs  []string
	Text string
}

// Memory is an in-memory document. It records every operation so tests can
// assert on exactly what reached the document.
type Memory struct {
	mutex    sync.Mutex
	order    []*memoryContainer
	ops      []Op
	next     int
	failText error
}

type memoryContainer struct {
	doc      *Memory
	id       string
	tier     css.Tier
	ids      []string
	text     string
	attached bool
}

var _ Target = (*Memory)(nil)

// NewMemory creates an empty in-memory document.
func NewMemory() *Memory {
	return &Memory{}
}

// Seed appends an attached container as if a previous pass had rendered it.
// Seeding is not recorded as an operation.
func (m *Memory) Seed(tier css.Tier, ids []string, text string) string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	c := m.newContainer(tier)
	c.ids = append([]string(nil), ids...)
	c.text = text
	c.attached = true
	m.order = append(m.order, c)
	return c.id
}

// FailWrites makes every later SetText return err. Pass nil to restore.
func (m *Memory) FailWrites(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failText = err
}

func (m *Memory) newContainer(tier css.Tier) *memoryContainer {
	m.next++
	return &memoryContainer{doc: m, id: fmt.Sprintf("%s%d", tier.Prefix(), m.next), tier: tier}
}

// Discover implements Target.
func (m *Memory) Discover(_ context.Context) ([]Discovered, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	out := make([]Discovered, 0, len(m.order))
	for _, c := range m.order {
		out = append(out, Discovered{
			Handle: c,
			Tier:   c.tier,
			IDs:    append([]string(nil), c.ids...),
			Text:   c.text,
		})
	}
	return out, nil
}

// CreateContainer implements Target.
func (m *Memory) CreateContainer(_ context.Context, tier css.Tier) (Handle, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	c := m.newContainer(tier)
	m.ops = append(m.ops, Op{Kind: OpCreate, Container: c.id, Tier: tier})
	return c, nil
}

// Containers returns the attached containers in document order.
func (m *Memory) Containers() []Snapshot {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	out := make([]Snapshot, 0, len(m.order))
	for _, c := range m.order {
		out = append(out, Snapshot{
			ID:   c.id,
			Tier: c.tier,
			IDs:  append([]string(nil), c.ids...),
			Text: c.text,
		})
	}
	return out
}

// Ops returns every recorded operation.
func (m *Memory) Ops() []Op {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]Op(nil), m.ops...)
}

// ResetOps forgets recorded operations.
func (m *Memory) ResetOps() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.ops = nil
}

// CSS concatenates the attached containers' rule texts in document order.
func (m *Memory) CSS() string {
	var out string
	for _, c := range m.Containers() {
		for _, segment := range SplitSegments(c.Text) {
			out += segment
		}
	}
	return out
}

func (c *memoryContainer) ID() string      { return c.id }
func (c *memoryContainer) Tier() css.Tier  { return c.tier }
func (c *memoryContainer) Attached() bool {
	c.doc.mutex.Lock()
	defer c.doc.mutex.Unlock()
	return c.attached
}

func (c *memoryContainer) SetText(_ context.Context, ids []string, text string) error {
	m := c.doc
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.failText != nil {
		return m.failText
	}
	c.ids = append([]string(nil), ids...)
	c.text = text
	m.ops = append(m.ops, Op{Kind: OpText, Container: c.id, Tier: c.tier, IDs: c.ids, Text: text})
	return nil
}

func (c *memoryContainer) Attach(_ context.Context, after Handle) error {
	m := c.doc
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if c.attached {
		return nil
	}

	pos := 0
	afterID := ""
	if after != nil {
		afterID = after.ID()
		pos = len(m.order)
		for i, other := range m.order {
			if other.id == afterID {
				pos = i + 1
				break
			}
		}
	}

	m.order = append(m.order, nil)
	copy(m.order[pos+1:], m.order[pos:])
	m.order[pos] = c
	c.attached = true
	m.ops = append(m.ops, Op{Kind: OpAttach, Container: c.id, Tier: c.tier, After: afterID})
	return nil
}

func (c *memoryContainer) Detach(_ context.Context) error {
	m := c.doc
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !c.attached {
		return nil
	}
	for i, other := range m.order {
		if other == c {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	c.attached = false
	m.ops = append(m.ops, Op{Kind: OpDetach, Container: c.id, Tier: c.tier})
	return nil
}
