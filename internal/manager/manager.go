package manager

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	"github.com/conneroisu/stylesync/internal/css"
	serrors "github.com/conneroisu/stylesync/internal/errors"
	"github.com/conneroisu/stylesync/internal/logging"
	"github.com/conneroisu/stylesync/internal/target"
)

// DefaultCapacity is the materialized text length at which a container
// stops accepting new rule ids.
const DefaultCapacity = 8192

// Manager tracks rule usage and packs rules into a target's containers.
//
// Invariants:
//   - every rule id with a positive usage count has its text in exactly one container
//   - the target is only touched by New (adoption) and Flush
//   - order lists containers in document order; tiers[t] lists tier t's containers in the same order
type Manager struct {
	mutex    sync.Mutex
	target   target.Target
	capacity int
	logger   logging.Logger

	order []*container
	tiers map[css.Tier][]*container
	usage map[string]int
	dirty bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithCapacity sets the per-container capacity threshold in characters.
func WithCapacity(capacity int) Option {
	return func(m *Manager) {
		if capacity > 0 {
			m.capacity = capacity
		}
	}
}

// WithLogger sets the logger used for adoption and flush summaries.
func WithLogger(logger logging.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger.WithComponent("manager")
		}
	}
}

// New creates a manager for t and adopts every container already present
// in it. A container whose id list and rule segments disagree makes
// adoption fail; the document cannot be trusted in that case.
func New(ctx context.Context, t target.Target, opts ...Option) (*Manager, error) {
	m := &Manager{
		target:   t,
		capacity: DefaultCapacity,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.resetState()

	if err := m.adopt(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) resetState() {
	m.order = nil
	m.tiers = make(map[css.Tier][]*container)
	m.usage = make(map[string]int)
	m.dirty = false
}

func (m *Manager) adopt(ctx context.Context) error {
	discovered, err := m.target.Discover(ctx)
	if err != nil {
		return serrors.WrapTarget(err, serrors.ErrCodeTargetDiscover, "cannot discover existing containers")
	}

	rules := 0
	for _, d := range discovered {
		segments := target.SplitSegments(d.Text)
		if len(segments) != len(d.IDs) {
			return serrors.ErrAdoption(d.Handle.ID(), len(d.IDs), len(segments))
		}

		c := newContainer(d.Tier)
		for i, id := range d.IDs {
			c.add(id, segments[i])
		}
		c.dirty = false
		c.handle = d.Handle
		c.written = d.Text
		c.writtenIDs = joinIDs(d.IDs)
		c.full = c.size >= m.capacity

		m.order = append(m.order, c)
		m.tiers[d.Tier] = append(m.tiers[d.Tier], c)
		rules += len(d.IDs)
	}

	if len(discovered) > 0 {
		m.logger.Debug(ctx, "Adopted existing containers", "containers", len(discovered), "rules", rules)
	}
	return nil
}

// Insert records one more use of rule id and makes sure its text is held by
// a container of tier. It never touches the target.
func (m *Manager) Insert(id string, tier css.Tier, text string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.usage[id]++

	for _, c := range m.tiers[tier] {
		if i, ok := c.index[id]; ok {
			if c.setText(i, text) {
				m.dirty = true
			}
			return
		}
	}

	c := m.lastOpen(tier)
	if c == nil {
		c = m.allocate(tier)
	}
	c.add(id, text)
	m.dirty = true
}

// lastOpen returns the tier's last container if it still takes new ids.
func (m *Manager) lastOpen(tier css.Tier) *container {
	containers := m.tiers[tier]
	if len(containers) == 0 {
		return nil
	}
	last := containers[len(containers)-1]
	if !last.hasRoom(m.capacity) {
		return nil
	}
	return last
}

// allocate places a new container right after the tier's last container,
// or at the end of the document when the tier has none.
func (m *Manager) allocate(tier css.Tier) *container {
	c := newContainer(tier)

	pos := len(m.order)
	if existing := m.tiers[tier]; len(existing) > 0 {
		last := existing[len(existing)-1]
		for i, other := range m.order {
			if other == last {
				pos = i + 1
				break
			}
		}
	}

	m.order = append(m.order, nil)
	copy(m.order[pos+1:], m.order[pos:])
	m.order[pos] = c
	m.tiers[tier] = append(m.tiers[tier], c)
	return c
}

// Remove releases one use of rule id. At zero uses the rule's text is
// cleared from every container holding it. Removing an unknown id is a
// no-op.
func (m *Manager) Remove(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	n, ok := m.usage[id]
	if !ok {
		return
	}
	if n > 1 {
		m.usage[id] = n - 1
		return
	}
	delete(m.usage, id)

	for _, c := range m.order {
		if i, ok := c.index[id]; ok {
			if c.setText(i, "") {
				m.dirty = true
			}
		}
	}
}

// Usage returns the current usage count of rule id.
func (m *Manager) Usage(id string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.usage[id]
}

// Dirty reports whether a Flush has pending work.
func (m *Manager) Dirty() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.dirty
}

// Flush writes every changed container to the target, once. Containers that
// became empty are detached; new non-empty ones are created and attached in
// place. Calling Flush with nothing pending does nothing.
//
// Failed containers stay pending and their errors are returned together.
func (m *Manager) Flush(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.dirty {
		return nil
	}

	var (
		errs     error
		written  int
		detached int
	)
	for _, c := range m.order {
		if !c.dirty {
			continue
		}
		wrote, detach, err := m.flushContainer(ctx, c)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if wrote {
			written++
		}
		if detach {
			detached++
		}
	}

	m.dirty = errs != nil
	m.logger.Debug(ctx, "Flushed containers", "written", written, "detached", detached)

	if errs != nil {
		return serrors.WrapTarget(errs, serrors.ErrCodeTargetWrite, "flush failed")
	}
	return nil
}

func (m *Manager) flushContainer(ctx context.Context, c *container) (wrote, detached bool, err error) {
	ids, texts := c.compact()
	text := target.JoinSegments(texts)

	if text == "" {
		if c.handle != nil && c.handle.Attached() {
			if err := c.handle.Detach(ctx); err != nil {
				return false, false, err
			}
			detached = true
		}
		c.written, c.writtenIDs = "", ""
		c.size, c.full, c.dirty = 0, false, false
		return false, detached, nil
	}

	if c.handle == nil {
		handle, err := m.target.CreateContainer(ctx, c.tier)
		if err != nil {
			return false, false, err
		}
		c.handle = handle
	}

	joined := joinIDs(ids)
	if text != c.written || joined != c.writtenIDs {
		if err := c.handle.SetText(ctx, ids, text); err != nil {
			return false, false, err
		}
		c.written, c.writtenIDs = text, joined
		wrote = true
	}

	if !c.handle.Attached() {
		if err := c.handle.Attach(ctx, m.anchor(c)); err != nil {
			return wrote, false, err
		}
	}

	c.full = c.size >= m.capacity
	c.dirty = false
	return wrote, false, nil
}

// anchor finds the nearest attached container before c in document order.
func (m *Manager) anchor(c *container) target.Handle {
	pos := -1
	for i, other := range m.order {
		if other == c {
			pos = i
			break
		}
	}
	for i := pos - 1; i >= 0; i-- {
		if h := m.order[i].handle; h != nil && h.Attached() {
			return h
		}
	}
	return nil
}

// ContainerInfo describes one container's bookkeeping.
type ContainerInfo struct {
	Tier     css.Tier
	IDs      []string
	Text     string
	Full     bool
	Attached bool
	Handle   string
}

// Containers returns the containers of tier in document order.
func (m *Manager) Containers(tier css.Tier) []ContainerInfo {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	out := make([]ContainerInfo, 0, len(m.tiers[tier]))
	for _, c := range m.tiers[tier] {
		info := ContainerInfo{
			Tier: c.tier,
			IDs:  c.liveIDs(),
			Text: c.liveText(),
			Full: c.full,
		}
		if c.handle != nil {
			info.Attached = c.handle.Attached()
			info.Handle = c.handle.ID()
		}
		out = append(out, info)
	}
	return out
}

// Stats summarizes the manager's state.
type Stats struct {
	Containers int
	Rules      int
	Pending    bool
}

// Stats returns a summary of the current bookkeeping.
func (m *Manager) Stats() Stats {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return Stats{
		Containers: len(m.order),
		Rules:      len(m.usage),
		Pending:    m.dirty,
	}
}

// Reset forgets all bookkeeping without touching the target. Intended for
// test isolation.
func (m *Manager) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.resetState()
}
