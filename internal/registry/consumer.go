// Package registry tracks the consumers of compiled styles. A consumer is a
// named style tree, usually loaded from a style file, whose rules stay in
// the document for as long as it is mounted.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/maruel/natural"

	"github.com/conneroisu/stylesync/internal/compiler"
	"github.com/conneroisu/stylesync/internal/css"
	serrors "github.com/conneroisu/stylesync/internal/errors"
	"github.com/conneroisu/stylesync/internal/styletree"
)

// Sink receives rule usage changes. *manager.Manager implements it.
type Sink interface {
	Insert(id string, tier css.Tier, text string)
	Remove(id string)
	Flush(ctx context.Context) error
}

// ConsumerRegistry manages all mounted consumers
type ConsumerRegistry struct {
	consumers map[string]*Consumer
	mutex     sync.RWMutex
	watchers  []chan ConsumerEvent

	compiler *compiler.Compiler
	sink     Sink
}

// Consumer is one mounted style.
type Consumer struct {
	Name     string
	FilePath string
	Tree     *styletree.Tree
	// Extends names the consumers this one is composed over, in order.
	Extends []string
	Result  compiler.Result
	LastMod time.Time
	// Hash identifies the compiled class list.
	Hash string
}

// Rules returns the distinct rules the consumer keeps in use.
func (c *Consumer) Rules() []compiler.Rule {
	return c.Result.UniqueRules()
}

// ConsumerEvent represents a change in the registry
type ConsumerEvent struct {
	Type      EventType
	Consumer  *Consumer
	Timestamp time.Time
}

// EventType represents the type of consumer event
type EventType int

const (
	EventTypeMounted EventType = iota
	EventTypeUpdated
	EventTypeUnmounted
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeMounted:
		return "mounted"
	case EventTypeUpdated:
		return "updated"
	case EventTypeUnmounted:
		return "unmounted"
	default:
		return "unknown"
	}
}

// NewConsumerRegistry creates a registry compiling with c and reporting
// rule usage to sink.
func NewConsumerRegistry(c *compiler.Compiler, sink Sink) *ConsumerRegistry {
	return &ConsumerRegistry{
		consumers: make(map[string]*Consumer),
		watchers:  make([]chan ConsumerEvent, 0),
		compiler:  c,
		sink:      sink,
	}
}

// Mount compiles tree as consumer name, composed over the named bases, and
// inserts its rules. Mounting an existing name updates it.
func (r *ConsumerRegistry) Mount(name string, tree *styletree.Tree, bases ...string) (*Consumer, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.mount(name, "", tree, bases)
}

// MountFile mounts the tree loaded from path. A consumer that is already
// mounted keeps its bases. A name already owned by a different file is
// rejected and the mounted consumer is left untouched.
func (r *ConsumerRegistry) MountFile(name, path string, tree *styletree.Tree) (*Consumer, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var bases []string
	if existing, ok := r.consumers[name]; ok {
		if existing.FilePath != "" && existing.FilePath != path {
			return nil, serrors.ErrConsumerClash(name, existing.FilePath, path)
		}
		bases = existing.Extends
	}
	return r.mount(name, path, tree, bases)
}

func (r *ConsumerRegistry) mount(name, path string, tree *styletree.Tree, bases []string) (*Consumer, error) {
	for _, base := range bases {
		if _, ok := r.consumers[base]; !ok || base == name {
			return nil, serrors.ErrConsumer(base)
		}
	}
	if _, exists := r.consumers[name]; exists {
		return r.update(name, tree, bases, path), nil
	}

	consumer := r.compile(name, tree, bases)
	consumer.FilePath = path
	r.consumers[name] = consumer
	r.apply(nil, consumer.Rules())
	r.notify(EventTypeMounted, consumer)
	return consumer, nil
}

// Update recompiles a mounted consumer with a new tree and swaps its rules.
// Consumers extending it are recompiled too.
func (r *ConsumerRegistry) Update(name string, tree *styletree.Tree) (*Consumer, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, exists := r.consumers[name]
	if !exists {
		return nil, serrors.ErrConsumer(name)
	}
	return r.update(name, tree, existing.Extends, existing.FilePath), nil
}

func (r *ConsumerRegistry) update(name string, tree *styletree.Tree, bases []string, path string) *Consumer {
	old := r.consumers[name]
	if path == "" {
		path = old.FilePath
	}

	consumer := r.compile(name, tree, bases)
	consumer.FilePath = path
	r.consumers[name] = consumer
	r.apply(old.Rules(), consumer.Rules())
	r.notify(EventTypeUpdated, consumer)

	for _, dependent := range r.dependents(name) {
		prev := r.consumers[dependent]
		next := r.compile(dependent, prev.Tree, prev.Extends)
		next.FilePath = prev.FilePath
		r.consumers[dependent] = next
		r.apply(prev.Rules(), next.Rules())
		r.notify(EventTypeUpdated, next)
	}
	return consumer
}

// Unmount removes a consumer and releases its rules. Consumers extending it
// keep their compiled rules.
func (r *ConsumerRegistry) Unmount(name string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	consumer, exists := r.consumers[name]
	if !exists {
		return serrors.ErrConsumer(name)
	}
	delete(r.consumers, name)
	r.apply(consumer.Rules(), nil)
	r.notify(EventTypeUnmounted, consumer)
	return nil
}

// Sync writes pending changes to the document with a single flush.
func (r *ConsumerRegistry) Sync(ctx context.Context) error {
	return r.sink.Flush(ctx)
}

func (r *ConsumerRegistry) compile(name string, tree *styletree.Tree, bases []string) *Consumer {
	results := make([]compiler.Result, 0, len(bases))
	for _, base := range bases {
		if b, ok := r.consumers[base]; ok {
			results = append(results, b.Result)
		}
	}
	result := r.compiler.Compose(tree, results...)
	return &Consumer{
		Name:    name,
		Tree:    tree,
		Extends: append([]string(nil), bases...),
		Result:  result,
		LastMod: time.Now(),
		Hash:    css.Hash(result.ClassNames),
	}
}

// apply inserts the rules only in next, then removes the rules only in
// prev. Rules in both keep their usage untouched.
func (r *ConsumerRegistry) apply(prev, next []compiler.Rule) {
	before := make(map[string]struct{}, len(prev))
	for _, rule := range prev {
		before[rule.ID] = struct{}{}
	}
	after := make(map[string]struct{}, len(next))
	for _, rule := range next {
		after[rule.ID] = struct{}{}
		if _, ok := before[rule.ID]; !ok {
			r.sink.Insert(rule.ID, rule.Tier, rule.Text)
		}
	}
	for _, rule := range prev {
		if _, ok := after[rule.ID]; !ok {
			r.sink.Remove(rule.ID)
		}
	}
}

// dependents returns every consumer that extends name, directly or
// transitively, parents before children.
func (r *ConsumerRegistry) dependents(name string) []string {
	var out []string
	seen := map[string]bool{name: true}
	queue := []string{name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		var direct []string
		for candidate, consumer := range r.consumers {
			if seen[candidate] {
				continue
			}
			for _, base := range consumer.Extends {
				if base == current {
					direct = append(direct, candidate)
					break
				}
			}
		}
		sort.Sort(natural.StringSlice(direct))
		for _, d := range direct {
			seen[d] = true
			out = append(out, d)
			queue = append(queue, d)
		}
	}
	return out
}

// Dependents returns the consumers that would be recompiled when name changes.
func (r *ConsumerRegistry) Dependents(name string) []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.dependents(name)
}

func (r *ConsumerRegistry) notify(eventType EventType, consumer *Consumer) {
	event := ConsumerEvent{
		Type:      eventType,
		Consumer:  consumer,
		Timestamp: time.Now(),
	}
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Get retrieves a consumer by name
func (r *ConsumerRegistry) Get(name string) (*Consumer, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	consumer, exists := r.consumers[name]
	return consumer, exists
}

// GetAll returns every consumer in natural name order.
func (r *ConsumerRegistry) GetAll() []*Consumer {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.consumers))
	for name := range r.consumers {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))

	result := make([]*Consumer, 0, len(names))
	for _, name := range names {
		result = append(result, r.consumers[name])
	}
	return result
}

// Results returns the compiled results of every consumer in natural name order.
func (r *ConsumerRegistry) Results() []compiler.Result {
	consumers := r.GetAll()
	results := make([]compiler.Result, 0, len(consumers))
	for _, c := range consumers {
		results = append(results, c.Result)
	}
	return results
}

// Watch returns a channel that receives consumer events
func (r *ConsumerRegistry) Watch() <-chan ConsumerEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan ConsumerEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *ConsumerRegistry) UnWatch(ch <-chan ConsumerEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of mounted consumers
func (r *ConsumerRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.consumers)
}
