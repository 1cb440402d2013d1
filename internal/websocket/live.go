package websocket

import (
	"context"
	"fmt"
	"sync"

	"github.com/conneroisu/stylesync/internal/css"
	"github.com/conneroisu/stylesync/internal/target"
)

// LiveTarget forwards container operations to a primary target and mirrors
// each successful one to the browsers connected to a Hub.
type LiveTarget struct {
	primary target.Target
	hub     *Hub

	mutex sync.Mutex
	// attached containers in document order
	order []*liveHandle
}

type liveHandle struct {
	live  *LiveTarget
	inner target.Handle
	ids   []string
	text  string
}

var _ target.Target = (*LiveTarget)(nil)

// NewLiveTarget wraps primary and installs itself as hub's snapshot source.
func NewLiveTarget(primary target.Target, hub *Hub) *LiveTarget {
	lt := &LiveTarget{primary: primary, hub: hub}
	hub.SetSnapshot(lt.Snapshot)
	return lt
}

// Discover implements target.Target.
func (lt *LiveTarget) Discover(ctx context.Context) ([]target.Discovered, error) {
	discovered, err := lt.primary.Discover(ctx)
	if err != nil {
		return nil, err
	}

	lt.mutex.Lock()
	defer lt.mutex.Unlock()
	lt.order = lt.order[:0]
	for i, d := range discovered {
		h := &liveHandle{live: lt, inner: d.Handle, ids: d.IDs, text: d.Text}
		discovered[i].Handle = h
		if d.Handle.Attached() {
			lt.order = append(lt.order, h)
		}
	}
	return discovered, nil
}

// CreateContainer implements target.Target.
func (lt *LiveTarget) CreateContainer(ctx context.Context, tier css.Tier) (target.Handle, error) {
	inner, err := lt.primary.CreateContainer(ctx, tier)
	if err != nil {
		return nil, err
	}
	lt.hub.Broadcast(ContainerMessage{Type: TypeCreate, Container: inner.ID(), Tier: tier.Prefix()})
	return &liveHandle{live: lt, inner: inner}, nil
}

// Snapshot describes every attached container in document order.
func (lt *LiveTarget) Snapshot() ContainerMessage {
	lt.mutex.Lock()
	defer lt.mutex.Unlock()

	snapshot := ContainerMessage{Type: TypeSnapshot}
	for _, h := range lt.order {
		snapshot.Containers = append(snapshot.Containers, ContainerMessage{
			Container: h.inner.ID(),
			Tier:      h.inner.Tier().Prefix(),
			IDs:       h.ids,
			Text:      h.text,
		})
	}
	return snapshot
}

func (h *liveHandle) ID() string     { return h.inner.ID() }
func (h *liveHandle) Tier() css.Tier { return h.inner.Tier() }
func (h *liveHandle) Attached() bool { return h.inner.Attached() }

func (h *liveHandle) SetText(ctx context.Context, ids []string, text string) error {
	if err := h.inner.SetText(ctx, ids, text); err != nil {
		return err
	}

	lt := h.live
	lt.mutex.Lock()
	defer lt.mutex.Unlock()
	h.ids = append([]string(nil), ids...)
	h.text = text
	lt.hub.Broadcast(ContainerMessage{
		Type:      TypeText,
		Container: h.inner.ID(),
		Tier:      h.inner.Tier().Prefix(),
		IDs:       h.ids,
		Text:      text,
	})
	return nil
}

func (h *liveHandle) Attach(ctx context.Context, after target.Handle) error {
	var (
		innerAfter target.Handle
		prev       *liveHandle
	)
	if after != nil {
		var ok bool
		prev, ok = after.(*liveHandle)
		if !ok || prev.live != h.live {
			return fmt.Errorf("container %s: cannot attach after foreign container %s", h.ID(), after.ID())
		}
		innerAfter = prev.inner
	}

	if h.inner.Attached() {
		return nil
	}
	if err := h.inner.Attach(ctx, innerAfter); err != nil {
		return err
	}

	lt := h.live
	lt.mutex.Lock()
	defer lt.mutex.Unlock()
	pos := 0
	afterID := ""
	if prev != nil {
		afterID = prev.ID()
		pos = len(lt.order)
		for i, other := range lt.order {
			if other == prev {
				pos = i + 1
				break
			}
		}
	}
	lt.order = append(lt.order, nil)
	copy(lt.order[pos+1:], lt.order[pos:])
	lt.order[pos] = h

	lt.hub.Broadcast(ContainerMessage{
		Type:      TypeAttach,
		Container: h.inner.ID(),
		Tier:      h.inner.Tier().Prefix(),
		After:     afterID,
	})
	return nil
}

func (h *liveHandle) Detach(ctx context.Context) error {
	if !h.inner.Attached() {
		return nil
	}
	if err := h.inner.Detach(ctx); err != nil {
		return err
	}

	lt := h.live
	lt.mutex.Lock()
	defer lt.mutex.Unlock()
	for i, other := range lt.order {
		if other == h {
			lt.order = append(lt.order[:i], lt.order[i+1:]...)
			break
		}
	}
	lt.hub.Broadcast(ContainerMessage{Type: TypeDetach, Container: h.inner.ID(), Tier: h.inner.Tier().Prefix()})
	return nil
}
