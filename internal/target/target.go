// Package target defines the boundary between the style manager and the
// document its containers live in, and provides the in-memory and HTML
// document implementations.
//
// A container is a physical style payload holding the rules of one
// precedence tier. Its text is the rule texts joined with Marker, and its id
// list names the rule behind each segment, which is what makes adoption of
// pre-rendered containers possible.
package target

import (
	"context"
	"strings"

	"github.com/conneroisu/stylesync/internal/css"
)

// Marker separates rule segments inside a container's text. It is a CSS
// comment so the joined payload stays valid CSS.
const Marker = "/*|*/"

// Placeholder is the text server-rendered for an empty container.
const Placeholder = "p{}"

// Discovered is a container found in the target before the manager started.
type Discovered struct {
	Handle Handle
	Tier   css.Tier
	IDs    []string
	Text   string
}

// Target is a document style containers can be created in.
type Target interface {
	// Discover lists existing containers in document order.
	Discover(ctx context.Context) ([]Discovered, error)
	// CreateContainer makes a new detached container for tier.
	CreateContainer(ctx context.Context, tier css.Tier) (Handle, error)
}

// Handle is a stable reference to one container. Repeated SetText calls
// update the same container.
type Handle interface {
	ID() string
	Tier() css.Tier
	// SetText replaces the container's payload and its rule id list.
	SetText(ctx context.Context, ids []string, text string) error
	// Attach inserts the container right after the given one, or first when
	// after is nil. Attaching an attached container is a no-op.
	Attach(ctx context.Context, after Handle) error
	// Detach removes the container from the document, keeping the handle usable.
	Detach(ctx context.Context) error
	Attached() bool
}

// JoinSegments builds a container payload from rule texts.
func JoinSegments(texts []string) string {
	return strings.Join(texts, Marker)
}

// SplitSegments recovers the rule texts of a container payload. An empty
// payload or the placeholder has no segments.
func SplitSegments(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" || text == Placeholder {
		return nil
	}
	return strings.Split(text, Marker)
}
