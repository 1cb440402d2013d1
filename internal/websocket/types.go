package websocket

import (
	"strings"
	"time"

	"github.com/coder/websocket"
)

// Message types sent to browsers.
const (
	TypeSnapshot = "snapshot"
	TypeCreate   = "create"
	TypeText     = "text"
	TypeAttach   = "attach"
	TypeDetach   = "detach"
)

// Client represents a WebSocket client connection
type Client struct {
	conn         *websocket.Conn
	send         chan []byte
	lastActivity time.Time
}

// ContainerMessage describes one container operation, or for snapshots the
// full list of attached containers in document order.
type ContainerMessage struct {
	Type       string             `json:"type"`
	Container  string             `json:"container,omitempty"`
	Tier       string             `json:"tier,omitempty"`
	After      string             `json:"after,omitempty"`
	IDs        []string           `json:"ids,omitempty"`
	Text       string             `json:"text,omitempty"`
	Containers []ContainerMessage `json:"containers,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// OriginValidator interface for WebSocket origin validation
type OriginValidator interface {
	IsAllowedOrigin(origin string) bool
}

// AllowedOrigins accepts origins matching one of its entries. An entry may
// be a full origin ("http://localhost:8080") or a bare host. An empty list
// accepts everything.
type AllowedOrigins []string

// IsAllowedOrigin implements OriginValidator.
func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	if len(a) == 0 {
		return true
	}
	host := origin
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	for _, allowed := range a {
		if allowed == "*" || allowed == origin || allowed == host {
			return true
		}
	}
	return false
}
