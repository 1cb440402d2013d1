package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/stylesync/internal/logging"
)

// Hub handles WebSocket connection management and broadcasting of
// container operations.
//
// Invariants:
//   - clients map access always protected by clientsMutex
//   - channels remain open until Shutdown() is called
//   - isShutdown transitions from false to true exactly once
type Hub struct {
	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *websocket.Conn
	// resync is signaled when a broadcast had to be dropped.
	resync chan struct{}

	originValidator OriginValidator
	snapshot        func() ContainerMessage
	logger          logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	stateMutex   sync.RWMutex
	isShutdown   bool
}

// NewHub creates a hub and starts its goroutine. A nil validator accepts
// every origin.
func NewHub(originValidator OriginValidator, logger logging.Logger) *Hub {
	hub := newHub(originValidator, logger)
	go hub.runHub()
	return hub
}

func newHub(originValidator OriginValidator, logger logging.Logger) *Hub {
	if originValidator == nil {
		originValidator = AllowedOrigins(nil)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:         make(map[*websocket.Conn]*Client),
		broadcast:       make(chan []byte, 256),
		register:        make(chan *Client, 32),
		unregister:      make(chan *websocket.Conn, 32),
		resync:          make(chan struct{}, 1),
		originValidator: originValidator,
		logger:          logger.WithComponent("websocket"),
		ctx:             ctx,
		cancel:          cancel,
	}
}

// SetSnapshot installs the function that describes the current document to
// newly connected clients.
func (h *Hub) SetSnapshot(snapshot func() ContainerMessage) {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()
	h.snapshot = snapshot
}

// HandleWebSocket upgrades r and registers the connection for broadcasts.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.IsShutdown() {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	origin := r.Header.Get("Origin")
	if origin != "" && !h.originValidator.IsAllowedOrigin(origin) {
		h.logger.Warn(r.Context(), nil, "WebSocket connection rejected", "origin", origin, "remote", r.RemoteAddr)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// origins are validated above
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	client := &Client{
		conn:         conn,
		send:         make(chan []byte, 256),
		lastActivity: time.Now(),
	}

	select {
	case h.register <- client:
	case <-h.ctx.Done():
		_ = conn.Close(websocket.StatusServiceRestart, "Server shutting down")
		return
	default:
		_ = conn.Close(websocket.StatusTryAgainLater, "Server busy")
		return
	}

	go h.handleClient(client)
}

func (h *Hub) runHub() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case conn := <-h.unregister:
			h.unregisterClient(conn)

		case message := <-h.broadcast:
			h.broadcastToClients(message)

		case <-h.resync:
			h.resyncClients()

		case <-h.ctx.Done():
			return
		}
	}
}

// registerClient adds a client and queues the current snapshot for it.
func (h *Hub) registerClient(client *Client) {
	h.clientsMutex.Lock()
	h.clients[client.conn] = client
	total := len(h.clients)
	h.clientsMutex.Unlock()

	if data, ok := h.snapshotMessage(); ok {
		client.send <- data
	}

	h.logger.Debug(h.ctx, "WebSocket client connected", "clients", total)
}

func (h *Hub) snapshotMessage() ([]byte, bool) {
	h.clientsMutex.RLock()
	snapshot := h.snapshot
	h.clientsMutex.RUnlock()
	if snapshot == nil {
		return nil, false
	}

	message := snapshot()
	message.Type = TypeSnapshot
	message.Timestamp = time.Now()
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error(h.ctx, err, "Failed to marshal snapshot")
		return nil, false
	}
	return data, true
}

// resyncClients replaces whatever is still queued with one snapshot, so
// clients that missed a dropped operation converge on the document again.
func (h *Hub) resyncClients() {
	drained := 0
drain:
	for {
		select {
		case <-h.broadcast:
			drained++
		default:
			break drain
		}
	}

	data, ok := h.snapshotMessage()
	if !ok {
		return
	}
	h.broadcastToClients(data)
	h.logger.Debug(h.ctx, "Resynced clients after dropped broadcast", "superseded", drained)
}

func (h *Hub) unregisterClient(conn *websocket.Conn) {
	h.clientsMutex.Lock()
	client, exists := h.clients[conn]
	if exists {
		delete(h.clients, conn)
		close(client.send)
	}
	total := len(h.clients)
	h.clientsMutex.Unlock()

	if exists {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		h.logger.Debug(h.ctx, "WebSocket client disconnected", "clients", total)
	}
}

func (h *Hub) broadcastToClients(message []byte) {
	h.clientsMutex.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.clientsMutex.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			// slow client, drop it
			go func(c *Client) {
				select {
				case h.unregister <- c.conn:
				case <-h.ctx.Done():
				}
			}(client)
		}
	}
}

func (h *Hub) handleClient(client *Client) {
	defer func() {
		select {
		case h.unregister <- client.conn:
		case <-h.ctx.Done():
		}
	}()

	go h.writeToClient(client)
	h.readFromClient(client)
}

// readFromClient drains the connection; browsers never send anything the
// hub acts on, but reading is what notices closed connections.
func (h *Hub) readFromClient(client *Client) {
	for {
		ctx, cancel := context.WithTimeout(h.ctx, 60*time.Second)
		_, _, err := client.conn.Read(ctx)
		cancel()

		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && h.ctx.Err() == nil {
				h.logger.Debug(h.ctx, "WebSocket read ended", "error", err.Error())
			}
			return
		}
		client.lastActivity = time.Now()
	}
}

func (h *Hub) writeToClient(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}

			ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
			err := client.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				h.logger.Debug(h.ctx, "WebSocket write failed", "error", err.Error())
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
			err := client.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-h.ctx.Done():
			return
		}
	}
}

// Broadcast sends message to every connected client. Messages are dropped
// when the hub is shut down. When the queue is full the message is dropped
// and every client is sent a fresh snapshot instead.
func (h *Hub) Broadcast(message ContainerMessage) {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error(h.ctx, err, "Failed to marshal broadcast message")
		return
	}

	if h.IsShutdown() {
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	default:
		h.logger.Warn(h.ctx, nil, "Broadcast channel full, dropping message", "type", message.Type)
		select {
		case h.resync <- struct{}{}:
		default:
		}
	}
}

// ConnectedClients returns the number of connected clients.
func (h *Hub) ConnectedClients() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

// Shutdown closes every connection and stops the hub.
func (h *Hub) Shutdown(_ context.Context) error {
	h.shutdownOnce.Do(func() {
		h.stateMutex.Lock()
		h.isShutdown = true
		h.stateMutex.Unlock()

		h.cancel()

		h.clientsMutex.Lock()
		for conn, client := range h.clients {
			close(client.send)
			_ = conn.Close(websocket.StatusNormalClosure, "Server shutdown")
		}
		h.clients = make(map[*websocket.Conn]*Client)
		h.clientsMutex.Unlock()
	})
	return nil
}

// IsShutdown reports whether Shutdown has been called.
func (h *Hub) IsShutdown() bool {
	h.stateMutex.RLock()
	defer h.stateMutex.RUnlock()
	return h.isShutdown
}
