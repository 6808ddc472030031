package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/ieltsmaster/studyplan/internal/syncstore"
)

// MessageType defines the type of event message
type MessageType string

const (
	// MessageTypeHello is sent once to every new client
	MessageTypeHello MessageType = "hello"

	// MessageTypeStateSaved indicates a region of the state was saved
	MessageTypeStateSaved MessageType = "state_saved"
)

// Message represents an event broadcast to websocket clients
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// StateSavedData names the region and keys a save wrote
type StateSavedData struct {
	Region string   `json:"region"`
	Keys   []string `json:"keys"`
}

// HelloData is the payload of the welcome message
type HelloData struct {
	Clients int `json:"clients"`
}

// Hub tracks websocket clients and fans state events out to them.
//
// Other browser tabs use the events to reload after a save, which narrows the
// window for one tab overwriting another tab's newer data.
type Hub struct {
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan Message

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex

	originPatterns []string
	logger         *log.Logger
}

// NewHub creates a hub. It must be started before it delivers messages.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(os.Stderr, "[events] ", log.LstdFlags)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:        make(map[*websocket.Conn]bool),
		broadcast:      make(chan Message, 100),
		ctx:            ctx,
		cancel:         cancel,
		originPatterns: []string{"*"},
		logger:         logger,
	}
}

// Start runs the broadcast loop.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return
	}
	h.started = true
	h.wg.Add(1)
	go h.broadcastLoop()
}

// Stop closes every client and waits for the hub's goroutines.
func (h *Hub) Stop() {
	h.cancel()

	h.clientsMu.Lock()
	for conn := range h.clients {
		_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		delete(h.clients, conn)
	}
	h.clientsMu.Unlock()

	h.wg.Wait()
}

// Broadcast queues a message for every client. It never blocks; messages are
// dropped when the queue is full.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	case <-h.ctx.Done():
	default:
		h.logger.Println("WARNING: broadcast channel full, dropping message")
	}
}

// NotifySaved broadcasts a state_saved event. Its signature matches
// syncstore.Options.OnSave.
func (h *Hub) NotifySaved(e syncstore.SaveEvent) {
	data, err := json.Marshal(StateSavedData{Region: e.Region.String(), Keys: e.Keys})
	if err != nil {
		h.logger.Printf("Failed to marshal save event: %v", err)
		return
	}
	h.Broadcast(Message{Type: MessageTypeStateSaved, Timestamp: e.At, Data: data})
}

// ClientCount returns the current number of connected clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastLoop() {
	defer h.wg.Done()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg := <-h.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}

			data, err := json.Marshal(msg)
			if err != nil {
				h.logger.Printf("Failed to marshal message: %v", err)
				continue
			}

			h.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				clients = append(clients, conn)
			}
			h.clientsMu.RUnlock()

			for _, conn := range clients {
				ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()

				if err != nil {
					h.logger.Printf("Failed to send to client: %v", err)
					h.removeClient(conn)
				}
			}
		}
	}
}

// ServeHTTP upgrades the request to a websocket and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.ctx.Err() != nil {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.clientsMu.Lock()
	h.clients[conn] = true
	clientCount := len(h.clients)
	h.clientsMu.Unlock()

	h.logger.Printf("Client connected (total: %d)", clientCount)

	hello, _ := json.Marshal(HelloData{Clients: clientCount})
	welcome, _ := json.Marshal(Message{Type: MessageTypeHello, Timestamp: time.Now(), Data: hello})
	ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
	_ = conn.Write(ctx, websocket.MessageText, welcome)
	cancel()

	h.wg.Add(1)
	go h.readLoop(conn)
}

// readLoop keeps the connection open until the client leaves or the hub stops
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.wg.Done()
	defer h.removeClient(conn)

	for {
		if _, _, err := conn.Read(h.ctx); err != nil {
			return
		}
	}
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.clientsMu.Lock()
	if _, exists := h.clients[conn]; exists {
		delete(h.clients, conn)
		clientCount := len(h.clients)
		h.clientsMu.Unlock()

		_ = conn.Close(websocket.StatusNormalClosure, "")
		h.logger.Printf("Client disconnected (total: %d)", clientCount)
	} else {
		h.clientsMu.Unlock()
	}
}
