package api

import (
	"log"
	"sync"
	"time"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
	"github.com/GoPlasmatic/Reframe-IDE/backend/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Action string `json:"action"` // "ping", "status"
}

// PackageSummary is the short form of a package sent with events
type PackageSummary struct {
	ID            string                      `json:"id"`
	Name          string                      `json:"name"`
	Version       string                      `json:"version"`
	FolderName    string                      `json:"folder_name"`
	RootDir       string                      `json:"root_dir,omitempty"`
	WorkflowCount map[models.WorkflowType]int `json:"workflow_count"`
	ScenarioCount int                         `json:"scenario_count"`
	LoadedAt      time.Time                   `json:"loaded_at"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"` // "package_loaded", "package_closed", "package_error", "status", "pong"
	Package *PackageSummary `json:"package,omitempty"`
	Error   string          `json:"error,omitempty"`
	Time    string          `json:"time"`
}

func newServerMessage(msgType string) ServerMessage {
	return ServerMessage{
		ID:   uuid.New().String(),
		Type: msgType,
		Time: time.Now().Format(time.RFC3339),
	}
}

func summarize(pkg *models.PackageData, rootDir string) *PackageSummary {
	if pkg == nil {
		return nil
	}
	return &PackageSummary{
		ID:            pkg.Metadata.ID,
		Name:          pkg.Metadata.Name,
		Version:       pkg.Metadata.Version,
		FolderName:    pkg.FolderName,
		RootDir:       rootDir,
		WorkflowCount: pkg.CategorizedWorkflows.Counts(),
		ScenarioCount: len(pkg.Scenarios),
		LoadedAt:      pkg.LoadedAt,
	}
}

// eventMessage converts a session event to the message pushed to clients
func eventMessage(ev session.Event) ServerMessage {
	msg := newServerMessage(string(ev.Type))
	msg.Package = summarize(ev.Package, ev.RootDir)
	msg.Error = ev.Error
	return msg
}

// Client represents a connected WebSocket client
type Client struct {
	conn         *websocket.Conn
	lastActivity time.Time
	send         chan ServerMessage
	mu           sync.Mutex
}

// WebSocketHub fans package events out to all connected clients
type WebSocketHub struct {
	clients map[*Client]bool

	// Register/unregister channels
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	stopCh chan struct{}
}

// NewWebSocketHub creates a new WebSocket hub
func NewWebSocketHub() *WebSocketHub {
	hub := &WebSocketHub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		stopCh:     make(chan struct{}),
	}

	go hub.run()
	go hub.cleanupIdleClients()

	return hub
}

// run handles the main event loop
func (h *WebSocketHub) run() {
	for {
		select {
		case <-h.stopCh:
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *WebSocketHub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	log.Printf("WebSocket client registered")
}

// removeClient drops a client and closes its send channel
func (h *WebSocketHub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	close(client.send)
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to every client. Slow clients miss messages
// rather than blocking the sender.
func (h *WebSocketHub) Broadcast(msg ServerMessage) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.trySend(client, msg)
	}
}

func (h *WebSocketHub) trySend(client *Client, msg ServerMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// The client may have been removed (and its channel closed) meanwhile
	if !h.clients[client] {
		return
	}

	select {
	case client.send <- msg:
		client.mu.Lock()
		client.lastActivity = time.Now()
		client.mu.Unlock()
	default:
		log.Printf("Warning: Client send channel full, dropping %s", msg.Type)
	}
}

// HandleSessionEvent forwards session events to clients. It is registered as a
// session listener.
func (h *WebSocketHub) HandleSessionEvent(ev session.Event) {
	h.Broadcast(eventMessage(ev))
}

// cleanupIdleClients periodically checks for idle clients and closes them
func (h *WebSocketHub) cleanupIdleClients() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.checkIdleClients(30 * time.Minute)
		}
	}
}

// checkIdleClients removes clients that have been idle for too long
func (h *WebSocketHub) checkIdleClients(idleTimeout time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	for client := range h.clients {
		client.mu.Lock()
		lastActivity := client.lastActivity
		client.mu.Unlock()

		if now.Sub(lastActivity) > idleTimeout {
			log.Printf("Closing idle client (last activity: %v ago)", now.Sub(lastActivity))
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// Stop stops the WebSocket hub
func (h *WebSocketHub) Stop() {
	close(h.stopCh)
}

// HandleWebSocket handles WebSocket connections
func (s *Server) HandleWebSocket(c *fiber.Ctx) error {
	return websocket.New(func(conn *websocket.Conn) {
		defer conn.Close()

		// Create client
		client := &Client{
			conn:         conn,
			lastActivity: time.Now(),
			send:         make(chan ServerMessage, 16),
		}

		// Register client
		s.wsHub.register <- client

		// Tell the new client what is open right now
		client.send <- s.statusMessage()

		// Start write pump
		go client.writePump()

		// Read pump (blocking)
		client.readPump(s)

		// Unregister when done
		s.wsHub.unregister <- client
	})(c)
}

// statusMessage describes the session state for a freshly connected client
func (s *Server) statusMessage() ServerMessage {
	msg := newServerMessage("status")
	msg.Package = summarize(s.session.Current(), s.session.RootDir())
	msg.Error = s.session.LastError()
	return msg
}

// readPump reads messages from the WebSocket connection
func (c *Client) readPump(s *Server) {
	for {
		var msg ClientMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		c.mu.Lock()
		c.lastActivity = time.Now()
		c.mu.Unlock()

		switch msg.Action {
		case "status":
			s.wsHub.trySend(c, s.statusMessage())

		case "ping":
			s.wsHub.trySend(c, newServerMessage("pong"))
		}
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// Channel closed
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}

		case <-ticker.C:
			// Send ping to keep connection alive
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
