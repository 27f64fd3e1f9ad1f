package websocket

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"carbon-offset/offset-portal/offset-portal-backend/internal/dataset"
	"carbon-offset/offset-portal/offset-portal-backend/internal/notifications"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// Manager handles WebSocket connections and message routing
type Manager struct {
	connections map[string]*Connection
	mu          sync.RWMutex
	hub         *Hub
	upgrader    websocket.Upgrader
	logger      *zap.Logger
	closeOnce   sync.Once
}

// Connection represents a WebSocket client connection
type Connection struct {
	ID          string
	Sites       map[string]struct{}
	Conn        *websocket.Conn
	Send        chan notifications.Message
	ConnectedAt time.Time
	UserAgent   string
	IPAddress   string
	mu          sync.Mutex
}

// wants reports whether msg should reach this connection.
// Connections without subscriptions receive every site's events.
func (c *Connection) wants(msg notifications.Message) bool {
	if msg.Recipient != "" {
		return msg.Recipient == c.ID
	}
	target := msg.Target

	c.mu.Lock()
	defer c.mu.Unlock()

	if target == "" || len(c.Sites) == 0 {
		return true
	}
	_, ok := c.Sites[target]
	return ok
}

// Hub owns the connection set and is the only closer of Send channels
type Hub struct {
	connections map[*Connection]bool
	broadcast   chan notifications.Message
	register    chan *Connection
	unregister  chan *Connection
	stop        chan struct{}
	logger      *zap.Logger
}

// NewManager creates a new WebSocket manager
func NewManager(logger *zap.Logger) *Manager {
	hub := &Hub{
		connections: make(map[*Connection]bool),
		broadcast:   make(chan notifications.Message, 256),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		stop:        make(chan struct{}),
		logger:      logger,
	}

	go hub.run()

	return &Manager{
		connections: make(map[string]*Connection),
		hub:         hub,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleConnection upgrades the request and starts the pumps
func (m *Manager) HandleConnection(w http.ResponseWriter, r *http.Request) (*Connection, error) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Sites:       make(map[string]struct{}),
		Conn:        conn,
		Send:        make(chan notifications.Message, sendBuffer),
		ConnectedAt: time.Now(),
		UserAgent:   r.Header.Get("User-Agent"),
		IPAddress:   r.RemoteAddr,
	}
	for _, site := range r.URL.Query()["site"] {
		if name := dataset.NormalizeName(site); name != "" {
			connection.Sites[name] = struct{}{}
		}
	}

	select {
	case m.hub.register <- connection:
	case <-m.hub.stop:
		conn.Close()
		return nil, fmt.Errorf("websocket manager closed")
	}

	m.mu.Lock()
	m.connections[connection.ID] = connection
	m.mu.Unlock()

	go m.readPump(connection)
	go m.writePump(connection)

	return connection, nil
}

// readPump reads subscription requests until the client goes away
func (m *Manager) readPump(conn *Connection) {
	defer func() {
		m.mu.Lock()
		delete(m.connections, conn.ID)
		m.mu.Unlock()

		select {
		case m.hub.unregister <- conn:
		case <-m.hub.stop:
		}
		conn.Conn.Close()
	}()

	conn.Conn.SetReadLimit(4096)
	conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.Conn.SetPongHandler(func(string) error {
		return conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg notifications.Message
		if err := conn.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.logger.Warn("WebSocket read failed", zap.String("connection_id", conn.ID), zap.Error(err))
			}
			return
		}
		m.handleMessage(conn, &msg)
	}
}

// writePump forwards hub messages and keeps the connection alive
func (m *Manager) writePump(conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (m *Manager) handleMessage(conn *Connection, msg *notifications.Message) {
	switch msg.Type {
	case notifications.WSMessageTypeSubscribe:
		m.handleSubscribe(conn, msg)
	default:
		m.logger.Debug("Ignoring client message", zap.String("type", string(msg.Type)))
	}
}

// handleSubscribe replaces the connection's site filter. Names are
// normalised the same way event targets are.
func (m *Manager) handleSubscribe(conn *Connection, msg *notifications.Message) {
	sites := make(map[string]struct{})
	if raw, ok := msg.Data["sites"].([]any); ok {
		for _, s := range raw {
			if name, ok := s.(string); ok {
				if name = dataset.NormalizeName(name); name != "" {
					sites[name] = struct{}{}
				}
			}
		}
	}

	conn.mu.Lock()
	conn.Sites = sites
	conn.mu.Unlock()

	reply := notifications.Message{
		Type:      notifications.WSMessageTypeStatus,
		Data:      map[string]any{"status": "subscribed", "connection_id": conn.ID, "sites": len(sites)},
		Timestamp: time.Now(),
		Recipient: conn.ID,
	}
	m.Publish(reply)
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.connections[conn] = true
			h.logger.Debug("Connection registered", zap.String("connection_id", conn.ID))

		case conn := <-h.unregister:
			h.drop(conn)

		case message := <-h.broadcast:
			for conn := range h.connections {
				if !conn.wants(message) {
					continue
				}
				select {
				case conn.Send <- message:
				default:
					h.drop(conn)
				}
			}

		case <-h.stop:
			for conn := range h.connections {
				h.drop(conn)
			}
			return
		}
	}
}

func (h *Hub) drop(conn *Connection) {
	if _, ok := h.connections[conn]; !ok {
		return
	}
	delete(h.connections, conn)
	close(conn.Send)
	h.logger.Debug("Connection unregistered", zap.String("connection_id", conn.ID))
}

// Publish queues a message for every interested connection.
// A full queue drops the message rather than blocking the caller.
func (m *Manager) Publish(message notifications.Message) {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	select {
	case m.hub.broadcast <- message:
	default:
		m.logger.Warn("Broadcast channel full, dropping message", zap.String("type", string(message.Type)))
	}
}

// GetConnectionCount returns the number of active connections
func (m *Manager) GetConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// ConnectionInfo represents connection information for monitoring
type ConnectionInfo struct {
	ConnectionID string    `json:"connection_id"`
	Sites        []string  `json:"sites"`
	ConnectedAt  time.Time `json:"connected_at"`
	UserAgent    string    `json:"user_agent"`
	IPAddress    string    `json:"ip_address"`
}

// GetConnectionInfo returns information about all active connections
func (m *Manager) GetConnectionInfo() []ConnectionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := make([]ConnectionInfo, 0, len(m.connections))
	for _, conn := range m.connections {
		conn.mu.Lock()
		sites := make([]string, 0, len(conn.Sites))
		for s := range conn.Sites {
			sites = append(sites, s)
		}
		conn.mu.Unlock()

		info = append(info, ConnectionInfo{
			ConnectionID: conn.ID,
			Sites:        sites,
			ConnectedAt:  conn.ConnectedAt,
			UserAgent:    conn.UserAgent,
			IPAddress:    conn.IPAddress,
		})
	}
	return info
}

// Close stops the hub, which closes every Send channel
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.hub.stop)
	})
}
