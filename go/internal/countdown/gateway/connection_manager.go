package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrManagerClosed is returned for upgrades that arrive after shutdown
var ErrManagerClosed = errors.New("connection manager closed")

// ConnectionManager manages WebSocket connections subscribed to the countdown
type ConnectionManager struct {
	connections map[*Connection]bool
	closed      bool
	mu          sync.RWMutex

	// Upgrader for WebSocket connections
	upgrader websocket.Upgrader

	config ConnectionConfig

	// Event broadcasting
	broadcastCh chan *CountdownEvent

	totalConnections int64
	totalBroadcasts  int64
}

// Connection represents a WebSocket connection to a display client
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	// Connection metadata
	ConnectedAt time.Time
	RemoteAddr  string

	pingMu   sync.Mutex
	lastPing time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  512, // displays only send pings
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  16,
		CheckOrigin: func(r *http.Request) bool {
			// Public marketing page, any origin may watch the clock
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 16
	}
	return &ConnectionManager{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan *CountdownEvent, 64),
	}
}

// Start processes broadcast messages until ctx is cancelled, then closes
// every open connection.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return
		case event := <-cm.broadcastCh:
			cm.handleBroadcast(event)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket. If initial is
// non-nil it is queued before any broadcast reaches the connection.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, initial *CountdownEvent) error {
	if cm.isClosed() {
		http.Error(w, "Service shutting down", http.StatusServiceUnavailable)
		return ErrManagerClosed
	}

	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	now := time.Now()
	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: now,
		RemoteAddr:  r.RemoteAddr,
		lastPing:    now,
	}

	if initial != nil {
		data, err := json.Marshal(initial)
		if err != nil {
			conn.Close()
			return fmt.Errorf("failed to marshal initial event: %w", err)
		}
		connection.Send <- data
	}

	// Shutdown may have started while upgrading
	if !cm.registerConnection(connection) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return ErrManagerClosed
	}

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", connection.RemoteAddr).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.closed {
		return false
	}
	cm.connections[conn] = true
	cm.totalConnections++

	log.Debug().
		Str("connection_id", conn.ID).
		Int("active_connections", len(cm.connections)).
		Msg("connection registered")
	return true
}

func (cm *ConnectionManager) isClosed() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.closed
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn]; exists {
		delete(cm.connections, conn)
		close(conn.Send)

		log.Info().
			Str("connection_id", conn.ID).
			Dur("connected_for", time.Since(conn.ConnectedAt)).
			Msg("connection unregistered")
	}
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.closed = true
	for conn := range cm.connections {
		delete(cm.connections, conn)
		close(conn.Send)
	}
}

// Broadcast queues an event for every connection. Events are dropped when
// the queue is full; the next tick supersedes them anyway.
func (cm *ConnectionManager) Broadcast(event *CountdownEvent) {
	select {
	case cm.broadcastCh <- event:
	default:
		log.Warn().Str("event_type", string(event.Type)).Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) handleBroadcast(event *CountdownEvent) {
	cm.mu.Lock()
	cm.totalBroadcasts++
	// Snapshot the connection set so the lock is not held while sending
	targets := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		targets = append(targets, conn)
	}
	cm.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	// Marshal the event once
	eventData, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		if !cm.trySend(conn, eventData) {
			// Connection is slow/dead, close it
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("event_type", string(event.Type)).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

// trySend performs a non-blocking send while the connection is still
// registered, so a concurrently closed Send channel is never written.
func (cm *ConnectionManager) trySend(conn *Connection, data []byte) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if !cm.connections[conn] {
		return true
	}
	select {
	case conn.Send <- data:
		return true
	default:
		return false
	}
}

// ConnectionCount returns the number of open connections.
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return map[string]interface{}{
		"active_connections": len(cm.connections),
		"total_connections":  cm.totalConnections,
		"total_broadcasts":   cm.totalBroadcasts,
		"broadcast_capacity": cap(cm.broadcastCh),
		"broadcast_usage":    len(cm.broadcastCh),
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames are processed
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.touch()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		// Displays are read-only; client frames are only logged
		log.Debug().
			Str("connection_id", c.ID).
			Int("size", len(message)).
			Msg("received client message")
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

func (c *Connection) touch() {
	c.pingMu.Lock()
	c.lastPing = time.Now()
	c.pingMu.Unlock()
}

// LastPing returns when the client last answered a ping.
func (c *Connection) LastPing() time.Time {
	c.pingMu.Lock()
	defer c.pingMu.Unlock()
	return c.lastPing
}
