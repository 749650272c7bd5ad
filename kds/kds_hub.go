package kds

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/table-reservations/models"
	"github.com/yeremiapane/table-reservations/utils"
)

const writeWait = 5 * time.Second

// Hub keeps the websocket connections of the staff dashboards (floor staff,
// host stand, admin) and pushes every engine event to them.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.Mutex
}

// client serializes writes to one connection; gorilla allows a single writer.
type client struct {
	role string
	mu   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*client)}
}

// RegisterClient adds a connection with the role of its user.
func (h *Hub) RegisterClient(conn *websocket.Conn, role string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = &client{role: role}
	utils.InfoLogger.Printf("Dashboard connected: role=%s clients=%d", role, len(h.clients))
}

// UnregisterClient drops and closes a connection.
func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	conn.Close()
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Publish broadcasts the event to every connected dashboard. A client whose
// write fails is disconnected; that is not an error for the caller. Writes
// happen outside the hub lock so one slow dashboard does not block the
// others from registering or receiving.
func (h *Hub) Publish(_ context.Context, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mutex.Lock()
	targets := make(map[*websocket.Conn]*client, len(h.clients))
	for conn, c := range h.clients {
		targets[conn] = c
	}
	h.mutex.Unlock()

	for conn, c := range targets {
		if err := c.write(conn, data); err != nil {
			utils.ErrorLogger.Errorf("Error sending %s to %s client: %v", event.Type, c.role, err)
			h.UnregisterClient(conn)
		}
	}
	return nil
}

func (c *client) write(conn *websocket.Conn, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn, c := range h.clients {
		c.mu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.mu.Unlock()
		conn.Close()
		delete(h.clients, conn)
	}
}
