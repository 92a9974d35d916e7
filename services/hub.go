package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"truthordare/logger"
	"truthordare/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Hub keeps the websocket clients subscribed to each room. Run owns the
// subscription map; everything else talks to it through channels.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan roomMessage
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.RWMutex
	log        zerolog.Logger
}

type Client struct {
	hub    *Hub
	id     string
	roomID string
	userID string
	socket *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type roomMessage struct {
	roomID string
	data   []byte
	// userID restricts a kick to one user's sockets.
	userID string
	kick   bool
	close  bool
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomMessage, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		log:        logger.Component("hub"),
	}
}

func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			subs, ok := h.rooms[client.roomID]
			if !ok {
				subs = make(map[*Client]bool)
				h.rooms[client.roomID] = subs
			}
			subs[client] = true
			h.mutex.Unlock()
			metrics.WsConnections.Inc()
			h.log.Debug().Str("client", client.id).Str("room_id", client.roomID).Str("user_id", client.userID).Msg("client registered")

		case client := <-h.unregister:
			h.mutex.Lock()
			h.removeLocked(client)
			h.mutex.Unlock()

		case msg := <-h.broadcast:
			h.mutex.Lock()
			h.deliverLocked(msg)
			h.mutex.Unlock()

		case <-h.stop:
			h.mutex.Lock()
			for _, subs := range h.rooms {
				for client := range subs {
					h.removeLocked(client)
				}
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Stop closes every client and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func (h *Hub) deliverLocked(msg roomMessage) {
	subs := h.rooms[msg.roomID]
	for client := range subs {
		switch {
		case msg.close:
			h.removeLocked(client)
		case msg.kick:
			if client.userID == msg.userID {
				h.removeLocked(client)
			}
		default:
			if !client.enqueue(msg.data) {
				h.log.Warn().Str("client", client.id).Str("room_id", client.roomID).Msg("send buffer full, dropping client")
				h.removeLocked(client)
			}
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	subs, ok := h.rooms[client.roomID]
	if !ok || !subs[client] {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.rooms, client.roomID)
	}
	client.close()
	metrics.WsConnections.Dec()
	h.log.Debug().Str("client", client.id).Str("room_id", client.roomID).Msg("client unregistered")
}

func (h *Hub) enqueue(msg roomMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.stop:
	default:
		h.log.Warn().Str("room_id", msg.roomID).Msg("hub backlog full, dropping room event")
	}
}

// Publish sends an event to every client in the room without blocking.
func (h *Hub) Publish(roomID, eventType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: eventType, Payload: payload})
	if err != nil {
		h.log.Error().Err(err).Str("type", eventType).Msg("failed to marshal room event")
		return
	}
	h.enqueue(roomMessage{roomID: roomID, data: data})
}

func (h *Hub) DisconnectUser(roomID, userID string) {
	h.enqueue(roomMessage{roomID: roomID, userID: userID, kick: true})
}

// CloseRoom is queued behind earlier events, so a final event published
// before it still reaches the clients.
func (h *Hub) CloseRoom(roomID string) {
	h.enqueue(roomMessage{roomID: roomID, close: true})
}

// ConnectedUsers lists the users with an open socket in the room.
func (h *Hub) ConnectedUsers(roomID string) []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	seen := make(map[string]bool)
	users := make([]string, 0)
	for client := range h.rooms[roomID] {
		if !seen[client.userID] {
			seen[client.userID] = true
			users = append(users, client.userID)
		}
	}
	return users
}

// Attach registers an upgraded connection and starts its pumps.
func (h *Hub) Attach(conn *websocket.Conn, roomID, userID string) *Client {
	client := newClient(h, roomID, userID)
	client.socket = conn

	select {
	case h.register <- client:
	case <-h.stop:
		conn.Close()
		return client
	}

	go client.writePump()
	go client.readPump()
	return client
}

func newClient(h *Hub, roomID, userID string) *Client {
	return &Client{
		hub:    h,
		id:     uuid.NewString(),
		roomID: roomID,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
	}
}

// enqueue reports false when the client's buffer is full.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stop:
		}
		c.socket.Close()
	}()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug().Err(err).Str("client", c.id).Msg("websocket read error")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		data, _ := json.Marshal(Message{Type: "pong", Payload: "pong"})
		c.enqueue(data)
	default:
		c.hub.log.Debug().Str("type", msg.Type).Str("client", c.id).Msg("ignoring client message")
	}
}
