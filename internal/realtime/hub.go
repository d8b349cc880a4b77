package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Client-originated event names.
const (
	EventJoinRoom      = "join_room"
	EventSendMessage   = "send_message"
	EventApplicantSend = "applicant-data"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 32
)

// Hub fans events out to websocket clients grouped in rooms. It satisfies
// Notifier for single-instance deployments.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	upstream Notifier
	log      *log.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	room string
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewHub builds a hub. allowOrigin decides whether a browser origin may
// connect; requests without an Origin header are always accepted.
func NewHub(logger *log.Logger, allowOrigin func(string) bool) *Hub {
	h := &Hub{
		clients: make(map[*client]struct{}),
		log:     logger.WithPrefix("realtime"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowOrigin == nil || allowOrigin(origin)
		},
	}
	return h
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("client connected", "remote", r.RemoteAddr)

	go h.writePump(c)
	h.readPump(c)
}

// Publish delivers ev to the local clients.
func (h *Hub) Publish(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.deliver(ev.Room, data)
	return nil
}

// SetUpstream routes client-originated events through n instead of straight to
// the local clients. n is expected to deliver them back to this hub, as the
// Redis relay does, so every instance sees them.
func (h *Hub) SetUpstream(n Notifier) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.upstream = n
}

// Members returns how many clients are in room.
func (h *Hub) Members(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.room == room {
			n++
		}
	}
	return n
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.drop(c)
	}
}

func (h *Hub) deliver(room string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if room != "" && c.room != room {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.log.Warn("dropping slow client")
			h.drop(c)
		}
	}
}

// drop must be called with h.mu held.
func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		h.drop(c)
		h.mu.Unlock()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket read", "err", err)
			}
			return
		}
		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.log.Debug("ignoring malformed message", "err", err)
			continue
		}
		h.handle(c, msg)
	}
}

func (h *Hub) handle(c *client, msg inbound) {
	switch msg.Event {
	case EventJoinRoom:
		var room string
		if err := json.Unmarshal(msg.Data, &room); err != nil || room == "" {
			return
		}
		h.mu.Lock()
		c.room = room
		h.mu.Unlock()
		h.log.Debug("client joined room", "room", room)
	case EventSendMessage:
		h.forward(Event{Name: EventReceiveMessage, Payload: msg.Data})
	case EventApplicantSend:
		h.forward(Event{Name: EventApplicantData, Payload: msg.Data})
	default:
		h.log.Debug("ignoring unknown event", "event", msg.Event)
	}
}

func (h *Hub) forward(ev Event) {
	h.mu.RLock()
	n := h.upstream
	h.mu.RUnlock()
	if n == nil {
		n = h
	}
	if err := n.Publish(context.Background(), ev); err != nil {
		h.log.Warn("forward client event", "event", ev.Name, "err", err)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
