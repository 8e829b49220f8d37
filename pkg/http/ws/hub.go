package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	writeWait  = 10 * time.Second
)

// Sender is what the hub needs from a connection.
type Sender interface {
	Send(msg Message) error
	Close()
}

// Hub tracks WebSocket connections and the assessment sessions they follow.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]Sender
	sessions    map[string]map[uuid.UUID]struct{} // session key -> connection ids
	memberOf    map[uuid.UUID]string
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]Sender),
		sessions:    make(map[string]map[uuid.UUID]struct{}),
		memberOf:    make(map[uuid.UUID]string),
		logger:      logger.With().Str("component", "ws_hub").Logger(),
	}
}

// SessionKey identifies one student's run through one test.
func SessionKey(studentID, testID string) string {
	return studentID + "|" + testID
}

// Subscribe registers conn under id and attaches it to a session. A
// connection follows exactly one session.
func (h *Hub) Subscribe(id uuid.UUID, session string, conn Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.connections[id]; exists {
		h.detach(id)
		old.Close()
	}

	h.connections[id] = conn
	members, ok := h.sessions[session]
	if !ok {
		members = make(map[uuid.UUID]struct{})
		h.sessions[session] = members
	}
	members[id] = struct{}{}
	h.memberOf[id] = session
	h.logger.Debug().Str("conn_id", id.String()).Str("session", session).Msg("connection subscribed")
}

// Unsubscribe closes and forgets a connection.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, exists := h.connections[id]
	if !exists {
		return
	}
	h.detach(id)
	conn.Close()
	h.logger.Debug().Str("conn_id", id.String()).Msg("connection unsubscribed")
}

// detach must be called with mu held.
func (h *Hub) detach(id uuid.UUID) {
	if session, ok := h.memberOf[id]; ok {
		members := h.sessions[session]
		delete(members, id)
		if len(members) == 0 {
			delete(h.sessions, session)
		}
		delete(h.memberOf, id)
	}
	delete(h.connections, id)
}

// BroadcastToSession sends msg to every connection following session and
// returns how many connections accepted it.
func (h *Hub) BroadcastToSession(session string, msg Message) (int, error) {
	h.mu.RLock()
	targets := make([]Sender, 0, len(h.sessions[session]))
	for id := range h.sessions[session] {
		targets = append(targets, h.connections[id])
	}
	h.mu.RUnlock()

	delivered := 0
	var firstErr error
	for _, conn := range targets {
		if err := conn.Send(msg); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			h.logger.Warn().Err(err).Str("session", session).Msg("broadcast_send_failed")
			continue
		}
		delivered++
	}
	return delivered, firstErr
}

// SessionSize reports how many connections follow session.
func (h *Hub) SessionSize(session string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[session])
}

// Connection represents a WebSocket connection with send queue.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan Message, 64),
		logger: logger,
	}
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump sends queued messages and keeps the connection alive with pings.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warn().Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump receives messages and calls the handler until the peer leaves.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.conn.Close()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			break
		}

		if err := handler(msg); err != nil {
			c.logger.Warn().Err(err).Msg("message handler error")
		}
	}
}

var (
	ErrConnectionClosed = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull    = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Upgrader handles WebSocket upgrades for the public endpoints.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}
