package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 256
	maxMessage = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origins are checked by middleware.WebSocketCORSCheck
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Sessions is the part of *game.Manager the hub needs.
type Sessions interface {
	Get(token string) (*game.Session, error)
	Touch(token string)
	Reset(token string) (game.EconomyState, error)
}

// Client is one renderer connection watching a session.
type Client struct {
	id       string
	conn     *websocket.Conn
	token    string
	playerID int
	send     chan []byte
	hub      *Hub
	once     sync.Once
}

func (c *Client) closeSend() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans session frames out to the renderers watching them.
type Hub struct {
	sessions Sessions
	rooms    map[string]map[string]*Client // session token -> client id -> Client
	mu       sync.RWMutex
}

// NewHub creates a new Hub
func NewHub(sessions Sessions) *Hub {
	return &Hub{
		sessions: sessions,
		rooms:    make(map[string]map[string]*Client),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.token]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[c.token] = room
	}
	room[c.id] = c
	n := len(room)
	h.mu.Unlock()

	log.Info().Str("session", c.token).Str("client", c.id).Int("watchers", n).Msg("[WS] client connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.token]; ok {
		if cur, ok := room[c.id]; ok && cur == c {
			delete(room, c.id)
			if len(room) == 0 {
				delete(h.rooms, c.token)
			}
		}
	}
	h.mu.Unlock()
	c.closeSend()

	log.Info().Str("session", c.token).Str("client", c.id).Msg("[WS] client disconnected")
}

// Watchers returns how many clients watch token.
func (h *Hub) Watchers(token string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[token])
}

// Broadcast sends a message to every client watching token.
func (h *Hub) Broadcast(token string, message interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[token]
	if !ok || len(room) == 0 {
		return
	}
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("session", token).Msg("[WS] marshal failed")
		return
	}
	for _, c := range room {
		select {
		case c.send <- data:
		default:
			// Client's buffer is full
			log.Warn().Str("session", token).Str("client", c.id).Msg("[WS] send buffer full, dropping message")
		}
	}
}

// OnFrame is installed as the manager's frame hook.
func (h *Hub) OnFrame(f game.Frame) {
	h.Broadcast(f.Token, frameMessage{Type: TypeFrame, Frame: f})
}

// OnSettle is installed as the manager's settle hook.
func (h *Hub) OnSettle(token string, results []game.Result) {
	h.Broadcast(token, settledMessage{Type: TypeSettled, Results: results})
}

// OnClose tells watchers the session ended and disconnects them.
func (h *Hub) OnClose(summary game.Summary) {
	h.Broadcast(summary.Token, closedMessage{Type: TypeSessionClosed, Summary: summary})

	h.mu.Lock()
	room := h.rooms[summary.Token]
	delete(h.rooms, summary.Token)
	h.mu.Unlock()

	for _, c := range room {
		c.closeSend()
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Session closed or client unregistered
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("client", c.id).Msg("[WS] write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("client", c.id).Msg("[WS] ping failed")
				return
			}
		}
	}
}

// reply queues a message for this client only.
func (c *Client) reply(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("client", c.id).Msg("[WS] marshal failed")
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	// send is closed only after the client leaves its room
	if c.hub.rooms[c.token][c.id] != c {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("client", c.id).Msg("[WS] reply dropped, buffer full")
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.reply(errorMessage{Type: TypeError, Message: message})
}
