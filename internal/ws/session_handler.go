package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/playmatatu/pachinko/internal/middleware"
	"github.com/rs/zerolog/log"
)

// Message types
const (
	TypeLaunch        = "launch"
	TypeReset         = "reset"
	TypeGetState      = "get_state"
	TypeFrame         = "frame"
	TypeState         = "state"
	TypeLaunched      = "launched"
	TypeResetDone     = "reset_done"
	TypeSettled       = "settled"
	TypeSessionClosed = "session_closed"
	TypeError         = "error"
)

// WSMessage is an inbound client message.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type LaunchData struct {
	Power *float64 `json:"power"`
}

type frameMessage struct {
	Type  string     `json:"type"`
	Frame game.Frame `json:"frame"`
}

type settledMessage struct {
	Type    string        `json:"type"`
	Results []game.Result `json:"results"`
}

type closedMessage struct {
	Type    string       `json:"type"`
	Summary game.Summary `json:"summary"`
}

type launchedMessage struct {
	Type    string            `json:"type"`
	BallID  game.BallID       `json:"ball_id"`
	Economy game.EconomyState `json:"economy"`
}

type resetMessage struct {
	Type    string            `json:"type"`
	Economy game.EconomyState `json:"economy"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// HandleWebSocket attaches a renderer to the session named by :token. The
// caller must own the session.
// GET /api/v1/sessions/:token/ws
func (h *Hub) HandleWebSocket(c *gin.Context) {
	playerID, ok := middleware.PlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	token := c.Param("token")
	s, err := h.sessions.Get(token)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if s.PlayerID != playerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "session belongs to another player"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", token).Msg("[WS] upgrade failed")
		return
	}

	client := &Client{
		id:       uuid.NewString(),
		conn:     conn,
		token:    token,
		playerID: playerID,
		send:     make(chan []byte, sendBuffer),
		hub:      h,
	}
	h.register(client)
	h.sessions.Touch(token)
	client.reply(frameMessage{Type: TypeState, Frame: s.Snapshot()})

	go client.writePump()
	go client.readPump()
}

// readPump reads client messages until the connection closes.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("client", c.id).Msg("[WS] unexpected close")
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("invalid message")
			continue
		}
		c.hub.sessions.Touch(c.token)
		c.handleMessage(msg)
	}
}

// handleMessage processes one inbound message.
func (c *Client) handleMessage(msg WSMessage) {
	s, err := c.hub.sessions.Get(c.token)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	switch msg.Type {
	case TypeLaunch:
		power := s.Config().DefaultPower
		if len(msg.Data) > 0 {
			var data LaunchData
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.sendError("invalid launch data")
				return
			}
			if data.Power != nil {
				power = *data.Power
			}
		}
		id, err := s.Launch(power)
		if err != nil {
			if !errors.Is(err, game.ErrLaunchCooldown) {
				log.Debug().Err(err).Str("session", c.token).Msg("[WS] launch rejected")
			}
			c.sendError(err.Error())
			return
		}
		c.reply(launchedMessage{Type: TypeLaunched, BallID: id, Economy: s.Economy()})

	case TypeReset:
		st, err := c.hub.sessions.Reset(c.token)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.hub.Broadcast(c.token, resetMessage{Type: TypeResetDone, Economy: st})

	case TypeGetState:
		c.reply(frameMessage{Type: TypeState, Frame: s.Snapshot()})

	default:
		c.sendError("unknown message type")
	}
}
