package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/thereayou/hr-portal/internal/chat"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер кадра
	maxFrameSize = 64 * 1024
)

// FrameHandler executes client commands. A returned error is reported back
// to the client as an error frame.
type FrameHandler interface {
	HandleFrame(ctx context.Context, client *Client, frame *Frame) error
}

type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub

	mu     sync.RWMutex
	rooms  map[uuid.UUID]bool
	closed bool
	log    zerolog.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	id := uuid.New()
	return &Client{
		ID:     id,
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Hub:    hub,
		rooms:  make(map[uuid.UUID]bool),
		log:    hub.log.With().Str("client", id.String()).Logger(),
	}
}

// ReadPump читает кадры от клиента
func (c *Client) ReadPump(ctx context.Context, handler FrameHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := c.Conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		frame.UserID = c.UserID

		switch frame.Type {
		case TypePong:
			continue
		case TypePing:
			c.Reply(&frame, TypePong, nil)
			continue
		}

		if err := handler.HandleFrame(ctx, c, &frame); err != nil {
			c.log.Debug().Err(err).Str("type", string(frame.Type)).Msg("frame rejected")
			c.ReplyError(&frame, err)
		}
	}
}

// WritePump отправляет кадры клиенту
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Reply answers a client frame, echoing its request id.
func (c *Client) Reply(req *Frame, typ FrameType, data any) {
	frame := Frame{Type: typ, RoomID: req.RoomID, UserID: c.UserID, RequestID: req.RequestID, Timestamp: time.Now().UTC()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			c.log.Error().Err(err).Msg("reply encode failed")
			return
		}
		frame.Data = raw
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	if !c.enqueue(payload) {
		c.log.Warn().Err(ErrClientQueueFull).Msg("reply dropped")
	}
}

// ErrorBody is the payload of error frames.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

// ReplyError describes err to the client, with kind and field for engine errors.
func (c *Client) ReplyError(req *Frame, err error) {
	body := ErrorBody{Error: err.Error()}
	var chatErr *chat.Error
	if errors.As(err, &chatErr) {
		body.Kind, body.Field = string(chatErr.Kind), chatErr.Field
		if chatErr.Kind == chat.KindUnavailable {
			body.Error = "service temporarily unavailable"
		}
	}
	c.Reply(req, TypeError, body)
}

func (c *Client) enqueue(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
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
		close(c.Send)
	}
}

func (c *Client) setSubscribed(roomID uuid.UUID, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.rooms[roomID] = true
	} else {
		delete(c.rooms, roomID)
	}
}

func (c *Client) IsSubscribed(roomID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[roomID]
}

func (c *Client) subscriptions() map[uuid.UUID]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[uuid.UUID]bool, len(c.rooms))
	for id := range c.rooms {
		out[id] = true
	}
	return out
}
