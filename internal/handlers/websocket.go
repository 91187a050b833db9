package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereayou/hr-portal/internal/chat"
	"github.com/thereayou/hr-portal/internal/handlers/dto"
	"github.com/thereayou/hr-portal/internal/middleware"
	ws "github.com/thereayou/hr-portal/internal/websocket"
)

// WebSocketHandler управляет WebSocket соединениями
type WebSocketHandler struct {
	hub      *ws.Hub
	frames   *FrameHandler
	upgrader websocket.Upgrader
}

// NewWebSocketHandler создает новый WebSocket handler. allowedOrigins empty
// accepts any origin.
func NewWebSocketHandler(hub *ws.Hub, frames *FrameHandler, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		frames: frames,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, o := range allowedOrigins {
					if o == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// HandleWebSocket обрабатывает WebSocket соединения
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := middleware.UserID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(context.Background(), h.frames)
}

// FrameHandler executes websocket commands against the engine.
type FrameHandler struct {
	engine *chat.Engine
	hub    *ws.Hub
}

func NewFrameHandler(engine *chat.Engine, hub *ws.Hub) *FrameHandler {
	return &FrameHandler{engine: engine, hub: hub}
}

func (h *FrameHandler) HandleFrame(ctx context.Context, client *ws.Client, frame *ws.Frame) error {
	switch frame.Type {
	case ws.TypeSubscribe:
		return h.subscribe(ctx, client, frame)
	case ws.TypeUnsubscribe:
		if frame.RoomID == nil {
			return ws.ErrInvalidFrame
		}
		h.hub.Unsubscribe(client, *frame.RoomID)
		client.Reply(frame, ws.TypeAck, nil)
		return nil
	case ws.TypeSend:
		return h.send(ctx, client, frame)
	case ws.TypeRead:
		return h.read(ctx, client, frame)
	case ws.TypeEdit:
		return h.edit(ctx, client, frame)
	case ws.TypePresence:
		if frame.RoomID == nil {
			return ws.ErrInvalidFrame
		}
		member, err := h.engine.Members.TouchPresence(ctx, *frame.RoomID, client.UserID)
		if err != nil {
			return err
		}
		client.Reply(frame, ws.TypeAck, member)
		return nil
	default:
		return ws.ErrUnknownFrame
	}
}

// subscribe attaches the connection to a room's event stream. Only members
// may listen.
func (h *FrameHandler) subscribe(ctx context.Context, client *ws.Client, frame *ws.Frame) error {
	if frame.RoomID == nil {
		return ws.ErrInvalidFrame
	}
	room, err := h.engine.Members.List(ctx, *frame.RoomID, client.UserID)
	if err != nil {
		return err
	}
	if !room.IsMember(client.UserID) {
		return chat.ErrNotMember
	}
	h.hub.Subscribe(client, room.ID)
	if _, err := h.engine.Members.TouchPresence(ctx, room.ID, client.UserID); err != nil {
		return err
	}
	client.Reply(frame, ws.TypeAck, nil)
	return nil
}

// send persists the message; delivery happens through the hub's event fanout.
func (h *FrameHandler) send(ctx context.Context, client *ws.Client, frame *ws.Frame) error {
	var req dto.SendMessageRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		return ws.ErrInvalidFrame
	}
	msg, err := h.engine.Messages.Send(ctx, chat.SendRequest{
		SenderID:    client.UserID,
		Scope:       req.Scope,
		Target:      req.Target,
		Content:     req.Content,
		MessageType: req.MessageType,
		File:        req.File,
	})
	if err != nil {
		return err
	}
	client.Reply(frame, ws.TypeAck, msg)
	return nil
}

func (h *FrameHandler) read(ctx context.Context, client *ws.Client, frame *ws.Frame) error {
	var req dto.ReadMessageRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		return ws.ErrInvalidFrame
	}
	msg, err := h.engine.Messages.MarkRead(ctx, req.MessageID, client.UserID)
	if err != nil {
		return err
	}
	client.Reply(frame, ws.TypeAck, msg)
	return nil
}

func (h *FrameHandler) edit(ctx context.Context, client *ws.Client, frame *ws.Frame) error {
	var req dto.EditMessageRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		return ws.ErrInvalidFrame
	}
	msg, err := h.engine.Messages.Edit(ctx, req.MessageID, client.UserID, req.Content)
	if err != nil {
		return err
	}
	client.Reply(frame, ws.TypeAck, msg)
	return nil
}
