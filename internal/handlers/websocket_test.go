package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/hr-portal/internal/chat"
	"github.com/thereayou/hr-portal/internal/database"
	"github.com/thereayou/hr-portal/internal/handlers/dto"
	"github.com/thereayou/hr-portal/internal/middleware"
	"github.com/thereayou/hr-portal/internal/models"
	ws "github.com/thereayou/hr-portal/internal/websocket"
	"github.com/thereayou/hr-portal/pkg/auth"
)

type wsEnv struct {
	engine *chat.Engine
	jwt    *auth.JWTManager
	url    string
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := database.OpenBadger("")
	require.NoError(t, err)

	hub := ws.NewHub(zerolog.Nop(), nil)
	go hub.Run()

	engine := chat.New(store, chat.Options{Notifier: hub, Logger: zerolog.Nop()})
	jwt := auth.NewJWTManager("test-secret", time.Hour)

	r := gin.New()
	r.GET("/ws", middleware.AuthMiddleware(jwt, nil), NewWebSocketHandler(hub, NewFrameHandler(engine, hub), nil).HandleWebSocket)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
		_ = store.Close()
	})

	return &wsEnv{engine: engine, jwt: jwt, url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"}
}

func (e *wsEnv) dial(t *testing.T, user uuid.UUID) *websocket.Conn {
	t.Helper()
	token, err := e.jwt.Generate(user)
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(e.url+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// await reads frames until one of type typ arrives.
func await(t *testing.T, conn *websocket.Conn, typ ws.FrameType) ws.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var frame ws.Frame
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Type == typ {
			return frame
		}
	}
}

func TestWebSocket_SubscribeAndSend(t *testing.T) {
	req := require.New(t)
	env := newWSEnv(t)
	ctx := context.Background()
	admin := uuid.New()

	// Given a room and its admin connected and subscribed
	room, err := env.engine.Rooms.Create(ctx, admin, chat.RoomConfig{Name: "Recruiting"})
	req.NoError(err)
	conn := env.dial(t, admin)
	req.NoError(conn.WriteJSON(ws.Frame{Type: ws.TypeSubscribe, RoomID: &room.ID, RequestID: "sub-1"}))
	ack := await(t, conn, ws.TypeAck)
	req.Equal("sub-1", ack.RequestID)

	// When the admin sends a room message over the socket
	data, err := json.Marshal(dto.SendMessageRequest{Scope: models.ScopeRoom, Target: &room.ID, Content: "standup in 5"})
	req.NoError(err)
	req.NoError(conn.WriteJSON(ws.Frame{Type: ws.TypeSend, RequestID: "send-1", Data: data}))

	// Then it is fanned out as an event and acknowledged, in either order
	var gotEvent bool
	var msg models.Message
	req.NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
	for !gotEvent || msg.ID == uuid.Nil {
		var frame ws.Frame
		req.NoError(conn.ReadJSON(&frame))
		switch {
		case frame.Type == ws.TypeEvent:
			gotEvent = true
		case frame.Type == ws.TypeAck && frame.RequestID == "send-1":
			req.NoError(json.Unmarshal(frame.Data, &msg))
		}
	}
	req.Equal("standup in 5", msg.Content)
}

func TestWebSocket_SubscribeRejectsOutsider(t *testing.T) {
	req := require.New(t)
	env := newWSEnv(t)
	room, err := env.engine.Rooms.Create(context.Background(), uuid.New(), chat.RoomConfig{Name: "Leadership"})
	req.NoError(err)

	conn := env.dial(t, uuid.New())
	req.NoError(conn.WriteJSON(ws.Frame{Type: ws.TypeSubscribe, RoomID: &room.ID, RequestID: "sub-1"}))

	frame := await(t, conn, ws.TypeError)
	var body ws.ErrorBody
	req.NoError(json.Unmarshal(frame.Data, &body))
	req.Equal(string(chat.KindNotMember), body.Kind)
}

func TestWebSocket_RequiresToken(t *testing.T) {
	env := newWSEnv(t)

	_, resp, err := websocket.DefaultDialer.Dial(env.url, nil)

	require.Error(t, err)
	require.Equal(t, 401, resp.StatusCode)
}
