package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/hr-portal/internal/chat"
	"github.com/thereayou/hr-portal/internal/database"
	"github.com/thereayou/hr-portal/internal/handlers/dto"
	"github.com/thereayou/hr-portal/internal/middleware"
	"github.com/thereayou/hr-portal/internal/models"
	"github.com/thereayou/hr-portal/pkg/auth"
)

type api struct {
	t      *testing.T
	router *gin.Engine
	jwt    *auth.JWTManager
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := database.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine := chat.New(store, chat.Options{UniqueRoomNames: true, Logger: zerolog.Nop()})
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	rooms := NewRoomHandler(engine)
	messages := NewMessageHandler(engine, 50)

	r := gin.New()
	r.GET("/healthz", NewHealthHandler(engine).Health)
	g := r.Group("/api/v1", middleware.AuthMiddleware(jwt, nil))
	g.POST("/rooms", rooms.CreateRoom)
	g.GET("/rooms", rooms.ListPublicRooms)
	g.GET("/rooms/mine", rooms.ListMyRooms)
	g.GET("/rooms/:id", rooms.GetRoom)
	g.PATCH("/rooms/:id", rooms.UpdateRoom)
	g.POST("/rooms/:id/join", rooms.JoinRoom)
	g.POST("/rooms/:id/leave", rooms.LeaveRoom)
	g.PUT("/rooms/:id/members/:userId/role", rooms.SetMemberRole)
	g.GET("/rooms/:id/members", rooms.ListMembers)
	g.GET("/rooms/:id/messages", messages.GetRoomMessages)
	g.POST("/messages", messages.SendMessage)
	g.POST("/messages/:id/read", messages.MarkRead)

	return &api{t: t, router: r, jwt: jwt}
}

func (a *api) do(method, path string, user uuid.UUID, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		token, err := a.jwt.Generate(user)
		require.NoError(a.t, err)
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type roomBody struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Admin       uuid.UUID `json:"admin"`
	MemberCount int       `json:"memberCount"`
}

func TestRoomLifecycle(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)
	admin, bob, carol := uuid.New(), uuid.New(), uuid.New()

	// Given a room for two
	w := a.do(http.MethodPost, "/api/v1/rooms", admin, chat.RoomConfig{Name: "Benefits Q&A", MaxMembers: 2})
	req.Equal(http.StatusCreated, w.Code, w.Body.String())
	room := decode[roomBody](t, w)
	req.Equal("Benefits Q&A", room.Name)
	req.Equal(1, room.MemberCount)

	// When bob joins
	w = a.do(http.MethodPost, "/api/v1/rooms/"+room.ID.String()+"/join", bob, nil)
	req.Equal(http.StatusOK, w.Code, w.Body.String())
	req.Equal(2, decode[roomBody](t, w).MemberCount)

	// Then carol is turned away
	w = a.do(http.MethodPost, "/api/v1/rooms/"+room.ID.String()+"/join", carol, nil)
	req.Equal(http.StatusConflict, w.Code)
	errBody := decode[dto.ErrorResponse](t, w)
	req.Equal(string(chat.KindRoomFull), errBody.Kind)
	req.Equal("room", errBody.Field)

	// And bob cannot promote himself
	w = a.do(http.MethodPut, "/api/v1/rooms/"+room.ID.String()+"/members/"+bob.String()+"/role", bob, dto.SetRoleRequest{Role: models.RoleModerator})
	req.Equal(http.StatusForbidden, w.Code)
	req.Equal(string(chat.KindNotAuthorized), decode[dto.ErrorResponse](t, w).Kind)

	// And the members listing shows both
	w = a.do(http.MethodGet, "/api/v1/rooms/"+room.ID.String()+"/members", carol, nil)
	req.Equal(http.StatusOK, w.Code)
	req.Equal(2, decode[dto.MembersResponse](t, w).MemberCount)
}

func TestCreateRoom_PartialSettings(t *testing.T) {
	a := newAPI(t)
	body := map[string]any{"name": "Relocation", "settings": map[string]any{"moderationEnabled": true}}

	w := a.do(http.MethodPost, "/api/v1/rooms", uuid.New(), body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	room := decode[struct {
		Settings models.RoomSettings `json:"settings"`
	}](t, w)
	require.True(t, room.Settings.ModerationEnabled)
	require.True(t, room.Settings.AllowFileSharing)
	require.True(t, room.Settings.AllowImageSharing)
	require.True(t, room.Settings.AllowMemberInvites)
}

func TestCreateRoom_Errors(t *testing.T) {
	a := newAPI(t)
	admin := uuid.New()

	w := a.do(http.MethodPost, "/api/v1/rooms", admin, chat.RoomConfig{Name: "x", MaxMembers: 5000})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[dto.ErrorResponse](t, w)
	require.Equal(t, string(chat.KindInvalidConfig), body.Kind)
	require.Equal(t, "maxMembers", body.Field)

	w = a.do(http.MethodPost, "/api/v1/rooms", admin, chat.RoomConfig{Name: "Payroll"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = a.do(http.MethodPost, "/api/v1/rooms", uuid.New(), chat.RoomConfig{Name: "payroll"})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, string(chat.KindNameConflict), decode[dto.ErrorResponse](t, w).Kind)

	w = a.do(http.MethodPost, "/api/v1/rooms", uuid.Nil, chat.RoomConfig{Name: "anon"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/v1/rooms/not-a-uuid", admin, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/api/v1/rooms/"+uuid.NewString(), admin, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessages(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)
	admin, outsider := uuid.New(), uuid.New()
	room := decode[roomBody](t, a.do(http.MethodPost, "/api/v1/rooms", admin, chat.RoomConfig{Name: "Onboarding"}))

	w := a.do(http.MethodPost, "/api/v1/messages", outsider, dto.SendMessageRequest{Scope: models.ScopeRoom, Target: &room.ID, Content: "hi"})
	req.Equal(http.StatusForbidden, w.Code)
	req.Equal(string(chat.KindNotMember), decode[dto.ErrorResponse](t, w).Kind)

	w = a.do(http.MethodPost, "/api/v1/messages", admin, dto.SendMessageRequest{Scope: models.ScopeRoom, Target: &room.ID, Content: "welcome"})
	req.Equal(http.StatusCreated, w.Code, w.Body.String())
	msg := decode[models.Message](t, w)
	req.Equal(models.ScopeRoom, msg.Scope)

	w = a.do(http.MethodGet, "/api/v1/rooms/"+room.ID.String()+"/messages?limit=10", admin, nil)
	req.Equal(http.StatusOK, w.Code)
	history := decode[dto.MessagesResponse](t, w)
	req.Len(history.Messages, 1)
	req.False(history.HasMore)

	w = a.do(http.MethodGet, "/api/v1/rooms/"+room.ID.String()+"/messages?before=yesterday", admin, nil)
	req.Equal(http.StatusBadRequest, w.Code)

	// private message read twice
	bob := uuid.New()
	w = a.do(http.MethodPost, "/api/v1/messages", admin, dto.SendMessageRequest{Scope: models.ScopePrivate, Target: &bob, Content: "ping"})
	req.Equal(http.StatusCreated, w.Code)
	dm := decode[models.Message](t, w)
	first := decode[models.Message](t, a.do(http.MethodPost, "/api/v1/messages/"+dm.ID.String()+"/read", bob, nil))
	second := decode[models.Message](t, a.do(http.MethodPost, "/api/v1/messages/"+dm.ID.String()+"/read", bob, nil))
	req.True(first.IsRead)
	req.True(first.ReadAt.Equal(*second.ReadAt))
}

func TestHealth(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodGet, "/healthz", uuid.Nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
}
