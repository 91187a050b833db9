package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/thereayou/hr-portal/internal/chat"
	"github.com/thereayou/hr-portal/internal/handlers/dto"
	"github.com/thereayou/hr-portal/internal/middleware"
	"github.com/thereayou/hr-portal/internal/models"
)

type RoomHandler struct {
	engine *chat.Engine
}

func NewRoomHandler(engine *chat.Engine) *RoomHandler {
	return &RoomHandler{engine: engine}
}

// CreateRoom создает новую комнату, создатель становится администратором
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req chat.RoomConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "", err.Error())
		return
	}

	room, err := h.engine.Rooms.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.engine.Decorate(c.Request.Context(), room)[0])
}

// ListPublicRooms возвращает активные публичные комнаты
func (h *RoomHandler) ListPublicRooms(c *gin.Context) {
	limit, ok := listLimit(c)
	if !ok {
		return
	}
	rooms, err := h.engine.Rooms.ListPublic(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.roomsResponse(c, rooms))
}

// ListMyRooms возвращает комнаты текущего пользователя
func (h *RoomHandler) ListMyRooms(c *gin.Context) {
	limit, ok := listLimit(c)
	if !ok {
		return
	}
	rooms, err := h.engine.Rooms.ListFor(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.roomsResponse(c, rooms))
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	room, err := h.engine.Rooms.Get(c.Request.Context(), roomID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.engine.Decorate(c.Request.Context(), room)[0])
}

// UpdateRoom применяет частичное изменение настроек
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch chat.RoomPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "", err.Error())
		return
	}

	room, err := h.engine.Rooms.UpdateSettings(c.Request.Context(), roomID, middleware.UserID(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.engine.Decorate(c.Request.Context(), room)[0])
}

func (h *RoomHandler) DeactivateRoom(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	room, err := h.engine.Rooms.Deactivate(c.Request.Context(), roomID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// JoinRoom добавляет текущего пользователя в комнату
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.JoinRoomRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "", err.Error())
			return
		}
	}

	room, err := h.engine.Members.Join(c.Request.Context(), roomID, middleware.UserID(c), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.engine.Decorate(c.Request.Context(), room)[0])
}

// LeaveRoom удаляет текущего пользователя из комнаты
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	room, err := h.engine.Members.Leave(c.Request.Context(), roomID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": room.ID, "admin": room.Admin, "memberCount": room.MemberCount()})
}

func (h *RoomHandler) InviteMember(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId", err.Error())
		return
	}

	room, err := h.engine.Members.Invite(c.Request.Context(), roomID, middleware.UserID(c), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.engine.Decorate(c.Request.Context(), room)[0])
}

// SetMemberRole меняет роль участника
func (h *RoomHandler) SetMemberRole(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	targetID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	var req dto.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "role", err.Error())
		return
	}

	room, err := h.engine.Members.SetRole(c.Request.Context(), roomID, middleware.UserID(c), targetID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.engine.Decorate(c.Request.Context(), room)[0])
}

// ListMembers возвращает участников с профилями и статусом онлайн
func (h *RoomHandler) ListMembers(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	room, err := h.engine.Members.List(c.Request.Context(), roomID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	view := h.engine.Decorate(c.Request.Context(), room)[0]
	c.JSON(http.StatusOK, dto.MembersResponse{RoomID: room.ID, MemberCount: view.MemberCount, Members: view.Members})
}

func (h *RoomHandler) TouchPresence(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	member, err := h.engine.Members.TouchPresence(c.Request.Context(), roomID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *RoomHandler) roomsResponse(c *gin.Context, rooms []models.Room) dto.RoomsResponse {
	ptrs := lo.Map(rooms, func(_ models.Room, i int) *models.Room { return &rooms[i] })
	return dto.RoomsResponse{Rooms: h.engine.Decorate(c.Request.Context(), ptrs...)}
}
