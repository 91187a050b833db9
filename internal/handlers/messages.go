package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/hr-portal/internal/chat"
	"github.com/thereayou/hr-portal/internal/handlers/dto"
	"github.com/thereayou/hr-portal/internal/middleware"
	"github.com/thereayou/hr-portal/internal/models"
)

type MessageHandler struct {
	engine       *chat.Engine
	historyLimit int
}

func NewMessageHandler(engine *chat.Engine, historyLimit int) *MessageHandler {
	return &MessageHandler{engine: engine, historyLimit: historyLimit}
}

// SendMessage отправляет сообщение в глобальный, личный или комнатный канал
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "", err.Error())
		return
	}

	msg, err := h.engine.Messages.Send(c.Request.Context(), chat.SendRequest{
		SenderID:    middleware.UserID(c),
		Scope:       req.Scope,
		Target:      req.Target,
		Content:     req.Content,
		MessageType: req.MessageType,
		File:        req.File,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	messageID, ok := paramID(c, "id")
	if !ok {
		return
	}
	msg, err := h.engine.Messages.MarkRead(c.Request.Context(), messageID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// EditMessage редактирует сообщение, доступно только автору
func (h *MessageHandler) EditMessage(c *gin.Context) {
	messageID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "", err.Error())
		return
	}

	msg, err := h.engine.Messages.Edit(c.Request.Context(), messageID, middleware.UserID(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// GetRoomMessages получает историю сообщений комнаты
func (h *MessageHandler) GetRoomMessages(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	q, ok := historyQuery(c, h.historyLimit)
	if !ok {
		return
	}
	messages, err := h.engine.Messages.RoomHistory(c.Request.Context(), roomID, middleware.UserID(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondHistory(c, messages, q)
}

// GetConversation получает личную переписку с пользователем
func (h *MessageHandler) GetConversation(c *gin.Context) {
	otherID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	q, ok := historyQuery(c, h.historyLimit)
	if !ok {
		return
	}
	messages, err := h.engine.Messages.Conversation(c.Request.Context(), middleware.UserID(c), otherID, q)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondHistory(c, messages, q)
}

func (h *MessageHandler) GetGlobalMessages(c *gin.Context) {
	q, ok := historyQuery(c, h.historyLimit)
	if !ok {
		return
	}
	messages, err := h.engine.Messages.GlobalHistory(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondHistory(c, messages, q)
}

func (h *MessageHandler) respondHistory(c *gin.Context, messages []models.Message, q chat.HistoryQuery) {
	if messages == nil {
		messages = []models.Message{}
	}
	limit := q.Limit
	if limit > chat.MaxListLimit {
		limit = chat.MaxListLimit
	}
	c.JSON(http.StatusOK, dto.MessagesResponse{Messages: messages, HasMore: len(messages) == limit})
}
