package dto

import (
	"github.com/google/uuid"
	"github.com/thereayou/hr-portal/internal/models"
)

// SendMessageRequest структура для входящих сообщений
type SendMessageRequest struct {
	Scope       models.Scope       `json:"scope" binding:"required"`
	Target      *uuid.UUID         `json:"target"`
	Content     string             `json:"content"`
	MessageType models.MessageType `json:"messageType"`
	File        *models.FileMeta   `json:"file"`
}

type EditMessageRequest struct {
	MessageID uuid.UUID `json:"messageId"`
	Content   string    `json:"content"`
}

type ReadMessageRequest struct {
	MessageID uuid.UUID `json:"messageId" binding:"required"`
}

type MessagesResponse struct {
	Messages []models.Message `json:"messages"`
	HasMore  bool             `json:"hasMore"`
}
