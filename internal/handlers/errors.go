package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/hr-portal/internal/chat"
	"github.com/thereayou/hr-portal/internal/handlers/dto"
)

var statusByKind = map[chat.Kind]int{
	chat.KindInvalidConfig:   http.StatusUnprocessableEntity,
	chat.KindInvalidMessage:  http.StatusUnprocessableEntity,
	chat.KindNameConflict:    http.StatusConflict,
	chat.KindRoomFull:        http.StatusConflict,
	chat.KindAlreadyMember:   http.StatusConflict,
	chat.KindNotMember:       http.StatusForbidden,
	chat.KindNotAuthorized:   http.StatusForbidden,
	chat.KindSharingDisabled: http.StatusForbidden,
	chat.KindNotFound:        http.StatusNotFound,
	chat.KindRoomInactive:    http.StatusGone,
	chat.KindUnavailable:     http.StatusServiceUnavailable,
}

// respondError renders engine errors with their kind and field. Anything else
// is a bug and is reported as 500.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var chatErr *chat.Error
	if !errors.As(err, &chatErr) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
		return
	}
	status, ok := statusByKind[chatErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	body := dto.ErrorResponse{Error: chatErr.Message, Kind: string(chatErr.Kind), Field: chatErr.Field}
	if chatErr.Kind == chat.KindUnavailable {
		body.Error = "service temporarily unavailable"
		c.Header("Retry-After", "1")
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, field, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg, Kind: "BadRequest", Field: field})
}

func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, name, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// Параметры пагинации: limit и before (RFC3339)
func historyQuery(c *gin.Context, defaultLimit int) (chat.HistoryQuery, bool) {
	q := chat.HistoryQuery{Limit: defaultLimit}
	if l := c.Query("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			badRequest(c, "limit", "limit must be a positive integer")
			return q, false
		}
		q.Limit = parsed
	}
	if b := c.Query("before"); b != "" {
		before, err := time.Parse(time.RFC3339Nano, b)
		if err != nil {
			badRequest(c, "before", "before must be an RFC3339 timestamp")
			return q, false
		}
		q.Before = &before
	}
	return q, true
}

func listLimit(c *gin.Context) (int, bool) {
	l := c.Query("limit")
	if l == "" {
		return 0, true
	}
	parsed, err := strconv.Atoi(l)
	if err != nil || parsed <= 0 {
		badRequest(c, "limit", "limit must be a positive integer")
		return 0, false
	}
	return parsed, true
}
