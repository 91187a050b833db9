package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/hr-portal/internal/chat"
)

type HealthHandler struct {
	engine *chat.Engine
}

func NewHealthHandler(engine *chat.Engine) *HealthHandler {
	return &HealthHandler{engine: engine}
}

func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.engine.Ping(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
