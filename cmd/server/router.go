package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thereayou/hr-portal/internal/handlers"
)

type Handlers struct {
	Rooms     *handlers.RoomHandler
	Messages  *handlers.MessageHandler
	Health    *handlers.HealthHandler
	WebSocket *handlers.WebSocketHandler
	Auth      gin.HandlerFunc
}

func APIEndpoints(r *gin.Engine, h Handlers) {
	r.GET("/healthz", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket, токен в заголовке или ?token=
	r.GET("/ws", h.Auth, h.WebSocket.HandleWebSocket)

	api := r.Group("/api/v1", h.Auth)
	{
		rooms := api.Group("/rooms")
		rooms.POST("", h.Rooms.CreateRoom)
		rooms.GET("", h.Rooms.ListPublicRooms)
		rooms.GET("/mine", h.Rooms.ListMyRooms)
		rooms.GET("/:id", h.Rooms.GetRoom)
		rooms.PATCH("/:id", h.Rooms.UpdateRoom)
		rooms.DELETE("/:id", h.Rooms.DeactivateRoom)
		rooms.POST("/:id/join", h.Rooms.JoinRoom)
		rooms.POST("/:id/leave", h.Rooms.LeaveRoom)
		rooms.POST("/:id/invite", h.Rooms.InviteMember)
		rooms.POST("/:id/presence", h.Rooms.TouchPresence)
		rooms.GET("/:id/members", h.Rooms.ListMembers)
		rooms.PUT("/:id/members/:userId/role", h.Rooms.SetMemberRole)
		rooms.GET("/:id/messages", h.Messages.GetRoomMessages)

		messages := api.Group("/messages")
		messages.POST("", h.Messages.SendMessage)
		messages.GET("/global", h.Messages.GetGlobalMessages)
		messages.PATCH("/:id", h.Messages.EditMessage)
		messages.POST("/:id/read", h.Messages.MarkRead)

		api.GET("/conversations/:userId", h.Messages.GetConversation)
	}
}
