package dto

import (
	"github.com/google/uuid"
	"github.com/thereayou/hr-portal/internal/chat"
	"github.com/thereayou/hr-portal/internal/models"
)

type JoinRoomRequest struct {
	Role models.Role `json:"role"`
}

type InviteRequest struct {
	UserID uuid.UUID `json:"userId" binding:"required"`
}

type SetRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

type RoomsResponse struct {
	Rooms []chat.RoomView `json:"rooms"`
}

type MembersResponse struct {
	RoomID      uuid.UUID         `json:"roomId"`
	MemberCount int               `json:"memberCount"`
	Members     []chat.MemberView `json:"members"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}
