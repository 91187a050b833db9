package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FrameType определяет типы кадров
type FrameType string

const (
	// Системные типы
	TypePing  FrameType = "ping"
	TypePong  FrameType = "pong"
	TypeError FrameType = "error"
	TypeAck   FrameType = "ack"

	// Команды клиента
	TypeSubscribe   FrameType = "subscribe"
	TypeUnsubscribe FrameType = "unsubscribe"
	TypeSend        FrameType = "send"
	TypeRead        FrameType = "read"
	TypeEdit        FrameType = "edit"
	TypePresence    FrameType = "presence"

	// Исходящие
	TypeEvent       FrameType = "event"
	TypeRoomUsers   FrameType = "room_users"
	TypeUserOnline  FrameType = "user_online"
	TypeUserOffline FrameType = "user_offline"
)

type Frame struct {
	Type      FrameType       `json:"type"`
	RoomID    *uuid.UUID      `json:"roomId,omitempty"`
	UserID    uuid.UUID       `json:"userId,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func encodeFrame(typ FrameType, roomID *uuid.UUID, userID uuid.UUID, data any) ([]byte, error) {
	frame := Frame{Type: typ, RoomID: roomID, UserID: userID, Timestamp: time.Now().UTC()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		frame.Data = raw
	}
	return json.Marshal(frame)
}
