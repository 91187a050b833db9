package models

import (
	"time"

	"github.com/google/uuid"
)

type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopePrivate Scope = "private"
	ScopeRoom    Scope = "room"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeGlobal, ScopePrivate, ScopeRoom:
		return true
	}
	return false
}

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
	MessageAudio MessageType = "audio"
	MessageVideo MessageType = "video"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessageAudio, MessageVideo:
		return true
	}
	return false
}

type FileMeta struct {
	Name string `json:"fileName"`
	URL  string `json:"fileUrl"`
	Size int64  `json:"fileSize"`
}

type Message struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Sender      uuid.UUID   `gorm:"type:uuid;not null;index:idx_messages_conversation,priority:1" json:"sender"`
	Scope       Scope       `gorm:"not null;index:idx_messages_scope,priority:1" json:"scope"`
	Receiver    *uuid.UUID  `gorm:"type:uuid;index:idx_messages_conversation,priority:2" json:"receiver,omitempty"`
	RoomID      *uuid.UUID  `gorm:"type:uuid;index:idx_messages_room,priority:1" json:"room,omitempty"`
	Content     string      `gorm:"not null" json:"content"`
	MessageType MessageType `gorm:"not null;default:'text'" json:"messageType"`
	FileName    *string     `json:"fileName,omitempty"`
	FileURL     *string     `json:"fileUrl,omitempty"`
	FileSize    *int64      `json:"fileSize,omitempty"`
	IsRead      bool        `gorm:"default:false" json:"isRead"`
	ReadAt      *time.Time  `json:"readAt,omitempty"`
	IsEdited    bool        `gorm:"default:false" json:"isEdited"`
	EditedAt    *time.Time  `json:"editedAt,omitempty"`
	CreatedAt   time.Time   `gorm:"index:idx_messages_conversation,priority:3,sort:desc;index:idx_messages_scope,priority:2,sort:desc;index:idx_messages_room,priority:2,sort:desc" json:"createdAt"`
}

// ScopeConsistent reports whether receiver/room presence matches the scope.
func (m *Message) ScopeConsistent() bool {
	switch m.Scope {
	case ScopeGlobal:
		return m.Receiver == nil && m.RoomID == nil
	case ScopePrivate:
		return m.Receiver != nil && m.RoomID == nil
	case ScopeRoom:
		return m.Receiver == nil && m.RoomID != nil
	}
	return false
}

func (m *Message) File() *FileMeta {
	if m.FileName == nil || m.FileURL == nil || m.FileSize == nil {
		return nil
	}
	return &FileMeta{Name: *m.FileName, URL: *m.FileURL, Size: *m.FileSize}
}

func (m *Message) SetFile(meta *FileMeta) {
	if meta == nil {
		m.FileName, m.FileURL, m.FileSize = nil, nil, nil
		return
	}
	name, url, size := meta.Name, meta.URL, meta.Size
	m.FileName, m.FileURL, m.FileSize = &name, &url, &size
}
