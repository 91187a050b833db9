package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/hr-portal/internal/models"
)

type EventType string

const (
	EventRoomCreated     EventType = "room.created"
	EventRoomUpdated     EventType = "room.updated"
	EventRoomDeactivated EventType = "room.deactivated"
	EventMemberJoined    EventType = "member.joined"
	EventMemberLeft      EventType = "member.left"
	EventMemberRole      EventType = "member.role"
	EventMessageSent     EventType = "message.sent"
	EventMessageRead     EventType = "message.read"
	EventMessageEdited   EventType = "message.edited"
)

// Event describes a committed mutation.
type Event struct {
	Type     EventType       `json:"type"`
	RoomID   *uuid.UUID      `json:"roomId,omitempty"`
	ActorID  uuid.UUID       `json:"actorId"`
	TargetID *uuid.UUID      `json:"targetId,omitempty"`
	Room     *models.Room    `json:"room,omitempty"`
	Message  *models.Message `json:"message,omitempty"`
	At       time.Time       `json:"at"`
}

// Recipients returns the users a private message event is addressed to.
func (e Event) Recipients() []uuid.UUID {
	if e.Message == nil || e.Message.Scope != models.ScopePrivate {
		return nil
	}
	return []uuid.UUID{e.Message.Sender, *e.Message.Receiver}
}

// Notifier receives events after commit. Delivery is best effort and never
// affects the outcome of the operation.
type Notifier interface {
	Notify(ctx context.Context, evt Event)
}

type NotifierFunc func(ctx context.Context, evt Event)

func (f NotifierFunc) Notify(ctx context.Context, evt Event) {
	f(ctx, evt)
}

type multiNotifier []Notifier

func (m multiNotifier) Notify(ctx context.Context, evt Event) {
	for _, n := range m {
		n.Notify(ctx, evt)
	}
}

// Fanout delivers each event to every non-nil notifier in order.
func Fanout(notifiers ...Notifier) Notifier {
	var out multiNotifier
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func roomEvent(typ EventType, actor uuid.UUID, room *models.Room, at time.Time) Event {
	id := room.ID
	return Event{Type: typ, RoomID: &id, ActorID: actor, Room: room, At: at}
}

func messageEvent(typ EventType, actor uuid.UUID, msg *models.Message, at time.Time) Event {
	return Event{Type: typ, RoomID: msg.RoomID, ActorID: actor, Message: msg, At: at}
}
