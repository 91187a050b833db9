package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/hr-portal/internal/database"
	"github.com/thereayou/hr-portal/internal/metrics"
	"github.com/thereayou/hr-portal/internal/models"
)

// SendRequest is a message submission. Target is the receiver for private
// messages, the room for room messages and nil for global ones.
type SendRequest struct {
	SenderID    uuid.UUID
	Scope       models.Scope
	Target      *uuid.UUID
	Content     string
	MessageType models.MessageType
	File        *models.FileMeta
}

// HistoryQuery pages backwards from Before (exclusive).
type HistoryQuery struct {
	Limit  int
	Before *time.Time
}

func (q HistoryQuery) store() database.MessageQuery {
	return database.MessageQuery{Limit: clampLimit(q.Limit), Before: q.Before}
}

// Router resolves message scope and owns read and edit state.
type Router struct {
	c *core
}

func (r *Router) Send(ctx context.Context, req SendRequest) (*models.Message, error) {
	msg, err := r.build(req)
	if err != nil {
		return nil, r.c.fail("send", err)
	}

	switch msg.Scope {
	case models.ScopeGlobal:
		err = r.sendDirect(ctx, msg)
	case models.ScopePrivate:
		if err = r.checkReceiver(ctx, msg); err == nil {
			err = r.sendDirect(ctx, msg)
		}
	case models.ScopeRoom:
		err = r.sendToRoom(ctx, msg)
	}
	if err != nil {
		return nil, r.c.fail("send", err)
	}

	metrics.MessagesSent.WithLabelValues(string(msg.Scope)).Inc()
	r.c.log.Debug().
		Str("message", msg.ID.String()).
		Str("scope", string(msg.Scope)).
		Str("sender", msg.Sender.String()).
		Msg("message sent")
	r.c.emit(ctx, messageEvent(EventMessageSent, msg.Sender, msg, msg.CreatedAt))
	return msg, nil
}

// build validates the request and resolves it to a scoped message.
func (r *Router) build(req SendRequest) (*models.Message, error) {
	if !req.Scope.Valid() {
		return nil, newError(KindInvalidMessage, "scope", "unknown scope %q", req.Scope)
	}
	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
	}
	msgType := req.MessageType
	if msgType == "" {
		msgType = models.MessageText
	}
	if err := validateAttachment(msgType, req.File); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:          uuid.New(),
		Sender:      req.SenderID,
		Scope:       req.Scope,
		Content:     content,
		MessageType: msgType,
		CreatedAt:   r.c.now(),
	}
	msg.SetFile(req.File)

	switch req.Scope {
	case models.ScopeGlobal:
		if req.Target != nil {
			return nil, newError(KindInvalidMessage, "target", "global messages take no target")
		}
	case models.ScopePrivate:
		if req.Target == nil {
			return nil, newError(KindInvalidMessage, "receiver", "private messages need a receiver")
		}
		if *req.Target == req.SenderID {
			return nil, newError(KindInvalidMessage, "receiver", "cannot message yourself")
		}
		receiver := *req.Target
		msg.Receiver = &receiver
	case models.ScopeRoom:
		if req.Target == nil {
			return nil, newError(KindInvalidMessage, "room", "room messages need a room")
		}
		roomID := *req.Target
		msg.RoomID = &roomID
	}
	return msg, nil
}

func (r *Router) checkReceiver(ctx context.Context, msg *models.Message) error {
	if r.c.directory == nil {
		return nil
	}
	profiles, err := r.c.directory.Resolve(ctx, []uuid.UUID{*msg.Receiver})
	if err != nil {
		return &Error{Kind: KindUnavailable, Message: "identity directory unavailable", Cause: err}
	}
	if _, ok := profiles[*msg.Receiver]; !ok {
		return newError(KindInvalidMessage, "receiver", "unknown receiver")
	}
	return nil
}

func (r *Router) sendDirect(ctx context.Context, msg *models.Message) error {
	if err := r.c.store.SaveMessage(ctx, msg); err != nil {
		return storeError(err, "message")
	}
	return nil
}

// sendToRoom persists the message together with the room counters.
func (r *Router) sendToRoom(ctx context.Context, msg *models.Message) error {
	upd := database.RoomUpdate{Message: msg}
	_, err := r.c.mutateRoom(ctx, "send", *msg.RoomID, upd, func(room *models.Room) error {
		if err := requireActive(room); err != nil {
			return err
		}
		if !room.IsMember(msg.Sender) {
			return newError(KindNotMember, "sender", "sender is not a member of the room")
		}
		if err := sharingAllowed(room.Settings, msg.MessageType); err != nil {
			return err
		}
		if room.Settings.ModerationEnabled && r.c.censor != nil {
			msg.Content = r.c.censor.Censor(msg.Content)
		}
		room.MessageCount++
		r.c.activity.Mark(room)
		return nil
	})
	return err
}

func sharingAllowed(settings models.RoomSettings, msgType models.MessageType) error {
	switch msgType {
	case models.MessageText:
		return nil
	case models.MessageImage:
		if !settings.AllowImageSharing {
			return newError(KindSharingDisabled, "messageType", "image sharing is disabled in this room")
		}
	default:
		if !settings.AllowFileSharing {
			return newError(KindSharingDisabled, "messageType", "file sharing is disabled in this room")
		}
	}
	return nil
}

// MarkRead marks a private message for its receiver or a room message for a
// current member. Repeated calls keep the first readAt.
func (r *Router) MarkRead(ctx context.Context, messageID, readerID uuid.UUID) (*models.Message, error) {
	current, err := r.c.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, r.c.fail("mark_read", storeError(err, "message"))
	}
	if err := r.canRead(ctx, current, readerID); err != nil {
		return nil, r.c.fail("mark_read", err)
	}

	changed := false
	msg, err := r.c.store.UpdateMessage(ctx, messageID, func(msg *models.Message) error {
		if msg.IsRead {
			return database.ErrSkip
		}
		now := r.c.now()
		msg.IsRead = true
		msg.ReadAt = &now
		changed = true
		return nil
	})
	if err != nil {
		return nil, r.c.fail("mark_read", storeError(err, "message"))
	}

	if changed {
		r.c.emit(ctx, messageEvent(EventMessageRead, readerID, msg, *msg.ReadAt))
	}
	return msg, nil
}

func (r *Router) canRead(ctx context.Context, msg *models.Message, readerID uuid.UUID) error {
	switch msg.Scope {
	case models.ScopePrivate:
		if *msg.Receiver == readerID {
			return nil
		}
	case models.ScopeRoom:
		room, err := r.c.store.GetRoom(ctx, *msg.RoomID)
		if err != nil {
			return storeError(err, "room")
		}
		if room.IsMember(readerID) {
			return nil
		}
	}
	return newError(KindNotAuthorized, "reader", "message is not addressed to this reader")
}

// Edit replaces the content of a message. Only the sender may edit.
func (r *Router) Edit(ctx context.Context, messageID, editorID uuid.UUID, content string) (*models.Message, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, r.c.fail("edit", err)
	}

	current, err := r.c.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, r.c.fail("edit", storeError(err, "message"))
	}
	if current.Sender != editorID {
		return nil, r.c.fail("edit", newError(KindNotAuthorized, "editor", "only the sender may edit a message"))
	}
	if current.Scope == models.ScopeRoom && r.c.censor != nil {
		room, err := r.c.getRoom(ctx, "edit", *current.RoomID)
		if err != nil {
			return nil, err
		}
		if room.Settings.ModerationEnabled {
			content = r.c.censor.Censor(content)
		}
	}

	msg, err := r.c.store.UpdateMessage(ctx, messageID, func(msg *models.Message) error {
		if msg.Sender != editorID {
			return newError(KindNotAuthorized, "editor", "only the sender may edit a message")
		}
		now := r.c.now()
		msg.Content = content
		msg.IsEdited = true
		msg.EditedAt = &now
		return nil
	})
	if err != nil {
		return nil, r.c.fail("edit", storeError(err, "message"))
	}

	r.c.emit(ctx, messageEvent(EventMessageEdited, editorID, msg, *msg.EditedAt))
	return msg, nil
}

// RoomHistory returns room messages oldest first. Only members may read it,
// also after the room is deactivated.
func (r *Router) RoomHistory(ctx context.Context, roomID, viewerID uuid.UUID, q HistoryQuery) ([]models.Message, error) {
	room, err := r.c.getRoom(ctx, "room_history", roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsMember(viewerID) && !IsAdmin(room, viewerID) {
		return nil, r.c.fail("room_history", newError(KindNotMember, "viewer", "viewer is not a member of the room"))
	}
	messages, err := r.c.store.RoomMessages(ctx, roomID, q.store())
	if err != nil {
		return nil, r.c.fail("room_history", storeError(err, "message"))
	}
	return messages, nil
}

// Conversation returns the private messages between viewerID and otherID.
func (r *Router) Conversation(ctx context.Context, viewerID, otherID uuid.UUID, q HistoryQuery) ([]models.Message, error) {
	messages, err := r.c.store.Conversation(ctx, viewerID, otherID, q.store())
	if err != nil {
		return nil, r.c.fail("conversation", storeError(err, "message"))
	}
	return messages, nil
}

func (r *Router) GlobalHistory(ctx context.Context, q HistoryQuery) ([]models.Message, error) {
	messages, err := r.c.store.GlobalMessages(ctx, q.store())
	if err != nil {
		return nil, r.c.fail("global_history", storeError(err, "message"))
	}
	return messages, nil
}
