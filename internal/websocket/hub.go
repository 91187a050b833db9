package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/thereayou/hr-portal/internal/chat"
	"github.com/thereayou/hr-portal/internal/metrics"
	"github.com/thereayou/hr-portal/internal/models"
)

// PresenceHook is told when a user's first connection opens and the last
// one closes.
type PresenceHook func(ctx context.Context, userID uuid.UUID, online bool)

// Hub tracks connections and fans engine events out to them. It implements
// chat.Notifier and identity.Presence for this instance.
type Hub struct {
	clients map[uuid.UUID]*Client

	// Клиенты по UserID (один пользователь может иметь несколько соединений)
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Клиенты, подписанные на комнаты
	rooms map[uuid.UUID]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	presence PresenceHook
	log      zerolog.Logger
	mu       sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub
func NewHub(log zerolog.Logger, presence PresenceHook) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		rooms:       make(map[uuid.UUID]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		presence:    presence,
		log:         log.With().Str("component", "hub").Logger(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.refreshPresence()
		}
	}
}

// Stop останавливает hub и закрывает все соединения
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.close()
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	h.clients = make(map[uuid.UUID]*Client)
	h.userClients = make(map[uuid.UUID]map[uuid.UUID]*Client)
	h.rooms = make(map[uuid.UUID]map[uuid.UUID]*Client)
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	first := false
	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
		first = true
	}
	h.userClients[client.UserID][client.ID] = client
	h.mu.Unlock()

	metrics.ConnectedClients.Inc()
	h.log.Debug().Str("client", client.ID.String()).Str("user", client.UserID.String()).Msg("client registered")
	if first {
		h.userStatus(client.UserID, true)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	for roomID := range client.subscriptions() {
		h.unsubscribeLocked(client, roomID)
	}
	last := false
	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
			last = true
		}
	}
	delete(h.clients, client.ID)
	client.close()
	h.mu.Unlock()

	metrics.ConnectedClients.Dec()
	h.log.Debug().Str("client", client.ID.String()).Str("user", client.UserID.String()).Msg("client unregistered")
	if last {
		h.userStatus(client.UserID, false)
	}
}

// Subscribe delivers room events to client. Callers check membership first.
func (h *Hub) Subscribe(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uuid.UUID]*Client)
	}
	h.rooms[roomID][client.ID] = client
	client.setSubscribed(roomID, true)

	if data, err := encodeFrame(TypeRoomUsers, &roomID, client.UserID, h.roomUsersLocked(roomID)); err == nil {
		client.enqueue(data)
	}
}

func (h *Hub) Unsubscribe(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeLocked(client, roomID)
}

func (h *Hub) unsubscribeLocked(client *Client, roomID uuid.UUID) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(room, client.ID)
	client.setSubscribed(roomID, false)
	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
}

// dropUserFromRoom ends every subscription userID holds on roomID.
func (h *Hub) dropUserFromRoom(roomID, userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.userClients[userID] {
		h.unsubscribeLocked(client, roomID)
	}
}

// SendToUser отправляет кадр всем соединениям пользователя
func (h *Hub) SendToUser(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.userClients[userID] {
		h.deliver(client, data)
	}
}

// SendToRoom отправляет кадр подписчикам комнаты
func (h *Hub) SendToRoom(roomID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.rooms[roomID] {
		h.deliver(client, data)
	}
}

func (h *Hub) SendToAll(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		h.deliver(client, data)
	}
}

func (h *Hub) deliver(client *Client, data []byte) {
	if !client.enqueue(data) {
		h.log.Warn().Str("client", client.ID.String()).Msg("client send channel full")
	}
}

// Notify routes a committed engine event to the connections that may see it.
func (h *Hub) Notify(_ context.Context, evt chat.Event) {
	data, err := encodeFrame(TypeEvent, evt.RoomID, evt.ActorID, evt)
	if err != nil {
		h.log.Error().Err(err).Str("type", string(evt.Type)).Msg("event encode failed")
		return
	}

	if msg := evt.Message; msg != nil {
		switch msg.Scope {
		case models.ScopeGlobal:
			h.SendToAll(data)
		case models.ScopePrivate:
			for _, userID := range evt.Recipients() {
				h.SendToUser(userID, data)
			}
		case models.ScopeRoom:
			h.SendToRoom(*msg.RoomID, data)
		}
		return
	}

	switch evt.Type {
	case chat.EventRoomCreated:
		if evt.Room != nil && !evt.Room.IsPrivate {
			h.SendToAll(data)
			return
		}
		h.SendToUser(evt.ActorID, data)
	case chat.EventMemberLeft:
		if evt.RoomID != nil && evt.TargetID != nil {
			h.dropUserFromRoom(*evt.RoomID, *evt.TargetID)
			h.SendToUser(*evt.TargetID, data)
			h.SendToRoom(*evt.RoomID, data)
		}
	default:
		if evt.RoomID != nil {
			h.SendToRoom(*evt.RoomID, data)
		}
		if evt.RoomID != nil && evt.TargetID != nil && !h.subscribed(*evt.RoomID, *evt.TargetID) {
			h.SendToUser(*evt.TargetID, data)
		}
	}
}

func (h *Hub) subscribed(roomID, userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.rooms[roomID] {
		if client.UserID == userID {
			return true
		}
	}
	return false
}

// Online reports which of ids have an open connection to this instance.
func (h *Hub) Online(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	online := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if _, ok := h.userClients[id]; ok {
			online[id] = true
		}
	}
	return online, nil
}

func (h *Hub) roomUsersLocked(roomID uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	users := make([]uuid.UUID, 0)
	for _, c := range h.rooms[roomID] {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			users = append(users, c.UserID)
		}
	}
	return users
}

// userStatus уведомляет о статусе пользователя
func (h *Hub) userStatus(userID uuid.UUID, online bool) {
	if h.presence != nil {
		h.presence(h.ctx, userID, online)
	}
	typ := TypeUserOffline
	if online {
		typ = TypeUserOnline
	}
	if data, err := encodeFrame(typ, nil, userID, nil); err == nil {
		h.SendToAll(data)
	}
}

// refreshPresence keeps presence flags of connected users from expiring.
func (h *Hub) refreshPresence() {
	if h.presence == nil {
		return
	}
	h.mu.RLock()
	users := make([]uuid.UUID, 0, len(h.userClients))
	for userID := range h.userClients {
		users = append(users, userID)
	}
	h.mu.RUnlock()

	for _, userID := range users {
		h.presence(h.ctx, userID, true)
	}
}
