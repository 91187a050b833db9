package cache

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/thereayou/hr-portal/internal/chat"
)

const EventsChannel = "hrportal:chat:events"

type envelope struct {
	Origin string     `json:"origin"`
	Event  chat.Event `json:"event"`
}

// EventBus relays engine events between server instances. Each instance
// publishes what it commits and delivers what the others committed.
type EventBus struct {
	cache  *Cache
	origin string
	log    zerolog.Logger
}

func (c *Cache) EventBus(log zerolog.Logger) *EventBus {
	return &EventBus{cache: c, origin: uuid.NewString(), log: log.With().Str("component", "eventbus").Logger()}
}

// Notify implements chat.Notifier.
func (b *EventBus) Notify(ctx context.Context, evt chat.Event) {
	payload, err := b.encode(evt)
	if err != nil {
		b.log.Error().Err(err).Str("type", string(evt.Type)).Msg("event encode failed")
		return
	}
	if err := b.cache.rdb.Publish(ctx, EventsChannel, payload).Err(); err != nil {
		b.log.Warn().Err(err).Str("type", string(evt.Type)).Msg("event publish failed")
	}
}

// Run delivers events published by other instances to local until ctx ends.
func (b *EventBus) Run(ctx context.Context, local chat.Notifier) error {
	sub := b.cache.rdb.Subscribe(ctx, EventsChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			evt, remote, err := b.decode([]byte(msg.Payload))
			if err != nil {
				b.log.Warn().Err(err).Msg("dropping malformed event")
				continue
			}
			if remote {
				local.Notify(ctx, evt)
			}
		}
	}
}

func (b *EventBus) encode(evt chat.Event) ([]byte, error) {
	return json.Marshal(envelope{Origin: b.origin, Event: evt})
}

// decode reports remote=false for events this instance published itself.
func (b *EventBus) decode(payload []byte) (chat.Event, bool, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return chat.Event{}, false, err
	}
	return env.Event, env.Origin != b.origin, nil
}
