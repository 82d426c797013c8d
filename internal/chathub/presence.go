package chathub

import (
	"encoding/json"
	"log"
	"time"

	"connectly/backend/internal/models"
	"connectly/backend/internal/storage"
)

// Broadcaster announces online/offline transitions. Events go through Redis
// Pub/Sub so sessions held by other server instances hear them too; the
// listener below replays them to local clients. Announcements go to every
// connected session, not just the user's contacts.
type Broadcaster struct {
	registry *Registry
	presence storage.PresenceStore
}

// NewBroadcaster constructs the presence broadcaster.
func NewBroadcaster(registry *Registry, presence storage.PresenceStore) *Broadcaster {
	return &Broadcaster{registry: registry, presence: presence}
}

// Announce publishes a presence transition. When Redis is unreachable the
// event is delivered to local sessions directly, so presence keeps working
// on a single instance.
func (b *Broadcaster) Announce(userID, status string) {
	payload := models.UserStatusPayload{
		UserID:    userID,
		Status:    status,
		Timestamp: time.Now(),
	}
	if err := b.presence.PublishPresence(payload); err != nil {
		b.registry.Broadcast(models.ServerEvent{Event: models.EventUserStatus, Data: payload})
	}
}

// StartListener runs a goroutine that fans presence events from Redis out to
// all local sessions.
func (b *Broadcaster) StartListener() {
	go func() {
		pubsub := b.presence.SubscribePresence()
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var payload models.UserStatusPayload
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				log.Printf("Error unmarshalling presence event: %v", err)
				continue
			}
			b.registry.Broadcast(models.ServerEvent{Event: models.EventUserStatus, Data: payload})
		}
	}()
}
