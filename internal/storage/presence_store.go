package storage

import (
	"encoding/json"
	"log"

	"connectly/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	onlineUsersKey  = "online_users"
	presenceChannel = "presence:events"
)

// SetOnline adds the user to the online mirror set in Redis.
func (s *Service) SetOnline(userID string) error {
	return s.Redis.SAdd(s.Ctx, onlineUsersKey, userID).Err()
}

// SetOffline removes the user from the online mirror set.
func (s *Service) SetOffline(userID string) error {
	return s.Redis.SRem(s.Ctx, onlineUsersKey, userID).Err()
}

// OnlineUsers returns all users currently in the mirror set.
func (s *Service) OnlineUsers() ([]string, error) {
	return s.Redis.SMembers(s.Ctx, onlineUsersKey).Result()
}

// PublishPresence broadcasts a presence transition over Redis Pub/Sub so
// sessions held by other server instances see it too.
func (s *Service) PublishPresence(p models.UserStatusPayload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.Redis.Publish(s.Ctx, presenceChannel, string(payload)).Err(); err != nil {
		log.Printf("ERROR: Failed to publish presence event for %s: %v", p.UserID, err)
		return err
	}
	return nil
}

// SubscribePresence subscribes to the presence event channel.
func (s *Service) SubscribePresence() *redis.PubSub {
	return s.Redis.Subscribe(s.Ctx, presenceChannel)
}
