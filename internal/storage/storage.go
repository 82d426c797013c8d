package storage

import (
	"context"

	"connectly/backend/internal/apperr"
	"connectly/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// UserStore provides user lookups for existence checks and peer display data.
type UserStore interface {
	GetUserByID(id string) (*models.User, error)
	GetUsersByIDs(ids []string) ([]models.User, error)
	SaveUser(user *models.User) error
}

// MessageStore persists messages and serves the read paths.
// Get methods return (nil, nil) when the record does not exist; errors are
// reserved for storage faults.
type MessageStore interface {
	CreateMessage(msg *models.Message) error
	SaveMessage(msg *models.Message) error
	GetMessageByID(id string) (*models.Message, error)
	GetChatHistory(userA, userB string, page, limit int) ([]models.Message, int64, error)
	MarkMessagesRead(senderID, receiverID string) (int64, error)
	UnreadCount(userID string) (int64, error)
	RecentConversations(userID string, limit int) ([]models.Conversation, error)
}

// CallStore persists calls and serves call queries.
type CallStore interface {
	CreateCall(call *models.Call) error
	TransitionCall(call *models.Call, fromStatuses []string) (bool, error)
	GetCallByCallID(callID string) (*models.Call, error)
	GetActiveCallForUser(userID string) (*models.Call, error)
	EndActiveCallsForUser(userID, reason string) ([]models.Call, error)
	GetCallHistory(userID string, page, limit int, callType, status string) ([]models.Call, int64, error)
	GetCallStats(userID string) (*models.CallStats, error)
}

// PresenceStore mirrors online state into Redis so other instances (and
// admin tooling) can see who is reachable, and carries presence events
// across instances over Pub/Sub.
type PresenceStore interface {
	SetOnline(userID string) error
	SetOffline(userID string) error
	OnlineUsers() ([]string, error)
	PublishPresence(p models.UserStatusPayload) error
	SubscribePresence() *redis.PubSub
}

// Storage is the full persistence surface of the service.
type Storage interface {
	UserStore
	MessageStore
	CallStore
	PresenceStore
}

// Service implements Storage over PostgreSQL (GORM) and Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService constructs the storage service.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// wrapDB classifies a database fault as a retryable storage error, keeping it
// distinguishable from domain errors.
func wrapDB(err error) error {
	if err == nil {
		return nil
	}
	return apperr.Unavailable(err)
}
