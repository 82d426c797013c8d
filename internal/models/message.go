package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message delivery statuses. Status only ever moves forward
// (sent -> delivered -> read); it never regresses.
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
)

// Message content types.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
	MessageTypeAudio = "audio"
	MessageTypeVideo = "video"
)

// MaxMessageContentLength caps message content size in characters.
const MaxMessageContentLength = 1000

// Message is a persisted direct message between two users.
// Deleted messages stay in storage for audit but are excluded from reads.
type Message struct {
	ID         string `gorm:"primaryKey" json:"id"`
	SenderID   string `gorm:"type:text;not null;index:idx_msg_pair" json:"senderId"`
	ReceiverID string `gorm:"type:text;not null;index:idx_msg_pair" json:"receiverId"`
	Content    string `gorm:"type:text;not null" json:"content"`
	Type       string `gorm:"type:text;not null;default:text" json:"type"`
	Status     string `gorm:"type:text;not null;default:sent;index" json:"status"`
	IsEdited   bool   `gorm:"default:false" json:"isEdited"`
	EditedAt   *time.Time `json:"editedAt,omitempty"`
	// ReplyTo references the ID of the message being replied to.
	ReplyTo   *string    `gorm:"index" json:"replyTo,omitempty"`
	IsDeleted bool       `gorm:"default:false;index" json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the ID is not set.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

// ValidMessageType reports whether t is one of the supported content types.
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeAudio, MessageTypeVideo:
		return true
	}
	return false
}

// Conversation is the derived most-recent-message-per-counterparty view.
// It is computed on demand and never stored.
type Conversation struct {
	PeerID      string  `json:"peerId"`
	Peer        *User   `json:"peer,omitempty"`
	LastMessage Message `json:"lastMessage"`
	UnreadCount int64   `json:"unreadCount"`
}

// Pagination describes a page of results.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNext      bool  `json:"hasNext"`
	HasPrev      bool  `json:"hasPrev"`
}

// NewPagination computes page metadata from a total row count.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNext:      page < totalPages,
		HasPrev:      page > 1,
	}
}
