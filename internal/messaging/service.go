// Package messaging implements the message delivery service: persistence
// first, then best-effort live delivery to the receiver's session. Offline
// receivers pick messages up later through history and unread counts.
package messaging

import (
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"connectly/backend/internal/apperr"
	"connectly/backend/internal/config"
	"connectly/backend/internal/models"
	"connectly/backend/internal/storage"
)

// Notifier pushes an event to a user's live session, if any. Delivery is
// fire-and-forget; nothing in this service blocks on a peer.
type Notifier interface {
	Notify(userID, event string, data any)
	IsOnline(userID string) bool
}

// Service coordinates message persistence and delivery.
type Service struct {
	users    storage.UserStore
	messages storage.MessageStore
	notifier Notifier
}

// NewService constructs the delivery service.
func NewService(users storage.UserStore, messages storage.MessageStore, notifier Notifier) *Service {
	return &Service{users: users, messages: messages, notifier: notifier}
}

// Send validates both parties, persists the message with status sent, and
// routes a new_message event to the receiver when online. The persisted
// message is returned regardless of the receiver's presence.
func (s *Service) Send(senderID, receiverID, content, msgType string, replyTo *string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.BadRequest("Message content is required")
	}
	if utf8.RuneCountInString(content) > models.MaxMessageContentLength {
		return nil, apperr.BadRequest("Message content cannot exceed 1000 characters")
	}
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !models.ValidMessageType(msgType) {
		return nil, apperr.BadRequest("Invalid message type")
	}

	if err := s.ensureUserExists(senderID, "Sender not found"); err != nil {
		return nil, err
	}
	if err := s.ensureUserExists(receiverID, "Receiver not found"); err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Type:       msgType,
		Status:     models.MessageStatusSent,
		ReplyTo:    replyTo,
	}
	if err := s.messages.CreateMessage(msg); err != nil {
		return nil, err
	}

	if s.notifier.IsOnline(receiverID) {
		s.notifier.Notify(receiverID, models.EventNewMessage, msg)
	}
	return msg, nil
}

// GetChatHistory returns one page of the conversation between the two users
// in chronological order (oldest first within the page).
func (s *Service) GetChatHistory(userA, userB string, page, limit int) ([]models.Message, models.Pagination, error) {
	page, limit = clampPage(page, limit, config.DefaultHistoryLimit)

	if err := s.ensureUserExists(userA, "User not found"); err != nil {
		return nil, models.Pagination{}, err
	}
	if err := s.ensureUserExists(userB, "User not found"); err != nil {
		return nil, models.Pagination{}, err
	}

	messages, total, err := s.messages.GetChatHistory(userA, userB, page, limit)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	// Storage returns newest first; reverse for presentation.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, models.NewPagination(page, limit, total), nil
}

// MarkRead bulk-transitions all senderID -> receiverID messages that are
// still sent or delivered to read, and tells the sender when online.
// Messages already read are untouched, so repeated calls are no-ops.
func (s *Service) MarkRead(senderID, receiverID string) error {
	affected, err := s.messages.MarkMessagesRead(senderID, receiverID)
	if err != nil {
		return err
	}
	if affected > 0 && s.notifier.IsOnline(senderID) {
		s.notifier.Notify(senderID, models.EventMessagesRead, models.MessagesReadPayload{ReadBy: receiverID})
	}
	return nil
}

// EditMessage updates the content of the requestor's own, non-deleted message.
func (s *Service) EditMessage(messageID, requestorID, newContent string) (*models.Message, error) {
	newContent = strings.TrimSpace(newContent)
	if newContent == "" {
		return nil, apperr.BadRequest("Message content is required")
	}
	if utf8.RuneCountInString(newContent) > models.MaxMessageContentLength {
		return nil, apperr.BadRequest("Message content cannot exceed 1000 characters")
	}

	msg, err := s.messages.GetMessageByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.NotFound("Message not found")
	}
	if msg.SenderID != requestorID {
		return nil, apperr.Forbidden("You can only edit your own messages")
	}
	if msg.IsDeleted {
		return nil, apperr.BadRequest("Cannot edit deleted message")
	}

	now := time.Now()
	msg.Content = newContent
	msg.IsEdited = true
	msg.EditedAt = &now
	if err := s.messages.SaveMessage(msg); err != nil {
		return nil, err
	}

	if s.notifier.IsOnline(msg.ReceiverID) {
		s.notifier.Notify(msg.ReceiverID, models.EventMessageEdited, msg)
	}
	return msg, nil
}

// DeleteMessage soft-deletes the requestor's own message. The row stays in
// storage for audit but disappears from every read path.
func (s *Service) DeleteMessage(messageID, requestorID string) (*models.Message, error) {
	msg, err := s.messages.GetMessageByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.NotFound("Message not found")
	}
	if msg.SenderID != requestorID {
		return nil, apperr.Forbidden("You can only delete your own messages")
	}

	now := time.Now()
	msg.IsDeleted = true
	msg.DeletedAt = &now
	if err := s.messages.SaveMessage(msg); err != nil {
		return nil, err
	}

	if s.notifier.IsOnline(msg.ReceiverID) {
		s.notifier.Notify(msg.ReceiverID, models.EventMessageDeleted, models.MessageDeletedPayload{MessageID: msg.ID})
	}
	return msg, nil
}

// GetUnreadCount counts unread, non-deleted messages addressed to the user.
func (s *Service) GetUnreadCount(userID string) (int64, error) {
	return s.messages.UnreadCount(userID)
}

// RecentConversations returns the user's conversations ordered by the most
// recent message, truncated to limit.
func (s *Service) RecentConversations(userID string, limit int) ([]models.Conversation, error) {
	if limit <= 0 {
		limit = config.DefaultConversationsLimit
	}
	if limit > config.MaxPageLimit {
		limit = config.MaxPageLimit
	}
	return s.messages.RecentConversations(userID, limit)
}

func (s *Service) ensureUserExists(id, notFoundMsg string) error {
	user, err := s.users.GetUserByID(id)
	if err != nil {
		log.Printf("ERROR: User lookup failed for %s: %v", id, err)
		return err
	}
	if user == nil {
		return apperr.NotFound(notFoundMsg)
	}
	return nil
}

func clampPage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > config.MaxPageLimit {
		limit = config.MaxPageLimit
	}
	return page, limit
}
