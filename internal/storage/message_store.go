package storage

import (
	"errors"
	"log"

	"connectly/backend/internal/models"

	"gorm.io/gorm"
)

// CreateMessage inserts a new message row.
func (s *Service) CreateMessage(msg *models.Message) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message from %s to %s: %v", msg.SenderID, msg.ReceiverID, err)
		return wrapDB(err)
	}
	return nil
}

// SaveMessage persists updates to an existing message.
func (s *Service) SaveMessage(msg *models.Message) error {
	return wrapDB(s.DB.Save(msg).Error)
}

// GetMessageByID returns the message or (nil, nil) when it does not exist.
// Soft-deleted messages are still returned here; the service layer decides
// how to treat them per operation.
func (s *Service) GetMessageByID(id string) (*models.Message, error) {
	var msg models.Message
	err := s.DB.First(&msg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDB(err)
	}
	return &msg, nil
}

// GetChatHistory returns one page of non-deleted messages between the pair,
// newest first, plus the total count for pagination.
func (s *Service) GetChatHistory(userA, userB string, page, limit int) ([]models.Message, int64, error) {
	pair := s.DB.Model(&models.Message{}).
		Where("is_deleted = ?", false).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA)

	var total int64
	if err := pair.Count(&total).Error; err != nil {
		return nil, 0, wrapDB(err)
	}

	var messages []models.Message
	err := pair.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		log.Printf("ERROR: Failed to get chat history for %s/%s: %v", userA, userB, err)
		return nil, 0, wrapDB(err)
	}
	return messages, total, nil
}

// MarkMessagesRead bulk-transitions sender->receiver messages that are still
// sent or delivered to read. Returns the number of rows affected, so the
// caller can skip notifications when nothing changed.
func (s *Service) MarkMessagesRead(senderID, receiverID string) (int64, error) {
	res := s.DB.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		Where("status IN ?", []string{models.MessageStatusSent, models.MessageStatusDelivered}).
		Update("status", models.MessageStatusRead)
	if res.Error != nil {
		return 0, wrapDB(res.Error)
	}
	return res.RowsAffected, nil
}

// UnreadCount counts non-deleted messages addressed to the user that have not
// been read yet.
func (s *Service) UnreadCount(userID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Message{}).
		Where("receiver_id = ? AND is_deleted = ?", userID, false).
		Where("status IN ?", []string{models.MessageStatusSent, models.MessageStatusDelivered}).
		Count(&count).Error
	if err != nil {
		return 0, wrapDB(err)
	}
	return count, nil
}

// conversationRow is the scan target for the recent-conversations query.
type conversationRow struct {
	models.Message
	PeerID      string `gorm:"column:peer_id"`
	UnreadCount int64  `gorm:"column:unread_count"`
}

// RecentConversations groups the user's messages by counterparty and returns
// the latest message plus unread count per peer, most recent first.
// Uses DISTINCT ON, so PostgreSQL only.
func (s *Service) RecentConversations(userID string, limit int) ([]models.Conversation, error) {
	rawSQL := `
        SELECT m.*,
               (SELECT COUNT(*) FROM messages u
                 WHERE u.sender_id = m.peer_id
                   AND u.receiver_id = ?
                   AND u.status IN ('sent', 'delivered')
                   AND u.is_deleted = false) AS unread_count
        FROM (
            SELECT DISTINCT ON (CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END)
                   *,
                   CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS peer_id
            FROM messages
            WHERE (sender_id = ? OR receiver_id = ?)
              AND is_deleted = false
            ORDER BY CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END,
                     created_at DESC
        ) m
        ORDER BY m.created_at DESC
        LIMIT ?
    `

	var rows []conversationRow
	err := s.DB.Raw(rawSQL, userID, userID, userID, userID, userID, userID, limit).Scan(&rows).Error
	if err != nil {
		log.Printf("ERROR: Failed to load conversations for %s: %v", userID, err)
		return nil, wrapDB(err)
	}

	peerIDs := make([]string, 0, len(rows))
	for _, r := range rows {
		peerIDs = append(peerIDs, r.PeerID)
	}
	peers, err := s.GetUsersByIDs(peerIDs)
	if err != nil {
		return nil, err
	}
	peerByID := make(map[string]*models.User, len(peers))
	for i := range peers {
		peerByID[peers[i].ID] = &peers[i]
	}

	conversations := make([]models.Conversation, 0, len(rows))
	for _, r := range rows {
		conversations = append(conversations, models.Conversation{
			PeerID:      r.PeerID,
			Peer:        peerByID[r.PeerID],
			LastMessage: r.Message,
			UnreadCount: r.UnreadCount,
		})
	}
	return conversations, nil
}
