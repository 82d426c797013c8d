package messaging_test

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"connectly/backend/internal/models"
)

// memStore is an in-memory user and message store. It mirrors the persistence
// contract: Get methods return (nil, nil) for missing rows, reads exclude
// soft-deleted messages, and history is returned newest first.
type memStore struct {
	mu       sync.Mutex
	users    map[string]models.User
	messages map[string]models.Message
}

func newMemStore(userIDs ...string) *memStore {
	s := &memStore{
		users:    make(map[string]models.User),
		messages: make(map[string]models.Message),
	}
	for _, id := range userIDs {
		s.users[id] = models.User{ID: id, FirstName: "Test", LastName: id, Email: id + "@example.com", IsActive: true}
	}
	return s
}

// UserStore

func (s *memStore) GetUserByID(id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *memStore) GetUsersByIDs(ids []string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *memStore) SaveUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	s.users[user.ID] = *user
	return nil
}

// MessageStore

func (s *memStore) CreateMessage(msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	s.messages[msg.ID] = *msg
	return nil
}

func (s *memStore) SaveMessage(msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ID] = *msg
	return nil
}

func (s *memStore) GetMessageByID(id string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *memStore) GetChatHistory(userA, userB string, page, limit int) ([]models.Message, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Message
	for _, m := range s.messages {
		if m.IsDeleted {
			continue
		}
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			matched = append(matched, m)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *memStore) MarkMessagesRead(senderID, receiverID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var affected int64
	for id, m := range s.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsDeleted && m.Status != models.MessageStatusRead {
			m.Status = models.MessageStatusRead
			s.messages[id] = m
			affected++
		}
	}
	return affected, nil
}

func (s *memStore) UnreadCount(userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.ReceiverID == userID && !m.IsDeleted && m.Status != models.MessageStatusRead {
			n++
		}
	}
	return n, nil
}

func (s *memStore) RecentConversations(userID string, limit int) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := make(map[string]models.Message)
	unread := make(map[string]int64)
	for _, m := range s.messages {
		if m.IsDeleted {
			continue
		}
		var peer string
		switch userID {
		case m.SenderID:
			peer = m.ReceiverID
		case m.ReceiverID:
			peer = m.SenderID
		default:
			continue
		}
		if cur, ok := latest[peer]; !ok || m.CreatedAt.After(cur.CreatedAt) {
			latest[peer] = m
		}
		if m.ReceiverID == userID && m.Status != models.MessageStatusRead {
			unread[peer]++
		}
	}

	var out []models.Conversation
	for peer, msg := range latest {
		conv := models.Conversation{PeerID: peer, LastMessage: msg, UnreadCount: unread[peer]}
		if u, ok := s.users[peer]; ok {
			peerCopy := u
			conv.Peer = &peerCopy
		}
		out = append(out, conv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessage.CreatedAt.After(out[j].LastMessage.CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) messageByID(id string) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[id]
}

// recNotifier records delivered events per user.
type recNotifier struct {
	mu     sync.Mutex
	online map[string]bool
	events map[string][]string
}

func newRecNotifier(onlineUsers ...string) *recNotifier {
	n := &recNotifier{online: make(map[string]bool), events: make(map[string][]string)}
	for _, id := range onlineUsers {
		n.online[id] = true
	}
	return n
}

func (n *recNotifier) Notify(userID, event string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events[userID] = append(n.events[userID], event)
}

func (n *recNotifier) IsOnline(userID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.online[userID]
}

func (n *recNotifier) eventsFor(userID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events[userID]))
	copy(out, n.events[userID])
	return out
}
