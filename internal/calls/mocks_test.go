package calls_test

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"connectly/backend/internal/models"
)

// memStore is an in-memory stand-in for the user and call stores. Keeping it
// stateful lets the tests exercise the real check-then-insert interleavings
// instead of scripting expectations.
type memStore struct {
	mu    sync.Mutex
	users map[string]models.User
	calls map[string]models.Call // keyed by external call token
}

func newMemStore(userIDs ...string) *memStore {
	s := &memStore{
		users: make(map[string]models.User),
		calls: make(map[string]models.Call),
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

// CallStore

func (s *memStore) CreateCall(call *models.Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if call.ID == "" {
		call.ID = uuid.New().String()
	}
	s.calls[call.CallID] = *call
	return nil
}

func (s *memStore) TransitionCall(call *models.Call, fromStatuses []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.calls[call.CallID]
	if !ok || !cur.IsActive {
		return false, nil
	}
	matched := false
	for _, status := range fromStatuses {
		if cur.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	s.calls[call.CallID] = *call
	return true, nil
}

func (s *memStore) GetCallByCallID(callID string) (*models.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[callID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *memStore) GetActiveCallForUser(userID string) (*models.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c.Involves(userID) && c.IsActive && c.HasActiveStatus() {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memStore) EndActiveCallsForUser(userID, reason string) ([]models.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ended []models.Call
	for token, c := range s.calls {
		if c.Involves(userID) && c.IsActive && c.HasActiveStatus() {
			c.End(models.CallStatusEnded, reason, time.Now())
			s.calls[token] = c
			ended = append(ended, c)
		}
	}
	return ended, nil
}

func (s *memStore) GetCallHistory(userID string, page, limit int, callType, status string) ([]models.Call, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Call
	for _, c := range s.calls {
		if !c.Involves(userID) {
			continue
		}
		if callType != "" && c.Type != callType {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].StartTime.After(matched[j].StartTime) })

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

func (s *memStore) GetCallStats(userID string) (*models.CallStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &models.CallStats{}
	for _, c := range s.calls {
		if !c.Involves(userID) {
			continue
		}
		stats.TotalCalls++
		stats.TotalDuration += c.Duration
		if c.Status == models.CallStatusAnswered {
			stats.AnsweredCalls++
		}
		if c.Status == models.CallStatusMissed {
			stats.MissedCalls++
		}
		if c.Type == models.CallTypeVoice {
			stats.VoiceCalls++
		}
		if c.Type == models.CallTypeVideo {
			stats.VideoCalls++
		}
	}
	return stats, nil
}

// activeCallsInvolving counts stored calls violating-or-not the exclusivity
// invariant for one user.
func (s *memStore) activeCallsInvolving(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Involves(userID) && c.IsActive && c.HasActiveStatus() {
			n++
		}
	}
	return n
}

// gatedStore blocks one GetCallByCallID read between its load and the
// caller's subsequent write, so a test can interleave another transition into
// that window.
type gatedStore struct {
	*memStore
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(userIDs ...string) *gatedStore {
	return &gatedStore{
		memStore: newMemStore(userIDs...),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (g *gatedStore) GetCallByCallID(callID string) (*models.Call, error) {
	call, err := g.memStore.GetCallByCallID(callID)
	if g.armed.CompareAndSwap(true, false) {
		g.entered <- struct{}{}
		<-g.release
	}
	return call, err
}

// recNotifier records delivered events per user.
type recNotifier struct {
	mu     sync.Mutex
	online map[string]bool
	events map[string][]string // userID -> event names, in order
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
