package chathub_test

import (
	"sync"

	"github.com/redis/go-redis/v9"

	"connectly/backend/internal/models"
)

// fakeClient is a registry client backed by a buffered channel. Close is
// idempotent, mirroring the behavior of the WebSocket client.
type fakeClient struct {
	userID string
	send   chan models.ServerEvent

	mu     sync.Mutex
	closed bool
}

func newFakeClient(userID string, buffer int) *fakeClient {
	return &fakeClient{userID: userID, send: make(chan models.ServerEvent, buffer)}
}

func (c *fakeClient) GetUserID() string { return c.userID }

func (c *fakeClient) TrySend(event models.ServerEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

func (c *fakeClient) Run() {}

func (c *fakeClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// received drains and returns everything buffered so far.
func (c *fakeClient) received() []models.ServerEvent {
	var out []models.ServerEvent
	for {
		select {
		case evt := <-c.send:
			out = append(out, evt)
		default:
			return out
		}
	}
}

func (c *fakeClient) receivedEvents() []string {
	var names []string
	for _, evt := range c.received() {
		names = append(names, evt.Event)
	}
	return names
}

// fakePresence records online/offline mirror calls. publishErr forces the
// broadcaster onto its local fallback path.
type fakePresence struct {
	mu         sync.Mutex
	online     map[string]bool
	published  []models.UserStatusPayload
	publishErr error
}

func newFakePresence() *fakePresence {
	return &fakePresence{online: make(map[string]bool)}
}

func (p *fakePresence) SetOnline(userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = true
	return nil
}

func (p *fakePresence) SetOffline(userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, userID)
	return nil
}

func (p *fakePresence) OnlineUsers() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for id := range p.online {
		out = append(out, id)
	}
	return out, nil
}

func (p *fakePresence) PublishPresence(payload models.UserStatusPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.publishErr != nil {
		return p.publishErr
	}
	p.published = append(p.published, payload)
	return nil
}

// SubscribePresence is unused by these tests; the listener is exercised
// against a real Redis in integration environments.
func (p *fakePresence) SubscribePresence() *redis.PubSub { return nil }

func (p *fakePresence) isOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *fakePresence) publishedStatuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, payload := range p.published {
		out = append(out, payload.UserID+":"+payload.Status)
	}
	return out
}

// recAnnouncer records announced transitions.
type recAnnouncer struct {
	mu          sync.Mutex
	transitions []string
}

func (a *recAnnouncer) Announce(userID, status string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transitions = append(a.transitions, userID+":"+status)
}

func (a *recAnnouncer) all() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.transitions))
	copy(out, a.transitions)
	return out
}

// fakeMessageService scripts the delivery service for router tests.
type fakeMessageService struct {
	sendErr   error
	editErr   error
	deleteErr error
	markErr   error

	mu    sync.Mutex
	calls []string
}

func (f *fakeMessageService) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeMessageService) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeMessageService) Send(senderID, receiverID, content, msgType string, replyTo *string) (*models.Message, error) {
	f.record("Send")
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &models.Message{ID: "m1", SenderID: senderID, ReceiverID: receiverID, Content: content}, nil
}

func (f *fakeMessageService) MarkRead(senderID, receiverID string) error {
	f.record("MarkRead")
	return f.markErr
}

func (f *fakeMessageService) EditMessage(messageID, requestorID, newContent string) (*models.Message, error) {
	f.record("EditMessage")
	if f.editErr != nil {
		return nil, f.editErr
	}
	return &models.Message{ID: messageID, SenderID: requestorID, Content: newContent, IsEdited: true}, nil
}

func (f *fakeMessageService) DeleteMessage(messageID, requestorID string) (*models.Message, error) {
	f.record("DeleteMessage")
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &models.Message{ID: messageID, SenderID: requestorID, IsDeleted: true}, nil
}

// fakeCallService scripts the call state machine for router tests.
type fakeCallService struct {
	startErr   error
	answerErr  error
	declineErr error
	endErr     error
}

func (f *fakeCallService) StartCall(callerID, receiverID, callType string) (*models.Call, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &models.Call{CallID: "CALL_1_test", CallerID: callerID, ReceiverID: receiverID, Status: models.CallStatusInitiated}, nil
}

func (f *fakeCallService) AnswerCall(callID, receiverID string) (*models.Call, error) {
	if f.answerErr != nil {
		return nil, f.answerErr
	}
	return &models.Call{CallID: callID, ReceiverID: receiverID, Status: models.CallStatusAnswered}, nil
}

func (f *fakeCallService) DeclineCall(callID, receiverID string) (*models.Call, error) {
	if f.declineErr != nil {
		return nil, f.declineErr
	}
	return &models.Call{CallID: callID, ReceiverID: receiverID, Status: models.CallStatusDeclined}, nil
}

func (f *fakeCallService) EndCall(callID, userID, reason string) (*models.Call, error) {
	if f.endErr != nil {
		return nil, f.endErr
	}
	return &models.Call{CallID: callID, Status: models.CallStatusEnded, EndReason: reason}, nil
}
