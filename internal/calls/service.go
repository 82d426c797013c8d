// Package calls implements the call state machine. Lifecycle:
// initiated -> ringing -> answered -> ended, with declined/missed/failed as
// terminal side branches. A user may be party to at most one active call at
// a time; StartCall enforces this under per-user locks.
package calls

import (
	"log"
	"sync"
	"time"

	"connectly/backend/internal/apperr"
	"connectly/backend/internal/config"
	"connectly/backend/internal/models"
	"connectly/backend/internal/storage"
)

// Notifier pushes an event to a user's live session, if any.
type Notifier interface {
	Notify(userID, event string, data any)
	IsOnline(userID string) bool
}

// Service drives call lifecycle transitions.
type Service struct {
	users    storage.UserStore
	calls    storage.CallStore
	notifier Notifier
	timers   *timerSet

	// lockMu guards locks; each entry serializes the check-then-insert
	// critical section for one user.
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	ringDelay   time.Duration
	ringTimeout time.Duration
}

// NewService constructs the call service with the default timing knobs.
func NewService(users storage.UserStore, calls storage.CallStore, notifier Notifier) *Service {
	return NewServiceWithTimings(users, calls, notifier, config.RingDelay, config.RingTimeout)
}

// NewServiceWithTimings constructs the call service with explicit ring
// timings.
func NewServiceWithTimings(users storage.UserStore, calls storage.CallStore, notifier Notifier, ringDelay, ringTimeout time.Duration) *Service {
	return &Service{
		users:       users,
		calls:       calls,
		notifier:    notifier,
		timers:      newTimerSet(),
		locks:       make(map[string]*sync.Mutex),
		ringDelay:   ringDelay,
		ringTimeout: ringTimeout,
	}
}

// userLock returns the mutex serializing call creation for one user.
func (s *Service) userLock(userID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu, ok := s.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[userID] = mu
	}
	return mu
}

// lockUsers acquires both participants' locks in a fixed order so two
// concurrent starts cannot deadlock. Returns the unlock function.
func (s *Service) lockUsers(a, b string) func() {
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	mu1, mu2 := s.userLock(first), s.userLock(second)
	mu1.Lock()
	mu2.Lock()
	return func() {
		mu2.Unlock()
		mu1.Unlock()
	}
}

// StartCall creates a call in the initiated state. The exclusivity check and
// the insert run under both participants' locks, so two simultaneous starts
// involving the same user cannot both succeed. A deferred transition moves
// the call to ringing after the ring delay, and an unanswered call becomes
// missed after the ring timeout.
func (s *Service) StartCall(callerID, receiverID, callType string) (*models.Call, error) {
	if callerID == receiverID {
		return nil, apperr.BadRequest("Cannot call yourself")
	}
	if callType == "" {
		callType = models.CallTypeVoice
	}
	if !models.ValidCallType(callType) {
		return nil, apperr.BadRequest("Invalid call type")
	}

	if err := s.ensureUserExists(callerID, "Caller not found"); err != nil {
		return nil, err
	}
	if err := s.ensureUserExists(receiverID, "Receiver not found"); err != nil {
		return nil, err
	}

	unlock := s.lockUsers(callerID, receiverID)
	defer unlock()

	active, err := s.calls.GetActiveCallForUser(callerID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, apperr.Conflict("You already have an active call")
	}
	active, err = s.calls.GetActiveCallForUser(receiverID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, apperr.Conflict("Receiver is already on a call")
	}

	call := &models.Call{
		CallID:     models.GenerateCallID(),
		CallerID:   callerID,
		ReceiverID: receiverID,
		Type:       callType,
		Status:     models.CallStatusInitiated,
		StartTime:  time.Now(),
		IsActive:   true,
	}
	if err := s.calls.CreateCall(call); err != nil {
		return nil, err
	}

	s.timers.schedule(call.CallID, s.ringDelay, func() { s.markRinging(call.CallID) })
	s.timers.schedule(call.CallID, s.ringTimeout, func() { s.markMissed(call.CallID) })

	if s.notifier.IsOnline(receiverID) {
		s.notifier.Notify(receiverID, models.EventIncomingCall, call)
	}
	return call, nil
}

// AnswerCall transitions an initiated or ringing call to answered. Only the
// call's receiver may answer. Any other state, party, or unknown token fails
// NotFound uniformly.
func (s *Service) AnswerCall(callID, receiverID string) (*models.Call, error) {
	call, err := s.calls.GetCallByCallID(callID)
	if err != nil {
		return nil, err
	}
	if !canReceiverAct(call, receiverID) {
		return nil, apperr.NotFound("Call not found or cannot be answered")
	}

	call.Status = models.CallStatusAnswered
	ok, err := s.calls.TransitionCall(call, []string{models.CallStatusInitiated, models.CallStatusRinging})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("Call not found or cannot be answered")
	}
	s.timers.cancel(call.CallID)

	if s.notifier.IsOnline(call.CallerID) {
		s.notifier.Notify(call.CallerID, models.EventCallAnswered, call)
	}
	return call, nil
}

// DeclineCall transitions an initiated or ringing call to declined. Same
// preconditions as AnswerCall.
func (s *Service) DeclineCall(callID, receiverID string) (*models.Call, error) {
	call, err := s.calls.GetCallByCallID(callID)
	if err != nil {
		return nil, err
	}
	if !canReceiverAct(call, receiverID) {
		return nil, apperr.NotFound("Call not found or cannot be declined")
	}

	call.End(models.CallStatusDeclined, models.EndReasonDeclined, time.Now())
	ok, err := s.calls.TransitionCall(call, []string{models.CallStatusInitiated, models.CallStatusRinging})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("Call not found or cannot be declined")
	}
	s.timers.cancel(call.CallID)

	if s.notifier.IsOnline(call.CallerID) {
		s.notifier.Notify(call.CallerID, models.EventCallDeclined, call)
	}
	return call, nil
}

// EndCall transitions an active call to ended and computes its duration.
// Either participant may end it.
func (s *Service) EndCall(callID, userID, reason string) (*models.Call, error) {
	call, err := s.calls.GetCallByCallID(callID)
	if err != nil {
		return nil, err
	}
	if call == nil || !call.Involves(userID) {
		return nil, apperr.NotFound("Call not found or already ended")
	}
	if !call.HasActiveStatus() {
		return nil, apperr.BadRequest("Call is not active")
	}
	if reason == "" {
		reason = models.EndReasonCompleted
	}

	call.End(models.CallStatusEnded, reason, time.Now())
	ok, err := s.calls.TransitionCall(call, []string{models.CallStatusInitiated, models.CallStatusRinging, models.CallStatusAnswered})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.BadRequest("Call is not active")
	}
	s.timers.cancel(call.CallID)

	other := call.OtherParty(userID)
	if s.notifier.IsOnline(other) {
		s.notifier.Notify(other, models.EventCallEnded, call)
	}
	return call, nil
}

// GetActiveCall returns the user's single active call, or nil.
func (s *Service) GetActiveCall(userID string) (*models.Call, error) {
	return s.calls.GetActiveCallForUser(userID)
}

// GetCallHistory returns one page of the user's calls, newest first,
// optionally filtered by type and status.
func (s *Service) GetCallHistory(userID string, page, limit int, callType, status string) ([]models.Call, models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = config.DefaultCallHistoryLimit
	}
	if limit > config.MaxPageLimit {
		limit = config.MaxPageLimit
	}
	calls, total, err := s.calls.GetCallHistory(userID, page, limit, callType, status)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return calls, models.NewPagination(page, limit, total), nil
}

// GetCallStats aggregates the user's call records.
func (s *Service) GetCallStats(userID string) (*models.CallStats, error) {
	return s.calls.GetCallStats(userID)
}

// EndAllActiveForUser ends every active call involving the user, notifying
// the other party of each. Invoked when a session disconnects so no call is
// left dangling.
func (s *Service) EndAllActiveForUser(userID, reason string) error {
	ended, err := s.calls.EndActiveCallsForUser(userID, reason)
	if err != nil {
		log.Printf("ERROR: Failed to end active calls for user %s: %v", userID, err)
		return err
	}
	for i := range ended {
		s.timers.cancel(ended[i].CallID)
		other := ended[i].OtherParty(userID)
		if s.notifier.IsOnline(other) {
			s.notifier.Notify(other, models.EventCallEnded, &ended[i])
		}
	}
	return nil
}

// markRinging is the deferred initiated -> ringing transition. The write is
// conditional on the stored row still being initiated and active, so a call
// answered or ended after this read is left alone.
func (s *Service) markRinging(callID string) {
	call, err := s.calls.GetCallByCallID(callID)
	if err != nil || call == nil {
		return
	}
	if call.Status != models.CallStatusInitiated || !call.IsActive {
		return
	}
	call.Status = models.CallStatusRinging
	if _, err := s.calls.TransitionCall(call, []string{models.CallStatusInitiated}); err != nil {
		log.Printf("ERROR: Failed to mark call %s ringing: %v", callID, err)
	}
}

// markMissed fires when the ring timeout elapses with no answer. The call
// becomes missed with endReason timeout and both parties are told.
func (s *Service) markMissed(callID string) {
	call, err := s.calls.GetCallByCallID(callID)
	if err != nil || call == nil {
		return
	}
	if !call.IsActive || (call.Status != models.CallStatusInitiated && call.Status != models.CallStatusRinging) {
		return
	}

	call.End(models.CallStatusMissed, models.EndReasonTimeout, time.Now())
	ok, err := s.calls.TransitionCall(call, []string{models.CallStatusInitiated, models.CallStatusRinging})
	if err != nil {
		log.Printf("ERROR: Failed to mark call %s missed: %v", callID, err)
		return
	}
	if !ok {
		// Answered or ended after this callback's read.
		return
	}
	s.timers.cancel(call.CallID)

	for _, userID := range []string{call.CallerID, call.ReceiverID} {
		if s.notifier.IsOnline(userID) {
			s.notifier.Notify(userID, models.EventCallMissed, call)
		}
	}
}

// canReceiverAct reports whether the receiver may answer or decline: the
// call exists, is still active, has not been picked up, and belongs to them.
func canReceiverAct(call *models.Call, receiverID string) bool {
	if call == nil || !call.IsActive || call.ReceiverID != receiverID {
		return false
	}
	return call.Status == models.CallStatusInitiated || call.Status == models.CallStatusRinging
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
