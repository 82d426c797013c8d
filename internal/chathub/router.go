package chathub

import (
	"encoding/json"
	"log"

	"connectly/backend/internal/apperr"
	"connectly/backend/internal/models"
)

// MessageService is the slice of the delivery service the router invokes.
type MessageService interface {
	Send(senderID, receiverID, content, msgType string, replyTo *string) (*models.Message, error)
	MarkRead(senderID, receiverID string) error
	EditMessage(messageID, requestorID, newContent string) (*models.Message, error)
	DeleteMessage(messageID, requestorID string) (*models.Message, error)
}

// CallService is the slice of the call state machine the router invokes.
type CallService interface {
	StartCall(callerID, receiverID, callType string) (*models.Call, error)
	AnswerCall(callID, receiverID string) (*models.Call, error)
	DeclineCall(callID, receiverID string) (*models.Call, error)
	EndCall(callID, userID, reason string) (*models.Call, error)
}

// Router dispatches inbound session events to the domain services and
// reports results back to the originating session. It keeps no state of its
// own; peer-directed events are pushed by the services through the registry,
// failures only ever reach the session that caused them.
type Router struct {
	registry *Registry
	messages MessageService
	calls    CallService
}

// NewRouter constructs the event router.
func NewRouter(registry *Registry, messages MessageService, calls CallService) *Router {
	return &Router{registry: registry, messages: messages, calls: calls}
}

// Dispatch handles one inbound event from the given session. It never
// panics the session worker; every failure turns into an error event.
func (r *Router) Dispatch(c Client, evt models.ClientEvent) {
	userID := c.GetUserID()

	switch evt.Event {
	case models.EventSendMessage:
		var p models.SendMessagePayload
		if !r.decode(c, models.EventMessageError, evt.Data, &p) {
			return
		}
		msg, err := r.messages.Send(userID, p.ReceiverID, p.Content, p.Type, p.ReplyTo)
		if err != nil {
			r.reportError(c, models.EventMessageError, err)
			return
		}
		r.reply(c, models.EventMessageSent, map[string]any{"success": true, "message": msg})

	case models.EventMarkAsRead:
		var p models.MarkAsReadPayload
		if !r.decode(c, models.EventError, evt.Data, &p) {
			return
		}
		if err := r.messages.MarkRead(p.SenderID, userID); err != nil {
			r.reportError(c, models.EventError, err)
			return
		}
		r.reply(c, models.EventMessagesMarkedRead, map[string]any{"success": true})

	case models.EventEditMessage:
		var p models.EditMessagePayload
		if !r.decode(c, models.EventError, evt.Data, &p) {
			return
		}
		msg, err := r.messages.EditMessage(p.MessageID, userID, p.NewContent)
		if err != nil {
			r.reportError(c, models.EventError, err)
			return
		}
		r.reply(c, models.EventMessageEdited, msg)

	case models.EventDeleteMessage:
		var p models.DeleteMessagePayload
		if !r.decode(c, models.EventError, evt.Data, &p) {
			return
		}
		if _, err := r.messages.DeleteMessage(p.MessageID, userID); err != nil {
			r.reportError(c, models.EventError, err)
			return
		}
		r.reply(c, models.EventMessageDeleted, models.MessageDeletedPayload{MessageID: p.MessageID})

	case models.EventTyping, models.EventStopTyping:
		var p models.TypingPayload
		if !r.decode(c, models.EventError, evt.Data, &p) {
			return
		}
		r.registry.Notify(p.ReceiverID, models.EventUserTyping, models.UserTypingPayload{
			UserID:   userID,
			IsTyping: evt.Event == models.EventTyping,
		})

	case models.EventStartCall:
		var p models.StartCallPayload
		if !r.decode(c, models.EventCallError, evt.Data, &p) {
			return
		}
		call, err := r.calls.StartCall(userID, p.ReceiverID, p.Type)
		if err != nil {
			r.reportError(c, models.EventCallError, err)
			return
		}
		r.reply(c, models.EventCallStarted, call)

	case models.EventAnswerCall:
		var p models.CallActionPayload
		if !r.decode(c, models.EventCallError, evt.Data, &p) {
			return
		}
		call, err := r.calls.AnswerCall(p.CallID, userID)
		if err != nil {
			r.reportError(c, models.EventCallError, err)
			return
		}
		r.reply(c, models.EventCallAnswered, call)

	case models.EventDeclineCall:
		var p models.CallActionPayload
		if !r.decode(c, models.EventCallError, evt.Data, &p) {
			return
		}
		call, err := r.calls.DeclineCall(p.CallID, userID)
		if err != nil {
			r.reportError(c, models.EventCallError, err)
			return
		}
		r.reply(c, models.EventCallDeclined, call)

	case models.EventEndCall:
		var p models.CallActionPayload
		if !r.decode(c, models.EventCallError, evt.Data, &p) {
			return
		}
		call, err := r.calls.EndCall(p.CallID, userID, p.Reason)
		if err != nil {
			r.reportError(c, models.EventCallError, err)
			return
		}
		r.reply(c, models.EventCallEnded, call)

	default:
		log.Printf("Unknown event %q from user %s", evt.Event, userID)
		r.reply(c, models.EventError, models.ErrorPayload{Message: "unknown event: " + evt.Event})
	}
}

// decode unmarshals a payload, reporting a malformed frame back to the
// originator. Returns false when dispatch should stop.
func (r *Router) decode(c Client, errEvent string, data json.RawMessage, dst any) bool {
	if err := json.Unmarshal(data, dst); err != nil {
		log.Printf("Error decoding payload from user %s: %v", c.GetUserID(), err)
		r.reply(c, errEvent, models.ErrorPayload{Message: "invalid payload"})
		return false
	}
	return true
}

func (r *Router) reportError(c Client, errEvent string, err error) {
	if apperr.CodeOf(err) == apperr.CodeUnavailable {
		log.Printf("ERROR: Storage failure handling event for user %s: %v", c.GetUserID(), err)
	}
	r.reply(c, errEvent, models.ErrorPayload{Message: apperr.MessageOf(err)})
}

func (r *Router) reply(c Client, event string, data any) {
	r.registry.push(c, models.ServerEvent{Event: event, Data: data})
}
