package models

import (
	"encoding/json"
	"time"
)

// Inbound event names a client may send over its session.
const (
	EventSendMessage   = "send_message"
	EventMarkAsRead    = "mark_as_read"
	EventEditMessage   = "edit_message"
	EventDeleteMessage = "delete_message"
	EventTyping        = "typing"
	EventStopTyping    = "stop_typing"
	EventStartCall     = "start_call"
	EventAnswerCall    = "answer_call"
	EventDeclineCall   = "decline_call"
	EventEndCall       = "end_call"
)

// Outbound event names pushed to sessions.
const (
	EventMessageSent        = "message_sent"
	EventNewMessage         = "new_message"
	EventMessageError       = "message_error"
	EventMessagesRead       = "messages_read"
	EventMessagesMarkedRead = "messages_marked_read"
	EventMessageEdited      = "message_edited"
	EventMessageDeleted     = "message_deleted"
	EventUserTyping         = "user_typing"
	EventCallStarted        = "call_started"
	EventIncomingCall       = "incoming_call"
	EventCallAnswered       = "call_answered"
	EventCallDeclined       = "call_declined"
	EventCallEnded          = "call_ended"
	EventCallMissed         = "call_missed"
	EventCallError          = "call_error"
	EventUserStatus         = "user_status"
	EventError              = "error"
)

// ClientEvent is the wire frame read from a session. Data stays raw until
// the router knows which payload to decode it into.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerEvent is the wire frame written to a session.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Inbound payloads.

type SendMessagePayload struct {
	ReceiverID string  `json:"receiverId"`
	Content    string  `json:"content"`
	Type       string  `json:"type"`
	ReplyTo    *string `json:"replyTo,omitempty"`
}

type MarkAsReadPayload struct {
	SenderID string `json:"senderId"`
}

type EditMessagePayload struct {
	MessageID  string `json:"messageId"`
	NewContent string `json:"newContent"`
}

type DeleteMessagePayload struct {
	MessageID string `json:"messageId"`
}

type TypingPayload struct {
	ReceiverID string `json:"receiverId"`
}

type StartCallPayload struct {
	ReceiverID string `json:"receiverId"`
	Type       string `json:"type"`
}

type CallActionPayload struct {
	CallID string `json:"callId"`
	Reason string `json:"reason,omitempty"`
}

// Outbound payloads.

type UserStatusPayload struct {
	UserID    string    `json:"userId"`
	Status    string    `json:"status"` // "online" | "offline"
	Timestamp time.Time `json:"timestamp"`
}

type UserTypingPayload struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type MessagesReadPayload struct {
	ReadBy string `json:"readBy"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
