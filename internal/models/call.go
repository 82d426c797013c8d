package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Call statuses. initiated, ringing and answered are the active states;
// everything else is terminal.
const (
	CallStatusInitiated = "initiated"
	CallStatusRinging   = "ringing"
	CallStatusAnswered  = "answered"
	CallStatusEnded     = "ended"
	CallStatusMissed    = "missed"
	CallStatusDeclined  = "declined"
	CallStatusFailed    = "failed"
)

// Call types.
const (
	CallTypeVoice = "voice"
	CallTypeVideo = "video"
)

// Call end reasons.
const (
	EndReasonCompleted        = "completed"
	EndReasonCallerEnded      = "caller_ended"
	EndReasonReceiverEnded    = "receiver_ended"
	EndReasonNetworkIssue     = "network_issue"
	EndReasonDeclined         = "declined"
	EndReasonTimeout          = "timeout"
	EndReasonUserDisconnected = "user_disconnected"
)

// Call is a persisted voice or video call between two users.
// At most one call per user may be active (initiated/ringing/answered with
// IsActive set) at any time; the calls service enforces this.
type Call struct {
	ID string `gorm:"primaryKey" json:"id"`
	// CallID is the externally visible unique call token.
	CallID     string     `gorm:"uniqueIndex;not null" json:"callId"`
	CallerID   string     `gorm:"type:text;not null;index" json:"callerId"`
	ReceiverID string     `gorm:"type:text;not null;index" json:"receiverId"`
	Type       string     `gorm:"type:text;not null" json:"type"`
	Status     string     `gorm:"type:text;not null;default:initiated;index" json:"status"`
	StartTime  time.Time  `gorm:"index" json:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	// Duration is whole seconds, computed when the call ends.
	Duration  int64     `gorm:"default:0" json:"duration"`
	EndReason string    `gorm:"type:text" json:"endReason,omitempty"`
	IsActive  bool      `gorm:"default:true;index" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the ID is not set.
func (c *Call) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// HasActiveStatus reports whether the call is in one of the active states.
func (c *Call) HasActiveStatus() bool {
	switch c.Status {
	case CallStatusInitiated, CallStatusRinging, CallStatusAnswered:
		return true
	}
	return false
}

// Involves reports whether userID is the caller or the receiver.
func (c *Call) Involves(userID string) bool {
	return c.CallerID == userID || c.ReceiverID == userID
}

// OtherParty returns the participant that is not userID.
func (c *Call) OtherParty(userID string) string {
	if c.CallerID == userID {
		return c.ReceiverID
	}
	return c.CallerID
}

// End transitions the call to a terminal state at the given time and
// computes the duration in whole seconds.
func (c *Call) End(status, reason string, at time.Time) {
	c.Status = status
	c.EndReason = reason
	c.EndTime = &at
	c.IsActive = false
	c.Duration = int64(at.Sub(c.StartTime) / time.Second)
	if c.Duration < 0 {
		c.Duration = 0
	}
}

// GenerateCallID builds the externally visible call token. The random
// component comes from a v4 UUID, so collisions are negligible.
func GenerateCallID() string {
	return fmt.Sprintf("CALL_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// ValidCallType reports whether t is a supported call type.
func ValidCallType(t string) bool {
	return t == CallTypeVoice || t == CallTypeVideo
}

// CallStats aggregates a user's call history.
type CallStats struct {
	TotalCalls    int64 `json:"totalCalls"`
	TotalDuration int64 `json:"totalDuration"`
	AnsweredCalls int64 `json:"answeredCalls"`
	MissedCalls   int64 `json:"missedCalls"`
	VoiceCalls    int64 `json:"voiceCalls"`
	VideoCalls    int64 `json:"videoCalls"`
}
