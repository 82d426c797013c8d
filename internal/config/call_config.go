package config

import "time"

const (
	// Call timing
	RingDelay   = 1 * time.Second  // initiated -> ringing after the callee is notified
	RingTimeout = 60 * time.Second // unanswered calls become missed after this

	// Pagination defaults
	DefaultHistoryLimit       = 50
	DefaultCallHistoryLimit   = 20
	DefaultConversationsLimit = 10
	MaxPageLimit              = 100

	// Session
	SendBufferSize = 256
)
