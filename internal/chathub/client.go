package chathub

import "connectly/backend/internal/models"

// Client is the interface for a live, addressable connection bound to one
// authenticated user. It abstracts the transport so the registry and router
// can manage WebSocket sessions and test doubles uniformly.
type Client interface {
	// GetUserID returns the authenticated user this session belongs to.
	GetUserID() string

	// TrySend queues an outbound event without blocking. It reports false
	// when the client is closed or its buffer is full; the registry evicts
	// such clients. It must be safe to call concurrently with Close.
	TrySend(event models.ServerEvent) bool

	// Run starts the client's read and write pumps.
	Run()

	// Close shuts the client down. It must be safe to call more than once.
	Close()
}
