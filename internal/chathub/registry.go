package chathub

import (
	"log"
	"sync"
	"time"

	"connectly/backend/internal/models"
	"connectly/backend/internal/storage"
)

// Announcer receives presence transitions derived from registry mutations.
type Announcer interface {
	Announce(userID, status string)
}

// session pairs a client with the time it registered.
type session struct {
	client      Client
	connectedAt time.Time
}

// Registry is the single source of truth for which users are reachable
// right now. It maps each user to at most one live session; a second
// connection for the same user evicts the first (newest wins).
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session

	presence  storage.PresenceStore
	announcer Announcer

	// disconnect hooks run after a genuine unregister, outside the lock.
	hookMu          sync.Mutex
	disconnectHooks []func(userID string)
}

// NewRegistry constructs an empty registry backed by the given presence
// mirror.
func NewRegistry(presence storage.PresenceStore) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		presence: presence,
	}
}

// SetAnnouncer wires the presence broadcaster. Set once during startup.
func (r *Registry) SetAnnouncer(a Announcer) {
	r.announcer = a
}

// OnDisconnect registers a hook invoked with the user ID after their session
// is genuinely removed (not after a stale unregister).
func (r *Registry) OnDisconnect(fn func(userID string)) {
	r.hookMu.Lock()
	defer r.hookMu.Unlock()
	r.disconnectHooks = append(r.disconnectHooks, fn)
}

// Register stores the client as the user's current session. Any previous
// session for the same user is closed first; its later unregister becomes a
// stale no-op.
func (r *Registry) Register(c Client) {
	userID := c.GetUserID()

	r.mu.Lock()
	old := r.sessions[userID]
	r.sessions[userID] = &session{client: c, connectedAt: time.Now()}
	r.mu.Unlock()

	if old != nil {
		log.Printf("Duplicate session for user %s, closing the previous one", userID)
		old.client.Close()
	}

	// The Redis mirror is best effort; a failure must not break the session.
	if err := r.presence.SetOnline(userID); err != nil {
		log.Printf("ERROR: Failed to mirror online state for %s: %v", userID, err)
	}
	if r.announcer != nil {
		r.announcer.Announce(userID, "online")
	}
}

// Unregister removes the session only if it is still the user's current one.
// The identity check prevents an old connection's disconnect handler from
// evicting a newer session that replaced it.
func (r *Registry) Unregister(c Client) {
	userID := c.GetUserID()

	r.mu.Lock()
	cur, ok := r.sessions[userID]
	if !ok || cur.client != c {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, userID)
	r.mu.Unlock()

	if err := r.presence.SetOffline(userID); err != nil {
		log.Printf("ERROR: Failed to mirror offline state for %s: %v", userID, err)
	}
	if r.announcer != nil {
		r.announcer.Announce(userID, "offline")
	}

	r.hookMu.Lock()
	hooks := make([]func(string), len(r.disconnectHooks))
	copy(hooks, r.disconnectHooks)
	r.hookMu.Unlock()
	for _, hook := range hooks {
		hook(userID)
	}
}

// Lookup returns the user's current session client, if connected.
func (r *Registry) Lookup(userID string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	if !ok {
		return nil, false
	}
	return s.client, true
}

// IsOnline reports whether the user has a live session on this instance.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[userID]
	return ok
}

// Notify pushes an event to the user's session when connected. The send is
// non-blocking: a client whose buffer is full is dropped and evicted rather
// than stalling the caller.
func (r *Registry) Notify(userID, event string, data any) {
	client, ok := r.Lookup(userID)
	if !ok {
		return
	}
	r.push(client, models.ServerEvent{Event: event, Data: data})
}

// Broadcast pushes an event to every connected session.
func (r *Registry) Broadcast(event models.ServerEvent) {
	r.mu.RLock()
	clients := make([]Client, 0, len(r.sessions))
	for _, s := range r.sessions {
		clients = append(clients, s.client)
	}
	r.mu.RUnlock()

	for _, c := range clients {
		r.push(c, event)
	}
}

func (r *Registry) push(c Client, event models.ServerEvent) {
	if c.TrySend(event) {
		return
	}
	log.Printf("Client %s unreachable or send buffer full, evicting", c.GetUserID())
	r.Unregister(c)
	c.Close()
}
