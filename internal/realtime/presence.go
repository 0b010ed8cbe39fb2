package realtime

import (
	"sync"

	"github.com/qius-alx/social-network/internal/model"
)

// Client is one authenticated connection as the messaging core sees it.
type Client interface {
	// ID identifies the connection, not the user.
	ID() string
	Profile() model.Profile
	// Send queues frame for delivery. It fails once the connection is
	// closed or its queue is full.
	Send(frame []byte) error
}

// Registry tracks which connection currently represents each online user.
// It holds at most one connection per user; the latest registration wins.
type Registry interface {
	// Register maps userID to c and returns the connection it displaced,
	// if any.
	Register(userID string, c Client) (previous Client)
	Lookup(userID string) (Client, bool)
	// Unregister removes the entry only while it still points at c, so a
	// superseded connection closing late cannot evict its replacement.
	Unregister(userID string, c Client) bool
}

// Presence is the in-memory Registry.
type Presence struct {
	mu      sync.RWMutex
	clients map[string]Client
}

var _ Registry = (*Presence)(nil)

func NewPresence() *Presence {
	return &Presence{clients: make(map[string]Client)}
}

func (p *Presence) Register(userID string, c Client) Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.clients[userID]
	p.clients[userID] = c
	return prev
}

func (p *Presence) Lookup(userID string) (Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	c, ok := p.clients[userID]
	return c, ok
}

func (p *Presence) Unregister(userID string, c Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cur, ok := p.clients[userID]; ok && cur == c {
		delete(p.clients, userID)
		return true
	}
	return false
}

// Len returns the number of online users.
func (p *Presence) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}
