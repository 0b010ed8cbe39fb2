package realtime

import "sync"

// Room is a broadcast group of connections.
type Room struct {
	name string

	mu      sync.RWMutex
	members map[Client]struct{}
}

func NewRoom(name string) *Room {
	return &Room{name: name, members: make(map[Client]struct{})}
}

func (r *Room) Name() string { return r.name }

func (r *Room) Join(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[c] = struct{}{}
}

func (r *Room) Leave(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, c)
}

func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Broadcast sends frame to every member and returns how many accepted it.
// Members are snapshotted first so a slow Send never blocks Join or Leave.
func (r *Room) Broadcast(frame []byte) int {
	r.mu.RLock()
	members := make([]Client, 0, len(r.members))
	for c := range r.members {
		members = append(members, c)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, c := range members {
		if c.Send(frame) == nil {
			delivered++
		}
	}
	return delivered
}
