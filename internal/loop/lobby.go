package loop

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// LobbyEvent is a notice broadcast to connected players.
type LobbyEvent int

const (
	LobbyShutdown LobbyEvent = iota // Server is going down
)

// PlayerHandle is one connected player's registration.
type PlayerHandle struct {
	ID     string
	Name   string
	Joined time.Time
	Events chan LobbyEvent
}

// Lobby tracks the players connected to a shared server. Every player runs a
// private session; the lobby only counts them and delivers server notices.
// Safe for concurrent use.
type Lobby struct {
	mu      sync.RWMutex
	players map[string]*PlayerHandle
}

// NewLobby creates an empty lobby.
func NewLobby() *Lobby {
	return &Lobby{players: make(map[string]*PlayerHandle)}
}

// Join registers a player and returns its handle.
func (l *Lobby) Join(name string) *PlayerHandle {
	h := &PlayerHandle{
		ID:     uuid.NewString(),
		Name:   name,
		Joined: time.Now(),
		Events: make(chan LobbyEvent, 4),
	}
	l.mu.Lock()
	l.players[h.ID] = h
	l.mu.Unlock()
	return h
}

// Leave removes a player. Unknown ids are ignored.
func (l *Lobby) Leave(id string) {
	l.mu.Lock()
	delete(l.players, id)
	l.mu.Unlock()
}

// Players returns the number of connected players.
func (l *Lobby) Players() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.players)
}

// Shutdown notifies every player that the server is going down and waits for
// them to leave, up to timeout.
func (l *Lobby) Shutdown(timeout time.Duration) {
	l.mu.RLock()
	for _, h := range l.players {
		select {
		case h.Events <- LobbyShutdown:
		default:
		}
	}
	l.mu.RUnlock()

	deadline := time.After(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.Players() == 0 {
			return
		}
		select {
		case <-deadline:
			return
		case <-ticker.C:
		}
	}
}
