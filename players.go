/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"time"
)

type Team int

const (
	TeamNone Team = iota
	Team1
	Team2
)

func (t Team) other() Team {
	if t == Team1 {
		return Team2
	}
	return Team1
}

func (t Team) String() string {
	switch t {
	case Team1:
		return "team1"
	case Team2:
		return "team2"
	default:
		return "none"
	}
}

// Player is the authoritative record for one connection. Rooms only hold
// the ID.
type Player struct {
	ID           string
	Name         string
	Ready        bool
	Leader       bool
	Team         Team
	RoomID       string
	JoinedAt     time.Time
	LastActivity time.Time
}

// PlayerRegistry is not safe for concurrent use; the Coordinator serializes
// access to it.
type PlayerRegistry struct {
	players map[string]*Player
	now     func() time.Time

	// onUnregister lets the room registry drop memberships before the record
	// disappears.
	onUnregister func(p *Player)
}

func NewPlayerRegistry(now func() time.Time) *PlayerRegistry {
	if now == nil {
		now = time.Now
	}

	return &PlayerRegistry{
		players: make(map[string]*Player),
		now:     now,
	}
}

func (r *PlayerRegistry) Register(id, name string) (*Player, error) {
	if _, exists := r.players[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	now := r.now()
	p := &Player{
		ID:           id,
		Name:         name,
		JoinedAt:     now,
		LastActivity: now,
	}
	r.players[id] = p

	return p, nil
}

func (r *PlayerRegistry) Get(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

func (r *PlayerRegistry) Touch(id string) {
	if p, ok := r.players[id]; ok {
		p.LastActivity = r.now()
	}
}

func (r *PlayerRegistry) Unregister(id string) (*Player, bool) {
	p, ok := r.players[id]
	if !ok {
		return nil, false
	}

	if r.onUnregister != nil && p.RoomID != "" {
		r.onUnregister(p)
	}

	delete(r.players, id)

	return p, true
}

func (r *PlayerRegistry) Len() int {
	return len(r.players)
}

// Idle lists players whose last activity is before cutoff.
func (r *PlayerRegistry) Idle(cutoff time.Time) []string {
	var ids []string
	for id, p := range r.players {
		if p.LastActivity.Before(cutoff) {
			ids = append(ids, id)
		}
	}

	return ids
}
