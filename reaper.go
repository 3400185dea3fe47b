/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"slices"
	"time"
)

var (
	ErrRoomExpired   = newGameError(KindStateConflict, "room_expired", "room closed after a period of inactivity")
	ErrPlayerExpired = newGameError(KindStateConflict, "player_expired", "disconnected after a period of inactivity")
)

type ReapReport struct {
	Rooms      []string
	Players    []string
	Deliveries []Delivery
}

// Reaper periodically evicts rooms and players that have gone quiet.
type Reaper struct {
	coord         *Coordinator
	gameTimeout   time.Duration
	playerTimeout time.Duration
	interval      time.Duration

	// deliver and expire hand the results of a sweep to the transport.
	deliver func([]Delivery)
	expire  func(playerIDs []string)
}

func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			report := r.Sweep()

			if r.deliver != nil && len(report.Deliveries) > 0 {
				r.deliver(report.Deliveries)
			}
			if r.expire != nil && len(report.Players) > 0 {
				r.expire(report.Players)
			}
		}
	}
}

// Sweep runs one pass over rooms then players. Each candidate is collected
// first and checked again just before removal; anything that became active
// or vanished in between is left alone.
func (r *Reaper) Sweep() ReapReport {
	var report ReapReport

	now := r.coord.now()

	roomCutoff := now.Add(-r.gameTimeout)
	for _, id := range r.coord.idleRooms(roomCutoff) {
		deliveries, ok := r.coord.expireRoom(id, roomCutoff)
		if !ok {
			continue
		}
		report.Rooms = append(report.Rooms, id)
		report.Deliveries = append(report.Deliveries, deliveries...)
	}

	playerCutoff := now.Add(-r.playerTimeout)
	for _, id := range r.coord.idlePlayers(playerCutoff) {
		deliveries, ok := r.coord.expirePlayer(id, playerCutoff)
		if !ok {
			continue
		}
		report.Players = append(report.Players, id)
		report.Deliveries = append(report.Deliveries, deliveries...)
	}

	if len(report.Rooms) > 0 || len(report.Players) > 0 {
		r.coord.logf("REAP: Removed %d idle room(s) and %d idle player(s)", len(report.Rooms), len(report.Players))
	}

	return report
}

func (c *Coordinator) idleRooms(cutoff time.Time) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ids []string
	c.rooms.Each(func(room *Room) bool {
		if room.LastActivity.Before(cutoff) {
			ids = append(ids, room.ID)
		}
		return true
	})

	return ids
}

func (c *Coordinator) expireRoom(id string, cutoff time.Time) ([]Delivery, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms.Get(id)
	if !ok || !room.LastActivity.Before(cutoff) {
		return nil, false
	}

	members, _ := c.rooms.Destroy(id)
	c.logf("REAP: Room %s expired with %d member(s)", id, len(members))

	if len(members) == 0 {
		return nil, true
	}

	return []Delivery{{To: members, Event: errorEvent(ErrRoomExpired)}}, true
}

func (c *Coordinator) idlePlayers(cutoff time.Time) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := c.players.Idle(cutoff)
	slices.Sort(ids)

	return ids
}

func (c *Coordinator) expirePlayer(id string, cutoff time.Time) ([]Delivery, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.players.Get(id)
	if !ok || !p.LastActivity.Before(cutoff) {
		return nil, false
	}

	out := []Delivery{errorDelivery(id, ErrPlayerExpired)}
	out = append(out, c.disconnect(id)...)

	c.logf("REAP: Player %s expired", id)

	return out, true
}
