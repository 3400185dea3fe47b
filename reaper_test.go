package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReaper(c *Coordinator) *Reaper {
	return &Reaper{
		coord:         c,
		gameTimeout:   30 * time.Minute,
		playerTimeout: 5 * time.Minute,
		interval:      time.Minute,
	}
}

func TestReaper_ExpiresIdleRoom(t *testing.T) {
	c, clock := newTestCoordinator(t, false)
	ids := joinAll(t, c, "Ann", "Bob", "Cy", "Dee")
	code := privateLobby(t, c, ids)

	r := newTestReaper(c)
	// Keep players alive while the room itself goes quiet.
	r.playerTimeout = time.Hour

	clock.Advance(29 * time.Minute)
	assert.Empty(t, r.Sweep().Rooms)

	clock.Advance(2 * time.Minute)
	report := r.Sweep()

	require.Len(t, report.Rooms, 1)
	assert.Empty(t, report.Players)

	_, ok := c.RoomByCode(code)
	assert.False(t, ok)

	for _, id := range ids {
		events := eventsFor(report.Deliveries, id)
		require.Len(t, events, 1)
		assert.Equal(t, "room_expired", events[0].Payload.(ErrorPayload).Code)

		p, ok := c.players.Get(id)
		require.True(t, ok)
		assert.Empty(t, p.RoomID)
	}
}

func TestReaper_ExpiresIdlePlayer(t *testing.T) {
	c, clock := newTestCoordinator(t, false)
	ids := joinAll(t, c, "Ann", "Bob", "Cy")
	privateLobby(t, c, ids)

	r := newTestReaper(c)

	clock.Advance(4 * time.Minute)
	c.Touch(ids[1])
	c.Touch(ids[2])

	clock.Advance(2 * time.Minute)
	report := r.Sweep()

	assert.Equal(t, []string{ids[0]}, report.Players)
	assert.Empty(t, report.Rooms)

	_, ok := c.players.Get(ids[0])
	assert.False(t, ok)

	mine := eventsFor(report.Deliveries, ids[0])
	require.Len(t, mine, 1)
	assert.Equal(t, "player_expired", mine[0].Payload.(ErrorPayload).Code)

	theirs := eventsFor(report.Deliveries, ids[1])
	require.Len(t, theirs, 1)
	assert.Equal(t, EventPlayerLeftRoom, theirs[0].Type)
	assert.Equal(t, ids[1], theirs[0].Payload.(PlayerLeftPayload).NewLeader)
}

func TestReaper_RevalidatesBeforeRemoval(t *testing.T) {
	c, clock := newTestCoordinator(t, false)
	ids := joinAll(t, c, "Ann", "Bob", "Cy", "Dee")
	privateLobby(t, c, ids)

	clock.Advance(time.Hour)
	cutoff := clock.Now().Add(-30 * time.Minute)

	rooms := c.idleRooms(cutoff)
	require.Len(t, rooms, 1)

	// Activity lands between the snapshot and the removal.
	c.Dispatch(ids[0], PlayerReady{IsReady: true})

	_, ok := c.expireRoom(rooms[0], cutoff)
	assert.False(t, ok)

	// A room that vanished in the meantime is skipped quietly.
	_, ok = c.expireRoom("gone", cutoff)
	assert.False(t, ok)

	players := c.idlePlayers(cutoff)
	assert.Len(t, players, 3)

	c.Dispatch(ids[1], Disconnect{})
	_, ok = c.expirePlayer(ids[1], cutoff)
	assert.False(t, ok)
}

func TestReaper_Run(t *testing.T) {
	c, _ := newTestCoordinator(t, false)
	c.logf = func(string, ...any) {}

	r := newTestReaper(c)
	r.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
}

func TestReaper_RunDelivers(t *testing.T) {
	c, clock := newTestCoordinator(t, false)
	ids := joinAll(t, c, "Ann")
	c.logf = func(string, ...any) {}

	clock.Advance(time.Hour)

	expired := make(chan []string, 1)

	r := newTestReaper(c)
	r.interval = time.Millisecond
	r.deliver = func([]Delivery) {}
	r.expire = func(ids []string) {
		select {
		case expired <- ids:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = r.Run(ctx) }()

	select {
	case got := <-expired:
		assert.Equal(t, ids, got)
	case <-time.After(time.Second):
		t.Fatal("idle player was never expired")
	}
}
