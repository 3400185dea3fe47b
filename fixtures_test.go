package main

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = c.t.Add(d)
}

func testLimits() RoomLimits {
	return defaultRoomLimits()
}

// noShuffle keeps join order, so teams come out as members[0,2,...] and
// members[1,3,...].
func noShuffle(int, func(i, j int)) {}

type registries struct {
	clock   *fakeClock
	players *PlayerRegistry
	rooms   *RoomRegistry
}

func newRegistries(t *testing.T, limits RoomLimits) *registries {
	t.Helper()

	clock := newFakeClock()
	players := NewPlayerRegistry(clock.Now)
	rooms := NewRoomRegistry(players, limits, clock.Now)
	rooms.shuffle = noShuffle

	return &registries{clock: clock, players: players, rooms: rooms}
}

func (r *registries) register(t *testing.T, names ...string) []string {
	t.Helper()

	ids := make([]string, 0, len(names))
	for _, name := range names {
		id := "p-" + name
		_, err := r.players.Register(id, name)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	return ids
}

// privateRoom registers the named players and seats them all in one private
// room, the first name being the creator.
func (r *registries) privateRoom(t *testing.T, names ...string) (*Room, []string) {
	t.Helper()

	ids := r.register(t, names...)

	room, err := r.rooms.CreateRoom(RoomPrivate, ids[0], RoomOptions{})
	require.NoError(t, err)

	for _, id := range ids[1:] {
		_, err := r.rooms.JoinByCode(id, room.Code)
		require.NoError(t, err)
	}

	return room, ids
}

func (r *registries) playingRoom(t *testing.T, names ...string) (*Room, []string) {
	t.Helper()

	room, ids := r.privateRoom(t, names...)

	_, err := r.rooms.StartGame(room.ID, ids[0], StartOptions{})
	require.NoError(t, err)

	return room, ids
}

func sequentialCodes(codes ...string) func(int) (string, error) {
	i := 0

	return func(int) (string, error) {
		if i >= len(codes) {
			return "", fmt.Errorf("ran out of codes after %d", i)
		}
		code := codes[i]
		i++

		return code, nil
	}
}

var oneWord = WordBank{
	DifficultyMedium: {"animals": {"giraffe"}},
	DifficultyEasy:   {"animals": {"cat"}},
}
