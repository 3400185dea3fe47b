package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerRegistry(t *testing.T) {
	clock := newFakeClock()
	reg := NewPlayerRegistry(clock.Now)

	t.Run("Register", func(t *testing.T) {
		p, err := reg.Register("a", "Ann")
		require.NoError(t, err)
		assert.Equal(t, "Ann", p.Name)
		assert.Equal(t, clock.Now(), p.JoinedAt)
		assert.Equal(t, clock.Now(), p.LastActivity)
		assert.Equal(t, TeamNone, p.Team)
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("Register_Duplicate", func(t *testing.T) {
		_, err := reg.Register("a", "Someone Else")
		assert.ErrorIs(t, err, ErrDuplicateID)

		p, ok := reg.Get("a")
		require.True(t, ok)
		assert.Equal(t, "Ann", p.Name)
	})

	t.Run("Touch", func(t *testing.T) {
		clock.Advance(time.Minute)
		reg.Touch("a")
		reg.Touch("missing")

		p, _ := reg.Get("a")
		assert.Equal(t, clock.Now(), p.LastActivity)
	})

	t.Run("Idle", func(t *testing.T) {
		_, err := reg.Register("b", "Bob")
		require.NoError(t, err)

		clock.Advance(10 * time.Minute)
		reg.Touch("b")

		assert.Equal(t, []string{"a"}, reg.Idle(clock.Now().Add(-5*time.Minute)))
	})

	t.Run("Unregister", func(t *testing.T) {
		p, ok := reg.Unregister("a")
		require.True(t, ok)
		assert.Equal(t, "a", p.ID)

		_, ok = reg.Get("a")
		assert.False(t, ok)

		_, ok = reg.Unregister("a")
		assert.False(t, ok)
	})
}

func TestPlayerRegistry_UnregisterLeavesRoom(t *testing.T) {
	r := newRegistries(t, testLimits())
	room, ids := r.privateRoom(t, "Ann", "Bob")

	_, ok := r.players.Unregister(ids[0])
	require.True(t, ok)

	assert.Equal(t, []string{ids[1]}, room.Members)

	bob, _ := r.players.Get(ids[1])
	assert.True(t, bob.Leader)
}

func TestTeam_String(t *testing.T) {
	assert.Equal(t, "team1", Team1.String())
	assert.Equal(t, "team2", Team2.String())
	assert.Equal(t, "none", TeamNone.String())
	assert.Equal(t, Team2, Team1.other())
	assert.Equal(t, Team1, Team2.other())
}
