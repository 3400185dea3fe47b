/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

type CoordinatorOptions struct {
	Limits             RoomLimits
	Words              WordBank
	TrustClientGuesses bool
	Now                func() time.Time
	Logf               func(format string, args ...any)
}

// Coordinator is the single entry point for player actions. One mutex guards
// both registries, so every action sees and leaves a consistent world.
type Coordinator struct {
	mu sync.Mutex

	players *PlayerRegistry
	rooms   *RoomRegistry
	engine  TurnEngine
	limits  RoomLimits
	now     func() time.Time
	logf    func(format string, args ...any)
	started time.Time
}

func NewCoordinator(opts CoordinatorOptions) *Coordinator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Words == nil {
		opts.Words = defaultWords
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}
	if opts.Limits == (RoomLimits{}) {
		opts.Limits = defaultRoomLimits()
	}

	players := NewPlayerRegistry(opts.Now)

	return &Coordinator{
		players: players,
		rooms:   NewRoomRegistry(players, opts.Limits, opts.Now),
		engine: TurnEngine{
			words:        opts.Words,
			trustGuesses: opts.TrustClientGuesses,
			now:          opts.Now,
		},
		limits:  opts.Limits,
		now:     opts.Now,
		logf:    opts.Logf,
		started: opts.Now(),
	}
}

func errorEvent(err error) Event {
	ge := asGameError(err)

	return Event{
		Type: EventError,
		Payload: ErrorPayload{
			Kind:    ge.Kind,
			Code:    ge.Code,
			Message: ge.Message,
		},
	}
}

func errorDelivery(playerID string, err error) Delivery {
	return unicast(playerID, errorEvent(err))
}

// Dispatch applies one inbound message on behalf of playerID and returns the
// events to send. Failures come back as a single error event addressed to
// the sender.
func (c *Coordinator) Dispatch(playerID string, msg Inbound) (out []Delivery) {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.logf("ERROR: Recovered from panic handling %T for %s: %v\n%s", msg, playerID, r, debug.Stack())
			out = []Delivery{errorDelivery(playerID, fmt.Errorf("internal error: %v", r))}
		}
	}()

	deliveries, err := c.dispatch(playerID, msg)
	if err != nil {
		c.logf("GAMES: %T from %s rejected: %v", msg, playerID, err)
		return []Delivery{errorDelivery(playerID, err)}
	}

	return deliveries
}

func (c *Coordinator) dispatch(playerID string, msg Inbound) ([]Delivery, error) {
	switch m := msg.(type) {
	case PlayerJoin:
		return c.join(playerID, m)
	case FindPublicGame:
		return c.findPublicGame(playerID, m)
	case CreatePrivateRoom:
		return c.createPrivateRoom(playerID, m)
	case JoinPrivateRoom:
		return c.joinPrivateRoom(playerID, m)
	case PlayerReady:
		return c.setReady(playerID, m)
	case StartGame:
		return c.startGame(playerID, m)
	case GameActionRequest:
		return c.gameAction(playerID, m)
	case LeaveRoom:
		return c.leave(playerID)
	case Disconnect:
		return c.disconnect(playerID), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownAction, msg)
	}
}

// Touch marks the player as alive without any other effect.
func (c *Coordinator) Touch(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.players.Touch(playerID)
}

func (c *Coordinator) broadcast(room *Room, event Event) Delivery {
	to := make([]string, len(room.Members))
	copy(to, room.Members)

	return Delivery{To: to, Event: event}
}

func (c *Coordinator) playerView(id string) PlayerView {
	p, ok := c.players.Get(id)
	if !ok {
		return PlayerView{ID: id}
	}

	view := PlayerView{
		ID:     p.ID,
		Name:   p.Name,
		Ready:  p.Ready,
		Leader: p.Leader,
	}
	if p.Team != TeamNone {
		view.Team = p.Team.String()
	}

	return view
}

func (c *Coordinator) roomView(room *Room) RoomView {
	view := RoomView{
		ID:         room.ID,
		Kind:       room.Kind,
		Code:       room.Code,
		Name:       room.Name,
		Difficulty: room.Difficulty,
		Status:     room.Status,
		MaxPlayers: room.MaxPlayers,
		Leader:     c.rooms.leaderOf(room),
		Players:    make([]PlayerView, 0, len(room.Members)),
	}

	for _, id := range room.Members {
		view.Players = append(view.Players, c.playerView(id))
	}

	return view
}

func (c *Coordinator) turnView(room *Room) TurnView {
	t := room.Turn
	if t == nil {
		return TurnView{}
	}

	return TurnView{
		TotalRounds:   t.TotalRounds,
		CurrentRound:  t.CurrentRound,
		CurrentTeam:   t.CurrentTeam.String(),
		ActiveGuesser: c.engine.activeGuesser(room, c.rooms.leaderOf(room)),
		HasWord:       t.ActiveWord != nil,
		Scores:        scoreboard(t.Scores),
		Timer: TimerView{
			Enabled:         t.Timer.Enabled,
			DurationSeconds: int(t.Timer.Duration / time.Second),
		},
		Team1: append([]string{}, room.Team1...),
		Team2: append([]string{}, room.Team2...),
	}
}

func (c *Coordinator) join(playerID string, m PlayerJoin) ([]Delivery, error) {
	if m.PlayerName == "" {
		return nil, fmt.Errorf("%w: playerName is required", ErrInvalidPayload)
	}

	p, err := c.players.Register(playerID, m.PlayerName)
	if err != nil {
		return nil, err
	}

	c.logf("GAMES: Player %s joined as %q", p.ID, p.Name)

	return []Delivery{unicast(p.ID, Event{
		Type:    EventPlayerJoined,
		Payload: PlayerJoinedPayload{PlayerID: p.ID, PlayerName: p.Name},
	})}, nil
}

func (c *Coordinator) joinedRoom(p *Player, room *Room) Delivery {
	return c.broadcast(room, Event{
		Type: EventPlayerJoinedRoom,
		Payload: RoomJoinedPayload{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Room:       c.roomView(room),
		},
	})
}

func (c *Coordinator) findPublicGame(playerID string, m FindPublicGame) ([]Delivery, error) {
	d, err := parseDifficulty(m.Difficulty)
	if err != nil {
		return nil, err
	}

	room, created, err := c.rooms.FindOrCreatePublic(playerID, RoomOptions{
		MaxPlayers: m.MaxPlayers,
		Difficulty: d,
	})
	if err != nil {
		return nil, err
	}

	p, _ := c.players.Get(playerID)
	c.players.Touch(playerID)

	if created {
		c.logf("GAMES: Created public room %s (%s) for %s", room.ID, room.Difficulty, playerID)
	} else {
		c.logf("GAMES: Matched %s into public room %s", playerID, room.ID)
	}

	return []Delivery{c.joinedRoom(p, room)}, nil
}

func (c *Coordinator) createPrivateRoom(playerID string, m CreatePrivateRoom) ([]Delivery, error) {
	d, err := parseDifficulty(m.Difficulty)
	if err != nil {
		return nil, err
	}

	room, err := c.rooms.CreateRoom(RoomPrivate, playerID, RoomOptions{
		Name:       m.RoomName,
		MaxPlayers: m.MaxPlayers,
		Difficulty: d,
	})
	if err != nil {
		return nil, err
	}

	p, _ := c.players.Get(playerID)
	c.players.Touch(playerID)

	c.logf("GAMES: Created private room %s with code %s for %s", room.ID, room.Code, playerID)

	view := c.roomView(room)

	return []Delivery{
		unicast(playerID, Event{
			Type:    EventPrivateRoomCreated,
			Payload: PrivateRoomCreatedPayload{RoomCode: room.Code, Room: view},
		}),
		c.joinedRoom(p, room),
	}, nil
}

func (c *Coordinator) joinPrivateRoom(playerID string, m JoinPrivateRoom) ([]Delivery, error) {
	if m.RoomCode == "" {
		return nil, ErrInvalidRoomCode
	}

	room, err := c.rooms.JoinByCode(playerID, m.RoomCode)
	if err != nil {
		return nil, err
	}

	p, _ := c.players.Get(playerID)
	c.players.Touch(playerID)

	c.logf("GAMES: Player %s joined private room %s", playerID, room.Code)

	return []Delivery{c.joinedRoom(p, room)}, nil
}

func (c *Coordinator) setReady(playerID string, m PlayerReady) ([]Delivery, error) {
	room, changed, err := c.rooms.SetReady(playerID, m.IsReady)
	if err != nil {
		return nil, err
	}

	c.players.Touch(playerID)

	view := c.roomView(room)
	out := []Delivery{c.broadcast(room, Event{
		Type:    EventReadyUpdate,
		Payload: ReadyUpdatePayload{PlayerID: playerID, IsReady: m.IsReady, Room: view},
	})}

	if changed && room.Status == StatusReadyToStart {
		c.logf("GAMES: Room %s is ready to start", room.ID)
		out = append(out, c.broadcast(room, Event{
			Type:    EventRoomReady,
			Payload: RoomReadyPayload{Room: view},
		}))
	}

	return out, nil
}

func (c *Coordinator) startGame(playerID string, m StartGame) ([]Delivery, error) {
	p, ok := c.players.Get(playerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if p.RoomID == "" {
		return nil, ErrNotInRoom
	}

	room, err := c.rooms.StartGame(p.RoomID, playerID, StartOptions{
		Rounds:        m.Rounds,
		TimerEnabled:  m.TimerEnabled,
		TimerDuration: time.Duration(m.TimerDuration) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	c.players.Touch(playerID)

	c.logf("GAMES: Room %s started with %d players over %d rounds", room.ID, len(room.Members), room.Turn.TotalRounds)

	return []Delivery{c.broadcast(room, Event{
		Type: EventGameStarted,
		Payload: GameStartedPayload{
			Room: c.roomView(room),
			Turn: c.turnView(room),
		},
	})}, nil
}

func (c *Coordinator) gameAction(playerID string, m GameActionRequest) ([]Delivery, error) {
	if m.Action == nil {
		return nil, fmt.Errorf("%w: missing action", ErrUnknownAction)
	}

	p, room, err := c.rooms.memberRoom(playerID)
	if err != nil {
		return nil, err
	}

	result, err := c.engine.Apply(room, p, m.Action)
	if err != nil {
		return nil, err
	}

	now := c.now()
	room.LastActivity = now
	p.LastActivity = now

	name := m.Action.actionName()
	c.logf("GAMES: Room %s applied %s from %s", room.ID, name, playerID)

	if room.Status == StatusFinished {
		c.logf("GAMES: Room %s finished, winner %s", room.ID, result.Winner)
	}

	update := func(r ActionResult) Event {
		return Event{
			Type: EventGameUpdate,
			Payload: GameUpdatePayload{
				Action:   name,
				PlayerID: playerID,
				Result:   r,
				Status:   room.Status,
				Turn:     c.turnView(room),
			},
		}
	}

	if result.Word == nil {
		return []Delivery{c.broadcast(room, update(result))}, nil
	}

	// The drawn word goes only to the player who asked for it.
	others := make([]string, 0, len(room.Members))
	for _, id := range room.Members {
		if id != playerID {
			others = append(others, id)
		}
	}

	return []Delivery{
		unicast(playerID, update(result)),
		{To: others, Event: update(result.redacted())},
	}, nil
}

func (c *Coordinator) leftRoom(res LeaveResult) []Delivery {
	if res.Destroyed {
		c.logf("GAMES: Room %s closed after its last player left", res.Room.ID)
		return nil
	}

	return []Delivery{c.broadcast(res.Room, Event{
		Type: EventPlayerLeftRoom,
		Payload: PlayerLeftPayload{
			PlayerID:   res.Player.ID,
			PlayerName: res.Player.Name,
			NewLeader:  res.NewLeader,
			Room:       c.roomView(res.Room),
		},
	})}
}

func (c *Coordinator) leave(playerID string) ([]Delivery, error) {
	res, err := c.rooms.Leave(playerID)
	if err != nil {
		return nil, err
	}

	c.players.Touch(playerID)
	c.logf("GAMES: Player %s left room %s", playerID, res.Room.ID)

	return c.leftRoom(res), nil
}

// disconnect removes the player entirely. Unknown players are ignored so the
// transport can call it unconditionally.
func (c *Coordinator) disconnect(playerID string) []Delivery {
	p, ok := c.players.Get(playerID)
	if !ok {
		return nil
	}

	var out []Delivery
	if p.RoomID != "" {
		if res, err := c.rooms.Leave(playerID); err == nil {
			out = c.leftRoom(res)
		}
	}

	c.players.Unregister(playerID)
	c.logf("GAMES: Player %s disconnected", playerID)

	return out
}

// RoomByCode reports whether a private room with the given code is live.
func (c *Coordinator) RoomByCode(code string) (RoomView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms.ByCode(code)
	if !ok {
		return RoomView{}, false
	}

	return c.roomView(room), true
}
