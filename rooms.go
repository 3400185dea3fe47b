/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	crand "crypto/rand"
	"fmt"
	"math/big"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RoomKind string

const (
	RoomPublic  RoomKind = "public"
	RoomPrivate RoomKind = "private"
)

type RoomStatus string

const (
	StatusWaiting      RoomStatus = "waiting"
	StatusReadyToStart RoomStatus = "ready_to_start"
	StatusPlaying      RoomStatus = "playing"
	StatusFinished     RoomStatus = "finished"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type Room struct {
	ID         string
	Kind       RoomKind
	Code       string
	Name       string
	MaxPlayers int
	Difficulty Difficulty
	Status     RoomStatus

	// Members is in join order.
	Members []string
	Team1   []string
	Team2   []string
	Turn    *TurnState

	CreatedAt    time.Time
	LastActivity time.Time
}

func (r *Room) roster(t Team) []string {
	switch t {
	case Team1:
		return r.Team1
	case Team2:
		return r.Team2
	default:
		return nil
	}
}

func (r *Room) has(playerID string) bool {
	return slices.Contains(r.Members, playerID)
}

// RoomLimits bounds what the registry will hand out.
type RoomLimits struct {
	MaxRooms    int
	MinPlayers  int
	MaxPlayers  int
	CodeLength  int
	CodeRetries int
}

func defaultRoomLimits() RoomLimits {
	return RoomLimits{
		MaxRooms:    1000,
		MinPlayers:  4,
		MaxPlayers:  12,
		CodeLength:  6,
		CodeRetries: 64,
	}
}

type RoomOptions struct {
	Name       string
	MaxPlayers int
	Difficulty Difficulty
}

type StartOptions struct {
	Rounds        int
	TimerEnabled  bool
	TimerDuration time.Duration
}

const (
	defaultRounds        = 3
	defaultTimerDuration = 60 * time.Second
)

// LeaveResult describes what happened to the room a player just left.
type LeaveResult struct {
	Room      *Room
	Player    *Player
	Destroyed bool
	NewLeader string
}

// RoomRegistry owns every live room and the private code index. Like the
// player registry it relies on the Coordinator for serialization.
type RoomRegistry struct {
	rooms   map[string]*Room
	codes   map[string]string
	order   []string
	players *PlayerRegistry
	limits  RoomLimits
	now     func() time.Time

	newID   func() string
	newCode func(length int) (string, error)
	shuffle func(n int, swap func(i, j int))
}

func NewRoomRegistry(players *PlayerRegistry, limits RoomLimits, now func() time.Time) *RoomRegistry {
	if now == nil {
		now = time.Now
	}

	r := &RoomRegistry{
		rooms:   make(map[string]*Room),
		codes:   make(map[string]string),
		players: players,
		limits:  limits,
		now:     now,
		newID:   uuid.NewString,
		newCode: generateCode,
		shuffle: rand.Shuffle,
	}

	players.onUnregister = func(p *Player) {
		_, _ = r.Leave(p.ID)
	}

	return r
}

func generateCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		num, err := crand.Int(crand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[num.Int64()]
	}

	return string(code), nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *RoomRegistry) Get(id string) (*Room, bool) {
	room, ok := r.rooms[id]
	return room, ok
}

func (r *RoomRegistry) ByCode(code string) (*Room, bool) {
	id, ok := r.codes[normalizeCode(code)]
	if !ok {
		return nil, false
	}

	return r.Get(id)
}

func (r *RoomRegistry) Len() int {
	return len(r.rooms)
}

// Each visits rooms in creation order until fn returns false.
func (r *RoomRegistry) Each(fn func(*Room) bool) {
	for _, id := range r.order {
		if room, ok := r.rooms[id]; ok && !fn(room) {
			return
		}
	}
}

func (r *RoomRegistry) clampCapacity(requested int) int {
	switch {
	case requested <= 0 || requested > r.limits.MaxPlayers:
		return r.limits.MaxPlayers
	case requested < r.limits.MinPlayers:
		return r.limits.MinPlayers
	default:
		return requested
	}
}

// freePlayer returns the registered player if they are not already seated.
func (r *RoomRegistry) freePlayer(id string, missing error) (*Player, error) {
	p, ok := r.players.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", missing, id)
	}
	if p.RoomID != "" {
		return nil, ErrAlreadyInRoom
	}

	return p, nil
}

func (r *RoomRegistry) CreateRoom(kind RoomKind, creatorID string, opts RoomOptions) (*Room, error) {
	if len(r.rooms) >= r.limits.MaxRooms {
		return nil, ErrRegistryFull
	}

	creator, err := r.freePlayer(creatorID, ErrUnknownCreator)
	if err != nil {
		return nil, err
	}

	var code string
	if kind == RoomPrivate {
		code, err = r.allocateCode()
		if err != nil {
			return nil, err
		}
	}

	difficulty := opts.Difficulty
	if difficulty == "" {
		difficulty = DifficultyMedium
	}

	now := r.now()
	room := &Room{
		ID:           r.newID(),
		Kind:         kind,
		Code:         code,
		Name:         strings.TrimSpace(opts.Name),
		MaxPlayers:   r.clampCapacity(opts.MaxPlayers),
		Difficulty:   difficulty,
		Status:       StatusWaiting,
		CreatedAt:    now,
		LastActivity: now,
	}

	r.rooms[room.ID] = room
	r.order = append(r.order, room.ID)
	if code != "" {
		r.codes[code] = room.ID
	}

	r.seat(room, creator)
	creator.Leader = true

	return room, nil
}

func (r *RoomRegistry) allocateCode() (string, error) {
	for range r.limits.CodeRetries {
		code, err := r.newCode(r.limits.CodeLength)
		if err != nil {
			return "", err
		}
		if _, taken := r.codes[code]; !taken {
			return code, nil
		}
	}

	return "", ErrCodeSpaceExhausted
}

func (r *RoomRegistry) canSeat(room *Room, p *Player) error {
	if room.Status != StatusWaiting {
		return ErrRoomNotJoinable
	}
	if len(room.Members) >= room.MaxPlayers {
		return ErrRoomFull
	}
	for _, id := range room.Members {
		if other, ok := r.players.Get(id); ok && strings.EqualFold(other.Name, p.Name) {
			return fmt.Errorf("%w: %q", ErrNameTaken, p.Name)
		}
	}

	return nil
}

func (r *RoomRegistry) seat(room *Room, p *Player) {
	room.Members = append(room.Members, p.ID)
	room.LastActivity = r.now()

	p.RoomID = room.ID
	p.Ready = false
	p.Leader = false
	p.Team = TeamNone
}

// FindOrCreatePublic places the player into the oldest compatible public
// room, creating one when none fits. The bool reports whether a room was
// created.
func (r *RoomRegistry) FindOrCreatePublic(playerID string, opts RoomOptions) (*Room, bool, error) {
	p, err := r.freePlayer(playerID, ErrUnknownPlayer)
	if err != nil {
		return nil, false, err
	}

	difficulty := opts.Difficulty
	if difficulty == "" {
		difficulty = DifficultyMedium
	}

	var target *Room
	r.Each(func(room *Room) bool {
		if room.Kind != RoomPublic || room.Difficulty != difficulty {
			return true
		}
		if r.canSeat(room, p) != nil {
			return true
		}
		target = room
		return false
	})

	if target != nil {
		r.seat(target, p)
		return target, false, nil
	}

	opts.Difficulty = difficulty
	room, err := r.CreateRoom(RoomPublic, playerID, opts)
	if err != nil {
		return nil, false, err
	}

	return room, true, nil
}

func (r *RoomRegistry) JoinByCode(playerID, code string) (*Room, error) {
	p, err := r.freePlayer(playerID, ErrUnknownPlayer)
	if err != nil {
		return nil, err
	}

	code = normalizeCode(code)
	if code == "" {
		return nil, ErrInvalidRoomCode
	}

	room, ok := r.ByCode(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCode, code)
	}

	if err := r.canSeat(room, p); err != nil {
		return nil, err
	}

	r.seat(room, p)

	return room, nil
}

// memberRoom resolves the room the player currently sits in.
func (r *RoomRegistry) memberRoom(playerID string) (*Player, *Room, error) {
	p, ok := r.players.Get(playerID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if p.RoomID == "" {
		return p, nil, ErrNotInRoom
	}

	room, ok := r.rooms[p.RoomID]
	if !ok || !room.has(p.ID) {
		return p, nil, fmt.Errorf("%w: %s", ErrUnknownRoom, p.RoomID)
	}

	return p, room, nil
}

func (r *RoomRegistry) Leave(playerID string) (LeaveResult, error) {
	p, room, err := r.memberRoom(playerID)
	if err != nil {
		if p != nil && p.RoomID != "" {
			// The room went away underneath the player; just unseat them.
			unseat(p)
		}
		return LeaveResult{}, err
	}

	wasLeader := p.Leader

	room.Members = slices.DeleteFunc(room.Members, func(id string) bool { return id == p.ID })
	room.Team1 = slices.DeleteFunc(room.Team1, func(id string) bool { return id == p.ID })
	room.Team2 = slices.DeleteFunc(room.Team2, func(id string) bool { return id == p.ID })
	unseat(p)

	result := LeaveResult{Room: room, Player: p}

	if len(room.Members) == 0 {
		r.remove(room)
		result.Destroyed = true

		return result, nil
	}

	if wasLeader {
		if next, ok := r.players.Get(room.Members[0]); ok {
			next.Leader = true
			result.NewLeader = next.ID
		}
	}

	if room.Turn != nil {
		room.Turn.clampCursors(len(room.Team1), len(room.Team2))
	}

	room.LastActivity = r.now()
	r.evaluateQuorum(room)

	return result, nil
}

func unseat(p *Player) {
	p.RoomID = ""
	p.Ready = false
	p.Leader = false
	p.Team = TeamNone
}

func (r *RoomRegistry) remove(room *Room) {
	delete(r.rooms, room.ID)
	if room.Code != "" {
		delete(r.codes, room.Code)
	}
	r.order = slices.DeleteFunc(r.order, func(id string) bool { return id == room.ID })
}

// Destroy removes a room regardless of membership and unseats everyone in
// it. The returned slice holds the IDs of the players that were seated.
func (r *RoomRegistry) Destroy(roomID string) ([]string, bool) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}

	members := slices.Clone(room.Members)
	for _, id := range members {
		if p, ok := r.players.Get(id); ok && p.RoomID == room.ID {
			unseat(p)
		}
	}
	room.Members = nil
	room.Team1 = nil
	room.Team2 = nil

	r.remove(room)

	return members, true
}

// evaluateQuorum moves a room between waiting and ready_to_start and reports
// whether the status changed.
func (r *RoomRegistry) evaluateQuorum(room *Room) bool {
	if room.Status != StatusWaiting && room.Status != StatusReadyToStart {
		return false
	}

	quorum := len(room.Members) >= r.limits.MinPlayers
	for _, id := range room.Members {
		if p, ok := r.players.Get(id); !ok || !p.Ready {
			quorum = false
			break
		}
	}

	switch {
	case quorum && room.Status == StatusWaiting:
		room.Status = StatusReadyToStart
		return true
	case !quorum && room.Status == StatusReadyToStart:
		room.Status = StatusWaiting
		return true
	}

	return false
}

// SetReady toggles the player's ready flag and reports whether the room's
// status changed as a result.
func (r *RoomRegistry) SetReady(playerID string, ready bool) (*Room, bool, error) {
	p, room, err := r.memberRoom(playerID)
	if err != nil {
		return nil, false, err
	}
	if room.Status != StatusWaiting && room.Status != StatusReadyToStart {
		return nil, false, ErrInvalidGameState
	}

	p.Ready = ready
	room.LastActivity = r.now()

	return room, r.evaluateQuorum(room), nil
}

func (r *RoomRegistry) leaderOf(room *Room) string {
	for _, id := range room.Members {
		if p, ok := r.players.Get(id); ok && p.Leader {
			return id
		}
	}

	return ""
}

func (r *RoomRegistry) StartGame(roomID, playerID string, opts StartOptions) (*Room, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}

	p, ok := r.players.Get(playerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if !room.has(p.ID) {
		return nil, ErrNotInRoom
	}

	if room.Status != StatusWaiting && room.Status != StatusReadyToStart {
		return nil, ErrInvalidGameState
	}
	if room.Kind == RoomPrivate && !p.Leader {
		return nil, ErrNotLeader
	}
	if len(room.Members) < r.limits.MinPlayers {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientPlayers, len(room.Members), r.limits.MinPlayers)
	}

	if opts.Rounds <= 0 {
		opts.Rounds = defaultRounds
	}
	if opts.TimerDuration <= 0 {
		opts.TimerDuration = defaultTimerDuration
	}

	r.assignTeams(room)
	room.Turn = newTurnState(opts.Rounds, TimerConfig{
		Enabled:  opts.TimerEnabled,
		Duration: opts.TimerDuration,
	})
	room.Status = StatusPlaying
	room.LastActivity = r.now()

	return room, nil
}

// assignTeams shuffles the members and deals them alternately onto the two
// teams, so sizes never differ by more than one.
func (r *RoomRegistry) assignTeams(room *Room) {
	order := slices.Clone(room.Members)
	r.shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	room.Team1 = make([]string, 0, (len(order)+1)/2)
	room.Team2 = make([]string, 0, len(order)/2)

	for i, id := range order {
		team := Team1
		if i%2 == 1 {
			team = Team2
		}

		if team == Team1 {
			room.Team1 = append(room.Team1, id)
		} else {
			room.Team2 = append(room.Team2, id)
		}

		if p, ok := r.players.Get(id); ok {
			p.Team = team
		}
	}
}
