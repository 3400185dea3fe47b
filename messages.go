/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Inbound is any message a player can send. The set is closed.
type Inbound interface {
	isInbound()
}

type PlayerJoin struct {
	PlayerName string `json:"playerName" validate:"required,max=32"`
}

type FindPublicGame struct {
	MaxPlayers int    `json:"maxPlayers" validate:"gte=0,lte=64"`
	Difficulty string `json:"difficulty" validate:"max=16"`
}

type CreatePrivateRoom struct {
	MaxPlayers int    `json:"maxPlayers" validate:"gte=0,lte=64"`
	Difficulty string `json:"difficulty" validate:"max=16"`
	RoomName   string `json:"roomName" validate:"max=64"`
}

type JoinPrivateRoom struct {
	RoomCode string `json:"roomCode" validate:"required,alphanum,max=16"`
}

type PlayerReady struct {
	IsReady bool `json:"isReady"`
}

type StartGame struct {
	Rounds        int  `json:"rounds" validate:"gte=0,lte=20"`
	TimerEnabled  bool `json:"timerEnabled"`
	TimerDuration int  `json:"timerDuration" validate:"gte=0,lte=600"`
}

type GameActionRequest struct {
	Action GameAction
}

type LeaveRoom struct{}

// Disconnect is raised by the transport, never decoded off the wire.
type Disconnect struct{}

func (PlayerJoin) isInbound()        {}
func (FindPublicGame) isInbound()    {}
func (CreatePrivateRoom) isInbound() {}
func (JoinPrivateRoom) isInbound()   {}
func (PlayerReady) isInbound()       {}
func (StartGame) isInbound()         {}
func (GameActionRequest) isInbound() {}
func (LeaveRoom) isInbound()         {}
func (Disconnect) isInbound()        {}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type gameActionEnvelope struct {
	Action  string          `json:"action" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

func decodePayload[T any](raw json.RawMessage) (T, error) {
	var v T

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}

	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	trimStrings(&v)

	if err := validate.Struct(&v); err != nil {
		return v, fmt.Errorf("%w: %s", ErrInvalidPayload, describeValidation(err))
	}

	return v, nil
}

func trimStrings(v any) {
	switch m := v.(type) {
	case *PlayerJoin:
		m.PlayerName = strings.TrimSpace(m.PlayerName)
	case *JoinPrivateRoom:
		m.RoomCode = normalizeCode(m.RoomCode)
	case *CreatePrivateRoom:
		m.RoomName = strings.TrimSpace(m.RoomName)
	case *GiveClue:
		m.Clue, m.Word = strings.TrimSpace(m.Clue), strings.TrimSpace(m.Word)
	case *MakeGuess:
		m.Guess = strings.TrimSpace(m.Guess)
	}
}

func describeValidation(err error) string {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err.Error()
	}

	problems := make([]string, 0, len(fields))
	for _, f := range fields {
		problems = append(problems, fmt.Sprintf("%s failed %s", f.Field(), f.Tag()))
	}

	return strings.Join(problems, ", ")
}

func decodeInbound(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	switch env.Type {
	case "player_join":
		return decodePayload[PlayerJoin](env.Payload)
	case "find_public_game":
		return decodePayload[FindPublicGame](env.Payload)
	case "create_private_room":
		return decodePayload[CreatePrivateRoom](env.Payload)
	case "join_private_room":
		return decodePayload[JoinPrivateRoom](env.Payload)
	case "player_ready":
		return decodePayload[PlayerReady](env.Payload)
	case "start_game":
		return decodePayload[StartGame](env.Payload)
	case "leave_room":
		return LeaveRoom{}, nil
	case "game_action":
		return decodeGameAction(env.Payload)
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrInvalidPayload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Type)
	}
}

func decodeGameAction(raw json.RawMessage) (Inbound, error) {
	env, err := decodePayload[gameActionEnvelope](raw)
	if err != nil {
		return nil, err
	}

	var action GameAction

	switch ActionName(env.Action) {
	case ActionGiveClue:
		action, err = decodePayload[GiveClue](env.Payload)
	case ActionMakeGuess:
		action, err = decodePayload[MakeGuess](env.Payload)
	case ActionNextTurn:
		action = NextTurn{}
	case ActionEndRound:
		action = EndRound{}
	case ActionGenerateWord:
		action = GenerateWord{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Action)
	}
	if err != nil {
		return nil, err
	}

	return GameActionRequest{Action: action}, nil
}

type EventType string

const (
	EventPlayerJoined       EventType = "player_joined"
	EventPlayerJoinedRoom   EventType = "player_joined_room"
	EventPrivateRoomCreated EventType = "private_room_created"
	EventReadyUpdate        EventType = "player_ready_update"
	EventRoomReady          EventType = "room_ready_to_start"
	EventGameStarted        EventType = "game_started"
	EventGameUpdate         EventType = "game_update"
	EventPlayerLeftRoom     EventType = "player_left_room"
	EventError              EventType = "error"
)

type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// Delivery addresses an event to a set of player IDs.
type Delivery struct {
	To    []string
	Event Event
}

func unicast(playerID string, event Event) Delivery {
	return Delivery{To: []string{playerID}, Event: event}
}

type PlayerView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Leader bool   `json:"leader"`
	Team   string `json:"team,omitempty"`
}

type RoomView struct {
	ID         string       `json:"id"`
	Kind       RoomKind     `json:"kind"`
	Code       string       `json:"code,omitempty"`
	Name       string       `json:"name,omitempty"`
	Difficulty Difficulty   `json:"difficulty"`
	Status     RoomStatus   `json:"status"`
	MaxPlayers int          `json:"maxPlayers"`
	Leader     string       `json:"leader,omitempty"`
	Players    []PlayerView `json:"players"`
}

type TimerView struct {
	Enabled         bool `json:"enabled"`
	DurationSeconds int  `json:"durationSeconds"`
}

// TurnView never carries the active word.
type TurnView struct {
	TotalRounds   int        `json:"totalRounds"`
	CurrentRound  int        `json:"currentRound"`
	CurrentTeam   string     `json:"currentTeam"`
	ActiveGuesser string     `json:"activeGuesser,omitempty"`
	HasWord       bool       `json:"hasWord"`
	Scores        Scoreboard `json:"scores"`
	Timer         TimerView  `json:"timer"`
	Team1         []string   `json:"team1"`
	Team2         []string   `json:"team2"`
}

type ErrorPayload struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

type PlayerJoinedPayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type RoomJoinedPayload struct {
	PlayerID   string   `json:"playerId"`
	PlayerName string   `json:"playerName"`
	Room       RoomView `json:"room"`
}

type PrivateRoomCreatedPayload struct {
	RoomCode string   `json:"roomCode"`
	Room     RoomView `json:"room"`
}

type ReadyUpdatePayload struct {
	PlayerID string   `json:"playerId"`
	IsReady  bool     `json:"isReady"`
	Room     RoomView `json:"room"`
}

type RoomReadyPayload struct {
	Room RoomView `json:"room"`
}

type GameStartedPayload struct {
	Room RoomView `json:"room"`
	Turn TurnView `json:"turn"`
}

type GameUpdatePayload struct {
	Action   ActionName   `json:"action"`
	PlayerID string       `json:"playerId"`
	Result   ActionResult `json:"result"`
	Status   RoomStatus   `json:"status"`
	Turn     TurnView     `json:"turn"`
}

type PlayerLeftPayload struct {
	PlayerID   string   `json:"playerId"`
	PlayerName string   `json:"playerName"`
	NewLeader  string   `json:"newLeader,omitempty"`
	Room       RoomView `json:"room"`
}
