/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindStateConflict ErrorKind = "state_conflict"
	KindCapacity      ErrorKind = "capacity"
	KindAuthorization ErrorKind = "authorization"
	KindInternal      ErrorKind = "internal"
)

// GameError is the structured failure reported back to the player that
// triggered it. Shared state is never modified when one is returned.
type GameError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

func newGameError(kind ErrorKind, code, message string) *GameError {
	return &GameError{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidPayload    = newGameError(KindValidation, "invalid_payload", "invalid payload")
	ErrUnknownAction     = newGameError(KindValidation, "unknown_action", "unknown action")
	ErrInvalidRoomCode   = newGameError(KindValidation, "invalid_room_code", "invalid room code")
	ErrInvalidDifficulty = newGameError(KindValidation, "invalid_difficulty", "unknown difficulty")

	ErrUnknownPlayer  = newGameError(KindNotFound, "unknown_player", "player has not joined")
	ErrUnknownCreator = newGameError(KindNotFound, "unknown_creator", "room creator is not registered")
	ErrUnknownRoom    = newGameError(KindNotFound, "unknown_room", "room not found")
	ErrUnknownCode    = newGameError(KindNotFound, "unknown_room_code", "no room with that code")
	ErrNotInRoom      = newGameError(KindNotFound, "not_in_room", "player is not in a room")
	ErrNoWords        = newGameError(KindNotFound, "no_words", "no words available for that difficulty")

	ErrDuplicateID         = newGameError(KindStateConflict, "duplicate_id", "player already registered")
	ErrAlreadyInRoom       = newGameError(KindStateConflict, "already_in_room", "player is already in a room")
	ErrNameTaken           = newGameError(KindStateConflict, "name_taken", "that name is already taken in this room")
	ErrRoomFull            = newGameError(KindStateConflict, "room_full", "room is full")
	ErrRoomNotJoinable     = newGameError(KindStateConflict, "room_not_joinable", "room is no longer accepting players")
	ErrInvalidGameState    = newGameError(KindStateConflict, "invalid_game_state", "action not allowed in the current room state")
	ErrInsufficientPlayers = newGameError(KindStateConflict, "insufficient_players", "not enough players to start")

	ErrRegistryFull       = newGameError(KindCapacity, "registry_full", "server is at its room limit")
	ErrCodeSpaceExhausted = newGameError(KindCapacity, "code_space_exhausted", "could not allocate a room code")
	ErrRateLimited        = newGameError(KindCapacity, "rate_limited", "too many messages, slow down")

	ErrNotLeader = newGameError(KindAuthorization, "not_leader", "only the room leader can do that")
)

// asGameError unwraps err into a GameError, keeping the full wrapped text as
// the message so detail added with %w survives.
func asGameError(err error) *GameError {
	var ge *GameError
	if errors.As(err, &ge) {
		return &GameError{Kind: ge.Kind, Code: ge.Code, Message: err.Error()}
	}

	return &GameError{Kind: KindInternal, Code: "internal", Message: err.Error()}
}

var logger = zerolog.New(zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: logDate,
	NoColor:    true,
}).With().Timestamp().Logger()

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	logger.Info().Msg(fmt.Sprintf(format, args...))
}

func errorf(format string, args ...any) {
	logger.Error().Msg(fmt.Sprintf(format, args...))
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
