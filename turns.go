/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"strings"
	"time"
)

type ActionName string

const (
	ActionGiveClue     ActionName = "give_clue"
	ActionMakeGuess    ActionName = "make_guess"
	ActionNextTurn     ActionName = "next_turn"
	ActionEndRound     ActionName = "end_round"
	ActionGenerateWord ActionName = "generate_word"
)

// GameAction is one of GiveClue, MakeGuess, NextTurn, EndRound or
// GenerateWord.
type GameAction interface {
	actionName() ActionName
}

type GiveClue struct {
	Clue string `json:"clue" validate:"required,max=200"`
	Word string `json:"word" validate:"required,max=100"`
}

type MakeGuess struct {
	Guess     string `json:"guess" validate:"required,max=100"`
	IsCorrect bool   `json:"isCorrect"`
}

type NextTurn struct{}

type EndRound struct{}

type GenerateWord struct{}

func (GiveClue) actionName() ActionName     { return ActionGiveClue }
func (MakeGuess) actionName() ActionName    { return ActionMakeGuess }
func (NextTurn) actionName() ActionName     { return ActionNextTurn }
func (EndRound) actionName() ActionName     { return ActionEndRound }
func (GenerateWord) actionName() ActionName { return ActionGenerateWord }

type TimerConfig struct {
	Enabled  bool
	Duration time.Duration
}

type LogEntry struct {
	At       time.Time  `json:"at"`
	Round    int        `json:"round"`
	Action   ActionName `json:"action"`
	PlayerID string     `json:"playerId,omitempty"`
	Team     Team       `json:"team"`
	Clue     string     `json:"clue,omitempty"`
	Word     string     `json:"word,omitempty"`
	Guess    string     `json:"guess,omitempty"`
	Correct  bool       `json:"correct,omitempty"`
}

// TurnState exists only while a room is playing or finished.
type TurnState struct {
	TotalRounds  int
	CurrentRound int
	CurrentTeam  Team
	Cursors      [2]int
	ActiveWord   *Word
	Scores       [2]int
	Log          []LogEntry
	Timer        TimerConfig
}

func newTurnState(rounds int, timer TimerConfig) *TurnState {
	return &TurnState{
		TotalRounds:  rounds,
		CurrentRound: 1,
		CurrentTeam:  Team1,
		Timer:        timer,
	}
}

func (t *TurnState) finished() bool {
	return t.CurrentRound > t.TotalRounds
}

// Tally recounts the score of each team from the correct guesses in the log.
func (t *TurnState) Tally() [2]int {
	var tally [2]int
	for _, e := range t.Log {
		if e.Action == ActionMakeGuess && e.Correct && e.Team != TeamNone {
			tally[e.Team-1]++
		}
	}

	return tally
}

func (t *TurnState) award(team Team) {
	if team != TeamNone {
		t.Scores[team-1]++
	}
}

// advanceCursor moves the team's guesser pointer on by one, wrapping around
// a roster of size n.
func (t *TurnState) advanceCursor(team Team, n int) {
	if team == TeamNone || n == 0 {
		return
	}
	t.Cursors[team-1] = (t.Cursors[team-1] + 1) % n
}

func (t *TurnState) clampCursors(team1, team2 int) {
	for i, n := range [2]int{team1, team2} {
		if n == 0 || t.Cursors[i] >= n {
			t.Cursors[i] = 0
		}
	}
}

func winner(scores [2]int) string {
	switch {
	case scores[0] > scores[1]:
		return Team1.String()
	case scores[1] > scores[0]:
		return Team2.String()
	default:
		return "tie"
	}
}

type Scoreboard struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

func scoreboard(s [2]int) Scoreboard {
	return Scoreboard{Team1: s[0], Team2: s[1]}
}

// ActionResult is the action-specific part of a game_update event.
type ActionResult struct {
	Clue     string      `json:"clue,omitempty"`
	Guess    string      `json:"guess,omitempty"`
	Correct  *bool       `json:"correct,omitempty"`
	Team     string      `json:"team,omitempty"`
	Word     *Word       `json:"word,omitempty"`
	Category string      `json:"category,omitempty"`
	Round    int         `json:"round,omitempty"`
	Finished bool        `json:"finished,omitempty"`
	Winner   string      `json:"winner,omitempty"`
	Scores   *Scoreboard `json:"scores,omitempty"`
}

// redacted strips the drawn word so it can be shown to everyone but the
// player who generated it.
func (r ActionResult) redacted() ActionResult {
	if r.Word != nil {
		r.Category = r.Word.Category
		r.Word = nil
	}

	return r
}

// TurnEngine applies game actions to a playing room.
type TurnEngine struct {
	words        WordBank
	trustGuesses bool
	now          func() time.Time
}

func (e TurnEngine) activeGuesser(room *Room, leader string) string {
	t := room.Turn
	if t == nil {
		return ""
	}

	roster := room.roster(t.CurrentTeam)
	if len(roster) == 0 {
		return leader
	}

	return roster[t.Cursors[t.CurrentTeam-1]%len(roster)]
}

// Apply validates the action against the room and, if it is legal, mutates
// the turn state. Nothing is changed when an error is returned.
func (e TurnEngine) Apply(room *Room, p *Player, action GameAction) (ActionResult, error) {
	if room.Status != StatusPlaying || room.Turn == nil {
		return ActionResult{}, fmt.Errorf("%w: room is %s", ErrInvalidGameState, room.Status)
	}

	t := room.Turn
	now := e.now()

	entry := LogEntry{
		At:       now,
		Round:    t.CurrentRound,
		Action:   action.actionName(),
		PlayerID: p.ID,
		Team:     p.Team,
	}

	switch a := action.(type) {
	case GiveClue:
		clue, word := strings.TrimSpace(a.Clue), strings.TrimSpace(a.Word)
		if clue == "" || word == "" {
			return ActionResult{}, fmt.Errorf("%w: clue and word are required", ErrInvalidPayload)
		}

		entry.Clue, entry.Word = clue, word
		t.Log = append(t.Log, entry)

		return ActionResult{Clue: clue, Team: p.Team.String()}, nil

	case MakeGuess:
		guess := strings.TrimSpace(a.Guess)
		if guess == "" {
			return ActionResult{}, fmt.Errorf("%w: guess is required", ErrInvalidPayload)
		}
		if p.Team == TeamNone {
			return ActionResult{}, fmt.Errorf("%w: player has no team", ErrInvalidGameState)
		}

		var correct bool
		if e.trustGuesses {
			correct = a.IsCorrect
		} else if t.ActiveWord != nil {
			correct = sameWord(guess, t.ActiveWord.Text)
		}

		entry.Guess, entry.Correct = guess, correct
		if t.ActiveWord != nil {
			entry.Word = t.ActiveWord.Text
		}
		t.Log = append(t.Log, entry)

		if correct {
			t.award(p.Team)
			t.ActiveWord = nil
		}

		s := scoreboard(t.Scores)

		return ActionResult{Guess: guess, Correct: &correct, Team: p.Team.String(), Scores: &s}, nil

	case NextTurn:
		t.CurrentTeam = t.CurrentTeam.other()
		t.Log = append(t.Log, entry)

		return ActionResult{Team: t.CurrentTeam.String()}, nil

	case EndRound:
		t.Log = append(t.Log, entry)
		t.CurrentRound++
		t.ActiveWord = nil

		result := ActionResult{Round: t.CurrentRound}
		if t.finished() {
			room.Status = StatusFinished

			final := t.Tally()
			s := scoreboard(final)
			result.Round = t.TotalRounds
			result.Finished = true
			result.Winner = winner(final)
			result.Scores = &s
		}

		return result, nil

	case GenerateWord:
		w, err := e.words.RandomWord(room.Difficulty)
		if err != nil {
			return ActionResult{}, err
		}

		entry.Word = w.Text
		t.Log = append(t.Log, entry)
		t.ActiveWord = &w

		return ActionResult{Word: &w, Category: w.Category}, nil

	default:
		return ActionResult{}, fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}
}
