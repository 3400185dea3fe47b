/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	ErrMissingLeader = errors.New("each team needs a leader to give clues")
	ErrEmptyTeams    = errors.New("add at least one guesser to a team before starting")
)

// LocalTeam is one side of a single-device game. The leader gives clues and
// substitutes as guesser while Players is empty.
type LocalTeam struct {
	Leader  string
	Players []string
}

type LocalOutcome struct {
	Guesser    string
	Team       Team
	Word       Word
	Correct    bool
	RoundEnded bool
	Finished   bool
	Winner     string
	Tally      [2]int
}

// LocalGame runs a whole game on one shared screen. The score is always
// derived from the log.
type LocalGame struct {
	teams      [2]LocalTeam
	difficulty Difficulty
	words      WordBank
	now        func() time.Time

	status RoomStatus
	turn   *TurnState
}

func NewLocalGame(team1, team2 LocalTeam, rounds int, d Difficulty, words WordBank) (*LocalGame, error) {
	team1.Leader = strings.TrimSpace(team1.Leader)
	team2.Leader = strings.TrimSpace(team2.Leader)

	if team1.Leader == "" || team2.Leader == "" {
		return nil, ErrMissingLeader
	}
	if len(team1.Players) == 0 && len(team2.Players) == 0 {
		return nil, ErrEmptyTeams
	}

	if rounds <= 0 {
		rounds = defaultRounds
	}
	if d == "" {
		d = DifficultyMedium
	}

	return &LocalGame{
		teams:      [2]LocalTeam{team1, team2},
		difficulty: d,
		words:      words,
		now:        time.Now,
		status:     StatusWaiting,
		turn:       newTurnState(rounds, TimerConfig{}),
	}, nil
}

// Start draws the first word.
func (g *LocalGame) Start() error {
	if g.status != StatusWaiting {
		return ErrInvalidGameState
	}

	w, err := g.words.RandomWord(g.difficulty)
	if err != nil {
		return fmt.Errorf("could not fetch a word: %w", err)
	}

	g.turn.ActiveWord = &w
	g.status = StatusPlaying

	return nil
}

func (g *LocalGame) Status() RoomStatus { return g.status }

func (g *LocalGame) Round() (current, total int) {
	return g.turn.CurrentRound, g.turn.TotalRounds
}

func (g *LocalGame) CurrentTeam() Team { return g.turn.CurrentTeam }

func (g *LocalGame) Word() Word {
	if g.turn.ActiveWord == nil {
		return Word{}
	}

	return *g.turn.ActiveWord
}

func (g *LocalGame) team(t Team) LocalTeam {
	return g.teams[t-1]
}

func (g *LocalGame) ActiveGuesser() string {
	team := g.team(g.turn.CurrentTeam)
	if len(team.Players) == 0 {
		return team.Leader
	}

	return team.Players[g.turn.Cursors[g.turn.CurrentTeam-1]%len(team.Players)]
}

func (g *LocalGame) Log() []LogEntry {
	return g.turn.Log
}

func (g *LocalGame) switchTeams() {
	current := g.turn.CurrentTeam
	g.turn.advanceCursor(current, len(g.team(current).Players))
	g.turn.CurrentTeam = current.other()
}

// LogWord records a guess from the active guesser. A miss hands the turn to
// the other team; a hit ends the round.
func (g *LocalGame) LogWord(text string) (LocalOutcome, error) {
	if g.status != StatusPlaying {
		return LocalOutcome{}, ErrInvalidGameState
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return LocalOutcome{}, fmt.Errorf("%w: guess is required", ErrInvalidPayload)
	}

	t := g.turn
	word := g.Word()
	correct := sameWord(text, word.Text)

	out := LocalOutcome{
		Guesser: g.ActiveGuesser(),
		Team:    t.CurrentTeam,
		Word:    word,
		Correct: correct,
	}

	if !correct {
		t.Log = append(t.Log, LogEntry{
			At:       g.now(),
			Round:    t.CurrentRound,
			Action:   ActionMakeGuess,
			PlayerID: out.Guesser,
			Team:     out.Team,
			Word:     word.Text,
			Guess:    text,
		})
		g.switchTeams()
		out.Tally = t.Tally()

		return out, nil
	}

	// Draw before touching state so a failed fetch leaves the round as is.
	var next Word
	last := t.CurrentRound >= t.TotalRounds
	if !last {
		w, err := g.words.RandomWord(g.difficulty)
		if err != nil {
			return LocalOutcome{}, fmt.Errorf("could not fetch a word: %w", err)
		}
		next = w
	}

	t.Log = append(t.Log, LogEntry{
		At:       g.now(),
		Round:    t.CurrentRound,
		Action:   ActionMakeGuess,
		PlayerID: out.Guesser,
		Team:     out.Team,
		Word:     word.Text,
		Guess:    text,
		Correct:  true,
	})

	t.CurrentRound++
	out.RoundEnded = true
	out.Tally = t.Tally()

	if last {
		t.ActiveWord = nil
		g.status = StatusFinished
		out.Finished = true
		out.Winner = winner(out.Tally)

		return out, nil
	}

	t.ActiveWord = &next
	g.switchTeams()

	return out, nil
}

func splitRoster(s string) LocalTeam {
	var names []string
	for name := range strings.SplitSeq(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return LocalTeam{}
	}

	return LocalTeam{Leader: names[0], Players: names[1:]}
}

func playLocal(g *LocalGame, in io.Reader, out io.Writer) error {
	if err := g.Start(); err != nil {
		return err
	}

	prompt := func() {
		round, total := g.Round()
		team := g.team(g.CurrentTeam())
		fmt.Fprintf(out, "\nRound %d/%d | %s | clue-giver %s | guesser %s\n",
			round, total, g.CurrentTeam(), team.Leader, g.ActiveGuesser())
		fmt.Fprintf(out, "word for %s: %s (%s)\n> ", team.Leader, g.Word().Text, g.Word().Category)
	}

	scanner := bufio.NewScanner(in)

	prompt()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			fmt.Fprint(out, "> ")
			continue
		case "quit", "exit":
			fmt.Fprintln(out, "Game abandoned.")
			return nil
		}

		res, err := g.LogWord(line)
		if err != nil {
			return err
		}

		if !res.Correct {
			fmt.Fprintf(out, "Not quite! Over to %s.\n", g.CurrentTeam())
			prompt()
			continue
		}

		fmt.Fprintf(out, "Correct! %s got %q. Score: team1 %d, team2 %d\n",
			res.Guesser, res.Word.Text, res.Tally[0], res.Tally[1])

		if res.Finished {
			if res.Winner == "tie" {
				fmt.Fprintln(out, "Game over: it's a tie!")
			} else {
				fmt.Fprintf(out, "Game over: %s wins!\n", res.Winner)
			}
			return nil
		}

		prompt()
	}

	return scanner.Err()
}

func newLocalCmd(v *viper.Viper) *cobra.Command {
	var (
		team1      string
		team2      string
		rounds     int
		difficulty string
	)

	cmd := &cobra.Command{
		Use:   "local",
		Short: "Play on a single shared screen from the terminal.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDifficulty(difficulty)
			if err != nil {
				return err
			}

			g, err := NewLocalGame(splitRoster(team1), splitRoster(team2), rounds, d, defaultWords)
			if err != nil {
				return err
			}

			return playLocal(g, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&team1, "team1", "", "comma-separated team 1 names, leader first (env: WORDPARTY_TEAM1)")
	fs.StringVar(&team2, "team2", "", "comma-separated team 2 names, leader first (env: WORDPARTY_TEAM2)")
	fs.IntVar(&rounds, "rounds", defaultRounds, "number of rounds to play (env: WORDPARTY_ROUNDS)")
	fs.StringVar(&difficulty, "difficulty", string(DifficultyMedium), "word difficulty: easy, medium or hard (env: WORDPARTY_DIFFICULTY)")

	bindFlags(v, fs)

	return cmd
}
