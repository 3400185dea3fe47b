/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// parseDifficulty normalizes user input. An empty value means medium.
func parseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case "", DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyHard:
		return DifficultyHard, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
}

type Word struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// WordBank is a read-only set of categorized word lists keyed by difficulty.
type WordBank map[Difficulty]map[string][]string

// Words flattens every category for d, in category-name order so the result
// is stable between calls.
func (b WordBank) Words(d Difficulty) []Word {
	categories := b[d]

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	slices.Sort(names)

	var words []Word
	for _, name := range names {
		for _, text := range categories[name] {
			words = append(words, Word{Text: text, Category: name})
		}
	}

	return words
}

func (b WordBank) RandomWord(d Difficulty) (Word, error) {
	words := b.Words(d)
	if len(words) == 0 {
		return Word{}, fmt.Errorf("%w: %s", ErrNoWords, d)
	}

	return words[rand.IntN(len(words))], nil
}

// sameWord compares a guess against a word ignoring case and surrounding or
// repeated whitespace.
func sameWord(a, b string) bool {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}

	return a != "" && norm(a) == norm(b)
}

var defaultWords = WordBank{
	DifficultyEasy: {
		"animals": {"cat", "dog", "fish", "bird", "cow", "horse", "duck", "frog", "lion", "bear", "pig", "sheep"},
		"food":    {"apple", "bread", "cake", "pizza", "banana", "egg", "milk", "cheese", "soup", "candy"},
		"objects": {"ball", "chair", "book", "phone", "cup", "hat", "shoe", "door", "clock", "bed"},
		"nature":  {"sun", "moon", "tree", "rain", "snow", "star", "flower", "river", "cloud", "sea"},
	},
	DifficultyMedium: {
		"animals": {"giraffe", "penguin", "kangaroo", "octopus", "dolphin", "squirrel", "turtle", "peacock", "camel", "zebra"},
		"food":    {"spaghetti", "pancake", "sandwich", "popcorn", "burrito", "pretzel", "omelette", "lasagna", "muffin"},
		"objects": {"umbrella", "backpack", "telescope", "ladder", "scissors", "candle", "compass", "keyboard", "lantern"},
		"places":  {"library", "airport", "hospital", "volcano", "castle", "desert", "museum", "stadium", "island"},
		"actions": {"swimming", "dancing", "juggling", "painting", "sneezing", "whistling", "climbing", "fishing"},
	},
	DifficultyHard: {
		"concepts":    {"nostalgia", "gravity", "democracy", "karma", "procrastination", "irony", "evolution", "inflation"},
		"objects":     {"kaleidoscope", "metronome", "hourglass", "stethoscope", "periscope", "chandelier", "accordion"},
		"places":      {"observatory", "labyrinth", "lighthouse", "monastery", "aquarium", "greenhouse", "catacombs"},
		"actions":     {"hibernating", "meditating", "eavesdropping", "ventriloquism", "sleepwalking", "photosynthesis"},
		"professions": {"archaeologist", "astronaut", "blacksmith", "cartographer", "sommelier", "taxidermist"},
	},
}
