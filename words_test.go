package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDifficulty(t *testing.T) {
	tests := map[string]Difficulty{
		"":       DifficultyMedium,
		"medium": DifficultyMedium,
		" EASY ": DifficultyEasy,
		"Hard":   DifficultyHard,
	}

	for in, want := range tests {
		got, err := parseDifficulty(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseDifficulty("nightmare")
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}

func TestWordBank(t *testing.T) {
	for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		words := defaultWords.Words(d)
		require.NotEmpty(t, words, d)

		w, err := defaultWords.RandomWord(d)
		require.NoError(t, err)
		assert.Contains(t, words, w)
	}

	assert.Equal(t, defaultWords.Words(DifficultyHard), defaultWords.Words(DifficultyHard))

	_, err := WordBank{}.RandomWord(DifficultyEasy)
	assert.ErrorIs(t, err, ErrNoWords)
}

func TestSameWord(t *testing.T) {
	assert.True(t, sameWord("Giraffe", "giraffe"))
	assert.True(t, sameWord("  ice   cream ", "ice cream"))
	assert.False(t, sameWord("giraffes", "giraffe"))
	assert.False(t, sameWord("", ""))
}
