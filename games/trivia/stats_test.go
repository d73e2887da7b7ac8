/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia_test

import (
	"testing"

	"github.com/Seednode/hilo/games/trivia"
	"github.com/stretchr/testify/assert"
)

func TestStatsAccuracy(t *testing.T) {
	s := trivia.Stats{TotalGames: 4, CorrectGuesses: 12, IncorrectGuesses: 8, TotalTime: 130}

	assert.Equal(t, "60.00%", s.Accuracy())
	assert.Equal(t, "32.50", s.AverageTime())
}

func TestStatsWithoutGames(t *testing.T) {
	var s trivia.Stats

	assert.Equal(t, "0.00%", s.Accuracy())
	assert.Equal(t, "0.00", s.AverageTime())
}
