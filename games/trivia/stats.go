/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import "fmt"

// Stats are the backend's running totals for a player.
type Stats struct {
	TotalGames       int `json:"total_games"`
	CorrectGuesses   int `json:"correct_guesses"`
	IncorrectGuesses int `json:"incorrect_guesses"`
	TotalTime        int `json:"total_time"`
}

// AccuracyPercent is correct guesses over every guess the finished games
// could have had.
func (s Stats) AccuracyPercent() float64 {
	if s.TotalGames <= 0 {
		return 0
	}
	return float64(s.CorrectGuesses) / float64(s.TotalGames*MetricCount) * 100
}

// Accuracy renders AccuracyPercent, e.g. "60.00%".
func (s Stats) Accuracy() string {
	return fmt.Sprintf("%.2f%%", s.AccuracyPercent())
}

// AverageSeconds is the mean round time.
func (s Stats) AverageSeconds() float64 {
	if s.TotalGames <= 0 {
		return 0
	}
	return float64(s.TotalTime) / float64(s.TotalGames)
}

// AverageTime renders AverageSeconds with two decimals.
func (s Stats) AverageTime() string {
	return fmt.Sprintf("%.2f", s.AverageSeconds())
}

func (s Stats) valid() bool {
	return s.TotalGames >= 0 && s.CorrectGuesses >= 0 && s.IncorrectGuesses >= 0 && s.TotalTime >= 0
}
