/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"fmt"
	"strings"
)

// Outcome is the state of a single score entry.
type Outcome string

const (
	Unanswered Outcome = "unanswered"
	Correct    Outcome = "correct"
	Incorrect  Outcome = "incorrect"
)

const correctMarker = "Correct!"

// OutcomeOf judges a /submit_guess response body.
func OutcomeOf(response string) Outcome {
	if strings.Contains(response, correctMarker) {
		return Correct
	}
	return Incorrect
}

// Glyph is the share-text symbol for an outcome.
func (o Outcome) Glyph() string {
	switch o {
	case Correct:
		return "🟩"
	case Incorrect:
		return "🟥"
	default:
		return "⬜"
	}
}

// Score maps every metric to its outcome. The zero value is not usable; call
// NewScore.
type Score struct {
	entries map[Metric]Outcome
}

func NewScore() Score {
	s := Score{entries: make(map[Metric]Outcome, MetricCount)}
	for _, m := range Metrics {
		s.entries[m] = Unanswered
	}
	return s
}

// Get returns the outcome for m.
func (s Score) Get(m Metric) Outcome {
	if o, ok := s.entries[m]; ok {
		return o
	}
	return Unanswered
}

// Record moves m from unanswered to o. It fails if m was already answered.
func (s Score) Record(m Metric, o Outcome) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMetric, m)
	}
	if s.entries[m] != Unanswered {
		return fmt.Errorf("%w: %s", ErrAlreadyAnswered, m)
	}
	s.entries[m] = o
	return nil
}

// Answered counts entries that are no longer unanswered.
func (s Score) Answered() int {
	n := 0
	for _, o := range s.entries {
		if o != Unanswered {
			n++
		}
	}
	return n
}

// Correct counts correct entries.
func (s Score) Correct() int {
	n := 0
	for _, o := range s.entries {
		if o == Correct {
			n++
		}
	}
	return n
}

// Complete reports whether every metric has been answered.
func (s Score) Complete() bool {
	return s.Answered() == MetricCount
}

// Percent is the share of correct entries, 0-100.
func (s Score) Percent() float64 {
	return float64(s.Correct()) / float64(MetricCount) * 100
}

// Glyphs renders the outcomes in metric order.
func (s Score) Glyphs() string {
	var b strings.Builder
	for _, m := range Metrics {
		b.WriteString(s.entries[m].Glyph())
	}
	return b.String()
}

// Entries copies the score in metric order.
func (s Score) Entries() []Entry {
	out := make([]Entry, 0, MetricCount)
	for _, m := range Metrics {
		out = append(out, Entry{Metric: m, Outcome: s.entries[m]})
	}
	return out
}

// Entry is one metric's outcome.
type Entry struct {
	Metric  Metric  `json:"metric"`
	Outcome Outcome `json:"outcome"`
}
