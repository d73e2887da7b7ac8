/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Metric is one of the five guessed financial attributes.
type Metric string

const (
	MarketCap Metric = "market_cap"
	Revenue   Metric = "revenue"
	Profit    Metric = "profit"
	Assets    Metric = "assets"
	Employees Metric = "employees"
)

// Metrics lists every metric in display order.
var Metrics = [...]Metric{MarketCap, Revenue, Profit, Assets, Employees}

// MetricCount is the number of guesses in a complete round.
const MetricCount = len(Metrics)

func (m Metric) Valid() bool {
	switch m {
	case MarketCap, Revenue, Profit, Assets, Employees:
		return true
	default:
		return false
	}
}

// Token is the name the backend expects in a guess_type value.
func (m Metric) Token() string {
	if m == MarketCap {
		return "marketcap"
	}
	return string(m)
}

// Label is the human readable metric name.
func (m Metric) Label() string {
	switch m {
	case MarketCap:
		return "market cap"
	case Employees:
		return "employee count"
	default:
		return string(m)
	}
}

// ParseMetric accepts metric names, backend tokens and a few short aliases.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "market_cap", "marketcap", "market-cap", "cap", "mc":
		return MarketCap, nil
	case "revenue", "rev":
		return Revenue, nil
	case "profit", "prof":
		return Profit, nil
	case "assets", "asset":
		return Assets, nil
	case "employees", "employee", "emp":
		return Employees, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// Direction is the player's answer for a metric.
type Direction string

const (
	Higher Direction = "higher"
	Lower  Direction = "lower"
)

func (d Direction) Valid() bool {
	return d == Higher || d == Lower
}

// ParseDirection accepts "higher"/"lower" and their first letters.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "higher", "h", "up", "above":
		return Higher, nil
	case "lower", "l", "down", "below":
		return Lower, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// Guess pairs a metric with a direction.
type Guess struct {
	Metric    Metric
	Direction Direction
}

// Token is the guess_type form value, e.g. "marketcap_higher".
func (g Guess) Token() string {
	return g.Metric.Token() + "_" + string(g.Direction)
}

// Tier is the threshold table selected by a company's rank.
type Tier int

const (
	TopTier Tier = iota
	LowerTier
)

const topTierMaxRank = 250

// TierFor picks the threshold table for a rank.
func TierFor(rank int) Tier {
	if rank <= topTierMaxRank {
		return TopTier
	}
	return LowerTier
}

func (t Tier) String() string {
	if t == TopTier {
		return "top"
	}
	return "lower"
}

// Money thresholds are in millions of dollars, employees are a head count.
var thresholds = map[Tier]map[Metric]int64{
	TopTier: {
		MarketCap: 40_000,
		Revenue:   30_000,
		Profit:    10_000,
		Assets:    25_000,
		Employees: 30_000,
	},
	LowerTier: {
		MarketCap: 10_000,
		Revenue:   7_500,
		Profit:    2_500,
		Assets:    6_000,
		Employees: 7_500,
	},
}

// Threshold returns the raw threshold for a metric in a tier.
func (t Tier) Threshold(m Metric) int64 {
	return thresholds[t][m]
}

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatThreshold renders a threshold the way it is shown to the player.
func FormatThreshold(m Metric, value int64) string {
	if m == Employees {
		return printer.Sprintf("%d", value)
	}
	return fmt.Sprintf("$%.1fB", float64(value)/1_000)
}

// Question is the prompt shown for one metric.
type Question struct {
	Metric    Metric `json:"metric"`
	Label     string `json:"label"`
	Threshold string `json:"threshold"`
	Text      string `json:"text"`
}

// Questions builds one question per metric, all from the same tier.
func Questions(c Company) []Question {
	tier := TierFor(c.Rank)

	out := make([]Question, 0, MetricCount)
	for _, m := range Metrics {
		value := FormatThreshold(m, tier.Threshold(m))
		out = append(out, Question{
			Metric:    m,
			Label:     m.Label(),
			Threshold: value,
			Text:      fmt.Sprintf("Is the %s of %s higher or lower than %s?", m.Label(), c.Name, value),
		})
	}
	return out
}
