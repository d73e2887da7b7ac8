/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia_test

import (
	"testing"

	"github.com/Seednode/hilo/games/trivia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuessToken(t *testing.T) {
	cases := map[trivia.Guess]string{
		{Metric: trivia.MarketCap, Direction: trivia.Higher}: "marketcap_higher",
		{Metric: trivia.MarketCap, Direction: trivia.Lower}:  "marketcap_lower",
		{Metric: trivia.Revenue, Direction: trivia.Lower}:    "revenue_lower",
		{Metric: trivia.Profit, Direction: trivia.Higher}:    "profit_higher",
		{Metric: trivia.Assets, Direction: trivia.Higher}:    "assets_higher",
		{Metric: trivia.Employees, Direction: trivia.Lower}:  "employees_lower",
	}
	for g, want := range cases {
		assert.Equal(t, want, g.Token())
	}
}

func TestParseMetric(t *testing.T) {
	for _, in := range []string{"market_cap", "marketcap", "MC", " cap "} {
		m, err := trivia.ParseMetric(in)
		require.NoError(t, err, in)
		assert.Equal(t, trivia.MarketCap, m)
	}

	_, err := trivia.ParseMetric("dividends")
	assert.ErrorIs(t, err, trivia.ErrUnknownMetric)
}

func TestParseDirection(t *testing.T) {
	d, err := trivia.ParseDirection("H")
	require.NoError(t, err)
	assert.Equal(t, trivia.Higher, d)

	d, err = trivia.ParseDirection("lower")
	require.NoError(t, err)
	assert.Equal(t, trivia.Lower, d)

	_, err = trivia.ParseDirection("sideways")
	assert.ErrorIs(t, err, trivia.ErrUnknownDirection)
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, trivia.TopTier, trivia.TierFor(1))
	assert.Equal(t, trivia.TopTier, trivia.TierFor(250))
	assert.Equal(t, trivia.LowerTier, trivia.TierFor(251))
	assert.Equal(t, trivia.LowerTier, trivia.TierFor(500))
}

func TestFormatThreshold(t *testing.T) {
	assert.Equal(t, "$40.0B", trivia.FormatThreshold(trivia.MarketCap, 40_000))
	assert.Equal(t, "$7.5B", trivia.FormatThreshold(trivia.Revenue, 7_500))
	assert.Equal(t, "30,000", trivia.FormatThreshold(trivia.Employees, 30_000))
	assert.Equal(t, "7,500", trivia.FormatThreshold(trivia.Employees, 7_500))
}

func TestQuestionsSwitchTablesTogether(t *testing.T) {
	top := trivia.Questions(trivia.Company{Name: "Acme", Rank: 100})
	lower := trivia.Questions(trivia.Company{Name: "Acme", Rank: 300})

	require.Len(t, top, trivia.MetricCount)
	require.Len(t, lower, trivia.MetricCount)

	wantTop := []string{"$40.0B", "$30.0B", "$10.0B", "$25.0B", "30,000"}
	wantLower := []string{"$10.0B", "$7.5B", "$2.5B", "$6.0B", "7,500"}

	for i, m := range trivia.Metrics {
		assert.Equal(t, m, top[i].Metric)
		assert.Equal(t, wantTop[i], top[i].Threshold, m)
		assert.Equal(t, wantLower[i], lower[i].Threshold, m)
	}

	assert.Contains(t, top[0].Text, "$40.0B")
	assert.Contains(t, top[0].Text, "market cap")
	assert.Contains(t, lower[0].Text, "$10.0B")
}
