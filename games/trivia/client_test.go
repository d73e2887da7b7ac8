/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Seednode/hilo/games/trivia"
	"github.com/Seednode/hilo/games/trivia/triviatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var acme = trivia.Company{
	Name:        "Acme Corp",
	Description: "Makes everything.",
	Rank:        100,
	Ticker:      "ACME",
}

// Actual figures: market cap, profit and employees sit above the top-tier
// thresholds, revenue and assets below.
var acmeActual = map[trivia.Metric]int64{
	trivia.MarketCap: 45_000,
	trivia.Revenue:   20_000,
	trivia.Profit:    12_000,
	trivia.Assets:    5_000,
	trivia.Employees: 100_000,
}

func newBackend(t *testing.T) (*triviatest.Server, *trivia.Client) {
	t.Helper()

	srv := triviatest.New(acme, acmeActual)
	t.Cleanup(srv.Close)

	client, err := trivia.NewClient(srv.URL)
	require.NoError(t, err)
	return srv, client
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := trivia.NewClient("ftp://example.com")
	assert.Error(t, err)

	_, err = trivia.NewClient("://nope")
	assert.Error(t, err)
}

func TestClientCompany(t *testing.T) {
	_, client := newBackend(t)

	c, err := client.Company(context.Background())
	require.NoError(t, err)
	assert.Equal(t, acme, c)
}

func TestClientCompanyErrors(t *testing.T) {
	srv, client := newBackend(t)
	ctx := context.Background()

	srv.SetCompanyResponse(http.StatusInternalServerError, "Failed to read CSV")
	_, err := client.Company(ctx)
	assert.ErrorIs(t, err, trivia.ErrUnexpectedStatus)

	srv.SetCompanyResponse(http.StatusOK, "{not json")
	_, err = client.Company(ctx)
	assert.ErrorIs(t, err, trivia.ErrMalformedResponse)

	srv.SetCompanyResponse(http.StatusOK, `{"description":"no name"}`)
	_, err = client.Company(ctx)
	assert.ErrorIs(t, err, trivia.ErrMalformedResponse)
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := trivia.NewClient(url)
	require.NoError(t, err)

	_, err = client.Company(context.Background())
	assert.ErrorIs(t, err, trivia.ErrTransport)
}

func TestClientRequestShapes(t *testing.T) {
	var guessType, guessContentType, statsContentType string
	var statsBody map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("POST /submit_guess", func(w http.ResponseWriter, r *http.Request) {
		guessContentType = r.Header.Get("Content-Type")
		_ = r.ParseForm()
		guessType = r.PostForm.Get("guess_type")
		_, _ = io.WriteString(w, "Correct! Actual: $45.0B")
	})
	mux.HandleFunc("POST /stats", func(w http.ResponseWriter, r *http.Request) {
		statsContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&statsBody)
		_, _ = io.WriteString(w, `{"total_games":4,"correct_guesses":12,"incorrect_guesses":8,"total_time":130}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := trivia.NewClient(srv.URL + "/")
	require.NoError(t, err)
	ctx := context.Background()

	msg, err := client.SubmitGuess(ctx, trivia.Guess{Metric: trivia.MarketCap, Direction: trivia.Higher})
	require.NoError(t, err)
	assert.Equal(t, "Correct! Actual: $45.0B", msg)
	assert.Equal(t, "marketcap_higher", guessType)
	assert.Equal(t, "application/x-www-form-urlencoded", guessContentType)

	stats, err := client.SubmitStats(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "application/json", statsContentType)
	assert.Equal(t, map[string]any{"time": float64(42)}, statsBody)
	assert.Equal(t, trivia.Stats{TotalGames: 4, CorrectGuesses: 12, IncorrectGuesses: 8, TotalTime: 130}, stats)
}

func TestClientStatsRejectsMissingFields(t *testing.T) {
	srv, client := newBackend(t)

	srv.SetStatsResponse(`{"total_games":1}`)
	_, err := client.SubmitStats(context.Background(), 10)
	assert.ErrorIs(t, err, trivia.ErrMalformedResponse)
}

func TestClientKeepsServerCookie(t *testing.T) {
	_, client := newBackend(t)
	ctx := context.Background()

	for _, m := range trivia.Metrics {
		_, err := client.SubmitGuess(ctx, trivia.Guess{Metric: m, Direction: trivia.Higher})
		require.NoError(t, err)
	}

	stats, err := client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalGames)
	assert.Equal(t, 3, stats.CorrectGuesses)
	assert.Equal(t, 2, stats.IncorrectGuesses)
}
