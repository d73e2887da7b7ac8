/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/hilo/games/trivia"
	"github.com/Seednode/hilo/games/trivia/triviatest"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var acme = trivia.Company{
	Name:        "Acme Corp",
	Description: "Makes everything.",
	Rank:        100,
	Ticker:      "ACME",
}

var acmeActual = map[trivia.Metric]int64{
	trivia.MarketCap: 45_000,
	trivia.Revenue:   20_000,
	trivia.Profit:    12_000,
	trivia.Assets:    5_000,
	trivia.Employees: 100_000,
}

type testApp struct {
	backend *triviatest.Server
	server  *httptest.Server
	rounds  *RoundManager
	metrics *gameMetrics
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	backend := triviatest.New(acme, acmeActual)
	t.Cleanup(backend.Close)

	cfg := validConfig()
	cfg.backend = backend.URL
	cfg.metrics = true

	metrics := newGameMetrics()
	rm := newRoundManager(cfg, metrics)
	t.Cleanup(rm.closeAll)

	errs := make(chan error, 64)
	server := httptest.NewServer(newRouter(cfg, rm, metrics, errs))
	t.Cleanup(server.Close)

	return &testApp{backend: backend, server: server, rounds: rm, metrics: metrics}
}

// envelope keeps the raw message next to its type.
type envelope struct {
	Type string
	Raw  json.RawMessage
}

type wsPlayer struct {
	t    *testing.T
	conn *websocket.Conn
}

func (a *testApp) dial(t *testing.T, playerID string) *wsPlayer {
	t.Helper()

	header := http.Header{}
	if playerID != "" {
		header.Set("Cookie", playerCookieName+"="+playerID)
	}

	url := "ws" + strings.TrimPrefix(a.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &wsPlayer{t: t, conn: conn}
}

// next returns the next message of type want, skipping timer ticks.
func (p *wsPlayer) next(want string) json.RawMessage {
	p.t.Helper()

	_ = p.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var raw json.RawMessage
		require.NoError(p.t, p.conn.ReadJSON(&raw))

		var head struct {
			Type string `json:"type"`
		}
		require.NoError(p.t, json.Unmarshal(raw, &head))

		if head.Type == "tick" && want != "tick" {
			continue
		}
		require.Equal(p.t, want, head.Type, string(raw))
		return raw
	}
}

func (p *wsPlayer) send(msg ClientMessage) {
	p.t.Helper()
	require.NoError(p.t, p.conn.WriteJSON(msg))
}

func (p *wsPlayer) playRound() (round string) {
	p.t.Helper()

	var start RoundMessage
	require.NoError(p.t, json.Unmarshal(p.next("round"), &start))

	var company CompanyMessage
	require.NoError(p.t, json.Unmarshal(p.next("company"), &company))
	require.Len(p.t, company.Questions, trivia.MetricCount)

	for _, m := range trivia.Metrics {
		p.send(ClientMessage{Type: "guess", Metric: string(m), Direction: "higher"})

		var res GuessResultMessage
		require.NoError(p.t, json.Unmarshal(p.next("guess_result"), &res))
		assert.Equal(p.t, m, res.Result.Metric)
	}

	return start.Round
}

func TestBrowserRound(t *testing.T) {
	app := newTestApp(t)
	player := app.dial(t, "")

	round := player.playRound()
	require.NotEmpty(t, round)

	var complete CompleteMessage
	require.NoError(t, json.Unmarshal(player.next("complete"), &complete))
	assert.Equal(t, 3, complete.Summary.Correct)
	assert.Equal(t, "60%", complete.Summary.Percent)

	var stats StatsMessage
	require.NoError(t, json.Unmarshal(player.next("stats"), &stats))
	assert.Equal(t, "60.00%", stats.Accuracy)
	assert.Equal(t, 1, stats.Stats.TotalGames)

	player.send(ClientMessage{Type: "share", UserAgent: "Mozilla/5.0 Telegram-Android/10.0"})

	var share ShareMessage
	require.NoError(t, json.Unmarshal(player.next("share"), &share))
	assert.Equal(t, trivia.ShareDeepLink, share.Plan.Method)
	assert.Contains(t, share.Plan.Text, "hilo 3/5")
	assert.Equal(t, "/rounds/"+round+"/qr", share.QR)

	resp, err := http.Get(app.server.URL + share.QR)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.roundsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.roundsCompleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.guesses.WithLabelValues("revenue", "incorrect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.guesses.WithLabelValues("market_cap", "correct")))
	assert.Len(t, app.backend.StatsPosts(), 1)
}

func TestBrowserIgnoresRepeatedGuess(t *testing.T) {
	app := newTestApp(t)
	player := app.dial(t, "")

	player.next("round")
	player.next("company")

	player.send(ClientMessage{Type: "guess", Metric: "profit", Direction: "lower"})
	player.next("guess_result")

	player.send(ClientMessage{Type: "guess", Metric: "profit", Direction: "higher"})
	player.send(ClientMessage{Type: "guess", Metric: "assets", Direction: "lower"})

	var res GuessResultMessage
	require.NoError(t, json.Unmarshal(player.next("guess_result"), &res))
	assert.Equal(t, trivia.Assets, res.Result.Metric)

	assert.Equal(t, []string{"profit_lower", "assets_lower"}, app.backend.Guesses())
}

func TestBrowserLifetimeStatsFollowPlayer(t *testing.T) {
	app := newTestApp(t)

	first := app.dial(t, "player-one")
	first.playRound()
	first.next("complete")
	first.next("stats")
	_ = first.conn.Close()

	second := app.dial(t, "player-one")
	second.playRound()
	second.next("complete")

	var stats StatsMessage
	require.NoError(t, json.Unmarshal(second.next("stats"), &stats))
	assert.Equal(t, 2, stats.Stats.TotalGames)
	assert.Equal(t, 6, stats.Stats.CorrectGuesses)
}

func TestBrowserCompanyFailureOffersRetry(t *testing.T) {
	app := newTestApp(t)
	app.backend.SetCompanyResponse(http.StatusInternalServerError, "Failed to read CSV")

	player := app.dial(t, "")
	player.next("round")

	var failure ErrorMessage
	require.NoError(t, json.Unmarshal(player.next("error"), &failure))
	assert.True(t, failure.Retry)

	app.backend.SetCompanyResponse(0, "")
	player.send(ClientMessage{Type: "retry"})
	player.next("company")
}

func TestQRRequiresFinishedRound(t *testing.T) {
	app := newTestApp(t)

	resp, err := http.Get(app.server.URL + "/rounds/missing/qr")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	player := app.dial(t, "")
	var start RoundMessage
	require.NoError(t, json.Unmarshal(player.next("round"), &start))
	player.next("company")

	resp, err = http.Get(app.server.URL + "/rounds/" + start.Round + "/qr")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAmbientRoutes(t *testing.T) {
	app := newTestApp(t)

	resp, err := http.Get(app.server.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "assets/trivia/app.js")
	assert.NotEmpty(t, resp.Header.Get("Set-Cookie"))

	for path, want := range map[string]string{
		"/healthz":               "Ok",
		"/version":               "hilo v" + releaseVersion,
		"/assets/trivia/app.css": ".question",
		"/favicon.svg":           "<svg",
		"/metrics":               "hilo_rounds_started_total",
	} {
		resp, err := http.Get(app.server.URL + path)
		require.NoError(t, err, path)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(body), want, path)
	}
}

func TestReapDropsIdlePlayerJars(t *testing.T) {
	cfg := validConfig()
	cfg.sessionTimeout = 0

	rm := newRoundManager(cfg, newGameMetrics())
	rm.idleTimeout = time.Minute
	t.Cleanup(rm.closeAll)

	_, err := rm.jarFor("idle-player")
	require.NoError(t, err)

	active, err := rm.newRound("active-player", nil)
	require.NoError(t, err)

	// the active player's jar is old but its round is not
	rm.jars["active-player"].lastUsed = time.Now().Add(-time.Hour)

	rm.reap(time.Now().Add(30 * time.Second))
	assert.Len(t, rm.jars, 2)

	rm.reap(time.Now().Add(2 * time.Hour))
	assert.Empty(t, rm.jars)
	_, ok := rm.get(active.id)
	assert.False(t, ok)
}

func TestSocketViewDropsOnlyTicksWhenFull(t *testing.T) {
	view := newSocketView(newGameMetrics())

	for i := range cap(view.send) {
		view.Tick(i)
	}
	view.Tick(99)
	assert.Len(t, view.send, cap(view.send))
	assert.False(t, view.closed)

	view.ShowGuess(trivia.GuessResult{Metric: trivia.Profit})
	assert.True(t, view.closed)

	n := 0
	for msg := range view.send {
		_, ok := msg.(TickMessage)
		assert.True(t, ok)
		n++
	}
	assert.Equal(t, cap(view.send), n)
}
