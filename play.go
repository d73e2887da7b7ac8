/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Browser rounds
//
// Every websocket connection owns one round. Reloading the page drops the
// connection and opens a fresh round; nothing carries over except the
// player's game server cookies, which live in a per-player jar so lifetime
// stats follow the player.
//
// Routes:
// - $prefix/                    → game page
// - $prefix/assets/trivia/:file → page assets
// - $prefix/ws                  → websocket for a new round
// - $prefix/rounds/:roundid/qr  → PNG QR code of a finished round's results

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/Seednode/hilo/games/trivia"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Messages coming from clients
type ClientMessage struct {
	Type      string `json:"type"`                 // "guess", "retry", "share", "share_failed"
	Metric    string `json:"metric,omitempty"`     // guess
	Direction string `json:"direction,omitempty"`  // guess
	Native    bool   `json:"native,omitempty"`     // share
	UserAgent string `json:"user_agent,omitempty"` // share
	Error     string `json:"error,omitempty"`      // share_failed
}

// RoundMessage is sent on connect.
type RoundMessage struct {
	Type  string `json:"type"` // "round"
	Round string `json:"round"`
}

type CompanyMessage struct {
	Type      string            `json:"type"` // "company"
	Company   trivia.Company    `json:"company"`
	Questions []trivia.Question `json:"questions"`
}

type TickMessage struct {
	Type    string `json:"type"` // "tick"
	Seconds int    `json:"seconds"`
}

type GuessResultMessage struct {
	Type   string             `json:"type"` // "guess_result"
	Result trivia.GuessResult `json:"result"`
}

type CompleteMessage struct {
	Type    string         `json:"type"` // "complete"
	Summary trivia.Summary `json:"summary"`
}

type StatsMessage struct {
	Type        string       `json:"type"` // "stats"
	Stats       trivia.Stats `json:"stats"`
	Accuracy    string       `json:"accuracy"`
	AverageTime string       `json:"average_time"`
}

type ShareMessage struct {
	Type string           `json:"type"` // "share"
	Plan trivia.SharePlan `json:"plan"`
	QR   string           `json:"qr"`
}

type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

// socketView renders a round onto one websocket's send queue.
type socketView struct {
	mu      sync.Mutex
	send    chan any
	closed  bool
	metrics *gameMetrics
}

func newSocketView(metrics *gameMetrics) *socketView {
	return &socketView{
		send:    make(chan any, 32),
		metrics: metrics,
	}
}

func (v *socketView) push(msg any) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}

	select {
	case v.send <- msg:
	default:
		if _, ok := msg.(TickMessage); ok {
			return
		}
		// a reader this far behind would miss its score; hang up instead
		v.closed = true
		close(v.send)
	}
}

func (v *socketView) close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.closed {
		v.closed = true
		close(v.send)
	}
}

func (v *socketView) ShowCompany(c trivia.Company, qs []trivia.Question) {
	v.push(CompanyMessage{Type: "company", Company: c, Questions: qs})
}

func (v *socketView) Tick(seconds int) {
	v.push(TickMessage{Type: "tick", Seconds: seconds})
}

func (v *socketView) ShowGuess(r trivia.GuessResult) {
	v.push(GuessResultMessage{Type: "guess_result", Result: r})
}

func (v *socketView) ShowComplete(s trivia.Summary) {
	v.metrics.roundsCompleted.Inc()
	v.push(CompleteMessage{Type: "complete", Summary: s})
}

func (v *socketView) ShowStats(s trivia.Stats) {
	v.push(StatsMessage{Type: "stats", Stats: s, Accuracy: s.Accuracy(), AverageTime: s.AverageTime()})
}

func (v *socketView) ShowError(err error) {
	v.push(ErrorMessage{
		Type:    "error",
		Message: "Something went wrong. Please try again.",
		Retry:   isBackendError(err),
	})
}

// Round is one browser play-through.
type Round struct {
	id       string
	playerID string
	session  *trivia.Session
	view     *socketView
	conn     *websocket.Conn

	mu         sync.RWMutex
	lastActive time.Time
}

func (r *Round) touch() {
	r.mu.Lock()
	r.lastActive = time.Now()
	r.mu.Unlock()
}

func (r *Round) close() {
	r.session.Close()
	r.view.close()
	if r.conn != nil {
		_ = r.conn.Close()
	}
}

// RoundManager holds live rounds and each player's game server cookies.
type RoundManager struct {
	cfg     *Config
	metrics *gameMetrics

	mu     sync.Mutex
	rounds map[string]*Round
	jars   map[string]*playerJar

	idleTimeout time.Duration
}

func newRoundManager(cfg *Config, metrics *gameMetrics) *RoundManager {
	rm := &RoundManager{
		cfg:         cfg,
		metrics:     metrics,
		rounds:      make(map[string]*Round),
		jars:        make(map[string]*playerJar),
		idleTimeout: cfg.sessionTimeout,
	}
	if rm.idleTimeout > 0 {
		go rm.reaperLoop()
	}
	return rm
}

// playerJar holds one player's game server cookies.
type playerJar struct {
	jar      http.CookieJar
	lastUsed time.Time
}

func (rm *RoundManager) jarFor(playerID string) (http.CookieJar, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if pj, ok := rm.jars[playerID]; ok {
		pj.lastUsed = time.Now()
		return pj.jar, nil
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	rm.jars[playerID] = &playerJar{jar: jar, lastUsed: time.Now()}
	return jar, nil
}

func (rm *RoundManager) newRound(playerID string, conn *websocket.Conn) (*Round, error) {
	jar, err := rm.jarFor(playerID)
	if err != nil {
		return nil, err
	}

	client, err := trivia.NewClient(rm.cfg.backend,
		trivia.WithHTTPClient(&http.Client{Jar: jar, Timeout: rm.cfg.requestTimeout}),
	)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	view := newSocketView(rm.metrics)

	round := &Round{
		id:       id,
		playerID: playerID,
		view:     view,
		conn:     conn,
		session: trivia.NewSession(
			&instrumentedBackend{next: client, metrics: rm.metrics},
			view,
			trivia.WithID(id),
			trivia.WithLogger(newLogger(rm.cfg)),
			trivia.WithShareLink(rm.cfg.shareLink),
		),
		lastActive: time.Now(),
	}

	rm.mu.Lock()
	rm.rounds[id] = round
	rm.mu.Unlock()

	rm.metrics.roundsStarted.Inc()

	return round, nil
}

func (rm *RoundManager) get(id string) (*Round, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	r, ok := rm.rounds[id]
	return r, ok
}

// remove drops a finished round. The player's jar counts as used until now.
func (rm *RoundManager) remove(id string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	round, ok := rm.rounds[id]
	if !ok {
		return
	}
	delete(rm.rounds, id)

	if pj, ok := rm.jars[round.playerID]; ok {
		pj.lastUsed = time.Now()
	}
}

// reaperLoop periodically removes rounds and cookie jars that have been idle
// longer than idleTimeout.
func (rm *RoundManager) reaperLoop() {
	ticker := time.NewTicker(rm.idleTimeout / 2)
	for now := range ticker.C {
		rm.reap(now)
	}
}

func (rm *RoundManager) reap(now time.Time) {
	cutoff := now.Add(-rm.idleTimeout)

	rm.mu.Lock()
	defer rm.mu.Unlock()

	live := make(map[string]bool, len(rm.rounds))
	for id, round := range rm.rounds {
		round.mu.RLock()
		last := round.lastActive
		round.mu.RUnlock()

		if last.Before(cutoff) {
			delete(rm.rounds, id)
			go round.close()
			continue
		}
		live[round.playerID] = true
	}

	for playerID, pj := range rm.jars {
		if !live[playerID] && pj.lastUsed.Before(cutoff) {
			delete(rm.jars, playerID)
		}
	}
}

func (rm *RoundManager) closeAll() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for id, round := range rm.rounds {
		round.close()
		delete(rm.rounds, id)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "hilo_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Println("rand.Read error:", err)
		return ""
	}
	id := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

func serveWS(cfg *Config, rm *RoundManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		playerID := getOrSetPlayerID(w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: websocket upgrade from %s: %v", realIP(r), err)
			return
		}

		round, err := rm.newRound(playerID, conn)
		if err != nil {
			logf(cfg, "ERROR: new round for %s: %v", realIP(r), err)
			_ = conn.Close()
			return
		}

		logf(cfg, "GAMES: Round %s started for %s", round.id, realIP(r))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		round.view.push(RoundMessage{Type: "round", Round: round.id})

		go round.writePump()
		go func() {
			_ = round.session.Start(ctx)
		}()

		round.readPump(ctx, cfg)

		rm.remove(round.id)
		round.session.Close()
		round.view.close()

		logf(cfg, "GAMES: Round %s disconnected", round.id)
	}
}

func (r *Round) readPump(ctx context.Context, cfg *Config) {
	for {
		var msg ClientMessage
		if err := r.conn.ReadJSON(&msg); err != nil {
			return
		}

		r.touch()

		switch msg.Type {
		case "guess":
			m, err := trivia.ParseMetric(msg.Metric)
			if err != nil {
				continue
			}
			d, err := trivia.ParseDirection(msg.Direction)
			if err != nil {
				continue
			}
			go func() {
				if _, err := r.session.SubmitGuess(ctx, m, d); err != nil {
					logf(cfg, "GAMES: Round %s guess %s_%s: %v", r.id, m.Token(), d, err)
				}
			}()
		case "retry":
			go func() {
				_ = r.session.LoadCompany(ctx)
			}()
		case "share":
			plan, err := r.session.Share(trivia.Capabilities{NativeShare: msg.Native, UserAgent: msg.UserAgent})
			if err != nil {
				continue
			}
			r.view.push(ShareMessage{
				Type: "share",
				Plan: plan,
				QR:   cfg.prefix + "/rounds/" + r.id + "/qr",
			})
		case "share_failed":
			logf(cfg, "SHARE: Native share failed for round %s: %s", r.id, msg.Error)
		default:
			// ignore unknown types
		}
	}
}

func (r *Round) writePump() {
	defer r.conn.Close()

	for msg := range r.view.send {
		if err := r.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// serveQR renders a finished round's share text as a PNG QR code.
func serveQR(cfg *Config, rm *RoundManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		round, ok := rm.get(ps.ByName("roundid"))
		if !ok {
			http.NotFound(w, r)
			return
		}

		plan, err := round.session.Share(trivia.Capabilities{})
		if err != nil {
			http.Error(w, "round not finished", http.StatusConflict)
			return
		}

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(plan.Text, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if _, err := w.Write(png); err != nil {
			errs <- err
		}
	}
}

func registerTriviaGame(cfg *Config, rm *RoundManager, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/", serveHomePage(cfg, errs))

	mux.GET(cfg.prefix+"/assets/trivia/:file", serveAssets(cfg, errs))

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, rm))

	mux.GET(cfg.prefix+"/rounds/:roundid/qr", serveQR(cfg, rm, errs))
}
