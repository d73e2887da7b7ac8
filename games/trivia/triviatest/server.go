/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package triviatest provides an in-process game server for tests.
package triviatest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/Seednode/hilo/games/trivia"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

const userCookie = "user_id"

// Server mimics the game server: one fixed company, guesses judged against
// the company's actual figures, and per-cookie running totals.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	company trivia.Company
	actual  map[trivia.Metric]int64
	users   map[string]*trivia.Stats

	companyStatus int
	companyBody   string
	statsBody     string
	broken        map[string]bool
	hold          chan struct{}
	statsHold     chan struct{}

	companyRequests int
	guesses         []string
	statsPosts      []int
}

// New starts a server for company. actual holds the real figures in the
// same units as the thresholds (millions, or head count for employees).
func New(company trivia.Company, actual map[trivia.Metric]int64) *Server {
	s := &Server{
		company: company,
		actual:  actual,
		users:   make(map[string]*trivia.Stats),
		broken:  make(map[string]bool),
	}

	mux := httprouter.New()
	mux.GET("/company", s.serveCompany)
	mux.POST("/submit_guess", s.serveGuess)
	mux.GET("/stats", s.serveStats)
	mux.POST("/stats", s.serveStatsUpdate)

	s.Server = httptest.NewServer(mux)
	return s
}

// SetCompanyResponse overrides GET /company. A zero status restores the
// normal response.
func (s *Server) SetCompanyResponse(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.companyStatus = status
	s.companyBody = body
}

// SetStatsResponse overrides the body of POST /stats.
func (s *Server) SetStatsResponse(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statsBody = body
}

// BreakGuesses drops the connection for the given guess_type values.
func (s *Server) BreakGuesses(tokens ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tokens {
		s.broken[t] = true
	}
}

// HoldGuesses blocks every guess until the returned func is called.
func (s *Server) HoldGuesses() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	hold := make(chan struct{})
	s.hold = hold

	var once sync.Once
	return func() {
		once.Do(func() { close(hold) })
	}
}

// HoldStats blocks every POST /stats, after it is recorded, until the
// returned func is called.
func (s *Server) HoldStats() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	hold := make(chan struct{})
	s.statsHold = hold

	var once sync.Once
	return func() {
		once.Do(func() { close(hold) })
	}
}

// CompanyRequests counts GET /company calls.
func (s *Server) CompanyRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.companyRequests
}

// Guesses lists every guess_type received, in arrival order.
func (s *Server) Guesses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.guesses...)
}

// StatsPosts lists every time value received by POST /stats.
func (s *Server) StatsPosts() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]int(nil), s.statsPosts...)
}

// SetUserStats seeds the totals for a user_id cookie value.
func (s *Server) SetUserStats(userID string, stats trivia.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := stats
	s.users[userID] = &st
}

func (s *Server) userID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(userCookie); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: userCookie, Value: id, Path: "/"})
	return id
}

func (s *Server) statsFor(id string) *trivia.Stats {
	st, ok := s.users[id]
	if !ok {
		st = &trivia.Stats{}
		s.users[id] = st
	}
	return st
}

func (s *Server) serveCompany(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.userID(w, r)

	s.mu.Lock()
	s.companyRequests++
	status, body := s.companyStatus, s.companyBody
	company := s.company
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
		return
	}

	writeJSON(w, company)
}

func (s *Server) serveGuess(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id := s.userID(w, r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	token := r.PostForm.Get("guess_type")

	s.mu.Lock()
	s.guesses = append(s.guesses, token)
	hold := s.hold
	broken := s.broken[token]
	s.mu.Unlock()

	if hold != nil {
		<-hold
	}

	if broken {
		if hj, ok := w.(http.Hijacker); ok {
			conn, _, err := hj.Hijack()
			if err == nil {
				_ = conn.Close()
				return
			}
		}
		http.Error(w, "broken", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.judge(id, token)))
}

func (s *Server) judge(id, token string) string {
	i := strings.LastIndex(token, "_")
	if i < 0 {
		return "Invalid guess"
	}

	m, err := trivia.ParseMetric(token[:i])
	if err != nil {
		return "Invalid guess"
	}
	d, err := trivia.ParseDirection(token[i+1:])
	if err != nil {
		return "Invalid guess type"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	estimate := s.company.Tier().Threshold(m)
	actual := s.actual[m]

	correct := (d == trivia.Higher && actual > estimate) || (d == trivia.Lower && actual < estimate)

	st := s.statsFor(id)
	if correct {
		st.CorrectGuesses++
	} else {
		st.IncorrectGuesses++
	}
	if (st.CorrectGuesses+st.IncorrectGuesses)%trivia.MetricCount == 0 {
		st.TotalGames++
	}

	verdict := "Incorrect"
	if correct {
		verdict = "Correct"
	}
	return verdict + "! Actual: " + trivia.FormatThreshold(m, actual)
}

func (s *Server) serveStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id := s.userID(w, r)

	s.mu.Lock()
	st := *s.statsFor(id)
	s.mu.Unlock()

	writeJSON(w, st)
}

func (s *Server) serveStatsUpdate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id := s.userID(w, r)

	var payload struct {
		Time int `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.statsPosts = append(s.statsPosts, payload.Time)
	st := s.statsFor(id)
	st.TotalTime += payload.Time
	snapshot := *st
	override := s.statsBody
	hold := s.statsHold
	s.mu.Unlock()

	if hold != nil {
		<-hold
	}

	if override != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(override))
		return
	}

	writeJSON(w, snapshot)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
