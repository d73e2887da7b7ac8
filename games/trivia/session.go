/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package trivia runs one round of the company higher/lower game.
//
// A round loads a company from the game server, asks one question per
// metric, and judges each guess by the server's reply. When the last metric
// is answered the round freezes its timer, reports the score, and submits
// the elapsed time to the server's stats endpoint exactly once.
package trivia

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// View renders round events. Methods may be called from several goroutines
// at once (the timer and any in-flight guesses).
type View interface {
	ShowCompany(c Company, questions []Question)
	Tick(seconds int)
	ShowGuess(r GuessResult)
	ShowComplete(s Summary)
	ShowStats(s Stats)
	ShowError(err error)
}

// GuessResult is the judged reply to one guess.
type GuessResult struct {
	Metric    Metric    `json:"metric"`
	Direction Direction `json:"direction"`
	Outcome   Outcome   `json:"outcome"`
	Message   string    `json:"message"`
}

// Summary is shown once when the round completes.
type Summary struct {
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Percent string  `json:"percent"`
	Seconds int     `json:"seconds"`
	Entries []Entry `json:"entries"`
}

// State is a point-in-time copy of a round.
type State struct {
	ID       string
	Company  *Company
	Entries  []Entry
	Locked   []Metric
	Seconds  int
	Complete bool
	Stats    *Stats
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Rounds log nothing by default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithTicks drives the timer from ch instead of a one second ticker.
func WithTicks(ch <-chan time.Time) Option {
	return func(s *Session) {
		s.ticks = ch
	}
}

// WithShareLink sets the link appended to shared results.
func WithShareLink(link string) Option {
	return func(s *Session) {
		s.shareLink = link
	}
}

// WithID names the round in logs.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// Session is one round. Create a new Session to restart.
type Session struct {
	id        string
	backend   Backend
	view      View
	logger    *slog.Logger
	ticks     <-chan time.Time
	shareLink string

	timer    Timer
	stop     chan struct{}
	stopOnce sync.Once

	mu        sync.Mutex
	started   bool
	closed    bool
	loading   bool
	company   *Company
	score     Score
	pending   map[Metric]bool
	locked    map[Metric]bool
	completed bool
	settled   bool
	stats     *Stats
}

func NewSession(backend Backend, view View, opts ...Option) *Session {
	s := &Session{
		backend:   backend,
		view:      view,
		logger:    slog.New(slog.DiscardHandler),
		shareLink: DefaultShareLink,
		stop:      make(chan struct{}),
		score:     NewScore(),
		pending:   make(map[Metric]bool),
		locked:    make(map[Metric]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("round", s.id))
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Start starts the round timer and loads the company. The timer keeps
// running if the company fails to load so that LoadCompany can be retried.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	go s.runTimer(ctx)

	return s.LoadCompany(ctx)
}

func (s *Session) runTimer(ctx context.Context) {
	ticks := s.ticks
	if ticks == nil {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			if seconds, advanced := s.timer.Tick(); advanced {
				s.view.Tick(seconds)
			}
		}
	}
}

func (s *Session) stopTimer() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// LoadCompany fetches the round's company. It may be called again after a
// failure, but not once a company is loaded.
func (s *Session) LoadCompany(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.company != nil:
		s.mu.Unlock()
		return ErrCompanyLoaded
	case s.loading:
		s.mu.Unlock()
		return ErrNotReady
	}
	s.loading = true
	s.mu.Unlock()

	company, err := s.backend.Company(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("fetch company", slog.Any("error", err))
		s.view.ShowError(fmt.Errorf("load company: %w", err))
		return err
	}
	s.company = &company
	s.mu.Unlock()

	s.logger.Debug("company loaded",
		slog.String("company", company.Name),
		slog.Int("rank", company.Rank),
		slog.String("tier", company.Tier().String()),
	)

	s.view.ShowCompany(company, Questions(company))
	return nil
}

// SubmitGuess sends one guess. A metric accepts exactly one guess per round:
// answered, pending, and locked metrics are rejected without a request.
func (s *Session) SubmitGuess(ctx context.Context, m Metric, d Direction) (GuessResult, error) {
	if !m.Valid() {
		return GuessResult{}, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
	}
	if !d.Valid() {
		return GuessResult{}, fmt.Errorf("%w: %q", ErrUnknownDirection, d)
	}

	s.mu.Lock()
	if err := s.checkGuessLocked(m); err != nil {
		s.mu.Unlock()
		return GuessResult{}, err
	}
	s.pending[m] = true
	s.mu.Unlock()

	guess := Guess{Metric: m, Direction: d}
	message, err := s.backend.SubmitGuess(ctx, guess)

	s.mu.Lock()
	delete(s.pending, m)
	if err != nil {
		s.locked[m] = true
		s.mu.Unlock()

		s.logger.Error("submit guess",
			slog.String("guess", guess.Token()),
			slog.Any("error", err),
		)
		s.view.ShowError(fmt.Errorf("submit %s guess: %w", m.Label(), err))
		return GuessResult{}, err
	}

	result := GuessResult{
		Metric:    m,
		Direction: d,
		Outcome:   OutcomeOf(message),
		Message:   message,
	}
	if err := s.score.Record(m, result.Outcome); err != nil {
		s.mu.Unlock()
		return GuessResult{}, err
	}

	finished := s.score.Complete() && !s.completed
	var summary Summary
	if finished {
		s.completed = true
		summary = s.summaryLocked(s.timer.Freeze())
	}
	s.mu.Unlock()

	s.logger.Debug("guess judged",
		slog.String("guess", guess.Token()),
		slog.String("outcome", string(result.Outcome)),
	)

	s.view.ShowGuess(result)

	if finished {
		s.finish(ctx, summary)
	}
	return result, nil
}

func (s *Session) checkGuessLocked(m Metric) error {
	switch {
	case s.closed:
		return ErrClosed
	case s.company == nil:
		return ErrNotReady
	case s.score.Get(m) != Unanswered:
		return fmt.Errorf("%w: %s", ErrAlreadyAnswered, m)
	case s.pending[m]:
		return fmt.Errorf("%w: %s", ErrGuessPending, m)
	case s.locked[m]:
		return fmt.Errorf("%w: %s", ErrMetricLocked, m)
	}
	return nil
}

func (s *Session) summaryLocked(seconds int) Summary {
	return Summary{
		Correct: s.score.Correct(),
		Total:   MetricCount,
		Percent: fmt.Sprintf("%.0f%%", s.score.Percent()),
		Seconds: seconds,
		Entries: s.score.Entries(),
	}
}

// finish runs once per round, after the last score entry is recorded.
func (s *Session) finish(ctx context.Context, summary Summary) {
	s.stopTimer()

	s.logger.Info("round complete",
		slog.Int("correct", summary.Correct),
		slog.Int("seconds", summary.Seconds),
	)

	s.view.ShowComplete(summary)

	stats, err := s.backend.SubmitStats(ctx, summary.Seconds)
	if err != nil {
		s.mu.Lock()
		s.settled = true
		s.mu.Unlock()

		s.logger.Error("submit stats", slog.Any("error", err))
		s.view.ShowError(fmt.Errorf("submit stats: %w", err))
		return
	}

	s.mu.Lock()
	s.settled = true
	s.stats = &stats
	s.mu.Unlock()

	s.view.ShowStats(stats)
}

// Share builds the share text and picks a delivery method for caps. It is
// available once the stats request has answered or failed.
func (s *Session) Share(caps Capabilities) (SharePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.completed {
		return SharePlan{}, ErrRoundIncomplete
	}
	if !s.settled {
		return SharePlan{}, ErrStatsPending
	}

	text := ShareText(s.score, s.stats, s.shareLink)
	return PlanShare(caps, text, s.shareLink), nil
}

// ShareLink is the link appended to shared results.
func (s *Session) ShareLink() string {
	return s.shareLink
}

// Snapshot copies the current round state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:       s.id,
		Entries:  s.score.Entries(),
		Seconds:  s.timer.Elapsed(),
		Complete: s.completed,
	}
	if s.company != nil {
		c := *s.company
		st.Company = &c
	}
	if s.stats != nil {
		stats := *s.stats
		st.Stats = &stats
	}
	for _, m := range Metrics {
		if s.locked[m] {
			st.Locked = append(st.Locked, m)
		}
	}
	return st
}

// Close stops the timer and rejects further calls. It is safe to call more
// than once.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.stopTimer()
}
