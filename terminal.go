/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Seednode/hilo/games/trivia"
	"github.com/skip2/go-qrcode"
)

// Colors for terminal output
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

const terminalHelp = `Commands:
  <metric> <higher|lower>   guess, e.g. "revenue h" or "mc lower"
  share                     share your results (after the round)
  stats                     show your lifetime stats
  restart                   start a new round
  quit                      exit`

// termView prints round events. The elapsed time goes to the window title
// so that it never interleaves with the player's typing.
type termView struct {
	mu  sync.Mutex
	out io.Writer
}

func (v *termView) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()

	fmt.Fprintf(v.out, format, args...)
}

func (v *termView) ShowCompany(c trivia.Company, qs []trivia.Question) {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s%s%s", colorBold, c.Name, colorReset)
	if c.Ticker != "" {
		fmt.Fprintf(&b, " (%s)", c.Ticker)
	}
	fmt.Fprintf(&b, " · Fortune 500 #%d\n", c.Rank)
	if c.Description != "" {
		fmt.Fprintf(&b, "%s\n", c.Description)
	}
	b.WriteString("\n")
	for _, q := range qs {
		fmt.Fprintf(&b, "  %s%-14s%s %s\n", colorCyan, q.Label, colorReset, q.Text)
	}

	v.printf("%s\n", b.String())
}

func (v *termView) Tick(seconds int) {
	v.printf("\033]2;hilo %ds\007", seconds)
}

func (v *termView) ShowGuess(r trivia.GuessResult) {
	color := colorRed
	if r.Outcome == trivia.Correct {
		color = colorGreen
	}
	v.printf("%s%s%s (%s, %s)\n", color, r.Message, colorReset, r.Metric.Label(), r.Direction)
}

func (v *termView) ShowComplete(s trivia.Summary) {
	v.printf("\n%sRound complete: %d/%d (%s) in %ds%s\n", colorBold, s.Correct, s.Total, s.Percent, s.Seconds, colorReset)
}

func (v *termView) ShowStats(s trivia.Stats) {
	v.printf("Overall accuracy: %s · Average time: %ss\nType \"share\" to share your results.\n", s.Accuracy(), s.AverageTime())
}

func (v *termView) ShowError(err error) {
	v.printf("%sSomething went wrong: %v%s\n", colorYellow, err, colorReset)
}

// copyToClipboard asks the terminal to set the clipboard (OSC 52).
func copyToClipboard(out io.Writer, text string) {
	fmt.Fprintf(out, "\033]52;c;%s\007", base64.StdEncoding.EncodeToString([]byte(text)))
}

// renderQR draws a QR code with half-block characters, two modules per line.
func renderQR(content string) (string, error) {
	q, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "", err
	}

	bitmap := q.Bitmap()

	var b strings.Builder
	for y := 0; y < len(bitmap); y += 2 {
		for x := range bitmap[y] {
			top := bitmap[y][x]
			bottom := y+1 < len(bitmap) && bitmap[y+1][x]
			switch {
			case top && bottom:
				b.WriteString("█")
			case top:
				b.WriteString("▀")
			case bottom:
				b.WriteString("▄")
			default:
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func runTerminal(ctx context.Context, cfg *Config, in io.Reader, out io.Writer) error {
	client, err := trivia.NewClient(cfg.backend, trivia.WithTimeout(cfg.requestTimeout))
	if err != nil {
		return err
	}

	view := &termView{out: out}

	newSession := func() *trivia.Session {
		s := trivia.NewSession(client, view,
			trivia.WithLogger(newLogger(cfg)),
			trivia.WithShareLink(cfg.shareLink),
		)
		_ = s.Start(ctx)
		return s
	}

	session := newSession()
	defer func() { session.Close() }()

	view.printf("%s\n\n", terminalHelp)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			view.printf("%s\n", terminalHelp)
		case "restart":
			session.Close()
			session = newSession()
		case "retry":
			if err := session.LoadCompany(ctx); err != nil {
				logf(cfg, "GAMES: retry: %v", err)
			}
		case "stats":
			stats, err := client.Stats(ctx)
			if err != nil {
				view.ShowError(err)
				continue
			}
			view.printf("Games: %d · Accuracy: %s · Average time: %ss\n", stats.TotalGames, stats.Accuracy(), stats.AverageTime())
		case "share":
			shareTerminal(view, session)
		default:
			if len(fields) != 2 {
				view.printf("%s\n", terminalHelp)
				continue
			}
			guessTerminal(ctx, view, session, fields[0], fields[1])
		}
	}

	return scanner.Err()
}

func guessTerminal(ctx context.Context, view *termView, session *trivia.Session, metric, direction string) {
	m, err := trivia.ParseMetric(metric)
	if err != nil {
		view.printf("%v\n", err)
		return
	}
	d, err := trivia.ParseDirection(direction)
	if err != nil {
		view.printf("%v\n", err)
		return
	}

	// Backend failures are already shown by the view.
	if _, err := session.SubmitGuess(ctx, m, d); err != nil && !isBackendError(err) {
		view.printf("%v\n", err)
	}
}

func shareTerminal(view *termView, session *trivia.Session) {
	plan, err := session.Share(trivia.Capabilities{})
	switch {
	case errors.Is(err, trivia.ErrStatsPending):
		view.printf("Still waiting for your stats, try again in a moment.\n")
		return
	case err != nil:
		view.printf("Finish the round before sharing.\n")
		return
	}

	view.printf("\n%s\n\n", plan.Text)

	view.mu.Lock()
	copyToClipboard(view.out, plan.Text)
	view.mu.Unlock()

	if plan.Notice != "" {
		view.printf("%s\n", plan.Notice)
	}

	qr, err := renderQR(session.ShareLink())
	if err != nil {
		return
	}
	view.printf("\n%s\n", qr)
}
