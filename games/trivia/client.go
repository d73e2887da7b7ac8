/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20
)

// Backend is the external game server as seen by a round.
type Backend interface {
	Company(ctx context.Context) (Company, error)
	SubmitGuess(ctx context.Context, g Guess) (string, error)
	SubmitStats(ctx context.Context, seconds int) (Stats, error)
}

// Client talks to the game server over HTTP. Cookies set by the server are
// kept for the life of the client so that the server can tie requests to a
// player.
type Client struct {
	base *url.URL
	http *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Callers that want the
// server's session cookie to survive must give it a cookie jar.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// NewClient returns a client for the server rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend url must be http or https: %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		base: base,
		http: &http.Client{Jar: jar, Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(path string) string {
	return c.base.JoinPath(path).String()
}

// Company fetches the company for a new round.
func (c *Client) Company(ctx context.Context) (Company, error) {
	var company Company

	body, err := c.do(ctx, http.MethodGet, "/company", "", nil)
	if err != nil {
		return company, err
	}

	if err := json.Unmarshal(body, &company); err != nil {
		return company, fmt.Errorf("%w: company: %v", ErrMalformedResponse, err)
	}
	if !company.valid() {
		return company, fmt.Errorf("%w: company: missing name or rank", ErrMalformedResponse)
	}
	return company, nil
}

// SubmitGuess posts a guess and returns the server's message verbatim.
func (c *Client) SubmitGuess(ctx context.Context, g Guess) (string, error) {
	form := url.Values{"guess_type": {g.Token()}}

	body, err := c.do(ctx, http.MethodPost, "/submit_guess", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// SubmitStats adds a finished round's time and returns the updated totals.
func (c *Client) SubmitStats(ctx context.Context, seconds int) (Stats, error) {
	payload, err := json.Marshal(struct {
		Time int `json:"time"`
	}{Time: seconds})
	if err != nil {
		return Stats{}, err
	}

	body, err := c.do(ctx, http.MethodPost, "/stats", "application/json", bytes.NewReader(payload))
	if err != nil {
		return Stats{}, err
	}
	return decodeStats(body)
}

// Stats returns the current totals without changing them.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	body, err := c.do(ctx, http.MethodGet, "/stats", "", nil)
	if err != nil {
		return Stats{}, err
	}
	return decodeStats(body)
}

func decodeStats(body []byte) (Stats, error) {
	var raw struct {
		TotalGames       *int `json:"total_games"`
		CorrectGuesses   *int `json:"correct_guesses"`
		IncorrectGuesses *int `json:"incorrect_guesses"`
		TotalTime        *int `json:"total_time"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Stats{}, fmt.Errorf("%w: stats: %v", ErrMalformedResponse, err)
	}
	if raw.TotalGames == nil || raw.CorrectGuesses == nil || raw.IncorrectGuesses == nil || raw.TotalTime == nil {
		return Stats{}, fmt.Errorf("%w: stats: missing field", ErrMalformedResponse)
	}

	s := Stats{
		TotalGames:       *raw.TotalGames,
		CorrectGuesses:   *raw.CorrectGuesses,
		IncorrectGuesses: *raw.IncorrectGuesses,
		TotalTime:        *raw.TotalTime,
	}
	if !s.valid() {
		return Stats{}, fmt.Errorf("%w: stats: negative total", ErrMalformedResponse)
	}
	return s, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: read body: %v", ErrTransport, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %s: %s", ErrUnexpectedStatus, method, path, resp.Status)
	}
	return data, nil
}
