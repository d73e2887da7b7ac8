/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import "errors"

// Round precondition failures. None of these reach the backend.
var (
	ErrNotReady         = errors.New("company not loaded")
	ErrCompanyLoaded    = errors.New("company already loaded")
	ErrUnknownMetric    = errors.New("unknown metric")
	ErrUnknownDirection = errors.New("unknown direction")
	ErrAlreadyAnswered  = errors.New("metric already answered")
	ErrGuessPending     = errors.New("guess already pending for metric")
	ErrMetricLocked     = errors.New("metric locked for this round")
	ErrRoundIncomplete  = errors.New("round not complete")
	ErrStatsPending     = errors.New("stats not settled")
	ErrClosed           = errors.New("round closed")
)

// Backend failures, wrapped with request context by Client.
var (
	ErrTransport         = errors.New("backend unreachable")
	ErrUnexpectedStatus  = errors.New("unexpected backend status")
	ErrMalformedResponse = errors.New("malformed backend response")
)
