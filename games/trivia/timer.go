/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import "sync"

// Timer counts whole seconds since the round started. Once frozen it never
// changes again, even if a tick is still delivered afterwards.
type Timer struct {
	mu      sync.Mutex
	seconds int
	frozen  bool
}

// Tick advances the timer by one second. It reports false when frozen.
func (t *Timer) Tick() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return t.seconds, false
	}
	t.seconds++
	return t.seconds, true
}

// Freeze stops the timer and returns the final value.
func (t *Timer) Freeze() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.frozen = true
	return t.seconds
}

func (t *Timer) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.seconds
}

func (t *Timer) Frozen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.frozen
}
