package models

import "time"

// RateLimitEntry is one client's accepted attempts inside the trailing window,
// oldest first.
type RateLimitEntry struct {
	Identifier string
	Attempts   []time.Time
	LastSeen   time.Time
}

// Prune drops attempts that fell out of the window ending at now
func (e *RateLimitEntry) Prune(now time.Time, window time.Duration) {
	kept := e.Attempts[:0]
	for _, t := range e.Attempts {
		if now.Sub(t) < window {
			kept = append(kept, t)
		}
	}
	e.Attempts = kept
}

// Expired reports whether no attempt remains inside the window ending at now
func (e *RateLimitEntry) Expired(now time.Time, window time.Duration) bool {
	if len(e.Attempts) == 0 {
		return true
	}
	return now.Sub(e.Attempts[len(e.Attempts)-1]) >= window
}
