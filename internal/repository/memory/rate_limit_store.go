package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"lead-intake/internal/models"
	"lead-intake/internal/util"
)

// RateLimitStore is a process-local sliding log of accepted attempts per
// client identifier. It is bounded to maxIdentifiers entries (least recently
// seen evicted first) and Sweep drops identifiers with no attempt left in the
// window. State is not shared between instances and is lost on restart.
type RateLimitStore struct {
	window         time.Duration
	limit          int
	maxIdentifiers int

	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // front = most recently seen
}

func NewRateLimitStore(window time.Duration, limit, maxIdentifiers int) *RateLimitStore {
	return &RateLimitStore{
		window:         window,
		limit:          limit,
		maxIdentifiers: maxIdentifiers,
		entries:        make(map[string]*list.Element),
		lru:            list.New(),
	}
}

// Record admits the attempt and stores now when fewer than limit attempts
// remain in the window; otherwise it rejects without recording.
func (s *RateLimitStore) Record(_ context.Context, identifier string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entry *models.RateLimitEntry
	if el, ok := s.entries[identifier]; ok {
		entry = el.Value.(*models.RateLimitEntry)
		s.lru.MoveToFront(el)
	} else {
		entry = &models.RateLimitEntry{Identifier: identifier}
		s.entries[identifier] = s.lru.PushFront(entry)
		s.evictOverflow()
	}
	entry.LastSeen = now

	entry.Prune(now, s.window)
	if len(entry.Attempts) >= s.limit {
		util.Debug("Rate limit exceeded",
			util.String("identifier", identifier),
			util.Int("attempts", len(entry.Attempts)),
			util.Int("limit", s.limit),
		)
		return false, nil
	}

	entry.Attempts = append(entry.Attempts, now)
	return true, nil
}

// Sweep removes identifiers whose newest attempt left the window and returns how many were dropped
func (s *RateLimitStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for el := s.lru.Back(); el != nil; {
		prev := el.Prev()
		entry := el.Value.(*models.RateLimitEntry)
		if entry.Expired(now, s.window) {
			s.lru.Remove(el)
			delete(s.entries, entry.Identifier)
			removed++
		}
		el = prev
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled
func (s *RateLimitStore) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if removed := s.Sweep(now); removed > 0 {
				util.Debug("Rate limit sweep completed",
					util.Int("removed", removed),
					util.Int("remaining", s.Len()),
				)
			}
		}
	}
}

// Len returns the number of tracked identifiers
func (s *RateLimitStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *RateLimitStore) HealthCheck(context.Context) error {
	return nil
}

func (s *RateLimitStore) evictOverflow() {
	if s.maxIdentifiers <= 0 {
		return
	}
	for len(s.entries) > s.maxIdentifiers {
		oldest := s.lru.Back()
		if oldest == nil {
			return
		}
		s.lru.Remove(oldest)
		delete(s.entries, oldest.Value.(*models.RateLimitEntry).Identifier)
	}
}
