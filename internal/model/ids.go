package model

import (
	"sync"
	"time"
)

// IDSource hands out creation-timestamp ids (Unix milliseconds) that are
// strictly increasing for the session even when the clock stalls or steps
// back.
type IDSource struct {
	mu   sync.Mutex
	last ID
	now  func() time.Time
}

func NewIDSource() *IDSource { return &IDSource{now: time.Now} }

// NewIDSourceWithClock is for tests and deterministic replays.
func NewIDSourceWithClock(now func() time.Time) *IDSource {
	return &IDSource{now: now}
}

func (s *IDSource) Next() ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	id := ID(now().UnixMilli())
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}
