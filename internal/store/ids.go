package store

import (
	"sync"
	"time"
)

// IDGenerator hands out record ids. Observe tells it about ids that already
// exist so it never returns one of them.
type IDGenerator interface {
	Next() int64
	Observe(id int64)
}

// MonotonicIDs issues millisecond-timestamp ids, bumped past the last id
// whenever two calls land in the same millisecond.
type MonotonicIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewMonotonicIDs(now func() time.Time) *MonotonicIDs {
	if now == nil {
		now = time.Now
	}
	return &MonotonicIDs{now: now}
}

func (g *MonotonicIDs) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

func (g *MonotonicIDs) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}

// SequenceIDs issues 1, 2, 3, ... after the largest observed id.
type SequenceIDs struct {
	mu   sync.Mutex
	last int64
}

func (g *SequenceIDs) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last++
	return g.last
}

func (g *SequenceIDs) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}
