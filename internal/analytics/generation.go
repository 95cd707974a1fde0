package analytics

import (
	"sync"
	"sync/atomic"
)

// Generations hands out monotonically increasing tokens for
// fetch-and-aggregate cycles. A cycle that finishes after a newer one has
// started is stale; its result is discarded at commit time instead of
// overwriting fresher state.
type Generations struct {
	counter atomic.Int64
}

// Begin starts a new cycle and returns its token. Any earlier token is now
// stale.
func (g *Generations) Begin() int64 {
	return g.counter.Add(1)
}

// Current reports the newest token.
func (g *Generations) Current() int64 {
	return g.counter.Load()
}

// IsCurrent reports whether the token still identifies the newest cycle.
func (g *Generations) IsCurrent(token int64) bool {
	return g.counter.Load() == token
}

// Snapshot is a committed dashboard state tagged with its generation.
type Snapshot struct {
	Generation int64     `json:"generation"`
	Dashboard  Dashboard `json:"dashboard"`
}

// Snapshots holds the latest committed dashboard. Commit rejects stale
// generations so a slow cycle can never clobber a newer result.
type Snapshots struct {
	mu     sync.RWMutex
	gens   *Generations
	latest *Snapshot
}

// NewSnapshots wires the holder to a generation counter.
func NewSnapshots(gens *Generations) *Snapshots {
	return &Snapshots{gens: gens}
}

// Commit stores the dashboard when its token is still current. It returns
// false when the result arrived too late and was dropped.
func (s *Snapshots) Commit(token int64, d Dashboard) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.gens.IsCurrent(token) {
		return false
	}
	if s.latest != nil && s.latest.Generation >= token {
		return false
	}
	s.latest = &Snapshot{Generation: token, Dashboard: d}
	return true
}

// Latest returns the newest committed snapshot, or false when none exists.
func (s *Snapshots) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Snapshot{}, false
	}
	return *s.latest, true
}
