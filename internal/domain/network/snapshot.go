package network

import (
	"sort"
	"sync"
	"time"

	"github.com/okian/vigil/internal/domain/model"
)

type outEdge struct {
	target string
	weight float64
}

type coverageKey struct {
	id        string
	threshold float64
}

// Snapshot is an immutable view of the trust network. All derived
// metrics are pure functions of the snapshot; it is safe for
// concurrent readers.
type Snapshot struct {
	nodes      []string // ascending, the canonical node order
	edges      []model.Endorsement
	out        map[string][]outEdge
	neighbors  map[string]map[string]struct{}
	inRatings  map[string][]int
	lastSeen   map[string]time.Time
	refTime    time.Time
	skipped    int
	identities model.Directory

	// coverage memoizes CoverageSet per (id, threshold). Valid for the
	// snapshot's lifetime because the snapshot never mutates.
	mu       sync.Mutex
	coverage map[coverageKey][]string
}

// AllNodeIDs returns every node id in ascending order. The caller must
// not modify the returned slice.
func (s *Snapshot) AllNodeIDs() []string {
	return s.nodes
}

// NodeCount returns the number of distinct nodes.
func (s *Snapshot) NodeCount() int {
	return len(s.nodes)
}

// EdgeCount returns the number of retained edge events.
func (s *Snapshot) EdgeCount() int {
	return len(s.edges)
}

// Edges returns all retained edge events. The caller must not modify
// the returned slice.
func (s *Snapshot) Edges() []model.Endorsement {
	return s.edges
}

// SkippedRecords returns the number of malformed records skipped while
// building this snapshot.
func (s *Snapshot) SkippedRecords() int {
	return s.skipped
}

// ReferenceTime returns the time dormancy is measured against.
func (s *Snapshot) ReferenceTime() time.Time {
	return s.refTime
}

// HasNode reports whether id exists in the snapshot.
func (s *Snapshot) HasNode(id string) bool {
	_, ok := s.neighbors[id]
	return ok
}

// Degree returns the number of distinct counterparties of id, counting
// both directions. Unknown ids have degree zero.
func (s *Snapshot) Degree(id string) int {
	return len(s.neighbors[id])
}

// Score returns the node's aggregate trust score: the mean incoming
// rating, zero when the node has never been rated. Bounded to the
// source rating scale by construction.
func (s *Snapshot) Score(id string) float64 {
	ratings := s.inRatings[id]
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}

// Dormancy returns how long id has been inactive relative to ref,
// never negative. A zero ref uses the snapshot's reference time.
func (s *Snapshot) Dormancy(id string, ref time.Time) time.Duration {
	last, ok := s.lastSeen[id]
	if !ok {
		return 0
	}
	if ref.IsZero() {
		ref = s.refTime
	}
	d := ref.Sub(last)
	if d < 0 {
		return 0
	}
	return d
}

// DormancyDays returns dormancy in whole days against the snapshot's
// reference time.
func (s *Snapshot) DormancyDays(id string) int {
	return int(s.Dormancy(id, time.Time{}).Hours() / 24)
}

// Identity returns the display identity on file for id, if any.
func (s *Snapshot) Identity(id string) (model.Identity, bool) {
	return s.identities.Lookup(id)
}

// CoverageSet returns the distinct targets reachable from id via
// outgoing edges whose weight is strictly greater than threshold,
// sorted ascending. Results are memoized per (id, threshold). The
// caller must not modify the returned slice.
func (s *Snapshot) CoverageSet(id string, threshold float64) []string {
	key := coverageKey{id: id, threshold: threshold}

	s.mu.Lock()
	cached, ok := s.coverage[key]
	s.mu.Unlock()
	if ok {
		return cached
	}

	seen := make(map[string]struct{})
	for _, e := range s.out[id] {
		if e.weight > threshold {
			seen[e.target] = struct{}{}
		}
	}
	set := make([]string, 0, len(seen))
	for t := range seen {
		set = append(set, t)
	}
	sort.Strings(set)

	s.mu.Lock()
	s.coverage[key] = set
	s.mu.Unlock()
	return set
}
