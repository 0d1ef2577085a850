// Package network builds and serves the immutable trust-network
// snapshot the selectors operate on.
//
// Aggregation policy: every valid endorsement is retained as a distinct
// directed edge event; parallel edges between the same pair are NOT
// collapsed. Degree counts distinct counterparties over both
// directions, a node's score is its mean incoming rating, and dormancy
// is measured from the most recent event involving the node.
package network

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"time"

	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/pkg/logger"
)

// Builder accumulates endorsement records and produces a Snapshot.
// It is not safe for concurrent use; the resulting Snapshot is.
type Builder struct {
	endorsements []model.Endorsement
	skipped      int
	refTime      time.Time
	log          logger.Logger
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithReferenceTime overrides the dormancy reference time. Without it
// the reference time is the newest timestamp in the dataset.
func WithReferenceTime(t time.Time) Option {
	return func(b *Builder) {
		b.refTime = t
	}
}

// WithLogger sets a custom logger for the builder.
func WithLogger(log logger.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBuilder creates a Builder with default configuration.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add appends a validated endorsement. Invalid endorsements are
// skipped and counted, never fatal.
func (b *Builder) Add(ctx context.Context, e model.Endorsement) {
	if err := e.Validate(); err != nil {
		b.skipped++
		b.log.Debug(ctx, "skipping endorsement", logger.Error(err))
		return
	}
	b.endorsements = append(b.endorsements, e)
}

// AddRecord parses and appends one raw tabular record. Malformed
// records are skipped and counted, never fatal.
func (b *Builder) AddRecord(ctx context.Context, fields []string) {
	e, err := model.ParseRecord(fields)
	if err != nil {
		b.skipped++
		b.log.Debug(ctx, "skipping record", logger.Error(err))
		return
	}
	b.endorsements = append(b.endorsements, e)
}

// ReadCSV feeds every row of r into the builder. Row-level problems are
// handled by AddRecord; only reader failures are returned.
func (b *Builder) ReadCSV(ctx context.Context, r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		b.AddRecord(ctx, row)
	}
}

// Skipped returns the number of records skipped so far.
func (b *Builder) Skipped() int {
	return b.skipped
}

// Build produces the immutable Snapshot. The optional identity
// directory attaches display metadata to nodes; ids without an entry
// simply have none.
func (b *Builder) Build(ctx context.Context, identities model.Directory) (*Snapshot, error) {
	if len(b.endorsements) == 0 {
		return nil, ErrEmptyNetwork
	}

	s := &Snapshot{
		edges:      make([]model.Endorsement, len(b.endorsements)),
		out:        make(map[string][]outEdge),
		neighbors:  make(map[string]map[string]struct{}),
		inRatings:  make(map[string][]int),
		lastSeen:   make(map[string]time.Time),
		identities: identities,
		skipped:    b.skipped,
		coverage:   make(map[coverageKey][]string),
	}
	copy(s.edges, b.endorsements)

	maxTS := time.Time{}
	touch := func(id string, ts time.Time) {
		if ts.After(s.lastSeen[id]) {
			s.lastSeen[id] = ts
		}
		if _, ok := s.neighbors[id]; !ok {
			s.neighbors[id] = make(map[string]struct{})
		}
	}

	for _, e := range s.edges {
		touch(e.Source, e.TS)
		touch(e.Target, e.TS)
		s.neighbors[e.Source][e.Target] = struct{}{}
		s.neighbors[e.Target][e.Source] = struct{}{}
		s.out[e.Source] = append(s.out[e.Source], outEdge{target: e.Target, weight: float64(e.Rating)})
		s.inRatings[e.Target] = append(s.inRatings[e.Target], e.Rating)
		if e.TS.After(maxTS) {
			maxTS = e.TS
		}
	}

	s.refTime = b.refTime
	if s.refTime.IsZero() {
		s.refTime = maxTS
	}

	s.nodes = make([]string, 0, len(s.neighbors))
	for id := range s.neighbors {
		s.nodes = append(s.nodes, id)
	}
	sort.Strings(s.nodes)

	b.log.Info(ctx, "network snapshot built",
		logger.Int("nodes", len(s.nodes)),
		logger.Int("edges", len(s.edges)),
		logger.Int("skipped", s.skipped),
	)
	return s, nil
}
