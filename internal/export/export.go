// Package export serializes the network snapshot and the selection
// results into the fixed JSON contract consumed by the visualization
// layer. It performs no selection logic; given the same inputs it
// always produces the same bytes.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/okian/vigil/internal/domain/network"
	"github.com/okian/vigil/internal/selector"
	"github.com/okian/vigil/internal/selector/maintenance"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// Artifact file names.
const (
	GraphVizFile           = "graph_viz.json"
	SentinelResultsFile    = "sentinel_results.json"
	MaintenanceResultsFile = "maintenance_results.json"
	SummaryFile            = "summary.json"
)

// Maintenance artifact orderings.
const (
	SortByDormancy = "dormancy"
	SortByValue    = "value"
)

// Input carries everything the exporter consumes.
type Input struct {
	Snapshot *network.Snapshot
	Roles    *selector.RoleSet

	SentinelExact  selector.Result
	SentinelGreedy selector.Result

	MaintenanceExact selector.Result
	Candidates       []maintenance.Candidate

	// MaintenanceSort orders selected_nodes: SortByDormancy or
	// SortByValue, both descending with ties on lowest id.
	MaintenanceSort string

	Summary *Summary
}

// Writer writes artifacts to a directory. Each artifact is written to
// a temporary file and renamed into place, so a failed export never
// leaves a partial artifact behind.
type Writer struct {
	dir     string
	log     logger.Logger
	metrics *metrics.Manager
}

// WriterOption applies a configuration option to the Writer.
type WriterOption func(*Writer)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) WriterOption {
	return func(w *Writer) {
		if log != nil {
			w.log = log
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) WriterOption {
	return func(w *Writer) {
		w.metrics = m
	}
}

// NewWriter creates a Writer targeting dir, creating it if needed.
func NewWriter(dir string, opts ...WriterOption) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	w := &Writer{
		dir: dir,
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Write emits all artifacts and returns their paths.
func (w *Writer) Write(ctx context.Context, in Input) ([]string, error) {
	artifacts := []struct {
		name string
		doc  interface{}
	}{
		{GraphVizFile, buildGraphViz(in)},
		{SentinelResultsFile, buildSentinelResults(in)},
		{MaintenanceResultsFile, buildMaintenanceResults(in)},
	}
	if in.Summary != nil {
		artifacts = append(artifacts, struct {
			name string
			doc  interface{}
		}{SummaryFile, in.Summary})
	}

	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		path := filepath.Join(w.dir, a.name)
		if err := w.writeJSON(path, a.doc); err != nil {
			return nil, fmt.Errorf("export %s: %w", a.name, err)
		}
		if w.metrics != nil {
			w.metrics.RecordArtifact()
		}
		w.log.Info(ctx, "artifact written", logger.String("path", path))
		paths = append(paths, path)
	}
	return paths, nil
}

// writeJSON marshals doc and atomically replaces path.
func (w *Writer) writeJSON(path string, doc interface{}) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(w.dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func buildGraphViz(in Input) GraphViz {
	doc := GraphViz{
		Nodes: make([]VizNode, 0, in.Snapshot.NodeCount()),
		Links: []VizLink{},
	}

	for _, id := range in.Snapshot.AllNodeIDs() {
		node := VizNode{
			ID:     id,
			Group:  in.Roles.Group(id),
			Val:    in.Snapshot.Score(id),
			Degree: in.Snapshot.Degree(id),
		}
		if ident, ok := in.Snapshot.Identity(id); ok {
			ident = ident.WithDefaults()
			node.Metadata = &VizMetadata{
				Name:  ident.Name,
				Job:   ident.Job,
				Email: ident.Email,
				Phone: ident.Phone,
			}
		}
		doc.Nodes = append(doc.Nodes, node)
	}

	// Parallel edge events collapse to one link per unordered pair.
	type pair struct{ a, b string }
	seen := make(map[pair]struct{})
	for _, e := range in.Snapshot.Edges() {
		a, b := e.Source, e.Target
		if b < a {
			a, b = b, a
		}
		seen[pair{a, b}] = struct{}{}
	}
	pairs := make([]pair, 0, len(seen))
	for p := range seen {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})
	for _, p := range pairs {
		doc.Links = append(doc.Links, VizLink{Source: p.a, Target: p.b})
	}
	return doc
}

func buildSentinelResults(in Input) SentinelResults {
	return SentinelResults{
		IP:     SentinelList{Sentinels: nonNil(in.SentinelExact.NodeIDs)},
		Greedy: SentinelList{Sentinels: nonNil(in.SentinelGreedy.NodeIDs)},
	}
}

func buildMaintenanceResults(in Input) MaintenanceResults {
	byID := make(map[string]maintenance.Candidate, len(in.Candidates))
	for _, c := range in.Candidates {
		byID[c.ID] = c
	}

	nodes := make([]MaintenanceNode, 0, len(in.MaintenanceExact.NodeIDs))
	for _, id := range in.MaintenanceExact.NodeIDs {
		c := byID[id]
		nodes = append(nodes, MaintenanceNode{
			ID:          id,
			Weight:      c.Cost,
			Value:       c.Value,
			DaysDormant: c.DaysDormant,
		})
	}

	byValue := in.MaintenanceSort == SortByValue
	sort.SliceStable(nodes, func(i, j int) bool {
		if byValue {
			if nodes[i].Value != nodes[j].Value {
				return nodes[i].Value > nodes[j].Value
			}
		} else if nodes[i].DaysDormant != nodes[j].DaysDormant {
			return nodes[i].DaysDormant > nodes[j].DaysDormant
		}
		return nodes[i].ID < nodes[j].ID
	})
	return MaintenanceResults{SelectedNodes: nodes}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
