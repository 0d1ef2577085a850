// Package gen produces deterministic synthetic endorsement datasets
// for local runs and benchmarks. Nodes are grouped into communities;
// ratings are mostly positive inside a community and mixed across
// communities, so greedy and exact selections diverge observably.
package gen

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"
)

// Default generation constants.
const (
	defaultNodes       = 200
	defaultCommunities = 8
	defaultEdges       = 1200
	defaultSpanDays    = 730
	defaultSeed        = 42

	crossCommunityOdds = 5 // one in N endorsements crosses communities
)

// Config controls the generated dataset.
type Config struct {
	Nodes       int
	Communities int
	Edges       int
	SpanDays    int       // timestamps spread over this many days
	End         time.Time // newest timestamp; zero means a fixed epoch
	Seed        int64
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.Nodes <= 0 {
		c.Nodes = defaultNodes
	}
	if c.Communities <= 0 {
		c.Communities = defaultCommunities
	}
	if c.Edges <= 0 {
		c.Edges = defaultEdges
	}
	if c.SpanDays <= 0 {
		c.SpanDays = defaultSpanDays
	}
	if c.End.IsZero() {
		// Fixed epoch keeps reruns byte-identical.
		c.End = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if c.Seed == 0 {
		c.Seed = defaultSeed
	}
	return c
}

// WriteEndorsements writes a source,target,rating,timestamp CSV.
func WriteEndorsements(w io.Writer, cfg Config) error {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))
	cw := csv.NewWriter(w)

	community := func(node int) int { return node % cfg.Communities }
	span := time.Duration(cfg.SpanDays) * 24 * time.Hour

	for i := 0; i < cfg.Edges; i++ {
		source := rng.Intn(cfg.Nodes)
		target := rng.Intn(cfg.Nodes)
		for target == source {
			target = rng.Intn(cfg.Nodes)
		}

		var rating int
		sameCommunity := community(source) == community(target)
		if !sameCommunity && rng.Intn(crossCommunityOdds) != 0 {
			// Re-aim most cross-community picks back into the source's
			// community to get clustered structure.
			target = (target/cfg.Communities)*cfg.Communities + community(source)
			if target >= cfg.Nodes || target == source {
				target = (source + cfg.Communities) % cfg.Nodes
			}
			sameCommunity = true
		}
		if sameCommunity {
			rating = 1 + rng.Intn(10) // trusted neighbors
		} else {
			rating = -10 + rng.Intn(21) // strangers get the full scale
		}

		ts := cfg.End.Add(-time.Duration(rng.Int63n(int64(span))))
		row := []string{
			strconv.Itoa(source),
			strconv.Itoa(target),
			strconv.Itoa(rating),
			strconv.FormatInt(ts.Unix(), 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write endorsement: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Sample identity pools.
var (
	firstNames = []string{"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald", "Radia", "Tim", "Linus", "Margaret"}
	lastNames  = []string{"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Knuth", "Perlman", "Lee", "Torvalds", "Hamilton"}
	jobs       = []string{"Engineer", "Analyst", "Founder", "Researcher", "Designer", "Operator"}
)

// WriteIdentities writes an id,name,job,email,phone CSV covering every
// generated node id.
func WriteIdentities(w io.Writer, cfg Config) error {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed + 1))
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"id", "name", "job", "email", "phone"}); err != nil {
		return fmt.Errorf("write identity header: %w", err)
	}
	for i := 0; i < cfg.Nodes; i++ {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		row := []string{
			strconv.Itoa(i),
			first + " " + last,
			jobs[rng.Intn(len(jobs))],
			fmt.Sprintf("%s.%s.%d@example.com", first, last, i),
			fmt.Sprintf("+1-555-%04d", rng.Intn(10_000)),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write identity: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
