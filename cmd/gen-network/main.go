// Command gen-network writes a deterministic synthetic endorsement
// dataset and matching identity directory for local pipeline runs.
package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/okian/vigil/internal/gen"
)

func main() {
	var (
		outDir      = flag.String("out", "data", "Output directory for the generated CSVs")
		nodes       = flag.Int("nodes", 200, "Number of nodes")
		communities = flag.Int("communities", 8, "Number of communities")
		edges       = flag.Int("edges", 1200, "Number of endorsement events")
		spanDays    = flag.Int("span", 730, "Timestamp spread in days")
		seed        = flag.Int64("seed", 42, "Random seed")
	)
	flag.Parse()

	cfg := gen.Config{
		Nodes:       *nodes,
		Communities: *communities,
		Edges:       *edges,
		SpanDays:    *spanDays,
		Seed:        *seed,
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fail("create output dir: " + err.Error())
	}
	if err := writeFile(filepath.Join(*outDir, "endorsements.csv"), func(f *os.File) error {
		return gen.WriteEndorsements(f, cfg)
	}); err != nil {
		fail("write endorsements: " + err.Error())
	}
	if err := writeFile(filepath.Join(*outDir, "identities.csv"), func(f *os.File) error {
		return gen.WriteIdentities(f, cfg)
	}); err != nil {
		fail("write identities: " + err.Error())
	}
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fail(msg string) {
	os.Stderr.WriteString(msg + "\n")
	os.Exit(1)
}
