package export_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	model "github.com/okian/vigil/internal/domain/model"
	network "github.com/okian/vigil/internal/domain/network"
	export "github.com/okian/vigil/internal/export"
	selector "github.com/okian/vigil/internal/selector"
	maintenance "github.com/okian/vigil/internal/selector/maintenance"
	. "github.com/smartystreets/goconvey/convey"
)

func fixtureSnapshot(t *testing.T) *network.Snapshot {
	t.Helper()
	b := network.NewBuilder()
	for _, e := range []model.Endorsement{
		{Source: "A", Target: "B", Rating: 5, TS: time.Unix(1000, 0).UTC()},
		{Source: "B", Target: "A", Rating: 3, TS: time.Unix(2000, 0).UTC()},
		{Source: "A", Target: "C", Rating: 6, TS: time.Unix(3000, 0).UTC()},
	} {
		b.Add(context.Background(), e)
	}
	dir := model.Directory{"A": {Name: "Alice", Job: "engineer"}}
	snap, err := b.Build(context.Background(), dir)
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}
	return snap
}

func fixtureInput(t *testing.T) export.Input {
	t.Helper()
	roles := selector.NewRoleSet()
	if err := roles.Assign([]string{"A"}, []string{"A", "B"}); err != nil {
		t.Fatalf("assign roles: %v", err)
	}
	return export.Input{
		Snapshot:       fixtureSnapshot(t),
		Roles:          roles,
		SentinelExact:  selector.Result{Method: selector.MethodExact, NodeIDs: []string{"A"}, Objective: 2},
		SentinelGreedy: selector.Result{Method: selector.MethodGreedy, NodeIDs: []string{"A"}, Objective: 2},
		MaintenanceExact: selector.Result{
			Method:  selector.MethodExact,
			NodeIDs: []string{"B", "C"},
		},
		Candidates: []maintenance.Candidate{
			{ID: "B", Value: 10, Cost: 45, DaysDormant: 40},
			{ID: "C", Value: 20, Cost: 45, DaysDormant: 10},
		},
		MaintenanceSort: export.SortByDormancy,
	}
}

func readDoc(t *testing.T, path string, out interface{}) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal %s: %v", path, err)
	}
}

func TestWriteArtifacts(t *testing.T) {
	Convey("Given a writer and a complete input", t, func() {
		dir := t.TempDir()
		w, err := export.NewWriter(dir)
		So(err, ShouldBeNil)

		paths, err := w.Write(context.Background(), fixtureInput(t))
		So(err, ShouldBeNil)

		Convey("Then exactly the three contract artifacts exist", func() {
			So(paths, ShouldResemble, []string{
				filepath.Join(dir, export.GraphVizFile),
				filepath.Join(dir, export.SentinelResultsFile),
				filepath.Join(dir, export.MaintenanceResultsFile),
			})
			for _, p := range paths {
				_, statErr := os.Stat(p)
				So(statErr, ShouldBeNil)
			}
		})

		Convey("Then graph_viz lists nodes ascending with groups and metadata", func() {
			var doc export.GraphViz
			readDoc(t, filepath.Join(dir, export.GraphVizFile), &doc)

			So(len(doc.Nodes), ShouldEqual, 3)
			So(doc.Nodes[0].ID, ShouldEqual, "A")
			So(doc.Nodes[0].Group, ShouldEqual, selector.GroupSentinelMaintenance)
			So(doc.Nodes[0].Val, ShouldEqual, 3)
			So(doc.Nodes[0].Metadata, ShouldNotBeNil)
			So(doc.Nodes[0].Metadata.Name, ShouldEqual, "Alice")
			So(doc.Nodes[0].Metadata.Email, ShouldEqual, "N/A")

			So(doc.Nodes[1].ID, ShouldEqual, "B")
			So(doc.Nodes[1].Group, ShouldEqual, selector.GroupMaintenance)
			So(doc.Nodes[1].Metadata, ShouldBeNil)

			So(doc.Nodes[2].ID, ShouldEqual, "C")
			So(doc.Nodes[2].Group, ShouldEqual, "")
		})

		Convey("Then opposite-direction events collapse to one link", func() {
			var doc export.GraphViz
			readDoc(t, filepath.Join(dir, export.GraphVizFile), &doc)

			So(doc.Links, ShouldResemble, []export.VizLink{
				{Source: "A", Target: "B"},
				{Source: "A", Target: "C"},
			})
		})

		Convey("Then sentinel_results carries both method lists", func() {
			var doc export.SentinelResults
			readDoc(t, filepath.Join(dir, export.SentinelResultsFile), &doc)

			So(doc.IP.Sentinels, ShouldResemble, []string{"A"})
			So(doc.Greedy.Sentinels, ShouldResemble, []string{"A"})
		})

		Convey("Then maintenance_results orders by dormancy descending", func() {
			var doc export.MaintenanceResults
			readDoc(t, filepath.Join(dir, export.MaintenanceResultsFile), &doc)

			So(len(doc.SelectedNodes), ShouldEqual, 2)
			So(doc.SelectedNodes[0].ID, ShouldEqual, "B")
			So(doc.SelectedNodes[0].DaysDormant, ShouldEqual, 40)
			So(doc.SelectedNodes[1].ID, ShouldEqual, "C")
		})
	})
}

func TestValueOrdering(t *testing.T) {
	Convey("Given the value ordering for maintenance_results", t, func() {
		dir := t.TempDir()
		w, err := export.NewWriter(dir)
		So(err, ShouldBeNil)

		in := fixtureInput(t)
		in.MaintenanceSort = export.SortByValue
		_, err = w.Write(context.Background(), in)
		So(err, ShouldBeNil)

		Convey("Then the highest value comes first", func() {
			var doc export.MaintenanceResults
			readDoc(t, filepath.Join(dir, export.MaintenanceResultsFile), &doc)

			So(doc.SelectedNodes[0].ID, ShouldEqual, "C")
			So(doc.SelectedNodes[1].ID, ShouldEqual, "B")
		})
	})
}

func TestEmptySelections(t *testing.T) {
	Convey("Given selections that picked nothing", t, func() {
		dir := t.TempDir()
		w, err := export.NewWriter(dir)
		So(err, ShouldBeNil)

		in := fixtureInput(t)
		in.SentinelExact.NodeIDs = nil
		in.SentinelGreedy.NodeIDs = nil
		in.MaintenanceExact.NodeIDs = nil
		_, err = w.Write(context.Background(), in)
		So(err, ShouldBeNil)

		Convey("Then arrays serialize as [] rather than null", func() {
			raw, readErr := os.ReadFile(filepath.Join(dir, export.SentinelResultsFile))
			So(readErr, ShouldBeNil)
			So(bytes.Contains(raw, []byte("null")), ShouldBeFalse)

			raw, readErr = os.ReadFile(filepath.Join(dir, export.MaintenanceResultsFile))
			So(readErr, ShouldBeNil)
			So(bytes.Contains(raw, []byte("null")), ShouldBeFalse)
		})
	})
}

func TestRepeatedWrites(t *testing.T) {
	Convey("Given two writes of the same input", t, func() {
		dir := t.TempDir()
		w, err := export.NewWriter(dir)
		So(err, ShouldBeNil)

		in := fixtureInput(t)
		_, err = w.Write(context.Background(), in)
		So(err, ShouldBeNil)
		first := map[string][]byte{}
		for _, name := range []string{export.GraphVizFile, export.SentinelResultsFile, export.MaintenanceResultsFile} {
			data, readErr := os.ReadFile(filepath.Join(dir, name))
			So(readErr, ShouldBeNil)
			first[name] = data
		}

		_, err = w.Write(context.Background(), in)
		So(err, ShouldBeNil)

		Convey("Then the bytes are identical each time", func() {
			for name, want := range first {
				got, readErr := os.ReadFile(filepath.Join(dir, name))
				So(readErr, ShouldBeNil)
				So(bytes.Equal(got, want), ShouldBeTrue)
			}
		})
	})
}

func TestSummaryArtifact(t *testing.T) {
	Convey("Given an input with a run summary attached", t, func() {
		dir := t.TempDir()
		w, err := export.NewWriter(dir)
		So(err, ShouldBeNil)

		in := fixtureInput(t)
		in.Summary = &export.Summary{RunID: "run-1"}
		paths, err := w.Write(context.Background(), in)
		So(err, ShouldBeNil)

		Convey("Then summary.json is written alongside the contract set", func() {
			So(len(paths), ShouldEqual, 4)
			var doc export.Summary
			readDoc(t, filepath.Join(dir, export.SummaryFile), &doc)
			So(doc.RunID, ShouldEqual, "run-1")
		})
	})
}
