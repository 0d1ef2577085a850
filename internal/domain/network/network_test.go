package network_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	model "github.com/okian/vigil/internal/domain/model"
	network "github.com/okian/vigil/internal/domain/network"
	. "github.com/smartystreets/goconvey/convey"
)

func day(n int) time.Time {
	return time.Unix(int64(n)*86400, 0).UTC()
}

func buildSnapshot(t *testing.T, endorsements ...model.Endorsement) *network.Snapshot {
	t.Helper()
	b := network.NewBuilder()
	for _, e := range endorsements {
		b.Add(context.Background(), e)
	}
	snap, err := b.Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}
	return snap
}

func TestBuilder(t *testing.T) {
	Convey("Given a builder fed raw records", t, func() {
		b := network.NewBuilder()
		ctx := context.Background()

		Convey("When some records are malformed", func() {
			b.AddRecord(ctx, []string{"a", "b", "5", "100"})
			b.AddRecord(ctx, []string{"a", "b", "fifty", "100"}) // bad rating
			b.AddRecord(ctx, []string{"a", "", "5", "100"})      // empty target
			b.AddRecord(ctx, []string{"b", "c", "3", "200"})

			snap, err := b.Build(ctx, nil)

			Convey("Then they are skipped and counted, never fatal", func() {
				So(err, ShouldBeNil)
				So(b.Skipped(), ShouldEqual, 2)
				So(snap.SkippedRecords(), ShouldEqual, 2)
				So(snap.EdgeCount(), ShouldEqual, 2)
			})
		})

		Convey("When reading a CSV stream", func() {
			csv := "a,b,5,100\na,b,bad,100\nb,c,3,200\n"
			So(b.ReadCSV(ctx, strings.NewReader(csv)), ShouldBeNil)
			snap, err := b.Build(ctx, nil)

			So(err, ShouldBeNil)
			So(snap.EdgeCount(), ShouldEqual, 2)
			So(snap.SkippedRecords(), ShouldEqual, 1)
		})

		Convey("When no valid record was added", func() {
			b.AddRecord(ctx, []string{"nope"})
			_, err := b.Build(ctx, nil)
			So(errors.Is(err, network.ErrEmptyNetwork), ShouldBeTrue)
		})
	})
}

func TestSnapshotMetrics(t *testing.T) {
	Convey("Given a snapshot of a small network", t, func() {
		// a endorses b twice, b endorses c, c is silent.
		snap := buildSnapshot(t,
			model.Endorsement{Source: "a", Target: "b", Rating: 4, TS: day(10)},
			model.Endorsement{Source: "a", Target: "b", Rating: 8, TS: day(20)},
			model.Endorsement{Source: "b", Target: "c", Rating: -2, TS: day(30)},
		)

		Convey("Then node ids are stable and ascending", func() {
			So(snap.AllNodeIDs(), ShouldResemble, []string{"a", "b", "c"})
			So(snap.NodeCount(), ShouldEqual, 3)
			So(snap.EdgeCount(), ShouldEqual, 3)
		})

		Convey("Then degree counts distinct counterparties", func() {
			So(snap.Degree("a"), ShouldEqual, 1) // b twice still one counterparty
			So(snap.Degree("b"), ShouldEqual, 2)
			So(snap.Degree("c"), ShouldEqual, 1)
			So(snap.Degree("unknown"), ShouldEqual, 0)
		})

		Convey("Then score is the mean incoming rating", func() {
			So(snap.Score("b"), ShouldEqual, 6) // (4+8)/2
			So(snap.Score("c"), ShouldEqual, -2)
			So(snap.Score("a"), ShouldEqual, 0) // never rated
		})

		Convey("Then dormancy is measured from the last event and never negative", func() {
			So(snap.ReferenceTime().Equal(day(30)), ShouldBeTrue)
			So(snap.DormancyDays("a"), ShouldEqual, 10) // last seen day 20
			So(snap.DormancyDays("b"), ShouldEqual, 0)
			So(snap.Dormancy("b", day(5)), ShouldEqual, time.Duration(0)) // ref before last seen
		})
	})
}

func TestCoverageSet(t *testing.T) {
	Convey("Given a snapshot with weighted out-edges", t, func() {
		snap := buildSnapshot(t,
			model.Endorsement{Source: "a", Target: "b", Rating: 5, TS: day(1)},
			model.Endorsement{Source: "a", Target: "c", Rating: 6, TS: day(1)},
			model.Endorsement{Source: "a", Target: "d", Rating: 1, TS: day(1)},
			model.Endorsement{Source: "b", Target: "c", Rating: 3, TS: day(2)},
		)

		Convey("Then only targets above the threshold are covered", func() {
			So(snap.CoverageSet("a", 1), ShouldResemble, []string{"b", "c"})
			So(snap.CoverageSet("a", 5), ShouldResemble, []string{"c"})
			So(snap.CoverageSet("b", 1), ShouldResemble, []string{"c"})
			So(snap.CoverageSet("c", 1), ShouldBeEmpty)
		})

		Convey("Then repeated calls return the memoized set", func() {
			first := snap.CoverageSet("a", 1)
			second := snap.CoverageSet("a", 1)
			So(&second[0], ShouldEqual, &first[0]) // same backing array
		})
	})
}

func TestSnapshotIdentity(t *testing.T) {
	Convey("Given a snapshot built with an identity directory", t, func() {
		b := network.NewBuilder()
		ctx := context.Background()
		b.Add(ctx, model.Endorsement{Source: "1", Target: "2", Rating: 5, TS: day(1)})
		dir := model.Directory{"1": {Name: "Ada Lovelace"}}
		snap, err := b.Build(ctx, dir)
		So(err, ShouldBeNil)

		Convey("Then identities resolve for known ids only", func() {
			ident, ok := snap.Identity("1")
			So(ok, ShouldBeTrue)
			So(ident.Name, ShouldEqual, "Ada Lovelace")

			_, ok = snap.Identity("2")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestReferenceTimeOverride(t *testing.T) {
	Convey("Given a builder with an explicit reference time", t, func() {
		b := network.NewBuilder(network.WithReferenceTime(day(100)))
		b.Add(context.Background(), model.Endorsement{Source: "a", Target: "b", Rating: 5, TS: day(10)})
		snap, err := b.Build(context.Background(), nil)
		So(err, ShouldBeNil)

		Convey("Then dormancy is measured against it", func() {
			So(snap.ReferenceTime().Equal(day(100)), ShouldBeTrue)
			So(snap.DormancyDays("a"), ShouldEqual, 90)
		})
	})
}
