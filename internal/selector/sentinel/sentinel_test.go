package sentinel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	model "github.com/okian/vigil/internal/domain/model"
	network "github.com/okian/vigil/internal/domain/network"
	selector "github.com/okian/vigil/internal/selector"
	sentinel "github.com/okian/vigil/internal/selector/sentinel"
	solver "github.com/okian/vigil/internal/solver"
	. "github.com/smartystreets/goconvey/convey"
)

func snapshotOf(t *testing.T, endorsements ...model.Endorsement) *network.Snapshot {
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

func edge(src, dst string, rating int, epoch int64) model.Endorsement {
	return model.Endorsement{Source: src, Target: dst, Rating: rating, TS: time.Unix(epoch, 0).UTC()}
}

// threeNode is the canonical example: A reaches both B and C above the
// threshold, so one sentinel suffices.
func threeNode(t *testing.T) *network.Snapshot {
	return snapshotOf(t,
		edge("A", "B", 5, 0),
		edge("A", "C", 6, 0),
		edge("B", "C", 3, 100),
	)
}

func TestThreeNodeExample(t *testing.T) {
	Convey("Given the three-node network with K=1 and threshold 1", t, func() {
		snap := threeNode(t)
		sel, err := sentinel.New(snap, sentinel.WithBudget(1), sentinel.WithThreshold(1))
		So(err, ShouldBeNil)

		Convey("Then exact selects A with coverage 2", func() {
			r := sel.Exact(context.Background())
			So(r.NodeIDs, ShouldResemble, []string{"A"})
			So(r.Objective, ShouldEqual, 2)
			So(r.Fallback, ShouldBeFalse)
		})

		Convey("Then greedy selects A with coverage 2", func() {
			r := sel.Greedy()
			So(r.NodeIDs, ShouldResemble, []string{"A"})
			So(r.Objective, ShouldEqual, 2)
		})
	})
}

// overlapNet makes the degree heuristic fail: "hub" touches the most
// nodes but its coverage is redundant with a and b.
func overlapNet(t *testing.T) *network.Snapshot {
	return snapshotOf(t,
		edge("a", "t1", 5, 0), edge("a", "t2", 5, 0), edge("a", "t3", 5, 0),
		edge("b", "t4", 5, 0), edge("b", "t5", 5, 0), edge("b", "t6", 5, 0),
		edge("hub", "t1", 5, 0), edge("hub", "t2", 5, 0),
		edge("hub", "t4", 5, 0), edge("hub", "t5", 5, 0),
		// Inbound edges inflate hub's degree without adding coverage.
		edge("t1", "hub", 2, 0), edge("t2", "hub", 2, 0), edge("t3", "hub", 2, 0),
	)
}

func TestMethodDominance(t *testing.T) {
	Convey("Given a network where degree misleads", t, func() {
		snap := overlapNet(t)
		sel, err := sentinel.New(snap, sentinel.WithBudget(2), sentinel.WithThreshold(1))
		So(err, ShouldBeNil)

		exact := sel.Exact(context.Background())
		greedy := sel.Greedy()
		naive := sel.Naive()

		Convey("Then exact >= greedy >= naive", func() {
			So(exact.Objective, ShouldBeGreaterThanOrEqualTo, greedy.Objective)
			So(greedy.Objective, ShouldBeGreaterThanOrEqualTo, naive.Objective)
		})

		Convey("Then greedy meets the (1 - 1/e) guarantee", func() {
			So(greedy.Objective, ShouldBeGreaterThanOrEqualTo, 0.632*exact.Objective)
		})

		Convey("Then exact finds the non-redundant pair", func() {
			So(exact.NodeIDs, ShouldResemble, []string{"a", "b"})
			So(exact.Objective, ShouldEqual, 6)
		})

		Convey("Then naive leads with the highest-degree node", func() {
			So(naive.NodeIDs[0], ShouldEqual, "hub")
		})

		Convey("Then every method respects the budget", func() {
			So(exact.Size(), ShouldBeLessThanOrEqualTo, 2)
			So(greedy.Size(), ShouldBeLessThanOrEqualTo, 2)
			So(naive.Size(), ShouldBeLessThanOrEqualTo, 2)
		})
	})
}

func TestExactFallback(t *testing.T) {
	Convey("Given an exact solver with a zero time limit", t, func() {
		snap := threeNode(t)
		sel, err := sentinel.New(snap,
			sentinel.WithBudget(1),
			sentinel.WithSolvers(solver.NewExact(solver.WithTimeLimit(0)), solver.NewApprox()),
		)
		So(err, ShouldBeNil)

		Convey("When solving exactly", func() {
			r := sel.Exact(context.Background())

			Convey("Then the greedy result stands in, tagged as fallback", func() {
				So(r.Fallback, ShouldBeTrue)
				So(r.Method, ShouldEqual, selector.MethodExact)
				So(r.NodeIDs, ShouldResemble, sel.Greedy().NodeIDs)
			})
		})
	})
}

func TestDeterminism(t *testing.T) {
	Convey("Given repeated runs on the same snapshot", t, func() {
		snap := overlapNet(t)
		sel, err := sentinel.New(snap, sentinel.WithBudget(2))
		So(err, ShouldBeNil)

		first := sel.Greedy()
		second := sel.Greedy()
		So(second, ShouldResemble, first)

		e1 := sel.Exact(context.Background())
		e2 := sel.Exact(context.Background())
		So(e2, ShouldResemble, e1)
	})
}

func TestInvalidConfiguration(t *testing.T) {
	Convey("Given invalid selector settings", t, func() {
		snap := threeNode(t)

		Convey("Then a non-positive budget is rejected", func() {
			_, err := sentinel.New(snap, sentinel.WithBudget(0))
			So(errors.Is(err, selector.ErrInvalidBudget), ShouldBeTrue)
		})

		Convey("Then a non-positive threshold is rejected", func() {
			_, err := sentinel.New(snap, sentinel.WithThreshold(-1))
			So(errors.Is(err, selector.ErrInvalidBudget), ShouldBeTrue)
		})
	})
}
