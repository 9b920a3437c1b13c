package standings_test

import (
	"testing"

	"github.com/okian/standings/internal/domain/standings"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFromScores(t *testing.T) {
	Convey("Given a score distribution", t, func() {
		scores := map[string]float64{
			"B": 0.25,
			"A": 0.5,
			"D": 0.125,
			"C": 0.125,
		}

		Convey("When converting it to standings", func() {
			entries := standings.FromScores(scores)

			Convey("Then rows should be ordered by score then name", func() {
				So(len(entries), ShouldEqual, 4)
				So(entries[0].Competitor, ShouldEqual, "A")
				So(entries[1].Competitor, ShouldEqual, "B")
				So(entries[2].Competitor, ShouldEqual, "C")
				So(entries[3].Competitor, ShouldEqual, "D")
			})

			Convey("And tied scores should share a dense rank", func() {
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[1].Rank, ShouldEqual, 2)
				So(entries[2].Rank, ShouldEqual, 3)
				So(entries[3].Rank, ShouldEqual, 3)
			})

			Convey("And points should be scaled scores", func() {
				So(entries[0].Points, ShouldEqual, 5000)
				So(entries[3].Points, ShouldEqual, 1250)
			})

			Convey("And the leader should be the top row", func() {
				So(standings.Leader(entries), ShouldEqual, "A")
			})
		})
	})

	Convey("Given scores differing only by rounding noise", t, func() {
		third := 1.0 / 3
		entries := standings.FromScores(map[string]float64{
			"x": third,
			"y": third + 1e-16,
			"z": third - 1e-16,
		})

		Convey("Then they should all share first place", func() {
			for _, e := range entries {
				So(e.Rank, ShouldEqual, 1)
			}
			So(standings.Leader(entries), ShouldEqual, "x")
		})
	})

	Convey("Given no scores", t, func() {
		entries := standings.FromScores(nil)

		Convey("Then there should be no rows and no leader", func() {
			So(entries, ShouldBeEmpty)
			So(standings.Leader(entries), ShouldEqual, "")
		})
	})
}

func TestTopNAndFind(t *testing.T) {
	Convey("Given ranked entries", t, func() {
		entries := standings.FromScores(map[string]float64{"a": 0.6, "b": 0.3, "c": 0.1})

		Convey("When taking the top two", func() {
			top := standings.TopN(entries, 2)
			So(len(top), ShouldEqual, 2)
			So(top[1].Competitor, ShouldEqual, "b")
		})

		Convey("When asking for more than exist or for none", func() {
			So(len(standings.TopN(entries, 10)), ShouldEqual, 3)
			So(len(standings.TopN(entries, 0)), ShouldEqual, 3)
		})

		Convey("When looking up a competitor", func() {
			e, ok := standings.Find(entries, "c")
			So(ok, ShouldBeTrue)
			So(e.Rank, ShouldEqual, 3)

			_, ok = standings.Find(entries, "nobody")
			So(ok, ShouldBeFalse)
		})
	})
}
