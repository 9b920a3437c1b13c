package defeat_test

import (
	"errors"
	"testing"

	"github.com/okian/standings/internal/domain/defeat"
	"github.com/okian/standings/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func m(w, l string) model.Match { return model.Match{Winner: w, Loser: l} }

func TestBuild(t *testing.T) {
	Convey("Given a transitive match list", t, func() {
		matches := []model.Match{m("A", "B"), m("A", "C"), m("B", "C")}

		Convey("When building the defeat graph", func() {
			g, err := defeat.Build(matches)
			So(err, ShouldBeNil)

			Convey("Then every competitor should be present", func() {
				So(g.Competitors(), ShouldResemble, []string{"A", "B", "C"})
				So(g.Len(), ShouldEqual, 3)
			})

			Convey("And losers should map to the competitors who beat them", func() {
				So(g.Winners("C"), ShouldResemble, []string{"A", "B"})
				So(g.Winners("B"), ShouldResemble, []string{"A"})
				So(g.Winners("A"), ShouldBeEmpty)
				So(g.OutDegree("C"), ShouldEqual, 2)
			})

			Convey("And the reverse view should list who each competitor beat", func() {
				So(g.Losers("A"), ShouldResemble, []string{"B", "C"})
				So(g.Losers("C"), ShouldBeEmpty)
			})

			Convey("And only the unbeaten competitor should be dangling", func() {
				So(g.Dangling("A"), ShouldBeTrue)
				So(g.Dangling("B"), ShouldBeFalse)
			})
		})
	})

	Convey("Given repeated identical outcomes", t, func() {
		once, err := defeat.Build([]model.Match{m("A", "B")})
		So(err, ShouldBeNil)
		thrice, err := defeat.Build([]model.Match{m("A", "B"), m("A", "B"), m(" A", "B ")})
		So(err, ShouldBeNil)

		Convey("Then they should collapse into a single defeat", func() {
			So(thrice.Edges(), ShouldEqual, 1)
			So(thrice.Equal(once), ShouldBeTrue)
			So(thrice.Matches(), ShouldResemble, []model.Match{m("A", "B")})
		})
	})

	Convey("Given a two-way rivalry", t, func() {
		g, err := defeat.Build([]model.Match{m("A", "B"), m("B", "A")})
		So(err, ShouldBeNil)

		Convey("Then both directions should be kept", func() {
			So(g.Winners("A"), ShouldResemble, []string{"B"})
			So(g.Winners("B"), ShouldResemble, []string{"A"})
			So(g.Edges(), ShouldEqual, 2)
		})
	})

	Convey("Given the same matches in a different order", t, func() {
		a, err := defeat.Build([]model.Match{m("A", "B"), m("C", "A"), m("B", "C")})
		So(err, ShouldBeNil)
		b, err := defeat.Build([]model.Match{m("B", "C"), m("A", "B"), m("C", "A")})
		So(err, ShouldBeNil)

		Convey("Then the graphs should be structurally equal", func() {
			So(a.Equal(b), ShouldBeTrue)
		})
	})

	Convey("Given known competitors without matches", t, func() {
		g, err := defeat.Build(nil, "X", "Y", " Z ")
		So(err, ShouldBeNil)

		Convey("Then they should all be dangling members of the graph", func() {
			So(g.Competitors(), ShouldResemble, []string{"X", "Y", "Z"})
			So(g.Edges(), ShouldEqual, 0)
			So(g.Dangling("Z"), ShouldBeTrue)
		})
	})

	Convey("Given no input at all", t, func() {
		g, err := defeat.Build(nil)

		Convey("Then the graph should be empty", func() {
			So(err, ShouldBeNil)
			So(g.Len(), ShouldEqual, 0)
			So(g.Matches(), ShouldBeEmpty)
		})
	})
}

func TestBuildRejectsMalformedRecords(t *testing.T) {
	cases := []struct {
		name   string
		match  model.Match
		reason string
	}{
		{"empty winner", m("", "B"), defeat.ReasonEmptyWinner},
		{"whitespace winner", m("   ", "B"), defeat.ReasonEmptyWinner},
		{"empty loser", m("A", ""), defeat.ReasonEmptyLoser},
		{"self match", m("A", "A"), defeat.ReasonSelfMatch},
		{"self match after trimming", m("A ", " A"), defeat.ReasonSelfMatch},
	}

	Convey("Given malformed match records", t, func() {
		for _, tc := range cases {
			Convey("When the record has "+tc.name, func() {
				_, err := defeat.Build([]model.Match{m("A", "B"), tc.match})

				Convey("Then the build should fail naming the record", func() {
					So(errors.Is(err, defeat.ErrMalformedRecord), ShouldBeTrue)
					var re *defeat.RecordError
					So(errors.As(err, &re), ShouldBeTrue)
					So(re.Index, ShouldEqual, 1)
					So(re.Reason, ShouldEqual, tc.reason)
					So(re.Winner, ShouldEqual, tc.match.Winner)
					So(re.Loser, ShouldEqual, tc.match.Loser)
				})
			})
		}
	})

	Convey("Given an empty standalone competitor", t, func() {
		_, err := defeat.Build(nil, "A", " ")

		Convey("Then the build should fail", func() {
			So(errors.Is(err, defeat.ErrMalformedRecord), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, defeat.ReasonEmptyCompetitor)
		})
	})
}

func TestBuilderSnapshot(t *testing.T) {
	Convey("Given a builder that keeps growing", t, func() {
		b := defeat.NewBuilder()
		So(b.AddMatch(m("A", "B")), ShouldBeNil)
		first, err := b.Graph()
		So(err, ShouldBeNil)

		So(b.AddMatch(m("C", "A")), ShouldBeNil)
		second, err := b.Graph()
		So(err, ShouldBeNil)

		Convey("Then earlier snapshots should not change", func() {
			So(first.Len(), ShouldEqual, 2)
			So(second.Len(), ShouldEqual, 3)
			So(first.Winners("A"), ShouldBeEmpty)
			So(second.Winners("A"), ShouldResemble, []string{"C"})
		})
	})
}
