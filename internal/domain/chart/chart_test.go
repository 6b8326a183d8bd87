package chart

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/bullseye/internal/domain/model"
)

func intp(v int) *int { return &v }

func f64p(v float64) *float64 { return &v }

func sessionImages() []model.TrainingImage {
	return []model.TrainingImage{
		{ID: 1, Filename: "a.jpg", AthleteID: intp(3), AthleteName: "Ana", TotalScore: 47,
			Shots: []model.Shot{{ID: 10, AutoScore: 10, FinalScore: f64p(9)}, {ID: 11, AutoScore: 8}}},
		{ID: 2, Filename: "", AthleteID: intp(7), AthleteName: "Ben", TotalScore: 40},
		{ID: 3, Filename: "c.jpg", TotalScore: 30},
		{ID: 4, Filename: "d.jpg", AthleteID: intp(3), AthleteName: "Ana", TotalScore: 50},
	}
}

func TestRenderAggregate(t *testing.T) {
	Convey("Given images and no athlete selection", t, func() {
		c := Render(sessionImages(), Grouping{})

		Convey("All images form one series in upload order", func() {
			So(c.Mode, ShouldEqual, ModeAggregate)
			So(c.Series, ShouldHaveLength, 1)
			So(c.Series[0].Data, ShouldResemble, []float64{47, 40, 30, 50})
			So(c.Categories, ShouldResemble, []string{"a.jpg", "#2", "c.jpg", "d.jpg"})
			So(c.Empty, ShouldBeFalse)
		})

		Convey("Every point carries its shots", func() {
			So(c.Tooltips[0].Lines, ShouldResemble, []string{"#10: auto 10 final 9", "#11: auto 8 final "})
			So(c.Tooltips[1].Lines, ShouldResemble, []string{NoShots})
		})

		Convey("Rendering twice gives identical output", func() {
			So(Render(sessionImages(), Grouping{}), ShouldResemble, c)
		})

		Convey("No images is the empty state", func() {
			empty := Render(nil, Grouping{})
			So(empty.Empty, ShouldBeTrue)
			So(empty.Series, ShouldBeEmpty)
		})
	})
}

func TestRenderPerAthlete(t *testing.T) {
	Convey("Given images and an athlete selection", t, func() {
		Convey("One series per selected athlete in selection order", func() {
			c := Render(sessionImages(), Grouping{AthleteIDs: []int{7, 3, 3}})
			So(c.Mode, ShouldEqual, ModePerAthlete)
			So(c.Series, ShouldHaveLength, 2)
			So(c.Series[0].Name, ShouldEqual, "Ben")
			So(c.Series[1].Data, ShouldResemble, []float64{47, 50})
			So(c.Categories, ShouldResemble, []string{"#2"})
		})

		Convey("Unassigned images form their own series when asked", func() {
			c := Render(sessionImages(), Grouping{IncludeUnassigned: true})
			So(c.Series, ShouldHaveLength, 1)
			So(c.Series[0].Key, ShouldEqual, UnassignedKey)
			So(c.Series[0].Name, ShouldEqual, "Unassigned")
		})

		Convey("A selection matching nothing is the empty state", func() {
			c := Render(sessionImages(), Grouping{AthleteIDs: []int{99}})
			So(c.Empty, ShouldBeTrue)
			So(c.Series, ShouldBeEmpty)
			So(c.Categories, ShouldBeEmpty)
		})
	})
}
