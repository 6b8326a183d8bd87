package reconcile

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/bullseye/internal/domain/filter"
)

var serverDefaults = Defaults{
	DateMin: "2024-09-01",
	DateMax: "2025-06-30",
	Modes:   []string{"training", "competition"},
}

func TestReconcile(t *testing.T) {
	Convey("Given the three filter sources", t, func() {
		Convey("Nothing from url or storage yields the server defaults", func() {
			got := Reconcile(filter.Partial{}, filter.Partial{}, serverDefaults)
			So(got.Start, ShouldEqual, "2024-09-01")
			So(got.End, ShouldEqual, "2025-06-30")
			So(got.Modes, ShouldResemble, []string{"training", "competition"})
			So(got.AthleteIDs, ShouldBeEmpty)
			So(got.IncludeUnassigned, ShouldBeFalse)
		})

		Convey("An explicit empty athlete set in the url beats stored athletes", func() {
			url := filter.Partial{AthleteIDs: filter.Some([]int{})}
			stored := filter.Partial{AthleteIDs: filter.Some([]int{3, 7})}
			got := Reconcile(url, stored, serverDefaults)
			So(got.AthleteIDs, ShouldBeEmpty)
		})

		Convey("Explicit empty modes beat both stored modes and the default pair", func() {
			url := filter.Partial{Modes: filter.Some([]string{})}
			stored := filter.Partial{Modes: filter.Some([]string{"training"})}
			got := Reconcile(url, stored, serverDefaults)
			So(got.Modes, ShouldNotBeNil)
			So(got.Modes, ShouldBeEmpty)
		})

		Convey("Precedence is per field, not per object", func() {
			url := filter.Partial{Start: filter.Some("2025-02-01")}
			stored := filter.Partial{
				Start:      filter.Some("2024-10-01"),
				AthleteIDs: filter.Some([]int{5}),
				Teams:      filter.Some([]string{"Seniors"}),
			}
			got := Reconcile(url, stored, serverDefaults)
			So(got.Start, ShouldEqual, "2025-02-01")
			So(got.End, ShouldEqual, "2025-06-30")
			So(got.AthleteIDs, ShouldResemble, []int{5})
			So(got.Teams, ShouldResemble, []string{"Seniors"})
		})

		Convey("The boolean falls back url, then storage, then false", func() {
			stored := filter.Partial{IncludeUnassigned: filter.Some(true)}
			So(Reconcile(filter.Partial{}, stored, serverDefaults).IncludeUnassigned, ShouldBeTrue)

			url := filter.Partial{IncludeUnassigned: filter.Some(false)}
			So(Reconcile(url, stored, serverDefaults).IncludeUnassigned, ShouldBeFalse)
		})

		Convey("Missing server modes fall back to the built-in pair", func() {
			got := Reconcile(filter.Partial{}, filter.Partial{}, Defaults{})
			So(got.Modes, ShouldResemble, filter.DefaultModes)
			So(got.Start, ShouldBeEmpty)
		})

		Convey("Duplicates from a source are collapsed", func() {
			url := filter.Partial{RifleIDs: filter.Some([]int{2, 2, 4})}
			So(Reconcile(url, filter.Partial{}, serverDefaults).RifleIDs, ShouldResemble, []int{2, 4})
		})
	})
}
