package notice

import (
	"strconv"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBoard(t *testing.T) {
	Convey("Given a board of three", t, func() {
		b := NewBoard(3)

		Convey("Old notices fall off the front", func() {
			for i := 0; i < 5; i++ {
				b.Push(Info, "n"+strconv.Itoa(i))
			}
			got := b.Recent()
			So(got, ShouldHaveLength, 3)
			So(got[0].Text, ShouldEqual, "n2")
			last, ok := b.Last()
			So(ok, ShouldBeTrue)
			So(last.Text, ShouldEqual, "n4")
		})

		Convey("Empty text is ignored and Clear empties", func() {
			b.Push(Danger, "")
			_, ok := b.Last()
			So(ok, ShouldBeFalse)
			b.Push(Warning, "x")
			b.Clear()
			So(b.Recent(), ShouldBeEmpty)
		})
	})
}
