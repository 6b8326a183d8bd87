package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestFakeClock(t *testing.T) {
	Convey("Given a fake clock", t, func() {
		clock := NewFakeClock(epoch)

		Convey("Callbacks run in deadline order once due", func() {
			var order []string
			clock.AfterFunc(20*time.Millisecond, func() { order = append(order, "late") })
			clock.AfterFunc(10*time.Millisecond, func() { order = append(order, "early") })

			clock.Advance(5 * time.Millisecond)
			So(order, ShouldBeEmpty)
			So(clock.Waiting(), ShouldEqual, 2)

			clock.Advance(15 * time.Millisecond)
			So(order, ShouldResemble, []string{"early", "late"})
			So(clock.Now(), ShouldEqual, epoch.Add(20*time.Millisecond))
		})

		Convey("Stopped timers never run", func() {
			ran := false
			tm := clock.AfterFunc(time.Millisecond, func() { ran = true })
			So(tm.Stop(), ShouldBeTrue)
			So(tm.Stop(), ShouldBeFalse)
			clock.Advance(time.Second)
			So(ran, ShouldBeFalse)
		})
	})
}

func TestDebouncer(t *testing.T) {
	Convey("Given a debouncer with a 300ms quiet period", t, func() {
		clock := NewFakeClock(epoch)
		d := NewDebouncer(clock, 300*time.Millisecond)
		var calls int32
		var last int32
		task := func(n int32) func() {
			return func() {
				atomic.AddInt32(&calls, 1)
				atomic.StoreInt32(&last, n)
			}
		}

		Convey("Rapid triggers collapse into one run of the last task", func() {
			d.Trigger(task(1))
			clock.Advance(100 * time.Millisecond)
			d.Trigger(task(2))
			clock.Advance(100 * time.Millisecond)
			d.Trigger(task(3))
			clock.Advance(299 * time.Millisecond)
			So(atomic.LoadInt32(&calls), ShouldEqual, 0)
			So(d.Pending(), ShouldBeTrue)

			clock.Advance(time.Millisecond)
			So(atomic.LoadInt32(&calls), ShouldEqual, 1)
			So(atomic.LoadInt32(&last), ShouldEqual, 3)
			So(d.Pending(), ShouldBeFalse)
			So(clock.Waiting(), ShouldEqual, 0)
		})

		Convey("Cancel drops the pending task", func() {
			d.Trigger(task(1))
			So(d.Cancel(), ShouldBeTrue)
			So(d.Cancel(), ShouldBeFalse)
			clock.Advance(time.Second)
			So(atomic.LoadInt32(&calls), ShouldEqual, 0)
		})

		Convey("Flush runs the pending task immediately and only once", func() {
			d.Trigger(task(7))
			So(d.Flush(), ShouldBeTrue)
			So(atomic.LoadInt32(&last), ShouldEqual, 7)
			clock.Advance(time.Second)
			So(atomic.LoadInt32(&calls), ShouldEqual, 1)
			So(d.Flush(), ShouldBeFalse)
		})

		Convey("Separate quiet periods each run", func() {
			d.Trigger(task(1))
			clock.Advance(300 * time.Millisecond)
			d.Trigger(task(2))
			clock.Advance(300 * time.Millisecond)
			So(atomic.LoadInt32(&calls), ShouldEqual, 2)
		})
	})
}
