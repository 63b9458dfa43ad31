package calendar_test

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/youss97/transportBackend/internal/domain/calendar"
)

func TestMonthWindow(t *testing.T) {
	Convey("Given a month", t, func() {
		Convey("When the window of February 2024 is computed", func() {
			w, err := calendar.Month(2024, 2, time.UTC)

			Convey("Then it spans the leap month inclusively", func() {
				So(err, ShouldBeNil)
				So(w.From, ShouldEqual, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
				So(w.To, ShouldEqual, time.Date(2024, 2, 29, 23, 59, 59, int(999*time.Millisecond), time.UTC))
				So(w.Contains(w.From), ShouldBeTrue)
				So(w.Contains(w.To), ShouldBeTrue)
				So(w.Contains(w.To.Add(time.Millisecond)), ShouldBeFalse)
			})
		})

		Convey("When the month is out of range", func() {
			_, err := calendar.Month(2024, 13, time.UTC)

			Convey("Then the period is rejected", func() {
				So(errors.Is(err, calendar.ErrInvalidPeriod), ShouldBeTrue)
			})
		})
	})
}

func TestDays(t *testing.T) {
	Convey("Given months of different lengths", t, func() {
		So(calendar.DaysInMonth(2024, 2), ShouldEqual, 29)
		So(calendar.DaysInMonth(2023, 2), ShouldEqual, 28)
		So(calendar.DaysInMonth(2024, 4), ShouldEqual, 30)
		So(calendar.DaysInMonth(2024, 12), ShouldEqual, 31)

		Convey("When the days of April are listed", func() {
			days, err := calendar.Days(2024, 4, time.UTC)

			Convey("Then there is one ascending midnight per day", func() {
				So(err, ShouldBeNil)
				So(len(days), ShouldEqual, 30)
				So(calendar.DayKey(days[0], time.UTC), ShouldEqual, "2024-04-01")
				So(calendar.DayKey(days[29], time.UTC), ShouldEqual, "2024-04-30")
			})
		})
	})
}

func TestDayWindowAcrossZones(t *testing.T) {
	Convey("Given a timestamp late in the UTC day", t, func() {
		paris, err := time.LoadLocation("Europe/Paris")
		So(err, ShouldBeNil)
		ts := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)

		Convey("When it is bucketed in Paris", func() {
			Convey("Then it belongs to the next calendar day", func() {
				So(calendar.DayKey(ts, paris), ShouldEqual, "2024-03-02")
				w := calendar.Day(ts, paris)
				So(w.Contains(ts), ShouldBeTrue)
				So(calendar.DayKey(w.From, paris), ShouldEqual, "2024-03-02")
			})
		})

		Convey("When the DST switch day is windowed", func() {
			w := calendar.Day(time.Date(2024, 3, 31, 12, 0, 0, 0, paris), paris)

			Convey("Then the window is 23 hours long", func() {
				So(w.To.Sub(w.From)+time.Millisecond, ShouldEqual, 23*time.Hour)
			})
		})
	})
}

func TestParseDayAndClock(t *testing.T) {
	Convey("Given day keys and wall-clock times", t, func() {
		day, err := calendar.ParseDay("2024-03-01", time.UTC)
		So(err, ShouldBeNil)

		Convey("When a schedule start is applied to the day", func() {
			start, err := calendar.ClockOn(day, "08:00", time.UTC)

			Convey("Then it lands on that date", func() {
				So(err, ShouldBeNil)
				So(start, ShouldEqual, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
			})
		})

		Convey("When inputs are malformed", func() {
			_, dayErr := calendar.ParseDay("01/03/2024", time.UTC)
			_, clockErr := calendar.ClockOn(day, "8h", time.UTC)

			Convey("Then each has its own error", func() {
				So(errors.Is(dayErr, calendar.ErrInvalidDay), ShouldBeTrue)
				So(errors.Is(clockErr, calendar.ErrInvalidClock), ShouldBeTrue)
			})
		})
	})
}
