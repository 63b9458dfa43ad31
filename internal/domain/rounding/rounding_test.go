package rounding_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/youss97/transportBackend/internal/domain/rounding"
)

func TestHours(t *testing.T) {
	Convey("Given durations", t, func() {
		So(rounding.Hours(9*time.Hour), ShouldEqual, 9)
		So(rounding.Hours(30*time.Minute), ShouldEqual, 0.5)
		So(rounding.Hours(20*time.Minute), ShouldEqual, 0.33)
		So(rounding.Hours(40*time.Minute), ShouldEqual, 0.67)
		// 0.005h is 18s: half rounds up
		So(rounding.Hours(18*time.Second), ShouldEqual, 0.01)
		So(rounding.Hours(17*time.Second), ShouldEqual, 0)
		So(rounding.Hours(0), ShouldEqual, 0)
	})
}

func TestAmount(t *testing.T) {
	Convey("Given decimal amounts", t, func() {
		So(rounding.Amount(decimal.RequireFromString("5100")), ShouldEqual, 5100)
		So(rounding.Amount(decimal.RequireFromString("12.345")), ShouldEqual, 12.35)
		So(rounding.Amount(decimal.RequireFromString("12.344")), ShouldEqual, 12.34)
		So(rounding.Float(0.1+0.2), ShouldEqual, 0.3)
	})
}
