package operations_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/youss97/transportBackend/internal/adapters/repository"
	"github.com/youss97/transportBackend/internal/domain/model"
	"github.com/youss97/transportBackend/internal/domain/operations"
	"github.com/youss97/transportBackend/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

type fixture struct {
	store    *repository.MemoryStore
	unpriced []string
	agg      *operations.Aggregator
}

func newFixture(t *testing.T, opts ...operations.Option) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: repository.NewMemoryStore()}
	for _, s := range []model.Site{
		{ID: "s1", CompanyID: "c1", Name: "Quarry", PricePerTon: 85},
		{ID: "s2", CompanyID: "c1", Name: "Port", PricePerTon: 40},
	} {
		if err := f.store.PutSite(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	for _, d := range []model.Driver{
		{ID: "d1", CompanyID: "c1", FirstName: "Youssef", LastName: "Amrani"},
		{ID: "d2", CompanyID: "c1", FirstName: "Ali", LastName: "Bennani"},
	} {
		if err := f.store.PutDriver(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	opts = append([]operations.Option{operations.WithUnpricedHook(func(_ context.Context, e model.Event) {
		f.unpriced = append(f.unpriced, e.ID)
	})}, opts...)
	f.agg = operations.NewAggregator(f.store, opts...)
	return f
}

func (f *fixture) add(t *testing.T, id, driver, site string, typ model.EventType, ts time.Time, tons float64) {
	t.Helper()
	err := f.store.AppendEvent(context.Background(), model.Event{
		ID: id, CompanyID: "c1", DriverID: driver, SiteID: site, Type: typ, Timestamp: ts, Weight: model.Float(tons),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func march(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func TestRevenue(t *testing.T) {
	ctx := context.Background()
	month := operations.Scope{CompanyID: "c1", Year: 2024, Month: 3}

	Convey("Given three loading records of 10, 20 and 30 tons at an 85/t site", t, func() {
		f := newFixture(t)
		f.add(t, "e1", "d1", "s1", model.Loading, march(1, 8), 10)
		f.add(t, "e2", "d1", "s1", model.Unloading, march(1, 11), 20)
		f.add(t, "e3", "d2", "s1", model.Loading, march(1, 15), 30)

		Convey("When revenue is aggregated", func() {
			rows, err := f.agg.Revenue(ctx, month)

			Convey("Then one row sums tonnage, revenue and operations", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 1)
				So(rows[0].SiteID, ShouldEqual, "s1")
				So(rows[0].SiteName, ShouldEqual, "Quarry")
				So(rows[0].Date, ShouldEqual, "2024-03-01")
				So(rows[0].TotalTonnage, ShouldEqual, 60)
				So(rows[0].TotalRevenue, ShouldEqual, 5100)
				So(rows[0].OperationCount, ShouldEqual, 3)
			})
		})
	})

	Convey("Given records at two sites with different prices", t, func() {
		f := newFixture(t)
		f.add(t, "e1", "d1", "s2", model.Loading, march(2, 8), 5.5)
		f.add(t, "e2", "d1", "s1", model.Loading, march(2, 9), 1.25)
		f.add(t, "e3", "d2", "s1", model.Loading, march(1, 9), 2)
		f.add(t, "e4", "d2", "", model.Loading, march(1, 10), 100)
		f.add(t, "e5", "d2", "s9", model.Loading, march(1, 11), 100)
		f.add(t, "e6", "d2", "s1", model.Fuel, march(1, 12), 100)
		f.add(t, "e7", "d2", "s1", model.Loading, march(4, 0).AddDate(0, 1, 0), 100)

		Convey("When revenue is aggregated for the month", func() {
			rows, err := f.agg.Revenue(ctx, month)

			Convey("Then each record is priced at its own site only", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 3)
				total := 0.0
				for _, r := range rows {
					total += r.TotalRevenue
				}
				So(total, ShouldEqual, 5.5*40+1.25*85+2*85)
			})

			Convey("Then rows are ordered by site, then day", func() {
				So(rows[0].SiteID, ShouldEqual, "s1")
				So(rows[0].Date, ShouldEqual, "2024-03-01")
				So(rows[1].SiteID, ShouldEqual, "s1")
				So(rows[1].Date, ShouldEqual, "2024-03-02")
				So(rows[1].TotalRevenue, ShouldEqual, 106.25)
				So(rows[2].SiteID, ShouldEqual, "s2")
			})

			Convey("Then records without a known site are reported, not priced", func() {
				So(f.unpriced, ShouldResemble, []string{"e4", "e5"})
			})
		})

		Convey("When the scope is narrowed to one site", func() {
			scope := month
			scope.SiteID = "s2"
			rows, err := f.agg.Revenue(ctx, scope)

			Convey("Then only that site remains", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 1)
				So(rows[0].TotalRevenue, ShouldEqual, 220)
			})
		})

		Convey("When a day overrides the month", func() {
			rows, err := f.agg.Production(ctx, operations.Scope{CompanyID: "c1", Day: "2024-03-02"})

			Convey("Then only that day's production is returned", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 2)
				So(rows[0].Date, ShouldEqual, "2024-03-02")
				So(rows[0].TotalTonnage, ShouldEqual, 1.25)
				So(rows[1].TotalTonnage, ShouldEqual, 5.5)
			})
		})

		Convey("When a month has no records", func() {
			rows, err := f.agg.Revenue(ctx, operations.Scope{CompanyID: "c1", Year: 2024, Month: 5})

			Convey("Then the result is an empty slice", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldNotBeNil)
				So(len(rows), ShouldEqual, 0)
			})
		})
	})

	Convey("Given malformed scopes", t, func() {
		f := newFixture(t)
		_, noCompany := f.agg.Revenue(ctx, operations.Scope{Year: 2024, Month: 3})
		_, badMonth := f.agg.Production(ctx, operations.Scope{CompanyID: "c1", Year: 2024, Month: 13})
		_, badDay := f.agg.DriverSummary(ctx, operations.Scope{CompanyID: "c1", Day: "2024-02-30"})

		Convey("Then each is rejected as an invalid scope", func() {
			So(errors.Is(noCompany, operations.ErrInvalidScope), ShouldBeTrue)
			So(errors.Is(badMonth, operations.ErrInvalidScope), ShouldBeTrue)
			So(errors.Is(badDay, operations.ErrInvalidScope), ShouldBeTrue)
		})
	})
}

func TestDriverSummary(t *testing.T) {
	ctx := context.Background()

	Convey("Given two drivers working on several days", t, func() {
		f := newFixture(t)
		f.add(t, "e1", "d1", "s1", model.Loading, march(1, 8), 10)
		f.add(t, "e2", "d1", "s1", model.Loading, march(1, 14), 10)
		f.add(t, "e3", "d1", "s2", model.Unloading, march(2, 8), 10)
		f.add(t, "e4", "d2", "s1", model.Loading, march(3, 8), 1)
		f.add(t, "e5", "d3", "s1", model.Loading, march(3, 9), 1)

		Convey("When the driver summary is computed", func() {
			rows, err := f.agg.DriverSummary(ctx, operations.Scope{CompanyID: "c1", Year: 2024, Month: 3})

			Convey("Then working days count distinct calendar days", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 3)
				// unknown driver sorts first by empty name
				So(rows[0].DriverID, ShouldEqual, "d3")
				So(rows[1].Name, ShouldEqual, "Ali Bennani")
				So(rows[2].Name, ShouldEqual, "Youssef Amrani")
				d1 := rows[2]
				So(d1.TotalOperations, ShouldEqual, 3)
				So(d1.TotalTonnage, ShouldEqual, 30)
				So(d1.TotalRevenue, ShouldEqual, 10*85+10*85+10*40)
				So(d1.WorkingDays, ShouldEqual, 2)
				So(d1.AbsenceApprox, ShouldEqual, 20)
			})
		})
	})

	Convey("Given a driver who worked more days than assumed", t, func() {
		f := newFixture(t, operations.WithAssumedWorkingDays(2))
		for d := 1; d <= 3; d++ {
			f.add(t, fmt.Sprintf("e%d", d), "d1", "s1", model.Loading, march(d, 8), 1)
		}

		Convey("When the summary is computed", func() {
			rows, err := f.agg.DriverSummary(ctx, operations.Scope{CompanyID: "c1", Year: 2024, Month: 3})

			Convey("Then the absence approximation goes negative", func() {
				So(err, ShouldBeNil)
				So(f.agg.AssumedWorkingDays(), ShouldEqual, 2)
				So(rows[0].WorkingDays, ShouldEqual, 3)
				So(rows[0].AbsenceApprox, ShouldEqual, -1)
			})
		})
	})
}

func TestTimeZoneBucketing(t *testing.T) {
	Convey("Given a record at 23:30 UTC on the last day of February", t, func() {
		ctx := context.Background()
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		So(err, ShouldBeNil)
		f := newFixture(t, operations.WithLocation(tokyo))
		f.add(t, "e1", "d1", "s1", model.Loading, time.Date(2024, 2, 29, 23, 30, 0, 0, time.UTC), 1)

		Convey("When March is aggregated in Tokyo time", func() {
			rows, err := f.agg.Revenue(ctx, operations.Scope{CompanyID: "c1", Year: 2024, Month: 3})

			Convey("Then the record falls on March 1st", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 1)
				So(rows[0].Date, ShouldEqual, "2024-03-01")
			})
		})
	})
}

func TestScopeKey(t *testing.T) {
	Convey("Given scopes", t, func() {
		So(operations.Scope{CompanyID: "c1", Year: 2024, Month: 3}.Key(), ShouldEqual, "c1/2024-03/site=")
		So(operations.Scope{CompanyID: "c1", Day: "2024-03-02", SiteID: "s1"}.Key(), ShouldEqual, "c1/day=2024-03-02/site=s1")
	})
}
