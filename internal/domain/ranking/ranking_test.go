package ranking_test

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
	"github.com/youss97/transportBackend/internal/domain/ranking"
	"github.com/youss97/transportBackend/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

type failingSource struct{ err error }

func (f failingSource) DriverTotals(context.Context, operations.Scope) ([]operations.DriverTotal, error) {
	return nil, f.err
}

func load(store *repository.MemoryStore, id, driver string, day int, tons float64) {
	_ = store.AppendEvent(context.Background(), model.Event{
		ID: id, CompanyID: "c1", DriverID: driver, SiteID: "s1", Type: model.Loading,
		Timestamp: time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC), Weight: model.Float(tons),
	})
}

func TestRank(t *testing.T) {
	ctx := context.Background()

	Convey("Given drivers A (revenue 500) and B (revenue 800)", t, func() {
		store := repository.NewMemoryStore()
		So(store.PutSite(ctx, model.Site{ID: "s1", CompanyID: "c1", Name: "Quarry", PricePerTon: 10}), ShouldBeNil)
		So(store.PutDriver(ctx, model.Driver{ID: "A", CompanyID: "c1", FirstName: "Ali"}), ShouldBeNil)
		load(store, "a1", "A", 1, 20)
		load(store, "a2", "A", 2, 30)
		load(store, "b1", "B", 1, 80)
		engine := ranking.NewEngine(operations.NewAggregator(store))
		scope := operations.Scope{CompanyID: "c1", Year: 2024, Month: 3}

		Convey("When they are ranked", func() {
			rows, err := engine.Rank(ctx, scope)

			Convey("Then B comes before A", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 2)
				So(rows[0].DriverID, ShouldEqual, "B")
				So(rows[0].Rank, ShouldEqual, 1)
				So(rows[0].TotalRevenue, ShouldEqual, 800)
				So(rows[0].Name, ShouldEqual, "")
				So(rows[1].DriverID, ShouldEqual, "A")
				So(rows[1].Rank, ShouldEqual, 2)
				So(rows[1].TotalRevenue, ShouldEqual, 500)
				So(rows[1].Name, ShouldEqual, "Ali")
				So(rows[1].WorkingDays, ShouldEqual, 2)
				So(rows[1].AbsenceApprox, ShouldEqual, 20)
			})
		})

		Convey("When two drivers tie on revenue", func() {
			load(store, "c1", "C", 3, 30)
			load(store, "c2", "C", 4, 20)
			rows, err := engine.Rank(ctx, scope)

			Convey("Then the lower driver ID ranks first", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 3)
				So(rows[1].DriverID, ShouldEqual, "A")
				So(rows[2].DriverID, ShouldEqual, "C")
				So(rows[2].Rank, ShouldEqual, 3)
			})
		})

		Convey("When the same ranking is requested twice", func() {
			first, _ := engine.Rank(ctx, scope)
			second, _ := engine.Rank(ctx, scope)

			Convey("Then the output is identical", func() {
				So(second, ShouldResemble, first)
			})
		})

		Convey("When the scope has no records", func() {
			rows, err := engine.Rank(ctx, operations.Scope{CompanyID: "c1", Year: 2024, Month: 4})

			Convey("Then the ranking is empty, not an error", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldNotBeNil)
				So(len(rows), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a failing source", t, func() {
		boom := errors.New("boom")
		_, err := ranking.NewEngine(failingSource{err: boom}).Rank(ctx, operations.Scope{CompanyID: "c1"})

		Convey("Then the error propagates", func() {
			So(err, ShouldEqual, boom)
		})
	})
}
