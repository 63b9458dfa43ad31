package seed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/youss97/transportBackend/internal/adapters/http/api"
	"github.com/youss97/transportBackend/internal/adapters/repository"
	service "github.com/youss97/transportBackend/internal/app"
	"github.com/youss97/transportBackend/internal/domain/model"
	"github.com/youss97/transportBackend/internal/domain/operations"
	"github.com/youss97/transportBackend/internal/domain/types"
	"github.com/youss97/transportBackend/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testConfig() Config {
	return Config{
		CompanyID: "acme",
		Drivers:   5,
		Sites:     2,
		Year:      2024,
		Month:     3,
		Days:      6,
		Seed:      42,
		Workers:   4,
	}
}

func TestGenerate(t *testing.T) {
	Convey("Given a seed config", t, func() {
		cfg := testConfig()

		Convey("the same config yields the same fleet", func() {
			a, err := Generate(cfg)
			So(err, ShouldBeNil)
			b, err := Generate(cfg)
			So(err, ShouldBeNil)
			So(a, ShouldResemble, b)
		})

		Convey("another seed yields other identifiers", func() {
			a, _ := Generate(cfg)
			cfg.Seed = 43
			b, _ := Generate(cfg)
			So(a.Drivers[0].ID, ShouldNotEqual, b.Drivers[0].ID)
		})

		Convey("the fleet is consistent", func() {
			f, err := Generate(cfg)
			So(err, ShouldBeNil)
			So(f.Drivers, ShouldHaveLength, 5)
			So(f.Vehicles, ShouldHaveLength, 5)
			So(f.Sites, ShouldHaveLength, 2)
			So(f.Schedule.CompanyID, ShouldEqual, "acme")

			ids := make(map[string]struct{}, len(f.Events))
			for _, e := range f.Events {
				So(e.Validate(), ShouldBeNil)
				So(e.CompanyID, ShouldEqual, "acme")
				So(e.Timestamp.Month(), ShouldEqual, 3)
				So(e.Timestamp.Day(), ShouldBeBetweenOrEqual, 2, 7)
				ids[e.ID] = struct{}{}
			}
			So(ids, ShouldHaveLength, len(f.Events))
		})

		Convey("out of range settings are rejected", func() {
			cfg.Days = 27
			_, err := Generate(cfg)
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)

			cfg = testConfig()
			cfg.Month = 13
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)

			cfg = testConfig()
			cfg.Drivers = 0
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestRunAgainstService(t *testing.T) {
	Convey("Given an in-process service over a memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := service.New(store)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		Convey("a run loads the fleet and the ranking verifies", func() {
			rep, err := Run(ctx, testConfig(), store, svc)
			So(err, ShouldBeNil)
			So(rep.Created, ShouldEqual, rep.Events)
			So(rep.Failed, ShouldEqual, 0)
			So(rep.Ranked, ShouldBeGreaterThan, 0)

			Convey("a second run only replays duplicates", func() {
				again, err := Run(ctx, testConfig(), nil, svc)
				So(err, ShouldBeNil)
				So(again.Created, ShouldEqual, 0)
				So(again.Duplicate, ShouldEqual, again.Events)
			})
		})
	})
}

func TestRunOverHTTP(t *testing.T) {
	Convey("Given the HTTP API in front of a service", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := service.New(store)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		Reset(srv.Close)

		client := NewClient(srv.URL, 0)
		So(client.Health(ctx), ShouldBeNil)

		Convey("events posted over HTTP produce the expected ranking", func() {
			rep, err := Run(ctx, testConfig(), store, client)
			So(err, ShouldBeNil)
			So(rep.Created, ShouldEqual, rep.Events)
			So(rep.Ranked, ShouldBeGreaterThan, 0)
		})

		Convey("a replayed event is reported as a duplicate", func() {
			f, err := Generate(testConfig())
			So(err, ShouldBeNil)
			So(client.AppendEvent(ctx, f.Events[0]), ShouldBeNil)
			So(client.AppendEvent(ctx, f.Events[0]), ShouldEqual, repository.ErrDuplicateEvent)
		})

		Convey("an invalid event is a failure", func() {
			_, err := LoadEvents(ctx, client, []model.Event{{ID: "x", Type: model.ClockIn}}, 1)
			So(err, ShouldNotBeNil)
		})
	})
}

type fixedRanker []types.DriverRanking

func (r fixedRanker) Ranking(context.Context, operations.Scope, int) ([]types.DriverRanking, error) {
	return r, nil
}

func TestVerify(t *testing.T) {
	Convey("Given a generated fleet", t, func() {
		ctx := context.Background()
		cfg := testConfig()
		f, err := Generate(cfg)
		So(err, ShouldBeNil)
		want := expectedRanking(f)
		So(len(want), ShouldBeGreaterThan, 1)

		rows := make(fixedRanker, len(want))
		for i, w := range want {
			rows[i] = types.DriverRanking{Rank: i + 1}
			rows[i].DriverID = w.driverID
			rows[i].TotalOperations = w.operations
			rows[i].TotalRevenue = w.revenue.Round(2).InexactFloat64()
		}

		Convey("a matching ranking passes", func() {
			So(Verify(ctx, rows, cfg, f), ShouldBeNil)
		})

		Convey("a reordered ranking fails", func() {
			swapped := slices.Clone(rows)
			swapped[0].DriverID, swapped[1].DriverID = swapped[1].DriverID, swapped[0].DriverID
			So(errors.Is(Verify(ctx, swapped, cfg, f), ErrRankingMismatch), ShouldBeTrue)
		})

		Convey("a missing row fails", func() {
			So(errors.Is(Verify(ctx, rows[1:], cfg, f), ErrRankingMismatch), ShouldBeTrue)
		})
	})
}
