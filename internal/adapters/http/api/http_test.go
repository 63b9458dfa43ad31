package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/youss97/transportBackend/internal/adapters/http/api"
	"github.com/youss97/transportBackend/internal/adapters/repository"
	service "github.com/youss97/transportBackend/internal/app"
	"github.com/youss97/transportBackend/internal/domain/attendance"
	"github.com/youss97/transportBackend/internal/domain/model"
	"github.com/youss97/transportBackend/internal/domain/operations"
	"github.com/youss97/transportBackend/internal/domain/types"
	"github.com/youss97/transportBackend/pkg/logger"
)

func init() {
	_ = logger.Init()
}

// mockDeps records the arguments it was called with and returns err when set.
type mockDeps struct {
	err error

	events    []model.Event
	seen      map[string]bool
	day       time.Time
	scope     operations.Scope
	limit     int
	from, to  time.Time
	driverID  string
	companyID string
}

func (m *mockDeps) AppendEvent(_ context.Context, e model.Event) error {
	if m.err != nil {
		return m.err
	}
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[e.ID] {
		return fmt.Errorf("%w: %s", repository.ErrDuplicateEvent, e.ID)
	}
	m.seen[e.ID] = true
	m.events = append(m.events, e)
	return nil
}

func (m *mockDeps) DailyAttendance(_ context.Context, driverID, companyID string, day time.Time) (types.DailyAttendance, error) {
	m.driverID, m.companyID, m.day = driverID, companyID, day
	return types.DailyAttendance{DriverID: driverID, Date: day.Format("2006-01-02"), Breaks: []types.Break{}}, m.err
}

func (m *mockDeps) MonthlyAttendance(_ context.Context, driverID, companyID string, _, _ int, _ string) ([]types.DailyAttendance, error) {
	m.driverID, m.companyID = driverID, companyID
	return []types.DailyAttendance{}, m.err
}

func (m *mockDeps) CompanyAttendance(_ context.Context, companyID string, _, _ int, _ string) ([]types.DriverAttendance, error) {
	m.companyID = companyID
	return []types.DriverAttendance{}, m.err
}

func (m *mockDeps) Revenue(_ context.Context, s operations.Scope) ([]types.RevenueRow, error) {
	m.scope = s
	return []types.RevenueRow{}, m.err
}

func (m *mockDeps) Production(_ context.Context, s operations.Scope) ([]types.ProductionRow, error) {
	m.scope = s
	return []types.ProductionRow{}, m.err
}

func (m *mockDeps) DriverSummary(_ context.Context, s operations.Scope) ([]types.DriverSummary, error) {
	m.scope = s
	return []types.DriverSummary{}, m.err
}

func (m *mockDeps) Ranking(_ context.Context, s operations.Scope, limit int) ([]types.DriverRanking, error) {
	m.scope, m.limit = s, limit
	return []types.DriverRanking{}, m.err
}

func (m *mockDeps) Performance(_ context.Context, companyID, driverID string, from, to time.Time) (types.DriverPerformance, error) {
	m.companyID, m.driverID, m.from, m.to = companyID, driverID, from, to
	return types.DriverPerformance{DriverID: driverID, From: from, To: to}, m.err
}

func (m *mockDeps) FuelReport(_ context.Context, companyID string, from, to time.Time) (types.FuelReport, error) {
	m.companyID, m.from, m.to = companyID, from, to
	return types.FuelReport{Lines: []types.FuelLine{}}, m.err
}

func (m *mockDeps) VehicleUtilization(_ context.Context, companyID string, from, to time.Time) ([]types.VehicleUtilization, error) {
	m.companyID, m.from, m.to = companyID, from, to
	return []types.VehicleUtilization{}, m.err
}

type mockStats struct{}

func (mockStats) GetStats() map[string]any { return map[string]any{"started": true} }

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStats{}, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

func TestPostEvent(t *testing.T) {
	Convey("Given the events route", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("A valid event without id is created with a generated id", func() {
			w := do(mux, http.MethodPost, "/events",
				`{"company_id":"c1","driver_id":"d1","type":"loading","site_id":"s1","weight":12.5,"timestamp":"2024-03-04T10:00:00Z"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(len(deps.events), ShouldEqual, 1)
			So(deps.events[0].ID, ShouldNotBeEmpty)
			So(deps.events[0].Type, ShouldEqual, model.Loading)
			So(*deps.events[0].Weight, ShouldEqual, 12.5)
		})

		Convey("A replayed id is acknowledged as a duplicate", func() {
			body := `{"id":"e1","company_id":"c1","driver_id":"d1","type":"CLOCK_IN","timestamp":"2024-03-04T08:00:00Z"}`
			So(do(mux, http.MethodPost, "/events", body).Code, ShouldEqual, http.StatusCreated)
			w := do(mux, http.MethodPost, "/events", body)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"duplicate":true`)
		})

		Convey("Malformed requests are rejected", func() {
			So(do(mux, http.MethodPost, "/events", `{`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/events",
				`{"driver_id":"d1","type":"CLOCK_IN","timestamp":"2024-03-04T08:00:00Z"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/events",
				`{"company_id":"c1","driver_id":"d1","type":"NAP","timestamp":"2024-03-04T08:00:00Z"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/events",
				`{"company_id":"c1","driver_id":"d1","type":"FUEL","timestamp":"yesterday"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/events",
				`{"company_id":"c1","driver_id":"d1","type":"FUEL","fuel_quantity":-3,"timestamp":"2024-03-04T08:00:00Z"}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Other methods are not routed", func() {
			So(do(mux, http.MethodGet, "/events", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAttendanceRoutes(t *testing.T) {
	Convey("Given the attendance routes in Tokyo time", t, func() {
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		So(err, ShouldBeNil)
		deps := &mockDeps{}
		mux := newMux(deps, api.WithLocation(tokyo))

		Convey("Daily attendance reads the date in the configured zone", func() {
			w := do(mux, http.MethodGet, "/attendance/daily?company_id=c1&driver_id=d1&date=2024-03-04", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.day.Location().String(), ShouldEqual, "Asia/Tokyo")
			So(deps.day.Day(), ShouldEqual, 4)
		})

		Convey("Daily attendance needs a well formed date", func() {
			w := do(mux, http.MethodGet, "/attendance/daily?company_id=c1&driver_id=d1&date=04/03/2024", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Monthly attendance needs a driver and a valid month", func() {
			So(do(mux, http.MethodGet, "/attendance/monthly?company_id=c1&year=2024&month=3", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/attendance/monthly?company_id=c1&driver_id=d1&year=2024&month=13", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/attendance/monthly?company_id=c1&driver_id=d1&year=2024&month=x", "").Code, ShouldEqual, http.StatusBadRequest)
			w := do(mux, http.MethodGet, "/attendance/monthly?company_id=c1&driver_id=d1&year=2024&month=3", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
		})

		Convey("A missing schedule maps to 422", func() {
			deps.err = fmt.Errorf("company c1: %w", attendance.ErrConfigurationMissing)
			w := do(mux, http.MethodGet, "/attendance/monthly?company_id=c1&driver_id=d1&year=2024&month=3", "")
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(errorCode(w), ShouldEqual, "configuration_missing")
		})

		Convey("Backpressure on the company fan-out maps to 429", func() {
			deps.err = fmt.Errorf("%w: 3 of 9 drivers queued", service.ErrBackpressure)
			w := do(mux, http.MethodGet, "/attendance/company?company_id=c1&year=2024&month=3", "")
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorCode(w), ShouldEqual, "backpressure")
		})
	})
}

func TestOperationsRoutes(t *testing.T) {
	Convey("Given the operations routes", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps, api.WithMaxRankingLimit(100))

		Convey("A month scope is passed through", func() {
			w := do(mux, http.MethodGet, "/operations/revenue?company_id=c1&year=2024&month=3&site_id=s1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.scope, ShouldResemble, operations.Scope{CompanyID: "c1", Year: 2024, Month: 3, SiteID: "s1"})
		})

		Convey("A day scope needs no month", func() {
			w := do(mux, http.MethodGet, "/operations/production?company_id=c1&day=2024-03-04", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.scope.Day, ShouldEqual, "2024-03-04")
		})

		Convey("Scopes without company or period are rejected", func() {
			So(do(mux, http.MethodGet, "/operations/drivers?year=2024&month=3", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/operations/drivers?company_id=c1", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Ranking limits are validated", func() {
			So(do(mux, http.MethodGet, "/ranking?company_id=c1&year=2024&month=3&limit=abc", "").Code, ShouldEqual, http.StatusBadRequest)
			w := do(mux, http.MethodGet, "/ranking?company_id=c1&year=2024&month=3&limit=500", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "limit_exceeded")

			So(do(mux, http.MethodGet, "/ranking?company_id=c1&year=2024&month=3&limit=5", "").Code, ShouldEqual, http.StatusOK)
			So(deps.limit, ShouldEqual, 5)
		})

		Convey("Store failures map to 500", func() {
			deps.err = errors.New("disk on fire")
			w := do(mux, http.MethodGet, "/ranking?company_id=c1&year=2024&month=3", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(errorCode(w), ShouldEqual, "internal_error")
		})
	})
}

func TestActivityRoutes(t *testing.T) {
	Convey("Given the activity routes", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("From and to cover both days entirely", func() {
			w := do(mux, http.MethodGet, "/activity/fuel?company_id=c1&from=2024-03-01&to=2024-03-10", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.from, ShouldEqual, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
			So(deps.to, ShouldEqual, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC).Add(-time.Millisecond))
		})

		Convey("Performance needs a driver", func() {
			So(do(mux, http.MethodGet, "/activity/performance?company_id=c1&from=2024-03-01&to=2024-03-10", "").Code,
				ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/activity/performance?company_id=c1&driver_id=d1&from=2024-03-01&to=2024-03-10", "").Code,
				ShouldEqual, http.StatusOK)
		})

		Convey("Missing dates are rejected", func() {
			So(do(mux, http.MethodGet, "/activity/utilization?company_id=c1&from=2024-03-01", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestServiceRoutes(t *testing.T) {
	Convey("Given the API over a real service", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		So(store.PutSite(ctx, model.Site{ID: "s1", CompanyID: "c1", Name: "Port", PricePerTon: 40}), ShouldBeNil)
		So(store.PutDriver(ctx, model.Driver{ID: "d1", CompanyID: "c1", FirstName: "Nadia", LastName: "Tazi"}), ShouldBeNil)
		svc := service.New(store)
		mux := newMux(svc)

		Convey("A posted operation shows up in the ranking", func() {
			w := do(mux, http.MethodPost, "/events",
				`{"id":"op-1","company_id":"c1","driver_id":"d1","site_id":"s1","type":"UNLOADING","weight":2.5,"timestamp":"2024-03-04T10:00:00Z"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)

			w = do(mux, http.MethodGet, "/ranking?company_id=c1&year=2024&month=3", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var rows []types.DriverRanking
			So(json.Unmarshal(w.Body.Bytes(), &rows), ShouldBeNil)
			So(len(rows), ShouldEqual, 1)
			So(rows[0].Rank, ShouldEqual, 1)
			So(rows[0].Name, ShouldEqual, "Nadia Tazi")
			So(rows[0].TotalRevenue, ShouldEqual, 100)
		})

		Convey("A company without a schedule gets 422 for monthly attendance", func() {
			w := do(mux, http.MethodGet, "/attendance/monthly?company_id=c1&driver_id=d1&year=2024&month=3", "")
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given the operational routes", t, func() {
		mux := newMux(&mockDeps{})

		Convey("Health exposes prometheus metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "fleetops_")
		})

		Convey("Stats returns the provider's map", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})
	})
}
