package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/youss97/transportBackend/internal/domain/calendar"
	"github.com/youss97/transportBackend/internal/domain/operations"
)

var validate = validator.New()

type dayQuery struct {
	CompanyID string `validate:"required"`
	DriverID  string `validate:"required"`
	Date      string `validate:"required,datetime=2006-01-02"`
}

type monthQuery struct {
	CompanyID string `validate:"required"`
	DriverID  string
	Year      int `validate:"min=1970,max=9999"`
	Month     int `validate:"min=1,max=12"`
	SiteID    string
}

type scopeQuery struct {
	CompanyID string `validate:"required"`
	Year      int    `validate:"required_without=Day,omitempty,min=1970,max=9999"`
	Month     int    `validate:"required_without=Day,omitempty,min=1,max=12"`
	Day       string `validate:"omitempty,datetime=2006-01-02"`
	SiteID    string
	Limit     int `validate:"min=0"`
}

type rangeQuery struct {
	CompanyID string `validate:"required"`
	DriverID  string
	From      string `validate:"required,datetime=2006-01-02"`
	To        string `validate:"required,datetime=2006-01-02"`
}

func param(q url.Values, key string) string {
	return strings.TrimSpace(q.Get(key))
}

// intParam reads an optional integer; absent means zero.
func intParam(q url.Values, key string) (int, error) {
	raw := param(q, key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, ErrBadRequest)
	}
	return n, nil
}

func parseDayQuery(q url.Values) (dayQuery, error) {
	dq := dayQuery{
		CompanyID: param(q, "company_id"),
		DriverID:  param(q, "driver_id"),
		Date:      param(q, "date"),
	}
	return dq, validate.Struct(dq)
}

func parseMonthQuery(q url.Values) (monthQuery, error) {
	mq := monthQuery{
		CompanyID: param(q, "company_id"),
		DriverID:  param(q, "driver_id"),
		SiteID:    param(q, "site_id"),
	}
	var err error
	if mq.Year, err = intParam(q, "year"); err != nil {
		return mq, err
	}
	if mq.Month, err = intParam(q, "month"); err != nil {
		return mq, err
	}
	return mq, validate.Struct(mq)
}

func parseScopeQuery(q url.Values) (scopeQuery, error) {
	sq := scopeQuery{
		CompanyID: param(q, "company_id"),
		Day:       param(q, "day"),
		SiteID:    param(q, "site_id"),
	}
	var err error
	if sq.Year, err = intParam(q, "year"); err != nil {
		return sq, err
	}
	if sq.Month, err = intParam(q, "month"); err != nil {
		return sq, err
	}
	if sq.Limit, err = intParam(q, "limit"); err != nil {
		return sq, err
	}
	return sq, validate.Struct(sq)
}

func (sq scopeQuery) scope() operations.Scope {
	return operations.Scope{
		CompanyID: sq.CompanyID,
		Year:      sq.Year,
		Month:     sq.Month,
		SiteID:    sq.SiteID,
		Day:       sq.Day,
	}
}

func parseRangeQuery(q url.Values) (rangeQuery, error) {
	rq := rangeQuery{
		CompanyID: param(q, "company_id"),
		DriverID:  param(q, "driver_id"),
		From:      param(q, "from"),
		To:        param(q, "to"),
	}
	return rq, validate.Struct(rq)
}

// window turns the from and to days into an inclusive range covering both
// days entirely.
func (rq rangeQuery) window(loc *time.Location) (time.Time, time.Time, error) {
	from, err := calendar.ParseDay(rq.From, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := calendar.ParseDay(rq.To, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, calendar.Day(to, loc).To, nil
}
