package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/youss97/transportBackend/internal/domain/model"
	"github.com/youss97/transportBackend/pkg/metrics"
)

// eventRecord is the persisted form of model.Event.
// Timestamps are stored as UTC unix milliseconds so range filters compare integers.
type eventRecord struct {
	ID           string   `gorm:"column:id;primaryKey"`
	CompanyID    string   `gorm:"column:company_id;not null;index:idx_events_company_ts,priority:1"`
	DriverID     string   `gorm:"column:driver_id;not null;index"`
	VehicleID    string   `gorm:"column:vehicle_id;index"`
	SiteID       string   `gorm:"column:site_id"`
	Type         string   `gorm:"column:type;not null"`
	TimestampMs  int64    `gorm:"column:ts_ms;not null;index:idx_events_company_ts,priority:2"`
	Kilometers   *float64 `gorm:"column:kilometers"`
	Weight       *float64 `gorm:"column:weight"`
	FuelQuantity *float64 `gorm:"column:fuel_quantity"`
	FuelPrice    *float64 `gorm:"column:fuel_price"`
	FuelStation  string   `gorm:"column:fuel_station"`
	Notes        string   `gorm:"column:notes"`
}

func (eventRecord) TableName() string { return "events" }

type scheduleRecord struct {
	CompanyID       string   `gorm:"column:company_id;primaryKey"`
	WorkStartHour   string   `gorm:"column:work_start_hour;not null"`
	WorkEndHour     string   `gorm:"column:work_end_hour;not null"`
	TotalBreakHours *float64 `gorm:"column:total_break_hours"`
}

func (scheduleRecord) TableName() string { return "company_schedules" }

type siteRecord struct {
	ID          string  `gorm:"column:id;primaryKey"`
	CompanyID   string  `gorm:"column:company_id;not null;index"`
	Name        string  `gorm:"column:name"`
	PricePerTon float64 `gorm:"column:price_per_ton;not null"`
}

func (siteRecord) TableName() string { return "sites" }

type driverRecord struct {
	ID        string `gorm:"column:id;primaryKey"`
	CompanyID string `gorm:"column:company_id;not null;index"`
	FirstName string `gorm:"column:first_name"`
	LastName  string `gorm:"column:last_name"`
}

func (driverRecord) TableName() string { return "drivers" }

type vehicleRecord struct {
	ID           string `gorm:"column:id;primaryKey"`
	CompanyID    string `gorm:"column:company_id;not null;index"`
	LicensePlate string `gorm:"column:license_plate"`
	Brand        string `gorm:"column:brand"`
	Model        string `gorm:"column:model"`
}

func (vehicleRecord) TableName() string { return "vehicles" }

// GormStore persists events and reference data through gorm.
type GormStore struct {
	db          *gorm.DB
	autoMigrate bool
	logLevel    logger.LogLevel
}

// OpenSQLite opens a sqlite database for use with NewGormStore.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	return db, nil
}

// NewGormStore wraps db. Tables are migrated unless WithAutoMigrate(false).
func NewGormStore(ctx context.Context, db *gorm.DB, opts ...Option) (*GormStore, error) {
	s := &GormStore{autoMigrate: true, logLevel: logger.Silent}
	for _, opt := range opts {
		opt(s)
	}
	s.db = db.Session(&gorm.Session{Logger: db.Logger.LogMode(s.logLevel)})
	if s.autoMigrate {
		err := s.db.WithContext(ctx).AutoMigrate(
			&eventRecord{}, &scheduleRecord{}, &siteRecord{}, &driverRecord{}, &vehicleRecord{},
		)
		if err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return s, nil
}

func (s *GormStore) AppendEvent(ctx context.Context, e model.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	rec := toEventRecord(e)
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return fmt.Errorf("append event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, e.ID)
	}
	return nil
}

func (s *GormStore) ListEvents(ctx context.Context, f EventFilter) ([]model.Event, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("list_events", since(start)) }()

	q := s.db.WithContext(ctx).Where("company_id = ?", f.CompanyID)
	if f.DriverID != "" {
		q = q.Where("driver_id = ?", f.DriverID)
	}
	if f.VehicleID != "" {
		q = q.Where("vehicle_id = ?", f.VehicleID)
	}
	if f.SiteID != "" {
		q = q.Where("site_id = ?", f.SiteID)
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		q = q.Where("type IN ?", types)
	}
	if !f.From.IsZero() {
		q = q.Where("ts_ms >= ?", f.From.UnixMilli())
	}
	if !f.To.IsZero() {
		q = q.Where("ts_ms <= ?", f.To.UnixMilli())
	}

	var recs []eventRecord
	if err := q.Order("ts_ms ASC, id ASC").Find(&recs).Error; err != nil {
		metrics.RecordErrorByComponent("store", "query")
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]model.Event, len(recs))
	for i, r := range recs {
		out[i] = r.toModel()
	}
	return out, nil
}

func (s *GormStore) GetSchedule(ctx context.Context, companyID string) (model.CompanySchedule, error) {
	var rec scheduleRecord
	err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CompanySchedule{}, fmt.Errorf("schedule for company %s: %w", companyID, ErrNotFound)
	}
	if err != nil {
		return model.CompanySchedule{}, fmt.Errorf("get schedule: %w", err)
	}
	return model.CompanySchedule{
		CompanyID:       rec.CompanyID,
		WorkStartHour:   rec.WorkStartHour,
		WorkEndHour:     rec.WorkEndHour,
		TotalBreakHours: rec.TotalBreakHours,
	}, nil
}

func (s *GormStore) ListSites(ctx context.Context, companyID string) ([]model.Site, error) {
	var recs []siteRecord
	if err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	out := make([]model.Site, len(recs))
	for i, r := range recs {
		out[i] = model.Site{ID: r.ID, CompanyID: r.CompanyID, Name: r.Name, PricePerTon: r.PricePerTon}
	}
	return out, nil
}

func (s *GormStore) ListDrivers(ctx context.Context, companyID string) ([]model.Driver, error) {
	var recs []driverRecord
	if err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	out := make([]model.Driver, len(recs))
	for i, r := range recs {
		out[i] = model.Driver{ID: r.ID, CompanyID: r.CompanyID, FirstName: r.FirstName, LastName: r.LastName}
	}
	return out, nil
}

func (s *GormStore) ListVehicles(ctx context.Context, companyID string) ([]model.Vehicle, error) {
	var recs []vehicleRecord
	if err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	out := make([]model.Vehicle, len(recs))
	for i, r := range recs {
		out[i] = model.Vehicle{
			ID: r.ID, CompanyID: r.CompanyID, LicensePlate: r.LicensePlate, Brand: r.Brand, Model: r.Model,
		}
	}
	return out, nil
}

func (s *GormStore) PutSchedule(ctx context.Context, sc model.CompanySchedule) error {
	rec := scheduleRecord{
		CompanyID:       sc.CompanyID,
		WorkStartHour:   sc.WorkStartHour,
		WorkEndHour:     sc.WorkEndHour,
		TotalBreakHours: sc.TotalBreakHours,
	}
	return s.upsert(ctx, &rec)
}

func (s *GormStore) PutSite(ctx context.Context, site model.Site) error {
	return s.upsert(ctx, &siteRecord{ID: site.ID, CompanyID: site.CompanyID, Name: site.Name, PricePerTon: site.PricePerTon})
}

func (s *GormStore) PutDriver(ctx context.Context, d model.Driver) error {
	return s.upsert(ctx, &driverRecord{ID: d.ID, CompanyID: d.CompanyID, FirstName: d.FirstName, LastName: d.LastName})
}

func (s *GormStore) PutVehicle(ctx context.Context, v model.Vehicle) error {
	return s.upsert(ctx, &vehicleRecord{
		ID: v.ID, CompanyID: v.CompanyID, LicensePlate: v.LicensePlate, Brand: v.Brand, Model: v.Model,
	})
}

func (s *GormStore) upsert(ctx context.Context, rec any) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error; err != nil {
		return fmt.Errorf("upsert %T: %w", rec, err)
	}
	return nil
}

func (s *GormStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)
	if err := db.Model(&eventRecord{}).Count(&st.Events).Error; err != nil {
		return Stats{}, fmt.Errorf("count events: %w", err)
	}
	if err := db.Model(&eventRecord{}).Distinct("company_id").Count(&st.Companies).Error; err != nil {
		return Stats{}, fmt.Errorf("count companies: %w", err)
	}
	if err := db.Model(&siteRecord{}).Count(&st.Sites).Error; err != nil {
		return Stats{}, fmt.Errorf("count sites: %w", err)
	}
	if err := db.Model(&driverRecord{}).Count(&st.Drivers).Error; err != nil {
		return Stats{}, fmt.Errorf("count drivers: %w", err)
	}
	return st, nil
}

// Close closes the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toEventRecord(e model.Event) eventRecord {
	return eventRecord{
		ID:           e.ID,
		CompanyID:    e.CompanyID,
		DriverID:     e.DriverID,
		VehicleID:    e.VehicleID,
		SiteID:       e.SiteID,
		Type:         string(e.Type),
		TimestampMs:  e.Timestamp.UnixMilli(),
		Kilometers:   e.Kilometers,
		Weight:       e.Weight,
		FuelQuantity: e.FuelQuantity,
		FuelPrice:    e.FuelPrice,
		FuelStation:  e.FuelStation,
		Notes:        e.Notes,
	}
}

func (r eventRecord) toModel() model.Event {
	return model.Event{
		ID:           r.ID,
		CompanyID:    r.CompanyID,
		DriverID:     r.DriverID,
		VehicleID:    r.VehicleID,
		SiteID:       r.SiteID,
		Type:         model.EventType(r.Type),
		Timestamp:    time.UnixMilli(r.TimestampMs).UTC(),
		Kilometers:   r.Kilometers,
		Weight:       r.Weight,
		FuelQuantity: r.FuelQuantity,
		FuelPrice:    r.FuelPrice,
		FuelStation:  r.FuelStation,
		Notes:        r.Notes,
	}
}
