// Package types contains the report rows returned by the engine.
//
// Every row is derived on demand and never persisted. Hour, tonnage and money
// values are rounded to two decimals when the row is built.
package types

import "time"

// Break is one closed BREAK_START/BREAK_END interval.
type Break struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DailyAttendance is the reconciled attendance of one driver on one day.
type DailyAttendance struct {
	DriverID    string  `json:"driver_id"`
	Date        string  `json:"date"` // YYYY-MM-DD
	TotalHours  float64 `json:"total_hours"`
	BreakHours  float64 `json:"break_hours"`
	WorkedHours float64 `json:"worked_hours"`
	Breaks      []Break `json:"breaks"`
	Absence     bool    `json:"absence"`
	Late        bool    `json:"late"`
}

// DriverAttendance is a month of attendance for one driver with totals.
type DriverAttendance struct {
	DriverID    string            `json:"driver_id"`
	Name        string            `json:"name"`
	WorkedHours float64           `json:"worked_hours"`
	AbsentDays  int               `json:"absent_days"`
	LateDays    int               `json:"late_days"`
	Days        []DailyAttendance `json:"days"`
}

// RevenueRow is the revenue of one site on one day.
type RevenueRow struct {
	SiteID         string  `json:"site_id"`
	SiteName       string  `json:"site_name"`
	Date           string  `json:"date"`
	TotalTonnage   float64 `json:"total_tonnage"`
	TotalRevenue   float64 `json:"total_revenue"`
	OperationCount int     `json:"operation_count"`
}

// ProductionRow is the tonnage of one site on one day.
type ProductionRow struct {
	SiteID         string  `json:"site_id"`
	SiteName       string  `json:"site_name"`
	Date           string  `json:"date"`
	TotalTonnage   float64 `json:"total_tonnage"`
	OperationCount int     `json:"operation_count"`
}

// DriverSummary is the per-driver operational total over a scope.
type DriverSummary struct {
	DriverID        string  `json:"driver_id"`
	Name            string  `json:"name"`
	TotalTonnage    float64 `json:"total_tonnage"`
	TotalOperations int     `json:"total_operations"`
	TotalRevenue    float64 `json:"total_revenue"`
	WorkingDays     int     `json:"working_days"`
	AbsenceApprox   int     `json:"absence_approx"`
}

// DriverRanking is a DriverSummary with its 1-based position.
type DriverRanking struct {
	Rank int `json:"rank"`
	DriverSummary
}

// DriverPerformance summarizes one driver's activity over a period.
type DriverPerformance struct {
	DriverID        string    `json:"driver_id"`
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	TotalActivities int       `json:"total_activities"`
	FuelConsumption float64   `json:"fuel_consumption"`
	TotalDistance   float64   `json:"total_distance"`
	Incidents       int       `json:"incidents"`
}

// FuelLine is one FUEL event in a fuel report.
type FuelLine struct {
	EventID       string    `json:"event_id"`
	Timestamp     time.Time `json:"timestamp"`
	DriverID      string    `json:"driver_id"`
	DriverName    string    `json:"driver_name"`
	VehicleID     string    `json:"vehicle_id,omitempty"`
	LicensePlate  string    `json:"license_plate,omitempty"`
	Quantity      float64   `json:"quantity"`
	PricePerLiter float64   `json:"price_per_liter"`
	Cost          float64   `json:"cost"`
	Station       string    `json:"station,omitempty"`
}

// FuelReport totals the fuel fills of a company over a period.
type FuelReport struct {
	From                 time.Time  `json:"from"`
	To                   time.Time  `json:"to"`
	TotalConsumption     float64    `json:"total_consumption"`
	TotalCost            float64    `json:"total_cost"`
	AveragePricePerLiter float64    `json:"average_price_per_liter"`
	Lines                []FuelLine `json:"lines"`
}

// VehicleUtilization is how many days a vehicle worked in a period.
type VehicleUtilization struct {
	VehicleID       string  `json:"vehicle_id"`
	LicensePlate    string  `json:"license_plate"`
	Brand           string  `json:"brand"`
	Model           string  `json:"model"`
	WorkingDays     float64 `json:"working_days"` // clock events / 2
	TotalDays       int     `json:"total_days"`
	UtilizationRate int     `json:"utilization_rate"` // percent
	TotalActivities int     `json:"total_activities"`
}
