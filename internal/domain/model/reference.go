package model

import "strings"

// CompanySchedule is the per-company working-hours configuration.
type CompanySchedule struct {
	CompanyID     string `json:"company_id"`
	WorkStartHour string `json:"work_start_hour"` // HH:mm
	WorkEndHour   string `json:"work_end_hour"`   // HH:mm
	// TotalBreakHours is the break allowance applied when no break was recorded.
	TotalBreakHours *float64 `json:"total_break_hours,omitempty"`
}

// Site is a loading location with its price per ton.
type Site struct {
	ID          string  `json:"id"`
	CompanyID   string  `json:"company_id"`
	Name        string  `json:"name"`
	PricePerTon float64 `json:"price_per_ton"`
}

// Driver identifies a company driver for display purposes.
type Driver struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName joins first and last names.
func (d Driver) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// Vehicle is a company vehicle.
type Vehicle struct {
	ID           string `json:"id"`
	CompanyID    string `json:"company_id"`
	LicensePlate string `json:"license_plate"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
}
