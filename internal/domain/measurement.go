package domain

import "time"

// MeasurementType describes one kind of body measurement (weight, waist, ...).
// System types are shared by everyone; custom types belong to the user who
// created them (CreatedBy != 0).
type MeasurementType struct {
	ID          int64
	Name        string // translation key for system types, raw name for custom ones
	Unit        string // kg, cm, %, ...
	Description string
	Active      bool
	Custom      bool
	CreatedBy   int64 // 0 for system types
	CreatedAt   time.Time
}

// TrackedType is a measurement type a user has enabled for tracking.
type TrackedType struct {
	ID        int64
	UserID    int64
	Type      MeasurementType
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Measurement is a single recorded value.
type Measurement struct {
	ID         int64
	UserID     int64
	TypeID     int64
	Type       *MeasurementType // populated by list queries
	Value      float64
	MeasuredAt time.Time
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MeasurementStats summarizes all measurements of one type for one user.
type MeasurementStats struct {
	Count   int
	Average float64
	Min     float64
	Max     float64
}

// DefaultMeasurementTypes is the system catalog seeded on first start.
// Names are i18n keys under measurement_types.*.
var DefaultMeasurementTypes = []MeasurementType{
	{Name: "weight", Unit: "kg"},
	{Name: "chest", Unit: "cm"},
	{Name: "waist", Unit: "cm"},
	{Name: "hips", Unit: "cm"},
	{Name: "biceps", Unit: "cm"},
	{Name: "thigh", Unit: "cm"},
	{Name: "neck", Unit: "cm"},
	{Name: "body_fat", Unit: "%"},
}
