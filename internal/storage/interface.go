package storage

import (
	"context"
	"time"
)

// Store defines the interface for all storage operations
// This allows swapping SQLite for PostgreSQL in the future
type Store interface {
	// Readings
	InsertReading(ctx context.Context, reading *Reading) error
	GetRecentReadings(ctx context.Context, limit int) ([]*Reading, error)
	GetTimeWindow(ctx context.Context, start, end time.Time) ([]*Reading, error)
	GetLatestReading(ctx context.Context) (*Reading, error)

	// Aggregates
	GetAggregates(ctx context.Context, since time.Time) (*Aggregates, error)

	// Lifecycle
	Close() error
}

// Reading is a single sensor sample. A nil value means the sensor did not report it.
type Reading struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	TemperatureC *float64  `json:"temperature_c"`
	Humidity     *float64  `json:"humidity"`
	SoilMoisture *float64  `json:"soil_moisture"`
}

// Aggregates summarises the readings taken since a point in time
type Aggregates struct {
	Since           time.Time  `json:"since"`
	Count           int        `json:"count"`
	AvgTemperatureC *float64   `json:"avg_temperature_c"`
	AvgHumidity     *float64   `json:"avg_humidity"`
	AvgSoilMoisture *float64   `json:"avg_soil_moisture"`
	FirstReading    *time.Time `json:"first_reading"`
	LastReading     *time.Time `json:"last_reading"`
}

// Float returns a pointer to v, for building readings
func Float(v float64) *float64 {
	return &v
}
