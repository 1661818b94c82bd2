package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const readingColumns = `id, created_at, temperature_c, humidity, soil_moisture`

// InsertReading stores a reading and fills in its ID.
// A zero CreatedAt is set to the current time.
func (s *SQLiteStorage) InsertReading(ctx context.Context, reading *Reading) error {
	if reading.CreatedAt.IsZero() {
		reading.CreatedAt = time.Now()
	}
	reading.CreatedAt = reading.CreatedAt.UTC()

	query := `
        INSERT INTO sensor_readings
        (created_at, temperature_c, humidity, soil_moisture)
        VALUES (?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query,
		reading.CreatedAt.UnixNano(),
		nullFloat(reading.TemperatureC),
		nullFloat(reading.Humidity),
		nullFloat(reading.SoilMoisture))
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	reading.ID = id
	return nil
}

// GetRecentReadings returns up to limit readings, newest first
func (s *SQLiteStorage) GetRecentReadings(ctx context.Context, limit int) ([]*Reading, error) {
	query := `SELECT ` + readingColumns + `
              FROM sensor_readings
              ORDER BY created_at DESC, id DESC
              LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReadings(rows)
}

// GetTimeWindow returns readings taken between start and end inclusive, oldest first
func (s *SQLiteStorage) GetTimeWindow(ctx context.Context, start, end time.Time) ([]*Reading, error) {
	query := `SELECT ` + readingColumns + `
              FROM sensor_readings
              WHERE created_at >= ? AND created_at <= ?
              ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, start.UTC().UnixNano(), end.UTC().UnixNano())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReadings(rows)
}

// GetLatestReading returns the newest reading, or nil when there is none
func (s *SQLiteStorage) GetLatestReading(ctx context.Context) (*Reading, error) {
	readings, err := s.GetRecentReadings(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, nil
	}
	return readings[0], nil
}

// GetAggregates averages every reading taken at or after since
func (s *SQLiteStorage) GetAggregates(ctx context.Context, since time.Time) (*Aggregates, error) {
	query := `SELECT AVG(temperature_c), AVG(humidity), AVG(soil_moisture),
                     MIN(created_at), MAX(created_at), COUNT(id)
              FROM sensor_readings
              WHERE created_at >= ?`

	var (
		avgTemp, avgHum, avgSoil sql.NullFloat64
		first, last              sql.NullInt64
		count                    int64
	)
	err := s.db.QueryRowContext(ctx, query, since.UTC().UnixNano()).
		Scan(&avgTemp, &avgHum, &avgSoil, &first, &last, &count)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return &Aggregates{
		Since:           since.UTC(),
		Count:           int(count),
		AvgTemperatureC: floatPtr(avgTemp),
		AvgHumidity:     floatPtr(avgHum),
		AvgSoilMoisture: floatPtr(avgSoil),
		FirstReading:    timePtr(first),
		LastReading:     timePtr(last),
	}, nil
}

// Helper function to scan readings from rows
func scanReadings(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]*Reading, error) {
	var readings []*Reading
	for rows.Next() {
		var (
			r               = &Reading{}
			createdAt       int64
			temp, hum, soil sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &createdAt, &temp, &hum, &soil); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		r.TemperatureC = floatPtr(temp)
		r.Humidity = floatPtr(hum)
		r.SoilMoisture = floatPtr(soil)
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64).UTC()
	return &t
}
