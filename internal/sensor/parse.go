// Package sensor turns lines from the field controller into stored readings.
//
// The controller prints one reading per line, either as JSON
//
//	{"temperature_c": 24.5, "humidity": 55.2, "soil_moisture": 620}
//
// or as CSV in the order temperature, humidity, soil moisture.
package sensor

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/NissesSenap/agri-dashboard/internal/storage"
)

var (
	// ErrEmptyLine is returned for blank lines, which the reader skips silently
	ErrEmptyLine = errors.New("empty line")
	// ErrUnparsable is returned when a line carries none of the three values
	ErrUnparsable = errors.New("unparsable sensor line")
)

// ParseLine parses a JSON or CSV sensor line.
// Values that cannot be read as numbers are left nil.
func ParseLine(line string) (*storage.Reading, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrEmptyLine
	}

	var r *storage.Reading
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(line), &fields); err == nil {
		r = &storage.Reading{
			TemperatureC: toFloat(fields["temperature_c"]),
			Humidity:     toFloat(fields["humidity"]),
			SoilMoisture: toFloat(fields["soil_moisture"]),
		}
	} else {
		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			return nil, ErrUnparsable
		}
		r = &storage.Reading{
			TemperatureC: toFloat(parts[0]),
			Humidity:     toFloat(parts[1]),
			SoilMoisture: toFloat(parts[2]),
		}
	}

	if r.TemperatureC == nil && r.Humidity == nil && r.SoilMoisture == nil {
		return nil, ErrUnparsable
	}
	return r, nil
}

func toFloat(v interface{}) *float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
