// Package advisor asks a local Ollama model for crop care advice based on
// recent sensor aggregates, and falls back to fixed agronomy rules when the
// model cannot be reached.
package advisor

import (
	"fmt"
	"strings"
	"time"

	"github.com/NissesSenap/agri-dashboard/internal/storage"
)

var instructions = []string{
	"You are an agronomy assistant. Analyze environmental sensor data and provide:",
	"1) Brief assessment of crop stress risk",
	"2) Irrigation recommendation (when/how much)",
	"3) Preventive measures",
	"4) Any anomalies to check",
	"Use clear, concise bullet points.",
}

// BuildPrompt renders the model prompt for a set of aggregates
func BuildPrompt(agg *storage.Aggregates) string {
	lines := append([]string{}, instructions...)
	lines = append(lines, "", "Sensor aggregates (last window):")

	if agg == nil {
		agg = &storage.Aggregates{}
	}
	fields := []struct {
		key   string
		value string
	}{
		{"avg_temperature_c", formatFloat(agg.AvgTemperatureC)},
		{"avg_humidity", formatFloat(agg.AvgHumidity)},
		{"avg_soil_moisture", formatFloat(agg.AvgSoilMoisture)},
		{"since", agg.Since.Format(time.RFC3339)},
		{"count", fmt.Sprint(agg.Count)},
		{"last_reading", formatTime(agg.LastReading)},
	}
	for _, f := range fields {
		lines = append(lines, fmt.Sprintf("- %s: %s", f.key, f.value))
	}
	return strings.Join(lines, "\n")
}

func formatFloat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatTime(v *time.Time) string {
	if v == nil {
		return "n/a"
	}
	return v.Format(time.RFC3339)
}
