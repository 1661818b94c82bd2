package advisor

import (
	"strings"

	"github.com/NissesSenap/agri-dashboard/internal/storage"
)

// Thresholds for the rule-based fallback. Soil values are raw analog readings.
const (
	HeatStressC        = 32.0
	LowHumidityPct     = 35.0
	DrySoilRaw         = 400.0
	WaterloggedSoilRaw = 700.0
)

// Heuristic produces a rule-based recommendation. note, when set, explains why
// the model was not used.
func Heuristic(agg *storage.Aggregates, note string) string {
	if agg == nil {
		agg = &storage.Aggregates{}
	}

	var stress, irrigation []string
	if t := agg.AvgTemperatureC; t != nil && *t > HeatStressC {
		stress = append(stress, "High temperature may cause heat stress.")
	}
	if h := agg.AvgHumidity; h != nil && *h < LowHumidityPct {
		stress = append(stress, "Low humidity could increase transpiration and stress.")
	}

	s := agg.AvgSoilMoisture
	switch {
	case s != nil && *s < DrySoilRaw:
		irrigation = append(irrigation, "Soil moisture low: consider watering soon.")
	case s != nil && *s > WaterloggedSoilRaw:
		irrigation = append(irrigation, "Soil moisture high: delay irrigation to prevent root issues.")
	default:
		irrigation = append(irrigation, "Maintain regular irrigation schedule.")
	}

	notes := []string{
		"Mulch to reduce evaporation.",
		"Irrigate early morning or late evening.",
	}

	out := []string{"Heuristic recommendation (Ollama unavailable):"}
	if note != "" {
		out = append(out, "- Note: "+note)
	}
	if len(stress) > 0 {
		out = append(out, "- Crop stress:")
		out = append(out, indent(stress)...)
	}
	out = append(out, "- Irrigation:")
	out = append(out, indent(irrigation)...)
	out = append(out, "- Preventive measures:")
	out = append(out, indent(notes)...)
	return strings.Join(out, "\n")
}

func indent(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = "  - " + item
	}
	return out
}
