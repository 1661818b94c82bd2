package chart

import (
	"github.com/NissesSenap/agri-dashboard/internal/storage"
)

// LabelLayout formats reading timestamps on the label axis
const LabelLayout = "15:04:05"

// FromReadings turns readings into chronological labels and three aligned series.
// Readings missing any of the three values are skipped so every index stays aligned.
// soilPercent converts raw soil moisture; nil keeps the raw value.
func FromReadings(readings []*storage.Reading, soilPercent func(float64) float64) (labels []string, temperature, humidity, soil []float64) {
	labels = make([]string, 0, len(readings))
	temperature = make([]float64, 0, len(readings))
	humidity = make([]float64, 0, len(readings))
	soil = make([]float64, 0, len(readings))

	ordered := make([]*storage.Reading, 0, len(readings))
	for _, r := range readings {
		if r == nil || r.TemperatureC == nil || r.Humidity == nil || r.SoilMoisture == nil {
			continue
		}
		ordered = append(ordered, r)
	}
	// Stores hand back newest first; charts read left to right
	if len(ordered) > 1 && ordered[0].CreatedAt.After(ordered[len(ordered)-1].CreatedAt) {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}

	for _, r := range ordered {
		s := *r.SoilMoisture
		if soilPercent != nil {
			s = soilPercent(s)
		}
		labels = append(labels, r.CreatedAt.Local().Format(LabelLayout))
		temperature = append(temperature, *r.TemperatureC)
		humidity = append(humidity, *r.Humidity)
		soil = append(soil, s)
	}
	return labels, temperature, humidity, soil
}
