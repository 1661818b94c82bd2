package sensor

// Calibration maps the raw analog soil moisture range onto 0..100 %
type Calibration struct {
	RawMin float64
	RawMax float64
}

func DefaultCalibration() Calibration {
	return Calibration{RawMin: 300, RawMax: 700}
}

// Percent converts a raw soil moisture value to percent, clamped to 0..100
func (c Calibration) Percent(raw float64) float64 {
	span := c.RawMax - c.RawMin
	if span <= 0 {
		return 0
	}
	pct := (raw - c.RawMin) / span * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
