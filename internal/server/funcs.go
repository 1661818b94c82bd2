package server

import (
	"fmt"
	"html/template"
	"time"

	"github.com/NissesSenap/agri-dashboard/internal/sensor"
)

const timeLayout = "2006-01-02 15:04:05"

func templateFuncs(cal sensor.Calibration) template.FuncMap {
	return template.FuncMap{
		"num": func(v *float64) string {
			if v == nil {
				return "n/a"
			}
			return fmt.Sprintf("%.1f", *v)
		},
		"soilpct": func(v *float64) string {
			if v == nil {
				return "n/a"
			}
			return fmt.Sprintf("%.0f%%", cal.Percent(*v))
		},
		"ts": func(v interface{}) string {
			switch t := v.(type) {
			case time.Time:
				return t.Local().Format(timeLayout)
			case *time.Time:
				if t == nil {
					return "n/a"
				}
				return t.Local().Format(timeLayout)
			}
			return "n/a"
		},
	}
}
