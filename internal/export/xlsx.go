// Package export writes sensor readings to spreadsheet files.
package export

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/NissesSenap/agri-dashboard/internal/chart"
	"github.com/NissesSenap/agri-dashboard/internal/storage"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Readings"

var header = []interface{}{
	"Time (UTC)",
	chart.TemperatureLabel,
	chart.HumidityLabel,
	"Soil Moisture (raw)",
	chart.SoilMoistureLabel,
}

// WriteXLSX writes readings oldest first to a workbook with a line chart of
// temperature, humidity and soil moisture. soilPercent converts raw soil
// moisture for the percent column; nil leaves that column empty.
func WriteXLSX(w io.Writer, readings []*storage.Reading, soilPercent func(float64) float64) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}

	ordered := slices.Clone(readings)
	slices.SortStableFunc(ordered, func(a, b *storage.Reading) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	for i, r := range ordered {
		var soilPct interface{}
		if r.SoilMoisture != nil && soilPercent != nil {
			soilPct = soilPercent(*r.SoilMoisture)
		}
		row := []interface{}{
			r.CreatedAt.UTC(),
			value(r.TemperatureC),
			value(r.Humidity),
			value(r.SoilMoisture),
			soilPct,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write reading %d: %w", r.ID, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "E", 18); err != nil {
		return err
	}

	if len(ordered) > 0 {
		if err := f.AddChart(SheetName, "G2", lineChart(len(ordered)+1)); err != nil {
			return fmt.Errorf("failed to add chart: %w", err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

// lineChart plots columns B, C and E of rows 2..lastRow
func lineChart(lastRow int) *excelize.Chart {
	series := func(col, color string) excelize.ChartSeries {
		return excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", SheetName, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", SheetName, lastRow),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", SheetName, col, col, lastRow),
			Fill:       excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Line:       excelize.ChartLine{Smooth: true, Width: 1.5},
			Marker:     excelize.ChartMarker{Symbol: "none"},
		}
	}

	return &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			series("B", hex("#ef4444")),
			series("C", hex("#2563eb")),
			series("E", hex("#16a34a")),
		},
		Title:     []excelize.RichTextRun{{Text: "Field conditions"}},
		Legend:    excelize.ChartLegend{Position: "top"},
		Dimension: excelize.ChartDimension{Width: 720, Height: 360},
	}
}

func hex(css string) string {
	return strings.ToUpper(strings.TrimPrefix(css, "#"))
}

func value(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
