// Package stats renders the category breakdown chart.
package stats

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"pennywise/internal/core"
)

// categoryPalette cycles when there are more slices than colors.
var categoryPalette = []string{
	"2563eb", // blue-600
	"dc2626", // red-600
	"16a34a", // green-600
	"d97706", // amber-600
	"7c3aed", // violet-600
	"0891b2", // cyan-600
	"db2777", // pink-600
	"65a30d", // lime-600
	"ea580c", // orange-600
	"6b7280", // gray-500
}

// RenderCategoryPie renders a PNG pie chart of spending per category.
// Returns raw PNG bytes.
func RenderCategoryPie(totals []core.CategoryTotal) ([]byte, error) {
	if len(totals) == 0 {
		return nil, fmt.Errorf("no spending to chart")
	}

	values := make([]chart.Value, 0, len(totals))
	for i, t := range totals {
		if t.Total <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %s", t.Category, core.FormatCurrency(t.Total)),
			Value: t.Total,
			Style: chart.Style{
				FillColor: drawing.ColorFromHex(categoryPalette[i%len(categoryPalette)]),
			},
		})
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no spending to chart")
	}

	graph := chart.PieChart{
		Title:  "Spending by Category",
		Width:  600,
		Height: 600,
		Background: chart.Style{
			Padding: chart.Box{Top: 30, Left: 10, Right: 10, Bottom: 10},
		},
		Values: values,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
