package tui

import (
	"fmt"
	"strings"

	"github.com/quantfold/backtestctl/internal/chart"
	"github.com/quantfold/backtestctl/internal/core"
)

// RenderCurve draws an equity curve as a fixed-size glyph grid. Points are
// plotted in server order at glyph resolution; values are scaled linearly on
// the vertical axis and never interpolated between samples.
func RenderCurve(points []core.EquityPoint, width, height int) string {
	if len(points) == 0 {
		return dimStyle.Render("no chart data")
	}
	if width < 12 {
		width = 12
	}
	if height < 4 {
		height = 4
	}

	min, max := points[0].Value, points[0].Value
	for _, p := range points[1:] {
		if p.Value < min {
			min = p.Value
		}
		if p.Value > max {
			max = p.Value
		}
	}
	span := max - min
	if span == 0 {
		span = 1
	}

	grid := make([][]rune, height)
	for y := range grid {
		grid[y] = make([]rune, width)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	// One column per point where room allows; otherwise points share columns
	// at glyph resolution.
	for i, p := range points {
		x := 0
		if len(points) > 1 {
			x = i * (width - 1) / (len(points) - 1)
		}
		y := height - 1 - int((p.Value-min)/span*float64(height-1))
		grid[y][x] = '•'
	}

	var b strings.Builder
	b.WriteString(dimStyle.Render(fmt.Sprintf("%.2f", max)))
	b.WriteByte('\n')
	for _, row := range grid {
		b.WriteString(okStyle.Render(string(row)))
		b.WriteByte('\n')
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("%.2f", min)))
	b.WriteByte('\n')

	// Month/day labels for the range boundaries.
	first := chart.AxisLabel(points[0].Timestamp)
	last := chart.AxisLabel(points[len(points)-1].Timestamp)
	gap := width - len(first) - len(last)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(dimStyle.Render(first + strings.Repeat(" ", gap) + last))

	return b.String()
}
