// Package charts renders tracker statistics as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"timetracker/internal/core"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to chart")

// Renderer draws charts at a fixed size.
type Renderer struct {
	Width  int
	Height int
}

func NewRenderer() *Renderer {
	return &Renderer{Width: 1000, Height: 500}
}

func (r *Renderer) background() chart.Style {
	return chart.Style{
		Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		FillColor: chart.ColorWhite,
	}
}

// Daily plots hours per day across every day of rng, days without entries
// drawn at zero.
func (r *Renderer) Daily(series []core.DailyHours, rng core.DateRange) ([]byte, error) {
	days := core.DaysInRange(rng)
	if len(days) == 0 {
		return nil, ErrNoData
	}

	byDay := make(map[string]float64, len(series))
	for _, p := range series {
		byDay[p.Date.String()] += p.Hours
	}
	xValues := make([]time.Time, len(days))
	yValues := make([]float64, len(days))
	peak := 0.0
	for i, d := range days {
		xValues[i] = d.Time
		yValues[i] = byDay[d.String()]
		peak = math.Max(peak, yValues[i])
	}

	graph := chart.Chart{
		Title:      fmt.Sprintf("Hours per day, %s to %s", rng.Start, rng.End),
		Width:      r.Width,
		Height:     r.Height,
		Background: r.background(),
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("02 Jan"),
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: niceMax(peak)},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.1fh", v.(float64))
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Hours",
				XValues: xValues,
				YValues: yValues,
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("3B82F6"),
					StrokeWidth: 2,
					FillColor:   drawing.ColorFromHex("3B82F6").WithAlpha(60),
				},
			},
		},
	}
	if len(days) == 1 {
		// a single point has no x extent of its own
		mid := chart.TimeToFloat64(days[0].Time)
		half := float64(12 * time.Hour)
		graph.XAxis.Range = &chart.ContinuousRange{Min: mid - half, Max: mid + half}
	}

	return render("daily chart", graph.Render)
}

// Categories plots the share of hours per category as a pie.
func (r *Renderer) Categories(stats []core.CategoryStat) ([]byte, error) {
	values := make([]chart.Value, 0, len(stats))
	for _, s := range stats {
		if s.Hours <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %.1fh (%.1f%%)", s.Category.Name, s.Hours, s.Percentage),
			Value: s.Hours,
			Style: chart.Style{
				FillColor:   parseColor(s.Category.Color, chart.GetDefaultColor(len(values))),
				StrokeColor: chart.ColorWhite,
				FontSize:    11,
				FontColor:   chart.ColorBlack,
			},
		})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pie := chart.PieChart{
		Title:      "Hours by category",
		Width:      r.Height,
		Height:     r.Height,
		Background: r.background(),
		Values:     values,
	}
	return render("category chart", pie.Render)
}

// Progress draws one bar per project goal, on a 0-100 scale.
func (r *Renderer) Progress(lines []core.ProjectProgressLine) ([]byte, error) {
	if len(lines) == 0 {
		return nil, ErrNoData
	}

	bars := make([]chart.Value, 0, len(lines))
	for i, l := range lines {
		color := parseColor(l.Project.Color, chart.GetDefaultColor(i))
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s %.0f%%", l.Project.Name, l.Progress),
			Value: l.Progress,
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: color,
			},
		})
	}

	graph := chart.BarChart{
		Title:      "Progress toward goals",
		Width:      r.Width,
		Height:     r.Height,
		Background: r.background(),
		BarWidth:   barWidth(r.Width, len(bars)),
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f%%", v.(float64))
			},
		},
		Bars: bars,
	}
	return render("progress chart", graph.Render)
}

func render(name string, fn func(chart.RendererProvider, io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := fn(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// niceMax leaves headroom above the peak and never returns zero, which
// go-chart rejects as an empty range.
func niceMax(peak float64) float64 {
	if peak <= 0 {
		return 1
	}
	return math.Ceil(peak + peak/10)
}

func barWidth(width, bars int) int {
	w := (width - 100) / (bars * 2)
	switch {
	case w < 10:
		return 10
	case w > 80:
		return 80
	default:
		return w
	}
}

// parseColor accepts #RRGGBB; anything else yields fallback.
func parseColor(hex string, fallback drawing.Color) drawing.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return fallback
	}
	for _, c := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return fallback
		}
	}
	return drawing.ColorFromHex(hex)
}
