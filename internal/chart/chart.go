// Package chart renders price history as PNG line charts.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/Proton-105/coinpulse-bot/internal/domain"
)

var (
	ErrNotEnoughData  = errors.New("chart needs at least two points")
	ErrLengthMismatch = errors.New("labels and values differ in length")
)

type Renderer struct {
	Width    int
	Height   int
	MaxTicks int
	Location *time.Location
}

func NewRenderer(width, height, maxTicks int, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{Width: width, Height: height, MaxTicks: maxTicks, Location: loc}
}

// Render draws values as a single line with labels spread along the X axis.
func (r *Renderer) Render(labels []string, values []float64, seriesName string) ([]byte, error) {
	if len(labels) != len(values) {
		return nil, ErrLengthMismatch
	}
	if len(values) < 2 {
		return nil, ErrNotEnoughData
	}

	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}

	graph := chart.Chart{
		Width:  r.Width,
		Height: r.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Ticks: r.ticks(labels),
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return humanize.CommafWithDigits(f, 2)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    seriesName,
				XValues: xs,
				YValues: values,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderHistory labels points by time of day for one-day periods and by date otherwise.
func (r *Renderer) RenderHistory(points []domain.PricePoint, days int, seriesName string) ([]byte, error) {
	layout := "02.01"
	if days <= 1 {
		layout = "15:04"
	}

	labels := make([]string, len(points))
	values := make([]float64, len(points))
	for i, point := range points {
		labels[i] = point.At.In(r.Location).Format(layout)
		values[i] = point.Price
	}

	return r.Render(labels, values, seriesName)
}

func (r *Renderer) ticks(labels []string) []chart.Tick {
	count := r.MaxTicks
	if count < 2 {
		count = 2
	}
	if count > len(labels) {
		count = len(labels)
	}

	last := len(labels) - 1
	ticks := make([]chart.Tick, 0, count)
	prev := -1
	for i := 0; i < count; i++ {
		idx := i * last / (count - 1)
		if idx == prev {
			continue
		}
		prev = idx
		ticks = append(ticks, chart.Tick{Value: float64(idx), Label: labels[idx]})
	}
	return ticks
}

// Caption summarises a series as name, period and price range.
func Caption(name string, days int, points []domain.PricePoint) string {
	if len(points) == 0 {
		return name
	}

	low, high := points[0].Price, points[0].Price
	for _, point := range points[1:] {
		low = min(low, point.Price)
		high = max(high, point.Price)
	}

	first, last := points[0].Price, points[len(points)-1].Price
	change := 0.0
	if first != 0 {
		change = (last - first) / first * 100
	}

	return fmt.Sprintf("%s, %d дн.\nмін: %s$  макс: %s$\nзміна: %.2f%%",
		name, days,
		humanize.CommafWithDigits(low, 2),
		humanize.CommafWithDigits(high, 2),
		change,
	)
}
