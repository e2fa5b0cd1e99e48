// Package chart renders dashboard charts (bar charts, histograms, scatter plots) as SVG or PNG.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/hyperjump/bibliodash/internal/models"
	"github.com/hyperjump/bibliodash/pkg/utils"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when a chart has nothing to plot.
var ErrNoData = errors.New("chart has no data")

// Kind is the chart type.
type Kind string

const (
	KindBar       Kind = "bar"
	KindHistogram Kind = "histogram"
	KindScatter   Kind = "scatter"
)

// Bar is one labelled bar. Extra carries a secondary value such as a price total.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Extra float64 `json:"extra,omitempty"`
}

// Spec describes one chart and carries its data.
type Spec struct {
	ID     string                `json:"id"`
	Kind   Kind                  `json:"kind"`
	Title  string                `json:"title"`
	XLabel string                `json:"x_label,omitempty"`
	YLabel string                `json:"y_label,omitempty"`
	Color  string                `json:"color,omitempty"`
	Bars   []Bar                 `json:"bars,omitempty"`
	Bins   []models.HistogramBin `json:"bins,omitempty"`
	Points []models.ScatterPoint `json:"points,omitempty"`
}

// Empty reports whether the chart has nothing to plot.
func (s Spec) Empty() bool {
	return len(s.Bars) == 0 && len(s.Bins) == 0 && len(s.Points) == 0
}

// Format is an output image format.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ParseFormat returns the format for a file extension with or without the dot.
func ParseFormat(ext string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "svg":
		return SVG, nil
	case "png":
		return PNG, nil
	}
	return "", fmt.Errorf("unsupported chart format %q", ext)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() gochart.RendererProvider {
	if f == PNG {
		return gochart.PNG
	}
	return gochart.SVG
}

const (
	height     = 420
	labelWidth = 16
)

// Render draws spec to w in the given format.
func Render(w io.Writer, spec Spec, format Format) error {
	if spec.Empty() {
		return ErrNoData
	}
	switch spec.Kind {
	case KindBar:
		return renderBars(w, spec.Title, spec.Color, spec.Bars, 1, format)
	case KindHistogram:
		return renderBars(w, spec.Title, spec.Color, histogramBars(spec.Bins), tickStep(len(spec.Bins)), format)
	case KindScatter:
		return renderScatter(w, spec, format)
	}
	return fmt.Errorf("unknown chart kind %q", spec.Kind)
}

func color(hex string) drawing.Color {
	if hex == "" {
		return gochart.ColorBlue
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// renderBars draws a bar chart, labelling every step-th bar.
func renderBars(w io.Writer, title, hex string, bars []Bar, step int, format Format) error {
	fill := color(hex)
	maxValue := 0.0
	values := make([]gochart.Value, len(bars))
	for i, b := range bars {
		label := ""
		if i%step == 0 {
			label = utils.Truncate(b.Label, labelWidth)
		}
		values[i] = gochart.Value{
			Label: label,
			Value: b.Value,
			Style: gochart.Style{FillColor: fill, StrokeColor: fill, StrokeWidth: 1},
		}
		maxValue = math.Max(maxValue, b.Value)
	}
	if maxValue <= 0 {
		maxValue = 1
	}

	barWidth, spacing := 40, 12
	if len(bars) > 15 {
		barWidth, spacing = 20, 4
	}
	bc := gochart.BarChart{
		Title:      title,
		TitleStyle: gochart.Style{FontSize: 12},
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 90}},
		Width:      max(480, 120+len(bars)*(barWidth+spacing)),
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: spacing,
		XAxis:      gochart.Style{TextRotationDegrees: 45, FontSize: 9},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: maxValue * 1.1},
		},
		Bars: values,
	}
	if err := bc.Render(format.provider(), w); err != nil {
		return fmt.Errorf("render bar chart %q: %w", title, err)
	}
	return nil
}

func histogramBars(bins []models.HistogramBin) []Bar {
	out := make([]Bar, len(bins))
	for i, b := range bins {
		out[i] = Bar{Label: formatEdge(b.Lo, b.Hi-b.Lo), Value: float64(b.Count)}
	}
	return out
}

func formatEdge(v, width float64) string {
	switch {
	case width >= 10:
		return fmt.Sprintf("%.0f", v)
	case width >= 0.1:
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func tickStep(n int) int {
	if n <= 10 {
		return 1
	}
	return (n + 9) / 10
}

// renderScatter draws one dot series per group with a legend.
func renderScatter(w io.Writer, spec Spec, format Format) error {
	groups := make(map[string][]models.ScatterPoint)
	for _, p := range spec.Points {
		g := p.Group
		if g == "" {
			g = "Unknown"
		}
		groups[g] = append(groups[g], p)
	}
	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	sort.Strings(names)

	xmin, xmax := math.Inf(1), math.Inf(-1)
	ymin, ymax := math.Inf(1), math.Inf(-1)
	series := make([]gochart.Series, 0, len(names))
	for i, name := range names {
		pts := groups[name]
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for j, p := range pts {
			xs[j], ys[j] = p.X, p.Y
			xmin, xmax = math.Min(xmin, p.X), math.Max(xmax, p.X)
			ymin, ymax = math.Min(ymin, p.Y), math.Max(ymax, p.Y)
		}
		c := gochart.GetDefaultColor(i)
		series = append(series, gochart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotWidth:    4,
				DotColor:    c.WithAlpha(204),
				StrokeColor: c,
			},
		})
	}

	ch := gochart.Chart{
		Title:      spec.Title,
		TitleStyle: gochart.Style{FontSize: 12},
		Width:      960,
		Height:     480,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: spec.XLabel, Range: padRange(xmin, xmax)},
		YAxis:      gochart.YAxis{Name: spec.YLabel, Range: padRange(ymin, ymax)},
		Series:     series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	if err := ch.Render(format.provider(), w); err != nil {
		return fmt.Errorf("render scatter %q: %w", spec.Title, err)
	}
	return nil
}

// padRange widens [lo, hi] by 5% on each side; a single value gets a unit range around it.
func padRange(lo, hi float64) *gochart.ContinuousRange {
	if lo == hi {
		return &gochart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.05
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
