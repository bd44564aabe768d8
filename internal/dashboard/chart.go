package dashboard

import (
	"fmt"
	"html"
	"io"
	"strings"
)

const (
	chartPadding   = 30.0
	gridDivisions  = 5
	scaleFloor     = 0.01
	markerRadius   = 3.0
	seriesStroke   = 2.0
	gridColor      = "#ddd"
	labelColor     = "#555"
	carbonColor    = "#2ecc71"
	carbonMarker   = "#27ae60"
	energyColor    = "#3498db"
	energyMarker   = "#2980b9"
	gridLabelInset = 5.0
	xLabelOffset   = 12.0
)

// ChartOptions sets the canvas size in pixels.
type ChartOptions struct {
	Width  int
	Height int
}

// DefaultChartOptions is the popup-sized canvas.
var DefaultChartOptions = ChartOptions{Width: 320, Height: 200}

// Point is one plotted value.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Value float64 `json:"value"`
}

// Series is one line of the chart.
type Series struct {
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	MarkerColor string  `json:"markerColor"`
	Points      []Point `json:"points"`
}

// Gridline is a horizontal rule with its value label.
type Gridline struct {
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

// Tick is an x-axis label.
type Tick struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// Chart is the computed geometry of the two-series trend chart.
type Chart struct {
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	Padding   float64    `json:"padding"`
	MaxValue  float64    `json:"maxValue"`
	StepX     float64    `json:"stepX"`
	ScaleY    float64    `json:"scaleY"`
	Gridlines []Gridline `json:"gridlines"`
	Series    []Series   `json:"series"`
	Ticks     []Tick     `json:"ticks"`
}

// Layout computes chart geometry for the given labels and series. Both
// series share one vertical scale from 0 to the largest value, never less
// than 0.01. With fewer than two points the horizontal step divides by 1.
func Layout(labels []string, co2, energy []float64, opts ChartOptions) Chart {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultChartOptions
	}
	c := Chart{
		Width:   float64(opts.Width),
		Height:  float64(opts.Height),
		Padding: chartPadding,
	}
	plotW := c.Width - 2*c.Padding
	plotH := c.Height - 2*c.Padding

	c.MaxValue = scaleFloor
	for _, v := range co2 {
		c.MaxValue = max(c.MaxValue, v)
	}
	for _, v := range energy {
		c.MaxValue = max(c.MaxValue, v)
	}

	steps := len(labels) - 1
	if steps < 1 {
		steps = 1
	}
	c.StepX = plotW / float64(steps)
	c.ScaleY = plotH / c.MaxValue

	for i := 0; i <= gridDivisions; i++ {
		c.Gridlines = append(c.Gridlines, Gridline{
			Y:     c.Padding + plotH*float64(i)/gridDivisions,
			Label: fmt.Sprintf("%.3f", c.MaxValue*float64(gridDivisions-i)/gridDivisions),
		})
	}

	c.Series = []Series{
		c.series("CO₂ (kg)", carbonColor, carbonMarker, co2, plotH),
		c.series("Energy (kWh)", energyColor, energyMarker, energy, plotH),
	}

	c.Ticks = make([]Tick, 0, len(labels))
	for i, l := range labels {
		c.Ticks = append(c.Ticks, Tick{
			X:    c.Padding + c.StepX*float64(i),
			Y:    c.Height - c.Padding + xLabelOffset,
			Text: l,
		})
	}
	return c
}

func (c Chart) series(name, color, marker string, values []float64, plotH float64) Series {
	s := Series{Name: name, Color: color, MarkerColor: marker, Points: make([]Point, 0, len(values))}
	for i, v := range values {
		s.Points = append(s.Points, Point{
			X:     c.Padding + c.StepX*float64(i),
			Y:     c.Padding + plotH - v*c.ScaleY,
			Value: v,
		})
	}
	return s
}

// WriteSVG renders the chart as a standalone SVG element.
func (c Chart) WriteSVG(w io.Writer) error {
	sw := &stickyWriter{w: w}

	sw.printf(`<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g" font-family="sans-serif" font-size="10">`+"\n",
		c.Width, c.Height, c.Width, c.Height)

	for _, g := range c.Gridlines {
		sw.printf(`<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1"/>`+"\n",
			c.Padding, g.Y, c.Width-c.Padding, g.Y, gridColor)
		sw.printf(`<text x="%.2f" y="%.2f" fill="%s" text-anchor="end">%s</text>`+"\n",
			c.Padding-gridLabelInset, g.Y+3, labelColor, g.Label)
	}

	for _, s := range c.Series {
		if len(s.Points) == 0 {
			continue
		}
		coords := make([]string, len(s.Points))
		for i, p := range s.Points {
			coords[i] = fmt.Sprintf("%.2f,%.2f", p.X, p.Y)
		}
		sw.printf(`<polyline points="%s" fill="none" stroke="%s" stroke-width="%g"/>`+"\n",
			strings.Join(coords, " "), s.Color, seriesStroke)
	}
	for _, s := range c.Series {
		for _, p := range s.Points {
			sw.printf(`<circle cx="%.2f" cy="%.2f" r="%g" fill="%s"/>`+"\n", p.X, p.Y, markerRadius, s.MarkerColor)
		}
	}

	for _, t := range c.Ticks {
		sw.printf(`<text x="%.2f" y="%.2f" fill="%s" text-anchor="middle">%s</text>`+"\n",
			t.X, t.Y, labelColor, html.EscapeString(t.Text))
	}

	sw.printf("</svg>\n")
	return sw.err
}

// SVG returns the chart markup.
func (c Chart) SVG() string {
	var b strings.Builder
	_ = c.WriteSVG(&b)
	return b.String()
}

// stickyWriter keeps the first write error and drops later writes.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (s *stickyWriter) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}
