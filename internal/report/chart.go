// Package report renders substance reports: a summary of one dataset's
// trophic groups and species with embedded SVG charts, as HTML or text.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/series"
)

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 800)
	Height       int    // SVG height in pixels (default: 400)
	MarginTop    int    // top margin (default: 40)
	MarginRight  int    // right margin (default: 60)
	MarginBottom int    // bottom margin (default: 50)
	MarginLeft   int    // left margin (default: 70)
	BgColor      string // background color (default: "#ffffff")
	GridColor    string // grid line color (default: "#e8e8e8")
	TextColor    string // axis label color (default: "#333333")
	FontSize     int    // axis label font size (default: 11)
	Title        string // chart title
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       400,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 50,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// withDefaults fills a zero config and widens the left margin for labels.
func (c ChartConfig) withDefaults(title string) ChartConfig {
	if c.Width == 0 {
		t := c.Title
		c = DefaultChartConfig()
		c.Title = t
	}
	c.MarginLeft = 130
	if c.Title == "" {
		c.Title = title
	}
	return c
}

// BarItem represents a single bar in a horizontal bar chart.
type BarItem struct {
	Label string
	Value float64
	Color string // optional
}

// HorizontalBarChart generates an SVG horizontal bar chart of non-negative
// values, one bar per item.
func HorizontalBarChart(items []BarItem, cfg ChartConfig) string {
	if len(items) == 0 {
		return emptySVG(cfg, "No data")
	}
	cfg = cfg.withDefaults("Comparison")
	px, py, pw, ph := cfg.plotArea()

	maxVal := 0.0
	for _, item := range items {
		maxVal = math.Max(maxVal, item.Value)
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	barH, gap := rowGeometry(ph, len(items))

	var sb strings.Builder
	writeFrame(&sb, cfg)
	for i, item := range items {
		by := float64(py) + gap + float64(i)*(barH+gap)
		color := item.Color
		if color == "" {
			color = "#4caf50"
		}
		bw := math.Max(item.Value, 0) / maxVal * float64(pw)

		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%.1f" width="%.1f" height="%.1f" fill="%s" rx="2"/>`,
			px, by, bw, barH, color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, by+barH/2+4, cfg.FontSize, cfg.TextColor, escapeXML(item.Label)))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%d" fill="%s">%s</text>`,
			float64(px)+bw+5, by+barH/2+4, cfg.FontSize, cfg.TextColor, trimFloat(item.Value)))
	}
	sb.WriteString("</svg>")
	return sb.String()
}

// RangeItem is one row of a range chart: a segment from Low to High with
// a marker at Mid.
type RangeItem struct {
	Label     string
	Low, High float64
	Mid       float64 // NaN hides the marker
	Color     string
}

// RangeChart generates an SVG chart of value ranges on a log10 axis with
// one gridline per decade.
func RangeChart(items []RangeItem, cfg ChartConfig) string {
	if len(items) == 0 {
		return emptySVG(cfg, "No data")
	}
	cfg = cfg.withDefaults("Range")
	px, py, pw, ph := cfg.plotArea()

	values := make([]float64, 0, 2*len(items))
	for _, it := range items {
		values = append(values, it.Low, it.High)
	}
	ticks := series.LogTicks(values)
	if len(ticks) == 0 {
		return emptySVG(cfg, "No finite values")
	}
	if len(ticks) == 1 {
		ticks = []float64{ticks[0] / 10, ticks[0], ticks[0] * 10}
	}
	lo, hi := math.Log10(ticks[0]), math.Log10(ticks[len(ticks)-1])
	xOf := func(v float64) float64 {
		v = math.Max(v, series.Epsilon)
		return float64(px) + (math.Log10(v)-lo)/(hi-lo)*float64(pw)
	}

	var sb strings.Builder
	writeFrame(&sb, cfg)
	for _, t := range ticks {
		x := xOf(t)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="%s" stroke-width="1"/>`,
			x, py, x, py+ph, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			x, py+ph+16, cfg.FontSize, cfg.TextColor, series.TickLabel(t)))
	}

	rowH, gap := rowGeometry(ph, len(items))
	for i, it := range items {
		cy := float64(py) + gap + float64(i)*(rowH+gap) + rowH/2
		color := it.Color
		if color == "" {
			color = "#2196f3"
		}
		x1, x2 := xOf(it.Low), xOf(it.High)
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, cy+4, cfg.FontSize, cfg.TextColor, escapeXML(it.Label)))
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="4" stroke-linecap="round"/>`,
			x1, cy, x2, cy, color))
		if !math.IsNaN(it.Mid) {
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="5" fill="#ffffff" stroke="%s" stroke-width="2"/>`,
				xOf(it.Mid), cy, color))
		}
	}
	sb.WriteString("</svg>")
	return sb.String()
}

// rowGeometry splits height h into n rows of at most 30px with even gaps.
func rowGeometry(h, n int) (rowH, gap float64) {
	rowH = float64(h) / float64(n) * 0.7
	if rowH > 30 {
		rowH = 30
	}
	gap = (float64(h) - rowH*float64(n)) / float64(n+1)
	return rowH, gap
}

func writeFrame(sb *strings.Builder, cfg ChartConfig) {
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
