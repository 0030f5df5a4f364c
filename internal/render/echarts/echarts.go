// Package echarts exports chart descriptions as standalone HTML pages drawn
// with Apache ECharts.
//
// Only scatter traces are exported. Points of one trace that carry
// different colors become separate series sharing the trace name, so the
// legend still has one entry per name.
package echarts

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/palette"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

// ErrNothingToExport is returned when a description has no scatter points.
var ErrNothingToExport = errors.New("no scatter points to export")

// Options sizes the exported page.
type Options struct {
	PageTitle string
	Width     string // CSS length, default "100%"
	Height    string // CSS length, default "640px"
}

// symbolMap maps marker names onto the ECharts symbol vocabulary.
var symbolMap = map[string]string{
	"circle":           "circle",
	"circle-open":      "emptyCircle",
	"square":           "rect",
	"square-open":      "emptyRect",
	"diamond":          "diamond",
	"diamond-open":     "emptyDiamond",
	"diamond-tall":     "pin",
	"triangle-up":      "triangle",
	"triangle-up-open": "emptyTriangle",
	"star-triangle-up": "triangle",
	"cross":            "roundRect",
	"x":                "roundRect",
}

// Symbol returns the ECharts symbol for a marker name.
func Symbol(name string) string {
	if s, ok := symbolMap[palette.ResolveSymbol(name)]; ok {
		return s
	}
	return "circle"
}

// point is one exported observation.
type point struct {
	category string
	value    float64
	label    string
}

// Chart converts cd into an ECharts scatter chart.
func Chart(cd *models.ChartDescription, o Options) (*charts.Scatter, error) {
	if cd == nil || cd.Layout == nil {
		return nil, errors.New("echarts: incomplete chart description")
	}
	if o.Width == "" {
		o.Width = "100%"
	}
	if o.Height == "" {
		o.Height = "640px"
	}

	categories := categoryOrder(cd)
	if len(categories) == 0 {
		return nil, ErrNothingToExport
	}

	scatter := charts.NewScatter()
	title, subtitle := splitTitle(cd.Layout.Title)
	if o.PageTitle == "" {
		o.PageTitle = title
	}

	yAxis := opts.YAxis{Type: "value", Name: axisTitle(cd.Layout.YAxis)}
	if cd.Layout.YAxis != nil && cd.Layout.YAxis.Type == "log" {
		yAxis.Type = "log"
	}

	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: o.PageTitle, Width: o.Width, Height: o.Height}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Orient: "vertical", Right: "0", Top: "middle"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			Name:      axisTitle(cd.Layout.XAxis),
			AxisLabel: &opts.AxisLabel{Rotate: 45, Interval: "0"},
		}),
		charts.WithYAxisOpts(yAxis),
	)
	scatter.SetXAxis(categories)

	added := 0
	for i, tr := range cd.Data {
		if tr.Type != "" && tr.Type != "scatter" {
			continue
		}
		name := tr.Name
		if name == "" {
			name = fmt.Sprintf("trace %d", i)
		}
		symbol := "circle"
		if tr.Marker != nil && tr.Marker.Symbol != "" {
			symbol = Symbol(tr.Marker.Symbol)
		}
		for _, group := range byColor(tr) {
			data := make([]opts.ScatterData, len(group.points))
			for j, p := range group.points {
				data[j] = opts.ScatterData{
					Name:       p.label,
					Value:      []any{p.category, p.value},
					Symbol:     symbol,
					SymbolSize: 9,
				}
			}
			scatter.AddSeries(name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: group.color}))
			added++
		}
	}
	if added == 0 {
		return nil, ErrNothingToExport
	}
	return scatter, nil
}

// Write renders cd as a full HTML page to w.
func Write(w io.Writer, cd *models.ChartDescription, o Options) error {
	scatter, err := Chart(cd, o)
	if err != nil {
		return err
	}
	return scatter.Render(w)
}

type colorGroup struct {
	color  string
	points []point
}

// byColor splits a trace's points by marker color, in first-seen order.
func byColor(tr models.Trace) []colorGroup {
	var groups []colorGroup
	index := map[string]int{}
	for i, y := range tr.Y {
		if i >= len(tr.X) {
			break
		}
		color := palette.DefaultColor
		if tr.Marker != nil && len(tr.Marker.Color) > 0 {
			color = tr.Marker.Color[i%len(tr.Marker.Color)]
		}
		g, ok := index[color]
		if !ok {
			g = len(groups)
			index[color] = g
			groups = append(groups, colorGroup{color: color})
		}
		groups[g].points = append(groups[g].points, point{
			category: fmt.Sprint(tr.X[i]),
			value:    y,
			label:    pointLabel(tr, i),
		})
	}
	return groups
}

// pointLabel joins a point's customdata for the tooltip.
func pointLabel(tr models.Trace, i int) string {
	if i >= len(tr.CustomData) {
		return ""
	}
	parts := make([]string, 0, len(tr.CustomData[i]))
	for _, v := range tr.CustomData[i] {
		if v == nil {
			continue
		}
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, " | ")
}

// categoryOrder prefers the x axis category array and falls back to the
// sorted set of x values.
func categoryOrder(cd *models.ChartDescription) []string {
	if ax := cd.Layout.XAxis; ax != nil && len(ax.CategoryArray) > 0 {
		return ax.CategoryArray
	}
	seen := map[string]struct{}{}
	var out []string
	for _, tr := range cd.Data {
		for _, x := range tr.X {
			s := fmt.Sprint(x)
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out
}

// splitTitle uses the first title line as title and the rest as subtitle.
func splitTitle(t *models.Title) (string, string) {
	if t == nil {
		return "", ""
	}
	lines := strings.Split(t.Text, "<br>")
	return lines[0], strings.Join(lines[1:], "\n")
}

func axisTitle(ax *models.Axis) string {
	if ax == nil || ax.Title == nil {
		return ""
	}
	return ax.Title.Text
}
