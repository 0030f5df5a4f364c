// Package series turns ecotoxicity datasets into chart descriptions.
//
// Build produces the EC10eq scatter chart for one substance: one trace per
// (trophic group, species) pair on a categorical x axis, values on a
// log-scaled y axis with decade ticks. BuildComparison produces the
// multi-substance comparison chart. Both are pure functions of their input.
package series

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/palette"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

// ErrNoData signals a valid dataset without any observation. Callers render
// a dedicated empty state instead of an empty canvas.
var ErrNoData = errors.New("no data")

// ErrUnknownColorMode is returned for a color mode outside the supported set.
var ErrUnknownColorMode = errors.New("unknown color mode")

// ErrNilDataset is returned when Build is called without a dataset.
var ErrNilDataset = errors.New("nil dataset")

// ColorMode selects how point colors are keyed.
type ColorMode string

const (
	ByTrophicGroup ColorMode = "by_trophic_group"
	ByYear         ColorMode = "by_year"
	ByAuthor       ColorMode = "by_author"
)

// ParseColorMode accepts the wire spellings ("by_year") and the camelCase
// spellings ("byYear"). An empty string selects ByTrophicGroup.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "", "bytrophicgroup", "trophicgroup", "group":
		return ByTrophicGroup, nil
	case "byyear", "year":
		return ByYear, nil
	case "byauthor", "author":
		return ByAuthor, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColorMode, s)
}

// Subject is the human-readable name of what the colors encode.
func (m ColorMode) Subject() string {
	switch m {
	case ByYear:
		return "Year"
	case ByAuthor:
		return "Author"
	default:
		return "Trophic group"
	}
}

// Valid reports whether m is one of the supported modes.
func (m ColorMode) Valid() bool {
	return m == ByTrophicGroup || m == ByYear || m == ByAuthor
}

const (
	// CategorySeparator joins trophic group and species in a category key.
	CategorySeparator = " - "

	// Units is the unit of observation values shown in tool-tips.
	Units = "mg/L"

	markerSize = 9.0

	hoverTemplate = "<b>%{x}</b><br>" +
		"EC10eq: %{y:.4f} " + Units + "<br>" +
		"Test ID: %{customdata[0]}<br>" +
		"Year: %{customdata[1]}<br>" +
		"Author: %{customdata[2]}" +
		"<extra></extra>"
)

// CategoryLabel builds the x-axis category key of a (group, species) pair.
func CategoryLabel(group, species string) string {
	return group + CategorySeparator + species
}

// Build converts a dataset into the EC10eq scatter chart description.
//
// Trophic groups and, within each group, species are ordered ascending;
// that order is the x-axis category order. Values are never altered:
// non-positive values stay in the traces and are clamped only when the
// tick range is computed.
func Build(ds *models.Dataset, mode ColorMode) (*models.ChartDescription, error) {
	if ds == nil {
		return nil, ErrNilDataset
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColorMode, mode)
	}
	if len(ds.TrophicGroups) == 0 || ds.ObservationCount() == 0 {
		return nil, ErrNoData
	}

	var (
		traces     []models.Trace
		categories []string
		tickText   []string
		values     []float64
	)

	for _, group := range ds.GroupNames() {
		bucket := ds.TrophicGroups[group]
		colorOf := colorer(group, bucket, mode)
		symbol := palette.GroupSymbol(group)

		for i, species := range bucket.SpeciesNames() {
			obs := bucket[species]
			label := CategoryLabel(group, species)
			categories = append(categories, label)
			tickText = append(tickText, species)

			tr := models.Trace{
				Type:          "scatter",
				Mode:          "markers",
				Name:          group,
				LegendGroup:   group,
				ShowLegend:    models.Bool(i == 0),
				X:             make([]any, len(obs)),
				Y:             make([]float64, len(obs)),
				CustomData:    make([][]any, len(obs)),
				HoverTemplate: hoverTemplate,
				Marker: &models.Marker{
					Color:  make([]string, len(obs)),
					Symbol: symbol,
					Size:   models.Float(markerSize),
				},
			}
			for j, o := range obs {
				tr.X[j] = label
				tr.Y[j] = o.Value
				tr.CustomData[j] = []any{o.TestID, o.Year, o.Author}
				tr.Marker.Color[j] = colorOf(o)
			}
			values = append(values, tr.Y...)
			traces = append(traces, tr)
		}
	}

	stats := StatsOf(ds)
	layout := &models.Layout{
		Title: &models.Title{
			Text:    scatterTitle(ds, mode, stats),
			X:       models.Float(0.5),
			XAnchor: "center",
		},
		XAxis: &models.Axis{
			Title:         &models.Title{Text: "Species"},
			Type:          "category",
			CategoryOrder: "array",
			CategoryArray: categories,
			TickVals:      stringsToAny(categories),
			TickText:      tickText,
			TickAngle:     models.Float(-45),
			Automargin:    models.Bool(true),
		},
		YAxis: logAxis(values),
		Legend: &models.Legend{
			Title:       &models.Title{Text: mode.Subject()},
			Orientation: "v",
			X:           models.Float(1.02),
			Y:           models.Float(1),
			XAnchor:     "left",
			YAnchor:     "top",
			Visible:     models.Bool(true),
		},
		Margin:     marginFor(mode),
		ShowLegend: models.Bool(true),
		Autosize:   models.Bool(true),
		HoverMode:  "closest",
	}

	return &models.ChartDescription{
		Data:   traces,
		Layout: layout,
		Config: defaultConfig(),
	}, nil
}

// colorer returns the point-color function for one trophic group.
//
// Year and author palettes are keyed on the distinct values of this group
// only, so the same year may get different colors in different groups.
func colorer(group string, bucket models.SpeciesBucket, mode ColorMode) func(models.Observation) string {
	switch mode {
	case ByYear:
		seen := make(map[int]struct{})
		for _, obs := range bucket {
			for _, o := range obs {
				seen[o.Year] = struct{}{}
			}
		}
		years := make([]int, 0, len(seen))
		for y := range seen {
			years = append(years, y)
		}
		sort.Ints(years)
		index := make(map[int]string, len(years))
		for i, y := range years {
			index[y] = palette.CycleColor(i)
		}
		return func(o models.Observation) string { return index[o.Year] }

	case ByAuthor:
		seen := make(map[string]struct{})
		for _, obs := range bucket {
			for _, o := range obs {
				seen[o.Author] = struct{}{}
			}
		}
		authors := make([]string, 0, len(seen))
		for a := range seen {
			authors = append(authors, a)
		}
		sort.Strings(authors)
		index := make(map[string]string, len(authors))
		for i, a := range authors {
			index[a] = palette.CycleColor(i)
		}
		return func(o models.Observation) string { return index[o.Author] }

	default:
		c := palette.GroupColor(group)
		return func(models.Observation) string { return c }
	}
}

// logAxis is the log-scaled value axis with decade ticks.
func logAxis(values []float64) *models.Axis {
	return &models.Axis{
		Title:          &models.Title{Text: "EC10eq (" + Units + ")"},
		Type:           "log",
		TickVals:       floatsToAny(LogTicks(values)),
		TickFormat:     ".0e",
		ExponentFormat: "e",
		ShowExponent:   "all",
		ShowGrid:       models.Bool(true),
		Automargin:     models.Bool(true),
	}
}

// marginFor widens the right margin for the year legend, which holds more
// entries than the trophic-group legend.
func marginFor(mode ColorMode) *models.Margin {
	right := 160.0
	if mode == ByYear {
		right = 220
	}
	return &models.Margin{
		L: models.Float(80),
		R: models.Float(right),
		T: models.Float(120),
		B: models.Float(160),
	}
}

func defaultConfig() *models.Config {
	return &models.Config{
		DisplayModeBar:         models.Bool(true),
		DisplayLogo:            models.Bool(false),
		Responsive:             models.Bool(true),
		ModeBarButtonsToRemove: []string{"lasso2d", "select2d"},
	}
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func floatsToAny(in []float64) []any {
	out := make([]any, len(in))
	for i, f := range in {
		out[i] = f
	}
	return out
}
