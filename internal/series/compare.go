package series

import (
	"fmt"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/palette"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

const compareHoverTemplate = "<b>%{x}</b><br>" +
	"EC10eq: %{y:.4f} " + Units + "<br>" +
	"Trophic group: %{customdata[0]}<br>" +
	"Species: %{customdata[1]}<br>" +
	"Test ID: %{customdata[2]}" +
	"<extra></extra>"

// BuildComparison builds the multi-substance comparison chart: one trace
// per substance, in input order, holding every observation value of that
// substance. Nil or empty datasets are skipped; ErrNoData is returned when
// nothing is left.
func BuildComparison(datasets []*models.Dataset) (*models.ChartDescription, error) {
	var (
		traces     []models.Trace
		categories []string
		values     []float64
		total      int
	)

	for _, ds := range datasets {
		if ds == nil || ds.ObservationCount() == 0 {
			continue
		}
		label := ds.Label()
		color := palette.CycleColor(len(traces))

		tr := models.Trace{
			Type:          "scatter",
			Mode:          "markers",
			Name:          label,
			HoverTemplate: compareHoverTemplate,
			Marker: &models.Marker{
				Symbol: palette.DefaultSymbol,
				Size:   models.Float(markerSize),
			},
		}
		for _, group := range ds.GroupNames() {
			bucket := ds.TrophicGroups[group]
			for _, species := range bucket.SpeciesNames() {
				for _, o := range bucket[species] {
					tr.X = append(tr.X, label)
					tr.Y = append(tr.Y, o.Value)
					tr.CustomData = append(tr.CustomData, []any{group, species, o.TestID})
					tr.Marker.Color = append(tr.Marker.Color, color)
				}
			}
		}
		total += len(tr.Y)
		values = append(values, tr.Y...)
		categories = append(categories, label)
		traces = append(traces, tr)
	}

	if len(traces) == 0 {
		return nil, ErrNoData
	}

	layout := &models.Layout{
		Title: &models.Title{
			Text: fmt.Sprintf("EC10eq comparison<br>Substances: %d | Observations: %d",
				len(traces), total),
			X:       models.Float(0.5),
			XAnchor: "center",
		},
		XAxis: &models.Axis{
			Title:         &models.Title{Text: "Substance"},
			Type:          "category",
			CategoryOrder: "array",
			CategoryArray: categories,
			Automargin:    models.Bool(true),
		},
		YAxis: logAxis(values),
		Legend: &models.Legend{
			Title:       &models.Title{Text: "Substance"},
			Orientation: "v",
			X:           models.Float(1.02),
			Y:           models.Float(1),
			XAnchor:     "left",
			YAnchor:     "top",
		},
		Margin:     marginFor(ByTrophicGroup),
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
