package echarts

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/series"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

func sample() *models.Dataset {
	return &models.Dataset{
		CAS:          "50-00-0",
		ChemicalName: "Formaldehyde",
		TrophicGroups: map[string]models.SpeciesBucket{
			"fish": {"Danio rerio": {
				{Value: 1.2, TestID: "t1", Year: 2001, Author: "Smith"},
				{Value: 3.4, TestID: "t2", Year: 2005, Author: "Jones"},
			}},
			"algae": {"Chlorella vulgaris": {{Value: 0.02, TestID: "t3", Year: 1999, Author: "Lee"}}},
		},
	}
}

func TestWriteExportsBuiltChart(t *testing.T) {
	cd, err := series.Build(sample(), series.ByTrophicGroup)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, cd, Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	html := buf.String()
	for _, want := range []string{"echarts", "fish", "algae", `"log"`, "EC10eq values by trophic group and species"} {
		if !strings.Contains(html, want) {
			t.Errorf("exported page lacks %q", want)
		}
	}
}

func TestChartSplitsTracesByColor(t *testing.T) {
	cd, err := series.Build(sample(), series.ByYear)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	scatter, err := Chart(cd, Options{})
	if err != nil {
		t.Fatalf("Chart: %v", err)
	}
	// fish has two years, so two colors; algae has one.
	if got := len(scatter.MultiSeries); got != 3 {
		t.Errorf("series: got %d, want 3", got)
	}
}

func TestChartRejectsEmptyInput(t *testing.T) {
	tests := []struct {
		name string
		cd   *models.ChartDescription
	}{
		{"no layout", &models.ChartDescription{Data: []models.Trace{}}},
		{"no points", &models.ChartDescription{Data: []models.Trace{}, Layout: &models.Layout{}}},
		{"only bar traces", &models.ChartDescription{
			Data:   []models.Trace{{Type: "bar", X: []any{"a"}, Y: []float64{1}}},
			Layout: &models.Layout{},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Chart(tt.cd, Options{}); err == nil {
				t.Error("expected an error")
			}
		})
	}
	_, err := Chart(&models.ChartDescription{Data: []models.Trace{}, Layout: &models.Layout{}}, Options{})
	if !errors.Is(err, ErrNothingToExport) {
		t.Errorf("err = %v, want ErrNothingToExport", err)
	}
}

func TestSymbol(t *testing.T) {
	tests := map[string]string{
		"circle":      "circle",
		"square":      "rect",
		"triangle":    "triangle",
		"triangle-up": "triangle",
		"hexagon":     "circle",
		"bogus":       "circle",
	}
	for in, want := range tests {
		if got := Symbol(in); got != want {
			t.Errorf("Symbol(%q) = %q, want %q", in, got, want)
		}
	}
}
