package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

func sampleDataset() *models.Dataset {
	return &models.Dataset{
		CAS:          "71-43-2",
		ChemicalName: "Benzene",
		TrophicGroups: map[string]models.SpeciesBucket{
			"fish": {
				"Danio rerio":         {{Value: 10, Year: 1998}, {Value: 1000, Year: 2004}},
				"Oncorhynchus mykiss": {{Value: 5.3, Year: 2010}},
			},
			"algae": {
				"Raphidocelis <subcapitata>": {{Value: 0.02, Year: 2015}},
			},
		},
	}
}

func fixedNow() time.Time { return time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC) }

func sampleConfig() ReportConfig {
	cfg := DefaultReportConfig()
	cfg.Now = fixedNow
	return cfg
}

// ── Charts ──

func TestHorizontalBarChart_Basic(t *testing.T) {
	svg := HorizontalBarChart([]BarItem{
		{Label: "fish", Value: 3, Color: "#1f77b4"},
		{Label: "algae & plants", Value: 1},
	}, DefaultChartConfig())

	for _, want := range []string{"<svg", "</svg>", "#1f77b4", "algae &amp; plants", ">3<", "Comparison"} {
		if !strings.Contains(svg, want) {
			t.Errorf("expected %q in SVG", want)
		}
	}
	if strings.Count(svg, `rx="2"`) != 2 {
		t.Errorf("expected 2 bars")
	}
}

func TestHorizontalBarChart_Empty(t *testing.T) {
	svg := HorizontalBarChart(nil, DefaultChartConfig())
	if !strings.Contains(svg, "No data") {
		t.Error("expected empty placeholder")
	}
}

func TestHorizontalBarChart_ZeroConfig(t *testing.T) {
	svg := HorizontalBarChart([]BarItem{{Label: "a", Value: 0}}, ChartConfig{})
	if !strings.Contains(svg, `width="800"`) {
		t.Error("zero config should fall back to defaults")
	}
	if strings.Contains(svg, "NaN") {
		t.Error("all-zero values must not produce NaN geometry")
	}
}

func TestRangeChart_Basic(t *testing.T) {
	svg := RangeChart([]RangeItem{
		{Label: "fish", Low: 5.3, Mid: 37.56, High: 1000},
		{Label: "algae", Low: 0.02, Mid: math.NaN(), High: 0.02},
	}, DefaultChartConfig())

	if strings.Count(svg, "<circle") != 1 {
		t.Errorf("expected one marker (NaN mid hidden)")
	}
	// Decades 0.01 .. 1000.
	for _, want := range []string{">0.01<", ">0.1<", ">1<", ">1000<"} {
		if !strings.Contains(svg, want) {
			t.Errorf("expected tick %q", want)
		}
	}
	if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Error("geometry contains non-finite coordinates")
	}
}

func TestRangeChart_SingleDecade(t *testing.T) {
	svg := RangeChart([]RangeItem{{Label: "x", Low: 100, Mid: 100, High: 100}}, DefaultChartConfig())
	if strings.Contains(svg, "NaN") {
		t.Error("single-decade range must widen the axis")
	}
	if !strings.Contains(svg, ">10<") || !strings.Contains(svg, ">1000<") {
		t.Error("expected neighbouring decades on a single-decade axis")
	}
}

func TestRangeChart_NonFinite(t *testing.T) {
	svg := RangeChart([]RangeItem{{Label: "x", Low: math.NaN(), High: math.Inf(1)}}, DefaultChartConfig())
	if !strings.Contains(svg, "No finite values") {
		t.Error("expected placeholder for non-finite ranges")
	}
}

func TestEscapeXML(t *testing.T) {
	if got := escapeXML(`a<b>&"c"`); got != "a&lt;b&gt;&amp;&quot;c&quot;" {
		t.Errorf("escapeXML: got %q", got)
	}
}

func TestPlotArea(t *testing.T) {
	x, y, w, h := DefaultChartConfig().plotArea()
	if x != 70 || y != 40 || w != 670 || h != 310 {
		t.Errorf("plotArea: got %d,%d,%d,%d", x, y, w, h)
	}
}

// ── Report data ──

func TestBuildReportData(t *testing.T) {
	d := buildReportData(sampleDataset(), sampleConfig())

	if d.Title != "Ecotoxicity report: Benzene (71-43-2)" {
		t.Errorf("Title: got %q", d.Title)
	}
	if d.TrophicGroups != "2" || d.Species != "3" || d.Observations != "4" {
		t.Errorf("stats: %s groups, %s species, %s obs", d.TrophicGroups, d.Species, d.Observations)
	}
	if d.Min != "0.0200 mg/L" || d.Max != "1000.0000 mg/L" {
		t.Errorf("range: %s to %s", d.Min, d.Max)
	}
	if d.Years != "1998 to 2015" {
		t.Errorf("Years: got %q", d.Years)
	}
	if len(d.Groups) != 2 || d.Groups[0].Name != "algae" || d.Groups[1].Name != "fish" {
		t.Fatalf("groups: %+v", d.Groups)
	}
	fish := d.Groups[1]
	if fish.Species != 2 || fish.Observations != 3 {
		t.Errorf("fish: %+v", fish)
	}
	// (10 * 1000 * 5.3)^(1/3)
	if fish.GeoMean != "37.5629 mg/L" {
		t.Errorf("fish geometric mean: got %s", fish.GeoMean)
	}
	if len(d.SpeciesRows) != 3 || d.SpeciesRows[1].Name != "Danio rerio" {
		t.Errorf("species rows: %+v", d.SpeciesRows)
	}
	if d.CountChart == "" || d.RangeChart == "" {
		t.Error("charts should be rendered when the charts section is on")
	}
	if d.GeneratedAt != "04 Mar 2026, 09:30 UTC" {
		t.Errorf("GeneratedAt: got %q", d.GeneratedAt)
	}
}

func TestBuildReportData_EmptyDataset(t *testing.T) {
	d := buildReportData(&models.Dataset{CAS: "108-88-3"}, sampleConfig())
	if d.Min != "n/a" || d.Max != "n/a" || d.Years != "" {
		t.Errorf("empty dataset: min %q max %q years %q", d.Min, d.Max, d.Years)
	}
	if len(d.Groups) != 0 {
		t.Errorf("expected no groups, got %d", len(d.Groups))
	}
}

func TestGeoMeanIgnoresNonPositive(t *testing.T) {
	var s valueStats
	for _, v := range []float64{-1, 0, 4, 16} {
		s.add(v)
	}
	if s.min != -1 || s.max != 16 || s.n != 4 {
		t.Errorf("stats: %+v", s)
	}
	if gm := s.geoMean(); math.Abs(gm-8) > 1e-9 {
		t.Errorf("geoMean: got %v, want 8", gm)
	}
	var none valueStats
	none.add(0)
	if !math.IsNaN(none.geoMean()) {
		t.Error("geoMean without positive values should be NaN")
	}
}

// ── HTML / text ──

func TestGenerateHTML_Basic(t *testing.T) {
	html, err := GenerateHTML(sampleDataset(), sampleConfig())
	if err != nil {
		t.Fatalf("GenerateHTML failed: %v", err)
	}

	checks := []struct {
		name   string
		substr string
	}{
		{"html tag", "<html"},
		{"cas", "71-43-2"},
		{"name", "Benzene"},
		{"groups section", "Trophic Groups"},
		{"species section", "<em>Danio rerio</em>"},
		{"escaped species", "Raphidocelis &lt;subcapitata&gt;"},
		{"svg", "<svg"},
		{"geometric mean", "37.5629 mg/L"},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if !strings.Contains(html, c.substr) {
				t.Errorf("expected %q in HTML output", c.substr)
			}
		})
	}
}

func TestGenerateHTML_Nil(t *testing.T) {
	if _, err := GenerateHTML(nil, DefaultReportConfig()); err == nil {
		t.Error("expected error for nil dataset")
	}
}

func TestGenerateHTML_SelectedSections(t *testing.T) {
	cfg := sampleConfig()
	cfg.Sections = []ReportSection{SectionGroups}

	html, err := GenerateHTML(sampleDataset(), cfg)
	if err != nil {
		t.Fatalf("GenerateHTML failed: %v", err)
	}
	if !strings.Contains(html, "Trophic Groups") {
		t.Error("expected groups section")
	}
	if strings.Contains(html, "<svg") {
		t.Error("did not expect charts when not selected")
	}
	if strings.Contains(html, "<em>Danio rerio</em>") {
		t.Error("did not expect species table when not selected")
	}
}

func TestGenerateHTML_CustomTitle(t *testing.T) {
	cfg := sampleConfig()
	cfg.Title = "Custom Title Report"
	html, err := GenerateHTML(sampleDataset(), cfg)
	if err != nil {
		t.Fatalf("GenerateHTML failed: %v", err)
	}
	if !strings.Contains(html, "Custom Title Report") {
		t.Error("expected custom title in HTML")
	}
}

func TestGenerateText(t *testing.T) {
	text, err := Generate(sampleDataset(), ReportConfig{Format: FormatText, Sections: AllSections(), Now: fixedNow})
	if err != nil {
		t.Fatalf("Generate text failed: %v", err)
	}
	for _, want := range []string{"Benzene (CAS 71-43-2)", "TROPHIC GROUPS", "SPECIES", "Years: 1998 to 2015", "[fish] Danio rerio: 2 obs"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in text report", want)
		}
	}
	if strings.Contains(text, "<svg") {
		t.Error("text report must not embed SVG")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ReportFormat
		wantErr bool
	}{
		{"", FormatHTML, false},
		{"HTML", FormatHTML, false},
		{" text ", FormatText, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q): got (%q, %v)", tt.in, got, err)
		}
	}
}

func TestHasSection(t *testing.T) {
	cfg := ReportConfig{Sections: []ReportSection{SectionCharts}}
	if !cfg.hasSection(SectionCharts) || cfg.hasSection(SectionSpecies) {
		t.Error("hasSection mismatch")
	}
}
