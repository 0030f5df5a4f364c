package report

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/palette"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/series"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/utils"
)

// ReportFormat specifies the output format.
type ReportFormat string

const (
	FormatHTML ReportFormat = "html"
	FormatText ReportFormat = "text"
)

// ParseFormat maps a format name to a ReportFormat.
func ParseFormat(s string) (ReportFormat, error) {
	switch f := ReportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatHTML, FormatText:
		return f, nil
	case "":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown report format %q (want html or text)", s)
}

// ReportSection identifies a section to include/exclude.
type ReportSection string

const (
	SectionGroups  ReportSection = "groups"
	SectionCharts  ReportSection = "charts"
	SectionSpecies ReportSection = "species"
)

// AllSections returns all report sections in display order.
func AllSections() []ReportSection {
	return []ReportSection{SectionGroups, SectionCharts, SectionSpecies}
}

// ReportConfig controls report generation behaviour.
type ReportConfig struct {
	Format   ReportFormat    // output format (default: HTML)
	Sections []ReportSection // sections to include (default: all)
	Title    string          // custom report title (optional)
	Author   string          // author line (optional)
	ChartCfg ChartConfig     // chart rendering config
	Now      func() time.Time
}

// DefaultReportConfig returns sensible defaults.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Format:   FormatHTML,
		Sections: AllSections(),
		Author:   "OpenChemFacts",
		ChartCfg: DefaultChartConfig(),
	}
}

// hasSection returns true if the section is included in the config.
func (rc ReportConfig) hasSection(s ReportSection) bool {
	for _, sec := range rc.Sections {
		if sec == s {
			return true
		}
	}
	return false
}

// ReportData is the template model passed to HTML templates.
type ReportData struct {
	Title        string
	CAS          string
	ChemicalName string
	Author       string
	GeneratedAt  string

	TrophicGroups string
	Species       string
	Observations  string
	Min           string
	Max           string
	Years         string

	Groups      []GroupRow
	SpeciesRows []SpeciesRow

	CountChart template.HTML
	RangeChart template.HTML

	ShowGroups  bool
	ShowCharts  bool
	ShowSpecies bool
}

// GroupRow summarizes one trophic group.
type GroupRow struct {
	Name         string
	Color        string
	Species      int
	Observations int
	Min          string
	GeoMean      string
	Max          string
}

// SpeciesRow summarizes one species within its group.
type SpeciesRow struct {
	Group        string
	Name         string
	Observations int
	Min          string
	Max          string
}

// Generate renders the report in cfg.Format.
func Generate(ds *models.Dataset, cfg ReportConfig) (string, error) {
	if cfg.Format == FormatText {
		return GenerateText(ds, cfg)
	}
	return GenerateHTML(ds, cfg)
}

// GenerateHTML generates an HTML substance report.
func GenerateHTML(ds *models.Dataset, cfg ReportConfig) (string, error) {
	if ds == nil {
		return "", fmt.Errorf("dataset is nil")
	}

	data := buildReportData(ds, cfg)

	tmpl, err := template.New("report").Parse(ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// GenerateText generates a plain-text report (terminal / CLI friendly).
func GenerateText(ds *models.Dataset, cfg ReportConfig) (string, error) {
	if ds == nil {
		return "", fmt.Errorf("dataset is nil")
	}
	return renderTextReport(buildReportData(ds, cfg)), nil
}

// --- data ---

// valueStats accumulates min, max and the log sum of positive values.
type valueStats struct {
	n        int
	min, max float64
	logSum   float64
	positive int
}

func (s *valueStats) add(v float64) {
	if s.n == 0 || v < s.min {
		s.min = v
	}
	if s.n == 0 || v > s.max {
		s.max = v
	}
	s.n++
	if v > 0 {
		s.logSum += math.Log(v)
		s.positive++
	}
}

// geoMean is the geometric mean of the positive values, NaN when there are none.
func (s valueStats) geoMean() float64 {
	if s.positive == 0 {
		return math.NaN()
	}
	return math.Exp(s.logSum / float64(s.positive))
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return utils.FormatConcentration(v)
}

func buildReportData(ds *models.Dataset, cfg ReportConfig) ReportData {
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	st := series.StatsOf(ds)

	data := ReportData{
		Title:         cfg.Title,
		CAS:           ds.CAS,
		ChemicalName:  ds.ChemicalName,
		Author:        cfg.Author,
		GeneratedAt:   ReportTimestamp(now()),
		TrophicGroups: utils.FormatCount(st.TrophicGroups),
		Species:       utils.FormatCount(st.Species),
		Observations:  utils.FormatCount(st.Observations),
		ShowGroups:    cfg.hasSection(SectionGroups),
		ShowCharts:    cfg.hasSection(SectionCharts),
		ShowSpecies:   cfg.hasSection(SectionSpecies),
	}
	if data.Title == "" {
		data.Title = "Ecotoxicity report: " + ds.Label()
	}

	var all valueStats
	minYear, maxYear := 0, 0
	var bars []BarItem
	var ranges []RangeItem
	for _, group := range ds.GroupNames() {
		bucket := ds.TrophicGroups[group]
		var gs valueStats
		for _, name := range bucket.SpeciesNames() {
			var ss valueStats
			for _, o := range bucket[name] {
				ss.add(o.Value)
				gs.add(o.Value)
				all.add(o.Value)
				if o.Year > 0 {
					if minYear == 0 || o.Year < minYear {
						minYear = o.Year
					}
					if o.Year > maxYear {
						maxYear = o.Year
					}
				}
			}
			if ss.n == 0 {
				continue
			}
			data.SpeciesRows = append(data.SpeciesRows, SpeciesRow{
				Group:        group,
				Name:         name,
				Observations: ss.n,
				Min:          formatValue(ss.min),
				Max:          formatValue(ss.max),
			})
		}
		if gs.n == 0 {
			continue
		}
		color := palette.GroupColor(group)
		data.Groups = append(data.Groups, GroupRow{
			Name:         group,
			Color:        color,
			Species:      len(bucket),
			Observations: gs.n,
			Min:          formatValue(gs.min),
			GeoMean:      formatValue(gs.geoMean()),
			Max:          formatValue(gs.max),
		})
		bars = append(bars, BarItem{Label: group, Value: float64(gs.n), Color: color})
		ranges = append(ranges, RangeItem{Label: group, Low: gs.min, Mid: gs.geoMean(), High: gs.max, Color: color})
	}

	if all.n > 0 {
		data.Min = formatValue(all.min)
		data.Max = formatValue(all.max)
	} else {
		data.Min, data.Max = "n/a", "n/a"
	}
	switch {
	case minYear == 0:
	case minYear == maxYear:
		data.Years = fmt.Sprint(minYear)
	default:
		data.Years = fmt.Sprintf("%d to %d", minYear, maxYear)
	}

	if data.ShowCharts {
		countCfg := cfg.ChartCfg
		countCfg.Title = "Observations per trophic group"
		data.CountChart = template.HTML(HorizontalBarChart(bars, countCfg))
		rangeCfg := cfg.ChartCfg
		rangeCfg.Title = "EC10eq range per trophic group (mg/L, log scale)"
		data.RangeChart = template.HTML(RangeChart(ranges, rangeCfg))
	}
	return data
}

// --- text ---

func renderTextReport(d ReportData) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", d.Title))
	sb.WriteString(fmt.Sprintf("  Generated: %s | Author: %s\n", d.GeneratedAt, d.Author))
	sb.WriteString(line + "\n\n")

	name := d.ChemicalName
	if name == "" {
		name = "(unnamed substance)"
	}
	sb.WriteString(fmt.Sprintf("  %s (CAS %s)\n", name, d.CAS))
	sb.WriteString(fmt.Sprintf("  Trophic groups: %s | Species: %s | Observations: %s\n",
		d.TrophicGroups, d.Species, d.Observations))
	sb.WriteString(fmt.Sprintf("  EC10eq: %s to %s\n", d.Min, d.Max))
	if d.Years != "" {
		sb.WriteString(fmt.Sprintf("  Years: %s\n", d.Years))
	}
	sb.WriteString(thinLine + "\n")

	if d.ShowGroups && len(d.Groups) > 0 {
		sb.WriteString("\n  ■ TROPHIC GROUPS\n")
		for _, g := range d.Groups {
			sb.WriteString(fmt.Sprintf("    %-16s %3d species %5d obs  min %s  gm %s  max %s\n",
				g.Name, g.Species, g.Observations, g.Min, g.GeoMean, g.Max))
		}
		sb.WriteString(thinLine + "\n")
	}

	if d.ShowSpecies && len(d.SpeciesRows) > 0 {
		sb.WriteString("\n  ■ SPECIES\n")
		for _, s := range d.SpeciesRows {
			sb.WriteString(fmt.Sprintf("    [%s] %s: %d obs, %s to %s\n",
				s.Group, s.Name, s.Observations, s.Min, s.Max))
		}
		sb.WriteString(thinLine + "\n")
	}

	sb.WriteString("\n" + line + "\n")
	return sb.String()
}

// ReportTimestamp formats t for report headers.
func ReportTimestamp(t time.Time) string {
	return t.UTC().Format("02 Jan 2006, 15:04 UTC")
}
