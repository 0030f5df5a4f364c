package layout

import "github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"

// Defaults is the presentation policy applied to chart descriptions.
// Every field is optional; a nil or empty field contributes nothing.
type Defaults struct {
	// Automargin is injected into primary and secondary axes that do not
	// set it.
	Automargin bool

	Legend     models.Legend
	Margin     models.Margin
	Font       models.Font
	Autosize   *bool
	ShowLegend *bool
	Config     models.Config
}

// Default presentation values.
const (
	DefaultFontFamily     = "Inter, Helvetica, Arial, sans-serif"
	DefaultFontSize       = 12.0
	DefaultLegendFontSize = 11.0
	DefaultMarginLeft     = 80.0
	DefaultMarginRight    = 160.0
	DefaultMarginTop      = 100.0
	DefaultMarginBottom   = 120.0
)

// DefaultDefaults returns the built-in presentation defaults: a vertical
// legend outside the plot on the right, automargin on every axis, a
// responsive config without lasso and box select.
func DefaultDefaults() Defaults {
	return Defaults{
		Automargin: true,
		Legend: models.Legend{
			Orientation: "v",
			X:           models.Float(1.02),
			Y:           models.Float(1),
			XAnchor:     "left",
			YAnchor:     "top",
			Visible:     models.Bool(true),
			Font:        &models.Font{Size: models.Float(DefaultLegendFontSize)},
		},
		Margin: models.Margin{
			L: models.Float(DefaultMarginLeft),
			R: models.Float(DefaultMarginRight),
			T: models.Float(DefaultMarginTop),
			B: models.Float(DefaultMarginBottom),
		},
		Font: models.Font{
			Family: DefaultFontFamily,
			Size:   models.Float(DefaultFontSize),
		},
		Autosize:   models.Bool(true),
		ShowLegend: models.Bool(true),
		Config: models.Config{
			DisplayModeBar:         models.Bool(true),
			DisplayLogo:            models.Bool(false),
			Responsive:             models.Bool(true),
			ModeBarButtonsToRemove: []string{"lasso2d", "select2d"},
		},
	}
}
