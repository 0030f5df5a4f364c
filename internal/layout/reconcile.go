// Package layout merges externally produced chart descriptions with the
// local presentation defaults.
//
// The merge is field by field and region by region: a field the source sets
// is kept verbatim, a field it omits is taken from Defaults. Unknown keys
// ride along in each region's Extra map and secondary axes (xaxis2,
// yaxis3, ...) are carried through. Traces are never touched.
package layout

import (
	"errors"
	"fmt"
	"slices"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

// ErrInvalidDescription is returned when a chart description lacks its
// series list or its layout. Callers render a fallback, never a partial
// chart.
var ErrInvalidDescription = errors.New("invalid chart description")

// Reconcile returns src with every gap filled from d. src is not modified.
func Reconcile(src *models.ChartDescription, d Defaults) (*models.ChartDescription, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil description", ErrInvalidDescription)
	}
	if src.Data == nil {
		return nil, fmt.Errorf("%w: missing series list", ErrInvalidDescription)
	}
	if src.Layout == nil {
		return nil, fmt.Errorf("%w: missing layout", ErrInvalidDescription)
	}

	data := make([]models.Trace, len(src.Data))
	copy(data, src.Data)

	return &models.ChartDescription{
		Data:   data,
		Layout: mergeLayout(src.Layout, d),
		Config: mergeConfig(src.Config, &d.Config),
	}, nil
}

func mergeLayout(src *models.Layout, d Defaults) *models.Layout {
	out := *src
	out.XAxis = mergeAxis(src.XAxis, d.Automargin)
	out.YAxis = mergeAxis(src.YAxis, d.Automargin)
	if len(src.SecondaryAxes) > 0 {
		out.SecondaryAxes = make(map[string]*models.Axis, len(src.SecondaryAxes))
		for key, ax := range src.SecondaryAxes {
			if ax == nil {
				continue
			}
			out.SecondaryAxes[key] = mergeAxis(ax, d.Automargin)
		}
	}
	out.Legend = mergeLegend(src.Legend, &d.Legend)
	out.Margin = mergeMargin(src.Margin, &d.Margin)
	out.Font = mergeFont(src.Font, &d.Font)
	out.Autosize = pick(src.Autosize, d.Autosize)
	out.ShowLegend = pick(src.ShowLegend, d.ShowLegend)
	out.Extra = models.MergeExtra(src.Extra, nil)
	return &out
}

// mergeAxis injects automargin and nothing else. An absent axis becomes
// {automargin: true}.
func mergeAxis(src *models.Axis, automargin bool) *models.Axis {
	if src == nil && !automargin {
		return nil
	}
	var out models.Axis
	if src != nil {
		out = *src
		out.Extra = models.MergeExtra(src.Extra, nil)
	}
	if _, set := out.Extra["automargin"]; automargin && out.Automargin == nil && !set {
		out.Automargin = models.Bool(true)
	}
	return &out
}

// mergeLegend merges per field, nested font included. A source without a
// legend thus gets the whole default block.
func mergeLegend(src, def *models.Legend) *models.Legend {
	if src == nil {
		src = &models.Legend{}
	}
	out := *src
	out.Title = pick(src.Title, def.Title)
	out.Orientation = pickString(src.Orientation, def.Orientation)
	out.X = pick(src.X, def.X)
	out.Y = pick(src.Y, def.Y)
	out.XAnchor = pickString(src.XAnchor, def.XAnchor)
	out.YAnchor = pickString(src.YAnchor, def.YAnchor)
	out.Visible = pick(src.Visible, def.Visible)
	out.Font = mergeFont(src.Font, def.Font)
	out.BgColor = pickString(src.BgColor, def.BgColor)
	out.TraceOrder = pickString(src.TraceOrder, def.TraceOrder)
	out.Extra = models.MergeExtra(src.Extra, def.Extra)
	return &out
}

func mergeFont(src, def *models.Font) *models.Font {
	if src == nil && def == nil {
		return nil
	}
	var s, d models.Font
	if src != nil {
		s = *src
	}
	if def != nil {
		d = *def
	}
	return &models.Font{
		Family: pickString(s.Family, d.Family),
		Size:   pick(s.Size, d.Size),
		Color:  pickString(s.Color, d.Color),
		Extra:  models.MergeExtra(s.Extra, d.Extra),
	}
}

func mergeMargin(src, def *models.Margin) *models.Margin {
	var s models.Margin
	if src != nil {
		s = *src
	}
	out := &models.Margin{
		L:     pick(s.L, def.L),
		R:     pick(s.R, def.R),
		T:     pick(s.T, def.T),
		B:     pick(s.B, def.B),
		Pad:   pick(s.Pad, def.Pad),
		Extra: models.MergeExtra(s.Extra, def.Extra),
	}
	if src == nil && out.L == nil && out.R == nil && out.T == nil && out.B == nil && out.Pad == nil && out.Extra == nil {
		return nil
	}
	return out
}

func mergeConfig(src, def *models.Config) *models.Config {
	var s models.Config
	if src != nil {
		s = *src
	}
	return &models.Config{
		DisplayModeBar:         pick(s.DisplayModeBar, def.DisplayModeBar),
		ModeBarButtonsToRemove: pickSlice(s.ModeBarButtonsToRemove, def.ModeBarButtonsToRemove),
		DisplayLogo:            pick(s.DisplayLogo, def.DisplayLogo),
		Responsive:             pick(s.Responsive, def.Responsive),
		ScrollZoom:             pick(s.ScrollZoom, def.ScrollZoom),
		Extra:                  models.MergeExtra(s.Extra, def.Extra),
	}
}

// pick returns a shallow copy of src, or of def when src is unset, so the
// result never points into the shared Defaults.
func pick[T any](src, def *T) *T {
	p := src
	if p == nil {
		p = def
	}
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func pickString(src, def string) string {
	if src != "" {
		return src
	}
	return def
}

func pickSlice[T any](src, def []T) []T {
	if len(src) > 0 {
		return slices.Clone(src)
	}
	return slices.Clone(def)
}
