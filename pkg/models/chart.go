package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
)

// ChartDescription is the rendering contract handed to a chart engine:
// a list of traces, a layout tree and an optional interaction config.
//
// Data is nil when the wire payload had no series list; an empty, non-nil
// slice means the list was present but empty.
type ChartDescription struct {
	Data   []Trace `json:"data"`
	Layout *Layout `json:"layout"`
	Config *Config `json:"config,omitempty"`
}

// Trace is one plotted series. Traces decoded from the wire keep their
// original bytes and re-encode to exactly those bytes.
type Trace struct {
	Type          string    `json:"type,omitempty"`        // e.g., "scatter"
	Mode          string    `json:"mode,omitempty"`        // e.g., "markers"
	Name          string    `json:"name,omitempty"`        // legend label
	X             []any     `json:"x,omitempty"`           // category labels or numbers
	Y             []float64 `json:"y,omitempty"`           // observation values
	LegendGroup   string    `json:"legendgroup,omitempty"` // trophic group
	ShowLegend    *bool     `json:"showlegend,omitempty"`  // legend entry for this trace
	Marker        *Marker   `json:"marker,omitempty"`
	CustomData    [][]any   `json:"customdata,omitempty"` // per-point tool-tip payload
	HoverTemplate string    `json:"hovertemplate,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
	raw   json.RawMessage
}

// Marker holds per-trace marker styling.
type Marker struct {
	Color  []string `json:"color,omitempty"` // one entry per point
	Symbol string   `json:"symbol,omitempty"`
	Size   *float64 `json:"size,omitempty"`
	Line   *Line    `json:"line,omitempty"`
}

// Line is a marker outline.
type Line struct {
	Color string   `json:"color,omitempty"`
	Width *float64 `json:"width,omitempty"`
}

type traceAlias Trace

// Raw returns the bytes the trace was decoded from, or nil for traces
// built in memory.
func (t Trace) Raw() json.RawMessage { return t.raw }

// MarshalJSON emits the original bytes when the trace came off the wire.
func (t Trace) MarshalJSON() ([]byte, error) {
	if t.raw != nil {
		return t.raw, nil
	}
	return encodeWithExtra(traceAlias(t), t.Extra)
}

// UnmarshalJSON keeps a private copy of data. Typed fields are decoded
// best-effort: a trace whose fields do not fit the typed view is still
// carried through intact.
func (t *Trace) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return errors.New("trace: invalid JSON")
	}
	raw := make(json.RawMessage, len(data))
	copy(raw, data)

	var a traceAlias
	extra, err := decodeWithExtra(data, &a)
	if err != nil {
		*t = Trace{raw: raw}
		return nil
	}
	*t = Trace(a)
	t.Extra = extra
	t.raw = raw
	return nil
}

// Layout is the partially specified layout tree. Any region may be nil,
// meaning "use defaults". Secondary axes (xaxis2, yaxis3, ...) live in
// SecondaryAxes keyed by their layout key; every other unknown key is kept
// verbatim in Extra.
type Layout struct {
	Title      *Title   `json:"title,omitempty"`
	XAxis      *Axis    `json:"xaxis,omitempty"`
	YAxis      *Axis    `json:"yaxis,omitempty"`
	Legend     *Legend  `json:"legend,omitempty"`
	Margin     *Margin  `json:"margin,omitempty"`
	Font       *Font    `json:"font,omitempty"`
	Autosize   *bool    `json:"autosize,omitempty"`
	ShowLegend *bool    `json:"showlegend,omitempty"`
	Width      *float64 `json:"width,omitempty"`
	Height     *float64 `json:"height,omitempty"`
	HoverMode  string   `json:"hovermode,omitempty"`

	SecondaryAxes map[string]*Axis           `json:"-"`
	Extra         map[string]json.RawMessage `json:"-"`
}

var secondaryAxisKey = regexp.MustCompile(`^[xy]axis[1-9][0-9]*$`)

// IsSecondaryAxisKey reports whether key names an additional axis, i.e. an
// axis role followed by a positive integer suffix.
func IsSecondaryAxisKey(key string) bool {
	return secondaryAxisKey.MatchString(key)
}

type layoutAlias Layout

func (l Layout) MarshalJSON() ([]byte, error) {
	extra := l.Extra
	if len(l.SecondaryAxes) > 0 {
		extra = make(map[string]json.RawMessage, len(l.Extra)+len(l.SecondaryAxes))
		for k, v := range l.Extra {
			extra[k] = v
		}
		for k, ax := range l.SecondaryAxes {
			if ax == nil {
				continue
			}
			data, err := json.Marshal(ax)
			if err != nil {
				return nil, err
			}
			extra[k] = data
		}
	}
	return encodeWithExtra(layoutAlias(l), extra)
}

func (l *Layout) UnmarshalJSON(data []byte) error {
	var a layoutAlias
	extra, err := decodeWithExtra(data, &a)
	if err != nil {
		return err
	}
	*l = Layout(a)
	for k, raw := range extra {
		if !IsSecondaryAxisKey(k) || isNull(raw) {
			continue
		}
		var ax Axis
		if err := json.Unmarshal(raw, &ax); err != nil {
			// Not an axis object; leave it untouched in Extra. A null
			// is skipped above since it would decode as an empty axis.
			continue
		}
		if l.SecondaryAxes == nil {
			l.SecondaryAxes = make(map[string]*Axis)
		}
		l.SecondaryAxes[k] = &ax
		delete(extra, k)
	}
	if len(extra) == 0 {
		extra = nil
	}
	l.Extra = extra
	return nil
}

// Axis is a primary or secondary axis region.
type Axis struct {
	Title          *Title   `json:"title,omitempty"`
	Type           string   `json:"type,omitempty"` // "category", "log", "linear"
	Automargin     *bool    `json:"automargin,omitempty"`
	TickVals       []any    `json:"tickvals,omitempty"`
	TickText       []string `json:"ticktext,omitempty"`
	TickFormat     string   `json:"tickformat,omitempty"`
	TickAngle      *float64 `json:"tickangle,omitempty"`
	ExponentFormat string   `json:"exponentformat,omitempty"`
	ShowExponent   string   `json:"showexponent,omitempty"`
	CategoryOrder  string   `json:"categoryorder,omitempty"`
	CategoryArray  []string `json:"categoryarray,omitempty"`
	ShowGrid       *bool    `json:"showgrid,omitempty"`
	Range          []any    `json:"range,omitempty"`
	Anchor         string   `json:"anchor,omitempty"`
	Overlaying     string   `json:"overlaying,omitempty"`
	Side           string   `json:"side,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type axisAlias Axis

func (a Axis) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(axisAlias(a), a.Extra)
}

func (a *Axis) UnmarshalJSON(data []byte) error {
	var v axisAlias
	extra, err := decodeWithExtra(data, &v)
	if err != nil {
		return err
	}
	*a = Axis(v)
	a.Extra = extra
	return nil
}

// Legend is the legend region.
type Legend struct {
	Title       *Title   `json:"title,omitempty"`
	Orientation string   `json:"orientation,omitempty"` // "v" or "h"
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	XAnchor     string   `json:"xanchor,omitempty"`
	YAnchor     string   `json:"yanchor,omitempty"`
	Visible     *bool    `json:"visible,omitempty"`
	Font        *Font    `json:"font,omitempty"`
	BgColor     string   `json:"bgcolor,omitempty"`
	TraceOrder  string   `json:"traceorder,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type legendAlias Legend

func (l Legend) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(legendAlias(l), l.Extra)
}

func (l *Legend) UnmarshalJSON(data []byte) error {
	var v legendAlias
	extra, err := decodeWithExtra(data, &v)
	if err != nil {
		return err
	}
	*l = Legend(v)
	l.Extra = extra
	return nil
}

// Font is a font block, used at layout level and nested in other regions.
type Font struct {
	Family string   `json:"family,omitempty"`
	Size   *float64 `json:"size,omitempty"`
	Color  string   `json:"color,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type fontAlias Font

func (f Font) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(fontAlias(f), f.Extra)
}

func (f *Font) UnmarshalJSON(data []byte) error {
	var v fontAlias
	extra, err := decodeWithExtra(data, &v)
	if err != nil {
		return err
	}
	*f = Font(v)
	f.Extra = extra
	return nil
}

// Margin holds plot margins in pixels.
type Margin struct {
	L   *float64 `json:"l,omitempty"`
	R   *float64 `json:"r,omitempty"`
	T   *float64 `json:"t,omitempty"`
	B   *float64 `json:"b,omitempty"`
	Pad *float64 `json:"pad,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type marginAlias Margin

func (m Margin) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(marginAlias(m), m.Extra)
}

func (m *Margin) UnmarshalJSON(data []byte) error {
	var v marginAlias
	extra, err := decodeWithExtra(data, &v)
	if err != nil {
		return err
	}
	*m = Margin(v)
	m.Extra = extra
	return nil
}

// Title is a title block. A title that arrived as a bare string is written
// back as a bare string as long as nothing but its text is set.
type Title struct {
	Text    string   `json:"text,omitempty"`
	Font    *Font    `json:"font,omitempty"`
	X       *float64 `json:"x,omitempty"`
	XAnchor string   `json:"xanchor,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
	plain bool
}

type titleAlias Title

// Plain reports whether the title was decoded from the bare-string form.
func (t Title) Plain() bool { return t.plain }

func (t Title) MarshalJSON() ([]byte, error) {
	if t.plain && t.Font == nil && t.X == nil && t.XAnchor == "" && len(t.Extra) == 0 {
		return json.Marshal(t.Text)
	}
	return encodeWithExtra(titleAlias(t), t.Extra)
}

func (t *Title) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*t = Title{Text: text, plain: true}
		return nil
	}
	var v titleAlias
	extra, err := decodeWithExtra(data, &v)
	if err != nil {
		return err
	}
	*t = Title(v)
	t.Extra = extra
	return nil
}

// Config holds renderer interaction toggles.
type Config struct {
	DisplayModeBar         *bool    `json:"displayModeBar,omitempty"`
	ModeBarButtonsToRemove []string `json:"modeBarButtonsToRemove,omitempty"`
	DisplayLogo            *bool    `json:"displaylogo,omitempty"`
	Responsive             *bool    `json:"responsive,omitempty"`
	ScrollZoom             *bool    `json:"scrollZoom,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type configAlias Config

func (c Config) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(configAlias(c), c.Extra)
}

func (c *Config) UnmarshalJSON(data []byte) error {
	var v configAlias
	extra, err := decodeWithExtra(data, &v)
	if err != nil {
		return err
	}
	*c = Config(v)
	c.Extra = extra
	return nil
}

// Bool returns a pointer to b, for optional layout fields.
func Bool(b bool) *bool { return &b }

// Float returns a pointer to f, for optional layout fields.
func Float(f float64) *float64 { return &f }
