package layout

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

func decode(t *testing.T, body string) *models.ChartDescription {
	t.Helper()
	var cd models.ChartDescription
	if err := json.Unmarshal([]byte(body), &cd); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return &cd
}

// generic re-decodes v into plain maps so comparisons ignore key order.
func generic(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func region(m map[string]any, path ...string) map[string]any {
	for _, p := range path {
		next, _ := m[p].(map[string]any)
		m = next
	}
	return m
}

// ═══════════════════════════════════════════════════════════════
// Identity and preservation
// ═══════════════════════════════════════════════════════════════

const fullySpecified = `{
	"data": [{"type": "scatter", "x": [1, 2], "y": [3, 4], "weird": {"nested": true}}],
	"layout": {
		"title": "SSD",
		"xaxis": {"automargin": false, "type": "log"},
		"yaxis": {"automargin": true, "range": [0, 1]},
		"legend": {"orientation": "h", "x": 0, "y": -0.2, "xanchor": "left", "yanchor": "top",
		           "visible": false, "font": {"size": 9, "family": "Serif"}},
		"margin": {"l": 10, "r": 20, "t": 30, "b": 40},
		"font": {"family": "Serif", "size": 10},
		"autosize": false,
		"showlegend": false
	},
	"config": {"displayModeBar": false, "displaylogo": true, "responsive": false,
	           "modeBarButtonsToRemove": ["zoom2d"]}
}`

func TestReconcileIdentityOnFullySpecifiedInput(t *testing.T) {
	src := decode(t, fullySpecified)
	before := generic(t, src)

	got, err := Reconcile(src, DefaultDefaults())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if out := generic(t, got); !reflect.DeepEqual(out, before) {
		t.Errorf("reconcile changed a fully specified description\n got: %v\nwant: %v", out, before)
	}
	if after := generic(t, src); !reflect.DeepEqual(after, before) {
		t.Error("source description was mutated")
	}
}

func TestReconcileTracesPassThroughByteForByte(t *testing.T) {
	const trace = `{"type":"box","y":[1,"two",null],"boxpoints":"all","marker":{"color":"red"}}`
	src := decode(t, `{"data": [`+trace+`], "layout": {}}`)

	got, err := Reconcile(src, DefaultDefaults())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if raw := string(got.Data[0].Raw()); raw != trace {
		t.Errorf("trace raw bytes changed:\n got: %s\nwant: %s", raw, trace)
	}
	data, err := json.Marshal(got.Data[0])
	if err != nil {
		t.Fatalf("marshal trace: %v", err)
	}
	if string(data) != trace {
		t.Errorf("trace encoding changed:\n got: %s\nwant: %s", data, trace)
	}
}

func TestReconcileNeverDropsSourceKeys(t *testing.T) {
	src := decode(t, `{
		"data": [],
		"layout": {
			"xaxis": {"tickangle": "auto", "title": {"text": "Species"}, "zeroline": false},
			"legend": {"itemsizing": "constant", "font": {"color": "#333"}},
			"margin": {"l": 120, "autoexpand": true},
			"hovermode": false,
			"shapes": [{"type": "line", "x0": 0, "x1": 1}],
			"annotations": []
		}
	}`)
	got, err := Reconcile(src, DefaultDefaults())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	out := generic(t, got)
	layout := region(out, "layout")

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"xaxis.tickangle", region(layout, "xaxis")["tickangle"], "auto"},
		{"xaxis.zeroline", region(layout, "xaxis")["zeroline"], false},
		{"xaxis.title.text", region(layout, "xaxis", "title")["text"], "Species"},
		{"legend.itemsizing", region(layout, "legend")["itemsizing"], "constant"},
		{"legend.font.color", region(layout, "legend", "font")["color"], "#333"},
		{"margin.l", region(layout, "margin")["l"], 120.0},
		{"margin.autoexpand", region(layout, "margin")["autoexpand"], true},
		{"hovermode", layout["hovermode"], false},
		{"annotations", layout["annotations"], []any{}},
	}
	for _, c := range checks {
		if !reflect.DeepEqual(c.got, c.want) {
			t.Errorf("%s: got %#v, want %#v", c.name, c.got, c.want)
		}
	}
	if shapes, _ := layout["shapes"].([]any); len(shapes) != 1 {
		t.Errorf("shapes: got %v", layout["shapes"])
	}
}

// ═══════════════════════════════════════════════════════════════
// Region merges
// ═══════════════════════════════════════════════════════════════

func TestReconcileSecondaryAxes(t *testing.T) {
	src := decode(t, `{
		"data": [],
		"layout": {
			"xaxis3": {"anchor": "y", "overlaying": "x", "side": "top", "showline": true},
			"yaxis2": {"type": "log", "automargin": false}
		}
	}`)
	got, err := Reconcile(src, DefaultDefaults())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	layout := region(generic(t, got), "layout")

	wantX3 := map[string]any{"anchor": "y", "overlaying": "x", "side": "top", "showline": true, "automargin": true}
	if !reflect.DeepEqual(region(layout, "xaxis3"), wantX3) {
		t.Errorf("xaxis3: got %v, want %v", region(layout, "xaxis3"), wantX3)
	}
	wantY2 := map[string]any{"type": "log", "automargin": false}
	if !reflect.DeepEqual(region(layout, "yaxis2"), wantY2) {
		t.Errorf("yaxis2: got %v, want %v", region(layout, "yaxis2"), wantY2)
	}
}

func TestReconcileNullSecondaryAxisKept(t *testing.T) {
	got, err := Reconcile(decode(t, `{"data": [], "layout": {"xaxis2": null}}`), DefaultDefaults())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	layout := region(generic(t, got), "layout")
	v, ok := layout["xaxis2"]
	if !ok || v != nil {
		t.Errorf("xaxis2: got %v (present %v), want null", v, ok)
	}
}

func TestReconcilePrimaryAxesOnlyGainAutomargin(t *testing.T) {
	src := decode(t, `{"data": [], "layout": {"yaxis": {"type": "log"}}}`)
	got, err := Reconcile(src, DefaultDefaults())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	layout := region(generic(t, got), "layout")
	if want := map[string]any{"type": "log", "automargin": true}; !reflect.DeepEqual(region(layout, "yaxis"), want) {
		t.Errorf("yaxis: got %v, want %v", region(layout, "yaxis"), want)
	}
	if want := map[string]any{"automargin": true}; !reflect.DeepEqual(region(layout, "xaxis"), want) {
		t.Errorf("xaxis: got %v, want %v", region(layout, "xaxis"), want)
	}
}

func TestReconcileMarginPerField(t *testing.T) {
	src := decode(t, `{"data": [], "layout": {"margin": {"l": 5}}}`)
	got, err := Reconcile(src, DefaultDefaults())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	m := got.Layout.Margin
	if *m.L != 5 {
		t.Errorf("margin.l: got %v, want 5", *m.L)
	}
	if *m.R != DefaultMarginRight || *m.T != DefaultMarginTop || *m.B != DefaultMarginBottom {
		t.Errorf("margin defaults lost: r=%v t=%v b=%v", *m.R, *m.T, *m.B)
	}
}

func TestReconcileOutputDoesNotAliasDefaults(t *testing.T) {
	defaults := DefaultDefaults()
	body := `{"data": [], "layout": {}}`

	first, err := Reconcile(decode(t, body), defaults)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	*first.Layout.Margin.R = 999
	*first.Layout.Legend.X = -1
	*first.Layout.ShowLegend = false
	*first.Config.DisplayLogo = true
	if len(first.Config.ModeBarButtonsToRemove) > 0 {
		first.Config.ModeBarButtonsToRemove[0] = "changed"
	}

	second, err := Reconcile(decode(t, body), defaults)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if *second.Layout.Margin.R != DefaultMarginRight {
		t.Errorf("margin.r: got %v, want %v", *second.Layout.Margin.R, DefaultMarginRight)
	}
	if *second.Layout.Legend.X != 1.02 || !*second.Layout.ShowLegend || *second.Config.DisplayLogo {
		t.Errorf("defaults changed through an earlier result: %+v", generic(t, second))
	}
	if !reflect.DeepEqual(second.Config.ModeBarButtonsToRemove, DefaultDefaults().Config.ModeBarButtonsToRemove) {
		t.Errorf("modeBarButtonsToRemove: %v", second.Config.ModeBarButtonsToRemove)
	}
}

func TestReconcileLegend(t *testing.T) {
	tests := []struct {
		name   string
		legend string
		want   map[string]any
	}{
		{
			name: "absent legend takes the full default block",
			want: map[string]any{
				"orientation": "v", "x": 1.02, "y": 1.0, "xanchor": "left", "yanchor": "top",
				"visible": true, "font": map[string]any{"size": DefaultLegendFontSize},
			},
		},
		{
			name:   "partial legend merges per field",
			legend: `,"legend": {"orientation": "h", "font": {"family": "Mono"}}`,
			want: map[string]any{
				"orientation": "h", "x": 1.02, "y": 1.0, "xanchor": "left", "yanchor": "top",
				"visible": true, "font": map[string]any{"family": "Mono", "size": DefaultLegendFontSize},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := decode(t, `{"data": [], "layout": {"title": "t"`+tt.legend+`}}`)
			got, err := Reconcile(src, DefaultDefaults())
			if err != nil {
				t.Fatalf("Reconcile: %v", err)
			}
			if legend := region(generic(t, got), "layout", "legend"); !reflect.DeepEqual(legend, tt.want) {
				t.Errorf("legend: got %v, want %v", legend, tt.want)
			}
		})
	}
}

func TestReconcileScalarsAndConfig(t *testing.T) {
	src := decode(t, `{
		"data": [],
		"layout": {"font": {"size": 16}, "showlegend": false},
		"config": {"displayModeBar": false, "toImageButtonOptions": {"format": "svg"}}
	}`)
	got, err := Reconcile(src, DefaultDefaults())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	l := got.Layout
	if *l.Font.Size != 16 || l.Font.Family != DefaultFontFamily {
		t.Errorf("font: got size=%v family=%q", *l.Font.Size, l.Font.Family)
	}
	if *l.ShowLegend || !*l.Autosize {
		t.Errorf("flags: showlegend=%v autosize=%v", *l.ShowLegend, *l.Autosize)
	}

	cfg := generic(t, got)["config"].(map[string]any)
	if cfg["displayModeBar"] != false {
		t.Errorf("config.displayModeBar: got %v, want false", cfg["displayModeBar"])
	}
	if cfg["displaylogo"] != false || cfg["responsive"] != true {
		t.Errorf("config defaults lost: %v", cfg)
	}
	if _, ok := cfg["toImageButtonOptions"]; !ok {
		t.Error("config.toImageButtonOptions dropped")
	}
}

// ═══════════════════════════════════════════════════════════════
// Failure semantics
// ═══════════════════════════════════════════════════════════════

func TestReconcileStructuralFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no series list", `{"layout": {}}`},
		{"null series list", `{"data": null, "layout": {}}`},
		{"no layout", `{"data": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reconcile(decode(t, tt.body), DefaultDefaults())
			if !errors.Is(err, ErrInvalidDescription) {
				t.Errorf("err = %v, want ErrInvalidDescription", err)
			}
		})
	}
	if _, err := Reconcile(nil, DefaultDefaults()); !errors.Is(err, ErrInvalidDescription) {
		t.Errorf("nil description: err = %v", err)
	}
}
