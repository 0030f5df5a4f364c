// Package palette holds the fixed color and marker-symbol tables used to
// draw ecotoxicity charts. The tables are configuration data: they are not
// derived at runtime and must stay identical across every consumer so that
// charts look the same wherever they are rendered.
package palette

import "strings"

// DefaultColor is used for trophic groups missing from the color table.
const DefaultColor = "#7f7f7f"

// DefaultSymbol is used for trophic groups missing from the symbol table.
const DefaultSymbol = "circle"

var groupColors = map[string]string{
	"algae":       "#2ca02c",
	"amphibians":  "#8c564b",
	"bacteria":    "#bcbd22",
	"crustaceans": "#ff7f0e",
	"fish":        "#1f77b4",
	"fungi":       "#c49c94",
	"insects":     "#d62728",
	"molluscs":    "#9467bd",
	"plants":      "#17becf",
	"rotifers":    "#f7b6d2",
	"worms":       "#e377c2",
}

var groupSymbols = map[string]string{
	"algae":       "square",
	"amphibians":  "pentagon",
	"bacteria":    "hexagon",
	"crustaceans": "diamond",
	"fish":        "circle",
	"fungi":       "star-triangle-up",
	"insects":     "triangle-up",
	"molluscs":    "cross",
	"plants":      "star",
	"rotifers":    "hourglass",
	"worms":       "x",
}

// cycle is the palette for year and author coloring, assigned by sorted
// position and wrapped when exhausted.
var cycle = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// symbols is the marker vocabulary accepted by the renderer.
var symbols = map[string]struct{}{
	"circle": {}, "square": {}, "diamond": {}, "cross": {}, "x": {},
	"triangle-up": {}, "triangle-down": {}, "triangle-left": {}, "triangle-right": {},
	"pentagon": {}, "hexagon": {}, "hexagon2": {}, "octagon": {}, "star": {},
	"hexagram": {}, "star-triangle-up": {}, "star-triangle-down": {},
	"star-square": {}, "star-diamond": {}, "diamond-tall": {}, "diamond-wide": {},
	"hourglass": {}, "bowtie": {}, "circle-open": {}, "square-open": {},
	"diamond-open": {}, "triangle-up-open": {},
}

// symbolAliases maps names the renderer rejects onto supported ones.
var symbolAliases = map[string]string{
	"triangle": "triangle-up",
	"plus":     "cross",
	"rect":     "square",
	"dot":      "circle",
	"point":    "circle",
	"times":    "x",
	"pin":      "diamond-tall",
}

// GroupColor returns the color for a trophic group. Lookup is
// case-insensitive; unknown groups get DefaultColor.
func GroupColor(group string) string {
	if c, ok := groupColors[strings.ToLower(strings.TrimSpace(group))]; ok {
		return c
	}
	return DefaultColor
}

// GroupSymbol returns the marker symbol for a trophic group, already
// resolved against the renderer vocabulary.
func GroupSymbol(group string) string {
	if s, ok := groupSymbols[strings.ToLower(strings.TrimSpace(group))]; ok {
		return ResolveSymbol(s)
	}
	return DefaultSymbol
}

// ResolveSymbol maps a symbol name onto the renderer vocabulary: supported
// names pass through, known aliases are rewritten and anything else falls
// back to DefaultSymbol.
func ResolveSymbol(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if IsSupportedSymbol(name) {
		return name
	}
	if alias, ok := symbolAliases[name]; ok {
		return alias
	}
	return DefaultSymbol
}

// IsSupportedSymbol reports whether the renderer accepts name as is.
func IsSupportedSymbol(name string) bool {
	_, ok := symbols[name]
	return ok
}

// CycleColor returns the palette color for a zero-based sorted position,
// wrapping around the palette.
func CycleColor(i int) string {
	if i < 0 {
		i = -i
	}
	return cycle[i%len(cycle)]
}

// Palette returns a copy of the cyclic palette.
func Palette() []string {
	out := make([]string, len(cycle))
	copy(out, cycle)
	return out
}

// Groups returns the trophic groups with a dedicated color, unsorted.
func Groups() []string {
	out := make([]string, 0, len(groupColors))
	for g := range groupColors {
		out = append(out, g)
	}
	return out
}
