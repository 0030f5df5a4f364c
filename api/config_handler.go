package api

import (
	"net/http"
	"time"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/config"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/layout"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/palette"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
// The data source API key is never included.
type ConfigResponse struct {
	Source       SourceView                `json:"source"`
	Presentation config.PresentationConfig `json:"presentation"`
	Logging      config.LoggingConfig      `json:"logging"`
}

// SourceView is the non-secret part of the source section.
type SourceView struct {
	BaseURL       string `json:"base_url"`
	Timeout       string `json:"timeout"`
	Retries       int    `json:"retries"`
	CacheTTL      string `json:"cache_ttl"`
	RateLimit     int    `json:"rate_limit"`
	RateWindow    string `json:"rate_window"`
	MaxConcurrent int    `json:"max_concurrent"`
}

// handleGetConfig returns the running configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	src := s.cfg.Source
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Source: SourceView{
				BaseURL:       src.BaseURL,
				Timeout:       src.Timeout.String(),
				Retries:       src.Retries,
				CacheTTL:      src.CacheTTL.String(),
				RateLimit:     src.RateLimit,
				RateWindow:    durationString(src.RateWindow),
				MaxConcurrent: src.MaxConcurrent,
			},
			Presentation: s.cfg.Presentation,
			Logging:      s.cfg.Logging,
		},
	})
}

// GroupStyle is the fixed color and marker of one trophic group.
type GroupStyle struct {
	Color  string `json:"color"`
	Symbol string `json:"symbol"`
}

// PaletteView is the color table locally built charts use.
type PaletteView struct {
	Groups  map[string]GroupStyle `json:"groups"`
	Default GroupStyle            `json:"default"`
	Cycle   []string              `json:"cycle"`
}

func paletteView() PaletteView {
	groups := palette.Groups()
	v := PaletteView{
		Groups:  make(map[string]GroupStyle, len(groups)),
		Default: GroupStyle{Color: palette.DefaultColor, Symbol: palette.DefaultSymbol},
		Cycle:   palette.Palette(),
	}
	for _, g := range groups {
		v.Groups[g] = GroupStyle{Color: palette.GroupColor(g), Symbol: palette.GroupSymbol(g)}
	}
	return v
}

// handleGetDefaults returns the effective presentation defaults, i.e. what
// an empty chart description reconciles to, and the chart palette.
func (s *Server) handleGetDefaults(w http.ResponseWriter, r *http.Request) {
	cd, err := layout.Reconcile(&models.ChartDescription{
		Data:   []models.Trace{},
		Layout: &models.Layout{},
	}, s.defaults)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"layout":  cd.Layout,
			"config":  cd.Config,
			"palette": paletteView(),
		},
	})
}

// handleGetConfigKeys reports how the data API key is configured. The key
// itself never leaves the process.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.SourceCredential(s.cfg),
	})
}

func durationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}
