package series

import (
	"fmt"
	"strings"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

// Stats are the counts shown in a chart title.
type Stats struct {
	TrophicGroups int `json:"trophic_groups"`
	// Species counts distinct species names across all groups.
	Species      int `json:"species"`
	Observations int `json:"observations"`
}

// StatsOf counts groups, distinct species and observations of ds.
func StatsOf(ds *models.Dataset) Stats {
	species := make(map[string]struct{})
	var st Stats
	st.TrophicGroups = len(ds.TrophicGroups)
	for _, bucket := range ds.TrophicGroups {
		for name, obs := range bucket {
			species[name] = struct{}{}
			st.Observations += len(obs)
		}
	}
	st.Species = len(species)
	return st
}

// scatterTitle is the multi-line chart title: headline (with the color
// mode when it is not the default), substance line, statistics line.
func scatterTitle(ds *models.Dataset, mode ColorMode, st Stats) string {
	headline := "EC10eq values by trophic group and species"
	if mode != ByTrophicGroup {
		headline += fmt.Sprintf(" (colored by %s)", strings.ToLower(mode.Subject()))
	}
	return strings.Join([]string{
		headline,
		substanceLine(ds),
		fmt.Sprintf("Trophic groups: %d | Species: %d | Observations: %d",
			st.TrophicGroups, st.Species, st.Observations),
	}, "<br>")
}

func substanceLine(ds *models.Dataset) string {
	if ds.ChemicalName == "" {
		return "CAS: " + ds.CAS
	}
	return fmt.Sprintf("CAS: %s - %s", ds.CAS, ds.ChemicalName)
}
