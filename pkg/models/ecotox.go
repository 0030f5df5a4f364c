// Package models defines the core data structures shared by the chart
// engine, the fetch layer and the API.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Observation is one measured ecotoxicity endpoint value.
type Observation struct {
	Value  float64 `json:"value"`             // concentration, e.g. EC10eq in mg/L
	TestID string  `json:"test_id,omitempty"` // identifying key of the test
	Year   int     `json:"year,omitempty"`    // publication year, 0 if unknown
	Author string  `json:"author,omitempty"`  // author / reference string
}

// ErrMissingValue is returned when an observation carries no numeric value.
var ErrMissingValue = errors.New("observation has no value")

// valueKeys are the accepted spellings of the observation value, in
// priority order.
var valueKeys = []string{"value", "ec10eq", "EC10eq"}

// UnmarshalJSON accepts numbers or numeric strings for value and year, and
// numbers or strings for test_id.
func (o *Observation) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("observation: %w", err)
	}

	var obs Observation
	found := false
	for _, key := range valueKeys {
		raw, ok := fields[key]
		if !ok || isNull(raw) {
			continue
		}
		v, ok := flexFloat(raw)
		if !ok {
			return fmt.Errorf("observation: %s is not numeric: %s", key, raw)
		}
		obs.Value = v
		found = true
		break
	}
	if !found {
		return ErrMissingValue
	}

	if raw, ok := fields["test_id"]; ok {
		obs.TestID = flexString(raw)
	}
	if raw, ok := fields["year"]; ok {
		if y, ok := flexFloat(raw); ok {
			obs.Year = int(y)
		}
	}
	if raw, ok := fields["author"]; ok {
		obs.Author = flexString(raw)
	}

	*o = obs
	return nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func flexFloat(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func flexString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if isNull(raw) {
		return ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.TrimSpace(string(raw))
}

// SpeciesBucket maps a species name to its observations in source order.
type SpeciesBucket map[string][]Observation

// SpeciesNames returns the species names in ascending order.
func (b SpeciesBucket) SpeciesNames() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dataset is the canonical, nested form of one substance's observations:
// trophic group → species → observations.
type Dataset struct {
	CAS           string                   `json:"cas"`
	ChemicalName  string                   `json:"chemical_name,omitempty"`
	TrophicGroups map[string]SpeciesBucket `json:"trophic_groups"`
}

// GroupNames returns the trophic-group names in ascending order.
func (d *Dataset) GroupNames() []string {
	names := make([]string, 0, len(d.TrophicGroups))
	for name := range d.TrophicGroups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ObservationCount returns the total number of observations.
func (d *Dataset) ObservationCount() int {
	n := 0
	for _, bucket := range d.TrophicGroups {
		for _, obs := range bucket {
			n += len(obs)
		}
	}
	return n
}

// Label returns "name (CAS)" when a display name is known, else the CAS.
func (d *Dataset) Label() string {
	if d.ChemicalName == "" {
		return d.CAS
	}
	return fmt.Sprintf("%s (%s)", d.ChemicalName, d.CAS)
}

// Substance is one entry of a substance search.
type Substance struct {
	CAS  string `json:"cas"`
	Name string `json:"name"`
}
