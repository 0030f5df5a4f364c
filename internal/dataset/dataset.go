// Package dataset decodes the two wire shapes of an ecotoxicity dataset
// into the single nested form used by the chart builders.
//
// The nested shape is {cas, chemical_name, trophic_groups: {group: {species: [obs]}}}
// and the flat shape is {cas, chemical_name, endpoints: [{trophic_group, species, ...obs}]}.
// Shape detection is structural and happens once, in Decode.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

// ErrInvalidDataset is returned for payloads that are neither dataset shape
// or that are structurally broken.
var ErrInvalidDataset = errors.New("invalid dataset payload")

// ErrChartPayload is returned when the payload is a chart description
// ({data, layout}) rather than a dataset.
var ErrChartPayload = errors.New("payload is a chart description, not a dataset")

// Payload is one of the two wire variants. Normalize converts it to the
// canonical nested dataset.
type Payload interface {
	Normalize() *models.Dataset
	isPayload()
}

// Nested is the trophic group → species → observations wire shape.
type Nested struct {
	CAS           string                                     `json:"cas"`
	ChemicalName  string                                     `json:"chemical_name"`
	TrophicGroups map[string]map[string][]models.Observation `json:"trophic_groups"`
}

// Flat is the list-of-endpoints wire shape.
type Flat struct {
	CAS          string     `json:"cas"`
	ChemicalName string     `json:"chemical_name"`
	Endpoints    []Endpoint `json:"endpoints"`
}

// Endpoint is one flat record: an observation tagged with its trophic
// group and species.
type Endpoint struct {
	TrophicGroup string
	Species      string
	models.Observation
}

func (Nested) isPayload() {}
func (Flat) isPayload()   {}

// UnmarshalJSON reads the tags and the embedded observation from the same
// object.
func (e *Endpoint) UnmarshalJSON(data []byte) error {
	var tags struct {
		TrophicGroup string `json:"trophic_group"`
		Species      string `json:"species"`
	}
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	var obs models.Observation
	if err := json.Unmarshal(data, &obs); err != nil {
		return err
	}
	*e = Endpoint{
		TrophicGroup: strings.TrimSpace(tags.TrophicGroup),
		Species:      strings.TrimSpace(tags.Species),
		Observation:  obs,
	}
	return nil
}

// Normalize copies the nested payload into a Dataset.
func (n Nested) Normalize() *models.Dataset {
	ds := &models.Dataset{
		CAS:           n.CAS,
		ChemicalName:  n.ChemicalName,
		TrophicGroups: make(map[string]models.SpeciesBucket, len(n.TrophicGroups)),
	}
	for group, species := range n.TrophicGroups {
		bucket := make(models.SpeciesBucket, len(species))
		for name, obs := range species {
			bucket[name] = append([]models.Observation(nil), obs...)
		}
		ds.TrophicGroups[group] = bucket
	}
	return ds
}

// Normalize groups the flat endpoints by trophic group, then species.
// Observation order within a species follows the order of the endpoints.
func (f Flat) Normalize() *models.Dataset {
	ds := &models.Dataset{
		CAS:           f.CAS,
		ChemicalName:  f.ChemicalName,
		TrophicGroups: make(map[string]models.SpeciesBucket),
	}
	for _, ep := range f.Endpoints {
		bucket, ok := ds.TrophicGroups[ep.TrophicGroup]
		if !ok {
			bucket = make(models.SpeciesBucket)
			ds.TrophicGroups[ep.TrophicGroup] = bucket
		}
		bucket[ep.Species] = append(bucket[ep.Species], ep.Observation)
	}
	return ds
}

// Parse detects the wire shape of data and returns the matching variant.
func Parse(data []byte) (Payload, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}

	_, hasGroups := keys["trophic_groups"]
	_, hasEndpoints := keys["endpoints"]
	_, hasData := keys["data"]
	_, hasLayout := keys["layout"]

	switch {
	case hasGroups:
		var n Nested
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("%w: trophic_groups: %v", ErrInvalidDataset, err)
		}
		if n.TrophicGroups == nil {
			return nil, fmt.Errorf("%w: trophic_groups is null", ErrInvalidDataset)
		}
		return n, nil

	case hasEndpoints:
		var f Flat
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: endpoints: %v", ErrInvalidDataset, err)
		}
		for i, ep := range f.Endpoints {
			if ep.TrophicGroup == "" || ep.Species == "" {
				return nil, fmt.Errorf("%w: endpoint %d lacks trophic_group or species", ErrInvalidDataset, i)
			}
		}
		return f, nil

	case hasData && hasLayout:
		return nil, ErrChartPayload

	default:
		return nil, fmt.Errorf("%w: neither trophic_groups nor endpoints present", ErrInvalidDataset)
	}
}

// Decode parses data and normalizes it into a Dataset.
func Decode(data []byte) (*models.Dataset, error) {
	p, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return p.Normalize(), nil
}

// IsChartPayload reports whether data looks like a {data, layout} chart
// description.
func IsChartPayload(data []byte) bool {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return false
	}
	_, hasData := keys["data"]
	_, hasLayout := keys["layout"]
	return hasData && hasLayout
}
