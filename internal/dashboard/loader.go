package dashboard

import (
	"context"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/datasource"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/layout"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/series"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

// Source is the part of the fetch client the pipeline needs.
type Source interface {
	FetchDataset(ctx context.Context, cas string) (*models.Dataset, error)
	FetchChart(ctx context.Context, cas string, kind datasource.ChartKind) (*models.ChartDescription, error)
}

// PipelineLoader builds charts locally from the dataset, or fetches a
// server-rendered chart and reconciles it with Defaults when a kind is
// selected.
type PipelineLoader struct {
	Source   Source
	Defaults layout.Defaults
}

// Load implements Loader.
func (p PipelineLoader) Load(ctx context.Context, sel Selection) (*models.ChartDescription, error) {
	if sel.Kind != "" {
		cd, err := p.Source.FetchChart(ctx, sel.CAS, sel.Kind)
		if err != nil {
			return nil, err
		}
		return layout.Reconcile(cd, p.Defaults)
	}

	ds, err := p.Source.FetchDataset(ctx, sel.CAS)
	if err != nil {
		return nil, err
	}
	mode := sel.Color
	if mode == "" {
		mode = series.ByTrophicGroup
	}
	return series.Build(ds, mode)
}
