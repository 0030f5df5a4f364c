package datasource

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/logger"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

// FetchDatasets loads several substances concurrently, at most
// MaxConcurrent at a time. Results keep the order of cas. The first failure
// cancels the remaining fetches and is returned.
func (c *Client) FetchDatasets(ctx context.Context, cas []string) ([]*models.Dataset, error) {
	out := make([]*models.Dataset, len(cas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)

	for i, id := range cas {
		i, id := i, id
		g.Go(func() error {
			ds, err := c.FetchDataset(gctx, id)
			if err != nil {
				return err
			}
			out[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn("batch fetch failed", "substances", len(cas), "err", err)
		return nil, err
	}
	return out, nil
}
