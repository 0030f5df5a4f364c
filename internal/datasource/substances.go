package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/dataset"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/logger"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/utils"
)

// ChartKind names a chart the data API renders itself.
type ChartKind string

const (
	ChartSSD    ChartKind = "ssd"
	ChartEC10eq ChartKind = "ec10eq"
)

// Valid reports whether k is a chart kind the API serves.
func (k ChartKind) Valid() bool {
	return k == ChartSSD || k == ChartEC10eq
}

// FetchDataset loads the endpoint table of one substance. cas may be in any
// form utils.ParseCAS accepts.
func (c *Client) FetchDataset(ctx context.Context, cas string) (*models.Dataset, error) {
	id, err := utils.ParseCAS(cas)
	if err != nil {
		return nil, &FetchError{Kind: KindBadRequest, Op: "dataset " + cas, Err: err}
	}
	if ds, ok := c.datasets.Get(id); ok {
		logger.Debug("dataset cache hit", "cas", id)
		return ds, nil
	}

	op := "dataset " + id
	resp, err := c.get(ctx, op, "/api/v1/substances/"+url.PathEscape(id)+"/endpoints", nil)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.Decode(resp.body)
	if err != nil {
		return nil, &FetchError{Kind: KindDecode, Op: op, Err: err}
	}
	if ds.CAS == "" {
		ds.CAS = id
	}
	c.datasets.Set(id, ds)
	logger.Info("dataset loaded", "cas", id, "groups", len(ds.TrophicGroups), "observations", ds.ObservationCount())
	return ds, nil
}

// FetchChart loads a chart description the data API rendered for cas. The
// API answers either with the description as JSON or with an HTML page
// embedding it; both are accepted.
func (c *Client) FetchChart(ctx context.Context, cas string, kind ChartKind) (*models.ChartDescription, error) {
	op := fmt.Sprintf("chart %s %s", kind, cas)
	if !kind.Valid() {
		return nil, &FetchError{Kind: KindBadRequest, Op: op, Err: fmt.Errorf("unknown chart kind %q", kind)}
	}
	id, err := utils.ParseCAS(cas)
	if err != nil {
		return nil, &FetchError{Kind: KindBadRequest, Op: op, Err: err}
	}
	key := string(kind) + ":" + id
	if cd, ok := c.charts.Get(key); ok {
		return cd, nil
	}

	op = fmt.Sprintf("chart %s %s", kind, id)
	resp, err := c.get(ctx, op, "/api/v1/substances/"+url.PathEscape(id)+"/plots/"+string(kind), nil)
	if err != nil {
		return nil, err
	}

	body := resp.body
	if isHTML(resp.contentType, body) {
		body, err = ExtractChart(body)
		if err != nil {
			return nil, &FetchError{Kind: KindDecode, Op: op, Err: err}
		}
	}
	var cd models.ChartDescription
	if err := json.Unmarshal(body, &cd); err != nil {
		return nil, &FetchError{Kind: KindDecode, Op: op, Err: err}
	}
	c.charts.Set(key, &cd)
	return &cd, nil
}

// Search looks substances up by name or CAS fragment. The API may answer
// with a bare array or with {"results": [...]}.
func (c *Client) Search(ctx context.Context, query string) ([]models.Substance, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &FetchError{Kind: KindBadRequest, Op: "search", Err: fmt.Errorf("empty query")}
	}
	op := "search " + query
	resp, err := c.get(ctx, op, "/api/v1/substances", url.Values{"q": {query}})
	if err != nil {
		return nil, err
	}

	var list []models.Substance
	if err := json.Unmarshal(resp.body, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Results []models.Substance `json:"results"`
	}
	if err := json.Unmarshal(resp.body, &wrapped); err != nil {
		return nil, &FetchError{Kind: KindDecode, Op: op, Err: err}
	}
	return wrapped.Results, nil
}
