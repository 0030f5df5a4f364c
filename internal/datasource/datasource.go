// Package datasource fetches ecotoxicity datasets and pre-rendered chart
// descriptions from the OpenChemFacts data API.
//
// Every failure is surfaced as a *FetchError carrying a Kind, so callers
// can tell "no such substance" from "upstream down" without parsing
// messages. Transient failures (network, 429, 5xx) are retried with
// backoff; other failures are returned at once.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/config"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/infra"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/logger"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

// --- Sentinel errors ---

// ErrNotFound is matched by fetch errors for unknown substances or charts.
var ErrNotFound = errors.New("not found")

// ErrRateLimited is matched by fetch errors caused by upstream throttling.
var ErrRateLimited = errors.New("rate limited by data source")

// ErrUpstream is matched by fetch errors caused by a failing data source.
var ErrUpstream = errors.New("data source unavailable")

// ErrBadRequest is matched by fetch errors the caller caused.
var ErrBadRequest = errors.New("bad request")

// ErrDecode is matched by fetch errors for unreadable payloads.
var ErrDecode = errors.New("undecodable payload")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

// Error reads "HTTP 404 Not Found: <body>". Status already carries the code.
func (e *ErrHTTP) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Body == "" {
		return "HTTP " + status
	}
	return "HTTP " + status + ": " + e.Body
}

// Kind classifies a fetch failure.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindNotFound
	KindRateLimited
	KindUpstream
	KindBadRequest
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstream:
		return "upstream"
	case KindBadRequest:
		return "bad_request"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// FetchError is the classified failure of one fetch.
type FetchError struct {
	Kind Kind
	Op   string // e.g. "dataset 50-00-0"
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets errors.Is match a FetchError against the package sentinels.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrUpstream:
		return e.Kind == KindUpstream || e.Kind == KindNetwork
	case ErrBadRequest:
		return e.Kind == KindBadRequest
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

// Temporary reports whether retrying may succeed.
func (e *FetchError) Temporary() bool {
	return e.Kind == KindNetwork || e.Kind == KindRateLimited || e.Kind == KindUpstream
}

// KindOf returns the Kind of the first FetchError in err's chain, or 0.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// PublicMessage describes err for API and dashboard clients. Upstream
// response bodies are left out; only the operation, the Kind and the HTTP
// status survive. Local validation failures keep their full text.
func PublicMessage(err error) string {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return err.Error()
	}
	var he *ErrHTTP
	switch {
	case errors.As(fe.Err, &he):
		return fmt.Sprintf("%s: %s (HTTP %d)", fe.Op, fe.Kind, he.StatusCode)
	case fe.Kind == KindBadRequest:
		return fe.Error()
	}
	return fmt.Sprintf("%s: %s", fe.Op, fe.Kind)
}

func kindForStatus(code int) Kind {
	switch {
	case code == http.StatusNotFound || code == http.StatusGone:
		return KindNotFound
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code >= 500:
		return KindUpstream
	default:
		return KindBadRequest
	}
}

func isTemporary(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Temporary()
}

// --- Client ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "ocfviz/1.0 (+https://github.com/OpenChemFacts)"

// maxBodySize caps the bytes read from one response.
const maxBodySize = 16 << 20

// Options configures a Client. Zero values select the defaults noted per field.
type Options struct {
	BaseURL       string
	APIKey        string        // sent as X-API-Key when set
	Timeout       time.Duration // default 15s
	Retries       int           // attempts per request, default 3
	Backoff       infra.Backoff // default 200ms doubling to 3s
	CacheTTL      time.Duration // 0 disables caching
	RateLimit     int           // requests per RateWindow, 0 disables limiting
	RateWindow    time.Duration
	MaxConcurrent int          // parallel fetches in FetchDatasets, default 4
	HTTPClient    *http.Client // overrides Timeout when set
}

// OptionsFromConfig maps the source config section onto Options.
func OptionsFromConfig(c config.SourceConfig) Options {
	return Options{
		BaseURL:       c.BaseURL,
		APIKey:        c.APIKey,
		Timeout:       c.Timeout,
		Retries:       c.Retries,
		CacheTTL:      c.CacheTTL,
		RateLimit:     c.RateLimit,
		RateWindow:    c.RateWindow,
		MaxConcurrent: c.MaxConcurrent,
	}
}

// Client talks to the data API. It is safe for concurrent use.
// Cached values are shared between callers and must be treated as
// read-only.
type Client struct {
	base          *url.URL
	apiKey        string
	http          *http.Client
	retries       int
	backoff       infra.Backoff
	limiter       *infra.RateLimiter
	datasets      *infra.Cache[*models.Dataset]
	charts        *infra.Cache[*models.ChartDescription]
	maxConcurrent int
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.Backoff == (infra.Backoff{}) {
		opts.Backoff = infra.Backoff{Base: 200 * time.Millisecond, Max: 3 * time.Second}
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		base:          base,
		apiKey:        opts.APIKey,
		http:          hc,
		retries:       opts.Retries,
		backoff:       opts.Backoff,
		limiter:       infra.NewRateLimiter(opts.RateLimit, opts.RateWindow),
		datasets:      infra.NewCache[*models.Dataset](opts.CacheTTL),
		charts:        infra.NewCache[*models.ChartDescription](opts.CacheTTL),
		maxConcurrent: opts.MaxConcurrent,
	}, nil
}

// BaseURL returns the data API root.
func (c *Client) BaseURL() string { return c.base.String() }

// FlushCache drops every cached dataset and chart.
func (c *Client) FlushCache() {
	c.datasets.Flush()
	c.charts.Flush()
}

// response is a successful GET.
type response struct {
	body        []byte
	contentType string
}

// get performs a GET with retries. op names the request in errors.
func (c *Client) get(ctx context.Context, op, path string, query url.Values) (*response, error) {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()
	target := u.String()

	attempt := 0
	return infra.RetryWithContext(ctx, c.retries, c.backoff, isTemporary, func(ctx context.Context) (*response, error) {
		attempt++
		if attempt > 1 {
			logger.Warn("retrying fetch", "op", op, "attempt", attempt)
		}
		resp, err := c.doGet(ctx, target)
		if err != nil {
			var fe *FetchError
			if errors.As(err, &fe) {
				fe.Op = op
			}
			return nil, err
		}
		return resp, nil
	})
}

// doGet performs a single GET request and classifies its failure.
func (c *Client) doGet(ctx context.Context, target string) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindBadRequest, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.1")
	if c.apiKey != "" {
		req.Header.Set(config.APIKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &FetchError{Kind: KindNetwork, Err: fmt.Errorf("HTTP GET %s: %w", target, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		logger.Debug("fetch failed", "url", target, "status", resp.StatusCode, "elapsed", time.Since(start))
		return nil, &FetchError{
			Kind: kindForStatus(resp.StatusCode),
			Err: &ErrHTTP{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       strings.TrimSpace(string(body)),
			},
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Err: fmt.Errorf("read body: %w", err)}
	}
	logger.Debug("fetched", "url", target, "bytes", len(body), "elapsed", time.Since(start))
	return &response{body: body, contentType: resp.Header.Get("Content-Type")}, nil
}

// Ping checks that the data API answers on /health.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "health", "/health", nil)
	return err
}
