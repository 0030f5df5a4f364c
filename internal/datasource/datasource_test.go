package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/infra"
)

const formaldehyde = `{
	"cas": "50-00-0",
	"chemical_name": "Formaldehyde",
	"endpoints": [
		{"trophic_group": "fish", "species": "Danio rerio", "value": 1.5, "test_id": "t1", "year": 2001, "author": "Smith"},
		{"trophic_group": "algae", "species": "Chlorella", "value": 0.03, "test_id": "t2", "year": 1999, "author": "Lee"}
	]
}`

const chartJSON = `{"data":[{"type":"scatter","x":[1],"y":[2]}],"layout":{"title":"SSD"}}`

func newTestClient(t *testing.T, h http.Handler, mutate ...func(*Options)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts := Options{
		BaseURL:  srv.URL,
		Retries:  3,
		Backoff:  infra.Backoff{Base: time.Millisecond, Max: 2 * time.Millisecond},
		CacheTTL: time.Minute,
	}
	for _, m := range mutate {
		m(&opts)
	}
	c, err := NewClient(opts)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8000", "://x"} {
		if _, err := NewClient(Options{BaseURL: u}); err == nil {
			t.Errorf("NewClient(%q): expected error", u)
		}
	}
}

// ── FetchDataset ──

func TestFetchDataset(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/api/v1/substances/50-00-0/endpoints" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-API-Key") != "secret" {
			t.Errorf("X-API-Key: got %q", r.Header.Get("X-API-Key"))
		}
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("User-Agent: got %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(formaldehyde))
	}), func(o *Options) { o.APIKey = "secret" })

	// Bare digits are normalized before the request.
	ds, err := c.FetchDataset(context.Background(), "50000")
	if err != nil {
		t.Fatalf("FetchDataset: %v", err)
	}
	if ds.CAS != "50-00-0" || ds.ObservationCount() != 2 {
		t.Errorf("dataset: cas=%q observations=%d", ds.CAS, ds.ObservationCount())
	}

	if _, err := c.FetchDataset(context.Background(), "50-00-0"); err != nil {
		t.Fatalf("cached FetchDataset: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("hits: got %d, want 1 (second call cached)", hits.Load())
	}
}

func TestFetchDatasetErrors(t *testing.T) {
	tests := []struct {
		name    string
		cas     string
		status  int
		body    string
		want    Kind
		wantIs  error
		retried bool
	}{
		{name: "invalid CAS", cas: "50-00-1", want: KindBadRequest, wantIs: ErrBadRequest},
		{name: "not found", cas: "50-00-0", status: 404, body: "no such substance", want: KindNotFound, wantIs: ErrNotFound},
		{name: "rate limited", cas: "50-00-0", status: 429, want: KindRateLimited, wantIs: ErrRateLimited, retried: true},
		{name: "upstream", cas: "50-00-0", status: 503, want: KindUpstream, wantIs: ErrUpstream, retried: true},
		{name: "undecodable", cas: "50-00-0", status: 200, body: `{"neither": true}`, want: KindDecode, wantIs: ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			_, err := c.FetchDataset(context.Background(), tt.cas)
			if KindOf(err) != tt.want {
				t.Fatalf("kind: got %v (%v), want %v", KindOf(err), err, tt.want)
			}
			if !errors.Is(err, tt.wantIs) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.wantIs)
			}
			wantHits := int32(1)
			if tt.retried {
				wantHits = 3
			}
			if tt.cas == "50-00-1" {
				wantHits = 0
			}
			if hits.Load() != wantHits {
				t.Errorf("hits: got %d, want %d", hits.Load(), wantHits)
			}
		})
	}
}

func TestFetchDatasetHTTPErrorDetail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone fishing", http.StatusNotFound)
	}))
	_, err := c.FetchDataset(context.Background(), "50-00-0")
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *ErrHTTP in chain, got %v", err)
	}
	if httpErr.StatusCode != 404 || httpErr.Body != "gone fishing" {
		t.Errorf("ErrHTTP: %+v", httpErr)
	}
	if !strings.Contains(err.Error(), "dataset 50-00-0") {
		t.Errorf("error should name the operation: %v", err)
	}
	if strings.Contains(err.Error(), "404 404") {
		t.Errorf("status code repeated: %v", err)
	}
}

func TestErrHTTPMessage(t *testing.T) {
	tests := []struct {
		name string
		err  ErrHTTP
		want string
	}{
		{"status and body", ErrHTTP{StatusCode: 404, Status: "404 Not Found", Body: "gone"}, "HTTP 404 Not Found: gone"},
		{"no body", ErrHTTP{StatusCode: 503, Status: "503 Service Unavailable"}, "HTTP 503 Service Unavailable"},
		{"status text fallback", ErrHTTP{StatusCode: 429}, "HTTP 429 Too Many Requests"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPublicMessageDropsUpstreamBody(t *testing.T) {
	const markup = `<img src=x onerror=alert(document.cookie)>`
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(markup))
	}))
	_, err := c.FetchDataset(context.Background(), "50-00-0")
	if !strings.Contains(err.Error(), markup) {
		t.Fatalf("full error should keep the body for logs: %v", err)
	}
	if got, want := PublicMessage(err), "dataset 50-00-0: not_found (HTTP 404)"; got != want {
		t.Errorf("PublicMessage: got %q, want %q", got, want)
	}
}

func TestPublicMessage(t *testing.T) {
	local := errors.New("no endpoints")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"local error", local, "no endpoints"},
		{"bad request keeps detail", &FetchError{Kind: KindBadRequest, Op: "dataset x", Err: errors.New("invalid CAS")}, "dataset x: bad_request: invalid CAS"},
		{"network hides cause", &FetchError{Kind: KindNetwork, Op: "search", Err: errors.New("dial tcp 10.0.0.1:443")}, "search: network"},
		{"decode hides cause", &FetchError{Kind: KindDecode, Op: "chart ssd 50-00-0", Err: errors.New("invalid character '<'")}, "chart ssd 50-00-0: decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PublicMessage(tt.err); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchDatasetRecoversAfterTransientFailure(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(formaldehyde))
	}))
	if _, err := c.FetchDataset(context.Background(), "50-00-0"); err != nil {
		t.Fatalf("FetchDataset: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("hits: got %d, want 2", hits.Load())
	}
}

func TestFetchDatasetHonorsContext(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.FetchDataset(ctx, "50-00-0"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

// ── FetchChart ──

func TestFetchChart(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"json", "application/json", chartJSON},
		{"html data-chart", "text/html; charset=utf-8",
			`<html><body><div id="plot"></div><script type="application/json" data-chart>` + chartJSON + `</script></body></html>`},
		{"html chart-data id", "text/plain",
			`<!DOCTYPE html><html><script id="chart-data">` + chartJSON + `</script></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/substances/50-00-0/plots/ssd" {
					http.NotFound(w, r)
					return
				}
				w.Header().Set("Content-Type", tt.contentType)
				w.Write([]byte(tt.body))
			}))
			cd, err := c.FetchChart(context.Background(), "50-00-0", ChartSSD)
			if err != nil {
				t.Fatalf("FetchChart: %v", err)
			}
			if len(cd.Data) != 1 || cd.Layout == nil {
				t.Errorf("chart: %d traces, layout %v", len(cd.Data), cd.Layout)
			}
		})
	}
}

func TestFetchChartRejectsUnknownKind(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	_, err := c.FetchChart(context.Background(), "50-00-0", ChartKind("histogram"))
	if !errors.Is(err, ErrBadRequest) {
		t.Errorf("err = %v, want ErrBadRequest", err)
	}
}

func TestFetchChartHTMLWithoutEmbeddedChart(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>maintenance</body></html>`))
	}))
	_, err := c.FetchChart(context.Background(), "50-00-0", ChartEC10eq)
	if !errors.Is(err, ErrNoEmbeddedChart) || KindOf(err) != KindDecode {
		t.Errorf("err = %v, want decode error wrapping ErrNoEmbeddedChart", err)
	}
}

// ── Search / Ping ──

func TestSearch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"cas": "50-00-0", "name": "Formaldehyde"}]`},
		{"wrapped", `{"results": [{"cas": "50-00-0", "name": "Formaldehyde"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("q"); got != "formal" {
					t.Errorf("q: got %q", got)
				}
				w.Write([]byte(tt.body))
			}))
			got, err := c.Search(context.Background(), "  formal ")
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(got) != 1 || got[0].CAS != "50-00-0" || got[0].Name != "Formaldehyde" {
				t.Errorf("results: %+v", got)
			}
		})
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	if _, err := c.Search(context.Background(), "   "); !errors.Is(err, ErrBadRequest) {
		t.Errorf("err = %v, want ErrBadRequest", err)
	}
}

func TestPing(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Write([]byte(`{"status":"ok"}`))
			return
		}
		http.NotFound(w, r)
	}))
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

// ── FetchDatasets ──

func TestFetchDatasetsKeepsOrder(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cas := strings.Split(r.URL.Path, "/")[4]
		w.Write([]byte(`{"cas": "` + cas + `", "endpoints": [
			{"trophic_group": "fish", "species": "A", "value": 1, "test_id": "t", "year": 2000, "author": "X"}]}`))
	}), func(o *Options) { o.MaxConcurrent = 2 })

	ids := []string{"71-43-2", "50-00-0", "108-88-3"}
	got, err := c.FetchDatasets(context.Background(), ids)
	if err != nil {
		t.Fatalf("FetchDatasets: %v", err)
	}
	for i, ds := range got {
		if ds.CAS != ids[i] {
			t.Errorf("result %d: got %q, want %q", i, ds.CAS, ids[i])
		}
	}
}

func TestFetchDatasetsFailsOnAnyError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "71-43-2") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(formaldehyde))
	}))
	_, err := c.FetchDatasets(context.Background(), []string{"50-00-0", "71-43-2"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// ── ExtractChart / errors ──

func TestExtractChartPrefersFirstNonEmpty(t *testing.T) {
	page := `<html><script type="application/json" data-chart>  </script>
		<script id="chart-data">{"data":[],"layout":{}}</script></html>`
	got, err := ExtractChart([]byte(page))
	if err != nil {
		t.Fatalf("ExtractChart: %v", err)
	}
	if string(got) != `{"data":[],"layout":{}}` {
		t.Errorf("got %s", got)
	}
}

func TestFetchErrorTemporary(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindNetwork, true},
		{KindRateLimited, true},
		{KindUpstream, true},
		{KindNotFound, false},
		{KindBadRequest, false},
		{KindDecode, false},
	}
	for _, tt := range tests {
		if got := (&FetchError{Kind: tt.kind}).Temporary(); got != tt.want {
			t.Errorf("%v.Temporary() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}
