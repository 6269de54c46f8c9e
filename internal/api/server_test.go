package api

import (
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/khanglvm/movie-picker/internal/catalog"
	"github.com/khanglvm/movie-picker/internal/logging"
	"github.com/khanglvm/movie-picker/internal/recommend"
	"github.com/khanglvm/movie-picker/internal/search"
	"github.com/khanglvm/movie-picker/internal/similarity"
)

var testTitles = []string{
	"Toy Story (1995)",
	"Heat (1995)",
	"Aladdin (1992)",
	"Jumanji (1995)",
	"Casino (1995)",
}

func newTestEngine(t *testing.T) *recommend.Engine {
	t.Helper()
	idx, err := similarity.New(similarity.KindCosine, testTitles, []float64{
		1, 0.1, 0.8, 0.6, 0.0,
		0.1, 1, 0.0, 0.2, 0.9,
		0.8, 0.0, 1, 0.5, 0.1,
		0.6, 0.2, 0.5, 1, 0.3,
		0.0, 0.9, 0.1, 0.3, 1,
	})
	if err != nil {
		t.Fatalf("similarity.New failed: %v", err)
	}
	engine, err := recommend.NewEngine(recommend.NewCosineStrategy(idx), recommend.DefaultOptions(), logging.Nop())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func newTestSearcher(t *testing.T) *search.Indexer {
	t.Helper()
	entries := make([]catalog.Entry, len(testTitles))
	for i, title := range testTitles {
		entries[i] = catalog.Entry{ID: i + 1, Title: title}
	}
	cat, err := catalog.New(entries)
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}

	indexer, err := search.NewIndexer()
	if err != nil {
		t.Fatalf("NewIndexer failed: %v", err)
	}
	t.Cleanup(func() { indexer.Close() })
	if err := indexer.IndexCatalog(cat); err != nil {
		t.Fatalf("IndexCatalog failed: %v", err)
	}
	return indexer
}

func newTestServer(t *testing.T, opts Options) http.Handler {
	t.Helper()
	return NewServer(newTestEngine(t), newTestSearcher(t), opts, logging.Nop()).Router()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestRecommendEndpoint(t *testing.T) {
	h := newTestServer(t, DefaultOptions())

	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "tuple payload",
			body: `{"ratings": [["Toy Story", 5], ["Heat 1995", 1]]}`,
			want: []string{"Aladdin (1992)", "Jumanji (1995)", "Casino (1995)"},
		},
		{
			name: "object payload",
			body: `{"ratings": [{"title": "Toy Story", "rating": 5}, {"title": "Heat 1995", "rating": 1}]}`,
			want: []string{"Aladdin (1992)", "Jumanji (1995)", "Casino (1995)"},
		},
		{"missing ratings", `{}`, []string{}},
		{"empty body", ``, []string{}},
		{"unknown title", `{"ratings": [["Xyzzy Nonexistent Movie", 5]]}`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/recommend", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q", ct)
			}

			resp := decode[RecommendResponse](t, rec)
			if resp.Recommendations == nil {
				t.Fatal("recommendations must be a list, got null")
			}
			if strings.Join(resp.Recommendations, "|") != strings.Join(tt.want, "|") {
				t.Errorf("recommendations = %v, want %v", resp.Recommendations, tt.want)
			}
			if resp.Scores != nil {
				t.Error("scores should be omitted by default")
			}
		})
	}
}

func TestRecommendEndpointScores(t *testing.T) {
	h := newTestServer(t, DefaultOptions())

	rec := do(t, h, http.MethodPost, "/recommend?scores=true", `{"ratings": [["Toy Story (1995)", 5]]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decode[RecommendResponse](t, rec)
	if len(resp.Scores) != len(resp.Recommendations) {
		t.Fatalf("scores and titles differ in length: %d vs %d", len(resp.Scores), len(resp.Recommendations))
	}
	if resp.Scores[0].Title != "Aladdin (1992)" || math.Abs(resp.Scores[0].Score-2.0) > 1e-9 {
		t.Errorf("unexpected first score %+v", resp.Scores[0])
	}
}

func TestRecommendEndpointBadRequest(t *testing.T) {
	h := newTestServer(t, DefaultOptions())

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"malformed JSON", `{"ratings": [`, "malformed JSON"},
		{"wrong tuple length", `{"ratings": [["Toy Story"]]}`, "2 elements"},
		{"rating above scale", `{"ratings": [["Toy Story", 7]]}`, "ratings[0].rating must be between 0.5 and 5"},
		{"rating below scale", `{"ratings": [["Toy Story", 5], ["Heat", 0]]}`, "ratings[1].rating"},
		{"overlong title", `{"ratings": [["` + strings.Repeat("x", 600) + `", 5]]}`, "ratings[0].title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/recommend", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			resp := decode[errorResponse](t, rec)
			if !strings.Contains(resp.Error, tt.wantMsg) {
				t.Errorf("error %q should contain %q", resp.Error, tt.wantMsg)
			}
		})
	}
}

func TestSearchEndpoint(t *testing.T) {
	h := newTestServer(t, DefaultOptions())

	rec := do(t, h, http.MethodGet, "/search?q=heat", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[SearchResponse](t, rec)
	if len(resp.Results) != 1 || resp.Results[0].Title != "Heat (1995)" {
		t.Errorf("unexpected results %+v", resp.Results)
	}

	rec = do(t, h, http.MethodGet, "/search?q=1995&limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decode[SearchResponse](t, rec); len(resp.Results) != 2 {
		t.Errorf("limit not applied, got %d results", len(resp.Results))
	}

	for _, limit := range []string{"abc", "0", "1000"} {
		rec = do(t, h, http.MethodGet, "/search?q=heat&limit="+limit, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, rec.Code)
		}
	}
}

func TestSearchUnavailable(t *testing.T) {
	h := NewServer(newTestEngine(t), nil, DefaultOptions(), logging.Nop()).Router()

	rec := do(t, h, http.MethodGet, "/search?q=heat", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	opts := DefaultOptions()
	opts.IndexName = "movies"
	opts.BuildID = "build-1"
	h := newTestServer(t, opts)

	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[HealthResponse](t, rec)
	if resp.Status != "ok" || resp.Mode != "cosine" || resp.Index != "movies" || resp.BuildID != "build-1" {
		t.Errorf("unexpected health %+v", resp)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, DefaultOptions())

	do(t, h, http.MethodPost, "/recommend", `{"ratings": [["Heat (1995)", 4]]}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"moviepicker_api_requests_total", "moviepicker_titles_resolved_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output should contain %s", name)
		}
	}
	if !strings.Contains(body, `endpoint="/recommend"`) {
		t.Error("requests should be labelled by route pattern")
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, DefaultOptions())

	req := httptest.NewRequest(http.MethodOptions, "/recommend", nil)
	req.Header.Set("Origin", "https://frontend.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRateLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.RateLimit = 1
	opts.RateWindow = time.Minute
	h := newTestServer(t, opts)

	first := do(t, h, http.MethodGet, "/search?q=heat", "")
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d", first.Code)
	}

	second := do(t, h, http.MethodGet, "/search?q=heat", "")
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", second.Code)
	}

	// Health is outside the limited group.
	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health should not be rate limited, got %d", rec.Code)
	}
}
