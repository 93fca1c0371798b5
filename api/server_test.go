package api

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/petar-nikolic125/hmo-finder-live/config"
	"github.com/petar-nikolic125/hmo-finder-live/models"
	"github.com/petar-nikolic125/hmo-finder-live/scraper"
	"github.com/petar-nikolic125/hmo-finder-live/storage"
)

// emptyPageTransport answers every request with a result-free page, so a
// search always falls through to the synthetic generator.
type emptyPageTransport struct{}

func (emptyPageTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("<html><body><p>No results found.</p></body></html>")),
		Header:     make(http.Header),
		Request:    r,
	}, nil
}

func queryFor(city string, minBeds, maxPrice int, keywords string) models.SearchQuery {
	return models.SearchQuery{City: city, MinBedrooms: minBeds, MaxPrice: maxPrice, Keywords: keywords}
}

func testServer(t *testing.T) *Server {
	t.Helper()
	cities, err := config.LoadCities()
	if err != nil {
		t.Fatalf("LoadCities: %v", err)
	}
	cfg := &config.Config{Server: config.ServerConfig{CacheTTL: 15 * time.Minute}}
	return NewServer(cfg, cities, nil, nil, nil)
}

func TestHandleCities(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cities", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var names []string
	if err := json.Unmarshal(rec.Body.Bytes(), &names); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no cities returned")
	}

	var sawLiverpool bool
	for _, n := range names {
		if n == "Liverpool" {
			sawLiverpool = true
		}
	}
	if !sawLiverpool {
		t.Error("Liverpool missing from city list")
	}
}

func TestHandlePing(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["now"] <= 0 {
		t.Errorf("ping timestamp = %d", body["now"])
	}
}

func TestHandleRunsWithoutStore(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want empty array", got)
	}
}

// Concurrent requests (or a request overlapping a scheduler refresh) share
// one pipeline, whose random source and identity pool are single-flight.
// Search must serialize the scrapes.
func TestSearchSerializesConcurrentScrapes(t *testing.T) {
	cities, err := config.LoadCities()
	if err != nil {
		t.Fatalf("LoadCities: %v", err)
	}

	cfg := &config.Config{
		Fetch: config.FetchConfig{MaxAttempts: 1},
		Pipeline: config.PipelineConfig{
			MaxListingsPerPage: 50,
			MaxResults:         500,
			FallbackMinResults: 5,
		},
		Server: config.ServerConfig{CacheTTL: time.Hour},
	}

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	client := &http.Client{Transport: emptyPageTransport{}}
	pipeline := scraper.NewPipeline(cfg, cities, client, rand.New(rand.NewSource(5)))
	srv := NewServer(cfg, cities, pipeline, store, nil)

	queries := []models.SearchQuery{
		{City: "Liverpool", MinBedrooms: 4, MaxPrice: 300000},
		{City: "Liverpool", MinBedrooms: 4, MaxPrice: 300000},
		{City: "Leeds", MinBedrooms: 3, MaxPrice: 250000},
		{City: "Manchester", MinBedrooms: 3, MaxPrice: 250000},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(queries))
	counts := make([]int, len(queries))
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q models.SearchQuery) {
			defer wg.Done()
			records, err := srv.Search(context.Background(), q)
			errs[i] = err
			counts[i] = len(records)
		}(i, q)
	}
	wg.Wait()

	for i := range queries {
		if errs[i] != nil {
			t.Errorf("search %d: %v", i, errs[i])
		}
		if counts[i] < cfg.Pipeline.FallbackMinResults {
			t.Errorf("search %d returned %d records, want at least %d", i, counts[i], cfg.Pipeline.FallbackMinResults)
		}
	}
}

func TestCacheKeyNormalization(t *testing.T) {
	a := cacheKey(queryFor("Liverpool", 4, 300000, "HMO"))
	b := cacheKey(queryFor("liverpool", 4, 300000, "hmo"))
	if a != b {
		t.Errorf("cache keys differ for case variants: %q vs %q", a, b)
	}

	c := cacheKey(queryFor("Liverpool", 3, 300000, "hmo"))
	if a == c {
		t.Error("cache key should change with bedroom count")
	}
}
