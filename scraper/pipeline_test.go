package scraper

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/petar-nikolic125/hmo-finder-live/config"
	"github.com/petar-nikolic125/hmo-finder-live/models"
)

// stubTransport answers every request with the same page.
type stubTransport struct {
	body string
}

func (t stubTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(t.body)),
		Header:     make(http.Header),
		Request:    r,
	}, nil
}

func testPipeline(t *testing.T, pageBody string) *Pipeline {
	t.Helper()
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
	}

	client := &http.Client{Transport: stubTransport{body: pageBody}}
	p := NewPipeline(cfg, cities, client, rand.New(rand.NewSource(11)))
	p.fetcher.sleep = func(time.Duration) {}
	return p
}

// With no listings on any candidate page, the synthetic fallback still
// produces a full, analyzed result set.
func TestPipelineFallbackWhenNothingLocated(t *testing.T) {
	p := testPipeline(t, "<html><body><p>No results found.</p></body></html>")
	q := models.SearchQuery{City: "Liverpool", MinBedrooms: 4, MaxPrice: 300000}

	records, stats, err := p.Run(context.Background(), q)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(records) < 5 {
		t.Fatalf("got %d records, want at least the fallback minimum of 5", len(records))
	}
	if stats.SyntheticCount != len(records) {
		t.Errorf("synthetic count = %d, want %d", stats.SyntheticCount, len(records))
	}

	for _, rec := range records {
		if !rec.Synthetic {
			t.Errorf("record %q not tagged synthetic", rec.Address)
		}
		switch rec.ProfitabilityScore {
		case models.ProfitabilityLow, models.ProfitabilityMedium, models.ProfitabilityHigh:
		default:
			t.Errorf("record %q has score %q", rec.Address, rec.ProfitabilityScore)
		}
		if rec.MonthlyRent <= 0 {
			t.Errorf("record %q missing analysis", rec.Address)
		}
	}
}

// Every candidate URL serves the three-card fixture; the two real records
// survive dedupe and synthetic padding tops the set up to the minimum.
func TestPipelineEndToEndFixture(t *testing.T) {
	page, err := os.ReadFile(filepath.Join("testdata", "search_results.html"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	p := testPipeline(t, string(page))
	q := models.SearchQuery{City: "Liverpool", MinBedrooms: 3, MaxPrice: 300000}

	records, stats, err := p.Run(context.Background(), q)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.UniqueCount != 2 {
		t.Fatalf("unique count = %d, want 2", stats.UniqueCount)
	}
	if len(records) != 5 {
		t.Fatalf("got %d records, want 2 real + 3 synthetic", len(records))
	}
	if stats.SyntheticCount != 3 {
		t.Errorf("synthetic count = %d, want 3", stats.SyntheticCount)
	}

	var real int
	for _, rec := range records {
		if !rec.Synthetic {
			real++
			if rec.Price != 250000 && rec.Price != 0 {
				t.Errorf("unexpected real record price %d", rec.Price)
			}
		}
		if rec.ProfitabilityScore == "" {
			t.Errorf("record %q missing score", rec.Address)
		}
	}
	if real != 2 {
		t.Errorf("got %d real records, want 2", real)
	}
}

// Enrichment copies everything the detail page yields onto the record.
func TestPipelineEnrichAppliesDetails(t *testing.T) {
	detailPage := `
		<html><body>
			<div class="dp-description">
				<p>A substantial period property built in 1902, offering around 140 sqm
				of well-proportioned accommodation across three floors.</p>
			</div>
			<div class="property-summary">
				<span>5 beds</span>
				<span>3 baths</span>
			</div>
		</body></html>`

	p := testPipeline(t, detailPage)
	p.cfg.Pipeline.FetchDetails = true

	rec := models.Property{PropertyURL: "https://www.primelocation.com/for-sale/details/99/"}
	p.enrich(context.Background(), &rec)

	if rec.Description == "" {
		t.Error("description not applied")
	}
	if rec.AreaSqm == nil || *rec.AreaSqm != 140 {
		t.Errorf("area = %v, want 140", rec.AreaSqm)
	}
	if rec.Bathrooms == nil || *rec.Bathrooms != 3 {
		t.Errorf("bathrooms = %v, want 3", rec.Bathrooms)
	}
	if rec.BuiltYear == nil || *rec.BuiltYear != 1902 {
		t.Errorf("built year = %v, want 1902", rec.BuiltYear)
	}

	// Zoopla listing pages are not fetched; the record stays untouched.
	other := models.Property{PropertyURL: "https://www.zoopla.co.uk/for-sale/details/99/"}
	p.enrich(context.Background(), &other)
	if other.Description != "" || other.BuiltYear != nil {
		t.Errorf("non-PrimeLocation record enriched: %+v", other)
	}
}

func TestPipelineHonoursContext(t *testing.T) {
	p := testPipeline(t, "<html></html>")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := p.Run(ctx, models.SearchQuery{City: "Liverpool", MinBedrooms: 3, MaxPrice: 300000}); err == nil {
		t.Fatal("cancelled context should abort the run")
	}
}
