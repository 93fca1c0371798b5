package scraper

import (
	"bytes"
	"context"
	"log"
	"math/rand"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/petar-nikolic125/hmo-finder-live/config"
	"github.com/petar-nikolic125/hmo-finder-live/models"
	"github.com/petar-nikolic125/hmo-finder-live/services"
)

// Pipeline runs one complete scrape: candidate URLs are fetched in priority
// order, listings located and extracted, results analyzed and deduplicated,
// and the synthetic generator fills in when real extraction comes up short.
// A Pipeline is not safe for concurrent use: it owns a single random source
// and browser identity. Callers running scrapes from multiple goroutines
// must serialize calls to Run.
type Pipeline struct {
	cfg       *config.Config
	cities    *config.Cities
	fetcher   *Fetcher
	extractor *Extractor
	analyzer  *services.Analyzer
	generator *services.Generator
}

func NewPipeline(cfg *config.Config, cities *config.Cities, client *http.Client, r *rand.Rand) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		cities:    cities,
		fetcher:   NewFetcher(client, cfg.Fetch, r),
		extractor: NewExtractor(cities, r, cfg.Pipeline.SynthesizePrices),
		analyzer:  services.NewAnalyzer(cities, r),
		generator: services.NewGenerator(cities, r),
	}
}

// Run executes the pipeline for one query. It only fails on context
// cancellation; fetch and extraction problems are logged and skipped.
func (p *Pipeline) Run(ctx context.Context, q models.SearchQuery) ([]models.Property, models.RunStats, error) {
	ClampQuery(&q)
	urls := BuildSearchURLs(q, p.cities)
	log.Printf("pipeline: %s: %d candidate URLs", q.City, len(urls))

	var (
		stats   models.RunStats
		scraped []models.Property
	)

	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.URLsTried++

		body, err := p.fetcher.Fetch(ctx, u)
		if err != nil {
			log.Printf("pipeline: skipping %s: %v", u, err)
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			log.Printf("pipeline: unparseable page %s: %v", u, err)
			continue
		}

		nodes := LocateListings(doc)
		if len(nodes) == 0 {
			log.Printf("pipeline: no listings on %s", u)
			continue
		}
		stats.URLsSucceeded++

		if len(nodes) > p.cfg.Pipeline.MaxListingsPerPage {
			nodes = nodes[:p.cfg.Pipeline.MaxListingsPerPage]
		}

		for _, node := range nodes {
			rec, ok := p.extractOne(node, u, q)
			if !ok {
				continue
			}
			p.enrich(ctx, &rec)
			rec.InvestmentAnalysis = p.analyzer.Analyze(rec.Price, rec.Bedrooms, rec.Address, rec.AreaSqm, q.City)
			scraped = append(scraped, rec)
			if len(scraped) >= p.cfg.Pipeline.MaxResults {
				break
			}
		}

		stats.ListingsFound = len(scraped)
		if len(scraped) >= p.cfg.Pipeline.MaxResults {
			break
		}
	}

	unique := services.Dedupe(scraped)
	stats.UniqueCount = len(unique)
	log.Printf("pipeline: %d unique of %d scraped", len(unique), len(scraped))

	if len(unique) < p.cfg.Pipeline.FallbackMinResults {
		missing := p.cfg.Pipeline.FallbackMinResults - len(unique)
		log.Printf("pipeline: only %d results, generating %d synthetic", len(unique), missing)
		for _, rec := range p.generator.Generate(q, missing) {
			rec.InvestmentAnalysis = p.analyzer.Analyze(rec.Price, rec.Bedrooms, rec.Address, rec.AreaSqm, q.City)
			unique = append(unique, rec)
			stats.SyntheticCount++
		}
	}

	return unique, stats, nil
}

// extractOne shields the run from a single malformed listing: any panic in
// extraction is logged and the node skipped.
func (p *Pipeline) extractOne(node *goquery.Selection, pageURL string, q models.SearchQuery) (rec models.Property, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("pipeline: extraction panic, skipping listing: %v", r)
			ok = false
		}
	}()
	return p.extractor.Extract(node, pageURL, q)
}

// enrich fetches the listing's own page for description, floor area and
// bathrooms. Best-effort and off by default; only PrimeLocation detail
// pages are attempted.
func (p *Pipeline) enrich(ctx context.Context, rec *models.Property) {
	if !p.cfg.Pipeline.FetchDetails || !strings.Contains(rec.PropertyURL, "primelocation") {
		return
	}

	details, err := FetchDetails(ctx, p.fetcher, rec.PropertyURL)
	if err != nil {
		log.Printf("pipeline: detail fetch failed for %s: %v", rec.PropertyURL, err)
		return
	}

	if details.Description != "" {
		rec.Description = details.Description
	}
	if details.AreaSqm != nil {
		rec.AreaSqm = details.AreaSqm
	}
	if details.Bathrooms != nil {
		rec.Bathrooms = details.Bathrooms
	}
	if details.BuiltYear != nil {
		rec.BuiltYear = details.BuiltYear
	}
}
