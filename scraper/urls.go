package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/petar-nikolic125/hmo-finder-live/config"
	"github.com/petar-nikolic125/hmo-finder-live/models"
)

// Price and bedroom clamps applied before any URL is built.
const (
	MinSearchPrice = 50_000
	MaxSearchPrice = 2_000_000
	MinBedrooms    = 1
	MaxBedrooms    = 10
)

const (
	zooplaBase = "https://www.zoopla.co.uk"
	primeBase  = "https://www.primelocation.com"
)

// ClampQuery normalizes a query in place to the supported search ranges.
func ClampQuery(q *models.SearchQuery) {
	if q.MaxPrice <= 0 {
		q.MaxPrice = 300_000
	}
	q.MaxPrice = clamp(q.MaxPrice, MinSearchPrice, MaxSearchPrice)
	q.MinBedrooms = clamp(q.MinBedrooms, MinBedrooms, MaxBedrooms)
	if strings.EqualFold(q.Keywords, "none") {
		q.Keywords = ""
	}
}

// BuildSearchURLs returns the ordered candidate search URLs for a query,
// most specific first, ending with a filter-free search per portal. The
// list is non-empty and free of duplicates.
func BuildSearchURLs(q models.SearchQuery, cities *config.Cities) []string {
	ClampQuery(&q)
	slug := cities.Slug(q.City)

	zoopla := func(params ...string) string {
		return portalURL(zooplaBase, slug, params)
	}
	prime := func(params ...string) string {
		return portalURL(primeBase, slug, params)
	}

	beds := fmt.Sprintf("beds_min=%d", q.MinBedrooms)
	price := fmt.Sprintf("price_max=%d", q.MaxPrice)
	city := "q=" + url.QueryEscape(q.City)

	var urls []string

	// Primary filtered searches. PrimeLocation first: it blocks less.
	if q.Keywords != "" {
		kw := "keywords=" + url.QueryEscape(q.Keywords)
		urls = append(urls,
			prime(beds, kw, price, city),
			zoopla(beds, kw, price, city, "search_source=for-sale"),
		)
	}
	urls = append(urls,
		prime(beds, price, city),
		zoopla(beds, price, city, "search_source=for-sale"),
	)

	// Relaxed bedroom count
	if q.MinBedrooms > 1 {
		flexBeds := fmt.Sprintf("beds_min=%d", q.MinBedrooms-1)
		urls = append(urls,
			zoopla(flexBeds, price, city, "search_source=for-sale"),
			prime(flexBeds, price),
		)
	}

	// Keyword-free broadened searches
	urls = append(urls,
		zoopla(beds, price, "property_type=houses", "results_sort=newest"),
		prime(beds, price, "propertyType=terraced", "results_sort=price"),
		zoopla(price, "property_type=houses"),
		prime(price),
	)

	// Price-tier adjustments: budget searches expand the cap slightly,
	// high-end searches also probe below it.
	switch {
	case q.MaxPrice < 200_000:
		expanded := fmt.Sprintf("price_max=%d", q.MaxPrice*11/10)
		urls = append(urls, zoopla(expanded), prime(expanded))
	case q.MaxPrice > 600_000:
		reduced := fmt.Sprintf("price_max=%d", q.MaxPrice*9/10)
		floor := fmt.Sprintf("price_min=%d", q.MaxPrice*7/10)
		urls = append(urls,
			zoopla(reduced, "property_type=houses"),
			prime(reduced),
			zoopla(beds, floor, price),
		)
	}

	// Widest filtered searches, then filter-free as the last resort.
	urls = append(urls,
		zoopla(price),
		prime(price),
		zoopla(),
		prime(),
	)

	return dedupeStrings(urls)
}

func portalURL(base, slug string, params []string) string {
	u := fmt.Sprintf("%s/for-sale/property/%s/", base, slug)
	if len(params) == 0 {
		return u
	}
	return u + "?" + strings.Join(params, "&")
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
