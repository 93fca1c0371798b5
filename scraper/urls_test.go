package scraper

import (
	"strings"
	"testing"

	"github.com/petar-nikolic125/hmo-finder-live/config"
	"github.com/petar-nikolic125/hmo-finder-live/models"
)

func TestClampQuery(t *testing.T) {
	tests := []struct {
		name string
		in   models.SearchQuery
		want models.SearchQuery
	}{
		{
			name: "zero price gets default",
			in:   models.SearchQuery{City: "Leeds", MinBedrooms: 3},
			want: models.SearchQuery{City: "Leeds", MinBedrooms: 3, MaxPrice: 300_000},
		},
		{
			name: "excessive price clamped",
			in:   models.SearchQuery{City: "Leeds", MinBedrooms: 3, MaxPrice: 5_000_000},
			want: models.SearchQuery{City: "Leeds", MinBedrooms: 3, MaxPrice: MaxSearchPrice},
		},
		{
			name: "bedrooms clamped both ways",
			in:   models.SearchQuery{City: "Leeds", MinBedrooms: 25, MaxPrice: 200_000},
			want: models.SearchQuery{City: "Leeds", MinBedrooms: MaxBedrooms, MaxPrice: 200_000},
		},
		{
			name: "none keyword cleared",
			in:   models.SearchQuery{City: "Leeds", MinBedrooms: 3, MaxPrice: 200_000, Keywords: "None"},
			want: models.SearchQuery{City: "Leeds", MinBedrooms: 3, MaxPrice: 200_000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ClampQuery(&tt.in)
			if tt.in != tt.want {
				t.Errorf("got %+v, want %+v", tt.in, tt.want)
			}
		})
	}
}

func TestBuildSearchURLs(t *testing.T) {
	cities, err := config.LoadCities()
	if err != nil {
		t.Fatalf("LoadCities: %v", err)
	}

	q := models.SearchQuery{City: "Leeds", MinBedrooms: 3, MaxPrice: 300_000, Keywords: "hmo"}
	urls := BuildSearchURLs(q, cities)
	if len(urls) == 0 {
		t.Fatal("no URLs built")
	}

	seen := make(map[string]bool)
	for _, u := range urls {
		if seen[u] {
			t.Errorf("duplicate URL %s", u)
		}
		seen[u] = true
		if !strings.Contains(u, "/for-sale/property/leeds/") {
			t.Errorf("URL %s missing city slug path", u)
		}
	}

	first := urls[0]
	if !strings.Contains(first, "primelocation.com") {
		t.Errorf("first URL %s should target PrimeLocation", first)
	}
	if !strings.Contains(first, "beds_min=3") || !strings.Contains(first, "keywords=hmo") {
		t.Errorf("first URL %s missing primary filters", first)
	}

	// The last two candidates are the filter-free searches, one per portal.
	last := urls[len(urls)-1]
	penultimate := urls[len(urls)-2]
	if strings.Contains(last, "?") || strings.Contains(penultimate, "?") {
		t.Errorf("final candidates should be filter-free: %s, %s", penultimate, last)
	}
}

func TestBuildSearchURLsHighEndTiers(t *testing.T) {
	cities, err := config.LoadCities()
	if err != nil {
		t.Fatalf("LoadCities: %v", err)
	}

	q := models.SearchQuery{City: "London", MinBedrooms: 4, MaxPrice: 800_000}
	urls := BuildSearchURLs(q, cities)

	var sawReduced, sawFloor bool
	for _, u := range urls {
		if strings.Contains(u, "price_max=720000") {
			sawReduced = true
		}
		if strings.Contains(u, "price_min=560000") {
			sawFloor = true
		}
	}
	if !sawReduced || !sawFloor {
		t.Errorf("high-end tier URLs missing (reduced=%v floor=%v)", sawReduced, sawFloor)
	}
}

func TestBuildSearchURLsUnknownCity(t *testing.T) {
	cities, err := config.LoadCities()
	if err != nil {
		t.Fatalf("LoadCities: %v", err)
	}

	q := models.SearchQuery{City: "Milton Keynes", MinBedrooms: 2, MaxPrice: 250_000}
	urls := BuildSearchURLs(q, cities)
	if len(urls) == 0 {
		t.Fatal("no URLs for unmapped city")
	}
	for _, u := range urls {
		if !strings.Contains(u, "/for-sale/property/milton-keynes/") {
			t.Errorf("URL %s missing naive slug", u)
		}
	}
}
