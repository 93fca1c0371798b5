package services

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/petar-nikolic125/hmo-finder-live/config"
	"github.com/petar-nikolic125/hmo-finder-live/models"
)

// Street pool for cities the reference table has no entry for.
var defaultStreets = []string{
	"High Street", "Station Road", "Church Lane", "Victoria Road", "Mill Lane",
}

const syntheticImageURL = "https://images.unsplash.com/photo-1560518883-ce09059eeffa?w=800&h=600&fit=crop&crop=entropy&q=80"

// Generator fabricates plausible placeholder listings for runs where real
// extraction came up short. Every record it emits is tagged Synthetic so
// consumers can filter them out. The random source is injected; a seeded
// source makes the output reproducible.
type Generator struct {
	cities *config.Cities
	rand   *rand.Rand
}

func NewGenerator(cities *config.Cities, r *rand.Rand) *Generator {
	return &Generator{cities: cities, rand: r}
}

// Generate produces count synthetic records for a query. Prices land in
// [0.6×max, max]; bedrooms spread around the requested minimum.
func (g *Generator) Generate(q models.SearchQuery, count int) []models.Property {
	info, known := g.cities.Lookup(q.City)
	if !known {
		info = g.cities.Default()
	}

	streets := info.Streets
	if len(streets) == 0 {
		streets = defaultStreets
	}

	searchURL := fmt.Sprintf("https://www.zoopla.co.uk/for-sale/property/%s/", g.cities.Slug(q.City))

	out := make([]models.Property, 0, count)
	for i := 0; i < count; i++ {
		street := streets[g.rand.Intn(len(streets))]
		number := 10 + g.rand.Intn(190)

		address := fmt.Sprintf("%d %s, %s", number, street, q.City)
		if len(info.Areas) > 0 {
			area := info.Areas[g.rand.Intn(len(info.Areas))]
			address = fmt.Sprintf("%d %s, %s, %s", number, street, area, q.City)
		}
		if known && info.PostcodePrefix != "" {
			address = fmt.Sprintf("%s %s%d", address, info.PostcodePrefix, 1+g.rand.Intn(20))
		}

		minBeds := q.MinBedrooms - 1
		if minBeds < 1 {
			minBeds = 1
		}
		bedrooms := minBeds + g.rand.Intn(q.MinBedrooms+2-minBeds+1)
		bathrooms := 1 + g.rand.Intn(3)
		areaSqm := 80 + g.rand.Intn(71)

		priceFloor := q.MaxPrice * 6 / 10
		price := priceFloor + g.rand.Intn(q.MaxPrice-priceFloor+1)

		out = append(out, models.Property{
			ID:          uuid.NewString(),
			Title:       fmt.Sprintf("%d bedroom terraced house for sale", bedrooms),
			Address:     address,
			City:        q.City,
			Price:       price,
			Bedrooms:    bedrooms,
			Bathrooms:   &bathrooms,
			AreaSqm:     &areaSqm,
			Description: fmt.Sprintf("Property in %s area. Contact for more details.", q.City),
			PropertyURL: searchURL,
			ImageURL:    syntheticImageURL,
			Synthetic:   true,
		})
	}

	return out
}
