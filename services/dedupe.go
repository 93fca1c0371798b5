package services

import (
	"log"
	"regexp"
	"strings"

	"github.com/petar-nikolic125/hmo-finder-live/identity"
	"github.com/petar-nikolic125/hmo-finder-live/models"
)

// minAddressLen is the shortest string accepted as a real address.
const minAddressLen = 10

// Exact placeholder strings portals leak into title slots.
var genericAddresses = map[string]struct{}{
	"related searches": {},
	"property in":      {},
	"bed property in":  {},
}

var spaceRe = regexp.MustCompile(`\s+`)

// ValidAddress reports whether an address is specific enough to identify a
// listing. Generic "Property in <city>" fillers are rejected outright.
func ValidAddress(addr string) bool {
	a := spaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(addr)), " ")
	a = strings.TrimSuffix(a, ",")
	if len(a) < minAddressLen {
		return false
	}
	if _, generic := genericAddresses[a]; generic {
		return false
	}
	if strings.Contains(a, "property in") && len(strings.Fields(a)) <= 3 {
		return false
	}
	return true
}

// Dedupe removes duplicate listings, keeping first occurrences. Records
// without a valid address are dropped before any key is computed. Two keys
// suppress duplicates: the exact (address, price, bedrooms) signature and a
// looser (address, price) one that collapses bedroom-count variants.
func Dedupe(records []models.Property) []models.Property {
	unique := make([]models.Property, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	seenLoose := make(map[string]struct{}, len(records))

	for _, rec := range records {
		if !ValidAddress(rec.Address) {
			log.Printf("dedupe: dropping invalid address %q", rec.Address)
			continue
		}

		sig := identity.Signature(rec.Address, rec.Price, rec.Bedrooms)
		loose := identity.LooseSignature(rec.Address, rec.Price)

		if _, dup := seen[sig]; dup {
			continue
		}
		if _, dup := seenLoose[loose]; dup {
			continue
		}

		seen[sig] = struct{}{}
		seenLoose[loose] = struct{}{}
		unique = append(unique, rec)
	}

	return unique
}
