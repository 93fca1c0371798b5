package scraper

import (
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Selector tiers for locating listing containers. Portal-specific markup
// hints come first; each later tier is broader and needs more matches to
// be judged plausible.
var (
	primarySelectors = []string{
		`article[data-testid*="search-result"]`,
		`[data-testid*="listing-card"]`,
		`[data-testid*="property-listing"]`,
		`.property-listing`,
		`.property-card`,
		`.listing-results-wrapper > div`,
		`.search-results > div`,
		`.search-property-result`,
		`[class*="SearchResultCard"]`,
		`[class*="property-item"]`,
		`div[data-testid*="card"]`,
		`div:has(a[href*="/for-sale/details/"])`,
		`div:has(a[href*="/property/"])`,
	}

	priceFragmentSelector = `div[class*="price"], span[class*="price"]`

	fallbackSelectors = []string{
		`div[role="listitem"]`,
		`div[data-testid]`,
		`article`,
		`li[class*="result"]`,
		`div[class*="card"]`,
		`div[class*="item"]`,
		`a[href*="/for-sale/"]`,
		`a[href*="/details/"]`,
	}
)

const (
	// Minimum matches for a generic fallback selector to be trusted.
	fallbackMinMatches = 5
	// Minimum text length for an ancestor to count as a full listing.
	minListingTextLen = 50
)

// LocateListings finds candidate listing containers in a result page. An
// empty result is not an error; the caller moves on to the next URL.
func LocateListings(doc *goquery.Document) []*goquery.Selection {
	for _, selector := range primarySelectors {
		matches := doc.Find(selector)
		if matches.Length() > 0 {
			log.Printf("locate: %d listings via %q", matches.Length(), selector)
			return splitSelection(matches)
		}
	}

	// Price fragments only: walk up to the nearest ancestor with enough
	// text to be a full listing card.
	if frags := doc.Find(priceFragmentSelector); frags.Length() > 0 {
		if parents := listingAncestors(frags); len(parents) > 0 {
			log.Printf("locate: %d listings via price-fragment ancestors", len(parents))
			return parents
		}
	}

	for _, selector := range fallbackSelectors {
		matches := doc.Find(selector)
		if matches.Length() > fallbackMinMatches {
			log.Printf("locate: %d listings via fallback %q", matches.Length(), selector)
			return splitSelection(matches)
		}
	}

	return nil
}

func splitSelection(matches *goquery.Selection) []*goquery.Selection {
	nodes := make([]*goquery.Selection, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, s)
	})
	return nodes
}

// listingAncestors maps each price fragment to its closest ancestor holding
// a listing's worth of text, deduplicating ancestors shared by several
// fragments.
func listingAncestors(frags *goquery.Selection) []*goquery.Selection {
	seen := make(map[*html.Node]bool)
	var parents []*goquery.Selection

	frags.Each(func(_ int, s *goquery.Selection) {
		node := s
		for node.Length() > 0 && len(strings.TrimSpace(node.Text())) < minListingTextLen {
			node = node.Parent()
			if goquery.NodeName(node) == "body" {
				return
			}
		}
		if node.Length() == 0 {
			return
		}
		root := node.Get(0)
		if seen[root] {
			return
		}
		seen[root] = true
		parents = append(parents, node)
	})

	return parents
}
