package scraper

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Details carries the best-effort fields only a listing's own page exposes.
// Nothing here is ever fabricated; absent fields stay nil.
type Details struct {
	Description string
	AreaSqm     *int
	Bathrooms   *int
	BuiltYear   *int
}

var (
	descriptionSelectors = []string{
		`div[class*="description"] p`,
		`div[data-testid*="description"]`,
		`section[class*="description"]`,
		".property-description",
		".listing-description",
		"article p",
	}

	featureSelectors = []string{
		`div[class*="feature"] li`,
		`ul[class*="feature"] li`,
		".property-features li",
		".key-features li",
		`div[class*="detail"] li`,
		".amenities li",
	}

	bathSelectors = []string{
		`div[class*="summary"] span`,
		`div[class*="detail"] span`,
		".property-stats span",
		".key-info span",
		`span[class*="bath"]`,
		`li[class*="bath"]`,
	}

	descKeywords = []string{
		"bedroom", "bathroom", "kitchen", "reception", "property", "garden",
		"living", "dining", "fitted", "modern", "feature", "sqft", "sq ft", "square",
	}

	bathPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\s+bathrooms?`),
		regexp.MustCompile(`(?i)(\d+)\s+baths?`),
		regexp.MustCompile(`(?i)(\d+)\s*x\s*bath`),
		regexp.MustCompile(`(?i)bath\s*[:\-]\s*(\d+)`),
	}

	yearRe = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
)

// FetchDetails retrieves a listing's own page and parses the description,
// floor area and bathroom count out of it.
func FetchDetails(ctx context.Context, f *Fetcher, propertyURL string) (*Details, error) {
	if !strings.Contains(propertyURL, "http") {
		return nil, fmt.Errorf("not an absolute URL: %s", propertyURL)
	}

	body, err := f.Fetch(ctx, propertyURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return parseDetails(doc), nil
}

func parseDetails(doc *goquery.Document) *Details {
	d := &Details{}
	d.Description = extractDescription(doc)

	if d.Description != "" {
		d.AreaSqm = ExtractFloorArea(d.Description)
	}
	if d.AreaSqm == nil {
		d.AreaSqm = areaFromFeatures(doc)
	}

	d.Bathrooms = extractBathrooms(doc, d.Description)

	if d.Description != "" {
		if years := yearRe.FindAllString(d.Description, -1); len(years) > 0 {
			if y, err := strconv.Atoi(years[len(years)-1]); err == nil {
				d.BuiltYear = &y
			}
		}
	}

	return d
}

func extractDescription(doc *goquery.Document) string {
	var b strings.Builder
	for _, sel := range descriptionSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 30 {
				b.WriteString(" ")
				b.WriteString(text)
			}
		})
		if b.Len() > 100 {
			return strings.TrimSpace(b.String())
		}
	}

	// No structured description: collect property-flavored paragraphs.
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) <= 50 {
			return
		}
		lower := strings.ToLower(text)
		for _, kw := range descKeywords {
			if strings.Contains(lower, kw) {
				parts = append(parts, text)
				return
			}
		}
	})
	return strings.Join(parts, " ")
}

func areaFromFeatures(doc *goquery.Document) *int {
	for _, sel := range featureSelectors {
		var area *int
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			area = ExtractFloorArea(strings.TrimSpace(s.Text()))
			return area == nil
		})
		if area != nil {
			return area
		}
	}
	return nil
}

func extractBathrooms(doc *goquery.Document, description string) *int {
	for _, sel := range bathSelectors {
		var baths *int
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.ToLower(strings.TrimSpace(s.Text()))
			if !strings.Contains(text, "bath") {
				return true
			}
			if m := digitsRe.FindString(text); m != "" {
				if n, err := strconv.Atoi(m); err == nil && n > 0 {
					baths = &n
					return false
				}
			}
			return true
		})
		if baths != nil {
			return baths
		}
	}

	for _, re := range bathPatterns {
		if m := re.FindStringSubmatch(description); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return &n
			}
		}
	}
	return nil
}
