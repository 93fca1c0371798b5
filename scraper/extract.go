package scraper

import (
	"math/rand"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/petar-nikolic125/hmo-finder-live/config"
	"github.com/petar-nikolic125/hmo-finder-live/models"
)

// StockImageURL is the placeholder photo used when a listing has none.
const StockImageURL = "https://images.unsplash.com/photo-1560518883-ce09059eeffa?w=800&h=600&fit=crop&crop=entropy&q=80"

// minPlausiblePrice filters bare digit runs that cannot be sale prices.
const minPlausiblePrice = 50_000

var (
	titleSelectors = []string{
		"h1", "h2", "h3", "h4", "h5",
		`[data-testid*="title"]`,
		`[data-testid*="address"]`,
		`[data-testid*="listing-title"]`,
		".property-title",
		".listing-title",
		".property-address",
		"address",
		"a[title]",
		`a[href*="/details/"] span`,
		`a[href*="/property/"] span`,
	}

	priceSelectors = []string{
		`[data-testid*="price"]`,
		`[class*="price"]`,
		".price",
		`[aria-label*="price"]`,
		".property-price",
		".listing-price",
		`span[title*="£"]`,
		".display-price",
	}

	bedSelectors = []string{
		`[data-testid*="bed"]`,
		`[data-testid*="room"]`,
		`[class*="bed"]`,
		`[aria-label*="bed"]`,
		".bedrooms",
		".property-bedrooms",
		".beds",
		`span[title*="bed"]`,
	}

	linkSelectors = []string{
		`a[href*="/details/"]`,
		`a[href*="/property/"]`,
		`a[href*="/for-sale/"]`,
		`a[href*="/houses-for-sale/"]`,
		`a[href*="/new-homes/"]`,
	}
)

var (
	priceCleanRe   = regexp.MustCompile(`[^\d]`)
	digitsRe       = regexp.MustCompile(`\d+`)
	pricePatterns  = []*regexp.Regexp{regexp.MustCompile(`£[\d,]+`), regexp.MustCompile(`\d+,\d+`), regexp.MustCompile(`\d{3,}`)}
	bedTextRe      = regexp.MustCompile(`(?i)(\d+)\s*bed`)
	addressLikeRe  = regexp.MustCompile(`(?i)\d+\s+\w+|\b(road|street|lane|avenue|grove|gardens|terrace|crescent|close|drive|court|place)\b`)
	sqFtPatterns   = []*regexp.Regexp{regexp.MustCompile(`(?i)([\d,]+)\s*(?:sq\s*ft|sqft|square\s*feet|square\s*foot|sq\.?\s*ft\.?)`)}
	sqMPatterns    = []*regexp.Regexp{regexp.MustCompile(`(?i)([\d,]+)\s*(?:sq\s*m|sqm|square\s*metres|square\s*meters|m²|m2)`)}
	genericTitleRe = regexp.MustCompile(`(?i)^properties for sale`)
)

// ExtractPrice pulls a whole-pound amount out of free text. Empty or
// unparseable text yields 0.
func ExtractPrice(text string) int {
	cleaned := priceCleanRe.ReplaceAllString(strings.ReplaceAll(text, "£", ""), "")
	if cleaned == "" {
		return 0
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return n
}

// ExtractBedrooms reads the first number out of a bedroom label, defaulting
// to 1 when none is present.
func ExtractBedrooms(text string) int {
	if m := digitsRe.FindString(text); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	return 1
}

// ExtractFloorArea scans a description for a floor area and returns square
// metres, converting imperial figures. Nil when nothing matches.
func ExtractFloorArea(text string) *int {
	for _, re := range sqMPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
				return &n
			}
		}
	}
	for _, re := range sqFtPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
				sqm := int(float64(n) * 0.092903)
				return &sqm
			}
		}
	}
	return nil
}

// Extractor turns located listing nodes into property candidates. Price
// synthesis for listings with no visible price is an explicit opt-in so
// fabricated values never appear by accident.
type Extractor struct {
	cities          *config.Cities
	rand            *rand.Rand
	synthesizePrice bool
}

func NewExtractor(cities *config.Cities, r *rand.Rand, synthesizePrice bool) *Extractor {
	return &Extractor{cities: cities, rand: r, synthesizePrice: synthesizePrice}
}

// Extract builds a candidate from one listing node. The second return is
// false when the node has neither a usable title nor a price.
func (e *Extractor) Extract(node *goquery.Selection, pageURL string, q models.SearchQuery) (models.Property, bool) {
	p := models.Property{
		ID:   uuid.NewString(),
		City: q.City,
	}

	p.Title, p.Address = e.extractTitle(node, q.City)
	p.Bedrooms = e.extractBedrooms(node, q)
	p.Price = e.extractPrice(node, p.Bedrooms, q)
	p.PropertyURL = extractLink(node, pageURL)
	p.ImageURL = extractImage(node)

	if len(p.Title) <= 3 && p.Price <= 0 {
		return models.Property{}, false
	}

	p.Description = describeListing(p.Bedrooms, q.City)
	return p, true
}

func (e *Extractor) extractTitle(node *goquery.Selection, city string) (title, address string) {
	for _, sel := range titleSelectors {
		elem := node.Find(sel).First()
		if elem.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(elem.Text())
		if usableTitle(text) {
			return text, addressFor(text, city)
		}
	}

	// Link title attribute
	if t, ok := node.Find("a[title]").First().Attr("title"); ok && usableTitle(t) {
		return t, addressFor(t, city)
	}

	// Image alt text, when it reads like an address
	if alt, ok := node.Find("img[alt]").First().Attr("alt"); ok {
		alt = strings.TrimSpace(alt)
		if usableTitle(alt) && addressLikeRe.MatchString(alt) {
			return alt, addressFor(alt, city)
		}
	}

	// Raw text scan for an address-shaped line
	for _, line := range strings.Split(node.Text(), "\n") {
		line = strings.TrimSpace(line)
		if usableTitle(line) && addressLikeRe.MatchString(line) && !strings.Contains(line, "£") {
			return line, addressFor(line, city)
		}
	}

	return "", ""
}

func usableTitle(text string) bool {
	return len(text) > 5 &&
		!strings.HasPrefix(text, "£") &&
		!genericTitleRe.MatchString(text)
}

// addressFor keeps the extracted text when it already names the city,
// otherwise pins the first segment to the searched city.
func addressFor(title, city string) string {
	if strings.Contains(strings.ToLower(title), strings.ToLower(city)) {
		return title
	}
	first := strings.TrimSpace(strings.SplitN(title, ",", 2)[0])
	return first + ", " + city
}

func (e *Extractor) extractPrice(node *goquery.Selection, bedrooms int, q models.SearchQuery) int {
	for _, sel := range priceSelectors {
		elem := node.Find(sel).First()
		if elem.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(elem.Text())
		if text == "" {
			text, _ = elem.Attr("title")
		}
		if v := ExtractPrice(text); v > 0 {
			return v
		}
	}

	// Full-text scan, filtered to a plausible sale-price band
	allText := node.Text()
	for _, re := range pricePatterns {
		for _, match := range re.FindAllString(allText, -1) {
			if v := ExtractPrice(match); v >= minPlausiblePrice {
				return v
			}
		}
	}

	if e.synthesizePrice {
		return e.syntheticPrice(bedrooms, q)
	}
	return 0
}

// syntheticPrice estimates a sale price from the city's base price and the
// bedroom count, clamped to the query cap.
func (e *Extractor) syntheticPrice(bedrooms int, q models.SearchQuery) int {
	base := e.cities.BasePrice(q.City)
	estimated := int(float64(base) * float64(bedrooms) * 0.8 * (0.7 + e.rand.Float64()*0.6))
	if q.MaxPrice > 0 && estimated > q.MaxPrice {
		return q.MaxPrice
	}
	return estimated
}

func (e *Extractor) extractBedrooms(node *goquery.Selection, q models.SearchQuery) int {
	for _, sel := range bedSelectors {
		elem := node.Find(sel).First()
		if elem.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(elem.Text())
		if text == "" {
			text, _ = elem.Attr("title")
		}
		if text == "" {
			continue
		}
		if n := ExtractBedrooms(text); n > 0 {
			return n
		}
	}

	if m := bedTextRe.FindStringSubmatch(node.Text()); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}

	if q.MinBedrooms > 0 {
		return q.MinBedrooms
	}
	return 1 + e.rand.Intn(4)
}

// extractLink resolves the listing URL, preferring the node itself when it
// is an anchor, then the first matching anchor inside it. Relative hrefs
// resolve against the originating portal.
func extractLink(node *goquery.Selection, pageURL string) string {
	if goquery.NodeName(node) == "a" {
		if href, ok := node.Attr("href"); ok {
			return resolveHref(href, pageURL)
		}
	}
	for _, sel := range linkSelectors {
		if href, ok := node.Find(sel).First().Attr("href"); ok {
			return resolveHref(href, pageURL)
		}
	}
	return pageURL
}

func resolveHref(href, pageURL string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func extractImage(node *goquery.Selection) string {
	src, ok := node.Find("img").First().Attr("src")
	if !ok || src == "" || strings.Contains(strings.ToLower(src), "placeholder") {
		return StockImageURL
	}
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	if !strings.HasPrefix(src, "http") {
		return StockImageURL
	}
	return src
}

func describeListing(bedrooms int, city string) string {
	return strconv.Itoa(bedrooms) + " bedroom HMO property in " + city +
		". Great investment opportunity with strong rental potential. Suitable for students and young professionals."
}
