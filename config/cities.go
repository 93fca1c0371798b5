package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed cities.yaml
var citiesYAML []byte

const (
	defaultLHAWeekly = 110
	defaultBasePrice = 200000
)

// Band is a [min, max] per-room monthly rent range in pounds.
type Band struct {
	Min int
	Max int
}

func (b *Band) UnmarshalYAML(value *yaml.Node) error {
	var pair [2]int
	if err := value.Decode(&pair); err != nil {
		return fmt.Errorf("band must be a [min, max] pair: %w", err)
	}
	b.Min, b.Max = pair[0], pair[1]
	return nil
}

// Bands groups the rent ranges for the four area classes.
type Bands struct {
	Premium Band `yaml:"premium"`
	Good    Band `yaml:"good"`
	Student Band `yaml:"student"`
	Budget  Band `yaml:"budget"`
}

// CityInfo is the static reference entry for one city.
type CityInfo struct {
	Name           string   `yaml:"-"`
	Slug           string   `yaml:"slug"`
	Aliases        []string `yaml:"aliases"`
	LHAWeekly      int      `yaml:"lha_weekly"`
	BasePrice      int      `yaml:"base_price"`
	PostcodePrefix string   `yaml:"postcode_prefix"`
	Bands          Bands    `yaml:"bands"`
	Areas          []string `yaml:"areas"`
	Streets        []string `yaml:"streets"`
}

type citiesFile struct {
	Default string               `yaml:"default"`
	Cities  map[string]*CityInfo `yaml:"cities"`
}

// Cities is the loaded city table with an explicit default entry.
type Cities struct {
	byKey map[string]*CityInfo
	def   *CityInfo
	names []string
}

// LoadCities parses the embedded city table. Called once at process start.
func LoadCities() (*Cities, error) {
	var f citiesFile
	if err := yaml.Unmarshal(citiesYAML, &f); err != nil {
		return nil, fmt.Errorf("parse cities.yaml: %w", err)
	}

	c := &Cities{byKey: make(map[string]*CityInfo)}
	for key, info := range f.Cities {
		info.Name = titleCase(key)
		c.byKey[key] = info
		for _, alias := range info.Aliases {
			c.byKey[strings.ToLower(alias)] = info
		}
		c.names = append(c.names, info.Name)
	}
	sort.Strings(c.names)

	def, ok := c.byKey[f.Default]
	if !ok {
		return nil, fmt.Errorf("default city %q has no entry", f.Default)
	}
	c.def = def

	return c, nil
}

// Lookup returns the entry for a city, matching case-insensitively against
// names and aliases.
func (c *Cities) Lookup(city string) (*CityInfo, bool) {
	info, ok := c.byKey[strings.ToLower(strings.TrimSpace(city))]
	return info, ok
}

// Default returns the fallback entry used for unmapped cities.
func (c *Cities) Default() *CityInfo {
	return c.def
}

// Slug returns the portal URL slug for a city. Unknown cities get a naive
// lower-cased, hyphenated slug so URL building never fails.
func (c *Cities) Slug(city string) string {
	if info, ok := c.Lookup(city); ok && info.Slug != "" {
		return info.Slug
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(city)), " ", "-")
}

// Rates returns the rental bands for a city, falling back to the default
// entry when unmapped.
func (c *Cities) Rates(city string) Bands {
	if info, ok := c.Lookup(city); ok {
		return info.Bands
	}
	return c.def.Bands
}

// LHAWeekly returns the weekly Local Housing Allowance reference rate.
func (c *Cities) LHAWeekly(city string) int {
	if info, ok := c.Lookup(city); ok && info.LHAWeekly > 0 {
		return info.LHAWeekly
	}
	return defaultLHAWeekly
}

// BasePrice returns the typical purchase price used for price synthesis.
func (c *Cities) BasePrice(city string) int {
	if info, ok := c.Lookup(city); ok && info.BasePrice > 0 {
		return info.BasePrice
	}
	return defaultBasePrice
}

// Names lists all known city names in sorted order.
func (c *Cities) Names() []string {
	return c.names
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "upon" || w == "and" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
