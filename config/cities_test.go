package config

import (
	"sort"
	"testing"
)

func TestLoadCities(t *testing.T) {
	cities, err := LoadCities()
	if err != nil {
		t.Fatalf("LoadCities: %v", err)
	}

	if cities.Default().Name != "Liverpool" {
		t.Errorf("default city = %q, want Liverpool", cities.Default().Name)
	}

	names := cities.Names()
	if len(names) == 0 {
		t.Fatal("no city names loaded")
	}
	if !sort.StringsAreSorted(names) {
		t.Error("Names() is not sorted")
	}
}

func TestLookupAliases(t *testing.T) {
	cities, err := LoadCities()
	if err != nil {
		t.Fatalf("LoadCities: %v", err)
	}

	info, ok := cities.Lookup("Newcastle upon Tyne")
	if !ok {
		t.Fatal("alias lookup failed for Newcastle upon Tyne")
	}
	if info.Slug != "newcastle-upon-tyne" {
		t.Errorf("slug = %q, want newcastle-upon-tyne", info.Slug)
	}

	if _, ok := cities.Lookup("LIVERPOOL"); !ok {
		t.Error("lookup should be case-insensitive")
	}
}

func TestSlugFallback(t *testing.T) {
	cities, err := LoadCities()
	if err != nil {
		t.Fatalf("LoadCities: %v", err)
	}

	if got := cities.Slug("Milton Keynes"); got != "milton-keynes" {
		t.Errorf("Slug(Milton Keynes) = %q, want milton-keynes", got)
	}
	if got := cities.Slug("hull"); got != "kingston-upon-hull" {
		t.Errorf("Slug(hull) = %q, want kingston-upon-hull", got)
	}
}

func TestCityDefaults(t *testing.T) {
	cities, err := LoadCities()
	if err != nil {
		t.Fatalf("LoadCities: %v", err)
	}

	if got := cities.LHAWeekly("liverpool"); got != 122 {
		t.Errorf("LHAWeekly(liverpool) = %d, want 122", got)
	}
	if got := cities.LHAWeekly("unmapped town"); got != defaultLHAWeekly {
		t.Errorf("LHAWeekly fallback = %d, want %d", got, defaultLHAWeekly)
	}
	if got := cities.BasePrice("london"); got != 600000 {
		t.Errorf("BasePrice(london) = %d, want 600000", got)
	}
	if got := cities.BasePrice("unmapped town"); got != defaultBasePrice {
		t.Errorf("BasePrice fallback = %d, want %d", got, defaultBasePrice)
	}

	bands := cities.Rates("unmapped town")
	if bands != cities.Default().Bands {
		t.Error("Rates for unmapped city should fall back to the default entry")
	}
	if bands.Premium.Min <= 0 || bands.Premium.Max < bands.Premium.Min {
		t.Errorf("implausible premium band %+v", bands.Premium)
	}
}
