package services

import (
	"testing"

	"github.com/petar-nikolic125/hmo-finder-live/models"
)

func TestValidAddress(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"12 Smithdown Road, Liverpool", true},
		{"45 Lodge Lane, Liverpool L8", true},
		{"", false},
		{"Leeds", false},
		{"Related Searches", false},
		{"Property in Liverpool", false},
		{"property in", false},
		{"Bed property in", false},
		{"  12 Smithdown   Road, Liverpool  ", true},
	}

	for _, tt := range tests {
		if got := ValidAddress(tt.addr); got != tt.want {
			t.Errorf("ValidAddress(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestDedupeExactDuplicates(t *testing.T) {
	records := []models.Property{
		{Address: "12 Smithdown Road, Liverpool", Price: 250000, Bedrooms: 4},
		{Address: "12 SMITHDOWN RD, LIVERPOOL", Price: 250000, Bedrooms: 4},
		{Address: "45 Lodge Lane, Liverpool", Price: 180000, Bedrooms: 3},
	}

	unique := Dedupe(records)
	if len(unique) != 2 {
		t.Fatalf("got %d records, want 2", len(unique))
	}
	if unique[0].Address != "12 Smithdown Road, Liverpool" {
		t.Error("dedupe should keep the first occurrence")
	}
}

// Portals often repeat one listing with differing bedroom counts; the loose
// address+price key collapses those.
func TestDedupeBedroomVariants(t *testing.T) {
	records := []models.Property{
		{Address: "12 Smithdown Road, Liverpool", Price: 250000, Bedrooms: 4},
		{Address: "12 Smithdown Road, Liverpool", Price: 250000, Bedrooms: 5},
	}

	if unique := Dedupe(records); len(unique) != 1 {
		t.Fatalf("got %d records, want 1", len(unique))
	}
}

func TestDedupeDropsInvalidAddresses(t *testing.T) {
	records := []models.Property{
		{Address: "Property in Liverpool", Price: 250000, Bedrooms: 4},
		{Address: "", Price: 180000, Bedrooms: 3},
		{Address: "12 Smithdown Road, Liverpool", Price: 250000, Bedrooms: 4},
	}

	unique := Dedupe(records)
	if len(unique) != 1 {
		t.Fatalf("got %d records, want 1", len(unique))
	}
	if unique[0].Address != "12 Smithdown Road, Liverpool" {
		t.Errorf("kept wrong record: %q", unique[0].Address)
	}
}

func TestDedupeKeepsDistinctPrices(t *testing.T) {
	records := []models.Property{
		{Address: "12 Smithdown Road, Liverpool", Price: 250000, Bedrooms: 4},
		{Address: "12 Smithdown Road, Liverpool", Price: 240000, Bedrooms: 4},
	}

	if unique := Dedupe(records); len(unique) != 2 {
		t.Fatalf("got %d records, want 2: a price change is a distinct sighting", len(unique))
	}
}
