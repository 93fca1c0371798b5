package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var (
	streetReplacements = map[string]string{
		"street":    "st",
		"avenue":    "ave",
		"drive":     "dr",
		"road":      "rd",
		"boulevard": "blvd",
		"lane":      "ln",
		"court":     "ct",
		"place":     "pl",
		"crescent":  "cres",
		"terrace":   "ter",
		"gardens":   "gdns",
		"grove":     "gr",
		"close":     "cl",
		"square":    "sq",
		"parade":    "pde",
		"north":     "n",
		"south":     "s",
		"east":      "e",
		"west":      "w",
		"saint":     "st",
		"upper":     "up",
		"lower":     "lwr",
	}
	multiSpaceRegex = regexp.MustCompile(`\s+`)
	nonAlnumRegex   = regexp.MustCompile(`[^a-z0-9\s]`)
)

// NormalizeAddress lower-cases an address, strips punctuation and collapses
// common UK street suffixes so near-identical addresses compare equal.
func NormalizeAddress(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	addr = nonAlnumRegex.ReplaceAllString(addr, " ")
	for full, abbrev := range streetReplacements {
		addr = strings.ReplaceAll(addr, full, abbrev)
	}
	addr = multiSpaceRegex.ReplaceAllString(addr, " ")
	return strings.TrimSpace(addr)
}

// Signature is the primary dedup key: normalized address + price + bedrooms.
func Signature(address string, price, bedrooms int) string {
	return fmt.Sprintf("%s_%d_%d", NormalizeAddress(address), price, bedrooms)
}

// LooseSignature drops the bedroom count so bedroom-count variants of the
// same underlying listing collapse together.
func LooseSignature(address string, price int) string {
	return fmt.Sprintf("%s_%d", NormalizeAddress(address), price)
}

// Fingerprint is the stable hashed identity used as the persistence upsert
// key.
func Fingerprint(address string, price, bedrooms int) string {
	hash := sha256.Sum256([]byte(Signature(address, price, bedrooms)))
	return hex.EncodeToString(hash[:16])
}
