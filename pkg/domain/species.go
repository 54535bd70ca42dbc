package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sheep-family tokens recognised by extension workers. Matching is
// case-insensitive and ignores diacritics, so "Ovino", "óvino" and
// "BORREGO criollo" all qualify.
var sheepTokens = []string{"borrego", "ovino", "oveja", "cordero"}

// A fresh transformer per call: chained transformers carry state and are not
// safe for concurrent use.
func foldSpecies(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(folder, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// IsSheepFamily reports whether a species name refers to a sheep-family
// animal eligible for procedures.
func IsSheepFamily(species string) bool {
	folded := foldSpecies(species)
	for _, token := range sheepTokens {
		if strings.Contains(folded, token) {
			return true
		}
	}
	return false
}
