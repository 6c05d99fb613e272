// Package normalize produces canonical matching keys for book titles and authors.
//
// Catalog lookups and failure deduplication both key on the same normalized
// (title, author) pair, so every caller must go through this package rather
// than lowercasing ad hoc.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks so "Émile" and "Emile" normalize
// to the same key. Built once; transform.Chain values are stateless.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Title returns the canonical form of a book title: diacritics stripped,
// lowercased, punctuation removed, whitespace collapsed.
func Title(raw string) string {
	return fold(raw)
}

// Author returns the canonical form of an author name.
// "Scalzi, John" and "John Scalzi" intentionally normalize differently;
// export formats are consistent about name order within themselves.
func Author(raw string) string {
	return fold(raw)
}

// Key builds the catalog lookup / dedup key for a (title, author) pair.
func Key(title, author string) string {
	return Title(title) + "::" + Author(author)
}

// fold normalizes a string for matching.
func fold(raw string) string {
	s := stripNulls(raw)
	if folded, _, err := transform.String(foldTransformer, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true // trims leading whitespace
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		default:
			// Punctuation separates words so "don't" != "dont" collisions
			// stay predictable: it is dropped without inserting a space.
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// stripNulls removes null bytes, which some exporters leave in quoted cells
// and which break both Badger keys and JSON encoding.
func stripNulls(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
