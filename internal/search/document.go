// Package search provides full-text catalog search using Bleve.
// The import pipeline uses it for best-effort cache warming; the API
// exposes it for interactive catalog queries.
package search

import (
	"strings"

	"github.com/hivereads/hive-server/internal/domain"
)

// SearchDocument is the document structure for the Bleve catalog index.
type SearchDocument struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Authors string `json:"authors"` // Denormalized, comma-joined for search
	ISBN10  string `json:"isbn10,omitempty"`
	ISBN13  string `json:"isbn13,omitempty"`

	// Timestamps for sorting. Unix millis.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"title":      d.Title,
		"authors":    d.Authors,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}
	if d.ISBN10 != "" {
		m["isbn10"] = d.ISBN10
	}
	if d.ISBN13 != "" {
		m["isbn13"] = d.ISBN13
	}
	return m
}

// BookToSearchDocument converts a catalog book to a SearchDocument.
func BookToSearchDocument(book *domain.CatalogBook) *SearchDocument {
	return &SearchDocument{
		ID:        book.ID,
		Title:     book.Title,
		Authors:   strings.Join(book.Authors, ", "),
		ISBN10:    book.Identifiers.ISBN10,
		ISBN13:    book.Identifiers.ISBN13,
		CreatedAt: book.CreatedAt.UnixMilli(),
		UpdatedAt: book.UpdatedAt.UnixMilli(),
	}
}
