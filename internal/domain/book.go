// Package domain contains the core Hive data model shared across packages.
package domain

import "time"

// Identifiers is the external identifier bag attached to a catalog book.
// Merging is monotonic: a present value is never overwritten by an empty one.
type Identifiers struct {
	BookID       string `json:"bookId,omitempty"`
	GoodreadsID  string `json:"goodreadsId,omitempty"`
	StorygraphID string `json:"storygraphId,omitempty"`
	ISBN10       string `json:"isbn10,omitempty"`
	ISBN13       string `json:"isbn13,omitempty"`
}

// Merge returns the bag with any absent slot filled from other.
// Present values always win over incoming ones.
func (i Identifiers) Merge(other Identifiers) Identifiers {
	merged := i
	if merged.BookID == "" {
		merged.BookID = other.BookID
	}
	if merged.GoodreadsID == "" {
		merged.GoodreadsID = other.GoodreadsID
	}
	if merged.StorygraphID == "" {
		merged.StorygraphID = other.StorygraphID
	}
	if merged.ISBN10 == "" {
		merged.ISBN10 = other.ISBN10
	}
	if merged.ISBN13 == "" {
		merged.ISBN13 = other.ISBN13
	}
	return merged
}

// CatalogBook is a canonical, deduplicated book record in the Hive catalog.
// User library rows are matched against it by normalized (title, author).
type CatalogBook struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Authors     []string    `json:"authors"`
	CoverURL    string      `json:"cover_url,omitempty"`
	Identifiers Identifiers `json:"identifiers"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (b *CatalogBook) Touch() {
	b.UpdatedAt = time.Now()
}
