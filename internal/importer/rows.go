// Package importer implements the streaming import-reconciliation pipeline:
// format-specific row parsing, fixed-size batching, catalog matching with
// identifier merge, batched shelf writes with per-record fallback, and an
// ordered progress event protocol.
package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/hivereads/hive-server/internal/domain"
)

// Format identifies a supported export format.
type Format string

const (
	FormatGoodreads  Format = "goodreads"
	FormatStorygraph Format = "storygraph"
)

// ValidFormat reports whether f names a supported export format.
func ValidFormat(f Format) bool {
	return f == FormatGoodreads || f == FormatStorygraph
}

// Row is one parsed export entry, already cast into common units.
// Implementations are immutable once parsed.
type Row interface {
	Title() string
	Authors() []string
	Identifiers() domain.Identifiers
	Status() domain.ReadingStatus
	Stars() int // 1-10, 0 unrated
	Review() string
	StartedAt() time.Time
	FinishedAt() time.Time
}

// Candidate is the resolved shelf update for one matched row, keyed by
// catalog book id. Produced one-to-one from matched rows only.
type Candidate struct {
	BookID        string               `json:"book_id"`
	Title         string               `json:"title"`
	Authors       []string             `json:"authors"`
	CoverURL      string               `json:"cover_url,omitempty"`
	Identifiers   domain.Identifiers   `json:"identifiers"`
	Status        domain.ReadingStatus `json:"status"`
	Stars         int                  `json:"stars,omitempty"`
	Review        string               `json:"review,omitempty"`
	StartedAt     time.Time            `json:"started_at,omitzero"`
	FinishedAt    time.Time            `json:"finished_at,omitzero"`
	AlreadyExists bool                 `json:"already_exists"`
}

// Record converts the candidate into the durable shelf record shape.
func (c *Candidate) Record() *domain.ReadingRecord {
	return &domain.ReadingRecord{
		BookID:     c.BookID,
		Title:      c.Title,
		Authors:    c.Authors,
		CoverURL:   c.CoverURL,
		Status:     c.Status,
		Stars:      c.Stars,
		Review:     c.Review,
		StartedAt:  c.StartedAt,
		FinishedAt: c.FinishedAt,
	}
}

// FailureReason classifies why a row produced no durable record.
type FailureReason string

const (
	// ReasonNoMatch means the row has no catalog entry. Expected and common;
	// not logged as an error.
	ReasonNoMatch FailureReason = "no_match"
	// ReasonProcessing means matching the row failed unexpectedly.
	ReasonProcessing FailureReason = "processing_error"
	// ReasonUpdate means the row matched but persistence failed even after
	// the per-record fallback.
	ReasonUpdate FailureReason = "update_error"
)

// FailureRecord carries enough per-book detail for the client to offer a
// retry or manual-entry flow.
type FailureRecord struct {
	Title       string               `json:"title"`
	Authors     []string             `json:"authors"`
	Identifiers domain.Identifiers   `json:"identifiers"`
	Status      domain.ReadingStatus `json:"status"`
	Stars       int                  `json:"stars,omitempty"`
	Review      string               `json:"review,omitempty"`
	StartedAt   time.Time            `json:"started_at,omitzero"`
	FinishedAt  time.Time            `json:"finished_at,omitzero"`
	Reason      FailureReason        `json:"reason"`
}

func failureFromRow(row Row, reason FailureReason) FailureRecord {
	return FailureRecord{
		Title:       row.Title(),
		Authors:     row.Authors(),
		Identifiers: row.Identifiers(),
		Status:      row.Status(),
		Stars:       row.Stars(),
		Review:      row.Review(),
		StartedAt:   row.StartedAt(),
		FinishedAt:  row.FinishedAt(),
		Reason:      reason,
	}
}

func failureFromCandidate(c *Candidate, reason FailureReason) FailureRecord {
	return FailureRecord{
		Title:       c.Title,
		Authors:     c.Authors,
		Identifiers: c.Identifiers,
		Status:      c.Status,
		Stars:       c.Stars,
		Review:      c.Review,
		StartedAt:   c.StartedAt,
		FinishedAt:  c.FinishedAt,
		Reason:      reason,
	}
}

// Shared cast helpers. Empty or unparseable cells fall back to zero values;
// leniency here keeps one bad cell from costing a whole import.

// columnIndex maps lowercased header names to their positions.
func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

// field returns the named cell, or "" when the column is absent or the
// record is short.
func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func castInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func castFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// castDate tries each layout in order; unrecognized dates become zero time.
func castDate(s string, layouts ...string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// splitAuthors splits a comma-separated author cell, dropping empties.
func splitAuthors(cells ...string) []string {
	var authors []string
	for _, cell := range cells {
		for part := range strings.SplitSeq(cell, ",") {
			if name := strings.TrimSpace(part); name != "" {
				authors = append(authors, name)
			}
		}
	}
	return authors
}

// starsFromFive converts a source rating on the 0-5 scale to the internal
// 1-10 scale. Zero stays zero (unrated).
func starsFromFive(rating float64) int {
	if rating <= 0 {
		return 0
	}
	stars := int(rating*2 + 0.5)
	if stars > 10 {
		stars = 10
	}
	return stars
}
