package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"iter"
	"time"

	"github.com/hivereads/hive-server/internal/domain"
)

// Goodreads library export. One row per book; the Exclusive Shelf column is
// the status field, ratings are whole stars out of 5, and ISBN cells arrive
// Excel-armored as ="0553283685".

const goodreadsDateLayout = "2006/01/02"

// GoodreadsRow is one parsed Goodreads export entry.
type GoodreadsRow struct {
	title       string
	authors     []string
	goodreadsID string
	isbn10      string
	isbn13      string
	shelf       string
	rating      int
	review      string
	dateRead    time.Time
}

func (r *GoodreadsRow) Title() string     { return r.title }
func (r *GoodreadsRow) Authors() []string { return r.authors }

func (r *GoodreadsRow) Identifiers() domain.Identifiers {
	return domain.Identifiers{
		GoodreadsID: r.goodreadsID,
		ISBN10:      r.isbn10,
		ISBN13:      r.isbn13,
	}
}

// Status maps the Exclusive Shelf vocabulary. Custom shelves fall back to
// want-to-read rather than being dropped.
func (r *GoodreadsRow) Status() domain.ReadingStatus {
	switch r.shelf {
	case "read":
		return domain.StatusFinished
	case "currently-reading":
		return domain.StatusReading
	case "to-read":
		return domain.StatusWantToRead
	case "dnf", "abandoned":
		return domain.StatusAbandoned
	default:
		return domain.StatusWantToRead
	}
}

func (r *GoodreadsRow) Stars() int            { return starsFromFive(float64(r.rating)) }
func (r *GoodreadsRow) Review() string        { return r.review }
func (r *GoodreadsRow) StartedAt() time.Time  { return time.Time{} } // not exported by Goodreads
func (r *GoodreadsRow) FinishedAt() time.Time { return r.dateRead }

// goodreadsRows parses a Goodreads CSV export into a lazy row sequence.
// Malformed rows are skipped; a non-nil error means the payload itself
// could not be read and the sequence ends.
func goodreadsRows(r io.Reader) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true

		header, err := cr.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				yield(nil, err)
			}
			return
		}
		cols := columnIndex(header)

		for {
			record, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var parseErr *csv.ParseError
				if errors.As(err, &parseErr) {
					continue // skip the bad row, keep the import alive
				}
				yield(nil, err)
				return
			}

			row, ok := goodreadsRowFrom(record, cols)
			if !ok {
				continue
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// goodreadsRowFrom casts one record. Rows missing a title or author are
// dropped here rather than failing downstream.
func goodreadsRowFrom(record []string, cols map[string]int) (*GoodreadsRow, bool) {
	title := field(record, cols, "title")
	authors := splitAuthors(
		field(record, cols, "author"),
		field(record, cols, "additional authors"),
	)
	if title == "" || len(authors) == 0 {
		return nil, false
	}

	return &GoodreadsRow{
		title:       title,
		authors:     authors,
		goodreadsID: field(record, cols, "book id"),
		isbn10:      stripISBNArmor(field(record, cols, "isbn")),
		isbn13:      stripISBNArmor(field(record, cols, "isbn13")),
		shelf:       field(record, cols, "exclusive shelf"),
		rating:      castInt(field(record, cols, "my rating")),
		review:      field(record, cols, "my review"),
		dateRead:    castDate(field(record, cols, "date read"), goodreadsDateLayout),
	}, true
}

// stripISBNArmor removes the ="..." wrapper Goodreads uses to stop
// spreadsheets eating leading zeros. An armored empty cell becomes "".
func stripISBNArmor(s string) string {
	if len(s) >= 3 && s[0] == '=' && s[1] == '"' && s[len(s)-1] == '"' {
		return s[2 : len(s)-1]
	}
	if s == `=""` || s == `""` {
		return ""
	}
	return s
}
