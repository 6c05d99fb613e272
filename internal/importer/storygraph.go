package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/hivereads/hive-server/internal/domain"
)

// StoryGraph library export. Ratings are fractional stars out of 5, the
// Read Status column carries the status vocabulary, and a single ISBN/UID
// column holds whichever identifier StoryGraph has.

var storygraphDateLayouts = []string{"2006/01/02", "2006-01-02"}

// StorygraphRow is one parsed StoryGraph export entry.
type StorygraphRow struct {
	title      string
	authors    []string
	isbn10     string
	isbn13     string
	uid        string
	readStatus string
	rating     float64
	review     string
	started    time.Time
	lastRead   time.Time
}

func (r *StorygraphRow) Title() string     { return r.title }
func (r *StorygraphRow) Authors() []string { return r.authors }

func (r *StorygraphRow) Identifiers() domain.Identifiers {
	return domain.Identifiers{
		StorygraphID: r.uid,
		ISBN10:       r.isbn10,
		ISBN13:       r.isbn13,
	}
}

func (r *StorygraphRow) Status() domain.ReadingStatus {
	switch r.readStatus {
	case "read":
		return domain.StatusFinished
	case "currently-reading":
		return domain.StatusReading
	case "to-read":
		return domain.StatusWantToRead
	case "did-not-finish", "dnf":
		return domain.StatusAbandoned
	default:
		return domain.StatusWantToRead
	}
}

func (r *StorygraphRow) Stars() int            { return starsFromFive(r.rating) }
func (r *StorygraphRow) Review() string        { return r.review }
func (r *StorygraphRow) StartedAt() time.Time  { return r.started }
func (r *StorygraphRow) FinishedAt() time.Time { return r.lastRead }

// storygraphRows parses a StoryGraph CSV export into a lazy row sequence.
// Same leniency policy as the Goodreads adapter.
func storygraphRows(r io.Reader) iter.Seq2[Row, error] {
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
					continue
				}
				yield(nil, err)
				return
			}

			row, ok := storygraphRowFrom(record, cols)
			if !ok {
				continue
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

func storygraphRowFrom(record []string, cols map[string]int) (*StorygraphRow, bool) {
	title := field(record, cols, "title")
	authors := splitAuthors(field(record, cols, "authors"))
	if title == "" || len(authors) == 0 {
		return nil, false
	}

	row := &StorygraphRow{
		title:      title,
		authors:    authors,
		readStatus: field(record, cols, "read status"),
		rating:     castFloat(field(record, cols, "star rating")),
		review:     field(record, cols, "review"),
		lastRead:   castDate(field(record, cols, "last date read"), storygraphDateLayouts...),
	}
	row.isbn10, row.isbn13, row.uid = classifyStorygraphID(field(record, cols, "isbn/uid"))
	row.started = datesReadStart(field(record, cols, "dates read"))
	return row, true
}

// classifyStorygraphID sorts the single ISBN/UID cell into the right
// identifier slot by shape: 13 digits is an ISBN-13, 10 characters an
// ISBN-10, anything else a StoryGraph UID.
func classifyStorygraphID(id string) (isbn10, isbn13, uid string) {
	switch {
	case id == "":
		return "", "", ""
	case len(id) == 13 && isDigits(id):
		return "", id, ""
	case len(id) == 10:
		return id, "", ""
	default:
		return "", "", id
	}
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// datesReadStart pulls the first start date out of the Dates Read cell,
// which holds ranges like "2023/01/05-2023/02/11" separated by commas.
func datesReadStart(cell string) time.Time {
	if cell == "" {
		return time.Time{}
	}
	first, _, _ := strings.Cut(cell, ",")
	first = strings.TrimSpace(first)
	if strings.Contains(first, "/") {
		// Range separator is "-", which is unambiguous for slash dates.
		start, _, _ := strings.Cut(first, "-")
		return castDate(start, storygraphDateLayouts...)
	}
	return castDate(first, storygraphDateLayouts...)
}
