package importer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivereads/hive-server/internal/domain"
	"github.com/hivereads/hive-server/internal/importer"
)

func collectRows(t *testing.T, format importer.Format, csv string) []importer.Row {
	t.Helper()
	var rows []importer.Row
	for row, err := range importer.Rows(format, strings.NewReader(csv)) {
		require.NoError(t, err)
		rows = append(rows, row)
	}
	return rows
}

func TestGoodreadsRows(t *testing.T) {
	csv := `Book Id,Title,Author,Additional Authors,ISBN,ISBN13,My Rating,Exclusive Shelf,My Review,Date Read
51964,Old Man's War,John Scalzi,,"=""0765348276""","=""9780765348272""",5,read,Loved it,2023/06/15
2677341,Europe in Autumn,Dave Hutchinson,,"=""""","=""""",0,to-read,,
`
	rows := collectRows(t, importer.FormatGoodreads, csv)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "Old Man's War", first.Title())
	assert.Equal(t, []string{"John Scalzi"}, first.Authors())
	assert.Equal(t, domain.StatusFinished, first.Status())
	assert.Equal(t, 10, first.Stars(), "5 of 5 maps to 10 of 10")
	assert.Equal(t, "Loved it", first.Review())
	assert.Equal(t, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), first.FinishedAt())

	ids := first.Identifiers()
	assert.Equal(t, "51964", ids.GoodreadsID)
	assert.Equal(t, "0765348276", ids.ISBN10, "excel armor stripped")
	assert.Equal(t, "9780765348272", ids.ISBN13)

	second := rows[1]
	assert.Equal(t, domain.StatusWantToRead, second.Status())
	assert.Zero(t, second.Stars(), "unrated stays zero")
	assert.Empty(t, second.Identifiers().ISBN10, "armored empty cell is empty")
	assert.True(t, second.FinishedAt().IsZero())
}

func TestGoodreadsRows_StatusMapping(t *testing.T) {
	tests := []struct {
		shelf string
		want  domain.ReadingStatus
	}{
		{shelf: "read", want: domain.StatusFinished},
		{shelf: "currently-reading", want: domain.StatusReading},
		{shelf: "to-read", want: domain.StatusWantToRead},
		{shelf: "dnf", want: domain.StatusAbandoned},
		{shelf: "abandoned", want: domain.StatusAbandoned},
		{shelf: "favorites", want: domain.StatusWantToRead}, // custom shelf
		{shelf: "", want: domain.StatusWantToRead},
	}

	for _, tt := range tests {
		t.Run("shelf "+tt.shelf, func(t *testing.T) {
			csv := "Title,Author,Exclusive Shelf\nSome Book,Someone," + tt.shelf + "\n"
			rows := collectRows(t, importer.FormatGoodreads, csv)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.want, rows[0].Status())
		})
	}
}

func TestGoodreadsRows_SkipsRowsMissingMandatoryFields(t *testing.T) {
	csv := `Title,Author,My Rating
,John Scalzi,3
Old Man's War,,4
Old Man's War,John Scalzi,4
`
	rows := collectRows(t, importer.FormatGoodreads, csv)
	require.Len(t, rows, 1, "rows without title or author are skipped, not failed")
	assert.Equal(t, "Old Man's War", rows[0].Title())
}

func TestGoodreadsRows_LenientCasts(t *testing.T) {
	csv := `Title,Author,My Rating,Date Read
Dune,Frank Herbert,not-a-number,99/99/9999
`
	rows := collectRows(t, importer.FormatGoodreads, csv)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].Stars(), "unparseable rating defaults to 0")
	assert.True(t, rows[0].FinishedAt().IsZero(), "unrecognized date becomes zero time")
}

func TestGoodreadsRows_AdditionalAuthors(t *testing.T) {
	csv := `Title,Author,Additional Authors
Good Omens,Terry Pratchett,"Neil Gaiman, Someone Else"
`
	rows := collectRows(t, importer.FormatGoodreads, csv)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Terry Pratchett", "Neil Gaiman", "Someone Else"}, rows[0].Authors())
}

func TestStorygraphRows(t *testing.T) {
	csv := `Title,Authors,ISBN/UID,Read Status,Star Rating,Review,Last Date Read,Dates Read
The Dispossessed,Ursula K. Le Guin,9780061054884,read,4.5,Brilliant,2024/01/20,2024/01/02-2024/01/20
Piranesi,Susanna Clarke,0747579881,currently-reading,,,,
`
	rows := collectRows(t, importer.FormatStorygraph, csv)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "The Dispossessed", first.Title())
	assert.Equal(t, domain.StatusFinished, first.Status())
	assert.Equal(t, 9, first.Stars(), "4.5 of 5 maps to 9 of 10")
	assert.Equal(t, "9780061054884", first.Identifiers().ISBN13)
	assert.Empty(t, first.Identifiers().ISBN10)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), first.StartedAt())
	assert.Equal(t, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), first.FinishedAt())

	second := rows[1]
	assert.Equal(t, domain.StatusReading, second.Status())
	assert.Equal(t, "0747579881", second.Identifiers().ISBN10, "10-char id lands in the isbn10 slot")
	assert.Zero(t, second.Stars())
}

func TestStorygraphRows_UIDClassification(t *testing.T) {
	csv := `Title,Authors,ISBN/UID,Read Status
Weird Book,Somebody,sg-abc123,did-not-finish
`
	rows := collectRows(t, importer.FormatStorygraph, csv)
	require.Len(t, rows, 1)

	ids := rows[0].Identifiers()
	assert.Equal(t, "sg-abc123", ids.StorygraphID)
	assert.Empty(t, ids.ISBN10)
	assert.Empty(t, ids.ISBN13)
	assert.Equal(t, domain.StatusAbandoned, rows[0].Status())
}

func TestRows_UnsupportedFormat(t *testing.T) {
	var firstErr error
	for _, err := range importer.Rows("librarything", strings.NewReader("Title\n")) {
		firstErr = err
		break
	}
	assert.Error(t, firstErr)
}

func TestRows_EmptyPayload(t *testing.T) {
	rows := collectRows(t, importer.FormatGoodreads, "")
	assert.Empty(t, rows)
}
