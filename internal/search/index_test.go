package search

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivereads/hive-server/internal/domain"
)

func setupTestIndex(t *testing.T) *SearchIndex {
	t.Helper()

	index, err := NewSearchIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func testBook(id, title string, authors ...string) *domain.CatalogBook {
	now := time.Now()
	return &domain.CatalogBook{
		ID:        id,
		Title:     title,
		Authors:   authors,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSearchIndex_IndexAndSearch(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexBook(ctx, testBook("book-1", "Old Man's War", "John Scalzi")))
	require.NoError(t, index.IndexBook(ctx, testBook("book-2", "The Ghost Brigades", "John Scalzi")))
	require.NoError(t, index.IndexBook(ctx, testBook("book-3", "Europe in Autumn", "Dave Hutchinson")))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	result, err := index.Search(ctx, SearchParams{Query: "ghost brigades", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "book-2", result.Hits[0].ID)
	assert.Equal(t, "The Ghost Brigades", result.Hits[0].Title)
}

func TestSearchIndex_SearchByAuthor(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexBook(ctx, testBook("book-1", "Old Man's War", "John Scalzi")))
	require.NoError(t, index.IndexBook(ctx, testBook("book-2", "Europe in Autumn", "Dave Hutchinson")))

	result, err := index.Search(ctx, SearchParams{Query: "hutchinson", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "book-2", result.Hits[0].ID)
}

func TestSearchIndex_TitleOutranksAuthor(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	// "autumn" appears in one title and nowhere else.
	require.NoError(t, index.IndexBook(ctx, testBook("book-title", "Europe in Autumn", "Dave Hutchinson")))
	require.NoError(t, index.IndexBook(ctx, testBook("book-author", "Some Novel", "Autumn Harper")))

	result, err := index.Search(ctx, SearchParams{Query: "autumn", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "book-title", result.Hits[0].ID, "title match boosted above author match")
}

func TestSearchIndex_DeleteDocument(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexBook(ctx, testBook("book-1", "Dune", "Frank Herbert")))
	require.NoError(t, index.DeleteDocument("book-1"))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSearchIndex_WarmNeverFails(t *testing.T) {
	index := setupTestIndex(t)

	// Warm is best-effort; it must not panic on an empty index or an
	// empty title.
	index.Warm(context.Background(), "")
	index.Warm(context.Background(), "anything at all")
}

func TestSearchIndex_IndexDocumentsBatch(t *testing.T) {
	index := setupTestIndex(t)

	docs := make([]*SearchDocument, 0, 1200) // spans multiple internal chunks
	for i := range 1200 {
		docs = append(docs, &SearchDocument{
			ID:    "book-" + strconv.Itoa(i),
			Title: "Book " + strconv.Itoa(i),
		})
	}
	require.NoError(t, index.IndexDocuments(docs))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1200), count)
}
