package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivereads/hive-server/internal/domain"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "store-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := New(dbPath, nil)
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return s, cleanup
}

func TestCreateBook(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	book := &domain.CatalogBook{
		ID:      "book-1",
		Title:   "Old Man's War",
		Authors: []string{"John Scalzi"},
	}

	err := s.CreateBook(ctx, book)
	require.NoError(t, err)
	assert.False(t, book.CreatedAt.IsZero(), "created_at should be stamped")

	fetched, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, "Old Man's War", fetched.Title)
	assert.Equal(t, []string{"John Scalzi"}, fetched.Authors)
}

func TestCreateBook_Duplicate(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	book := &domain.CatalogBook{ID: "book-1", Title: "Dune", Authors: []string{"Frank Herbert"}}
	require.NoError(t, s.CreateBook(ctx, book))

	err := s.CreateBook(ctx, &domain.CatalogBook{ID: "book-1", Title: "Dune", Authors: []string{"Frank Herbert"}})
	assert.ErrorIs(t, err, ErrBookExists)
}

func TestGetBook_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.GetBook(context.Background(), "book-missing")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestLookupBook_NormalizedKey(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	book := &domain.CatalogBook{
		ID:      "book-1",
		Title:   "The Left Hand of Darkness",
		Authors: []string{"Ursula K. Le Guin"},
	}
	require.NoError(t, s.CreateBook(ctx, book))

	// Case, punctuation, and spacing differences still match.
	found, err := s.LookupBook(ctx, "  the LEFT hand of darkness ", "ursula k le guin")
	require.NoError(t, err)
	assert.Equal(t, "book-1", found.ID)

	_, err = s.LookupBook(ctx, "The Left Hand of Darkness", "Someone Else")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestLookupBook_AnyAuthor(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	book := &domain.CatalogBook{
		ID:      "book-1",
		Title:   "Good Omens",
		Authors: []string{"Terry Pratchett", "Neil Gaiman"},
	}
	require.NoError(t, s.CreateBook(ctx, book))

	// Each author gets an index entry.
	found, err := s.LookupBook(ctx, "Good Omens", "Neil Gaiman")
	require.NoError(t, err)
	assert.Equal(t, "book-1", found.ID)

	found, err = s.LookupBook(ctx, "Good Omens", "Terry Pratchett")
	require.NoError(t, err)
	assert.Equal(t, "book-1", found.ID)
}

func TestUpdateIdentifiers(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	book := &domain.CatalogBook{
		ID:          "book-1",
		Title:       "Hyperion",
		Authors:     []string{"Dan Simmons"},
		Identifiers: domain.Identifiers{BookID: "book-1", ISBN13: "9780553283686"},
	}
	require.NoError(t, s.CreateBook(ctx, book))

	merged, err := s.UpdateIdentifiers(ctx, "book-1", domain.Identifiers{
		GoodreadsID: "77566",
		ISBN13:      "should-not-overwrite",
	})
	require.NoError(t, err)
	assert.Equal(t, "77566", merged.GoodreadsID)
	assert.Equal(t, "9780553283686", merged.ISBN13)

	fetched, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, "77566", fetched.Identifiers.GoodreadsID, "absent slot filled")
	assert.Equal(t, "9780553283686", fetched.Identifiers.ISBN13, "present value never overwritten")
}

func TestUpdateIdentifiers_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.UpdateIdentifiers(context.Background(), "book-missing", domain.Identifiers{ISBN10: "0765348276"})
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestUpdateIdentifiers_ConcurrentMergesKeepBoth(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, s.CreateBook(ctx, &domain.CatalogBook{
		ID:      "book-1",
		Title:   "Old Man's War",
		Authors: []string{"John Scalzi"},
	}))

	// Two writers carrying one identifier each, racing on the same book.
	// The merge runs inside a single transaction, so neither write may be
	// lost to the other.
	incoming := []domain.Identifiers{
		{ISBN10: "0765348276"},
		{ISBN13: "9780765348272"},
	}
	var wg sync.WaitGroup
	errs := make([]error, len(incoming))
	for i, ids := range incoming {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.UpdateIdentifiers(ctx, "book-1", ids)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	fetched, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, "0765348276", fetched.Identifiers.ISBN10)
	assert.Equal(t, "9780765348272", fetched.Identifiers.ISBN13)
	assert.Equal(t, "book-1", fetched.Identifiers.BookID)
}

func TestListAllBooks(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	for _, b := range []*domain.CatalogBook{
		{ID: "book-1", Title: "A", Authors: []string{"X"}},
		{ID: "book-2", Title: "B", Authors: []string{"Y"}},
	} {
		require.NoError(t, s.CreateBook(ctx, b))
	}

	books, err := s.ListAllBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 2)
}
