package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hivereads/hive-server/internal/domain"
	"github.com/hivereads/hive-server/internal/normalize"
)

const (
	bookPrefix      = "book:"
	bookByKeyPrefix = "idx:book:title_author:"
)

var (
	ErrBookNotFound = errors.New("book not found")
	ErrBookExists   = errors.New("book already exists")
)

// Catalog operations.

// CreateBook creates a new catalog book together with its (title, author) index
// entries, one per author.
func (s *Store) CreateBook(ctx context.Context, book *domain.CatalogBook) error {
	key := []byte(bookPrefix + book.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check book exists: %w", err)
	}
	if exists {
		return ErrBookExists
	}

	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = now

	err = s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(book)
		if err != nil {
			return fmt.Errorf("marshal book: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}

		for _, author := range book.Authors {
			idxKey := []byte(bookByKeyPrefix + normalize.Key(book.Title, author))
			if err := txn.Set(idxKey, []byte(book.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}

	s.indexAsync(book)

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "catalog book created",
			slog.String("id", book.ID),
			slog.String("title", book.Title),
			slog.String("authors", strings.Join(book.Authors, ", ")),
		)
	}
	return nil
}

// GetBook retrieves a catalog book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.CatalogBook, error) {
	var book domain.CatalogBook
	err := s.get([]byte(bookPrefix+id), &book)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &book, nil
}

// LookupBook finds a catalog book by exact normalized (title, author).
// Returns ErrBookNotFound when no entry matches.
func (s *Store) LookupBook(ctx context.Context, title, author string) (*domain.CatalogBook, error) {
	idxKey := []byte(bookByKeyPrefix + normalize.Key(title, author))

	var bookID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(idxKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			bookID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("lookup book: %w", err)
	}
	return s.GetBook(ctx, bookID)
}

// UpdateIdentifiers merges the incoming identifier bag into a catalog book.
// This is the write-through path used when an import discovers new external
// ids. The get-merge-set runs inside one transaction so concurrent rows for
// the same book never lose each other's identifiers; the merge is monotonic,
// a present value is never overwritten. Returns the bag as stored.
func (s *Store) UpdateIdentifiers(ctx context.Context, bookID string, ids domain.Identifiers) (domain.Identifiers, error) {
	key := []byte(bookPrefix + bookID)

	var merged domain.Identifiers
	var updated *domain.CatalogBook

	for {
		updated = nil
		err := s.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(key)
			if err != nil {
				return err
			}
			var book domain.CatalogBook
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &book)
			}); err != nil {
				return fmt.Errorf("unmarshal book: %w", err)
			}

			merged = book.Identifiers.Merge(ids)
			merged.BookID = book.ID
			if merged == book.Identifiers {
				return nil
			}

			book.Identifiers = merged
			book.Touch()
			data, err := json.Marshal(&book)
			if err != nil {
				return fmt.Errorf("marshal book: %w", err)
			}
			if err := txn.Set(key, data); err != nil {
				return err
			}
			updated = &book
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			// Another writer touched the book between read and commit;
			// re-run the merge against the committed bag.
			continue
		}
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.Identifiers{}, ErrBookNotFound
		}
		if err != nil {
			return domain.Identifiers{}, fmt.Errorf("update identifiers: %w", err)
		}
		break
	}

	if updated != nil {
		s.indexAsync(updated)
		if s.logger != nil {
			s.logger.Debug("identifiers updated", "book_id", bookID)
		}
	}
	return merged, nil
}

// ListAllBooks returns every catalog book. Used for search reindexing;
// list endpoints should paginate instead.
func (s *Store) ListAllBooks(ctx context.Context) ([]*domain.CatalogBook, error) {
	var books []*domain.CatalogBook

	prefix := []byte(bookPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var book domain.CatalogBook
				if err := json.Unmarshal(val, &book); err != nil {
					return err
				}
				books = append(books, &book)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list all books: %w", err)
	}

	return books, nil
}
