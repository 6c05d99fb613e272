package importer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/hivereads/hive-server/internal/domain"
	"github.com/hivereads/hive-server/internal/store"
)

// Catalog is the slice of the store the matcher needs. UpdateIdentifiers
// performs the monotonic merge atomically and returns the bag as stored.
type Catalog interface {
	LookupBook(ctx context.Context, title, author string) (*domain.CatalogBook, error)
	UpdateIdentifiers(ctx context.Context, bookID string, ids domain.Identifiers) (domain.Identifiers, error)
}

// Warmer is the fire-and-forget search cache refresh hook.
type Warmer interface {
	Warm(ctx context.Context, title string)
}

// Matcher resolves rows against the catalog. Rows within a batch are
// matched concurrently; each row carries its own error boundary so one bad
// row never takes down its batch.
type Matcher struct {
	catalog Catalog
	warmer  Warmer
	session *Session
	emitter *Emitter
	logger  *slog.Logger
}

// NewMatcher creates a matcher for one import session.
func NewMatcher(catalog Catalog, warmer Warmer, session *Session, emitter *Emitter, logger *slog.Logger) *Matcher {
	return &Matcher{
		catalog: catalog,
		warmer:  warmer,
		session: session,
		emitter: emitter,
		logger:  logger,
	}
}

// MatchBatch matches every row in the batch concurrently and returns one
// slot per row, in row order: the resolved candidate, or nil for unmatched
// and failed rows (their classified failure is already on the session).
// Per-row slots let the writer pair every book-load with a book-upload.
func (m *Matcher) MatchBatch(ctx context.Context, rows []Row) []*Candidate {
	results := make([]*Candidate, len(rows))

	var wg sync.WaitGroup
	for i, row := range rows {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					m.session.RecordFailure(failureFromRow(row, ReasonProcessing))
					m.logger.Error("row matching panicked",
						slog.String("title", row.Title()),
						slog.Any("panic", r))
				}
			}()
			results[i] = m.matchRow(ctx, row)
		}()
	}
	wg.Wait()

	return results
}

// matchRow resolves one row. Returns nil when the row produced no candidate;
// the classified failure is already on the session.
func (m *Matcher) matchRow(ctx context.Context, row Row) *Candidate {
	m.emitter.BookLoad(row.Title())

	// Best-effort cache warm for later lookups. Detached from the request
	// context so an early client disconnect doesn't cancel it mid-query.
	go m.warmer.Warm(context.WithoutCancel(ctx), row.Title())

	author := row.Authors()[0]
	book, err := m.catalog.LookupBook(ctx, row.Title(), author)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			m.session.RecordFailure(failureFromRow(row, ReasonNoMatch))
			return nil
		}
		m.session.RecordFailure(failureFromRow(row, ReasonProcessing))
		m.logger.Error("catalog lookup failed",
			slog.String("title", row.Title()),
			slog.String("error", err.Error()))
		return nil
	}

	// Monotonic identifier merge: fill absent slots from the row, never
	// overwrite a present value. The store merges inside one transaction so
	// two rows for the same book never lose each other's identifiers.
	merged, err := m.catalog.UpdateIdentifiers(ctx, book.ID, row.Identifiers())
	if err != nil {
		m.session.RecordFailure(failureFromRow(row, ReasonProcessing))
		m.logger.Error("identifier write-through failed",
			slog.String("book_id", book.ID),
			slog.String("error", err.Error()))
		return nil
	}

	shelf, err := m.session.Shelf()
	if err != nil {
		m.session.RecordFailure(failureFromRow(row, ReasonProcessing))
		m.logger.Error("shelf snapshot load failed", slog.String("error", err.Error()))
		return nil
	}
	_, alreadyExists := shelf[book.ID]

	m.session.IncrMatched()

	return &Candidate{
		BookID:        book.ID,
		Title:         book.Title,
		Authors:       book.Authors,
		CoverURL:      book.CoverURL,
		Identifiers:   merged,
		Status:        row.Status(),
		Stars:         row.Stars(),
		Review:        row.Review(),
		StartedAt:     row.StartedAt(),
		FinishedAt:    row.FinishedAt(),
		AlreadyExists: alreadyExists,
	}
}
