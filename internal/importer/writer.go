package importer

import (
	"context"
	"log/slog"

	"github.com/hivereads/hive-server/internal/domain"
)

// ShelfWriter is the slice of the store the write pipeline needs.
type ShelfWriter interface {
	WriteRecords(ctx context.Context, userID string, records []*domain.ReadingRecord) error
	WriteRecord(ctx context.Context, userID string, record *domain.ReadingRecord) error
}

// Writer persists matched batches. Batches write sequentially; a failed
// batch write falls back to per-record retries so one poisoned record
// costs only itself.
type Writer struct {
	shelf   ShelfWriter
	session *Session
	emitter *Emitter
	logger  *slog.Logger
}

// NewWriter creates a writer for one import session.
func NewWriter(shelf ShelfWriter, session *Session, emitter *Emitter, logger *slog.Logger) *Writer {
	return &Writer{
		shelf:   shelf,
		session: session,
		emitter: emitter,
		logger:  logger,
	}
}

// WriteBatch persists the batch and emits exactly one book-upload event per
// row slot, pairing the book-load the row got during matching: the resolved
// candidate for durably-written rows, nil for rows without a durable record.
// When any record still fails after the per-record fallback, one
// import-error event follows. Never aborts the pipeline.
func (w *Writer) WriteBatch(ctx context.Context, matched []*Candidate) {
	// Rows for the same book collapse into one record per batch write.
	unique := make(map[string]*Candidate, len(matched))
	for _, c := range matched {
		if c != nil {
			unique[c.BookID] = c
		}
	}

	failed := w.persistBatch(ctx, unique)

	// Re-imported books that were already on the shelf never count as
	// uploads; neither do books that failed both write paths.
	for bookID, c := range unique {
		if !failed[bookID] && !c.AlreadyExists {
			w.session.IncrUploaded()
		}
	}

	for _, c := range matched {
		if c == nil || failed[c.BookID] {
			w.emitter.BookUpload(nil)
			continue
		}
		w.emitter.BookUpload(c)
	}
}

// persistBatch writes the deduplicated candidates, preferring one durable
// batch write and falling back to per-record writes when it fails. Returns
// the book ids still unwritten after the fallback.
func (w *Writer) persistBatch(ctx context.Context, unique map[string]*Candidate) map[string]bool {
	failed := make(map[string]bool)
	if len(unique) == 0 {
		return failed
	}

	records := make([]*domain.ReadingRecord, 0, len(unique))
	for _, c := range unique {
		records = append(records, c.Record())
	}

	err := w.shelf.WriteRecords(ctx, w.session.UserID, records)
	if err == nil {
		return failed
	}
	w.logger.Warn("batch write failed, retrying per record",
		slog.Int("batch_size", len(records)),
		slog.String("error", err.Error()))

	for bookID, c := range unique {
		if err := w.shelf.WriteRecord(ctx, w.session.UserID, c.Record()); err != nil {
			failed[bookID] = true
			w.session.RecordFailure(failureFromCandidate(c, ReasonUpdate))
			w.logger.Error("record write failed",
				slog.String("book_id", bookID),
				slog.String("error", err.Error()))
		}
	}

	if len(failed) > 0 {
		w.emitter.ImportError(len(unique), len(failed))
	}
	return failed
}
