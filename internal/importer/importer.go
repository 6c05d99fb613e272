package importer

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/hivereads/hive-server/internal/sse"
)

// Store is the persistence surface the pipeline needs.
type Store interface {
	Catalog
	ShelfWriter
	RecordIDs(ctx context.Context, userID string) (map[string]struct{}, error)
}

// Service runs import sessions. One logical pipeline per request; no
// cross-request shared mutable state.
type Service struct {
	store     Store
	warmer    Warmer
	manager   *sse.Manager
	logger    *slog.Logger
	batchSize int
}

// NewService creates the import service.
func NewService(store Store, warmer Warmer, manager *sse.Manager, batchSize int, logger *slog.Logger) *Service {
	if batchSize < 1 {
		batchSize = 10
	}
	return &Service{
		store:     store,
		warmer:    warmer,
		manager:   manager,
		logger:    logger,
		batchSize: batchSize,
	}
}

// Rows dispatches to the adapter for the named format. The returned
// sequence is lazy and restartable per call, not resumable mid-stream.
func Rows(format Format, r io.Reader) iter.Seq2[Row, error] {
	switch format {
	case FormatGoodreads:
		return goodreadsRows(r)
	case FormatStorygraph:
		return storygraphRows(r)
	default:
		return func(yield func(Row, error) bool) {
			yield(nil, fmt.Errorf("unsupported import format %q", format))
		}
	}
}

// Run executes one import: payload in, ordered progress events out on sink.
//
// The payload is read once and split two ways. The counting consumer drives
// the live totalBooks denominator; the processing consumer is the
// authoritative path through adapter, aggregator, matcher, and writer. Only
// a failure to read the payload itself is fatal; every row- and
// batch-granularity error is accumulated into the final summary instead.
func (s *Service) Run(ctx context.Context, userID string, format Format, payload io.Reader, sink Sink) error {
	session := NewSession(userID, format, func() (map[string]struct{}, error) {
		// Detached from the request context: a disconnecting client must
		// not fail rows already being matched.
		return s.store.RecordIDs(context.WithoutCancel(ctx), userID)
	})
	emitter := NewEmitter(sink, session, s.logger)
	matcher := NewMatcher(s.store, s.warmer, session, emitter, s.logger)
	writer := NewWriter(s.store, session, emitter, s.logger)

	emitter.ImportStart()
	if s.manager != nil {
		s.manager.EmitToUser(userID, sse.NewImportStartedEvent(string(format)))
	}

	countReader, processReader := Split(payload)

	countDone := make(chan struct{})
	go func() {
		defer close(countDone)
		s.countRows(format, countReader, session)
	}()

	// Kick off the shelf snapshot load, then announce the upload stage.
	// Matching awaits the snapshot lazily on first use.
	go func() { _, _ = session.Shelf() }()
	emitter.UploadStart()

	var fatal error
	rows := func(yield func(Row) bool) {
		for row, err := range Rows(format, processReader) {
			if err != nil {
				fatal = err
				return
			}
			if !yield(row) {
				return
			}
		}
	}

	// Matching and writing run detached from the request context: once a
	// row is in flight its record lands on the shelf even if the client
	// drops the connection mid-stream.
	workCtx := context.WithoutCancel(ctx)
	Aggregate(rows, s.batchSize, func(batch []Row) {
		candidates := matcher.MatchBatch(workCtx, batch)
		writer.WriteBatch(workCtx, candidates)
	})

	if fatal != nil {
		// Terminal stream error; the client never sees import-complete and
		// restarts the import from scratch.
		s.logger.Error("import payload unreadable",
			slog.String("user_id", userID),
			slog.String("format", string(format)),
			slog.String("error", fatal.Error()))
		return fmt.Errorf("read import payload: %w", fatal)
	}

	<-countDone
	emitter.ImportComplete()

	s.logger.Info("import complete",
		slog.String("user_id", userID),
		slog.String("format", string(format)),
		slog.Int("total", session.Total()),
		slog.Int("matched", session.Matched()),
		slog.Int("uploaded", session.Uploaded()),
		slog.Int("failed", len(session.Failures())))

	if s.manager != nil {
		s.manager.EmitToUser(userID,
			sse.NewImportCompletedEvent(string(format), session.Uploaded(), len(session.Failures())))
	}
	return nil
}

// countRows drains the counting copy of the payload, growing the live
// denominator one row at a time. Read errors here are already surfaced by
// the processing path, so they only log.
func (s *Service) countRows(format Format, r io.Reader, session *Session) {
	for _, err := range Rows(format, r) {
		if err != nil {
			s.logger.Debug("count stream ended early", slog.String("error", err.Error()))
			return
		}
		session.AddTotal(1)
	}
}
