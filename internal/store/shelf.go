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
)

const shelfPrefix = "shelf:"

var ErrRecordNotFound = errors.New("reading record not found")

// shelfKey builds the key for one record: shelf:{userID}:{bookID}.
func shelfKey(userID, bookID string) []byte {
	return []byte(shelfPrefix + userID + ":" + bookID)
}

// Shelf operations.

// WriteRecords persists a batch of reading records in one Badger WriteBatch.
// Either the whole batch commits or the caller falls back to WriteRecord
// per entry; partial batch state is never left behind.
func (s *Store) WriteRecords(ctx context.Context, userID string, records []*domain.ReadingRecord) error {
	if len(records) == 0 {
		return nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	now := time.Now()
	for _, record := range records {
		record.UserID = userID
		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
		record.UpdatedAt = now

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if err := wb.Set(shelfKey(userID, record.BookID), data); err != nil {
			return fmt.Errorf("batch set record: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush record batch: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "shelf batch written",
			slog.String("user_id", userID),
			slog.Int("count", len(records)),
		)
	}
	return nil
}

// WriteRecord persists a single reading record. Used as the per-entry
// fallback when a batch write fails.
func (s *Store) WriteRecord(ctx context.Context, userID string, record *domain.ReadingRecord) error {
	record.UserID = userID
	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	if err := s.set(shelfKey(userID, record.BookID), record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// GetRecord retrieves one reading record from a user's shelf.
func (s *Store) GetRecord(ctx context.Context, userID, bookID string) (*domain.ReadingRecord, error) {
	var record domain.ReadingRecord
	err := s.get(shelfKey(userID, bookID), &record)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &record, nil
}

// RecordIDs returns the set of catalog book ids already on a user's shelf.
// Keys-only iteration; values are never fetched.
func (s *Store) RecordIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	prefix := []byte(shelfPrefix + userID + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			bookID := strings.TrimPrefix(key, string(prefix))
			ids[bookID] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record ids: %w", err)
	}

	return ids, nil
}

// ListRecords returns all reading records on a user's shelf.
func (s *Store) ListRecords(ctx context.Context, userID string) ([]*domain.ReadingRecord, error) {
	var records []*domain.ReadingRecord
	prefix := []byte(shelfPrefix + userID + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record domain.ReadingRecord
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				records = append(records, &record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	return records, nil
}
