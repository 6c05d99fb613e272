package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivereads/hive-server/internal/domain"
)

func TestWriteRecords_Batch(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	records := []*domain.ReadingRecord{
		{BookID: "book-1", Title: "A", Authors: []string{"X"}, Status: domain.StatusFinished, Stars: 8},
		{BookID: "book-2", Title: "B", Authors: []string{"Y"}, Status: domain.StatusReading},
		{BookID: "book-3", Title: "C", Authors: []string{"Z"}, Status: domain.StatusWantToRead},
	}

	err := s.WriteRecords(ctx, "user-1", records)
	require.NoError(t, err)

	got, err := s.GetRecord(ctx, "user-1", "book-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, domain.StatusFinished, got.Status)
	assert.Equal(t, 8, got.Stars)
	assert.False(t, got.CreatedAt.IsZero())

	// Records are per-user.
	_, err = s.GetRecord(ctx, "user-2", "book-1")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestWriteRecords_Empty(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	require.NoError(t, s.WriteRecords(context.Background(), "user-1", nil))
}

func TestWriteRecord_Single(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	record := &domain.ReadingRecord{BookID: "book-1", Title: "A", Authors: []string{"X"}, Status: domain.StatusAbandoned}
	require.NoError(t, s.WriteRecord(ctx, "user-1", record))

	got, err := s.GetRecord(ctx, "user-1", "book-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAbandoned, got.Status)
}

func TestWriteRecord_Overwrite(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	first := &domain.ReadingRecord{BookID: "book-1", Title: "A", Authors: []string{"X"}, Status: domain.StatusReading}
	require.NoError(t, s.WriteRecord(ctx, "user-1", first))

	second := &domain.ReadingRecord{BookID: "book-1", Title: "A", Authors: []string{"X"}, Status: domain.StatusFinished, Stars: 10}
	require.NoError(t, s.WriteRecord(ctx, "user-1", second))

	got, err := s.GetRecord(ctx, "user-1", "book-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, got.Status)
	assert.Equal(t, 10, got.Stars)
}

func TestRecordIDs(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, s.WriteRecords(ctx, "user-1", []*domain.ReadingRecord{
		{BookID: "book-1", Title: "A", Authors: []string{"X"}, Status: domain.StatusFinished},
		{BookID: "book-2", Title: "B", Authors: []string{"Y"}, Status: domain.StatusReading},
	}))
	require.NoError(t, s.WriteRecord(ctx, "user-2", &domain.ReadingRecord{
		BookID: "book-9", Title: "C", Authors: []string{"Z"}, Status: domain.StatusFinished,
	}))

	ids, err := s.RecordIDs(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, "book-1")
	assert.Contains(t, ids, "book-2")
	assert.NotContains(t, ids, "book-9")
}

func TestListRecords(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, s.WriteRecords(ctx, "user-1", []*domain.ReadingRecord{
		{BookID: "book-1", Title: "A", Authors: []string{"X"}, Status: domain.StatusFinished},
		{BookID: "book-2", Title: "B", Authors: []string{"Y"}, Status: domain.StatusReading},
	}))

	records, err := s.ListRecords(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	empty, err := s.ListRecords(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
