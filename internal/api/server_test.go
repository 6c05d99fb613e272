package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivereads/hive-server/internal/domain"
	"github.com/hivereads/hive-server/internal/importer"
	"github.com/hivereads/hive-server/internal/ratelimit"
	"github.com/hivereads/hive-server/internal/search"
	"github.com/hivereads/hive-server/internal/sse"
	"github.com/hivereads/hive-server/internal/store"
)

func setupTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{DataPath: t.TempDir(), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	manager := sse.NewManager(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)
	t.Cleanup(cancel)

	importService := importer.NewService(st, index, manager, 10, logger)
	sseHandler := sse.NewHandler(manager, logger, UserID)
	limiter := ratelimit.PerMinute(60, 10)

	return NewServer(st, index, importService, sseHandler, manager, limiter, logger), st
}

func seedBook(t *testing.T, st *store.Store, id, title string, authors ...string) {
	t.Helper()
	err := st.CreateBook(context.Background(), &domain.CatalogBook{
		ID:          id,
		Title:       title,
		Authors:     authors,
		Identifiers: domain.Identifiers{BookID: id},
	})
	require.NoError(t, err)
}

func multipartUpload(t *testing.T, csv string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "export.csv")
	require.NoError(t, err)
	_, err = io.WriteString(part, csv)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	srv, _ := setupTestServer(t)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestImport_RequiresUserHeader(t *testing.T) {
	srv, _ := setupTestServer(t)

	body, contentType := multipartUpload(t, "Title\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/goodreads", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestImport_UnsupportedFormat(t *testing.T) {
	srv, _ := setupTestServer(t)

	body, contentType := multipartUpload(t, "Title\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/librarything", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(userHeader, "user-1")

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImport_GoodreadsStream(t *testing.T) {
	srv, st := setupTestServer(t)
	seedBook(t, st, "book-1", "Old Man's War", "John Scalzi")

	csv := "Title,Author,Additional Authors,ISBN,ISBN13,My Rating,Exclusive Shelf,My Review,Date Read,Book Id\n" +
		"Old Man's War,John Scalzi,,,,5,read,Loved it,2023/06/15,51964\n" +
		"Europe in Autumn,Dave Hutchinson,,,,4,read,,2023/07/01,23168817\n"

	body, contentType := multipartUpload(t, csv)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/goodreads", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(userHeader, "user-1")

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := w.Body.String()
	assert.Contains(t, events, "event: import-start\n")
	assert.Contains(t, events, "event: upload-start\n")
	assert.Contains(t, events, "event: book-upload\n")
	assert.Equal(t, 1, strings.Count(events, "event: import-complete\n"))
	assert.Contains(t, events, `"uploadedBooks":1`)
	assert.Contains(t, events, `"no_match"`)

	// The record landed on the shelf.
	records, err := st.ListRecords(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "book-1", records[0].BookID)
	assert.Equal(t, 10, records[0].Stars)
}

func TestImport_SingleActivePerUser(t *testing.T) {
	srv, _ := setupTestServer(t)

	require.True(t, srv.beginImport("user-1"))

	body, contentType := multipartUpload(t, "Title\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/goodreads", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(userHeader, "user-1")

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	srv.endImport("user-1")
	w = httptest.NewRecorder()
	body, contentType = multipartUpload(t, "Title\n")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/import/goodreads", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(userHeader, "user-1")
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestImport_RateLimited(t *testing.T) {
	srv, _ := setupTestServer(t)
	srv.importLimiter = ratelimit.PerMinute(1, 1)

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		body, contentType := multipartUpload(t, "Title\n")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/import/goodreads", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set(userHeader, "user-1")

		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "request %d", i)
	}
}

func TestCatalogSearch(t *testing.T) {
	srv, st := setupTestServer(t)
	seedBook(t, st, "book-1", "Europe in Autumn", "Dave Hutchinson")

	// Write-through indexing is synchronous, but give bleve a moment to
	// make the document visible.
	require.Eventually(t, func() bool {
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/search?q=autumn", nil))
		return w.Code == http.StatusOK && strings.Contains(w.Body.String(), "book-1")
	}, 2*time.Second, 50*time.Millisecond)
}

func TestCatalogSearch_MissingQuery(t *testing.T) {
	srv, _ := setupTestServer(t)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/search", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShelf_EmptyForNewUser(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shelf", nil)
	req.Header.Set(userHeader, "user-1")

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)
}
