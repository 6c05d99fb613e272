package api

import (
	"encoding/json/v2"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hivereads/hive-server/internal/domain"
	"github.com/hivereads/hive-server/internal/http/response"
	"github.com/hivereads/hive-server/internal/id"
	"github.com/hivereads/hive-server/internal/search"
	"github.com/hivereads/hive-server/internal/sse"
	"github.com/hivereads/hive-server/internal/store"
)

// handleCatalogSearch searches the catalog by title and author.
// GET /api/v1/catalog/search?q=...&limit=...&offset=...
func (s *Server) handleCatalogSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, "missing query parameter 'q'", s.logger)
		return
	}

	params := search.DefaultSearchParams()
	params.Query = query
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit <= 100 {
		params.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset >= 0 {
		params.Offset = offset
	}

	result, err := s.search.Search(r.Context(), params)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, result, s.logger)
}

// handleGetBook returns one catalog book.
// GET /api/v1/catalog/{id}
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	book, err := s.store.GetBook(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			response.NotFound(w, "book not found", s.logger)
			return
		}
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// createBookRequest is the POST /catalog payload.
type createBookRequest struct {
	Title       string             `json:"title"`
	Authors     []string           `json:"authors"`
	CoverURL    string             `json:"cover_url"`
	Identifiers domain.Identifiers `json:"identifiers"`
}

// handleCreateBook adds a book to the catalog.
// POST /api/v1/catalog
func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}
	if req.Title == "" || len(req.Authors) == 0 {
		response.BadRequest(w, "title and authors are required", s.logger)
		return
	}

	bookID, err := id.Generate("book")
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	book := &domain.CatalogBook{
		ID:          bookID,
		Title:       req.Title,
		Authors:     req.Authors,
		CoverURL:    req.CoverURL,
		Identifiers: req.Identifiers,
	}
	book.Identifiers.BookID = bookID

	if err := s.store.CreateBook(r.Context(), book); err != nil {
		if errors.Is(err, store.ErrBookExists) {
			response.Error(w, http.StatusConflict, "book already exists", s.logger)
			return
		}
		response.HandleError(w, err, s.logger)
		return
	}

	s.sseManager.Emit(sse.NewBookCreatedEvent(book.ID, book.Title))

	response.Created(w, book, s.logger)
}
