package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hivereads/hive-server/internal/http/response"
	"github.com/hivereads/hive-server/internal/store"
)

// handleListShelf returns every reading record on the user's shelf.
// GET /api/v1/shelf
func (s *Server) handleListShelf(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())

	records, err := s.store.ListRecords(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]any{
		"records": records,
		"count":   len(records),
	}, s.logger)
}

// handleGetShelfRecord returns one reading record.
// GET /api/v1/shelf/{bookID}
func (s *Server) handleGetShelfRecord(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())
	bookID := chi.URLParam(r, "bookID")

	record, err := s.store.GetRecord(r.Context(), userID, bookID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			response.NotFound(w, "record not found", s.logger)
			return
		}
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, record, s.logger)
}
