package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hivereads/hive-server/internal/http/response"
	"github.com/hivereads/hive-server/internal/importer"
	"github.com/hivereads/hive-server/internal/sse"
)

// maxImportSize caps upload payloads at 32MB; a 10,000-book export is
// around 3MB, so this leaves generous headroom.
const maxImportSize = 32 << 20

// handleImport runs a library import.
// POST /api/v1/import/{format}
// Content-Type: multipart/form-data with "file" field.
//
// The response is an SSE stream of progress events on the upload request
// itself; clients read events until import-complete or stream error.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())

	format := importer.Format(chi.URLParam(r, "format"))
	if !importer.ValidFormat(format) {
		response.BadRequest(w, "unsupported import format: "+string(format), s.logger)
		return
	}

	if !s.importLimiter.Allow(userID) {
		s.logger.Warn("import rate limit exceeded", slog.String("user_id", userID))
		response.TooManyRequests(w, "Too many imports. Please try again later.", s.logger)
		return
	}

	if !s.beginImport(userID) {
		response.Error(w, http.StatusConflict, "an import is already running for this user", s.logger)
		return
	}
	defer s.endImport(userID)

	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		response.BadRequest(w, "Invalid multipart form: "+err.Error(), s.logger)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file uploaded. Use 'file' field in multipart form", s.logger)
		return
	}
	defer file.Close()

	s.logger.Info("import upload received",
		slog.String("user_id", userID),
		slog.String("format", string(format)),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	stream, err := sse.NewStream(w)
	if err != nil {
		response.InternalError(w, "Streaming not supported", s.logger)
		return
	}

	if err := s.importService.Run(r.Context(), userID, format, file, stream); err != nil {
		// Headers are long gone; the truncated stream without an
		// import-complete event is the error signal to the client.
		s.logger.Error("import failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}
}

// beginImport marks the user as having an import in flight.
// Returns false if one is already running.
func (s *Server) beginImport(userID string) bool {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	if _, running := s.activeImports[userID]; running {
		return false
	}
	s.activeImports[userID] = struct{}{}
	return true
}

func (s *Server) endImport(userID string) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	delete(s.activeImports, userID)
}
