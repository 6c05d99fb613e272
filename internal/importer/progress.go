package importer

import (
	"log/slog"
	"sync"
)

// Progress event protocol. Event ids are assigned by a single counter owned
// by the Emitter, never by worker goroutines, so the id sequence is strictly
// increasing regardless of matcher parallelism.

// EventType tags one progress event.
type EventType string

const (
	EventImportStart    EventType = "import-start"
	EventUploadStart    EventType = "upload-start"
	EventBookLoad       EventType = "book-load"
	EventBookUpload     EventType = "book-upload"
	EventImportError    EventType = "import-error"
	EventImportComplete EventType = "import-complete"
)

// Stage names the pipeline phase an event belongs to.
type Stage string

const (
	StageStarting  Stage = "starting"
	StageSearching Stage = "searching"
	StageUploading Stage = "uploading"
	StageComplete  Stage = "complete"
)

// StageProgress is the live numerator/denominator payload on every event.
// Total grows as the counting consumer drains; clients treat it as a
// live-updating denominator.
type StageProgress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// ProgressEvent is one entry in the ordered event sequence for an import.
type ProgressEvent struct {
	ID            int            `json:"id"`
	Event         EventType      `json:"event"`
	Stage         Stage          `json:"stage"`
	StageProgress StageProgress  `json:"stageProgress"`
	Book          *Candidate     `json:"book,omitempty"`    // book-upload only; nil when unmatched
	Summary       *ImportSummary `json:"summary,omitempty"` // import-error and import-complete
}

// ImportSummary carries final (or per-batch, for import-error) accounting.
type ImportSummary struct {
	TotalBooks       int             `json:"totalBooks"`
	MatchedBooks     int             `json:"matchedBooks"`
	UploadedBooks    int             `json:"uploadedBooks"`
	AttemptedInBatch int             `json:"attemptedInBatch,omitempty"`
	FailedInBatch    int             `json:"failedInBatch,omitempty"`
	FailedBooks      []FailureRecord `json:"failedBooks"`
}

// Sink receives serialized progress events. *sse.Stream satisfies this.
type Sink interface {
	Send(eventType string, data any) error
}

// Emitter owns the event id counter and the per-import progress counters.
// Safe for concurrent use; matcher goroutines call BookLoad in parallel.
type Emitter struct {
	mu      sync.Mutex
	nextID  int
	loads   int
	uploads int
	sink    Sink
	session *Session
	logger  *slog.Logger
}

// NewEmitter creates an emitter writing to sink for one import session.
func NewEmitter(sink Sink, session *Session, logger *slog.Logger) *Emitter {
	return &Emitter{
		sink:    sink,
		session: session,
		logger:  logger,
	}
}

// emit assigns the next id and sends, all inside one critical section: the
// id sequence on the wire is exactly the arrival order, and concurrent
// matcher goroutines never interleave frames on the sink (sse.Stream is not
// safe for concurrent use). Send failures mean the client went away; the
// pipeline keeps running so in-flight writes finish, so failures only log.
func (e *Emitter) emit(event ProgressEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emitLocked(event)
}

// emitLocked requires e.mu to be held.
func (e *Emitter) emitLocked(event ProgressEvent) {
	event.ID = e.nextID
	e.nextID++

	if err := e.sink.Send(string(event.Event), event); err != nil {
		e.logger.Debug("progress event send failed",
			slog.String("event", string(event.Event)),
			slog.Int("id", event.ID),
			slog.String("error", err.Error()))
	}
}

// ImportStart emits the opening event. Exactly once, id 0.
func (e *Emitter) ImportStart() {
	e.emit(ProgressEvent{
		Event: EventImportStart,
		Stage: StageStarting,
		StageProgress: StageProgress{
			Total:   e.session.Total(),
			Message: "import started",
		},
	})
}

// UploadStart emits once, after the user's existing record set begins loading.
func (e *Emitter) UploadStart() {
	e.emit(ProgressEvent{
		Event: EventUploadStart,
		Stage: StageUploading,
		StageProgress: StageProgress{
			Total:   e.session.Total(),
			Message: "loading existing shelf",
		},
	})
}

// BookLoad emits a per-row tick as the row enters catalog matching.
func (e *Emitter) BookLoad(title string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loads++

	e.emitLocked(ProgressEvent{
		Event: EventBookLoad,
		Stage: StageSearching,
		StageProgress: StageProgress{
			Current: e.loads,
			Total:   e.session.Total(),
			Message: "searching catalog for " + title,
		},
	})
}

// BookUpload emits a per-row tick after the batch write, carrying the
// resolved candidate (nil for rows that never matched).
func (e *Emitter) BookUpload(candidate *Candidate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.uploads++

	message := "book not uploaded"
	if candidate != nil {
		message = "uploaded " + candidate.Title
	}
	e.emitLocked(ProgressEvent{
		Event: EventBookUpload,
		Stage: StageUploading,
		StageProgress: StageProgress{
			Current: e.uploads,
			Total:   e.session.Total(),
			Message: message,
		},
		Book: candidate,
	})
}

// ImportError emits a non-terminal batch fallback notification. The
// pipeline continues; subsequent batches still process.
func (e *Emitter) ImportError(attempted, failed int) {
	e.emit(ProgressEvent{
		Event: EventImportError,
		Stage: StageUploading,
		StageProgress: StageProgress{
			Current: e.session.Uploaded(),
			Total:   e.session.Total(),
			Message: "batch write fell back to per-record retry",
		},
		Summary: &ImportSummary{
			TotalBooks:       e.session.Total(),
			MatchedBooks:     e.session.Matched(),
			UploadedBooks:    e.session.Uploaded(),
			AttemptedInBatch: attempted,
			FailedInBatch:    failed,
			FailedBooks:      e.session.Failures(),
		},
	})
}

// ImportComplete emits the terminal event with final counts and the full
// deduplicated failure list. No event after this one is valid.
func (e *Emitter) ImportComplete() {
	failures := e.session.Failures()
	e.emit(ProgressEvent{
		Event: EventImportComplete,
		Stage: StageComplete,
		StageProgress: StageProgress{
			Current: e.session.Uploaded(),
			Total:   e.session.Total(),
			Message: "import complete",
		},
		Summary: &ImportSummary{
			TotalBooks:    e.session.Total(),
			MatchedBooks:  e.session.Matched(),
			UploadedBooks: e.session.Uploaded(),
			FailedBooks:   failures,
		},
	})
}
