package domain

import "time"

// ReadingStatus is the shared status vocabulary every import format maps into.
type ReadingStatus string

const (
	StatusFinished   ReadingStatus = "finished"
	StatusReading    ReadingStatus = "reading"
	StatusWantToRead ReadingStatus = "want-to-read"
	StatusAbandoned  ReadingStatus = "abandoned"
)

// ReadingRecord is one book on a user's shelf: the durable result of a
// matched import row or a manual add.
type ReadingRecord struct {
	BookID     string        `json:"book_id"`
	UserID     string        `json:"user_id"`
	Title      string        `json:"title"`
	Authors    []string      `json:"authors"`
	CoverURL   string        `json:"cover_url,omitempty"`
	Status     ReadingStatus `json:"status"`
	Stars      int           `json:"stars,omitempty"` // 1-10, 0 means unrated
	Review     string        `json:"review,omitempty"`
	StartedAt  time.Time     `json:"started_at,omitzero"`
	FinishedAt time.Time     `json:"finished_at,omitzero"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
