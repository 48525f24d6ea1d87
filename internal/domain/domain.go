package domain

import "time"

const (
	SourceHTTP     = "http"
	SourceTelegram = "telegram"
)

// SummaryRequest is one journaled summary request. Article text and summaries
// are never stored, only their sizes.
type SummaryRequest struct {
	CreatedAt    time.Time
	Source       string
	Style        string
	TextChars    int
	Status       int
	SummaryChars int
	Duration     time.Duration
}
