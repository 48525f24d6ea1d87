package summarizer

import (
	"context"
)

// Input describes the payload for a summary request.
type Input struct {
	// Text contains the article text (plain or HTML) to summarise.
	Text string
	// Style selects the prompt template.
	Style Style
}

// Summarizer produces a single summary for a given input text.
//
// A nil summary with a nil error means the provider answered but produced no
// text; callers relay that as an absent summary rather than a failure.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (*string, error)
}
