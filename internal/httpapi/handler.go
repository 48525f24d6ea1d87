package httpapi

import (
	"briefly/internal/domain"
	"briefly/internal/summarizer"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

const (
	errMethodNotAllowed = "Method not allowed"
	errInvalidRequest   = "Missing API key or text"
	errProvider         = "Failed to fetch from Gemini API"
)

var errInvalidJSON = errors.New("body is not valid JSON")

//nolint:gochecknoglobals // Stateless codec shared by all handlers.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Journal records handled requests. Implementations must be safe for
// concurrent use.
type Journal interface {
	RecordRequest(ctx context.Context, r domain.SummaryRequest) error
}

type summaryRequest struct {
	Text string
	Type string
}

type summaryResponse struct {
	Summary *string `json:"summary,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// SummaryHandler serves POST /api/summarize.
type SummaryHandler struct {
	summarizer   summarizer.Summarizer
	journal      Journal
	maxBodyBytes int64
	log          *slog.Logger
}

// NewSummaryHandler builds the handler. A nil summarizer means no provider
// credential is configured and every request is rejected with 400. A nil
// journal disables request journaling.
func NewSummaryHandler(
	s summarizer.Summarizer,
	journal Journal,
	maxBodyBytes int64,
	log *slog.Logger,
) *SummaryHandler {
	return &SummaryHandler{
		summarizer:   s,
		journal:      journal,
		maxBodyBytes: maxBodyBytes,
		log:          log,
	}
}

func (h *SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeJSON(ctx, w, http.StatusMethodNotAllowed, errorResponse{Error: errMethodNotAllowed})

		return
	}

	start := time.Now()

	req, err := h.readRequest(w, r)
	if err != nil {
		h.log.DebugContext(ctx, "Failed to read request body",
			"error", err,
			"contentLength", r.ContentLength)
	}

	style := summarizer.ParseStyle(req.Type)
	record := domain.SummaryRequest{
		CreatedAt: start,
		Source:    domain.SourceHTTP,
		Style:     string(style),
		TextChars: utf8.RuneCountInString(req.Text),
	}

	if h.summarizer == nil || req.Text == "" {
		record.Status = http.StatusBadRequest
		h.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: errInvalidRequest})
		h.record(ctx, record, start)

		return
	}

	summary, err := h.summarizer.Summarize(ctx, summarizer.Input{
		Text:  req.Text,
		Style: style,
	})
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to summarize",
			"error", err,
			"style", style,
			"textChars", record.TextChars)

		record.Status = http.StatusInternalServerError
		h.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: errProvider})
		h.record(ctx, record, start)

		return
	}

	if summary == nil {
		h.log.WarnContext(ctx, "Provider returned no summary",
			"style", style,
			"textChars", record.TextChars)
	} else {
		record.SummaryChars = utf8.RuneCountInString(*summary)
	}

	record.Status = http.StatusOK
	h.writeJSON(ctx, w, http.StatusOK, summaryResponse{Summary: summary})
	h.record(ctx, record, start)
}

// readRequest extracts text and type from the body without a fixed schema.
// A type that is not a JSON string is ignored. A text that is a string,
// a non-zero number or true is used as its string form; any other value
// counts as missing.
func (h *SummaryHandler) readRequest(w http.ResponseWriter, r *http.Request) (summaryRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		return summaryRequest{}, fmt.Errorf("read body: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return summaryRequest{}, errInvalidJSON
	}

	var req summaryRequest

	if typ := gjson.GetBytes(body, "type"); typ.Type == gjson.String {
		req.Type = typ.Str
	}

	switch text := gjson.GetBytes(body, "text"); text.Type {
	case gjson.String:
		req.Text = text.Str
	case gjson.Number:
		if text.Num != 0 {
			req.Text = strconv.FormatFloat(text.Num, 'f', -1, 64)
		}
	case gjson.True:
		req.Text = "true"
	case gjson.Null, gjson.False, gjson.JSON:
	}

	return req, nil
}

func (h *SummaryHandler) record(ctx context.Context, r domain.SummaryRequest, start time.Time) {
	if h.journal == nil {
		return
	}

	r.Duration = time.Since(start)

	// The response is already written; a disconnected client must not drop the record.
	if err := h.journal.RecordRequest(context.WithoutCancel(ctx), r); err != nil {
		h.log.ErrorContext(ctx, "Failed to record request",
			"error", err,
			"source", r.Source,
			"status", r.Status)
	}
}

func (h *SummaryHandler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to encode response",
			"error", err,
			"status", status)

		status = http.StatusInternalServerError
		body = []byte(`{"error":"` + errProvider + `"}`)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if _, err = w.Write(body); err != nil {
		h.log.DebugContext(ctx, "Failed to write response",
			"error", err,
			"status", status)
	}
}
