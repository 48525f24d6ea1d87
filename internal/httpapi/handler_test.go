package httpapi_test

import (
	"briefly/internal/domain"
	"briefly/internal/httpapi"
	"briefly/internal/summarizer"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

const maxBodyBytes = 1 << 20

type stubSummarizer struct {
	mu      sync.Mutex
	calls   int
	inputs  []summarizer.Input
	summary *string
	err     error
}

func (s *stubSummarizer) Summarize(
	_ context.Context,
	input summarizer.Input,
) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.inputs = append(s.inputs, input)

	return s.summary, s.err
}

func (s *stubSummarizer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

func (s *stubSummarizer) lastInput(t *testing.T) summarizer.Input {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.inputs) == 0 {
		t.Fatalf("expected summarizer to be called")
	}

	return s.inputs[len(s.inputs)-1]
}

type stubJournal struct {
	mu       sync.Mutex
	requests []domain.SummaryRequest
	err      error
}

func (j *stubJournal) RecordRequest(_ context.Context, r domain.SummaryRequest) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.requests = append(j.requests, r)

	return j.err
}

func (j *stubJournal) recorded() []domain.SummaryRequest {
	j.mu.Lock()
	defer j.mu.Unlock()

	return append([]domain.SummaryRequest(nil), j.requests...)
}

func ptr(s string) *string {
	return &s
}

func serve(h http.Handler, method string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, httpapi.SummarizePath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func assertResponse(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantBody string) {
	t.Helper()

	if rec.Code != wantStatus {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, wantStatus)
	}

	if got := rec.Body.String(); got != wantBody {
		t.Fatalf("unexpected body: got %s want %s", got, wantBody)
	}

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("unexpected content type: %q", ct)
	}
}

func TestSummaryHandlerRejectsNonPostMethods(t *testing.T) {
	stub := &stubSummarizer{summary: ptr("unused")}
	h := httpapi.NewSummaryHandler(stub, nil, maxBodyBytes, slog.Default())

	methods := []string{
		http.MethodGet,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodOptions,
	}

	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			rec := serve(h, method, `{"text":"hello"}`)

			assertResponse(t, rec, http.StatusMethodNotAllowed, `{"error":"Method not allowed"}`)

			if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
				t.Fatalf("unexpected Allow header: %q", allow)
			}
		})
	}

	if got := stub.callCount(); got != 0 {
		t.Fatalf("expected summarizer not to be called, got %d", got)
	}
}

func TestSummaryHandlerRejectsMissingText(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"type":"bullets"}`,
		`{"text":""}`,
		`{"text":null}`,
		`{"text":false}`,
		`{"text":0}`,
		`{"text":{"body":"x"}}`,
		`["text"]`,
		`not json`,
		``,
	}

	stub := &stubSummarizer{summary: ptr("unused")}
	h := httpapi.NewSummaryHandler(stub, nil, maxBodyBytes, slog.Default())

	for _, body := range bodies {
		rec := serve(h, http.MethodPost, body)

		assertResponse(t, rec, http.StatusBadRequest, `{"error":"Missing API key or text"}`)
	}

	if got := stub.callCount(); got != 0 {
		t.Fatalf("expected summarizer not to be called, got %d", got)
	}
}

func TestSummaryHandlerAcceptsNonStringText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"Whitespace", `{"text":"   "}`, "   "},
		{"Integer", `{"text":42}`, "42"},
		{"Float", `{"text":1.50}`, "1.5"},
		{"True", `{"text":true}`, "true"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			stub := &stubSummarizer{summary: ptr("ok")}
			h := httpapi.NewSummaryHandler(stub, nil, maxBodyBytes, slog.Default())

			rec := serve(h, http.MethodPost, test.body)

			assertResponse(t, rec, http.StatusOK, `{"summary":"ok"}`)

			if got := stub.lastInput(t).Text; got != test.want {
				t.Errorf("Expected text %q, got %q", test.want, got)
			}
		})
	}
}

func TestSummaryHandlerRejectsMissingCredential(t *testing.T) {
	h := httpapi.NewSummaryHandler(nil, nil, maxBodyBytes, slog.Default())

	for _, body := range []string{`{"text":"an article"}`, `{}`} {
		rec := serve(h, http.MethodPost, body)

		assertResponse(t, rec, http.StatusBadRequest, `{"error":"Missing API key or text"}`)
	}
}

func TestSummaryHandlerRejectsOversizedBody(t *testing.T) {
	stub := &stubSummarizer{summary: ptr("unused")}
	h := httpapi.NewSummaryHandler(stub, nil, 16, slog.Default())

	rec := serve(h, http.MethodPost, `{"text":"this body is longer than sixteen bytes"}`)

	assertResponse(t, rec, http.StatusBadRequest, `{"error":"Missing API key or text"}`)

	if got := stub.callCount(); got != 0 {
		t.Fatalf("expected summarizer not to be called, got %d", got)
	}
}

func TestSummaryHandlerProviderFailure(t *testing.T) {
	stub := &stubSummarizer{err: errors.New("do request: connection refused")}
	h := httpapi.NewSummaryHandler(stub, nil, maxBodyBytes, slog.Default())

	rec := serve(h, http.MethodPost, `{"text":"an article"}`)

	assertResponse(t, rec, http.StatusInternalServerError, `{"error":"Failed to fetch from Gemini API"}`)
}

func TestSummaryHandlerReturnsSummary(t *testing.T) {
	stub := &stubSummarizer{summary: ptr("Exact \"provider\" text.\n- point")}
	h := httpapi.NewSummaryHandler(stub, nil, maxBodyBytes, slog.Default())

	rec := serve(h, http.MethodPost, `{"text":"an article","type":"bullets"}`)

	assertResponse(t, rec, http.StatusOK, `{"summary":"Exact \"provider\" text.\n- point"}`)

	input := stub.lastInput(t)
	if input.Text != "an article" {
		t.Fatalf("unexpected input text: %q", input.Text)
	}
	if input.Style != summarizer.StyleBullets {
		t.Fatalf("unexpected input style: %q", input.Style)
	}
}

func TestSummaryHandlerAbsentSummaryIsStillOK(t *testing.T) {
	stub := &stubSummarizer{}
	h := httpapi.NewSummaryHandler(stub, nil, maxBodyBytes, slog.Default())

	rec := serve(h, http.MethodPost, `{"text":"an article"}`)

	assertResponse(t, rec, http.StatusOK, `{}`)
}

func TestSummaryHandlerStyleFallback(t *testing.T) {
	tests := []struct {
		name string
		body string
		want summarizer.Style
	}{
		{"Omitted", `{"text":"a"}`, summarizer.StyleBrief},
		{"Unknown", `{"text":"a","type":"xyz"}`, summarizer.StyleBrief},
		{"Detailed", `{"text":"a","type":"detailed"}`, summarizer.StyleDetailed},
		{"Null", `{"text":"a","type":null}`, summarizer.StyleBrief},
		{"Number", `{"text":"a","type":5}`, summarizer.StyleBrief},
		{"Object", `{"text":"a","type":{}}`, summarizer.StyleBrief},
		{"Boolean", `{"text":"a","type":true}`, summarizer.StyleBrief},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			stub := &stubSummarizer{summary: ptr("ok")}
			h := httpapi.NewSummaryHandler(stub, nil, maxBodyBytes, slog.Default())

			rec := serve(h, http.MethodPost, test.body)

			assertResponse(t, rec, http.StatusOK, `{"summary":"ok"}`)

			if got := stub.lastInput(t).Style; got != test.want {
				t.Errorf("Expected %q style, got %q", test.want, got)
			}
		})
	}
}

func TestSummaryHandlerRecordsRequests(t *testing.T) {
	journal := &stubJournal{err: errors.New("disk full")}
	stub := &stubSummarizer{summary: ptr("four")}
	h := httpapi.NewSummaryHandler(stub, journal, maxBodyBytes, slog.Default())

	serve(h, http.MethodGet, ``)
	serve(h, http.MethodPost, `{}`)
	rec := serve(h, http.MethodPost, `{"text":"héllo","type":"detailed"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected journal failure not to change status, got %d", rec.Code)
	}

	recorded := journal.recorded()
	if len(recorded) != 2 {
		t.Fatalf("expected 2 recorded requests, got %d", len(recorded))
	}

	if recorded[0].Status != http.StatusBadRequest {
		t.Fatalf("unexpected first status: %d", recorded[0].Status)
	}

	got := recorded[1]
	if got.Source != domain.SourceHTTP ||
		got.Style != "detailed" ||
		got.Status != http.StatusOK ||
		got.TextChars != 5 ||
		got.SummaryChars != 4 {
		t.Fatalf("unexpected recorded request: %+v", got)
	}

	if got.CreatedAt.IsZero() || got.Duration < 0 {
		t.Fatalf("expected timing to be recorded: %+v", got)
	}
}

func TestServerRoutes(t *testing.T) {
	stub := &stubSummarizer{summary: ptr("routed")}
	srv := httptest.NewServer(
		httpapi.NewServer(":0", httpapi.NewSummaryHandler(stub, nil, maxBodyBytes, slog.Default()), slog.Default()).Handler,
	)
	t.Cleanup(srv.Close)

	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Post(srv.URL+httpapi.SummarizePath, "application/json", strings.NewReader(`{"text":"a"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK || string(body) != `{"summary":"routed"}` {
		t.Fatalf("unexpected summarize response: %d %s", resp.StatusCode, body)
	}

	resp, err = client.Get(srv.URL + httpapi.HealthPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK || string(body) != `{"status":"ok"}` {
		t.Fatalf("unexpected health response: %d %s", resp.StatusCode, body)
	}
}

func TestSummaryHandlerWithGeminiProvider(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			"Candidate",
			http.StatusOK,
			`{"candidates":[{"content":{"parts":[{"text":"Gemini says hi."}],"role":"model"}}]}`,
			http.StatusOK,
			`{"summary":"Gemini says hi."}`,
		},
		{
			"ProviderErrorBody",
			http.StatusForbidden,
			`{"error":{"code":403,"message":"Permission denied"}}`,
			http.StatusOK,
			`{}`,
		},
		{
			"MalformedBody",
			http.StatusOK,
			`{"candidates":`,
			http.StatusInternalServerError,
			`{"error":"Failed to fetch from Gemini API"}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(test.status)
				_, _ = io.WriteString(w, test.body)
			}))
			t.Cleanup(provider.Close)

			gemini, err := summarizer.NewGeminiSummarizer("key", provider.URL, "gemini-2.0-flash", 5*time.Second, slog.Default())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			h := httpapi.NewSummaryHandler(gemini, nil, maxBodyBytes, slog.Default())
			rec := serve(h, http.MethodPost, `{"text":"an article","type":"brief"}`)

			assertResponse(t, rec, test.wantStatus, test.wantBody)
		})
	}
}
