package summarizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	temperature         = 0.2
	maxResponseBytes    = 10 << 20
	generateContentPath = "/v1beta/models/%s:generateContent"

	requestTemplate = `{"contents":[{"parts":[{"text":""}]}],"generationConfig":{"temperature":0}}`

	summaryPath      = "candidates.0.content.parts.0.text"
	errorMessagePath = "error.message"
)

// GeminiSummarizer calls the Gemini generateContent API to produce summaries.
type GeminiSummarizer struct {
	client   *http.Client
	endpoint string
	apiKey   string
	log      *slog.Logger
}

// NewGeminiSummarizer builds a new summarizer instance.
func NewGeminiSummarizer(
	apiKey string,
	baseURL string,
	model string,
	timeout time.Duration,
	log *slog.Logger,
) (*GeminiSummarizer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("API key is empty")
	}

	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("model is empty")
	}

	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute (URL = %s)", baseURL)
	}

	return &GeminiSummarizer{
		client:   &http.Client{Timeout: timeout},
		endpoint: base.String() + fmt.Sprintf(generateContentPath, url.PathEscape(model)),
		apiKey:   apiKey,
		log:      log,
	}, nil
}

// Summarize sends one generateContent request and extracts the first
// candidate's text. A well-formed response without that text is not an error.
func (s *GeminiSummarizer) Summarize(
	ctx context.Context,
	input Input,
) (*string, error) {
	if input.Text == "" {
		return nil, errors.New("input is empty")
	}

	body, err := buildRequestBody(BuildPrompt(input.Style, input.Text))
	if err != nil {
		return nil, fmt.Errorf("build request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.requestURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", redactURLError(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", redactURLError(err))
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			s.log.WarnContext(ctx, "Failed to close response body",
				"error", err,
				"status", resp.StatusCode)
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	summary, err := parseResponseBody(respBody)
	if err != nil {
		return nil, fmt.Errorf("parse response (status = %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		s.log.WarnContext(ctx, "Gemini API returned non-success status",
			"status", resp.StatusCode,
			"providerError", gjson.GetBytes(respBody, errorMessagePath).String(),
			"style", input.Style)
	}

	return summary, nil
}

func (s *GeminiSummarizer) requestURL() string {
	return s.endpoint + "?" + url.Values{"key": {s.apiKey}}.Encode()
}

func buildRequestBody(prompt string) ([]byte, error) {
	body, err := sjson.SetBytes([]byte(requestTemplate), "contents.0.parts.0.text", prompt)
	if err != nil {
		return nil, fmt.Errorf("set prompt: %w", err)
	}

	body, err = sjson.SetBytes(body, "generationConfig.temperature", temperature)
	if err != nil {
		return nil, fmt.Errorf("set temperature: %w", err)
	}

	return body, nil
}

func parseResponseBody(body []byte) (*string, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("body is not valid JSON")
	}

	result := gjson.GetBytes(body, summaryPath)
	// A null text is the same as a missing one: the caller responds with no summary field.
	if !result.Exists() || result.Type == gjson.Null {
		return nil, nil //nolint:nilnil // Absent summary is a valid outcome.
	}

	summary := result.String()

	return &summary, nil
}

// redactURLError drops the query string, which carries the API key, from
// errors produced by the HTTP client.
func redactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}

	if u, parseErr := url.Parse(urlErr.URL); parseErr == nil {
		u.RawQuery = ""
		urlErr.URL = u.String()
	} else {
		urlErr.URL = ""
	}

	return err
}
