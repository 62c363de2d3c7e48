package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"postcart/internal/domain"
)

const requestTimeout = 30 * time.Second

// Client calls the Gemini generateContent endpoint. One POST per request,
// no retries; every failure mode is narrowed to a distinct reason so the
// boundary can render a specific user message.
type Client struct {
	apiKey     string
	endpoint   string
	logger     *slog.Logger
	httpClient *http.Client
}

// generateRequest is the generateContent wire shape
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateResponse holds the slice of the response we consume
type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// NewClient creates a Gemini client
func NewClient(apiKey, endpoint string, logger *slog.Logger) *Client {
	return &Client{
		apiKey:   apiKey,
		endpoint: endpoint,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Generate sends the prompt as the sole content part and returns the raw
// model text
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", domain.NewAIError(domain.AIReasonInvalidKey, "AI service not configured", nil)
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.endpoint + "?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.NewAIError(domain.AIReasonUnexpectedShape, "AI request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.classifyStatus(resp)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", domain.NewAIError(domain.AIReasonUnexpectedShape, "failed to parse AI response", err)
	}

	if len(parsed.Candidates) == 0 || parsed.Candidates[0].Content == nil || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", domain.NewAIError(domain.AIReasonUnexpectedShape, "AI response missing candidates", nil)
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", domain.NewAIError(domain.AIReasonEmpty, "AI returned an empty answer", nil)
	}

	c.logger.Debug("AI generation succeeded", "response_chars", len(text))
	return text, nil
}

// classifyStatus maps a non-2xx response to a typed failure reason. The
// first 200 bytes of the body ride along for diagnostics.
func (c *Client) classifyStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.NewAIError(domain.AIReasonInvalidKey, "AI service rejected the API key", nil)
	case http.StatusTooManyRequests:
		return domain.NewAIError(domain.AIReasonRateLimited, "AI service quota exceeded", nil)
	default:
		return domain.NewAIError(
			domain.AIReasonUnexpectedShape,
			fmt.Sprintf("AI service returned %d: %s", resp.StatusCode, string(body)),
			nil,
		)
	}
}
