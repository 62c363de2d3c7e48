package enhance

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const requestTimeout = 30 * time.Second

// maxImageBytes caps how much of the processed image we will hold in memory
const maxImageBytes = 10 * 1024 * 1024

// Client calls the Photoroom segment API to replace a product photo's
// background with studio white. A single pass-through HTTP call; the
// response body is the processed image binary.
type Client struct {
	apiKey     string
	endpoint   string
	logger     *slog.Logger
	httpClient *http.Client
}

type segmentRequest struct {
	ImageURL        string `json:"image_url"`
	BackgroundColor string `json:"background_color"`
	Format          string `json:"format"`
	Quality         string `json:"quality"`
}

// NewClient creates a Photoroom client
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

// Configured reports whether an API key has been set up
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Enhance submits the image for background replacement and returns the
// processed JPEG bytes
func (c *Client) Enhance(ctx context.Context, imageURL string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("photoroom API key not configured")
	}

	body, err := json.Marshal(segmentRequest{
		ImageURL:        imageURL,
		BackgroundColor: "#ffffff",
		Format:          "jpg",
		Quality:         "90",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("photoroom request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return nil, fmt.Errorf("photoroom processing failed: %d %s (body: %s)",
			resp.StatusCode, resp.Status, string(detail))
	}

	image, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read processed image: %w", err)
	}

	c.logger.Info("Image enhanced", "image_url", imageURL, "bytes", len(image))
	return image, nil
}

// DataURL wraps processed JPEG bytes as a data URL the dashboard can show
// immediately, before the durable copy lands in blob storage
func DataURL(image []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
}
