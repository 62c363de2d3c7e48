package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const requestTimeout = 15 * time.Second

// mediaPageLimit matches the dashboard's import view, which shows the most
// recent posts only
const mediaPageLimit = 20

// Client talks to the Meta Graph API: the OAuth code-for-token exchange and
// the Instagram business media listing
type Client struct {
	appID       string
	appSecret   string
	redirectURI string
	graphURL    string
	logger      *slog.Logger
	httpClient  *http.Client
}

// MediaItem is one Instagram post as the dashboard consumes it
type MediaItem struct {
	ID        string `json:"id"`
	Image     string `json:"image"`
	Caption   string `json:"caption"`
	Timestamp string `json:"timestamp"`
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	Error       *graphError `json:"error"`
}

type graphError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type accountsResponse struct {
	Data []struct {
		Name                     string `json:"name"`
		InstagramBusinessAccount *struct {
			ID string `json:"id"`
		} `json:"instagram_business_account"`
	} `json:"data"`
	Error *graphError `json:"error"`
}

type mediaResponse struct {
	Data []struct {
		ID           string `json:"id"`
		Caption      string `json:"caption"`
		MediaType    string `json:"media_type"`
		MediaURL     string `json:"media_url"`
		ThumbnailURL string `json:"thumbnail_url"`
		Timestamp    string `json:"timestamp"`
	} `json:"data"`
	Error *graphError `json:"error"`
}

// NewClient creates a Graph API client
func NewClient(appID, appSecret, redirectURI, graphURL string, logger *slog.Logger) *Client {
	return &Client{
		appID:       appID,
		appSecret:   appSecret,
		redirectURI: redirectURI,
		graphURL:    graphURL,
		logger:      logger,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Configured reports whether the Meta app credentials are present
func (c *Client) Configured() bool {
	return c.appID != "" && c.appSecret != ""
}

// ExchangeCode runs the full OAuth exchange: authorization code to
// short-lived token, then short-lived to long-lived (60 days)
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	q := url.Values{}
	q.Set("client_id", c.appID)
	q.Set("redirect_uri", c.redirectURI)
	q.Set("client_secret", c.appSecret)
	q.Set("code", code)

	shortLived, err := c.fetchToken(ctx, q)
	if err != nil {
		return "", fmt.Errorf("code exchange failed: %w", err)
	}

	q = url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", c.appID)
	q.Set("client_secret", c.appSecret)
	q.Set("fb_exchange_token", shortLived)

	longLived, err := c.fetchToken(ctx, q)
	if err != nil {
		return "", fmt.Errorf("long-lived exchange failed: %w", err)
	}

	c.logger.Info("Exchanged Meta OAuth code for long-lived token")
	return longLived, nil
}

func (c *Client) fetchToken(ctx context.Context, q url.Values) (string, error) {
	endpoint := c.graphURL + "/oauth/access_token?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("graph API error: %s", parsed.Error.Message)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	return parsed.AccessToken, nil
}

// ListMedia resolves the seller's Instagram business account and returns
// their recent posts
func (c *Client) ListMedia(ctx context.Context, accessToken string) ([]MediaItem, error) {
	instagramID, err := c.resolveBusinessAccount(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf(
		"%s/%s/media?fields=id,caption,media_type,media_url,thumbnail_url,timestamp&limit=%d&access_token=%s",
		c.graphURL, instagramID, mediaPageLimit, url.QueryEscape(accessToken),
	)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed mediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse media response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("graph API error: %s", parsed.Error.Message)
	}

	items := make([]MediaItem, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		image := m.MediaURL
		if image == "" {
			image = m.ThumbnailURL
		}
		items = append(items, MediaItem{
			ID:        m.ID,
			Image:     image,
			Caption:   m.Caption,
			Timestamp: m.Timestamp,
		})
	}

	c.logger.Info("Fetched Instagram media", "count", len(items))
	return items, nil
}

// resolveBusinessAccount finds the first Facebook page with a linked
// Instagram business account
func (c *Client) resolveBusinessAccount(ctx context.Context, accessToken string) (string, error) {
	endpoint := fmt.Sprintf(
		"%s/me/accounts?fields=instagram_business_account,name&access_token=%s",
		c.graphURL, url.QueryEscape(accessToken),
	)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("accounts request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed accountsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse accounts response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("graph API error: %s", parsed.Error.Message)
	}

	for _, page := range parsed.Data {
		if page.InstagramBusinessAccount != nil {
			return page.InstagramBusinessAccount.ID, nil
		}
	}

	return "", fmt.Errorf("no Instagram business account linked to any Facebook page")
}
