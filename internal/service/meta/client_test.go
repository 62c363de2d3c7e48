package meta

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(graphURL string) *Client {
	return NewClient("app-id", "app-secret", "https://api.postcart.shop/auth/meta/callback", graphURL, testLogger())
}

func TestConfigured(t *testing.T) {
	if !newTestClient("http://x").Configured() {
		t.Error("expected Configured to be true with credentials")
	}
	if NewClient("", "", "", "http://x", testLogger()).Configured() {
		t.Error("expected Configured to be false without credentials")
	}
}

func TestExchangeCode(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/access_token" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		calls++
		q := r.URL.Query()
		switch calls {
		case 1:
			if q.Get("code") != "auth-code" {
				t.Errorf("expected authorization code, got %q", q.Get("code"))
			}
			if q.Get("client_id") != "app-id" || q.Get("client_secret") != "app-secret" {
				t.Error("missing app credentials on code exchange")
			}
			if q.Get("redirect_uri") == "" {
				t.Error("missing redirect_uri on code exchange")
			}
			fmt.Fprint(w, `{"access_token":"short-lived-token"}`)
		case 2:
			if q.Get("grant_type") != "fb_exchange_token" {
				t.Errorf("expected fb_exchange_token grant, got %q", q.Get("grant_type"))
			}
			if q.Get("fb_exchange_token") != "short-lived-token" {
				t.Errorf("expected short-lived token to be exchanged, got %q", q.Get("fb_exchange_token"))
			}
			fmt.Fprint(w, `{"access_token":"long-lived-token"}`)
		default:
			t.Errorf("unexpected extra token request #%d", calls)
		}
	}))
	defer server.Close()

	token, err := newTestClient(server.URL).ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "long-lived-token" {
		t.Errorf("expected long-lived token, got %q", token)
	}
	if calls != 2 {
		t.Errorf("expected two token requests, got %d", calls)
	}
}

func TestExchangeCodeGraphError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"message":"Invalid verification code format.","code":100}}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ExchangeCode(context.Background(), "bad-code")
	if err == nil {
		t.Fatal("expected error for graph error response")
	}
	if !strings.Contains(err.Error(), "Invalid verification code format.") {
		t.Errorf("expected graph message in error, got: %v", err)
	}
}

func TestExchangeCodeMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).ExchangeCode(context.Background(), "code"); err == nil {
		t.Fatal("expected error when access_token is absent")
	}
}

func TestListMedia(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/me/accounts"):
			if r.URL.Query().Get("access_token") != "seller-token" {
				t.Errorf("accounts call missing access token")
			}
			fmt.Fprint(w, `{"data":[
				{"name":"Personal Page"},
				{"name":"Shop Page","instagram_business_account":{"id":"ig-123"}}
			]}`)
		case strings.HasPrefix(r.URL.Path, "/ig-123/media"):
			if !strings.Contains(r.URL.RawQuery, "fields=id,caption") {
				t.Errorf("media call missing field selection: %s", r.URL.RawQuery)
			}
			fmt.Fprint(w, `{"data":[
				{"id":"m1","caption":"Beaded necklace 35,000 TZS","media_type":"IMAGE","media_url":"https://cdn/ig/m1.jpg","timestamp":"2026-08-01T10:00:00+0000"},
				{"id":"m2","caption":"New arrivals","media_type":"VIDEO","thumbnail_url":"https://cdn/ig/m2-thumb.jpg","timestamp":"2026-08-02T10:00:00+0000"}
			]}`)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	items, err := newTestClient(server.URL).ListMedia(context.Background(), "seller-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 media items, got %d", len(items))
	}
	if items[0].ID != "m1" || items[0].Image != "https://cdn/ig/m1.jpg" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[0].Caption != "Beaded necklace 35,000 TZS" {
		t.Errorf("unexpected caption: %q", items[0].Caption)
	}
	// videos carry no media_url; the thumbnail stands in
	if items[1].Image != "https://cdn/ig/m2-thumb.jpg" {
		t.Errorf("expected thumbnail fallback for video item, got %q", items[1].Image)
	}
}

func TestListMediaNoBusinessAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"name":"Personal Page"}]}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ListMedia(context.Background(), "seller-token")
	if err == nil {
		t.Fatal("expected error when no page has a linked business account")
	}
	if !strings.Contains(err.Error(), "no Instagram business account") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestListMediaGraphError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"message":"Error validating access token","code":190}}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ListMedia(context.Background(), "expired-token")
	if err == nil {
		t.Fatal("expected error for invalid token")
	}
	if !strings.Contains(err.Error(), "Error validating access token") {
		t.Errorf("expected graph message in error, got: %v", err)
	}
}
