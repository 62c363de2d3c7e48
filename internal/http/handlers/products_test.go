package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"postcart/internal/domain"
	"postcart/internal/http/middleware"
)

type stubVerifier struct {
	sellerID string
}

func (v *stubVerifier) Verify(ctx context.Context, token string) (string, error) {
	return v.sellerID, nil
}

// memProductRepo records creates; the read paths return empty results
type memProductRepo struct {
	created []*domain.Product
}

func (r *memProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return nil, sql.ErrNoRows
}

func (r *memProductRepo) Create(ctx context.Context, product *domain.Product) error {
	r.created = append(r.created, product)
	return nil
}

func (r *memProductRepo) Update(ctx context.Context, product *domain.Product) error { return nil }

func (r *memProductRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (r *memProductRepo) GetBySourceURL(ctx context.Context, sellerID, sourceURL string) (*domain.Product, error) {
	return nil, sql.ErrNoRows
}

func (r *memProductRepo) GetRecentBySeller(ctx context.Context, sellerID string, cursor *time.Time, limit int) ([]*domain.Product, error) {
	return nil, nil
}

func (r *memProductRepo) GetPublishedBySeller(ctx context.Context, sellerID string, cursor *time.Time, limit int) ([]*domain.Product, error) {
	return nil, nil
}

func (r *memProductRepo) Search(ctx context.Context, sellerID, query string, cursor *time.Time, limit int) ([]*domain.Product, error) {
	return nil, nil
}

func (r *memProductRepo) CountByPlatform(ctx context.Context, sellerID string) (map[string]int, error) {
	return map[string]int{}, nil
}

func (r *memProductRepo) UpdateEnhancementStatus(ctx context.Context, id uuid.UUID, status string) error {
	return nil
}

type memQueueRepo struct{}

func (q *memQueueRepo) Enqueue(ctx context.Context, jobType string, payload interface{}) error {
	return nil
}

func (q *memQueueRepo) Dequeue(ctx context.Context, jobType string) (*domain.QueueJob, error) {
	return nil, nil
}

func (q *memQueueRepo) Complete(ctx context.Context, jobID string) error { return nil }

func (q *memQueueRepo) Fail(ctx context.Context, jobID string, errorMsg string) error { return nil }

func (q *memQueueRepo) GetPendingCount(ctx context.Context, jobType string) (int, error) {
	return 0, nil
}

func TestCreateProductNormalizesSourceURL(t *testing.T) {
	repo := &memProductRepo{}
	handler := NewProductsHandler(testLogger(), repo, &memQueueRepo{})
	auth := middleware.NewSellerAuth(&stubVerifier{sellerID: "seller-1"}, testLogger())
	wrapped := auth.Middleware(http.HandlerFunc(handler.CreateProduct))

	body := `{
		"name": "Beaded Necklace",
		"price": "35000",
		"sourceUrl": "https://www.Instagram.com/p/xyz789/?igshid=NTc4&utm_source=share"
	}`
	req := httptest.NewRequest("POST", "/api/v1/products", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer demo-token")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 created product, got %d", len(repo.created))
	}
	created := repo.created[0]
	want := "https://instagram.com/p/xyz789/"
	if created.SourceURL == nil || *created.SourceURL != want {
		t.Errorf("stored source URL not canonical: got %v, want %q", created.SourceURL, want)
	}
	if created.SellerID != "seller-1" {
		t.Errorf("expected authenticated seller, got %q", created.SellerID)
	}

	var dto ProductDto
	if err := json.NewDecoder(rec.Body).Decode(&dto); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if dto.SourceURL != want {
		t.Errorf("response source URL not canonical: got %q", dto.SourceURL)
	}
}
