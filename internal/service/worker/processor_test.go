package worker

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"postcart/internal/domain"
	"postcart/internal/service/enhance"
	"postcart/internal/service/extractor"
	"postcart/internal/service/meta"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProductRepo keeps products in memory, keyed by ID and source URL
type fakeProductRepo struct {
	products map[uuid.UUID]*domain.Product
	statuses map[uuid.UUID]string
	created  []*domain.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: map[uuid.UUID]*domain.Product{},
		statuses: map[uuid.UUID]string{},
	}
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (r *fakeProductRepo) Create(ctx context.Context, product *domain.Product) error {
	r.products[product.ID] = product
	r.created = append(r.created, product)
	return nil
}

func (r *fakeProductRepo) Update(ctx context.Context, product *domain.Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) GetBySourceURL(ctx context.Context, sellerID, sourceURL string) (*domain.Product, error) {
	for _, p := range r.products {
		if p.SellerID == sellerID && p.SourceURL != nil && *p.SourceURL == sourceURL {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeProductRepo) GetRecentBySeller(ctx context.Context, sellerID string, cursor *time.Time, limit int) ([]*domain.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) GetPublishedBySeller(ctx context.Context, sellerID string, cursor *time.Time, limit int) ([]*domain.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) Search(ctx context.Context, sellerID, query string, cursor *time.Time, limit int) ([]*domain.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) CountByPlatform(ctx context.Context, sellerID string) (map[string]int, error) {
	return map[string]int{}, nil
}

func (r *fakeProductRepo) UpdateEnhancementStatus(ctx context.Context, id uuid.UUID, status string) error {
	r.statuses[id] = status
	if p, ok := r.products[id]; ok {
		p.EnhancementStatus = status
	}
	return nil
}

type fakeSellerRepo struct {
	sellers map[string]*domain.Seller
}

func (r *fakeSellerRepo) GetByID(ctx context.Context, id string) (*domain.Seller, error) {
	s, ok := r.sellers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (r *fakeSellerRepo) GetByAPIToken(ctx context.Context, token string) (*domain.Seller, error) {
	return nil, sql.ErrNoRows
}

func (r *fakeSellerRepo) Create(ctx context.Context, seller *domain.Seller) error { return nil }

func (r *fakeSellerRepo) UpdateSettings(ctx context.Context, id string, settings map[string]interface{}) error {
	return nil
}

func (r *fakeSellerRepo) UpdateMetaToken(ctx context.Context, id, token string) error { return nil }

// fakeBlobStore records puts and returns deterministic URLs
type fakeBlobStore struct {
	keys []string
	err  error
}

func (s *fakeBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.keys = append(s.keys, key)
	return "https://cdn.postcart.shop/" + key, nil
}

type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, rawURL string, category domain.URLCategory) (domain.ContentDescriptor, bool) {
	return domain.ContentDescriptor{}, false
}

type stubAI struct {
	response string
}

func (a *stubAI) Generate(ctx context.Context, prompt string) (string, error) {
	return a.response, nil
}

func TestProcessImageEnhancement(t *testing.T) {
	photoroom := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("enhanced-jpeg-bytes"))
	}))
	defer photoroom.Close()

	productRepo := newFakeProductRepo()
	productID := uuid.New()
	productRepo.products[productID] = &domain.Product{
		ID:       productID,
		SellerID: "seller-1",
		Name:     "Leather Handbag",
		Image:    "https://cdn/original.jpg",
	}

	blobStore := &fakeBlobStore{}
	processor := NewJobProcessor(
		testLogger(),
		productRepo,
		&fakeSellerRepo{},
		blobStore,
		enhance.NewClient("key", photoroom.URL, testLogger()),
		meta.NewClient("", "", "", "http://unused", testLogger()),
		extractor.New(testLogger(), stubFetcher{}, &stubAI{}, false),
	)

	payload := map[string]interface{}{"product_id": productID.String()}
	if err := processor.ProcessImageEnhancement(context.Background(), payload, testLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	product := productRepo.products[productID]
	if product.EnhancementStatus != domain.EnhancementStatusComplete {
		t.Errorf("expected complete status, got %q", product.EnhancementStatus)
	}
	wantKey := fmt.Sprintf("enhanced/seller-1/%s.jpg", productID)
	if len(blobStore.keys) != 1 || blobStore.keys[0] != wantKey {
		t.Errorf("expected blob key %q, got %v", wantKey, blobStore.keys)
	}
	if !strings.HasPrefix(product.Image, "https://cdn.postcart.shop/enhanced/") {
		t.Errorf("expected product image to point at the stored copy, got %q", product.Image)
	}
	if _, ok := product.Metadata["enhanced_at"]; !ok {
		t.Error("expected enhanced_at metadata")
	}
}

func TestProcessImageEnhancementFailureMarksProduct(t *testing.T) {
	photoroom := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer photoroom.Close()

	productRepo := newFakeProductRepo()
	productID := uuid.New()
	productRepo.products[productID] = &domain.Product{
		ID:       productID,
		SellerID: "seller-1",
		Image:    "https://cdn/original.jpg",
	}

	processor := NewJobProcessor(
		testLogger(),
		productRepo,
		&fakeSellerRepo{},
		&fakeBlobStore{},
		enhance.NewClient("key", photoroom.URL, testLogger()),
		meta.NewClient("", "", "", "http://unused", testLogger()),
		extractor.New(testLogger(), stubFetcher{}, &stubAI{}, false),
	)

	payload := map[string]interface{}{"product_id": productID.String()}
	if err := processor.ProcessImageEnhancement(context.Background(), payload, testLogger()); err == nil {
		t.Fatal("expected error when enhancement fails")
	}

	if got := productRepo.statuses[productID]; got != domain.EnhancementStatusFailed {
		t.Errorf("expected failed status recorded, got %q", got)
	}
	if got := productRepo.products[productID].Image; got != "https://cdn/original.jpg" {
		t.Errorf("expected original image untouched, got %q", got)
	}
}

func TestProcessImageEnhancementBadPayload(t *testing.T) {
	processor := NewJobProcessor(
		testLogger(),
		newFakeProductRepo(),
		&fakeSellerRepo{},
		&fakeBlobStore{},
		enhance.NewClient("key", "http://unused", testLogger()),
		meta.NewClient("", "", "", "http://unused", testLogger()),
		extractor.New(testLogger(), stubFetcher{}, &stubAI{}, false),
	)

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{"missing product_id", map[string]interface{}{}},
		{"non-string product_id", map[string]interface{}{"product_id": 42}},
		{"malformed uuid", map[string]interface{}{"product_id": "not-a-uuid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := processor.ProcessImageEnhancement(context.Background(), tt.payload, testLogger()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestProcessMediaImport(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/me/accounts"):
			fmt.Fprint(w, `{"data":[{"name":"Shop","instagram_business_account":{"id":"ig-9"}}]}`)
		case strings.HasPrefix(r.URL.Path, "/ig-9/media"):
			fmt.Fprint(w, `{"data":[
				{"id":"m1","caption":"Beaded necklace 35k","media_url":"https://cdn/ig/m1.jpg","timestamp":"2026-08-01T10:00:00+0000"},
				{"id":"m2","caption":"","media_url":"https://cdn/ig/m2.jpg"},
				{"id":"m3","caption":"Ankara dress 55,000 TZS","media_url":"https://cdn/ig/m3.jpg","timestamp":"2026-08-02T10:00:00+0000"}
			]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer graph.Close()

	token := "seller-meta-token"
	sellerRepo := &fakeSellerRepo{sellers: map[string]*domain.Seller{
		"seller-1": {ID: "seller-1", MetaToken: &token},
	}}
	productRepo := newFakeProductRepo()

	// a previous import already created m1
	existingSource := "instagram://media/m1"
	existingID := uuid.New()
	productRepo.products[existingID] = &domain.Product{
		ID:        existingID,
		SellerID:  "seller-1",
		SourceURL: &existingSource,
	}

	ai := &stubAI{response: `{"name":"Ankara Dress","price":"55000","description":"Bold print dress"}`}
	processor := NewJobProcessor(
		testLogger(),
		productRepo,
		sellerRepo,
		&fakeBlobStore{},
		enhance.NewClient("", "http://unused", testLogger()),
		meta.NewClient("app", "secret", "http://cb", graph.URL, testLogger()),
		extractor.New(testLogger(), stubFetcher{}, ai, false),
	)

	payload := map[string]interface{}{"seller_id": "seller-1"}
	if err := processor.ProcessMediaImport(context.Background(), payload, testLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// m1 is a duplicate, m2 has no caption; only m3 imports
	if len(productRepo.created) != 1 {
		t.Fatalf("expected 1 imported product, got %d", len(productRepo.created))
	}
	imported := productRepo.created[0]
	if imported.Name != "Ankara Dress" || imported.Price != "55000" {
		t.Errorf("unexpected imported fields: %q %q", imported.Name, imported.Price)
	}
	if imported.Status != domain.ProductStatusDraft {
		t.Errorf("expected draft status, got %q", imported.Status)
	}
	if imported.SourceURL == nil || *imported.SourceURL != "instagram://media/m3" {
		t.Errorf("unexpected source URL: %v", imported.SourceURL)
	}
	if imported.Image != "https://cdn/ig/m3.jpg" {
		t.Errorf("unexpected image: %q", imported.Image)
	}
	if imported.Metadata["media_id"] != "m3" {
		t.Errorf("unexpected media_id metadata: %v", imported.Metadata["media_id"])
	}
}

func TestProcessMediaImportNoConnection(t *testing.T) {
	sellerRepo := &fakeSellerRepo{sellers: map[string]*domain.Seller{
		"seller-1": {ID: "seller-1"},
	}}
	processor := NewJobProcessor(
		testLogger(),
		newFakeProductRepo(),
		sellerRepo,
		&fakeBlobStore{},
		enhance.NewClient("", "http://unused", testLogger()),
		meta.NewClient("app", "secret", "http://cb", "http://unused", testLogger()),
		extractor.New(testLogger(), stubFetcher{}, &stubAI{}, false),
	)

	payload := map[string]interface{}{"seller_id": "seller-1"}
	if err := processor.ProcessMediaImport(context.Background(), payload, testLogger()); err == nil {
		t.Fatal("expected error for seller without a Meta connection")
	}
}
