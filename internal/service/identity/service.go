package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"postcart/internal/domain"
)

// ErrInvalidToken is returned when no seller owns the presented API token.
var ErrInvalidToken = errors.New("invalid API token")

// Service resolves API tokens to seller identities.
type Service struct {
	sellers domain.SellerRepository
	logger  *slog.Logger
}

func New(sellers domain.SellerRepository, logger *slog.Logger) *Service {
	return &Service{
		sellers: sellers,
		logger:  logger,
	}
}

// Verify looks up the seller that owns the token and returns its ID.
func (s *Service) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	seller, err := s.sellers.GetByAPIToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("failed to verify token: %w", err)
	}

	return seller.ID, nil
}
