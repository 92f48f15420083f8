package auth

import (
	"context"
	"strings"

	domuser "example.com/storefront/internal/domain/user"
)

// TokenService verifies tokens issued by the storefront's identity provider.
type TokenService interface {
	ParseToken(token string) (*domuser.Identity, error)
}

type Service struct {
	tokens TokenService
}

func NewService(tokens TokenService) *Service {
	return &Service{tokens: tokens}
}

// Authenticate resolves a bearer token to the shopper it was issued for.
func (s *Service) Authenticate(_ context.Context, token string) (*domuser.Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, domuser.ErrInvalidCredential
	}

	id, err := s.tokens.ParseToken(token)
	if err != nil || id == nil || id.UserID == "" {
		return nil, domuser.ErrUnauthorized
	}
	return id, nil
}
