package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	domuser "example.com/storefront/internal/domain/user"
)

type mockTokenService struct {
	identities map[string]domuser.Identity
	parseErr   error
}

func (m *mockTokenService) ParseToken(token string) (*domuser.Identity, error) {
	if m.parseErr != nil {
		return nil, m.parseErr
	}
	id, ok := m.identities[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &id, nil
}

func TestAuthenticate_Success(t *testing.T) {
	svc := NewService(&mockTokenService{identities: map[string]domuser.Identity{
		"tok": {UserID: "u1", Email: "a@example.com"},
	}})

	id, err := svc.Authenticate(context.Background(), "Bearer tok")
	require.NoError(t, err)
	require.Equal(t, "u1", id.UserID)
	require.Equal(t, "a@example.com", id.Email)
}

func TestAuthenticate_EmptyToken(t *testing.T) {
	svc := NewService(&mockTokenService{})

	_, err := svc.Authenticate(context.Background(), "  ")
	require.ErrorIs(t, err, domuser.ErrInvalidCredential)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	svc := NewService(&mockTokenService{parseErr: errors.New("signature invalid")})

	_, err := svc.Authenticate(context.Background(), "tok")
	require.ErrorIs(t, err, domuser.ErrUnauthorized)
}

func TestAuthenticate_TokenWithoutUser(t *testing.T) {
	svc := NewService(&mockTokenService{identities: map[string]domuser.Identity{"tok": {}}})

	_, err := svc.Authenticate(context.Background(), "tok")
	require.ErrorIs(t, err, domuser.ErrUnauthorized)
}
