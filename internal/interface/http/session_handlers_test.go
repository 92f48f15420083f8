package http

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestLogin_RequiresToken(t *testing.T) {
	ta := setupAPI(t)
	rec := ta.do(t, http.MethodPost, "/api/v1/session/login", uuid.NewString(), map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestLogin_InvalidTokenReturns401(t *testing.T) {
	ta := setupAPI(t)
	rec := ta.do(t, http.MethodPost, "/api/v1/session/login", uuid.NewString(), map[string]any{"token": "garbage"})
	require.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())
}

func TestLogin_WithEmptyGuestCartOffersNothing(t *testing.T) {
	ta := setupAPI(t)
	sid := uuid.NewString()

	rec := ta.do(t, http.MethodPost, "/api/v1/session/login", sid, map[string]any{"token": ta.token(t, "u1")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	require.Equal(t, "u1", body["user"].(map[string]any)["user_id"])
	require.Nil(t, body["pending_merge"])
	require.Equal(t, "u1", body["cart"].(map[string]any)["owner"])
	require.NotContains(t, body, "cart_error")
}

func TestLogout_ReturnsToGuest(t *testing.T) {
	ta := setupAPI(t)
	sid := uuid.NewString()

	rec := ta.do(t, http.MethodPost, "/api/v1/session/login", sid, map[string]any{"token": ta.token(t, "u1")})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ta.do(t, http.MethodPost, "/api/v1/session/logout", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ta.do(t, http.MethodGet, "/api/v1/session", sid, nil)
	require.Nil(t, decode(t, rec)["user"])

	rec = ta.do(t, http.MethodGet, "/api/v1/cart", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decode(t, rec)["guest"])
}
