package http

import (
	"net/http"
)

type loginRequest struct {
	Token string `json:"token" validate:"required"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	s, ok := withSession(w, r)
	if !ok {
		return
	}

	var req loginRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	id, err := a.authSvc.Authenticate(r.Context(), req.Token)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	resp := map[string]any{"user": mapIdentity(id)}
	// The login itself stands even when the member cart could not be loaded.
	if err := s.Login(r.Context(), *id); err != nil {
		resp["cart_error"] = err.Error()
	}
	resp["cart"] = mapCart(s.Cart().Active().Get())
	resp["pending_merge"] = mapMergeOffer(s.Cart().PendingMerge().Get())
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	s, ok := withSession(w, r)
	if !ok {
		return
	}
	s.Logout()
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := withSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":    s.ID(),
		"user":          mapIdentity(s.Identity()),
		"cart_count":    s.Cart().Count().Get(),
		"pending_merge": mapMergeOffer(s.Cart().PendingMerge().Get()),
	})
}
