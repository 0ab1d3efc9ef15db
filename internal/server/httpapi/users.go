package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/linkstash/internal/common"
	"github.com/dmitrijs2005/linkstash/internal/server/services"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func toTokenResponse(pair *services.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       pair.UserID,
	}
}

// Register handles POST /api/v1/users/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	if _, err := s.users.Register(r.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, common.ErrorLoginAlreadyExists) {
			writeError(w, http.StatusConflict, common.ErrorLoginAlreadyExists.Error())
			return
		}
		s.log.Error(r.Context(), "register failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, common.ErrorInternal.Error())
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Login handles POST /api/v1/users/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, common.ErrorInvalidLoginPassword.Error())
			return
		}
		s.log.Error(r.Context(), "login failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, common.ErrorInternal.Error())
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

// Refresh handles POST /api/v1/users/refresh, rotating the refresh token.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := s.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRefreshTokenExpired):
			writeError(w, http.StatusUnauthorized, common.ErrRefreshTokenExpired.Error())
		case errors.Is(err, common.ErrorUnauthorized):
			writeError(w, http.StatusUnauthorized, common.ErrorUnauthorized.Error())
		default:
			s.log.Error(r.Context(), "refresh failed", "error", err.Error())
			writeError(w, http.StatusInternalServerError, common.ErrorInternal.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}
