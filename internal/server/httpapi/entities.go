package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/linkstash/internal/common"
	"github.com/go-chi/chi/v5"
)

var validKinds = map[string]bool{
	"links":      true,
	"categories": true,
	"notes":      true,
}

type uploadRequest struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type uploadResponse struct {
	Key    string `json:"key"`
	PutURL string `json:"put_url"`
	GetURL string `json:"get_url"`
}

// UpsertEntity handles PUT /api/v1/{kind}/{id}. The body is the full entity
// document; it is stored as-is under the authenticated owner.
func (s *Server) UpsertEntity(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !validKinds[kind] {
		writeError(w, http.StatusNotFound, "unknown kind")
		return
	}
	id := chi.URLParam(r, "id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := userIDFrom(r.Context())
	if err := s.entities.Upsert(r.Context(), userID, kind, id, json.RawMessage(body)); err != nil {
		if errors.Is(err, common.ErrOwnerConflict) {
			writeError(w, http.StatusConflict, common.ErrOwnerConflict.Error())
			return
		}
		s.log.Error(r.Context(), "upsert failed", "kind", kind, "id", id, "error", err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListEntities handles GET /api/v1/{kind}: every document of that kind owned
// by the caller, tombstones included.
func (s *Server) ListEntities(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !validKinds[kind] {
		writeError(w, http.StatusNotFound, "unknown kind")
		return
	}

	userID := userIDFrom(r.Context())
	rows, err := s.entities.SelectAll(r.Context(), userID, kind)
	if err != nil {
		s.log.Error(r.Context(), "list failed", "kind", kind, "error", err.Error())
		writeError(w, http.StatusInternalServerError, common.ErrorInternal.Error())
		return
	}
	if rows == nil {
		rows = []json.RawMessage{}
	}

	writeJSON(w, http.StatusOK, rows)
}

// CreateUpload handles POST /api/v1/uploads: presigns an attachment slot.
func (s *Server) CreateUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	slot, err := s.files.CreateUploadSlot(r.Context(), req.Size)
	if err != nil {
		if errors.Is(err, common.ErrFileTooLarge) {
			writeError(w, http.StatusBadRequest, common.ErrFileTooLarge.Error())
			return
		}
		s.log.Error(r.Context(), "presign failed", "name", req.Name, "error", err.Error())
		writeError(w, http.StatusInternalServerError, common.ErrorInternal.Error())
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{Key: slot.Key, PutURL: slot.PutURL, GetURL: slot.GetURL})
}
