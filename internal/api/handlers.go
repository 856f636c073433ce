package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"draftsmith/internal/apperr"
	"draftsmith/internal/draft"
	"draftsmith/internal/gitflow"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	drafts *draft.Service
	git    *gitflow.Engine
}

// NewHandler creates a new Handler.
func NewHandler(drafts *draft.Service, git *gitflow.Engine) *Handler {
	return &Handler{drafts: drafts, git: git}
}

// decode reads and unmarshals the request body into req.
func decode(w http.ResponseWriter, r *http.Request, req any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// writeError maps an operation error onto the four externally visible
// failure kinds. Anything outside the sentinels is logged in full and
// answered with the generic message only.
func writeError(w http.ResponseWriter, err error, logMsg, generic string) {
	switch {
	case errors.Is(err, apperr.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("file not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	default:
		slog.Error(logMsg, slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody(generic))
	}
}

// Generate handles POST /generate: create a new draft file.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.drafts.Generate(r.Context(), draft.GenerateRequest{
		Emoji:      req.Emoji,
		Title:      req.Title,
		Brief:      req.Brief,
		Outline:    req.Outline,
		Categories: req.Categories,
		Date:       req.Date,
		Slug:       req.Slug,
	})
	if err != nil {
		writeError(w, err, "generate draft failed", "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Patch handles POST /patch: patch an existing draft's body.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	var req PatchRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.drafts.Patch(r.Context(), draft.PatchRequest{
		Date:         req.Date,
		Categories:   req.Categories,
		Title:        req.Title,
		BodyMarkdown: req.BodyMarkdown,
		Mode:         req.Mode,
		Placeholder:  req.Placeholder,
	})
	if err != nil {
		writeError(w, err, "patch draft failed", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Images handles POST /images: compute image URLs and rewrite slots.
func (h *Handler) Images(w http.ResponseWriter, r *http.Request) {
	var req ImagesRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.drafts.ApplyImages(r.Context(), draft.ImagesRequest{
		Date:                       req.Date,
		Categories:                 req.Categories,
		Title:                      req.Title,
		Targets:                    req.Targets,
		Mode:                       req.Mode,
		SlotPrefix:                 req.SlotPrefix,
		ImageExt:                   req.ImageExt,
		BaseURL:                    req.BaseURL,
		UpdateFrontmatterThumbnail: req.UpdateFrontmatterThumbnail,
	})
	if err != nil {
		writeError(w, err, "apply images failed", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GitPush handles POST /git/push: stage, commit, and push the given paths.
func (h *Handler) GitPush(w http.ResponseWriter, r *http.Request) {
	var req GitPushRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.git.Push(r.Context(), gitflow.PushRequest{
		BranchPrefix:  req.BranchPrefix,
		CommitMessage: req.CommitMessage,
		Paths:         req.Paths,
	})
	if err != nil {
		writeError(w, err, "git push failed", "git command failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
