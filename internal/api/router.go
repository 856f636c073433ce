package api

import (
	"github.com/go-chi/chi/v5"

	"draftsmith/internal/draft"
	"draftsmith/internal/gitflow"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(drafts *draft.Service, git *gitflow.Engine, authEnabled bool, token string) chi.Router {
	h := NewHandler(drafts, git)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Post("/generate", h.Generate)
	r.Post("/patch", h.Patch)
	r.Post("/images", h.Images)
	r.Post("/git/push", h.GitPush)

	return r
}
