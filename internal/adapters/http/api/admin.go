package api

import (
	"context"
	"net/http"

	"github.com/okian/sentinel/pkg/logger"
)

// AdminDependencies defines operational actions.
type AdminDependencies interface {
	Reset(ctx context.Context)
}

// AdminHandler handles operational requests.
type AdminHandler struct {
	deps   AdminDependencies
	logger logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies, l logger.Logger) *AdminHandler {
	if l == nil {
		l = logger.Discard()
	}
	return &AdminHandler{deps: deps, logger: l}
}

// HandleReset handles POST /admin/reset. It drops every signal and every
// remembered item id.
func (h *AdminHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.deps.Reset(r.Context())
	h.logger.Info(r.Context(), "state reset", logger.String("remote", r.RemoteAddr))
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
