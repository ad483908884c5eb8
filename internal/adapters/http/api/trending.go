package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/sentinel/internal/domain/model"
)

// TrendingDependencies defines the interface for the trending ranking.
type TrendingDependencies interface {
	Trending(ctx context.Context, limit int) []model.TrendingEntry
}

// TrendingHandler handles trending requests.
type TrendingHandler struct {
	deps     TrendingDependencies
	maxLimit int
}

// NewTrendingHandler creates a new trending handler.
func NewTrendingHandler(deps TrendingDependencies, maxLimit int) *TrendingHandler {
	if maxLimit < 1 {
		maxLimit = defaultMaxLimit
	}
	return &TrendingHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetTrending handles GET /trending?limit=N requests.
func (h *TrendingHandler) HandleGetTrending(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_trending"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := min(defaultTrendingLimit, h.maxLimit)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
	}
	entries := h.deps.Trending(r.Context(), n)
	if entries == nil {
		entries = []model.TrendingEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
