package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/internal/domain/types"
)

// SignalDependencies defines the read operations on a token's signals.
type SignalDependencies interface {
	CurrentSignal(ctx context.Context, symbol string) (model.TokenSignal, bool)
	History(ctx context.Context, symbol string) []model.TokenSignal
}

// SignalsHandler handles signal and history requests.
type SignalsHandler struct {
	deps SignalDependencies
}

// NewSignalsHandler creates a new signals handler.
func NewSignalsHandler(deps SignalDependencies) *SignalsHandler {
	return &SignalsHandler{deps: deps}
}

// HandleGetSignal handles GET /signals/{symbol} requests.
func (h *SignalsHandler) HandleGetSignal(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_signal"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	symbol, err := symbolFromPath(r.URL.Path, "/signals/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sig, ok := h.deps.CurrentSignal(r.Context(), symbol)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, sig)
}

// HandleGetHistory handles GET /history/{symbol} requests. A token with no
// signals yet has an empty history.
func (h *SignalsHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	symbol, err := symbolFromPath(r.URL.Path, "/history/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	history := h.deps.History(r.Context(), symbol)
	if history == nil {
		history = []model.TokenSignal{}
	}
	writeJSON(w, http.StatusOK, history)
}

func symbolFromPath(path, prefix string) (string, error) {
	raw := strings.TrimPrefix(path, prefix)
	if strings.Contains(raw, "/") {
		return "", types.ErrInvalidSymbol
	}
	return types.NormalizeSymbol(raw)
}
