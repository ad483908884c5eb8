package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sentinel/internal/domain/dedupe"
	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/pkg/logger"
)

// BatchDependencies defines the interface for batch ingestion dependencies.
type BatchDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, b model.Batch) bool
}

// batchRequest mirrors the body of POST /batches.
type batchRequest struct {
	BatchID string        `json:"batch_id"`
	Items   []itemRequest `json:"items"`
}

type itemRequest struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	AuthorID  string   `json:"author_id"`
	Followers int64    `json:"followers"`
	Likes     int64    `json:"likes"`
	Reshares  int64    `json:"reshares"`
	Replies   int64    `json:"replies"`
	CreatedAt string   `json:"created_at"`
	Tokens    []string `json:"tokens"`
}

func (b *batchRequest) validate(maxItems int) error {
	switch {
	case len(b.Items) == 0:
		return errors.New("missing items")
	case len(b.Items) > maxItems:
		return fmt.Errorf("too many items: %d > %d", len(b.Items), maxItems)
	}
	for i := range b.Items {
		it := &b.Items[i]
		if strings.TrimSpace(it.ID) == "" {
			return fmt.Errorf("item %d: missing id", i)
		}
		if it.CreatedAt != "" {
			if _, err := time.Parse(time.RFC3339, it.CreatedAt); err != nil {
				return fmt.Errorf("item %s: invalid created_at; must be RFC3339", it.ID)
			}
		}
	}
	return nil
}

func (it *itemRequest) toModel(now time.Time) model.TextItem {
	created := now
	if it.CreatedAt != "" {
		created, _ = time.Parse(time.RFC3339, it.CreatedAt)
	}
	return model.TextItem{
		ID:        it.ID,
		Text:      it.Text,
		AuthorID:  it.AuthorID,
		Followers: it.Followers,
		Likes:     it.Likes,
		Reshares:  it.Reshares,
		Replies:   it.Replies,
		CreatedAt: created.UTC(),
		Tokens:    it.Tokens,
	}
}

type ackResponse struct {
	Status     string `json:"status"`
	BatchID    string `json:"batch_id,omitempty"`
	Accepted   int    `json:"accepted"`
	Duplicates int    `json:"duplicates"`
}

// BatchesHandler handles batch ingestion.
type BatchesHandler struct {
	deps     BatchDependencies
	maxItems int
	logger   logger.Logger
	now      func() time.Time
}

// NewBatchesHandler creates a new batches handler.
func NewBatchesHandler(deps BatchDependencies, maxItems int, l logger.Logger) *BatchesHandler {
	if maxItems < 1 {
		maxItems = defaultMaxBatchItems
	}
	if l == nil {
		l = logger.Discard()
	}
	return &BatchesHandler{deps: deps, maxItems: maxItems, logger: l, now: time.Now}
}

// HandlePostBatch handles POST /batches requests. Items already seen in an
// earlier batch are dropped; the rest are queued as one batch.
func (h *BatchesHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(h.maxItems); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ctx := r.Context()
	now := h.now()
	batch := model.Batch{ID: req.BatchID, ReceivedAt: now.UTC()}
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}

	duplicates := 0
	for i := range req.Items {
		if h.deps.SeenAndRecord(ctx, req.Items[i].ID) {
			duplicates++
			continue
		}
		batch.Items = append(batch.Items, req.Items[i].toModel(now))
	}

	if len(batch.Items) == 0 {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", BatchID: batch.ID, Duplicates: duplicates})
		return
	}

	if ok := h.deps.Enqueue(ctx, batch); !ok {
		// the items were never processed, so a retry must not see them as duplicates
		for i := range batch.Items {
			h.deps.Unrecord(ctx, batch.Items[i].ID)
		}
		h.logger.Warn(ctx, "batch rejected", logger.String("batch_id", batch.ID), logger.Int("items", len(batch.Items)))
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{
		Status:     "accepted",
		BatchID:    batch.ID,
		Accepted:   len(batch.Items),
		Duplicates: duplicates,
	})
}
