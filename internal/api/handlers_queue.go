package api

import (
	"net/http"

	"github.com/flipflow/flipflow/internal/pkg/httputil"
)

type enqueueRequest struct {
	Priority int `json:"priority"`
}

// EnqueueListing puts a draft listing into the release queue.
func (h *Handlers) EnqueueListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.BadRequest(w, "invalid listing id")
		return
	}
	var req enqueueRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	entry, err := h.coord.EnqueueListing(r.Context(), id, req.Priority)
	if err != nil {
		writeActionError(w, err)
		return
	}
	httputil.Created(w, entry)
}

// ReleaseQueueBatch publishes the next batch of queued listings. With
// ?dry_run=true the selection is returned without mutation.
func (h *Handlers) ReleaseQueueBatch(w http.ResponseWriter, r *http.Request) {
	dryRun := r.URL.Query().Get("dry_run") == "true"
	report, err := h.coord.ReleaseQueueBatch(r.Context(), dryRun)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, report)
}

// CancelQueueEntry cancels a pending queue entry.
func (h *Handlers) CancelQueueEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.BadRequest(w, "invalid entry id")
		return
	}
	if err := h.coord.CancelQueueEntry(r.Context(), id); err != nil {
		writeActionError(w, err)
		return
	}
	httputil.NoContent(w)
}

// QueueStats reports queue depth and the surge window state.
func (h *Handlers) QueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.coord.QueueStats(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, stats)
}
