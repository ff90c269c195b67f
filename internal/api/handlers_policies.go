package api

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/pkg/httputil"
	"github.com/flipflow/flipflow/internal/policy"
	"github.com/flipflow/flipflow/internal/store"
)

// writeActionError maps engine errors onto HTTP statuses.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httputil.NotFound(w, "listing not found")
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, policy.ErrCampaignExists),
		errors.Is(err, policy.ErrListingNotActive):
		httputil.Conflict(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

// RunRepricer triggers a repricer scan.
func (h *Handlers) RunRepricer(w http.ResponseWriter, r *http.Request) {
	report, err := h.coord.RunRepricer(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, report)
}

// PreviewReprice shows the markdowns a scan would apply.
func (h *Handlers) PreviewReprice(w http.ResponseWriter, r *http.Request) {
	report, err := h.coord.PreviewReprice(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, report)
}

// RunZombieScan triggers a zombie detection pass.
func (h *Handlers) RunZombieScan(w http.ResponseWriter, r *http.Request) {
	result, err := h.coord.RunZombieScan(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, result)
}

// FlagZombie marks one listing as a zombie.
func (h *Handlers) FlagZombie(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.BadRequest(w, "invalid listing id")
		return
	}
	rec, err := h.coord.FlagZombie(r.Context(), id)
	if err != nil {
		writeActionError(w, err)
		return
	}
	httputil.OK(w, rec)
}

// ResurrectListing relists one zombie under a fresh identity.
func (h *Handlers) ResurrectListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.BadRequest(w, "invalid listing id")
		return
	}
	res, err := h.coord.ResurrectListing(r.Context(), id)
	if err != nil {
		writeActionError(w, err)
		return
	}
	httputil.OK(w, res)
}

// RunAutoRelist triggers a preventive-relist pass.
func (h *Handlers) RunAutoRelist(w http.ResponseWriter, r *http.Request) {
	report, err := h.coord.RunAutoRelist(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, report)
}

// PreviewAutoRelist lists the candidates a run would touch.
func (h *Handlers) PreviewAutoRelist(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.coord.PreviewAutoRelist(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"candidates": candidates, "count": len(candidates)})
}

// EnterPurgatory moves one exhausted zombie to liquidation pricing.
func (h *Handlers) EnterPurgatory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.BadRequest(w, "invalid listing id")
		return
	}
	entry, err := h.coord.EnterPurgatory(r.Context(), id)
	if err != nil {
		writeActionError(w, err)
		return
	}
	httputil.OK(w, entry)
}

// ScanDonations lists purgatory listings waiting on a human decision.
func (h *Handlers) ScanDonations(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.coord.ScanDonations(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"suggestions": suggestions, "count": len(suggestions)})
}

// PromoteListing starts a kickstarter campaign for one listing.
func (h *Handlers) PromoteListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.BadRequest(w, "invalid listing id")
		return
	}
	res, err := h.coord.PromoteListing(r.Context(), id)
	if err != nil {
		writeActionError(w, err)
		return
	}
	httputil.Created(w, res)
}

// RunCampaignCleanup ends expired kickstarter campaigns.
func (h *Handlers) RunCampaignCleanup(w http.ResponseWriter, r *http.Request) {
	report, err := h.coord.RunCampaignCleanup(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, report)
}

// RunOfferSnipe sends tiered offers to watchers.
func (h *Handlers) RunOfferSnipe(w http.ResponseWriter, r *http.Request) {
	report, err := h.coord.RunOfferSnipe(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, report)
}

type respondOfferRequest struct {
	OfferID string          `json:"offer_id"`
	BuyerID string          `json:"buyer_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// RespondToOffer answers an inbound buyer offer.
func (h *Handlers) RespondToOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.BadRequest(w, "invalid listing id")
		return
	}
	var req respondOfferRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.OfferID == "" || req.BuyerID == "" {
		httputil.BadRequest(w, "offer_id and buyer_id are required")
		return
	}
	if !req.Amount.IsPositive() {
		httputil.BadRequest(w, "amount must be positive")
		return
	}

	decision, err := h.coord.AnswerOffer(r.Context(), id, req.OfferID, req.BuyerID, req.Amount)
	if err != nil {
		writeActionError(w, err)
		return
	}
	httputil.OK(w, decision)
}

// RunPhotoShuffle rotates photos on unviewed listings.
func (h *Handlers) RunPhotoShuffle(w http.ResponseWriter, r *http.Request) {
	report, err := h.coord.RunPhotoShuffle(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, report)
}

// RunStorePulse sets handling time store-wide to the pulse value.
func (h *Handlers) RunStorePulse(w http.ResponseWriter, r *http.Request) {
	report, err := h.coord.RunStorePulse(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, report)
}

// RunStorePulseRevert puts handling time back to the resting value.
func (h *Handlers) RunStorePulseRevert(w http.ResponseWriter, r *http.Request) {
	report, err := h.coord.RunStorePulseRevert(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, report)
}

// RunSnapshotCollector writes today's listing snapshots.
func (h *Handlers) RunSnapshotCollector(w http.ResponseWriter, r *http.Request) {
	report, err := h.coord.RunSnapshotCollector(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, report)
}
