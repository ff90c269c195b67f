package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/gatekeeper"
	"github.com/flipflow/flipflow/internal/pkg/httputil"
	"github.com/flipflow/flipflow/internal/store"
)

// allStatuses is the listing order for unfiltered listing queries.
var allStatuses = []domain.ListingStatus{
	domain.ListingDraft,
	domain.ListingQueued,
	domain.ListingActive,
	domain.ListingZombie,
	domain.ListingPurgatory,
	domain.ListingSold,
	domain.ListingEnded,
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

type createListingRequest struct {
	SKU           string           `json:"sku"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Brand         *string          `json:"brand"`
	Model         *string          `json:"model"`
	CategoryID    *string          `json:"category_id"`
	ConditionID   string           `json:"condition_id"`
	PurchasePrice decimal.Decimal  `json:"purchase_price"`
	ListPrice     decimal.Decimal  `json:"list_price"`
	ShippingCost  decimal.Decimal  `json:"shipping_cost"`
	PhotoURLs     []string         `json:"photo_urls"`
	STR           *decimal.Decimal `json:"sell_through_rate"`

	// Override flags for the gate exceptions.
	ProfitOverride bool `json:"profit_override"`
	STROverride    bool `json:"str_override"`
}

// CreateListing runs the full gatekeeper chain and stores a draft. A
// listing that fails the profit floor or the STR gate is rejected with
// the breakdown, unless the matching override flag is set.
func (h *Handlers) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.SKU == "" || req.Title == "" || req.ConditionID == "" {
		httputil.BadRequest(w, "sku, title and condition_id are required")
		return
	}
	if !req.ListPrice.IsPositive() {
		httputil.BadRequest(w, "list_price must be positive")
		return
	}

	brand, model := "", ""
	if req.Brand != nil {
		brand = *req.Brand
	}
	if req.Model != nil {
		model = *req.Model
	}
	titleResult := h.titles.Sanitize(req.Title, brand, model)
	mobileDesc := h.mobile.Enforce(req.Description)

	breakdown := h.profit.Calculate(gatekeeper.ProfitInput{
		SalePrice:     req.ListPrice,
		PurchasePrice: req.PurchasePrice,
		ShippingCost:  req.ShippingCost,
		AdRatePercent: decimal.Zero,
	})
	if !breakdown.MeetsFloor && !req.ProfitOverride {
		httputil.JSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "list price does not meet the profit floor",
			"profit": breakdown,
		})
		return
	}

	var strResult *gatekeeper.STRResult
	if req.STR != nil {
		res, err := h.str.ValidateManual(*req.STR, req.STROverride)
		if err != nil {
			httputil.JSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error": err.Error(),
			})
			return
		}
		strResult = &res
	}

	l := &domain.Listing{
		SKU:               req.SKU,
		Title:             req.Title,
		TitleSanitized:    &titleResult.Sanitized,
		Description:       req.Description,
		DescriptionMobile: &mobileDesc,
		Brand:             req.Brand,
		Model:             req.Model,
		CategoryID:        req.CategoryID,
		ConditionID:       req.ConditionID,
		PurchasePrice:     req.PurchasePrice,
		ListPrice:         req.ListPrice,
		ShippingCost:      req.ShippingCost,
		Status:            domain.ListingDraft,
		PhotoURLs:         req.PhotoURLs,
	}
	if strResult != nil {
		l.SellThroughRate = &strResult.STRValue
		src := string(strResult.Source)
		l.STRDataSource = &src
	}

	err := h.store.WithSession(r.Context(), func(sess store.Session) error {
		if _, err := sess.Listings().GetBySKU(r.Context(), req.SKU); err == nil {
			return errDuplicateSKU
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return sess.Listings().Create(r.Context(), l)
	})
	if errors.Is(err, errDuplicateSKU) {
		httputil.Conflict(w, "sku already exists")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.Created(w, map[string]any{
		"listing": l,
		"title":   titleResult,
		"profit":  breakdown,
		"str":     strResult,
	})
}

var errDuplicateSKU = errors.New("duplicate sku")

// ListListings returns listings, optionally filtered by status.
func (h *Handlers) ListListings(w http.ResponseWriter, r *http.Request) {
	statuses := allStatuses
	if s := r.URL.Query().Get("status"); s != "" {
		statuses = []domain.ListingStatus{domain.ListingStatus(s)}
	}

	var out []*domain.Listing
	err := h.store.WithSession(r.Context(), func(sess store.Session) error {
		for _, status := range statuses {
			listings, err := sess.Listings().ListByStatus(r.Context(), status)
			if err != nil {
				return err
			}
			out = append(out, listings...)
		}
		return nil
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"listings": out, "count": len(out)})
}

// GetListing returns one listing by id.
func (h *Handlers) GetListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.BadRequest(w, "invalid listing id")
		return
	}

	var l *domain.Listing
	err := h.store.WithSession(r.Context(), func(sess store.Session) error {
		var err error
		l, err = sess.Listings().Get(r.Context(), id)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		httputil.NotFound(w, "listing not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, l)
}

type updateListingRequest struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	ListPrice   *decimal.Decimal      `json:"list_price"`
	PhotoURLs   []string              `json:"photo_urls"`
	Status      *domain.ListingStatus `json:"status"`
}

// UpdateListing applies a partial update. Status changes go through the
// lifecycle DAG and invalid edges are rejected.
func (h *Handlers) UpdateListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.BadRequest(w, "invalid listing id")
		return
	}
	var req updateListingRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	var l *domain.Listing
	err := h.store.WithSession(r.Context(), func(sess store.Session) error {
		var err error
		l, err = sess.Listings().Get(r.Context(), id)
		if err != nil {
			return err
		}
		if req.Title != nil {
			l.Title = *req.Title
			res := h.titles.Sanitize(l.Title, deref(l.Brand), deref(l.Model))
			l.TitleSanitized = &res.Sanitized
		}
		if req.Description != nil {
			l.Description = *req.Description
			mobile := h.mobile.Enforce(l.Description)
			l.DescriptionMobile = &mobile
		}
		if req.ListPrice != nil {
			l.ListPrice = *req.ListPrice
		}
		if req.PhotoURLs != nil {
			l.PhotoURLs = req.PhotoURLs
		}
		if req.Status != nil {
			if err := l.Transition(*req.Status); err != nil {
				return err
			}
		}
		return sess.Listings().Update(r.Context(), l)
	})
	if errors.Is(err, store.ErrNotFound) {
		httputil.NotFound(w, "listing not found")
		return
	}
	if errors.Is(err, domain.ErrInvalidTransition) {
		httputil.Conflict(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, l)
}

// DeleteListing ends a listing. Drafts are soft-deleted; live listings
// transition to ended; sold listings cannot be deleted.
func (h *Handlers) DeleteListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.BadRequest(w, "invalid listing id")
		return
	}

	err := h.store.WithSession(r.Context(), func(sess store.Session) error {
		l, err := sess.Listings().Get(r.Context(), id)
		if err != nil {
			return err
		}
		switch {
		case l.Status == domain.ListingDraft || l.Status == domain.ListingQueued:
			now := time.Now().UTC()
			l.DeletedAt = &now
		default:
			if err := l.Transition(domain.ListingEnded); err != nil {
				return err
			}
		}
		return sess.Listings().Update(r.Context(), l)
	})
	if errors.Is(err, store.ErrNotFound) {
		httputil.NotFound(w, "listing not found")
		return
	}
	if errors.Is(err, domain.ErrInvalidTransition) {
		httputil.Conflict(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

// GetListingHistory aggregates the audit trail for one listing.
func (h *Handlers) GetListingHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.BadRequest(w, "invalid listing id")
		return
	}

	var (
		zombies   []*domain.ZombieRecord
		offers    []*domain.OfferRecord
		profits   []*domain.ProfitRecord
		snapshots []*domain.ListingSnapshot
	)
	err := h.store.WithSession(r.Context(), func(sess store.Session) error {
		if _, err := sess.Listings().Get(r.Context(), id); err != nil {
			return err
		}
		var err error
		if zombies, err = sess.Zombies().ListByListing(r.Context(), id); err != nil {
			return err
		}
		if offers, err = sess.Offers().ListByListing(r.Context(), id); err != nil {
			return err
		}
		if profits, err = sess.Profits().ListByListing(r.Context(), id); err != nil {
			return err
		}
		since := time.Now().UTC().AddDate(0, 0, -90)
		snapshots, err = sess.Snapshots().ListByListing(r.Context(), id, since)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		httputil.NotFound(w, "listing not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, map[string]any{
		"zombie_records": zombies,
		"offer_records":  offers,
		"profit_records": profits,
		"snapshots":      snapshots,
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
