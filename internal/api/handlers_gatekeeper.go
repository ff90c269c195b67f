package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/flipflow/flipflow/internal/gatekeeper"
	"github.com/flipflow/flipflow/internal/pkg/httputil"
)

type titleRequest struct {
	Title string `json:"title"`
	Brand string `json:"brand"`
	Model string `json:"model"`
}

// SanitizeTitle previews the title gate.
func (h *Handlers) SanitizeTitle(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Title == "" {
		httputil.BadRequest(w, "title is required")
		return
	}
	httputil.OK(w, h.titles.Sanitize(req.Title, req.Brand, req.Model))
}

type descriptionRequest struct {
	Description string `json:"description"`
}

// EnforceMobileDescription previews the mobile description gate.
func (h *Handlers) EnforceMobileDescription(w http.ResponseWriter, r *http.Request) {
	var req descriptionRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	mobile := h.mobile.Enforce(req.Description)
	httputil.OK(w, map[string]any{
		"description_mobile": mobile,
		"mobile_safe":        h.mobile.IsMobileSafe(req.Description),
	})
}

// PreviewProfit returns the full fee breakdown for a prospective sale.
func (h *Handlers) PreviewProfit(w http.ResponseWriter, r *http.Request) {
	var in gatekeeper.ProfitInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	if !in.SalePrice.IsPositive() {
		httputil.BadRequest(w, "sale_price must be positive")
		return
	}
	httputil.OK(w, h.profit.Calculate(in))
}

type strRequest struct {
	STR      decimal.Decimal `json:"str"`
	Override bool            `json:"override"`
}

// ValidateSTR checks a manually researched sell-through rate.
func (h *Handlers) ValidateSTR(w http.ResponseWriter, r *http.Request) {
	var req strRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	res, err := h.str.ValidateManual(req.STR, req.Override)
	if err != nil {
		httputil.JSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
		return
	}
	httputil.OK(w, res)
}

type strEstimateRequest struct {
	Query     string `json:"query"`
	SoldCount int    `json:"sold_count"`
}

// EstimateSTR derives an estimated sell-through rate from a marketplace
// search: the active count comes from the browse API, the sold count
// from seller research. Estimated rates warn but never block.
func (h *Handlers) EstimateSTR(w http.ResponseWriter, r *http.Request) {
	var req strEstimateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Query == "" {
		httputil.BadRequest(w, "query is required")
		return
	}
	if req.SoldCount < 0 {
		httputil.BadRequest(w, "sold_count must not be negative")
		return
	}

	search, err := h.gw.SearchItems(r.Context(), req.Query, 50)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	str := gatekeeper.CalculateSTR(req.SoldCount, search.Total)
	res, err := h.str.ValidateEstimated(str)
	if err != nil {
		httputil.JSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
		return
	}
	httputil.OK(w, map[string]any{
		"active_count": search.Total,
		"sold_count":   req.SoldCount,
		"result":       res,
	})
}
