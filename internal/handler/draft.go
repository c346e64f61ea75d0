package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/ledger/internal/ledger"
)

// DraftLedger defines the ledger methods needed by draft handlers.
// Satisfied by *ledger.Ledger; narrow interface for testability.
type DraftLedger interface {
	Draft() ledger.DraftView
	SetQuantity(itemID int64, quantity int) (ledger.QuantityResult, error)
	AdjustQuantity(itemID int64, delta int) (ledger.QuantityResult, error)
	UpdateDraftDetails(d ledger.DraftDetails) (ledger.DraftView, error)
	ClearDraft()
}

// DraftHandler handles the counter's in-progress order. The draft is not
// persisted, so no save follows a change.
type DraftHandler struct {
	ledger DraftLedger
}

// NewDraftHandler creates a new DraftHandler.
func NewDraftHandler(l DraftLedger) *DraftHandler {
	return &DraftHandler{ledger: l}
}

// RegisterRoutes registers draft endpoints on the given Chi router.
// Expected to be mounted at /draft.
func (h *DraftHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Patch("/", h.UpdateDetails)
	r.Delete("/", h.Clear)
	r.Put("/items/{itemID}", h.SetQuantity)
	r.Post("/items/{itemID}/adjust", h.Adjust)
}

// --- Request / Response types ---

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

type draftDetailsRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	OrderType     string `json:"order_type"`
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes"`
}

type lineResponse struct {
	ItemID    int64  `json:"item_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Total     string `json:"total"`
	Cost      string `json:"cost"`
	TotalCost string `json:"total_cost"`
	Profit    string `json:"profit"`
}

type draftResponse struct {
	Items         []lineResponse `json:"items"`
	CustomerName  string         `json:"customer_name"`
	CustomerPhone string         `json:"customer_phone"`
	OrderType     string         `json:"order_type"`
	PaymentMethod string         `json:"payment_method"`
	Notes         string         `json:"notes"`
	TaxRate       string         `json:"tax_rate"`
	Subtotal      string         `json:"subtotal"`
	Tax           string         `json:"tax"`
	Total         string         `json:"total"`
}

type quantityResponse struct {
	ItemID    int64 `json:"item_id"`
	Quantity  int   `json:"quantity"`
	Clamped   bool  `json:"clamped"`
	Available int   `json:"available,omitempty"`
}

// draftChangeResponse pairs the updated draft with what was actually
// applied, so the terminal can warn about clamped quantities.
type draftChangeResponse struct {
	Draft   draftResponse      `json:"draft"`
	Applied []quantityResponse `json:"applied"`
}

func toLineResponses(items []ledger.LineItem) []lineResponse {
	out := make([]lineResponse, len(items))
	for i, it := range items {
		out[i] = lineResponse{
			ItemID:    it.ItemID,
			Name:      it.Name,
			Price:     it.Price.StringFixed(2),
			Quantity:  it.Quantity,
			Total:     it.Total.StringFixed(2),
			Cost:      it.Cost.StringFixed(2),
			TotalCost: it.TotalCost.StringFixed(2),
			Profit:    it.Profit.StringFixed(2),
		}
	}
	return out
}

func toDraftResponse(d ledger.DraftView) draftResponse {
	return draftResponse{
		Items:         toLineResponses(d.Items),
		CustomerName:  d.CustomerName,
		CustomerPhone: d.CustomerPhone,
		OrderType:     d.OrderType,
		PaymentMethod: d.PaymentMethod,
		Notes:         d.Notes,
		TaxRate:       d.TaxRate.StringFixed(2),
		Subtotal:      d.Subtotal.StringFixed(2),
		Tax:           d.Tax.StringFixed(2),
		Total:         d.Total.StringFixed(2),
	}
}

func toQuantityResponses(results []ledger.QuantityResult) []quantityResponse {
	out := make([]quantityResponse, len(results))
	for i, res := range results {
		out[i] = quantityResponse(res)
	}
	return out
}

// --- Handlers ---

func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toDraftResponse(h.ledger.Draft()))
}

func (h *DraftHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(chi.URLParam(r, "itemID"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Quantity == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity is required"})
		return
	}

	res, err := h.ledger.SetQuantity(itemID, *req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeChange(w, res)
}

func (h *DraftHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(chi.URLParam(r, "itemID"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res, err := h.ledger.AdjustQuantity(itemID, req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeChange(w, res)
}

func (h *DraftHandler) writeChange(w http.ResponseWriter, res ledger.QuantityResult) {
	writeJSON(w, http.StatusOK, draftChangeResponse{
		Draft:   toDraftResponse(h.ledger.Draft()),
		Applied: toQuantityResponses([]ledger.QuantityResult{res}),
	})
}

func (h *DraftHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	var req draftDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	view, err := h.ledger.UpdateDraftDetails(ledger.DraftDetails{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		OrderType:     req.OrderType,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(view))
}

func (h *DraftHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.ledger.ClearDraft()
	writeJSON(w, http.StatusOK, toDraftResponse(h.ledger.Draft()))
}
