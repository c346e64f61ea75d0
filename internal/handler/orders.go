package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/ledger/internal/events"
	"github.com/kiwari-pos/ledger/internal/ledger"
	"github.com/kiwari-pos/ledger/internal/middleware"
	"github.com/kiwari-pos/ledger/internal/report"
)

// OrderLedger defines the ledger methods needed by order handlers.
// Satisfied by *ledger.Ledger; narrow interface for testability.
type OrderLedger interface {
	Place(placedBy string) (ledger.Order, error)
	Hold(heldBy string) (ledger.Order, error)
	ResumeHeld(id string) (ledger.DraftView, []ledger.QuantityResult, error)
	MarkReady(id string) (ledger.Order, error)
	Complete(id, completedBy string) (ledger.Order, error)
	DeleteOngoing(id string) (ledger.Order, error)
	ClearCompleted() int
	Order(id string) (ledger.Order, error)
	Ongoing() []ledger.Order
	Completed() []ledger.Order
	LowStock() []ledger.MenuItem
}

// OrderHandler handles order lifecycle endpoints.
type OrderHandler struct {
	ledger OrderLedger
	sink   sink
	now    func() time.Time
}

// NewOrderHandler creates a new OrderHandler. pub may be nil.
func NewOrderHandler(l OrderLedger, saver Saver, pub events.Publisher) *OrderHandler {
	return &OrderHandler{ledger: l, sink: sink{saver: saver, pub: pub}, now: time.Now}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListOngoing)
	r.Post("/", h.Place)
	r.Post("/hold", h.Hold)
	r.Get("/completed", h.ListCompleted)
	r.With(middleware.RequireRole(managers...)).Delete("/completed", h.ClearCompleted)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/ready", h.MarkReady)
	r.Post("/{id}/complete", h.Complete)
	r.Post("/{id}/resume", h.Resume)
	r.Delete("/{id}", h.Delete)
}

// --- Response types ---

type orderResponse struct {
	ID            string         `json:"id"`
	Number        int64          `json:"number"`
	Status        string         `json:"status"`
	Items         []lineResponse `json:"items"`
	ItemCount     int            `json:"item_count"`
	CustomerName  string         `json:"customer_name"`
	CustomerPhone string         `json:"customer_phone"`
	OrderType     string         `json:"order_type"`
	PaymentMethod string         `json:"payment_method"`
	Notes         string         `json:"notes"`
	TaxRate       string         `json:"tax_rate"`
	Subtotal      string         `json:"subtotal"`
	Tax           string         `json:"tax"`
	Total         string         `json:"total"`
	TotalCost     string         `json:"total_cost"`
	Profit        string         `json:"profit"`
	StockDeducted bool           `json:"stock_deducted"`
	OrderTime     time.Time      `json:"order_time"`
	ReadyTime     *time.Time     `json:"ready_time"`
	CompletedTime *time.Time     `json:"completed_time"`
	PlacedBy      string         `json:"placed_by"`
	CompletedBy   string         `json:"completed_by"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Count  int             `json:"count"`
}

func toOrderResponse(o ledger.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		Number:        o.Number,
		Status:        o.Status,
		Items:         toLineResponses(o.Items),
		ItemCount:     o.ItemCount(),
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		OrderType:     o.OrderType,
		PaymentMethod: o.PaymentMethod,
		Notes:         o.Notes,
		TaxRate:       o.TaxRate.StringFixed(2),
		Subtotal:      o.Subtotal.StringFixed(2),
		Tax:           o.Tax.StringFixed(2),
		Total:         o.Total.StringFixed(2),
		TotalCost:     o.TotalCost.StringFixed(2),
		Profit:        o.Profit.StringFixed(2),
		StockDeducted: o.StockDeducted,
		OrderTime:     o.OrderTime,
		ReadyTime:     o.ReadyTime,
		CompletedTime: o.CompletedTime,
		PlacedBy:      o.PlacedBy,
		CompletedBy:   o.CompletedBy,
	}
}

func toOrderListResponse(orders []ledger.Order) orderListResponse {
	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	return orderListResponse{Orders: out, Count: len(out)}
}

// OngoingPayload renders the ongoing list the way GET /orders does. It feeds
// the periodic refresh broadcast.
func OngoingPayload(orders []ledger.Order) any {
	return toOrderListResponse(orders)
}

// --- Handlers ---

func (h *OrderHandler) ListOngoing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toOrderListResponse(h.ledger.Ongoing()))
}

// ListCompleted returns completed orders, optionally narrowed by ?period=.
func (h *OrderHandler) ListCompleted(w http.ResponseWriter, r *http.Request) {
	period, err := report.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	orders := report.Filter(h.ledger.Completed(), period, h.now())
	writeJSON(w, http.StatusOK, toOrderListResponse(orders))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.ledger.Order(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// Place turns the draft into a preparing order.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	o, err := h.ledger.Place(username(r))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := toOrderResponse(o)
	evs := event(events.OrderPlaced, o.ID, resp)
	if low := h.ledger.LowStock(); len(low) > 0 {
		evs = append(evs, event(events.StockLow, "", toMenuItemResponses(low))...)
	}
	h.sink.commit(w, r, evs...)
	writeJSON(w, http.StatusCreated, resp)
}

// Hold parks the draft without allocating an order number.
func (h *OrderHandler) Hold(w http.ResponseWriter, r *http.Request) {
	o, err := h.ledger.Hold(username(r))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := toOrderResponse(o)
	h.sink.commit(w, r, event(events.OrderHeld, o.ID, resp)...)
	writeJSON(w, http.StatusCreated, resp)
}

// Resume moves a held order back into the empty draft.
func (h *OrderHandler) Resume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, applied, err := h.ledger.ResumeHeld(id)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sink.commit(w, r, event(events.OrderResumed, id, map[string]string{"id": id})...)
	writeJSON(w, http.StatusOK, draftChangeResponse{
		Draft:   toDraftResponse(view),
		Applied: toQuantityResponses(applied),
	})
}

func (h *OrderHandler) MarkReady(w http.ResponseWriter, r *http.Request) {
	o, err := h.ledger.MarkReady(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := toOrderResponse(o)
	h.sink.commit(w, r, event(events.OrderReady, o.ID, resp)...)
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	o, err := h.ledger.Complete(chi.URLParam(r, "id"), username(r))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := toOrderResponse(o)
	h.sink.commit(w, r, event(events.OrderCompleted, o.ID, resp)...)
	writeJSON(w, http.StatusOK, resp)
}

// Delete removes an ongoing order and returns its stock. Requires
// ?confirm=true.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r) {
		return
	}
	o, err := h.ledger.DeleteOngoing(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := toOrderResponse(o)
	h.sink.commit(w, r, event(events.OrderDeleted, o.ID, resp)...)
	writeJSON(w, http.StatusOK, resp)
}

// ClearCompleted empties the completed list. Requires ?confirm=true.
func (h *OrderHandler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r) {
		return
	}
	n := h.ledger.ClearCompleted()
	h.sink.commit(w, r, event(events.CompletedCleared, "", map[string]int{"removed": n})...)
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}
