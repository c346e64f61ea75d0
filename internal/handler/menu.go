package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/ledger/internal/ledger"
	"github.com/kiwari-pos/ledger/internal/middleware"
	"github.com/shopspring/decimal"
)

// MenuLedger defines the ledger methods needed by menu handlers.
// Satisfied by *ledger.Ledger; narrow interface for testability.
type MenuLedger interface {
	Menu() []ledger.MenuItem
	SearchMenu(term, category string) []ledger.MenuItem
	MenuItem(id int64) (ledger.MenuItem, error)
	AddMenuItem(in ledger.MenuItemInput) (ledger.MenuItem, error)
	UpdateMenuItem(id int64, in ledger.MenuItemInput) (ledger.MenuItem, error)
	DeleteMenuItem(id int64) error
	LowStock() []ledger.MenuItem
}

// MenuHandler handles menu item endpoints.
type MenuHandler struct {
	ledger MenuLedger
	sink   sink
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(l MenuLedger, saver Saver) *MenuHandler {
	return &MenuHandler{ledger: l, sink: sink{saver: saver}}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
// Expected to be mounted at /menu.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/low-stock", h.LowStock)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(managers...))
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// --- Request / Response types ---

type menuItemRequest struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Cost     string `json:"cost"`
	Stock    *int   `json:"stock"`
	Status   string `json:"status"`
}

type menuItemResponse struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Cost     string `json:"cost"`
	Stock    *int   `json:"stock"`
	Status   string `json:"status"`
}

func toMenuItemResponse(m ledger.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:       m.ID,
		Category: m.Category,
		Name:     m.Name,
		Price:    m.Price.StringFixed(2),
		Cost:     m.Cost.StringFixed(2),
		Stock:    m.Stock,
		Status:   m.Status,
	}
}

func toMenuItemResponses(items []ledger.MenuItem) []menuItemResponse {
	out := make([]menuItemResponse, len(items))
	for i, m := range items {
		out[i] = toMenuItemResponse(m)
	}
	return out
}

func (req menuItemRequest) toInput() (ledger.MenuItemInput, string) {
	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		return ledger.MenuItemInput{}, "price must be a decimal number"
	}
	cost := decimal.Zero
	if c := strings.TrimSpace(req.Cost); c != "" {
		if cost, err = decimal.NewFromString(c); err != nil {
			return ledger.MenuItemInput{}, "cost must be a decimal number"
		}
	}
	return ledger.MenuItemInput{
		Category: req.Category,
		Name:     req.Name,
		Price:    price,
		Cost:     cost,
		Stock:    req.Stock,
		Status:   req.Status,
	}, ""
}

// --- Handlers ---

// List returns the menu, optionally filtered by ?q= and ?category=.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term, category := q.Get("q"), q.Get("category")

	var items []ledger.MenuItem
	if term == "" && category == "" {
		items = h.ledger.Menu()
	} else {
		items = h.ledger.SearchMenu(term, category)
	}
	writeJSON(w, http.StatusOK, toMenuItemResponses(items))
}

func (h *MenuHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toMenuItemResponses(h.ledger.LowStock()))
}

func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseItemID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}
	item, err := h.ledger.MenuItem(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	in, msg := req.toInput()
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	item, err := h.ledger.AddMenuItem(in)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sink.commit(w, r)
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseItemID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}
	var req menuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	in, msg := req.toInput()
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	item, err := h.ledger.UpdateMenuItem(id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sink.commit(w, r)
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseItemID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}
	if err := h.ledger.DeleteMenuItem(id); err != nil {
		writeError(w, err)
		return
	}
	h.sink.commit(w, r)
	w.WriteHeader(http.StatusNoContent)
}
