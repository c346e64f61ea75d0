package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/ledger/internal/ledger"
	"github.com/kiwari-pos/ledger/internal/middleware"
)

// CategoryLedger defines the ledger methods needed by category handlers.
// Satisfied by *ledger.Ledger; narrow interface for testability.
type CategoryLedger interface {
	Categories() []ledger.Category
	AddCategory(c ledger.Category) (ledger.Category, error)
	DeleteCategory(name string) (int, error)
}

// CategoryHandler handles category endpoints.
type CategoryHandler struct {
	ledger CategoryLedger
	sink   sink
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(l CategoryLedger, saver Saver) *CategoryHandler {
	return &CategoryHandler{ledger: l, sink: sink{saver: saver}}
}

// RegisterRoutes registers category endpoints on the given Chi router.
// Expected to be mounted at /categories.
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(managers...))
		r.Post("/", h.Create)
		r.Delete("/{name}", h.Delete)
	})
}

// --- Request / Response types ---

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type categoryResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Active      bool   `json:"active"`
}

func toCategoryResponse(c ledger.Category) categoryResponse {
	return categoryResponse{
		Name:        c.Name,
		Description: c.Description,
		Icon:        c.Icon,
		Active:      c.Active,
	}
}

// --- Handlers ---

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	cats := h.ledger.Categories()
	resp := make([]categoryResponse, len(cats))
	for i, c := range cats {
		resp[i] = toCategoryResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	cat, err := h.ledger.AddCategory(ledger.Category{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.sink.commit(w, r)
	writeJSON(w, http.StatusCreated, toCategoryResponse(cat))
}

// Delete removes a category and every menu item in it. The cascade is
// destructive, so ?confirm=true is required.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r) {
		return
	}
	removed, err := h.ledger.DeleteCategory(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.sink.commit(w, r)
	writeJSON(w, http.StatusOK, map[string]int{"removed_items": removed})
}
