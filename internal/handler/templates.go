package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/ledger/internal/ledger"
)

// TemplateLedger defines the ledger methods needed by template handlers.
// Satisfied by *ledger.Ledger; narrow interface for testability.
type TemplateLedger interface {
	SaveTemplate(name string) (ledger.Template, error)
	Templates() ([]ledger.Template, error)
	DeleteTemplate(id uuid.UUID) error
	LoadTemplate(id uuid.UUID) (ledger.DraftView, []ledger.QuantityResult, error)
}

// TemplateHandler handles saved order templates.
type TemplateHandler struct {
	ledger TemplateLedger
	sink   sink
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(l TemplateLedger, saver Saver) *TemplateHandler {
	return &TemplateHandler{ledger: l, sink: sink{saver: saver}}
}

// RegisterRoutes registers template endpoints on the given Chi router.
// Expected to be mounted at /templates.
func (h *TemplateHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Save)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/load", h.Load)
}

// --- Request / Response types ---

type saveTemplateRequest struct {
	Name string `json:"name"`
}

type templateResponse struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Items        []lineResponse `json:"items"`
	CustomerName string         `json:"customer_name"`
	OrderType    string         `json:"order_type"`
	CreatedAt    time.Time      `json:"created_at"`
}

func toTemplateResponse(t ledger.Template) templateResponse {
	return templateResponse{
		ID:           t.ID,
		Name:         t.Name,
		Items:        toLineResponses(t.Items),
		CustomerName: t.CustomerName,
		OrderType:    t.OrderType,
		CreatedAt:    t.CreatedAt,
	}
}

// --- Handlers ---

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.ledger.Templates()
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]templateResponse, len(templates))
	for i, t := range templates {
		resp[i] = toTemplateResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Save stores the current draft as a template. The body is optional.
func (h *TemplateHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveTemplateRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	t, err := h.ledger.SaveTemplate(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sink.commit(w, r)
	writeJSON(w, http.StatusCreated, toTemplateResponse(t))
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid template ID"})
		return
	}
	if err := h.ledger.DeleteTemplate(id); err != nil {
		writeError(w, err)
		return
	}
	h.sink.commit(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// Load replaces the draft's lines with the template's.
func (h *TemplateHandler) Load(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid template ID"})
		return
	}
	view, applied, err := h.ledger.LoadTemplate(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draftChangeResponse{
		Draft:   toDraftResponse(view),
		Applied: toQuantityResponses(applied),
	})
}
