package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/ledger/internal/users"
)

// UserStore defines the directory methods needed by user handlers.
// Satisfied by *users.Directory; narrow interface for testability.
type UserStore interface {
	List() []users.User
	Create(username, fullName, password, role string) (users.User, error)
	Delete(id uuid.UUID) error
}

// UserHandler handles staff account endpoints. Mount it behind an admin
// role check.
type UserHandler struct {
	store UserStore
	sink  sink
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(store UserStore, saver Saver) *UserHandler {
	return &UserHandler{store: store, sink: sink{saver: saver}}
}

// RegisterRoutes registers user endpoints on the given Chi router.
// Expected to be mounted at /users.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
}

// --- Request types ---

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// --- Handlers ---

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	list := h.store.List()
	resp := make([]userResponse, len(list))
	for i, u := range list {
		resp[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	u, err := h.store.Create(req.Username, req.FullName, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sink.commit(w, r)
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user ID"})
		return
	}
	if err := h.store.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	h.sink.commit(w, r)
	w.WriteHeader(http.StatusNoContent)
}
