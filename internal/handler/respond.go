package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/kiwari-pos/ledger/internal/enum"
	"github.com/kiwari-pos/ledger/internal/events"
	"github.com/kiwari-pos/ledger/internal/ledger"
	"github.com/kiwari-pos/ledger/internal/middleware"
	"github.com/kiwari-pos/ledger/internal/users"
	"github.com/rs/zerolog/log"
)

// WarningHeader carries a non-fatal problem with an otherwise successful
// request, such as a failed save.
const WarningHeader = "X-Ledger-Warning"

// Saver persists state after a mutation.
// Satisfied by *persist.Saver; narrow interface for testability.
type Saver interface {
	Save(ctx context.Context) error
}

// managers may edit the catalog and settings.
var managers = []string{enum.UserRoleAdmin, enum.UserRoleManager}

// sink saves and announces the result of a mutation. Either field may be
// nil.
type sink struct {
	saver Saver
	pub   events.Publisher
}

// commit persists state and publishes evs. It must run before the response
// is written so the warning header can still be set. Neither failure
// undoes the mutation.
func (s sink) commit(w http.ResponseWriter, r *http.Request, evs ...events.Event) {
	if s.saver != nil {
		if err := s.saver.Save(r.Context()); err != nil {
			w.Header().Set(WarningHeader, "changes not saved: "+err.Error())
		}
	}
	if s.pub == nil {
		return
	}
	for _, e := range evs {
		if err := s.pub.Publish(r.Context(), e); err != nil {
			log.Warn().Err(err).Str("event", e.Type).Msg("publish event")
		}
	}
}

// event builds an event, logging and dropping it when the payload cannot
// be encoded.
func event(typ, key string, payload any) []events.Event {
	e, err := events.New(typ, key, payload)
	if err != nil {
		log.Error().Err(err).Str("event", typ).Msg("encode event")
		return nil
	}
	return []events.Event{e}
}

// --- Errors ---

// isValidationError checks if the error is a known validation error
// that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, ledger.ErrEmptyOrder) ||
		errors.Is(err, ledger.ErrInvalidMenuItem) ||
		errors.Is(err, ledger.ErrUnknownCategory) ||
		errors.Is(err, ledger.ErrInvalidCategory) ||
		errors.Is(err, ledger.ErrInvalidOrderType) ||
		errors.Is(err, ledger.ErrInvalidPaymentMethod) ||
		errors.Is(err, ledger.ErrInvalidSettings) ||
		errors.Is(err, users.ErrInvalidUser)
}

func isConflictError(err error) bool {
	return errors.Is(err, ledger.ErrInsufficientStock) ||
		errors.Is(err, ledger.ErrInvalidTransition) ||
		errors.Is(err, ledger.ErrDuplicateCategory) ||
		errors.Is(err, ledger.ErrDraftNotEmpty) ||
		errors.Is(err, users.ErrDuplicateUsername) ||
		errors.Is(err, users.ErrLastAdmin)
}

// writeError maps a ledger or user error to its HTTP status.
func writeError(w http.ResponseWriter, err error) {
	var stockErr *ledger.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     err.Error(),
			"item_id":   stockErr.ItemID,
			"item":      stockErr.Item,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, users.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case isConflictError(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, ledger.ErrFeatureDisabled):
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// requireConfirm rejects destructive requests that lack ?confirm=true with
// 428 Precondition Required.
func requireConfirm(w http.ResponseWriter, r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if !ok {
		writeJSON(w, http.StatusPreconditionRequired, map[string]string{"error": "confirmation required: repeat with ?confirm=true"})
		return false
	}
	return true
}

func parseItemID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}

func username(r *http.Request) string {
	return middleware.Username(r.Context())
}
