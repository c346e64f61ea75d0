package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/ledger/internal/ledger"
	"github.com/kiwari-pos/ledger/internal/middleware"
	"github.com/shopspring/decimal"
)

// SettingsLedger defines the ledger methods needed by settings handlers.
// Satisfied by *ledger.Ledger; narrow interface for testability.
type SettingsLedger interface {
	Settings() ledger.Settings
	UpdateSettings(s ledger.Settings) (ledger.Settings, error)
	Features() ledger.Features
}

// SettingsHandler handles restaurant settings.
type SettingsHandler struct {
	ledger SettingsLedger
	sink   sink
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(l SettingsLedger, saver Saver) *SettingsHandler {
	return &SettingsHandler{ledger: l, sink: sink{saver: saver}}
}

// RegisterRoutes registers settings endpoints on the given Chi router.
// Expected to be mounted at /settings.
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.With(middleware.RequireRole(managers...)).Put("/", h.Update)
}

// --- Request / Response types ---

type settingsRequest struct {
	TaxRate            string `json:"tax_rate"`
	Currency           string `json:"currency"`
	RestaurantName     string `json:"restaurant_name"`
	AutoRefresh        int    `json:"auto_refresh"`
	SoundNotifications bool   `json:"sound_notifications"`
	LowStockAlerts     bool   `json:"low_stock_alerts"`
	LowStockThreshold  int    `json:"low_stock_threshold"`
	DarkMode           bool   `json:"dark_mode"`
}

type featuresResponse struct {
	StockTracking bool `json:"stock_tracking"`
	CostTracking  bool `json:"cost_tracking"`
	Tax           bool `json:"tax"`
	Templates     bool `json:"templates"`
}

type settingsResponse struct {
	TaxRate            string           `json:"tax_rate"`
	Currency           string           `json:"currency"`
	RestaurantName     string           `json:"restaurant_name"`
	AutoRefresh        int              `json:"auto_refresh"`
	SoundNotifications bool             `json:"sound_notifications"`
	LowStockAlerts     bool             `json:"low_stock_alerts"`
	LowStockThreshold  int              `json:"low_stock_threshold"`
	DarkMode           bool             `json:"dark_mode"`
	Features           featuresResponse `json:"features"`
}

func (h *SettingsHandler) toResponse(s ledger.Settings) settingsResponse {
	f := h.ledger.Features()
	return settingsResponse{
		TaxRate:            s.TaxRate.StringFixed(2),
		Currency:           s.Currency,
		RestaurantName:     s.RestaurantName,
		AutoRefresh:        s.AutoRefresh,
		SoundNotifications: s.SoundNotifications,
		LowStockAlerts:     s.LowStockAlerts,
		LowStockThreshold:  s.LowStockThreshold,
		DarkMode:           s.DarkMode,
		Features: featuresResponse{
			StockTracking: f.StockTracking,
			CostTracking:  f.CostTracking,
			Tax:           f.Tax,
			Templates:     f.Templates,
		},
	}
}

// --- Handlers ---

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.toResponse(h.ledger.Settings()))
}

// Update replaces every setting. A blank currency or restaurant name keeps
// the current value.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(req.TaxRate))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tax_rate must be a decimal number"})
		return
	}

	s, err := h.ledger.UpdateSettings(ledger.Settings{
		TaxRate:            rate,
		Currency:           req.Currency,
		RestaurantName:     req.RestaurantName,
		AutoRefresh:        req.AutoRefresh,
		SoundNotifications: req.SoundNotifications,
		LowStockAlerts:     req.LowStockAlerts,
		LowStockThreshold:  req.LowStockThreshold,
		DarkMode:           req.DarkMode,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.sink.commit(w, r)
	writeJSON(w, http.StatusOK, h.toResponse(s))
}
