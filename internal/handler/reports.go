package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/ledger/internal/ledger"
	"github.com/kiwari-pos/ledger/internal/report"
	"github.com/rs/zerolog/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportsLedger defines the ledger methods needed by report handlers.
// Satisfied by *ledger.Ledger; narrow interface for testability.
type ReportsLedger interface {
	Completed() []ledger.Order
	MenuIndex() map[int64]ledger.MenuItem
}

// ReportsHandler handles report endpoints over completed orders.
type ReportsHandler struct {
	ledger ReportsLedger
	now    func() time.Time
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(l ReportsLedger) *ReportsHandler {
	return &ReportsHandler{ledger: l, now: time.Now}
}

// RegisterRoutes registers report endpoints on the given Chi router.
// Expected to be mounted at /reports.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/summary", h.Summary)
	r.Get("/items", h.Items)
	r.Get("/categories", h.Categories)
	r.Get("/export", h.Export)
}

// --- Response types ---

type summaryResponse struct {
	Period     string `json:"period"`
	Revenue    string `json:"revenue"`
	Cost       string `json:"cost"`
	Profit     string `json:"profit"`
	MarginPct  string `json:"margin_pct"`
	OrderCount int    `json:"order_count"`
	ItemCount  int    `json:"item_count"`
}

type rollupResponse struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Revenue  string `json:"revenue"`
	Cost     string `json:"cost"`
	Profit   string `json:"profit"`
}

func toRollupResponses(rows []report.Rollup) []rollupResponse {
	out := make([]rollupResponse, len(rows))
	for i, row := range rows {
		out[i] = rollupResponse{
			Name:     row.Name,
			Quantity: row.Quantity,
			Revenue:  row.Revenue.StringFixed(2),
			Cost:     row.Cost.StringFixed(2),
			Profit:   row.Profit.StringFixed(2),
		}
	}
	return out
}

// --- Handlers ---

// Summary returns revenue, cost, profit and margin for the period.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	period, orders, ok := h.orders(w, r)
	if !ok {
		return
	}
	s := report.Totals(orders)
	writeJSON(w, http.StatusOK, summaryResponse{
		Period:     period,
		Revenue:    s.Revenue.StringFixed(2),
		Cost:       s.Cost.StringFixed(2),
		Profit:     s.Profit.StringFixed(2),
		MarginPct:  s.MarginPct.StringFixed(2),
		OrderCount: s.Count,
		ItemCount:  s.Items,
	})
}

// Items returns the best-selling items by revenue.
func (h *ReportsHandler) Items(w http.ResponseWriter, r *http.Request) {
	_, orders, ok := h.orders(w, r)
	if !ok {
		return
	}
	top := report.Top(report.ItemBreakdown(orders), parseLimit(r))
	writeJSON(w, http.StatusOK, toRollupResponses(top))
}

// Categories returns revenue per menu category.
func (h *ReportsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	_, orders, ok := h.orders(w, r)
	if !ok {
		return
	}
	top := report.Top(report.CategoryBreakdown(orders, h.ledger.MenuIndex()), parseLimit(r))
	writeJSON(w, http.StatusOK, toRollupResponses(top))
}

// Export downloads the period's completed orders as CSV (default) or XLSX.
func (h *ReportsHandler) Export(w http.ResponseWriter, r *http.Request) {
	period, orders, ok := h.orders(w, r)
	if !ok {
		return
	}

	name := fmt.Sprintf("orders-%s-%s", period, h.now().UTC().Format("2006-01-02"))
	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))
		if err := report.WriteCSV(w, orders); err != nil {
			log.Error().Err(err).Msg("write csv export")
		}
	case "xlsx":
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".xlsx"))
		if err := report.WriteXLSX(w, orders, parseLimit(r)); err != nil {
			log.Error().Err(err).Msg("write xlsx export")
		}
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be csv or xlsx"})
	}
}

// orders returns the completed orders within ?period=, writing a 400 when
// the period is unknown.
func (h *ReportsHandler) orders(w http.ResponseWriter, r *http.Request) (string, []ledger.Order, bool) {
	period, err := report.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return "", nil, false
	}
	return period, report.Filter(h.ledger.Completed(), period, h.now()), true
}

func parseLimit(r *http.Request) int {
	limit := report.DefaultTopN
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}
	return limit
}
