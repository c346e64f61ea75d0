package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem is a sellable catalog entry. Stock is nil when the item does not
// track inventory.
type MenuItem struct {
	ID       int64           `json:"id"`
	Category string          `json:"category"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	Stock    *int            `json:"stock,omitempty"`
	Status   string          `json:"status"`
}

// TracksStock reports whether the item carries an inventory count.
func (m MenuItem) TracksStock() bool { return m.Stock != nil }

// Category groups menu items. Names are stored upper-cased.
type Category struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Active      bool   `json:"active"`
}

// LineItem is a snapshot of a menu item at the moment its quantity was set.
type LineItem struct {
	ItemID    int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
	Cost      decimal.Decimal `json:"cost"`
	TotalCost decimal.Decimal `json:"totalCost"`
	Profit    decimal.Decimal `json:"profit"`
}

// Draft is the single in-progress order.
type Draft struct {
	Items         []LineItem `json:"items"`
	CustomerName  string     `json:"customerName"`
	CustomerPhone string     `json:"customerPhone"`
	OrderType     string     `json:"orderType"`
	PaymentMethod string     `json:"paymentMethod"`
	Notes         string     `json:"notes"`
}

// DraftView is a Draft plus its computed totals.
type DraftView struct {
	Draft
	TaxRate  decimal.Decimal `json:"taxRate"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// DraftDetails carries the non-item fields of the draft.
type DraftDetails struct {
	CustomerName  string
	CustomerPhone string
	OrderType     string
	PaymentMethod string
	Notes         string
}

// Order is a placed or held draft. Placed orders have a positive Number and
// ID == strconv(Number); held orders have Number 0 and a TEMP_ ID.
type Order struct {
	ID            string          `json:"id"`
	Number        int64           `json:"number"`
	Items         []LineItem      `json:"items"`
	CustomerName  string          `json:"customerName"`
	CustomerPhone string          `json:"customerPhone"`
	OrderType     string          `json:"orderType"`
	PaymentMethod string          `json:"paymentMethod"`
	Notes         string          `json:"notes"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	TotalCost     decimal.Decimal `json:"totalCost"`
	Profit        decimal.Decimal `json:"profit"`
	Status        string          `json:"status"`
	StockDeducted bool            `json:"stockDeducted"`
	OrderTime     time.Time       `json:"orderTime"`
	ReadyTime     *time.Time      `json:"readyTime,omitempty"`
	CompletedTime *time.Time      `json:"completedTime,omitempty"`
	PlacedBy      string          `json:"placedBy,omitempty"`
	CompletedBy   string          `json:"completedBy,omitempty"`
}

// ItemCount is the number of units across all lines.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// Template is a named, reusable set of line items.
type Template struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Items        []LineItem `json:"items"`
	CustomerName string     `json:"customerName"`
	OrderType    string     `json:"orderType"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type Settings struct {
	TaxRate            decimal.Decimal `json:"taxRate"`
	Currency           string          `json:"currency"`
	RestaurantName     string          `json:"restaurantName"`
	AutoRefresh        int             `json:"autoRefresh"`
	SoundNotifications bool            `json:"soundNotifications"`
	LowStockAlerts     bool            `json:"lowStockAlerts"`
	LowStockThreshold  int             `json:"lowStockThreshold"`
	DarkMode           bool            `json:"darkMode"`
}

// Features toggles the optional behaviour of a Ledger.
type Features struct {
	StockTracking bool
	CostTracking  bool
	Tax           bool
	Templates     bool
}

// AllFeatures enables every optional behaviour.
func AllFeatures() Features {
	return Features{StockTracking: true, CostTracking: true, Tax: true, Templates: true}
}

// QuantityResult reports the quantity actually applied to a draft line.
// Clamped is set when the request exceeded the available stock.
type QuantityResult struct {
	ItemID    int64 `json:"itemId"`
	Quantity  int   `json:"quantity"`
	Clamped   bool  `json:"clamped"`
	Available int   `json:"available,omitempty"`
}

// State is the persisted form of a Ledger. The draft is not part of it.
type State struct {
	Menu       []MenuItem
	Categories []Category
	Ongoing    []Order
	Completed  []Order
	Templates  []Template
	Settings   Settings
	NextNumber int64
}
