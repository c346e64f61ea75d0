package ledger

import (
	"github.com/kiwari-pos/ledger/internal/enum"
	"github.com/shopspring/decimal"
)

// FirstOrderNumber is the number given to the first placed order.
const FirstOrderNumber int64 = 1001

// DefaultSettings returns the settings used when none are stored.
func DefaultSettings() Settings {
	return Settings{
		TaxRate:           decimal.NewFromInt(5),
		Currency:          "₹",
		RestaurantName:    "Restaurant POS",
		AutoRefresh:       30,
		LowStockAlerts:    true,
		LowStockThreshold: 10,
	}
}

// DefaultCategories returns the starter category list.
func DefaultCategories() []Category {
	names := []string{"APPETIZERS", "WRAPS", "BURGERS", "SALADS", "DESSERTS"}
	out := make([]Category, len(names))
	for i, n := range names {
		out[i] = Category{Name: n, Active: true}
	}
	return out
}

// DefaultMenu returns the starter menu.
func DefaultMenu() []MenuItem {
	type row struct {
		cat   string
		name  string
		price int64
		cost  int64
		stock int
	}
	rows := []row{
		{"APPETIZERS", "Chicken loaded fries", 140, 70, 50},
		{"APPETIZERS", "Cheesy veg loaded fries", 125, 60, 50},
		{"APPETIZERS", "Salted fries", 99, 40, 100},
		{"APPETIZERS", "Peri peri fries", 109, 50, 50},
		{"APPETIZERS", "Chicken Nuggets (4 pcs)", 75, 35, 80},
		{"APPETIZERS", "Chicken Nuggets (6 pcs)", 99, 50, 80},

		{"WRAPS", "Chicken tikka wrap", 130, 70, 40},
		{"WRAPS", "Paneer tikka wrap", 120, 60, 40},
		{"WRAPS", "Chicken zinger wrap", 150, 80, 40},
		{"WRAPS", "Chicken nugget wrap", 120, 60, 40},

		{"BURGERS", "Classic Veg burger", 115, 50, 60},
		{"BURGERS", "Chicken Bliss burger", 135, 70, 60},

		{"SALADS", "Veg salad", 99, 40, 30},
		{"SALADS", "Signature chicken salad", 130, 60, 30},

		{"DESSERTS", "Chocolate brownie", 90, 30, 50},
		{"DESSERTS", "Red velvet brownie", 90, 30, 50},
		{"DESSERTS", "Lotus biscoff drip brownie", 130, 50, 30},
		{"DESSERTS", "Strawberry choco brownie", 110, 40, 30},
		{"DESSERTS", "Chocolate strawberry cup", 120, 45, 30},
	}

	menu := make([]MenuItem, len(rows))
	for i, r := range rows {
		stock := r.stock
		menu[i] = MenuItem{
			ID:       int64(i + 1),
			Category: r.cat,
			Name:     r.name,
			Price:    decimal.NewFromInt(r.price),
			Cost:     decimal.NewFromInt(r.cost),
			Stock:    &stock,
			Status:   enum.ItemStatusAvailable,
		}
	}
	return menu
}

func emptyDraft() Draft {
	return Draft{
		Items:         []LineItem{},
		OrderType:     enum.OrderTypeDineIn,
		PaymentMethod: enum.PaymentMethodCash,
	}
}
