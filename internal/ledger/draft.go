package ledger

import (
	"fmt"
	"math"
	"slices"

	"github.com/kiwari-pos/ledger/internal/enum"
	"github.com/shopspring/decimal"
)

// Draft returns the current draft with its computed totals.
func (l *Ledger) Draft() DraftView {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.draftView()
}

func (l *Ledger) draftView() DraftView {
	d := l.draft
	d.Items = slices.Clone(d.Items)
	rate := l.taxRate()
	sub, tax, total := totals(d.Items, rate)
	return DraftView{Draft: d, TaxRate: rate, Subtotal: sub, Tax: tax, Total: total}
}

// SetQuantity sets the draft quantity of a menu item. Quantities above the
// item's stock are clamped when stock tracking is on; zero removes the line.
func (l *Ledger) SetQuantity(itemID int64, quantity int) (QuantityResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.setQuantity(itemID, quantity)
}

// AdjustQuantity adds delta to the item's current draft quantity, flooring
// the result at zero.
func (l *Ledger) AdjustQuantity(itemID int64, delta int) (QuantityResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := 0
	if i := l.draftIndex(itemID); i >= 0 {
		current = l.draft.Items[i].Quantity
	}
	return l.setQuantity(itemID, addQuantity(current, delta))
}

// addQuantity returns current+delta floored at zero, saturating instead of
// wrapping on overflow.
func addQuantity(current, delta int) int {
	switch {
	case delta > 0 && current > math.MaxInt-delta:
		return math.MaxInt
	case current+delta < 0:
		return 0
	}
	return current + delta
}

func (l *Ledger) setQuantity(itemID int64, quantity int) (QuantityResult, error) {
	_, item := l.findMenuItem(itemID)
	if item == nil {
		return QuantityResult{}, fmt.Errorf("menu item %d: %w", itemID, ErrNotFound)
	}

	if quantity < 0 {
		quantity = 0
	}
	res := QuantityResult{ItemID: itemID}
	if l.features.StockTracking && item.TracksStock() && quantity > *item.Stock {
		quantity = *item.Stock
		res.Clamped = true
		res.Available = *item.Stock
	}
	res.Quantity = quantity

	idx := l.draftIndex(itemID)
	if quantity == 0 {
		if idx >= 0 {
			l.draft.Items = slices.Delete(l.draft.Items, idx, idx+1)
		}
		return res, nil
	}

	line := l.newLine(*item, quantity)
	if idx >= 0 {
		l.draft.Items[idx] = line
	} else {
		l.draft.Items = append(l.draft.Items, line)
	}
	return res, nil
}

func (l *Ledger) newLine(item MenuItem, quantity int) LineItem {
	qty := decimal.NewFromInt(int64(quantity))
	line := LineItem{
		ItemID:    item.ID,
		Name:      item.Name,
		Price:     item.Price,
		Quantity:  quantity,
		Total:     item.Price.Mul(qty),
		Cost:      decimal.Zero,
		TotalCost: decimal.Zero,
		Profit:    decimal.Zero,
	}
	if l.features.CostTracking {
		line.Cost = item.Cost
		line.TotalCost = item.Cost.Mul(qty)
		line.Profit = line.Total.Sub(line.TotalCost)
	}
	return line
}

func (l *Ledger) draftIndex(itemID int64) int {
	for i := range l.draft.Items {
		if l.draft.Items[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

// UpdateDraftDetails replaces the customer and order fields of the draft.
// Empty order type or payment method keep their current value.
func (l *Ledger) UpdateDraftDetails(d DraftDetails) (DraftView, error) {
	if d.OrderType != "" && !enum.IsOrderType(d.OrderType) {
		return DraftView{}, fmt.Errorf("%w: %q", ErrInvalidOrderType, d.OrderType)
	}
	if d.PaymentMethod != "" && !enum.IsPaymentMethod(d.PaymentMethod) {
		return DraftView{}, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, d.PaymentMethod)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.draft.CustomerName = d.CustomerName
	l.draft.CustomerPhone = d.CustomerPhone
	l.draft.Notes = d.Notes
	if d.OrderType != "" {
		l.draft.OrderType = d.OrderType
	}
	if d.PaymentMethod != "" {
		l.draft.PaymentMethod = d.PaymentMethod
	}
	return l.draftView(), nil
}

// ClearDraft resets the draft to its empty defaults.
func (l *Ledger) ClearDraft() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.draft = emptyDraft()
}
