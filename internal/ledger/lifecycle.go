package ledger

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/kiwari-pos/ledger/internal/enum"
)

// Place commits the draft as a new order. Stock for every line is checked
// before anything is changed; if one line is short the whole placement is
// rejected and no number is consumed.
func (l *Ledger) Place(placedBy string) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.draft.Items) == 0 {
		return Order{}, ErrEmptyOrder
	}

	// --- Validate stock for all lines ---
	if l.features.StockTracking {
		for _, line := range l.draft.Items {
			_, item := l.findMenuItem(line.ItemID)
			if item == nil || !item.TracksStock() {
				continue
			}
			if *item.Stock < line.Quantity {
				return Order{}, &InsufficientStockError{
					ItemID:    item.ID,
					Item:      item.Name,
					Requested: line.Quantity,
					Available: *item.Stock,
				}
			}
		}
	}

	// --- Build order ---
	rate := l.taxRate()
	items := slices.Clone(l.draft.Items)
	subtotal, tax, total := totals(items, rate)

	number := l.nextNumber
	l.nextNumber++

	order := Order{
		ID:            strconv.FormatInt(number, 10),
		Number:        number,
		Items:         items,
		CustomerName:  l.draft.CustomerName,
		CustomerPhone: l.draft.CustomerPhone,
		OrderType:     l.draft.OrderType,
		PaymentMethod: l.draft.PaymentMethod,
		Notes:         l.draft.Notes,
		TaxRate:       rate,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         total,
		TotalCost:     totalCost(items),
		Status:        enum.OrderStatusPreparing,
		OrderTime:     l.now().UTC(),
		PlacedBy:      placedBy,
	}
	if l.features.CostTracking {
		order.Profit = subtotal.Sub(order.TotalCost)
	}

	// --- Deduct stock ---
	if l.features.StockTracking {
		l.deductStock(items)
		order.StockDeducted = true
	}

	l.ongoing = slices.Insert(l.ongoing, 0, order)
	l.draft = emptyDraft()

	return cloneOrder(order), nil
}

// Hold parks the draft in the ongoing list without touching stock or
// computing totals. Held orders get a TEMP_<unix millis> id.
func (l *Ledger) Hold(heldBy string) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.draft.Items) == 0 {
		return Order{}, ErrEmptyOrder
	}

	now := l.now().UTC()
	ms := now.UnixMilli()
	if ms <= l.lastHoldMs {
		ms = l.lastHoldMs + 1
	}
	l.lastHoldMs = ms

	order := Order{
		ID:            fmt.Sprintf("TEMP_%d", ms),
		Items:         slices.Clone(l.draft.Items),
		CustomerName:  l.draft.CustomerName,
		CustomerPhone: l.draft.CustomerPhone,
		OrderType:     l.draft.OrderType,
		PaymentMethod: l.draft.PaymentMethod,
		Notes:         l.draft.Notes,
		Status:        enum.OrderStatusHold,
		OrderTime:     now,
		PlacedBy:      heldBy,
	}

	l.ongoing = slices.Insert(l.ongoing, 0, order)
	l.draft = emptyDraft()

	return cloneOrder(order), nil
}

// ResumeHeld moves a held order back into the draft. Lines are re-applied
// against the current menu, so prices are refreshed, quantities are clamped
// to stock, and items deleted from the menu are dropped.
func (l *Ledger) ResumeHeld(id string) (DraftView, []QuantityResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findOngoing(id)
	if idx < 0 {
		return DraftView{}, nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	held := l.ongoing[idx]
	if held.Status != enum.OrderStatusHold {
		return DraftView{}, nil, fmt.Errorf("order %s is %s: %w", id, held.Status, ErrInvalidTransition)
	}
	if len(l.draft.Items) > 0 {
		return DraftView{}, nil, ErrDraftNotEmpty
	}

	l.draft = emptyDraft()
	l.draft.CustomerName = held.CustomerName
	l.draft.CustomerPhone = held.CustomerPhone
	l.draft.OrderType = held.OrderType
	l.draft.PaymentMethod = held.PaymentMethod
	l.draft.Notes = held.Notes

	results := make([]QuantityResult, 0, len(held.Items))
	for _, line := range held.Items {
		res, err := l.setQuantity(line.ItemID, line.Quantity)
		if err != nil {
			continue
		}
		results = append(results, res)
	}

	l.ongoing = slices.Delete(l.ongoing, idx, idx+1)
	return l.draftView(), results, nil
}

// MarkReady moves a preparing order to ready.
func (l *Ledger) MarkReady(id string) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findOngoing(id)
	if idx < 0 {
		return Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	o := &l.ongoing[idx]
	if o.Status != enum.OrderStatusPreparing {
		return Order{}, fmt.Errorf("order %s is %s: %w", id, o.Status, ErrInvalidTransition)
	}

	now := l.now().UTC()
	o.Status = enum.OrderStatusReady
	o.ReadyTime = &now
	return cloneOrder(*o), nil
}

// Complete moves a preparing or ready order to the completed list.
func (l *Ledger) Complete(id, completedBy string) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findOngoing(id)
	if idx < 0 {
		return Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	o := l.ongoing[idx]
	if o.Status != enum.OrderStatusPreparing && o.Status != enum.OrderStatusReady {
		return Order{}, fmt.Errorf("order %s is %s: %w", id, o.Status, ErrInvalidTransition)
	}

	now := l.now().UTC()
	o.Status = enum.OrderStatusCompleted
	o.CompletedTime = &now
	o.CompletedBy = completedBy

	l.ongoing = slices.Delete(l.ongoing, idx, idx+1)
	l.completed = slices.Insert(l.completed, 0, o)
	return cloneOrder(o), nil
}

// DeleteOngoing removes an ongoing order and returns any stock it consumed.
func (l *Ledger) DeleteOngoing(id string) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findOngoing(id)
	if idx < 0 {
		return Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	o := l.ongoing[idx]
	if o.StockDeducted {
		l.restoreStock(o.Items)
	}
	l.ongoing = slices.Delete(l.ongoing, idx, idx+1)
	return cloneOrder(o), nil
}

// ClearCompleted empties the completed list and reports how many orders
// were dropped.
func (l *Ledger) ClearCompleted() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.completed)
	l.completed = []Order{}
	return n
}

// Order looks up an ongoing or completed order by id.
func (l *Ledger) Order(id string) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if idx := l.findOngoing(id); idx >= 0 {
		return cloneOrder(l.ongoing[idx]), nil
	}
	for _, o := range l.completed {
		if o.ID == id {
			return cloneOrder(o), nil
		}
	}
	return Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
}

// Ongoing returns the ongoing orders, newest first.
func (l *Ledger) Ongoing() []Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneOrders(l.ongoing)
}

// Completed returns the completed orders, newest first.
func (l *Ledger) Completed() []Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneOrders(l.completed)
}

func (l *Ledger) deductStock(items []LineItem) {
	for _, line := range items {
		_, item := l.findMenuItem(line.ItemID)
		if item == nil || !item.TracksStock() {
			continue
		}
		s := *item.Stock - line.Quantity
		if s < 0 {
			s = 0
		}
		item.Stock = &s
		if s == 0 {
			item.Status = enum.ItemStatusUnavailable
		}
	}
}

func (l *Ledger) restoreStock(items []LineItem) {
	for _, line := range items {
		_, item := l.findMenuItem(line.ItemID)
		if item == nil || !item.TracksStock() {
			continue
		}
		s := *item.Stock + line.Quantity
		item.Stock = &s
		if item.Status == enum.ItemStatusUnavailable && s > 0 {
			item.Status = enum.ItemStatusAvailable
		}
	}
}
