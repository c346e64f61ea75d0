package ledger

import (
	"errors"
	"fmt"
)

// Errors returned by the ledger.
var (
	ErrEmptyOrder           = errors.New("order has no items")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrDuplicateCategory    = errors.New("category already exists")
	ErrNotFound             = errors.New("not found")
	ErrInvalidTransition    = errors.New("invalid order status transition")
	ErrDraftNotEmpty        = errors.New("current order is not empty")
	ErrInvalidMenuItem      = errors.New("invalid menu item")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrInvalidCategory      = errors.New("category name is required")
	ErrInvalidOrderType     = errors.New("invalid order type")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidSettings      = errors.New("invalid settings")
	ErrFeatureDisabled      = errors.New("feature disabled")
)

// InsufficientStockError names the first line item that could not be covered
// by the remaining stock. It matches ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	ItemID    int64
	Item      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Item, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
