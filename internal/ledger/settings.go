package ledger

import (
	"fmt"
	"strings"
)

func (l *Ledger) Settings() Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// UpdateSettings replaces the settings after validating them. The tax rate
// is a percentage in [0, 100].
func (l *Ledger) UpdateSettings(s Settings) (Settings, error) {
	switch {
	case s.TaxRate.IsNegative() || s.TaxRate.GreaterThan(hundred):
		return Settings{}, fmt.Errorf("%w: tax rate must be between 0 and 100", ErrInvalidSettings)
	case s.AutoRefresh < 0:
		return Settings{}, fmt.Errorf("%w: auto refresh must not be negative", ErrInvalidSettings)
	case s.LowStockThreshold < 0:
		return Settings{}, fmt.Errorf("%w: low stock threshold must not be negative", ErrInvalidSettings)
	}
	s.Currency = strings.TrimSpace(s.Currency)
	s.RestaurantName = strings.TrimSpace(s.RestaurantName)

	l.mu.Lock()
	defer l.mu.Unlock()

	if s.Currency == "" {
		s.Currency = l.settings.Currency
	}
	if s.RestaurantName == "" {
		s.RestaurantName = l.settings.RestaurantName
	}
	l.settings = s
	return s, nil
}
