// Package report aggregates completed orders into revenue, cost and profit
// rollups. Every function is pure; callers pass in the orders and, where
// needed, a menu index.
package report

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/kiwari-pos/ledger/internal/enum"
	"github.com/kiwari-pos/ledger/internal/ledger"
	"github.com/shopspring/decimal"
)

// DefaultTopN is the number of entries Top returns when n <= 0.
const DefaultTopN = 5

var hundred = decimal.NewFromInt(100)

// Summary is the headline figure set for a list of orders.
type Summary struct {
	Revenue   decimal.Decimal
	Cost      decimal.Decimal
	Profit    decimal.Decimal
	MarginPct decimal.Decimal
	Count     int
	Items     int
}

// Rollup is one row of an item or category breakdown.
type Rollup struct {
	Name     string
	Quantity int
	Revenue  decimal.Decimal
	Cost     decimal.Decimal
	Profit   decimal.Decimal
}

func (r *Rollup) add(line ledger.LineItem) {
	qty := decimal.NewFromInt(int64(line.Quantity))
	r.Quantity += line.Quantity
	r.Revenue = r.Revenue.Add(line.Total)
	r.Cost = r.Cost.Add(line.Cost.Mul(qty))
	r.Profit = r.Revenue.Sub(r.Cost)
}

// Totals sums revenue (order totals, tax included) and cost over orders.
// MarginPct is zero when there is no revenue.
func Totals(orders []ledger.Order) Summary {
	s := Summary{Revenue: decimal.Zero, Cost: decimal.Zero, MarginPct: decimal.Zero}
	for _, o := range orders {
		s.Revenue = s.Revenue.Add(o.Total)
		s.Cost = s.Cost.Add(o.TotalCost)
		s.Items += o.ItemCount()
	}
	s.Count = len(orders)
	s.Profit = s.Revenue.Sub(s.Cost)
	if !s.Revenue.IsZero() {
		s.MarginPct = s.Profit.Div(s.Revenue).Mul(hundred)
	}
	return s
}

// ItemBreakdown groups line items by item name.
func ItemBreakdown(orders []ledger.Order) map[string]Rollup {
	out := map[string]Rollup{}
	for _, o := range orders {
		for _, line := range o.Items {
			r, ok := out[line.Name]
			if !ok {
				r = newRollup(line.Name)
			}
			r.add(line)
			out[line.Name] = r
		}
	}
	return out
}

// CategoryBreakdown groups line items by the category of their menu item.
// Lines whose item is no longer on the menu are skipped.
func CategoryBreakdown(orders []ledger.Order, menu map[int64]ledger.MenuItem) map[string]Rollup {
	out := map[string]Rollup{}
	for _, o := range orders {
		for _, line := range o.Items {
			item, ok := menu[line.ItemID]
			if !ok {
				continue
			}
			r, ok := out[item.Category]
			if !ok {
				r = newRollup(item.Category)
			}
			r.add(line)
			out[item.Category] = r
		}
	}
	return out
}

func newRollup(name string) Rollup {
	return Rollup{Name: name, Revenue: decimal.Zero, Cost: decimal.Zero, Profit: decimal.Zero}
}

// Top sorts rollups by revenue, highest first, and returns at most n of
// them. Ties are broken by name. n <= 0 means DefaultTopN.
func Top(rollups map[string]Rollup, n int) []Rollup {
	if n <= 0 {
		n = DefaultTopN
	}
	out := make([]Rollup, 0, len(rollups))
	for _, r := range rollups {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Rollup) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// --- Period filter ---

// ParsePeriod validates a period name. Empty means all.
func ParsePeriod(s string) (string, error) {
	switch s {
	case "":
		return enum.PeriodAll, nil
	case enum.PeriodToday, enum.PeriodYesterday, enum.PeriodWeek, enum.PeriodMonth, enum.PeriodAll:
		return s, nil
	}
	return "", fmt.Errorf("invalid period %q", s)
}

// Filter keeps the orders completed within period, judged against now in
// UTC. today and yesterday are calendar days; week and month reach back
// seven days or one month to the start of that day. Orders without a
// completion time are dropped unless period is all.
func Filter(orders []ledger.Order, period string, now time.Time) []ledger.Order {
	if period == enum.PeriodAll || period == "" {
		return slices.Clone(orders)
	}

	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var from, to time.Time
	switch period {
	case enum.PeriodToday:
		from, to = today, today.AddDate(0, 0, 1)
	case enum.PeriodYesterday:
		from, to = today.AddDate(0, 0, -1), today
	case enum.PeriodWeek:
		from = today.AddDate(0, 0, -7)
	case enum.PeriodMonth:
		from = today.AddDate(0, -1, 0)
	default:
		return []ledger.Order{}
	}

	out := []ledger.Order{}
	for _, o := range orders {
		if o.CompletedTime == nil {
			continue
		}
		t := o.CompletedTime.UTC()
		if t.Before(from) {
			continue
		}
		if !to.IsZero() && !t.Before(to) {
			continue
		}
		out = append(out, o)
	}
	return out
}
