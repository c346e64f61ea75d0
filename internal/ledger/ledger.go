// Package ledger holds the restaurant's menu, the draft order being built at
// the counter, the ongoing and completed order lists, and the order-number
// counter. A Ledger is safe for concurrent use; every mutation runs to
// completion under one lock.
package ledger

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Ledger struct {
	mu       sync.Mutex
	features Features
	now      func() time.Time

	menu       []MenuItem
	categories []Category
	draft      Draft
	ongoing    []Order // newest first
	completed  []Order // newest first
	templates  []Template
	settings   Settings
	nextNumber int64
	lastHoldMs int64
}

type Option func(*Ledger)

// WithFeatures replaces the default (all enabled) feature set.
func WithFeatures(f Features) Option {
	return func(l *Ledger) { l.features = f }
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a ledger seeded with the default menu, categories and settings.
func New(opts ...Option) *Ledger {
	return NewFromState(State{
		Menu:       DefaultMenu(),
		Categories: DefaultCategories(),
		Settings:   DefaultSettings(),
		NextNumber: FirstOrderNumber,
	}, opts...)
}

// NewFromState creates a ledger from previously persisted state.
func NewFromState(s State, opts ...Option) *Ledger {
	l := &Ledger{
		features: AllFeatures(),
		now:      time.Now,
		draft:    emptyDraft(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.restore(s)
	return l
}

func (l *Ledger) restore(s State) {
	l.menu = cloneMenu(s.Menu)
	l.categories = slices.Clone(s.Categories)
	l.ongoing = cloneOrders(s.Ongoing)
	l.completed = cloneOrders(s.Completed)
	l.templates = cloneTemplates(s.Templates)
	l.settings = s.Settings
	l.nextNumber = max(s.NextNumber, FirstOrderNumber)
	// A lost or stale counter must not hand out a number already in use.
	for _, list := range [][]Order{l.ongoing, l.completed} {
		for _, o := range list {
			if n := orderNumber(o); n >= l.nextNumber {
				l.nextNumber = n + 1
			}
		}
	}
	if l.menu == nil {
		l.menu = []MenuItem{}
	}
	if l.categories == nil {
		l.categories = []Category{}
	}
}

// orderNumber is the placed number of o, or 0 for a held order.
func orderNumber(o Order) int64 {
	if o.Number > 0 {
		return o.Number
	}
	n, err := strconv.ParseInt(o.ID, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Snapshot returns a deep copy of the persistent state.
func (l *Ledger) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return State{
		Menu:       cloneMenu(l.menu),
		Categories: slices.Clone(l.categories),
		Ongoing:    cloneOrders(l.ongoing),
		Completed:  cloneOrders(l.completed),
		Templates:  cloneTemplates(l.templates),
		Settings:   l.settings,
		NextNumber: l.nextNumber,
	}
}

// Features returns the enabled feature set.
func (l *Ledger) Features() Features {
	return l.features
}

// NextOrderNumber is the number the next placed order will receive.
func (l *Ledger) NextOrderNumber() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextNumber
}

// taxRate is the configured rate, or zero when tax is disabled.
func (l *Ledger) taxRate() decimal.Decimal {
	if !l.features.Tax {
		return decimal.Zero
	}
	return l.settings.TaxRate
}

func (l *Ledger) findMenuItem(id int64) (int, *MenuItem) {
	for i := range l.menu {
		if l.menu[i].ID == id {
			return i, &l.menu[i]
		}
	}
	return -1, nil
}

func (l *Ledger) findOngoing(id string) int {
	for i := range l.ongoing {
		if l.ongoing[i].ID == id {
			return i
		}
	}
	return -1
}

// totals computes subtotal, tax and grand total for a set of lines.
func totals(items []LineItem, rate decimal.Decimal) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Total)
	}
	tax = subtotal.Mul(rate).Div(hundred)
	return subtotal, tax, subtotal.Add(tax)
}

func totalCost(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.TotalCost)
	}
	return sum
}

// --- copy helpers ---

func cloneMenuItem(m MenuItem) MenuItem {
	if m.Stock != nil {
		s := *m.Stock
		m.Stock = &s
	}
	return m
}

func cloneMenu(in []MenuItem) []MenuItem {
	if in == nil {
		return nil
	}
	out := make([]MenuItem, len(in))
	for i, m := range in {
		out[i] = cloneMenuItem(m)
	}
	return out
}

func cloneOrder(o Order) Order {
	o.Items = slices.Clone(o.Items)
	if o.ReadyTime != nil {
		t := *o.ReadyTime
		o.ReadyTime = &t
	}
	if o.CompletedTime != nil {
		t := *o.CompletedTime
		o.CompletedTime = &t
	}
	return o
}

func cloneOrders(in []Order) []Order {
	out := make([]Order, len(in))
	for i, o := range in {
		out[i] = cloneOrder(o)
	}
	return out
}

func cloneTemplates(in []Template) []Template {
	out := make([]Template, len(in))
	for i, t := range in {
		t.Items = slices.Clone(t.Items)
		out[i] = t
	}
	return out
}
