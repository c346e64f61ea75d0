package ledger

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kiwari-pos/ledger/internal/enum"
	"github.com/shopspring/decimal"
)

// MenuItemInput carries the editable fields of a menu item. A nil Stock
// leaves the item untracked.
type MenuItemInput struct {
	Category string
	Name     string
	Price    decimal.Decimal
	Cost     decimal.Decimal
	Stock    *int
	Status   string
}

func (l *Ledger) validateMenuItem(in *MenuItemInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.ToUpper(strings.TrimSpace(in.Category))
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMenuItem)
	}
	if !in.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidMenuItem)
	}
	if in.Cost.IsNegative() {
		return fmt.Errorf("%w: cost must not be negative", ErrInvalidMenuItem)
	}
	if in.Stock != nil && *in.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidMenuItem)
	}
	switch in.Status {
	case "":
		in.Status = enum.ItemStatusAvailable
	case enum.ItemStatusAvailable, enum.ItemStatusUnavailable:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidMenuItem, in.Status)
	}
	if l.categoryIndex(in.Category) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, in.Category)
	}
	return nil
}

func (in MenuItemInput) apply(m *MenuItem) {
	m.Category = in.Category
	m.Name = in.Name
	m.Price = in.Price
	m.Cost = in.Cost
	m.Status = in.Status
	m.Stock = nil
	if in.Stock != nil {
		s := *in.Stock
		m.Stock = &s
	}
}

// AddMenuItem appends a new item with the next free id.
func (l *Ledger) AddMenuItem(in MenuItemInput) (MenuItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.validateMenuItem(&in); err != nil {
		return MenuItem{}, err
	}

	var maxID int64
	for _, m := range l.menu {
		maxID = max(maxID, m.ID)
	}
	item := MenuItem{ID: maxID + 1}
	in.apply(&item)
	l.menu = append(l.menu, item)
	return cloneMenuItem(item), nil
}

// UpdateMenuItem replaces every editable field of an existing item. Placed
// orders keep the values they were placed with.
func (l *Ledger) UpdateMenuItem(id int64, in MenuItemInput) (MenuItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, item := l.findMenuItem(id)
	if item == nil {
		return MenuItem{}, fmt.Errorf("menu item %d: %w", id, ErrNotFound)
	}
	if err := l.validateMenuItem(&in); err != nil {
		return MenuItem{}, err
	}
	in.apply(item)
	return cloneMenuItem(*item), nil
}

// DeleteMenuItem removes an item from the menu and from the draft.
func (l *Ledger) DeleteMenuItem(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, _ := l.findMenuItem(id)
	if idx < 0 {
		return fmt.Errorf("menu item %d: %w", id, ErrNotFound)
	}
	l.menu = slices.Delete(l.menu, idx, idx+1)
	l.draft.Items = slices.DeleteFunc(l.draft.Items, func(li LineItem) bool { return li.ItemID == id })
	return nil
}

func (l *Ledger) MenuItem(id int64) (MenuItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, item := l.findMenuItem(id)
	if item == nil {
		return MenuItem{}, fmt.Errorf("menu item %d: %w", id, ErrNotFound)
	}
	return cloneMenuItem(*item), nil
}

// Menu returns the whole catalog in insertion order.
func (l *Ledger) Menu() []MenuItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneMenu(l.menu)
}

// MenuIndex maps item ids to a copy of each item. Reports use it to resolve
// line items back to their category.
func (l *Ledger) MenuIndex() map[int64]MenuItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := make(map[int64]MenuItem, len(l.menu))
	for _, m := range l.menu {
		idx[m.ID] = cloneMenuItem(m)
	}
	return idx
}

// SearchMenu filters the catalog by a case-insensitive substring of the
// item name or category. An empty category matches all categories.
func (l *Ledger) SearchMenu(term, category string) []MenuItem {
	term = strings.ToLower(strings.TrimSpace(term))
	category = strings.ToUpper(strings.TrimSpace(category))

	l.mu.Lock()
	defer l.mu.Unlock()

	out := []MenuItem{}
	for _, m := range l.menu {
		if category != "" && m.Category != category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(m.Name), term) &&
			!strings.Contains(strings.ToLower(m.Category), term) {
			continue
		}
		out = append(out, cloneMenuItem(m))
	}
	return out
}

// LowStock lists tracked items at or below the configured threshold. It
// returns nothing when low stock alerts or stock tracking are off.
func (l *Ledger) LowStock() []MenuItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []MenuItem{}
	if !l.features.StockTracking || !l.settings.LowStockAlerts {
		return out
	}
	for _, m := range l.menu {
		if m.TracksStock() && *m.Stock <= l.settings.LowStockThreshold {
			out = append(out, cloneMenuItem(m))
		}
	}
	return out
}

// --- Categories ---

func (l *Ledger) categoryIndex(name string) int {
	for i := range l.categories {
		if strings.EqualFold(l.categories[i].Name, name) {
			return i
		}
	}
	return -1
}

// AddCategory registers a new category. The name is stored upper-cased and
// must be unique ignoring case.
func (l *Ledger) AddCategory(c Category) (Category, error) {
	c.Name = strings.ToUpper(strings.TrimSpace(c.Name))
	if c.Name == "" {
		return Category{}, ErrInvalidCategory
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.categoryIndex(c.Name) >= 0 {
		return Category{}, fmt.Errorf("%s: %w", c.Name, ErrDuplicateCategory)
	}
	c.Active = true
	l.categories = append(l.categories, c)
	return c, nil
}

// DeleteCategory removes a category together with every menu item filed
// under it, and returns how many items went with it.
func (l *Ledger) DeleteCategory(name string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.categoryIndex(name)
	if idx < 0 {
		return 0, fmt.Errorf("category %s: %w", name, ErrNotFound)
	}
	canonical := l.categories[idx].Name
	l.categories = slices.Delete(l.categories, idx, idx+1)

	removed := map[int64]bool{}
	l.menu = slices.DeleteFunc(l.menu, func(m MenuItem) bool {
		if m.Category == canonical {
			removed[m.ID] = true
			return true
		}
		return false
	})
	l.draft.Items = slices.DeleteFunc(l.draft.Items, func(li LineItem) bool { return removed[li.ItemID] })
	return len(removed), nil
}

func (l *Ledger) Categories() []Category {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.categories)
}
