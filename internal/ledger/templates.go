package ledger

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// SaveTemplate stores the draft's lines under name. An empty name becomes
// "Template N".
func (l *Ledger) SaveTemplate(name string) (Template, error) {
	if !l.features.Templates {
		return Template{}, ErrFeatureDisabled
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.draft.Items) == 0 {
		return Template{}, ErrEmptyOrder
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Template %d", len(l.templates)+1)
	}

	t := Template{
		ID:           uuid.New(),
		Name:         name,
		Items:        slices.Clone(l.draft.Items),
		CustomerName: l.draft.CustomerName,
		OrderType:    l.draft.OrderType,
		CreatedAt:    l.now().UTC(),
	}
	l.templates = append(l.templates, t)
	t.Items = slices.Clone(t.Items)
	return t, nil
}

func (l *Ledger) Templates() ([]Template, error) {
	if !l.features.Templates {
		return nil, ErrFeatureDisabled
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneTemplates(l.templates), nil
}

func (l *Ledger) DeleteTemplate(id uuid.UUID) error {
	if !l.features.Templates {
		return ErrFeatureDisabled
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.templateIndex(id)
	if idx < 0 {
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	l.templates = slices.Delete(l.templates, idx, idx+1)
	return nil
}

// LoadTemplate replaces the draft's lines with the template's. Each line is
// re-applied against the current menu, so prices are refreshed and
// quantities are clamped to stock. Lines for deleted items are skipped.
func (l *Ledger) LoadTemplate(id uuid.UUID) (DraftView, []QuantityResult, error) {
	if !l.features.Templates {
		return DraftView{}, nil, ErrFeatureDisabled
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.templateIndex(id)
	if idx < 0 {
		return DraftView{}, nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	t := l.templates[idx]

	l.draft.Items = []LineItem{}
	if t.CustomerName != "" {
		l.draft.CustomerName = t.CustomerName
	}
	if t.OrderType != "" {
		l.draft.OrderType = t.OrderType
	}

	results := make([]QuantityResult, 0, len(t.Items))
	for _, line := range t.Items {
		res, err := l.setQuantity(line.ItemID, line.Quantity)
		if err != nil {
			continue
		}
		results = append(results, res)
	}
	return l.draftView(), results, nil
}

func (l *Ledger) templateIndex(id uuid.UUID) int {
	for i := range l.templates {
		if l.templates[i].ID == id {
			return i
		}
	}
	return -1
}
