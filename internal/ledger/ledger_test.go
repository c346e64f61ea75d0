package ledger

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/kiwari-pos/ledger/internal/enum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test helpers ---

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func intPtr(n int) *int { return &n }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newTestLedger builds a ledger with two tracked items and one untracked.
//
//	1 Burger  price 100 cost 40 stock 5
//	2 Fries   price 50  cost 20 stock 10
//	3 Water   price 20  cost 0  untracked
func newTestLedger(t *testing.T, opts ...Option) *Ledger {
	t.Helper()
	state := State{
		Categories: []Category{{Name: "MAINS", Active: true}, {Name: "DRINKS", Active: true}},
		Menu: []MenuItem{
			{ID: 1, Category: "MAINS", Name: "Burger", Price: dec("100"), Cost: dec("40"), Stock: intPtr(5), Status: enum.ItemStatusAvailable},
			{ID: 2, Category: "MAINS", Name: "Fries", Price: dec("50"), Cost: dec("20"), Stock: intPtr(10), Status: enum.ItemStatusAvailable},
			{ID: 3, Category: "DRINKS", Name: "Water", Price: dec("20"), Cost: decimal.Zero, Status: enum.ItemStatusAvailable},
		},
		Settings:   DefaultSettings(),
		NextNumber: FirstOrderNumber,
	}
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewFromState(state, opts...)
}

func stockOf(t *testing.T, l *Ledger, id int64) int {
	t.Helper()
	m, err := l.MenuItem(id)
	require.NoError(t, err)
	require.NotNil(t, m.Stock)
	return *m.Stock
}

// --- Construction ---

func TestNew_Defaults(t *testing.T) {
	l := New()

	assert.Len(t, l.Menu(), 19)
	assert.Len(t, l.Categories(), 5)
	assert.Equal(t, FirstOrderNumber, l.NextOrderNumber())
	assert.True(t, l.Settings().TaxRate.Equal(dec("5")))

	d := l.Draft()
	assert.Empty(t, d.Items)
	assert.Equal(t, enum.OrderTypeDineIn, d.OrderType)
	assert.Equal(t, enum.PaymentMethodCash, d.PaymentMethod)
}

func TestNewFromState_FloorsCounter(t *testing.T) {
	l := NewFromState(State{NextNumber: 7})
	assert.Equal(t, FirstOrderNumber, l.NextOrderNumber())
	assert.NotNil(t, l.Menu())
}

func TestNewFromState_CounterSkipsStoredOrders(t *testing.T) {
	l := NewFromState(State{
		NextNumber: FirstOrderNumber,
		Ongoing: []Order{
			{ID: "TEMP_1700000000000", Status: enum.OrderStatusHold},
			{ID: "1002", Number: 1002, Status: enum.OrderStatusPreparing},
		},
		Completed: []Order{{ID: "1005", Status: enum.OrderStatusCompleted}},
	})
	assert.Equal(t, int64(1006), l.NextOrderNumber())
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	l := newTestLedger(t)
	snap := l.Snapshot()
	*snap.Menu[0].Stock = 99

	assert.Equal(t, 5, stockOf(t, l, 1))
}

// --- Draft ---

func TestSetQuantity_SubtotalMatchesLines(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.SetQuantity(1, 3)
	require.NoError(t, err)
	_, err = l.SetQuantity(2, 2)
	require.NoError(t, err)
	_, err = l.AdjustQuantity(3, 4)
	require.NoError(t, err)
	_, err = l.AdjustQuantity(2, -1)
	require.NoError(t, err)

	d := l.Draft()
	sum := decimal.Zero
	for _, it := range d.Items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		assert.True(t, it.Total.Equal(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))))
	}
	assert.True(t, d.Subtotal.Equal(sum), "subtotal %s != %s", d.Subtotal, sum)
	assert.True(t, d.Subtotal.Equal(dec("430")))
	assert.True(t, d.Tax.Equal(dec("21.5")))
	assert.True(t, d.Total.Equal(dec("451.5")))
}

func TestSetQuantity_ClampsToStock(t *testing.T) {
	l := newTestLedger(t)

	res, err := l.SetQuantity(1, 10)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Quantity)
	assert.True(t, res.Clamped)
	assert.Equal(t, 5, res.Available)
	assert.Equal(t, 5, l.Draft().Items[0].Quantity)
}

func TestSetQuantity_NoClampWithoutStockTracking(t *testing.T) {
	f := AllFeatures()
	f.StockTracking = false
	l := newTestLedger(t, WithFeatures(f))

	res, err := l.SetQuantity(1, 10)
	require.NoError(t, err)
	assert.False(t, res.Clamped)
	assert.Equal(t, 10, res.Quantity)
}

func TestSetQuantity_UntrackedItemNeverClamps(t *testing.T) {
	l := newTestLedger(t)

	res, err := l.SetQuantity(3, 500)
	require.NoError(t, err)
	assert.False(t, res.Clamped)
	assert.Equal(t, 500, res.Quantity)
}

func TestSetQuantity_ZeroRemovesLine(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(1, 2)

	_, err := l.SetQuantity(1, 0)
	require.NoError(t, err)
	assert.Empty(t, l.Draft().Items)
}

func TestSetQuantity_UnknownItem(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(1, 2)

	_, err := l.SetQuantity(42, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, l.Draft().Items, 1)
}

func TestSetQuantity_CostTracking(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(1, 3)

	line := l.Draft().Items[0]
	assert.True(t, line.Cost.Equal(dec("40")))
	assert.True(t, line.TotalCost.Equal(dec("120")))
	assert.True(t, line.Profit.Equal(dec("180")))

	f := AllFeatures()
	f.CostTracking = false
	l = newTestLedger(t, WithFeatures(f))
	_, _ = l.SetQuantity(1, 3)
	line = l.Draft().Items[0]
	assert.True(t, line.TotalCost.IsZero())
	assert.True(t, line.Profit.IsZero())
}

func TestAdjustQuantity_HugeDeltaSaturates(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(1, 2)

	res, err := l.AdjustQuantity(1, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Quantity)
	assert.True(t, res.Clamped)
	require.Len(t, l.Draft().Items, 1)

	_, err = l.AdjustQuantity(1, math.MinInt)
	require.NoError(t, err)
	assert.Empty(t, l.Draft().Items)
}

func TestAdjustQuantity_DownToZeroRemovesLine(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(2, 3)

	for range 3 {
		_, err := l.AdjustQuantity(2, -1)
		require.NoError(t, err)
	}
	assert.Empty(t, l.Draft().Items)

	res, err := l.AdjustQuantity(2, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Quantity)
	assert.Empty(t, l.Draft().Items)
}

func TestUpdateDraftDetails(t *testing.T) {
	l := newTestLedger(t)

	d, err := l.UpdateDraftDetails(DraftDetails{
		CustomerName:  "Asha",
		CustomerPhone: "555-0101",
		OrderType:     enum.OrderTypeTakeaway,
		Notes:         "no onions",
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha", d.CustomerName)
	assert.Equal(t, enum.OrderTypeTakeaway, d.OrderType)
	assert.Equal(t, enum.PaymentMethodCash, d.PaymentMethod, "empty payment method keeps current")

	_, err = l.UpdateDraftDetails(DraftDetails{OrderType: "drive-thru"})
	assert.ErrorIs(t, err, ErrInvalidOrderType)
	_, err = l.UpdateDraftDetails(DraftDetails{PaymentMethod: "barter"})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestClearDraft(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(1, 1)
	_, _ = l.UpdateDraftDetails(DraftDetails{OrderType: enum.OrderTypeDelivery, PaymentMethod: enum.PaymentMethodUPI})

	l.ClearDraft()

	d := l.Draft()
	assert.Empty(t, d.Items)
	assert.Equal(t, enum.OrderTypeDineIn, d.OrderType)
	assert.Equal(t, enum.PaymentMethodCash, d.PaymentMethod)
}

func TestDraft_TaxDisabled(t *testing.T) {
	f := AllFeatures()
	f.Tax = false
	l := newTestLedger(t, WithFeatures(f))
	_, _ = l.SetQuantity(1, 2)

	d := l.Draft()
	assert.True(t, d.Tax.IsZero())
	assert.True(t, d.Total.Equal(dec("200")))
}

// --- Lifecycle ---

func TestPlace_Scenario(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.SetQuantity(1, 3)
	require.NoError(t, err)
	assert.True(t, l.Draft().Subtotal.Equal(dec("300")))

	o, err := l.Place("cashier1")
	require.NoError(t, err)

	assert.Equal(t, "1001", o.ID)
	assert.Equal(t, int64(1001), o.Number)
	assert.Equal(t, enum.OrderStatusPreparing, o.Status)
	assert.Equal(t, "315.00", o.Total.StringFixed(2))
	assert.True(t, o.TotalCost.Equal(dec("120")))
	assert.True(t, o.Profit.Equal(dec("180")))
	assert.True(t, o.StockDeducted)
	assert.Equal(t, testNow, o.OrderTime)
	assert.Equal(t, "cashier1", o.PlacedBy)
	assert.Equal(t, 2, stockOf(t, l, 1))
	assert.Empty(t, l.Draft().Items)
	assert.Len(t, l.Ongoing(), 1)
}

func TestPlace_EmptyDoesNotConsumeNumber(t *testing.T) {
	l := newTestLedger(t)

	_, _ = l.SetQuantity(2, 1)
	first, err := l.Place("")
	require.NoError(t, err)

	_, err = l.Place("")
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, _ = l.SetQuantity(2, 1)
	second, err := l.Place("")
	require.NoError(t, err)
	assert.Equal(t, first.Number+1, second.Number)
}

func TestPlace_InsufficientStockIsAtomic(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(2, 4)
	_, _ = l.SetQuantity(1, 5)
	o, err := l.Place("")
	require.NoError(t, err)
	require.Equal(t, 0, stockOf(t, l, 1))

	m, _ := l.MenuItem(1)
	assert.Equal(t, enum.ItemStatusUnavailable, m.Status)

	// Stock was drained behind the draft's back: queue a new draft that
	// needs 1 burger and 2 fries, then place with burgers at zero.
	l.mu.Lock()
	l.draft.Items = []LineItem{
		l.newLine(l.menu[1], 2),
		l.newLine(l.menu[0], 1),
	}
	l.mu.Unlock()

	_, err = l.Place("")
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, "Burger", stockErr.Item)
	assert.Equal(t, 0, stockErr.Available)
	assert.Equal(t, 1, stockErr.Requested)

	assert.Equal(t, 6, stockOf(t, l, 2), "fries must not be deducted")
	assert.Len(t, l.Draft().Items, 2, "draft kept for correction")
	assert.Equal(t, o.Number+1, l.NextOrderNumber())
}

func TestPlace_NumbersStrictlyIncrease(t *testing.T) {
	l := newTestLedger(t)

	var last int64
	for i := range 5 {
		_, _ = l.SetQuantity(3, i+1)
		if i == 2 {
			_, err := l.Hold("")
			require.NoError(t, err)
			_, _ = l.SetQuantity(3, 1)
		}
		o, err := l.Place("")
		require.NoError(t, err)
		if last != 0 {
			assert.Equal(t, last+1, o.Number)
		}
		last = o.Number
	}
}

func TestPlace_NewestFirst(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(3, 1)
	a, _ := l.Place("")
	_, _ = l.SetQuantity(3, 1)
	b, _ := l.Place("")

	ongoing := l.Ongoing()
	require.Len(t, ongoing, 2)
	assert.Equal(t, b.ID, ongoing[0].ID)
	assert.Equal(t, a.ID, ongoing[1].ID)
}

func TestPlace_SnapshotSurvivesMenuEdit(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(2, 1)
	o, _ := l.Place("")

	_, err := l.UpdateMenuItem(2, MenuItemInput{Category: "MAINS", Name: "Big Fries", Price: dec("75"), Cost: dec("30"), Stock: intPtr(9)})
	require.NoError(t, err)

	got, err := l.Order(o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fries", got.Items[0].Name)
	assert.True(t, got.Items[0].Price.Equal(dec("50")))
}

func TestHold(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(1, 2)

	o, err := l.Hold("cashier1")
	require.NoError(t, err)

	assert.Equal(t, "TEMP_1773489600000", o.ID)
	assert.Zero(t, o.Number)
	assert.Equal(t, enum.OrderStatusHold, o.Status)
	assert.False(t, o.StockDeducted)
	assert.True(t, o.Total.IsZero())
	assert.Equal(t, 5, stockOf(t, l, 1))
	assert.Empty(t, l.Draft().Items)
	assert.Equal(t, FirstOrderNumber, l.NextOrderNumber())

	_, _ = l.SetQuantity(1, 1)
	o2, err := l.Hold("")
	require.NoError(t, err)
	assert.NotEqual(t, o.ID, o2.ID, "holds in the same millisecond get distinct ids")

	_, err = l.Hold("")
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestResumeHeld(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(1, 4)
	_, _ = l.UpdateDraftDetails(DraftDetails{CustomerName: "Ravi"})
	held, _ := l.Hold("")

	// Sell three burgers before resuming.
	_, _ = l.SetQuantity(1, 3)
	_, err := l.Place("")
	require.NoError(t, err)

	d, results, err := l.ResumeHeld(held.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Clamped)
	assert.Equal(t, 2, d.Items[0].Quantity)
	assert.Equal(t, "Ravi", d.CustomerName)
	assert.Len(t, l.Ongoing(), 1, "held order leaves ongoing list")

	_, _, err = l.ResumeHeld(held.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResumeHeld_Guards(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(3, 1)
	placed, _ := l.Place("")
	_, _ = l.SetQuantity(3, 1)
	held, _ := l.Hold("")

	_, _, err := l.ResumeHeld(placed.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, _ = l.SetQuantity(2, 1)
	_, _, err = l.ResumeHeld(held.ID)
	assert.ErrorIs(t, err, ErrDraftNotEmpty)
}

func TestMarkReadyAndComplete(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(1, 1)
	o, _ := l.Place("")

	ready, err := l.MarkReady(o.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusReady, ready.Status)
	require.NotNil(t, ready.ReadyTime)

	_, err = l.MarkReady(o.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	done, err := l.Complete(o.ID, "manager1")
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedTime)
	assert.Equal(t, "manager1", done.CompletedBy)

	assert.Empty(t, l.Ongoing())
	assert.Len(t, l.Completed(), 1)

	_, err = l.Complete(o.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, l.Completed(), 1, "completed exactly once")
}

func TestComplete_FromPreparing(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(3, 1)
	a, _ := l.Place("")
	_, _ = l.SetQuantity(3, 2)
	b, _ := l.Place("")

	before := len(l.Ongoing())
	_, err := l.Complete(a.ID, "")
	require.NoError(t, err)
	_, err = l.Complete(b.ID, "")
	require.NoError(t, err)

	assert.Equal(t, before-2, len(l.Ongoing()))
	completed := l.Completed()
	require.Len(t, completed, 2)
	assert.Equal(t, b.ID, completed[0].ID, "newest first")
}

func TestComplete_HeldRejected(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(3, 1)
	held, _ := l.Hold("")

	_, err := l.Complete(held.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDeleteOngoing_RestoresStock(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(1, 5)
	_, _ = l.SetQuantity(2, 3)
	o, err := l.Place("")
	require.NoError(t, err)
	require.Equal(t, 0, stockOf(t, l, 1))

	_, err = l.DeleteOngoing(o.ID)
	require.NoError(t, err)

	assert.Equal(t, 5, stockOf(t, l, 1))
	assert.Equal(t, 10, stockOf(t, l, 2))
	m, _ := l.MenuItem(1)
	assert.Equal(t, enum.ItemStatusAvailable, m.Status)
	assert.Empty(t, l.Ongoing())

	_, err = l.DeleteOngoing(o.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _ = l.SetQuantity(3, 1)
	next, _ := l.Place("")
	assert.Equal(t, o.Number+1, next.Number, "deleted numbers are never reused")
}

func TestDeleteOngoing_HeldLeavesStock(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.SetQuantity(1, 2)
	held, _ := l.Hold("")

	_, err := l.DeleteOngoing(held.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stockOf(t, l, 1))
}

func TestClearCompleted(t *testing.T) {
	l := newTestLedger(t)
	for range 3 {
		_, _ = l.SetQuantity(3, 1)
		o, _ := l.Place("")
		_, _ = l.Complete(o.ID, "")
	}

	assert.Equal(t, 3, l.ClearCompleted())
	assert.Empty(t, l.Completed())
	assert.Equal(t, 0, l.ClearCompleted())
}
