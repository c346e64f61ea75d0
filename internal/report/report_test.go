package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/kiwari-pos/ledger/internal/enum"
	"github.com/kiwari-pos/ledger/internal/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(id int64, name, price, cost string, qty int) ledger.LineItem {
	q := decimal.NewFromInt(int64(qty))
	p, c := dec(price), dec(cost)
	return ledger.LineItem{
		ItemID: id, Name: name, Price: p, Quantity: qty,
		Total: p.Mul(q), Cost: c, TotalCost: c.Mul(q), Profit: p.Sub(c).Mul(q),
	}
}

func order(id string, completed time.Time, lines ...ledger.LineItem) ledger.Order {
	o := ledger.Order{ID: id, Items: lines, OrderTime: completed.Add(-10 * time.Minute), Status: enum.OrderStatusCompleted}
	o.Subtotal, o.TotalCost = decimal.Zero, decimal.Zero
	for _, l := range lines {
		o.Subtotal = o.Subtotal.Add(l.Total)
		o.TotalCost = o.TotalCost.Add(l.TotalCost)
	}
	o.Tax = o.Subtotal.Mul(dec("0.05"))
	o.Total = o.Subtotal.Add(o.Tax)
	o.Profit = o.Subtotal.Sub(o.TotalCost)
	o.CompletedTime = &completed
	return o
}

var now = time.Date(2026, 5, 20, 15, 30, 0, 0, time.UTC)

func sampleOrders() []ledger.Order {
	return []ledger.Order{
		order("1003", now, line(1, "Burger", "100", "40", 3)),
		order("1002", now.Add(-2*time.Hour), line(1, "Burger", "100", "40", 1), line(2, "Fries", "50", "20", 2)),
		order("1001", now.AddDate(0, 0, -1), line(3, "Cake", "90", "30", 1), line(9, "Retired", "10", "5", 1)),
	}
}

func TestTotals(t *testing.T) {
	s := Totals(sampleOrders())

	// subtotals 300 + 200 + 100 = 600, with 5% tax = 630
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 8, s.Items)
	assert.Equal(t, "630.00", s.Revenue.StringFixed(2))
	assert.Equal(t, "235.00", s.Cost.StringFixed(2))
	assert.Equal(t, "395.00", s.Profit.StringFixed(2))
	assert.Equal(t, "62.70", s.MarginPct.StringFixed(2))
}

func TestTotals_Empty(t *testing.T) {
	s := Totals(nil)
	assert.Zero(t, s.Count)
	assert.True(t, s.Revenue.IsZero())
	assert.True(t, s.MarginPct.IsZero())
}

func TestItemBreakdown(t *testing.T) {
	got := ItemBreakdown(sampleOrders())

	require.Len(t, got, 4)
	b := got["Burger"]
	assert.Equal(t, 4, b.Quantity)
	assert.Equal(t, "400.00", b.Revenue.StringFixed(2))
	assert.Equal(t, "160.00", b.Cost.StringFixed(2))
	assert.Equal(t, "240.00", b.Profit.StringFixed(2))
}

func TestItemBreakdown_SingleOrderScenario(t *testing.T) {
	got := ItemBreakdown([]ledger.Order{order("1001", now, line(1, "Burger", "100", "40", 3))})

	b := got["Burger"]
	assert.Equal(t, 3, b.Quantity)
	assert.True(t, b.Revenue.Equal(dec("300")))
	assert.True(t, b.Profit.Equal(dec("180")))
}

func TestCategoryBreakdown_SkipsDeletedItems(t *testing.T) {
	menu := map[int64]ledger.MenuItem{
		1: {ID: 1, Category: "BURGERS"},
		2: {ID: 2, Category: "SIDES"},
		3: {ID: 3, Category: "DESSERTS"},
	}

	got := CategoryBreakdown(sampleOrders(), menu)

	require.Len(t, got, 3)
	assert.Equal(t, 4, got["BURGERS"].Quantity)
	assert.Equal(t, "100.00", got["SIDES"].Revenue.StringFixed(2))
	assert.Equal(t, "60.00", got["DESSERTS"].Profit.StringFixed(2))
	_, ok := got[""]
	assert.False(t, ok)
}

func TestTop(t *testing.T) {
	rollups := map[string]Rollup{
		"a": {Name: "a", Revenue: dec("10")},
		"b": {Name: "b", Revenue: dec("30")},
		"c": {Name: "c", Revenue: dec("20")},
		"d": {Name: "d", Revenue: dec("20")},
		"e": {Name: "e", Revenue: dec("5")},
		"f": {Name: "f", Revenue: dec("1")},
	}

	got := Top(rollups, 0)
	require.Len(t, got, DefaultTopN)
	names := []string{}
	for _, r := range got {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"b", "c", "d", "a", "e"}, names)

	assert.Len(t, Top(rollups, 2), 2)
	assert.Len(t, Top(rollups, 10), 6)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, enum.PeriodAll, p)

	_, err = ParsePeriod("fortnight")
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	at := func(d time.Time) ledger.Order { return order("x", d) }
	orders := []ledger.Order{
		at(now),
		at(time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)),
		at(time.Date(2026, 5, 19, 23, 59, 0, 0, time.UTC)),
		at(time.Date(2026, 5, 13, 0, 0, 0, 0, time.UTC)),
		at(time.Date(2026, 5, 12, 23, 0, 0, 0, time.UTC)),
		at(time.Date(2026, 4, 20, 1, 0, 0, 0, time.UTC)),
		at(time.Date(2026, 4, 19, 1, 0, 0, 0, time.UTC)),
	}
	orders = append(orders, ledger.Order{ID: "open"})

	tests := []struct {
		period string
		want   int
	}{
		{enum.PeriodToday, 2},
		{enum.PeriodYesterday, 1},
		{enum.PeriodWeek, 4},
		{enum.PeriodMonth, 6},
		{enum.PeriodAll, 8},
		{"bogus", 0},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			assert.Len(t, Filter(orders, tt.period, now), tt.want)
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleOrders()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, orderHeader, rows[0])
	assert.Equal(t, "1003", rows[1][0])
	assert.Equal(t, "Walk-in", rows[1][2])
	assert.Equal(t, "315.00", rows[1][8])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleOrders(), 2))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	orders, err := f.GetRows(ordersSheet)
	require.NoError(t, err)
	assert.Len(t, orders, 4)

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Revenue", "630.00"}, summary[2])

	top, err := f.GetRows(topSheet)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "Burger", top[1][0])
	assert.Equal(t, "Fries", top[2][0])
}
