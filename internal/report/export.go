package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kiwari-pos/ledger/internal/ledger"
	"github.com/xuri/excelize/v2"
)

const (
	ordersSheet  = "Orders"
	summarySheet = "Summary"
	topSheet     = "Top Items"
)

var orderHeader = []string{
	"Order", "Date", "Customer", "Type", "Payment", "Items",
	"Subtotal", "Tax", "Total", "Cost", "Profit", "Completed",
}

func orderRow(o ledger.Order) []string {
	customer := o.CustomerName
	if customer == "" {
		customer = "Walk-in"
	}
	completed := ""
	if o.CompletedTime != nil {
		completed = o.CompletedTime.UTC().Format(time.RFC3339)
	}
	return []string{
		o.ID,
		o.OrderTime.UTC().Format("2006-01-02"),
		customer,
		o.OrderType,
		o.PaymentMethod,
		strconv.Itoa(o.ItemCount()),
		o.Subtotal.StringFixed(2),
		o.Tax.StringFixed(2),
		o.Total.StringFixed(2),
		o.TotalCost.StringFixed(2),
		o.Profit.StringFixed(2),
		completed,
	}
}

// WriteCSV writes one row per order under a header row.
func WriteCSV(w io.Writer, orders []ledger.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(orderHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, o := range orders {
		if err := cw.Write(orderRow(o)); err != nil {
			return fmt.Errorf("write csv row %s: %w", o.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with the order list, the summary figures and
// the top items by revenue.
func WriteXLSX(w io.Writer, orders []ledger.Order, topN int) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, ordersSheet, 1, orderHeader); err != nil {
		return err
	}
	for i, o := range orders {
		if err := setRow(f, ordersSheet, i+2, orderRow(o)); err != nil {
			return err
		}
	}

	// --- Summary ---
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	s := Totals(orders)
	rows := [][]string{
		{"Orders", strconv.Itoa(s.Count)},
		{"Items sold", strconv.Itoa(s.Items)},
		{"Revenue", s.Revenue.StringFixed(2)},
		{"Cost", s.Cost.StringFixed(2)},
		{"Profit", s.Profit.StringFixed(2)},
		{"Margin %", s.MarginPct.StringFixed(2)},
	}
	for i, r := range rows {
		if err := setRow(f, summarySheet, i+1, r); err != nil {
			return err
		}
	}

	// --- Top items ---
	if _, err := f.NewSheet(topSheet); err != nil {
		return fmt.Errorf("create top sheet: %w", err)
	}
	if err := setRow(f, topSheet, 1, []string{"Item", "Quantity", "Revenue", "Cost", "Profit"}); err != nil {
		return err
	}
	for i, r := range Top(ItemBreakdown(orders), topN) {
		row := []string{
			r.Name,
			strconv.Itoa(r.Quantity),
			r.Revenue.StringFixed(2),
			r.Cost.StringFixed(2),
			r.Profit.StringFixed(2),
		}
		if err := setRow(f, topSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("set %s row %d: %w", sheet, row, err)
	}
	return nil
}
