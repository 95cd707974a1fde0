// Package export serialises analytics results to CSV. Write-only: there is
// no parser here.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/meridian-pos/meridian-pos/internal/analytics"
	"github.com/meridian-pos/meridian-pos/internal/expenses"
	"github.com/meridian-pos/meridian-pos/internal/metrics"
	"github.com/meridian-pos/meridian-pos/internal/settings"
)

// Cell is one CSV value. Nil pointers and absent values render as the empty
// string; floats render with two decimals; quoting and quote-doubling are
// the csv writer's job.
type Cell struct {
	s     string
	f     float64
	isNum bool
	empty bool
}

// Str builds a string cell.
func Str(v string) Cell { return Cell{s: v} }

// Num builds a numeric cell, formatted to two decimals.
func Num(v float64) Cell { return Cell{f: v, isNum: true} }

// Int builds an integer cell.
func Int(v int) Cell { return Cell{s: strconv.Itoa(v)} }

// Empty is the rendering of null/undefined values.
func Empty() Cell { return Cell{empty: true} }

// OptStr builds a cell from a nullable string.
func OptStr(v *string) Cell {
	if v == nil {
		return Empty()
	}
	return Str(*v)
}

func (c Cell) render() string {
	switch {
	case c.empty:
		return ""
	case c.isNum:
		return formatFloat(c.f)
	default:
		return c.s
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteRecords emits a header row followed by data rows. Every row must
// match the header width.
func WriteRecords(w io.Writer, header []string, rows [][]Cell) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return err
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return fmt.Errorf("export: row %d has %d cells, header has %d", i, len(row), len(header))
		}
		record := make([]string, len(row))
		for j, cell := range row {
			record[j] = cell.render()
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteProductPerformanceCSV emits the per-product rollup.
func WriteProductPerformanceCSV(w io.Writer, rows []metrics.ProductPerformance) error {
	header := []string{
		"product_id", "product_name", "category", "quantity_sold",
		"revenue", "cost", "profit", "margin_pct", "stock_level", "stock_turnover",
	}
	records := make([][]Cell, 0, len(rows))
	for _, row := range rows {
		records = append(records, []Cell{
			Str(row.ProductID),
			Str(row.ProductName),
			Str(row.CategoryName),
			Int(row.TotalQuantity),
			Num(row.TotalSales),
			Num(row.TotalCost),
			Num(row.TotalProfit),
			Num(row.ProfitMargin * 100),
			Int(row.StockLevel),
			Num(row.StockTurnover),
		})
	}
	return WriteRecords(w, header, records)
}

// WriteCategoryPerformanceCSV emits the per-category rollup.
func WriteCategoryPerformanceCSV(w io.Writer, rows []metrics.CategoryPerformance) error {
	header := []string{
		"category_id", "category_name", "product_count", "quantity_sold",
		"revenue", "cost", "profit", "margin_pct",
	}
	records := make([][]Cell, 0, len(rows))
	for _, row := range rows {
		records = append(records, []Cell{
			Str(row.CategoryID),
			Str(row.CategoryName),
			Int(row.ProductCount),
			Int(row.TotalQuantity),
			Num(row.TotalSales),
			Num(row.TotalCost),
			Num(row.TotalProfit),
			Num(row.ProfitMargin * 100),
		})
	}
	return WriteRecords(w, header, records)
}

// WriteOverallCSV emits the grand totals as metric/value pairs. Money rows
// carry a third, human-readable column in the store currency.
func WriteOverallCSV(w io.Writer, overall metrics.OverallMetrics, currency string) error {
	money := settings.NewFormatter(settings.Settings{Currency: currency})
	header := []string{"metric", "value", "display"}
	records := [][]Cell{
		{Str("Currency"), Str(money.Code()), Empty()},
		{Str("Total Quantity"), Int(overall.TotalQuantity), Empty()},
		{Str("Total Sales"), Num(overall.TotalSales), Str(money.Amount(overall.TotalSales))},
		{Str("Total Cost"), Num(overall.TotalCost), Str(money.Amount(overall.TotalCost))},
		{Str("Total Profit"), Num(overall.TotalProfit), Str(money.Amount(overall.TotalProfit))},
		{Str("Average Profit Margin Pct"), Num(overall.AverageProfitMargin * 100), Empty()},
		{Str("Total Inventory Value"), Num(overall.TotalInventoryValue), Str(money.Amount(overall.TotalInventoryValue))},
		{Str("Average Stock Turnover"), Num(overall.AverageStockTurnover), Empty()},
	}
	return WriteRecords(w, header, records)
}

// WriteExpenseBreakdownCSV emits the expense shares.
func WriteExpenseBreakdownCSV(w io.Writer, breakdown expenses.Breakdown) error {
	header := []string{"category", "total", "share_pct", "count"}
	records := make([][]Cell, 0, len(breakdown.Shares))
	for _, share := range breakdown.Shares {
		records = append(records, []Cell{
			Str(share.Category),
			Num(share.Total),
			Num(share.Share),
			Int(share.Count),
		})
	}
	return WriteRecords(w, header, records)
}

// WriteDashboardCSV emits the full dashboard as stacked sections, matching
// the layout of the downloadable report.
func WriteDashboardCSV(w io.Writer, d analytics.Dashboard) error {
	if err := WriteOverallCSV(w, d.Metrics.Overall, d.Currency); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	if err := WriteProductPerformanceCSV(w, d.Metrics.Products); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return WriteCategoryPerformanceCSV(w, d.Metrics.Categories)
}
