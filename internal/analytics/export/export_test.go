package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/meridian-pos/meridian-pos/internal/expenses"
	"github.com/meridian-pos/meridian-pos/internal/metrics"
)

func TestWriteRecordsQuoting(t *testing.T) {
	buf := &bytes.Buffer{}
	err := WriteRecords(buf,
		[]string{"name", "price"},
		[][]Cell{{Str("A, B"), Num(1)}},
	)
	if err != nil {
		t.Fatalf("write error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[0] != "name,price" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != `"A, B",1.00` {
		t.Fatalf("unexpected row %q", lines[1])
	}

	// Re-splitting on commas outside quotes must recover both fields.
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("read back error: %v", err)
	}
	if records[1][0] != "A, B" || records[1][1] != "1.00" {
		t.Fatalf("round trip mismatch: %#v", records[1])
	}
}

func TestWriteRecordsDoublesQuotes(t *testing.T) {
	buf := &bytes.Buffer{}
	err := WriteRecords(buf, []string{"note"}, [][]Cell{{Str(`say "hi"`)}})
	if err != nil {
		t.Fatalf("write error: %v", err)
	}
	if !strings.Contains(buf.String(), `"say ""hi"""`) {
		t.Fatalf("embedded quotes not doubled: %q", buf.String())
	}
}

func TestWriteRecordsEmptyCell(t *testing.T) {
	buf := &bytes.Buffer{}
	var nilName *string
	err := WriteRecords(buf, []string{"a", "b"}, [][]Cell{{OptStr(nilName), Int(3)}})
	if err != nil {
		t.Fatalf("write error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[1] != ",3" {
		t.Fatalf("nil must render empty, got %q", lines[1])
	}
}

func TestWriteRecordsWidthMismatch(t *testing.T) {
	buf := &bytes.Buffer{}
	err := WriteRecords(buf, []string{"a", "b"}, [][]Cell{{Str("only one")}})
	if err == nil {
		t.Fatalf("expected width mismatch error")
	}
}

func TestWriteProductPerformanceCSV(t *testing.T) {
	rows := []metrics.ProductPerformance{{
		ProductID: "p1", ProductName: "Latte, Large", CategoryName: "Coffee",
		TotalQuantity: 4, TotalSales: 20, TotalCost: 8, TotalProfit: 12,
		ProfitMargin: 0.6, StockLevel: 10, StockTurnover: 1.5,
	}}
	buf := &bytes.Buffer{}
	if err := WriteProductPerformanceCSV(buf, rows); err != nil {
		t.Fatalf("write error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("read back error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	row := records[1]
	if row[1] != "Latte, Large" {
		t.Fatalf("name mismatch %q", row[1])
	}
	if row[7] != "60.00" {
		t.Fatalf("margin should render as percent, got %q", row[7])
	}
}

func TestWriteExpenseBreakdownCSV(t *testing.T) {
	breakdown := expenses.ComputeBreakdown([]expenses.Expense{
		{Description: "Rent", Amount: 750, Category: "Facilities"},
		{Description: "Cups", Amount: 250, Category: "Supplies"},
	})
	buf := &bytes.Buffer{}
	if err := WriteExpenseBreakdownCSV(buf, breakdown); err != nil {
		t.Fatalf("write error: %v", err)
	}
	records, _ := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if records[1][2] != "75.00" {
		t.Fatalf("expected 75.00 share, got %q", records[1][2])
	}
}

func TestWriteOverallCSVFormatsMoneyColumn(t *testing.T) {
	overall := metrics.OverallMetrics{
		TotalQuantity: 5,
		TotalSales:    1234.5,
		TotalProfit:   400,
	}
	buf := &bytes.Buffer{}
	if err := WriteOverallCSV(buf, overall, "USD"); err != nil {
		t.Fatalf("write error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("read back error: %v", err)
	}
	byMetric := map[string][]string{}
	for _, row := range records[1:] {
		byMetric[row[0]] = row
	}
	if byMetric["Currency"][1] != "USD" {
		t.Fatalf("currency row mismatch: %v", byMetric["Currency"])
	}
	sales := byMetric["Total Sales"]
	if sales[1] != "1234.50" {
		t.Fatalf("expected raw value 1234.50, got %q", sales[1])
	}
	if sales[2] == "" {
		t.Fatalf("expected display column for money rows")
	}
	if byMetric["Total Quantity"][2] != "" {
		t.Fatalf("quantity should have no display value: %v", byMetric["Total Quantity"])
	}
}

func TestFilename(t *testing.T) {
	got := Filename("Product Performance", "2025-06-01", "2025-06-30")
	want := "product-performance-2025-06-01-2025-06-30.csv"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if Filename("???", "a", "b") != "report-a-b.csv" {
		t.Fatalf("fallback name broken: %q", Filename("???", "a", "b"))
	}
}
