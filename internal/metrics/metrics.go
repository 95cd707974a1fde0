// Package metrics implements the pure aggregation pipeline behind the
// analytics dashboards: per-product, per-category, and overall performance
// reduced from raw sales, products, and categories. Everything here is
// deterministic, free of I/O, and degrades to zeros instead of failing.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/sales"
)

// UncategorizedLabel is the fallback category name for products without one.
const UncategorizedLabel = "Uncategorized"

// UnknownProductLabel names the bucket that collects sale items whose
// product id no longer resolves, so their revenue stays visible in reports
// instead of being silently dropped.
const UnknownProductLabel = "Unknown Product"

// ProductPerformance is the per-product rollup. ProfitMargin is a 0-1
// fraction and may be negative when a product sells below cost.
type ProductPerformance struct {
	ProductID     string  `json:"product_id"`
	ProductName   string  `json:"product_name"`
	CategoryID    *string `json:"category_id,omitempty"`
	CategoryName  string  `json:"category_name"`
	Cost          float64 `json:"cost"`
	Price         float64 `json:"price"`
	TotalQuantity int     `json:"total_quantity"`
	TotalSales    float64 `json:"total_sales"`
	TotalCost     float64 `json:"total_cost"`
	TotalProfit   float64 `json:"total_profit"`
	ProfitMargin  float64 `json:"profit_margin"`
	StockLevel    int     `json:"stock_level"`
	DaysInStock   int     `json:"days_in_stock"`
	StockTurnover float64 `json:"stock_turnover"`
}

// CategoryPerformance aggregates the products of one category.
type CategoryPerformance struct {
	CategoryID    string  `json:"category_id"`
	CategoryName  string  `json:"category_name"`
	ProductCount  int     `json:"product_count"`
	TotalQuantity int     `json:"total_quantity"`
	TotalSales    float64 `json:"total_sales"`
	TotalCost     float64 `json:"total_cost"`
	TotalProfit   float64 `json:"total_profit"`
	ProfitMargin  float64 `json:"profit_margin"`
}

// OverallMetrics carries the grand totals for the period.
type OverallMetrics struct {
	TotalQuantity        int     `json:"total_quantity"`
	TotalSales           float64 `json:"total_sales"`
	TotalCost            float64 `json:"total_cost"`
	TotalProfit          float64 `json:"total_profit"`
	AverageProfitMargin  float64 `json:"average_profit_margin"`
	TotalInventoryValue  float64 `json:"total_inventory_value"`
	AverageStockTurnover float64 `json:"average_stock_turnover"`
}

// Result is the full output of one aggregation run. It is rebuilt from
// scratch on every call and never persisted.
type Result struct {
	Products      []ProductPerformance  `json:"product_performance"`
	Categories    []CategoryPerformance `json:"category_performance"`
	Overall       OverallMetrics        `json:"overall_metrics"`
	OrphanedItems int                   `json:"orphaned_items"`
}

// Options tunes an aggregation run.
type Options struct {
	// Now anchors the days-in-stock computation; zero means time.Now().
	Now time.Time
}

// Compute reduces raw sales against the product catalog. Every known product
// appears in the output, sold or not. Sale items referencing an unknown
// product accumulate into a synthetic Unknown Product row and are counted in
// Result.OrphanedItems.
func Compute(saleRows []sales.Sale, products []catalog.Product, categories []catalog.Category, opts Options) Result {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	categoryNames := make(map[string]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	// Seed one performance row per known product so zero-sale products
	// still show up with zeroed totals.
	perf := make(map[string]*ProductPerformance, len(products))
	order := make([]string, 0, len(products))
	for _, p := range products {
		name := UncategorizedLabel
		if p.CategoryID != nil {
			if n, ok := categoryNames[*p.CategoryID]; ok {
				name = n
			}
		}
		perf[p.ID] = &ProductPerformance{
			ProductID:    p.ID,
			ProductName:  p.Name,
			CategoryID:   p.CategoryID,
			CategoryName: name,
			Cost:         sanitize(p.Cost()),
			Price:        sanitize(p.Price),
			StockLevel:   maxInt(p.Stock, 0),
			DaysInStock:  daysInStock(p.CreatedAt, now),
		}
		order = append(order, p.ID)
	}

	var orphaned int
	for _, sale := range saleRows {
		for _, item := range sale.Items {
			row, ok := perf[item.ProductID]
			if !ok {
				orphaned++
				row = &ProductPerformance{
					ProductID:    item.ProductID,
					ProductName:  UnknownProductLabel,
					CategoryName: UncategorizedLabel,
				}
				perf[item.ProductID] = row
				order = append(order, item.ProductID)
			}
			revenue := sanitize(item.Price) * float64(item.Quantity) * (1 - sanitize(item.Discount)/100)
			cost := row.Cost * float64(item.Quantity)
			row.TotalQuantity += item.Quantity
			row.TotalSales += revenue
			row.TotalCost += cost
			row.TotalProfit += revenue - cost
		}
	}

	// Second pass: derived ratios.
	for _, row := range perf {
		if row.TotalSales > 0 {
			row.ProfitMargin = row.TotalProfit / row.TotalSales
		}
		row.StockTurnover = Turnover(row.TotalQuantity, row.StockLevel, row.DaysInStock)
	}

	result := Result{
		Products:      make([]ProductPerformance, 0, len(order)),
		Categories:    rollupCategories(perf, order, categoryNames),
		OrphanedItems: orphaned,
	}
	for _, id := range order {
		result.Products = append(result.Products, *perf[id])
	}
	sort.Slice(result.Products, func(i, j int) bool {
		a, b := result.Products[i], result.Products[j]
		if a.TotalSales != b.TotalSales {
			return a.TotalSales > b.TotalSales
		}
		return a.ProductID < b.ProductID
	})

	result.Overall = computeOverall(result.Products, products)
	return result
}

func rollupCategories(perf map[string]*ProductPerformance, order []string, names map[string]string) []CategoryPerformance {
	byCategory := make(map[string]*CategoryPerformance)
	for _, id := range order {
		row := perf[id]
		if row.CategoryID == nil {
			continue
		}
		catID := *row.CategoryID
		cat, ok := byCategory[catID]
		if !ok {
			name := names[catID]
			if name == "" {
				name = UncategorizedLabel
			}
			cat = &CategoryPerformance{CategoryID: catID, CategoryName: name}
			byCategory[catID] = cat
		}
		cat.ProductCount++
		cat.TotalQuantity += row.TotalQuantity
		cat.TotalSales += row.TotalSales
		cat.TotalCost += row.TotalCost
		cat.TotalProfit += row.TotalProfit
	}
	out := make([]CategoryPerformance, 0, len(byCategory))
	for _, cat := range byCategory {
		if cat.TotalSales > 0 {
			cat.ProfitMargin = cat.TotalProfit / cat.TotalSales
		}
		out = append(out, *cat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSales != out[j].TotalSales {
			return out[i].TotalSales > out[j].TotalSales
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

func computeOverall(rows []ProductPerformance, products []catalog.Product) OverallMetrics {
	var overall OverallMetrics
	for _, row := range rows {
		overall.TotalQuantity += row.TotalQuantity
		overall.TotalSales += row.TotalSales
		overall.TotalCost += row.TotalCost
		overall.TotalProfit += row.TotalProfit
	}

	// Revenue-weighted margin: high-revenue products dominate, which keeps
	// small-revenue outliers from skewing the headline number. Algebraically
	// this equals total profit over total sales.
	if overall.TotalSales > 0 {
		var weighted float64
		for _, row := range rows {
			weighted += row.ProfitMargin * (row.TotalSales / overall.TotalSales)
		}
		overall.AverageProfitMargin = weighted
	}

	// Inventory value spans the raw catalog, so products without sales
	// still contribute their stock on hand.
	for _, p := range products {
		overall.TotalInventoryValue += float64(maxInt(p.Stock, 0)) * sanitize(p.Cost())
	}

	var turnoverSum float64
	var stocked int
	for _, row := range rows {
		if row.StockLevel > 0 {
			turnoverSum += row.StockTurnover
			stocked++
		}
	}
	if stocked > 0 {
		overall.AverageStockTurnover = turnoverSum / float64(stocked)
	}
	return overall
}

func daysInStock(createdAt *time.Time, now time.Time) int {
	if createdAt == nil {
		return 0
	}
	age := now.Sub(*createdAt)
	if age < 0 {
		age = -age
	}
	return int(math.Ceil(age.Hours() / 24))
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
