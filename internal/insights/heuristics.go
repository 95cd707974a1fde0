package insights

import (
	"fmt"
	"sort"
	"time"

	"github.com/meridian-pos/meridian-pos/internal/metrics"
	"github.com/meridian-pos/meridian-pos/internal/sales"
)

// DailyTotal is one day of bucketed revenue and profit.
type DailyTotal struct {
	Date    time.Time `json:"date"`
	Revenue float64   `json:"revenue"`
	Profit  float64   `json:"profit"`
	Orders  int       `json:"orders"`
}

// WeekdaySummary reports the averaged takings for one day of the week.
type WeekdaySummary struct {
	Weekday        time.Weekday `json:"weekday"`
	AverageRevenue float64      `json:"average_revenue"`
	AverageProfit  float64      `json:"average_profit"`
	Days           int          `json:"days"`
}

// DayOfWeekInsight names the best and worst trading weekdays by average
// revenue. Ties break deterministically on the lower weekday index.
type DayOfWeekInsight struct {
	Best  WeekdaySummary `json:"best"`
	Worst WeekdaySummary `json:"worst"`
}

// ComboSuggestion is a synthetic product pairing. The quantities and
// revenue are scaled estimates, never observed co-purchases.
type ComboSuggestion struct {
	Products         []string `json:"products"`
	EstimatedPerWeek float64  `json:"estimated_per_week"`
	EstimatedRevenue float64  `json:"estimated_revenue"`
	Estimated        bool     `json:"estimated"`
}

// PricingOpportunity proposes a price raise for a high-demand, low-margin
// product, with profit recomputed at constant quantity.
type PricingOpportunity struct {
	ProductID        string  `json:"product_id"`
	ProductName      string  `json:"product_name"`
	CurrentPrice     float64 `json:"current_price"`
	SuggestedPrice   float64 `json:"suggested_price"`
	CurrentMargin    float64 `json:"current_margin"`
	CurrentProfit    float64 `json:"current_profit"`
	PotentialProfit  float64 `json:"potential_profit"`
	QuantitySold     int     `json:"quantity_sold"`
	Estimated        bool    `json:"estimated"`
	ElasticityCaveat string  `json:"elasticity_caveat"`
}

// BestWorstDay buckets daily totals by weekday, averages them, and picks the
// extremes by average revenue. Returns false when no data is present.
func BestWorstDay(dailies []DailyTotal) (DayOfWeekInsight, bool) {
	type bucket struct {
		revenue float64
		profit  float64
		days    int
	}
	var buckets [7]bucket
	var any bool
	for _, d := range dailies {
		wd := d.Date.Weekday()
		buckets[wd].revenue += d.Revenue
		buckets[wd].profit += d.Profit
		buckets[wd].days++
		any = true
	}
	if !any {
		return DayOfWeekInsight{}, false
	}

	summaries := make([]WeekdaySummary, 0, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		b := buckets[wd]
		if b.days == 0 {
			continue
		}
		summaries = append(summaries, WeekdaySummary{
			Weekday:        wd,
			AverageRevenue: b.revenue / float64(b.days),
			AverageProfit:  b.profit / float64(b.days),
			Days:           b.days,
		})
	}

	best, worst := summaries[0], summaries[0]
	for _, s := range summaries[1:] {
		if s.AverageRevenue > best.AverageRevenue {
			best = s
		}
		if s.AverageRevenue < worst.AverageRevenue {
			worst = s
		}
	}
	return DayOfWeekInsight{Best: best, Worst: worst}, true
}

// SuggestCombos synthesizes plausible product pairings from the top sellers.
// The weighting constants are fixed business heuristics, not observed
// co-purchase frequencies, so every suggestion is marked Estimated.
func SuggestCombos(rows []metrics.ProductPerformance, cfg Config) []ComboSuggestion {
	cfg = cfg.withDefaults()

	top := make([]metrics.ProductPerformance, 0, len(rows))
	for _, row := range rows {
		if row.TotalQuantity > 0 {
			top = append(top, row)
		}
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].TotalSales != top[j].TotalSales {
			return top[i].TotalSales > top[j].TotalSales
		}
		return top[i].ProductID < top[j].ProductID
	})
	if len(top) > cfg.TopN {
		top = top[:cfg.TopN]
	}
	if len(top) < 2 {
		return nil
	}

	suggestions := make([]ComboSuggestion, 0, len(top)-1)
	for i := 1; i < len(top); i++ {
		weight := cfg.ComboWeights[len(cfg.ComboWeights)-1]
		if i-1 < len(cfg.ComboWeights) {
			weight = cfg.ComboWeights[i-1]
		}
		lead, partner := top[0], top[i]
		pairQty := float64(minInt(lead.TotalQuantity, partner.TotalQuantity))
		suggestions = append(suggestions, ComboSuggestion{
			Products:         []string{lead.ProductName, partner.ProductName},
			EstimatedPerWeek: pairQty * weight,
			EstimatedRevenue: (lead.TotalSales + partner.TotalSales) * weight,
			Estimated:        true,
		})
	}
	return suggestions
}

// PricingOpportunities flags products whose margin sits below the threshold
// while demand clears the share-of-orders bar, and prices them up by the
// configured raise. Quantity is held constant: no demand elasticity.
func PricingOpportunities(rows []metrics.ProductPerformance, totalOrders int, cfg Config) []PricingOpportunity {
	cfg = cfg.withDefaults()
	if totalOrders <= 0 {
		return nil
	}
	demandFloor := cfg.DemandShare * float64(totalOrders)

	var out []PricingOpportunity
	for _, row := range rows {
		if row.TotalSales <= 0 || row.ProfitMargin >= cfg.MarginThreshold {
			continue
		}
		if float64(row.TotalQuantity) <= demandFloor {
			continue
		}
		newPrice := row.Price * (1 + cfg.PriceRaise)
		potential := (newPrice - row.Cost) * float64(row.TotalQuantity)
		out = append(out, PricingOpportunity{
			ProductID:       row.ProductID,
			ProductName:     row.ProductName,
			CurrentPrice:    row.Price,
			SuggestedPrice:  newPrice,
			CurrentMargin:   row.ProfitMargin,
			CurrentProfit:   row.TotalProfit,
			PotentialProfit: potential,
			QuantitySold:    row.TotalQuantity,
			Estimated:       true,
			ElasticityCaveat: fmt.Sprintf(
				"assumes demand holds at %d units after a %.0f%% raise",
				row.TotalQuantity, cfg.PriceRaise*100),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		di := out[i].PotentialProfit - out[i].CurrentProfit
		dj := out[j].PotentialProfit - out[j].CurrentProfit
		if di != dj {
			return di > dj
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

// DailiesFromSales buckets sales into daily revenue/profit totals. Costs
// maps product id to unit cost; unknown ids contribute zero cost.
func DailiesFromSales(saleRows []sales.Sale, costs map[string]float64) []DailyTotal {
	byDay := make(map[time.Time]*DailyTotal)
	for _, s := range saleRows {
		day := s.CreatedAt.UTC().Truncate(24 * time.Hour)
		bucket, ok := byDay[day]
		if !ok {
			bucket = &DailyTotal{Date: day}
			byDay[day] = bucket
		}
		bucket.Orders++
		for _, it := range s.Items {
			revenue := it.Net()
			bucket.Revenue += revenue
			bucket.Profit += revenue - costs[it.ProductID]*float64(it.Quantity)
		}
	}
	out := make([]DailyTotal, 0, len(byDay))
	for _, b := range byDay {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
