package expenses

import "sort"

const uncategorized = "Uncategorized"

// ComputeBreakdown folds expenses into per-category totals and shares.
// Pure and deterministic: shares are percentages of the grand total, zero
// when the total is zero, and the result is sorted by descending total with
// category name as tie-break.
func ComputeBreakdown(items []Expense) Breakdown {
	totals := make(map[string]*CategoryShare)
	var grand float64
	for _, e := range items {
		amount := sanitize(e.Amount)
		grand += amount
		key := e.Category
		if key == "" {
			key = uncategorized
		}
		share, ok := totals[key]
		if !ok {
			share = &CategoryShare{Category: key}
			totals[key] = share
		}
		share.Total += amount
		share.Count++
	}

	shares := make([]CategoryShare, 0, len(totals))
	for _, share := range totals {
		if grand > 0 {
			share.Share = share.Total / grand * 100
		}
		shares = append(shares, *share)
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Total != shares[j].Total {
			return shares[i].Total > shares[j].Total
		}
		return shares[i].Category < shares[j].Category
	})
	return Breakdown{Total: grand, Shares: shares}
}

func sanitize(v float64) float64 {
	// NaN and infinities degrade to zero rather than poisoning sums.
	if v != v || v > maxAmount || v < -maxAmount {
		return 0
	}
	return v
}

const maxAmount = 1e15
