package metrics

// Turnover estimates annualized stock turnover: units sold scaled to a full
// year, divided by inventory. Current stock stands in for the historical
// average inventory; dashboards depend on that approximation, so a
// higher-fidelity variant belongs in a new metric, not here.
func Turnover(quantitySold, stockLevel, daysInStock int) float64 {
	if stockLevel <= 0 || daysInStock <= 0 {
		return 0
	}
	annualized := float64(quantitySold) * (365.0 / float64(daysInStock))
	return annualized / float64(stockLevel)
}
