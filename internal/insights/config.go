// Package insights derives advisory heuristics from aggregated sales data:
// best and worst trading weekdays, synthetic product-combination ideas, and
// pricing opportunities. Every output that rests on an approximation is
// flagged Estimated so presentation layers cannot pass it off as measured.
package insights

// Config holds the heuristic tuning knobs. The defaults reproduce the
// established dashboard behaviour; callers may override any of them.
type Config struct {
	// MarginThreshold is the profit-margin fraction below which a product
	// is considered underpriced.
	MarginThreshold float64
	// DemandShare is the fraction of total orders a product must exceed
	// before a price raise is suggested.
	DemandShare float64
	// PriceRaise is the suggested price increase as a fraction.
	PriceRaise float64
	// ComboWeights scale top-seller quantities into synthetic combination
	// estimates, highest weight first.
	ComboWeights []float64
	// TopN caps how many leading products feed the combination heuristic.
	TopN int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MarginThreshold: 0.30,
		DemandShare:     0.10,
		PriceRaise:      0.10,
		ComboWeights:    []float64{0.3, 0.2, 0.15, 0.1},
		TopN:            4,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MarginThreshold <= 0 {
		c.MarginThreshold = d.MarginThreshold
	}
	if c.DemandShare <= 0 {
		c.DemandShare = d.DemandShare
	}
	if c.PriceRaise <= 0 {
		c.PriceRaise = d.PriceRaise
	}
	if len(c.ComboWeights) == 0 {
		c.ComboWeights = d.ComboWeights
	}
	if c.TopN <= 0 {
		c.TopN = d.TopN
	}
	return c
}
