package oddsmath

import "fmt"

// ImpliedProbability converts American odds to the vig-included implied probability
//
// Formula:
// Negative odds: abs(price) / (abs(price) + 100)
// Positive odds: 100 / (100 + price)
//
// Example:
// -110 → 0.5238 (52.38%)
// +150 → 0.40 (40%)
//
// A price of 0 is not a valid American-odds encoding; it is rejected rather
// than special-cased to 50%.
func ImpliedProbability(price int) (float64, error) {
	if price == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}

	if price < 0 {
		return float64(-price) / (float64(-price) + 100.0), nil
	}

	return 100.0 / (100.0 + float64(price)), nil
}

// Earnings converts American odds to potential profit per $100 staked
//
// Negative odds: 10000 / abs(price)
// Positive odds: the price itself
//
// Example:
// -110 → 90.909
// +150 → 150
func Earnings(price int) (float64, error) {
	if price == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}

	if price < 0 {
		return 100.0 / (float64(-price) / 100.0), nil
	}

	return float64(price), nil
}
