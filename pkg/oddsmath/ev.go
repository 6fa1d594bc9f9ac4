package oddsmath

// DefaultTargetVig is the assumed two-sided market vig used when deriving the
// synthetic counter price from a sharp quote. Carried over from the original
// pricing model; change only with product guidance.
const DefaultTargetVig = 0.04

// CounterOdds derives a synthetic American price for the opposite side of a
// two-way market from the sharp book's price and its implied probability,
// assuming the market carries targetVig of total margin.
//
// The counter side's implied probability is (1 + targetVig) - sharpProb; the
// formula below converts that back to American odds, branching on which side
// is the favorite.
func CounterOdds(sharpPrice int, sharpProb, targetVig float64) float64 {
	counterProb := (1.0 + targetVig) - sharpProb

	if sharpPrice < 0 {
		return 100.0/counterProb - 100.0
	}

	return -(100.0 * counterProb) / (1.0 - counterProb)
}

// ExpectedValue computes expected profit per $100 staked at the book's price,
// taking the sharp book's implied probability as the true win probability.
// Result is a decimal fraction (0.05 = +5% edge).
//
// EV = (bookEarnings * sharpProb - 100 * (1 - sharpProb)) / 100
func ExpectedValue(bookEarnings, sharpProb float64) float64 {
	return (bookEarnings*sharpProb - 100.0*(1.0-sharpProb)) / 100.0
}

// ExpectedValueProbability is the probability-differencing EV variant:
// (sharpProb - bookProb) / bookProb. One legacy call site priced edges this
// way; it is preserved as a selectable formula rather than re-derived inline.
func ExpectedValueProbability(sharpProb, bookProb float64) float64 {
	if bookProb == 0 {
		return 0
	}
	return (sharpProb - bookProb) / bookProb
}
