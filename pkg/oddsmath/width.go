package oddsmath

import "math"

// Width measures the distance between the sharp price and its synthetic
// counter price. A narrower width means a tighter, more liquid market and a
// more trustworthy sharp line.
//
// The four sign combinations each subtract the two magnitudes in the order
// that keeps favorites and underdogs comparable:
//
// both negative:  abs(min) - abs(max)
// sharp<0, x>0:   abs(sharp) - abs(x)
// sharp>0, x<0:   abs(x) - abs(sharp)
// both positive:  abs(abs(sharp) - abs(x))
//
// The result is always returned as an absolute value.
func Width(sharp, counter float64) float64 {
	var width float64

	switch {
	case sharp < 0 && counter < 0:
		width = math.Abs(math.Min(sharp, counter)) - math.Abs(math.Max(sharp, counter))
	case sharp < 0 && counter >= 0:
		width = math.Abs(sharp) - math.Abs(counter)
	case sharp >= 0 && counter < 0:
		width = math.Abs(counter) - math.Abs(sharp)
	default:
		width = math.Abs(math.Abs(sharp) - math.Abs(counter))
	}

	return math.Abs(width)
}
