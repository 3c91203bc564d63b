package fairness

import "math"

// payoutTable holds the multiplier per bin; edges pay most, the centre least.
var payoutTable = [Bins]float64{33, 16, 9, 5, 3, 1.5, 1, 1.5, 3, 5, 9, 16, 33}

const defaultMultiplier = 1.0

// PayoutMultiplier returns the multiplier for binIndex, or 1.0 when the index
// is outside the table.
func PayoutMultiplier(binIndex int) float64 {
	if binIndex < 0 || binIndex >= len(payoutTable) {
		return defaultMultiplier
	}
	return payoutTable[binIndex]
}

// PayoutTable returns a copy of the bin multipliers.
func PayoutTable() []float64 {
	out := make([]float64, len(payoutTable))
	copy(out, payoutTable[:])
	return out
}

// WinAmount returns the stake multiplied out and rounded to whole cents.
func WinAmount(betCents int64, multiplier float64) int64 {
	return int64(math.Round(float64(betCents) * multiplier))
}
