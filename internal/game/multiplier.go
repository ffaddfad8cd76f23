package game

import (
	"math"

	"github.com/wagerworks/towerd/internal/domain"
)

var increments = map[domain.Difficulty]float64{
	domain.DifficultyEasy:   0.4,
	domain.DifficultyMedium: 1.0,
	domain.DifficultyHard:   1.4,
	domain.DifficultyExpert: 2.9,
}

// rowOffsets dampen the per-row gain as the player climbs; index is the row.
var rowOffsets = [domain.BoardRows]float64{0.69, 0.55, 0.45, 0.35, 0.3, 0.25, 0.17, 0.1, 0.1}

// GemFlatBonus is added to the multiplier once when the board's gem is found.
const GemFlatBonus = 3.0

// Increment returns the per-difficulty multiplier increment constant.
func Increment(d domain.Difficulty) float64 {
	return increments[d]
}

// RowOffset returns the dampening factor for a row index.
func RowOffset(row int) float64 {
	if row < 0 || row >= domain.BoardRows {
		return 0
	}
	return rowOffsets[row]
}

// RevealGain is the multiplier added by revealing a reward cell on the given
// row: increment × (row+1) × offset(row).
func RevealGain(d domain.Difficulty, row int) float64 {
	return Increment(d) * float64(row+1) * RowOffset(row)
}

// TopBonus is the extra multiplier granted for clearing the top row.
func TopBonus(d domain.Difficulty) float64 {
	return Increment(d) * 2
}

// Payout converts a settled multiplier into currency, rounded down to whole
// units before any ledger write.
func Payout(bet int64, multiplier float64) int64 {
	return int64(math.Floor(float64(bet) * multiplier))
}

// BonusPayout is the extra credited on top of a winning payout for the
// user's wager-multiplier bonus fraction.
func BonusPayout(payout int64, bonus float64) int64 {
	if bonus <= 0 {
		return 0
	}
	return int64(math.Floor(float64(payout) * bonus))
}
