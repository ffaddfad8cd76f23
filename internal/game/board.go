// Package game holds the pure rules of the tower game: board generation and
// multiplier arithmetic. Nothing in here touches storage or timers.
package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/wagerworks/towerd/internal/domain"
)

// Rand is the randomness the game consumes. Production uses math/rand/v2;
// tests inject a deterministic sequence.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type stdRand struct{}

func (stdRand) IntN(n int) int   { return rand.IntN(n) }
func (stdRand) Float64() float64 { return rand.Float64() }

// NewRand returns the production randomness source.
func NewRand() Rand { return stdRand{} }

// gemChance is the probability that a single placement pick upgrades to the
// board's only gem.
const gemChance = 0.015

// rowShape is the width and reward count of each row for a difficulty.
type rowShape struct {
	width int
	eggs  int
}

var shapes = map[domain.Difficulty]rowShape{
	domain.DifficultyEasy:   {width: 4, eggs: 3},
	domain.DifficultyMedium: {width: 3, eggs: 2},
	domain.DifficultyHard:   {width: 2, eggs: 1},
	domain.DifficultyExpert: {width: 4, eggs: 1},
}

// Shape returns the row width and reward count for a difficulty.
func Shape(d domain.Difficulty) (width, eggs int, err error) {
	s, ok := shapes[d]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", domain.ErrInvalidDifficulty, d)
	}
	return s.width, s.eggs, nil
}

// NewBoard generates a board for the difficulty: nine rows, each with the
// configured reward count, and at most one gem across the whole board.
// Placement re-picks that land on the gem are skipped; no backtracking is
// needed because width always exceeds the reward count.
func NewBoard(d domain.Difficulty, rng Rand) (domain.Board, error) {
	shape, ok := shapes[d]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDifficulty, d)
	}

	board := make(domain.Board, 0, domain.BoardRows)
	gemPlaced := false

	for i := 0; i < domain.BoardRows; i++ {
		row := make([]domain.Cell, shape.width)
		for rewardCount(row) < shape.eggs {
			if !gemPlaced && rng.Float64() < gemChance {
				row[rng.IntN(shape.width)] = domain.CellGem
				gemPlaced = true
				continue
			}
			pos := rng.IntN(shape.width)
			if row[pos] == domain.CellGem {
				continue
			}
			row[pos] = domain.CellEgg
		}
		board = append(board, row)
	}

	return board, nil
}

func rewardCount(row []domain.Cell) int {
	n := 0
	for _, c := range row {
		if c.Reward() {
			n++
		}
	}
	return n
}
