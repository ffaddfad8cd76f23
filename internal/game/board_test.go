package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagerworks/towerd/internal/domain"
)

// scriptedRand replays fixed sequences, cycling when exhausted.
type scriptedRand struct {
	ints     []int
	floats   []float64
	intPos   int
	floatPos int
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[r.intPos%len(r.ints)] % n
	r.intPos++
	return v
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 1
	}
	v := r.floats[r.floatPos%len(r.floats)]
	r.floatPos++
	return v
}

func TestNewBoard_DensityPerDifficulty(t *testing.T) {
	cases := []struct {
		difficulty domain.Difficulty
		width      int
		eggs       int
	}{
		{domain.DifficultyEasy, 4, 3},
		{domain.DifficultyMedium, 3, 2},
		{domain.DifficultyHard, 2, 1},
		{domain.DifficultyExpert, 4, 1},
	}

	for _, tc := range cases {
		t.Run(string(tc.difficulty), func(t *testing.T) {
			board, err := NewBoard(tc.difficulty, NewRand())
			require.NoError(t, err)
			require.Len(t, board, domain.BoardRows)

			for i, row := range board {
				assert.Len(t, row, tc.width, "row %d width", i)
				rewards := 0
				for _, cell := range row {
					if cell.Reward() {
						rewards++
					}
				}
				assert.Equal(t, tc.eggs, rewards, "row %d reward count", i)
			}
		})
	}
}

func TestNewBoard_AtMostOneGem(t *testing.T) {
	// Force the gem upgrade to fire on every placement pick: the boardwide
	// flag must still cap gems at one.
	rng := &scriptedRand{ints: []int{0, 1, 2, 3}, floats: []float64{0}}

	board, err := NewBoard(domain.DifficultyEasy, rng)
	require.NoError(t, err)

	gems := 0
	for _, row := range board {
		for _, cell := range row {
			if cell == domain.CellGem {
				gems++
			}
		}
	}
	assert.Equal(t, 1, gems)
}

func TestNewBoard_NoGemWhenChanceNeverFires(t *testing.T) {
	for i := 0; i < 50; i++ {
		rng := &scriptedRand{ints: []int{0, 1, 2, 3, 2, 1}, floats: []float64{0.99}}
		board, err := NewBoard(domain.DifficultyMedium, rng)
		require.NoError(t, err)
		for _, row := range board {
			for _, cell := range row {
				assert.NotEqual(t, domain.CellGem, cell)
			}
		}
	}
}

func TestNewBoard_InvalidDifficulty(t *testing.T) {
	_, err := NewBoard(domain.Difficulty("nightmare"), NewRand())
	assert.ErrorIs(t, err, domain.ErrInvalidDifficulty)
}

func TestShape(t *testing.T) {
	width, eggs, err := Shape(domain.DifficultyHard)
	require.NoError(t, err)
	assert.Equal(t, 2, width)
	assert.Equal(t, 1, eggs)

	_, _, err = Shape(domain.Difficulty(""))
	assert.ErrorIs(t, err, domain.ErrInvalidDifficulty)
}
