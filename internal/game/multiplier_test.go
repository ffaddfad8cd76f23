package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wagerworks/towerd/internal/domain"
)

func TestRevealGain_EasyFirstRow(t *testing.T) {
	// 0.4 * 1 * 0.69 = 0.276
	assert.InDelta(t, 0.276, RevealGain(domain.DifficultyEasy, 0), 1e-9)
}

func TestRevealGain_OutOfRangeRowIsZero(t *testing.T) {
	assert.Zero(t, RevealGain(domain.DifficultyMedium, -1))
	assert.Zero(t, RevealGain(domain.DifficultyMedium, domain.BoardRows))
}

func TestTopBonus_StrictlyAboveNoBonus(t *testing.T) {
	for _, d := range domain.Difficulties() {
		withoutBonus := 0.0
		for row := 0; row < domain.BoardRows; row++ {
			withoutBonus += RevealGain(d, row)
		}
		withBonus := withoutBonus + TopBonus(d)
		assert.Greater(t, withBonus, withoutBonus, "difficulty %s", d)
		assert.Greater(t, withBonus, 1.0, "a full climb must beat the bet on %s", d)
	}
}

func TestPayout_FloorsToWholeUnits(t *testing.T) {
	assert.Equal(t, int64(276), Payout(1000, 0.276))
	assert.Equal(t, int64(1000), Payout(1000, 1.0))
	assert.Equal(t, int64(1999), Payout(1000, 1.9999))
	assert.Equal(t, int64(0), Payout(1000, 0))
}

func TestBonusPayout(t *testing.T) {
	assert.Equal(t, int64(150), BonusPayout(1000, 0.15))
	assert.Equal(t, int64(0), BonusPayout(1000, 0))
	assert.Equal(t, int64(0), BonusPayout(1000, -0.5))
}
