package domain

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty selects the board density and multiplier increment of a session.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// Difficulties lists all valid difficulties in ascending order of risk.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert}
}

// Valid reports whether d is one of the known difficulty tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

// Cell is the state of a single board square.
type Cell uint8

const (
	CellBlank Cell = iota
	CellEgg
	CellGem
	CellEggFound
	CellGemFound
	CellBust
)

// Revealed reports whether the cell has been clicked by the player.
func (c Cell) Revealed() bool {
	return c == CellEggFound || c == CellGemFound || c == CellBust
}

// Reward reports whether the cell pays out when revealed.
func (c Cell) Reward() bool {
	return c == CellEgg || c == CellGem
}

// BoardRows is the fixed height of every board regardless of difficulty.
const BoardRows = 9

// Board is the grid of a session, rows ordered bottom to top. The player
// climbs from row 0 to row BoardRows-1.
type Board [][]Cell

// ActiveRow returns the index of the lowest unrevealed row, capped at the
// top row.
func (b Board) ActiveRow() int {
	index := 0
	for _, row := range b {
		for _, cell := range row {
			if cell == CellEggFound || cell == CellGemFound {
				index++
				break
			}
		}
	}
	if index > BoardRows-1 {
		return BoardRows - 1
	}
	return index
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive  Status = "active"
	StatusSettled Status = "settled"
)

// Result is the terminal outcome of a session.
type Result string

const (
	ResultWin  Result = "win"
	ResultLose Result = "lose"
	ResultDraw Result = "draw"
)

// Session is one instance of the escrow→play→settle lifecycle for one user.
// The token distinguishes this instance from any later replay for the same
// user: a timer armed for an old token must never act on its successor.
type Session struct {
	Token        uuid.UUID
	UserID       string
	Bet          int64
	Board        Board
	Multiplier   float64
	Difficulty   Difficulty
	Status       Status
	CreatedAt    time.Time
	LastActionAt time.Time
}
