package app

import (
	"github.com/google/uuid"

	"github.com/wagerworks/towerd/internal/domain"
)

// liveView builds the masked in-play view: revealed squares show their
// contents, everything else stays hidden until settlement.
func liveView(sess *domain.Session) domain.RenderView {
	rows := make([][]domain.CellView, len(sess.Board))
	for i, row := range sess.Board {
		rows[i] = make([]domain.CellView, len(row))
		for j, cell := range row {
			if cell.Revealed() {
				rows[i][j] = cellView(cell)
			} else {
				rows[i][j] = domain.CellViewHidden
			}
		}
	}

	return domain.RenderView{
		UserID:     sess.UserID,
		Rows:       rows,
		ActiveRow:  sess.Board.ActiveRow(),
		Bet:        sess.Bet,
		Multiplier: sess.Multiplier,
		Difficulty: sess.Difficulty,
		Status:     sess.Status,
		CanFinish:  sess.Multiplier >= 1,
	}
}

// settledView builds the final view with the full board uncovered.
func settledView(sess *domain.Session, result domain.Result, payout int64, outcomeID uuid.UUID, replayOffer bool) domain.RenderView {
	rows := make([][]domain.CellView, len(sess.Board))
	for i, row := range sess.Board {
		rows[i] = make([]domain.CellView, len(row))
		for j, cell := range row {
			rows[i][j] = cellView(cell)
		}
	}

	view := domain.RenderView{
		UserID:      sess.UserID,
		Rows:        rows,
		ActiveRow:   sess.Board.ActiveRow(),
		Bet:         sess.Bet,
		Multiplier:  sess.Multiplier,
		Difficulty:  sess.Difficulty,
		Status:      domain.StatusSettled,
		Result:      result,
		Payout:      payout,
		ReplayOffer: replayOffer,
	}
	if outcomeID != uuid.Nil {
		view.OutcomeID = outcomeID.String()
	}
	return view
}

func cellView(cell domain.Cell) domain.CellView {
	switch cell {
	case domain.CellEgg:
		return domain.CellViewEgg
	case domain.CellGem:
		return domain.CellViewGem
	case domain.CellEggFound:
		return domain.CellViewEggFound
	case domain.CellGemFound:
		return domain.CellViewGemFound
	case domain.CellBust:
		return domain.CellViewBust
	default:
		return domain.CellViewBlank
	}
}
