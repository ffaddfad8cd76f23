package domain

// CellView is the presentation state of one square. Unrevealed cells are
// masked as "hidden" until the session settles.
type CellView string

const (
	CellViewHidden   CellView = "hidden"
	CellViewBlank    CellView = "blank"
	CellViewEgg      CellView = "egg"
	CellViewGem      CellView = "gem"
	CellViewEggFound CellView = "egg_found"
	CellViewGemFound CellView = "gem_found"
	CellViewBust     CellView = "bust"
)

// RenderView is everything the presentation layer needs to draw a session.
type RenderView struct {
	UserID      string       `json:"user_id"`
	Rows        [][]CellView `json:"rows"`
	ActiveRow   int          `json:"active_row"`
	Bet         int64        `json:"bet"`
	Multiplier  float64      `json:"multiplier"`
	Difficulty  Difficulty   `json:"difficulty"`
	Status      Status       `json:"status"`
	Result      Result       `json:"result,omitempty"`
	Payout      int64        `json:"payout,omitempty"`
	CanFinish   bool         `json:"can_finish"`
	ReplayOffer bool         `json:"replay_offer"`
	OutcomeID   string       `json:"outcome_id,omitempty"`
}

// Presenter delivers render views to whatever draws the session. A failed
// delivery must be reported, never swallowed; the engine treats it as a
// fallback path, not a session failure.
type Presenter interface {
	Render(view RenderView) error
}
