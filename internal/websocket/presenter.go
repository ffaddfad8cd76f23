package websocket

import (
	"github.com/wagerworks/towerd/internal/domain"
)

// StreamPresenter delivers render views over the hub. It satisfies
// domain.Presenter.
type StreamPresenter struct {
	hub *Hub
}

// NewStreamPresenter wraps the hub as a presenter.
func NewStreamPresenter(hub *Hub) *StreamPresenter {
	return &StreamPresenter{hub: hub}
}

// Render fans the view out to every client watching the session's user. A
// stream with no watchers is not a failure; the HTTP response still carries
// the view.
func (p *StreamPresenter) Render(view domain.RenderView) error {
	return p.hub.BroadcastJSON(view.UserID, view)
}
