package websocket

import "context"

// notice is the out-of-band message envelope pushed to stream clients, kept
// distinct from render views by its type tag.
type notice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// StreamNotifier delivers user notifications over the hub. It satisfies
// domain.NotificationService.
type StreamNotifier struct {
	hub *Hub
}

// NewStreamNotifier wraps the hub as a notification sink.
func NewStreamNotifier(hub *Hub) *StreamNotifier {
	return &StreamNotifier{hub: hub}
}

func (n *StreamNotifier) Notify(_ context.Context, userID, message string) error {
	return n.hub.BroadcastJSON(userID, notice{Type: "notice", Message: message})
}
