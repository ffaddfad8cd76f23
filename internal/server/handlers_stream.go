package server

import (
	"log/slog"
	"net/http"

	gorilla "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	apperrors "github.com/wagerworks/towerd/internal/errors"
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleStream upgrades the connection and attaches it to the user's view
// stream until the client goes away.
func (s *Server) handleStream(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, apperrors.Response{Error: "user_id is required", Type: apperrors.TypeValidation})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "user_id", userID, "error", err)
		return nil
	}

	if err := s.hub.Register(userID, conn); err != nil {
		slog.Warn("Stream registration rejected", "user_id", userID, "error", err)
		return nil
	}

	// Drain control frames; the stream is write-only from our side.
	go func() {
		defer s.hub.Unregister(userID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}
