package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wagerworks/towerd/internal/domain"
	apperrors "github.com/wagerworks/towerd/internal/errors"
)

type startRequest struct {
	UserID     string `json:"user_id"`
	Bet        int64  `json:"bet"`
	Difficulty string `json:"difficulty"`
}

type revealRequest struct {
	UserID string `json:"user_id"`
	Column int    `json:"column"`
}

type userRequest struct {
	UserID string `json:"user_id"`
}

// writeError maps any engine error onto its HTTP status and JSON body.
func writeError(c echo.Context, err error) error {
	structured := apperrors.FromDomain(err)
	if structured.Type == apperrors.TypeInternal {
		slog.ErrorContext(c.Request().Context(), "Request failed", "path", c.Path(), "error", err)
	}
	return c.JSON(structured.HTTPStatus(), structured.ToResponse())
}

func (s *Server) handleStart(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.Response{Error: "malformed request body", Type: apperrors.TypeValidation})
	}
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, apperrors.Response{Error: "user_id is required", Type: apperrors.TypeValidation})
	}

	view, err := s.sessions.Start(c.Request().Context(), req.UserID, req.Bet, domain.Difficulty(req.Difficulty))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

func (s *Server) handleCurrent(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, apperrors.Response{Error: "user_id is required", Type: apperrors.TypeValidation})
	}

	view, err := s.sessions.Current(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleReveal(c echo.Context) error {
	var req revealRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.Response{Error: "malformed request body", Type: apperrors.TypeValidation})
	}
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, apperrors.Response{Error: "user_id is required", Type: apperrors.TypeValidation})
	}

	view, err := s.sessions.Reveal(c.Request().Context(), req.UserID, req.Column)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleRevealRandom(c echo.Context) error {
	return s.handleUserAction(c, s.sessions.RevealRandom)
}

func (s *Server) handleFinish(c echo.Context) error {
	return s.handleUserAction(c, s.sessions.Finish)
}

func (s *Server) handleReplay(c echo.Context) error {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.Response{Error: "malformed request body", Type: apperrors.TypeValidation})
	}
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, apperrors.Response{Error: "user_id is required", Type: apperrors.TypeValidation})
	}

	view, err := s.sessions.Replay(c.Request().Context(), req.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

func (s *Server) handleUserAction(c echo.Context, action func(ctx context.Context, userID string) (domain.RenderView, error)) error {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.Response{Error: "malformed request body", Type: apperrors.TypeValidation})
	}
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, apperrors.Response{Error: "user_id is required", Type: apperrors.TypeValidation})
	}

	view, err := action(c.Request().Context(), req.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleBalance(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, apperrors.Response{Error: "user_id is required", Type: apperrors.TypeValidation})
	}

	balance, err := s.ledger.Balance(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"balance": balance})
}

func (s *Server) handleLimits(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, apperrors.Response{Error: "user_id is required", Type: apperrors.TypeValidation})
	}

	ctx := c.Request().Context()
	max, err := s.ledger.MaxWager(ctx, userID)
	if err != nil {
		return writeError(c, err)
	}
	defaultBet, err := s.ledger.DefaultBet(ctx, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"max_wager": max, "default_bet": defaultBet})
}
