package http

import (
	"net/http"
	"strconv"

	"dispatch/internal/adapters/out/notify"

	"github.com/labstack/echo/v4"
)

type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// ConnectSession handles POST /api/v1/sessions. The realtime gateway calls it
// when a user opens a connection.
func (s *Server) ConnectSession(c echo.Context) error {
	sessionID := s.sessions.Connect(actorOf(c).UserID)
	return c.JSON(http.StatusCreated, SessionResponse{SessionID: sessionID.String()})
}

// DisconnectSession handles DELETE /api/v1/sessions/:id.
func (s *Server) DisconnectSession(c echo.Context) error {
	sessionID, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}

	if !s.sessions.Disconnect(actorOf(c).UserID, sessionID) {
		return c.JSON(http.StatusNotFound, Error{Code: http.StatusNotFound, Message: "session not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

// GetNotifications handles GET /api/v1/notifications?limit=N.
func (s *Server) GetNotifications(c echo.Context) error {
	if s.inbox == nil {
		return c.JSON(http.StatusOK, []notify.InboxEntry{})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return badRequest(c, "limit must be a non-negative integer")
		}
		limit = v
	}

	entries, err := s.inbox.Recent(c.Request().Context(), actorOf(c).UserID, limit)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}
