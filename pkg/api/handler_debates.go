package api

import (
	"net/http"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"

	"github.com/agora-debate/agora/pkg/models"
	"github.com/agora-debate/agora/pkg/store"
)

// createDebate handles POST /debates: validates the request, persists a
// Conversation in StatusCreated, and returns its id.
func (s *Server) createDebate(c *echo.Context) error {
	var req CreateDebateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validateParticipantNames(req.Participants); err != nil {
		return mapStoreError(err)
	}

	conv := &models.Conversation{
		ID:                   uuid.NewString(),
		Topic:                req.Topic,
		Participants:         req.toParticipants(),
		MaxRounds:            req.MaxRounds,
		ContextWindowRounds:  req.ContextWindowRounds,
		CostWarningThreshold: req.CostWarningThreshold,
		Judge:                req.toJudgeConfig(),
	}

	if err := s.deps.Conversations.Create(c.Request().Context(), conv); err != nil {
		return mapStoreError(err)
	}

	return c.JSON(http.StatusCreated, DebateResponse{ID: conv.ID, Status: conv.Status})
}

func validateParticipantNames(participants []ParticipantRequest) error {
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if p.Name == "" {
			return store.NewValidationError("participants", "name is required")
		}
		if seen[p.Name] {
			return store.NewValidationError("participants", "names must be unique")
		}
		seen[p.Name] = true
	}
	return nil
}

// startDebate handles POST /debates/{id}/start.
func (s *Server) startDebate(c *echo.Context) error {
	id := c.Param("id")
	if err := s.deps.Orchestrator.Start(c.Request().Context(), id); err != nil {
		return mapStoreError(err)
	}
	return c.JSON(http.StatusOK, DebateResponse{ID: id, Status: models.ConversationStatusRunning})
}

// pauseDebate handles POST /debates/{id}/pause.
func (s *Server) pauseDebate(c *echo.Context) error {
	id := c.Param("id")
	if err := s.deps.Orchestrator.Pause(c.Request().Context(), id); err != nil {
		return mapStoreError(err)
	}
	return c.JSON(http.StatusOK, DebateResponse{ID: id, Status: models.ConversationStatusPaused})
}

// resumeDebate handles POST /debates/{id}/resume.
func (s *Server) resumeDebate(c *echo.Context) error {
	id := c.Param("id")
	var req ResumeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.deps.Orchestrator.Resume(c.Request().Context(), id, req.OverrideCriticalCost); err != nil {
		return mapStoreError(err)
	}
	return c.JSON(http.StatusOK, DebateResponse{ID: id, Status: models.ConversationStatusRunning})
}

// stopDebate handles POST /debates/{id}/stop.
func (s *Server) stopDebate(c *echo.Context) error {
	id := c.Param("id")
	if err := s.deps.Orchestrator.Stop(c.Request().Context(), id); err != nil {
		return mapStoreError(err)
	}
	return c.JSON(http.StatusOK, DebateResponse{ID: id, Status: models.ConversationStatusCompleted})
}
