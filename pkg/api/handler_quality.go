package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/agora-debate/agora/pkg/models"
	"github.com/agora-debate/agora/pkg/store"
)

const (
	defaultPageSize     = 20
	defaultHistoryLimit = 50
)

// getQuality handles GET /conversations/{id}/quality: the conversation's
// most recent HealthSample, or a neutral zero-state if none has been
// computed yet (e.g. the debate hasn't completed a turn).
func (s *Server) getQuality(c *echo.Context) error {
	id := c.Param("id")
	samples, err := s.deps.Health.ListRecent(c.Request().Context(), id, 1)
	if err != nil {
		return mapStoreError(err)
	}
	if len(samples) == 0 {
		return c.JSON(http.StatusOK, QualityResponse{
			Overall:    100,
			Components: models.HealthComponents{Coherence: 100, Contradiction: 100, Loop: 100, Citation: 100},
			Status:     models.HealthExcellent,
		})
	}
	sample := samples[0]
	return c.JSON(http.StatusOK, QualityResponse{
		Overall:    sample.OverallScore,
		Components: sample.Components,
		Counts: QualityCounts{
			Messages:       sample.MessageCount,
			Contradictions: sample.ContradictionCount,
			Loops:          sample.LoopCount,
		},
		Status: sample.Status(),
	})
}

// listContradictions handles GET /conversations/{id}/contradictions.
func (s *Server) listContradictions(c *echo.Context) error {
	id := c.Param("id")
	page, pageSize := parsePage(c)

	filter := store.ContradictionFilter{
		Severity: models.ContradictionSeverity(c.QueryParam("severity")),
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}
	switch c.QueryParam("status") {
	case "resolved":
		t := true
		filter.Resolved = &t
	case "unresolved":
		f := false
		filter.Resolved = &f
	}

	items, total, err := s.deps.Contradictions.List(c.Request().Context(), id, filter)
	if err != nil {
		return mapStoreError(err)
	}
	return c.JSON(http.StatusOK, ContradictionsPage{
		Items: items,
		Page:  PageMeta{Page: page, PageSize: pageSize, Total: total},
	})
}

// resolveContradiction handles POST /contradictions/{id}/resolve. Resolving
// an already-resolved contradiction is idempotent: the store's UPDATE is
// unconditional on current state, so a second call simply overwrites the
// note.
func (s *Server) resolveContradiction(c *echo.Context) error {
	id := c.Param("id")
	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.deps.Contradictions.Resolve(c.Request().Context(), id, req.Note); err != nil {
		return mapStoreError(err)
	}
	return c.JSON(http.StatusOK, ResolveResponse{Status: "resolved", Note: req.Note})
}

// listLoops handles GET /conversations/{id}/loops. min_repetitions is
// applied in-process since LoopFilter narrows only by intervention_status
// at the SQL level.
func (s *Server) listLoops(c *echo.Context) error {
	id := c.Param("id")
	page, pageSize := parsePage(c)

	filter := store.LoopFilter{
		InterventionStatus: models.InterventionStatus(c.QueryParam("status")),
		Limit:              pageSize,
		Offset:             (page - 1) * pageSize,
	}

	minReps := 0
	if v := c.QueryParam("min_repetitions"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			minReps = n
		}
	}

	items, total, err := s.deps.Loops.List(c.Request().Context(), id, filter)
	if err != nil {
		return mapStoreError(err)
	}
	if minReps > 0 {
		filtered := make([]models.ConversationLoop, 0, len(items))
		for _, l := range items {
			if l.RepetitionCount >= minReps {
				filtered = append(filtered, l)
			}
		}
		items = filtered
	}

	return c.JSON(http.StatusOK, LoopsPage{
		Items: items,
		Page:  PageMeta{Page: page, PageSize: pageSize, Total: total},
	})
}

// listHealthHistory handles GET /conversations/{id}/health-history?limit=.
func (s *Server) listHealthHistory(c *echo.Context) error {
	id := c.Param("id")
	limit := defaultHistoryLimit
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	samples, err := s.deps.Health.ListRecent(c.Request().Context(), id, limit)
	if err != nil {
		return mapStoreError(err)
	}
	return c.JSON(http.StatusOK, HealthHistoryResponse{Samples: samples})
}

// listJudgeAssessments handles the supplemented
// GET /conversations/{id}/judge-assessments?limit=.
func (s *Server) listJudgeAssessments(c *echo.Context) error {
	id := c.Param("id")
	assessments, err := s.deps.Judges.ListByConversation(c.Request().Context(), id)
	if err != nil {
		return mapStoreError(err)
	}
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < len(assessments) {
			assessments = assessments[len(assessments)-n:]
		}
	}
	return c.JSON(http.StatusOK, JudgeAssessmentsResponse{Assessments: assessments})
}

func parsePage(c *echo.Context) (page, pageSize int) {
	page, pageSize = 1, defaultPageSize
	if v := c.QueryParam("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := c.QueryParam("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	return page, pageSize
}
