// Package api implements the Query API (C10) and wires the SSE Gateway
// (C8) onto the same echo.Engine, matching the teacher's single-process
// HTTP surface: one *echo.Echo, one route table, one Start/Shutdown pair.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/agora-debate/agora/pkg/database"
	"github.com/agora-debate/agora/pkg/events"
	"github.com/agora-debate/agora/pkg/orchestrator"
	"github.com/agora-debate/agora/pkg/sse"
	"github.com/agora-debate/agora/pkg/store"
	"github.com/agora-debate/agora/pkg/version"
)

// Deps is every collaborator the Server's handlers need. Grounded on the
// teacher's Server struct fields, narrowed to the debate domain's stores
// plus the Orchestrator Manager and the live Event Bus registry the SSE
// Gateway subscribes against.
type Deps struct {
	DB             *database.Client
	Conversations  *store.ConversationStore
	Messages       *store.MessageStore
	Judges         *store.JudgeStore
	Contradictions *store.ContradictionStore
	Loops          *store.LoopStore
	Health         *store.HealthStore
	Events         *store.EventStore
	EventRegistry  *events.Registry
	Orchestrator   *orchestrator.Manager
}

// Server owns the HTTP surface: the Query API and the SSE Gateway.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server
	deps       Deps
}

// NewServer builds an echo.Engine, registers every route, and returns a
// Server ready to Start.
func NewServer(deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(securityHeaders())

	s := &Server{echo: e, deps: deps}
	s.setupRoutes()
	return s
}

// ValidateWiring fails loudly at startup if a required dependency was never
// set, rather than surfacing a nil-pointer panic on the first request that
// needs it.
func (s *Server) ValidateWiring() error {
	var errs []error
	if s.deps.Conversations == nil {
		errs = append(errs, fmt.Errorf("api: ConversationStore not wired"))
	}
	if s.deps.Messages == nil {
		errs = append(errs, fmt.Errorf("api: MessageStore not wired"))
	}
	if s.deps.Judges == nil {
		errs = append(errs, fmt.Errorf("api: JudgeStore not wired"))
	}
	if s.deps.Contradictions == nil {
		errs = append(errs, fmt.Errorf("api: ContradictionStore not wired"))
	}
	if s.deps.Loops == nil {
		errs = append(errs, fmt.Errorf("api: LoopStore not wired"))
	}
	if s.deps.Health == nil {
		errs = append(errs, fmt.Errorf("api: HealthStore not wired"))
	}
	if s.deps.EventRegistry == nil {
		errs = append(errs, fmt.Errorf("api: EventRegistry not wired"))
	}
	if s.deps.Orchestrator == nil {
		errs = append(errs, fmt.Errorf("api: orchestrator.Manager not wired"))
	}
	return errors.Join(errs...)
}

// setupRoutes registers /health plus the /api/v1 debate-domain surface.
// Static paths are registered before their parameterized siblings, matching
// the teacher's ordering convention.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthHandler)

	v1 := s.echo.Group("/api/v1")

	v1.POST("/debates", s.createDebate)
	v1.POST("/debates/:id/start", s.startDebate)
	v1.POST("/debates/:id/pause", s.pauseDebate)
	v1.POST("/debates/:id/resume", s.resumeDebate)
	v1.POST("/debates/:id/stop", s.stopDebate)
	v1.GET("/debates/:id/events", s.streamEvents)

	v1.GET("/conversations/:id/quality", s.getQuality)
	v1.GET("/conversations/:id/contradictions", s.listContradictions)
	v1.POST("/contradictions/:id/resolve", s.resolveContradiction)
	v1.GET("/conversations/:id/loops", s.listLoops)
	v1.GET("/conversations/:id/health-history", s.listHealthHistory)
	v1.GET("/conversations/:id/judge-assessments", s.listJudgeAssessments)
}

// streamEvents delegates to the SSE Gateway, which subscribes directly to
// the conversation's Event Bus and writes the response itself.
func (s *Server) streamEvents(c *echo.Context) error {
	id := c.Param("id")
	bus, ok := s.deps.EventRegistry.Get(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "conversation is not running")
	}
	return sse.Serve(c, bus, s.deps.Events, id)
}

// healthHandler aggregates sub-component health into one JSON response,
// matching the teacher's healthHandler shape.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := database.Health(reqCtx, s.deps.DB.Pool)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, &HealthResponse{
			Status:   "unhealthy",
			Database: dbHealth,
		})
	}

	return c.JSON(http.StatusOK, &HealthResponse{
		Status:   "healthy",
		Version:  version.Full(),
		Database: dbHealth,
	})
}

// Start begins serving on addr. It blocks until Shutdown is called or a
// fatal error occurs.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// StartWithListener is Start's variant for callers (tests) that already
// hold an open net.Listener.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests, including any open SSE
// streams, within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
