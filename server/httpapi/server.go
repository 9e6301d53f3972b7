// Package httpapi exposes the read-only stats surface plus a manual mining
// trigger over HTTP.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hindsightlabs/hindsight/internal/profile"
	"github.com/hindsightlabs/hindsight/server/memory"
	minerrunner "github.com/hindsightlabs/hindsight/server/runner/miner"
	"github.com/hindsightlabs/hindsight/store"
)

// Server serves the stats API for all agents.
type Server struct {
	echo    *echo.Echo
	profile *profile.Profile
	manager *memory.Manager
	runner  *minerrunner.Runner
}

func NewServer(p *profile.Profile, manager *memory.Manager, runner *minerrunner.Runner) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			slog.Info("http request",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", c.Response().Status,
				"duration", time.Since(start))
			return err
		}
	})

	s := &Server{
		echo:    e,
		profile: p,
		manager: manager,
		runner:  runner,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)

	v1 := s.echo.Group("/api/v1")
	v1.GET("/agents", s.handleListAgents)
	v1.GET("/agents/:agent/stats", s.handleAgentStats)
	v1.GET("/agents/:agent/patterns", s.handleAgentPatterns)
	v1.POST("/agents/:agent/mine", s.handleMineAgent)
}

// HealthResponse is the response body for GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// AgentsResponse is the response body for GET /api/v1/agents.
type AgentsResponse struct {
	Agents []string `json:"agents"`
}

// PatternResponse is one learned pattern in API responses.
type PatternResponse struct {
	ID            string  `json:"id"`
	PatternType   string  `json:"pattern_type"`
	Description   string  `json:"description"`
	EvidenceCount int     `json:"evidence_count"`
	Confidence    float64 `json:"confidence"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: s.profile.Version})
}

func (s *Server) handleListAgents(c echo.Context) error {
	agents, err := s.manager.ListAgents()
	if err != nil {
		slog.Error("failed to list agents", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list agents")
	}
	if agents == nil {
		agents = []string{}
	}
	return c.JSON(http.StatusOK, AgentsResponse{Agents: agents})
}

func (s *Server) handleAgentStats(c echo.Context) error {
	st, err := s.openKnownAgent(c)
	if err != nil {
		return err
	}

	stats, err := st.Stats(c.Request().Context())
	if err != nil {
		slog.Error("failed to read agent stats", "agent", st.Agent(), "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read stats")
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleAgentPatterns(c echo.Context) error {
	st, err := s.openKnownAgent(c)
	if err != nil {
		return err
	}

	find := &store.FindPattern{}
	if patternType := c.QueryParam("type"); patternType != "" {
		find.PatternType = &patternType
	}
	if raw := c.QueryParam("min_confidence"); raw != "" {
		minConfidence, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "min_confidence must be a number")
		}
		find.MinConfidence = minConfidence
	}

	patterns, err := st.ActivePatterns(c.Request().Context(), find)
	if err != nil {
		slog.Error("failed to list patterns", "agent", st.Agent(), "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list patterns")
	}

	resp := make([]PatternResponse, 0, len(patterns))
	for _, p := range patterns {
		resp = append(resp, PatternResponse{
			ID:            p.ID,
			PatternType:   p.PatternType,
			Description:   p.Description,
			EvidenceCount: p.EvidenceCount,
			Confidence:    p.Confidence,
			CreatedAt:     p.CreatedAt.Format(time.RFC3339),
			UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMineAgent(c echo.Context) error {
	agent := memory.Normalize(c.Param("agent"))
	if !s.manager.HasStore(agent) {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown agent %q", agent))
	}

	result, err := s.runner.RunOnce(c.Request().Context(), agent)
	if err != nil {
		slog.Error("manual mining failed", "agent", agent, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "mining failed")
	}
	return c.JSON(http.StatusOK, result)
}

// openKnownAgent resolves the :agent path param to an existing store.
// Read endpoints never create a store file for an unknown name.
func (s *Server) openKnownAgent(c echo.Context) (*store.Store, error) {
	agent := memory.Normalize(c.Param("agent"))
	if !s.manager.HasStore(agent) {
		return nil, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown agent %q", agent))
	}
	st, err := s.manager.Open(c.Request().Context(), agent)
	if err != nil {
		slog.Error("failed to open agent store", "agent", agent, "error", err)
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to open agent store")
	}
	return st, nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	slog.Info("starting stats API server", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down stats API server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
