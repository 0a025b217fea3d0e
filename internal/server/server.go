// Package server exposes the autoplayer's control surface: a small JSON
// API to start, cancel, and observe runs, plus a websocket feed of the
// event stream.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/chainjack/chainjack/internal/events"
	"github.com/chainjack/chainjack/internal/player"
)

// Server serves the control API for one runner.
type Server struct {
	runner   *player.Runner
	eventLog *events.Log
	logger   *log.Logger
	engine   *gin.Engine
	upgrader websocket.Upgrader
}

// runRequest is the optional body of POST /api/run.
type runRequest struct {
	// Cycles caps how many hands to play; 0 or absent means run until
	// cancelled.
	Cycles int `json:"cycles"`
}

// New creates the control server.
func New(runner *player.Runner, eventLog *events.Log, logger *log.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		runner:   runner,
		eventLog: eventLog,
		logger:   logger.WithPrefix("server"),
		engine:   gin.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	s.engine.Use(gin.Recovery())

	s.engine.GET("/healthz", s.handleHealth)
	api := s.engine.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/stats", s.handleStats)
		api.GET("/events", s.handleEvents)
		api.POST("/run", s.handleRun)
		api.POST("/cancel", s.handleCancel)
	}
	s.engine.GET("/ws", s.handleWebsocket)

	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves the API until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("control api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.runner.Status())
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.runner.Status().Stats)
}

// handleEvents returns all events with seq greater than ?since=N.
func (s *Server) handleEvents(c *gin.Context) {
	since, ok := sinceParam(c)
	if !ok {
		return
	}

	envelopes := s.eventLog.Since(since)
	c.JSON(http.StatusOK, gin.H{
		"events":  envelopes,
		"lastSeq": s.eventLog.LastSeq(),
	})
}

func (s *Server) handleRun(c *gin.Context) {
	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Cycles < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cycles must not be negative"})
		return
	}

	if err := s.runner.Start(context.Background(), req.Cycles); err != nil {
		if errors.Is(err, player.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.logger.Info("run started", "cycles", req.Cycles)
	c.JSON(http.StatusAccepted, gin.H{"status": "started", "cycles": req.Cycles})
}

// handleCancel requests a cooperative stop. Always accepted: cancelling
// an idle runner is a no-op.
func (s *Server) handleCancel(c *gin.Context) {
	s.runner.RequestCancel()
	c.JSON(http.StatusAccepted, gin.H{"status": "cancelling"})
}

// handleWebsocket streams event envelopes, replaying from ?since=N
// before switching to live delivery.
func (s *Server) handleWebsocket(c *gin.Context) {
	since, ok := sinceParam(c)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	replay, live, cancel := s.eventLog.Subscribe(since)
	defer cancel()

	for _, env := range replay {
		if err := conn.WriteJSON(env); err != nil {
			return
		}
	}

	// reader goroutine only surfaces disconnects
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case env, ok := <-live:
			if !ok {
				// dropped as a slow consumer; the client reconnects with
				// its last seen seq
				return
			}
			if err := conn.WriteJSON(env); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func sinceParam(c *gin.Context) (uint64, bool) {
	raw := c.Query("since")
	if raw == "" {
		return 0, true
	}
	since, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a non-negative integer"})
		return 0, false
	}
	return since, true
}
