// Package api serves a read-only HTTP view of the live combos and ledger.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"EngulfSentinel/internal/model"
	"EngulfSentinel/internal/notifier"
)

// ComboSource exposes the tracker state.
type ComboSource interface {
	Snapshot() *model.ComboSet
	Invalidated() []model.OHLCV
}

// StatusSource exposes the runtime summary.
type StatusSource interface {
	Status() notifier.Status
}

// Server is the inspection HTTP server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	combos     ComboSource
	status     StatusSource
	log        *zap.Logger
	started    time.Time
}

// NewServer builds the router. status may be nil.
func NewServer(addr string, combos ComboSource, status StatusSource, log *zap.Logger, debug bool) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	s := &Server{
		router: router,
		combos: combos,
		status: status,
		log:    log,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		started: time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	v1 := s.router.Group("/api/v1")
	v1.GET("/combos", s.handleCombos)
	v1.GET("/ledger", s.handleLedger)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status": "healthy",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
	if s.status != nil {
		st := s.status.Status()
		body["symbol"] = st.Symbol
		body["session_open"] = st.SessionOpen
		body["executor"] = st.Executor
		if !st.LastScan.IsZero() {
			body["last_scan"] = st.LastScan.UTC().Format(time.RFC3339)
		}
		if st.LastErr != "" {
			body["status"] = "degraded"
			body["last_error"] = st.LastErr
		}
	}
	c.JSON(http.StatusOK, body)
}

type comboView struct {
	Direction    model.Direction `json:"direction"`
	Side         model.TradeSide `json:"side"`
	Active       bool            `json:"active"` // the one the tracker watches
	TriggerLevel float64         `json:"trigger_level"`
	Trigger      model.OHLCV     `json:"trigger"`
	Partner      model.OHLCV     `json:"partner"`
}

func (s *Server) handleCombos(c *gin.Context) {
	dirs := []model.Direction{model.Bullish, model.Bearish}
	switch c.Query("direction") {
	case "":
	case "bullish":
		dirs = dirs[:1]
	case "bearish":
		dirs = dirs[1:]
	default:
		errorResponse(c, http.StatusBadRequest, "direction must be bullish or bearish")
		return
	}

	cs := s.combos.Snapshot()
	data := gin.H{"count": 0}
	if cs != nil && !cs.BuiltAt.IsZero() {
		data["built_at"] = cs.BuiltAt.UTC()
	}
	total := 0
	for _, dir := range dirs {
		combos := cs.Combos(dir)
		views := make([]comboView, len(combos))
		for i, combo := range combos {
			views[i] = comboView{
				Direction:    combo.Direction,
				Side:         combo.Direction.TradeSide(),
				Active:       i == 0,
				TriggerLevel: combo.TriggerLevel(),
				Trigger:      combo.Trigger,
				Partner:      combo.Partner,
			}
		}
		data[dir.String()] = views
		total += len(views)
	}
	data["count"] = total
	successResponse(c, data)
}

func (s *Server) handleLedger(c *gin.Context) {
	bars := s.combos.Invalidated()
	successResponse(c, gin.H{
		"count": len(bars),
		"bars":  bars,
	})
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// errorResponse is a helper to send error responses
func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}

// successResponse is a helper to send success responses
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}
