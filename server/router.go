package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// NewRouter wires the ledger API. metrics may be nil.
func NewRouter(handler *LedgerHandler, auth *Authenticator, metrics http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	v1 := router.Group("/v1")
	{
		v1.GET("/events/:uid", handler.GetEvent)
		v1.GET("/events/:uid/preview", handler.PreviewReturn)
		v1.GET("/bets/:id", handler.GetBet)
		v1.GET("/accounts/:id", handler.GetAccount)
		v1.GET("/days/:day/events", handler.EventsByDay)
		v1.GET("/days/:day/bets", handler.BetsByDay)
		v1.GET("/users/:user/bets", handler.BetsByUser)
	}

	authed := v1.Group("")
	authed.Use(auth.AuthMiddleware())
	{
		authed.POST("/events/:uid/bets", handler.PlaceBet)
		authed.POST("/bets/:id/claim", handler.ClaimWinnings)
		authed.POST("/attestations", handler.SubmitAttestation)
	}

	operator := authed.Group("")
	operator.Use(RequireOperator())
	{
		operator.POST("/events", handler.CreateEvent)
		operator.POST("/events/:uid/finalize", handler.FinalizeEvent)
		operator.POST("/accounts/:id/deposit", handler.Deposit)
	}

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		})
		if caller, ok := GetCaller(c); ok {
			entry = entry.WithField("caller", caller)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("HTTP request failed")
			return
		}
		entry.Debug("HTTP request")
	}
}

// Server runs the HTTP API
type Server struct {
	httpServer *http.Server
}

// NewServer creates a server listening on addr
func NewServer(addr string, router http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("HTTP server starting")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
