// Package api exposes an explorer over a JSON HTTP API for external renderers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rewired-gh/usercube/internal/logger"
)

// SetupRouter registers every route on a new engine.
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), cors())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"dataset": h.explorer.DatasetID(),
		})
	})

	v1 := r.Group("/api/v1")
	{
		v1.GET("/cube", h.GetCube)
		v1.GET("/view", h.GetView)
		v1.PUT("/filter", h.SetFilter)
		v1.GET("/stats", h.GetStats)
		v1.GET("/categories", h.GetCategories)
		v1.GET("/cells/:id", h.GetCell)
		v1.GET("/selection", h.GetSelection)
		v1.PUT("/selection", h.Select)
		v1.POST("/navigate", h.Navigate)
	}

	return r
}

// Server runs the router until its context is cancelled.
type Server struct {
	srv *http.Server
}

// NewServer creates a server on addr.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown failed: %w", err)
	}
	logger.Info("API stopped")
	return nil
}
