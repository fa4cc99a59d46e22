// Package api реализует HTTP-интерфейс сервиса наград для операторов и других сервисов.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// NewRouter собирает маршруты. /healthz доступен без токена.
func NewRouter(h *Handler, auth *TokenAuth, limiter *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(recovery(), requestLogger())

	router.GET("/healthz", h.Health)

	v1 := router.Group("/api/v1")
	v1.Use(limiter.Middleware(), auth.Middleware())
	{
		v1.POST("/admin/jobs/points-expiry/run", h.RunPointsExpiry)

		v1.GET("/badges", h.ListBadges)

		v1.GET("/users/:id/points", h.PointsSummary)
		v1.GET("/users/:id/badges", h.UserBadges)
		v1.POST("/users/:id/badges/check", h.CheckBadges)
		v1.POST("/users/:id/badges/:type/check", h.CheckBadge)
	}

	return router
}

// Server: HTTP-сервер с graceful shutdown.
type Server struct {
	http    *http.Server
	limiter *RateLimiter
}

func NewServer(addr string, h *Handler, auth *TokenAuth, limiter *RateLimiter) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h, auth, limiter),
			ReadHeaderTimeout: 10 * time.Second,
		},
		limiter: limiter,
	}
}

// Start блокируется до остановки сервера.
func (s *Server) Start() error {
	log.WithField("addr", s.http.Addr).Info("HTTP-сервер запущен")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Close()
	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}
	log.Info("HTTP-сервер остановлен")
	return nil
}
