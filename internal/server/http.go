package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ragcore/internal/httpapi"
	"ragcore/internal/pkg/conf"
)

// HTTPServer wraps gin's router and net/http.Server, grounded on the
// teacher's own internal/server/http.go — same gin.New()+Recovery()+
// LoggerMiddleware setup and Start/Stop shape, with the teacher's
// per-service RegisterRoutes calls replaced by httpapi's.
type HTTPServer struct {
	server *http.Server
	logger *zap.Logger
}

// Services bundles every httpapi.*Service RegisterRoutes is called on.
type Services struct {
	KnowledgeBase *httpapi.KnowledgeBaseService
	Chat          *httpapi.ChatService
	Health        *httpapi.HealthService
}

func NewHTTPServer(config *conf.Config, logger *zap.Logger, services Services) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	api := router.Group("/api/v1")
	services.Health.RegisterRoutes(api)
	services.Chat.RegisterRoutes(api)
	services.KnowledgeBase.RegisterRoutes(api)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		logger: logger,
	}
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
