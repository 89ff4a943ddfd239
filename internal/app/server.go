// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"eduscribe-web/internal/config"
	"eduscribe-web/internal/db"
	"eduscribe-web/internal/gateway"
	"eduscribe-web/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	http   *http.Server
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- Redis (optional) -----
	var redisClient *redis.Client
	if s.cfg.RedisAddr != "" {
		redisClient, err = db.NewRedisClient(db.RedisConfig{
			Addr:     s.cfg.RedisAddr,
			Password: s.cfg.RedisPass,
			PoolSize: 10,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info("redis connected", zap.String("addr", s.cfg.RedisAddr))
	}

	// ----- Forwarding Gateway -----
	upstreamClient := gateway.NewUpstreamClient(s.cfg.UpstreamTimeout, s.cfg.AllowPrivateUpstream)
	relay, err := gateway.NewRelay(s.cfg.UpstreamBaseURL, upstreamClient, logger)
	if err != nil {
		return fmt.Errorf("failed to build relay: %w", err)
	}

	var limiter *gateway.LoginLimiter
	if redisClient != nil && s.cfg.LoginRateLimit {
		limiter = gateway.NewLoginLimiter(redisClient)
	}
	gatewayHandler := gateway.NewHandler(relay, limiter, logger)

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.MetricsMiddleware(),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	SetupRouter(s.engine, &Handlers{Gateway: gatewayHandler})

	// ----- Start HTTP -----
	s.http = &http.Server{Addr: s.cfg.HTTPAddr, Handler: s.engine}
	log.Printf("🚀 Server running on %s (upstream %s)", s.cfg.HTTPAddr, s.cfg.UpstreamBaseURL)

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
