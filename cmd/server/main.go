package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/messywasayzafar/nursify-sub001/internal/api"
	"github.com/messywasayzafar/nursify-sub001/internal/bridge"
	"github.com/messywasayzafar/nursify-sub001/internal/chat"
	"github.com/messywasayzafar/nursify-sub001/internal/config"
	"github.com/messywasayzafar/nursify-sub001/internal/db"
	"github.com/messywasayzafar/nursify-sub001/internal/middleware"
	"github.com/messywasayzafar/nursify-sub001/internal/observ"
	"github.com/messywasayzafar/nursify-sub001/internal/repository/postgres"
	"github.com/messywasayzafar/nursify-sub001/internal/ws"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is for local development; in real deployments everything
	// comes from the environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	pool := database.Pool()
	agencyRepo := postgres.NewAgencyStore(pool)
	userRepo := postgres.NewUserStore(pool)
	groupRepo := postgres.NewGroupStore(pool)
	membershipRepo := postgres.NewMembershipStore(pool)
	messageRepo := postgres.NewMessageStore(pool)
	connectionRepo := postgres.NewConnectionStore(pool)

	hub := ws.NewHub(logger)

	// The Redis bridge forwards pushes for connections held by other
	// nodes. A single-node deployment works without it, so a missing
	// Redis degrades to local-only delivery instead of failing startup.
	var forwarder chat.Forwarder
	var nodeBridge *bridge.Bridge
	if opt, err := redis.ParseURL(cfg.RedisURL); err != nil {
		logger.Warn("invalid REDIS_URL, running without cross-node bridge", zap.Error(err))
	} else {
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, running without cross-node bridge", zap.Error(err))
		} else {
			nodeBridge = bridge.New(rdb, hub, connectionRepo, cfg.NodeID, cfg.PushTimeout, logger)
			forwarder = nodeBridge
		}
	}

	dispatcher := chat.NewDispatcher(
		messageRepo,
		connectionRepo,
		hub,
		forwarder,
		cfg.NodeID,
		cfg.PushTimeout,
		logger,
	)

	if nodeBridge != nil {
		go func() {
			if err := nodeBridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("bridge stopped", zap.Error(err))
			}
		}()
	}

	authHandler := api.NewAuthHandler(userRepo, agencyRepo, cfg.JWTSecret, logger)
	userHandler := api.NewUserHandler(userRepo, connectionRepo, logger)
	groupHandler := api.NewGroupHandler(groupRepo, membershipRepo, logger)
	membershipHandler := api.NewMembershipHandler(membershipRepo, logger)
	messageHandler := api.NewMessageHandler(dispatcher, messageRepo, membershipRepo, logger)
	wsHandler := ws.NewHandler(hub, connectionRepo, membershipRepo, dispatcher, cfg.JWTSecret, cfg.NodeID, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	// Public: load balancers health-check this, no auth.
	srv.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": hub.Size()})
	})
	srv.POST("/v1/auth/signup", authHandler.Signup)
	srv.POST("/v1/auth/login", authHandler.Login)

	// The websocket handshake authenticates via query token, not the
	// Authorization header, so it sits outside the middleware group.
	srv.GET("/v1/ws", wsHandler.Serve)

	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	v1.GET("/users/me", userHandler.GetMe)
	v1.GET("/users/me/connections", userHandler.GetMyConnections)
	v1.POST("/groups", groupHandler.Create)
	v1.GET("/groups", groupHandler.List)
	v1.GET("/groups/:id", groupHandler.GetByID)
	v1.POST("/groups/:id/join", membershipHandler.Join)
	v1.POST("/groups/:id/leave", membershipHandler.Leave)
	v1.GET("/groups/:id/members", membershipHandler.ListMembers)
	v1.POST("/groups/:id/messages", messageHandler.Send)
	v1.GET("/groups/:id/messages", messageHandler.List)
	v1.DELETE("/messages/:id", messageHandler.Delete)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting nursify chat backend",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("node_id", cfg.NodeID),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
