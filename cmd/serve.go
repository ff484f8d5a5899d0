package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/internal/audit"
	accountcmd "github.com/mananchopra067-oss/blood-sugar-monitoring-system/internal/command"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/internal/config"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/internal/handler"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/internal/logger"
	accountqry "github.com/mananchopra067-oss/blood-sugar-monitoring-system/internal/query"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/internal/repository"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/events"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/middleware"
	redisClient "github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/redis"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/utils"
	"go.uber.org/zap"
)

func runServer(ctx context.Context, cfg *config.Config) error {
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "account-service")
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection (write store)
	db, err := repository.OpenPostgres(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	// Redis connection (profile cache + event streaming)
	redis, err := redisClient.NewClient(ctx, cfg.RedisClientConfig())
	if err != nil {
		return err
	}
	defer redis.Close()

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client)
	hasher := utils.NewPasswordHasher(cfg.BcryptCost)

	writeRepo := repository.NewUserWriteRepository(db)
	readRepo := repository.NewUserReadRepository(db, redis.Client, cfg.ProfileCacheTTL, log)

	var (
		sessions  accountqry.SessionIssuer
		adminGate []gin.HandlerFunc
	)
	if cfg.AuthEnabled() {
		auth, err := middleware.NewJWTAuth(cfg.JWTSecret, cfg.JWTTTL)
		if err != nil {
			return err
		}
		sessions = auth
		adminGate = auth.AdminOnly()
	} else {
		log.Warn("JWT_SECRET not set; logins issue no token and admin routes are open")
	}

	commandSvc := accountcmd.NewAccountCommandService(writeRepo, readRepo, publisher, hasher, log)
	querySvc := accountqry.NewAccountQueryService(readRepo, hasher, sessions)
	accountHandler := handler.NewAccountHandler(commandSvc, querySvc, log)

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler.RegisterRoutes(router, accountHandler, adminGate...)

	router.GET("/health", func(c *gin.Context) {
		status, code := gin.H{"database": "ok", "redis": "ok"}, http.StatusOK
		if err := db.PingContext(c.Request.Context()); err != nil {
			status["database"], code = "unavailable", http.StatusServiceUnavailable
		}
		if err := redis.Ping(c.Request.Context()).Err(); err != nil {
			status["redis"], code = "unavailable", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"success": code == http.StatusOK, "status": status})
	})

	// Audit trail consumer
	recorder := audit.NewRecorder(db, log)
	go func() {
		if err := recorder.Subscriber(redis.Client, cfg.AuditConsumer).Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit subscriber stopped", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("account service starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
