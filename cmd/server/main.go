// Package main runs the photo map HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/codezero/photomap/config"
	"github.com/codezero/photomap/internal/auth"
	"github.com/codezero/photomap/internal/groups"
	"github.com/codezero/photomap/internal/invitations"
	"github.com/codezero/photomap/internal/locations"
	"github.com/codezero/photomap/internal/members"
	"github.com/codezero/photomap/internal/middleware"
	"github.com/codezero/photomap/internal/photos"
	"github.com/codezero/photomap/internal/realtime"
	"github.com/codezero/photomap/internal/worker"
	"github.com/codezero/photomap/pkg/apperrors"
	"github.com/codezero/photomap/pkg/database"
	"github.com/codezero/photomap/pkg/mailer"
	"github.com/codezero/photomap/pkg/oauth"
	"github.com/codezero/photomap/pkg/queue"
	"github.com/codezero/photomap/pkg/redis"
	"github.com/codezero/photomap/pkg/response"
	"github.com/codezero/photomap/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	tx := database.NewTransactor(pool)

	rdb, err := redis.NewClient(ctx, redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Bucket:          cfg.AWS.PhotoBucket,
		UploadURLTTL:    cfg.AWS.UploadURLTTL,
		DownloadURLTTL:  cfg.AWS.DownloadURLTTL,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}
	logger.Info("photo storage ready", zap.String("bucket", s3Client.Bucket()))

	sesMailer, err := mailer.NewSES(ctx, mailer.Config{
		Region:           cfg.AWS.Region,
		FromAddress:      cfg.Email.FromAddress,
		FromName:         cfg.Email.FromName,
		ConfigurationSet: cfg.Email.ConfigurationSet,
	}, logger)
	if err != nil {
		logger.Fatal("ses", zap.Error(err))
	}
	if !sesMailer.Enabled() {
		logger.Warn("invitation email disabled; EMAIL_FROM_ADDRESS is empty")
	}

	kakao := oauth.NewKakao(oauth.Config{
		ClientID:     cfg.Kakao.ClientID,
		ClientSecret: cfg.Kakao.ClientSecret,
		RedirectURL:  cfg.Kakao.RedirectURL,
		AuthURL:      cfg.Kakao.AuthURL,
		TokenURL:     cfg.Kakao.TokenURL,
		UserInfoURL:  cfg.Kakao.UserInfoURL,
	})

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	sessions := auth.NewSessions(jwtService, auth.NewRefreshStore(rdb.Client), logger)

	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	jobQueue := queue.NewQueue(rdb.Client, queue.Options{
		Name:         cfg.Worker.Queue,
		MaxRetries:   cfg.Worker.MaxRetries,
		RetryBackoff: cfg.Worker.RetryBackoff,
	}, logger)

	// Repositories
	memberRepo := members.NewRepository(pool)
	groupRepo := groups.NewRepository(pool)
	invitationRepo := invitations.NewRepository(pool)
	locationRepo := locations.NewRepository(pool)
	photoRepo := photos.NewRepository(pool)

	// Services
	groupSvc := groups.NewService(groupRepo, memberRepo, locationRepo, tx, hub, logger)
	memberSvc := members.NewService(members.Deps{
		Repo:      memberRepo,
		Groups:    groupSvc,
		Locations: locationRepo,
		Photos:    photoRepo,
		Sessions:  sessions,
		Kakao:     kakao,
		Tx:        tx,
		Logger:    logger,
	})
	invitationSvc := invitations.NewService(invitations.Config{
		Repo:        invitationRepo,
		Groups:      groupSvc,
		Members:     memberRepo,
		Mailer:      sesMailer,
		Tx:          tx,
		FrontendURL: cfg.Frontend.BaseURL,
		Logger:      logger,
	})
	locationSvc := locations.NewService(locationRepo, groupSvc, tx, hub, logger)
	photoSvc := photos.NewService(photos.Deps{
		Repo:       photoRepo,
		Storage:    s3Client,
		Locations:  locationRepo,
		Members:    groupSvc,
		Reconciler: jobQueue,
		Events:     hub,
		Logger:     logger,
	})
	reconciler := worker.NewPhotoReconcileProcessor(photoRepo, jobQueue, logger)

	// Handlers
	memberHandler := members.NewHandler(memberSvc, cfg.Frontend.BaseURL)
	groupHandler := groups.NewHandler(groupSvc)
	invitationHandler := invitations.NewHandler(invitationSvc)
	locationHandler := locations.NewHandler(locationSvc)
	photoHandler := photos.NewHandler(photoSvc)

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})
	limited := limiter.Handler()

	wsAuthorize := func(ctx context.Context, token string, groupID uuid.UUID) (uuid.UUID, error) {
		claims, err := sessions.ValidateAccess(token)
		if err != nil {
			return uuid.Nil, apperrors.Unauthorized("invalid or expired token")
		}
		if err := groupSvc.RequireMember(ctx, groupID, claims.MemberID); err != nil {
			return uuid.Nil, err
		}
		return claims.MemberID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) {
		if err := rdb.Healthy(c.Request.Context()); err != nil {
			response.Error(c, apperrors.Wrap(err, "redis unavailable"))
			return
		}
		if err := pool.Ping(c.Request.Context()); err != nil {
			response.Error(c, apperrors.Wrap(err, "database unavailable"))
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// Public
	api.POST("/members", limited, memberHandler.Register)
	api.GET("/members/check-email", memberHandler.CheckEmail)
	api.POST("/members/login", limited, memberHandler.Login)
	api.GET("/members/login/kakao", limited, memberHandler.KakaoLogin)
	api.GET("/members/login/kakao/authorize", limited, memberHandler.KakaoAuthorize)
	api.POST("/members/refresh-token", memberHandler.Refresh)
	api.GET("/invitations/accept", limited, invitationHandler.Preview)

	// Protected API (JWT required)
	protected := api.Group("")
	protected.Use(middleware.JWT(sessions))
	{
		// Members
		protected.POST("/members/logout", memberHandler.Logout)
		protected.GET("/members/info", memberHandler.Info)
		protected.PATCH("/members/name", memberHandler.UpdateName)
		protected.PATCH("/members/password", memberHandler.UpdatePassword)
		protected.PATCH("/members/delete", memberHandler.Delete)

		// Groups
		protected.POST("/groups", groupHandler.Create)
		protected.GET("/groups", groupHandler.List)
		protected.GET("/groups/:id", groupHandler.Get)
		protected.PATCH("/groups/:id", groupHandler.Update)
		protected.PATCH("/groups/:id/delete", groupHandler.Delete)
		protected.PATCH("/groups/:id/members/:memberId", groupHandler.Member)

		// Invitations
		protected.POST("/groups/:id/invite", invitationHandler.Invite)
		protected.POST("/invitations/accept", invitationHandler.Accept)

		// Locations
		protected.POST("/locations/groups/:groupId", locationHandler.Create)
		protected.GET("/locations", locationHandler.ListMine)
		protected.GET("/locations/groups/:groupId", locationHandler.ListByGroup)
		protected.GET("/locations/:id", locationHandler.Get)
		protected.PATCH("/locations/:id", locationHandler.Update)
		protected.DELETE("/locations/:id", locationHandler.Delete)

		// Photos
		protected.POST("/photos/locations/:locationId", photoHandler.Create)
		protected.GET("/photos/locations/:locationId", photoHandler.ListByLocation)
		protected.GET("/photos", photoHandler.ListMine)
		protected.GET("/photos/:id", photoHandler.Get)
		protected.POST("/photos/:id", photoHandler.Confirm)
		protected.POST("/photos/:id/content", photoHandler.UploadContent)
		protected.PATCH("/photos/:id", photoHandler.Move)
		protected.PATCH("/photos/:id/delete", photoHandler.Delete)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, wsAuthorize, middleware.SplitOrigins(cfg.Server.CORSAllowedOrigins)))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background work (photo reconcile jobs, limiter sweep)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go reconciler.Run(workerCtx)
	go limiter.RunSweeper(workerCtx, time.Minute, 10*time.Minute)
	logger.Info("photo reconcile worker started", zap.String("queue", cfg.Worker.Queue))

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
