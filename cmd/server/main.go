// Package main runs the narrated slideshow HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/draftcast/backend/config"
	"github.com/draftcast/backend/internal/assets"
	"github.com/draftcast/backend/internal/auth"
	"github.com/draftcast/backend/internal/middleware"
	"github.com/draftcast/backend/internal/narration"
	"github.com/draftcast/backend/internal/slideshow"
	"github.com/draftcast/backend/internal/videogen"
	"github.com/draftcast/backend/internal/videos"
	"github.com/draftcast/backend/pkg/database"
	"github.com/draftcast/backend/pkg/mongo"
	"github.com/draftcast/backend/pkg/redis"
	"github.com/draftcast/backend/pkg/response"
	"github.com/draftcast/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Bucket:          cfg.AWS.AssetsBucket,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}
	uploader := assets.NewUploader(s3Client, cfg.AWS.AssetsPrefix, logger)

	speech := narration.NewElevenLabsClient(narration.ElevenLabsConfig{
		APIURL:  cfg.Speech.APIURL,
		APIKey:  cfg.Speech.APIKey,
		ModelID: cfg.Speech.ModelID,
	}, nil)
	synthesizer := narration.NewSynthesizer(speech, cfg.Speech.VoiceID, cfg.Speech.OutputFormat, cfg.Render.ScratchDir, logger)

	renderer := slideshow.NewFFmpegRenderer(cfg.Render.FFmpegPath, cfg.Render.Concurrency, logger)
	if err := renderer.LookPath(); err != nil {
		logger.Fatal("render engine", zap.Error(err))
	}
	composer := slideshow.NewComposer(renderer, cfg.Render.ScratchDir, logger)

	var store videos.Store
	switch cfg.DocumentStore {
	case config.DocumentStoreMongo:
		client, err := mongo.NewClient(ctx, cfg.Mongo.URI, logger)
		if err != nil {
			logger.Fatal("mongo", zap.Error(err))
		}
		defer client.Disconnect(context.Background())
		store = videos.NewMongoRepository(client.Database(cfg.Mongo.Database))
	default:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		store = videos.NewRepository(pool)
	}

	// Rate limiting is optional; without Redis every request is allowed.
	var limiter middleware.Counter
	if cfg.RateLimit.Max > 0 {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("rate limiting disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			limiter = rdb
		}
	}

	service := videogen.NewService(synthesizer, uploader, composer, store,
		time.Duration(cfg.Render.TimeoutSec)*time.Second, logger)
	videoGenHandler := videogen.NewHandler(service, logger)
	videoHandler := videos.NewHandler(store, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	api := router.Group("")
	if cfg.JWT.Secret != "" {
		api.Use(middleware.OptionalJWT(auth.NewJWTService(cfg.JWT.Secret, time.Hour)))
	}
	{
		api.POST("/video/generate",
			middleware.RateLimit(limiter, "video", cfg.RateLimit.Max, time.Duration(cfg.RateLimit.WindowSec)*time.Second, logger),
			videoGenHandler.Generate)
		api.GET("/videos/:id", videoHandler.Get)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("document_store", cfg.DocumentStore),
			zap.Int("render_concurrency", cfg.Render.Concurrency),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// In-flight renders get the write timeout to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.WriteTimeout)*time.Second)
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
