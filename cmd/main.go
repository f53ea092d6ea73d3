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

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/wes-io-social/internal/cache"
	"github.com/weiawesome/wes-io-social/internal/config"
	"github.com/weiawesome/wes-io-social/internal/credential"
	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/internal/handler"
	"github.com/weiawesome/wes-io-social/internal/idgen"
	"github.com/weiawesome/wes-io-social/internal/mailer"
	"github.com/weiawesome/wes-io-social/internal/media"
	"github.com/weiawesome/wes-io-social/internal/notify"
	"github.com/weiawesome/wes-io-social/internal/repository"
	"github.com/weiawesome/wes-io-social/internal/search"
	"github.com/weiawesome/wes-io-social/internal/service"
	"github.com/weiawesome/wes-io-social/internal/sweeper"
	"github.com/weiawesome/wes-io-social/pkg/database"
	"github.com/weiawesome/wes-io-social/pkg/jwt"
	pkglog "github.com/weiawesome/wes-io-social/pkg/log"
	"github.com/weiawesome/wes-io-social/pkg/middleware"
	"github.com/weiawesome/wes-io-social/pkg/pubsub"
	"github.com/weiawesome/wes-io-social/pkg/storage"
)

const serviceName = "social-service"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{Level: cfg.Log.Level, ServiceName: serviceName})
	logger := pkglog.L()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database using GORM
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Logger:          pkglog.NewGormLogger(logger, cfg.Database.LogLevel, cfg.Database.SlowThreshold),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db, domain.Models()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

	// Redis backs the profile cache and token revocation. Without it the
	// service still runs, reading profiles straight from the database.
	var (
		profileCache cache.ProfileCache
		revocations  jwt.RevocationStore
		cleaners     []sweeper.Cleaner
	)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, profile cache disabled and revocations kept in memory")
		memory := jwt.NewMemoryRevocations()
		revocations = memory
		cleaners = append(cleaners, memory)
	} else {
		profileCache = cache.NewRedisProfileCache(redisClient, cfg.Cache.Prefix)
		revocations = cache.NewRedisRevocations(redisClient, cfg.Cache.Prefix)
	}
	pingCancel()

	jwtManager, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, cfg.Auth.Issuer, revocations)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create jwt manager")
	}

	// Id generators
	userIDs, err := idgen.New(cfg.IDs.User)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid user id strategy")
	}
	postIDs, err := idgen.New(cfg.IDs.Post)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid post id strategy")
	}
	commentIDs, err := idgen.New(cfg.IDs.Comment)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid comment id strategy")
	}

	// Initialize repositories
	userRepo := repository.NewGormUserRepository(db, userIDs)
	followRepo := repository.NewGormFollowRepository(db)
	postRepo := repository.NewGormPostRepository(db, postIDs, commentIDs)

	// Object storage and image processing
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create storage")
	}
	images := media.NewProcessor(store, idgen.MustNew(idgen.CUID2), media.Options{
		MaxDimension: cfg.Media.MaxDimension,
		AvatarSize:   cfg.Media.AvatarSize,
		JPEGQuality:  cfg.Media.JPEGQuality,
	})

	// Notifications bus
	var (
		bus    pubsub.PubSub
		stream handler.StreamHandler
	)
	if ps, err := pubsub.NewPubSub(cfg.PubSub); err != nil {
		logger.Warn().Err(err).Str("driver", cfg.PubSub.Driver).Msg("failed to create pubsub, notifications disabled")
	} else {
		bus = ps
		stream = notify.NewHandler(ctx, bus, cfg.WebSocket)
	}
	var notifier *notify.Notifier
	if bus != nil {
		notifier = notify.NewNotifier(bus)
	}

	mail, err := mailer.New(cfg.Mailer)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Mailer.Driver).Msg("failed to create mailer")
	}

	// User search
	var index search.UserIndex = search.NewDBUserIndex(userRepo)
	if cfg.Elasticsearch.Enabled {
		es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: cfg.Elasticsearch.Addresses})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create elasticsearch client")
		}
		index = search.NewESUserIndex(es, cfg.Elasticsearch.IndexName)
		logger.Info().Strs("addresses", cfg.Elasticsearch.Addresses).Msg("user search backed by elasticsearch")
	}

	// Initialize services
	profiles := service.NewProfiles(userRepo, followRepo, postRepo, profileCache, cfg.Cache.TTL)
	userService := service.NewUserService(service.UserDeps{
		Users:         userRepo,
		Follows:       followRepo,
		Profiles:      profiles,
		Hasher:        credential.NewHasher(cfg.Auth.BcryptCost),
		Tokens:        jwtManager,
		Mailer:        mail,
		Index:         index,
		Images:        images,
		Notifier:      notifier,
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
	})
	postService := service.NewPostService(service.PostDeps{
		Posts:    postRepo,
		Users:    userRepo,
		Follows:  followRepo,
		Profiles: profiles,
		Images:   images,
		Notifier: notifier,
	})

	// Background sweeper for expired reset tokens and in-memory revocations
	sw := sweeper.New(userRepo, cfg.Sweeper, cleaners...)
	sw.Start(ctx)

	// Initialize HTTP handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo, cfg.Auth.CookieName)
	cookie := handler.CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}
	userHandler := handler.NewUserHandler(userService, authMiddleware, cookie, cfg.Server.PublicURL, cfg.Media.MaxUploadBytes)
	postHandler := handler.NewPostHandler(postService, cfg.Media.MaxUploadBytes)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), pkglog.GinMiddleware(logger, "/health"))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if local, ok := store.(*storage.LocalStorage); ok {
		r.Static(local.PublicPath(), local.BasePath())
	}

	handler.RegisterRoutes(r, authMiddleware, userHandler, postHandler, stream)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg(serviceName + " listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down " + serviceName)

	sw.Stop()
	<-sw.Done()

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}

	// Websocket streams are hijacked connections Shutdown does not wait for.
	cancel()
	if bus != nil {
		if err := bus.Close(); err != nil {
			logger.Error().Err(err).Msg("pubsub close error")
		}
	}
	if err := mail.Close(); err != nil {
		logger.Error().Err(err).Msg("mailer close error")
	}

	logger.Info().Msg(serviceName + " stopped")
}
