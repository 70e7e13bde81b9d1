package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArowuTest/marketplace-backend/api/routes"
	"github.com/ArowuTest/marketplace-backend/internal/cache"
	"github.com/ArowuTest/marketplace-backend/internal/config"
	"github.com/ArowuTest/marketplace-backend/internal/middleware"
	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"github.com/ArowuTest/marketplace-backend/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/marketplace-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/marketplace-backend/internal/services"
	"github.com/ArowuTest/marketplace-backend/internal/worker"
	"github.com/ArowuTest/marketplace-backend/pkg/events"
	"github.com/ArowuTest/marketplace-backend/pkg/jwt"
	"github.com/ArowuTest/marketplace-backend/pkg/mongodb"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// store bundles the repositories of whichever persistence driver is configured
type store struct {
	sellers  repositories.SellerRepository
	products repositories.ProductRepository
	images   repositories.ProductImageRepository
	admins   repositories.AdminUserRepository
	audit    repositories.AuditRepository
	tx       repositories.TxManager
	health   func() error
	close    func(ctx context.Context) error
}

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			logger.WithError(err).Error("Error closing store")
		}
	}()

	var revocation cache.RevocationStore = cache.NewMemoryRevocationStore()
	if cfg.Redis.URL != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer rdb.Close()
		revocation = cache.NewRedisRevocationStore(rdb)
		logger.Info("Token revocation backed by Redis")
	} else {
		logger.Warn("REDIS_URL not set, token revocation is process-local")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := producer.Close(); err != nil {
				logger.WithError(err).Error("Error closing Kafka producer")
			}
		}()
		publisher = producer
		logger.WithField("topic", cfg.Kafka.Topic).Info("Publishing moderation events to Kafka")
	}

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	gate := services.NewGatingService(st.sellers, nil)
	authService := services.NewAuthService(st.sellers, st.admins, tokens, revocation, logger)
	moderationService := services.NewModerationService(services.ModerationDeps{
		Sellers:              st.sellers,
		Products:             st.products,
		Audit:                st.audit,
		Tx:                   st.tx,
		Publisher:            publisher,
		DefaultBlacklistDays: cfg.Moderation.DefaultBlacklistDays,
		Logger:               logger,
	})
	catalogService := services.NewCatalogService(services.CatalogDeps{
		Sellers:  st.sellers,
		Products: st.products,
		Images:   st.images,
		Tx:       st.tx,
		Gate:     gate,
		Logger:   logger,
	})

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	go limiter.Cleanup(ctx)

	if cfg.Moderation.SweepEnabled {
		sweeper := worker.NewBlacklistSweeper(st.sellers, cfg.Moderation.SweepInterval, logger)
		go sweeper.Start(ctx)
	}

	router := routes.SetupRouter(routes.Dependencies{
		Auth:           authService,
		Moderation:     moderationService,
		Catalog:        catalogService,
		Gate:           gate,
		Tokens:         tokens,
		Revocation:     revocation,
		RateLimiter:    limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
		Health:         st.health,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":  cfg.Server.Port,
			"store": cfg.Store.Driver,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	logger.Info("Server exiting")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func openStore(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*store, error) {
	if cfg.Store.Driver == "memory" {
		logger.Warn("Using in-memory store, data is lost on restart")
		repos := memory.NewRepositories()
		return &store{
			sellers:  repos.Sellers,
			products: repos.Products,
			images:   repos.Images,
			admins:   repos.Admins,
			audit:    repos.Audit,
			tx:       repos.TxManager,
			close:    func(context.Context) error { return nil },
		}, nil
	}

	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDB.Database)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logger.WithField("database", cfg.MongoDB.Database).Info("Connected to MongoDB")

	return &store{
		sellers:  mongorepo.NewSellerRepository(db),
		products: mongorepo.NewProductRepository(db),
		images:   mongorepo.NewProductImageRepository(db),
		admins:   mongorepo.NewAdminUserRepository(db),
		audit:    mongorepo.NewAuditRepository(db),
		tx:       mongorepo.NewTxManager(client.Client()),
		health: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Client().Ping(pingCtx, nil)
		},
		close: client.Disconnect,
	}, nil
}
