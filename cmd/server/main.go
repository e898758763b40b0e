package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vinprj/predictml/internal/adapters/primary/http/handlers"
	"github.com/vinprj/predictml/internal/adapters/primary/http/middleware"
	"github.com/vinprj/predictml/internal/adapters/secondary/artifacts"
	"github.com/vinprj/predictml/internal/adapters/secondary/memory"
	"github.com/vinprj/predictml/internal/adapters/secondary/postgres"
	"github.com/vinprj/predictml/internal/adapters/secondary/redis"
	"github.com/vinprj/predictml/internal/adapters/secondary/sqlite"
	"github.com/vinprj/predictml/internal/config"
	"github.com/vinprj/predictml/internal/core/domain"
	"github.com/vinprj/predictml/internal/core/ports/output"
	"github.com/vinprj/predictml/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ============================================================================
	// Secondary Adapters
	// ============================================================================

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()
	log.WithField("driver", cfg.Database.Driver).Info("store ready")

	if err := store.Metadata().Seed(ctx, domain.DefaultMetadata()); err != nil {
		log.Fatalf("seed model metadata: %v", err)
	}

	catalog := domain.DefaultCatalog()
	registry := artifacts.NewRegistry(catalog, store.Metadata())

	builtins, err := artifacts.Builtin()
	if err != nil {
		log.Fatalf("load built-in models: %v", err)
	}
	if err := registry.DeployAll(ctx, builtins); err != nil {
		log.Fatalf("deploy built-in models: %v", err)
	}

	if cfg.Models.Dir != "" {
		arts, err := artifacts.LoadDir(cfg.Models.Dir)
		if err != nil {
			log.WithError(err).Warn("some model artifacts could not be loaded")
		}
		for _, a := range arts {
			if err := registry.Deploy(ctx, a); err != nil {
				log.WithError(err).WithField("path", a.Source).Error("deploy model artifact failed")
			}
		}
		if cfg.Models.Watch {
			watcher := artifacts.NewWatcher(registry, cfg.Models.Dir)
			go func() {
				if err := watcher.Run(ctx); err != nil {
					log.WithError(err).Error("model watcher stopped")
				}
			}()
		}
	}

	opts := []services.Option{
		services.WithHistoryLimits(cfg.History.DefaultLimit, cfg.History.MaxLimit),
	}
	if cfg.Redis.URL != "" {
		pub, err := redis.Connect(ctx, cfg.Redis.URL, cfg.Redis.Channel)
		if err != nil {
			log.Warnf("redis publisher init failed (continuing without events): %v", err)
		} else {
			defer pub.Close()
			opts = append(opts, services.WithPublisher(pub))
			log.WithField("channel", cfg.Redis.Channel).Info("redis publisher initialized")
		}
	} else {
		log.Info("prediction events disabled")
	}

	// ============================================================================
	// Core Services & Primary Adapter
	// ============================================================================

	predictionSvc := services.NewPredictionService(catalog, registry, store.History(), store.Metadata(), opts...)
	h := handlers.New(predictionSvc, store)

	router := gin.New()
	router.Use(
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Metrics(),
		gin.Recovery(),
	)
	h.RegisterRoutes(router)
	if cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (ports.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		log.WithField("path", s.Path()).Info("sqlite database opened")
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, postgres.PoolConfig{
			URL:             cfg.URL,
			MaxOpenConns:    cfg.MaxOpenConns,
			MinConns:        cfg.MinConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStoreKind, cfg.Driver)
	}
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
