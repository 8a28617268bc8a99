package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/presenton/core/internal/config"
	"github.com/presenton/core/internal/database"
	"github.com/presenton/core/internal/middleware"
	"github.com/presenton/core/internal/modules/outline"
	"github.com/presenton/core/internal/pkg/docloader"
	"github.com/presenton/core/internal/pkg/llm"
	"github.com/presenton/core/internal/pkg/objectstore"
	pkgredis "github.com/presenton/core/internal/pkg/redis"
	"github.com/presenton/core/internal/pkg/runledger"
	"github.com/presenton/core/internal/pkg/tempdir"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	db      *gorm.DB
	rc      *pkgredis.Client // nil when Redis is unreachable
	outline *outline.Service
	logger  *zap.Logger
}

// New initializes the application: DB → Redis → LLM → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg); err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	// the run ledger is optional, so Redis failures only disable it
	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, run ledger disabled", zap.Error(err))
		rc = nil
	}

	client, err := llm.New(context.Background(), cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	loaderOpts := docloader.Options{
		MaxBytes:    cfg.Documents.MaxBytes,
		HTTPTimeout: cfg.Documents.HTTPTimeout,
		Root:        cfg.DocumentsRoot(),
		AllowRemote: cfg.Documents.AllowRemote,
		RemoteHosts: cfg.Documents.RemoteHosts,
		Logger:      logger.Named("docloader"),
	}
	if cfg.Storage.S3.Configured() {
		store, err := objectstore.New(cfg.Storage.S3)
		if err != nil {
			return nil, fmt.Errorf("object store: %w", err)
		}
		loaderOpts.Objects = store
	}

	svcOpts := outline.Options{
		Store:     outline.NewStore(db),
		Generator: outline.NewGenerator(client, cfg.LLM.Model, logger.Named("llm")),
		Loader:    docloader.New(loaderOpts),
		TempDirs:  tempdir.NewService(cfg.TmpDir()),
		Logger:    logger.Named("outline"),
	}
	if rc != nil {
		svcOpts.Ledger = runledger.New(rc)
	}

	app := &App{
		cfg:     cfg,
		router:  newRouter(cfg, logger),
		db:      db,
		rc:      rc,
		outline: outline.NewService(svcOpts),
		logger:  logger,
	}
	app.registerRoutes()

	logger.Info("llm ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", client.Model()),
		zap.Bool("web_grounding", client.SupportsWebGrounding()),
	)
	return app, nil
}

func newRouter(cfg *config.AppConfig, logger *zap.Logger) *gin.Engine {
	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(corsConfig(cfg)))
	return router
}

func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Last-Event-ID", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		c.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		c.AllowOriginFunc = func(origin string) bool { return true }
	}
	return c
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown releases the Redis and database pools.
func (a *App) Shutdown() {
	if a.rc != nil {
		if err := a.rc.Close(); err != nil {
			a.logger.Warn("close redis failed", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.logger.Warn("close database failed", zap.Error(err))
		}
	}
}
