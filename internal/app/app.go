package app

import (
	"context"
	"errors"
	"istas_backend/internal/config"
	"istas_backend/internal/controller"
	"istas_backend/internal/repository"
	"istas_backend/internal/service"
	"istas_backend/internal/util"
	"istas_backend/pkg/configwatcher"
	"istas_backend/pkg/database"
	"istas_backend/pkg/logger"
	"istas_backend/pkg/messaging"
	"istas_backend/pkg/monitoring"
	"istas_backend/pkg/security"
	"istas_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config     *config.Config
	ConfigFile string
	Router     *gin.Engine
	DB         *gorm.DB
	Redis      *redis.Client
	Publisher  messaging.Publisher

	repos    *repositories
	services *services
	tracer   *sdktrace.TracerProvider
	stop     context.CancelFunc
}

type repositories struct {
	user         *repository.UserRepository
	company      *repository.CompanyRepository
	catalog      *repository.CatalogRepository
	evaluation   *repository.EvaluationRepository
	sessionCache *repository.SessionCacheRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	catalog    *service.CatalogService
	evaluation *service.EvaluationService
	report     *service.ReportService
}

type controllers struct {
	auth       *controller.AuthController
	catalog    *controller.CatalogController
	evaluation *controller.EvaluationController
	report     *controller.ReportController
	health     *controller.HealthController
}

func initRepositories(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		company:      repository.NewCompanyRepository(db),
		catalog:      repository.NewCatalogRepository(db),
		evaluation:   repository.NewEvaluationRepository(db),
		sessionCache: repository.NewSessionCacheRepository(rdb, cfg.Session.KeyPrefix, cfg.Session.TTL),
	}
}

func initServices(cfg *config.Config, repos *repositories, events messaging.Publisher) (*services, error) {
	storage, err := service.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	s := &services{storage: storage}
	s.auth = service.NewAuthService(repos.user, cfg)
	s.catalog = service.NewCatalogService(repos.catalog)
	s.evaluation = service.NewEvaluationService(s.catalog, repos.evaluation, repos.company, repos.sessionCache, events)
	s.report = service.NewReportService(s.catalog, repos.company, repos.evaluation, storage)
	return s, nil
}

func initControllers(s *services, repos *repositories, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		catalog:    controller.NewCatalogController(s.catalog, repos.company),
		evaluation: controller.NewEvaluationController(s.evaluation),
		report:     controller.NewReportController(s.report),
		health:     controller.NewHealthController(db, rdb),
	}
}

func setupMiddlewares(ctx context.Context, router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if cfg.RateLimit.MaxRequests > 0 && window > 0 {
		router.Use(security.RateLimiter(ctx, cfg.RateLimit.MaxRequests, window))
	}
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}
	router.Use(monitoring.MetricsMiddleware())
}

// NewApp connects to the database, Redis and the broker and builds the
// HTTP router.
func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized")

	db, err := database.InitDB(&cfg.Database, logger.Log)
	if err != nil {
		return nil, err
	}
	rdb, err := database.InitRedis(&cfg.Redis, logger.Log)
	if err != nil {
		return nil, err
	}
	events, err := messaging.NewPublisher(cfg.Broker, logger.Log)
	if err != nil {
		return nil, err
	}

	a, err := Assemble(cfg, db, rdb, events)
	if err != nil {
		return nil, err
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("istas-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, err
		}
		a.tracer = tp
	}
	return a, nil
}

// Assemble wires repositories, services and routes on top of already open
// connections.
func Assemble(cfg *config.Config, db *gorm.DB, rdb *redis.Client, events messaging.Publisher) (*App, error) {
	if events == nil {
		events = messaging.NoopPublisher{}
	}
	monitoring.Init()

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &App{
		Config:     cfg,
		ConfigFile: filepath.Join("configs", "config.yaml"),
		DB:         db,
		Redis:      rdb,
		Publisher:  events,
	}
	a.repos = initRepositories(cfg, db, rdb)
	svc, err := initServices(cfg, a.repos, events)
	if err != nil {
		return nil, err
	}
	a.services = svc

	bg, stop := context.WithCancel(context.Background())
	a.stop = stop
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode != gin.ReleaseMode {
		router.Use(gin.Logger())
	}
	setupMiddlewares(bg, router, cfg)
	registerRoutes(router, initControllers(svc, a.repos, db, rdb), cfg)
	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}
	a.Router = router
	return a, nil
}

// reloadConfig applies the settings that may change at runtime.
func (a *App) reloadConfig(cfg *config.Config) {
	logger.SetLevel(cfg)
	if cfg.Session.TTL > 0 {
		a.repos.sessionCache.SetTTL(cfg.Session.TTL)
	}
	logger.Log.Info("Configuration reloaded",
		zap.String("log_level", logger.Level().String()),
		zap.Duration("session_ttl", a.repos.sessionCache.TTL()),
	)
}

func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := os.Stat(a.ConfigFile); err == nil {
		go func() {
			if err := configwatcher.WatchConfig(ctx, a.ConfigFile, a.reloadConfig); err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Listen failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close(shutdownCtx)
	logger.Log.Info("Server exiting")
}

// Close releases the broker, Redis and tracer.
func (a *App) Close(ctx context.Context) {
	if a.stop != nil {
		a.stop()
	}
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			logger.Log.Warn("Failed to close publisher", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	_ = logger.Log.Sync()
}
