package app

import (
	"aiedu_backend/internal/config"
	"aiedu_backend/internal/controller"
	"aiedu_backend/internal/repository"
	"aiedu_backend/internal/service"
	"aiedu_backend/pkg/configwatcher"
	"aiedu_backend/pkg/database"
	"aiedu_backend/pkg/logger"
	"aiedu_backend/pkg/monitoring"
	"aiedu_backend/pkg/security"
	"aiedu_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	Services *Services

	configDir       string
	cfgMu           sync.RWMutex
	configCallbacks []func(*config.Config)
	tracer          *sdktrace.TracerProvider
	cancel          context.CancelFunc
}

type repositories struct {
	user     *repository.UserRepository
	path     *repository.LearningPathRepository
	draft    *repository.DraftRepository
	progress *repository.ProgressRepository
	news     *repository.NewsRepository
}

// Services 服务层实例，HTTP 服务和 eduadmin 命令行共用
type Services struct {
	Hub          *service.RealtimeHub
	Storage      *service.StorageService
	Auth         *service.AuthService
	User         *service.UserService
	Gamify       *service.GamificationService
	Progress     *service.ProgressService
	LearningPath *service.LearningPathService
	Cleaner      *service.DatabaseCleaner
	Drafts       *service.DraftService
	Publish      *service.PublishService
	News         *service.NewsService
}

type controllers struct {
	health       *controller.HealthController
	auth         *controller.AuthController
	user         *controller.UserController
	gamify       *controller.GamificationController
	progress     *controller.ProgressController
	learningPath *controller.LearningPathController
	draft        *controller.DraftController
	news         *controller.NewsController
	realtime     *controller.RealtimeController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// CurrentConfig 热更新后返回最新配置
func (a *App) CurrentConfig() *config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.Config
}

func (a *App) reloadConfig(cfg *config.Config) {
	cfg.ForceMigrate = a.Config.ForceMigrate
	cfg.MigrateOnly = a.Config.MigrateOnly

	a.cfgMu.Lock()
	a.Config = cfg
	a.cfgMu.Unlock()

	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		path:     repository.NewLearningPathRepository(db),
		draft:    repository.NewDraftRepository(db),
		progress: repository.NewProgressRepository(db),
		news:     repository.NewNewsRepository(db),
	}
}

// NewServices 组装服务层；rdb 为 nil 时缓冲区、暂存区和实时推送都使用进程内实现
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Services {
	repos := initRepositories(db)
	return newServices(repos, cfg, db, rdb)
}

func newServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Services {
	hub := service.NewRealtimeHub(rdb)
	storage := service.NewStorageService(cfg)
	gamify := service.NewGamificationService(db, repos.user)
	drafts := service.NewDraftService(repos.draft, service.NewDraftBuffer(rdb, cfg.Draft.BufferTTL), hub, cfg.Draft.AutosaveDelay)

	return &Services{
		Hub:          hub,
		Storage:      storage,
		Auth:         service.NewAuthService(repos.user, cfg),
		User:         service.NewUserService(repos.user),
		Gamify:       gamify,
		Progress:     service.NewProgressService(db, repos.progress, repos.path, repos.user, gamify, cfg.Gamify.LessonXP),
		LearningPath: service.NewLearningPathService(db, repos.path, repos.progress, hub),
		Cleaner:      service.NewDatabaseCleaner(db, repos.path, repos.progress),
		Drafts:       drafts,
		Publish: service.NewPublishService(db, drafts, repos.draft, repos.path, storage,
			service.NewStagingStore(rdb, cfg.Draft.StagingTTL), hub, cfg.Draft.MaxMediaBytes),
		News: service.NewNewsService(repos.news, rdb, cfg.News, hub),
	}
}

func initControllers(s *Services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		health:       controller.NewHealthController(db, rdb),
		auth:         controller.NewAuthController(s.Auth, s.User),
		user:         controller.NewUserController(s.User),
		gamify:       controller.NewGamificationController(s.Gamify),
		progress:     controller.NewProgressController(s.Progress),
		learningPath: controller.NewLearningPathController(s.LearningPath, s.Cleaner),
		draft:        controller.NewDraftController(s.Drafts, s.Publish),
		news:         controller.NewNewsController(s.News),
		realtime:     controller.NewRealtimeController(s.Hub),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())

	// 鉴权中间件从 context 读取当前配置
	router.Use(func(c *gin.Context) {
		c.Set("config", a.CurrentConfig())
		if a.Services != nil {
			c.Set("accounts", a.Services.User)
		}
		c.Next()
	})
}

func (a *App) startBackgroundTasks(ctx context.Context, s *Services) {
	go s.Hub.Run()
	s.News.StartBackgroundRefresh(ctx, a.Config.News.RefreshInterval)

	if err := configwatcher.WatchConfig(ctx, a.configDir, a.reloadConfig); err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.Error(err))
	}
}

// newHTTPApp 组装服务、控制器和路由，不启动后台任务
func newHTTPApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client, configDir string) *App {
	app := &App{
		Config:    cfg,
		DB:        db,
		Redis:     rdb,
		configDir: configDir,
	}

	services := NewServices(cfg, db, rdb)
	app.Services = services
	controllers := initControllers(services, db, rdb)

	app.RegisterConfigCallback(services.Auth.UpdateConfig)
	app.RegisterConfigCallback(func(c *config.Config) {
		logger.Log.Info("Admin whitelist reloaded", zap.Int("emails", len(c.Admin.Emails)))
	})

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}
	return app
}

func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.AutoMigrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db, configDir: configDir}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := newHTTPApp(cfg, db, rdb, configDir)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.startBackgroundTasks(ctx, app.Services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(ctx)
	logger.Log.Info("Server exiting")
}

// Close 写入尚未落库的自动保存，并关闭后台任务和外部连接
func (a *App) Close(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if a.Services != nil {
		if err := a.Services.Drafts.Close(ctx); err != nil {
			logger.Log.Error("Failed to flush pending drafts", zap.Error(err))
		}
		a.Services.Hub.Stop()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Log.Sync()
}
