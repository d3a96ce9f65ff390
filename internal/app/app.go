// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/screen-connect-controller/internal/dao"
	"github.com/haierkeys/screen-connect-controller/internal/domain"
	"github.com/haierkeys/screen-connect-controller/internal/identity"
	"github.com/haierkeys/screen-connect-controller/internal/session"
	pkgapp "github.com/haierkeys/screen-connect-controller/pkg/app"
	"github.com/haierkeys/screen-connect-controller/pkg/transport"
	"github.com/haierkeys/screen-connect-controller/pkg/workerpool"
	"github.com/haierkeys/screen-connect-controller/pkg/writequeue"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Option 应用容器选项
type Option func(*App)

// WithTransport replaces the transport built from configuration
// WithTransport 替换按配置构建的传输
func WithTransport(tr transport.Transport) Option {
	return func(a *App) { a.Transport = tr }
}

// WithRegisterer sets the prometheus registerer, default prometheus.DefaultRegisterer
// WithRegisterer 设置 prometheus 注册器，默认为 prometheus.DefaultRegisterer
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *App) { a.registerer = reg }
}

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// 并发控制组件
	workerPool    *workerpool.Pool
	writeQueueMgr *writequeue.Manager

	// Repository 层，仅 database 身份后端使用
	PreferenceRepo domain.PreferenceRepository

	// 控制端
	Identity   *identity.Store
	Transport  transport.Transport
	Metrics    *session.Metrics
	Controller *session.Controller

	registerer prometheus.Registerer

	// 关闭控制
	runCancel  context.CancelFunc
	runDone    chan struct{}
	shutdownCh chan struct{}
	once       sync.Once
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
func NewApp(cfg *AppConfig, logger *zap.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		registerer: prometheus.DefaultRegisterer,
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化 Write Queue Manager
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(&wqConfig, logger)

	// 初始化身份存储，后端不可用时退回内存
	backend, err := identity.OpenBackend(cfg.Identity, a.openPreferenceRepo)
	if err != nil {
		logger.Warn("identity backend unavailable, falling back to memory",
			zap.String("backend", cfg.Identity.Backend), zap.Error(err))
		backend = identity.NewMemoryBackend()
	}
	a.Identity = identity.NewStore(backend, a.writeQueueMgr, cfg.Identity.TimeoutDuration(), logger)

	// 初始化传输
	if a.Transport == nil {
		switch cfg.Transport.Type {
		case "memory":
			a.Transport = transport.NewMemory(cfg.Transport.AutoAdvance)
		case "krmx", "":
			a.Transport = transport.NewKrmx(cfg.GetKrmxConfig(), logger)
		default:
			a.closeResources(context.Background())
			return nil, fmt.Errorf("unknown transport type %q", cfg.Transport.Type)
		}
	}

	a.Metrics = session.NewMetrics(a.registerer)
	a.Controller = session.New(session.Config{
		ServerURL:      cfg.Controller.ServerURL,
		DisplayID:      cfg.Controller.DisplayID,
		Language:       cfg.Controller.Lang,
		CommandTimeout: cfg.GetCommandTimeout(),
	}, a.Transport, a.Identity, a.workerPool, a.Metrics, logger)

	logger.Info("App container initialized successfully",
		zap.String("display", cfg.Controller.DisplayID),
		zap.String("identityBackend", a.Identity.Backend()),
		zap.String("transport", cfg.Transport.Type),
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity))

	return a, nil
}

// openPreferenceRepo opens the database lazily, only the database identity backend needs it
// openPreferenceRepo 延迟打开数据库，仅 database 身份后端需要
func (a *App) openPreferenceRepo() (domain.PreferenceRepository, error) {
	db, err := dao.NewDBEngineWithConfig(a.config.Database, a.config.Server.RunMode == "debug")
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.Dao = dao.New(db, a.config.Database, a.logger)
	a.PreferenceRepo = dao.NewPreferenceRepository(a.Dao)
	return a.PreferenceRepo, nil
}

// Start runs the controller event loop in the background
// Start 在后台运行控制端事件循环
func (a *App) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.runCancel = cancel
	a.runDone = make(chan struct{})
	go func() {
		defer close(a.runDone)
		if err := a.Controller.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("controller stopped", zap.Error(err))
		}
	}()
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// IsReturnSuccess 是否返回成功响应
func (a *App) IsReturnSuccess() bool {
	return a.config.App.IsReturnSussess
}

// IsProductionMode 是否为生产模式
// 根据日志配置中的 Production 字段判断
func (a *App) IsProductionMode() bool {
	return a.config.Log.Production
}

// WorkerPool 获取 Worker Pool（用于高级操作）
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// WriteQueueManager 获取 Write Queue Manager（用于高级操作）
func (a *App) WriteQueueManager() *writequeue.Manager {
	return a.writeQueueMgr
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：控制端事件循环 -> 传输 -> Worker Pool 与身份存储（并行）-> Database
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	var err error
	a.once.Do(func() {
		a.logger.Info("App container shutting down...")
		close(a.shutdownCh)

		// 1. 停止事件循环，之后不会再派发新命令
		if a.runCancel != nil {
			a.runCancel()
			select {
			case <-a.runDone:
			case <-ctx.Done():
				a.logger.Warn("Shutdown timeout waiting for controller loop")
			}
		}

		// 2. 仍处于连接状态时主动断开
		switch a.Transport.Status() {
		case transport.StatusConnected, transport.StatusLinked:
			if derr := a.Transport.Disconnect(ctx); derr != nil {
				a.logger.Warn("transport disconnect on shutdown", zap.Error(derr))
			}
		}

		err = a.closeResources(ctx)
	})
	return err
}

// closeResources drains the pool and the identity store concurrently, then closes the database
// closeResources 并行排空 Worker Pool 和身份存储，然后关闭数据库
func (a *App) closeResources(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.workerPool.Shutdown(gctx); err != nil {
			a.logger.Warn("Worker pool shutdown error", zap.Error(err))
			return fmt.Errorf("worker pool shutdown: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// 身份存储关闭时同时关闭共享的写队列
		if a.Identity != nil {
			if err := a.Identity.Close(gctx); err != nil {
				a.logger.Warn("identity store close error", zap.Error(err))
				return fmt.Errorf("identity store close: %w", err)
			}
			return nil
		}
		return a.writeQueueMgr.Shutdown(gctx)
	})
	err := g.Wait()

	if a.Dao != nil {
		if cerr := a.Dao.Close(); cerr != nil {
			a.logger.Warn("database close error", zap.Error(cerr))
			if err == nil {
				err = fmt.Errorf("failed to close database: %w", cerr)
			}
		} else {
			a.logger.Info("Database connection closed")
		}
	}

	if err != nil {
		a.logger.Warn("App container shutdown completed with errors", zap.Error(err))
		return err
	}
	a.logger.Info("App container shutdown completed successfully")
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownCh 返回关闭信号通道（用于监听关闭事件）
func (a *App) ShutdownCh() <-chan struct{} {
	return a.shutdownCh
}
