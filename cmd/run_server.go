package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	internalApp "github.com/haierkeys/screen-connect-controller/internal/app"
	"github.com/haierkeys/screen-connect-controller/internal/routers"
	"github.com/haierkeys/screen-connect-controller/pkg/code"
	"github.com/haierkeys/screen-connect-controller/pkg/logger"
	"github.com/haierkeys/screen-connect-controller/pkg/safe_close"
	"github.com/haierkeys/screen-connect-controller/pkg/util"
	"github.com/haierkeys/screen-connect-controller/pkg/validator"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"go.uber.org/zap"
)

type Server struct {
	logger            *zap.Logger             // Logger // 日志对象
	config            *internalApp.AppConfig  // App configuration // 应用配置
	ut                *ut.UniversalTranslator // Translator // 翻译器
	httpServer        *http.Server
	privateHttpServer *http.Server
	sc                *safe_close.SafeClose
	app               *internalApp.App // App Container
}

// applyFlags command line flags win over the config file
// applyFlags 命令行参数优先于配置文件
func applyFlags(cfg *internalApp.AppConfig, runEnv *runFlags) {
	if len(runEnv.runMode) > 0 {
		cfg.Server.RunMode = runEnv.runMode
	}
	if len(runEnv.port) > 0 {
		cfg.Server.HttpPort = runEnv.port
	}
	if len(runEnv.serverURL) > 0 {
		cfg.Controller.ServerURL = runEnv.serverURL
	}
	if len(runEnv.displayID) > 0 {
		cfg.Controller.DisplayID = runEnv.displayID
	}
}

func NewServer(runEnv *runFlags) (*Server, error) {

	appConfig, configRealpath, err := internalApp.LoadConfig(runEnv.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(appConfig, runEnv)

	// Refuse to dial a malformed target
	// 拒绝拨号到格式错误的目标
	if err := appConfig.ValidateController(); err != nil {
		return nil, err
	}

	if len(appConfig.Server.RunMode) > 0 {
		gin.SetMode(appConfig.Server.RunMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: appConfig,
		sc:     safe_close.NewSafeClose(),
	}

	// Initialize logger
	// 初始化日志器
	if err := initLoggerWithConfig(s, appConfig); err != nil {
		return nil, fmt.Errorf("initLogger: %w", err)
	}

	if err := code.SetGlobalDefaultLang(appConfig.Controller.Lang); err != nil {
		s.logger.Warn("unsupported controller.lang, keep default", zap.String("lang", appConfig.Controller.Lang), zap.Error(err))
	}

	// Initialize storage directory
	// 初始化存储目录
	if err := initStorageWithConfig(appConfig); err != nil {
		return nil, fmt.Errorf("initStorage: %w", err)
	}

	// Initialize validator
	// 初始化验证器
	uni, err := validator.InstallGin()
	if err != nil {
		return nil, fmt.Errorf("initValidator: %w", err)
	}
	s.ut = uni

	// Initialize App Container
	// 初始化 App Container
	app, err := internalApp.NewApp(appConfig, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create app container: %w", err)
	}
	s.app = app
	app.Start(context.Background())

	banner := `
   _____                              ______                            __
  / ___/_____________  ___  ____     / ____/___  ____  ____  ___  _____/ /_
  \__ \/ ___/ ___/ _ \/ _ \/ __ \   / /   / __ \/ __ \/ __ \/ _ \/ ___/ __/
 ___/ / /__/ /  /  __/  __/ / / /  / /___/ /_/ / / / / / / /  __/ /__/ /_
/____/\___/_/   \___/\___/_/ /_/   \____/\____/_/ /_/_/ /_/\___/\___/\__/ `
	s.logger.Warn(fmt.Sprintf("%s\n\n%s v%s\nGit: %s\nBuildTime: %s\n", banner, internalApp.Name, internalApp.Version, internalApp.GitTag, internalApp.BuildTime))

	s.logger.Warn("config loaded",
		zap.String("path", configRealpath),
		zap.String(logger.FieldDisplay, appConfig.Controller.DisplayID),
		zap.String("serverUrl", appConfig.Controller.ServerURL),
		zap.String(logger.FieldDevice, util.GetDeviceID()))

	// Start HTTP control API server
	// 启动 HTTP 控制接口服务器
	if httpAddr := appConfig.Server.HttpPort; len(httpAddr) > 0 {
		s.logger.Warn("api_router", zap.String("config.server.HttpPort", httpAddr))
		s.httpServer = &http.Server{
			Addr:           httpAddr,
			Handler:        routers.NewRouter(s.app, s.ut),
			ReadTimeout:    time.Duration(appConfig.Server.ReadTimeout) * time.Second,
			WriteTimeout:   time.Duration(appConfig.Server.WriteTimeout) * time.Second,
			MaxHeaderBytes: 1 << 20,
		}
		s.attachHTTP(s.httpServer, "api service")
	}

	if httpAddr := appConfig.Server.PrivateHttpListen; len(httpAddr) > 0 {
		s.logger.Info("api_router", zap.String("config.server.PrivateHttpListen", httpAddr))
		s.privateHttpServer = &http.Server{
			Addr:           httpAddr,
			Handler:        routers.NewPrivateRouterWithLogger(appConfig.Server.RunMode, s.logger),
			ReadTimeout:    time.Duration(appConfig.Server.ReadTimeout) * time.Second,
			WriteTimeout:   time.Duration(appConfig.Server.WriteTimeout) * time.Second,
			MaxHeaderBytes: 1 << 20,
		}
		s.attachHTTP(s.privateHttpServer, "private api service")
	}

	// Register App Container graceful shutdown
	// 注册 App Container 的优雅关闭
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		ctx, cancel := context.WithTimeout(context.Background(), internalApp.DefaultShutdownTimeout)
		defer cancel()

		if err := s.app.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown app container", zap.Error(err))
		} else {
			s.logger.Info("App container shutdown gracefully")
		}
	})

	return s, nil
}

// attachHTTP serves srv until it fails or the close signal arrives
// attachHTTP 运行 srv，直到出错或收到关闭信号
func (s *Server) attachHTTP(srv *http.Server, name string) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.ListenAndServe()
		}()
		select {
		case err := <-errChan:
			s.logger.Error(name+" err", zap.Error(err))
			s.sc.SendCloseSignal(err)
		case <-closeSignal:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// 停止HTTP服务器
			if err := srv.Shutdown(ctx); err != nil {
				s.logger.Error(name+" shutdown error", zap.Error(err))
			}
		}
	})
}

// initLoggerWithConfig initializes logger (using injected config)
// initLoggerWithConfig 初始化日志器（使用注入的配置）
func initLoggerWithConfig(s *Server, cfg *internalApp.AppConfig) error {
	lg, err := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		Production: cfg.Log.Production,
	})
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	s.logger = lg

	return nil
}

// initStorageWithConfig creates the directories the configured backends write into
// initStorageWithConfig 创建配置的后端需要写入的目录
func initStorageWithConfig(cfg *internalApp.AppConfig) error {
	dirs := []string{filepath.Dir(cfg.Log.File)}
	switch cfg.Identity.Backend {
	case "file":
		dirs = append(dirs, filepath.Dir(cfg.Identity.File))
	case "database":
		if cfg.Database.Type == "sqlite" {
			dirs = append(dirs, filepath.Dir(cfg.Database.Path))
		}
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0754); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetApp gets App Container
// GetApp 获取 App Container
func (s *Server) GetApp() *internalApp.App {
	return s.app
}

// GetConfig gets app configuration
// GetConfig 获取应用配置
func (s *Server) GetConfig() *internalApp.AppConfig {
	return s.config
}
