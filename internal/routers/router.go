package routers

import (
	"time"

	"github.com/haierkeys/screen-connect-controller/internal/app"
	"github.com/haierkeys/screen-connect-controller/internal/middleware"
	"github.com/haierkeys/screen-connect-controller/internal/routers/api_router"
	"github.com/haierkeys/screen-connect-controller/internal/routers/websocket_router"
	pkgapp "github.com/haierkeys/screen-connect-controller/pkg/app"
	"github.com/haierkeys/screen-connect-controller/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/lxzan/gws"
)

// newMethodLimiters 控制端写接口按路径限流，perSecond <= 0 时不限流
func newMethodLimiters(perSecond int64) limiter.Face {
	l := limiter.NewMethodLimiter()
	if perSecond <= 0 {
		return l
	}
	for _, key := range []string{"/api/session/identifier", "/api/session/link", "/api/session/disconnect"} {
		l = l.AddBuckets(limiter.BucketRule{
			Key:          key,
			FillInterval: time.Second,
			Capacity:     perSecond,
			Quantum:      perSecond,
		})
	}
	return l
}

func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	var wss = pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		GWSOption: gws.ServerOption{
			CheckUtf8Enabled:   true,
			Recovery:           gws.Recovery, // 开启异常恢复
			ReadMaxPayloadSize: 64 * 1024,
		},
	}, appContainer.Logger())

	// 创建 WebSocket Handlers（注入 App Container）
	sessionWSHandler := websocket_router.NewSessionWSHandler(appContainer)
	wss.OnConnect(sessionWSHandler.OnConnect)
	wss.Use(websocket_router.ActionIdentifierSet, sessionWSHandler.IdentifierSet)
	wss.Use(websocket_router.ActionLink, sessionWSHandler.Link)
	wss.Use(websocket_router.ActionDisconnect, sessionWSHandler.Disconnect)
	go sessionWSHandler.Broadcast(wss)

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfoWithConfig(app.Name, appContainer.Version().Version))
		api.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.RateLimiter(newMethodLimiters(cfg.App.ApiRateLimit)))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLogWithLogger(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		// 创建 Handlers（注入 App Container）
		sessionHandler := api_router.NewSessionHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)

		api.GET("/version", versionHandler.ServerVersion)

		api.GET("/session", sessionHandler.Get)
		api.PUT("/session/identifier", sessionHandler.SetIdentifier)
		api.POST("/session/link", sessionHandler.Link)
		api.POST("/session/disconnect", sessionHandler.Disconnect)
		api.GET("/session/watch", wss.Run())
	}

	r.NoRoute(middleware.NoFound())

	return r
}
