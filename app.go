package main

import (
	"fmt"
	"log"
	"mwu-go/internal/compression"
	"mwu-go/internal/config"
	"mwu-go/internal/handler"
	"mwu-go/internal/interfaces"
	"mwu-go/internal/metrics"
	"mwu-go/internal/middleware"
	"mwu-go/internal/router"
	"mwu-go/internal/security"
	"net/http"
	"os"
	"sync/atomic"
)

// builtinNotFound 作为 --not-found 的取值时使用内置 404 页面
const builtinNotFound = "builtin"

// app 组装好的请求处理链
type app struct {
	monitor *metrics.TrafficMonitor
	limiter *security.ClientLimiter
	handler http.Handler
}

// loadNotFoundResponder 解析 --not-found：空为不设置，builtin 为内置页面，其余视为 HTML 文件路径
func loadNotFoundResponder(source string) (interfaces.NotFoundResponder, error) {
	switch source {
	case "":
		return nil, nil
	case builtinNotFound:
		return handler.NewNotFoundPage(""), nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read not-found page: %w", err)
	}
	return handler.NewNotFoundPage(string(data)), nil
}

func newApp(configManager *config.ConfigManager, notFound interfaces.NotFoundResponder) *app {
	cfg := configManager.GetConfig()

	// 初始化统计服务
	monitor := metrics.Init(cfg)

	// 创建压缩管理器（使用atomic.Value来支持动态更新）
	var compManager atomic.Value
	compManager.Store(compression.NewManager(cfg.Compression))

	// /stats 限流，rps 为 0 时不限流，热更新后生效
	limiter := security.NewClientLimiter(security.RateLimitConfig{
		RPS:             cfg.StatsRateLimit.RPS,
		Burst:           cfg.StatsRateLimit.Burst,
		CleanupInterval: security.DefaultRateLimitConfig().CleanupInterval,
	})

	configManager.RegisterUpdateCallback(func(newCfg *config.Config) {
		compManager.Store(compression.NewManager(newCfg.Compression))
		log.Printf("[Config] 压缩管理器配置已更新")
		limiter.SetLimit(newCfg.StatsRateLimit.RPS, newCfg.StatsRateLimit.Burst)
	})

	staticHandler := handler.NewStaticHandler(configManager, monitor, notFound)
	statsHandler := handler.NewStatsHandler(configManager, monitor)
	rateLimit := middleware.NewRateLimitMiddleware(limiter)

	routes := router.SetupMainRoutes(staticHandler, statsHandler, rateLimit.Handler)
	mainHandler := router.NewMainHandler(routes)

	// 添加压缩中间件
	h := middleware.CompressionMiddleware(func() compression.Manager {
		return compManager.Load().(compression.Manager)
	})(mainHandler)

	return &app{
		monitor: monitor,
		limiter: limiter,
		handler: h,
	}
}

func (a *app) close() {
	a.limiter.Stop()
}
