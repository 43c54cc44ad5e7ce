package router

import (
	"log"
	"mwu-go/internal/constants"
	"net/http"
)

// RouteHandler 定义路由处理器结构
type RouteHandler struct {
	Matcher func(*http.Request) bool
	Handler http.Handler
}

// SetupMainRoutes 设置主要路由：/stats 走统计页面（可选限流），其余交给静态内容处理器
func SetupMainRoutes(staticHandler, statsHandler http.Handler, statsLimit func(http.Handler) http.Handler) []RouteHandler {
	if statsLimit != nil {
		statsHandler = statsLimit(statsHandler)
	}

	return []RouteHandler{
		// 统计页面
		{
			Matcher: func(r *http.Request) bool {
				return r.URL.Path == constants.StatsPath
			},
			Handler: statsHandler,
		},
		// 默认静态内容处理器
		{
			Matcher: func(r *http.Request) bool {
				return true
			},
			Handler: staticHandler,
		},
	}
}

// NewMainHandler 按顺序匹配路由，第一个命中的处理请求
func NewMainHandler(routes []RouteHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, route := range routes {
			if route.Matcher(r) {
				route.Handler.ServeHTTP(w, r)
				return
			}
		}

		log.Printf("[Server] 未找到处理器: %s", r.URL.Path)
		http.NotFound(w, r)
	})
}
