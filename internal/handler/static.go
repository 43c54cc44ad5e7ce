package handler

import (
	"log"
	"mwu-go/internal/interfaces"
	"net/http"
)

// StaticHandler 按解析链处理所有非统计请求
type StaticHandler struct {
	config    interfaces.ConfigView
	monitor   interfaces.TrafficRecorder
	resolvers []Resolver
}

// NewStaticHandler 使用默认解析链，notFound 可为 nil
func NewStaticHandler(cfg interfaces.ConfigView, monitor interfaces.TrafficRecorder, notFound interfaces.NotFoundResponder) *StaticHandler {
	return NewStaticHandlerWithResolvers(cfg, monitor, DefaultResolvers(notFound))
}

// NewStaticHandlerWithResolvers 自定义解析链，按顺序尝试，第一个匹配的生效
func NewStaticHandlerWithResolvers(cfg interfaces.ConfigView, monitor interfaces.TrafficRecorder, resolvers []Resolver) *StaticHandler {
	return &StaticHandler{
		config:    cfg,
		monitor:   monitor,
		resolvers: resolvers,
	}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cfg := h.config.GetConfig()
	scope := beginTraffic(h.monitor, cfg.TrafficMonitoringEnabled(), r)

	if cfg.Maintenance {
		log.Printf("[Static] Maintenance mode active, serving maintenance page for %s", r.URL.Path)
	}

	res := &Resolution{
		Root:        cfg.PublicDir,
		Target:      ResolveTarget(r.URL.Path, cfg.Maintenance),
		Maintenance: cfg.Maintenance,
	}

	outcome := h.resolve(w, r, res)
	scope.finish(outcome.Status, outcome.BytesSent)
}

func (h *StaticHandler) resolve(w http.ResponseWriter, r *http.Request, res *Resolution) Outcome {
	for _, resolver := range h.resolvers {
		outcome, matched, err := resolver.Resolve(w, r, res)
		if err != nil {
			// 存在性检查之后读取失败，只影响当前请求
			log.Printf("[Static] Error serving %s: %v", res.Target, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return Outcome{Status: http.StatusInternalServerError, Branch: "error"}
		}
		if matched {
			return outcome
		}
	}

	// 解析链没有兜底项时
	w.WriteHeader(http.StatusNotFound)
	return Outcome{Status: http.StatusNotFound, Branch: "bare_not_found"}
}
