package handler

import (
	"bytes"
	"encoding/json"
	"log"
	"mwu-go/internal/interfaces"
	"net/http"
)

// StatsHandler /stats 统计页面
type StatsHandler struct {
	config  interfaces.ConfigView
	monitor interfaces.TrafficRecorder
}

func NewStatsHandler(cfg interfaces.ConfigView, monitor interfaces.TrafficRecorder) *StatsHandler {
	return &StatsHandler{
		config:  cfg,
		monitor: monitor,
	}
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cfg := h.config.GetConfig()
	enabled := cfg.TrafficMonitoringEnabled() && h.monitor != nil
	scope := beginTraffic(h.monitor, enabled, r)

	// 只允许 GET
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		scope.finish(http.StatusMethodNotAllowed, 0)
		return
	}

	if !enabled {
		var buf bytes.Buffer
		if err := RenderErrorPage(&buf, "Traffic monitoring is disabled"); err != nil {
			log.Printf("[Stats] 渲染错误页面失败: %v", err)
		}
		n := writeBody(w, http.StatusForbidden, "text/html; charset=UTF-8", buf.Bytes())
		scope.finish(http.StatusForbidden, n)
		return
	}

	stats := h.monitor.GetStats()

	var (
		buf         bytes.Buffer
		contentType string
	)
	if r.URL.Query().Get("format") == "json" {
		contentType = "application/json"
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			log.Printf("[Stats] Error encoding stats: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			scope.finish(http.StatusInternalServerError, 0)
			return
		}
	} else {
		contentType = "text/html; charset=UTF-8"
		if err := RenderStatsPage(&buf, stats); err != nil {
			log.Printf("[Stats] Error rendering stats: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			scope.finish(http.StatusInternalServerError, 0)
			return
		}
	}

	w.Header().Set("Cache-Control", "no-store")
	n := writeBody(w, http.StatusOK, contentType, buf.Bytes())
	scope.finish(http.StatusOK, n)
	log.Printf("[Stats] Served traffic statistics (%d bytes)", n)
}
