package handler

import (
	"mwu-go/internal/interfaces"
	"mwu-go/internal/models"
	"net/http"
	"time"

	"github.com/woodchen-ink/go-web-utils/iputil"
)

// trafficScope 一个请求的统计范围：到达时记录请求，终端分支记录响应。
// 监控开关只在开始时读取一次，保证请求与响应成对。
type trafficScope struct {
	monitor interfaces.TrafficRecorder
	start   time.Time
	enabled bool
}

func beginTraffic(monitor interfaces.TrafficRecorder, enabled bool, r *http.Request) *trafficScope {
	s := &trafficScope{
		monitor: monitor,
		start:   time.Now(),
		enabled: enabled && monitor != nil,
	}
	if s.enabled {
		s.monitor.RecordRequest(models.RequestEvent{
			Path:          r.URL.Path,
			ClientAddress: iputil.GetClientIP(r),
			Method:        r.Method,
			UserAgent:     r.UserAgent(),
			Timestamp:     s.start,
		})
	}
	return s
}

func (s *trafficScope) finish(status int, bytesSent int64) {
	if !s.enabled {
		return
	}
	s.monitor.RecordResponse(models.ResponseEvent{
		StatusCode:    status,
		LatencyMillis: time.Since(s.start).Milliseconds(),
		BytesSent:     bytesSent,
	})
}
