package models

import "time"

// KeyCount 某个维度上的键及其计数
type KeyCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// TrafficStats 某一时刻的流量快照，构造后不再修改
type TrafficStats struct {
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`

	// 请求概览
	TotalRequests      int64 `json:"total_requests"`
	TotalResponses     int64 `json:"total_responses"`
	UniqueIPs          int   `json:"unique_ips"`
	ActiveConnections  int64 `json:"active_connections"`
	PeakConnections    int64 `json:"peak_connections"`
	UnmatchedResponses int64 `json:"unmatched_responses"`

	// 传输
	TotalBytesSent int64 `json:"total_bytes_sent"`

	// 延迟（毫秒）
	AvgLatency     float64 `json:"avg_latency_ms"`
	MinLatency     int64   `json:"min_latency_ms"`
	MaxLatency     int64   `json:"max_latency_ms"`
	MedianLatency  float64 `json:"median_latency_ms"`
	P95Latency     float64 `json:"p95_latency_ms"`
	LatencySamples int     `json:"latency_samples"`

	// 全量直方图，近似值
	LifetimeP50 int64 `json:"lifetime_p50_ms"`
	LifetimeP99 int64 `json:"lifetime_p99_ms"`

	// 维度统计
	TopPaths             []KeyCount       `json:"top_paths"`
	TopUserAgents        []KeyCount       `json:"top_user_agents"`
	RequestsByMethod     map[string]int64 `json:"requests_by_method"`
	RequestsByStatusCode map[int]int64    `json:"requests_by_status_code"`
}

// PathCount 返回 TopPaths 中某个路径的计数
func (s *TrafficStats) PathCount(path string) (int64, bool) {
	for _, kc := range s.TopPaths {
		if kc.Key == path {
			return kc.Count, true
		}
	}
	return 0, false
}
