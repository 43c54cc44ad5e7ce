package models

import "time"

// RequestEvent 请求到达时创建，交给监控器后即丢弃
type RequestEvent struct {
	Path          string
	ClientAddress string
	Method        string
	UserAgent     string
	Timestamp     time.Time
}

// ResponseEvent 响应即将发送时创建
type ResponseEvent struct {
	StatusCode    int
	LatencyMillis int64
	BytesSent     int64
}
