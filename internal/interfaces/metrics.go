package interfaces

import (
	"mwu-go/internal/config"
	"mwu-go/internal/models"
	"net/http"
)

// TrafficRecorder 定义流量监控器接口
type TrafficRecorder interface {
	RecordRequest(ev models.RequestEvent)
	RecordResponse(ev models.ResponseEvent)
	GetStats() models.TrafficStats
}

// NotFoundResponder 自定义 404 响应。
// 写入的内容不会被检查，统计上一律按 404、0 字节记录。
type NotFoundResponder interface {
	ServeNotFound(w http.ResponseWriter, r *http.Request)
}

// NotFoundResponderFunc 让普通函数满足 NotFoundResponder
type NotFoundResponderFunc func(w http.ResponseWriter, r *http.Request)

func (f NotFoundResponderFunc) ServeNotFound(w http.ResponseWriter, r *http.Request) {
	f(w, r)
}

// ConfigView 只读配置来源，路由器每个请求读取一次
type ConfigView interface {
	GetConfig() *config.Config
}
