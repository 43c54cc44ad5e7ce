package metrics

import (
	"fmt"
	"log"
	"mwu-go/internal/config"
	"mwu-go/internal/constants"
)

// ConsistencyError 不变量校验失败
type ConsistencyError struct {
	Field string
	Got   int64
	Want  int64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: got %d, want %d", e.Field, e.Got, e.Want)
}

// Init 按配置创建监控器。监控开关在每个请求上读取，
// 因此即使当前关闭也会创建，重新加载配置后即可生效。
func Init(cfg *config.Config) *TrafficMonitor {
	constants.UpdateFromConfig(cfg)
	if !cfg.TrafficMonitoringEnabled() {
		log.Printf("[Metrics] 流量监控当前处于关闭状态")
	}

	m := NewTrafficMonitor(Options{
		WindowSize:     constants.LatencyWindowSize,
		MaxTrackedKeys: constants.MaxTrackedKeys,
	})
	log.Printf("[Metrics] 初始化完成 (window=%d, maxTrackedKeys=%d)",
		constants.LatencyWindowSize, constants.MaxTrackedKeys)
	return m
}
