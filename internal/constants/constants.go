package constants

import (
	"mwu-go/internal/config"
	"time"
)

// 内容目录中的固定文档
const (
	DefaultDocument     = "index.html"
	NotFoundDocument    = "404.html"
	MaintenanceDocument = "maintenance.html"

	// 统计页面路径
	StatsPath = "/stats"

	// 超出基数上限后被淘汰键的归并桶
	OverflowKey = "(other)"
)

var (
	// 延迟窗口
	LatencyWindowSize = 1000 // 保留最近的延迟样本数
	TopPathsLimit     = 10   // 统计页面展示的路径数
	TopAgentsLimit    = 10   // 统计页面展示的 User-Agent 数

	// 基数限制
	MaxTrackedKeys = 10000 // 每个维度最多跟踪的键数

	// 全量延迟直方图范围（毫秒）
	HistogramMaxLatency int64 = 60 * 60 * 1000
	HistogramSigFigs          = 3

	// 服务器
	ShutdownTimeout   = 5 * time.Second
	ReadHeaderTimeout = 10 * time.Second

	// 磁盘空间告警阈值
	LowDiskThreshold uint64 = 10 * GB

	// 单位常量
	KB uint64 = 1024
	MB uint64 = 1024 * KB
	GB uint64 = 1024 * MB
)

// UpdateFromConfig 从配置文件更新常量
func UpdateFromConfig(cfg *config.Config) {
	if cfg.MaxTrackedKeys >= 0 {
		MaxTrackedKeys = cfg.MaxTrackedKeys
	}
}
