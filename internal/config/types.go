package config

import (
	"net"
	"strconv"
)

const (
	DefaultHost      = "localhost"
	DefaultPort      = 8080
	DefaultPublicDir = "public"
	DefaultMaxKeys   = 10000
)

type Config struct {
	Maintenance       bool              `json:"maintenance" yaml:"maintenance"`
	Host              string            `json:"host" yaml:"host"`
	Port              int               `json:"port" yaml:"port"`
	TrafficMonitoring *bool             `json:"trafficMonitoring,omitempty" yaml:"trafficMonitoring,omitempty"` // 缺省为开启
	PublicDir         string            `json:"publicDir" yaml:"publicDir"`                                     // 静态内容根目录
	MaxConnections    int               `json:"maxConnections" yaml:"maxConnections"`                           // 0 表示不限制
	MaxTrackedKeys    int               `json:"maxTrackedKeys" yaml:"maxTrackedKeys"`                           // 每个统计维度的键数上限，0 表示不限制
	Compression       CompressionConfig `json:"compression" yaml:"compression"`
	StatsRateLimit    RateLimitConfig   `json:"statsRateLimit" yaml:"statsRateLimit"`
}

type CompressionConfig struct {
	Gzip   CompressorConfig `json:"gzip" yaml:"gzip"`
	Brotli CompressorConfig `json:"brotli" yaml:"brotli"`
}

type CompressorConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	Level   int  `json:"level" yaml:"level"`
}

// RateLimitConfig /stats 每个客户端的令牌桶参数，RPS 为 0 时关闭
type RateLimitConfig struct {
	RPS   float64 `json:"rps" yaml:"rps"`
	Burst int     `json:"burst" yaml:"burst"`
}

// DefaultConfig 配置文件缺失时使用的内置默认值
func DefaultConfig() *Config {
	return &Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		PublicDir:      DefaultPublicDir,
		MaxTrackedKeys: DefaultMaxKeys,
		Compression: CompressionConfig{
			Gzip:   CompressorConfig{Enabled: false, Level: 6},
			Brotli: CompressorConfig{Enabled: false, Level: 4},
		},
		StatsRateLimit: RateLimitConfig{RPS: 5, Burst: 10},
	}
}

// TrafficMonitoringEnabled 未配置时默认开启
func (c *Config) TrafficMonitoringEnabled() bool {
	if c.TrafficMonitoring == nil {
		return true
	}
	return *c.TrafficMonitoring
}

// Addr 监听地址
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Clone 浅拷贝，指针字段单独复制
func (c *Config) Clone() *Config {
	out := *c
	if c.TrafficMonitoring != nil {
		v := *c.TrafficMonitoring
		out.TrafficMonitoring = &v
	}
	return &out
}

// BoolPtr 辅助函数
func BoolPtr(v bool) *bool {
	return &v
}
