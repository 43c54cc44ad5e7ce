package config

import (
	"errors"
	"log"
	apperrors "mwu-go/internal/errors"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

// 环境变量覆盖项
const (
	EnvMaintenance       = "MWU_MAINTENANCE"
	EnvHost              = "MWU_HOST"
	EnvPort              = "MWU_PORT"
	EnvTrafficMonitoring = "MWU_TRAFFIC_MONITORING"
	EnvPublicDir         = "MWU_PUBLIC_DIR"
)

type ConfigManager struct {
	config     atomic.Value
	configPath string
	mu         sync.Mutex
	callbacks  []func(*Config)
	overrides  []func(*Config)
}

// NewConfigManager 加载配置；文件缺失或无法读取时使用默认值，不会失败
func NewConfigManager(configPath string) *ConfigManager {
	cm := &ConfigManager{
		configPath: configPath,
	}
	cm.config.Store(cm.load())
	return cm
}

// load 读取文件并应用环境变量与覆盖项
func (cm *ConfigManager) load() *Config {
	cfg, err := Load(cm.configPath)
	if err != nil {
		log.Printf("[Config] Warning: %v, 使用默认配置", err)
	}
	applyEnv(cfg)
	for _, fn := range cm.overrides {
		fn(cfg)
	}
	return cfg
}

// Load 从文件读取配置。
// 文件缺失或解析失败时返回默认配置和 ErrConfigMissing；
// 个别键类型错误时记录警告并保留该键的默认值。
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, apperrors.New(apperrors.ErrConfigMissing, "cannot read "+path, err)
	}

	settings, err := ParseSettings(data, path)
	if err != nil {
		return cfg, apperrors.New(apperrors.ErrConfigMissing, "cannot parse "+path, err)
	}

	applySettings(cfg, settings)
	log.Printf("[Config] 已加载 %s (maintenance = %v, host = %s, port = %d)",
		path, cfg.Maintenance, cfg.Host, cfg.Port)
	return cfg, nil
}

// applySettings 逐键读取，类型错误的键视同缺失
func applySettings(cfg *Config, s *Settings) {
	readBool(s, "maintenance", &cfg.Maintenance)
	readString(s, "host", &cfg.Host)
	readInt(s, "port", &cfg.Port)
	readString(s, "publicDir", &cfg.PublicDir)
	readInt(s, "maxConnections", &cfg.MaxConnections)
	readInt(s, "maxTrackedKeys", &cfg.MaxTrackedKeys)

	if s.Has("trafficMonitoring") {
		var enabled bool
		if readBool(s, "trafficMonitoring", &enabled) {
			cfg.TrafficMonitoring = BoolPtr(enabled)
		}
	}

	if comp, ok := section(s, "compression"); ok {
		if gz, ok := section(comp, "gzip"); ok {
			readBool(gz, "enabled", &cfg.Compression.Gzip.Enabled)
			readInt(gz, "level", &cfg.Compression.Gzip.Level)
		}
		if br, ok := section(comp, "brotli"); ok {
			readBool(br, "enabled", &cfg.Compression.Brotli.Enabled)
			readInt(br, "level", &cfg.Compression.Brotli.Level)
		}
	}

	if rl, ok := section(s, "statsRateLimit"); ok {
		readFloat(rl, "rps", &cfg.StatsRateLimit.RPS)
		readInt(rl, "burst", &cfg.StatsRateLimit.Burst)
	}
}

func warnMalformed(err error) {
	if errors.Is(err, apperrors.ErrMalformed) {
		log.Printf("[Config] Warning: %v, 使用默认值", err)
	}
}

func readBool(s *Settings, key string, dst *bool) bool {
	if !s.Has(key) {
		return false
	}
	v, err := s.Bool(key)
	if err != nil {
		warnMalformed(err)
		return false
	}
	*dst = v
	return true
}

func readString(s *Settings, key string, dst *string) {
	if !s.Has(key) {
		return
	}
	v, err := s.String(key)
	if err != nil {
		warnMalformed(err)
		return
	}
	*dst = v
}

func readInt(s *Settings, key string, dst *int) {
	if !s.Has(key) {
		return
	}
	v, err := s.Int(key)
	if err != nil {
		warnMalformed(err)
		return
	}
	*dst = v
}

func readFloat(s *Settings, key string, dst *float64) {
	if !s.Has(key) {
		return
	}
	v, err := s.Float(key)
	if err != nil {
		warnMalformed(err)
		return
	}
	*dst = v
}

func section(s *Settings, key string) (*Settings, bool) {
	if !s.Has(key) {
		return nil, false
	}
	sec, err := s.Section(key)
	if err != nil {
		warnMalformed(err)
		return nil, false
	}
	return sec, true
}

// applyEnv 环境变量优先于配置文件
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvMaintenance); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Maintenance = b
		} else {
			log.Printf("[Config] Warning: 无效的 %s=%q", EnvMaintenance, v)
		}
	}
	if v, ok := os.LookupEnv(EnvTrafficMonitoring); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.TrafficMonitoring = BoolPtr(b)
		} else {
			log.Printf("[Config] Warning: 无效的 %s=%q", EnvTrafficMonitoring, v)
		}
	}
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.Port = p
		} else {
			log.Printf("[Config] Warning: 无效的 %s=%q", EnvPort, v)
		}
	}
	if v := os.Getenv(EnvPublicDir); v != "" {
		cfg.PublicDir = v
	}
}

// GetConfig 获取当前配置，每个请求调用一次，无锁
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config.Load().(*Config)
}

// AddOverride 注册一个在每次加载后执行的修改（例如命令行参数），并立即应用到当前配置
func (cm *ConfigManager) AddOverride(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.overrides = append(cm.overrides, fn)
	cfg := cm.GetConfig().Clone()
	fn(cfg)
	cm.config.Store(cfg)
}

// UpdateConfig 替换内存中的配置并触发回调，不写回文件
func (cm *ConfigManager) UpdateConfig(newConfig *Config) {
	cm.mu.Lock()
	cm.config.Store(newConfig)
	callbacks := append([]func(*Config){}, cm.callbacks...)
	cm.mu.Unlock()

	for _, callback := range callbacks {
		callback(newConfig)
	}
	log.Printf("[Config] 配置已更新 (maintenance = %v, trafficMonitoring = %v)",
		newConfig.Maintenance, newConfig.TrafficMonitoringEnabled())
}

// ReloadConfig 重新读取配置文件
func (cm *ConfigManager) ReloadConfig() {
	cm.mu.Lock()
	cfg := cm.load()
	cm.mu.Unlock()

	cm.UpdateConfig(cfg)
}

// RegisterUpdateCallback 注册配置更新回调函数
func (cm *ConfigManager) RegisterUpdateCallback(callback func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, callback)
}

// Path 配置文件路径
func (cm *ConfigManager) Path() string {
	return cm.configPath
}
