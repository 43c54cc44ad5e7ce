package config

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnvFile 加载 .env，文件不存在不算错误
func LoadEnvFile(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("[Config] 未加载 %s: %v", path, err)
		return
	}
	log.Printf("[Config] 已加载环境变量文件 %s", path)
}

func Init(configPath string) *ConfigManager {
	log.Printf("[Config] 初始化配置管理器...")
	configManager := NewConfigManager(configPath)
	log.Printf("[Config] 配置管理器初始化成功")
	return configManager
}
