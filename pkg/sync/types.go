package sync

import (
	"context"
	"time"
)

// CloudStorage 远程对象存储的只读视图
type CloudStorage interface {
	// ListObjects 列出 prefix 下的所有对象，RelativePath 相对于 prefix
	ListObjects(ctx context.Context, prefix string) ([]FileInfo, error)
	// Download 下载完整对象
	Download(ctx context.Context, key string) ([]byte, error)
}

// Config S3 同步配置
type Config struct {
	Endpoint        string
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	// 远程对象前缀，对应内容根目录
	Prefix string
	// 定期拉取间隔，0 表示只在启动时拉取一次
	Interval time.Duration
}

// FileInfo 文件信息
type FileInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ModTime      time.Time `json:"mod_time"`
	RelativePath string    `json:"relative_path"`
}

// PullResult 一次拉取的结果
type PullResult struct {
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Rejected   int `json:"rejected"`
}

// SyncStatus 同步状态
type SyncStatus struct {
	LastSync   time.Time  `json:"last_sync"`
	LastError  string     `json:"last_error,omitempty"`
	IsRunning  bool       `json:"is_running"`
	LastResult PullResult `json:"last_result"`
}
