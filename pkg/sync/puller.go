package sync

import (
	"context"
	"fmt"
	"log"
	apperrors "mwu-go/internal/errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Puller 把远程前缀下的对象拉取到本地内容根目录，只下载本地缺失或更旧的文件
type Puller struct {
	storage   CloudStorage
	prefix    string
	localPath string
}

// NewPuller 创建拉取器
func NewPuller(storage CloudStorage, prefix, localPath string) *Puller {
	return &Puller{
		storage:   storage,
		prefix:    strings.Trim(prefix, "/"),
		localPath: localPath,
	}
}

// Pull 执行一次拉取；单个文件失败不会中断，列举失败时返回错误
func (p *Puller) Pull(ctx context.Context) (PullResult, error) {
	var result PullResult

	log.Printf("[Sync] Pulling s3 prefix %q into %s", p.prefix, p.localPath)

	remoteFiles, err := p.storage.ListObjects(ctx, p.prefix)
	if err != nil {
		return result, apperrors.New(apperrors.ErrSyncFailed, "failed to list remote files", err)
	}

	for _, remote := range remoteFiles {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		// 跳过目录标记
		if remote.RelativePath == "" || strings.HasSuffix(remote.RelativePath, "/") {
			continue
		}

		rel := filepath.FromSlash(remote.RelativePath)
		if !filepath.IsLocal(rel) {
			log.Printf("[Sync] Rejected object outside content root: %s", remote.Key)
			result.Rejected++
			continue
		}
		localPath := filepath.Join(p.localPath, rel)

		if !shouldDownload(localPath, remote) {
			result.Skipped++
			continue
		}

		if err := p.downloadFile(ctx, localPath, remote); err != nil {
			log.Printf("[Sync] Failed to download %s: %v", remote.Key, err)
			result.Failed++
			continue
		}
		result.Downloaded++
	}

	log.Printf("[Sync] Pull completed: downloaded %d, skipped %d, failed %d, rejected %d",
		result.Downloaded, result.Skipped, result.Failed, result.Rejected)
	return result, nil
}

// shouldDownload 本地不存在，或远程修改时间更新（秒级精度）
func shouldDownload(localPath string, remote FileInfo) bool {
	info, err := os.Stat(localPath)
	if err != nil {
		return true
	}
	if info.IsDir() {
		return false
	}

	localTime := info.ModTime().UTC().Truncate(time.Second)
	remoteTime := remote.ModTime.UTC().Truncate(time.Second)
	return remoteTime.After(localTime)
}

// downloadFile 先写临时文件再重命名，避免请求读到写了一半的文件
func (p *Puller) downloadFile(ctx context.Context, localPath string, remote FileInfo) error {
	data, err := p.storage.Download(ctx, remote.Key)
	if err != nil {
		return fmt.Errorf("failed to download from remote: %w", err)
	}

	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sync-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write local file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write local file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, localPath); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	// 与远程修改时间对齐，下次拉取时不会重复下载
	if !remote.ModTime.IsZero() {
		if err := os.Chtimes(localPath, remote.ModTime, remote.ModTime); err != nil {
			log.Printf("[Sync] Failed to set mtime on %s: %v", localPath, err)
		}
	}

	log.Printf("[Sync] Downloaded: %s (%d bytes)", remote.RelativePath, len(data))
	return nil
}
