package sync

import (
	"context"
	"log"
	"sync"
	"time"
)

// Service 启动时拉取一次，之后按间隔定期拉取
type Service struct {
	puller   *Puller
	interval time.Duration

	mutex  sync.RWMutex
	status SyncStatus

	wg sync.WaitGroup
}

// NewService 创建同步服务
func NewService(puller *Puller, interval time.Duration) *Service {
	return &Service{
		puller:   puller,
		interval: interval,
	}
}

// NewS3Service 根据环境变量创建基于 S3 的同步服务
func NewS3Service(ctx context.Context, localPath string) (*Service, error) {
	cfg, err := NewConfigFromEnv()
	if err != nil {
		return nil, err
	}

	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log.Printf("[Sync] S3 sync configured (bucket: %s, prefix: %q, interval: %v)", cfg.Bucket, cfg.Prefix, cfg.Interval)
	return NewService(NewPuller(client, cfg.Prefix, localPath), cfg.Interval), nil
}

// SyncNow 立即拉取一次
func (s *Service) SyncNow(ctx context.Context) error {
	s.mutex.Lock()
	s.status.IsRunning = true
	s.mutex.Unlock()

	result, err := s.puller.Pull(ctx)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.status.IsRunning = false
	s.status.LastSync = time.Now()
	s.status.LastResult = result
	if err != nil {
		s.status.LastError = err.Error()
	} else {
		s.status.LastError = ""
	}
	return err
}

// Start 首次拉取同步完成后返回；interval > 0 时在后台定期拉取，直到 ctx 结束
func (s *Service) Start(ctx context.Context) error {
	err := s.SyncNow(ctx)
	if err != nil {
		log.Printf("[Sync] Initial pull failed: %v", err)
	}

	if s.interval <= 0 {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.SyncNow(ctx); err != nil && ctx.Err() == nil {
					log.Printf("[Sync] Periodic pull failed: %v", err)
				}
			}
		}
	}()

	return err
}

// Wait 等待后台任务退出
func (s *Service) Wait() {
	s.wg.Wait()
}

// GetSyncStatus 获取同步状态
func (s *Service) GetSyncStatus() SyncStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.status
}
