package security

import (
	"log"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig 每个客户端的令牌桶参数
type RateLimitConfig struct {
	// 每秒补充的令牌数，<= 0 表示不限流
	RPS float64
	// 桶容量
	Burst int
	// 超过该时长未出现的客户端会被清理
	IdleTTL time.Duration
	// 清理间隔，<= 0 时不启动清理任务
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig 默认配置
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RPS:             5,
		Burst:           10,
		IdleTTL:         15 * time.Minute,
		CleanupInterval: 2 * time.Minute,
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter 按客户端 IP 的令牌桶限流器
type ClientLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	stopCleanup chan struct{}
	cleanupWG   sync.WaitGroup
	stopOnce    sync.Once
}

// NewClientLimiter 创建限流器并启动清理任务，调用方负责 Stop
func NewClientLimiter(cfg RateLimitConfig) *ClientLimiter {
	defaults := DefaultRateLimitConfig()
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaults.IdleTTL
	}

	l := &ClientLimiter{
		entries:     make(map[string]*limiterEntry),
		idleTTL:     cfg.IdleTTL,
		stopCleanup: make(chan struct{}),
	}
	l.limit, l.burst = toLimit(cfg.RPS, cfg.Burst)

	if cfg.CleanupInterval > 0 {
		l.startCleanupTask(cfg.CleanupInterval)
	}

	log.Printf("[Security] 限流器已启动 - %.2f 次/秒, 突发 %d", cfg.RPS, cfg.Burst)
	return l
}

func toLimit(rps float64, burst int) (rate.Limit, int) {
	if rps <= 0 {
		return rate.Inf, 0
	}
	if burst <= 0 {
		burst = int(math.Ceil(rps))
	}
	return rate.Limit(rps), burst
}

// Allow 消耗一个令牌；被拒绝时返回下一个令牌可用前的等待时间
func (l *ClientLimiter) Allow(clientIP string) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	ent, ok := l.entries[clientIP]
	if !ok {
		ent = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[clientIP] = ent
	}
	ent.lastSeen = now
	lim := ent.limiter
	l.mu.Unlock()

	if lim.AllowN(now, 1) {
		return true, 0
	}

	// 预约一个令牌只为得到等待时长，随即取消
	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	return false, wait
}

// SetLimit 调整所有客户端的速率，配置热更新时调用
func (l *ClientLimiter) SetLimit(rps float64, burst int) {
	limit, b := toLimit(rps, burst)

	l.mu.Lock()
	defer l.mu.Unlock()

	if limit == l.limit && b == l.burst {
		return
	}
	l.limit, l.burst = limit, b
	now := time.Now()
	for _, ent := range l.entries {
		ent.limiter.SetLimitAt(now, limit)
		ent.limiter.SetBurstAt(now, b)
	}
	log.Printf("[Security] 限流参数已更新 - %.2f 次/秒, 突发 %d", rps, b)
}

// Len 当前跟踪的客户端数量
func (l *ClientLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Cleanup 移除空闲客户端
func (l *ClientLimiter) Cleanup() {
	cutoff := time.Now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for ip, ent := range l.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(l.entries, ip)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[Security] 清理了 %d 个空闲客户端", removed)
	}
}

func (l *ClientLimiter) startCleanupTask(interval time.Duration) {
	l.cleanupWG.Add(1)
	go func() {
		defer l.cleanupWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-l.stopCleanup:
				return
			}
		}
	}()
}

// Stop 停止清理任务，可重复调用
func (l *ClientLimiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCleanup)
		l.cleanupWG.Wait()
		log.Printf("[Security] 限流器已停止")
	})
}
