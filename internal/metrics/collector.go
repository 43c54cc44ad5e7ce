package metrics

import (
	"log"
	"math"
	"mwu-go/internal/constants"
	"mwu-go/internal/models"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Options 监控器参数，零值使用 constants 中的默认值
type Options struct {
	WindowSize     int
	MaxTrackedKeys int
	Logger         *log.Logger
}

// TrafficMonitor 进程内流量统计，所有方法可被任意多个 goroutine 并发调用
type TrafficMonitor struct {
	startTime time.Time
	logger    *log.Logger

	totalRequests      atomic.Int64
	totalBytesSent     atomic.Int64
	activeConnections  atomic.Int64
	peakConnections    atomic.Int64
	unmatchedResponses atomic.Int64

	byPath      *keyedCounter
	byIP        *keyedCounter
	byMethod    *keyedCounter
	byUserAgent *keyedCounter
	byStatus    sync.Map // int -> *atomic.Int64

	// 延迟相关字段共用一把锁，快照时不会读到一半
	latency struct {
		sync.Mutex
		window *latencyWindow
		hist   *hdrhistogram.Histogram
		sum    int64
		count  int64
		min    int64
		max    int64
	}
}

func NewTrafficMonitor(opts Options) *TrafficMonitor {
	if opts.WindowSize <= 0 {
		opts.WindowSize = constants.LatencyWindowSize
	}
	if opts.MaxTrackedKeys < 0 {
		opts.MaxTrackedKeys = 0
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	m := &TrafficMonitor{
		startTime:   time.Now(),
		logger:      opts.Logger,
		byPath:      newKeyedCounter(opts.MaxTrackedKeys, constants.OverflowKey),
		byIP:        newKeyedCounter(opts.MaxTrackedKeys, constants.OverflowKey),
		byMethod:    newKeyedCounter(opts.MaxTrackedKeys, constants.OverflowKey),
		byUserAgent: newKeyedCounter(opts.MaxTrackedKeys, constants.OverflowKey),
	}
	m.latency.window = newLatencyWindow(opts.WindowSize)
	m.latency.hist = hdrhistogram.New(1, constants.HistogramMaxLatency, constants.HistogramSigFigs)
	m.latency.min = math.MaxInt64
	return m
}

// RecordRequest 请求到达时调用
func (m *TrafficMonitor) RecordRequest(ev models.RequestEvent) {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	now := ts.UnixNano()

	m.totalRequests.Add(1)
	m.byPath.Add(ev.Path, now)
	m.byIP.Add(ev.ClientAddress, now)
	m.byMethod.Add(ev.Method, now)
	m.byUserAgent.Add(ev.UserAgent, now)

	active := m.activeConnections.Add(1)
	m.raisePeak(active)

	m.logger.Printf("[Traffic] Request: %s %s from %s (%d active connections)",
		ev.Method, ev.Path, ev.ClientAddress, active)
}

// raisePeak CAS 循环更新峰值，避免并发下先读后写丢失更新
func (m *TrafficMonitor) raisePeak(active int64) {
	for {
		peak := m.peakConnections.Load()
		if active <= peak {
			return
		}
		if m.peakConnections.CompareAndSwap(peak, active) {
			return
		}
	}
}

// RecordResponse 响应发送前调用，与 RecordRequest 一一对应
func (m *TrafficMonitor) RecordResponse(ev models.ResponseEvent) {
	m.statusCounter(ev.StatusCode).Add(1)

	if ev.BytesSent > 0 {
		m.totalBytesSent.Add(ev.BytesSent)
	}

	latency := ev.LatencyMillis
	if latency < 0 {
		latency = 0
	}

	m.latency.Lock()
	m.latency.window.push(latency)
	recorded := latency
	if recorded > m.latency.hist.HighestTrackableValue() {
		recorded = m.latency.hist.HighestTrackableValue()
	}
	if err := m.latency.hist.RecordValue(recorded); err != nil {
		m.logger.Printf("[Traffic] 记录延迟直方图失败: %v", err)
	}
	m.latency.sum += latency
	m.latency.count++
	if latency < m.latency.min {
		m.latency.min = latency
	}
	if latency > m.latency.max {
		m.latency.max = latency
	}
	m.latency.Unlock()

	m.releaseConnection()
}

// releaseConnection 活跃连接数减一，不会低于零；
// 没有对应请求的响应计入 unmatchedResponses
func (m *TrafficMonitor) releaseConnection() {
	for {
		cur := m.activeConnections.Load()
		if cur <= 0 {
			m.unmatchedResponses.Add(1)
			return
		}
		if m.activeConnections.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

func (m *TrafficMonitor) statusCounter(code int) *atomic.Int64 {
	if v, ok := m.byStatus.Load(code); ok {
		return v.(*atomic.Int64)
	}
	v, _ := m.byStatus.LoadOrStore(code, &atomic.Int64{})
	return v.(*atomic.Int64)
}

// GetStats 生成一份新的快照
func (m *TrafficMonitor) GetStats() models.TrafficStats {
	stats := models.TrafficStats{
		StartTime:          m.startTime,
		Uptime:             time.Since(m.startTime),
		TotalRequests:      m.totalRequests.Load(),
		TotalBytesSent:     m.totalBytesSent.Load(),
		ActiveConnections:  m.activeConnections.Load(),
		PeakConnections:    m.peakConnections.Load(),
		UnmatchedResponses: m.unmatchedResponses.Load(),
		UniqueIPs:          m.byIP.Len(),
		TopPaths:           m.byPath.Top(constants.TopPathsLimit),
		TopUserAgents:      m.byUserAgent.Top(constants.TopAgentsLimit),
		RequestsByMethod:   m.byMethod.Snapshot(),
	}

	// 窗口的读取、排序和分位数计算在同一临界区内完成
	m.latency.Lock()
	sorted := m.latency.window.sorted()
	stats.LatencySamples = len(sorted)
	stats.MedianLatency = median(sorted)
	stats.P95Latency = percentile(sorted, 95)
	stats.TotalResponses = m.latency.count
	if m.latency.count > 0 {
		stats.AvgLatency = float64(m.latency.sum) / float64(m.latency.count)
		stats.MinLatency = m.latency.min
		stats.MaxLatency = m.latency.max
		stats.LifetimeP50 = m.latency.hist.ValueAtQuantile(50)
		stats.LifetimeP99 = m.latency.hist.ValueAtQuantile(99)
	}
	m.latency.Unlock()

	stats.RequestsByStatusCode = make(map[int]int64)
	m.byStatus.Range(func(key, value interface{}) bool {
		stats.RequestsByStatusCode[key.(int)] = value.(*atomic.Int64).Load()
		return true
	})

	return stats
}

// StatusCodes 按状态码升序返回，便于页面展示
func StatusCodes(stats models.TrafficStats) []int {
	codes := make([]int, 0, len(stats.RequestsByStatusCode))
	for code := range stats.RequestsByStatusCode {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// CheckDataConsistency 校验静止状态下的不变量
func (m *TrafficMonitor) CheckDataConsistency() error {
	total := m.totalRequests.Load()
	if sum := m.byPath.Sum(); sum != total {
		return &ConsistencyError{Field: "requests_by_path", Got: sum, Want: total}
	}
	if sum := m.byMethod.Sum(); sum != total {
		return &ConsistencyError{Field: "requests_by_method", Got: sum, Want: total}
	}
	if active := m.activeConnections.Load(); active < 0 {
		return &ConsistencyError{Field: "active_connections", Got: active, Want: 0}
	}
	if peak, active := m.peakConnections.Load(), m.activeConnections.Load(); peak < active {
		return &ConsistencyError{Field: "peak_connections", Got: peak, Want: active}
	}
	return nil
}
