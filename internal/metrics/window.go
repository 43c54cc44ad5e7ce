package metrics

import "slices"

// latencyWindow 固定容量的环形缓冲区，满了以后覆盖最旧的样本。
// 自身不加锁，由 TrafficMonitor 的 latency 锁保护。
type latencyWindow struct {
	samples []int64
	head    int // 最旧样本的位置
	size    int
}

func newLatencyWindow(capacity int) *latencyWindow {
	if capacity <= 0 {
		capacity = 1
	}
	return &latencyWindow{samples: make([]int64, capacity)}
}

func (w *latencyWindow) push(v int64) {
	if w.size < len(w.samples) {
		w.samples[(w.head+w.size)%len(w.samples)] = v
		w.size++
		return
	}
	w.samples[w.head] = v
	w.head = (w.head + 1) % len(w.samples)
}

func (w *latencyWindow) len() int {
	return w.size
}

// values 按时间顺序（旧到新）复制样本
func (w *latencyWindow) values() []int64 {
	out := make([]int64, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.samples[(w.head+i)%len(w.samples)]
	}
	return out
}

// sorted 返回排好序的副本
func (w *latencyWindow) sorted() []int64 {
	out := w.values()
	slices.Sort(out)
	return out
}

func median(sorted []int64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 0 {
		return float64(sorted[n/2-1]+sorted[n/2]) / 2
	}
	return float64(sorted[n/2])
}

// percentile 最近秩法：index = ceil(p/100 * n) - 1，用整数运算避免浮点误差
func percentile(sorted []int64, p int) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := (p*n+99)/100 - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return float64(sorted[idx])
}
