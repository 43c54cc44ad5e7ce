package metrics

import (
	"mwu-go/internal/models"
	"sort"
	"sync"
	"sync/atomic"
)

type counterEntry struct {
	count    atomic.Int64
	lastSeen atomic.Int64 // UnixNano
}

// keyedCounter 按键计数，每个键一个原子计数器。
// maxKeys > 0 时超出上限会淘汰最久未出现的键，其计数并入 overflow，
// 因此所有键的计数之和始终等于 Add 的调用次数。
type keyedCounter struct {
	mu          sync.RWMutex
	entries     map[string]*counterEntry
	maxKeys     int
	overflowKey string
	overflow    atomic.Int64
}

func newKeyedCounter(maxKeys int, overflowKey string) *keyedCounter {
	return &keyedCounter{
		entries:     make(map[string]*counterEntry),
		maxKeys:     maxKeys,
		overflowKey: overflowKey,
	}
}

func (c *keyedCounter) Add(key string, now int64) {
	// 读锁下累加，淘汰持有写锁，二者互斥，不会丢计数
	c.mu.RLock()
	if e, ok := c.entries[key]; ok {
		e.count.Add(1)
		e.lastSeen.Store(now)
		c.mu.RUnlock()
		return
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		if c.maxKeys > 0 && len(c.entries) >= c.maxKeys {
			c.evictLocked()
		}
		e = &counterEntry{}
		c.entries[key] = e
	}
	e.count.Add(1)
	e.lastSeen.Store(now)
}

// evictLocked 淘汰最久未出现的 1/8 键
func (c *keyedCounter) evictLocked() {
	type aged struct {
		key  string
		seen int64
	}
	items := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		items = append(items, aged{key: k, seen: e.lastSeen.Load()})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].seen < items[j].seen
	})

	n := len(items)/8 + 1
	if n > len(items) {
		n = len(items)
	}
	for _, it := range items[:n] {
		c.overflow.Add(c.entries[it.key].count.Load())
		delete(c.entries, it.key)
	}
}

// Len 当前跟踪的键数（不含 overflow）
func (c *keyedCounter) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot 复制所有计数，overflow 非零时以 overflowKey 出现
func (c *keyedCounter) Snapshot() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]int64, len(c.entries)+1)
	for k, e := range c.entries {
		result[k] = e.count.Load()
	}
	if other := c.overflow.Load(); other > 0 {
		result[c.overflowKey] += other
	}
	return result
}

// Top 按计数降序取前 n 个，计数相同按键升序
func (c *keyedCounter) Top(n int) []models.KeyCount {
	snapshot := c.Snapshot()
	list := make([]models.KeyCount, 0, len(snapshot))
	for k, v := range snapshot {
		list = append(list, models.KeyCount{Key: k, Count: v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].Key < list[j].Key
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}

// Sum 所有计数之和
func (c *keyedCounter) Sum() int64 {
	var total int64
	for _, v := range c.Snapshot() {
		total += v
	}
	return total
}
