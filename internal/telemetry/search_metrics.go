// Package telemetry records search usage for the running directory: which
// tokens are looked up, how often lookups miss, and how long they take.
// Everything is kept in memory and discarded with the process.
package telemetry

import (
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Source names the transport a search arrived on.
type Source string

const (
	SourceSocket Source = "socket"
	SourceMCP    Source = "mcp"
)

// LatencyBucket represents a latency histogram bucket.
type LatencyBucket string

const (
	BucketUnder100us LatencyBucket = "lt_100us"
	BucketUnder1ms   LatencyBucket = "lt_1ms"
	BucketUnder10ms  LatencyBucket = "lt_10ms"
	BucketSlow       LatencyBucket = "ge_10ms"
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < 100*time.Microsecond:
		return BucketUnder100us
	case d < time.Millisecond:
		return BucketUnder1ms
	case d < 10*time.Millisecond:
		return BucketUnder10ms
	default:
		return BucketSlow
	}
}

// SearchEvent is one search as seen by a transport.
type SearchEvent struct {
	Query       string
	Source      Source
	ResultCount int
	Latency     time.Duration
}

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	items    []T
	head     int
	size     int
	capacity int
	mu       sync.RWMutex
}

// NewCircularBuffer creates a new circular buffer with the given capacity.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add adds an item to the buffer. If full, the oldest item is evicted.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Items returns all items in the buffer, oldest first.
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]T, b.size)
	if b.size < b.capacity {
		copy(result, b.items[:b.size])
	} else {
		copy(result, b.items[b.head:])
		copy(result[b.capacity-b.head:], b.items[:b.head])
	}
	return result
}

// Size returns the current number of items in the buffer.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// TokenCount is a searched token and how often it was searched.
type TokenCount struct {
	Token string `json:"token"`
	Count int64  `json:"count"`
}

// Snapshot is an immutable copy of the collected metrics.
type Snapshot struct {
	TotalSearches       int64                   `json:"total_searches"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	RepeatCount         int64                   `json:"repeat_count"`
	TopTokens           []TokenCount            `json:"top_tokens"`
	RecentMisses        []string                `json:"recent_misses"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	SourceCounts        map[Source]int64        `json:"source_counts"`
	Since               time.Time               `json:"since"`
}

// ZeroResultPercentage returns the percentage of searches that found nothing.
func (s *Snapshot) ZeroResultPercentage() float64 {
	if s.TotalSearches == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalSearches) * 100
}

// Config configures a Metrics collector.
type Config struct {
	TopTokensCapacity     int // distinct tokens counted (default: 100)
	RecentMissesCapacity  int // zero-result queries kept (default: 50)
	RecentQueriesCapacity int // queries remembered for repeat detection (default: 500)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TopTokensCapacity:     100,
		RecentMissesCapacity:  50,
		RecentQueriesCapacity: 500,
	}
}

// Metrics collects search telemetry. Safe for concurrent use.
// Token counts live in an LRU, so tokens that stop being searched age out
// once the capacity is reached.
type Metrics struct {
	mu sync.Mutex

	topTokens     *lru.Cache[string, int64]
	recentQueries *lru.Cache[string, struct{}]
	recentMisses  *CircularBuffer[string]
	latencies     map[LatencyBucket]int64
	sources       map[Source]int64
	total         int64
	zeroResults   int64
	repeats       int64
	since         time.Time
}

// New creates a collector with the default configuration.
func New() *Metrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a collector. Non-positive capacities use defaults.
func NewWithConfig(cfg Config) *Metrics {
	def := DefaultConfig()
	if cfg.TopTokensCapacity <= 0 {
		cfg.TopTokensCapacity = def.TopTokensCapacity
	}
	if cfg.RecentMissesCapacity <= 0 {
		cfg.RecentMissesCapacity = def.RecentMissesCapacity
	}
	if cfg.RecentQueriesCapacity <= 0 {
		cfg.RecentQueriesCapacity = def.RecentQueriesCapacity
	}

	// lru.New only fails for a non-positive size.
	topTokens, _ := lru.New[string, int64](cfg.TopTokensCapacity)
	recentQueries, _ := lru.New[string, struct{}](cfg.RecentQueriesCapacity)

	return &Metrics{
		topTokens:     topTokens,
		recentQueries: recentQueries,
		recentMisses:  NewCircularBuffer[string](cfg.RecentMissesCapacity),
		latencies:     make(map[LatencyBucket]int64),
		sources:       make(map[Source]int64),
		since:         time.Now(),
	}
}

// Record captures one search. The query is folded the same way lookups
// fold it, so "Smith" and "smith" count as the same token.
func (m *Metrics) Record(event SearchEvent) {
	token := strings.ToLower(event.Query)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.sources[event.Source]++
	m.latencies[LatencyToBucket(event.Latency)]++

	if token != "" {
		count, _ := m.topTokens.Get(token)
		m.topTokens.Add(token, count+1)
	}

	if event.ResultCount == 0 {
		m.zeroResults++
		m.recentMisses.Add(event.Query)
	}

	if _, seen := m.recentQueries.Get(token); seen {
		m.repeats++
	}
	m.recentQueries.Add(token, struct{}{})
}

// Snapshot returns the current metrics. Top tokens are ordered by count,
// then alphabetically.
func (m *Metrics) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	top := make([]TokenCount, 0, m.topTokens.Len())
	for _, token := range m.topTokens.Keys() {
		if count, ok := m.topTokens.Peek(token); ok {
			top = append(top, TokenCount{Token: token, Count: count})
		}
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Token < top[j].Token
	})

	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}
	sources := make(map[Source]int64, len(m.sources))
	for k, v := range m.sources {
		sources[k] = v
	}

	return &Snapshot{
		TotalSearches:       m.total,
		ZeroResultCount:     m.zeroResults,
		RepeatCount:         m.repeats,
		TopTokens:           top,
		RecentMisses:        m.recentMisses.Items(),
		LatencyDistribution: latencies,
		SourceCounts:        sources,
		Since:               m.since,
	}
}
