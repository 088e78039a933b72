package telemetry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestLatencyToBucket(t *testing.T) {
	tests := []struct {
		latency time.Duration
		want    LatencyBucket
	}{
		{0, BucketUnder100us},
		{99 * time.Microsecond, BucketUnder100us},
		{100 * time.Microsecond, BucketUnder1ms},
		{999 * time.Microsecond, BucketUnder1ms},
		{time.Millisecond, BucketUnder10ms},
		{10 * time.Millisecond, BucketSlow},
		{time.Second, BucketSlow},
	}

	for _, tt := range tests {
		t.Run(tt.latency.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, LatencyToBucket(tt.latency))
		})
	}
}

func TestCircularBuffer_EvictsOldest(t *testing.T) {
	// Given: a buffer of capacity 3
	b := NewCircularBuffer[string](3)

	// When: adding four items
	for _, s := range []string{"a", "b", "c", "d"} {
		b.Add(s)
	}

	// Then: the oldest is gone and order is preserved
	assert.Equal(t, 3, b.Size())
	assert.Equal(t, []string{"b", "c", "d"}, b.Items())
}

func TestCircularBuffer_PartialAndEmpty(t *testing.T) {
	b := NewCircularBuffer[int](0)
	assert.Empty(t, b.Items())

	b.Add(1)
	b.Add(2)
	assert.Equal(t, []int{1, 2}, b.Items())
}

func TestMetrics_Record(t *testing.T) {
	// Given: a fresh collector
	m := New()

	// When: recording hits, a miss, and a repeat differing only in case
	m.Record(SearchEvent{Query: "smith", Source: SourceSocket, ResultCount: 2, Latency: 50 * time.Microsecond})
	m.Record(SearchEvent{Query: "Smith", Source: SourceMCP, ResultCount: 2, Latency: 2 * time.Millisecond})
	m.Record(SearchEvent{Query: "nobody", Source: SourceSocket, ResultCount: 0})

	// Then: the snapshot reflects all three
	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalSearches)
	assert.Equal(t, int64(1), snap.ZeroResultCount)
	assert.Equal(t, int64(1), snap.RepeatCount)
	assert.Equal(t, []string{"nobody"}, snap.RecentMisses)
	assert.Equal(t, map[Source]int64{SourceSocket: 2, SourceMCP: 1}, snap.SourceCounts)
	assert.Equal(t, int64(2), snap.LatencyDistribution[BucketUnder100us])
	assert.Equal(t, int64(1), snap.LatencyDistribution[BucketUnder10ms])
	require.Len(t, snap.TopTokens, 2)
	assert.Equal(t, TokenCount{Token: "smith", Count: 2}, snap.TopTokens[0])
	assert.InDelta(t, 33.3, snap.ZeroResultPercentage(), 0.1)
}

func TestMetrics_EmptyQueryNotCountedAsToken(t *testing.T) {
	m := New()

	m.Record(SearchEvent{Query: "", Source: SourceSocket})

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.TotalSearches)
	assert.Empty(t, snap.TopTokens)
	assert.Equal(t, int64(1), snap.ZeroResultCount)
}

func TestMetrics_TopTokensOrdering(t *testing.T) {
	m := New()
	for _, q := range []string{"b", "a", "c", "c", "a", "c"} {
		m.Record(SearchEvent{Query: q, ResultCount: 1})
	}

	snap := m.Snapshot()
	assert.Equal(t, []TokenCount{
		{Token: "c", Count: 3},
		{Token: "a", Count: 2},
		{Token: "b", Count: 1},
	}, snap.TopTokens)
}

func TestMetrics_TopTokensBounded(t *testing.T) {
	// Given: room for two tokens
	m := NewWithConfig(Config{TopTokensCapacity: 2})

	// When: searching three distinct tokens
	m.Record(SearchEvent{Query: "old", ResultCount: 1})
	m.Record(SearchEvent{Query: "mid", ResultCount: 1})
	m.Record(SearchEvent{Query: "new", ResultCount: 1})

	// Then: the least recently searched token is dropped
	snap := m.Snapshot()
	require.Len(t, snap.TopTokens, 2)
	for _, tc := range snap.TopTokens {
		assert.NotEqual(t, "old", tc.Token)
	}
}

func TestMetrics_EmptySnapshot(t *testing.T) {
	snap := New().Snapshot()

	assert.Zero(t, snap.TotalSearches)
	assert.Zero(t, snap.ZeroResultPercentage())
	assert.NotNil(t, snap.TopTokens)
	assert.NotNil(t, snap.RecentMisses)
	assert.False(t, snap.Since.IsZero())
}

func TestMetrics_ConcurrentRecord(t *testing.T) {
	m := New()

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for i := 0; i < 100; i++ {
				m.Record(SearchEvent{Query: fmt.Sprintf("t%d", i%10), ResultCount: i % 2})
				_ = m.Snapshot()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	snap := m.Snapshot()
	assert.Equal(t, int64(800), snap.TotalSearches)
	assert.Equal(t, int64(400), snap.ZeroResultCount)
	assert.Len(t, snap.TopTokens, 10)
}
