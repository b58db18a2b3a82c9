package service

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func cacheCount(result string) float64 {
	return testutil.ToFloat64(SlimCacheTotal.WithLabelValues(result))
}

func TestSlimCacheTotal_HitMiss(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	hits, misses := cacheCount("hit"), cacheCount("miss")

	_, err := s.CreateSlims(ctx, "GO", []string{cellPeriphery})
	require.NoError(t, err)
	assert.Equal(t, misses+1, cacheCount("miss"))
	assert.Equal(t, hits, cacheCount("hit"))

	_, err = s.CreateSlims(ctx, "GO", []string{cellPeriphery})
	require.NoError(t, err)
	assert.Equal(t, misses+1, cacheCount("miss"))
	assert.Equal(t, hits+1, cacheCount("hit"))
}

func TestSlimCacheTotal_Concurrent(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	before := cacheCount("hit") + cacheCount("miss") + cacheCount("shared")

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateSlims(ctx, "GO", []string{cellPart, cellPeriphery})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// every caller is served by a hit, a shared flight or its own miss
	after := cacheCount("hit") + cacheCount("miss") + cacheCount("shared")
	assert.GreaterOrEqual(t, after-before, float64(n))
	assert.GreaterOrEqual(t, cacheCount("miss"), float64(1))
}

func TestQueryDuration_Observed(t *testing.T) {
	s := newService(t)

	_, err := s.InferredRelations(context.Background(), plasmaMembrane)
	require.NoError(t, err)
	_, err = s.Descendants(context.Background(), cell)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, testutil.CollectAndCount(QueryDuration, "ontoslim_query_duration_seconds"), 2)
}

func TestCreateSlims_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	s := newService(t, WithTracerProvider(tp))
	ctx := context.Background()

	_, err := s.CreateSlims(ctx, "GO", []string{membrane})
	require.NoError(t, err)
	_, err = s.CreateSlims(ctx, "GO", []string{membrane})
	require.NoError(t, err)
	_, err = s.Ancestors(ctx, "NOT_A_REAL_ID")
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	first, second := spans[0], spans[1]
	assert.Equal(t, "Service.CreateSlims", first.Name())
	assert.Contains(t, first.Attributes(), attribute.String("namespace", "GO"))
	assert.Contains(t, first.Attributes(), attribute.Int("mapped", 2))
	assert.Empty(t, first.Events())

	require.Len(t, second.Events(), 1)
	assert.Equal(t, "cache_hit", second.Events()[0].Name)

	unknown := spans[2]
	assert.Equal(t, "Service.Ancestors", unknown.Name())
	require.Len(t, unknown.Events(), 1)
	assert.Equal(t, "unknown_namespace", unknown.Events()[0].Name)
}
