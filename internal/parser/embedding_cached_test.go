package parser

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-screening-go/internal/config"
)

// memoryCache 进程内缓存，测试用
type memoryCache struct {
	entries map[string][]float64
	hits    int
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]float64)}
}

func (m *memoryCache) GetEmbedding(ctx context.Context, text string) ([]float64, bool) {
	vec, ok := m.entries[text]
	if ok {
		m.hits++
	}
	return vec, ok
}

func (m *memoryCache) SetEmbedding(ctx context.Context, text string, vector []float64) {
	m.sets++
	m.entries[text] = vector
}

// countingEmbedder 记录底层后端被调用的文本数
type countingEmbedder struct {
	inner embedding.Embedder
	calls int
}

func (c *countingEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	c.calls += len(texts)
	return c.inner.EmbedStrings(ctx, texts, opts...)
}

func TestCachedEmbedderSkipsBackendOnHit(t *testing.T) {
	counting := &countingEmbedder{inner: NewLocalEmbedder(32)}
	cache := newMemoryCache()
	embedder := NewCachedEmbedder(counting, cache)

	ctx := context.Background()

	v1, err := embedder.EmbedStrings(ctx, []string{"python engineer"})
	require.NoError(t, err)
	assert.Equal(t, 1, counting.calls)
	assert.Equal(t, 1, cache.sets)

	v2, err := embedder.EmbedStrings(ctx, []string{"python engineer"})
	require.NoError(t, err)
	assert.Equal(t, 1, counting.calls, "缓存命中时不应再调用后端")
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, v1, v2)
}

func TestCachedEmbedderPartialHit(t *testing.T) {
	counting := &countingEmbedder{inner: NewLocalEmbedder(32)}
	cache := newMemoryCache()
	embedder := NewCachedEmbedder(counting, cache)

	ctx := context.Background()

	_, err := embedder.EmbedStrings(ctx, []string{"cached text"})
	require.NoError(t, err)

	vecs, err := embedder.EmbedStrings(ctx, []string{"cached text", "fresh text"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, 2, counting.calls, "只有未命中的文本才应提交给后端")
	for _, v := range vecs {
		assert.Len(t, v, 32)
	}
}

func TestGetEmbedderSingleton(t *testing.T) {
	ResetEmbedder()
	t.Cleanup(ResetEmbedder)

	cfg := config.DefaultConfig()
	cfg.Embedding.Provider = "local"

	e1, err := GetEmbedder(cfg)
	require.NoError(t, err)
	e2, err := GetEmbedder(cfg)
	require.NoError(t, err)

	assert.Same(t, e1, e2, "两次获取应返回同一个实例")
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Embedding.Provider = "does-not-exist"

	_, err := NewEmbedder(cfg)
	assert.Error(t, err)
}
