package parser

import (
	"context"

	"github.com/cloudwego/eino/components/embedding"
)

// EmbeddingCache 向量缓存接口。实现方（如Redis缓存）自行处理后端故障，
// 未命中和缓存故障对调用方不可区分，都按未命中处理。
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, text string) ([]float64, bool)
	SetEmbedding(ctx context.Context, text string, vector []float64)
}

// CachedEmbedder 在底层向量化后端外包一层缓存。
// 相同文本重复向量化时直接命中缓存，节省后端调用；
// 缓存写入失败不影响向量化结果。
type CachedEmbedder struct {
	inner embedding.Embedder
	cache EmbeddingCache
}

// NewCachedEmbedder 创建带缓存的向量化后端
func NewCachedEmbedder(inner embedding.Embedder, cache EmbeddingCache) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache}
}

// EmbedStrings 实现 embedding.Embedder 接口。
// 先查缓存，仅对未命中的文本调用底层后端，结果回填缓存。
func (c *CachedEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))

	missTexts := make([]string, 0, len(texts))
	missIdx := make([]int, 0, len(texts))
	for i, text := range texts {
		if vec, ok := c.cache.GetEmbedding(ctx, text); ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.inner.EmbedStrings(ctx, missTexts, opts...)
	if err != nil {
		return nil, err
	}

	for j, vec := range vectors {
		out[missIdx[j]] = vec
		c.cache.SetEmbedding(ctx, missTexts[j], vec)
	}

	return out, nil
}
