package parser

import (
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/embedding"

	"cv-screening-go/internal/config"
)

var (
	embedderInstance embedding.Embedder
	embedderOnce     sync.Once
	embedderMutex    sync.Mutex
)

// GetEmbedder 获取进程级共享的向量化后端单例。
// 生命周期：进程启动后首次调用时创建，此后只读复用，进程退出时随之销毁。
// 文档和查询必须经过同一个实例向量化，否则向量空间不一致。
func GetEmbedder(cfg *config.Config, options ...EmbedderOption) (embedding.Embedder, error) {
	if embedderInstance != nil {
		return embedderInstance, nil
	}

	embedderMutex.Lock()
	defer embedderMutex.Unlock()

	if embedderInstance != nil {
		return embedderInstance, nil
	}

	var err error
	embedderOnce.Do(func() {
		embedderInstance, err = NewEmbedder(cfg, options...)
	})

	return embedderInstance, err
}

// ResetEmbedder 重置向量化后端单例（主要用于测试）
func ResetEmbedder() {
	embedderMutex.Lock()
	defer embedderMutex.Unlock()
	embedderInstance = nil
	embedderOnce = sync.Once{}
}

// EmbedderOption 向量化后端的创建选项
type EmbedderOption func(*embedderOptions)

type embedderOptions struct {
	cache EmbeddingCache
}

// WithEmbeddingCache 启用向量缓存（如Redis），相同文本不重复调用后端
func WithEmbeddingCache(cache EmbeddingCache) EmbedderOption {
	return func(o *embedderOptions) {
		o.cache = cache
	}
}

// NewEmbedder 按配置创建向量化后端，不走单例。
// provider为"aliyun"时使用DashScope HTTP后端，"local"或留空时使用本地确定性后端。
func NewEmbedder(cfg *config.Config, options ...EmbedderOption) (embedding.Embedder, error) {
	opts := &embedderOptions{}
	for _, option := range options {
		option(opts)
	}

	var embedder embedding.Embedder
	switch cfg.Embedding.Provider {
	case "aliyun":
		aliyun, err := NewAliyunEmbedder(cfg.Embedding)
		if err != nil {
			return nil, fmt.Errorf("创建阿里云向量化后端失败: %w", err)
		}
		embedder = aliyun
	case "local", "":
		embedder = NewLocalEmbedder(cfg.Embedding.Dimensions)
	default:
		return nil, fmt.Errorf("未知的向量化后端类型: %s", cfg.Embedding.Provider)
	}

	if opts.cache != nil {
		embedder = NewCachedEmbedder(embedder, opts.cache)
	}

	return embedder, nil
}
