package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"cv-screening-go/internal/config"
	"cv-screening-go/internal/logger"
)

// Redis 键值存储客户端，当前仅承担向量化结果缓存
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedis 创建Redis客户端连接
func NewRedis(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	client := redis.NewClient(opt)

	// 记录所有Redis操作的追踪span
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("为Redis注册OpenTelemetry钩子失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis失败 (%s): %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	return r.Client.Close()
}

// EmbeddingCache 向量化结果的Redis缓存。
// 键由模型名和文本MD5构成，同一文本在模型不变时不重复调用向量化后端。
// 缓存后端故障一律按未命中处理，绝不阻断向量化主流程。
type EmbeddingCache struct {
	redis  *Redis
	model  string
	expire time.Duration
}

// NewEmbeddingCache 创建向量缓存
func NewEmbeddingCache(r *Redis, model string, expireDays int) *EmbeddingCache {
	if expireDays <= 0 {
		expireDays = 30
	}
	return &EmbeddingCache{
		redis:  r,
		model:  model,
		expire: time.Duration(expireDays) * 24 * time.Hour,
	}
}

// cacheKey 生成缓存键，文本走MD5避免超长键
func (c *EmbeddingCache) cacheKey(text string) string {
	sum := md5.Sum([]byte(text))
	return fmt.Sprintf("embedding:%s:%s", c.model, hex.EncodeToString(sum[:]))
}

// GetEmbedding 查询缓存向量，未命中或故障时返回false
func (c *EmbeddingCache) GetEmbedding(ctx context.Context, text string) ([]float64, bool) {
	data, err := c.redis.Client.Get(ctx, c.cacheKey(text)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Ctx(ctx).Debug().Err(err).Msg("读取向量缓存失败，按未命中处理")
		return nil, false
	}

	var vector []float64
	if err := json.Unmarshal(data, &vector); err != nil {
		logger.Ctx(ctx).Debug().Err(err).Msg("解析缓存向量失败，按未命中处理")
		return nil, false
	}
	return vector, true
}

// SetEmbedding 写入缓存向量，失败仅记录日志
func (c *EmbeddingCache) SetEmbedding(ctx context.Context, text string, vector []float64) {
	data, err := json.Marshal(vector)
	if err != nil {
		logger.Ctx(ctx).Debug().Err(err).Msg("序列化缓存向量失败")
		return
	}
	if err := c.redis.Client.Set(ctx, c.cacheKey(text), data, c.expire).Err(); err != nil {
		logger.Ctx(ctx).Debug().Err(err).Msg("写入向量缓存失败")
	}
}
