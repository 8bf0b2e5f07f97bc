package storage

import (
	"context"
	"fmt"

	"cv-screening-go/internal/config"
	"cv-screening-go/internal/logger"
)

// Storage 存储管理器，聚合所有存储相关依赖。
// 关系数据库是硬依赖；Qdrant和Redis按配置启用，
// 初始化失败时降级运行（线性扫描检索、无向量缓存）而不是拒绝启动。
type Storage struct {
	// 关系型数据库，候选人档案与向量的持久化存储
	Database *Database

	// 向量数据库，未配置或不可用时检索走数据库线性扫描
	Qdrant *Qdrant

	// 键值存储，向量化结果缓存
	Redis *Redis
}

// NewStorage 创建存储管理器
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	storage := &Storage{}

	db, err := NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}
	storage.Database = db

	if cfg.Qdrant.Endpoint != "" {
		storage.Qdrant, err = NewQdrant(&cfg.Qdrant)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化Qdrant失败，检索将使用数据库线性扫描")
			storage.Qdrant = nil
		}
	}

	if cfg.Redis.Address != "" {
		storage.Redis, err = NewRedis(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化Redis失败，向量缓存不可用")
			storage.Redis = nil
		}
	}

	return storage, nil
}

// EmbeddingCache 返回向量缓存，Redis未启用时返回nil
func (s *Storage) EmbeddingCache(cfg *config.Config) *EmbeddingCache {
	if s.Redis == nil {
		return nil
	}
	return NewEmbeddingCache(s.Redis, cfg.Embedding.Model, cfg.Redis.EmbeddingCacheExpireDays)
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.Database != nil {
		if err := s.Database.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭数据库连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
	// Qdrant走REST接口，无需显式关闭
}
