package processor

import (
	"context"

	"cv-screening-go/internal/types"
)

// DocumentExtractor 文档到候选人记录的解析接口。
// 实现方对可读输入永不报错，字段级失败以空值降级。
type DocumentExtractor interface {
	Extract(ctx context.Context, data []byte, filename string) *types.CandidateRecord
}

// Engine 检索引擎接口，表示层只依赖这组操作
type Engine interface {
	// Add 向量化并持久化候选人记录，按source_filename覆盖写
	Add(ctx context.Context, record *types.CandidateRecord) error

	// Search 按自然语言查询检索候选人，结果按分数降序
	Search(ctx context.Context, query string, topK int) ([]types.QueryResult, error)

	// GetAll 按摄取顺序返回全部候选人的展示字段
	GetAll(ctx context.Context) ([]types.CandidateSummary, error)

	// Clear 清空候选人语料库
	Clear(ctx context.Context) error
}
