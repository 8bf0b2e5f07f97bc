package processor

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"cv-screening-go/internal/logger"
	"cv-screening-go/internal/storage"
	"cv-screening-go/internal/storage/models"
	"cv-screening-go/internal/types"
)

var engineTracer = otel.Tracer("cv-screening/processor/engine")

// ScreeningEngine 候选人检索引擎。
// 持久化集合以source_filename为键，向量与档案同步落库后Add才返回；
// 配置了Qdrant时相似度检索走向量数据库，否则对关系库中的向量做线性扫描。
// 线性扫描对本领域典型语料规模（数百到数千候选人）足够快，
// 语料增长到需要近似索引时应启用Qdrant后端而不是优化扫描。
//
// 写操作（Add、Clear）互斥串行，读操作（Search、GetAll）可彼此并发，
// 读写之间由读写锁隔离，Add返回后发起的Search必然看到新记录。
type ScreeningEngine struct {
	mu             sync.RWMutex
	db             *storage.Database
	qdrant         *storage.Qdrant
	embedder       embedding.Embedder
	embeddingModel string
}

var _ Engine = (*ScreeningEngine)(nil)

// EngineOption 检索引擎配置选项
type EngineOption func(*ScreeningEngine)

// WithQdrant 启用Qdrant向量检索后端
func WithQdrant(q *storage.Qdrant) EngineOption {
	return func(e *ScreeningEngine) {
		e.qdrant = q
	}
}

// WithEmbeddingModel 记录向量来源模型名，随候选人行持久化
func WithEmbeddingModel(model string) EngineOption {
	return func(e *ScreeningEngine) {
		e.embeddingModel = model
	}
}

// NewScreeningEngine 创建检索引擎
func NewScreeningEngine(db *storage.Database, embedder embedding.Embedder, opts ...EngineOption) (*ScreeningEngine, error) {
	if db == nil {
		return nil, fmt.Errorf("数据库不能为空")
	}
	if embedder == nil {
		return nil, fmt.Errorf("向量化后端不能为空")
	}

	e := &ScreeningEngine{
		db:       db,
		embedder: embedder,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Add 向量化并持久化候选人记录。
// 同名文件覆盖已有记录；数据库写入同步完成后才返回，
// 返回即落盘，之后进程崩溃也不丢失该记录。
func (e *ScreeningEngine) Add(ctx context.Context, record *types.CandidateRecord) error {
	ctx, span := engineTracer.Start(ctx, "ScreeningEngine.Add")
	defer span.End()

	if record == nil || record.SourceFilename == "" {
		return fmt.Errorf("候选人记录缺少source_filename")
	}
	span.SetAttributes(attribute.String("candidate.source_filename", record.SourceFilename))

	vectors, err := e.embedder.EmbedStrings(ctx, []string{record.EmbeddingInput()})
	if err != nil {
		return NewEmbeddingError(record.SourceFilename, err.Error())
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return NewEmbeddingError(record.SourceFilename, "后端返回了空向量")
	}
	vector := vectors[0]

	row, err := models.NewCandidateRow(record, vector, e.embeddingModel)
	if err != nil {
		return NewStoreError(record.SourceFilename, err.Error())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.db.UpsertCandidate(ctx, row); err != nil {
		return NewStoreError(record.SourceFilename, err.Error())
	}

	if e.qdrant != nil {
		payload := map[string]interface{}{
			"candidate_name": record.Name,
		}
		if _, err := e.qdrant.UpsertCandidatePoint(ctx, record.SourceFilename, vector, payload); err != nil {
			return NewStoreError(record.SourceFilename, err.Error())
		}
	}

	logger.Ctx(ctx).Info().
		Str("filename", record.SourceFilename).
		Int("vector_dim", len(vector)).
		Msg("候选人已入库")
	return nil
}

// Search 按自然语言查询检索候选人。
// 结果按归一化分数降序，同分按首次摄取顺序；topK收敛到[1, 语料规模]，
// 超过语料规模时返回全部候选人。空语料返回空列表而不是错误。
func (e *ScreeningEngine) Search(ctx context.Context, query string, topK int) ([]types.QueryResult, error) {
	ctx, span := engineTracer.Start(ctx, "ScreeningEngine.Search")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	span.SetAttributes(attribute.Int("search.top_k", topK))

	e.mu.RLock()
	defer e.mu.RUnlock()

	candidates, err := e.db.ListCandidates(ctx)
	if err != nil {
		return nil, NewStoreError("", err.Error())
	}
	if len(candidates) == 0 {
		return []types.QueryResult{}, nil
	}

	if topK < 1 {
		topK = 1
	}
	if topK > len(candidates) {
		topK = len(candidates)
	}

	// 查询必须经过与文档相同的向量化后端，否则向量空间不可比
	vectors, err := e.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, NewEmbeddingError("query", err.Error())
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, NewEmbeddingError("query", "后端返回了空向量")
	}
	queryVector := vectors[0]

	scored := e.scoreCandidates(ctx, candidates, queryVector)

	// 输入已按seq_id升序，稳定排序天然以摄取顺序打破平分
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}

	results := make([]types.QueryResult, 0, len(scored))
	for _, s := range scored {
		record, err := s.candidate.ToRecord()
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("filename", s.candidate.SourceFilename).Msg("候选人记录损坏，跳过")
			continue
		}
		results = append(results, types.QueryResult{
			CandidateName:  record.Name,
			Score:          s.score,
			Explanation:    BuildExplanation(query, record),
			Email:          record.Email,
			Phone:          record.Phone,
			Skills:         record.Skills,
			Education:      record.Education,
			Summary:        record.ExperienceSummary,
			SourceFilename: record.SourceFilename,
		})
	}

	span.SetAttributes(attribute.Int("search.results", len(results)))
	return results, nil
}

type scoredCandidate struct {
	candidate *models.Candidate
	score     float64
}

// scoreCandidates 为每个候选人计算归一化相似度分数。
// Qdrant可用时由它计算余弦分数，失败或未启用时回退到本地线性扫描。
func (e *ScreeningEngine) scoreCandidates(ctx context.Context, candidates []models.Candidate, queryVector []float64) []scoredCandidate {
	if e.qdrant != nil {
		hits, err := e.qdrant.SearchPoints(ctx, queryVector, len(candidates))
		if err == nil {
			return joinQdrantScores(candidates, hits)
		}
		logger.Ctx(ctx).Warn().Err(err).Msg("Qdrant检索失败，回退到数据库线性扫描")
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for i := range candidates {
		candidate := &candidates[i]
		vec, err := candidate.Vector()
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("filename", candidate.SourceFilename).Msg("候选人缺少可用向量，跳过")
			continue
		}
		if len(vec) != len(queryVector) {
			logger.Ctx(ctx).Warn().
				Str("filename", candidate.SourceFilename).
				Int("stored_dim", len(vec)).
				Int("query_dim", len(queryVector)).
				Msg("向量维度与当前模型不符，跳过（需重新摄取）")
			continue
		}
		scored = append(scored, scoredCandidate{
			candidate: candidate,
			score:     normalizeScore(cosineSimilarity(queryVector, vec)),
		})
	}
	return scored
}

// joinQdrantScores 把Qdrant命中分数按source_filename对齐到候选人列表，
// 保持候选人的摄取顺序以便稳定排序
func joinQdrantScores(candidates []models.Candidate, hits []storage.SearchResult) []scoredCandidate {
	scores := make(map[string]float64, len(hits))
	for _, hit := range hits {
		filename, _ := hit.Payload["source_filename"].(string)
		if filename != "" {
			scores[filename] = normalizeScore(float64(hit.Score))
		}
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for i := range candidates {
		candidate := &candidates[i]
		score, ok := scores[candidate.SourceFilename]
		if !ok {
			continue
		}
		scored = append(scored, scoredCandidate{candidate: candidate, score: score})
	}
	return scored
}

// GetAll 按首次摄取顺序返回全部候选人的展示字段，不评分
func (e *ScreeningEngine) GetAll(ctx context.Context) ([]types.CandidateSummary, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	candidates, err := e.db.ListCandidates(ctx)
	if err != nil {
		return nil, NewStoreError("", err.Error())
	}

	summaries := make([]types.CandidateSummary, 0, len(candidates))
	for i := range candidates {
		record, err := candidates[i].ToRecord()
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("filename", candidates[i].SourceFilename).Msg("候选人记录损坏，跳过")
			continue
		}
		summaries = append(summaries, types.CandidateSummary{
			SourceFilename: record.SourceFilename,
			Name:           record.Name,
			Email:          record.Email,
			Phone:          record.Phone,
			Skills:         record.Skills,
			Education:      record.Education,
			Summary:        record.ExperienceSummary,
		})
	}
	return summaries, nil
}

// Clear 清空语料库（档案和向量），之后的Search和GetAll返回空列表
func (e *ScreeningEngine) Clear(ctx context.Context) error {
	ctx, span := engineTracer.Start(ctx, "ScreeningEngine.Clear")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.db.DeleteAllCandidates(ctx); err != nil {
		return NewStoreError("", err.Error())
	}
	if e.qdrant != nil {
		if err := e.qdrant.DeleteAllPoints(ctx); err != nil {
			return NewStoreError("", err.Error())
		}
	}

	logger.Ctx(ctx).Info().Msg("候选人语料库已清空")
	return nil
}

// Count 返回语料库中的候选人数量
func (e *ScreeningEngine) Count(ctx context.Context) (int64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db.CountCandidates(ctx)
}

// cosineSimilarity 计算两个向量的余弦相似度，零向量按0处理
func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// normalizeScore 把余弦相似度[-1,1]重标定到[0,1]，便于按百分比展示
func normalizeScore(cos float64) float64 {
	score := (cos + 1) / 2
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
