package handler

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"cv-screening-go/internal/config"
	"cv-screening-go/internal/logger"
	"cv-screening-go/internal/processor"
	"cv-screening-go/internal/tracing"
	"cv-screening-go/internal/types"
)

var handlerTracer = otel.Tracer("cv-screening/api/handler")

// DefaultSearchTopK 未指定top_k时的默认返回数量
const DefaultSearchTopK = 3

// ScreeningHandler 候选人筛选的HTTP业务处理器。
// 负责上传校验与读取、字段提取和检索引擎的编排，路由层只做参数解包。
type ScreeningHandler struct {
	cfg       *config.Config
	extractor processor.DocumentExtractor
	engine    processor.Engine
}

// NewScreeningHandler 创建筛选处理器
func NewScreeningHandler(cfg *config.Config, extractor processor.DocumentExtractor, engine processor.Engine) (*ScreeningHandler, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	if extractor == nil {
		return nil, fmt.Errorf("文档提取器不能为空")
	}
	if engine == nil {
		return nil, fmt.Errorf("检索引擎不能为空")
	}
	return &ScreeningHandler{
		cfg:       cfg,
		extractor: extractor,
		engine:    engine,
	}, nil
}

// UploadResponse 上传接口响应
type UploadResponse struct {
	SourceFilename string   `json:"source_filename"`
	CandidateName  string   `json:"candidate_name"`
	Email          string   `json:"email"`
	Skills         []string `json:"skills"`
	Status         string   `json:"status"`
	Message        string   `json:"message"`
}

// SearchResponse 检索接口响应
type SearchResponse struct {
	Query   string              `json:"query"`
	TopK    int                 `json:"top_k"`
	Total   int                 `json:"total"`
	Results []types.QueryResult `json:"results"`
}

// ListResponse 候选人列表接口响应
type ListResponse struct {
	Total      int                      `json:"total"`
	Candidates []types.CandidateSummary `json:"candidates"`
}

// HandleUpload 接收一份简历文件并摄取进语料库。
// 扩展名校验在读取和解析之前完成，不受支持的格式直接拒绝；
// 校验通过后的解析永不失败，字段缺失以降级记录入库。
func (h *ScreeningHandler) HandleUpload(ctx context.Context, reader io.Reader, fileSize int64, filename string) (*UploadResponse, error) {
	ctx, span := handlerTracer.Start(ctx, "ScreeningHandler.HandleUpload")
	defer span.End()
	span.SetAttributes(
		attribute.String("upload.filename", filename),
		attribute.Int64("upload.size_bytes", fileSize),
	)

	if filename == "" {
		return nil, fmt.Errorf("文件名不能为空")
	}
	if !config.IsSupportedFilename(filename) {
		err := processor.NewUnsupportedFormatError(filename)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	maxBytes := int64(h.cfg.Server.MaxUploadSizeMB) * 1024 * 1024
	if maxBytes > 0 && fileSize > maxBytes {
		err := fmt.Errorf("文件大小%d字节超过上限%dMB", fileSize, h.cfg.Server.MaxUploadSizeMB)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件失败: %w", err)
	}

	record := h.extractor.Extract(ctx, data, filename)
	if err := h.engine.Add(ctx, record); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Str("filename", filename).
		Str("candidate", tracing.MaskPII(record.Name)).
		Int("skills", len(record.Skills)).
		Msg("简历上传并摄取完成")

	return &UploadResponse{
		SourceFilename: record.SourceFilename,
		CandidateName:  record.Name,
		Email:          record.Email,
		Skills:         record.Skills,
		Status:         "indexed",
		Message:        "候选人已入库",
	}, nil
}

// HandleSearch 按自然语言查询检索候选人。
// topK小于等于0时使用默认值；上界收敛由引擎完成。
func (h *ScreeningHandler) HandleSearch(ctx context.Context, query string, topK int) (*SearchResponse, error) {
	ctx, span := handlerTracer.Start(ctx, "ScreeningHandler.HandleSearch")
	defer span.End()

	if topK <= 0 {
		topK = DefaultSearchTopK
	}
	span.SetAttributes(
		attribute.String("search.query", tracing.TruncateString(query, tracing.DefaultMaxLength)),
		attribute.Int("search.top_k", topK),
	)

	results, err := h.engine.Search(ctx, query, topK)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	return &SearchResponse{
		Query:   query,
		TopK:    topK,
		Total:   len(results),
		Results: results,
	}, nil
}

// HandleListCandidates 按摄取顺序返回全部候选人
func (h *ScreeningHandler) HandleListCandidates(ctx context.Context) (*ListResponse, error) {
	ctx, span := handlerTracer.Start(ctx, "ScreeningHandler.HandleListCandidates")
	defer span.End()

	candidates, err := h.engine.GetAll(ctx)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, err
	}

	return &ListResponse{
		Total:      len(candidates),
		Candidates: candidates,
	}, nil
}

// HandleClear 清空候选人语料库
func (h *ScreeningHandler) HandleClear(ctx context.Context) error {
	ctx, span := handlerTracer.Start(ctx, "ScreeningHandler.HandleClear")
	defer span.End()

	if err := h.engine.Clear(ctx); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return err
	}

	logger.Ctx(ctx).Info().Msg("候选人语料库已通过API清空")
	return nil
}
