package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"cv-screening-go/internal/config"
	"cv-screening-go/internal/logger"
	"cv-screening-go/internal/tracing"
	"cv-screening-go/internal/types"
)

// CandidateExtractor 把原始简历文档解析为结构化候选人记录。
// 解析流程分三步：按扩展名分发到格式解码、文本归一化、逐字段启发式提取。
// Extract对可读但格式混乱的输入永不报错，字段级失败以空值降级。
type CandidateExtractor struct {
	cfg config.ExtractorConfig
	pdf *PDFTextExtractor

	// 教育+经历标题全集，用于章节边界判断
	allHeaders []string

	tracerName string
}

// Option 提取器配置选项
type Option func(*CandidateExtractor)

// WithPDFExtractor 注入自定义PDF提取器（测试时可替换）
func WithPDFExtractor(p *PDFTextExtractor) Option {
	return func(x *CandidateExtractor) {
		x.pdf = p
	}
}

// New 创建候选人提取器。PDF解析器初始化失败时返回错误，
// 因为那属于进程启动问题而非单份文档的解析降级。
func New(ctx context.Context, cfg config.ExtractorConfig, options ...Option) (*CandidateExtractor, error) {
	x := &CandidateExtractor{
		cfg:        cfg,
		tracerName: "cv-screening/extractor",
	}
	x.allHeaders = append(x.allHeaders, cfg.EducationHeaders...)
	x.allHeaders = append(x.allHeaders, cfg.ExperienceHeaders...)

	for _, option := range options {
		option(x)
	}

	if x.pdf == nil {
		p, err := NewPDFTextExtractor(ctx)
		if err != nil {
			return nil, err
		}
		x.pdf = p
	}

	return x, nil
}

// Extract 从文档字节和声明的文件名生成候选人记录。
// 永不返回错误：源文件损坏时返回可抢救的部分文本（可能为空），
// 姓名回退为基于文件名的占位符，下游按空字段容忍处理。
func (x *CandidateExtractor) Extract(ctx context.Context, data []byte, filename string) *types.CandidateRecord {
	tracer := otel.Tracer(x.tracerName)
	ctx, span := tracer.Start(ctx, "extractor.Extract")
	defer span.End()

	span.SetAttributes(
		attribute.String("document.filename", filename),
		attribute.Int("document.size_bytes", len(data)),
	)

	rawText := x.decodeByFormat(ctx, data, filename)
	text := NormalizeText(rawText)

	record := &types.CandidateRecord{
		SourceFilename:    filename,
		Name:              ExtractName(text, x.allHeaders, x.cfg.NameMaxLength),
		Email:             ExtractEmail(text),
		Phone:             ExtractPhone(text),
		Skills:            ScanSkills(text, x.cfg.SkillVocabulary),
		Education:         ExtractSection(text, x.cfg.EducationHeaders, x.allHeaders),
		ExperienceSummary: ExtractSection(text, x.cfg.ExperienceHeaders, x.allHeaders),
		RawText:           text,
	}

	if record.Name == "" {
		record.Name = NameFromFilename(filename)
	}

	span.SetAttributes(
		attribute.Int("candidate.skill_count", len(record.Skills)),
		attribute.Int("candidate.text_length", len(text)),
	)

	logger.Ctx(ctx).Debug().
		Str("filename", filename).
		Str("candidate", tracing.MaskPII(record.Name)).
		Int("skills", len(record.Skills)).
		Int("text_length", len(text)).
		Msg("简历解析完成")

	return record
}

// decodeByFormat 按扩展名把文档字节解码为原始文本。
// 格式校验在调用方完成；这里对未知扩展名按纯文本兜底，
// 解码失败记录日志后返回空串，交由字段提取层降级。
func (x *CandidateExtractor) decodeByFormat(ctx context.Context, data []byte, filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err := x.pdf.ExtractText(ctx, data, filename)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("filename", filename).Msg("PDF解码失败，按空文档降级")
			return ""
		}
		return text
	case ".docx":
		text, err := DecodeDocx(data)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("filename", filename).Msg("docx解码失败，按空文档降级")
			return ""
		}
		return text
	default:
		return DecodePlainText(data)
	}
}
