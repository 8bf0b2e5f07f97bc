package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"

	"cv-screening-go/internal/logger"
)

// pdfParseTimeout 单个PDF的解析超时，避免损坏文件导致调用方无限等待
const pdfParseTimeout = 30 * time.Second

// PDFTextExtractor 使用 Eino PDF Parser 提取文本
type PDFTextExtractor struct {
	parser *pdf.PDFParser
}

// NewPDFTextExtractor 初始化PDF文本提取器。
// 不按页面分割，整份文档作为单个连续字符串返回。
func NewPDFTextExtractor(ctx context.Context) (*PDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("创建PDF解析器失败: %w", err)
	}
	return &PDFTextExtractor{parser: p}, nil
}

// ExtractText 从PDF字节流中提取完整纯文本
func (e *PDFTextExtractor) ExtractText(ctx context.Context, data []byte, uri string) (string, error) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, pdfParseTimeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI(uri),
	)
	if err != nil {
		return "", fmt.Errorf("PDF解析失败 (URI: %s): %w", uri, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("PDF解析无结果 (URI: %s)", uri)
	}

	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.Content)
	}
	text := strings.Join(contents, "\n\n")

	logger.Debug().
		Str("uri", uri).
		Int("chars", len(text)).
		Dur("duration", time.Since(startTime)).
		Msg("PDF文本提取完成")

	return text, nil
}
