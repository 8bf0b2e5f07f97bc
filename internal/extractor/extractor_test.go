package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-screening-go/internal/config"
)

func newTestExtractor(t *testing.T) *CandidateExtractor {
	t.Helper()
	x, err := New(context.Background(), config.DefaultConfig().Extractor)
	require.NoError(t, err, "创建提取器不应失败")
	return x
}

func TestExtractPlainTextResume(t *testing.T) {
	resume := `Li Na
lina@example.com
+86 139 1234 5678

Experience
Data engineer at DataWorks, building Spark and Kafka pipelines.
Maintained Airflow schedules for nightly batch jobs.

Education
MSc Data Science, Zhejiang University
`

	x := newTestExtractor(t)
	record := x.Extract(context.Background(), []byte(resume), "li_na.txt")

	assert.Equal(t, "li_na.txt", record.SourceFilename)
	assert.Equal(t, "Li Na", record.Name)
	assert.Equal(t, "lina@example.com", record.Email)
	assert.Equal(t, "+86 139 1234 5678", record.Phone)
	assert.Contains(t, record.Skills, "spark")
	assert.Contains(t, record.Skills, "kafka")
	assert.Contains(t, record.Education, "MSc Data Science")
	assert.Contains(t, record.ExperienceSummary, "Data engineer at DataWorks")
	assert.NotEmpty(t, record.RawText)
}

func TestExtractResilienceOnSparseDocument(t *testing.T) {
	// 没有邮箱、电话、任何章节标题的文档
	sparse := "Wang Fang\n一些没有结构的自由文本，描述了一段职业旅程。"

	x := newTestExtractor(t)
	record := x.Extract(context.Background(), []byte(sparse), "wang_fang.txt")

	assert.Equal(t, "Wang Fang", record.Name, "姓名仍应从首行提取")
	assert.Empty(t, record.Email)
	assert.Empty(t, record.Phone)
	assert.Empty(t, record.Education)
	assert.Empty(t, record.ExperienceSummary)
	assert.NotEmpty(t, record.RawText, "原始文本必须保留")
}

func TestExtractCorruptDocumentDegrades(t *testing.T) {
	// 损坏的docx（非zip字节）不应报错，降级为空记录加文件名占位姓名
	x := newTestExtractor(t)
	record := x.Extract(context.Background(), []byte{0x01, 0x02, 0xFF}, "broken_resume.docx")

	assert.Equal(t, "broken_resume.docx", record.SourceFilename)
	assert.Equal(t, "broken resume", record.Name, "姓名应回退为基于文件名的占位符")
	assert.Empty(t, record.Email)
	assert.Empty(t, record.Skills)
}

func TestExtractDocxResume(t *testing.T) {
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Chen Jie</w:t></w:r></w:p>
    <w:p><w:r><w:t>chen.jie@example.com</w:t></w:r></w:p>
    <w:p><w:r><w:t>Experience</w:t></w:r></w:p>
    <w:p><w:r><w:t>Backend services in Go with Redis and Docker.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	x := newTestExtractor(t)
	record := x.Extract(context.Background(), buildDocx(t, docXML), "chen_jie.docx")

	assert.Equal(t, "Chen Jie", record.Name)
	assert.Equal(t, "chen.jie@example.com", record.Email)
	assert.Contains(t, record.Skills, "go")
	assert.Contains(t, record.Skills, "redis")
	assert.Contains(t, record.Skills, "docker")
	assert.Contains(t, record.ExperienceSummary, "Backend services")
}

func TestExtractEmptyInput(t *testing.T) {
	x := newTestExtractor(t)
	record := x.Extract(context.Background(), nil, "empty.txt")

	assert.Equal(t, "empty", record.Name)
	assert.Empty(t, record.RawText)
	assert.Empty(t, record.Skills)
}
