package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-screening-go/internal/config"
)

func TestNormalizeText(t *testing.T) {
	raw := "  Zhang Wei\t Senior  Engineer \r\n\r\n\r\n\r\nEducation:\r\n  BSc  Computer Science  "
	got := NormalizeText(raw)

	assert.Equal(t, "Zhang Wei Senior Engineer\n\nEducation:\nBSc Computer Science", got, "应压缩行内空白并保留行结构")
}

func TestNormalizeTextInvalidUTF8(t *testing.T) {
	raw := "hello\xff\xfeworld"
	got := NormalizeText(raw)
	assert.Equal(t, "helloworld", got, "非法UTF-8序列应被丢弃")
}

func TestExtractEmail(t *testing.T) {
	assert.Equal(t, "wei.zhang@example.com",
		ExtractEmail("联系方式: wei.zhang@example.com / 备用 backup@foo.org"),
		"应返回第一个邮箱匹配")
	assert.Empty(t, ExtractEmail("没有邮箱的文本"))
}

func TestExtractPhone(t *testing.T) {
	assert.Equal(t, "+86 138-0013-8000", ExtractPhone("电话 +86 138-0013-8000 欢迎联系"))
	assert.Equal(t, "(555) 123-4567", ExtractPhone("Call me at (555) 123-4567 anytime"))
	assert.Empty(t, ExtractPhone("2023-2024年在职"), "短数字串（年份区间）不应误判为电话")
}

func TestExtractName(t *testing.T) {
	headers := append(append([]string{}, config.DefaultEducationHeaders...), config.DefaultExperienceHeaders...)

	text := "Experience\nZhang Wei\nwei@example.com"
	assert.Equal(t, "Zhang Wei", ExtractName(text, headers, 64), "应跳过章节标题行和邮箱行")

	longLine := "这是一个非常长的段落完全不可能是一个人的姓名因为它描述了太多的内容和细节超出了任何合理的姓名长度上限"
	assert.Empty(t, ExtractName(longLine, headers, 10), "超长行不应被当作姓名")
}

func TestNameFromFilename(t *testing.T) {
	assert.Equal(t, "zhang wei resume", NameFromFilename("zhang_wei-resume.pdf"))
	assert.Equal(t, "Unknown Candidate", NameFromFilename(".txt"))
}

func TestScanSkills(t *testing.T) {
	vocab := []string{"go", "python", "c++", "machine learning", "docker"}

	text := "Proficient in Python and C++. Built machine learning pipelines, deployed with Docker."
	skills := ScanSkills(text, vocab)

	assert.Equal(t, []string{"python", "c++", "machine learning", "docker"}, skills,
		"命中结果应为小写且按文本中首次出现位置排序")
}

func TestScanSkillsWordBoundary(t *testing.T) {
	vocab := []string{"go", "java"}

	skills := ScanSkills("I searched on Google for JavaScript tutorials", vocab)
	assert.Empty(t, skills, "词项不应命中更长单词的子串")

	skills = ScanSkills("Services written in Go and Java.", vocab)
	assert.Equal(t, []string{"go", "java"}, skills)
}

func TestScanSkillsDeduplicates(t *testing.T) {
	vocab := []string{"python", "Python", "python"}
	skills := ScanSkills("python python python", vocab)
	assert.Equal(t, []string{"python"}, skills)
}

func TestExtractSection(t *testing.T) {
	text := `Zhang Wei
wei@example.com

Experience
Backend developer at Acme Corp
Led migration to microservices

Education
BSc Computer Science, Tsinghua University

Hobbies
Photography`

	eduHeaders := config.DefaultEducationHeaders
	expHeaders := config.DefaultExperienceHeaders
	all := append(append([]string{}, eduHeaders...), expHeaders...)

	exp := ExtractSection(text, expHeaders, all)
	require.NotEmpty(t, exp)
	assert.Contains(t, exp, "Backend developer at Acme Corp")
	assert.Contains(t, exp, "Led migration to microservices")
	assert.NotContains(t, exp, "BSc Computer Science", "经历章节应在教育标题处截断")

	edu := ExtractSection(text, eduHeaders, all)
	assert.Contains(t, edu, "BSc Computer Science, Tsinghua University")
	assert.Contains(t, edu, "Photography", "未识别的后续标题不构成章节边界")
}

func TestExtractSectionMissing(t *testing.T) {
	all := append(append([]string{}, config.DefaultEducationHeaders...), config.DefaultExperienceHeaders...)
	assert.Empty(t, ExtractSection("没有任何章节标题的纯文本", config.DefaultEducationHeaders, all))
}
