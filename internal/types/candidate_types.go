package types

import "strings"

// SectionType 表示简历章节类型
type SectionType string

const (
	// SectionEducation 教育经历章节
	SectionEducation SectionType = "EDUCATION"
	// SectionExperience 工作经历章节
	SectionExperience SectionType = "EXPERIENCE"
	// SectionUnknown 未分类内容章节
	SectionUnknown SectionType = "UNKNOWN"
)

// CandidateRecord 一份简历经过解析后的结构化表示。
// SourceFilename 是候选人在索引中的唯一外部键；重复摄取同名文件视为覆盖。
type CandidateRecord struct {
	// 源文件名，作为记录的稳定标识
	SourceFilename string `json:"source_filename"`

	// 候选人姓名；提取失败时回退为基于文件名的占位符，绝不为空
	Name string `json:"name"`

	// 联系方式；未匹配到时为空字符串（不是null，保持展示层稳定）
	Email string `json:"email"`
	Phone string `json:"phone"`

	// 技能词表命中结果，小写、去重，按首次出现顺序排列
	Skills []string `json:"skills"`

	// 教育经历摘要（可为空）
	Education string `json:"education"`

	// 工作经历摘要，与技能一起构成向量化的主要输入
	ExperienceSummary string `json:"experience_summary"`

	// 归一化后的文档全文，保留以便重新向量化而无需重新解析原始文件
	RawText string `json:"raw_text"`
}

// EmbeddingInput 拼接用于向量化的代表性文本。
// 优先使用结构化摘要；当结构化字段全部为空时回退到全文，
// 保证空字段的降级记录依然可以被索引和检索。
func (r *CandidateRecord) EmbeddingInput() string {
	parts := make([]string, 0, 3)
	if r.ExperienceSummary != "" {
		parts = append(parts, r.ExperienceSummary)
	}
	if len(r.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(r.Skills, ", "))
	}
	if r.Education != "" {
		parts = append(parts, r.Education)
	}
	if len(parts) == 0 {
		return r.RawText
	}
	return strings.Join(parts, "\n")
}

// HasSkill 判断候选人技能集中是否包含指定技能（大小写不敏感）
func (r *CandidateRecord) HasSkill(skill string) bool {
	skill = strings.ToLower(skill)
	for _, s := range r.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// QueryResult 一条检索结果
type QueryResult struct {
	// 候选人姓名
	CandidateName string `json:"candidate_name"`

	// 归一化相似度分数，[0,1]，1.0为完全匹配
	Score float64 `json:"score"`

	// 基于查询词与候选人资料重叠生成的确定性匹配说明
	Explanation string `json:"explanation"`

	// 展示字段
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Skills    []string `json:"skills"`
	Education string   `json:"education"`
	Summary   string   `json:"summary"`

	// 来源文件名，展示层定位用
	SourceFilename string `json:"source_filename"`
}

// CandidateSummary GetAll返回的展示视图，无评分
type CandidateSummary struct {
	SourceFilename string   `json:"source_filename"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	Skills         []string `json:"skills"`
	Education      string   `json:"education"`
	Summary        string   `json:"summary"`
}
