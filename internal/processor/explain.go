package processor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"cv-screening-go/internal/types"
)

// explainStopwords 解释生成时忽略的查询词。
// 这些词在招聘查询里几乎总会出现，命中它们不构成有效的匹配理由。
var explainStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "who": true,
	"has": true, "have": true, "need": true, "want": true, "looking": true,
	"candidate": true, "someone": true, "person": true, "experience": true,
	"years": true, "year": true, "engineer": true, "developer": true,
}

// BuildExplanation 基于查询词与候选人资料的重叠生成确定性匹配说明。
// 纯本地启发式，不做第二次模型调用：相同输入必然产生相同文本，
// 可审计性优先于文采。
func BuildExplanation(query string, record *types.CandidateRecord) string {
	lowerQuery := strings.ToLower(query)

	// 候选人技能中出现在查询里的部分
	matchedSkills := make([]string, 0, 4)
	for _, skill := range record.Skills {
		if containsTerm(lowerQuery, skill) {
			matchedSkills = append(matchedSkills, skill)
		}
	}

	// 查询词元中出现在经历或教育文本里的部分（跳过已按技能命中的）
	profileText := strings.ToLower(record.ExperienceSummary + "\n" + record.Education)
	skillSet := make(map[string]bool, len(matchedSkills))
	for _, s := range matchedSkills {
		skillSet[s] = true
	}

	matchedTerms := make([]string, 0, 4)
	seen := make(map[string]bool)
	for _, term := range queryTerms(lowerQuery) {
		if seen[term] || skillSet[term] || explainStopwords[term] {
			continue
		}
		if containsTerm(profileText, term) {
			matchedTerms = append(matchedTerms, term)
			seen[term] = true
		}
	}

	parts := make([]string, 0, 2)
	if len(matchedSkills) > 0 {
		parts = append(parts, "matches required skills: "+strings.Join(matchedSkills, ", "))
	}
	if len(matchedTerms) > 0 {
		parts = append(parts, "profile mentions: "+strings.Join(matchedTerms, ", "))
	}
	if len(parts) == 0 {
		return "Ranked by overall profile similarity to the query."
	}
	return "Candidate " + strings.Join(parts, "; ") + "."
}

// queryTerms 切分查询为小写词元，过短的词元丢弃
func queryTerms(lowerQuery string) []string {
	fields := strings.FieldsFunc(lowerQuery, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

// containsTerm 边界感知的词项查找，词项两侧不能紧邻字母或数字
func containsTerm(lowerText, term string) bool {
	from := 0
	for {
		idx := strings.Index(lowerText[from:], term)
		if idx < 0 {
			return false
		}
		idx += from
		if termBoundary(lowerText, idx-1) && termBoundary(lowerText, idx+len(term)) {
			return true
		}
		from = idx + 1
	}
}

func termBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
