package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cv-screening-go/internal/types"
)

func TestBuildExplanationSkillMatch(t *testing.T) {
	record := &types.CandidateRecord{
		Skills:            []string{"python", "docker", "aws"},
		ExperienceSummary: "Cloud infrastructure work.",
	}

	explanation := BuildExplanation("Python developer with Docker experience", record)
	assert.Contains(t, explanation, "python")
	assert.Contains(t, explanation, "docker")
	assert.NotContains(t, explanation, "aws", "查询未提到的技能不应出现在解释里")
}

func TestBuildExplanationProfileMention(t *testing.T) {
	record := &types.CandidateRecord{
		Skills:            []string{"java"},
		ExperienceSummary: "Led payments platform migration to microservices.",
	}

	explanation := BuildExplanation("payments specialist", record)
	assert.Contains(t, explanation, "payments", "经历文本命中的查询词应被引用")
}

func TestBuildExplanationFallback(t *testing.T) {
	record := &types.CandidateRecord{
		Skills:            []string{"photoshop"},
		ExperienceSummary: "Graphic design portfolio.",
	}

	explanation := BuildExplanation("quantum physicist", record)
	assert.NotEmpty(t, explanation, "无重叠时也要给出非空的兜底解释")
	assert.NotContains(t, explanation, "photoshop")
}

func TestBuildExplanationDeterministic(t *testing.T) {
	record := &types.CandidateRecord{
		Skills:            []string{"go", "redis"},
		ExperienceSummary: "Backend caching layers with Redis.",
	}

	first := BuildExplanation("go engineer with redis knowledge", record)
	second := BuildExplanation("go engineer with redis knowledge", record)
	assert.Equal(t, first, second, "相同输入必须产生相同解释")
}

func TestBuildExplanationWordBoundary(t *testing.T) {
	record := &types.CandidateRecord{
		Skills: []string{"go"},
	}

	explanation := BuildExplanation("searching on google for candidates", record)
	assert.NotContains(t, explanation, "matches required skills",
		"技能词不应命中更长单词的子串")
}
