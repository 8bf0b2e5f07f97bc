package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"cv-screening-go/internal/types"
)

// Candidate 候选人档案表。
// seq_id 自增主键记录首次摄取顺序，检索评分持平时按它保证确定性排序；
// source_filename 唯一索引承担业务主键，重复摄取同名文件走upsert覆盖，
// 此时 seq_id 保持不变，候选人在排序中的插入位置不因重新摄取而改变。
type Candidate struct {
	SeqID          uint   `gorm:"column:seq_id;primaryKey;autoIncrement"`
	SourceFilename string `gorm:"column:source_filename;type:varchar(512);uniqueIndex;not null"`

	Name  string `gorm:"column:name;type:varchar(255)"`
	Email string `gorm:"column:email;type:varchar(255)"`
	Phone string `gorm:"column:phone;type:varchar(64)"`

	// 技能词表命中结果，JSON字符串数组
	SkillsJSON datatypes.JSON `gorm:"column:skills_json"`

	Education         string `gorm:"column:education;type:text"`
	ExperienceSummary string `gorm:"column:experience_summary;type:text"`

	// 归一化全文，保留以便重新向量化而无需重新解析源文件
	RawText string `gorm:"column:raw_text;type:text"`

	// 向量及其来源模型，JSON浮点数组；模型或维度变更时据此识别过期向量
	Embedding      datatypes.JSON `gorm:"column:embedding"`
	EmbeddingModel string         `gorm:"column:embedding_model;type:varchar(128)"`
	EmbeddingDim   int            `gorm:"column:embedding_dim"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName 指定表名
func (Candidate) TableName() string {
	return "candidates"
}

// NewCandidateRow 由结构化记录和向量构建数据库行
func NewCandidateRow(record *types.CandidateRecord, vector []float64, embeddingModel string) (*Candidate, error) {
	skillsJSON, err := json.Marshal(record.Skills)
	if err != nil {
		return nil, fmt.Errorf("序列化技能列表失败: %w", err)
	}
	embeddingJSON, err := json.Marshal(vector)
	if err != nil {
		return nil, fmt.Errorf("序列化向量失败: %w", err)
	}

	return &Candidate{
		SourceFilename:    record.SourceFilename,
		Name:              record.Name,
		Email:             record.Email,
		Phone:             record.Phone,
		SkillsJSON:        skillsJSON,
		Education:         record.Education,
		ExperienceSummary: record.ExperienceSummary,
		RawText:           record.RawText,
		Embedding:         embeddingJSON,
		EmbeddingModel:    embeddingModel,
		EmbeddingDim:      len(vector),
	}, nil
}

// ToRecord 还原为结构化候选人记录
func (c *Candidate) ToRecord() (*types.CandidateRecord, error) {
	skills := []string{}
	if len(c.SkillsJSON) > 0 {
		if err := json.Unmarshal(c.SkillsJSON, &skills); err != nil {
			return nil, fmt.Errorf("解析技能列表失败 (candidate: %s): %w", c.SourceFilename, err)
		}
	}

	return &types.CandidateRecord{
		SourceFilename:    c.SourceFilename,
		Name:              c.Name,
		Email:             c.Email,
		Phone:             c.Phone,
		Skills:            skills,
		Education:         c.Education,
		ExperienceSummary: c.ExperienceSummary,
		RawText:           c.RawText,
	}, nil
}

// Vector 解析存储的向量
func (c *Candidate) Vector() ([]float64, error) {
	if len(c.Embedding) == 0 {
		return nil, fmt.Errorf("候选人 %s 没有存储向量", c.SourceFilename)
	}
	var vec []float64
	if err := json.Unmarshal(c.Embedding, &vec); err != nil {
		return nil, fmt.Errorf("解析向量失败 (candidate: %s): %w", c.SourceFilename, err)
	}
	return vec, nil
}
