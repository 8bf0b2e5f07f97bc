package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-screening-go/internal/config"
	"cv-screening-go/internal/storage/models"
	"cv-screening-go/internal/types"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "test.db"),
		LogLevel: 1,
	}
	db, err := NewDatabase(cfg)
	require.NoError(t, err, "打开sqlite测试库不应失败")
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRow(t *testing.T, filename, name string, skills []string, vector []float64) *models.Candidate {
	t.Helper()
	row, err := models.NewCandidateRow(&types.CandidateRecord{
		SourceFilename:    filename,
		Name:              name,
		Email:             "test@example.com",
		Skills:            skills,
		ExperienceSummary: "some experience",
	}, vector, "test-model")
	require.NoError(t, err)
	return row
}

func TestUpsertAndGetCandidate(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	row := sampleRow(t, "zhang_wei.pdf", "Zhang Wei", []string{"python", "docker"}, []float64{0.1, 0.2})
	require.NoError(t, db.UpsertCandidate(ctx, row))

	got, err := db.GetCandidate(ctx, "zhang_wei.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Zhang Wei", got.Name)
	assert.Equal(t, "test-model", got.EmbeddingModel)
	assert.Equal(t, 2, got.EmbeddingDim)

	record, err := got.ToRecord()
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "docker"}, record.Skills)

	vec, err := got.Vector()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, vec)
}

func TestGetCandidateNotFound(t *testing.T) {
	db := newTestDatabase(t)
	_, err := db.GetCandidate(context.Background(), "missing.pdf")
	assert.ErrorIs(t, err, ErrCandidateNotFound)
}

func TestUpsertCandidateIdempotent(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	first := sampleRow(t, "li_na.pdf", "Li Na", []string{"java"}, []float64{1, 0})
	require.NoError(t, db.UpsertCandidate(ctx, first))

	other := sampleRow(t, "wang_fang.pdf", "Wang Fang", []string{"go"}, []float64{0, 1})
	require.NoError(t, db.UpsertCandidate(ctx, other))

	// 重复摄取同名文件：数据覆盖，seq_id保持首次摄取时的值
	updated := sampleRow(t, "li_na.pdf", "Li Na (updated)", []string{"java", "kafka"}, []float64{0.5, 0.5})
	require.NoError(t, db.UpsertCandidate(ctx, updated))

	count, err := db.CountCandidates(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "覆盖写不应产生重复记录")

	list, err := db.ListCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "li_na.pdf", list[0].SourceFilename, "覆盖后插入顺序应保持不变")
	assert.Equal(t, "Li Na (updated)", list[0].Name, "第二次写入的数据应生效")
	assert.Equal(t, "wang_fang.pdf", list[1].SourceFilename)
}

func TestListCandidatesInsertionOrder(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	names := []string{"c.pdf", "a.pdf", "b.pdf"}
	for i, filename := range names {
		row := sampleRow(t, filename, filename, nil, []float64{float64(i)})
		require.NoError(t, db.UpsertCandidate(ctx, row))
	}

	list, err := db.ListCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, filename := range names {
		assert.Equal(t, filename, list[i].SourceFilename, "列表应按摄取顺序而非文件名排序")
	}
}

func TestDeleteAllCandidates(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertCandidate(ctx, sampleRow(t, "a.pdf", "A", nil, []float64{1})))
	require.NoError(t, db.UpsertCandidate(ctx, sampleRow(t, "b.pdf", "B", nil, []float64{2})))

	require.NoError(t, db.DeleteAllCandidates(ctx))

	count, err := db.CountCandidates(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	list, err := db.ListCandidates(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "清空后列表应为空而不是报错")
}
