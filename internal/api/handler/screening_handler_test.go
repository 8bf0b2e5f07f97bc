package handler

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-screening-go/internal/config"
	"cv-screening-go/internal/parser"
	"cv-screening-go/internal/processor"
	"cv-screening-go/internal/storage"
	"cv-screening-go/internal/types"
)

// stubExtractor 绕过真实文档解析，直接从纯文本构造记录
type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, data []byte, filename string) *types.CandidateRecord {
	text := string(data)
	record := &types.CandidateRecord{
		SourceFilename:    filename,
		Name:              strings.TrimSuffix(filename, filepath.Ext(filename)),
		ExperienceSummary: text,
		RawText:           text,
	}
	if strings.Contains(strings.ToLower(text), "python") {
		record.Skills = []string{"python"}
	}
	return record
}

func newTestHandler(t *testing.T) *ScreeningHandler {
	t.Helper()

	cfg := config.DefaultConfig()
	db, err := storage.NewDatabase(&config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "handler_test.db"),
		LogLevel: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	engine, err := processor.NewScreeningEngine(db, parser.NewLocalEmbedder(64))
	require.NoError(t, err)

	h, err := NewScreeningHandler(cfg, stubExtractor{}, engine)
	require.NoError(t, err)
	return h
}

func TestHandleUploadAndSearch(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	content := []byte("Senior Python developer with data pipeline experience.")
	resp, err := h.HandleUpload(ctx, bytes.NewReader(content), int64(len(content)), "alice_zhang.txt")
	require.NoError(t, err)
	assert.Equal(t, "alice_zhang.txt", resp.SourceFilename)
	assert.Equal(t, "indexed", resp.Status)
	assert.Contains(t, resp.Skills, "python")

	search, err := h.HandleSearch(ctx, "python developer", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSearchTopK, search.TopK, "未指定top_k时使用默认值")
	require.Equal(t, 1, search.Total)
	assert.Equal(t, "alice_zhang.txt", search.Results[0].SourceFilename)
}

func TestHandleUploadUnsupportedFormat(t *testing.T) {
	h := newTestHandler(t)

	content := []byte("binary junk")
	_, err := h.HandleUpload(context.Background(), bytes.NewReader(content), int64(len(content)), "resume.exe")
	assert.ErrorIs(t, err, processor.ErrUnsupportedFormat, "扩展名校验必须在解析之前拒绝")
}

func TestHandleUploadOversized(t *testing.T) {
	h := newTestHandler(t)
	h.cfg.Server.MaxUploadSizeMB = 1

	_, err := h.HandleUpload(context.Background(), bytes.NewReader(nil), 2*1024*1024, "big.txt")
	assert.Error(t, err, "超出大小上限的上传应被拒绝")
}

func TestHandleSearchEmptyQuery(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.HandleSearch(context.Background(), "   ", 3)
	assert.ErrorIs(t, err, processor.ErrEmptyQuery)
}

func TestHandleListAndClear(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	for _, name := range []string{"first.txt", "second.txt"} {
		content := []byte("profile for " + name)
		_, err := h.HandleUpload(ctx, bytes.NewReader(content), int64(len(content)), name)
		require.NoError(t, err)
	}

	list, err := h.HandleListCandidates(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "first.txt", list.Candidates[0].SourceFilename, "列表保持摄取顺序")

	require.NoError(t, h.HandleClear(ctx))

	list, err = h.HandleListCandidates(ctx)
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}
