package parser

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-screening-go/internal/config"
)

func newAliyunTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *AliyunEmbedder) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	embedder, err := NewAliyunEmbedder(config.EmbeddingConfig{
		APIKey:     "test-key",
		Model:      "text-embedding-v3",
		Dimensions: 4,
		BaseURL:    server.URL,
	})
	require.NoError(t, err)
	return server, embedder
}

func TestAliyunEmbedderEmbedStrings(t *testing.T) {
	var gotAuth string
	var gotReq openAIEmbeddingRequest

	_, embedder := newAliyunTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := openAIEmbeddingResponse{
			Object: "list",
			Model:  "text-embedding-v3",
			Data: []openAIDataEntry{
				{Object: "embedding", Embedding: []float64{0.1, 0.2, 0.3, 0.4}, Index: 0},
			},
			Usage: openAIUsage{PromptTokens: 5, TotalTokens: 5},
		}
		json.NewEncoder(w).Encode(resp)
	})

	vecs, err := embedder.EmbedStrings(context.Background(), []string{"golang backend engineer"})
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4}, vecs[0])

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "text-embedding-v3", gotReq.Model)
	assert.Equal(t, 4, gotReq.Dimensions)
	assert.Equal(t, "golang backend engineer", gotReq.Input, "单条文本应以字符串形式提交")
}

func TestAliyunEmbedderBatchOrder(t *testing.T) {
	_, embedder := newAliyunTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		// 乱序返回，Index字段标记原始顺序
		resp := openAIEmbeddingResponse{
			Object: "list",
			Data: []openAIDataEntry{
				{Object: "embedding", Embedding: []float64{2, 2, 2, 2}, Index: 1},
				{Object: "embedding", Embedding: []float64{1, 1, 1, 1}, Index: 0},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})

	vecs, err := embedder.EmbedStrings(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 1}, vecs[0], "结果应按Index还原输入顺序")
	assert.Equal(t, []float64{2, 2, 2, 2}, vecs[1])
}

func TestAliyunEmbedderBackendError(t *testing.T) {
	_, embedder := newAliyunTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(openAIErrorDetail{
			Message: "rate limit exceeded",
			Type:    "requests",
			Code:    "429",
		})
	})

	_, err := embedder.EmbedStrings(context.Background(), []string{"any text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestAliyunEmbedderUnreachable(t *testing.T) {
	server, embedder := newAliyunTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := embedder.EmbedStrings(context.Background(), []string{"any text"})
	assert.Error(t, err, "后端不可达必须返回错误而不是静默降级")
}

func TestAliyunEmbedderEmptyInput(t *testing.T) {
	_, embedder := newAliyunTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("空输入不应触发后端调用")
	})

	vecs, err := embedder.EmbedStrings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestAliyunEmbedderRequiresAPIKey(t *testing.T) {
	_, err := NewAliyunEmbedder(config.EmbeddingConfig{})
	assert.Error(t, err)
}
