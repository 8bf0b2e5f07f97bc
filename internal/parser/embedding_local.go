package parser

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/cloudwego/eino/components/embedding"
)

// LocalEmbedder 确定性的本地向量化后端，实现 embedding.Embedder 接口。
// 按词元哈希叠加生成向量：每个词元经FNV哈希做种子，用线性同余序列
// 展开成伪随机分量累加，最后做L2归一化。相同文本必然得到相同向量，
// 共享词元的文本向量彼此接近，足以支撑离线部署和测试，
// 但不具备同义词级别的语义理解。
type LocalEmbedder struct {
	dimensions int
}

// NewLocalEmbedder 创建本地向量化后端
func NewLocalEmbedder(dimensions int) *LocalEmbedder {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &LocalEmbedder{dimensions: dimensions}
}

// GetDimensions 返回向量维度
func (l *LocalEmbedder) GetDimensions() int {
	return l.dimensions
}

// EmbedStrings 将一批文本转换为确定性向量
func (l *LocalEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = l.embedOne(text)
	}
	return out, nil
}

func (l *LocalEmbedder) embedOne(text string) []float64 {
	vec := make([]float64, l.dimensions)

	tokens := tokenize(text)
	if len(tokens) == 0 {
		// 空文本也给出确定性的非零向量，避免余弦计算除零
		tokens = []string{text}
	}

	for _, token := range tokens {
		accumulateToken(vec, token)
	}

	normalize(vec)
	return vec
}

// accumulateToken 把单个词元的伪随机分量叠加进向量
func accumulateToken(vec []float64, token string) {
	h := fnv.New64a()
	h.Write([]byte(token))
	state := h.Sum64()

	for i := range vec {
		// 线性同余推进（Knuth MMIX参数），映射到[-1,1]
		state = state*6364136223846793005 + 1442695040888963407
		vec[i] += float64(int64(state)) / float64(math.MaxInt64)
	}
}

// tokenize 切分为小写词元，字母数字之外的字符作为边界
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// normalize 原地L2归一化
func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}
