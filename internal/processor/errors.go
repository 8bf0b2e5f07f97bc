package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	// ErrUnsupportedFormat 文件扩展名不在支持列表中，由调用方在提取前校验
	ErrUnsupportedFormat = errors.New("不支持的文件格式")

	// ErrEmbeddingUnavailable 向量化后端不可用，add和search都向上传递而不是用占位向量继续
	ErrEmbeddingUnavailable = errors.New("向量化后端不可用")

	// ErrEmptyQuery 检索查询为空或仅含空白
	ErrEmptyQuery = errors.New("检索查询不能为空")

	// ErrStoreFailed 持久化存储操作失败
	ErrStoreFailed = errors.New("存储操作失败")
)

// ScreeningError 包含详细上下文的筛选流程错误
type ScreeningError struct {
	SourceFilename string
	Op             string
	BaseErr        error
	Detail         string
}

func (e *ScreeningError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 文件:%s): %s", e.BaseErr, e.Op, e.SourceFilename, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 文件:%s)", e.BaseErr, e.Op, e.SourceFilename)
}

func (e *ScreeningError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ScreeningError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func NewUnsupportedFormatError(filename string) error {
	return &ScreeningError{
		SourceFilename: filename,
		Op:             "dispatch",
		BaseErr:        ErrUnsupportedFormat,
		Detail:         "仅支持 .txt/.pdf/.docx",
	}
}

func NewEmbeddingError(filename, detail string) error {
	return &ScreeningError{
		SourceFilename: filename,
		Op:             "embed",
		BaseErr:        ErrEmbeddingUnavailable,
		Detail:         detail,
	}
}

func NewStoreError(filename, detail string) error {
	return &ScreeningError{
		SourceFilename: filename,
		Op:             "store",
		BaseErr:        ErrStoreFailed,
		Detail:         detail,
	}
}
