package router

import (
	"context"
	"errors"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"cv-screening-go/internal/api/handler"
	"cv-screening-go/internal/processor"
)

// searchRequest POST检索请求体
type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// RegisterRoutes 注册全部HTTP路由
func RegisterRoutes(h *server.Hertz, screeningHandler *handler.ScreeningHandler) {
	api := h.Group("/api/v1")

	// 上传一份简历文件并摄取
	api.POST("/candidates/upload", func(c context.Context, ctx *app.RequestContext) {
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
			return
		}
		defer file.Close()

		resp, err := screeningHandler.HandleUpload(c, file, fileHeader.Size, fileHeader.Filename)
		if err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 自然语言检索候选人
	api.POST("/candidates/search", func(c context.Context, ctx *app.RequestContext) {
		var req searchRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}

		resp, err := screeningHandler.HandleSearch(c, req.Query, req.TopK)
		if err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// GET形式的检索，便于浏览器和curl调试
	api.GET("/candidates/search", func(c context.Context, ctx *app.RequestContext) {
		query := ctx.Query("query")
		topK, _ := strconv.Atoi(ctx.Query("top_k"))

		resp, err := screeningHandler.HandleSearch(c, query, topK)
		if err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 按摄取顺序列出全部候选人
	api.GET("/candidates", func(c context.Context, ctx *app.RequestContext) {
		resp, err := screeningHandler.HandleListCandidates(c)
		if err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 清空语料库
	api.DELETE("/candidates", func(c context.Context, ctx *app.RequestContext) {
		if err := screeningHandler.HandleClear(c); err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"status": "cleared"})
	})

	// 健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}

// statusForError 把业务错误映射到HTTP状态码。
// 格式与参数问题是调用方错误，向量化后端故障是依赖不可用。
func statusForError(err error) int {
	switch {
	case errors.Is(err, processor.ErrUnsupportedFormat):
		return consts.StatusBadRequest
	case errors.Is(err, processor.ErrEmptyQuery):
		return consts.StatusBadRequest
	case errors.Is(err, processor.ErrEmbeddingUnavailable):
		return consts.StatusServiceUnavailable
	default:
		return consts.StatusInternalServerError
	}
}
