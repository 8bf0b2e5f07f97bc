package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"

	"cv-screening-go/internal/api/handler"
	"cv-screening-go/internal/api/router"
	"cv-screening-go/internal/config"
	"cv-screening-go/internal/extractor"
	"cv-screening-go/internal/logger"
	"cv-screening-go/internal/parser"
	"cv-screening-go/internal/processor"
	"cv-screening-go/internal/storage"
)

// @title           CV Screening API
// @version         1.0
// @description     简历摄取与候选人检索服务
// @BasePath        /api/v1
func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，留空时按默认位置搜索")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置文件失败")
	}

	initLogger(cfg)
	logger.Info().Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 存储：关系库必选，Qdrant和Redis按配置启用
	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()
	logger.Info().Msg("存储初始化成功")

	// 向量化后端：进程级单例，Redis可用时套一层结果缓存
	var embedderOptions []parser.EmbedderOption
	if cache := storageManager.EmbeddingCache(cfg); cache != nil {
		embedderOptions = append(embedderOptions, parser.WithEmbeddingCache(cache))
		logger.Info().Msg("已启用Redis向量化缓存")
	}
	embedder, err := parser.GetEmbedder(cfg, embedderOptions...)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化向量化后端失败")
	}
	logger.Info().Str("provider", cfg.Embedding.Provider).Msg("向量化后端初始化成功")

	candidateExtractor, err := extractor.New(ctx, cfg.Extractor)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化文档提取器失败")
	}

	engineOptions := []processor.EngineOption{
		processor.WithEmbeddingModel(cfg.Embedding.Model),
	}
	if storageManager.Qdrant != nil {
		engineOptions = append(engineOptions, processor.WithQdrant(storageManager.Qdrant))
	}
	engine, err := processor.NewScreeningEngine(storageManager.Database, embedder, engineOptions...)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化检索引擎失败")
	}

	screeningHandler, err := handler.NewScreeningHandler(cfg, candidateExtractor, engine)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化筛选处理器失败")
	}

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	router.RegisterRoutes(h, screeningHandler)
	logger.Info().Str("address", cfg.Server.Address).Msg("HTTP服务器启动中")

	go func() {
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("服务器关闭失败")
	}
	logger.Info().Msg("优雅退出完成")
}

// initLogger 初始化日志系统并把Hertz的框架日志接入同一个zerolog实例
func initLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	logger.Logger = logger.Logger.With().
		Str("app", "cv-screening-go").
		Logger()

	glog.SetLogger(hertzadapter.From(logger.Logger))
}
