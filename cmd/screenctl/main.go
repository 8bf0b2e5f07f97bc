package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"cv-screening-go/internal/config"
	"cv-screening-go/internal/extractor"
	"cv-screening-go/internal/logger"
	"cv-screening-go/internal/parser"
	"cv-screening-go/internal/processor"
	"cv-screening-go/internal/storage"
	"cv-screening-go/internal/types"
)

// 命令行参数
var (
	configPath string
	topK       int
	quiet      bool
)

func main() {
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，留空时按默认位置搜索")
	pflag.IntVarP(&topK, "top-k", "k", 3, "search命令返回的候选人数量")
	pflag.BoolVarP(&quiet, "quiet", "q", false, "只输出结果，抑制日志")
	pflag.Usage = usage
	pflag.Parse()

	args := pflag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	command := args[0]

	// init-config不需要任何后端，单独处理
	if command == "init-config" {
		target := "config.yaml"
		if len(args) > 1 {
			target = args[1]
		}
		if err := config.CreateSampleConfig(target); err != nil {
			fmt.Fprintf(os.Stderr, "错误: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("示例配置已写入 %s\n", target)
		return
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: 加载配置失败: %v\n", err)
		os.Exit(1)
	}
	initLogger(cfg)

	ctx := context.Background()
	engine, candidateExtractor, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	switch command {
	case "ingest":
		err = runIngest(ctx, candidateExtractor, engine, args[1:])
	case "search":
		err = runSearch(ctx, engine, args[1:])
	case "list":
		err = runList(ctx, engine)
	case "clear":
		err = runClear(ctx, engine)
	default:
		fmt.Fprintf(os.Stderr, "错误: 未知命令 '%s'\n", command)
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `用法: screenctl [选项] <命令> [参数]

命令:
  ingest <文件...>    解析并摄取一份或多份简历文件 (.txt/.pdf/.docx)
  search <查询文本>   按自然语言查询检索候选人
  list                按摄取顺序列出全部候选人
  clear               清空候选人语料库
  init-config [路径]  生成示例配置文件 (默认 config.yaml)

选项:
`)
	pflag.PrintDefaults()
}

func initLogger(cfg *config.Config) {
	level := cfg.Logger.Level
	if quiet {
		level = "error"
	}
	logger.Init(logger.Config{
		Level:        level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: false,
	})
}

// buildEngine 组装提取器和检索引擎，返回的cleanup负责关闭存储连接
func buildEngine(ctx context.Context, cfg *config.Config) (*processor.ScreeningEngine, *extractor.CandidateExtractor, func(), error) {
	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("初始化存储失败: %w", err)
	}

	var embedderOptions []parser.EmbedderOption
	if cache := storageManager.EmbeddingCache(cfg); cache != nil {
		embedderOptions = append(embedderOptions, parser.WithEmbeddingCache(cache))
	}
	embedder, err := parser.GetEmbedder(cfg, embedderOptions...)
	if err != nil {
		storageManager.Close()
		return nil, nil, nil, fmt.Errorf("初始化向量化后端失败: %w", err)
	}

	candidateExtractor, err := extractor.New(ctx, cfg.Extractor)
	if err != nil {
		storageManager.Close()
		return nil, nil, nil, fmt.Errorf("初始化文档提取器失败: %w", err)
	}

	engineOptions := []processor.EngineOption{
		processor.WithEmbeddingModel(cfg.Embedding.Model),
	}
	if storageManager.Qdrant != nil {
		engineOptions = append(engineOptions, processor.WithQdrant(storageManager.Qdrant))
	}
	engine, err := processor.NewScreeningEngine(storageManager.Database, embedder, engineOptions...)
	if err != nil {
		storageManager.Close()
		return nil, nil, nil, fmt.Errorf("初始化检索引擎失败: %w", err)
	}

	return engine, candidateExtractor, storageManager.Close, nil
}

func runIngest(ctx context.Context, candidateExtractor *extractor.CandidateExtractor, engine *processor.ScreeningEngine, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("ingest需要至少一个文件路径")
	}

	for _, path := range paths {
		filename := filepath.Base(path)
		if !config.IsSupportedFilename(filename) {
			return processor.NewUnsupportedFormatError(filename)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("读取文件 %s 失败: %w", path, err)
		}

		record := candidateExtractor.Extract(ctx, data, filename)
		if err := engine.Add(ctx, record); err != nil {
			return fmt.Errorf("摄取 %s 失败: %w", filename, err)
		}
		fmt.Printf("已摄取 %s (候选人: %s, 技能: %d)\n", filename, record.Name, len(record.Skills))
	}
	return nil
}

func runSearch(ctx context.Context, engine *processor.ScreeningEngine, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("search需要查询文本")
	}
	query := args[0]
	for _, extra := range args[1:] {
		query += " " + extra
	}

	results, err := engine.Search(ctx, query, topK)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("没有匹配的候选人")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. %s  score=%.4f  (%s)\n", i+1, r.CandidateName, r.Score, r.SourceFilename)
		fmt.Printf("   %s\n", r.Explanation)
		if len(r.Skills) > 0 {
			fmt.Printf("   技能: %v\n", r.Skills)
		}
	}
	return nil
}

func runList(ctx context.Context, engine *processor.ScreeningEngine) error {
	candidates, err := engine.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Println("语料库为空")
		return nil
	}

	for i, c := range candidates {
		printCandidate(i+1, c)
	}
	return nil
}

func printCandidate(index int, c types.CandidateSummary) {
	fmt.Printf("%d. %s  (%s)\n", index, c.Name, c.SourceFilename)
	if c.Email != "" || c.Phone != "" {
		fmt.Printf("   联系方式: %s %s\n", c.Email, c.Phone)
	}
	if len(c.Skills) > 0 {
		fmt.Printf("   技能: %v\n", c.Skills)
	}
}

func runClear(ctx context.Context, engine *processor.ScreeningEngine) error {
	if err := engine.Clear(ctx); err != nil {
		return err
	}
	fmt.Println("候选人语料库已清空")
	return nil
}
