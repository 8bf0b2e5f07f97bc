package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用程序配置
type Config struct {
	// 向量化后端配置
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Qdrant向量数据库配置（可选，未配置时使用内置线性扫描索引）
	Qdrant QdrantConfig `yaml:"qdrant"`

	// 关系数据库配置（候选人档案与向量的持久化存储）
	Database DatabaseConfig `yaml:"database"`

	// Redis配置（可选的向量化结果缓存）
	Redis RedisConfig `yaml:"redis"`

	// HTTP服务器配置
	Server ServerConfig `yaml:"server"`

	// 日志配置
	Logger LoggerConfig `yaml:"logger"`

	// 字段提取配置（技能词表、章节标题关键词等领域知识表）
	Extractor ExtractorConfig `yaml:"extractor"`
}

// EmbeddingConfig 向量化后端配置
type EmbeddingConfig struct {
	// 后端类型: "aliyun"（OpenAI兼容HTTP接口）或 "local"（确定性本地哈希向量，离线/测试用）
	Provider string `yaml:"provider"`

	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key,omitempty"`

	// 单次向量化调用的超时，例如 "30s"
	RequestTimeout string `yaml:"request_timeout"`
}

// QdrantConfig Qdrant向量数据库配置
type QdrantConfig struct {
	Endpoint   string `yaml:"endpoint"`   // REST服务地址，留空则禁用Qdrant后端
	Collection string `yaml:"collection"` // 集合名称
	Dimension  int    `yaml:"dimension"`  // 向量维度，须与Embedding.Dimensions一致
	APIKey     string `yaml:"api_key,omitempty"`
}

// DatabaseConfig 关系数据库配置
// driver为"mysql"时使用Host/Port等字段构建DSN；为"sqlite"时仅使用Path。
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "sqlite"（默认，单机部署）或 "mysql"
	Path     string `yaml:"path"`   // sqlite数据库文件路径
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// 连接池设置
	MaxIdleConns int `yaml:"max_idle_conns"`
	MaxOpenConns int `yaml:"max_open_conns"`
	// 连接生命周期
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
	// 超时设置
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"`
	ReadTimeoutSeconds    int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds   int `yaml:"write_timeout_seconds"`
	// GORM日志级别(1=Silent 2=Error 3=Warn 4=Info)
	LogLevel int `yaml:"log_level"`
}

// RedisConfig Redis配置，仅用于向量化结果缓存，未配置Address时整体禁用
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// 连接池设置
	PoolSize     int `yaml:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns"`
	// 超时设置
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
	// 向量缓存过期时间(天)
	EmbeddingCacheExpireDays int `yaml:"embedding_cache_expire_days"`
}

// ServerConfig HTTP服务器配置
type ServerConfig struct {
	Address string `yaml:"address"` // 例如 ":8080"
	// 单个上传文件的大小上限(MB)
	MaxUploadSizeMB int `yaml:"max_upload_size_mb"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json, pretty
	TimeFormat   string `yaml:"time_format"`   // 时间格式
	ReportCaller bool   `yaml:"report_caller"` // 是否报告调用位置
}

// ExtractorConfig 字段提取配置。
// 技能词表和章节标题关键词是领域知识表而非算法，随配置独立演进。
type ExtractorConfig struct {
	// 技能词表，留空时使用内置默认词表
	SkillVocabulary []string `yaml:"skill_vocabulary"`

	// 教育经历章节标题关键词
	EducationHeaders []string `yaml:"education_headers"`

	// 工作经历章节标题关键词
	ExperienceHeaders []string `yaml:"experience_headers"`

	// 姓名行的最大长度（rune数），防止把整段文本当作姓名
	NameMaxLength int `yaml:"name_max_length"`
}

// DefaultSkillVocabulary 内置技能词表。
// 刻意偏向召回：检索阶段的语义相似度会进一步修正误报。
var DefaultSkillVocabulary = []string{
	"python", "java", "javascript", "typescript", "golang", "go", "c++", "c#",
	"rust", "ruby", "php", "swift", "kotlin", "scala", "sql", "html", "css",
	"react", "angular", "vue", "node.js", "django", "flask", "spring",
	"fastapi", "rails", "machine learning", "deep learning", "nlp",
	"computer vision", "data science", "data analysis", "tensorflow",
	"pytorch", "scikit-learn", "pandas", "numpy", "spark", "hadoop", "kafka",
	"docker", "kubernetes", "terraform", "ansible", "jenkins", "ci/cd",
	"aws", "azure", "gcp", "linux", "git", "mysql", "postgresql", "mongodb",
	"redis", "elasticsearch", "graphql", "rest", "grpc", "microservices",
	"agile", "scrum", "project management", "leadership", "communication",
}

// DefaultEducationHeaders 内置教育章节标题关键词
var DefaultEducationHeaders = []string{
	"education", "academic background", "qualifications", "学历", "教育经历", "教育背景",
}

// DefaultExperienceHeaders 内置工作经历章节标题关键词
var DefaultExperienceHeaders = []string{
	"experience", "work history", "employment", "professional experience",
	"工作经历", "工作经验", "实习经历",
}

// LoadConfig 从文件加载配置。
// configPath为空时在常见位置查找config.yaml；找不到时返回内置默认配置而不报错，
// 以便CLI和测试在零配置下可用。
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
			filepath.Join(os.Getenv("HOME"), ".cv-screening", "config.yaml"),
		}

		if execPath, err := os.Executable(); err == nil {
			execDir := filepath.Dir(execPath)
			searchPaths = append(searchPaths, filepath.Join(execDir, "config.yaml"))
		}

		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}

		if configPath == "" {
			return DefaultConfig(), nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	applyEnvOverrides(config)
	applyDefaults(config)

	return config, nil
}

// applyEnvOverrides 从环境变量覆盖敏感配置（如果存在）
func applyEnvOverrides(config *Config) {
	if envKey := os.Getenv("EMBEDDING_API_KEY"); envKey != "" {
		config.Embedding.APIKey = envKey
	}
	if envURL := os.Getenv("EMBEDDING_BASE_URL"); envURL != "" {
		config.Embedding.BaseURL = envURL
	}
}

// applyDefaults 补齐YAML中缺失的字段
func applyDefaults(config *Config) {
	def := DefaultConfig()
	if config.Embedding.Provider == "" {
		config.Embedding.Provider = def.Embedding.Provider
	}
	if config.Embedding.Model == "" {
		config.Embedding.Model = def.Embedding.Model
	}
	if config.Embedding.Dimensions == 0 {
		config.Embedding.Dimensions = def.Embedding.Dimensions
	}
	if config.Embedding.BaseURL == "" {
		config.Embedding.BaseURL = def.Embedding.BaseURL
	}
	if config.Embedding.RequestTimeout == "" {
		config.Embedding.RequestTimeout = def.Embedding.RequestTimeout
	}
	if config.Database.Driver == "" {
		config.Database.Driver = def.Database.Driver
	}
	if config.Database.Path == "" {
		config.Database.Path = def.Database.Path
	}
	if config.Server.Address == "" {
		config.Server.Address = def.Server.Address
	}
	if config.Server.MaxUploadSizeMB == 0 {
		config.Server.MaxUploadSizeMB = def.Server.MaxUploadSizeMB
	}
	if len(config.Extractor.SkillVocabulary) == 0 {
		config.Extractor.SkillVocabulary = def.Extractor.SkillVocabulary
	}
	if len(config.Extractor.EducationHeaders) == 0 {
		config.Extractor.EducationHeaders = def.Extractor.EducationHeaders
	}
	if len(config.Extractor.ExperienceHeaders) == 0 {
		config.Extractor.ExperienceHeaders = def.Extractor.ExperienceHeaders
	}
	if config.Extractor.NameMaxLength == 0 {
		config.Extractor.NameMaxLength = def.Extractor.NameMaxLength
	}
	if config.Qdrant.Collection == "" {
		config.Qdrant.Collection = def.Qdrant.Collection
	}
	if config.Qdrant.Dimension == 0 {
		config.Qdrant.Dimension = config.Embedding.Dimensions
	}
}

// DefaultConfig 创建内置默认配置
func DefaultConfig() *Config {
	config := &Config{}

	// 向量化默认配置：本地确定性后端，零依赖可用
	config.Embedding.Provider = "local"
	config.Embedding.Model = "text-embedding-v3"
	config.Embedding.Dimensions = 256
	config.Embedding.BaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings"
	config.Embedding.RequestTimeout = "30s"

	// Qdrant默认不启用（Endpoint留空），启用时的集合默认值
	config.Qdrant.Collection = "candidates"

	// 数据库默认配置：嵌入式sqlite，单机部署零依赖
	config.Database.Driver = "sqlite"
	config.Database.Path = "cv_screening.db"
	config.Database.Host = "localhost"
	config.Database.Port = 3306
	config.Database.Username = "root"
	config.Database.Database = "cv_screening"
	config.Database.MaxIdleConns = 10
	config.Database.MaxOpenConns = 50
	config.Database.ConnMaxLifetimeMinutes = 60
	config.Database.ConnectTimeoutSeconds = 10
	config.Database.ReadTimeoutSeconds = 30
	config.Database.WriteTimeoutSeconds = 30
	config.Database.LogLevel = 2 // Error级别

	// Redis默认不启用
	config.Redis.PoolSize = 10
	config.Redis.MinIdleConns = 2
	config.Redis.DialTimeoutSeconds = 5
	config.Redis.ReadTimeoutSeconds = 3
	config.Redis.WriteTimeoutSeconds = 3
	config.Redis.EmbeddingCacheExpireDays = 30

	config.Server.Address = ":8080"
	config.Server.MaxUploadSizeMB = 20

	config.Logger.Level = "info"
	config.Logger.Format = "pretty"
	config.Logger.TimeFormat = "2006-01-02 15:04:05"
	config.Logger.ReportCaller = false

	config.Extractor.SkillVocabulary = append([]string{}, DefaultSkillVocabulary...)
	config.Extractor.EducationHeaders = append([]string{}, DefaultEducationHeaders...)
	config.Extractor.ExperienceHeaders = append([]string{}, DefaultExperienceHeaders...)
	config.Extractor.NameMaxLength = 64

	applyEnvOverrides(config)

	return config
}

// CreateSampleConfig 创建一个示例配置文件
func CreateSampleConfig(filePath string) error {
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("文件 '%s' 已存在，不会覆盖", filePath)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("写入示例配置文件 '%s' 失败: %w", filePath, err)
	}
	return nil
}

// EmbeddingRequestTimeout 解析向量化调用超时，解析失败时返回默认值
func (c *Config) EmbeddingRequestTimeout() time.Duration {
	return GetDuration(c.Embedding.RequestTimeout, 30*time.Second)
}

// SupportedExtensions CLI和HTTP层做格式校验时使用的扩展名白名单
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".pdf":  true,
	".docx": true,
}

// IsSupportedFilename 判断文件扩展名是否受支持（大小写不敏感）
func IsSupportedFilename(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// GetDuration utility to parse duration strings from config
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
