package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"cv-screening-go/internal/config"
	"cv-screening-go/internal/storage/models"
)

var dbTracer = otel.Tracer("cv-screening/storage/database")

// ErrCandidateNotFound 按文件名查找候选人未命中
var ErrCandidateNotFound = errors.New("候选人记录不存在")

type gormSpanKey struct{}

// GormTracingPlugin GORM插件，为数据库操作添加OpenTelemetry追踪点
type GormTracingPlugin struct {
	tracer   trace.Tracer
	dbName   string
	dbSystem string
}

// NewGormTracingPlugin 创建GORM追踪插件
func NewGormTracingPlugin(dbSystem, dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer:   dbTracer,
		dbName:   dbName,
		dbSystem: dbSystem,
	}
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after()); err != nil {
		return err
	}

	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after()); err != nil {
		return err
	}

	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after()); err != nil {
		return err
	}

	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()); err != nil {
		return err
	}

	if err := cb.Row().Before("gorm:row").Register("otel:before_row", p.before("ROW")); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("otel:after_row", p.after()); err != nil {
		return err
	}

	if err := cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")); err != nil {
		return err
	}
	if err := cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after()); err != nil {
		return err
	}

	return nil
}

// before 在GORM操作之前开启span
func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		newCtx, span := p.tracer.Start(ctx, fmt.Sprintf("%s %s", operation, tableName),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.system", p.dbSystem),
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		)

		db.Statement.Context = context.WithValue(newCtx, gormSpanKey{}, span)
	}
}

// after 在GORM操作之后结束span并记录结果
func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		if db.Error != nil {
			if errors.Is(db.Error, gorm.ErrRecordNotFound) {
				// 未命中属于正常业务路径，不按错误上报
				span.SetAttributes(attribute.String("error.type", "record_not_found"))
				span.SetStatus(codes.Ok, "record not found")
			} else {
				span.SetAttributes(attribute.String("error.type", "database_error"))
				span.RecordError(db.Error)
				span.SetStatus(codes.Error, db.Error.Error())
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}

// Database 候选人档案的持久化存储，支持嵌入式sqlite和mysql两种驱动
type Database struct {
	db  *gorm.DB
	cfg *config.DatabaseConfig
}

// NewDatabase 打开数据库连接并迁移表结构
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	if cfg == nil {
		return nil, fmt.Errorf("数据库配置不能为空")
	}

	var logLevel gormlogger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = gormlogger.Silent
	case 2:
		logLevel = gormlogger.Error
	case 3:
		logLevel = gormlogger.Warn
	case 4:
		logLevel = gormlogger.Info
	default:
		logLevel = gormlogger.Error
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "":
		path := cfg.Path
		if path == "" {
			path = "cv_screening.db"
		}
		dialector = sqlite.Open(path)
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
			cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	if cfg.Driver == "mysql" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
		}
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	dbSystem := cfg.Driver
	if dbSystem == "" {
		dbSystem = "sqlite"
	}
	if err := db.Use(NewGormTracingPlugin(dbSystem, cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	d := &Database{db: db, cfg: cfg}
	if err := d.autoMigrateSchema(); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	return d, nil
}

// autoMigrateSchema 使用GORM自动迁移表结构，迁移期间关闭SQL日志
func (d *Database) autoMigrateSchema() error {
	silentLogger := gormlogger.New(
		log.New(log.Writer(), "", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	silentDB := d.db.Session(&gorm.Session{Logger: silentLogger})
	if err := silentDB.AutoMigrate(&models.Candidate{}); err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Close 关闭数据库连接
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// candidateUpsertColumns 重复摄取时覆盖的列。seq_id不在其中，
// 原始插入位置在覆盖后保持不变。
var candidateUpsertColumns = []string{
	"name", "email", "phone", "skills_json", "education",
	"experience_summary", "raw_text", "embedding",
	"embedding_model", "embedding_dim", "updated_at",
}

// UpsertCandidate 按source_filename写入或覆盖候选人记录，写入同步完成后返回
func (d *Database) UpsertCandidate(ctx context.Context, candidate *models.Candidate) error {
	ctx, span := dbTracer.Start(ctx, "Database.UpsertCandidate",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.sql.table", models.Candidate{}.TableName()),
		attribute.String("candidate.source_filename", candidate.SourceFilename),
	)

	err := d.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_filename"}},
			DoUpdates: clause.AssignmentColumns(candidateUpsertColumns),
		}).Create(candidate).Error

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("写入候选人记录失败: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetCandidate 按文件名查找候选人，未命中返回ErrCandidateNotFound
func (d *Database) GetCandidate(ctx context.Context, sourceFilename string) (*models.Candidate, error) {
	var candidate models.Candidate
	err := d.db.WithContext(ctx).Where("source_filename = ?", sourceFilename).First(&candidate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询候选人记录失败: %w", err)
	}
	return &candidate, nil
}

// ListCandidates 返回全部候选人，按首次摄取顺序排列
func (d *Database) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	var candidates []models.Candidate
	if err := d.db.WithContext(ctx).Order("seq_id ASC").Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("查询候选人列表失败: %w", err)
	}
	return candidates, nil
}

// CountCandidates 返回候选人总数
func (d *Database) CountCandidates(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.Candidate{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("统计候选人数量失败: %w", err)
	}
	return count, nil
}

// DeleteAllCandidates 清空候选人表
func (d *Database) DeleteAllCandidates(ctx context.Context) error {
	ctx, span := dbTracer.Start(ctx, "Database.DeleteAllCandidates",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	err := d.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Candidate{}).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("清空候选人表失败: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
