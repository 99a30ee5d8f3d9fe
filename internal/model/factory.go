package model

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"repurpose/internal/config"
	"repurpose/internal/entity"
	"repurpose/internal/model/sql"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	DBTypeMySQL    = "mysql"
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"

	defaultSQLitePath = "datas/repurpose.db"
)

// poolSettings 连接池参数，sqlite 与服务端数据库分开配置
type poolSettings struct {
	maxOpen  int
	maxIdle  int
	lifetime time.Duration
}

var (
	serverPool = poolSettings{maxOpen: 100, maxIdle: 10, lifetime: time.Hour}
	// 生成记录在所有平台完成后一次写入，单连接足够且不会出现 database is locked
	sqlitePool = poolSettings{maxOpen: 1, maxIdle: 1}
)

// InitRepository 按 DBType 打开数据库并迁移表结构。DBType 为空时返回 nil，
// 服务只提供生成与预览。
func InitRepository(cfg *config.Config) (Repository, error) {
	if cfg == nil || strings.TrimSpace(cfg.DBType) == "" {
		return nil, nil
	}

	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := migrateSchema(db); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return sql.NewGormRepository(db), nil
}

// Open 打开数据库连接并应用连接池配置
func Open(cfg *config.Config) (*gorm.DB, error) {
	dbType := strings.ToLower(strings.TrimSpace(cfg.DBType))
	dialector, pool, err := dialectorFor(dbType, cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(
			log.New(log.Writer(), "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             5 * time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		NamingStrategy:                           schema.NamingStrategy{SingularTable: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", dbType, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(pool.maxOpen)
	sqlDB.SetMaxIdleConns(pool.maxIdle)
	if pool.lifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.lifetime)
	}
	return db, nil
}

func dialectorFor(dbType string, cfg *config.Config) (gorm.Dialector, poolSettings, error) {
	switch dbType {
	case DBTypeMySQL:
		return mysql.Open(mysqlDSN(cfg)), serverPool, nil
	case DBTypePostgres:
		return postgres.Open(postgresDSN(cfg)), serverPool, nil
	case DBTypeSQLite:
		path, err := prepareSQLitePath(cfg.DBPath)
		if err != nil {
			return nil, poolSettings{}, err
		}
		return sqlite.Open(sqliteDSN(path)), sqlitePool, nil
	default:
		return nil, poolSettings{}, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}
}

// mysqlDSN DSN_URL 优先，否则由分项配置拼出
func mysqlDSN(cfg *config.Config) string {
	if cfg.DSNURL != "" {
		return cfg.DSNURL
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBAddr, cfg.DBPort, cfg.DBName)
}

func postgresDSN(cfg *config.Config) string {
	if cfg.DSNURL != "" {
		return cfg.DSNURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBAddr, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
}

// prepareSQLitePath 文件库需要目录先存在，内存库原样返回
func prepareSQLitePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultSQLitePath
	}
	if isSQLiteMemory(path) {
		return path, nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}
	return path, nil
}

func isSQLiteMemory(path string) bool {
	return strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory")
}

// sqliteDSN 文件库追加 busy_timeout
func sqliteDSN(path string) string {
	if isSQLiteMemory(path) || strings.Contains(path, "_busy_timeout") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000"
}

func migrateSchema(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.DbTemplate{},
		&entity.DbGenerationRecord{},
	)
}
