package model

import (
	"context"
	"time"

	"repurpose/internal/entity"
)

// TemplateStore 模板存取接口，所有操作均限定在 owner 范围内
type TemplateStore interface {
	CreateTemplate(ctx context.Context, template *entity.DbTemplate) error
	UpdateTemplate(ctx context.Context, id, ownerID uint, updates entity.TemplateUpdates) error
	DeleteTemplate(ctx context.Context, id, ownerID uint) error
	GetTemplateForOwner(ctx context.Context, id, ownerID uint) (*entity.DbTemplate, error)
	ListTemplates(ctx context.Context, params *entity.TemplateQuery) ([]entity.DbTemplate, *entity.Meta, error)
	TemplateNameExists(ctx context.Context, ownerID uint, name string, excludeID uint) (bool, error)
}

// Persistence 生成记录存取接口
type Persistence interface {
	CreateGenerationRecord(ctx context.Context, record *entity.DbGenerationRecord) error
	GetGenerationRecord(ctx context.Context, id, ownerID uint) (*entity.DbGenerationRecord, error)
	ListGenerationRecords(ctx context.Context, params *entity.RecordQuery) ([]entity.DbGenerationRecord, *entity.Meta, error)
	DeleteGenerationRecord(ctx context.Context, id, ownerID uint) error

	// 统计
	CountGenerationRecords(ctx context.Context, ownerID uint) (int64, error)
	CountGenerationRecordsByTone(ctx context.Context, ownerID uint) (map[string]int64, error)
	CountSuccessfulPlatforms(ctx context.Context, ownerID uint) (map[string]int64, error)
	ListGenerationRecordsSince(ctx context.Context, ownerID uint, since time.Time) ([]entity.DbGenerationRecord, error)
}

// Repository 定义数据库操作接口
type Repository interface {
	TemplateStore
	Persistence
}
