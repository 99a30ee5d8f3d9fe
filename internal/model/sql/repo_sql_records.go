package sql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"repurpose/internal/entity"

	"gorm.io/gorm"
)

var recordSortColumns = map[string]string{
	"createdat":  "created_at",
	"created_at": "created_at",
	"tone":       "tone",
}

// CreateGenerationRecord inserts a generation record.
func (r *GormRepository) CreateGenerationRecord(ctx context.Context, record *entity.DbGenerationRecord) error {
	if err := r.ready(); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("generation record is nil")
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// GetGenerationRecord retrieves a single record owned by ownerID.
func (r *GormRepository) GetGenerationRecord(ctx context.Context, id, ownerID uint) (*entity.DbGenerationRecord, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var record entity.DbGenerationRecord
	if err := r.db.WithContext(ctx).Where("created_by = ?", ownerID).First(&record, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load generation record: %w", err)
	}
	return &record, nil
}

// ListGenerationRecords retrieves paginated records of one owner.
func (r *GormRepository) ListGenerationRecords(ctx context.Context, params *entity.RecordQuery) ([]entity.DbGenerationRecord, *entity.Meta, error) {
	if err := r.ready(); err != nil {
		return nil, nil, err
	}
	if params == nil {
		params = &entity.RecordQuery{}
	}
	params.Normalize()

	query := r.db.WithContext(ctx).
		Model(&entity.DbGenerationRecord{}).
		Where("created_by = ?", params.OwnerID)

	if params.Tone != "" {
		query = query.Where("tone = ?", params.Tone)
	}
	if params.Platform != "" {
		// successful_platforms 为 JSON 数组，按带引号的元素匹配
		query = query.Where(r.textColumn("successful_platforms")+" LIKE ?", `%"`+string(params.Platform)+`"%`)
	}
	if params.Since != nil {
		query = query.Where("created_at >= ?", *params.Since)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		query = query.Where("LOWER(transcript) LIKE ? "+likeEscape, likePattern(search))
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, nil, err
	}

	order := orderClause(params.SortBy, params.SortDesc, recordSortColumns, "created_at DESC, id DESC")
	var records []entity.DbGenerationRecord
	if err := query.Order(order).Offset(params.Offset()).Limit(int(params.PageSize)).Find(&records).Error; err != nil {
		return nil, nil, err
	}

	return records, entity.NewMeta(totalCount, params.Page, params.PageSize), nil
}

// DeleteGenerationRecord removes a record owned by ownerID.
func (r *GormRepository) DeleteGenerationRecord(ctx context.Context, id, ownerID uint) error {
	if err := r.ready(); err != nil {
		return err
	}
	if id == 0 {
		return gorm.ErrRecordNotFound
	}

	result := r.db.WithContext(ctx).Where("created_by = ?", ownerID).Delete(&entity.DbGenerationRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepository) CountGenerationRecords(ctx context.Context, ownerID uint) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.DbGenerationRecord{}).Where("created_by = ?", ownerID).Count(&count).Error
	return count, err
}

type toneCount struct {
	Tone  string
	Count int64
}

func (r *GormRepository) CountGenerationRecordsByTone(ctx context.Context, ownerID uint) (map[string]int64, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	var rows []toneCount
	if err := r.db.WithContext(ctx).
		Model(&entity.DbGenerationRecord{}).
		Select("tone, COUNT(*) AS count").
		Where("created_by = ?", ownerID).
		Group("tone").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Tone] = row.Count
	}
	return counts, nil
}

// CountSuccessfulPlatforms 统计每个平台成功生成的次数
func (r *GormRepository) CountSuccessfulPlatforms(ctx context.Context, ownerID uint) (map[string]int64, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	var columns []entity.StringArray
	if err := r.db.WithContext(ctx).
		Model(&entity.DbGenerationRecord{}).
		Where("created_by = ?", ownerID).
		Pluck("successful_platforms", &columns).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, platforms := range columns {
		for _, platform := range platforms {
			counts[platform]++
		}
	}
	return counts, nil
}

// ListGenerationRecordsSince returns records created at or after since, oldest first.
func (r *GormRepository) ListGenerationRecordsSince(ctx context.Context, ownerID uint, since time.Time) ([]entity.DbGenerationRecord, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	var records []entity.DbGenerationRecord
	if err := r.db.WithContext(ctx).
		Select("id", "created_at", "tone", "successful_platforms").
		Where("created_by = ? AND created_at >= ?", ownerID, since).
		Order("created_at ASC, id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
