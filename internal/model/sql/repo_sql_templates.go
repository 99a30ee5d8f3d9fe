package sql

import (
	"context"
	"fmt"
	"strings"

	"repurpose/internal/entity"

	"gorm.io/gorm"
)

var templateSortColumns = map[string]string{
	"name":       "name",
	"platform":   "platform",
	"createdat":  "created_at",
	"created_at": "created_at",
	"updatedat":  "updated_at",
	"updated_at": "updated_at",
}

// CreateTemplate inserts a new template.
func (r *GormRepository) CreateTemplate(ctx context.Context, template *entity.DbTemplate) error {
	if err := r.ready(); err != nil {
		return err
	}
	if template == nil {
		return fmt.Errorf("template is nil")
	}
	return r.db.WithContext(ctx).Create(template).Error
}

// UpdateTemplate updates template fields owned by ownerID.
func (r *GormRepository) UpdateTemplate(ctx context.Context, id, ownerID uint, updates entity.TemplateUpdates) error {
	if err := r.ready(); err != nil {
		return err
	}
	if id == 0 {
		return fmt.Errorf("invalid template id")
	}
	values := updates.ToMap()
	if len(values) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&entity.DbTemplate{}).
		Where("id = ? AND created_by = ?", id, ownerID).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteTemplate removes a template owned by ownerID.
func (r *GormRepository) DeleteTemplate(ctx context.Context, id, ownerID uint) error {
	if err := r.ready(); err != nil {
		return err
	}
	if id == 0 {
		return fmt.Errorf("invalid template id")
	}

	result := r.db.WithContext(ctx).Where("created_by = ?", ownerID).Delete(&entity.DbTemplate{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetTemplateForOwner loads a template, gorm.ErrRecordNotFound when missing or owned by someone else.
func (r *GormRepository) GetTemplateForOwner(ctx context.Context, id, ownerID uint) (*entity.DbTemplate, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var template entity.DbTemplate
	if err := r.db.WithContext(ctx).Where("created_by = ?", ownerID).First(&template, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return &template, nil
}

// ListTemplates retrieves paginated templates of one owner.
func (r *GormRepository) ListTemplates(ctx context.Context, params *entity.TemplateQuery) ([]entity.DbTemplate, *entity.Meta, error) {
	if err := r.ready(); err != nil {
		return nil, nil, err
	}
	if params == nil {
		params = &entity.TemplateQuery{}
	}
	params.Normalize()

	query := r.db.WithContext(ctx).
		Model(&entity.DbTemplate{}).
		Where("created_by = ?", params.OwnerID)

	if platform := strings.TrimSpace(params.Platform); platform != "" {
		if strings.EqualFold(platform, "generic") {
			platform = ""
		}
		query = query.Where("platform = ?", platform)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		pattern := likePattern(search)
		query = query.Where("(LOWER(name) LIKE ? "+likeEscape+" OR LOWER(content) LIKE ? "+likeEscape+")", pattern, pattern)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, nil, err
	}

	order := orderClause(params.SortBy, params.SortDesc, templateSortColumns, "created_at DESC, id DESC")
	var templates []entity.DbTemplate
	if err := query.Order(order).Offset(params.Offset()).Limit(int(params.PageSize)).Find(&templates).Error; err != nil {
		return nil, nil, err
	}

	return templates, entity.NewMeta(totalCount, params.Page, params.PageSize), nil
}

// TemplateNameExists reports whether ownerID already has a template named name, ignoring excludeID.
func (r *GormRepository) TemplateNameExists(ctx context.Context, ownerID uint, name string, excludeID uint) (bool, error) {
	if err := r.ready(); err != nil {
		return false, err
	}

	query := r.db.WithContext(ctx).
		Model(&entity.DbTemplate{}).
		Where("created_by = ? AND name = ?", ownerID, strings.TrimSpace(name))
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
