package entity

// TemplateUpdates 模板更新字段
type TemplateUpdates struct {
	Name      *string
	Content   *string
	Platform  *string
	UpdatedBy *uint
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u TemplateUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.Content != nil {
		updates["content"] = *u.Content
	}
	if u.Platform != nil {
		updates["platform"] = *u.Platform
	}
	if u.UpdatedBy != nil {
		updates["updated_by"] = *u.UpdatedBy
	}
	return updates
}

// IsEmpty 检查是否没有任何内容字段需要更新
func (u TemplateUpdates) IsEmpty() bool {
	return u.Name == nil && u.Content == nil && u.Platform == nil
}
