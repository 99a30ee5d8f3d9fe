package entity

import "time"

// DbTemplate 用户保存的内容模板，同一用户下名称唯一
type DbTemplate struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name      string `gorm:"column:name;type:varchar(255);uniqueIndex:idx_template_owner_name" json:"name"`
	Content   string `gorm:"column:content;type:text" json:"content"`
	Platform  string `gorm:"column:platform;type:varchar(64);index" json:"platform"`
	CreatedBy uint   `gorm:"column:created_by;uniqueIndex:idx_template_owner_name" json:"createdBy"`
	UpdatedBy uint   `gorm:"column:updated_by" json:"updatedBy"`
}

// TableName 指定表名
func (DbTemplate) TableName() string {
	return "templates"
}

// TemplateQuery 模板列表查询参数
type TemplateQuery struct {
	BaseParams
	OwnerID  uint   `json:"-" form:"-"`
	Platform string `json:"platform" form:"platform"`
	Search   string `json:"search" form:"search"`
}

// TemplateView 返回给客户端的模板，附带占位符
type TemplateView struct {
	DbTemplate
	Placeholders []string `json:"placeholders"`
}

// CreateTemplateRequest 创建模板请求
type CreateTemplateRequest struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Platform string `json:"platform"`
}

// UpdateTemplateRequest 更新模板请求，字段为空表示不修改
type UpdateTemplateRequest struct {
	Name     *string `json:"name"`
	Content  *string `json:"content"`
	Platform *string `json:"platform"`
}

// DuplicateTemplateRequest 复制模板请求
type DuplicateTemplateRequest struct {
	Name string `json:"name"`
}

// PreviewRequest 模板预览请求
type PreviewRequest struct {
	Content    string            `json:"content"`
	Tone       string            `json:"tone"`
	SampleData map[string]string `json:"sampleData"`
	Platform   string            `json:"platform"`
}

// PreviewMetadata 预览结果的统计信息
type PreviewMetadata struct {
	WordCount           int      `json:"wordCount"`
	CharacterCount      int      `json:"characterCount"`
	Tone                Tone     `json:"tone"`
	Platform            string   `json:"platform"`
	PlaceholdersFound   []string `json:"placeholdersFound"`
	MissingPlaceholders []string `json:"missingPlaceholders"`
	EstimatedReadTime   int      `json:"estimatedReadTime"`
	HasAllPlaceholders  bool     `json:"hasAllPlaceholders"`
}

// PreviewResult 模板预览结果
type PreviewResult struct {
	OriginalContent string          `json:"originalContent"`
	Content         string          `json:"content"`
	Metadata        PreviewMetadata `json:"metadata"`
}
