package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// GenerationRequest 生成请求，text 与 template 二选一
type GenerationRequest struct {
	Text      string           `json:"text"`
	Tone      string           `json:"tone"`
	Platforms []string         `json:"platforms"`
	Title     string           `json:"title,omitempty"`
	Keywords  []string         `json:"keywords,omitempty"`
	Template  *TemplateRequest `json:"template,omitempty"`
}

// TemplateRequest 通过模板生成时的模板引用与占位符取值
type TemplateRequest struct {
	TemplateID uint              `json:"templateId"`
	Values     map[string]string `json:"values"`
}

// ProviderAttempt 单次生成服务调用的结果
type ProviderAttempt struct {
	Provider  string `json:"provider"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// OutcomeMetrics 成功结果的统计信息
type OutcomeMetrics struct {
	WordCount       int `json:"wordCount"`
	CharacterCount  int `json:"characterCount"`
	ReadTimeMinutes int `json:"readTimeMinutes"`
}

// PlatformOutcome 单个平台的生成结果，Content 与 Error 有且仅有一个
type PlatformOutcome struct {
	Platform  Platform          `json:"platform"`
	Content   *string           `json:"content,omitempty"`
	Title     string            `json:"title,omitempty"`
	Keywords  []string          `json:"keywords,omitempty"`
	Source    string            `json:"source,omitempty"`
	LatencyMs int64             `json:"latencyMs"`
	Error     string            `json:"error,omitempty"`
	Success   bool              `json:"success"`
	Attempts  []ProviderAttempt `json:"attempts,omitempty"`
	Metrics   *OutcomeMetrics   `json:"metrics,omitempty"`
}

// Text 返回内容，失败结果返回空串
func (o PlatformOutcome) Text() string {
	if o.Content == nil {
		return ""
	}
	return *o.Content
}

// TemplateInfo 模板生成时记录的模板快照
type TemplateInfo struct {
	TemplateID       uint              `json:"templateId"`
	TemplateName     string            `json:"templateName"`
	TemplatePlatform string            `json:"templatePlatform"`
	PlaceholdersUsed []string          `json:"placeholdersUsed"`
	TemplateData     map[string]string `json:"templateData,omitempty"`
	OriginalTemplate string            `json:"originalTemplate"`
}

// Value 实现 driver.Valuer 接口。
func (t TemplateInfo) Value() (driver.Value, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口。
func (t *TemplateInfo) Scan(value interface{}) error {
	return scanJSON(value, t)
}

// PlatformOutcomes 以 JSON 格式存储的平台结果列表
type PlatformOutcomes []PlatformOutcome

// Value 实现 driver.Valuer 接口。
func (o PlatformOutcomes) Value() (driver.Value, error) {
	if len(o) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal([]PlatformOutcome(o))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口。
func (o *PlatformOutcomes) Scan(value interface{}) error {
	return scanJSON(value, (*[]PlatformOutcome)(o))
}

func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported type for json column: %T", value)
	}
}

// DbGenerationRecord 持久化的生成记录，创建后不可修改
type DbGenerationRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	CreatedBy          uint   `gorm:"column:created_by;index" json:"createdBy"`
	Transcript         string `gorm:"column:transcript;type:text" json:"transcript"`
	OriginalTranscript string `gorm:"column:original_transcript;type:text" json:"originalTranscript"`
	Tone               Tone   `gorm:"column:tone;type:varchar(32);index" json:"tone"`

	Outcomes            PlatformOutcomes `gorm:"column:outcomes;type:json" json:"outcomes"`
	TemplateInfo        *TemplateInfo    `gorm:"column:template_info;type:json" json:"templateInfo,omitempty"`
	IsTemplateGenerated bool             `gorm:"column:is_template_generated" json:"isTemplateGenerated"`

	PlatformsRequested  StringArray `gorm:"column:platforms_requested;type:json" json:"platformsRequested"`
	SuccessfulPlatforms StringArray `gorm:"column:successful_platforms;type:json" json:"successfulPlatforms"`

	ClientIP  string `gorm:"column:client_ip;type:varchar(64)" json:"-"`
	UserAgent string `gorm:"column:user_agent;type:varchar(512)" json:"-"`
}

// TableName 指定表名
func (DbGenerationRecord) TableName() string {
	return "generation_records"
}

// GenerationSummary 请求级别的结果汇总
type GenerationSummary struct {
	Requested  int `json:"requested"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// GenerationResult 生成接口的响应
type GenerationResult struct {
	Success         bool              `json:"success"`
	Outcomes        []PlatformOutcome `json:"outcomes"`
	TemplateInfo    *TemplateInfo     `json:"templateInfo,omitempty"`
	ProcessedText   string            `json:"processedInputText"`
	Summary         GenerationSummary `json:"summary"`
	RecordID        uint              `json:"recordId,omitempty"`
	IsTemplateBased bool              `json:"isTemplateGenerated"`
}
