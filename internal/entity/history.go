package entity

import "time"

// 历史记录日期范围
const (
	DateRangeToday   = "today"
	DateRangeWeek    = "week"
	DateRangeMonth   = "month"
	DateRangeQuarter = "quarter"
	DateRangeYear    = "year"
)

// RecordQuery 生成记录查询参数（仓库层）
type RecordQuery struct {
	BaseParams
	OwnerID  uint
	Tone     Tone
	Platform Platform
	Since    *time.Time
	Search   string
}

// HistoryQuery 历史记录查询参数（接口层）
type HistoryQuery struct {
	BaseParams
	Platform  string `form:"platform"`
	Tone      string `form:"tone"`
	DateRange string `form:"dateRange"`
	Search    string `form:"search"`
}

// HistoryItem 按平台展开后的历史条目
type HistoryItem struct {
	ID                  string            `json:"id"`
	RecordID            uint              `json:"recordId"`
	Platform            Platform          `json:"platform"`
	Content             string            `json:"content"`
	ContentPreview      string            `json:"contentPreview"`
	Title               string            `json:"title,omitempty"`
	Keywords            []string          `json:"keywords,omitempty"`
	Source              string            `json:"source,omitempty"`
	Tone                Tone              `json:"tone"`
	OriginalInput       string            `json:"originalInput"`
	CreatedAt           time.Time         `json:"createdAt"`
	Metrics             OutcomeMetrics    `json:"metrics"`
	IsTemplateGenerated bool              `json:"isTemplateGenerated"`
	TemplateInfo        *TemplateInfo     `json:"templateInfo,omitempty"`
	AllFormats          []PlatformOutcome `json:"allFormats,omitempty"`
}

// HistoryPage 历史记录分页结果
type HistoryPage struct {
	Items []HistoryItem `json:"items"`
	Meta  *Meta         `json:"meta"`
}

// DailyActivity 某一天的生成次数
type DailyActivity struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// HistoryStats 历史统计
type HistoryStats struct {
	TotalRecords   int64            `json:"totalRecords"`
	TotalOutputs   int64            `json:"totalOutputs"`
	PlatformCounts map[string]int64 `json:"platformCounts"`
	ToneCounts     map[string]int64 `json:"toneCounts"`
	RecentActivity []DailyActivity  `json:"recentActivity"`
}
