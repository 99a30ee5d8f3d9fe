package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"repurpose/internal/entity"
	"repurpose/internal/model"
	"repurpose/internal/textproc"
)

const (
	previewLength  = 150
	activityWindow = 30 * 24 * time.Hour
)

// HistoryService 生成历史的查询、删除与统计
type HistoryService struct {
	records model.Persistence
	now     func() time.Time
}

func NewHistoryService(records model.Persistence) *HistoryService {
	return &HistoryService{records: records, now: time.Now}
}

// List 按记录分页，每条记录按成功的平台展开为多行
func (s *HistoryService) List(ctx context.Context, ownerID uint, q entity.HistoryQuery) (*entity.HistoryPage, error) {
	query := entity.RecordQuery{
		BaseParams: q.BaseParams,
		OwnerID:    ownerID,
		Search:     strings.TrimSpace(q.Search),
	}
	if tone := strings.TrimSpace(q.Tone); tone != "" && !strings.EqualFold(tone, "all") {
		parsed, err := entity.ParseTone(tone)
		if err != nil {
			return nil, invalid("tone", "%v", err)
		}
		query.Tone = parsed
	}
	if platform := strings.TrimSpace(q.Platform); platform != "" && !strings.EqualFold(platform, "all") {
		parsed, err := entity.ParsePlatform(platform)
		if err != nil {
			return nil, invalid("platform", "%v", err)
		}
		query.Platform = parsed
	}
	if q.DateRange != "" {
		since, err := rangeStart(q.DateRange, s.now())
		if err != nil {
			return nil, err
		}
		query.Since = &since
	}
	if query.SortBy == "" {
		query.SortBy = "createdAt"
		query.SortDesc = true
	}
	query.Normalize()

	if s.records == nil {
		return nil, &PersistenceError{Op: "list history", Err: errors.New("persistence not configured")}
	}
	records, meta, err := s.records.ListGenerationRecords(ctx, &query)
	if err != nil {
		return nil, &PersistenceError{Op: "list history", Err: err}
	}

	items := make([]entity.HistoryItem, 0, len(records))
	for i := range records {
		for _, outcome := range records[i].Outcomes {
			if !outcome.Success {
				continue
			}
			// 平台过滤作用在展开后的行上
			if query.Platform != "" && outcome.Platform != query.Platform {
				continue
			}
			items = append(items, newHistoryItem(&records[i], outcome))
		}
	}
	return &entity.HistoryPage{Items: items, Meta: meta}, nil
}

// Get 支持记录 id 或 "<id>_<platform>" 组合 id
func (s *HistoryService) Get(ctx context.Context, ownerID uint, id string) ([]entity.HistoryItem, error) {
	recordID, platform, err := parseHistoryID(id)
	if err != nil {
		return nil, err
	}
	record, err := s.load(ctx, ownerID, recordID, id)
	if err != nil {
		return nil, err
	}

	successful := successfulOutcomes(record.Outcomes)
	if platform == "" {
		items := make([]entity.HistoryItem, 0, len(successful))
		for _, outcome := range successful {
			items = append(items, newHistoryItem(record, outcome))
		}
		return items, nil
	}

	for _, outcome := range successful {
		if outcome.Platform == platform {
			item := newHistoryItem(record, outcome)
			item.AllFormats = successful
			return []entity.HistoryItem{item}, nil
		}
	}
	return nil, &NotFoundError{Resource: ResourceRecord, ID: id}
}

// Delete 删除整条记录，组合 id 同样删除其所属记录
func (s *HistoryService) Delete(ctx context.Context, ownerID uint, id string) error {
	recordID, _, err := parseHistoryID(id)
	if err != nil {
		return err
	}
	if s.records == nil {
		return &PersistenceError{Op: "delete record", Err: errors.New("persistence not configured")}
	}
	if err := s.records.DeleteGenerationRecord(ctx, recordID, ownerID); err != nil {
		return translateStoreError("delete record", ResourceRecord, id, err)
	}
	return nil
}

func (s *HistoryService) Stats(ctx context.Context, ownerID uint) (*entity.HistoryStats, error) {
	if s.records == nil {
		return nil, &PersistenceError{Op: "history stats", Err: errors.New("persistence not configured")}
	}

	total, err := s.records.CountGenerationRecords(ctx, ownerID)
	if err != nil {
		return nil, &PersistenceError{Op: "count records", Err: err}
	}
	tones, err := s.records.CountGenerationRecordsByTone(ctx, ownerID)
	if err != nil {
		return nil, &PersistenceError{Op: "count tones", Err: err}
	}
	platforms, err := s.records.CountSuccessfulPlatforms(ctx, ownerID)
	if err != nil {
		return nil, &PersistenceError{Op: "count platforms", Err: err}
	}
	recent, err := s.records.ListGenerationRecordsSince(ctx, ownerID, s.now().Add(-activityWindow))
	if err != nil {
		return nil, &PersistenceError{Op: "recent activity", Err: err}
	}

	var outputs int64
	for _, count := range platforms {
		outputs += count
	}

	return &entity.HistoryStats{
		TotalRecords:   total,
		TotalOutputs:   outputs,
		PlatformCounts: platforms,
		ToneCounts:     tones,
		RecentActivity: dailyActivity(recent),
	}, nil
}

func (s *HistoryService) load(ctx context.Context, ownerID, recordID uint, rawID string) (*entity.DbGenerationRecord, error) {
	if s.records == nil {
		return nil, &PersistenceError{Op: "load record", Err: errors.New("persistence not configured")}
	}
	record, err := s.records.GetGenerationRecord(ctx, recordID, ownerID)
	if err != nil {
		return nil, translateStoreError("load record", ResourceRecord, rawID, err)
	}
	return record, nil
}

func newHistoryItem(record *entity.DbGenerationRecord, outcome entity.PlatformOutcome) entity.HistoryItem {
	content := outcome.Text()
	metrics := outcomeMetrics(content)
	if outcome.Metrics != nil {
		metrics = outcome.Metrics
	}
	return entity.HistoryItem{
		ID:                  compositeID(record.ID, outcome.Platform),
		RecordID:            record.ID,
		Platform:            outcome.Platform,
		Content:             content,
		ContentPreview:      textproc.Snippet(content, previewLength),
		Title:               outcome.Title,
		Keywords:            outcome.Keywords,
		Source:              outcome.Source,
		Tone:                record.Tone,
		OriginalInput:       record.Transcript,
		CreatedAt:           record.CreatedAt,
		Metrics:             *metrics,
		IsTemplateGenerated: record.IsTemplateGenerated,
		TemplateInfo:        record.TemplateInfo,
	}
}

func successfulOutcomes(outcomes entity.PlatformOutcomes) []entity.PlatformOutcome {
	successful := make([]entity.PlatformOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Success && o.Content != nil {
			successful = append(successful, o)
		}
	}
	return successful
}

func compositeID(recordID uint, platform entity.Platform) string {
	return strconv.FormatUint(uint64(recordID), 10) + "_" + string(platform)
}

// parseHistoryID 解析 "<id>" 或 "<id>_<platform>"
func parseHistoryID(raw string) (uint, entity.Platform, error) {
	value := strings.TrimSpace(raw)
	idPart, platformPart, composite := strings.Cut(value, "_")

	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil || id == 0 {
		return 0, "", invalid("id", "must be a record id or <id>_<platform>")
	}
	if !composite {
		return uint(id), "", nil
	}
	platform, err := entity.ParsePlatform(platformPart)
	if err != nil {
		return 0, "", invalid("id", "%v", err)
	}
	return uint(id), platform, nil
}

// rangeStart 计算日期范围的起点，today 从当天零点开始
func rangeStart(dateRange string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(dateRange)) {
	case entity.DateRangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	case entity.DateRangeWeek:
		return now.AddDate(0, 0, -7), nil
	case entity.DateRangeMonth:
		return now.AddDate(0, -1, 0), nil
	case entity.DateRangeQuarter:
		return now.AddDate(0, -3, 0), nil
	case entity.DateRangeYear:
		return now.AddDate(-1, 0, 0), nil
	default:
		return time.Time{}, invalid("dateRange", "must be one of today, week, month, quarter, year")
	}
}

func dailyActivity(records []entity.DbGenerationRecord) []entity.DailyActivity {
	counts := make(map[string]int64)
	for _, record := range records {
		counts[record.CreatedAt.UTC().Format(time.DateOnly)]++
	}
	days := make([]string, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	sort.Strings(days)

	activity := make([]entity.DailyActivity, 0, len(days))
	for _, day := range days {
		activity = append(activity, entity.DailyActivity{Date: day, Count: counts[day]})
	}
	return activity
}
