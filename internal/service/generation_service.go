package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"repurpose/internal/entity"
	"repurpose/internal/llm"
	"repurpose/internal/logctx"
	"repurpose/internal/metrics"
	"repurpose/internal/model"
	"repurpose/internal/postprocess"
	"repurpose/internal/prompt"
	"repurpose/internal/storage"
	"repurpose/internal/textproc"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	persistTimeout = 5 * time.Second
	archiveTimeout = 30 * time.Second
	archiveFolder  = "records"
)

var errNoProvider = errors.New("no generation provider configured")

// Actor 发起请求的用户，UserID 为 0 表示匿名
type Actor struct {
	UserID    uint
	ClientIP  string
	UserAgent string
}

// GenerationOptions 生成行为配置
type GenerationOptions struct {
	ProviderTimeout time.Duration
	EnrichOutput    bool
}

// GenerationService 内容生成服务：按平台并发调用生成服务链并汇总结果
type GenerationService struct {
	providers []llm.Provider
	templates *TemplateService
	records   model.Persistence
	archive   storage.Storage
	opts      GenerationOptions

	// background 跟踪异步归档任务
	background sync.WaitGroup
}

// NewGenerationService 创建生成服务实例，providers 按顺序依次回退
func NewGenerationService(providers []llm.Provider, templates *TemplateService, records model.Persistence, archive storage.Storage, opts GenerationOptions) *GenerationService {
	return &GenerationService{
		providers: providers,
		templates: templates,
		records:   records,
		archive:   archive,
		opts:      opts,
	}
}

// Wait 等待所有归档任务结束，用于优雅退出
func (s *GenerationService) Wait() {
	s.background.Wait()
}

// platformTask 单个平台任务的只读输入
type platformTask struct {
	text     string
	tone     entity.Tone
	title    string
	keywords []string
}

// Generate 校验请求、解析模板、并发生成各平台内容并持久化。
// 仅请求级校验失败（含模板不存在）会返回错误，单个平台失败只体现在对应结果中。
func (s *GenerationService) Generate(ctx context.Context, actor Actor, req entity.GenerationRequest) (*entity.GenerationResult, error) {
	tone, err := entity.ParseTone(req.Tone)
	if err != nil {
		return nil, invalid("tone", "%v", err)
	}
	platforms, err := parsePlatforms(req.Platforms)
	if err != nil {
		return nil, err
	}

	source := req.Text
	var templateInfo *entity.TemplateInfo
	if req.Template != nil {
		if strings.TrimSpace(req.Text) != "" {
			return nil, invalid("text", "must be empty when a template is used")
		}
		if s.templates == nil {
			return nil, invalid("template", "templates are not available")
		}
		source, templateInfo, err = s.templates.Resolve(ctx, actor.UserID, req.Template)
		if err != nil {
			return nil, err
		}
	}

	processed := textproc.Normalize(source)
	if processed == "" {
		return nil, invalid("text", "is empty after normalization")
	}

	task := platformTask{
		text:     processed,
		tone:     tone,
		title:    strings.TrimSpace(req.Title),
		keywords: req.Keywords,
	}

	// 各平台相互独立：不共享可变状态，也不因某个平台失败取消其它平台
	outcomes := make([]entity.PlatformOutcome, len(platforms))
	var group errgroup.Group
	group.SetLimit(len(platforms))
	for i, platform := range platforms {
		group.Go(func() error {
			outcomes[i] = s.generatePlatform(ctx, platform, task)
			return nil
		})
	}
	_ = group.Wait()

	result := aggregate(outcomes)
	result.TemplateInfo = templateInfo
	result.IsTemplateBased = templateInfo != nil
	result.ProcessedText = processed

	logctx.Entry(ctx).WithFields(logrus.Fields{
		"tone":       tone,
		"requested":  result.Summary.Requested,
		"successful": result.Summary.Successful,
		"failed":     result.Summary.Failed,
	}).Info("generation finished")

	if result.Summary.Successful > 0 {
		record := &entity.DbGenerationRecord{
			CreatedBy:           actor.UserID,
			Transcript:          processed,
			OriginalTranscript:  source,
			Tone:                tone,
			Outcomes:            entity.PlatformOutcomes(result.Outcomes),
			TemplateInfo:        templateInfo,
			IsTemplateGenerated: templateInfo != nil,
			PlatformsRequested:  platformLabels(platforms),
			SuccessfulPlatforms: successfulPlatforms(result.Outcomes),
			ClientIP:            actor.ClientIP,
			UserAgent:           actor.UserAgent,
		}
		if s.persist(ctx, record) {
			result.RecordID = record.ID
			s.archiveRecord(ctx, *record)
		}
	}

	return result, nil
}

// generatePlatform 依次尝试生成服务链，首个成功即停止，每次尝试都会记录
func (s *GenerationService) generatePlatform(ctx context.Context, platform entity.Platform, task platformTask) entity.PlatformOutcome {
	start := time.Now()
	outcome := entity.PlatformOutcome{Platform: platform}
	logger := logctx.Entry(ctx).WithField("platform", platform)

	text := prompt.Build(prompt.Input{
		Text:     task.text,
		Platform: platform,
		Tone:     task.tone,
		Title:    task.title,
		Keywords: task.keywords,
	})

	lastErr := errNoProvider
	for _, provider := range s.providers {
		attemptStart := time.Now()
		gen, err := llm.Invoke(ctx, provider, text, s.opts.ProviderTimeout)
		elapsed := time.Since(attemptStart)

		attempt := entity.ProviderAttempt{Provider: provider.ID(), LatencyMs: elapsed.Milliseconds()}
		if err != nil {
			attempt.Error = err.Error()
			outcome.Attempts = append(outcome.Attempts, attempt)
			metrics.ObserveProviderAttempt(provider.ID(), attemptResult(err), elapsed.Seconds())
			logger.WithError(err).WithFields(logrus.Fields{
				"provider":   provider.ID(),
				"latency_ms": attempt.LatencyMs,
			}).Warn("provider attempt failed")
			lastErr = err
			continue
		}
		outcome.Attempts = append(outcome.Attempts, attempt)
		metrics.ObserveProviderAttempt(provider.ID(), "ok", elapsed.Seconds())

		content := gen.Content
		if s.opts.EnrichOutput {
			content = postprocess.Enrich(content, task.tone, platform)
		}
		outcome.Content = &content
		outcome.Success = true
		outcome.Source = provider.ID()
		outcome.Title = firstNonEmpty(gen.Title, task.title)
		outcome.Keywords = gen.Keywords
		if len(outcome.Keywords) == 0 {
			outcome.Keywords = task.keywords
		}
		break
	}

	if !outcome.Success {
		outcome.Error = lastErr.Error()
	}
	outcome.LatencyMs = time.Since(start).Milliseconds()
	metrics.ObservePlatformOutcome(string(platform), outcome.Success)

	logger.WithFields(logrus.Fields{
		"success":    outcome.Success,
		"source":     outcome.Source,
		"latency_ms": outcome.LatencyMs,
	}).Debug("platform generation finished")
	return outcome
}

// persist 写入生成记录，失败只记录日志和指标，不影响响应
func (s *GenerationService) persist(ctx context.Context, record *entity.DbGenerationRecord) bool {
	if s.records == nil {
		return false
	}
	// 生成已完成，客户端断开也应保存结果
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.records.CreateGenerationRecord(persistCtx, record); err != nil {
		metrics.ObservePersistenceFailure("database")
		logctx.Entry(ctx).WithError(&PersistenceError{Op: "create generation record", Err: err}).
			Error("failed to persist generation record")
		return false
	}
	logctx.Entry(ctx).WithField("record_id", record.ID).Info("generation record saved")
	return true
}

// archiveRecord 异步将记录 JSON 归档到对象存储
func (s *GenerationService) archiveRecord(ctx context.Context, record entity.DbGenerationRecord) {
	if s.archive == nil {
		return
	}
	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer cancel()

		key, err := storage.SaveJSON(archiveCtx, s.archive, archiveFolder, fmt.Sprintf("record-%d", record.ID), record)
		logger := logctx.Entry(ctx).WithField("record_id", record.ID)
		if err != nil {
			metrics.ObservePersistenceFailure("archive")
			logger.WithError(err).Warn("failed to archive generation record")
			return
		}
		logger.WithField("key", key).Debug("generation record archived")
	}()
}

// aggregate 计算成功结果的统计信息与汇总
func aggregate(outcomes []entity.PlatformOutcome) *entity.GenerationResult {
	result := &entity.GenerationResult{
		Success:  true,
		Outcomes: outcomes,
		Summary:  entity.GenerationSummary{Requested: len(outcomes)},
	}
	for i := range outcomes {
		if !outcomes[i].Success {
			result.Summary.Failed++
			continue
		}
		result.Summary.Successful++
		outcomes[i].Metrics = outcomeMetrics(outcomes[i].Text())
	}
	return result
}

func outcomeMetrics(text string) *entity.OutcomeMetrics {
	words := textproc.WordCount(text)
	return &entity.OutcomeMetrics{
		WordCount:       words,
		CharacterCount:  textproc.CharCount(text),
		ReadTimeMinutes: textproc.ReadTime(words),
	}
}

// parsePlatforms 解析并去重，保留首次出现的顺序
func parsePlatforms(values []string) ([]entity.Platform, error) {
	if len(values) == 0 {
		return nil, invalid("platforms", "at least one platform is required")
	}
	seen := make(map[entity.Platform]struct{}, len(values))
	platforms := make([]entity.Platform, 0, len(values))
	for _, value := range values {
		platform, err := entity.ParsePlatform(value)
		if err != nil {
			return nil, invalid("platforms", "%v", err)
		}
		if _, ok := seen[platform]; ok {
			continue
		}
		seen[platform] = struct{}{}
		platforms = append(platforms, platform)
	}
	return platforms, nil
}

func platformLabels(platforms []entity.Platform) entity.StringArray {
	labels := make(entity.StringArray, 0, len(platforms))
	for _, p := range platforms {
		labels = append(labels, string(p))
	}
	return labels
}

func successfulPlatforms(outcomes []entity.PlatformOutcome) entity.StringArray {
	labels := entity.StringArray{}
	for _, o := range outcomes {
		if o.Success {
			labels = append(labels, string(o.Platform))
		}
	}
	return labels
}

func attemptResult(err error) string {
	var perr *llm.ProviderError
	if errors.As(err, &perr) {
		return string(perr.Kind)
	}
	return "error"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
