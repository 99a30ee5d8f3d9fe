package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"repurpose/internal/entity"
	"repurpose/internal/model"
	"repurpose/internal/postprocess"
	"repurpose/internal/textproc"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxTemplateNameLength = 255

// TemplateService 模板管理与解析
type TemplateService struct {
	store model.TemplateStore
}

func NewTemplateService(store model.TemplateStore) *TemplateService {
	return &TemplateService{store: store}
}

// Resolve 加载模板并填充占位符，返回生成用文本和模板快照
func (s *TemplateService) Resolve(ctx context.Context, ownerID uint, req *entity.TemplateRequest) (string, *entity.TemplateInfo, error) {
	if req == nil || req.TemplateID == 0 {
		return "", nil, invalid("template.templateId", "is required")
	}
	tpl, err := s.load(ctx, req.TemplateID, ownerID)
	if err != nil {
		return "", nil, err
	}

	text, used := textproc.FillPlaceholders(tpl.Content, req.Values)
	return text, &entity.TemplateInfo{
		TemplateID:       tpl.ID,
		TemplateName:     tpl.Name,
		TemplatePlatform: entity.Platform(tpl.Platform).Label(),
		PlaceholdersUsed: used,
		TemplateData:     req.Values,
		OriginalTemplate: tpl.Content,
	}, nil
}

func (s *TemplateService) Create(ctx context.Context, ownerID uint, req entity.CreateTemplateRequest) (*entity.TemplateView, error) {
	name, err := validateTemplateName(req.Name)
	if err != nil {
		return nil, err
	}
	content, err := validateTemplateContent(req.Content)
	if err != nil {
		return nil, err
	}
	platform, err := parseTemplatePlatform(req.Platform)
	if err != nil {
		return nil, err
	}

	if err := s.storeReady("create template"); err != nil {
		return nil, err
	}
	if err := s.ensureNameAvailable(ctx, ownerID, name, 0); err != nil {
		return nil, err
	}

	tpl := &entity.DbTemplate{
		Name:      name,
		Content:   content,
		Platform:  platform,
		CreatedBy: ownerID,
		UpdatedBy: ownerID,
	}
	if err := s.store.CreateTemplate(ctx, tpl); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Field: "name", Value: name}
		}
		return nil, &PersistenceError{Op: "create template", Err: err}
	}

	logrus.WithFields(logrus.Fields{"template_id": tpl.ID, "owner_id": ownerID}).Info("template created")
	return newTemplateView(tpl), nil
}

func (s *TemplateService) List(ctx context.Context, ownerID uint, query entity.TemplateQuery) ([]entity.TemplateView, *entity.Meta, error) {
	if err := s.storeReady("list templates"); err != nil {
		return nil, nil, err
	}
	query.OwnerID = ownerID
	if trimmed := strings.TrimSpace(query.Platform); trimmed != "" {
		platform, err := entity.ParseOptionalPlatform(trimmed)
		if err != nil {
			return nil, nil, invalid("platform", "%v", err)
		}
		query.Platform = platform.Label()
	}
	query.Normalize()

	templates, meta, err := s.store.ListTemplates(ctx, &query)
	if err != nil {
		return nil, nil, &PersistenceError{Op: "list templates", Err: err}
	}
	views := make([]entity.TemplateView, 0, len(templates))
	for i := range templates {
		views = append(views, *newTemplateView(&templates[i]))
	}
	return views, meta, nil
}

func (s *TemplateService) Get(ctx context.Context, ownerID, id uint) (*entity.TemplateView, error) {
	tpl, err := s.load(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return newTemplateView(tpl), nil
}

// Update 部分更新，未提供的字段保持不变
func (s *TemplateService) Update(ctx context.Context, ownerID, id uint, req entity.UpdateTemplateRequest) (*entity.TemplateView, error) {
	if _, err := s.load(ctx, id, ownerID); err != nil {
		return nil, err
	}

	var updates entity.TemplateUpdates
	if req.Name != nil {
		name, err := validateTemplateName(*req.Name)
		if err != nil {
			return nil, err
		}
		if err := s.ensureNameAvailable(ctx, ownerID, name, id); err != nil {
			return nil, err
		}
		updates.Name = &name
	}
	if req.Content != nil {
		content, err := validateTemplateContent(*req.Content)
		if err != nil {
			return nil, err
		}
		updates.Content = &content
	}
	if req.Platform != nil {
		platform, err := parseTemplatePlatform(*req.Platform)
		if err != nil {
			return nil, err
		}
		updates.Platform = &platform
	}
	if updates.IsEmpty() {
		return nil, invalid("body", "no fields to update")
	}
	updates.UpdatedBy = &ownerID

	if err := s.store.UpdateTemplate(ctx, id, ownerID, updates); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) && updates.Name != nil {
			return nil, &ConflictError{Field: "name", Value: *updates.Name}
		}
		return nil, translateStoreError("update template", ResourceTemplate, idString(id), err)
	}
	return s.Get(ctx, ownerID, id)
}

func (s *TemplateService) Delete(ctx context.Context, ownerID, id uint) error {
	if err := s.storeReady("delete template"); err != nil {
		return err
	}
	if err := s.store.DeleteTemplate(ctx, id, ownerID); err != nil {
		return translateStoreError("delete template", ResourceTemplate, idString(id), err)
	}
	logrus.WithFields(logrus.Fields{"template_id": id, "owner_id": ownerID}).Info("template deleted")
	return nil
}

// Duplicate 复制模板，默认名称为 "<name> (Copy)"
func (s *TemplateService) Duplicate(ctx context.Context, ownerID, id uint, name string) (*entity.TemplateView, error) {
	original, err := s.load(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = original.Name + " (Copy)"
	}
	return s.Create(ctx, ownerID, entity.CreateTemplateRequest{
		Name:     name,
		Content:  original.Content,
		Platform: original.Platform,
	})
}

// Preview 不调用生成服务，直接套用语气与平台规则
func (s *TemplateService) Preview(req entity.PreviewRequest) (*entity.PreviewResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, invalid("content", "is required")
	}
	tone := entity.ToneProfessional
	if strings.TrimSpace(req.Tone) != "" {
		parsed, err := entity.ParseTone(req.Tone)
		if err != nil {
			return nil, invalid("tone", "%v", err)
		}
		tone = parsed
	}
	platform, err := entity.ParseOptionalPlatform(req.Platform)
	if err != nil {
		return nil, invalid("platform", "%v", err)
	}

	result := postprocess.Preview(req.Content, tone, req.SampleData, platform)
	return &result, nil
}

// storeReady 未配置数据库时只支持预览
func (s *TemplateService) storeReady(op string) error {
	if s == nil || s.store == nil {
		return &PersistenceError{Op: op, Err: errors.New("template store not configured")}
	}
	return nil
}

func (s *TemplateService) load(ctx context.Context, id, ownerID uint) (*entity.DbTemplate, error) {
	if err := s.storeReady("load template"); err != nil {
		return nil, err
	}
	tpl, err := s.store.GetTemplateForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, translateStoreError("load template", ResourceTemplate, idString(id), err)
	}
	return tpl, nil
}

func (s *TemplateService) ensureNameAvailable(ctx context.Context, ownerID uint, name string, excludeID uint) error {
	exists, err := s.store.TemplateNameExists(ctx, ownerID, name, excludeID)
	if err != nil {
		return &PersistenceError{Op: "check template name", Err: err}
	}
	if exists {
		return &ConflictError{Field: "name", Value: name}
	}
	return nil
}

func newTemplateView(tpl *entity.DbTemplate) *entity.TemplateView {
	return &entity.TemplateView{
		DbTemplate:   *tpl,
		Placeholders: textproc.ExtractPlaceholders(tpl.Content),
	}
}

func validateTemplateName(value string) (string, error) {
	name := strings.TrimSpace(value)
	if name == "" {
		return "", invalid("name", "is required")
	}
	if utf8.RuneCountInString(name) > maxTemplateNameLength {
		return "", invalid("name", "must be at most %d characters", maxTemplateNameLength)
	}
	return name, nil
}

func validateTemplateContent(value string) (string, error) {
	content := strings.TrimSpace(value)
	if content == "" {
		return "", invalid("content", "is required")
	}
	if !textproc.HasPlaceholder(content) {
		return "", invalid("content", "must contain at least one {{placeholder}}")
	}
	return content, nil
}

// parseTemplatePlatform 返回存储值，generic 存为空串
func parseTemplatePlatform(value string) (string, error) {
	platform, err := entity.ParseOptionalPlatform(value)
	if err != nil {
		return "", invalid("platform", "%v", err)
	}
	return string(platform), nil
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
