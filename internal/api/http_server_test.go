package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"repurpose/internal/config"
	"repurpose/internal/entity"
	"repurpose/internal/llm"
	"repurpose/internal/model/sql"
	"repurpose/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type echoProvider struct {
	fail bool
}

func (p *echoProvider) ID() string { return "echo" }

func (p *echoProvider) Generate(ctx context.Context, prompt string) (*llm.Generation, error) {
	if p.fail {
		return nil, errors.New("upstream down")
	}
	return &llm.Generation{Title: "Echo", Content: "Generated post about the update."}, nil
}

type testServer struct {
	router  *gin.Engine
	handler *HTTPHandler
}

func newTestServer(t *testing.T, provider llm.Provider) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(&entity.DbTemplate{}, &entity.DbGenerationRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := sql.NewGormRepository(db)

	templates := service.NewTemplateService(repo)
	generation := service.NewGenerationService([]llm.Provider{provider}, templates, repo, nil, service.GenerationOptions{
		ProviderTimeout: time.Second,
	})
	t.Cleanup(generation.Wait)
	history := service.NewHistoryService(repo)

	cfg := config.Config{JWTSecret: "test-secret", JWTIssuer: "repurpose-test", AppEnv: "development"}
	handler, err := NewHTTPHandler(cfg, generation, templates, history)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	router := gin.New()
	router.Use(RequestIDMiddleware())
	handler.RegisterRoutes(router)
	return &testServer{router: router, handler: handler}
}

func (s *testServer) token(t *testing.T, userID uint) string {
	t.Helper()
	token, _, err := s.handler.authManager.GenerateToken(userID, fmt.Sprintf("user%d@example.com", userID))
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestGenerateAnonymous(t *testing.T) {
	srv := newTestServer(t, &echoProvider{})

	w := srv.do(t, http.MethodPost, "/api/generate", "", entity.GenerationRequest{
		Text:      "We shipped the new release today.",
		Tone:      "Casual",
		Platforms: []string{"Twitter", "LinkedIn"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected request id header")
	}

	result := decode[entity.GenerationResult](t, w)
	if !result.Success || len(result.Outcomes) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Outcomes[0].Platform != entity.PlatformTwitter || result.Outcomes[1].Platform != entity.PlatformLinkedIn {
		t.Fatalf("outcomes out of order: %+v", result.Outcomes)
	}
	if result.RecordID == 0 {
		t.Error("expected record to be persisted")
	}
}

func TestGenerateAllFailedStillReturns200(t *testing.T) {
	srv := newTestServer(t, &echoProvider{fail: true})

	w := srv.do(t, http.MethodPost, "/api/generate", "", entity.GenerationRequest{
		Text:      "Status update",
		Tone:      "Formal",
		Platforms: []string{"Email"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	result := decode[entity.GenerationResult](t, w)
	if result.Success || result.Outcomes[0].Error == "" || result.RecordID != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	srv := newTestServer(t, &echoProvider{})

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{
			name:   "未知语气",
			body:   entity.GenerationRequest{Text: "hi", Tone: "Sarcastic", Platforms: []string{"Twitter"}},
			status: http.StatusBadRequest,
			code:   ErrCodeValidation,
		},
		{
			name:   "缺少平台",
			body:   entity.GenerationRequest{Text: "hi", Tone: "Casual"},
			status: http.StatusBadRequest,
			code:   ErrCodeValidation,
		},
		{
			name:   "请求体格式错误",
			body:   "not an object",
			status: http.StatusBadRequest,
			code:   ErrCodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, http.MethodPost, "/api/generate", "", tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if got := decode[APIError](t, w); got.Code != tt.code {
				t.Fatalf("expected code %s, got %s", tt.code, got.Code)
			}
		})
	}
}

func TestGenerateRejectsBadToken(t *testing.T) {
	srv := newTestServer(t, &echoProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if got := decode[APIError](t, w); got.Code != ErrCodeSessionExpired {
		t.Fatalf("unexpected code %s", got.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(t, &echoProvider{})

	for _, path := range []string{"/api/templates", "/api/history", "/api/history/stats"} {
		t.Run(path, func(t *testing.T) {
			w := srv.do(t, http.MethodGet, path, "", nil)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/templates", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non bearer scheme, got %d", w.Code)
	}
}

func TestTemplateEndpoints(t *testing.T) {
	srv := newTestServer(t, &echoProvider{})
	owner := srv.token(t, 1)
	other := srv.token(t, 2)

	w := srv.do(t, http.MethodPost, "/api/templates", owner, entity.CreateTemplateRequest{
		Name:     "Launch",
		Content:  "Announcing {{product}} for {{audience}}",
		Platform: "Twitter",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[entity.TemplateView](t, w)
	if len(created.Placeholders) != 2 {
		t.Fatalf("unexpected placeholders %v", created.Placeholders)
	}
	path := fmt.Sprintf("/api/templates/%d", created.ID)

	w = srv.do(t, http.MethodPost, "/api/templates", owner, entity.CreateTemplateRequest{Name: "Launch", Content: "{{x}}"})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate name: expected 409, got %d", w.Code)
	}

	w = srv.do(t, http.MethodPost, "/api/templates", owner, entity.CreateTemplateRequest{Name: "Plain", Content: "no placeholders"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("no placeholder: expected 400, got %d", w.Code)
	}

	if w = srv.do(t, http.MethodGet, path, other, nil); w.Code != http.StatusNotFound {
		t.Fatalf("other owner: expected 404, got %d", w.Code)
	}
	if got := decode[APIError](t, w); got.Code != ErrCodeTemplateNotFound {
		t.Fatalf("unexpected code %s", got.Code)
	}

	name := "Launch v2"
	w = srv.do(t, http.MethodPatch, path, owner, entity.UpdateTemplateRequest{Name: &name})
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[entity.TemplateView](t, w); got.Name != name {
		t.Fatalf("expected renamed template, got %q", got.Name)
	}

	w = srv.do(t, http.MethodPost, path+"/duplicate", owner, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("duplicate: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[entity.TemplateView](t, w); got.Name != "Launch v2 (Copy)" {
		t.Fatalf("unexpected duplicate name %q", got.Name)
	}

	w = srv.do(t, http.MethodGet, "/api/templates?platform=Twitter", owner, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	list := decode[TemplateListResponse](t, w)
	if len(list.Items) != 2 || list.Meta.Total != 2 {
		t.Fatalf("unexpected list %+v", list)
	}

	if w = srv.do(t, http.MethodGet, "/api/templates/abc", owner, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid id: expected 400, got %d", w.Code)
	}

	if w = srv.do(t, http.MethodDelete, path, owner, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	if w = srv.do(t, http.MethodDelete, path, owner, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestGenerateFromTemplate(t *testing.T) {
	srv := newTestServer(t, &echoProvider{})
	owner := srv.token(t, 7)

	w := srv.do(t, http.MethodPost, "/api/templates", owner, entity.CreateTemplateRequest{
		Name:    "Recap",
		Content: "This week {{team}} closed {{count}} tickets",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", w.Code)
	}
	tpl := decode[entity.TemplateView](t, w)

	w = srv.do(t, http.MethodPost, "/api/generate", owner, entity.GenerationRequest{
		Tone:      "Professional",
		Platforms: []string{"LinkedIn"},
		Template: &entity.TemplateRequest{
			TemplateID: tpl.ID,
			Values:     map[string]string{"team": "Platform", "count": "12"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("generate: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	result := decode[entity.GenerationResult](t, w)
	if !result.IsTemplateBased || result.TemplateInfo == nil || result.ProcessedText != "This week Platform closed 12 tickets" {
		t.Fatalf("unexpected result %+v", result)
	}

	// 匿名用户无法使用他人的模板
	w = srv.do(t, http.MethodPost, "/api/generate", "", entity.GenerationRequest{
		Tone:      "Professional",
		Platforms: []string{"LinkedIn"},
		Template:  &entity.TemplateRequest{TemplateID: tpl.ID},
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("anonymous template: expected 404, got %d", w.Code)
	}
}

func TestPreviewTemplate(t *testing.T) {
	srv := newTestServer(t, &echoProvider{})

	w := srv.do(t, http.MethodPost, "/api/templates/preview", "", entity.PreviewRequest{
		Content:    "Hello {{name}}, welcome to {{place}}",
		Tone:       "Friendly",
		SampleData: map[string]string{"name": "Ada"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	raw := decode[map[string]json.RawMessage](t, w)
	for _, key := range []string{"content", "originalContent", "metadata"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("expected %q in response, got %s", key, w.Body.String())
		}
	}

	result := decode[entity.PreviewResult](t, w)
	if result.Metadata.HasAllPlaceholders || len(result.Metadata.MissingPlaceholders) != 1 {
		t.Fatalf("unexpected metadata %+v", result.Metadata)
	}
	if !strings.Contains(result.Content, "Ada") {
		t.Fatalf("expected sample value in content, got %q", result.Content)
	}

	if w = srv.do(t, http.MethodPost, "/api/templates/preview", "", entity.PreviewRequest{}); w.Code != http.StatusBadRequest {
		t.Fatalf("empty content: expected 400, got %d", w.Code)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	srv := newTestServer(t, &echoProvider{})
	owner := srv.token(t, 3)

	w := srv.do(t, http.MethodPost, "/api/generate", owner, entity.GenerationRequest{
		Text:      "Quarterly numbers are in",
		Tone:      "Informative",
		Platforms: []string{"Twitter", "Email"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("generate: expected 200, got %d", w.Code)
	}
	recordID := decode[entity.GenerationResult](t, w).RecordID

	w = srv.do(t, http.MethodGet, "/api/history?platform=Email", owner, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	page := decode[entity.HistoryPage](t, w)
	if len(page.Items) != 1 || page.Items[0].Platform != entity.PlatformEmail {
		t.Fatalf("unexpected page %+v", page)
	}

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/history/%d", recordID), owner, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	if detail := decode[HistoryDetailResponse](t, w); len(detail.Items) != 2 {
		t.Fatalf("expected both outputs, got %d", len(detail.Items))
	}

	if w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/history/%d", recordID), srv.token(t, 4), nil); w.Code != http.StatusNotFound {
		t.Fatalf("other owner: expected 404, got %d", w.Code)
	}

	w = srv.do(t, http.MethodGet, "/api/history/stats", owner, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", w.Code)
	}
	stats := decode[entity.HistoryStats](t, w)
	if stats.TotalRecords != 1 || stats.TotalOutputs != 2 || stats.ToneCounts["Informative"] != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if w = srv.do(t, http.MethodGet, "/api/history?dateRange=decade", owner, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid range: expected 400, got %d", w.Code)
	}

	if w = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/history/%d", recordID), owner, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	if w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/history/%d", recordID), owner, nil); w.Code != http.StatusNotFound {
		t.Fatalf("after delete: expected 404, got %d", w.Code)
	}
}
