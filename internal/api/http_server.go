package api

import (
	"net/http"
	"strconv"
	"time"

	"repurpose/internal/auth"
	"repurpose/internal/config"
	"repurpose/internal/service"

	"github.com/gin-gonic/gin"
)

const tokenExpiry = 24 * time.Hour

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg         config.Config
	authManager *auth.Manager

	// 服务层
	generationService *service.GenerationService
	templateService   *service.TemplateService
	historyService    *service.HistoryService
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, generation *service.GenerationService, templates *service.TemplateService, history *service.HistoryService) (*HTTPHandler, error) {
	authManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, tokenExpiry)
	if err != nil {
		return nil, err
	}

	return &HTTPHandler{
		cfg:               cfg,
		authManager:       authManager,
		generationService: generation,
		templateService:   templates,
		historyService:    history,
	}, nil
}

// RegisterRoutes 注册 /api 下的所有路由
func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	apiGroup := r.Group("/api")

	apiGroup.POST("/generate", h.OptionalAuthMiddleware(), h.Generate)
	apiGroup.POST("/templates/preview", h.PreviewTemplate)

	protected := apiGroup.Group("")
	protected.Use(h.AuthMiddleware())

	templates := protected.Group("/templates")
	templates.GET("", h.ListTemplates)
	templates.POST("", h.CreateTemplate)
	templates.GET("/:id", h.GetTemplate)
	templates.PATCH("/:id", h.UpdateTemplate)
	templates.DELETE("/:id", h.DeleteTemplate)
	templates.POST("/:id/duplicate", h.DuplicateTemplate)

	history := protected.Group("/history")
	history.GET("", h.ListHistory)
	history.GET("/stats", h.HistoryStats)
	history.GET("/:id", h.GetHistory)
	history.DELETE("/:id", h.DeleteHistory)
}

// parseUintParam 解析路径中的数字 id
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || value == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "invalid "+name)
		return 0, false
	}
	return uint(value), true
}

func (h *HTTPHandler) servicesReady(c *gin.Context, ready bool) bool {
	if !ready {
		ServiceUnavailable(c, "service not available")
		return false
	}
	return true
}

func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
