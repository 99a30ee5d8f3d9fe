package api

import (
	"context"
	"net/http"
	"time"

	"repurpose/internal/entity"

	"github.com/gin-gonic/gin"
)

// TemplateListResponse 模板列表响应
type TemplateListResponse struct {
	Items []entity.TemplateView `json:"items"`
	Meta  *entity.Meta          `json:"meta"`
}

func (h *HTTPHandler) ListTemplates(c *gin.Context) {
	if !h.servicesReady(c, h.templateService != nil) {
		return
	}

	var query entity.TemplateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	items, meta, err := h.templateService.List(ctx, currentUserID(c), query)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, TemplateListResponse{Items: items, Meta: meta})
}

func (h *HTTPHandler) CreateTemplate(c *gin.Context) {
	if !h.servicesReady(c, h.templateService != nil) {
		return
	}

	var req entity.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	view, err := h.templateService.Create(ctx, currentUserID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *HTTPHandler) GetTemplate(c *gin.Context) {
	if !h.servicesReady(c, h.templateService != nil) {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	view, err := h.templateService.Get(ctx, currentUserID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *HTTPHandler) UpdateTemplate(c *gin.Context) {
	if !h.servicesReady(c, h.templateService != nil) {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req entity.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	view, err := h.templateService.Update(ctx, currentUserID(c), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *HTTPHandler) DeleteTemplate(c *gin.Context) {
	if !h.servicesReady(c, h.templateService != nil) {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.templateService.Delete(ctx, currentUserID(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	respondNoContent(c)
}

func (h *HTTPHandler) DuplicateTemplate(c *gin.Context) {
	if !h.servicesReady(c, h.templateService != nil) {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	// 请求体可选
	var req entity.DuplicateTemplateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			InvalidPayload(c)
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	view, err := h.templateService.Duplicate(ctx, currentUserID(c), id, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// PreviewTemplate 不调用生成服务，无需登录
func (h *HTTPHandler) PreviewTemplate(c *gin.Context) {
	if !h.servicesReady(c, h.templateService != nil) {
		return
	}

	var req entity.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	result, err := h.templateService.Preview(req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
