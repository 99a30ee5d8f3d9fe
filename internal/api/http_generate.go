package api

import (
	"net/http"

	"repurpose/internal/entity"
	"repurpose/internal/service"

	"github.com/gin-gonic/gin"
)

// Generate 为每个请求的平台生成内容，部分平台失败仍返回 200
func (h *HTTPHandler) Generate(c *gin.Context) {
	if !h.servicesReady(c, h.generationService != nil) {
		return
	}

	var req entity.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	actor := service.Actor{
		UserID:    currentUserID(c),
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	result, err := h.generationService.Generate(c.Request.Context(), actor, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
