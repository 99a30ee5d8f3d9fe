package api

import (
	"context"
	"net/http"
	"time"

	"repurpose/internal/entity"

	"github.com/gin-gonic/gin"
)

// HistoryDetailResponse 单条历史响应，组合 id 只返回一个条目
type HistoryDetailResponse struct {
	Items []entity.HistoryItem `json:"items"`
}

func (h *HTTPHandler) ListHistory(c *gin.Context) {
	if !h.servicesReady(c, h.historyService != nil) {
		return
	}

	var query entity.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	page, err := h.historyService.List(ctx, currentUserID(c), query)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *HTTPHandler) GetHistory(c *gin.Context) {
	if !h.servicesReady(c, h.historyService != nil) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	items, err := h.historyService.Get(ctx, currentUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, HistoryDetailResponse{Items: items})
}

func (h *HTTPHandler) DeleteHistory(c *gin.Context) {
	if !h.servicesReady(c, h.historyService != nil) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.historyService.Delete(ctx, currentUserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	respondNoContent(c)
}

func (h *HTTPHandler) HistoryStats(c *gin.Context) {
	if !h.servicesReady(c, h.historyService != nil) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.historyService.Stats(ctx, currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
