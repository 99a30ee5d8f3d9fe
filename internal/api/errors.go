package api

import (
	"errors"
	"net/http"

	"repurpose/internal/logctx"
	"repurpose/internal/service"

	"github.com/gin-gonic/gin"
)

// 错误码定义
const (
	// 通用错误码
	ErrCodeInvalidRequest     = "ERR_INVALID_REQUEST"
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeSessionExpired     = "ERR_SESSION_EXPIRED"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeInternalError      = "ERR_INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"

	// 业务错误码
	ErrCodeValidation       = "ERR_VALIDATION"
	ErrCodeMissingField     = "ERR_MISSING_FIELD"
	ErrCodeConflict         = "ERR_CONFLICT"
	ErrCodePersistence      = "ERR_PERSISTENCE"
	ErrCodeTemplateNotFound = "ERR_TEMPLATE_NOT_FOUND"
	ErrCodeRecordNotFound   = "ERR_RECORD_NOT_FOUND"
)

// APIError 统一的 API 错误响应结构
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse 返回统一格式的错误响应
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
	})
}

// ErrorResponseWithDetails 返回带详情的错误响应
func ErrorResponseWithDetails(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// BadRequest 400 错误请求
func BadRequest(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401 未授权
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// NotFound 404 资源不存在
func NotFound(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusNotFound, code, message)
}

// InternalError 500 服务器内部错误
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// ServiceUnavailable 503 服务不可用
func ServiceUnavailable(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message)
}

// MissingField 缺少必填字段
func MissingField(c *gin.Context, field string) {
	ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeMissingField, field+" is required", gin.H{"field": field})
}

// InvalidPayload 无效的请求体
func InvalidPayload(c *gin.Context) {
	ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload")
}

// respondError 将业务错误映射为 HTTP 响应，内部错误信息只在开发环境返回
func (h *HTTPHandler) respondError(c *gin.Context, err error) {
	var (
		validation  *service.ValidationError
		notFound    *service.NotFoundError
		conflict    *service.ConflictError
		persistence *service.PersistenceError
	)

	switch {
	case errors.As(err, &validation):
		ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeValidation, validation.Error(), gin.H{
			"field":  validation.Field,
			"reason": validation.Reason,
		})
	case errors.As(err, &notFound):
		code := ErrCodeNotFound
		switch notFound.Resource {
		case service.ResourceTemplate:
			code = ErrCodeTemplateNotFound
		case service.ResourceRecord:
			code = ErrCodeRecordNotFound
		}
		NotFound(c, code, notFound.Error())
	case errors.As(err, &conflict):
		ErrorResponseWithDetails(c, http.StatusConflict, ErrCodeConflict, conflict.Error(), gin.H{
			"field": conflict.Field,
		})
	case errors.As(err, &persistence):
		logctx.Entry(c.Request.Context()).WithError(err).Error("storage operation failed")
		h.internalError(c, http.StatusInternalServerError, ErrCodePersistence, "storage operation failed", err)
	default:
		logctx.Entry(c.Request.Context()).WithError(err).Error("unhandled error")
		h.internalError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error", err)
	}
}

func (h *HTTPHandler) internalError(c *gin.Context, status int, code, message string, err error) {
	if h != nil && h.cfg.IsDevelopment() {
		ErrorResponseWithDetails(c, status, code, message, gin.H{"error": err.Error()})
		return
	}
	ErrorResponse(c, status, code, message)
}
