package api

import (
	"net/http"
	"strings"

	"repurpose/internal/logctx"

	"github.com/gin-gonic/gin"
)

const (
	currentUserContextKey = "current-user"
)

// RequestUser 存储请求上下文中的认证用户信息，令牌由外部会话服务签发
type RequestUser struct {
	ID    uint
	Email string
}

// AuthMiddleware JWT 认证中间件，缺少或无效的令牌返回 401
func (h *HTTPHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "缺少授权头",
			})
			return
		}
		if !h.authenticate(c, header) {
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware 允许匿名访问，但携带的令牌必须有效
func (h *HTTPHandler) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header != "" && !h.authenticate(c, header) {
			return
		}
		c.Next()
	}
}

// authenticate 校验 Bearer 令牌并写入当前用户，失败时已写出响应
func (h *HTTPHandler) authenticate(c *gin.Context, header string) bool {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
			Code:    ErrCodeUnauthorized,
			Message: "无效的授权头格式",
		})
		return false
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
			Code:    ErrCodeUnauthorized,
			Message: "缺少 Bearer Token",
		})
		return false
	}

	claims, err := h.authManager.ParseToken(tokenString)
	if err != nil {
		logctx.Entry(c.Request.Context()).WithError(err).Warn("failed to parse jwt token")
		c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
			Code:    ErrCodeSessionExpired,
			Message: "Token 无效或已过期",
		})
		return false
	}

	c.Set(currentUserContextKey, &RequestUser{ID: claims.UserID, Email: claims.Email})
	return true
}

// CurrentUser 从上下文获取当前认证用户，匿名请求返回 nil
func CurrentUser(c *gin.Context) *RequestUser {
	value, exists := c.Get(currentUserContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*RequestUser)
	if !ok {
		return nil
	}
	return user
}

// currentUserID 匿名用户返回 0
func currentUserID(c *gin.Context) uint {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}
