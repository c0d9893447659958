package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/OpenClique85/openclique-sub004/backend/pkg/response"
)

// contextString 从 Gin 上下文取非空字符串；缺失或类型不符视为未认证
func contextString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// JWT 中间件未注入时写入 401 响应；调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s, ok := contextString(c, "user_id")
	if !ok {
		response.Unauthorized(c, 10002, "未认证")
	}
	return s, ok
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	s, ok := contextString(c, "role")
	if !ok {
		response.Unauthorized(c, 10002, "未认证")
	}
	return s, ok
}
