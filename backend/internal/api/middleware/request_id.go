package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	requestIDMaxLen = 64
)

// RequestID 请求追踪 ID 中间件
// 优先沿用调用方传入的 X-Request-ID，便于跨服务串联日志；
// 传入值不可用时生成 UUID。结果写入 gin.Context 与响应头。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := sanitizeRequestID(c.GetHeader(requestIDHeader))
		if rid == "" {
			rid = uuid.New().String()
		}

		c.Set(requestIDKey, rid)
		c.Header(requestIDHeader, rid)

		c.Next()
	}
}

// sanitizeRequestID 过滤外部传入的追踪 ID，防止日志注入
// 超长或含不可见字符的一律弃用，返回空串由调用方重新生成
func sanitizeRequestID(rid string) string {
	if rid == "" || len(rid) > requestIDMaxLen {
		return ""
	}
	for i := 0; i < len(rid); i++ {
		if rid[i] <= 0x20 || rid[i] >= 0x7f {
			return ""
		}
	}
	return rid
}
