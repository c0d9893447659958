package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OpenClique85/openclique-sub004/backend/pkg/redis"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/response"
)

// RateLimit 基于 Redis 滑动窗口的速率限制中间件
// 按 客户端IP+路由模板 计数，limit 为窗口内最大请求数。
// rdb 为 nil 或查询出错时降级放行（与 JWTAuth 的黑名单策略一致）。
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", c.ClientIP(), c.FullPath())
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", retryAfter)
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
