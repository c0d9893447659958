package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OpenClique85/openclique-sub004/backend/pkg/metrics"
)

// Metrics HTTP 指标采集中间件
// 以路由模板（/api/v1/squads/:id）为 path 标签，避免按具体 ID 打散基数
func Metrics(m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			// 未匹配到路由的请求（404）归入同一个桶
			path = "unmatched"
		}
		m.RecordHTTPRequest(
			path,
			c.Request.Method,
			strconv.Itoa(c.Writer.Status()),
			float64(time.Since(start).Milliseconds()),
		)
	}
}
