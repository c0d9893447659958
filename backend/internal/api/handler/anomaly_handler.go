package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/OpenClique85/openclique-sub004/backend/internal/service"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/response"
)

// AnomalyHandler 数据异常巡查 HTTP 处理器
type AnomalyHandler struct {
	anomalySvc service.AnomalyService
}

func NewAnomalyHandler(anomalySvc service.AnomalyService) *AnomalyHandler {
	return &AnomalyHandler{anomalySvc: anomalySvc}
}

// GetAnomalyReport 完整异常报告；?refresh=true 跳过缓存强制重算
// GET /api/v1/anomalies
func (h *AnomalyHandler) GetAnomalyReport(c *gin.Context) {
	refresh := c.Query("refresh") == "true"

	report, err := h.anomalySvc.GetReport(c.Request.Context(), refresh)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, report)
}

// GetAnomalySummary 异常计数摘要，供仪表盘轮询
// GET /api/v1/anomalies/summary
func (h *AnomalyHandler) GetAnomalySummary(c *gin.Context) {
	summary, err := h.anomalySvc.GetSummary(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, summary)
}
