package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/service"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/response"
)

// AuditHandler 审计日志 HTTP 处理器
type AuditHandler struct {
	auditSvc service.AuditService
}

func NewAuditHandler(auditSvc service.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// ListAuditLogs 审计日志查询，支持按操作人 / 动作 / 对象过滤
// GET /api/v1/audit-logs
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	var req dto.AuditLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.auditSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, resp.Items, resp.Total, req.GetPage(), req.GetPageSize())
}
