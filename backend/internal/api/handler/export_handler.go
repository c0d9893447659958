package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/service"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportSignups 导出某场次的报名名单
// GET /api/v1/export/signups?instance_id=xxx
func (h *ExportHandler) ExportSignups(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	instanceID := c.Query("instance_id")
	if instanceID == "" {
		response.BadRequest(c, 10001, "instance_id 不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportSignups(c.Request.Context(), instanceID, actorID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeDownload(c, filename, xlsxContentType, buf.Bytes())
}

// ExportTickets 按筛选条件导出工单
// GET /api/v1/export/tickets?status=open&priority=high
func (h *ExportHandler) ExportTickets(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.TicketListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportTickets(c.Request.Context(), &req, actorID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeDownload(c, filename, xlsxContentType, buf.Bytes())
}

// ExportAnomalies 导出异常巡检报告
// GET /api/v1/export/anomalies
func (h *ExportHandler) ExportAnomalies(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportAnomalies(c.Request.Context(), actorID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeDownload(c, filename, xlsxContentType, buf.Bytes())
}

// ExportCalendar 导出时间窗内已排期场次为 iCalendar
// GET /api/v1/export/calendar?from=2025-06-01&to=2025-06-30
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	from, to, err := parseCalendarWindow(c.Query("from"), c.Query("to"))
	if err != nil {
		response.BadRequest(c, 10001, "日期格式应为 2006-01-02 且 from 不晚于 to")
		return
	}

	buf, filename, err := h.exportSvc.ExportCalendar(c.Request.Context(), from, to, actorID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeDownload(c, filename, icsContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportsDisabled):
		response.Forbidden(c, 29001, "导出功能已关停")
	case errors.Is(err, service.ErrInstanceNotFound):
		response.NotFound(c, 22001, "场次不存在")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 29002, "生成导出文件失败")
	default:
		response.InternalError(c)
	}
}

// writeDownload 设置下载响应头并写出文件体；文件名含中文，走 RFC 5987 编码
func writeDownload(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, body)
}
