package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/service"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/response"
)

// ModerationHandler 举报处置模块 HTTP 处理器
type ModerationHandler struct {
	moderationSvc service.ModerationService
}

func NewModerationHandler(moderationSvc service.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationSvc: moderationSvc}
}

// CreateReport 录入举报（通常来自站内上报渠道的人工转录）
// POST /api/v1/reports
func (h *ModerationHandler) CreateReport(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	report, err := h.moderationSvc.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 20001, "举报人不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, report)
}

// ListReports 举报列表
// GET /api/v1/reports
func (h *ModerationHandler) ListReports(c *gin.Context) {
	var req dto.ReportListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.moderationSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, resp.Items, resp.Total, req.GetPage(), req.GetPageSize())
}

// GetReport 举报详情
// GET /api/v1/reports/:id
func (h *ModerationHandler) GetReport(c *gin.Context) {
	report, err := h.moderationSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			response.NotFound(c, 26001, "举报不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, report)
}

// ChangeReportStatus 举报处置流转；actioned/dismissed 为终态
// PUT /api/v1/reports/:id/status
func (h *ModerationHandler) ChangeReportStatus(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ReportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	err := h.moderationSvc.ChangeStatus(c.Request.Context(), c.Param("id"), model.ReportStatus(req.Status), req.ResolutionNote, actorID)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		if errors.Is(err, service.ErrReportNotFound) {
			response.NotFound(c, 26001, "举报不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}
