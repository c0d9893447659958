package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/service"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/response"
)

// SignupHandler 报名模块 HTTP 处理器
type SignupHandler struct {
	signupSvc service.SignupService
}

func NewSignupHandler(signupSvc service.SignupService) *SignupHandler {
	return &SignupHandler{signupSvc: signupSvc}
}

// CreateSignup 代用户报名场次
// POST /api/v1/signups
func (h *SignupHandler) CreateSignup(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	signup, err := h.signupSvc.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 20001, "用户不存在")
		case errors.Is(err, service.ErrInstanceNotFound):
			response.NotFound(c, 22001, "场次不存在")
		case errors.Is(err, service.ErrInstanceNotRecruiting):
			response.Conflict(c, 23003, "场次不在招募中，不能报名")
		case errors.Is(err, service.ErrAlreadySignedUp):
			response.Conflict(c, 23002, "该用户已报名此场次")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, signup)
}

// ListSignups 报名列表
// GET /api/v1/signups
func (h *SignupHandler) ListSignups(c *gin.Context) {
	var req dto.SignupListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.signupSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, resp.Items, resp.Total, req.GetPage(), req.GetPageSize())
}

// GetSignup 报名详情
// GET /api/v1/signups/:id
func (h *SignupHandler) GetSignup(c *gin.Context) {
	signup, err := h.signupSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSignupNotFound) {
			response.NotFound(c, 23001, "报名记录不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, signup)
}

// ChangeSignupStatus 报名状态流转（completed 走专用接口）
// PUT /api/v1/signups/:id/status
func (h *SignupHandler) ChangeSignupStatus(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SignupStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	err := h.signupSvc.ChangeStatus(c.Request.Context(), c.Param("id"), model.SignupStatus(req.Status), actorID)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		switch {
		case errors.Is(err, service.ErrSignupNotFound):
			response.NotFound(c, 23001, "报名记录不存在")
		case errors.Is(err, service.ErrUseCompleteFlow):
			response.BadRequest(c, 23004, "完成报名请走 complete 接口")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// CompleteSignup 完成报名并结算 XP；请求体可省略，省略时按任务模板默认值发放
// POST /api/v1/signups/:id/complete
func (h *SignupHandler) CompleteSignup(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req *dto.CompleteSignupRequest
	if c.Request.ContentLength > 0 {
		req = &dto.CompleteSignupRequest{}
		if err := c.ShouldBindJSON(req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	signup, err := h.signupSvc.Complete(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		switch {
		case errors.Is(err, service.ErrSignupNotFound):
			response.NotFound(c, 23001, "报名记录不存在")
		case errors.Is(err, service.ErrSignupNotConfirmed):
			response.Conflict(c, 23005, "仅已确认的报名可完成结算")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, signup)
}
