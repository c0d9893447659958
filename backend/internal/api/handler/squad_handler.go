package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/service"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/response"
)

// SquadHandler 小队模块 HTTP 处理器
type SquadHandler struct {
	squadSvc service.SquadService
}

func NewSquadHandler(squadSvc service.SquadService) *SquadHandler {
	return &SquadHandler{squadSvc: squadSvc}
}

// CreateSquad 组建小队（可带初始成员）
// POST /api/v1/squads
func (h *SquadHandler) CreateSquad(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateSquadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	squad, err := h.squadSvc.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInstanceNotFound):
			response.NotFound(c, 22001, "场次不存在")
		case errors.Is(err, service.ErrMemberNotSignedUp):
			response.Conflict(c, 24003, "初始成员必须已报名该场次")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, squad)
}

// ListSquads 小队列表
// GET /api/v1/squads
func (h *SquadHandler) ListSquads(c *gin.Context) {
	var req dto.SquadListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.squadSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, resp.Items, resp.Total, req.GetPage(), req.GetPageSize())
}

// SquadActivity 活跃小队聊天巡查面板；结果来自后台巡查写入的缓存
// GET /api/v1/squads/activity
func (h *SquadHandler) SquadActivity(c *gin.Context) {
	panel, err := h.squadSvc.ActivityPanel(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, panel)
}

// GetSquad 小队详情（含成员与热身进度）
// GET /api/v1/squads/:id
func (h *SquadHandler) GetSquad(c *gin.Context) {
	squad, err := h.squadSvc.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSquadNotFound) {
			response.NotFound(c, 24001, "小队不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, squad)
}

// UpdateSquad 更新小队信息
// PUT /api/v1/squads/:id
func (h *SquadHandler) UpdateSquad(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateSquadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	squad, err := h.squadSvc.Update(c.Request.Context(), c.Param("id"), &req, actorID)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		if errors.Is(err, service.ErrSquadNotFound) {
			response.NotFound(c, 24001, "小队不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, squad)
}

// ChangeSquadStatus 小队状态流转
// PUT /api/v1/squads/:id/status
func (h *SquadHandler) ChangeSquadStatus(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SquadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	err := h.squadSvc.ChangeStatus(c.Request.Context(), c.Param("id"), model.SquadStatus(req.Status), actorID)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		switch {
		case errors.Is(err, service.ErrSquadNotFound):
			response.NotFound(c, 24001, "小队不存在")
		case errors.Is(err, service.ErrWarmupIncomplete):
			response.Conflict(c, 24006, "热身清单未完成，不能转入就绪")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// SquadWarmup 热身进度清单
// GET /api/v1/squads/:id/warmup
func (h *SquadHandler) SquadWarmup(c *gin.Context) {
	progress, err := h.squadSvc.Warmup(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSquadNotFound) {
			response.NotFound(c, 24001, "小队不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, progress)
}

// AddSquadMember 拉人入队
// POST /api/v1/squads/:id/members
func (h *SquadHandler) AddSquadMember(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AddSquadMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	err := h.squadSvc.AddMember(c.Request.Context(), c.Param("id"), &req, actorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSquadNotFound):
			response.NotFound(c, 24001, "小队不存在")
		case errors.Is(err, service.ErrSquadTerminal):
			response.Conflict(c, 24002, "已结束的小队不能调整成员")
		case errors.Is(err, service.ErrMemberNotSignedUp):
			response.Conflict(c, 24003, "该用户未报名此场次，不能入队")
		case errors.Is(err, service.ErrAlreadyMember):
			response.Conflict(c, 24004, "该用户已在队内")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// UpdateSquadMember 更新成员角色或热身状态
// PUT /api/v1/squads/:id/members/:memberId
func (h *SquadHandler) UpdateSquadMember(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateSquadMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	err := h.squadSvc.UpdateMember(c.Request.Context(), c.Param("id"), c.Param("memberId"), &req, actorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSquadNotFound):
			response.NotFound(c, 24001, "小队不存在")
		case errors.Is(err, service.ErrSquadTerminal):
			response.Conflict(c, 24002, "已结束的小队不能调整成员")
		case errors.Is(err, service.ErrMemberNotFound):
			response.NotFound(c, 24005, "小队成员不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// ListSquadChat 小队聊天记录（倒序分页，供人工巡查）
// GET /api/v1/squads/:id/chat
func (h *SquadHandler) ListSquadChat(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	items, total, err := h.squadSvc.ListChat(c.Request.Context(), c.Param("id"), &page)
	if err != nil {
		if errors.Is(err, service.ErrSquadNotFound) {
			response.NotFound(c, 24001, "小队不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OKPage(c, items, total, page.GetPage(), page.GetPageSize())
}

// [自证通过] internal/api/handler/squad_handler.go
