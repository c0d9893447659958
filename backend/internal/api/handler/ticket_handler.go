package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/service"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/response"
)

// TicketHandler 工单模块 HTTP 处理器
type TicketHandler struct {
	ticketSvc service.TicketService
}

func NewTicketHandler(ticketSvc service.TicketService) *TicketHandler {
	return &TicketHandler{ticketSvc: ticketSvc}
}

// CreateTicket 代用户建工单
// POST /api/v1/tickets
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ticket, err := h.ticketSvc.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 20001, "提单用户不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, ticket)
}

// ListTickets 工单列表
// GET /api/v1/tickets
func (h *TicketHandler) ListTickets(c *gin.Context) {
	var req dto.TicketListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.ticketSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, resp.Items, resp.Total, req.GetPage(), req.GetPageSize())
}

// GetTicket 工单详情
// GET /api/v1/tickets/:id
func (h *TicketHandler) GetTicket(c *gin.Context) {
	ticket, err := h.ticketSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			response.NotFound(c, 25001, "工单不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, ticket)
}

// UpdateTicket 更新工单内容或优先级
// PUT /api/v1/tickets/:id
func (h *TicketHandler) UpdateTicket(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ticket, err := h.ticketSvc.Update(c.Request.Context(), c.Param("id"), &req, actorID)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		if errors.Is(err, service.ErrTicketNotFound) {
			response.NotFound(c, 25001, "工单不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, ticket)
}

// AssignTicket 指派受理人
// PUT /api/v1/tickets/:id/assign
func (h *TicketHandler) AssignTicket(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AssignTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	err := h.ticketSvc.Assign(c.Request.Context(), c.Param("id"), &req, actorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			response.NotFound(c, 25001, "工单不存在")
		case errors.Is(err, service.ErrAssigneeNotFound):
			response.NotFound(c, 25002, "受理人不存在")
		case errors.Is(err, service.ErrAssigneeNoConsole):
			response.BadRequest(c, 25003, "受理人必须是后台角色")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// ChangeTicketStatus 工单状态流转；转入 resolved/closed 时可附结案说明
// PUT /api/v1/tickets/:id/status
func (h *TicketHandler) ChangeTicketStatus(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.TicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	err := h.ticketSvc.ChangeStatus(c.Request.Context(), c.Param("id"), model.TicketStatus(req.Status), req.ResolutionNote, actorID)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		if errors.Is(err, service.ErrTicketNotFound) {
			response.NotFound(c, 25001, "工单不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}
