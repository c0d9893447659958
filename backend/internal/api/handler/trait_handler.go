package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/service"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/response"
)

// TraitHandler 特质模块 HTTP 处理器
type TraitHandler struct {
	traitSvc service.TraitService
}

func NewTraitHandler(traitSvc service.TraitService) *TraitHandler {
	return &TraitHandler{traitSvc: traitSvc}
}

// CreateTrait 新建特质定义
// POST /api/v1/traits
func (h *TraitHandler) CreateTrait(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateTraitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	trait, err := h.traitSvc.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		if errors.Is(err, service.ErrTraitKeyTaken) {
			response.Conflict(c, 27002, "特质 key 已存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, trait)
}

// ListTraits 特质列表
// GET /api/v1/traits
func (h *TraitHandler) ListTraits(c *gin.Context) {
	var req dto.TraitListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.traitSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, resp.Items, resp.Total, req.GetPage(), req.GetPageSize())
}

// GetTrait 特质详情（含持有人数）
// GET /api/v1/traits/:id
func (h *TraitHandler) GetTrait(c *gin.Context) {
	trait, err := h.traitSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTraitNotFound) {
			response.NotFound(c, 27001, "特质不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, trait)
}

// UpdateTrait 更新特质定义；key 不可改
// PUT /api/v1/traits/:id
func (h *TraitHandler) UpdateTrait(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateTraitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	trait, err := h.traitSvc.Update(c.Request.Context(), c.Param("id"), &req, actorID)
	if err != nil {
		if errors.Is(err, service.ErrTraitNotFound) {
			response.NotFound(c, 27001, "特质不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, trait)
}

// DeleteTrait 删除特质定义，连带收回所有已授予记录
// DELETE /api/v1/traits/:id
func (h *TraitHandler) DeleteTrait(c *gin.Context) {
	if err := h.traitSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrTraitNotFound) {
			response.NotFound(c, 27001, "特质不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// GrantTrait 向用户授予特质
// POST /api/v1/traits/:id/grant
func (h *TraitHandler) GrantTrait(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.GrantTraitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	err := h.traitSvc.Grant(c.Request.Context(), c.Param("id"), &req, actorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTraitNotFound):
			response.NotFound(c, 27001, "特质不存在")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 20001, "用户不存在")
		case errors.Is(err, service.ErrTraitAlreadyGranted):
			response.Conflict(c, 27003, "该用户已拥有此特质")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// RevokeTrait 收回用户的特质
// DELETE /api/v1/traits/:id/grant/:userId
func (h *TraitHandler) RevokeTrait(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	err := h.traitSvc.Revoke(c.Request.Context(), c.Param("id"), c.Param("userId"), actorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTraitNotFound):
			response.NotFound(c, 27001, "特质不存在")
		case errors.Is(err, service.ErrTraitNotGranted):
			response.NotFound(c, 27004, "该用户未拥有此特质")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}
