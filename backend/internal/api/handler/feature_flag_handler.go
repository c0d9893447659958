package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/service"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/response"
)

// FeatureFlagHandler 功能开关模块 HTTP 处理器
type FeatureFlagHandler struct {
	flagSvc service.FeatureFlagService
}

func NewFeatureFlagHandler(flagSvc service.FeatureFlagService) *FeatureFlagHandler {
	return &FeatureFlagHandler{flagSvc: flagSvc}
}

// ListFlags 全量开关列表（数量少，不分页）
// GET /api/v1/feature-flags
func (h *FeatureFlagHandler) ListFlags(c *gin.Context) {
	resp, err := h.flagSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, resp)
}

// GetFlag 单个开关
// GET /api/v1/feature-flags/:key
func (h *FeatureFlagHandler) GetFlag(c *gin.Context) {
	flag, err := h.flagSvc.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, service.ErrFlagNotFound) {
			response.NotFound(c, 28001, "功能开关不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, flag)
}

// UpsertFlag 创建或覆盖开关；key 取自路径，幂等
// PUT /api/v1/feature-flags/:key
func (h *FeatureFlagHandler) UpsertFlag(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpsertFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	flag, err := h.flagSvc.Upsert(c.Request.Context(), c.Param("key"), &req, actorID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, flag)
}

// DeleteFlag 删除开关，读取方回退到配置文件缺省值
// DELETE /api/v1/feature-flags/:key
func (h *FeatureFlagHandler) DeleteFlag(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.flagSvc.Delete(c.Request.Context(), c.Param("key"), actorID); err != nil {
		if errors.Is(err, service.ErrFlagNotFound) {
			response.NotFound(c, 28001, "功能开关不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}
