package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/service"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/response"
)

// InstanceHandler 场次模块 HTTP 处理器
type InstanceHandler struct {
	instanceSvc service.InstanceService
}

// NewInstanceHandler 创建 InstanceHandler
func NewInstanceHandler(instanceSvc service.InstanceService) *InstanceHandler {
	return &InstanceHandler{instanceSvc: instanceSvc}
}

// CreateInstance 从任务模板排一个场次
// POST /api/v1/quests/:id/instances
func (h *InstanceHandler) CreateInstance(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	instance, err := h.instanceSvc.CreateFromQuest(c.Request.Context(), c.Param("id"), &req, actorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuestNotFound):
			response.NotFound(c, 21001, "任务模板不存在")
		case errors.Is(err, service.ErrQuestRetired):
			response.Conflict(c, 22002, "已退役的任务模板不能排期")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, instance)
}

// ListInstances 场次列表
// GET /api/v1/instances
func (h *InstanceHandler) ListInstances(c *gin.Context) {
	var req dto.InstanceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.instanceSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, resp.Items, resp.Total, req.GetPage(), req.GetPageSize())
}

// GetInstance 场次详情（含报名计数）
// GET /api/v1/instances/:id
func (h *InstanceHandler) GetInstance(c *gin.Context) {
	instance, err := h.instanceSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrInstanceNotFound) {
			response.NotFound(c, 22001, "场次不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, instance)
}

// UpdateInstance 更新场次信息
// PUT /api/v1/instances/:id
func (h *InstanceHandler) UpdateInstance(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	instance, err := h.instanceSvc.Update(c.Request.Context(), c.Param("id"), &req, actorID)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		if errors.Is(err, service.ErrInstanceNotFound) {
			response.NotFound(c, 22001, "场次不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, instance)
}

// ChangeInstanceStatus 场次状态流转
// PUT /api/v1/instances/:id/status
func (h *InstanceHandler) ChangeInstanceStatus(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.InstanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	err := h.instanceSvc.ChangeStatus(c.Request.Context(), c.Param("id"), model.InstanceStatus(req.Status), actorID)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		if errors.Is(err, service.ErrInstanceNotFound) {
			response.NotFound(c, 22001, "场次不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// Calendar 日历视图：窗口内已排期的场次
// GET /api/v1/instances/calendar?from=2025-06-01&to=2025-06-30
// 缺省窗口为当天起 30 天
func (h *InstanceHandler) Calendar(c *gin.Context) {
	from, to, err := parseCalendarWindow(c.Query("from"), c.Query("to"))
	if err != nil {
		response.BadRequest(c, 10001, "日期格式应为 2006-01-02 且 from 不晚于 to")
		return
	}

	items, err := h.instanceSvc.Calendar(c.Request.Context(), from, to)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, items)
}

// DeleteInstance 删除场次（仅草稿或已取消）
// DELETE /api/v1/instances/:id
func (h *InstanceHandler) DeleteInstance(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.instanceSvc.Delete(c.Request.Context(), c.Param("id"), actorID); err != nil {
		switch {
		case errors.Is(err, service.ErrInstanceNotFound):
			response.NotFound(c, 22001, "场次不存在")
		case errors.Is(err, service.ErrInstanceNotDeletable):
			response.Conflict(c, 22003, "仅草稿或已取消的场次可删除")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// parseCalendarWindow 解析日历时间窗；to 取当天末尾，含当天整天
func parseCalendarWindow(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 30)

	var err error
	if fromStr != "" {
		if from, err = time.ParseInLocation("2006-01-02", fromStr, now.Location()); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toStr != "" {
		if to, err = time.ParseInLocation("2006-01-02", toStr, now.Location()); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	to = to.Add(24*time.Hour - time.Nanosecond)
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("时间窗颠倒")
	}
	return from, to, nil
}
