package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/service"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/response"
)

// QuestHandler 任务模板模块 HTTP 处理器
type QuestHandler struct {
	questSvc service.QuestService
}

// NewQuestHandler 创建 QuestHandler
func NewQuestHandler(questSvc service.QuestService) *QuestHandler {
	return &QuestHandler{questSvc: questSvc}
}

// CreateQuest 创建任务模板
// POST /api/v1/quests
func (h *QuestHandler) CreateQuest(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	quest, err := h.questSvc.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.Created(c, quest)
}

// ListQuests 任务模板列表
// GET /api/v1/quests
func (h *QuestHandler) ListQuests(c *gin.Context) {
	var req dto.QuestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.questSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, resp.Items, resp.Total, req.GetPage(), req.GetPageSize())
}

// GetQuest 任务模板详情
// GET /api/v1/quests/:id
func (h *QuestHandler) GetQuest(c *gin.Context) {
	quest, err := h.questSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrQuestNotFound) {
			response.NotFound(c, 21001, "任务模板不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, quest)
}

// UpdateQuest 更新任务模板
// PUT /api/v1/quests/:id
func (h *QuestHandler) UpdateQuest(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	quest, err := h.questSvc.Update(c.Request.Context(), c.Param("id"), &req, actorID)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		if errors.Is(err, service.ErrQuestNotFound) {
			response.NotFound(c, 21001, "任务模板不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, quest)
}

// DeleteQuest 删除任务模板（软删除，历史场次保留）
// DELETE /api/v1/quests/:id
func (h *QuestHandler) DeleteQuest(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.questSvc.Delete(c.Request.Context(), c.Param("id"), actorID); err != nil {
		if errors.Is(err, service.ErrQuestNotFound) {
			response.NotFound(c, 21001, "任务模板不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}
