package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/repository"
)

var ErrQuestNotFound = errors.New("任务模板不存在")

// QuestService 任务模板业务接口
type QuestService interface {
	Create(ctx context.Context, req *dto.CreateQuestRequest, actorID string) (*dto.QuestResponse, error)
	Get(ctx context.Context, id string) (*dto.QuestResponse, error)
	List(ctx context.Context, req *dto.QuestListRequest) (*dto.QuestListResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateQuestRequest, actorID string) (*dto.QuestResponse, error)
	Delete(ctx context.Context, id, actorID string) error
}

type questService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewQuestService 创建 QuestService 实例
func NewQuestService(repo *repository.Repository, logger *zap.Logger) QuestService {
	return &questService{repo: repo, logger: logger}
}

func (s *questService) Create(ctx context.Context, req *dto.CreateQuestRequest, actorID string) (*dto.QuestResponse, error) {
	category := req.Category
	if category == "" {
		category = "general"
	}

	quest := &model.Quest{
		Title:    req.Title,
		Summary:  req.Summary,
		Category: category,
		Tags:     model.StringArray(req.Tags),
		XPReward: req.XPReward,
		Status:   model.QuestStatusActive,
	}
	quest.CreatedBy = &actorID

	if err := s.repo.Quest.Create(ctx, quest); err != nil {
		s.logger.Error("创建任务模板失败", zap.Error(err))
		return nil, err
	}
	resp := toQuestResponse(quest)
	return &resp, nil
}

func (s *questService) Get(ctx context.Context, id string) (*dto.QuestResponse, error) {
	quest, err := s.repo.Quest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestNotFound
		}
		s.logger.Error("查询任务模板失败", zap.Error(err))
		return nil, err
	}
	resp := toQuestResponse(quest)
	return &resp, nil
}

func (s *questService) List(ctx context.Context, req *dto.QuestListRequest) (*dto.QuestListResponse, error) {
	quests, total, err := s.repo.Quest.List(ctx, req)
	if err != nil {
		s.logger.Error("查询任务模板列表失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.QuestResponse, 0, len(quests))
	for i := range quests {
		items = append(items, toQuestResponse(&quests[i]))
	}
	return &dto.QuestListResponse{Total: total, Items: items}, nil
}

// Update 编辑模板字段，乐观锁保护
func (s *questService) Update(ctx context.Context, id string, req *dto.UpdateQuestRequest, actorID string) (*dto.QuestResponse, error) {
	quest, err := s.repo.Quest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestNotFound
		}
		s.logger.Error("查询任务模板失败", zap.Error(err))
		return nil, err
	}

	if req.Title != nil {
		quest.Title = *req.Title
	}
	if req.Summary != nil {
		quest.Summary = *req.Summary
	}
	if req.Category != nil {
		quest.Category = *req.Category
	}
	if req.Tags != nil {
		quest.Tags = model.StringArray(*req.Tags)
	}
	if req.XPReward != nil {
		quest.XPReward = *req.XPReward
	}
	if req.Status != nil {
		quest.Status = *req.Status
	}
	quest.UpdatedBy = &actorID

	if err := s.repo.Quest.Update(ctx, quest); err != nil {
		return nil, err
	}
	resp := toQuestResponse(quest)
	return &resp, nil
}

func (s *questService) Delete(ctx context.Context, id, actorID string) error {
	if _, err := s.repo.Quest.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestNotFound
		}
		s.logger.Error("查询任务模板失败", zap.Error(err))
		return err
	}
	if err := s.repo.Quest.Delete(ctx, id, &actorID); err != nil {
		s.logger.Error("删除任务模板失败", zap.Error(err))
		return err
	}
	return nil
}

// ── 响应组装 ──

func toQuestResponse(quest *model.Quest) dto.QuestResponse {
	return dto.QuestResponse{
		ID:        quest.QuestID,
		Title:     quest.Title,
		Summary:   quest.Summary,
		Category:  quest.Category,
		Tags:      []string(quest.Tags),
		XPReward:  quest.XPReward,
		Status:    quest.Status,
		CreatedAt: quest.CreatedAt.Format(time.RFC3339),
		UpdatedAt: quest.UpdatedAt.Format(time.RFC3339),
	}
}
