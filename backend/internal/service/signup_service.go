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
	ErrSignupNotFound        = errors.New("报名记录不存在")
	ErrAlreadySignedUp       = errors.New("该用户已报名此场次")
	ErrInstanceNotRecruiting = errors.New("场次不在招募中，不能补录报名")
	ErrUseCompleteFlow       = errors.New("完成报名请走完成接口，以保证 XP 同步发放")
	ErrSignupNotConfirmed    = errors.New("仅已确认的报名可以完成")
)

// SignupService 报名业务接口
type SignupService interface {
	Create(ctx context.Context, req *dto.CreateSignupRequest, actorID string) (*dto.SignupResponse, error)
	Get(ctx context.Context, id string) (*dto.SignupResponse, error)
	List(ctx context.Context, req *dto.SignupListRequest) (*dto.SignupListResponse, error)
	ChangeStatus(ctx context.Context, id string, target model.SignupStatus, actorID string) error
	Complete(ctx context.Context, id string, req *dto.CompleteSignupRequest, actorID string) (*dto.SignupResponse, error)
}

type signupService struct {
	repo   *repository.Repository
	audit  *auditRecorder
	logger *zap.Logger
}

// NewSignupService 创建 SignupService 实例
func NewSignupService(repo *repository.Repository, audit *auditRecorder, logger *zap.Logger) SignupService {
	return &signupService{repo: repo, audit: audit, logger: logger}
}

// Create 管理端补录报名
func (s *signupService) Create(ctx context.Context, req *dto.CreateSignupRequest, actorID string) (*dto.SignupResponse, error) {
	// 1. 用户与场次必须存在
	user, err := s.repo.User.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	instance, err := s.repo.Instance.GetByID(ctx, req.InstanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		s.logger.Error("查询场次失败", zap.Error(err))
		return nil, err
	}

	// 2. 只有招募中的场次可以补录
	if instance.Status != model.InstanceStatusRecruiting {
		return nil, ErrInstanceNotRecruiting
	}

	// 3. 同一用户同一场次只能报一次
	if _, err := s.repo.Signup.GetByUserAndInstance(ctx, req.UserID, req.InstanceID); err == nil {
		return nil, ErrAlreadySignedUp
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询报名失败", zap.Error(err))
		return nil, err
	}

	// 4. 名额检查：满员后补录进候补
	status := model.SignupStatusPending
	if instance.Capacity > 0 {
		count, err := s.repo.Signup.CountByInstance(ctx, req.InstanceID)
		if err != nil {
			s.logger.Error("统计报名数失败", zap.Error(err))
			return nil, err
		}
		if count >= int64(instance.Capacity) {
			status = model.SignupStatusStandby
		}
	}

	signup := &model.Signup{
		UserID:     req.UserID,
		InstanceID: req.InstanceID,
		Status:     status,
		SignedUpAt: time.Now(),
	}
	signup.CreatedBy = &actorID
	if err := s.repo.Signup.Create(ctx, signup); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadySignedUp
		}
		s.logger.Error("创建报名失败", zap.Error(err))
		return nil, err
	}

	signup.User = user
	signup.Instance = instance
	resp := toSignupResponse(signup)
	return &resp, nil
}

func (s *signupService) Get(ctx context.Context, id string) (*dto.SignupResponse, error) {
	signup, err := s.repo.Signup.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSignupNotFound
		}
		s.logger.Error("查询报名失败", zap.Error(err))
		return nil, err
	}
	resp := toSignupResponse(signup)
	return &resp, nil
}

func (s *signupService) List(ctx context.Context, req *dto.SignupListRequest) (*dto.SignupListResponse, error) {
	signups, total, err := s.repo.Signup.List(ctx, req)
	if err != nil {
		s.logger.Error("查询报名列表失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.SignupResponse, 0, len(signups))
	for i := range signups {
		items = append(items, toSignupResponse(&signups[i]))
	}
	return &dto.SignupListResponse{Total: total, Items: items}, nil
}

// ChangeStatus 报名状态流转
// 流转到 completed 必须走 Complete，否则会绕开 XP 发放
func (s *signupService) ChangeStatus(ctx context.Context, id string, target model.SignupStatus, actorID string) error {
	if target == model.SignupStatusCompleted {
		return ErrUseCompleteFlow
	}

	signup, err := s.repo.Signup.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSignupNotFound
		}
		s.logger.Error("查询报名失败", zap.Error(err))
		return err
	}

	if err := model.ValidateSignupTransition(signup.Status, target); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, err)
	}

	if err := s.repo.Signup.UpdateStatus(ctx, id, target, nil, &actorID); err != nil {
		s.logger.Error("更新报名状态失败", zap.Error(err))
		return err
	}

	s.audit.record(ctx, actorID, model.AuditActionStatusChange, "signup", &id,
		fmt.Sprintf("报名状态 %s → %s", signup.Status, target))
	return nil
}

// Complete 完成报名并发放 XP，单事务落两张表
// 金额缺省取模板 xp_reward；即使为 0 也写流水，保证巡检集合差不误报
func (s *signupService) Complete(ctx context.Context, id string, req *dto.CompleteSignupRequest, actorID string) (*dto.SignupResponse, error) {
	// 1. 报名必须存在且已确认
	signup, err := s.repo.Signup.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSignupNotFound
		}
		s.logger.Error("查询报名失败", zap.Error(err))
		return nil, err
	}
	if signup.Status != model.SignupStatusConfirmed {
		return nil, ErrSignupNotConfirmed
	}

	// 2. 计算 XP 金额
	amount := 0
	if req != nil && req.XPOverride != nil {
		amount = *req.XPOverride
	} else if signup.Instance != nil {
		quest, err := s.repo.Quest.GetByID(ctx, signup.Instance.QuestID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Error("查询任务模板失败", zap.Error(err))
				return nil, err
			}
			// 模板被删时按 0 发放，完成动作不被历史数据卡死
		} else {
			amount = quest.XPReward
		}
	}

	// 3. 同事务完成 + 发放
	now := time.Now()
	signup.CompletedAt = &now
	signup.UpdatedBy = &actorID
	xp := &model.XPTransaction{
		UserID:   signup.UserID,
		SourceID: signup.SignupID,
		Amount:   amount,
		Reason:   model.XPReasonQuestCompletion,
	}
	if err := s.repo.Signup.CompleteWithXP(ctx, signup, xp); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 并发下别的管理员先动了状态
			return nil, ErrSignupNotConfirmed
		}
		s.logger.Error("完成报名失败", zap.Error(err))
		return nil, err
	}
	signup.Status = model.SignupStatusCompleted

	s.audit.record(ctx, actorID, model.AuditActionSignupComplete, "signup", &id,
		fmt.Sprintf("发放 XP %d", amount))

	resp := toSignupResponse(signup)
	return &resp, nil
}

// ── 响应组装 ──

func toSignupResponse(signup *model.Signup) dto.SignupResponse {
	resp := dto.SignupResponse{
		ID:          signup.SignupID,
		UserID:      signup.UserID,
		InstanceID:  signup.InstanceID,
		Status:      string(signup.Status),
		SignedUpAt:  signup.SignedUpAt,
		CompletedAt: signup.CompletedAt,
	}
	if signup.User != nil {
		resp.UserHandle = signup.User.Handle
	}
	if signup.Instance != nil {
		resp.InstanceTitle = signup.Instance.Title
	}
	return resp
}
