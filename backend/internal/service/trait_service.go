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

var (
	ErrTraitNotFound       = errors.New("特质不存在")
	ErrTraitKeyTaken       = errors.New("特质 key 已存在")
	ErrTraitAlreadyGranted = errors.New("该用户已拥有此特质")
	ErrTraitNotGranted     = errors.New("该用户未拥有此特质")
)

// TraitService 特质目录与授予业务接口
type TraitService interface {
	Create(ctx context.Context, req *dto.CreateTraitRequest, actorID string) (*dto.TraitResponse, error)
	Get(ctx context.Context, id string) (*dto.TraitResponse, error)
	List(ctx context.Context, req *dto.TraitListRequest) (*dto.TraitListResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTraitRequest, actorID string) (*dto.TraitResponse, error)
	Delete(ctx context.Context, id string) error
	Grant(ctx context.Context, traitID string, req *dto.GrantTraitRequest, actorID string) error
	Revoke(ctx context.Context, traitID, userID, actorID string) error
	ListByUser(ctx context.Context, userID string) ([]dto.UserTraitResponse, error)
}

type traitService struct {
	repo   *repository.Repository
	audit  *auditRecorder
	logger *zap.Logger
}

// NewTraitService 创建 TraitService 实例
func NewTraitService(repo *repository.Repository, audit *auditRecorder, logger *zap.Logger) TraitService {
	return &traitService{repo: repo, audit: audit, logger: logger}
}

// Create 新建特质，key 全局唯一
func (s *traitService) Create(ctx context.Context, req *dto.CreateTraitRequest, actorID string) (*dto.TraitResponse, error) {
	_, err := s.repo.Trait.GetByKey(ctx, req.Key)
	if err == nil {
		return nil, ErrTraitKeyTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询特质失败", zap.Error(err))
		return nil, err
	}

	trait := &model.Trait{
		Key:         req.Key,
		Label:       req.Label,
		Description: req.Description,
	}
	trait.CreatedBy = &actorID
	if err := s.repo.Trait.Create(ctx, trait); err != nil {
		s.logger.Error("创建特质失败", zap.Error(err))
		return nil, err
	}

	resp := toTraitResponse(trait)
	return &resp, nil
}

func (s *traitService) Get(ctx context.Context, id string) (*dto.TraitResponse, error) {
	trait, err := s.repo.Trait.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTraitNotFound
		}
		s.logger.Error("查询特质失败", zap.Error(err))
		return nil, err
	}
	resp := toTraitResponse(trait)
	return &resp, nil
}

func (s *traitService) List(ctx context.Context, req *dto.TraitListRequest) (*dto.TraitListResponse, error) {
	traits, total, err := s.repo.Trait.List(ctx, req)
	if err != nil {
		s.logger.Error("查询特质列表失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.TraitResponse, 0, len(traits))
	for i := range traits {
		items = append(items, toTraitResponse(&traits[i]))
	}
	return &dto.TraitListResponse{Total: total, Items: items}, nil
}

// Update 编辑展示文案；key 不可改，改 key 等于换一个特质
func (s *traitService) Update(ctx context.Context, id string, req *dto.UpdateTraitRequest, actorID string) (*dto.TraitResponse, error) {
	trait, err := s.repo.Trait.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTraitNotFound
		}
		s.logger.Error("查询特质失败", zap.Error(err))
		return nil, err
	}

	if req.Label != nil {
		trait.Label = *req.Label
	}
	if req.Description != nil {
		trait.Description = *req.Description
	}
	trait.UpdatedBy = &actorID

	if err := s.repo.Trait.Update(ctx, trait); err != nil {
		s.logger.Error("更新特质失败", zap.Error(err))
		return nil, err
	}
	resp := toTraitResponse(trait)
	return &resp, nil
}

// Delete 删除特质，授予记录随外键级联清掉
func (s *traitService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Trait.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTraitNotFound
		}
		s.logger.Error("查询特质失败", zap.Error(err))
		return err
	}
	return s.repo.Trait.Delete(ctx, id)
}

// Grant 给用户授予特质
func (s *traitService) Grant(ctx context.Context, traitID string, req *dto.GrantTraitRequest, actorID string) error {
	// 1. 特质与用户都要存在
	if _, err := s.repo.Trait.GetByID(ctx, traitID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTraitNotFound
		}
		s.logger.Error("查询特质失败", zap.Error(err))
		return err
	}
	if _, err := s.repo.User.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}

	// 2. 重复授予直接拒绝
	exists, err := s.repo.UserTrait.Exists(ctx, req.UserID, traitID)
	if err != nil {
		s.logger.Error("查询用户特质失败", zap.Error(err))
		return err
	}
	if exists {
		return ErrTraitAlreadyGranted
	}

	// 3. 落库，来源缺省 admin_grant
	source := req.Source
	if source == "" {
		source = model.TraitSourceAdminGrant
	}
	grant := &model.UserTrait{
		UserID:    req.UserID,
		TraitID:   traitID,
		Source:    source,
		GrantedBy: &actorID,
	}
	if err := s.repo.UserTrait.Grant(ctx, grant); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrTraitAlreadyGranted
		}
		s.logger.Error("授予特质失败", zap.Error(err))
		return err
	}

	s.audit.record(ctx, actorID, model.AuditActionTraitGrant, "user", &req.UserID, "授予特质 "+traitID)
	return nil
}

// Revoke 撤销用户特质
func (s *traitService) Revoke(ctx context.Context, traitID, userID, actorID string) error {
	exists, err := s.repo.UserTrait.Exists(ctx, userID, traitID)
	if err != nil {
		s.logger.Error("查询用户特质失败", zap.Error(err))
		return err
	}
	if !exists {
		return ErrTraitNotGranted
	}

	if err := s.repo.UserTrait.Revoke(ctx, userID, traitID); err != nil {
		s.logger.Error("撤销特质失败", zap.Error(err))
		return err
	}

	s.audit.record(ctx, actorID, model.AuditActionTraitRevoke, "user", &userID, "撤销特质 "+traitID)
	return nil
}

// ListByUser 某用户的特质授予清单
func (s *traitService) ListByUser(ctx context.Context, userID string) ([]dto.UserTraitResponse, error) {
	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	grants, err := s.repo.UserTrait.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询用户特质失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.UserTraitResponse, 0, len(grants))
	for i := range grants {
		g := &grants[i]
		if g.Trait == nil {
			continue
		}
		items = append(items, dto.UserTraitResponse{
			UserID:    g.UserID,
			Trait:     toTraitResponse(g.Trait),
			Source:    g.Source,
			GrantedAt: g.GrantedAt.Format(time.RFC3339),
		})
	}
	return items, nil
}

func toTraitResponse(trait *model.Trait) dto.TraitResponse {
	return dto.TraitResponse{
		ID:          trait.TraitID,
		Key:         trait.Key,
		Label:       trait.Label,
		Description: trait.Description,
	}
}
