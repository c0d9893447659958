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
	"github.com/OpenClique85/openclique-sub004/backend/pkg/cache"
)

const flagCacheNamespace = "flags"

var ErrFlagNotFound = errors.New("功能开关不存在")

// FeatureFlagService 功能开关业务接口
type FeatureFlagService interface {
	List(ctx context.Context) (*dto.FlagListResponse, error)
	Get(ctx context.Context, key string) (*dto.FlagResponse, error)
	Upsert(ctx context.Context, key string, req *dto.UpsertFlagRequest, actorID string) (*dto.FlagResponse, error)
	Delete(ctx context.Context, key string, actorID string) error
}

type featureFlagService struct {
	repo   *repository.Repository
	cache  *cache.Cache
	audit  *auditRecorder
	logger *zap.Logger
}

// NewFeatureFlagService 创建 FeatureFlagService 实例
func NewFeatureFlagService(repo *repository.Repository, c *cache.Cache, audit *auditRecorder, logger *zap.Logger) FeatureFlagService {
	return &featureFlagService{repo: repo, cache: c, audit: audit, logger: logger}
}

func (s *featureFlagService) List(ctx context.Context) (*dto.FlagListResponse, error) {
	flags, err := s.repo.FeatureFlag.List(ctx)
	if err != nil {
		s.logger.Error("查询功能开关列表失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.FlagResponse, 0, len(flags))
	for i := range flags {
		items = append(items, toFlagResponse(&flags[i]))
	}
	return &dto.FlagListResponse{Total: int64(len(items)), Items: items}, nil
}

// Get 单个开关读走缓存；导出等高频闸门每次请求都会查
func (s *featureFlagService) Get(ctx context.Context, key string) (*dto.FlagResponse, error) {
	cached := &dto.FlagResponse{}
	if err := s.cache.GetJSON(ctx, flagCacheNamespace, key, cached); err == nil {
		return cached, nil
	}

	flag, err := s.repo.FeatureFlag.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFlagNotFound
		}
		s.logger.Error("查询功能开关失败", zap.Error(err))
		return nil, err
	}

	resp := toFlagResponse(flag)
	s.cache.SetJSON(ctx, flagCacheNamespace, key, &resp)
	return &resp, nil
}

// Upsert 写开关：key 不存在则创建，存在则覆盖，随后整组缓存失效
func (s *featureFlagService) Upsert(ctx context.Context, key string, req *dto.UpsertFlagRequest, actorID string) (*dto.FlagResponse, error) {
	flag := &model.FeatureFlag{
		Key:         key,
		Enabled:     req.Enabled,
		Description: req.Description,
		Note:        req.Note,
	}
	flag.UpdatedBy = &actorID
	if err := s.repo.FeatureFlag.Upsert(ctx, flag); err != nil {
		s.logger.Error("写入功能开关失败", zap.Error(err))
		return nil, err
	}
	s.cache.Invalidate(ctx, flagCacheNamespace)

	s.audit.record(ctx, actorID, model.AuditActionFlagToggle, "feature_flag", &key,
		fmt.Sprintf("%s → enabled=%t", key, req.Enabled))

	resp := toFlagResponse(flag)
	return &resp, nil
}

func (s *featureFlagService) Delete(ctx context.Context, key string, actorID string) error {
	if _, err := s.repo.FeatureFlag.GetByKey(ctx, key); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFlagNotFound
		}
		s.logger.Error("查询功能开关失败", zap.Error(err))
		return err
	}

	if err := s.repo.FeatureFlag.Delete(ctx, key); err != nil {
		s.logger.Error("删除功能开关失败", zap.Error(err))
		return err
	}
	s.cache.Invalidate(ctx, flagCacheNamespace)

	s.audit.record(ctx, actorID, model.AuditActionFlagToggle, "feature_flag", &key, "删除开关 "+key)
	return nil
}

func toFlagResponse(flag *model.FeatureFlag) dto.FlagResponse {
	return dto.FlagResponse{
		Key:         flag.Key,
		Enabled:     flag.Enabled,
		Description: flag.Description,
		Note:        flag.Note,
		UpdatedAt:   flag.UpdatedAt.Format(time.RFC3339),
	}
}
