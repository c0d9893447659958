package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
)

// FeatureFlagRepository 功能开关数据访问接口
type FeatureFlagRepository interface {
	Upsert(ctx context.Context, flag *model.FeatureFlag) error
	GetByKey(ctx context.Context, key string) (*model.FeatureFlag, error)
	List(ctx context.Context) ([]model.FeatureFlag, error)
	Delete(ctx context.Context, key string) error
}

type featureFlagRepo struct {
	db *gorm.DB
}

// NewFeatureFlagRepo 创建 FeatureFlagRepository 实例
func NewFeatureFlagRepo(db *gorm.DB) FeatureFlagRepository {
	return &featureFlagRepo{db: db}
}

// Upsert 按 key 创建或覆盖
func (r *featureFlagRepo) Upsert(ctx context.Context, flag *model.FeatureFlag) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"enabled", "description", "note", "updated_at", "updated_by",
			}),
		}).
		Create(flag).Error
}

func (r *featureFlagRepo) GetByKey(ctx context.Context, key string) (*model.FeatureFlag, error) {
	var flag model.FeatureFlag
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&flag).Error
	if err != nil {
		return nil, err
	}
	return &flag, nil
}

func (r *featureFlagRepo) List(ctx context.Context) ([]model.FeatureFlag, error) {
	var flags []model.FeatureFlag
	err := r.db.WithContext(ctx).
		Order("key ASC").
		Find(&flags).Error
	return flags, err
}

func (r *featureFlagRepo) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Where("key = ?", key).
		Delete(&model.FeatureFlag{}).Error
}
