package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
)

// TraitRepository 特质目录数据访问接口
type TraitRepository interface {
	Create(ctx context.Context, trait *model.Trait) error
	GetByID(ctx context.Context, id string) (*model.Trait, error)
	GetByKey(ctx context.Context, key string) (*model.Trait, error)
	Update(ctx context.Context, trait *model.Trait) error
	List(ctx context.Context, req *dto.TraitListRequest) ([]model.Trait, int64, error)
	Delete(ctx context.Context, id string) error
}

// UserTraitRepository 用户特质授予数据访问接口
type UserTraitRepository interface {
	Grant(ctx context.Context, ut *model.UserTrait) error
	Revoke(ctx context.Context, userID, traitID string) error
	Exists(ctx context.Context, userID, traitID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]model.UserTrait, error)
}

// ── Trait Repository 实现 ──

type traitRepo struct {
	db *gorm.DB
}

// NewTraitRepo 创建 TraitRepository 实例
func NewTraitRepo(db *gorm.DB) TraitRepository {
	return &traitRepo{db: db}
}

func (r *traitRepo) Create(ctx context.Context, trait *model.Trait) error {
	return r.db.WithContext(ctx).Create(trait).Error
}

func (r *traitRepo) GetByID(ctx context.Context, id string) (*model.Trait, error) {
	var trait model.Trait
	err := r.db.WithContext(ctx).
		Where("trait_id = ?", id).
		First(&trait).Error
	if err != nil {
		return nil, err
	}
	return &trait, nil
}

func (r *traitRepo) GetByKey(ctx context.Context, key string) (*model.Trait, error) {
	var trait model.Trait
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&trait).Error
	if err != nil {
		return nil, err
	}
	return &trait, nil
}

func (r *traitRepo) Update(ctx context.Context, trait *model.Trait) error {
	return r.db.WithContext(ctx).
		Model(trait).
		Where("trait_id = ?", trait.TraitID).
		Updates(map[string]interface{}{
			"label":       trait.Label,
			"description": trait.Description,
			"updated_by":  trait.UpdatedBy,
		}).Error
}

func (r *traitRepo) List(ctx context.Context, req *dto.TraitListRequest) ([]model.Trait, int64, error) {
	var traits []model.Trait
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Trait{})
	if req.Keyword != "" {
		kw := "%" + req.Keyword + "%"
		db = db.Where("key ILIKE ? OR label ILIKE ?", kw, kw)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(req.GetOffset()).Limit(req.GetPageSize()).
		Order("key ASC").
		Find(&traits).Error; err != nil {
		return nil, 0, err
	}

	return traits, total, nil
}

func (r *traitRepo) Delete(ctx context.Context, id string) error {
	// 级联清掉已授予记录，避免目录删除后留下悬挂授予
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trait_id = ?", id).Delete(&model.UserTrait{}).Error; err != nil {
			return err
		}
		return tx.Where("trait_id = ?", id).Delete(&model.Trait{}).Error
	})
}

// ── UserTrait Repository 实现 ──

type userTraitRepo struct {
	db *gorm.DB
}

// NewUserTraitRepo 创建 UserTraitRepository 实例
func NewUserTraitRepo(db *gorm.DB) UserTraitRepository {
	return &userTraitRepo{db: db}
}

func (r *userTraitRepo) Grant(ctx context.Context, ut *model.UserTrait) error {
	return r.db.WithContext(ctx).Create(ut).Error
}

func (r *userTraitRepo) Revoke(ctx context.Context, userID, traitID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND trait_id = ?", userID, traitID).
		Delete(&model.UserTrait{}).Error
}

func (r *userTraitRepo) Exists(ctx context.Context, userID, traitID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserTrait{}).
		Where("user_id = ? AND trait_id = ?", userID, traitID).
		Count(&count).Error
	return count > 0, err
}

func (r *userTraitRepo) ListByUser(ctx context.Context, userID string) ([]model.UserTrait, error) {
	var rows []model.UserTrait
	err := r.db.WithContext(ctx).
		Preload("Trait").
		Where("user_id = ?", userID).
		Order("granted_at DESC").
		Find(&rows).Error
	return rows, err
}
