package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
)

// XPRepository XP 流水数据访问接口
type XPRepository interface {
	Create(ctx context.Context, tx *model.XPTransaction) error
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.XPTransaction, int64, error)
	SumByUser(ctx context.Context, userID string) (int, error)
	ListQuestCompletionSourceIDs(ctx context.Context) ([]string, error)
}

type xpRepo struct {
	db *gorm.DB
}

// NewXPRepo 创建 XPRepository 实例
func NewXPRepo(db *gorm.DB) XPRepository {
	return &xpRepo{db: db}
}

func (r *xpRepo) Create(ctx context.Context, tx *model.XPTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *xpRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.XPTransaction, int64, error) {
	var rows []model.XPTransaction
	var total int64

	db := r.db.WithContext(ctx).Model(&model.XPTransaction{}).Where("user_id = ?", userID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *xpRepo) SumByUser(ctx context.Context, userID string) (int, error) {
	var sum *int
	err := r.db.WithContext(ctx).
		Model(&model.XPTransaction{}).
		Select("SUM(amount)").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// ListQuestCompletionSourceIDs 巡检快照查询：任务完成类流水的全部 source_id
// 分类器用它与已完成报名做集合差，找出缺发 XP 的报名
func (r *xpRepo) ListQuestCompletionSourceIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.XPTransaction{}).
		Where("reason = ?", model.XPReasonQuestCompletion).
		Distinct().
		Pluck("source_id", &ids).Error
	return ids, err
}
