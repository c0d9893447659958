package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	pkgerrors "github.com/OpenClique85/openclique-sub004/backend/pkg/errors"
)

// QuestRepository 任务模板数据访问接口
type QuestRepository interface {
	Create(ctx context.Context, quest *model.Quest) error
	GetByID(ctx context.Context, id string) (*model.Quest, error)
	Update(ctx context.Context, quest *model.Quest) error
	List(ctx context.Context, req *dto.QuestListRequest) ([]model.Quest, int64, error)
	Delete(ctx context.Context, id string, deletedBy *string) error
}

type questRepo struct {
	db *gorm.DB
}

// NewQuestRepo 创建 QuestRepository 实例
func NewQuestRepo(db *gorm.DB) QuestRepository {
	return &questRepo{db: db}
}

func (r *questRepo) Create(ctx context.Context, quest *model.Quest) error {
	return r.db.WithContext(ctx).Create(quest).Error
}

func (r *questRepo) GetByID(ctx context.Context, id string) (*model.Quest, error) {
	var quest model.Quest
	err := r.db.WithContext(ctx).
		Where("quest_id = ?", id).
		First(&quest).Error
	if err != nil {
		return nil, err
	}
	return &quest, nil
}

func (r *questRepo) Update(ctx context.Context, quest *model.Quest) error {
	oldVersion := quest.Version
	result := r.db.WithContext(ctx).
		Model(quest).
		Where("quest_id = ? AND version = ?", quest.QuestID, oldVersion).
		Updates(map[string]interface{}{
			"title":      quest.Title,
			"summary":    quest.Summary,
			"category":   quest.Category,
			"tags":       quest.Tags,
			"xp_reward":  quest.XPReward,
			"status":     quest.Status,
			"updated_by": quest.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	quest.Version = oldVersion + 1
	return nil
}

func (r *questRepo) List(ctx context.Context, req *dto.QuestListRequest) ([]model.Quest, int64, error) {
	var quests []model.Quest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Quest{})
	if req.Category != "" {
		db = db.Where("category = ?", req.Category)
	}
	if req.Status != "" {
		db = db.Where("status = ?", req.Status)
	}
	if req.Keyword != "" {
		kw := "%" + req.Keyword + "%"
		db = db.Where("title ILIKE ? OR summary ILIKE ?", kw, kw)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(req.GetOffset()).Limit(req.GetPageSize()).
		Order("created_at DESC").
		Find(&quests).Error; err != nil {
		return nil, 0, err
	}

	return quests, total, nil
}

func (r *questRepo) Delete(ctx context.Context, id string, deletedBy *string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Quest{}).
			Where("quest_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("quest_id = ?", id).Delete(&model.Quest{}).Error
	})
}
