package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
)

// AuditLogRepository 审计日志数据访问接口
// 追加型表，只有 Create 与 List
type AuditLogRepository interface {
	Create(ctx context.Context, log *model.AdminActionLog) error
	List(ctx context.Context, req *dto.AuditLogListRequest) ([]model.AdminActionLog, int64, error)
}

type auditLogRepo struct {
	db *gorm.DB
}

// NewAuditLogRepo 创建 AuditLogRepository 实例
func NewAuditLogRepo(db *gorm.DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) Create(ctx context.Context, log *model.AdminActionLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *auditLogRepo) List(ctx context.Context, req *dto.AuditLogListRequest) ([]model.AdminActionLog, int64, error) {
	var logs []model.AdminActionLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.AdminActionLog{})
	if req.ActorID != "" {
		db = db.Where("actor_id = ?", req.ActorID)
	}
	if req.Action != "" {
		db = db.Where("action = ?", req.Action)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(req.GetOffset()).Limit(req.GetPageSize()).
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
