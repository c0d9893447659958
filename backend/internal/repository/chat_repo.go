package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
)

// SquadChatRepository 小队聊天消息只读访问接口
// 消息由移动端写入，管理后台只读
type SquadChatRepository interface {
	ListBySquad(ctx context.Context, squadID string, offset, limit int) ([]model.SquadChatMessage, int64, error)
	LastMessageAt(ctx context.Context, squadID string) (*time.Time, error)
}

type squadChatRepo struct {
	db *gorm.DB
}

// NewSquadChatRepo 创建 SquadChatRepository 实例
func NewSquadChatRepo(db *gorm.DB) SquadChatRepository {
	return &squadChatRepo{db: db}
}

func (r *squadChatRepo) ListBySquad(ctx context.Context, squadID string, offset, limit int) ([]model.SquadChatMessage, int64, error) {
	var messages []model.SquadChatMessage
	var total int64

	db := r.db.WithContext(ctx).Model(&model.SquadChatMessage{}).Where("squad_id = ?", squadID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// LastMessageAt 最新一条消息时间；无消息时返回 nil
func (r *squadChatRepo) LastMessageAt(ctx context.Context, squadID string) (*time.Time, error) {
	var msg model.SquadChatMessage
	err := r.db.WithContext(ctx).
		Where("squad_id = ?", squadID).
		Order("created_at DESC").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg.CreatedAt, nil
}
