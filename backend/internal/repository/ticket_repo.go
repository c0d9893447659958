package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	pkgerrors "github.com/OpenClique85/openclique-sub004/backend/pkg/errors"
)

// TicketRepository 工单数据访问接口
type TicketRepository interface {
	Create(ctx context.Context, ticket *model.SupportTicket) error
	GetByID(ctx context.Context, id string) (*model.SupportTicket, error)
	Update(ctx context.Context, ticket *model.SupportTicket) error
	UpdateStatus(ctx context.Context, id string, status model.TicketStatus, resolutionNote string, updatedBy *string) error
	UpdateAssignee(ctx context.Context, id string, assigneeID *string, updatedBy *string) error
	List(ctx context.Context, req *dto.TicketListRequest) ([]model.SupportTicket, int64, error)
	CountOpen(ctx context.Context) (int64, error)
}

type ticketRepo struct {
	db *gorm.DB
}

// NewTicketRepo 创建 TicketRepository 实例
func NewTicketRepo(db *gorm.DB) TicketRepository {
	return &ticketRepo{db: db}
}

func (r *ticketRepo) Create(ctx context.Context, ticket *model.SupportTicket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *ticketRepo) GetByID(ctx context.Context, id string) (*model.SupportTicket, error) {
	var ticket model.SupportTicket
	err := r.db.WithContext(ctx).
		Preload("Opener").
		Preload("Assignee").
		Where("ticket_id = ?", id).
		First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Update 带乐观锁的内容编辑（标题/正文/优先级）
func (r *ticketRepo) Update(ctx context.Context, ticket *model.SupportTicket) error {
	oldVersion := ticket.Version
	result := r.db.WithContext(ctx).
		Model(ticket).
		Where("ticket_id = ? AND version = ?", ticket.TicketID, oldVersion).
		Updates(map[string]interface{}{
			"subject":    ticket.Subject,
			"body":       ticket.Body,
			"priority":   ticket.Priority,
			"updated_by": ticket.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	ticket.Version = oldVersion + 1
	return nil
}

// UpdateStatus 状态流转直写；resolutionNote 为空串时不覆盖已有备注
func (r *ticketRepo) UpdateStatus(ctx context.Context, id string, status model.TicketStatus, resolutionNote string, updatedBy *string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_by": updatedBy,
	}
	if resolutionNote != "" {
		updates["resolution_note"] = resolutionNote
	}
	return r.db.WithContext(ctx).
		Model(&model.SupportTicket{}).
		Where("ticket_id = ?", id).
		Updates(updates).Error
}

func (r *ticketRepo) UpdateAssignee(ctx context.Context, id string, assigneeID *string, updatedBy *string) error {
	return r.db.WithContext(ctx).
		Model(&model.SupportTicket{}).
		Where("ticket_id = ?", id).
		Updates(map[string]interface{}{
			"assignee_id": assigneeID,
			"updated_by":  updatedBy,
		}).Error
}

func (r *ticketRepo) List(ctx context.Context, req *dto.TicketListRequest) ([]model.SupportTicket, int64, error) {
	var tickets []model.SupportTicket
	var total int64

	db := r.db.WithContext(ctx).Model(&model.SupportTicket{})
	if req.Status != "" {
		db = db.Where("status = ?", req.Status)
	}
	if req.Priority != "" {
		db = db.Where("priority = ?", req.Priority)
	}
	if req.AssigneeID != "" {
		db = db.Where("assignee_id = ?", req.AssigneeID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Opener").Preload("Assignee").
		Offset(req.GetOffset()).Limit(req.GetPageSize()).
		Order("created_at DESC").
		Find(&tickets).Error; err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

// CountOpen 未关闭工单数（open/in_progress/waiting_on_user）
func (r *ticketRepo) CountOpen(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.SupportTicket{}).
		Where("status IN ?", []model.TicketStatus{
			model.TicketStatusOpen, model.TicketStatusInProgress, model.TicketStatusWaitingOnUser,
		}).
		Count(&total).Error
	return total, err
}
