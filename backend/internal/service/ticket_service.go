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
)

var (
	ErrTicketNotFound    = errors.New("工单不存在")
	ErrAssigneeNotFound  = errors.New("受理人不存在")
	ErrAssigneeNoConsole = errors.New("受理人必须是后台角色")
)

// TicketService 支持工单业务接口
type TicketService interface {
	Create(ctx context.Context, req *dto.CreateTicketRequest, actorID string) (*dto.TicketResponse, error)
	Get(ctx context.Context, id string) (*dto.TicketResponse, error)
	List(ctx context.Context, req *dto.TicketListRequest) (*dto.TicketListResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTicketRequest, actorID string) (*dto.TicketResponse, error)
	Assign(ctx context.Context, id string, req *dto.AssignTicketRequest, actorID string) error
	ChangeStatus(ctx context.Context, id string, target model.TicketStatus, resolutionNote, actorID string) error
}

type ticketService struct {
	repo   *repository.Repository
	audit  *auditRecorder
	logger *zap.Logger
}

// NewTicketService 创建 TicketService 实例
func NewTicketService(repo *repository.Repository, audit *auditRecorder, logger *zap.Logger) TicketService {
	return &ticketService{repo: repo, audit: audit, logger: logger}
}

// Create 代用户录入工单（用户侧渠道进来的求助由客服补录）
func (s *ticketService) Create(ctx context.Context, req *dto.CreateTicketRequest, actorID string) (*dto.TicketResponse, error) {
	// 1. 发起人必须存在
	if _, err := s.repo.User.GetByID(ctx, req.OpenedBy); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 落库，优先级缺省 normal
	priority := req.Priority
	if priority == "" {
		priority = model.TicketPriorityNormal
	}
	ticket := &model.SupportTicket{
		OpenedBy: req.OpenedBy,
		Subject:  req.Subject,
		Body:     req.Body,
		Priority: priority,
		Status:   model.TicketStatusOpen,
	}
	ticket.CreatedBy = &actorID
	if err := s.repo.Ticket.Create(ctx, ticket); err != nil {
		s.logger.Error("创建工单失败", zap.Error(err))
		return nil, err
	}

	resp := toTicketResponse(ticket)
	return &resp, nil
}

func (s *ticketService) Get(ctx context.Context, id string) (*dto.TicketResponse, error) {
	ticket, err := s.repo.Ticket.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		s.logger.Error("查询工单失败", zap.Error(err))
		return nil, err
	}
	resp := toTicketResponse(ticket)
	return &resp, nil
}

func (s *ticketService) List(ctx context.Context, req *dto.TicketListRequest) (*dto.TicketListResponse, error) {
	tickets, total, err := s.repo.Ticket.List(ctx, req)
	if err != nil {
		s.logger.Error("查询工单列表失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, toTicketResponse(&tickets[i]))
	}
	return &dto.TicketListResponse{Total: total, Items: items}, nil
}

// Update 编辑工单内容，乐观锁保护
func (s *ticketService) Update(ctx context.Context, id string, req *dto.UpdateTicketRequest, actorID string) (*dto.TicketResponse, error) {
	ticket, err := s.repo.Ticket.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		s.logger.Error("查询工单失败", zap.Error(err))
		return nil, err
	}

	if req.Subject != nil {
		ticket.Subject = *req.Subject
	}
	if req.Body != nil {
		ticket.Body = *req.Body
	}
	if req.Priority != nil {
		ticket.Priority = *req.Priority
	}
	ticket.UpdatedBy = &actorID

	if err := s.repo.Ticket.Update(ctx, ticket); err != nil {
		return nil, err
	}
	resp := toTicketResponse(ticket)
	return &resp, nil
}

// Assign 指派受理人；受理人必须是后台角色账号
func (s *ticketService) Assign(ctx context.Context, id string, req *dto.AssignTicketRequest, actorID string) error {
	if _, err := s.repo.Ticket.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTicketNotFound
		}
		s.logger.Error("查询工单失败", zap.Error(err))
		return err
	}

	assignee, err := s.repo.User.GetByID(ctx, req.AssigneeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}
	if !consoleRoles[assignee.Role] {
		return ErrAssigneeNoConsole
	}

	if err := s.repo.Ticket.UpdateAssignee(ctx, id, &req.AssigneeID, &actorID); err != nil {
		s.logger.Error("指派工单失败", zap.Error(err))
		return err
	}

	s.audit.record(ctx, actorID, model.AuditActionTicketAssign, "ticket", &id,
		fmt.Sprintf("指派给 %s", assignee.Handle))
	return nil
}

// ChangeStatus 工单状态流转；处理备注随终态一起写入
func (s *ticketService) ChangeStatus(ctx context.Context, id string, target model.TicketStatus, resolutionNote, actorID string) error {
	ticket, err := s.repo.Ticket.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTicketNotFound
		}
		s.logger.Error("查询工单失败", zap.Error(err))
		return err
	}

	if err := model.ValidateTicketTransition(ticket.Status, target); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, err)
	}

	if err := s.repo.Ticket.UpdateStatus(ctx, id, target, resolutionNote, &actorID); err != nil {
		s.logger.Error("更新工单状态失败", zap.Error(err))
		return err
	}

	s.audit.record(ctx, actorID, model.AuditActionStatusChange, "ticket", &id,
		fmt.Sprintf("工单状态 %s → %s", ticket.Status, target))
	return nil
}

func toTicketResponse(ticket *model.SupportTicket) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:             ticket.TicketID,
		OpenedBy:       ticket.OpenedBy,
		AssigneeID:     ticket.AssigneeID,
		Subject:        ticket.Subject,
		Body:           ticket.Body,
		Priority:       ticket.Priority,
		Status:         string(ticket.Status),
		ResolutionNote: ticket.ResolutionNote,
		CreatedAt:      ticket.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      ticket.UpdatedAt.Format(time.RFC3339),
	}
	if ticket.Opener != nil {
		resp.OpenerHandle = ticket.Opener.Handle
	}
	if ticket.Assignee != nil {
		resp.AssigneeHandle = ticket.Assignee.Handle
	}
	return resp
}
