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

var ErrReportNotFound = errors.New("举报不存在")

// ModerationService 举报处理业务接口
type ModerationService interface {
	Create(ctx context.Context, req *dto.CreateReportRequest, actorID string) (*dto.ReportResponse, error)
	Get(ctx context.Context, id string) (*dto.ReportResponse, error)
	List(ctx context.Context, req *dto.ReportListRequest) (*dto.ReportListResponse, error)
	ChangeStatus(ctx context.Context, id string, target model.ReportStatus, resolutionNote, actorID string) error
}

type moderationService struct {
	repo   *repository.Repository
	audit  *auditRecorder
	logger *zap.Logger
}

// NewModerationService 创建 ModerationService 实例
func NewModerationService(repo *repository.Repository, audit *auditRecorder, logger *zap.Logger) ModerationService {
	return &moderationService{repo: repo, audit: audit, logger: logger}
}

// Create 代用户录入举报（站外渠道收到的举报由运营补录）
func (s *moderationService) Create(ctx context.Context, req *dto.CreateReportRequest, actorID string) (*dto.ReportResponse, error) {
	if _, err := s.repo.User.GetByID(ctx, req.ReporterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	report := &model.ModerationReport{
		ReporterID:  req.ReporterID,
		SubjectKind: req.SubjectKind,
		SubjectID:   req.SubjectID,
		Reason:      req.Reason,
		Detail:      req.Detail,
		Status:      model.ReportStatusOpen,
	}
	report.CreatedBy = &actorID
	if err := s.repo.Report.Create(ctx, report); err != nil {
		s.logger.Error("创建举报失败", zap.Error(err))
		return nil, err
	}

	resp := toReportResponse(report)
	return &resp, nil
}

func (s *moderationService) Get(ctx context.Context, id string) (*dto.ReportResponse, error) {
	report, err := s.repo.Report.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		s.logger.Error("查询举报失败", zap.Error(err))
		return nil, err
	}
	resp := toReportResponse(report)
	return &resp, nil
}

func (s *moderationService) List(ctx context.Context, req *dto.ReportListRequest) (*dto.ReportListResponse, error) {
	reports, total, err := s.repo.Report.List(ctx, req)
	if err != nil {
		s.logger.Error("查询举报列表失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.ReportResponse, 0, len(reports))
	for i := range reports {
		items = append(items, toReportResponse(&reports[i]))
	}
	return &dto.ReportListResponse{Total: total, Items: items}, nil
}

// ChangeStatus 举报状态流转；进入终态时记录裁决人与备注
func (s *moderationService) ChangeStatus(ctx context.Context, id string, target model.ReportStatus, resolutionNote, actorID string) error {
	report, err := s.repo.Report.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReportNotFound
		}
		s.logger.Error("查询举报失败", zap.Error(err))
		return err
	}

	if err := model.ValidateReportTransition(report.Status, target); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, err)
	}

	var resolvedBy *string
	if model.IsReportTerminal(target) {
		resolvedBy = &actorID
	}
	if err := s.repo.Report.UpdateStatus(ctx, id, target, resolvedBy, resolutionNote); err != nil {
		s.logger.Error("更新举报状态失败", zap.Error(err))
		return err
	}

	action := model.AuditActionStatusChange
	if model.IsReportTerminal(target) {
		action = model.AuditActionReportResolve
	}
	s.audit.record(ctx, actorID, action, "report", &id,
		fmt.Sprintf("举报状态 %s → %s", report.Status, target))
	return nil
}

func toReportResponse(report *model.ModerationReport) dto.ReportResponse {
	resp := dto.ReportResponse{
		ID:             report.ReportID,
		ReporterID:     report.ReporterID,
		SubjectKind:    report.SubjectKind,
		SubjectID:      report.SubjectID,
		Reason:         report.Reason,
		Detail:         report.Detail,
		Status:         string(report.Status),
		ResolvedBy:     report.ResolvedBy,
		ResolutionNote: report.ResolutionNote,
		CreatedAt:      report.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      report.UpdatedAt.Format(time.RFC3339),
	}
	if report.Reporter != nil {
		resp.ReporterHandle = report.Reporter.Handle
	}
	return resp
}
