package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
)

// ReportRepository 举报数据访问接口
type ReportRepository interface {
	Create(ctx context.Context, report *model.ModerationReport) error
	GetByID(ctx context.Context, id string) (*model.ModerationReport, error)
	UpdateStatus(ctx context.Context, id string, status model.ReportStatus, resolvedBy *string, resolutionNote string) error
	List(ctx context.Context, req *dto.ReportListRequest) ([]model.ModerationReport, int64, error)
	CountOpen(ctx context.Context) (int64, error)
}

type reportRepo struct {
	db *gorm.DB
}

// NewReportRepo 创建 ReportRepository 实例
func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) Create(ctx context.Context, report *model.ModerationReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepo) GetByID(ctx context.Context, id string) (*model.ModerationReport, error) {
	var report model.ModerationReport
	err := r.db.WithContext(ctx).
		Preload("Reporter").
		Where("report_id = ?", id).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) UpdateStatus(ctx context.Context, id string, status model.ReportStatus, resolvedBy *string, resolutionNote string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_by": resolvedBy,
	}
	if model.IsReportTerminal(status) {
		updates["resolved_by"] = resolvedBy
		updates["resolution_note"] = resolutionNote
	}
	return r.db.WithContext(ctx).
		Model(&model.ModerationReport{}).
		Where("report_id = ?", id).
		Updates(updates).Error
}

func (r *reportRepo) List(ctx context.Context, req *dto.ReportListRequest) ([]model.ModerationReport, int64, error) {
	var reports []model.ModerationReport
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ModerationReport{})
	if req.Status != "" {
		db = db.Where("status = ?", req.Status)
	}
	if req.SubjectKind != "" {
		db = db.Where("subject_kind = ?", req.SubjectKind)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Reporter").
		Offset(req.GetOffset()).Limit(req.GetPageSize()).
		Order("created_at DESC").
		Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

// CountOpen 未处置举报数（open/under_review）
func (r *reportRepo) CountOpen(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.ModerationReport{}).
		Where("status IN ?", []model.ReportStatus{
			model.ReportStatusOpen, model.ReportStatusUnderReview,
		}).
		Count(&total).Error
	return total, err
}
