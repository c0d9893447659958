package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/repository"
)

// StatsService 仪表盘汇总业务接口
type StatsService interface {
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
}

type statsService struct {
	repo    *repository.Repository
	anomaly AnomalyService
	logger  *zap.Logger
}

// NewStatsService 创建 StatsService 实例
func NewStatsService(repo *repository.Repository, anomaly AnomalyService, logger *zap.Logger) StatsService {
	return &statsService{repo: repo, anomaly: anomaly, logger: logger}
}

// Dashboard 首页五个计数并发取数，任一失败整体报错；
// 异常摘要挂了只降级为空，不拖垮首页
func (s *statsService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	resp := &dto.DashboardResponse{}
	now := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		resp.TotalUsers, err = s.repo.User.CountAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		resp.ActiveSquads, err = s.repo.Squad.CountByStatus(gctx, model.SquadStatusActive)
		return err
	})
	g.Go(func() error {
		var err error
		resp.UpcomingInstances, err = s.repo.Instance.CountUpcoming(gctx, now)
		return err
	})
	g.Go(func() error {
		var err error
		resp.OpenTickets, err = s.repo.Ticket.CountOpen(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		resp.OpenReports, err = s.repo.Report.CountOpen(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("仪表盘计数失败", zap.Error(err))
		return nil, err
	}

	summary, err := s.anomaly.GetSummary(ctx)
	if err != nil {
		s.logger.Warn("仪表盘异常摘要降级", zap.Error(err))
		resp.Anomalies = dto.AnomalySummary{OverallSeverity: string(SeverityNone)}
	} else {
		resp.Anomalies = *summary
	}
	return resp, nil
}
