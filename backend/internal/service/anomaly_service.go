package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/repository"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/cache"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/metrics"
)

const (
	anomalyCacheNamespace = "anomaly"
	anomalyCacheKey       = "report"
)

// AnomalyService 异常巡检服务接口
type AnomalyService interface {
	// GetReport 获取异常报告；refresh 为 true 时跳过缓存强制重算
	GetReport(ctx context.Context, refresh bool) (*dto.AnomalyReport, error)
	// GetSummary 获取仪表盘用的计数摘要
	GetSummary(ctx context.Context) (*dto.AnomalySummary, error)
}

type anomalyService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	metrics *metrics.Manager
	logger  *zap.Logger
}

// NewAnomalyService 创建异常巡检服务实例
func NewAnomalyService(repo *repository.Repository, c *cache.Cache, m *metrics.Manager, logger *zap.Logger) AnomalyService {
	return &anomalyService{
		repo:    repo,
		cache:   c,
		metrics: m,
		logger:  logger,
	}
}

// anomalySnapshot 一次巡检需要的全部快照数据，每个槽位独立记录错误
type anomalySnapshot struct {
	pending   []model.Signup
	confirmed []model.Signup
	completed []model.Signup
	squads    []repository.SquadWithCount
	xpSources []string

	pendingErr   error
	confirmedErr error
	completedErr error
	squadsErr    error
	xpErr        error
}

func (s *anomalyService) GetReport(ctx context.Context, refresh bool) (*dto.AnomalyReport, error) {
	// 1. 读缓存（强制刷新时跳过）
	if !refresh {
		cached := &dto.AnomalyReport{}
		if err := s.cache.GetJSON(ctx, anomalyCacheNamespace, anomalyCacheKey, cached); err == nil {
			cached.FromCache = true
			return cached, nil
		}
	}

	// 2. 并发拉取快照
	snap := s.fetchSnapshot(ctx)

	// 3. 分类并汇总
	report := s.classify(snap, time.Now())

	// 4. 上报各分类规模
	s.metrics.SetAnomalyBucketSize("pending_too_long", len(report.PendingTooLong))
	s.metrics.SetAnomalyBucketSize("quest_ended_not_completed", len(report.QuestEndedNotCompleted))
	s.metrics.SetAnomalyBucketSize("empty_squads", len(report.EmptySquads))
	s.metrics.SetAnomalyBucketSize("draft_too_long", len(report.DraftTooLong))
	s.metrics.SetAnomalyBucketSize("missing_xp", len(report.MissingXP))

	// 5. 完整报告才进缓存，带着检查失败的报告缓存会把瞬时故障固化一个 TTL 周期
	if len(report.CheckErrors) == 0 {
		s.cache.SetJSON(ctx, anomalyCacheNamespace, anomalyCacheKey, report)
	}

	return report, nil
}

func (s *anomalyService) GetSummary(ctx context.Context) (*dto.AnomalySummary, error) {
	report, err := s.GetReport(ctx, false)
	if err != nil {
		return nil, err
	}
	summary := Summarize(report)
	return &summary, nil
}

// fetchSnapshot 并发拉取五路快照
// 闭包一律返回 nil：某一路失败不应取消兄弟查询，错误逐槽记录，
// 分类阶段据此决定哪些检查降级
func (s *anomalyService) fetchSnapshot(ctx context.Context) *anomalySnapshot {
	snap := &anomalySnapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		snap.pending, snap.pendingErr = s.repo.Signup.ListByStatusWithInstance(gctx, model.SignupStatusPending)
		return nil
	})
	g.Go(func() error {
		snap.confirmed, snap.confirmedErr = s.repo.Signup.ListByStatusWithInstance(gctx, model.SignupStatusConfirmed)
		return nil
	})
	g.Go(func() error {
		snap.completed, snap.completedErr = s.repo.Signup.ListByStatusWithInstance(gctx, model.SignupStatusCompleted)
		return nil
	})
	g.Go(func() error {
		snap.squads, snap.squadsErr = s.repo.Squad.ListAllWithCounts(gctx)
		return nil
	})
	g.Go(func() error {
		snap.xpSources, snap.xpErr = s.repo.XP.ListQuestCompletionSourceIDs(gctx)
		return nil
	})

	_ = g.Wait()
	return snap
}

// classify 把快照喂给各条规则，拼装完整报告
// 任一检查的数据拉取失败时：该分类为空、check_errors 记一笔，其余分类照常
func (s *anomalyService) classify(snap *anomalySnapshot, now time.Time) *dto.AnomalyReport {
	report := &dto.AnomalyReport{
		PendingTooLong:         []dto.AnomalyItem{},
		QuestEndedNotCompleted: []dto.AnomalyItem{},
		EmptySquads:            []dto.AnomalyItem{},
		DraftTooLong:           []dto.AnomalyItem{},
		MissingXP:              []dto.AnomalyItem{},
		GeneratedAt:            now,
		FromCache:              false,
	}

	if snap.pendingErr != nil {
		s.logger.Error("巡检快照拉取失败", zap.String("check", "pending_too_long"), zap.Error(snap.pendingErr))
		report.CheckErrors = append(report.CheckErrors, fmt.Sprintf("pending_too_long: %v", snap.pendingErr))
	} else {
		report.PendingTooLong = ClassifyStalePending(snap.pending, now)
	}

	if snap.confirmedErr != nil {
		s.logger.Error("巡检快照拉取失败", zap.String("check", "quest_ended_not_completed"), zap.Error(snap.confirmedErr))
		report.CheckErrors = append(report.CheckErrors, fmt.Sprintf("quest_ended_not_completed: %v", snap.confirmedErr))
	} else {
		report.QuestEndedNotCompleted = ClassifyDanglingConfirmed(snap.confirmed, now)
	}

	// 空小队与滞留草稿共用同一份快照，拉取失败时两个检查一起降级
	if snap.squadsErr != nil {
		s.logger.Error("巡检快照拉取失败", zap.String("check", "squads"), zap.Error(snap.squadsErr))
		report.CheckErrors = append(report.CheckErrors,
			fmt.Sprintf("empty_squads: %v", snap.squadsErr),
			fmt.Sprintf("draft_too_long: %v", snap.squadsErr))
	} else {
		report.EmptySquads = ClassifyEmptySquads(snap.squads)
		report.DraftTooLong = ClassifyStaleDraft(snap.squads, now)
	}

	// 缺发 XP 需要两份快照，任一失败就降级
	switch {
	case snap.completedErr != nil:
		s.logger.Error("巡检快照拉取失败", zap.String("check", "missing_xp"), zap.Error(snap.completedErr))
		report.CheckErrors = append(report.CheckErrors, fmt.Sprintf("missing_xp: %v", snap.completedErr))
	case snap.xpErr != nil:
		s.logger.Error("巡检快照拉取失败", zap.String("check", "missing_xp"), zap.Error(snap.xpErr))
		report.CheckErrors = append(report.CheckErrors, fmt.Sprintf("missing_xp: %v", snap.xpErr))
	default:
		report.MissingXP = ClassifyMissingXP(snap.completed, snap.xpSources)
	}

	report.OverallSeverity = string(OverallSeverity(report))
	return report
}
