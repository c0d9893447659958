package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/repository"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/cache"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/metrics"
)

func setupTestStatsService(t *testing.T) (StatsService, *testRepos, *repository.Repository) {
	t.Helper()
	repos := newTestRepos()
	logger := zap.NewNop()
	repo := repos.toRepository()
	anomaly := NewAnomalyService(repo, cache.New(newMemStore(), time.Minute, logger), metrics.NewManager(), logger)
	svc := NewStatsService(repo, anomaly, logger)
	return svc, repos, repo
}

// failingAnomalyService 模拟异常巡检整体不可用
type failingAnomalyService struct{}

func (failingAnomalyService) GetReport(context.Context, bool) (*dto.AnomalyReport, error) {
	return nil, errors.New("缓存后端不可用")
}

func (failingAnomalyService) GetSummary(context.Context) (*dto.AnomalySummary, error) {
	return nil, errors.New("缓存后端不可用")
}

// failingUserRepo 包装正常仓储，仅让全量计数失败
type failingUserRepo struct {
	repository.UserRepository
}

func (f *failingUserRepo) CountAll(_ context.Context) (int64, error) {
	return 0, errors.New("连接超时")
}

func TestStatsService_Dashboard_Counts(t *testing.T) {
	svc, repos, _ := setupTestStatsService(t)
	seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "pw")
	alice := seedUserWithPassword(t, repos, "alice", model.RoleParticipant, model.UserStatusActive, "pw")
	quest := seedQuest(t, repos, "城市寻宝", 50)

	// 即将开始：招募中且时间在未来
	upcoming := seedInstance(t, repos, quest.QuestID, "下周场", model.InstanceStatusRecruiting, 10)
	future := time.Now().Add(48 * time.Hour)
	upcoming.ScheduledDate = &future

	// 已结束场次不计入
	past := seedInstance(t, repos, quest.QuestID, "上周场", model.InstanceStatusCompleted, 10)
	gone := time.Now().Add(-48 * time.Hour)
	past.ScheduledDate = &gone

	// 进行中小队带一名成员，避免被巡检当成空小队
	squad := seedSquad(t, repos, upcoming.InstanceID, "先锋队", model.SquadStatusActive)
	squad.CreatedAt = time.Now()
	seedSquadMember(t, repos, squad.SquadID, alice.UserID, true)

	seedTicket(t, repos, alice.UserID, model.TicketStatusOpen)
	seedTicket(t, repos, alice.UserID, model.TicketStatusClosed)
	seedReport(t, repos, alice.UserID, alice.UserID, model.ReportStatusOpen)
	seedReport(t, repos, alice.UserID, alice.UserID, model.ReportStatusDismissed)

	resp, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("仪表盘汇总应成功: %v", err)
	}
	if resp.TotalUsers != 2 {
		t.Errorf("期望用户总数=2，实际=%d", resp.TotalUsers)
	}
	if resp.ActiveSquads != 1 {
		t.Errorf("期望进行中小队=1，实际=%d", resp.ActiveSquads)
	}
	if resp.UpcomingInstances != 1 {
		t.Errorf("期望即将开始场次=1，实际=%d", resp.UpcomingInstances)
	}
	if resp.OpenTickets != 1 {
		t.Errorf("期望未结工单=1，实际=%d", resp.OpenTickets)
	}
	if resp.OpenReports != 1 {
		t.Errorf("期望未结举报=1，实际=%d", resp.OpenReports)
	}
	if resp.Anomalies.OverallSeverity != string(SeverityNone) {
		t.Errorf("健康数据的异常摘要应为 none，实际=%s", resp.Anomalies.OverallSeverity)
	}
}

func TestStatsService_Dashboard_AnomalyFailureDegrades(t *testing.T) {
	repos := newTestRepos()
	logger := zap.NewNop()
	svc := NewStatsService(repos.toRepository(), failingAnomalyService{}, logger)
	seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "pw")

	resp, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("异常摘要失败不应拖垮首页: %v", err)
	}
	if resp.TotalUsers != 1 {
		t.Errorf("计数部分应照常返回，实际用户数=%d", resp.TotalUsers)
	}
	if resp.Anomalies.OverallSeverity != string(SeverityNone) {
		t.Errorf("降级后的异常摘要应为空摘要，实际=%+v", resp.Anomalies)
	}
}

func TestStatsService_Dashboard_CountFailurePropagates(t *testing.T) {
	svc, repos, repo := setupTestStatsService(t)
	seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "pw")
	repo.User = &failingUserRepo{repos.user}

	// 计数是首页主体，查不出来必须整体报错而不是显示 0
	if _, err := svc.Dashboard(context.Background()); err == nil {
		t.Fatal("计数失败应让仪表盘整体报错")
	}
}
