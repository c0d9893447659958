// Package monitor 后台巡检：周期性重算活跃小队的聊天活跃度与异常报告，
// 并把结果写进缓存和 Prometheus 指标。整个服务唯一的后台循环。
package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/OpenClique85/openclique-sub004/backend/config"
	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/metrics"
)

const defaultInterval = 30 * time.Second

// ActivityRefresher 重算活跃小队聊天面板并写缓存
type ActivityRefresher interface {
	RefreshActivity(ctx context.Context) (*dto.SquadActivityPanelResponse, error)
}

// ReportRefresher 重算异常报告并写缓存；refresh 为 true 时跳过缓存
type ReportRefresher interface {
	GetReport(ctx context.Context, refresh bool) (*dto.AnomalyReport, error)
}

// Monitor 周期巡检器，Run 启动循环，Shutdown 等待退出
type Monitor struct {
	interval time.Duration
	squads   ActivityRefresher
	anomaly  ReportRefresher
	metrics  *metrics.Manager
	logger   *zap.Logger

	shutdown chan struct{}
	done     chan struct{}
}

// New 创建巡检器；interval 未配置时退到 30s
func New(cfg *config.Config, squads ActivityRefresher, anomaly ReportRefresher, m *metrics.Manager, logger *zap.Logger) *Monitor {
	interval := cfg.Monitor.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Monitor{
		interval: interval,
		squads:   squads,
		anomaly:  anomaly,
		metrics:  m,
		logger:   logger,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run 启动巡检循环，直到 ctx 取消或 Shutdown 被调用。
// 启动时立刻跑一轮，不让面板和指标空窗一个周期。
func (m *Monitor) Run(ctx context.Context) {
	defer close(m.done)

	m.logger.Info("后台巡检启动", zap.Duration("interval", m.interval))
	m.sweep(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("后台巡检停止", zap.String("reason", "context canceled"))
			return
		case <-m.shutdown:
			m.logger.Info("后台巡检停止", zap.String("reason", "shutdown"))
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

// Shutdown 通知循环退出并等待当前一轮跑完；ctx 超时则放弃等待
func (m *Monitor) Shutdown(ctx context.Context) error {
	close(m.shutdown)
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		m.logger.Warn("等待巡检退出超时")
		return fmt.Errorf("等待巡检退出超时: %w", ctx.Err())
	}
}

// sweep 跑一轮巡检。两路检查互不拦路：一路失败只记指标和日志，
// 另一路照常执行，残缺的轮次下个周期自然补齐。
func (m *Monitor) sweep(ctx context.Context) {
	start := time.Now()

	panel, err := m.squads.RefreshActivity(ctx)
	if err != nil {
		m.metrics.RecordSweepError()
		m.logger.Error("聊天活跃度巡检失败", zap.Error(err))
	} else {
		m.metrics.SetStaleChatCount(panel.StaleCount)
	}

	// 异常分类的 gauge 由报告服务在重算时自己更新
	report, err := m.anomaly.GetReport(ctx, true)
	if err != nil {
		m.metrics.RecordSweepError()
		m.logger.Error("异常巡检失败", zap.Error(err))
	} else if len(report.CheckErrors) > 0 {
		m.logger.Warn("异常巡检部分检查失败", zap.Strings("check_errors", report.CheckErrors))
	}

	m.metrics.RecordSweep(float64(time.Since(start).Milliseconds()))
}
