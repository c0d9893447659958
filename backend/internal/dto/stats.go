package dto

// ── 仪表盘模块 DTO ──

// DashboardResponse 管理后台首页汇总
type DashboardResponse struct {
	TotalUsers        int64          `json:"total_users"`
	ActiveSquads      int64          `json:"active_squads"`
	UpcomingInstances int64          `json:"upcoming_instances"`
	OpenTickets       int64          `json:"open_tickets"`
	OpenReports       int64          `json:"open_reports"`
	Anomalies         AnomalySummary `json:"anomalies"`
}
