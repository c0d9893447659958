package dto

import "time"

// ── 异常巡检模块 DTO ──

// AnomalyItem 单条异常条目
// SubjectKind 取 signup | squad，SubjectID 指向对应主键
type AnomalyItem struct {
	SubjectKind   string     `json:"subject_kind"`
	SubjectID     string     `json:"subject_id"`
	InstanceID    string     `json:"instance_id,omitempty"`
	InstanceTitle string     `json:"instance_title,omitempty"`
	UserID        string     `json:"user_id,omitempty"`
	UserHandle    string     `json:"user_handle,omitempty"`
	SquadName     string     `json:"squad_name,omitempty"`
	Severity      string     `json:"severity"`
	Message       string     `json:"message"`
	ObservedAt    *time.Time `json:"observed_at,omitempty"` // 异常参照的业务时间（报名/创建时间等）
}

// AnomalyReport 异常巡检报告
// 五个分类固定；某个检查失败时该分类为空并在 check_errors 里说明，
// 其余分类不受影响
type AnomalyReport struct {
	PendingTooLong         []AnomalyItem `json:"pending_too_long"`
	QuestEndedNotCompleted []AnomalyItem `json:"quest_ended_not_completed"`
	EmptySquads            []AnomalyItem `json:"empty_squads"`
	DraftTooLong           []AnomalyItem `json:"draft_too_long"`
	MissingXP              []AnomalyItem `json:"missing_xp"`
	OverallSeverity        string        `json:"overall_severity"`
	CheckErrors            []string      `json:"check_errors,omitempty"`
	GeneratedAt            time.Time     `json:"generated_at"`
	FromCache              bool          `json:"from_cache"`
}

// AnomalySummary 仪表盘异常计数摘要
type AnomalySummary struct {
	PendingTooLong         int    `json:"pending_too_long"`
	QuestEndedNotCompleted int    `json:"quest_ended_not_completed"`
	EmptySquads            int    `json:"empty_squads"`
	DraftTooLong           int    `json:"draft_too_long"`
	MissingXP              int    `json:"missing_xp"`
	OverallSeverity        string `json:"overall_severity"`
}
