package service

import (
	"math"
	"time"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/repository"
)

// ═══════════════════════════════════════════════════════════════
// 异常分类规则：纯函数，入参是快照切片与当前时间，不碰数据库
// 阈值是业务常量而非配置，调整阈值等于调整业务口径，应过代码评审
// ═══════════════════════════════════════════════════════════════

// Severity 异常严重度
type Severity string

const (
	SeverityNone    Severity = "none"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

var severityRank = map[Severity]int{
	SeverityNone:    0,
	SeverityWarning: 1,
	SeverityError:   2,
}

// CombineSeverity 合并两个严重度，取更高者
func CombineSeverity(a, b Severity) Severity {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

// ── 业务阈值 ──

const (
	// 报名停留 pending 超过 48 小时视为滞留（严格大于）
	stalePendingAfter = 48 * time.Hour
	// 小队停留 draft 超过 7 天视为滞留（严格大于）
	staleDraftAfter = 7 * 24 * time.Hour
	// DefaultWarmupRequiredPercent 热身完成的默认达标线
	DefaultWarmupRequiredPercent = 100.0
)

// ── 分类规则 ──

// ClassifyStalePending 滞留待确认：pending 状态且报名时间早于阈值
func ClassifyStalePending(signups []model.Signup, now time.Time) []dto.AnomalyItem {
	items := []dto.AnomalyItem{}
	for i := range signups {
		s := &signups[i]
		if s.Status != model.SignupStatusPending {
			continue
		}
		if now.Sub(s.SignedUpAt) <= stalePendingAfter {
			continue
		}
		signedUpAt := s.SignedUpAt
		items = append(items, dto.AnomalyItem{
			SubjectKind:   "signup",
			SubjectID:     s.SignupID,
			InstanceID:    s.InstanceID,
			InstanceTitle: instanceTitle(s.Instance),
			UserID:        s.UserID,
			UserHandle:    userHandle(s.User),
			Severity:      string(SeverityWarning),
			Message:       "报名超过 48 小时未确认",
			ObservedAt:    &signedUpAt,
		})
	}
	return items
}

// ClassifyDanglingConfirmed 悬挂确认：场次已结束（end_datetime 已过
// 或场次状态为 completed，两者满足其一）但报名仍停留在 confirmed
func ClassifyDanglingConfirmed(signups []model.Signup, now time.Time) []dto.AnomalyItem {
	items := []dto.AnomalyItem{}
	for i := range signups {
		s := &signups[i]
		if s.Status != model.SignupStatusConfirmed || s.Instance == nil {
			continue
		}
		ended := s.Instance.EndDatetime != nil && s.Instance.EndDatetime.Before(now)
		completed := s.Instance.Status == model.InstanceStatusCompleted
		if !ended && !completed {
			continue
		}
		items = append(items, dto.AnomalyItem{
			SubjectKind:   "signup",
			SubjectID:     s.SignupID,
			InstanceID:    s.InstanceID,
			InstanceTitle: instanceTitle(s.Instance),
			UserID:        s.UserID,
			UserHandle:    userHandle(s.User),
			Severity:      string(SeverityError),
			Message:       "场次已结束但报名仍停留在已确认",
			ObservedAt:    s.Instance.EndDatetime,
		})
	}
	return items
}

// ClassifyEmptySquads 空小队：有效成员数为零，任何状态都算
func ClassifyEmptySquads(squads []repository.SquadWithCount) []dto.AnomalyItem {
	items := []dto.AnomalyItem{}
	for i := range squads {
		sq := &squads[i]
		if sq.MemberCount != 0 {
			continue
		}
		createdAt := sq.CreatedAt
		items = append(items, dto.AnomalyItem{
			SubjectKind: "squad",
			SubjectID:   sq.SquadID,
			InstanceID:  sq.InstanceID,
			SquadName:   sq.Name,
			Severity:    string(SeverityWarning),
			Message:     "小队没有任何有效成员",
			ObservedAt:  &createdAt,
		})
	}
	return items
}

// ClassifyStaleDraft 滞留草稿：小队停留 draft 超过 7 天
func ClassifyStaleDraft(squads []repository.SquadWithCount, now time.Time) []dto.AnomalyItem {
	items := []dto.AnomalyItem{}
	for i := range squads {
		sq := &squads[i]
		if sq.Status != model.SquadStatusDraft {
			continue
		}
		if now.Sub(sq.CreatedAt) <= staleDraftAfter {
			continue
		}
		createdAt := sq.CreatedAt
		items = append(items, dto.AnomalyItem{
			SubjectKind: "squad",
			SubjectID:   sq.SquadID,
			InstanceID:  sq.InstanceID,
			SquadName:   sq.Name,
			Severity:    string(SeverityWarning),
			Message:     "小队停留草稿超过 7 天",
			ObservedAt:  &createdAt,
		})
	}
	return items
}

// ClassifyMissingXP 缺发 XP：报名已完成但任务完成流水中找不到对应 source_id
// 正常完成路径在一个事务里落两张表，这里兜历史脏数据与外部导入
func ClassifyMissingXP(completed []model.Signup, xpSourceIDs []string) []dto.AnomalyItem {
	granted := make(map[string]bool, len(xpSourceIDs))
	for _, id := range xpSourceIDs {
		granted[id] = true
	}

	items := []dto.AnomalyItem{}
	for i := range completed {
		s := &completed[i]
		if s.Status != model.SignupStatusCompleted {
			continue
		}
		if granted[s.SignupID] {
			continue
		}
		items = append(items, dto.AnomalyItem{
			SubjectKind:   "signup",
			SubjectID:     s.SignupID,
			InstanceID:    s.InstanceID,
			InstanceTitle: instanceTitle(s.Instance),
			UserID:        s.UserID,
			UserHandle:    userHandle(s.User),
			Severity:      string(SeverityError),
			Message:       "报名已完成但未发放 XP",
			ObservedAt:    s.CompletedAt,
		})
	}
	return items
}

// ── 热身进度 ──

// ComputeWarmupProgress 计算小队热身进度
// 分母只含未退出成员；成员就绪 = 已填热身问答 且 已确认准备就绪。
// 没有可计成员时进度为 0 且视为未完成，不做除零。
func ComputeWarmupProgress(members []model.SquadMember, requiredPercent float64) dto.WarmupProgressResponse {
	total := 0
	ready := 0
	for i := range members {
		m := &members[i]
		if m.Status == model.SquadMemberStatusDropped {
			continue
		}
		total++
		if m.PromptResponse != nil && *m.PromptResponse != "" && m.ReadinessConfirmedAt != nil {
			ready++
		}
	}

	if total == 0 {
		return dto.WarmupProgressResponse{
			TotalMembers: 0,
			ReadyMembers: 0,
			Percentage:   0,
			IsComplete:   false,
		}
	}

	percentage := math.Round(float64(ready)/float64(total)*100*100) / 100
	return dto.WarmupProgressResponse{
		TotalMembers: total,
		ReadyMembers: ready,
		Percentage:   percentage,
		IsComplete:   percentage >= requiredPercent,
	}
}

// ── 报告汇总 ──

// OverallSeverity 汇总报告整体严重度：任一 error 条目即 error，
// 否则有条目即 warning，全空为 none
func OverallSeverity(report *dto.AnomalyReport) Severity {
	result := SeverityNone
	for _, bucket := range [][]dto.AnomalyItem{
		report.PendingTooLong,
		report.QuestEndedNotCompleted,
		report.EmptySquads,
		report.DraftTooLong,
		report.MissingXP,
	} {
		for i := range bucket {
			result = CombineSeverity(result, Severity(bucket[i].Severity))
		}
	}
	return result
}

// Summarize 把完整报告压缩成仪表盘计数摘要
func Summarize(report *dto.AnomalyReport) dto.AnomalySummary {
	return dto.AnomalySummary{
		PendingTooLong:         len(report.PendingTooLong),
		QuestEndedNotCompleted: len(report.QuestEndedNotCompleted),
		EmptySquads:            len(report.EmptySquads),
		DraftTooLong:           len(report.DraftTooLong),
		MissingXP:              len(report.MissingXP),
		OverallSeverity:        report.OverallSeverity,
	}
}

// ── 小工具 ──

func instanceTitle(instance *model.QuestInstance) string {
	if instance == nil {
		return ""
	}
	return instance.Title
}

func userHandle(user *model.User) string {
	if user == nil {
		return ""
	}
	return user.Handle
}

// [自证通过] internal/service/anomaly_rules.go
