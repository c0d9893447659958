package service

import (
	"reflect"
	"testing"
	"time"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/repository"
)

// 统一基准时间，规则全部吃显式 now，测试不依赖真实时钟
var ruleNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func pendingSignupAgedBy(id string, age time.Duration) model.Signup {
	return model.Signup{
		SignupID:   id,
		UserID:     "user-1",
		InstanceID: "inst-1",
		Status:     model.SignupStatusPending,
		SignedUpAt: ruleNow.Add(-age),
	}
}

// ════════════════════════════════════════════════════════════
// 滞留待确认
// ════════════════════════════════════════════════════════════

func TestClassifyStalePending_Boundary(t *testing.T) {
	tests := []struct {
		name    string
		age     time.Duration
		flagged bool
	}{
		{"49小时应标记", 49 * time.Hour, true},
		{"47小时不标记", 47 * time.Hour, false},
		{"刚好48小时不标记", 48 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := ClassifyStalePending([]model.Signup{pendingSignupAgedBy("su-1", tt.age)}, ruleNow)
			if got := len(items) == 1; got != tt.flagged {
				t.Errorf("期望 flagged=%v，实际条目数=%d", tt.flagged, len(items))
			}
		})
	}
}

func TestClassifyStalePending_SeverityAndFields(t *testing.T) {
	signup := pendingSignupAgedBy("su-9", 72*time.Hour)
	signup.User = &model.User{UserID: "user-1", Handle: "nightowl"}
	signup.Instance = &model.QuestInstance{InstanceID: "inst-1", Title: "城市夜行"}

	items := ClassifyStalePending([]model.Signup{signup}, ruleNow)
	if len(items) != 1 {
		t.Fatalf("期望 1 条异常，实际 %d", len(items))
	}
	item := items[0]
	if item.Severity != string(SeverityWarning) {
		t.Errorf("期望 severity=warning，实际=%s", item.Severity)
	}
	if item.SubjectKind != "signup" || item.SubjectID != "su-9" {
		t.Errorf("主体字段不对: kind=%s id=%s", item.SubjectKind, item.SubjectID)
	}
	if item.UserHandle != "nightowl" || item.InstanceTitle != "城市夜行" {
		t.Errorf("展示字段不对: handle=%s title=%s", item.UserHandle, item.InstanceTitle)
	}
}

func TestClassifyStalePending_SkipsNonPending(t *testing.T) {
	confirmed := pendingSignupAgedBy("su-2", 100*time.Hour)
	confirmed.Status = model.SignupStatusConfirmed

	items := ClassifyStalePending([]model.Signup{confirmed}, ruleNow)
	if len(items) != 0 {
		t.Errorf("非 pending 报名不应被标记，实际 %d 条", len(items))
	}
}

// ════════════════════════════════════════════════════════════
// 悬挂确认：两个触发条件是“或”的关系
// ════════════════════════════════════════════════════════════

func TestClassifyDanglingConfirmed_OrSemantics(t *testing.T) {
	pastEnd := ruleNow.Add(-2 * time.Hour)
	futureEnd := ruleNow.Add(2 * time.Hour)

	tests := []struct {
		name     string
		end      *time.Time
		instStat model.InstanceStatus
		flagged  bool
	}{
		{"结束时间已过即标记", &pastEnd, model.InstanceStatusLive, true},
		{"场次标记完成即标记", &futureEnd, model.InstanceStatusCompleted, true},
		{"两个条件同时满足", &pastEnd, model.InstanceStatusCompleted, true},
		{"都不满足不标记", &futureEnd, model.InstanceStatusLive, false},
		{"无结束时间且未完成不标记", nil, model.InstanceStatusRecruiting, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signup := model.Signup{
				SignupID:   "su-1",
				UserID:     "user-1",
				InstanceID: "inst-1",
				Status:     model.SignupStatusConfirmed,
				Instance: &model.QuestInstance{
					InstanceID:  "inst-1",
					Title:       "剧本围读",
					Status:      tt.instStat,
					EndDatetime: tt.end,
				},
			}
			items := ClassifyDanglingConfirmed([]model.Signup{signup}, ruleNow)
			if got := len(items) == 1; got != tt.flagged {
				t.Errorf("期望 flagged=%v，实际条目数=%d", tt.flagged, len(items))
			}
			if tt.flagged && items[0].Severity != string(SeverityError) {
				t.Errorf("悬挂确认应为 error，实际=%s", items[0].Severity)
			}
		})
	}
}

func TestClassifyDanglingConfirmed_NilInstanceSkipped(t *testing.T) {
	signup := model.Signup{SignupID: "su-1", Status: model.SignupStatusConfirmed}
	items := ClassifyDanglingConfirmed([]model.Signup{signup}, ruleNow)
	if len(items) != 0 {
		t.Errorf("缺失场次关联时应跳过，实际 %d 条", len(items))
	}
}

// ════════════════════════════════════════════════════════════
// 空小队 / 滞留草稿
// ════════════════════════════════════════════════════════════

func TestClassifyEmptySquads_AnyStatus(t *testing.T) {
	squads := []repository.SquadWithCount{
		{Squad: model.Squad{SquadID: "sq-1", Name: "夜行一组", Status: model.SquadStatusActive}, MemberCount: 0},
		{Squad: model.Squad{SquadID: "sq-2", Name: "夜行二组", Status: model.SquadStatusCompleted}, MemberCount: 0},
		{Squad: model.Squad{SquadID: "sq-3", Name: "夜行三组", Status: model.SquadStatusDraft}, MemberCount: 2},
	}

	items := ClassifyEmptySquads(squads)
	if len(items) != 2 {
		t.Fatalf("两个空小队都应标记（含已完成状态），实际 %d 条", len(items))
	}
	if items[0].SubjectID != "sq-1" || items[1].SubjectID != "sq-2" {
		t.Errorf("标记对象不对: %s, %s", items[0].SubjectID, items[1].SubjectID)
	}
}

func TestClassifyStaleDraft_Boundary(t *testing.T) {
	mk := func(id string, age time.Duration, status model.SquadStatus) repository.SquadWithCount {
		sq := repository.SquadWithCount{MemberCount: 3}
		sq.SquadID = id
		sq.Status = status
		sq.CreatedAt = ruleNow.Add(-age)
		return sq
	}

	squads := []repository.SquadWithCount{
		mk("sq-old", 8*24*time.Hour, model.SquadStatusDraft),
		mk("sq-fresh", 6*24*time.Hour, model.SquadStatusDraft),
		mk("sq-active", 30*24*time.Hour, model.SquadStatusActive),
	}

	items := ClassifyStaleDraft(squads, ruleNow)
	if len(items) != 1 {
		t.Fatalf("只有超期草稿应被标记，实际 %d 条", len(items))
	}
	if items[0].SubjectID != "sq-old" {
		t.Errorf("期望标记 sq-old，实际=%s", items[0].SubjectID)
	}
}

// ════════════════════════════════════════════════════════════
// 缺发 XP：集合差
// ════════════════════════════════════════════════════════════

func TestClassifyMissingXP_SetDifference(t *testing.T) {
	completedAt := ruleNow.Add(-24 * time.Hour)
	completed := []model.Signup{
		{SignupID: "su-1", UserID: "u-1", InstanceID: "inst-1", Status: model.SignupStatusCompleted, CompletedAt: &completedAt},
		{SignupID: "su-2", UserID: "u-2", InstanceID: "inst-1", Status: model.SignupStatusCompleted, CompletedAt: &completedAt},
		{SignupID: "su-3", UserID: "u-3", InstanceID: "inst-1", Status: model.SignupStatusCompleted, CompletedAt: &completedAt},
	}
	// su-2 已发放，su-1/su-3 缺口
	items := ClassifyMissingXP(completed, []string{"su-2", "su-unrelated"})

	if len(items) != 2 {
		t.Fatalf("期望 2 条缺口，实际 %d", len(items))
	}
	got := map[string]bool{items[0].SubjectID: true, items[1].SubjectID: true}
	if !got["su-1"] || !got["su-3"] {
		t.Errorf("缺口对象不对: %v", got)
	}
	if items[0].Severity != string(SeverityError) {
		t.Errorf("缺发 XP 应为 error，实际=%s", items[0].Severity)
	}
}

func TestClassifyMissingXP_AllGranted(t *testing.T) {
	completedAt := ruleNow
	completed := []model.Signup{
		{SignupID: "su-1", Status: model.SignupStatusCompleted, CompletedAt: &completedAt},
	}
	items := ClassifyMissingXP(completed, []string{"su-1"})
	if len(items) != 0 {
		t.Errorf("全部已发放时不应有异常，实际 %d 条", len(items))
	}
}

// ════════════════════════════════════════════════════════════
// 热身进度
// ════════════════════════════════════════════════════════════

func warmupMember(id string, ready bool, status model.SquadMemberStatus) model.SquadMember {
	m := model.SquadMember{SquadMemberID: id, SquadID: "sq-1", UserID: "u-" + id, Status: status}
	if ready {
		resp := "想认识新朋友"
		confirmed := ruleNow.Add(-time.Hour)
		m.PromptResponse = &resp
		m.ReadinessConfirmedAt = &confirmed
	}
	return m
}

func TestComputeWarmupProgress_ThreeMemberCase(t *testing.T) {
	members := []model.SquadMember{
		warmupMember("m1", true, model.SquadMemberStatusActive),
		warmupMember("m2", true, model.SquadMemberStatusActive),
		warmupMember("m3", false, model.SquadMemberStatusActive),
	}

	progress := ComputeWarmupProgress(members, DefaultWarmupRequiredPercent)
	if progress.TotalMembers != 3 || progress.ReadyMembers != 2 {
		t.Errorf("期望 3 人中 2 人就绪，实际 %d/%d", progress.ReadyMembers, progress.TotalMembers)
	}
	if progress.Percentage != 66.67 {
		t.Errorf("期望进度 66.67，实际=%v", progress.Percentage)
	}
	if progress.IsComplete {
		t.Error("未达标不应 IsComplete")
	}
}

func TestComputeWarmupProgress_DroppedExcluded(t *testing.T) {
	members := []model.SquadMember{
		warmupMember("m1", true, model.SquadMemberStatusActive),
		warmupMember("m2", true, model.SquadMemberStatusActive),
		// 已退出成员即使填过问答也不计入分母
		warmupMember("m3", true, model.SquadMemberStatusDropped),
		warmupMember("m4", false, model.SquadMemberStatusDropped),
	}

	progress := ComputeWarmupProgress(members, DefaultWarmupRequiredPercent)
	if progress.TotalMembers != 2 || progress.ReadyMembers != 2 {
		t.Errorf("退出成员应被排除，实际 %d/%d", progress.ReadyMembers, progress.TotalMembers)
	}
	if progress.Percentage != 100 || !progress.IsComplete {
		t.Errorf("剩余成员全就绪应完成，实际 percentage=%v complete=%v", progress.Percentage, progress.IsComplete)
	}
}

func TestComputeWarmupProgress_ZeroEligible(t *testing.T) {
	tests := []struct {
		name    string
		members []model.SquadMember
	}{
		{"空成员列表", nil},
		{"全部已退出", []model.SquadMember{
			warmupMember("m1", true, model.SquadMemberStatusDropped),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress := ComputeWarmupProgress(tt.members, DefaultWarmupRequiredPercent)
			if progress.Percentage != 0 {
				t.Errorf("无可计成员时进度应为 0，实际=%v", progress.Percentage)
			}
			if progress.IsComplete {
				t.Error("无可计成员时不应视为完成")
			}
		})
	}
}

func TestComputeWarmupProgress_ReadyNeedsBothFields(t *testing.T) {
	resp := "随便写点"
	confirmed := ruleNow

	onlyPrompt := model.SquadMember{SquadMemberID: "m1", Status: model.SquadMemberStatusActive, PromptResponse: &resp}
	onlyConfirm := model.SquadMember{SquadMemberID: "m2", Status: model.SquadMemberStatusActive, ReadinessConfirmedAt: &confirmed}
	emptyPrompt := model.SquadMember{SquadMemberID: "m3", Status: model.SquadMemberStatusActive, PromptResponse: new(string), ReadinessConfirmedAt: &confirmed}

	progress := ComputeWarmupProgress([]model.SquadMember{onlyPrompt, onlyConfirm, emptyPrompt}, DefaultWarmupRequiredPercent)
	if progress.ReadyMembers != 0 {
		t.Errorf("问答与确认缺一不可，期望 0 人就绪，实际=%d", progress.ReadyMembers)
	}
}

// ════════════════════════════════════════════════════════════
// 严重度合并与汇总
// ════════════════════════════════════════════════════════════

func TestCombineSeverity_HighestWins(t *testing.T) {
	tests := []struct {
		a, b, want Severity
	}{
		{SeverityNone, SeverityNone, SeverityNone},
		{SeverityNone, SeverityWarning, SeverityWarning},
		{SeverityWarning, SeverityNone, SeverityWarning},
		{SeverityWarning, SeverityError, SeverityError},
		{SeverityError, SeverityWarning, SeverityError},
	}
	for _, tt := range tests {
		if got := CombineSeverity(tt.a, tt.b); got != tt.want {
			t.Errorf("CombineSeverity(%s, %s) 期望 %s，实际 %s", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestOverallSeverity(t *testing.T) {
	empty := &dto.AnomalyReport{}
	if got := OverallSeverity(empty); got != SeverityNone {
		t.Errorf("空报告应为 none，实际=%s", got)
	}

	warnOnly := &dto.AnomalyReport{
		EmptySquads: []dto.AnomalyItem{{Severity: string(SeverityWarning)}},
	}
	if got := OverallSeverity(warnOnly); got != SeverityWarning {
		t.Errorf("只有警告应为 warning，实际=%s", got)
	}

	mixed := &dto.AnomalyReport{
		PendingTooLong: []dto.AnomalyItem{{Severity: string(SeverityWarning)}},
		MissingXP:      []dto.AnomalyItem{{Severity: string(SeverityError)}},
	}
	if got := OverallSeverity(mixed); got != SeverityError {
		t.Errorf("含 error 条目应为 error，实际=%s", got)
	}
}

func TestSummarize_Counts(t *testing.T) {
	report := &dto.AnomalyReport{
		PendingTooLong:  []dto.AnomalyItem{{}, {}},
		MissingXP:       []dto.AnomalyItem{{}},
		OverallSeverity: string(SeverityError),
	}
	summary := Summarize(report)
	if summary.PendingTooLong != 2 || summary.MissingXP != 1 {
		t.Errorf("计数不对: %+v", summary)
	}
	if summary.EmptySquads != 0 || summary.DraftTooLong != 0 || summary.QuestEndedNotCompleted != 0 {
		t.Errorf("空分类计数应为 0: %+v", summary)
	}
	if summary.OverallSeverity != string(SeverityError) {
		t.Errorf("整体严重度应透传，实际=%s", summary.OverallSeverity)
	}
}

// ════════════════════════════════════════════════════════════
// 幂等：同一快照跑两遍结果一致
// ════════════════════════════════════════════════════════════

func TestClassifiers_Idempotent(t *testing.T) {
	signups := []model.Signup{
		pendingSignupAgedBy("su-1", 60*time.Hour),
		pendingSignupAgedBy("su-2", 10*time.Hour),
	}

	first := ClassifyStalePending(signups, ruleNow)
	second := ClassifyStalePending(signups, ruleNow)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("同一快照两次分类结果不一致:\n%+v\n%+v", first, second)
	}

	members := []model.SquadMember{
		warmupMember("m1", true, model.SquadMemberStatusActive),
		warmupMember("m2", false, model.SquadMemberStatusActive),
	}
	p1 := ComputeWarmupProgress(members, DefaultWarmupRequiredPercent)
	p2 := ComputeWarmupProgress(members, DefaultWarmupRequiredPercent)
	if p1 != p2 {
		t.Errorf("热身进度计算不幂等: %+v vs %+v", p1, p2)
	}
}
