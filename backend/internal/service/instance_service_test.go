package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
)

func setupTestInstanceService(t *testing.T) (InstanceService, *testRepos) {
	t.Helper()
	repos := newTestRepos()
	logger := zap.NewNop()
	repo := repos.toRepository()
	audit := newAuditRecorder(repo, logger)
	svc := NewInstanceService(repo, audit, logger)
	return svc, repos
}

// ── CreateFromQuest 测试 ──

func TestInstanceService_CreateFromQuest_TitleDefaultsToQuest(t *testing.T) {
	svc, repos := setupTestInstanceService(t)
	admin := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "pw")
	quest := seedQuest(t, repos, "城市寻宝", 50)

	resp, err := svc.CreateFromQuest(context.Background(), quest.QuestID, &dto.CreateInstanceRequest{
		Capacity: 12,
		Location: "人民广场",
	}, admin.UserID)
	if err != nil {
		t.Fatalf("CreateFromQuest 应成功: %v", err)
	}
	if resp.Title != "城市寻宝" {
		t.Errorf("标题缺省应沿用模板，实际=%s", resp.Title)
	}
	if resp.Status != string(model.InstanceStatusDraft) {
		t.Errorf("期望状态=draft，实际=%s", resp.Status)
	}
	if resp.QuestTitle != "城市寻宝" {
		t.Errorf("期望QuestTitle=城市寻宝，实际=%s", resp.QuestTitle)
	}
}

func TestInstanceService_CreateFromQuest_RetiredRejected(t *testing.T) {
	svc, repos := setupTestInstanceService(t)
	admin := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "pw")
	quest := seedQuest(t, repos, "老活动", 50)
	quest.Status = model.QuestStatusRetired

	_, err := svc.CreateFromQuest(context.Background(), quest.QuestID, &dto.CreateInstanceRequest{}, admin.UserID)
	if !errors.Is(err, ErrQuestRetired) {
		t.Errorf("期望ErrQuestRetired，实际=%v", err)
	}
}

func TestInstanceService_CreateFromQuest_QuestNotFound(t *testing.T) {
	svc, repos := setupTestInstanceService(t)
	admin := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "pw")

	_, err := svc.CreateFromQuest(context.Background(), "missing", &dto.CreateInstanceRequest{}, admin.UserID)
	if !errors.Is(err, ErrQuestNotFound) {
		t.Errorf("期望ErrQuestNotFound，实际=%v", err)
	}
}

// ── ChangeStatus 测试 ──

func TestInstanceService_ChangeStatus_PublishAudited(t *testing.T) {
	svc, repos := setupTestInstanceService(t)
	admin := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "pw")
	quest := seedQuest(t, repos, "城市寻宝", 50)
	instance := seedInstance(t, repos, quest.QuestID, "周末场", model.InstanceStatusDraft, 10)

	if err := svc.ChangeStatus(context.Background(), instance.InstanceID, model.InstanceStatusRecruiting, admin.UserID); err != nil {
		t.Fatalf("ChangeStatus 应成功: %v", err)
	}
	if instance.Status != model.InstanceStatusRecruiting {
		t.Errorf("期望状态=recruiting，实际=%s", instance.Status)
	}
	if len(repos.auditLog.logs) != 1 || repos.auditLog.logs[0].Action != model.AuditActionStatusChange {
		t.Error("期望记录status_change审计日志")
	}
}

func TestInstanceService_ChangeStatus_PauseResume(t *testing.T) {
	svc, repos := setupTestInstanceService(t)
	admin := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "pw")
	quest := seedQuest(t, repos, "城市寻宝", 50)
	instance := seedInstance(t, repos, quest.QuestID, "周末场", model.InstanceStatusRecruiting, 10)

	if err := svc.ChangeStatus(context.Background(), instance.InstanceID, model.InstanceStatusPaused, admin.UserID); err != nil {
		t.Fatalf("暂停应成功: %v", err)
	}
	if err := svc.ChangeStatus(context.Background(), instance.InstanceID, model.InstanceStatusRecruiting, admin.UserID); err != nil {
		t.Fatalf("恢复招募应成功: %v", err)
	}
	if instance.Status != model.InstanceStatusRecruiting {
		t.Errorf("期望状态=recruiting，实际=%s", instance.Status)
	}
}

func TestInstanceService_ChangeStatus_InvalidTransition(t *testing.T) {
	svc, repos := setupTestInstanceService(t)
	admin := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "pw")
	quest := seedQuest(t, repos, "城市寻宝", 50)
	instance := seedInstance(t, repos, quest.QuestID, "周末场", model.InstanceStatusDraft, 10)

	// draft 不能直接开播
	err := svc.ChangeStatus(context.Background(), instance.InstanceID, model.InstanceStatusLive, admin.UserID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("期望ErrInvalidTransition，实际=%v", err)
	}
}

func TestInstanceService_ChangeStatus_TerminalRejected(t *testing.T) {
	svc, repos := setupTestInstanceService(t)
	admin := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "pw")
	quest := seedQuest(t, repos, "城市寻宝", 50)
	instance := seedInstance(t, repos, quest.QuestID, "周末场", model.InstanceStatusCancelled, 10)

	err := svc.ChangeStatus(context.Background(), instance.InstanceID, model.InstanceStatusRecruiting, admin.UserID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("期望ErrInvalidTransition，实际=%v", err)
	}
}

// ── 查询测试 ──

func TestInstanceService_Get_WithSignupCount(t *testing.T) {
	svc, repos := setupTestInstanceService(t)
	alice := seedUserWithPassword(t, repos, "alice", model.RoleParticipant, model.UserStatusActive, "pw")
	bob := seedUserWithPassword(t, repos, "bob", model.RoleParticipant, model.UserStatusActive, "pw")
	quest := seedQuest(t, repos, "城市寻宝", 50)
	instance := seedInstance(t, repos, quest.QuestID, "周末场", model.InstanceStatusRecruiting, 10)
	seedSignup(t, repos, alice.UserID, instance, model.SignupStatusConfirmed)
	seedSignup(t, repos, bob.UserID, instance, model.SignupStatusPending)

	resp, err := svc.Get(context.Background(), instance.InstanceID)
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if resp.SignupCount != 2 {
		t.Errorf("期望SignupCount=2，实际=%d", resp.SignupCount)
	}
}

func TestInstanceService_Calendar_SkipsDraftAndCancelled(t *testing.T) {
	svc, repos := setupTestInstanceService(t)
	quest := seedQuest(t, repos, "城市寻宝", 50)
	day := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)

	scheduled := seedInstance(t, repos, quest.QuestID, "正常场", model.InstanceStatusRecruiting, 10)
	scheduled.ScheduledDate = &day
	draft := seedInstance(t, repos, quest.QuestID, "草稿场", model.InstanceStatusDraft, 10)
	draft.ScheduledDate = &day
	cancelled := seedInstance(t, repos, quest.QuestID, "取消场", model.InstanceStatusCancelled, 10)
	cancelled.ScheduledDate = &day
	seedInstance(t, repos, quest.QuestID, "未排期场", model.InstanceStatusRecruiting, 10)

	items, err := svc.Calendar(context.Background(),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Calendar 应成功: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("期望日历仅1个场次，实际=%d", len(items))
	}
	if items[0].Title != "正常场" {
		t.Errorf("期望返回正常场，实际=%s", items[0].Title)
	}
}

// ── Delete 测试 ──

func TestInstanceService_Delete_OnlyDraftOrCancelled(t *testing.T) {
	svc, repos := setupTestInstanceService(t)
	admin := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "pw")
	quest := seedQuest(t, repos, "城市寻宝", 50)
	live := seedInstance(t, repos, quest.QuestID, "进行中", model.InstanceStatusLive, 10)
	draft := seedInstance(t, repos, quest.QuestID, "草稿", model.InstanceStatusDraft, 10)

	if err := svc.Delete(context.Background(), live.InstanceID, admin.UserID); !errors.Is(err, ErrInstanceNotDeletable) {
		t.Errorf("期望ErrInstanceNotDeletable，实际=%v", err)
	}
	if err := svc.Delete(context.Background(), draft.InstanceID, admin.UserID); err != nil {
		t.Fatalf("删除草稿应成功: %v", err)
	}
	if _, err := svc.Get(context.Background(), draft.InstanceID); !errors.Is(err, ErrInstanceNotFound) {
		t.Errorf("删除后应查不到，实际=%v", err)
	}
}
