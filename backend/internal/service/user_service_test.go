package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	pkgerrors "github.com/OpenClique85/openclique-sub004/backend/pkg/errors"
)

// ── 测试辅助 ──

func setupTestUserService(t *testing.T) (UserService, *testRepos) {
	t.Helper()
	repos := newTestRepos()
	logger := zap.NewNop()
	repo := repos.toRepository()
	svc := NewUserService(repo, newAuditRecorder(repo, logger), logger)
	return svc, repos
}

// ── Create 测试 ──

func TestUserService_Create_Success(t *testing.T) {
	svc, _ := setupTestUserService(t)

	result, err := svc.Create(context.Background(), &dto.CreateUserRequest{
		Handle:      "newmod",
		DisplayName: "新审核员",
		Email:       "newmod@test.local",
		Password:    "secret123",
		Role:        model.RoleModerator,
	}, "u-admin")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Status != model.UserStatusActive {
		t.Errorf("期望Status=active，实际=%s", result.Status)
	}
	if result.Role != model.RoleModerator {
		t.Errorf("期望Role=moderator，实际=%s", result.Role)
	}
}

func TestUserService_Create_DuplicateHandle(t *testing.T) {
	svc, repos := setupTestUserService(t)
	seedUserWithPassword(t, repos, "taken", model.RoleSupport, model.UserStatusActive, "secret123")

	_, err := svc.Create(context.Background(), &dto.CreateUserRequest{
		Handle:      "taken",
		DisplayName: "重名",
		Email:       "other@test.local",
		Password:    "secret123",
		Role:        model.RoleSupport,
	}, "u-admin")
	if !errors.Is(err, ErrHandleTaken) {
		t.Errorf("期望 ErrHandleTaken，实际: %v", err)
	}
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	svc, repos := setupTestUserService(t)
	seedUserWithPassword(t, repos, "first", model.RoleSupport, model.UserStatusActive, "secret123")

	_, err := svc.Create(context.Background(), &dto.CreateUserRequest{
		Handle:      "second",
		DisplayName: "撞邮箱",
		Email:       "first@test.local",
		Password:    "secret123",
		Role:        model.RoleSupport,
	}, "u-admin")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("期望 ErrEmailTaken，实际: %v", err)
	}
}

// ── Update 测试 ──

func TestUserService_Update_StaleVersionRejected(t *testing.T) {
	svc, repos := setupTestUserService(t)
	user := seedUserWithPassword(t, repos, "editme", model.RoleSupport, model.UserStatusActive, "secret123")

	// 管理员 B 页面上留着旧版本快照
	stale := *user

	nameA := "A 的改名"
	if _, err := svc.Update(context.Background(), user.UserID, &dto.UpdateUserRequest{DisplayName: &nameA}, "u-admin-a"); err != nil {
		t.Fatalf("第一次 Update 应成功: %v", err)
	}

	// B 拿着过期版本提交，版本比对应拒绝
	stale.DisplayName = "B 的改名"
	if err := repos.user.Update(context.Background(), &stale); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

func TestUserService_Update_EmailUniqueness(t *testing.T) {
	svc, repos := setupTestUserService(t)
	seedUserWithPassword(t, repos, "holder", model.RoleSupport, model.UserStatusActive, "secret123")
	victim := seedUserWithPassword(t, repos, "victim", model.RoleSupport, model.UserStatusActive, "secret123")

	email := "holder@test.local"
	_, err := svc.Update(context.Background(), victim.UserID, &dto.UpdateUserRequest{Email: &email}, "u-admin")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("期望 ErrEmailTaken，实际: %v", err)
	}
}

// ── Suspend / Reinstate 测试 ──

func TestUserService_Suspend_Success(t *testing.T) {
	svc, repos := setupTestUserService(t)
	user := seedUserWithPassword(t, repos, "target", model.RoleParticipant, model.UserStatusActive, "secret123")

	err := svc.Suspend(context.Background(), user.UserID, &dto.SuspendUserRequest{Reason: "违规发言"}, "u-admin")
	if err != nil {
		t.Fatalf("Suspend 应成功: %v", err)
	}
	if user.Status != model.UserStatusSuspended {
		t.Errorf("期望Status=suspended，实际=%s", user.Status)
	}

	// 封禁审计要带原因
	if len(repos.auditLog.logs) != 1 {
		t.Fatalf("期望1条审计日志，实际=%d", len(repos.auditLog.logs))
	}
	log := repos.auditLog.logs[0]
	if log.Action != model.AuditActionUserSuspend || log.Detail != "违规发言" {
		t.Errorf("期望 user_suspend 审计带原因，实际 action=%s detail=%s", log.Action, log.Detail)
	}
}

func TestUserService_Suspend_SelfGuard(t *testing.T) {
	svc, repos := setupTestUserService(t)
	user := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "secret123")

	err := svc.Suspend(context.Background(), user.UserID, &dto.SuspendUserRequest{Reason: "手滑"}, user.UserID)
	if !errors.Is(err, ErrCannotSuspendSelf) {
		t.Errorf("期望 ErrCannotSuspendSelf，实际: %v", err)
	}
}

func TestUserService_Suspend_NotActive(t *testing.T) {
	svc, repos := setupTestUserService(t)
	user := seedUserWithPassword(t, repos, "gone", model.RoleParticipant, model.UserStatusDeactivated, "secret123")

	err := svc.Suspend(context.Background(), user.UserID, &dto.SuspendUserRequest{Reason: "补刀"}, "u-admin")
	if !errors.Is(err, ErrUserNotActive) {
		t.Errorf("期望 ErrUserNotActive，实际: %v", err)
	}
}

func TestUserService_Reinstate_Success(t *testing.T) {
	svc, repos := setupTestUserService(t)
	user := seedUserWithPassword(t, repos, "target", model.RoleParticipant, model.UserStatusSuspended, "secret123")

	if err := svc.Reinstate(context.Background(), user.UserID, "u-admin"); err != nil {
		t.Fatalf("Reinstate 应成功: %v", err)
	}
	if user.Status != model.UserStatusActive {
		t.Errorf("期望Status=active，实际=%s", user.Status)
	}
}

func TestUserService_Reinstate_NotSuspended(t *testing.T) {
	svc, repos := setupTestUserService(t)
	user := seedUserWithPassword(t, repos, "fine", model.RoleParticipant, model.UserStatusActive, "secret123")

	err := svc.Reinstate(context.Background(), user.UserID, "u-admin")
	if !errors.Is(err, ErrUserNotSuspended) {
		t.Errorf("期望 ErrUserNotSuspended，实际: %v", err)
	}
}

// ── AssignRole / ResetPassword 测试 ──

func TestUserService_AssignRole_Audited(t *testing.T) {
	svc, repos := setupTestUserService(t)
	user := seedUserWithPassword(t, repos, "promote", model.RoleSupport, model.UserStatusActive, "secret123")

	if err := svc.AssignRole(context.Background(), user.UserID, model.RoleModerator, "u-admin"); err != nil {
		t.Fatalf("AssignRole 应成功: %v", err)
	}
	if user.Role != model.RoleModerator {
		t.Errorf("期望Role=moderator，实际=%s", user.Role)
	}
	if len(repos.auditLog.logs) != 1 || repos.auditLog.logs[0].Action != model.AuditActionRoleChange {
		t.Error("期望落一条 role_change 审计")
	}
}

func TestUserService_ResetPassword_TempPasswordWorks(t *testing.T) {
	svc, repos := setupTestUserService(t)
	user := seedUserWithPassword(t, repos, "forgot", model.RoleSupport, model.UserStatusActive, "secret123")

	result, err := svc.ResetPassword(context.Background(), user.UserID, "u-admin")
	if err != nil {
		t.Fatalf("ResetPassword 应成功: %v", err)
	}
	if len(result.TempPassword) != 12 {
		t.Errorf("期望临时密码12字符，实际=%d", len(result.TempPassword))
	}
	// 新哈希可用临时密码验证
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(result.TempPassword)); err != nil {
		t.Errorf("临时密码应与新哈希匹配: %v", err)
	}
}
