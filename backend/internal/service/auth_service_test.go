package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/OpenClique85/openclique-sub004/backend/config"
	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/jwt"
)

// ── 测试辅助（testConfig 与 seed 函数被其他服务测试共用）──

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 720 * time.Hour,
		},
		Cache: config.CacheConfig{TTL: time.Minute},
		Monitor: config.MonitorConfig{
			Interval:       time.Minute,
			ChatStaleAfter: 24 * time.Hour,
		},
		Feature: config.FeatureConfig{ExportsEnabled: true},
	}
}

// seedUserWithPassword 预置一个指定角色与状态的用户，密码为明文入参
func seedUserWithPassword(t *testing.T, repos *testRepos, handle, role, status, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("生成密码哈希失败: %v", err)
	}
	user := &model.User{
		Handle:       handle,
		DisplayName:  handle,
		Email:        handle + "@test.local",
		PasswordHash: string(hash),
		Role:         role,
		Status:       status,
	}
	if err := repos.user.Create(context.Background(), user); err != nil {
		t.Fatalf("预置用户失败: %v", err)
	}
	return user
}

func setupTestAuthService(t *testing.T) (AuthService, *testRepos, *jwt.Manager) {
	t.Helper()
	repos := newTestRepos()
	cfg := testConfig()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	logger := zap.NewNop()
	repo := repos.toRepository()
	audit := newAuditRecorder(repo, logger)
	svc := NewAuthService(cfg, repo, nil, jwtMgr, audit, logger)
	return svc, repos, jwtMgr
}

// ── Login 测试 ──

func TestAuthService_Login_Success(t *testing.T) {
	svc, repos, _ := setupTestAuthService(t)
	seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "secret123")

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Handle:   "admin",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("期望返回 token 对")
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望ExpiresIn=900，实际=%d", result.ExpiresIn)
	}
	if result.User.Role != model.RoleAdmin {
		t.Errorf("期望Role=admin，实际=%s", result.User.Role)
	}

	// 登录应落一条审计
	if len(repos.auditLog.logs) != 1 {
		t.Fatalf("期望1条审计日志，实际=%d", len(repos.auditLog.logs))
	}
	if repos.auditLog.logs[0].Action != model.AuditActionLogin {
		t.Errorf("期望审计动作=login，实际=%s", repos.auditLog.logs[0].Action)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, repos, _ := setupTestAuthService(t)
	seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "secret123")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Handle:   "admin",
		Password: "wrong",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestAuthService_Login_UnknownHandle(t *testing.T) {
	svc, _, _ := setupTestAuthService(t)

	// 账号不存在与密码错误返回同一个错误，避免账号枚举
	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Handle:   "nobody",
		Password: "whatever",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestAuthService_Login_ParticipantDenied(t *testing.T) {
	svc, repos, _ := setupTestAuthService(t)
	seedUserWithPassword(t, repos, "player", model.RoleParticipant, model.UserStatusActive, "secret123")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Handle:   "player",
		Password: "secret123",
	})
	if !errors.Is(err, ErrNoConsoleAccess) {
		t.Errorf("期望 ErrNoConsoleAccess，实际: %v", err)
	}
}

func TestAuthService_Login_SuspendedDenied(t *testing.T) {
	svc, repos, _ := setupTestAuthService(t)
	seedUserWithPassword(t, repos, "mod", model.RoleModerator, model.UserStatusSuspended, "secret123")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Handle:   "mod",
		Password: "secret123",
	})
	if !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("期望 ErrAccountDisabled，实际: %v", err)
	}
}

// ── Logout 测试 ──

func TestAuthService_Logout_NilRedisDegrades(t *testing.T) {
	svc, repos, jwtMgr := setupTestAuthService(t)
	user := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "secret123")

	token, err := jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		t.Fatalf("生成 token 失败: %v", err)
	}
	// Redis 未连接时登出不报错，降级为客户端丢弃
	if err := svc.Logout(context.Background(), token); err != nil {
		t.Errorf("Logout 应降级成功: %v", err)
	}
}

func TestAuthService_Logout_InvalidTokenIgnored(t *testing.T) {
	svc, _, _ := setupTestAuthService(t)

	if err := svc.Logout(context.Background(), "not-a-token"); err != nil {
		t.Errorf("非法 token 登出应视为成功: %v", err)
	}
}

// ── RefreshToken 测试 ──

func TestAuthService_RefreshToken_Success(t *testing.T) {
	svc, repos, jwtMgr := setupTestAuthService(t)
	user := seedUserWithPassword(t, repos, "mod", model.RoleModerator, model.UserStatusActive, "secret123")

	login, err := svc.Login(context.Background(), &dto.LoginRequest{Handle: "mod", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}

	// 刷新前提升角色，新 token 应携带数据库当前角色
	user.Role = model.RoleAdmin

	result, err := svc.RefreshToken(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken 应成功: %v", err)
	}
	claims, err := jwtMgr.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("解析新 AccessToken 失败: %v", err)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("期望新 token 角色=admin，实际=%s", claims.Role)
	}
}

func TestAuthService_RefreshToken_AccessTokenRejected(t *testing.T) {
	svc, repos, jwtMgr := setupTestAuthService(t)
	user := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "secret123")

	accessToken, err := jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		t.Fatalf("生成 token 失败: %v", err)
	}
	_, err = svc.RefreshToken(context.Background(), accessToken)
	if !errors.Is(err, ErrNotRefreshToken) {
		t.Errorf("期望 ErrNotRefreshToken，实际: %v", err)
	}
}

func TestAuthService_RefreshToken_SuspendedDenied(t *testing.T) {
	svc, repos, _ := setupTestAuthService(t)
	user := seedUserWithPassword(t, repos, "mod", model.RoleModerator, model.UserStatusActive, "secret123")

	login, err := svc.Login(context.Background(), &dto.LoginRequest{Handle: "mod", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}

	// 中途封禁，刷新时应被拦下
	user.Status = model.UserStatusSuspended

	_, err = svc.RefreshToken(context.Background(), login.RefreshToken)
	if !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("期望 ErrAccountDisabled，实际: %v", err)
	}
}

// ── ChangePassword 测试 ──

func TestAuthService_ChangePassword_Success(t *testing.T) {
	svc, repos, _ := setupTestAuthService(t)
	user := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "old-secret")

	err := svc.ChangePassword(context.Background(), user.UserID, &dto.ChangePasswordRequest{
		OldPassword: "old-secret",
		NewPassword: "new-secret-1",
	})
	if err != nil {
		t.Fatalf("ChangePassword 应成功: %v", err)
	}

	// 新密码可登录
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{Handle: "admin", Password: "new-secret-1"}); err != nil {
		t.Errorf("新密码登录应成功: %v", err)
	}
	// 旧密码失效
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{Handle: "admin", Password: "old-secret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("旧密码应失效，实际: %v", err)
	}
}

func TestAuthService_ChangePassword_WrongOld(t *testing.T) {
	svc, repos, _ := setupTestAuthService(t)
	user := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "old-secret")

	err := svc.ChangePassword(context.Background(), user.UserID, &dto.ChangePasswordRequest{
		OldPassword: "bogus",
		NewPassword: "new-secret-1",
	})
	if !errors.Is(err, ErrWrongOldPassword) {
		t.Errorf("期望 ErrWrongOldPassword，实际: %v", err)
	}
}

// ── GetCurrentUser 测试 ──

func TestAuthService_GetCurrentUser_WithXPAndTraits(t *testing.T) {
	svc, repos, _ := setupTestAuthService(t)
	user := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "secret123")

	repos.xp.transactions = append(repos.xp.transactions,
		model.XPTransaction{UserID: user.UserID, SourceID: "su-1", Amount: 50, Reason: model.XPReasonQuestCompletion},
		model.XPTransaction{UserID: user.UserID, SourceID: "adj-1", Amount: 20, Reason: model.XPReasonAdminAdjust},
	)
	trait := &model.Trait{Key: "night_owl", Label: "夜猫子"}
	if err := repos.trait.Create(context.Background(), trait); err != nil {
		t.Fatalf("预置特质失败: %v", err)
	}
	grant := &model.UserTrait{UserID: user.UserID, TraitID: trait.TraitID, Source: model.TraitSourceAdminGrant, Trait: trait}
	if err := repos.userTrait.Grant(context.Background(), grant); err != nil {
		t.Fatalf("预置特质授予失败: %v", err)
	}

	result, err := svc.GetCurrentUser(context.Background(), user.UserID)
	if err != nil {
		t.Fatalf("GetCurrentUser 应成功: %v", err)
	}
	if result.TotalXP != 70 {
		t.Errorf("期望TotalXP=70，实际=%d", result.TotalXP)
	}
	if len(result.Traits) != 1 || result.Traits[0].Key != "night_owl" {
		t.Errorf("期望1个特质 night_owl，实际=%v", result.Traits)
	}
}
