package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
)

func setupTestAuditService(t *testing.T) (AuditService, *auditRecorder, *testRepos) {
	t.Helper()
	repos := newTestRepos()
	logger := zap.NewNop()
	repo := repos.toRepository()
	svc := NewAuditService(repo, logger)
	return svc, newAuditRecorder(repo, logger), repos
}

func TestAuditService_List_EnrichesActorHandle(t *testing.T) {
	svc, recorder, repos := setupTestAuditService(t)
	admin := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "pw")

	subject := "u-alice"
	recorder.record(context.Background(), admin.UserID, model.AuditActionLogin, "user", nil, "")
	recorder.record(context.Background(), admin.UserID, model.AuditActionUserSuspend, "user", &subject, "违规拉黑")

	resp, err := svc.List(context.Background(), &dto.AuditLogListRequest{})
	if err != nil {
		t.Fatalf("查询审计日志应成功: %v", err)
	}
	if resp.Total != 2 || len(resp.Items) != 2 {
		t.Fatalf("期望 2 条日志，实际 total=%d items=%d", resp.Total, len(resp.Items))
	}
	for _, item := range resp.Items {
		if item.ActorHandle != "admin" {
			t.Errorf("操作人 handle 应补齐为 admin，实际=%q", item.ActorHandle)
		}
		if _, err := time.Parse(time.RFC3339, item.CreatedAt); err != nil {
			t.Errorf("时间应为 RFC3339 格式，实际=%q", item.CreatedAt)
		}
	}
}

func TestAuditService_List_DeletedActorLeavesHandleEmpty(t *testing.T) {
	svc, recorder, _ := setupTestAuditService(t)

	// 操作人已删号，日志本身保留
	recorder.record(context.Background(), "ghost-uid", model.AuditActionFlagToggle, "feature_flag", nil, "")

	resp, err := svc.List(context.Background(), &dto.AuditLogListRequest{})
	if err != nil {
		t.Fatalf("查询审计日志应成功: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("期望 1 条日志，实际=%d", len(resp.Items))
	}
	if resp.Items[0].ActorHandle != "" {
		t.Errorf("已删号操作人的 handle 应留空，实际=%q", resp.Items[0].ActorHandle)
	}
	if resp.Items[0].ActorID != "ghost-uid" {
		t.Errorf("原始操作人 ID 应保留，实际=%q", resp.Items[0].ActorID)
	}
}

func TestAuditService_List_FilterByAction(t *testing.T) {
	svc, recorder, repos := setupTestAuditService(t)
	admin := seedUserWithPassword(t, repos, "admin", model.RoleAdmin, model.UserStatusActive, "pw")

	recorder.record(context.Background(), admin.UserID, model.AuditActionLogin, "user", nil, "")
	recorder.record(context.Background(), admin.UserID, model.AuditActionExport, "instance", nil, "导出报名名单 3 条")

	resp, err := svc.List(context.Background(), &dto.AuditLogListRequest{Action: model.AuditActionExport})
	if err != nil {
		t.Fatalf("查询审计日志应成功: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("按动作过滤应只剩 1 条，实际=%d", resp.Total)
	}
	if resp.Items[0].Detail != "导出报名名单 3 条" {
		t.Errorf("日志明细应原样返回，实际=%q", resp.Items[0].Detail)
	}
}
