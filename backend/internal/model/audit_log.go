package model

import "time"

// ── 审计动作常量 ──

const (
	AuditActionLogin          = "login"
	AuditActionStatusChange   = "status_change"
	AuditActionRoleChange     = "role_change"
	AuditActionPasswordReset  = "password_reset"
	AuditActionSquadApprove   = "squad_approve"
	AuditActionSquadSendBack  = "squad_send_back"
	AuditActionTicketAssign   = "ticket_assign"
	AuditActionReportResolve  = "report_resolve"
	AuditActionTraitGrant     = "trait_grant"
	AuditActionTraitRevoke    = "trait_revoke"
	AuditActionFlagToggle     = "flag_toggle"
	AuditActionUserSuspend    = "user_suspend"
	AuditActionUserReinstate  = "user_reinstate"
	AuditActionSignupComplete = "signup_complete"
	AuditActionExport         = "export"
)

// AdminActionLog 管理操作审计日志表 — 对应 admin_action_logs
// 追加型，只增不改
type AdminActionLog struct {
	ActionLogID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"action_log_id"`
	ActorID     string    `gorm:"type:uuid;not null"                             json:"actor_id"`
	Action      string    `gorm:"type:varchar(50);not null"                      json:"action"`
	SubjectKind string    `gorm:"type:varchar(20);not null"                      json:"subject_kind"`
	SubjectID   *string   `gorm:"type:varchar(100)"                              json:"subject_id,omitempty"` // 多数是 UUID，开关操作存 key

	Detail      string    `gorm:"type:text;not null;default:''"                  json:"detail"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (AdminActionLog) TableName() string { return "admin_action_logs" }

// [自证通过] internal/model/audit_log.go
