package model

// ── 角色常量 ──

const (
	RoleAdmin       = "admin"
	RoleModerator   = "moderator"
	RoleSupport     = "support"
	RoleParticipant = "participant"
)

// ── 用户账号状态 ──

const (
	UserStatusActive      = "active"
	UserStatusSuspended   = "suspended"
	UserStatusDeactivated = "deactivated"
)

// User 用户表 — 对应 users
// 管理员与参与者共用一张表，以 role 区分
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Handle       string `gorm:"type:varchar(50);not null"                      json:"handle"`
	DisplayName  string `gorm:"type:varchar(100);not null"                     json:"display_name"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'participant'" json:"role"`
	Status       string `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
