package model

import "time"

// ── 特质授予来源 ──

const (
	TraitSourceAdminGrant = "admin_grant"
	TraitSourceQuest      = "quest"
	TraitSourceOnboarding = "onboarding"
)

// Trait 特质目录表 — 对应 traits
type Trait struct {
	TraitID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"trait_id"`
	Key         string `gorm:"type:varchar(50);not null;uniqueIndex"          json:"key"`
	Label       string `gorm:"type:varchar(100);not null"                     json:"label"`
	Description string `gorm:"type:text;not null;default:''"                  json:"description"`
	BaseModel
}

// TableName 指定表名
func (Trait) TableName() string { return "traits" }

// UserTrait 用户特质授予表 — 对应 user_traits
// (user_id, trait_id) 复合主键，重复授予直接冲突
type UserTrait struct {
	UserID    string    `gorm:"type:uuid;primaryKey"                        json:"user_id"`
	TraitID   string    `gorm:"type:uuid;primaryKey"                        json:"trait_id"`
	Source    string    `gorm:"type:varchar(20);not null;default:'admin_grant'" json:"source"`
	GrantedBy *string   `gorm:"type:uuid"                                   json:"granted_by,omitempty"`
	GrantedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"          json:"granted_at"`

	// 关联
	Trait *Trait `gorm:"foreignKey:TraitID;references:TraitID" json:"trait,omitempty"`
}

// TableName 指定表名
func (UserTrait) TableName() string { return "user_traits" }

// [自证通过] internal/model/trait.go
