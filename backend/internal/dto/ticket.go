package dto

// ── 工单模块 DTO ──

// TicketListRequest 工单列表查询参数
type TicketListRequest struct {
	PaginationRequest
	Status     string `form:"status"      binding:"omitempty,oneof=open in_progress waiting_on_user resolved closed"`
	Priority   string `form:"priority"    binding:"omitempty,oneof=low normal high urgent"`
	AssigneeID string `form:"assignee_id" binding:"omitempty,uuid"`
}

// CreateTicketRequest 创建工单请求（代用户录入）
type CreateTicketRequest struct {
	OpenedBy string `json:"opened_by" binding:"required,uuid"`
	Subject  string `json:"subject"   binding:"required,min=2,max=200"`
	Body     string `json:"body"      binding:"omitempty,max=5000"`
	Priority string `json:"priority"  binding:"omitempty,oneof=low normal high urgent"`
}

// UpdateTicketRequest 更新工单请求
type UpdateTicketRequest struct {
	Subject  *string `json:"subject"  binding:"omitempty,min=2,max=200"`
	Body     *string `json:"body"     binding:"omitempty,max=5000"`
	Priority *string `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
}

// AssignTicketRequest 指派工单请求
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id" binding:"required,uuid"`
}

// TicketStatusRequest 工单状态流转请求
type TicketStatusRequest struct {
	Status         string `json:"status"          binding:"required,oneof=open in_progress waiting_on_user resolved closed"`
	ResolutionNote string `json:"resolution_note" binding:"omitempty,max=2000"`
}

// TicketResponse 工单响应
type TicketResponse struct {
	ID             string  `json:"id"`
	OpenedBy       string  `json:"opened_by"`
	OpenerHandle   string  `json:"opener_handle,omitempty"`
	AssigneeID     *string `json:"assignee_id,omitempty"`
	AssigneeHandle string  `json:"assignee_handle,omitempty"`
	Subject        string  `json:"subject"`
	Body           string  `json:"body"`
	Priority       string  `json:"priority"`
	Status         string  `json:"status"`
	ResolutionNote string  `json:"resolution_note,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// TicketListResponse 工单列表响应
type TicketListResponse struct {
	Total int64            `json:"total"`
	Items []TicketResponse `json:"items"`
}
