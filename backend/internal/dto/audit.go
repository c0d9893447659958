package dto

// ── 审计日志模块 DTO ──

// AuditLogListRequest 审计日志查询参数
type AuditLogListRequest struct {
	PaginationRequest
	ActorID string `form:"actor_id" binding:"omitempty,uuid"`
	Action  string `form:"action"   binding:"omitempty,max=50"`
}

// AuditLogResponse 审计日志响应
type AuditLogResponse struct {
	ID          string  `json:"id"`
	ActorID     string  `json:"actor_id"`
	ActorHandle string  `json:"actor_handle,omitempty"`
	Action      string  `json:"action"`
	SubjectKind string  `json:"subject_kind"`
	SubjectID   *string `json:"subject_id,omitempty"`
	Detail      string  `json:"detail,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// AuditLogListResponse 审计日志列表响应
type AuditLogListResponse struct {
	Total int64              `json:"total"`
	Items []AuditLogResponse `json:"items"`
}
