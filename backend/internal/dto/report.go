package dto

// ── 举报模块 DTO ──

// ReportListRequest 举报列表查询参数
type ReportListRequest struct {
	PaginationRequest
	Status      string `form:"status"       binding:"omitempty,oneof=open under_review actioned dismissed"`
	SubjectKind string `form:"subject_kind" binding:"omitempty,oneof=user message squad"`
}

// CreateReportRequest 创建举报请求（代用户录入）
type CreateReportRequest struct {
	ReporterID  string `json:"reporter_id"  binding:"required,uuid"`
	SubjectKind string `json:"subject_kind" binding:"required,oneof=user message squad"`
	SubjectID   string `json:"subject_id"   binding:"required,uuid"`
	Reason      string `json:"reason"       binding:"required,oneof=harassment spam inappropriate other"`
	Detail      string `json:"detail"       binding:"omitempty,max=2000"`
}

// ReportStatusRequest 举报状态流转请求
type ReportStatusRequest struct {
	Status         string `json:"status"          binding:"required,oneof=under_review actioned dismissed"`
	ResolutionNote string `json:"resolution_note" binding:"omitempty,max=2000"`
}

// ReportResponse 举报响应
type ReportResponse struct {
	ID             string  `json:"id"`
	ReporterID     string  `json:"reporter_id"`
	ReporterHandle string  `json:"reporter_handle,omitempty"`
	SubjectKind    string  `json:"subject_kind"`
	SubjectID      string  `json:"subject_id"`
	Reason         string  `json:"reason"`
	Detail         string  `json:"detail"`
	Status         string  `json:"status"`
	ResolvedBy     *string `json:"resolved_by,omitempty"`
	ResolutionNote string  `json:"resolution_note,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// ReportListResponse 举报列表响应
type ReportListResponse struct {
	Total int64            `json:"total"`
	Items []ReportResponse `json:"items"`
}
