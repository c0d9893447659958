package dto

import "time"

// ── 报名模块 DTO ──

// SignupListRequest 报名列表查询参数
type SignupListRequest struct {
	PaginationRequest
	InstanceID string `form:"instance_id" binding:"omitempty,uuid"`
	UserID     string `form:"user_id"     binding:"omitempty,uuid"`
	Status     string `form:"status"      binding:"omitempty,oneof=pending confirmed standby dropped completed no_show"`
}

// CreateSignupRequest 代报名请求（管理端补录）
type CreateSignupRequest struct {
	UserID     string `json:"user_id"     binding:"required,uuid"`
	InstanceID string `json:"instance_id" binding:"required,uuid"`
}

// SignupStatusRequest 报名状态流转请求
type SignupStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed standby dropped completed no_show"`
}

// CompleteSignupRequest 完成报名并发放 XP 请求
type CompleteSignupRequest struct {
	XPOverride *int `json:"xp_override" binding:"omitempty,min=0,max=10000"` // 缺省按模板 xp_reward 发放
}

// SignupResponse 报名响应
type SignupResponse struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	UserHandle    string     `json:"user_handle,omitempty"`
	InstanceID    string     `json:"instance_id"`
	InstanceTitle string     `json:"instance_title,omitempty"`
	Status        string     `json:"status"`
	SignedUpAt    time.Time  `json:"signed_up_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// SignupListResponse 报名列表响应
type SignupListResponse struct {
	Total int64            `json:"total"`
	Items []SignupResponse `json:"items"`
}
