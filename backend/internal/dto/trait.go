package dto

// ── 特质模块 DTO ──

// TraitListRequest 特质目录查询参数
type TraitListRequest struct {
	PaginationRequest
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// CreateTraitRequest 创建特质请求
type CreateTraitRequest struct {
	Key         string `json:"key"         binding:"required,min=2,max=50"`
	Label       string `json:"label"       binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

// UpdateTraitRequest 更新特质请求
type UpdateTraitRequest struct {
	Label       *string `json:"label"       binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// GrantTraitRequest 授予特质请求
type GrantTraitRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Source string `json:"source"  binding:"omitempty,oneof=admin_grant quest onboarding"`
}

// TraitResponse 特质响应
type TraitResponse struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// TraitListResponse 特质列表响应
type TraitListResponse struct {
	Total int64           `json:"total"`
	Items []TraitResponse `json:"items"`
}

// UserTraitResponse 用户特质授予响应
type UserTraitResponse struct {
	UserID    string        `json:"user_id"`
	Trait     TraitResponse `json:"trait"`
	Source    string        `json:"source"`
	GrantedAt string        `json:"granted_at"`
}
