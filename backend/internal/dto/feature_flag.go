package dto

// ── 功能开关模块 DTO ──

// UpsertFlagRequest 创建或更新功能开关请求
type UpsertFlagRequest struct {
	Enabled     bool   `json:"enabled"`
	Description string `json:"description" binding:"omitempty,max=500"`
	Note        string `json:"note"        binding:"omitempty,max=500"`
}

// FlagResponse 功能开关响应
type FlagResponse struct {
	Key         string `json:"key"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
	Note        string `json:"note,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

// FlagListResponse 功能开关列表响应
type FlagListResponse struct {
	Total int64          `json:"total"`
	Items []FlagResponse `json:"items"`
}
