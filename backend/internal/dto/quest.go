package dto

// ── 任务模板模块 DTO ──

// QuestListRequest 任务模板列表查询参数
type QuestListRequest struct {
	PaginationRequest
	Category string `form:"category" binding:"omitempty,max=50"`
	Status   string `form:"status"   binding:"omitempty,oneof=active retired"`
	Keyword  string `form:"keyword"  binding:"omitempty,max=50"`
}

// CreateQuestRequest 创建任务模板请求
type CreateQuestRequest struct {
	Title    string   `json:"title"     binding:"required,min=1,max=200"`
	Summary  string   `json:"summary"   binding:"omitempty,max=2000"`
	Category string   `json:"category"  binding:"omitempty,max=50"`
	Tags     []string `json:"tags"      binding:"omitempty,max=10,dive,min=1,max=30"`
	XPReward int      `json:"xp_reward" binding:"omitempty,min=0,max=10000"`
}

// UpdateQuestRequest 更新任务模板请求
type UpdateQuestRequest struct {
	Title    *string   `json:"title"     binding:"omitempty,min=1,max=200"`
	Summary  *string   `json:"summary"   binding:"omitempty,max=2000"`
	Category *string   `json:"category"  binding:"omitempty,max=50"`
	Tags     *[]string `json:"tags"      binding:"omitempty,max=10,dive,min=1,max=30"`
	XPReward *int      `json:"xp_reward" binding:"omitempty,min=0,max=10000"`
	Status   *string   `json:"status"    binding:"omitempty,oneof=active retired"`
}

// QuestResponse 任务模板响应
type QuestResponse struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	XPReward  int      `json:"xp_reward"`
	Status    string   `json:"status"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// QuestListResponse 任务模板列表响应
type QuestListResponse struct {
	Total int64           `json:"total"`
	Items []QuestResponse `json:"items"`
}
