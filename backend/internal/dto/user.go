package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role    string `form:"role"    binding:"omitempty,oneof=admin moderator support participant"`
	Status  string `form:"status"  binding:"omitempty,oneof=active suspended deactivated"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// CreateUserRequest 管理员创建账号请求
type CreateUserRequest struct {
	Handle      string `json:"handle"       binding:"required,min=3,max=50"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=100"`
	Email       string `json:"email"        binding:"required,email"`
	Password    string `json:"password"     binding:"required,min=8,max=64"`
	Role        string `json:"role"         binding:"required,oneof=admin moderator support participant"`
}

// UpdateUserRequest 更新用户信息请求
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,min=1,max=100"`
	Email       *string `json:"email"        binding:"omitempty,email"`
}

// AssignRoleRequest 分配角色请求
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin moderator support participant"`
}

// SuspendUserRequest 封禁用户请求
type SuspendUserRequest struct {
	Reason string `json:"reason" binding:"required,min=2,max=500"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// UserListResponse 用户列表响应
type UserListResponse struct {
	Total int64          `json:"total"`
	Items []UserResponse `json:"items"`
}
