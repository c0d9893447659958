package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/repository"
	pkgerrors "github.com/OpenClique85/openclique-sub004/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "u-" + user.Handle
	}
	if user.Version == 0 {
		user.Version = 1
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByHandle(_ context.Context, handle string) (*model.User, error) {
	for _, u := range m.users {
		if u.Handle == handle {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	existing, ok := m.users[user.UserID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if existing.Version != user.Version {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version++
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) UpdateStatus(_ context.Context, id, status string, updatedBy *string) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Status = status
	u.UpdatedBy = updatedBy
	return nil
}

func (m *mockUserRepo) List(_ context.Context, req *dto.UserListRequest) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if req.Role != "" && u.Role != req.Role {
			continue
		}
		if req.Status != "" && u.Status != req.Status {
			continue
		}
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) CountAll(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

// ── Mock QuestRepository ──

type mockQuestRepo struct {
	quests map[string]*model.Quest
}

func newMockQuestRepo() *mockQuestRepo {
	return &mockQuestRepo{quests: make(map[string]*model.Quest)}
}

func (m *mockQuestRepo) Create(_ context.Context, quest *model.Quest) error {
	if quest.QuestID == "" {
		quest.QuestID = "q-" + quest.Title
	}
	if quest.Version == 0 {
		quest.Version = 1
	}
	m.quests[quest.QuestID] = quest
	return nil
}

func (m *mockQuestRepo) GetByID(_ context.Context, id string) (*model.Quest, error) {
	if q, ok := m.quests[id]; ok {
		return q, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockQuestRepo) Update(_ context.Context, quest *model.Quest) error {
	existing, ok := m.quests[quest.QuestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if existing.Version != quest.Version {
		return pkgerrors.ErrOptimisticLock
	}
	quest.Version++
	m.quests[quest.QuestID] = quest
	return nil
}

func (m *mockQuestRepo) List(_ context.Context, req *dto.QuestListRequest) ([]model.Quest, int64, error) {
	var result []model.Quest
	for _, q := range m.quests {
		if req.Status != "" && q.Status != req.Status {
			continue
		}
		if req.Category != "" && q.Category != req.Category {
			continue
		}
		result = append(result, *q)
	}
	return result, int64(len(result)), nil
}

func (m *mockQuestRepo) Delete(_ context.Context, id string, _ *string) error {
	delete(m.quests, id)
	return nil
}

// ── Mock InstanceRepository ──

type mockInstanceRepo struct {
	instances map[string]*model.QuestInstance
}

func newMockInstanceRepo() *mockInstanceRepo {
	return &mockInstanceRepo{instances: make(map[string]*model.QuestInstance)}
}

func (m *mockInstanceRepo) Create(_ context.Context, instance *model.QuestInstance) error {
	if instance.InstanceID == "" {
		instance.InstanceID = fmt.Sprintf("inst-%d", len(m.instances)+1)
	}
	if instance.Version == 0 {
		instance.Version = 1
	}
	m.instances[instance.InstanceID] = instance
	return nil
}

func (m *mockInstanceRepo) GetByID(_ context.Context, id string) (*model.QuestInstance, error) {
	if inst, ok := m.instances[id]; ok {
		return inst, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInstanceRepo) Update(_ context.Context, instance *model.QuestInstance) error {
	existing, ok := m.instances[instance.InstanceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if existing.Version != instance.Version {
		return pkgerrors.ErrOptimisticLock
	}
	instance.Version++
	m.instances[instance.InstanceID] = instance
	return nil
}

func (m *mockInstanceRepo) UpdateStatus(_ context.Context, id string, status model.InstanceStatus, updatedBy *string) error {
	inst, ok := m.instances[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	inst.Status = status
	inst.UpdatedBy = updatedBy
	return nil
}

func (m *mockInstanceRepo) List(_ context.Context, req *dto.InstanceListRequest) ([]model.QuestInstance, int64, error) {
	var result []model.QuestInstance
	for _, inst := range m.instances {
		if req.QuestID != "" && inst.QuestID != req.QuestID {
			continue
		}
		if req.Status != "" && string(inst.Status) != req.Status {
			continue
		}
		result = append(result, *inst)
	}
	return result, int64(len(result)), nil
}

func (m *mockInstanceRepo) ListScheduledBetween(_ context.Context, from, to time.Time) ([]model.QuestInstance, error) {
	var result []model.QuestInstance
	for _, inst := range m.instances {
		if inst.Status == model.InstanceStatusCancelled || inst.Status == model.InstanceStatusDraft {
			continue
		}
		if inst.ScheduledDate == nil {
			continue
		}
		if inst.ScheduledDate.Before(from) || inst.ScheduledDate.After(to) {
			continue
		}
		result = append(result, *inst)
	}
	return result, nil
}

func (m *mockInstanceRepo) CountUpcoming(_ context.Context, now time.Time) (int64, error) {
	var total int64
	for _, inst := range m.instances {
		switch inst.Status {
		case model.InstanceStatusRecruiting, model.InstanceStatusLocked, model.InstanceStatusLive:
			if inst.ScheduledDate != nil && inst.ScheduledDate.After(now) {
				total++
			}
		}
	}
	return total, nil
}

func (m *mockInstanceRepo) Delete(_ context.Context, id string, _ *string) error {
	delete(m.instances, id)
	return nil
}

// ── Mock SignupRepository ──

// mockSignupRepo 持有 XP mock 的引用，CompleteWithXP 仿真同事务双写
type mockSignupRepo struct {
	signups map[string]*model.Signup
	xp      *mockXPRepo
}

func newMockSignupRepo(xp *mockXPRepo) *mockSignupRepo {
	return &mockSignupRepo{signups: make(map[string]*model.Signup), xp: xp}
}

func (m *mockSignupRepo) Create(_ context.Context, signup *model.Signup) error {
	for _, s := range m.signups {
		if s.UserID == signup.UserID && s.InstanceID == signup.InstanceID {
			return gorm.ErrDuplicatedKey
		}
	}
	if signup.SignupID == "" {
		signup.SignupID = fmt.Sprintf("su-%d", len(m.signups)+1)
	}
	m.signups[signup.SignupID] = signup
	return nil
}

func (m *mockSignupRepo) GetByID(_ context.Context, id string) (*model.Signup, error) {
	if s, ok := m.signups[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSignupRepo) GetByUserAndInstance(_ context.Context, userID, instanceID string) (*model.Signup, error) {
	for _, s := range m.signups {
		if s.UserID == userID && s.InstanceID == instanceID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSignupRepo) UpdateStatus(_ context.Context, id string, status model.SignupStatus, completedAt *time.Time, updatedBy *string) error {
	s, ok := m.signups[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	if completedAt != nil {
		s.CompletedAt = completedAt
	}
	s.UpdatedBy = updatedBy
	return nil
}

func (m *mockSignupRepo) CompleteWithXP(_ context.Context, signup *model.Signup, xp *model.XPTransaction) error {
	s, ok := m.signups[signup.SignupID]
	if !ok || s.Status != model.SignupStatusConfirmed {
		return gorm.ErrRecordNotFound
	}
	s.Status = model.SignupStatusCompleted
	s.CompletedAt = signup.CompletedAt
	s.UpdatedBy = signup.UpdatedBy
	if xp != nil {
		m.xp.transactions = append(m.xp.transactions, *xp)
	}
	return nil
}

func (m *mockSignupRepo) List(_ context.Context, req *dto.SignupListRequest) ([]model.Signup, int64, error) {
	var result []model.Signup
	for _, s := range m.signups {
		if req.InstanceID != "" && s.InstanceID != req.InstanceID {
			continue
		}
		if req.UserID != "" && s.UserID != req.UserID {
			continue
		}
		if req.Status != "" && string(s.Status) != req.Status {
			continue
		}
		result = append(result, *s)
	}
	return result, int64(len(result)), nil
}

func (m *mockSignupRepo) ListByInstance(_ context.Context, instanceID string) ([]model.Signup, error) {
	var result []model.Signup
	for _, s := range m.signups {
		if s.InstanceID == instanceID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SignedUpAt.Before(result[j].SignedUpAt) })
	return result, nil
}

func (m *mockSignupRepo) ListByStatusWithInstance(_ context.Context, status model.SignupStatus) ([]model.Signup, error) {
	var result []model.Signup
	for _, s := range m.signups {
		if s.Status == status {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSignupRepo) CountByInstance(_ context.Context, instanceID string) (int64, error) {
	var total int64
	for _, s := range m.signups {
		if s.InstanceID == instanceID {
			total++
		}
	}
	return total, nil
}

// ── Mock SquadRepository ──

// mockSquadRepo 持有成员 mock 的引用，member_count 与真实实现一样现算
type mockSquadRepo struct {
	squads  map[string]*model.Squad
	members *mockSquadMemberRepo
}

func newMockSquadRepo(members *mockSquadMemberRepo) *mockSquadRepo {
	return &mockSquadRepo{squads: make(map[string]*model.Squad), members: members}
}

func (m *mockSquadRepo) activeCount(squadID string) int {
	count := 0
	for _, mem := range m.members.members {
		if mem.SquadID == squadID && mem.Status == model.SquadMemberStatusActive {
			count++
		}
	}
	return count
}

func (m *mockSquadRepo) CreateWithMembers(_ context.Context, squad *model.Squad, members []model.SquadMember) error {
	if squad.SquadID == "" {
		squad.SquadID = "sq-" + squad.Name
	}
	if squad.Version == 0 {
		squad.Version = 1
	}
	m.squads[squad.SquadID] = squad
	for i := range members {
		mem := members[i]
		mem.SquadID = squad.SquadID
		if mem.SquadMemberID == "" {
			mem.SquadMemberID = fmt.Sprintf("sm-%d", len(m.members.members)+1)
		}
		m.members.members[mem.SquadMemberID] = &mem
	}
	return nil
}

func (m *mockSquadRepo) GetByID(_ context.Context, id string) (*model.Squad, error) {
	if sq, ok := m.squads[id]; ok {
		return sq, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSquadRepo) Update(_ context.Context, squad *model.Squad) error {
	existing, ok := m.squads[squad.SquadID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if existing.Version != squad.Version {
		return pkgerrors.ErrOptimisticLock
	}
	squad.Version++
	m.squads[squad.SquadID] = squad
	return nil
}

func (m *mockSquadRepo) UpdateStatus(_ context.Context, id string, status model.SquadStatus, updatedBy *string) error {
	sq, ok := m.squads[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	sq.Status = status
	sq.UpdatedBy = updatedBy
	return nil
}

func (m *mockSquadRepo) List(_ context.Context, req *dto.SquadListRequest) ([]repository.SquadWithCount, int64, error) {
	var result []repository.SquadWithCount
	for _, sq := range m.squads {
		if req.InstanceID != "" && sq.InstanceID != req.InstanceID {
			continue
		}
		if req.Status != "" && string(sq.Status) != req.Status {
			continue
		}
		result = append(result, repository.SquadWithCount{Squad: *sq, MemberCount: m.activeCount(sq.SquadID)})
	}
	return result, int64(len(result)), nil
}

func (m *mockSquadRepo) ListAllWithCounts(_ context.Context) ([]repository.SquadWithCount, error) {
	var result []repository.SquadWithCount
	for _, sq := range m.squads {
		result = append(result, repository.SquadWithCount{Squad: *sq, MemberCount: m.activeCount(sq.SquadID)})
	}
	return result, nil
}

func (m *mockSquadRepo) ListByStatus(_ context.Context, status model.SquadStatus) ([]model.Squad, error) {
	var result []model.Squad
	for _, sq := range m.squads {
		if sq.Status == status {
			result = append(result, *sq)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockSquadRepo) CountByStatus(_ context.Context, status model.SquadStatus) (int64, error) {
	var total int64
	for _, sq := range m.squads {
		if sq.Status == status {
			total++
		}
	}
	return total, nil
}

func (m *mockSquadRepo) Delete(_ context.Context, id string, _ *string) error {
	delete(m.squads, id)
	return nil
}

// ── Mock SquadMemberRepository ──

type mockSquadMemberRepo struct {
	members map[string]*model.SquadMember
}

func newMockSquadMemberRepo() *mockSquadMemberRepo {
	return &mockSquadMemberRepo{members: make(map[string]*model.SquadMember)}
}

func (m *mockSquadMemberRepo) Add(_ context.Context, member *model.SquadMember) error {
	for _, existing := range m.members {
		if existing.SquadID == member.SquadID && existing.UserID == member.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	if member.SquadMemberID == "" {
		member.SquadMemberID = fmt.Sprintf("sm-%d", len(m.members)+1)
	}
	m.members[member.SquadMemberID] = member
	return nil
}

func (m *mockSquadMemberRepo) GetByID(_ context.Context, id string) (*model.SquadMember, error) {
	if mem, ok := m.members[id]; ok {
		return mem, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSquadMemberRepo) GetBySquadAndUser(_ context.Context, squadID, userID string) (*model.SquadMember, error) {
	for _, mem := range m.members {
		if mem.SquadID == squadID && mem.UserID == userID {
			return mem, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSquadMemberRepo) Update(_ context.Context, member *model.SquadMember) error {
	if _, ok := m.members[member.SquadMemberID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.members[member.SquadMemberID] = member
	return nil
}

func (m *mockSquadMemberRepo) ListBySquad(_ context.Context, squadID string) ([]model.SquadMember, error) {
	var result []model.SquadMember
	for _, mem := range m.members {
		if mem.SquadID == squadID {
			result = append(result, *mem)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SquadMemberID < result[j].SquadMemberID })
	return result, nil
}

// ── Mock SquadChatRepository ──

type mockSquadChatRepo struct {
	messages []model.SquadChatMessage
}

func newMockSquadChatRepo() *mockSquadChatRepo {
	return &mockSquadChatRepo{}
}

func (m *mockSquadChatRepo) ListBySquad(_ context.Context, squadID string, offset, limit int) ([]model.SquadChatMessage, int64, error) {
	var result []model.SquadChatMessage
	for _, msg := range m.messages {
		if msg.SquadID == squadID {
			result = append(result, msg)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockSquadChatRepo) LastMessageAt(_ context.Context, squadID string) (*time.Time, error) {
	var last *time.Time
	for i := range m.messages {
		msg := &m.messages[i]
		if msg.SquadID != squadID {
			continue
		}
		if last == nil || msg.CreatedAt.After(*last) {
			t := msg.CreatedAt
			last = &t
		}
	}
	return last, nil
}

// ── Mock XPRepository ──

type mockXPRepo struct {
	transactions []model.XPTransaction
}

func newMockXPRepo() *mockXPRepo {
	return &mockXPRepo{}
}

func (m *mockXPRepo) Create(_ context.Context, tx *model.XPTransaction) error {
	if tx.XPTransactionID == "" {
		tx.XPTransactionID = fmt.Sprintf("xp-%d", len(m.transactions)+1)
	}
	m.transactions = append(m.transactions, *tx)
	return nil
}

func (m *mockXPRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.XPTransaction, int64, error) {
	var result []model.XPTransaction
	for _, tx := range m.transactions {
		if tx.UserID == userID {
			result = append(result, tx)
		}
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockXPRepo) SumByUser(_ context.Context, userID string) (int, error) {
	sum := 0
	for _, tx := range m.transactions {
		if tx.UserID == userID {
			sum += tx.Amount
		}
	}
	return sum, nil
}

func (m *mockXPRepo) ListQuestCompletionSourceIDs(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, tx := range m.transactions {
		if tx.Reason != model.XPReasonQuestCompletion || seen[tx.SourceID] {
			continue
		}
		seen[tx.SourceID] = true
		ids = append(ids, tx.SourceID)
	}
	return ids, nil
}

// ── Mock TraitRepository ──

type mockTraitRepo struct {
	traits map[string]*model.Trait
}

func newMockTraitRepo() *mockTraitRepo {
	return &mockTraitRepo{traits: make(map[string]*model.Trait)}
}

func (m *mockTraitRepo) Create(_ context.Context, trait *model.Trait) error {
	if trait.TraitID == "" {
		trait.TraitID = "t-" + trait.Key
	}
	m.traits[trait.TraitID] = trait
	return nil
}

func (m *mockTraitRepo) GetByID(_ context.Context, id string) (*model.Trait, error) {
	if t, ok := m.traits[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTraitRepo) GetByKey(_ context.Context, key string) (*model.Trait, error) {
	for _, t := range m.traits {
		if t.Key == key {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTraitRepo) Update(_ context.Context, trait *model.Trait) error {
	if _, ok := m.traits[trait.TraitID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.traits[trait.TraitID] = trait
	return nil
}

func (m *mockTraitRepo) List(_ context.Context, _ *dto.TraitListRequest) ([]model.Trait, int64, error) {
	var result []model.Trait
	for _, t := range m.traits {
		result = append(result, *t)
	}
	return result, int64(len(result)), nil
}

func (m *mockTraitRepo) Delete(_ context.Context, id string) error {
	delete(m.traits, id)
	return nil
}

// ── Mock UserTraitRepository ──

type mockUserTraitRepo struct {
	grants map[string]*model.UserTrait // key: userID+":"+traitID
}

func newMockUserTraitRepo() *mockUserTraitRepo {
	return &mockUserTraitRepo{grants: make(map[string]*model.UserTrait)}
}

func (m *mockUserTraitRepo) Grant(_ context.Context, ut *model.UserTrait) error {
	key := ut.UserID + ":" + ut.TraitID
	if _, ok := m.grants[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	m.grants[key] = ut
	return nil
}

func (m *mockUserTraitRepo) Revoke(_ context.Context, userID, traitID string) error {
	delete(m.grants, userID+":"+traitID)
	return nil
}

func (m *mockUserTraitRepo) Exists(_ context.Context, userID, traitID string) (bool, error) {
	_, ok := m.grants[userID+":"+traitID]
	return ok, nil
}

func (m *mockUserTraitRepo) ListByUser(_ context.Context, userID string) ([]model.UserTrait, error) {
	var result []model.UserTrait
	for _, ut := range m.grants {
		if ut.UserID == userID {
			result = append(result, *ut)
		}
	}
	return result, nil
}

// ── Mock TicketRepository ──

type mockTicketRepo struct {
	tickets map[string]*model.SupportTicket
}

func newMockTicketRepo() *mockTicketRepo {
	return &mockTicketRepo{tickets: make(map[string]*model.SupportTicket)}
}

func (m *mockTicketRepo) Create(_ context.Context, ticket *model.SupportTicket) error {
	if ticket.TicketID == "" {
		ticket.TicketID = fmt.Sprintf("tk-%d", len(m.tickets)+1)
	}
	if ticket.Version == 0 {
		ticket.Version = 1
	}
	m.tickets[ticket.TicketID] = ticket
	return nil
}

func (m *mockTicketRepo) GetByID(_ context.Context, id string) (*model.SupportTicket, error) {
	if t, ok := m.tickets[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTicketRepo) Update(_ context.Context, ticket *model.SupportTicket) error {
	existing, ok := m.tickets[ticket.TicketID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if existing.Version != ticket.Version {
		return pkgerrors.ErrOptimisticLock
	}
	ticket.Version++
	m.tickets[ticket.TicketID] = ticket
	return nil
}

func (m *mockTicketRepo) UpdateStatus(_ context.Context, id string, status model.TicketStatus, resolutionNote string, updatedBy *string) error {
	t, ok := m.tickets[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = status
	if resolutionNote != "" {
		t.ResolutionNote = resolutionNote
	}
	t.UpdatedBy = updatedBy
	return nil
}

func (m *mockTicketRepo) UpdateAssignee(_ context.Context, id string, assigneeID *string, updatedBy *string) error {
	t, ok := m.tickets[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.AssigneeID = assigneeID
	t.UpdatedBy = updatedBy
	return nil
}

func (m *mockTicketRepo) List(_ context.Context, req *dto.TicketListRequest) ([]model.SupportTicket, int64, error) {
	var result []model.SupportTicket
	for _, t := range m.tickets {
		if req.Status != "" && string(t.Status) != req.Status {
			continue
		}
		if req.Priority != "" && t.Priority != req.Priority {
			continue
		}
		if req.AssigneeID != "" && (t.AssigneeID == nil || *t.AssigneeID != req.AssigneeID) {
			continue
		}
		result = append(result, *t)
	}
	return result, int64(len(result)), nil
}

func (m *mockTicketRepo) CountOpen(_ context.Context) (int64, error) {
	var total int64
	for _, t := range m.tickets {
		if !model.IsTicketTerminal(t.Status) {
			total++
		}
	}
	return total, nil
}

// ── Mock ReportRepository ──

type mockReportRepo struct {
	reports map[string]*model.ModerationReport
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: make(map[string]*model.ModerationReport)}
}

func (m *mockReportRepo) Create(_ context.Context, report *model.ModerationReport) error {
	if report.ReportID == "" {
		report.ReportID = fmt.Sprintf("rp-%d", len(m.reports)+1)
	}
	m.reports[report.ReportID] = report
	return nil
}

func (m *mockReportRepo) GetByID(_ context.Context, id string) (*model.ModerationReport, error) {
	if r, ok := m.reports[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReportRepo) UpdateStatus(_ context.Context, id string, status model.ReportStatus, resolvedBy *string, resolutionNote string) error {
	r, ok := m.reports[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.Status = status
	if model.IsReportTerminal(status) {
		r.ResolvedBy = resolvedBy
		r.ResolutionNote = resolutionNote
	}
	return nil
}

func (m *mockReportRepo) List(_ context.Context, req *dto.ReportListRequest) ([]model.ModerationReport, int64, error) {
	var result []model.ModerationReport
	for _, r := range m.reports {
		if req.Status != "" && string(r.Status) != req.Status {
			continue
		}
		if req.SubjectKind != "" && r.SubjectKind != req.SubjectKind {
			continue
		}
		result = append(result, *r)
	}
	return result, int64(len(result)), nil
}

func (m *mockReportRepo) CountOpen(_ context.Context) (int64, error) {
	var total int64
	for _, r := range m.reports {
		if !model.IsReportTerminal(r.Status) {
			total++
		}
	}
	return total, nil
}

// ── Mock FeatureFlagRepository ──

type mockFeatureFlagRepo struct {
	flags map[string]*model.FeatureFlag
}

func newMockFeatureFlagRepo() *mockFeatureFlagRepo {
	return &mockFeatureFlagRepo{flags: make(map[string]*model.FeatureFlag)}
}

func (m *mockFeatureFlagRepo) Upsert(_ context.Context, flag *model.FeatureFlag) error {
	m.flags[flag.Key] = flag
	return nil
}

func (m *mockFeatureFlagRepo) GetByKey(_ context.Context, key string) (*model.FeatureFlag, error) {
	if f, ok := m.flags[key]; ok {
		return f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFeatureFlagRepo) List(_ context.Context) ([]model.FeatureFlag, error) {
	var result []model.FeatureFlag
	for _, f := range m.flags {
		result = append(result, *f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

func (m *mockFeatureFlagRepo) Delete(_ context.Context, key string) error {
	delete(m.flags, key)
	return nil
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	logs []model.AdminActionLog
}

func newMockAuditLogRepo() *mockAuditLogRepo {
	return &mockAuditLogRepo{}
}

func (m *mockAuditLogRepo) Create(_ context.Context, log *model.AdminActionLog) error {
	if log.ActionLogID == "" {
		log.ActionLogID = fmt.Sprintf("log-%d", len(m.logs)+1)
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditLogRepo) List(_ context.Context, req *dto.AuditLogListRequest) ([]model.AdminActionLog, int64, error) {
	var result []model.AdminActionLog
	for _, l := range m.logs {
		if req.ActorID != "" && l.ActorID != req.ActorID {
			continue
		}
		if req.Action != "" && l.Action != req.Action {
			continue
		}
		result = append(result, l)
	}
	return result, int64(len(result)), nil
}

// ── 聚合 ──

// testRepos 聚合全部 mock repo 便于 seed 数据
type testRepos struct {
	user        *mockUserRepo
	quest       *mockQuestRepo
	instance    *mockInstanceRepo
	signup      *mockSignupRepo
	squad       *mockSquadRepo
	squadMember *mockSquadMemberRepo
	squadChat   *mockSquadChatRepo
	xp          *mockXPRepo
	trait       *mockTraitRepo
	userTrait   *mockUserTraitRepo
	ticket      *mockTicketRepo
	report      *mockReportRepo
	featureFlag *mockFeatureFlagRepo
	auditLog    *mockAuditLogRepo
}

func newTestRepos() *testRepos {
	xp := newMockXPRepo()
	members := newMockSquadMemberRepo()
	return &testRepos{
		user:        newMockUserRepo(),
		quest:       newMockQuestRepo(),
		instance:    newMockInstanceRepo(),
		signup:      newMockSignupRepo(xp),
		squad:       newMockSquadRepo(members),
		squadMember: members,
		squadChat:   newMockSquadChatRepo(),
		xp:          xp,
		trait:       newMockTraitRepo(),
		userTrait:   newMockUserTraitRepo(),
		ticket:      newMockTicketRepo(),
		report:      newMockReportRepo(),
		featureFlag: newMockFeatureFlagRepo(),
		auditLog:    newMockAuditLogRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		User:        r.user,
		Quest:       r.quest,
		Instance:    r.instance,
		Signup:      r.signup,
		Squad:       r.squad,
		SquadMember: r.squadMember,
		SquadChat:   r.squadChat,
		XP:          r.xp,
		Trait:       r.trait,
		UserTrait:   r.userTrait,
		Ticket:      r.ticket,
		Report:      r.report,
		FeatureFlag: r.featureFlag,
		AuditLog:    r.auditLog,
	}
}

// ── 内存缓存后端 ──

// memStore 实现 cache.Store，测试里替代 Redis；不做 TTL 过期
type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("键 %q 不存在", key)
}

func (m *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cur int64
	fmt.Sscanf(m.data[key], "%d", &cur)
	cur++
	m.data[key] = fmt.Sprintf("%d", cur)
	return cur, nil
}
