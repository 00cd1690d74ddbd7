package models

import "errors"

type FleetStatus string

const (
	FleetStatusScheduled  FleetStatus = "scheduled"
	FleetStatusInProgress FleetStatus = "in_progress"
	FleetStatusCompleted  FleetStatus = "completed"
	FleetStatusCancelled  FleetStatus = "cancelled"
)

// IsTerminal reports whether a fleet status can never change again.
func (s FleetStatus) IsTerminal() bool {
	return s == FleetStatusCompleted || s == FleetStatusCancelled
}

func ParseFleetStatus(s string) (FleetStatus, error) {
	switch s {
	case "scheduled":
		return FleetStatusScheduled, nil
	case "in_progress":
		return FleetStatusInProgress, nil
	case "completed":
		return FleetStatusCompleted, nil
	case "cancelled":
		return FleetStatusCancelled, nil
	default:
		return "", errors.New("invalid fleet status")
	}
}

type SRPStatus string

const (
	SRPStatusPending   SRPStatus = "pending"
	SRPStatusApproved  SRPStatus = "approved"
	SRPStatusDenied    SRPStatus = "denied"
	SRPStatusPaid      SRPStatus = "paid"
	SRPStatusCancelled SRPStatus = "cancelled"
)

// CanTransitionSRP encodes the admin-driven request lifecycle:
// pending -> approved | denied | cancelled, approved -> paid.
// Everything else is refused; there are no automatic transitions.
func CanTransitionSRP(from SRPStatus, to SRPStatus) bool {
	switch from {
	case SRPStatusPending:
		return to == SRPStatusApproved || to == SRPStatusDenied || to == SRPStatusCancelled
	case SRPStatusApproved:
		return to == SRPStatusPaid
	default:
		return false
	}
}

func ParseSRPStatus(s string) (SRPStatus, error) {
	switch s {
	case "pending":
		return SRPStatusPending, nil
	case "approved":
		return SRPStatusApproved, nil
	case "denied":
		return SRPStatusDenied, nil
	case "paid":
		return SRPStatusPaid, nil
	case "cancelled":
		return SRPStatusCancelled, nil
	default:
		return "", errors.New("invalid srp status")
	}
}

type FCStatus string

const (
	FCStatusActive   FCStatus = "Active"
	FCStatusInactive FCStatus = "Inactive"
	FCStatusBanned   FCStatus = "Banned"
)

func ParseFCStatus(s string) (FCStatus, error) {
	switch s {
	case "Active":
		return FCStatusActive, nil
	case "Inactive":
		return FCStatusInactive, nil
	case "Banned":
		return FCStatusBanned, nil
	default:
		return "", errors.New("invalid fleet commander status")
	}
}

type FCRank string

const (
	FCRankSenior  FCRank = "SFC"
	FCRankJunior  FCRank = "JFC"
	FCRankFull    FCRank = "FC"
	FCRankSupport FCRank = "Support"
)

func ParseFCRank(s string) (FCRank, error) {
	switch s {
	case "SFC":
		return FCRankSenior, nil
	case "JFC":
		return FCRankJunior, nil
	case "FC":
		return FCRankFull, nil
	case "Support":
		return FCRankSupport, nil
	default:
		return "", errors.New("invalid fleet commander rank")
	}
}

type UserRole string

const (
	UserRoleAdmin  UserRole = "Admin"
	UserRoleFC     UserRole = "FC"
	UserRoleMember UserRole = "Member"
)

func ParseUserRole(s string) (UserRole, error) {
	switch s {
	case "Admin":
		return UserRoleAdmin, nil
	case "FC":
		return UserRoleFC, nil
	case "Member":
		return UserRoleMember, nil
	default:
		return "", errors.New("invalid user role")
	}
}

// Outbound mail queue states, dispatcher-owned except PENDING (set on queue)
// and the replay reset back to FAILED.
const (
	MailStatusPending    = "PENDING"
	MailStatusProcessing = "PROCESSING"
	MailStatusSent       = "SENT"
	MailStatusFailed     = "FAILED"
	MailStatusDead       = "DEAD"
)

// SRP audit actions.
const (
	SRPAuditActionCreated   = "created"
	SRPAuditActionApproved  = "approved"
	SRPAuditActionDenied    = "denied"
	SRPAuditActionPaid      = "paid"
	SRPAuditActionCancelled = "cancelled"
)
