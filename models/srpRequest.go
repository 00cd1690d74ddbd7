package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/utils"
	"github.com/shopspring/decimal"
)

type SRPRequest struct {
	ID                int             `gorm:"primary_key" json:"id"`
	KillmailId        int             `gorm:"not null;uniqueIndex:idx_srp_kill_char" json:"killmail_id" binding:"required"`
	KillmailHash      string          `gorm:"size:64;not null" json:"killmail_hash"`
	CharacterId       int             `gorm:"not null;uniqueIndex:idx_srp_kill_char;index" json:"character_id" binding:"required"`
	CharacterName     string          `gorm:"size:100" json:"character_name"`
	ShipTypeId        int             `gorm:"not null" json:"ship_type_id"`
	ShipTypeName      string          `gorm:"size:100" json:"ship_type_name"`
	FleetId           *int            `gorm:"index" json:"fleet_id"`
	Status            SRPStatus       `gorm:"size:20;not null;default:'pending';index" json:"status"`
	BasePayoutAmount  decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"base_payout_amount"`
	FinalPayoutAmount decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"final_payout_amount"`
	DenialReason      string          `gorm:"type:text" json:"denial_reason"`
	ProcessedBy       string          `gorm:"size:100" json:"processed_by"`
	ProcessedAt       *time.Time      `json:"processed_at"`
	SourceMailId      *int            `gorm:"index" json:"source_mail_id"`
	LossTime          *time.Time      `json:"loss_time"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSRPRequest struct {
	KillmailId       int             `json:"killmail_id" binding:"required" validate:"required"`
	KillmailHash     string          `json:"killmail_hash" binding:"required" validate:"required"`
	CharacterId      int             `json:"character_id" binding:"required" validate:"required"`
	CharacterName    string          `json:"character_name"`
	ShipTypeId       int             `json:"ship_type_id"`
	ShipTypeName     string          `json:"ship_type_name"`
	FleetId          *int            `json:"fleet_id"`
	BasePayoutAmount decimal.Decimal `json:"base_payout_amount"`
	SourceMailId     *int            `json:"source_mail_id"`
	LossTime         *time.Time      `json:"loss_time"`
}

var ErrDuplicateSRPRequest = errors.New("srp request already exists for this killmail")

// CreateSRPRequest inserts a new pending request. Idempotent per
// killmail+character: a duplicate returns ErrDuplicateSRPRequest, which the
// mail intake treats as "already handled" rather than a failure.
func CreateSRPRequest(ctx context.Context, input *NewSRPRequest) (*SRPRequest, error) {
	if input.BasePayoutAmount.IsNegative() {
		return nil, errors.New("base_payout_amount cannot be negative")
	}
	if input.FleetId != nil {
		if err := utils.ValidateResourceId[Fleet](ctx, *input.FleetId); err != nil {
			return nil, err
		}
	}

	count, err := utils.ResourceCountWhere[SRPRequest](ctx, "killmail_id = ? AND character_id = ?", input.KillmailId, input.CharacterId)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateSRPRequest
	}

	db := config.GetDB()
	request := SRPRequest{
		KillmailId:        input.KillmailId,
		KillmailHash:      input.KillmailHash,
		CharacterId:       input.CharacterId,
		CharacterName:     input.CharacterName,
		ShipTypeId:        input.ShipTypeId,
		ShipTypeName:      input.ShipTypeName,
		FleetId:           input.FleetId,
		Status:            SRPStatusPending,
		BasePayoutAmount:  input.BasePayoutAmount,
		FinalPayoutAmount: decimal.Zero,
		SourceMailId:      input.SourceMailId,
		LossTime:          input.LossTime,
	}
	if err := db.WithContext(ctx).Create(&request).Error; err != nil {
		// The unique index is the backstop for the check-then-insert race.
		if strings.Contains(err.Error(), "idx_srp_kill_char") {
			return nil, ErrDuplicateSRPRequest
		}
		return nil, err
	}

	recordSRPAudit(ctx, request.ID, SRPAuditActionCreated, "")
	return &request, nil
}

func actorFromContext(ctx context.Context) string {
	if username, ok := utils.GetUsernameFromContext(ctx); ok && username != "" {
		return username
	}
	return "System"
}

// ApproveSRPRequest moves pending -> approved in a single guarded UPDATE.
// finalPayout nil defaults to the base payout amount.
func ApproveSRPRequest(ctx context.Context, id int, finalPayout *decimal.Decimal) (*SRPRequest, error) {
	request, err := utils.FetchModel[SRPRequest](ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransitionSRP(request.Status, SRPStatusApproved) {
		return nil, fmt.Errorf("request is %s, only pending requests can be approved", request.Status)
	}

	payout := request.BasePayoutAmount
	if finalPayout != nil {
		payout = *finalPayout
	}
	// The defaulted base amount gets the same sign check as an explicit one.
	if payout.IsNegative() {
		return nil, errors.New("final_payout_amount cannot be negative")
	}

	now := time.Now().UTC()
	actor := actorFromContext(ctx)
	db := config.GetDB()
	res := db.WithContext(ctx).Model(&SRPRequest{}).
		Where("id = ? AND status = ?", id, SRPStatusPending).
		Updates(map[string]interface{}{
			"status":              SRPStatusApproved,
			"final_payout_amount": payout,
			"processed_by":        actor,
			"processed_at":        &now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errors.New("request is no longer pending")
	}

	request.Status = SRPStatusApproved
	request.FinalPayoutAmount = payout
	request.ProcessedBy = actor
	request.ProcessedAt = &now

	recordSRPAudit(ctx, id, SRPAuditActionApproved, payout.String())
	config.SrpDecisions.WithLabelValues("approve").Inc()
	return request, nil
}

// DenySRPRequest moves pending -> denied. The reason is mandatory and
// persisted verbatim.
func DenySRPRequest(ctx context.Context, id int, reason string) (*SRPRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.New("denial reason is required")
	}

	request, err := utils.FetchModel[SRPRequest](ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransitionSRP(request.Status, SRPStatusDenied) {
		return nil, fmt.Errorf("request is %s, only pending requests can be denied", request.Status)
	}

	now := time.Now().UTC()
	actor := actorFromContext(ctx)
	db := config.GetDB()
	res := db.WithContext(ctx).Model(&SRPRequest{}).
		Where("id = ? AND status = ?", id, SRPStatusPending).
		Updates(map[string]interface{}{
			"status":        SRPStatusDenied,
			"denial_reason": reason,
			"processed_by":  actor,
			"processed_at":  &now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errors.New("request is no longer pending")
	}

	request.Status = SRPStatusDenied
	request.DenialReason = reason
	request.ProcessedBy = actor
	request.ProcessedAt = &now

	recordSRPAudit(ctx, id, SRPAuditActionDenied, reason)
	config.SrpDecisions.WithLabelValues("deny").Inc()
	return request, nil
}

// MarkSRPRequestPaid moves approved -> paid.
func MarkSRPRequestPaid(ctx context.Context, id int) (*SRPRequest, error) {
	request, err := utils.FetchModel[SRPRequest](ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransitionSRP(request.Status, SRPStatusPaid) {
		return nil, fmt.Errorf("request is %s, only approved requests can be paid", request.Status)
	}

	db := config.GetDB()
	res := db.WithContext(ctx).Model(&SRPRequest{}).
		Where("id = ? AND status = ?", id, SRPStatusApproved).
		Update("status", SRPStatusPaid)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errors.New("request is no longer approved")
	}

	request.Status = SRPStatusPaid

	recordSRPAudit(ctx, id, SRPAuditActionPaid, request.FinalPayoutAmount.String())
	config.SrpDecisions.WithLabelValues("pay").Inc()
	return request, nil
}

// CancelSRPRequest moves pending -> cancelled (requester withdrew, or the
// claim was filed by mistake).
func CancelSRPRequest(ctx context.Context, id int) (*SRPRequest, error) {
	request, err := utils.FetchModel[SRPRequest](ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransitionSRP(request.Status, SRPStatusCancelled) {
		return nil, fmt.Errorf("request is %s, only pending requests can be cancelled", request.Status)
	}

	db := config.GetDB()
	res := db.WithContext(ctx).Model(&SRPRequest{}).
		Where("id = ? AND status = ?", id, SRPStatusPending).
		Update("status", SRPStatusCancelled)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errors.New("request is no longer pending")
	}

	request.Status = SRPStatusCancelled

	recordSRPAudit(ctx, id, SRPAuditActionCancelled, "")
	config.SrpDecisions.WithLabelValues("cancel").Inc()
	return request, nil
}

func GetSRPRequest(ctx context.Context, id int) (*SRPRequest, error) {
	return utils.FetchModel[SRPRequest](ctx, id)
}

type SRPFilter struct {
	Status      string
	CharacterId int
	FleetId     int
	Limit       int
	Offset      int
}

func ListSRPRequests(ctx context.Context, filter SRPFilter) ([]*SRPRequest, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&SRPRequest{})
	if filter.Status != "" {
		parsed, err := ParseSRPStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		dbCtx = dbCtx.Where("status = ?", parsed)
	}
	if filter.CharacterId > 0 {
		dbCtx = dbCtx.Where("character_id = ?", filter.CharacterId)
	}
	if filter.FleetId > 0 {
		dbCtx = dbCtx.Where("fleet_id = ?", filter.FleetId)
	}

	limit := filter.Limit
	if limit <= 0 || limit > config.SearchLimit*4 {
		limit = config.SearchLimit
	}

	var requests []*SRPRequest
	if err := dbCtx.Order("created_at DESC").Limit(limit).Offset(filter.Offset).Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

type KillImportItem struct {
	KillmailId   int    `json:"killmail_id" binding:"required"`
	KillmailHash string `json:"killmail_hash" binding:"required"`
	FleetId      *int   `json:"fleet_id"`
}

type KillImportError struct {
	KillmailId int    `json:"killmail_id"`
	Error      string `json:"error"`
}

type KillImportSummary struct {
	Imported int               `json:"imported"`
	Skipped  int               `json:"skipped"`
	Errors   []KillImportError `json:"errors"`
}

// ImportKills resolves each killmail through ESI and creates pending
// requests. Items fail independently; the summary aggregates per-item
// errors instead of aborting the batch.
func ImportKills(ctx context.Context, items []KillImportItem) (*KillImportSummary, error) {
	if len(items) == 0 {
		return nil, errors.New("no killmails given")
	}

	summary := &KillImportSummary{Errors: []KillImportError{}}
	for _, item := range items {
		km, err := utils.GetEsiKillmail(ctx, item.KillmailId, item.KillmailHash)
		if err != nil {
			summary.Errors = append(summary.Errors, KillImportError{KillmailId: item.KillmailId, Error: err.Error()})
			continue
		}

		input := NewSRPRequest{
			KillmailId:   km.KillmailId,
			KillmailHash: item.KillmailHash,
			CharacterId:  km.Victim.CharacterId,
			ShipTypeId:   km.Victim.ShipTypeId,
			FleetId:      item.FleetId,
			LossTime:     &km.KillmailTime,
		}
		if name, err := utils.GetEsiCharacterName(ctx, km.Victim.CharacterId); err == nil {
			input.CharacterName = name
		}
		if name, err := utils.GetEsiTypeName(ctx, km.Victim.ShipTypeId); err == nil {
			input.ShipTypeName = name
		}

		if _, err := CreateSRPRequest(ctx, &input); err != nil {
			if errors.Is(err, ErrDuplicateSRPRequest) {
				summary.Skipped++
				continue
			}
			summary.Errors = append(summary.Errors, KillImportError{KillmailId: item.KillmailId, Error: err.Error()})
			continue
		}
		summary.Imported++
	}
	return summary, nil
}
