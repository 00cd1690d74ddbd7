package models

import (
	"context"
	"errors"
	"time"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/utils"
)

type Fleet struct {
	ID               int             `gorm:"primary_key" json:"id"`
	FleetTypeId      int             `gorm:"not null;index" json:"fleet_type_id" binding:"required"`
	FleetType        *FleetType      `json:"fleet_type,omitempty"`
	FcId             int             `gorm:"not null;index" json:"fc_id" binding:"required"`
	Fc               *FleetCommander `gorm:"foreignKey:FcId" json:"fc,omitempty"`
	ScheduledAt      time.Time       `gorm:"not null;index" json:"scheduled_at" binding:"required"`
	Timezone         string          `gorm:"size:64;not null;default:'UTC'" json:"timezone"`
	DurationMinutes  int             `gorm:"not null" json:"duration_minutes" binding:"required"`
	Status           FleetStatus     `gorm:"size:20;not null;default:'scheduled';index" json:"status"`
	ParticipantCount int             `gorm:"not null;default:0" json:"participant_count"`
	Description      string          `gorm:"type:text" json:"description"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFleet struct {
	FleetTypeId     int       `json:"fleet_type_id" binding:"required"`
	FcId            int       `json:"fc_id" binding:"required"`
	ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
	Timezone        string    `json:"timezone"`
	DurationMinutes int       `json:"duration_minutes" binding:"required"`
	Description     string    `json:"description"`
}

// validate checks referenced rows BEFORE any insert so a bad reference
// surfaces as 404 and never leaves a partial fleet behind.
func (input *NewFleet) validate(ctx context.Context) error {
	if input.DurationMinutes <= 0 {
		return errors.New("duration_minutes must be positive")
	}
	if input.Timezone != "" {
		if _, err := time.LoadLocation(input.Timezone); err != nil {
			return errors.New("invalid timezone")
		}
	}

	count, err := utils.ResourceCountWhere[FleetType](ctx, "id = ? AND is_active = ?", input.FleetTypeId, true)
	if err != nil {
		return err
	}
	if count <= 0 {
		return utils.ErrorRecordNotFound
	}

	count, err = utils.ResourceCountWhere[FleetCommander](ctx, "id = ? AND status = ?", input.FcId, FCStatusActive)
	if err != nil {
		return err
	}
	if count <= 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

func CreateFleet(ctx context.Context, input *NewFleet) (*Fleet, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	timezone := input.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	db := config.GetDB()
	fleet := Fleet{
		FleetTypeId:     input.FleetTypeId,
		FcId:            input.FcId,
		ScheduledAt:     input.ScheduledAt.UTC(),
		Timezone:        timezone,
		DurationMinutes: input.DurationMinutes,
		Status:          FleetStatusScheduled,
		Description:     input.Description,
	}
	if err := db.WithContext(ctx).Create(&fleet).Error; err != nil {
		return nil, err
	}
	return &fleet, nil
}

func UpdateFleet(ctx context.Context, id int, input *NewFleet) (*Fleet, error) {
	fleet, err := utils.FetchModel[Fleet](ctx, id)
	if err != nil {
		return nil, err
	}
	if fleet.Status.IsTerminal() {
		return nil, errors.New("fleet is " + string(fleet.Status))
	}
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	timezone := input.Timezone
	if timezone == "" {
		timezone = fleet.Timezone
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(fleet).Updates(map[string]interface{}{
		"fleet_type_id":    input.FleetTypeId,
		"fc_id":            input.FcId,
		"scheduled_at":     input.ScheduledAt.UTC(),
		"timezone":         timezone,
		"duration_minutes": input.DurationMinutes,
		"description":      input.Description,
	}).Error; err != nil {
		return nil, err
	}
	return fleet, nil
}

// CancelFleet marks a fleet cancelled. The WHERE clause carries the guard:
// a concurrent sweep moving the fleet to completed makes this a no-op
// instead of a regression.
func CancelFleet(ctx context.Context, id int) (*Fleet, error) {
	fleet, err := utils.FetchModel[Fleet](ctx, id)
	if err != nil {
		return nil, err
	}
	if fleet.Status.IsTerminal() {
		return nil, errors.New("fleet is already " + string(fleet.Status))
	}

	db := config.GetDB()
	res := db.WithContext(ctx).Model(&Fleet{}).
		Where("id = ? AND status IN ?", id, []FleetStatus{FleetStatusScheduled, FleetStatusInProgress}).
		Update("status", FleetStatusCancelled)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errors.New("fleet is no longer cancellable")
	}
	fleet.Status = FleetStatusCancelled
	return fleet, nil
}

func SetFleetParticipantCount(ctx context.Context, id int, count int) (*Fleet, error) {
	if count < 0 {
		return nil, errors.New("participant_count cannot be negative")
	}
	fleet, err := utils.FetchModel[Fleet](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(fleet).Update("participant_count", count).Error; err != nil {
		return nil, err
	}
	return fleet, nil
}

func GetFleet(ctx context.Context, id int) (*Fleet, error) {
	return utils.FetchModel[Fleet](ctx, id, "FleetType", "Fc")
}

type FleetFilter struct {
	Status      string
	FleetTypeId int
	FcId        int
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

func ListFleets(ctx context.Context, filter FleetFilter) ([]*Fleet, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Fleet{}).Preload("FleetType").Preload("Fc")
	if filter.Status != "" {
		parsed, err := ParseFleetStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		dbCtx = dbCtx.Where("status = ?", parsed)
	}
	if filter.FleetTypeId > 0 {
		dbCtx = dbCtx.Where("fleet_type_id = ?", filter.FleetTypeId)
	}
	if filter.FcId > 0 {
		dbCtx = dbCtx.Where("fc_id = ?", filter.FcId)
	}
	if filter.From != nil {
		dbCtx = dbCtx.Where("scheduled_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		dbCtx = dbCtx.Where("scheduled_at <= ?", filter.To.UTC())
	}

	limit := filter.Limit
	if limit <= 0 || limit > config.SearchLimit*4 {
		limit = config.SearchLimit
	}

	var fleets []*Fleet
	if err := dbCtx.Order("scheduled_at DESC").Limit(limit).Offset(filter.Offset).Find(&fleets).Error; err != nil {
		return nil, err
	}
	return fleets, nil
}
