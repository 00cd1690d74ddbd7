package models

import (
	"context"
	"time"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/utils"
)

type FleetType struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:100;not null;unique" json:"name" binding:"required"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFleetType struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (input *NewFleetType) validate(ctx context.Context, id int) error {
	return utils.ValidateUnique[FleetType](ctx, "name", input.Name, id)
}

func CreateFleetType(ctx context.Context, input *NewFleetType) (*FleetType, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	db := config.GetDB()
	fleetType := FleetType{
		Name:        input.Name,
		Description: input.Description,
		IsActive:    utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&fleetType).Error; err != nil {
		return nil, err
	}
	return &fleetType, nil
}

func UpdateFleetType(ctx context.Context, id int, input *NewFleetType) (*FleetType, error) {
	fleetType, err := utils.FetchModel[FleetType](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(fleetType).Updates(map[string]interface{}{
		"name":        input.Name,
		"description": input.Description,
	}).Error; err != nil {
		return nil, err
	}
	return fleetType, nil
}

func ToggleActiveFleetType(ctx context.Context, id int, isActive bool) (*FleetType, error) {
	fleetType, err := utils.FetchModel[FleetType](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(fleetType).Update("is_active", isActive).Error; err != nil {
		return nil, err
	}
	return fleetType, nil
}

func GetFleetType(ctx context.Context, id int) (*FleetType, error) {
	return utils.FetchModel[FleetType](ctx, id)
}

func ListFleetTypes(ctx context.Context, activeOnly bool) ([]*FleetType, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&FleetType{})
	if activeOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}
	var fleetTypes []*FleetType
	if err := dbCtx.Order("name ASC").Find(&fleetTypes).Error; err != nil {
		return nil, err
	}
	return fleetTypes, nil
}
