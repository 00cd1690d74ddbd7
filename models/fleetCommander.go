package models

import (
	"context"
	"errors"
	"time"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/utils"
)

type FleetCommander struct {
	ID              int       `gorm:"primary_key" json:"id"`
	MainCharacterId int       `gorm:"not null;unique" json:"main_character_id" binding:"required"`
	Name            string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Status          FCStatus  `gorm:"size:20;not null;default:'Active'" json:"status"`
	Rank            FCRank    `gorm:"size:20;not null" json:"rank" binding:"required"`
	AccessLevel     string    `gorm:"size:50" json:"access_level"`
	Notes           string    `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFleetCommander struct {
	MainCharacterId int    `json:"main_character_id" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Rank            string `json:"rank" binding:"required"`
	AccessLevel     string `json:"access_level"`
	Notes           string `json:"notes"`
}

func (input *NewFleetCommander) validate(ctx context.Context, id int) (FCRank, error) {
	rank, err := ParseFCRank(input.Rank)
	if err != nil {
		return "", err
	}
	if err := utils.ValidateUnique[FleetCommander](ctx, "main_character_id", input.MainCharacterId, id); err != nil {
		return "", errors.New("main character already registered")
	}
	return rank, nil
}

func CreateFleetCommander(ctx context.Context, input *NewFleetCommander) (*FleetCommander, error) {
	rank, err := input.validate(ctx, 0)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	fc := FleetCommander{
		MainCharacterId: input.MainCharacterId,
		Name:            input.Name,
		Status:          FCStatusActive,
		Rank:            rank,
		AccessLevel:     input.AccessLevel,
		Notes:           input.Notes,
	}
	if err := db.WithContext(ctx).Create(&fc).Error; err != nil {
		return nil, err
	}
	return &fc, nil
}

func UpdateFleetCommander(ctx context.Context, id int, input *NewFleetCommander) (*FleetCommander, error) {
	fc, err := utils.FetchModel[FleetCommander](ctx, id)
	if err != nil {
		return nil, err
	}
	rank, err := input.validate(ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(fc).Updates(map[string]interface{}{
		"main_character_id": input.MainCharacterId,
		"name":              input.Name,
		"rank":              rank,
		"access_level":      input.AccessLevel,
		"notes":             input.Notes,
	}).Error; err != nil {
		return nil, err
	}
	return fc, nil
}

// SetFleetCommanderStatus moves an FC between Active/Inactive/Banned.
// Banned is not terminal; unbans happen.
func SetFleetCommanderStatus(ctx context.Context, id int, status string) (*FleetCommander, error) {
	parsed, err := ParseFCStatus(status)
	if err != nil {
		return nil, err
	}
	fc, err := utils.FetchModel[FleetCommander](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(fc).Update("status", parsed).Error; err != nil {
		return nil, err
	}
	return fc, nil
}

func GetFleetCommander(ctx context.Context, id int) (*FleetCommander, error) {
	return utils.FetchModel[FleetCommander](ctx, id)
}

func ListFleetCommanders(ctx context.Context, status string, rank string) ([]*FleetCommander, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&FleetCommander{})
	if status != "" {
		parsed, err := ParseFCStatus(status)
		if err != nil {
			return nil, err
		}
		dbCtx = dbCtx.Where("status = ?", parsed)
	}
	if rank != "" {
		parsed, err := ParseFCRank(rank)
		if err != nil {
			return nil, err
		}
		dbCtx = dbCtx.Where("rank = ?", parsed)
	}
	var fcs []*FleetCommander
	if err := dbCtx.Order("name ASC").Find(&fcs).Error; err != nil {
		return nil, err
	}
	return fcs, nil
}
