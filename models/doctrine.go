package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/utils"
)

// Doctrine is an approved fitting for a fleet type. Slot module lists are
// persisted as JSON arrays; slot counts are fixed when the doctrine is
// created (the hull does not grow slots) so updates may only swap modules.
type Doctrine struct {
	ID          int        `gorm:"primary_key" json:"id"`
	FleetTypeId int        `gorm:"not null;index" json:"fleet_type_id" binding:"required"`
	FleetType   *FleetType `json:"fleet_type,omitempty"`
	Name        string     `gorm:"size:100;not null" json:"name" binding:"required"`
	ShipTypeId  int        `gorm:"not null" json:"ship_type_id" binding:"required"`
	HighSlots   string     `gorm:"type:jsonb;not null;default:'[]'" json:"high_slots"`
	MidSlots    string     `gorm:"type:jsonb;not null;default:'[]'" json:"mid_slots"`
	LowSlots    string     `gorm:"type:jsonb;not null;default:'[]'" json:"low_slots"`
	RigSlots    string     `gorm:"type:jsonb;not null;default:'[]'" json:"rig_slots"`
	Cargo       string     `gorm:"type:jsonb;not null;default:'[]'" json:"cargo"`
	IsActive    *bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDoctrine struct {
	FleetTypeId int      `json:"fleet_type_id" binding:"required"`
	Name        string   `json:"name" binding:"required"`
	ShipTypeId  int      `json:"ship_type_id" binding:"required"`
	HighSlots   []string `json:"high_slots"`
	MidSlots    []string `json:"mid_slots"`
	LowSlots    []string `json:"low_slots"`
	RigSlots    []string `json:"rig_slots"`
	Cargo       []string `json:"cargo"`
}

func (input *NewDoctrine) validate(ctx context.Context) error {
	if err := utils.ValidateResourceId[FleetType](ctx, input.FleetTypeId); err != nil {
		return err
	}
	return nil
}

// SlotArityMatches reports whether stored and incoming module lists have the
// same length. Stored is the persisted JSON array.
func SlotArityMatches(stored string, incoming []string) (bool, error) {
	var current []string
	if err := json.Unmarshal([]byte(stored), &current); err != nil {
		return false, err
	}
	return len(current) == len(incoming), nil
}

func marshalSlots(modules []string) (string, error) {
	if modules == nil {
		modules = []string{}
	}
	raw, err := json.Marshal(modules)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func CreateDoctrine(ctx context.Context, input *NewDoctrine) (*Doctrine, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	high, err := marshalSlots(input.HighSlots)
	if err != nil {
		return nil, err
	}
	mid, err := marshalSlots(input.MidSlots)
	if err != nil {
		return nil, err
	}
	low, err := marshalSlots(input.LowSlots)
	if err != nil {
		return nil, err
	}
	rig, err := marshalSlots(input.RigSlots)
	if err != nil {
		return nil, err
	}
	cargo, err := marshalSlots(input.Cargo)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	doctrine := Doctrine{
		FleetTypeId: input.FleetTypeId,
		Name:        input.Name,
		ShipTypeId:  input.ShipTypeId,
		HighSlots:   high,
		MidSlots:    mid,
		LowSlots:    low,
		RigSlots:    rig,
		Cargo:       cargo,
		IsActive:    utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&doctrine).Error; err != nil {
		return nil, err
	}
	return &doctrine, nil
}

func UpdateDoctrine(ctx context.Context, id int, input *NewDoctrine) (*Doctrine, error) {
	doctrine, err := utils.FetchModel[Doctrine](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	// Slot counts are immutable after creation.
	for _, pair := range []struct {
		slot     string
		stored   string
		incoming []string
	}{
		{"high_slots", doctrine.HighSlots, input.HighSlots},
		{"mid_slots", doctrine.MidSlots, input.MidSlots},
		{"low_slots", doctrine.LowSlots, input.LowSlots},
		{"rig_slots", doctrine.RigSlots, input.RigSlots},
	} {
		ok, err := SlotArityMatches(pair.stored, pair.incoming)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New(pair.slot + " count cannot change")
		}
	}

	high, err := marshalSlots(input.HighSlots)
	if err != nil {
		return nil, err
	}
	mid, err := marshalSlots(input.MidSlots)
	if err != nil {
		return nil, err
	}
	low, err := marshalSlots(input.LowSlots)
	if err != nil {
		return nil, err
	}
	rig, err := marshalSlots(input.RigSlots)
	if err != nil {
		return nil, err
	}
	cargo, err := marshalSlots(input.Cargo)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(doctrine).Updates(map[string]interface{}{
		"fleet_type_id": input.FleetTypeId,
		"name":          input.Name,
		"ship_type_id":  input.ShipTypeId,
		"high_slots":    high,
		"mid_slots":     mid,
		"low_slots":     low,
		"rig_slots":     rig,
		"cargo":         cargo,
	}).Error; err != nil {
		return nil, err
	}
	return doctrine, nil
}

func ToggleActiveDoctrine(ctx context.Context, id int, isActive bool) (*Doctrine, error) {
	doctrine, err := utils.FetchModel[Doctrine](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(doctrine).Update("is_active", isActive).Error; err != nil {
		return nil, err
	}
	return doctrine, nil
}

func DeleteDoctrine(ctx context.Context, id int) (*Doctrine, error) {
	doctrine, err := utils.FetchModel[Doctrine](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(doctrine).Error; err != nil {
		return nil, err
	}
	return doctrine, nil
}

func GetDoctrine(ctx context.Context, id int) (*Doctrine, error) {
	return utils.FetchModel[Doctrine](ctx, id, "FleetType")
}

func ListDoctrines(ctx context.Context, fleetTypeId int, activeOnly bool) ([]*Doctrine, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Doctrine{}).Preload("FleetType")
	if fleetTypeId > 0 {
		dbCtx = dbCtx.Where("fleet_type_id = ?", fleetTypeId)
	}
	if activeOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}
	var doctrines []*Doctrine
	if err := dbCtx.Order("name ASC").Find(&doctrines).Error; err != nil {
		return nil, err
	}
	return doctrines, nil
}
