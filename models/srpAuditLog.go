package models

import (
	"context"
	"time"

	"github.com/bombersbar/backend/config"
)

// SRPAuditLog is append-only. Rows are written best-effort alongside the
// guarded status UPDATE; a lost audit row never fails the decision.
type SRPAuditLog struct {
	ID        int       `gorm:"primary_key" json:"id"`
	RequestId int       `gorm:"not null;index" json:"request_id"`
	Action    string    `gorm:"size:20;not null" json:"action"`
	Actor     string    `gorm:"size:100;not null" json:"actor"`
	Detail    string    `gorm:"type:text" json:"detail"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func recordSRPAudit(ctx context.Context, requestId int, action string, detail string) {
	db := config.GetDB()
	if db == nil {
		return
	}
	entry := SRPAuditLog{
		RequestId: requestId,
		Action:    action,
		Actor:     actorFromContext(ctx),
		Detail:    detail,
	}
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		config.LogError(config.GetLogger(), "srpAuditLog.go", "recordSRPAudit", action, entry, err)
	}
}

func ListSRPAuditLog(ctx context.Context, requestId int) ([]*SRPAuditLog, error) {
	db := config.GetDB()
	var entries []*SRPAuditLog
	if err := db.WithContext(ctx).Where("request_id = ?", requestId).
		Order("id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
