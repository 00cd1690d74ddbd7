package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/utils"
	"github.com/google/uuid"
)

// MailMessage is one outbound evemail in the durable send queue.
// Rows are claimed by the dispatcher with FOR UPDATE SKIP LOCKED; the lock
// columns let a restarted dispatcher reclaim rows a crashed one left in
// PROCESSING.
type MailMessage struct {
	ID                   int        `gorm:"primary_key;index:idx_mail_dispatch,priority:3" json:"id"`
	RecipientCharacterId int        `gorm:"not null;index" json:"recipient_character_id"`
	Subject              string     `gorm:"size:255;not null" json:"subject"`
	Body                 string     `gorm:"type:text;not null" json:"body"`
	Status               string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_mail_dispatch,priority:1" json:"status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	Attempts             int        `gorm:"not null;default:0" json:"attempts"`
	NextAttemptAt        *time.Time `gorm:"index;index:idx_mail_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt             *time.Time `gorm:"index" json:"locked_at"`
	LockedBy             *string    `gorm:"size:100" json:"locked_by"`
	LastError            *string    `gorm:"type:text" json:"last_error"`
	SentAt               *time.Time `gorm:"index" json:"sent_at"`
	EsiMailId            *int       `json:"esi_mail_id"`
	CorrelationId        string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// QueueMail writes an outbound mail row inside the caller's transaction-free
// flow. Sending happens asynchronously in the dispatcher.
func QueueMail(ctx context.Context, recipientCharacterId int, subject string, body string) (*MailMessage, error) {
	if recipientCharacterId <= 0 {
		return nil, errors.New("recipient character id is required")
	}
	if strings.TrimSpace(subject) == "" {
		return nil, errors.New("subject is required")
	}

	mail := MailMessage{
		RecipientCharacterId: recipientCharacterId,
		Subject:              subject,
		Body:                 body,
		Status:               MailStatusPending,
		CorrelationId:        correlationIdFromContextOrNew(ctx),
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&mail).Error; err != nil {
		return nil, err
	}
	config.MailQueueEvents.WithLabelValues("queued").Inc()
	return &mail, nil
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

// ReplayMail resets a FAILED/DEAD row so the dispatcher picks it up again.
func ReplayMail(ctx context.Context, id int) (*MailMessage, error) {
	mail, err := utils.FetchModel[MailMessage](ctx, id)
	if err != nil {
		return nil, err
	}
	if mail.Status != MailStatusFailed && mail.Status != MailStatusDead {
		return nil, errors.New("only FAILED or DEAD mails can be replayed")
	}

	now := time.Now().UTC()
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&MailMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          MailStatusFailed,
			"next_attempt_at": &now,
			"locked_at":       nil,
			"locked_by":       nil,
			"last_error":      nil,
		}).Error; err != nil {
		return nil, err
	}
	mail.Status = MailStatusFailed
	mail.NextAttemptAt = &now
	return mail, nil
}

func ListMailQueue(ctx context.Context, status string, limit int, offset int) ([]*MailMessage, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&MailMessage{})
	if status != "" {
		dbCtx = dbCtx.Where("status = ?", strings.ToUpper(status))
	}
	if limit <= 0 || limit > config.SearchLimit*4 {
		limit = config.SearchLimit
	}
	var mails []*MailMessage
	if err := dbCtx.Order("id DESC").Limit(limit).Offset(offset).Find(&mails).Error; err != nil {
		return nil, err
	}
	return mails, nil
}

// ProcessedMail marks an inbound evemail the SRP intake has already seen,
// so re-runs skip it without refetching the body.
type ProcessedMail struct {
	ID        int       `gorm:"primary_key" json:"id"`
	MailId    int       `gorm:"not null;unique" json:"mail_id"`
	Outcome   string    `gorm:"size:50;not null" json:"outcome"`
	RequestId *int      `json:"request_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func IsMailProcessed(ctx context.Context, mailId int) (bool, error) {
	count, err := utils.ResourceCountWhere[ProcessedMail](ctx, "mail_id = ?", mailId)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func MarkMailProcessed(ctx context.Context, mailId int, outcome string, requestId *int) error {
	db := config.GetDB()
	entry := ProcessedMail{
		MailId:    mailId,
		Outcome:   outcome,
		RequestId: requestId,
	}
	return db.WithContext(ctx).Create(&entry).Error
}
