package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/models"
	"github.com/bombersbar/backend/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MailDispatcher struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	DispatcherID string

	BatchSize      int
	PollInterval   time.Duration
	LockTimeout    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration

	// ESI evemail posting is rate limited server-side; the dispatcher keeps
	// its own budget so a burst of queued mails never trips the remote cap.
	RateLimit  int
	RateWindow time.Duration

	windowStart  time.Time
	sentInWindow int
}

func NewMailDispatcher(db *gorm.DB, logger *logrus.Logger) *MailDispatcher {
	return &MailDispatcher{
		DB:             db,
		Logger:         logger,
		DispatcherID:   uuid.NewString(),
		BatchSize:      20,
		PollInterval:   5 * time.Second,
		LockTimeout:    30 * time.Second,
		MaxAttempts:    10,
		InitialBackoff: 10 * time.Second,
		RateLimit:      4,
		RateWindow:     time.Minute,
	}
}

// BackoffForAttempt doubles the initial backoff per prior attempt, capped
// at ten minutes.
func BackoffForAttempt(initial time.Duration, attempt int) time.Duration {
	backoff := initial
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff > time.Minute*10 {
			return time.Minute * 10
		}
	}
	return backoff
}

func (d *MailDispatcher) allowSend(now time.Time) bool {
	if d.RateLimit <= 0 {
		return true
	}
	if d.windowStart.IsZero() || now.Sub(d.windowStart) >= d.RateWindow {
		d.windowStart = now
		d.sentInWindow = 0
	}
	return d.sentInWindow < d.RateLimit
}

func (d *MailDispatcher) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.DispatchOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

func (d *MailDispatcher) DispatchOnce(ctx context.Context) {
	now := time.Now().UTC()
	staleBefore := now.Add(-d.LockTimeout)
	db := d.DB
	if db == nil {
		return
	}

	var claimed []models.MailMessage
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Eligible:
		// - PENDING / FAILED and ready to retry
		// - PROCESSING but lock is stale (dispatcher crashed mid-batch), reclaim after LockTimeout
		q := tx.
			Where(`
				(
					status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
				)
				OR
				(
					status = ? AND locked_at IS NOT NULL AND locked_at <= ?
				)
			`, []string{models.MailStatusPending, models.MailStatusFailed}, now, models.MailStatusProcessing, staleBefore).
			Order("id ASC").
			Limit(d.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}
		for i := range claimed {
			// Poison mails go terminal after MaxAttempts.
			if d.MaxAttempts > 0 && claimed[i].Attempts >= d.MaxAttempts {
				msg := fmt.Sprintf("max send attempts exceeded (%d)", d.MaxAttempts)
				claimed[i].Status = models.MailStatusDead
				if err := tx.Model(&models.MailMessage{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
					"status":          models.MailStatusDead,
					"last_error":      &msg,
					"next_attempt_at": nil,
					"locked_at":       nil,
					"locked_by":       nil,
				}).Error; err != nil {
					return err
				}
				config.MailQueueEvents.WithLabelValues("dead").Inc()
				continue
			}

			claimed[i].Status = models.MailStatusProcessing
			claimed[i].LockedAt = &now
			claimed[i].LockedBy = &d.DispatcherID
			claimed[i].Attempts = claimed[i].Attempts + 1
			claimed[i].LastError = nil
			if err := tx.Model(&models.MailMessage{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
				"status":          claimed[i].Status,
				"locked_at":       claimed[i].LockedAt,
				"locked_by":       claimed[i].LockedBy,
				"attempts":        gorm.Expr("attempts + 1"),
				"last_error":      nil,
				"next_attempt_at": nil,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil || len(claimed) == 0 {
		return
	}

	for _, mail := range claimed {
		// Skip terminal rows that were marked DEAD in the claim transaction.
		if mail.Status == models.MailStatusDead {
			continue
		}
		sendTime := time.Now().UTC()
		if !d.allowSend(sendTime) {
			d.deferMail(ctx, mail.ID)
			continue
		}
		esiMailId, sendErr := utils.SendEsiMail(ctx, mail.RecipientCharacterId, mail.Subject, mail.Body)
		if sendErr != nil {
			d.markSendFailed(ctx, mail.ID, mail.CorrelationId, sendErr, mail.Attempts)
			continue
		}
		d.sentInWindow++
		d.markSent(ctx, mail.ID, esiMailId, sendTime)
	}
}

// deferMail releases a claimed mail back to PENDING when the local rate
// budget is exhausted. The claim attempt does not count against MaxAttempts.
func (d *MailDispatcher) deferMail(ctx context.Context, mailID int) {
	next := d.windowStart.Add(d.RateWindow)
	_ = d.DB.WithContext(ctx).Model(&models.MailMessage{}).
		Where("id = ?", mailID).
		Updates(map[string]interface{}{
			"status":          models.MailStatusPending,
			"attempts":        gorm.Expr("attempts - 1"),
			"next_attempt_at": &next,
			"locked_at":       nil,
			"locked_by":       nil,
		}).Error
	config.MailQueueEvents.WithLabelValues("deferred").Inc()
}

func (d *MailDispatcher) markSent(ctx context.Context, mailID int, esiMailId int, now time.Time) {
	_ = d.DB.WithContext(ctx).Model(&models.MailMessage{}).
		Where("id = ?", mailID).
		Updates(map[string]interface{}{
			"status":          models.MailStatusSent,
			"sent_at":         &now,
			"esi_mail_id":     &esiMailId,
			"locked_at":       nil,
			"locked_by":       nil,
			"next_attempt_at": nil,
		}).Error
	config.MailQueueEvents.WithLabelValues("sent").Inc()
}

func (d *MailDispatcher) markSendFailed(ctx context.Context, mailID int, correlationId string, err error, attempt int) {
	db := d.DB.WithContext(ctx)
	now := time.Now().UTC()
	msg := err.Error()

	if d.MaxAttempts > 0 && attempt >= d.MaxAttempts {
		_ = db.Model(&models.MailMessage{}).
			Where("id = ?", mailID).
			Updates(map[string]interface{}{
				"status":          models.MailStatusDead,
				"last_error":      &msg,
				"next_attempt_at": nil,
				"locked_at":       nil,
				"locked_by":       nil,
			}).Error
		config.MailQueueEvents.WithLabelValues("dead").Inc()

		if d.Logger != nil {
			d.Logger.WithFields(logrus.Fields{
				"field":          "MailDispatcher",
				"mail_id":        mailID,
				"correlation_id": correlationId,
				"attempt":        attempt,
			}).Error("mail moved to DEAD after max attempts: " + fmt.Sprintf("%v", err))
		}
		return
	}

	backoff := BackoffForAttempt(d.InitialBackoff, attempt)
	if err == utils.ErrEsiRateLimited {
		// ESI 420 means wait out the error window regardless of attempt count.
		backoff = d.RateWindow
	}
	next := now.Add(backoff)
	_ = db.Model(&models.MailMessage{}).
		Where("id = ?", mailID).
		Updates(map[string]interface{}{
			"status":          models.MailStatusFailed,
			"last_error":      &msg,
			"next_attempt_at": &next,
			"locked_at":       nil,
			"locked_by":       nil,
		}).Error
	config.MailQueueEvents.WithLabelValues("failed").Inc()

	if d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{
			"field":           "MailDispatcher",
			"mail_id":         mailID,
			"correlation_id":  correlationId,
			"attempt":         attempt,
			"next_attempt_at": next.Format(time.RFC3339Nano),
		}).Error("mail send failed: " + fmt.Sprintf("%v", err))
	}
}
