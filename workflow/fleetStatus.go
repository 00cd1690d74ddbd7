package workflow

import (
	"context"
	"time"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/models"
	"github.com/sirupsen/logrus"
)

// NextFleetStatus is the pure transition rule. It returns the status the
// fleet should have at `now`; terminal statuses are returned unchanged.
func NextFleetStatus(now time.Time, scheduledAt time.Time, durationMinutes int, current models.FleetStatus) models.FleetStatus {
	if current.IsTerminal() {
		return current
	}
	endsAt := scheduledAt.Add(time.Duration(durationMinutes) * time.Minute)
	switch current {
	case models.FleetStatusScheduled:
		if !now.Before(endsAt) {
			return models.FleetStatusCompleted
		}
		if !now.Before(scheduledAt) {
			return models.FleetStatusInProgress
		}
		return models.FleetStatusScheduled
	case models.FleetStatusInProgress:
		if !now.Before(endsAt) {
			return models.FleetStatusCompleted
		}
		return models.FleetStatusInProgress
	default:
		return current
	}
}

// RefreshFleetStatuses applies the transition rule with two guarded UPDATEs.
// The status column only appears in the WHERE clause with its expected old
// value, so concurrent refreshes and cancels can never regress a terminal
// status. Idempotent; called at the top of every fleet read and from the
// periodic sweeper.
func RefreshFleetStatuses(ctx context.Context) error {
	db := config.GetDB()
	if db == nil {
		return nil
	}
	now := time.Now().UTC()

	// scheduled -> in_progress (fleets whose window already closed are
	// promoted twice in one refresh: first here, then below).
	res := db.WithContext(ctx).Model(&models.Fleet{}).
		Where("status = ? AND scheduled_at <= ?", models.FleetStatusScheduled, now).
		Update("status", models.FleetStatusInProgress)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		config.FleetStatusTransitions.WithLabelValues(string(models.FleetStatusInProgress)).Add(float64(res.RowsAffected))
	}

	// in_progress -> completed
	res = db.WithContext(ctx).Model(&models.Fleet{}).
		Where("status = ? AND scheduled_at + (duration_minutes * INTERVAL '1 minute') <= ?", models.FleetStatusInProgress, now).
		Update("status", models.FleetStatusCompleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		config.FleetStatusTransitions.WithLabelValues(string(models.FleetStatusCompleted)).Add(float64(res.RowsAffected))
	}
	return nil
}

// RunFleetSweep is the background refresh loop. Statuses are re-derived on
// every read anyway, so the sweep only keeps idle deployments current.
func RunFleetSweep(ctx context.Context, logger *logrus.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
		if err := RefreshFleetStatuses(ctx); err != nil {
			logger.WithFields(logrus.Fields{
				"field": "RunFleetSweep",
			}).Error("fleet status sweep failed: " + err.Error())
		}
	}
}
