package reports

import (
	"context"
	"errors"
	"time"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/models"
	"github.com/shopspring/decimal"
)

type SRPPayoutRow struct {
	RequestId         int             `json:"request_id"`
	CharacterId       int             `json:"character_id"`
	CharacterName     string          `json:"character_name"`
	ShipTypeName      string          `json:"ship_type_name"`
	KillmailId        int             `json:"killmail_id"`
	Status            string          `json:"status"`
	FinalPayoutAmount decimal.Decimal `json:"final_payout_amount"`
	ProcessedBy       string          `json:"processed_by"`
	ProcessedAt       *time.Time      `json:"processed_at"`
}

type SRPPayoutSummary struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	RequestCount int             `json:"request_count"`
	TotalPayout  decimal.Decimal `json:"total_payout"`
	Rows         []*SRPPayoutRow `json:"rows"`
}

// GetSRPPayoutReport lists approved and paid requests processed in the
// given window, newest first, with the summed payout. The window is
// half-open [from, to).
func GetSRPPayoutReport(ctx context.Context, from time.Time, to time.Time) (*SRPPayoutSummary, error) {
	if !to.After(from) {
		return nil, errors.New("to must be after from")
	}

	sql := `
SELECT
    id AS request_id,
    character_id,
    character_name,
    ship_type_name,
    killmail_id,
    status,
    final_payout_amount,
    processed_by,
    processed_at
FROM
    srp_requests
WHERE
    status IN (@approved, @paid)
    AND processed_at >= @fromDate
    AND processed_at < @toDate
ORDER BY processed_at DESC;
`

	var rows []*SRPPayoutRow
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"approved": string(models.SRPStatusApproved),
		"paid":     string(models.SRPStatusPaid),
		"fromDate": from.UTC(),
		"toDate":   to.UTC(),
	}).Scan(&rows).Error; err != nil {
		return nil, err
	}

	summary := &SRPPayoutSummary{
		From:        from.UTC(),
		To:          to.UTC(),
		Rows:        rows,
		TotalPayout: decimal.Zero,
	}
	for _, row := range rows {
		summary.RequestCount++
		summary.TotalPayout = summary.TotalPayout.Add(row.FinalPayoutAmount)
	}
	return summary, nil
}

func (r SRPPayoutRow) GetCellValues() []interface{} {
	processedAt := ""
	if r.ProcessedAt != nil {
		processedAt = r.ProcessedAt.UTC().Format(time.RFC3339)
	}
	return []interface{}{
		r.RequestId,
		r.CharacterName,
		r.ShipTypeName,
		r.KillmailId,
		r.Status,
		r.FinalPayoutAmount.StringFixed(2),
		r.ProcessedBy,
		processedAt,
	}
}
