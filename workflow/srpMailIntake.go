package workflow

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/models"
	"github.com/bombersbar/backend/utils"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var intakeTracer = otel.Tracer("bombersbar-srp-intake")

// ErrIntakeAlreadyRunning is returned when another intake run holds the
// lock. Unlike posting, intake is not serialized anywhere downstream, so a
// run that cannot take the lock skips instead of proceeding.
var ErrIntakeAlreadyRunning = errors.New("srp mail intake already running")

const intakeLockKey = "lock:srp-mail-intake"

// In-game kill links render as killReport:<id>:<hash>; pilots also paste
// zKillboard URLs. Either is accepted.
var (
	killReportRe = regexp.MustCompile(`killReport:(\d+):([0-9a-f]{40})`)
	zkillRe      = regexp.MustCompile(`zkillboard\.com/kill/(\d+)`)
	srpSubjectRe = regexp.MustCompile(`(?i)\bsrp\b`)
)

// IsSrpSubject reports whether a mail subject looks like a loss claim.
func IsSrpSubject(subject string) bool {
	return srpSubjectRe.MatchString(subject)
}

// ExtractKillmailRef pulls the killmail reference out of a mail body.
// A killReport link carries the hash; a zKillboard link alone does not, so
// hash comes back empty and the caller resolves it elsewhere or rejects.
func ExtractKillmailRef(body string) (killmailId int, hash string, ok bool) {
	if m := killReportRe.FindStringSubmatch(body); m != nil {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, "", false
		}
		return id, m[2], true
	}
	if m := zkillRe.FindStringSubmatch(body); m != nil {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, "", false
		}
		return id, "", true
	}
	return 0, "", false
}

// ExtractPayoutHint finds an optional "payout: 150m" style line in the
// mail body. Absent or unparseable hints are ignored.
func ExtractPayoutHint(body string) (string, bool) {
	for _, line := range strings.Split(body, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		if rest, found := strings.CutPrefix(lower, "payout:"); found {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

type MailIntakeSummary struct {
	Scanned int      `json:"scanned"`
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// RunSrpMailIntake scans the SRP mailbox for unseen claim mails, resolves
// each killmail through ESI, creates pending requests and queues
// acknowledgement mails. One run at a time, enforced via redislock.
func RunSrpMailIntake(ctx context.Context, logger *logrus.Logger) (*MailIntakeSummary, error) {
	var span trace.Span
	ctx, span = intakeTracer.Start(ctx, "RunSrpMailIntake")
	defer span.End()

	redisLock := config.GetRedisLock()
	if redisLock == nil {
		return nil, errors.New("redis lock not ready")
	}
	lock, err := redisLock.Obtain(ctx, intakeLockKey, 2*time.Minute, nil)
	if err == redislock.ErrNotObtained {
		config.SrpMailIntakeRuns.WithLabelValues("skipped").Inc()
		return nil, ErrIntakeAlreadyRunning
	} else if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := lock.Release(ctx); releaseErr != nil {
			logger.WithFields(logrus.Fields{
				"field": "RunSrpMailIntake",
			}).Warn("failed to release intake lock: " + releaseErr.Error())
		}
	}()

	headers, err := utils.GetEsiMailHeaders(ctx, 0)
	if err != nil {
		config.SrpMailIntakeRuns.WithLabelValues("failed").Inc()
		return nil, err
	}

	summary := &MailIntakeSummary{Errors: []string{}}
	for _, header := range headers {
		if !IsSrpSubject(header.Subject) {
			continue
		}
		summary.Scanned++

		if err := processOneSrpMail(ctx, header, summary); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("mail %d: %v", header.MailId, err))
			config.LogError(logger, "srpMailIntake.go", "RunSrpMailIntake", "processOneSrpMail", header.MailId, err)
		}
	}

	config.SrpMailIntakeRuns.WithLabelValues("completed").Inc()
	return summary, nil
}

func processOneSrpMail(ctx context.Context, header utils.EsiMailHeader, summary *MailIntakeSummary) error {
	seen, err := models.IsMailProcessed(ctx, header.MailId)
	if err != nil {
		return err
	}
	if seen {
		summary.Skipped++
		return nil
	}

	mail, err := utils.GetEsiMailBody(ctx, header.MailId)
	if err != nil {
		return err
	}

	killmailId, hash, ok := ExtractKillmailRef(mail.Body)
	if !ok || hash == "" {
		// No usable kill link: remember the mail so it is not refetched,
		// but do not create a request.
		summary.Skipped++
		return models.MarkMailProcessed(ctx, header.MailId, "no-killmail-link", nil)
	}

	km, err := utils.GetEsiKillmail(ctx, killmailId, hash)
	if err != nil {
		return err
	}

	mailId := header.MailId
	input := models.NewSRPRequest{
		KillmailId:   km.KillmailId,
		KillmailHash: hash,
		CharacterId:  km.Victim.CharacterId,
		ShipTypeId:   km.Victim.ShipTypeId,
		SourceMailId: &mailId,
		LossTime:     &km.KillmailTime,
	}
	if name, err := utils.GetEsiCharacterName(ctx, km.Victim.CharacterId); err == nil {
		input.CharacterName = name
	}
	if name, err := utils.GetEsiTypeName(ctx, km.Victim.ShipTypeId); err == nil {
		input.ShipTypeName = name
	}
	if hint, found := ExtractPayoutHint(mail.Body); found {
		if amount, err := utils.ParseISKAmount(hint); err == nil {
			input.BasePayoutAmount = amount
		}
	}
	if err := utils.ValidateStruct(&input); err != nil {
		summary.Skipped++
		return models.MarkMailProcessed(ctx, header.MailId, "invalid-claim", nil)
	}

	request, err := models.CreateSRPRequest(ctx, &input)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateSRPRequest) {
			summary.Skipped++
			return models.MarkMailProcessed(ctx, header.MailId, "duplicate", nil)
		}
		return err
	}
	summary.Created++

	if config.SrpAutoAckEnabled() {
		subject := fmt.Sprintf("SRP received: %s loss", request.ShipTypeName)
		body := fmt.Sprintf(
			"Your SRP request for killmail %d has been received and is pending review.\n\nRequest id: %d\n\no7\nBombers Bar SRP",
			request.KillmailId, request.ID,
		)
		if _, err := models.QueueMail(ctx, request.CharacterId, subject, body); err != nil {
			// Ack failure must not fail the intake of the claim itself.
			config.LogError(config.GetLogger(), "srpMailIntake.go", "processOneSrpMail", "QueueMail ack", request.ID, err)
		}
	}

	return models.MarkMailProcessed(ctx, header.MailId, "created", &request.ID)
}
