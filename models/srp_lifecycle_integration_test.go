package models_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/models"
	"github.com/bombersbar/backend/utils"
	"github.com/bombersbar/backend/workflow"
	"github.com/shopspring/decimal"
)

func TestSRPAndFleetLifecycleGuards(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	pgName, pgPort := startPostgresContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(pgName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", pgPort)
	t.Setenv("DB_NAME", "bombersbar_test")
	t.Setenv("DB_SSLMODE", "disable")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatal("db not initialized")
	}

	ctx = utils.SetUsernameInContext(ctx, "testAdmin")

	// SRP lifecycle: create pending, approve with explicit payout, pay.
	request := &models.SRPRequest{
		KillmailId:       128000001,
		KillmailHash:     strings.Repeat("ab", 20),
		CharacterId:      90000001,
		CharacterName:    "Test Pilot",
		ShipTypeId:       12034,
		ShipTypeName:     "Hound",
		Status:           models.SRPStatusPending,
		BasePayoutAmount: decimal.NewFromInt(45_000_000),
	}
	if err := db.WithContext(ctx).Create(request).Error; err != nil {
		t.Fatalf("create srp request: %v", err)
	}

	payout := decimal.NewFromInt(50_000_000)
	approved, err := models.ApproveSRPRequest(ctx, request.ID, &payout)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != models.SRPStatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if approved.FinalPayoutAmount.Cmp(payout) != 0 {
		t.Fatalf("expected payout %s, got %s", payout, approved.FinalPayoutAmount)
	}
	if approved.ProcessedBy != "testAdmin" {
		t.Fatalf("expected actor testAdmin, got %q", approved.ProcessedBy)
	}

	// Approving twice must fail: the request is no longer pending.
	if _, err := models.ApproveSRPRequest(ctx, request.ID, nil); err == nil {
		t.Fatal("second approve should fail")
	}
	// Deny after approve must fail too.
	if _, err := models.DenySRPRequest(ctx, request.ID, "nope"); err == nil {
		t.Fatal("deny after approve should fail")
	}

	paid, err := models.MarkSRPRequestPaid(ctx, request.ID)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if paid.Status != models.SRPStatusPaid {
		t.Fatalf("expected paid, got %s", paid.Status)
	}

	// Duplicate claim for the same killmail+character is rejected.
	_, err = models.CreateSRPRequest(ctx, &models.NewSRPRequest{
		KillmailId:   request.KillmailId,
		KillmailHash: request.KillmailHash,
		CharacterId:  request.CharacterId,
	})
	if !errors.Is(err, models.ErrDuplicateSRPRequest) {
		t.Fatalf("expected ErrDuplicateSRPRequest, got %v", err)
	}

	// Audit trail records the decisions.
	audit, err := models.ListSRPAuditLog(ctx, request.ID)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(audit) < 2 {
		t.Fatalf("expected approve+pay audit entries, got %d", len(audit))
	}

	// Fleet cancel guard: cancelled is terminal.
	fleetType, err := models.CreateFleetType(ctx, &models.NewFleetType{Name: "Bomber Roam"})
	if err != nil {
		t.Fatalf("create fleet type: %v", err)
	}
	fc, err := models.CreateFleetCommander(ctx, &models.NewFleetCommander{
		MainCharacterId: 90000002,
		Name:            "Test FC",
		Rank:            "FC",
	})
	if err != nil {
		t.Fatalf("create fc: %v", err)
	}
	fleet, err := models.CreateFleet(ctx, &models.NewFleet{
		FleetTypeId:     fleetType.ID,
		FcId:            fc.ID,
		ScheduledAt:     time.Now().UTC().Add(time.Hour),
		DurationMinutes: 120,
	})
	if err != nil {
		t.Fatalf("create fleet: %v", err)
	}

	cancelled, err := models.CancelFleet(ctx, fleet.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.FleetStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if _, err := models.CancelFleet(ctx, fleet.ID); err == nil {
		t.Fatal("second cancel should fail")
	}

	// Fleet creation checks referenced rows before inserting anything:
	// a missing fleet type or non-active FC is a not-found, not a row.
	var fleetsBefore int64
	if err := db.Model(&models.Fleet{}).Count(&fleetsBefore).Error; err != nil {
		t.Fatalf("count fleets: %v", err)
	}
	_, err = models.CreateFleet(ctx, &models.NewFleet{
		FleetTypeId:     999999,
		FcId:            fc.ID,
		ScheduledAt:     time.Now().UTC().Add(time.Hour),
		DurationMinutes: 60,
	})
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("missing fleet type: expected ErrorRecordNotFound, got %v", err)
	}
	benched, err := models.CreateFleetCommander(ctx, &models.NewFleetCommander{
		MainCharacterId: 90000003,
		Name:            "Benched FC",
		Rank:            "FC",
	})
	if err != nil {
		t.Fatalf("create benched fc: %v", err)
	}
	if _, err := models.SetFleetCommanderStatus(ctx, benched.ID, "Inactive"); err != nil {
		t.Fatalf("bench fc: %v", err)
	}
	_, err = models.CreateFleet(ctx, &models.NewFleet{
		FleetTypeId:     fleetType.ID,
		FcId:            benched.ID,
		ScheduledAt:     time.Now().UTC().Add(time.Hour),
		DurationMinutes: 60,
	})
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("inactive fc: expected ErrorRecordNotFound, got %v", err)
	}
	var fleetsAfter int64
	if err := db.Model(&models.Fleet{}).Count(&fleetsAfter).Error; err != nil {
		t.Fatalf("count fleets: %v", err)
	}
	if fleetsAfter != fleetsBefore {
		t.Fatalf("bad references must not insert fleets: %d -> %d", fleetsBefore, fleetsAfter)
	}

	// A negative base amount is rejected on create, and a row that somehow
	// carries one cannot be approved by defaulting to it.
	_, err = models.CreateSRPRequest(ctx, &models.NewSRPRequest{
		KillmailId:       128000002,
		KillmailHash:     strings.Repeat("cd", 20),
		CharacterId:      90000001,
		BasePayoutAmount: decimal.NewFromInt(-45_000_000),
	})
	if err == nil {
		t.Fatal("negative base payout should be rejected on create")
	}
	tainted := &models.SRPRequest{
		KillmailId:       128000003,
		KillmailHash:     strings.Repeat("ef", 20),
		CharacterId:      90000001,
		Status:           models.SRPStatusPending,
		BasePayoutAmount: decimal.NewFromInt(-1_000_000_000),
	}
	if err := db.WithContext(ctx).Create(tainted).Error; err != nil {
		t.Fatalf("create tainted request: %v", err)
	}
	if _, err := models.ApproveSRPRequest(ctx, tainted.ID, nil); err == nil {
		t.Fatal("approve defaulting to a negative base payout should fail")
	}

	// Batch import fails per item without aborting the batch.
	esiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/killmails/128000777/"):
			fmt.Fprint(w, `{"killmail_id":128000777,"killmail_time":"2026-08-01T20:00:00Z","victim":{"character_id":90000010,"ship_type_id":12034}}`)
		case r.URL.Path == "/characters/90000010/":
			fmt.Fprint(w, `{"name":"Import Pilot"}`)
		case r.URL.Path == "/universe/types/12034/":
			fmt.Fprint(w, `{"name":"Hound"}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(esiSrv.Close)
	t.Setenv("ESI_BASE_URL", esiSrv.URL)
	t.Setenv("ESI_MAILBOX_CHARACTER_ID", "90000099")

	hash := strings.Repeat("12", 20)
	importSummary, err := models.ImportKills(ctx, []models.KillImportItem{
		{KillmailId: 128000777, KillmailHash: hash},
		{KillmailId: 128000778, KillmailHash: hash},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if importSummary.Imported != 1 {
		t.Fatalf("expected 1 imported, got %d", importSummary.Imported)
	}
	if len(importSummary.Errors) != 1 || importSummary.Errors[0].KillmailId != 128000778 {
		t.Fatalf("expected one error for 128000778, got %+v", importSummary.Errors)
	}
	importSummary, err = models.ImportKills(ctx, []models.KillImportItem{{KillmailId: 128000777, KillmailHash: hash}})
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if importSummary.Skipped != 1 || importSummary.Imported != 0 {
		t.Fatalf("re-import should skip the duplicate, got %+v", importSummary)
	}

	// A queued mail that exhausted its attempts goes DEAD on the next claim.
	poison := &models.MailMessage{
		RecipientCharacterId: 90000001,
		Subject:              "SRP request received",
		Body:                 "never leaves the queue",
		Status:               models.MailStatusFailed,
		Attempts:             10,
	}
	if err := db.WithContext(ctx).Create(poison).Error; err != nil {
		t.Fatalf("create poison mail: %v", err)
	}
	dispatcher := workflow.NewMailDispatcher(db, config.GetLogger())
	dispatcher.DispatchOnce(ctx)
	var dead models.MailMessage
	if err := db.WithContext(ctx).Take(&dead, poison.ID).Error; err != nil {
		t.Fatalf("reload poison mail: %v", err)
	}
	if dead.Status != models.MailStatusDead {
		t.Fatalf("expected DEAD, got %s", dead.Status)
	}
	if dead.LastError == nil || *dead.LastError == "" {
		t.Fatal("DEAD mail should record why")
	}
	if dead.SentAt != nil {
		t.Fatal("DEAD mail must not be sent")
	}

	// A malformed stored hash rejects every password instead of matching.
	active := true
	broken := &models.User{
		Username: "brokenHash",
		Name:     "Broken Hash",
		Password: "not-a-bcrypt-hash",
		IsActive: &active,
	}
	if err := db.WithContext(ctx).Create(broken).Error; err != nil {
		t.Fatalf("create broken user: %v", err)
	}
	if _, err := models.Login(ctx, "brokenHash", "anything"); err == nil {
		t.Fatal("login against a malformed hash should fail")
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("bombersbar-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startPostgresContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("bombersbar-test-pg-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "POSTGRES_PASSWORD=testpw",
		"-e", "POSTGRES_DB=bombersbar_test",
		"-p", "127.0.0.1:0:5432",
		"postgres:16-alpine",
	)
	if err != nil {
		t.Fatalf("start postgres container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "5432/tcp")
	if err != nil {
		t.Fatalf("postgres docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "pg_isready", "-U", "postgres")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("postgres did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
