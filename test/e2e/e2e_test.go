// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docflow-workers/internal/common/config"
	"docflow-workers/internal/common/database"
	"docflow-workers/internal/common/logger"
	"docflow-workers/internal/models"
	"docflow-workers/internal/reminder"
	"docflow-workers/internal/store"
	dispatchbatch "docflow-workers/internal/workers/reminders/dispatch-batch"
)

var zapLog *zap.Logger

// staticLinks stands in for the external link-provisioning service, which is
// not part of the local docker-compose stack.
type staticLinks struct{}

func (staticLinks) CreateAuthorizedShortLink(_ context.Context, phone, formType string) (string, error) {
	return "https://links.local/f/" + formType + "/" + phone, nil
}

func TestMain(m *testing.M) {
	zapLog, _ = zap.NewProduction()
	code := m.Run()
	os.Exit(code)
}

func skipUnlessE2E(t *testing.T) {
	if os.Getenv("E2E_TESTS") != "true" {
		t.Skip("set E2E_TESTS=true to run against the local docker-compose stack")
	}
}

func TestReminderE2E(t *testing.T) {
	skipUnlessE2E(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	t.Log("🚀 Starting reminder E2E test with real services...")

	// 🔧 FORCE LOCALHOST FOR E2E TESTS
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	cfg.Forms.DefaultFormType = "kyc-basic"
	cfg.Reminders.FirstThresholdHours = 48
	cfg.Reminders.SecondThresholdHours = 72
	cfg.Reminders.WeeklyThresholdHours = 168
	cfg.Reminders.MaxInactivityDays = 30

	// --- PostgreSQL ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "❌ PostgreSQL connection failed")
	require.NoError(t, pg.Ping(ctx), "❌ PostgreSQL ping failed")
	defer pg.Close()
	t.Log("✅ PostgreSQL connected")

	// --- Redis ---
	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "❌ Redis client creation failed")
	require.NoError(t, rdb.Ping(ctx), "❌ Redis ping failed")
	defer rdb.Close()
	t.Log("✅ Redis connected")

	// --- Elasticsearch ---
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err, "❌ Elasticsearch client creation failed")
	require.NoError(t, es.Ping(), "❌ Elasticsearch ping failed")
	t.Log("✅ Elasticsearch connected")

	db := pg.GetDB()
	createTables(t, db)
	seedData(t, db)
	defer cleanup(t, db, rdb)

	log := logger.NewTestLogger(t)
	thresholds := reminder.ThresholdsFromConfig(cfg.Reminders)

	submissions := store.NewSubmissionStore(db)
	customers := store.NewCustomerStore(db)
	formTypes := store.NewFormTypeStore(db)
	reminderLogs := store.NewReminderLogStore(db)
	templateStore := store.NewTemplateStore(db)
	mirror := store.NewElasticAuditMirror(es, "e2e-reminder-audit")

	templates := reminder.LoadTemplates(ctx, templateStore, log)
	scanner := reminder.NewScanner(submissions, customers, formTypes, thresholds, cfg.Forms, log)
	sender := reminder.NewSender(submissions, reminderLogs, mirror, staticLinks{}, reminder.NewDryRunMessenger(log), templates, thresholds, log)

	// ==========================
	// 1. Scan picks up due work
	// ==========================
	t.Run("ScanFindsDueCandidates", func(t *testing.T) {
		cands, err := scanner.Scan(ctx)
		require.NoError(t, err)

		byPhone := map[string]reminder.Candidate{}
		for _, c := range cands {
			byPhone[c.Customer.Phone] = c
		}

		stale, ok := byPhone["+15557001"]
		require.True(t, ok, "80h-stale submission must be due")
		assert.Equal(t, reminder.LevelSecond, stale.Level)
		assert.False(t, stale.Synthetic)

		fresh, ok := byPhone["+15557002"]
		require.True(t, ok, "uncontacted qualified customer must get a first message")
		assert.Equal(t, reminder.LevelFirstMessage, fresh.Level)
		assert.True(t, fresh.Synthetic)
		assert.Equal(t, "kyc-basic", fresh.Submission.FormType)
	})

	// ==========================
	// 2. Single send advances state transactionally
	// ==========================
	t.Run("SendAdvancesSubmissionAndWritesAudit", func(t *testing.T) {
		cands, err := scanner.Scan(ctx)
		require.NoError(t, err)

		var stale *reminder.Candidate
		for i := range cands {
			if cands[i].Customer.Phone == "+15557001" {
				stale = &cands[i]
				break
			}
		}
		require.NotNil(t, stale)

		require.NoError(t, sender.SendOne(ctx, *stale))

		sub, err := submissions.GetSubmission(ctx, "+15557001", "kyc-basic")
		require.NoError(t, err)
		assert.Equal(t, 2, sub.ReminderCount)
		require.NotNil(t, sub.LastReminderSentAt)

		logs, err := reminderLogs.ListByPhone(ctx, "+15557001")
		require.NoError(t, err)
		require.NotEmpty(t, logs)
		assert.True(t, logs[0].Success)
		assert.Equal(t, string(reminder.LevelSecond), logs[0].Level)

		// Now that the reminder just went out, the same candidate is stale.
		err = sender.SendOne(ctx, *stale)
		assert.ErrorIs(t, err, reminder.ErrNotDue)
	})

	// ==========================
	// 3. Batch dispatch end to end: lease, pacing, progress, persistence
	// ==========================
	t.Run("BatchDispatchDeliversFirstContact", func(t *testing.T) {
		fast := cfg.Reminders
		fast.MinDelay = time.Millisecond
		fast.MaxDelay = 2 * time.Millisecond
		fast.BatchSize = 20
		fast.Cooldown = 5 * time.Millisecond
		fast.SendOverhead = 0

		dispatcher := reminder.NewDispatcher(sender.SendOne, fast, log)
		lease := reminder.NewRunLease(rdb.Client, 30*time.Second)

		handler := dispatchbatch.NewHandler(
			dispatchbatch.LoadConfig(),
			lease,
			scanner,
			dispatcher,
			customers,
			formTypes,
			rdb,
			log,
		)

		input := &dispatchbatch.Input{Recipients: []reminder.BatchRecipient{
			{Phone: "+15557002", FormType: "kyc-basic", Level: "first_message"},
		}}

		output, err := handler.Execute(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, dispatchbatch.OutcomeSuccess, output.Outcome)
		assert.Equal(t, 1, output.TotalSent)
		assert.Zero(t, output.TotalFailed)

		// First contact materialized a submission with the provisioned link.
		sub, err := submissions.GetSubmission(ctx, "+15557002", "kyc-basic")
		require.NoError(t, err)
		require.NotNil(t, sub.FirstSentAt)
		assert.Contains(t, sub.FormLink, "https://links.local/f/kyc-basic")

		// Progress snapshot landed in the TTL'd key.
		raw, err := rdb.Get(ctx, dispatchbatch.LoadConfig().ProgressKey)
		require.NoError(t, err)
		var progress models.BatchProgress
		require.NoError(t, json.Unmarshal([]byte(raw), &progress))
		assert.Equal(t, output.RunID, progress.RunID)

		// Lease released: a fresh acquire succeeds immediately.
		token, err := lease.Acquire(ctx)
		require.NoError(t, err)
		require.NoError(t, lease.Release(ctx, token))
	})

	t.Log("✅ Reminder E2E flow complete")
}

// ==========================
// Database Setup + Test Data
// ==========================

func createTables(t *testing.T, db *sql.DB) {
	t.Log("🔧 Creating database tables...")

	queries := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			phone VARCHAR(32) PRIMARY KEY,
			first_name VARCHAR(255),
			last_name VARCHAR(255),
			email VARCHAR(255),
			status VARCHAR(50) NOT NULL,
			criterion VARCHAR(100),
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS form_types (
			id VARCHAR(100) PRIMARY KEY,
			label VARCHAR(255),
			required_fields TEXT[] NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS submissions (
			phone VARCHAR(32) NOT NULL,
			form_type VARCHAR(100) NOT NULL,
			submitted_fields TEXT[] NOT NULL DEFAULT '{}',
			first_sent_at TIMESTAMPTZ,
			last_interaction_at TIMESTAMPTZ,
			last_reminder_sent_at TIMESTAMPTZ,
			reminder_count INTEGER NOT NULL DEFAULT 0,
			reminder_paused BOOLEAN NOT NULL DEFAULT false,
			form_link TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (phone, form_type)
		)`,
		`CREATE TABLE IF NOT EXISTS reminder_logs (
			id VARCHAR(64) PRIMARY KEY,
			phone VARCHAR(32) NOT NULL,
			form_type VARCHAR(100) NOT NULL,
			level VARCHAR(50) NOT NULL,
			rendered_content TEXT,
			success BOOLEAN NOT NULL,
			gateway_error TEXT,
			provider_message_id VARCHAR(255),
			sent_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reminder_templates (
			level VARCHAR(50) PRIMARY KEY,
			content TEXT NOT NULL
		)`,
	}

	for _, q := range queries {
		_, err := db.Exec(q)
		require.NoError(t, err)
	}
}

func seedData(t *testing.T, db *sql.DB) {
	t.Log("🔧 Inserting test data...")

	cleanupRows(t, db)

	_, err := db.Exec(`INSERT INTO form_types (id, label, required_fields)
		VALUES ('kyc-basic', 'Basic KYC', '{full_name,id_card,address}')
		ON CONFLICT (id) DO NOTHING`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO customers (phone, first_name, last_name, email, status, criterion)
		VALUES
			('+15557001', 'Stale', 'Submitter', 'stale@example.com', 'qualified', NULL),
			('+15557002', 'Never', 'Contacted', 'fresh@example.com', 'qualified', NULL)`)
	require.NoError(t, err)

	// 80h since the first reminder: past the 72h second-reminder gate.
	_, err = db.Exec(`INSERT INTO submissions
		(phone, form_type, submitted_fields, first_sent_at, last_reminder_sent_at, reminder_count, form_link)
		VALUES ('+15557001', 'kyc-basic', '{full_name}', NOW() - INTERVAL '80 hours', NOW() - INTERVAL '80 hours', 1,
			'https://links.local/f/kyc-basic/+15557001')`)
	require.NoError(t, err)
}

func cleanupRows(t *testing.T, db *sql.DB) {
	for _, q := range []string{
		`DELETE FROM reminder_logs WHERE phone IN ('+15557001', '+15557002')`,
		`DELETE FROM submissions WHERE phone IN ('+15557001', '+15557002')`,
		`DELETE FROM customers WHERE phone IN ('+15557001', '+15557002')`,
	} {
		_, err := db.Exec(q)
		require.NoError(t, err)
	}
}

func cleanup(t *testing.T, db *sql.DB, rdb *database.RedisClient) {
	cleanupRows(t, db)
	_ = rdb.Client.Del(context.Background(), dispatchbatch.LoadConfig().ProgressKey).Err()
	_ = zapLog.Sync()
}
