// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"docflow-workers/internal/common/config"
	"docflow-workers/internal/common/database"
	"docflow-workers/internal/common/links"
	"docflow-workers/internal/common/logger"
	"docflow-workers/internal/common/observability"
	"docflow-workers/internal/reminder"
	"docflow-workers/internal/store"

	db "docflow-workers/internal/workers/reminders/dispatch-batch"
	sc "docflow-workers/internal/workers/reminders/scan-candidates"
	sr "docflow-workers/internal/workers/reminders/send-reminder"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init External Service Clients ---
	linksClient := links.NewClient(
		cfg.Links.BaseURL,
		cfg.Links.APIKey,
		time.Duration(cfg.Links.Timeout)*time.Millisecond,
	)

	messenger, err := reminder.NewMessengerFromConfig(ctx, cfg.Messaging, log)
	if err != nil {
		zapLog.Fatal("messaging gateway init failed", zap.Error(err))
	}
	zapLog.Info("All external service clients initialized",
		zap.String("messagingChannel", cfg.Messaging.Channel))

	// --- Stores & Reminder Engine ---
	customerStore := store.NewCustomerStore(pg.DB)
	submissionStore := store.NewSubmissionStore(pg.DB)
	formTypeStore := store.NewFormTypeStore(pg.DB)
	templateStore := store.NewTemplateStore(pg.DB)
	reminderLogStore := store.NewReminderLogStore(pg.DB)
	auditMirror := store.NewElasticAuditMirror(esClient, cfg.Database.Elasticsearch.AuditIndex)

	thresholds := reminder.ThresholdsFromConfig(cfg.Reminders)
	templates := reminder.LoadTemplates(ctx, templateStore, log)

	scanner := reminder.NewScanner(
		submissionStore, customerStore, formTypeStore,
		thresholds, cfg.Forms, log,
	)
	sender := reminder.NewSender(
		submissionStore, reminderLogStore, auditMirror,
		linksClient, messenger, templates, thresholds, log,
	)
	dispatcher := reminder.NewDispatcher(sender.SendOne, cfg.Reminders, log)
	lease := reminder.NewRunLease(redis.Client, cfg.Reminders.LeaseTTL)

	// --- Register Workers ---
	if cfg.Workers[sc.TaskType].Enabled {
		handler := sc.NewHandler(
			&sc.Config{
				Timeout: time.Duration(cfg.Workers[sc.TaskType].Timeout) * time.Millisecond,
			},
			scanner, log,
		)
		startWorker(zeebeClient, sc.TaskType, cfg.Workers[sc.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[sr.TaskType].Enabled {
		handler := sr.NewHandler(
			&sr.Config{
				Timeout: time.Duration(cfg.Workers[sr.TaskType].Timeout) * time.Millisecond,
			},
			sender, customerStore, formTypeStore, log,
		)
		startWorker(zeebeClient, sr.TaskType, cfg.Workers[sr.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[db.TaskType].Enabled {
		dbCfg := db.LoadConfig()
		if t := cfg.Workers[db.TaskType].Timeout; t > 0 {
			dbCfg.Timeout = time.Duration(t) * time.Millisecond
		}
		handler := db.NewHandler(
			dbCfg, lease, scanner, dispatcher,
			customerStore, formTypeStore, redis, log,
		)
		startWorker(zeebeClient, db.TaskType, cfg.Workers[db.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All reminder workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job) error, log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(func(jobClient worker.JobClient, job entities.Job) {
			if err := handlerFunc(jobClient, job); err != nil {
				log.Error("handler returned error",
					zap.String("taskType", taskType),
					zap.Int64("jobKey", job.Key),
					zap.Error(err),
				)
			}
		}).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
