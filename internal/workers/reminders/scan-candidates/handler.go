// internal/workers/reminders/scan-candidates/handler.go
package scancandidates

import (
	"context"
	"time"

	"docflow-workers/internal/common/logger"
	"docflow-workers/internal/reminder"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "scan-reminder-candidates"
)

// CandidateScanner is satisfied by *reminder.Scanner.
type CandidateScanner interface {
	Scan(ctx context.Context) ([]reminder.Candidate, error)
}

type Handler struct {
	config  *Config
	scanner CandidateScanner
	logger  logger.Logger
}

func NewHandler(config *Config, scanner CandidateScanner, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		scanner: scanner,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx)
	if err != nil {
		h.failJob(client, job, "SCAN_FAILED", err.Error())
		return err
	}

	h.completeJob(client, job, output)
	return nil
}

func (h *Handler) execute(ctx context.Context) (*Output, error) {
	cands, err := h.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	vars := make([]CandidateVar, 0, len(cands))
	for _, c := range cands {
		vars = append(vars, CandidateVar{
			Phone:     c.Customer.Phone,
			FormType:  c.FormType.ID,
			Level:     string(c.Level),
			Synthetic: c.Synthetic,
		})
	}

	return &Output{
		Candidates: vars,
		Count:      len(vars),
		ScannedAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

// Execute exposes the scan for direct invocation in tests.
func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	return h.execute(ctx)
}
