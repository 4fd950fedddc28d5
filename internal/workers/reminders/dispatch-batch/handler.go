// internal/workers/reminders/dispatch-batch/handler.go
package dispatchbatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "docflow-workers/internal/common/errors"
	"docflow-workers/internal/common/logger"
	"docflow-workers/internal/models"
	"docflow-workers/internal/reminder"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "dispatch-reminder-batch"
)

// BatchRunner is satisfied by *reminder.Dispatcher.
type BatchRunner interface {
	Run(ctx context.Context, cands []reminder.Candidate, onProgress reminder.ProgressFunc) (models.BatchResult, error)
}

// Lease is satisfied by *reminder.RunLease.
type Lease interface {
	Acquire(ctx context.Context) (string, error)
	Release(ctx context.Context, token string) error
}

type CandidateScanner interface {
	Scan(ctx context.Context) ([]reminder.Candidate, error)
}

type CustomerGetter interface {
	GetCustomer(ctx context.Context, phone string) (*models.Customer, error)
}

type FormTypeGetter interface {
	GetFormType(ctx context.Context, id string) (*models.FormType, error)
}

// ProgressPublisher is satisfied by the redis client wrapper. Progress
// snapshots land in a TTL'd key so operators can watch a run without asking
// the broker.
type ProgressPublisher interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type Handler struct {
	config       *Config
	lease        Lease
	scanner      CandidateScanner
	runner       BatchRunner
	customers    CustomerGetter
	formTypes    FormTypeGetter
	progress     ProgressPublisher
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
}

func NewHandler(
	config *Config,
	lease Lease,
	scanner CandidateScanner,
	runner BatchRunner,
	customers CustomerGetter,
	formTypes FormTypeGetter,
	progress ProgressPublisher,
	log logger.Logger,
) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		lease:        lease,
		scanner:      scanner,
		runner:       runner,
		customers:    customers,
		formTypes:    formTypes,
		progress:     progress,
		logger:       scoped,
		errorHandler: commonerrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job,
			commonerrors.NewBatchValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	h.completeJob(client, job, output)
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if errs := reminder.ValidateRecipients(input.Recipients); len(errs) > 0 {
		stdErr := commonerrors.NewBatchValidationFailedError("one or more recipients are invalid")
		stdErr.Metadata = map[string]interface{}{"validationErrors": errs}
		return nil, stdErr
	}

	token, err := h.lease.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := h.lease.Release(context.Background(), token); err != nil {
			h.logger.Warn("failed to release dispatch lease", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	cands, err := h.resolveCandidates(ctx, input.Recipients)
	if err != nil {
		return nil, err
	}

	result, err := h.runner.Run(ctx, cands, h.publishProgress)
	if err != nil {
		return nil, err
	}

	outcome := OutcomeSuccess
	if result.TotalFailed > 0 {
		outcome = OutcomePartial
	}

	return &Output{
		RunID:           result.RunID,
		Outcome:         outcome,
		TotalSent:       result.TotalSent,
		TotalFailed:     result.TotalFailed,
		DurationSeconds: result.Duration.Seconds(),
		Errors:          result.Errors,
	}, nil
}

// resolveCandidates turns explicit recipients into candidates, or falls back
// to a fresh scan when the batch names none.
func (h *Handler) resolveCandidates(ctx context.Context, recipients []reminder.BatchRecipient) ([]reminder.Candidate, error) {
	if len(recipients) == 0 {
		return h.scanner.Scan(ctx)
	}

	cands := make([]reminder.Candidate, 0, len(recipients))
	for _, r := range recipients {
		customer, err := h.customers.GetCustomer(ctx, r.Phone)
		if err != nil {
			return nil, err
		}
		formType, err := h.formTypes.GetFormType(ctx, r.FormType)
		if err != nil {
			return nil, err
		}
		level, err := reminder.ParseLevel(r.Level)
		if err != nil {
			return nil, commonerrors.NewBatchValidationFailedError(err.Error())
		}

		cands = append(cands, reminder.Candidate{
			Customer:   *customer,
			Submission: models.Submission{Phone: r.Phone, FormType: r.FormType},
			FormType:   *formType,
			Level:      level,
			Synthetic:  level == reminder.LevelFirstMessage,
		})
	}
	return cands, nil
}

func (h *Handler) publishProgress(p models.BatchProgress) {
	if h.progress == nil {
		return
	}
	body, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := h.progress.Set(context.Background(), h.config.ProgressKey, string(body), h.config.ProgressTTL); err != nil {
		h.logger.Debug("progress publish failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
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

// Execute exposes the dispatch for direct invocation in tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
