// internal/workers/reminders/send-reminder/handler.go
package sendreminder

import (
	"context"
	"encoding/json"
	"errors"
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
	TaskType = "send-reminder"
)

// ReminderSender is satisfied by *reminder.Sender.
type ReminderSender interface {
	SendOne(ctx context.Context, cand reminder.Candidate) error
}

type CustomerGetter interface {
	GetCustomer(ctx context.Context, phone string) (*models.Customer, error)
}

type FormTypeGetter interface {
	GetFormType(ctx context.Context, id string) (*models.FormType, error)
}

type Handler struct {
	config       *Config
	sender       ReminderSender
	customers    CustomerGetter
	formTypes    FormTypeGetter
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, sender ReminderSender, customers CustomerGetter, formTypes FormTypeGetter, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sender:       sender,
		customers:    customers,
		formTypes:    formTypes,
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
	level, err := reminder.ParseLevel(input.Level)
	if err != nil {
		return nil, commonerrors.NewBatchValidationFailedError(err.Error())
	}

	customer, err := h.customers.GetCustomer(ctx, input.Phone)
	if err != nil {
		return nil, err
	}
	formType, err := h.formTypes.GetFormType(ctx, input.FormType)
	if err != nil {
		return nil, err
	}

	cand := reminder.Candidate{
		Customer:   *customer,
		Submission: models.Submission{Phone: input.Phone, FormType: input.FormType},
		FormType:   *formType,
		Level:      level,
		Synthetic:  level == reminder.LevelFirstMessage,
	}

	sentAt := time.Now().UTC().Format(time.RFC3339)
	if err := h.sender.SendOne(ctx, cand); err != nil {
		if errors.Is(err, reminder.ErrNotDue) {
			return &Output{Status: StatusSkipped, Level: input.Level, SentAt: sentAt}, nil
		}
		return nil, err
	}

	return &Output{Status: StatusSent, Level: input.Level, SentAt: sentAt}, nil
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

// Execute exposes the send for direct invocation in tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
