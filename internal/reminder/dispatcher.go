// internal/reminder/dispatcher.go
package reminder

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"docflow-workers/internal/common/config"
	"docflow-workers/internal/common/logger"
	"docflow-workers/internal/common/metrics"
	"docflow-workers/internal/models"

	"github.com/google/uuid"
)

// SendFunc executes one reminder. ErrNotDue skips the recipient without
// counting it as sent or failed.
type SendFunc func(ctx context.Context, cand Candidate) error

// ProgressFunc receives immutable progress snapshots during a run. May be nil.
type ProgressFunc func(progress models.BatchProgress)

// Dispatcher paces a batch of reminders through the messaging channel:
// strictly sequential sends, a uniform random delay between consecutive
// sends, and a long cooldown after every full batch. The pacing exists to
// stay under the channel provider's rate limits, so there is deliberately no
// concurrency here.
type Dispatcher struct {
	send   SendFunc
	cfg    config.RemindersConfig
	logger logger.Logger

	// Injected for tests; production uses the defaults set by NewDispatcher.
	now       func() time.Time
	randDelay func() time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(send SendFunc, cfg config.RemindersConfig, log logger.Logger) *Dispatcher {
	d := &Dispatcher{
		send:   send,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
		sleep:  sleepContext,
	}
	d.randDelay = func() time.Duration {
		spread := cfg.MaxDelay - cfg.MinDelay
		if spread <= 0 {
			return cfg.MinDelay
		}
		return cfg.MinDelay + time.Duration(rand.Int63n(int64(spread)+1))
	}
	return d
}

// Run dispatches the candidates in order. Invalid input rejects the whole
// batch before anything is sent. Per-recipient failures are collected and the
// run continues; cancellation stops between sends and returns the partial
// result together with the context error.
func (d *Dispatcher) Run(ctx context.Context, cands []Candidate, onProgress ProgressFunc) (models.BatchResult, error) {
	runID := uuid.New().String()

	if errs := validateCandidates(cands); len(errs) > 0 {
		metrics.BatchRuns.WithLabelValues("rejected").Inc()
		return models.BatchResult{RunID: runID}, newValidationError(errs)
	}

	metrics.BatchInFlight.Set(1)
	defer metrics.BatchInFlight.Set(0)

	start := d.now()
	d.logger.Info("batch run started", map[string]interface{}{
		"runId":      runID,
		"recipients": len(cands),
		"estimated":  EstimateDuration(len(cands), d.cfg).String(),
	})

	var (
		sent          int
		recipientErrs []models.RecipientError
	)

	finish := func(outcome string, runErr error) (models.BatchResult, error) {
		duration := d.now().Sub(start)
		result := models.BatchResult{
			RunID:       runID,
			TotalSent:   sent,
			TotalFailed: len(recipientErrs),
			Duration:    duration,
			Errors:      recipientErrs,
		}
		metrics.BatchRuns.WithLabelValues(outcome).Inc()
		metrics.BatchDuration.Observe(duration.Seconds())
		d.logger.Info("batch run finished", map[string]interface{}{
			"runId":    runID,
			"outcome":  outcome,
			"sent":     sent,
			"failed":   len(recipientErrs),
			"duration": duration.String(),
		})
		return result, runErr
	}

	for i, cand := range cands {
		if err := ctx.Err(); err != nil {
			return finish("canceled", err)
		}

		d.emit(onProgress, models.BatchProgress{
			RunID:            runID,
			Phase:            models.PhaseSending,
			Total:            len(cands),
			Sent:             sent,
			Failed:           len(recipientErrs),
			CurrentRecipient: cand.Customer.Phone,
			ETA:              EstimateDuration(len(cands)-i, d.cfg),
		})

		err := d.send(ctx, cand)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, ErrNotDue):
			d.logger.Debug("recipient skipped", map[string]interface{}{
				"runId": runID,
				"phone": cand.Customer.Phone,
			})
		default:
			recipientErrs = append(recipientErrs, models.RecipientError{
				Index: i,
				Phone: cand.Customer.Phone,
				Error: err.Error(),
			})
			d.logger.Warn("recipient send failed, continuing", map[string]interface{}{
				"runId": runID,
				"phone": cand.Customer.Phone,
				"error": err.Error(),
			})
		}

		if i == len(cands)-1 {
			break
		}

		pause := d.randDelay()
		if d.cfg.BatchSize > 0 && (i+1)%d.cfg.BatchSize == 0 {
			pause += d.cfg.Cooldown
			d.logger.Info("batch cooldown", map[string]interface{}{
				"runId":     runID,
				"processed": i + 1,
				"cooldown":  d.cfg.Cooldown.String(),
			})
		}

		d.emit(onProgress, models.BatchProgress{
			RunID:  runID,
			Phase:  models.PhaseSleeping,
			Total:  len(cands),
			Sent:   sent,
			Failed: len(recipientErrs),
			ETA:    EstimateDuration(len(cands)-i-1, d.cfg) + pause,
		})

		if err := d.sleep(ctx, pause); err != nil {
			return finish("canceled", err)
		}
	}

	if len(recipientErrs) > 0 {
		return finish("partial", nil)
	}
	return finish("success", nil)
}

func (d *Dispatcher) emit(onProgress ProgressFunc, p models.BatchProgress) {
	if onProgress != nil {
		onProgress(p)
	}
}

// sleepContext is an interruptible time.Sleep.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
