// internal/reminder/scanner.go
package reminder

import (
	"context"
	"time"

	"docflow-workers/internal/common/config"
	"docflow-workers/internal/common/logger"
	"docflow-workers/internal/common/metrics"
	"docflow-workers/internal/models"
)

// SubmissionSource lists the tracked submissions the scanner walks.
type SubmissionSource interface {
	ListSubmissions(ctx context.Context) ([]models.Submission, error)
}

// CustomerSource resolves customers by phone handle.
type CustomerSource interface {
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	GetCustomer(ctx context.Context, phone string) (*models.Customer, error)
}

// FormTypeSource resolves form type definitions.
type FormTypeSource interface {
	GetFormType(ctx context.Context, id string) (*models.FormType, error)
}

// Candidate is one due reminder found by a scan. Synthetic marks candidates
// materialized for customers with no submission yet; those get a first_message
// and a freshly provisioned form link instead of an escalation.
type Candidate struct {
	Customer   models.Customer
	Submission models.Submission
	FormType   models.FormType
	Level      Level
	Synthetic  bool
}

// Scanner walks every submission, applies the escalation resolver, and
// additionally surfaces customers that were never contacted at all.
type Scanner struct {
	submissions SubmissionSource
	customers   CustomerSource
	formTypes   FormTypeSource
	thresholds  Thresholds
	forms       config.FormsConfig
	logger      logger.Logger
	now         func() time.Time
}

func NewScanner(
	submissions SubmissionSource,
	customers CustomerSource,
	formTypes FormTypeSource,
	thresholds Thresholds,
	forms config.FormsConfig,
	log logger.Logger,
) *Scanner {
	return &Scanner{
		submissions: submissions,
		customers:   customers,
		formTypes:   formTypes,
		thresholds:  thresholds,
		forms:       forms,
		logger:      log,
		now:         time.Now,
	}
}

// firstMessageStatuses are the pipeline stages at which a customer with no
// submission yet should receive the initial form link.
var firstMessageStatuses = map[models.PipelineStatus]bool{
	models.StatusQualified: true,
	models.StatusAgreement: true,
	models.StatusReady:     true,
}

// Scan returns every candidate due at the time of the call, submissions first
// in store order, then synthetic first-contact candidates. Rows with missing
// customers or unknown form types are skipped with a warning, never fatal:
// one bad row must not starve the rest of the batch.
func (s *Scanner) Scan(ctx context.Context) ([]Candidate, error) {
	now := s.now()

	subs, err := s.submissions.ListSubmissions(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.customers.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}

	byPhone := make(map[string]models.Customer, len(customers))
	for _, c := range customers {
		byPhone[c.Phone] = c
	}

	formTypeCache := make(map[string]*models.FormType)
	contacted := make(map[string]bool, len(subs))

	var candidates []Candidate
	for _, sub := range subs {
		contacted[sub.Phone] = true

		customer, ok := byPhone[sub.Phone]
		if !ok {
			s.logger.Warn("submission references unknown customer, skipping", map[string]interface{}{
				"phone":    sub.Phone,
				"formType": sub.FormType,
			})
			continue
		}

		ft, err := s.lookupFormType(ctx, formTypeCache, sub.FormType)
		if err != nil {
			s.logger.Warn("submission references unknown form type, skipping", map[string]interface{}{
				"phone":    sub.Phone,
				"formType": sub.FormType,
				"error":    err.Error(),
			})
			continue
		}

		level, due := Resolve(sub, ft.RequiredFields, now, s.thresholds)
		if !due {
			continue
		}

		candidates = append(candidates, Candidate{
			Customer:   customer,
			Submission: sub,
			FormType:   *ft,
			Level:      level,
		})
	}

	for _, c := range customers {
		if contacted[c.Phone] || !firstMessageStatuses[c.Status] {
			continue
		}

		formTypeID := models.CriterionFormTypes(s.forms.CriterionDefaults).
			DefaultFor(c.Criterion, s.forms.DefaultFormType)
		ft, err := s.lookupFormType(ctx, formTypeCache, formTypeID)
		if err != nil {
			s.logger.Warn("no default form type for first contact, skipping customer", map[string]interface{}{
				"phone":     c.Phone,
				"criterion": c.Criterion,
				"formType":  formTypeID,
			})
			continue
		}

		candidates = append(candidates, Candidate{
			Customer: c,
			Submission: models.Submission{
				Phone:    c.Phone,
				FormType: ft.ID,
			},
			FormType:  *ft,
			Level:     LevelFirstMessage,
			Synthetic: true,
		})
	}

	metrics.CandidatesScanned.Set(float64(len(candidates)))
	s.logger.Info("scan complete", map[string]interface{}{
		"submissions": len(subs),
		"customers":   len(customers),
		"candidates":  len(candidates),
	})
	return candidates, nil
}

func (s *Scanner) lookupFormType(ctx context.Context, cache map[string]*models.FormType, id string) (*models.FormType, error) {
	if ft, ok := cache[id]; ok {
		return ft, nil
	}
	ft, err := s.formTypes.GetFormType(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = ft
	return ft, nil
}
