// internal/store/formtypes.go
package store

import (
	"context"
	"database/sql"

	commonerrors "docflow-workers/internal/common/errors"
	"docflow-workers/internal/models"

	"github.com/lib/pq"
)

// FormTypeStore reads form type definitions.
type FormTypeStore struct {
	db *sql.DB
}

func NewFormTypeStore(db *sql.DB) *FormTypeStore {
	return &FormTypeStore{db: db}
}

// GetFormType fetches one form type by id. RequiredFields is derived from the
// stored field identifier array so the definition and the count cannot drift.
func (s *FormTypeStore) GetFormType(ctx context.Context, id string) (*models.FormType, error) {
	var (
		ft     models.FormType
		fields []string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, label, required_fields FROM form_types WHERE id = $1`, id).
		Scan(&ft.ID, &ft.Label, pq.Array(&fields))
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewFormTypeNotFoundError(id)
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("get_form_type", err)
	}
	ft.RequiredFields = len(fields)
	return &ft, nil
}

// ListFormTypes returns every defined form type.
func (s *FormTypeStore) ListFormTypes(ctx context.Context) ([]models.FormType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, label, required_fields FROM form_types ORDER BY id`)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("list_form_types", err)
	}
	defer rows.Close()

	var formTypes []models.FormType
	for rows.Next() {
		var (
			ft     models.FormType
			fields []string
		)
		if err := rows.Scan(&ft.ID, &ft.Label, pq.Array(&fields)); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("list_form_types", err)
		}
		ft.RequiredFields = len(fields)
		formTypes = append(formTypes, ft)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("list_form_types", err)
	}
	return formTypes, nil
}
