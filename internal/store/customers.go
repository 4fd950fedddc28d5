// internal/store/customers.go
package store

import (
	"context"
	"database/sql"

	commonerrors "docflow-workers/internal/common/errors"
	"docflow-workers/internal/models"
)

// CustomerStore reads and writes the customers table.
type CustomerStore struct {
	db *sql.DB
}

func NewCustomerStore(db *sql.DB) *CustomerStore {
	return &CustomerStore{db: db}
}

const customerColumns = `phone, first_name, last_name, email, status, criterion, created_at, updated_at`

func scanCustomer(row interface {
	Scan(dest ...interface{}) error
}) (*models.Customer, error) {
	var (
		c         models.Customer
		email     sql.NullString
		criterion sql.NullString
		updatedAt sql.NullTime
	)
	err := row.Scan(&c.Phone, &c.FirstName, &c.LastName, &email, &c.Status, &criterion, &c.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.Email = email.String
	c.Criterion = criterion.String
	if updatedAt.Valid {
		c.UpdatedAt = &updatedAt.Time
	}
	return &c, nil
}

// ListCustomers returns every customer in the pipeline.
func (s *CustomerStore) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY created_at, phone`)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("list_customers", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("list_customers", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("list_customers", err)
	}
	return customers, nil
}

// GetCustomer fetches one customer by phone handle.
func (s *CustomerStore) GetCustomer(ctx context.Context, phone string) (*models.Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE phone = $1`, phone)

	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewCustomerNotFoundError(phone)
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("get_customer", err)
	}
	return c, nil
}

// UpdateStatus moves a customer to a new pipeline stage.
func (s *CustomerStore) UpdateStatus(ctx context.Context, phone string, status models.PipelineStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE customers SET status = $2, updated_at = NOW() WHERE phone = $1`,
		phone, status)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError("update_customer_status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return commonerrors.NewCustomerNotFoundError(phone)
	}
	return nil
}

// EraseCustomer removes a customer together with their submissions and audit
// trail in one transaction. Used for data-removal requests; the search mirror
// is cleaned up separately by index retention.
func (s *CustomerStore) EraseCustomer(ctx context.Context, phone string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError("erase_customer", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reminder_logs WHERE phone = $1`, phone); err != nil {
		return commonerrors.NewQueryExecutionFailedError("erase_customer", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM submissions WHERE phone = $1`, phone); err != nil {
		return commonerrors.NewQueryExecutionFailedError("erase_customer", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE phone = $1`, phone)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError("erase_customer", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return commonerrors.NewCustomerNotFoundError(phone)
	}

	if err := tx.Commit(); err != nil {
		return commonerrors.NewQueryExecutionFailedError("erase_customer", err)
	}
	return nil
}
