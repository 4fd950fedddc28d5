// internal/store/templates.go
package store

import (
	"context"
	"database/sql"

	commonerrors "docflow-workers/internal/common/errors"
	"docflow-workers/internal/reminder"
)

// TemplateStore loads operator-managed reminder templates. It satisfies
// reminder.TemplateSource; levels with no stored row fall back to the
// built-in defaults upstream.
type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func (s *TemplateStore) LoadTemplates(ctx context.Context) (map[reminder.Level]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT level, content FROM reminder_templates`)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("load_templates", err)
	}
	defer rows.Close()

	templates := make(map[reminder.Level]string)
	for rows.Next() {
		var level, content string
		if err := rows.Scan(&level, &content); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("load_templates", err)
		}
		templates[reminder.Level(level)] = content
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("load_templates", err)
	}
	return templates, nil
}

// UpsertTemplate stores or replaces the template for one level.
func (s *TemplateStore) UpsertTemplate(ctx context.Context, level reminder.Level, content string) error {
	if _, err := reminder.ParseLevel(string(level)); err != nil {
		return commonerrors.NewTemplateNotFoundError(string(level))
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminder_templates (level, content) VALUES ($1, $2)
		 ON CONFLICT (level) DO UPDATE SET content = EXCLUDED.content`,
		string(level), content)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError("upsert_template", err)
	}
	return nil
}

var _ reminder.TemplateSource = (*TemplateStore)(nil)
