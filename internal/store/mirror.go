// internal/store/mirror.go
package store

import (
	"context"
	"encoding/json"

	"docflow-workers/internal/models"
)

// DocumentIndexer is the slice of the elasticsearch client the mirror needs.
type DocumentIndexer interface {
	Index(ctx context.Context, index, documentID string, body []byte) error
}

// ElasticAuditMirror copies reminder audit entries into the search cluster so
// support staff can query delivery history without touching postgres. Callers
// treat failures as non-fatal.
type ElasticAuditMirror struct {
	es    DocumentIndexer
	index string
}

func NewElasticAuditMirror(es DocumentIndexer, index string) *ElasticAuditMirror {
	return &ElasticAuditMirror{es: es, index: index}
}

func (m *ElasticAuditMirror) Mirror(ctx context.Context, entry models.ReminderLog) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return m.es.Index(ctx, m.index, entry.ID, body)
}
