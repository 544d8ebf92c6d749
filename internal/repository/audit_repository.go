package repository

import (
	"context"
	"fmt"

	"seedvault-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type AuditRepository interface {
	Append(event *domain.AuditEvent) error
	ListByEmail(email string, limit int) ([]*domain.AuditEvent, error)
}

type auditRepository struct {
	client *kivik.Client
	dbName string
}

func NewAuditRepository(client *kivik.Client, dbName string) AuditRepository {
	return &auditRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *auditRepository) Append(event *domain.AuditEvent) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("audit:%s", event.ID)
	_, err := db.Put(context.Background(), docID, event)
	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}

	return nil
}

func (r *auditRepository) ListByEmail(email string, limit int) ([]*domain.AuditEvent, error) {
	db := r.client.DB(r.dbName)

	if limit <= 0 {
		limit = 50
	}

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"email": email,
			"event": map[string]interface{}{"$exists": true},
		},
		"limit": limit,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		if err := rows.ScanDoc(&event); err != nil {
			continue // Skip malformed docs
		}
		events = append(events, &event)
	}

	return events, nil
}
