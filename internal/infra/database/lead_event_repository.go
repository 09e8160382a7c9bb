package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

type LeadEventRepository struct {
	DB *sql.DB
}

func NewLeadEventRepository(db *sql.DB) *LeadEventRepository {
	return &LeadEventRepository{DB: db}
}

func (r *LeadEventRepository) Insert(ctx context.Context, e *entity.LeadEvent) error {
	var payload *string
	if len(e.Payload) > 0 {
		s := string(e.Payload)
		payload = &s
	}

	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO lead_events (lead_id, actor_id, actor_role, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, e.LeadID, nullString(e.ActorID), e.ActorRole, e.EventType, payload, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("error registrando evento %s: %w", e.EventType, err)
	}
	return nil
}
