package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

type LeadReviewRepository struct {
	DB *sql.DB
}

func NewLeadReviewRepository(db *sql.DB) *LeadReviewRepository {
	return &LeadReviewRepository{DB: db}
}

func (r *LeadReviewRepository) Create(ctx context.Context, review *entity.LeadReview) error {
	query := `
		INSERT INTO lead_reviews (id, lead_id, rating, comment, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query,
		review.ID,
		review.LeadID,
		review.Rating,
		nullString(review.Comment),
		review.CreatedBy,
		review.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrReviewAlreadyExists
		}
		return fmt.Errorf("error creando reseña: %w", err)
	}
	return nil
}

// FindByLeadID devuelve nil, nil cuando el lead no tiene reseña.
func (r *LeadReviewRepository) FindByLeadID(ctx context.Context, leadID string) (*entity.LeadReview, error) {
	var (
		rv      entity.LeadReview
		comment sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, lead_id, rating, comment, created_by, created_at
		  FROM lead_reviews
		 WHERE lead_id = $1
	`, leadID).Scan(&rv.ID, &rv.LeadID, &rv.Rating, &comment, &rv.CreatedBy, &rv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error consultando reseña: %w", err)
	}
	rv.Comment = comment.String
	return &rv, nil
}
