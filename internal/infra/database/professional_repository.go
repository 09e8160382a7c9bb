package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

const professionalSelect = `
	SELECT pr.user_id, COALESCE(p.full_name, ''), pr.profession, pr.whatsapp, pr.descripcion_perfil,
	       pr.specialties, pr.experience_years, pr.disponibilidad, pr.calificacion_promedio,
	       pr.areas_servicio, pr.activo, pr.created_at, pr.updated_at
	  FROM profesionales pr
	  LEFT JOIN profiles p ON p.user_id = pr.user_id`

type ProfessionalRepository struct {
	DB *sql.DB
}

func NewProfessionalRepository(db *sql.DB) *ProfessionalRepository {
	return &ProfessionalRepository{DB: db}
}

func (r *ProfessionalRepository) Create(ctx context.Context, p *entity.Professional) error {
	query := `
		INSERT INTO profesionales (user_id, profession, whatsapp, descripcion_perfil, specialties,
		                           experience_years, disponibilidad, activo, areas_servicio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err := r.DB.ExecContext(ctx, query,
		p.UserID,
		p.Profession,
		p.Whatsapp,
		p.DescripcionPerfil,
		pq.Array(p.Specialties),
		p.ExperienceYears,
		p.Disponibilidad,
		p.Activo,
		pq.Array(p.AreasServicio),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error creando profesional: %w", err)
	}
	return nil
}

func (r *ProfessionalRepository) FindByUserID(ctx context.Context, userID string) (*entity.Professional, error) {
	p, err := scanProfessional(r.DB.QueryRowContext(ctx, professionalSelect+` WHERE pr.user_id = $1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error consultando profesional: %w", err)
	}
	return p, nil
}

// ListTopRated devuelve profesionales activos ordenados por calificación (sin calificar al final).
func (r *ProfessionalRepository) ListTopRated(ctx context.Context, limit int) ([]*entity.Professional, error) {
	rows, err := r.DB.QueryContext(ctx, professionalSelect+`
		 WHERE pr.activo
		 ORDER BY pr.calificacion_promedio DESC NULLS LAST, pr.experience_years DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("error listando profesionales: %w", err)
	}
	defer rows.Close()

	var out []*entity.Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RefreshRating recalcula calificacion_promedio con las reseñas de los leads del profesional.
func (r *ProfessionalRepository) RefreshRating(ctx context.Context, userID string) error {
	query := `
		UPDATE profesionales
		   SET calificacion_promedio = (
		           SELECT ROUND(AVG(rv.rating)::numeric, 2)
		             FROM lead_reviews rv
		             JOIN leads l ON l.id = rv.lead_id
		            WHERE l.profesional_asignado_id = $1
		       ),
		       updated_at = now()
		 WHERE user_id = $1
	`
	if _, err := r.DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("error recalculando calificación: %w", err)
	}
	return nil
}

func scanProfessional(s rowScanner) (*entity.Professional, error) {
	var (
		p      entity.Professional
		rating sql.NullFloat64
	)
	err := s.Scan(
		&p.UserID,
		&p.FullName,
		&p.Profession,
		&p.Whatsapp,
		&p.DescripcionPerfil,
		pq.Array(&p.Specialties),
		&p.ExperienceYears,
		&p.Disponibilidad,
		&rating,
		pq.Array(&p.AreasServicio),
		&p.Activo,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rating.Valid {
		v := rating.Float64
		p.CalificacionPromedio = &v
	}
	return &p, nil
}
