package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

const profileColumns = `
	user_id, role, full_name, email, whatsapp, profession, city, sub_city_zone,
	postal_code, stripe_customer_id, membership, areas_servicio, created_at, updated_at`

type ProfileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) Create(ctx context.Context, p *entity.Profile) error {
	query := `
		INSERT INTO profiles (user_id, role, full_name, email, whatsapp, profession, membership,
		                      areas_servicio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	areas := p.AreasServicio
	if areas == nil {
		areas = []string{}
	}

	_, err := r.DB.ExecContext(ctx, query,
		p.UserID,
		p.Role,
		p.FullName,
		p.Email,
		nullString(p.Whatsapp),
		nullString(p.Profession),
		p.Membership,
		pq.Array(areas),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrProfileAlreadyExists
		}
		return fmt.Errorf("error creando perfil: %w", err)
	}
	return nil
}

func (r *ProfileRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	return err
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*entity.Profile, error) {
	return r.findOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
}

func (r *ProfileRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*entity.Profile, error) {
	return r.findOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE stripe_customer_id = $1 LIMIT 1`, customerID)
}

func (r *ProfileRepository) findOne(ctx context.Context, query string, arg string) (*entity.Profile, error) {
	var (
		p                                       entity.Profile
		whatsapp, profession, city, zone, postal sql.NullString
		stripeID                                sql.NullString
	)

	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&p.UserID,
		&p.Role,
		&p.FullName,
		&p.Email,
		&whatsapp,
		&profession,
		&city,
		&zone,
		&postal,
		&stripeID,
		&p.Membership,
		pq.Array(&p.AreasServicio),
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error consultando perfil: %w", err)
	}

	p.Whatsapp = whatsapp.String
	p.Profession = profession.String
	p.City = city.String
	p.SubCityZone = zone.String
	p.PostalCode = postal.String
	p.StripeCustomerID = stripeID.String
	return &p, nil
}

func (r *ProfileRepository) UpdateRole(ctx context.Context, userID, role string) error {
	return r.updateOne(ctx, `UPDATE profiles SET role = $2, updated_at = now() WHERE user_id = $1`, userID, role)
}

// UpdateGeo escribe solo los campos geográficos no vacíos.
func (r *ProfileRepository) UpdateGeo(ctx context.Context, userID string, geo entity.GeoUpdate) error {
	sets := []string{}
	args := []any{userID}
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("city", geo.City)
	add("sub_city_zone", geo.SubCityZone)
	add("postal_code", geo.PostalCode)

	if len(sets) == 0 {
		return nil
	}

	query := `UPDATE profiles SET ` + strings.Join(sets, ", ") + `, updated_at = now() WHERE user_id = $1`
	return r.updateOne(ctx, query, args...)
}

func (r *ProfileRepository) UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error {
	return r.updateOne(ctx, `UPDATE profiles SET stripe_customer_id = $2, updated_at = now() WHERE user_id = $1`, userID, customerID)
}

func (r *ProfileRepository) UpdateMembership(ctx context.Context, userID, membership string) error {
	return r.updateOne(ctx, `UPDATE profiles SET membership = $2, updated_at = now() WHERE user_id = $1`, userID, membership)
}

func (r *ProfileRepository) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error actualizando perfil: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrProfileNotFound
	}
	return nil
}
