package entity

import (
	"context"
	"errors"
	"time"
)

// Roles de usuario.
const (
	RoleClient        = "client"
	RoleProfesional   = "profesional"
	MembershipFree    = "free"
	MembershipPremium = "premium"
)

var (
	ErrProfileNotFound      = errors.New("perfil no encontrado")
	ErrProfileAlreadyExists = errors.New("el perfil ya existe")
)

type Profile struct {
	UserID           string    `json:"user_id"`
	Role             string    `json:"role"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email"`
	Whatsapp         string    `json:"whatsapp,omitempty"`
	Profession       string    `json:"profession,omitempty"`
	City             string    `json:"city,omitempty"`
	SubCityZone      string    `json:"sub_city_zone,omitempty"`
	PostalCode       string    `json:"postal_code,omitempty"`
	StripeCustomerID string    `json:"stripe_customer_id,omitempty"`
	Membership       string    `json:"membership"`
	AreasServicio    []string  `json:"areas_servicio,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (p *Profile) IsProfessional() bool {
	return p.Role == RoleProfesional
}

// Professional son los datos complementarios de un perfil con rol profesional.
type Professional struct {
	UserID               string    `json:"user_id"`
	FullName             string    `json:"full_name,omitempty"`
	Profession           string    `json:"profession"`
	Whatsapp             string    `json:"whatsapp"`
	DescripcionPerfil    string    `json:"descripcion_perfil"`
	Specialties          []string  `json:"specialties"`
	ExperienceYears      int       `json:"experience_years"`
	Disponibilidad       string    `json:"disponibilidad"`
	CalificacionPromedio *float64  `json:"calificacion_promedio"`
	AreasServicio        []string  `json:"areas_servicio"`
	Activo               bool      `json:"activo"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// GeoUpdate son los campos geográficos que puede escribir la geocodificación inversa.
type GeoUpdate struct {
	City        string
	SubCityZone string
	PostalCode  string
}

func (g GeoUpdate) IsEmpty() bool {
	return g.City == "" && g.SubCityZone == "" && g.PostalCode == ""
}

type ProfileRepositoryInterface interface {
	Create(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, userID string) error
	FindByUserID(ctx context.Context, userID string) (*Profile, error)
	FindByStripeCustomerID(ctx context.Context, customerID string) (*Profile, error)
	UpdateRole(ctx context.Context, userID, role string) error
	UpdateGeo(ctx context.Context, userID string, geo GeoUpdate) error
	UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error
	UpdateMembership(ctx context.Context, userID, membership string) error
}

type ProfessionalRepositoryInterface interface {
	Create(ctx context.Context, p *Professional) error
	FindByUserID(ctx context.Context, userID string) (*Professional, error)
	ListTopRated(ctx context.Context, limit int) ([]*Professional, error)
	RefreshRating(ctx context.Context, userID string) error
}
