package usecase

import (
	"strings"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

// Señales de registro profesional, en orden de prioridad.
const (
	SignalMetadata          = "metadata_registration_type"
	SignalCookie            = "cookie_registration_type"
	SignalProfessionalFlow  = "join_as_pro_flow"
	SignalNameIndicators    = "email_or_name_indicator"
	SignalEmailConfirmation = "email_confirmation_referer"
)

// RegistrationContext son los datos disponibles en el callback para clasificar un registro nuevo.
type RegistrationContext struct {
	User         entity.AuthUser
	CookieHeader string
	Referer      string
	Origin       string
}

type RoleDecision struct {
	Role    string
	Signals []string
}

func (d RoleDecision) IsProfessional() bool {
	return d.Role == entity.RoleProfesional
}

// ClassifyRegistration decide el rol de un perfil nuevo. Es determinista: las mismas
// entradas producen el mismo rol y las mismas señales, en orden de prioridad.
func ClassifyRegistration(rc RegistrationContext) RoleDecision {
	var signals []string

	if rc.User.MetadataString("registration_type") == entity.RoleProfesional {
		signals = append(signals, SignalMetadata)
	}

	if strings.Contains(rc.CookieHeader, "registration_type=profesional") {
		signals = append(signals, SignalCookie)
	}

	if strings.Contains(rc.Referer, "join-as-pro") || strings.Contains(rc.Origin, "join-as-pro") {
		signals = append(signals, SignalProfessionalFlow)
	}

	// "pro" también cubre "profesional"; se busca en el email completo, dominio incluido.
	email := strings.ToLower(rc.User.Email)
	fullName := strings.ToLower(rc.User.MetadataString("full_name"))
	if strings.Contains(email, "pro") || strings.Contains(fullName, "profesional") {
		signals = append(signals, SignalNameIndicators)
	}

	if strings.Contains(rc.Referer, "sumeeapp.com") &&
		(strings.Contains(rc.Referer, "profesional") || strings.Contains(rc.Referer, "join-as-pro")) {
		signals = append(signals, SignalEmailConfirmation)
	}

	role := entity.RoleClient
	if len(signals) > 0 {
		role = entity.RoleProfesional
	}
	return RoleDecision{Role: role, Signals: signals}
}
